package model

import (
	"encoding/json"
	"time"
)

// Event type names, dotted <kind>.<verb> like the log readers expect.
const (
	EvArcCreated      = "arc.create"
	EvArcUpdated      = "arc.update"
	EvArcDeleted      = "arc.delete"
	EvArcCompleted    = "arc.complete"
	EvArcPaused       = "arc.pause"
	EvArcResumed      = "arc.resume"
	EvArcArchived     = "arc.archive"
	EvArcReordered    = "arc.reorder"
	EvArcStackAdded   = "arc.stack_assigned"
	EvArcStackRemoved = "arc.stack_removed"

	EvStackCreated        = "stack.create"
	EvStackUpdated        = "stack.update"
	EvStackActivated      = "stack.activate"
	EvStackDeactivated    = "stack.deactivate"
	EvStackCompleted      = "stack.complete"
	EvStackClosed         = "stack.close"
	EvStackDeleted        = "stack.delete"
	EvStackReordered      = "stack.reorder"
	EvStackDraftPublished = "stack.publish_draft"
	EvStackDraftDiscarded = "stack.discard_draft"

	EvTaskCreated       = "task.create"
	EvTaskUpdated       = "task.update"
	EvTaskCompleted     = "task.complete"
	EvTaskBlocked       = "task.block"
	EvTaskUnblocked     = "task.unblock"
	EvTaskAutoUnblocked = "task.auto_unblock"
	EvTaskClosed        = "task.close"
	EvTaskDeleted       = "task.delete"
	EvTaskReordered     = "task.reorder"
	EvTaskActivated     = "task.activate"
	EvTaskDepAdded      = "task.dep_added"
	EvTaskDepRemoved    = "task.dep_removed"
)

// FieldChange records one field transition inside an update event.
type FieldChange struct {
	Field string `json:"field"`
	From  any    `json:"from,omitempty"`
	To    any    `json:"to"`
}

// ChangeSet is the typed payload for update events: only fields that
// actually changed appear.
type ChangeSet struct {
	Fields []FieldChange `json:"fields"`
}

func (c *ChangeSet) Add(field string, from, to any) {
	c.Fields = append(c.Fields, FieldChange{Field: field, From: from, To: to})
}

func (c ChangeSet) Empty() bool { return len(c.Fields) == 0 }

// StackSnapshot captures the mutable fields of a stack at event time. It is
// the payload of stack lifecycle events and the input to historical revert.
type StackSnapshot struct {
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	Status      StackStatus `json:"status"`
	Priority    int         `json:"priority"`
	SortOrder   int         `json:"sortOrder"`
	IsDraft     bool        `json:"isDraft"`
	IsActive    bool        `json:"isActive"`
}

func SnapshotStack(s Stack) StackSnapshot {
	return StackSnapshot{
		Title:       s.Title,
		Description: s.Description,
		Status:      s.Status,
		Priority:    s.Priority,
		SortOrder:   s.SortOrder,
		IsDraft:     s.IsDraft,
		IsActive:    s.IsActive,
	}
}

// ArcSnapshot is the payload of arc create/delete events.
type ArcSnapshot struct {
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	ColorHex    string     `json:"colorHex,omitempty"`
	Status      ArcStatus  `json:"status"`
	SortOrder   int        `json:"sortOrder"`
	StartAt     *time.Time `json:"startAt,omitempty"`
	DueAt       *time.Time `json:"dueAt,omitempty"`
}

func SnapshotArc(a Arc) ArcSnapshot {
	return ArcSnapshot{
		Title:       a.Title,
		Description: a.Description,
		ColorHex:    a.ColorHex,
		Status:      a.Status,
		SortOrder:   a.SortOrder,
		StartAt:     a.StartAt,
		DueAt:       a.DueAt,
	}
}

// TaskSnapshot is the payload of task create events.
type TaskSnapshot struct {
	StackID       string     `json:"stackId"`
	Title         string     `json:"title"`
	Description   string     `json:"description,omitempty"`
	Status        TaskStatus `json:"status"`
	Priority      int        `json:"priority"`
	SortOrder     int        `json:"sortOrder"`
	DependencyIDs []string   `json:"dependencyIds,omitempty"`
	StartAt       *time.Time `json:"startAt,omitempty"`
	DueAt         *time.Time `json:"dueAt,omitempty"`
}

func SnapshotTask(t Task) TaskSnapshot {
	return TaskSnapshot{
		StackID:       t.StackID,
		Title:         t.Title,
		Description:   t.Description,
		Status:        t.Status,
		Priority:      t.Priority,
		SortOrder:     t.SortOrder,
		DependencyIDs: t.DependencyIDs,
		StartAt:       t.StartAt,
		DueAt:         t.DueAt,
	}
}

// StackRefPayload names the stack involved in an arc membership event.
type StackRefPayload struct {
	StackID string `json:"stackId"`
	ArcID   string `json:"arcId,omitempty"`
}

// DependencyPayload names the blocker involved in a dependency event.
type DependencyPayload struct {
	BlockerID string `json:"blockerId"`
}

// BlockPayload carries the human-readable reason of a block transition.
type BlockPayload struct {
	Reason string `json:"reason,omitempty"`
}

// RevertPayload is appended when an entity is reverted to a historical
// state; the original event is left untouched.
type RevertPayload struct {
	SourceEventID string        `json:"sourceEventId,omitempty"`
	Snapshot      StackSnapshot `json:"snapshot"`
}

// ReorderEntry is one row in a reorder event payload.
type ReorderEntry struct {
	ID        string `json:"id"`
	SortOrder int    `json:"sortOrder"`
}

// DecodePayload re-types an event payload that may have gone through a
// serialization boundary (the log stores payloads as JSON).
func DecodePayload[T any](ev Event) (T, error) {
	var out T
	b, err := json.Marshal(ev.Payload)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return out, err
	}
	return out, nil
}
