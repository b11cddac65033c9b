package model

import "time"

type SyncState string

const (
	SyncPending SyncState = "pending"
	SyncSynced  SyncState = "synced"
)

type ArcStatus string

const (
	ArcActive    ArcStatus = "active"
	ArcPaused    ArcStatus = "paused"
	ArcCompleted ArcStatus = "completed"
	ArcArchived  ArcStatus = "archived"
)

type StackStatus string

const (
	StackActive    StackStatus = "active"
	StackCompleted StackStatus = "completed"
	StackClosed    StackStatus = "closed"
)

type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskBlocked   TaskStatus = "blocked"
	TaskCompleted TaskStatus = "completed"
	TaskClosed    TaskStatus = "closed"
)

// Arc is the top-level grouping of stacks. At most a configured number of
// arcs (default 5) may be active and non-deleted at the same time.
type Arc struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	ColorHex    string     `json:"colorHex,omitempty"`
	Status      ArcStatus  `json:"status"`
	SortOrder   int        `json:"sortOrder"`
	StartAt     *time.Time `json:"startAt,omitempty"`
	DueAt       *time.Time `json:"dueAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	IsDeleted bool      `json:"isDeleted"`
	Revision  int       `json:"revision"`
	SyncState SyncState `json:"syncState"`
}

// Stack is an ordered queue of tasks representing one unit of focus.
// IsActive is the store-wide singleton focus flag and is distinct from
// Status == StackActive. Drafts are excluded from lifecycle invariants
// but still participate in the event log.
type Stack struct {
	ID          string      `json:"id"`
	ArcID       string      `json:"arcId,omitempty"` // non-owning back-reference
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	Status      StackStatus `json:"status"`
	IsDraft     bool        `json:"isDraft"`
	IsActive    bool        `json:"isActive"`
	SortOrder   int         `json:"sortOrder"`
	Priority    int         `json:"priority"`
	Tags        []string    `json:"tags,omitempty"`

	// ActiveTaskID points at the task currently in focus within this stack.
	ActiveTaskID string `json:"activeTaskId,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	IsDeleted bool      `json:"isDeleted"`
	Revision  int       `json:"revision"`
	SyncState SyncState `json:"syncState"`
}

// Task belongs to exactly one stack. DependencyIDs holds the ids of tasks
// that block this one (edge task -> blocker).
type Task struct {
	ID          string     `json:"id"`
	StackID     string     `json:"stackId"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      TaskStatus `json:"status"`
	Priority    int        `json:"priority"`
	SortOrder   int        `json:"sortOrder"`
	Tags        []string   `json:"tags,omitempty"`
	StartAt     *time.Time `json:"startAt,omitempty"`
	DueAt       *time.Time `json:"dueAt,omitempty"`

	DependencyIDs []string `json:"dependencyIds,omitempty"`
	BlockedReason string   `json:"blockedReason,omitempty"`

	Recurrence           *RecurrenceRule `json:"recurrence,omitempty"`
	RecurrenceParentID   string          `json:"recurrenceParentId,omitempty"`
	CompletedOccurrences int             `json:"completedOccurrences,omitempty"`

	LastActivatedAt *time.Time `json:"lastActivatedAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	IsDeleted bool      `json:"isDeleted"`
	Revision  int       `json:"revision"`
	SyncState SyncState `json:"syncState"`
}

type EntityKind string

const (
	KindArc   EntityKind = "arc"
	KindStack EntityKind = "stack"
	KindTask  EntityKind = "task"
)

// Event is one immutable record in the append-only change log. Events are
// never updated or deleted; historical revert replays a payload as a new
// update event.
type Event struct {
	ID         string     `json:"id"`
	TS         time.Time  `json:"ts"`
	ActorID    string     `json:"actorId"`
	DeviceID   string     `json:"deviceId,omitempty"`
	EntityKind EntityKind `json:"entityKind"`
	EntityID   string     `json:"entityId"`
	Type       string     `json:"type"`
	Payload    any        `json:"payload"`
}

// Touch stamps a local mutation: updatedAt, revision bump, sync state reset.
func (a *Arc) Touch(now time.Time) {
	a.UpdatedAt = now
	a.Revision++
	a.SyncState = SyncPending
}

func (s *Stack) Touch(now time.Time) {
	s.UpdatedAt = now
	s.Revision++
	s.SyncState = SyncPending
}

func (t *Task) Touch(now time.Time) {
	t.UpdatedAt = now
	t.Revision++
	t.SyncState = SyncPending
}
