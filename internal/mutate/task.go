package mutate

import (
	"strings"
	"time"

	"dequeue/internal/model"
	"dequeue/internal/store"
)

// Tasks is the task lifecycle manager. Status transitions are simple field
// writes plus one event each; dependency cascades and recurrence are
// separate operations (AddDependency/OnTaskCompleted/CreateNextOccurrence)
// the caller invokes around them.
type Tasks struct {
	env *Env
}

func NewTasks(env *Env) *Tasks { return &Tasks{env: env} }

type CreateTaskParams struct {
	Title       string
	Description string
	Priority    int
	Tags        []string
	StartAt     *time.Time
	DueAt       *time.Time
	Recurrence  *model.RecurrenceRule
}

// Create appends a task to the end of a stack's queue.
func (ts *Tasks) Create(stackID string, p CreateTaskParams) (*model.Task, error) {
	db := ts.env.DB
	st, ok := db.FindStack(stackID)
	if !ok || st.IsDeleted {
		return nil, NotFoundError{Kind: "stack", ID: stackID}
	}
	title := strings.TrimSpace(p.Title)
	if title == "" {
		return nil, ErrInvalidTitle
	}

	now := ts.env.now()
	t := model.Task{
		ID:          store.NextID(db, "tsk"),
		StackID:     st.ID,
		Title:       title,
		Description: strings.TrimSpace(p.Description),
		Status:      model.TaskPending,
		Priority:    p.Priority,
		SortOrder:   len(db.TasksInStack(st.ID)),
		Tags:        append([]string(nil), p.Tags...),
		StartAt:     p.StartAt,
		DueAt:       p.DueAt,
		Recurrence:  p.Recurrence,
		CreatedAt:   now,
		UpdatedAt:   now,
		Revision:    1,
		SyncState:   model.SyncPending,
	}
	db.Tasks = append(db.Tasks, t)

	if err := ts.env.commit(ts.env.event(model.KindTask, t.ID, model.EvTaskCreated, model.SnapshotTask(t))); err != nil {
		return nil, err
	}
	created, _ := db.FindTask(t.ID)
	return created, nil
}

// TaskPatch is the tagged per-field update for Tasks.Update.
type TaskPatch struct {
	Title       Field[string]
	Description Field[string]
	Priority    Field[int]
	StartAt     Field[time.Time]
	DueAt       Field[time.Time]
}

// Update applies a patch; unchanged patches append nothing.
func (ts *Tasks) Update(id string, p TaskPatch) (*model.Task, error) {
	t, ok := ts.env.DB.FindTask(id)
	if !ok {
		return nil, NotFoundError{Kind: "task", ID: id}
	}
	if p.Title.IsClear() || (p.Title.IsSet() && strings.TrimSpace(p.Title.Value()) == "") {
		return nil, ErrInvalidTitle
	}

	var changes model.ChangeSet
	if p.Title.IsSet() {
		if v := strings.TrimSpace(p.Title.Value()); v != t.Title {
			changes.Add("title", t.Title, v)
			t.Title = v
		}
	}
	if v, changed := p.Description.apply(t.Description, func(x, y string) bool { return x == y }); changed {
		changes.Add("description", t.Description, v)
		t.Description = v
	}
	if v, changed := p.Priority.apply(t.Priority, func(x, y int) bool { return x == y }); changed {
		changes.Add("priority", t.Priority, v)
		t.Priority = v
	}
	if v, changed := applyTimeField(p.StartAt, t.StartAt); changed {
		changes.Add("startAt", t.StartAt, v)
		t.StartAt = v
	}
	if v, changed := applyTimeField(p.DueAt, t.DueAt); changed {
		changes.Add("dueAt", t.DueAt, v)
		t.DueAt = v
	}

	if changes.Empty() {
		return t, nil
	}
	t.Touch(ts.env.now())
	if err := ts.env.commit(ts.env.event(model.KindTask, t.ID, model.EvTaskUpdated, changes)); err != nil {
		return nil, err
	}
	return t, nil
}

// MarkCompleted completes the task. Cascading unblocks and recurrence are
// separate follow-up operations.
func (ts *Tasks) MarkCompleted(id string) error {
	t, ok := ts.env.DB.FindTask(id)
	if !ok {
		return NotFoundError{Kind: "task", ID: id}
	}
	if t.Status == model.TaskCompleted {
		return nil
	}
	t.Status = model.TaskCompleted
	t.BlockedReason = ""
	t.Touch(ts.env.now())
	return ts.env.commit(ts.env.event(model.KindTask, t.ID, model.EvTaskCompleted, model.SnapshotTask(*t)))
}

func (ts *Tasks) MarkBlocked(id, reason string) error {
	t, ok := ts.env.DB.FindTask(id)
	if !ok {
		return NotFoundError{Kind: "task", ID: id}
	}
	t.Status = model.TaskBlocked
	t.BlockedReason = strings.TrimSpace(reason)
	t.Touch(ts.env.now())
	return ts.env.commit(ts.env.event(model.KindTask, t.ID, model.EvTaskBlocked, model.BlockPayload{Reason: t.BlockedReason}))
}

func (ts *Tasks) Unblock(id string) error {
	t, ok := ts.env.DB.FindTask(id)
	if !ok {
		return NotFoundError{Kind: "task", ID: id}
	}
	if t.Status != model.TaskBlocked {
		return nil
	}
	t.Status = model.TaskPending
	t.BlockedReason = ""
	t.Touch(ts.env.now())
	return ts.env.commit(ts.env.event(model.KindTask, t.ID, model.EvTaskUnblocked, model.SnapshotTask(*t)))
}

func (ts *Tasks) Close(id string) error {
	t, ok := ts.env.DB.FindTask(id)
	if !ok {
		return NotFoundError{Kind: "task", ID: id}
	}
	t.Status = model.TaskClosed
	t.Touch(ts.env.now())
	return ts.env.commit(ts.env.event(model.KindTask, t.ID, model.EvTaskClosed, model.SnapshotTask(*t)))
}

func (ts *Tasks) Delete(id string) error {
	t, ok := ts.env.DB.FindTask(id)
	if !ok {
		return NotFoundError{Kind: "task", ID: id}
	}
	t.IsDeleted = true
	t.Touch(ts.env.now())
	return ts.env.commit(ts.env.event(model.KindTask, t.ID, model.EvTaskDeleted, model.SnapshotTask(*t)))
}

// Reorder assigns dense sort orders within one stack following the given
// id order.
func (ts *Tasks) Reorder(stackID string, ids []string) error {
	db := ts.env.DB
	if _, ok := db.FindStack(stackID); !ok {
		return NotFoundError{Kind: "stack", ID: stackID}
	}
	now := ts.env.now()

	pos := map[string]int{}
	for i, id := range ids {
		pos[id] = i
	}

	var entries []model.ReorderEntry
	idx := len(ids)
	for _, t := range db.TasksInStack(stackID) {
		order, listed := pos[t.ID]
		if !listed {
			order = idx
			idx++
		}
		if t.SortOrder != order {
			t.SortOrder = order
			t.Touch(now)
		}
		entries = append(entries, model.ReorderEntry{ID: t.ID, SortOrder: order})
	}
	if len(entries) == 0 {
		return nil
	}
	anchor := entries[0].ID
	if len(ids) > 0 {
		anchor = ids[0]
	}
	return ts.env.commit(ts.env.event(model.KindTask, anchor, model.EvTaskReordered, entries))
}

// Activate moves the task to the front of its stack's pending queue, points
// the stack's current-task pointer at it and stamps its last-activated
// time. Every reindexed task gets its own reorder event, the target an
// activation event.
func (ts *Tasks) Activate(id string) error {
	db := ts.env.DB
	t, ok := db.FindTask(id)
	if !ok {
		return NotFoundError{Kind: "task", ID: id}
	}
	st, ok := db.FindStack(t.StackID)
	if !ok {
		return NotFoundError{Kind: "stack", ID: t.StackID}
	}

	now := ts.env.now()
	st.ActiveTaskID = t.ID
	st.Touch(now)
	t.LastActivatedAt = &now

	// Move-to-front over the pending queue; the rest keep relative order.
	var events []model.Event
	t.SortOrder = 0
	t.Touch(now)
	idx := 1
	for _, other := range db.PendingTasksInStack(st.ID) {
		if other.ID == t.ID {
			continue
		}
		if other.SortOrder != idx {
			other.SortOrder = idx
			other.Touch(now)
			events = append(events, ts.env.event(model.KindTask, other.ID, model.EvTaskReordered,
				[]model.ReorderEntry{{ID: other.ID, SortOrder: idx}}))
		}
		idx++
	}
	events = append(events, ts.env.event(model.KindTask, t.ID, model.EvTaskActivated, model.SnapshotTask(*t)))
	return ts.env.commit(events...)
}
