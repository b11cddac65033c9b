package mutate

import (
	"time"

	"dequeue/internal/model"
	"dequeue/internal/recur"
	"dequeue/internal/store"
)

// CreateNextOccurrence spawns the successor of a completed recurring task.
// Returns (nil, nil) when no successor is due: the task has no recurrence
// rule, the rule's end condition is reached, or the owning stack is gone.
// The predecessor's occurrence counter and the new task commit together.
func (ts *Tasks) CreateNextOccurrence(completedID string) (*model.Task, error) {
	db := ts.env.DB
	pred, ok := db.FindTask(completedID)
	if !ok {
		return nil, NotFoundError{Kind: "task", ID: completedID}
	}
	if pred.Recurrence == nil {
		return nil, nil
	}
	rule := *pred.Recurrence

	occurrences := pred.CompletedOccurrences + 1
	if rule.End.Kind == model.EndAfterOccurrences && occurrences >= rule.End.Count {
		pred.CompletedOccurrences = occurrences
		pred.Touch(ts.env.now())
		if err := ts.env.commit(); err != nil {
			return nil, err
		}
		return nil, nil
	}

	now := ts.env.now()
	ref := now
	if pred.DueAt != nil {
		ref = *pred.DueAt
	}
	next, ok := recur.NextDate(ref, rule)
	if !ok {
		return nil, nil
	}
	if rule.End.Kind == model.EndOnDate && rule.End.Date != nil {
		// The chain stops once either the clock or the next occurrence
		// reaches the end date; a date exactly on it is past the end.
		end := *rule.End.Date
		if !next.Before(end) || !now.Before(end) {
			pred.CompletedOccurrences = occurrences
			pred.Touch(now)
			if err := ts.env.commit(); err != nil {
				return nil, err
			}
			return nil, nil
		}
	}

	st, ok := db.FindStack(pred.StackID)
	if !ok || st.IsDeleted {
		return nil, nil
	}

	parentID := pred.RecurrenceParentID
	if parentID == "" {
		parentID = pred.ID
	}

	// The successor gets its own rule copy so later edits to one task's
	// rule never leak into the other.
	succRule := rule
	succRule.DaysOfWeek = append([]time.Weekday(nil), rule.DaysOfWeek...)

	succ := model.Task{
		ID:                   store.NextID(db, "tsk"),
		StackID:              st.ID,
		Title:                pred.Title,
		Description:          pred.Description,
		Status:               model.TaskPending,
		Priority:             pred.Priority,
		SortOrder:            len(db.TasksInStack(st.ID)),
		Tags:                 append([]string(nil), pred.Tags...),
		Recurrence:           &succRule,
		RecurrenceParentID:   parentID,
		CompletedOccurrences: occurrences,
		CreatedAt:            now,
		UpdatedAt:            now,
		Revision:             1,
		SyncState:            model.SyncPending,
	}
	due := next
	succ.DueAt = &due
	if pred.StartAt != nil && pred.DueAt != nil {
		// Preserve the lead time between start and due.
		lead := pred.DueAt.Sub(*pred.StartAt)
		start := next.Add(-lead)
		succ.StartAt = &start
	}

	// Bump before the append: appending may reallocate db.Tasks and strand
	// the pred pointer in the old backing array.
	pred.CompletedOccurrences = occurrences
	pred.Touch(now)
	db.Tasks = append(db.Tasks, succ)

	if err := ts.env.commit(ts.env.event(model.KindTask, succ.ID, model.EvTaskCreated, model.SnapshotTask(succ))); err != nil {
		return nil, err
	}
	created, _ := db.FindTask(succ.ID)
	return created, nil
}
