package mutate

import (
	"fmt"

	"dequeue/internal/depgraph"
	"dequeue/internal/model"
)

// AddDependency records that task is blocked by blocker. Returns false
// without mutating anything when the edge would close a cycle (including a
// self-loop). A duplicate edge reports true and changes nothing.
func (ts *Tasks) AddDependency(taskID, blockerID string) (bool, error) {
	db := ts.env.DB
	t, ok := db.FindTask(taskID)
	if !ok {
		return false, NotFoundError{Kind: "task", ID: taskID}
	}
	blocker, ok := db.FindTask(blockerID)
	if !ok {
		return false, NotFoundError{Kind: "task", ID: blockerID}
	}
	if taskID == blockerID {
		return false, nil
	}
	if depgraph.Build(db.Tasks).WouldCycle(taskID, blockerID) {
		return false, nil
	}
	for _, dep := range t.DependencyIDs {
		if dep == blockerID {
			return true, nil
		}
	}

	now := ts.env.now()
	t.DependencyIDs = append(t.DependencyIDs, blockerID)
	t.Touch(now)
	events := []model.Event{
		ts.env.event(model.KindTask, t.ID, model.EvTaskDepAdded, model.DependencyPayload{BlockerID: blockerID}),
	}

	if blocker.Status != model.TaskCompleted && t.Status != model.TaskBlocked {
		t.Status = model.TaskBlocked
		t.BlockedReason = fmt.Sprintf("waiting on %s", blocker.Title)
		events = append(events, ts.env.event(model.KindTask, t.ID, model.EvTaskBlocked, model.BlockPayload{Reason: t.BlockedReason}))
	}
	if err := ts.env.commit(events...); err != nil {
		return false, err
	}
	return true, nil
}

// RemoveDependency drops the blocker edge. If the task was blocked and its
// remaining dependencies are all satisfied it flips back to pending.
func (ts *Tasks) RemoveDependency(taskID, blockerID string) error {
	db := ts.env.DB
	t, ok := db.FindTask(taskID)
	if !ok {
		return NotFoundError{Kind: "task", ID: taskID}
	}

	idx := -1
	for i, dep := range t.DependencyIDs {
		if dep == blockerID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}

	now := ts.env.now()
	t.DependencyIDs = append(t.DependencyIDs[:idx], t.DependencyIDs[idx+1:]...)
	t.Touch(now)
	events := []model.Event{
		ts.env.event(model.KindTask, t.ID, model.EvTaskDepRemoved, model.DependencyPayload{BlockerID: blockerID}),
	}

	if t.Status == model.TaskBlocked && ts.DependenciesSatisfied(t.ID) {
		t.Status = model.TaskPending
		t.BlockedReason = ""
		events = append(events, ts.env.event(model.KindTask, t.ID, model.EvTaskUnblocked, model.SnapshotTask(*t)))
	}
	return ts.env.commit(events...)
}

// DependenciesSatisfied reports whether every dependency of the task is
// completed. A dependency that no longer exists, or was deleted, does not
// block.
func (ts *Tasks) DependenciesSatisfied(taskID string) bool {
	db := ts.env.DB
	t, ok := db.FindTask(taskID)
	if !ok {
		return true
	}
	for _, dep := range t.DependencyIDs {
		blocker, ok := db.FindTask(dep)
		if !ok || blocker.IsDeleted {
			continue
		}
		if blocker.Status != model.TaskCompleted {
			return false
		}
	}
	return true
}

// OnTaskCompleted cascades through the completed task's dependents: every
// blocked dependent whose dependencies are now all satisfied flips back to
// pending. All unblocks commit as one unit.
func (ts *Tasks) OnTaskCompleted(completedID string) ([]string, error) {
	db := ts.env.DB
	var unblocked []string
	var events []model.Event
	now := ts.env.now()

	for _, depID := range depgraph.Dependents(db.Tasks, completedID) {
		dep, ok := db.FindTask(depID)
		if !ok || dep.Status != model.TaskBlocked {
			continue
		}
		if !ts.DependenciesSatisfied(dep.ID) {
			continue
		}
		dep.Status = model.TaskPending
		dep.BlockedReason = ""
		dep.Touch(now)
		unblocked = append(unblocked, dep.ID)
		events = append(events, ts.env.event(model.KindTask, dep.ID, model.EvTaskAutoUnblocked, model.SnapshotTask(*dep)))
	}
	if len(events) == 0 {
		return nil, nil
	}
	if err := ts.env.commit(events...); err != nil {
		return nil, err
	}
	return unblocked, nil
}
