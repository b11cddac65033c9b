package mutate

import (
	"strings"

	"dequeue/internal/model"
	"dequeue/internal/store"
)

// Stacks is the stack lifecycle manager. It owns the store-wide
// single-active-stack invariant.
type Stacks struct {
	env *Env
}

func NewStacks(env *Env) *Stacks { return &Stacks{env: env} }

// Create adds a stack. The first non-draft stack auto-activates: when no
// other non-deleted, non-draft stack holds the active flag, the new stack
// becomes the focused one.
func (s *Stacks) Create(title, description string, isDraft bool) (*model.Stack, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrInvalidTitle
	}
	db := s.env.DB
	now := s.env.now()

	sortOrder := 0
	for i := range db.Stacks {
		if !db.Stacks[i].IsDeleted {
			sortOrder++
		}
	}

	autoActivate := !isDraft && len(db.ActiveFlaggedStacks()) == 0

	st := model.Stack{
		ID:          store.NextID(db, "stk"),
		Title:       title,
		Description: strings.TrimSpace(description),
		Status:      model.StackActive,
		IsDraft:     isDraft,
		IsActive:    autoActivate,
		SortOrder:   sortOrder,
		CreatedAt:   now,
		UpdatedAt:   now,
		Revision:    1,
		SyncState:   model.SyncPending,
	}
	db.Stacks = append(db.Stacks, st)

	events := []model.Event{
		s.env.event(model.KindStack, st.ID, model.EvStackCreated, model.SnapshotStack(st)),
	}
	if autoActivate {
		events = append(events, s.env.event(model.KindStack, st.ID, model.EvStackActivated, model.SnapshotStack(st)))
	}
	if err := s.env.commit(events...); err != nil {
		return nil, err
	}
	created, _ := db.FindStack(st.ID)
	return created, nil
}

// Update edits a published stack. Only fields that actually differ are
// written; when nothing differs no event is appended and no save happens.
func (s *Stacks) Update(id string, title, description Field[string]) (*model.Stack, error) {
	st, ok := s.env.DB.FindStack(id)
	if !ok {
		return nil, NotFoundError{Kind: "stack", ID: id}
	}
	return s.applyUpdate(st, title, description)
}

// UpdateDraft edits a draft stack.
func (s *Stacks) UpdateDraft(id string, title, description Field[string]) (*model.Stack, error) {
	st, ok := s.env.DB.FindStack(id)
	if !ok {
		return nil, NotFoundError{Kind: "stack", ID: id}
	}
	if !st.IsDraft {
		return nil, ErrNotADraft
	}
	return s.applyUpdate(st, title, description)
}

func (s *Stacks) applyUpdate(st *model.Stack, title, description Field[string]) (*model.Stack, error) {
	if title.IsClear() || (title.IsSet() && strings.TrimSpace(title.Value()) == "") {
		return nil, ErrInvalidTitle
	}

	var changes model.ChangeSet
	if title.IsSet() {
		if v := strings.TrimSpace(title.Value()); v != st.Title {
			changes.Add("title", st.Title, v)
			st.Title = v
		}
	}
	if desc, changed := description.apply(st.Description, func(a, b string) bool { return a == b }); changed {
		changes.Add("description", st.Description, desc)
		st.Description = desc
	}
	if changes.Empty() {
		return st, nil
	}

	st.Touch(s.env.now())
	if err := s.env.commit(s.env.event(model.KindStack, st.ID, model.EvStackUpdated, changes)); err != nil {
		return nil, err
	}
	return st, nil
}

// PublishDraft turns a draft into a live stack. Like Create, it
// auto-activates when nothing else holds the focus flag.
func (s *Stacks) PublishDraft(id string) (*model.Stack, error) {
	db := s.env.DB
	st, ok := db.FindStack(id)
	if !ok {
		return nil, NotFoundError{Kind: "stack", ID: id}
	}
	if !st.IsDraft {
		return nil, ErrNotADraft
	}

	st.IsDraft = false
	autoActivate := len(db.ActiveFlaggedStacks()) == 0
	if autoActivate {
		st.IsActive = true
	}
	st.Touch(s.env.now())

	events := []model.Event{
		s.env.event(model.KindStack, st.ID, model.EvStackDraftPublished, model.SnapshotStack(*st)),
	}
	if autoActivate {
		events = append(events, s.env.event(model.KindStack, st.ID, model.EvStackActivated, model.SnapshotStack(*st)))
	}
	if err := s.env.commit(events...); err != nil {
		return nil, err
	}
	return st, nil
}

// DiscardDraft soft-deletes a draft. Drafts never affect lifecycle
// invariants but their events still land in the log.
func (s *Stacks) DiscardDraft(id string) error {
	st, ok := s.env.DB.FindStack(id)
	if !ok {
		return NotFoundError{Kind: "stack", ID: id}
	}
	if !st.IsDraft {
		return ErrNotADraft
	}
	st.IsDeleted = true
	st.Touch(s.env.now())
	return s.env.commit(s.env.event(model.KindStack, st.ID, model.EvStackDraftDiscarded, model.SnapshotStack(*st)))
}

// SetActive makes target the single focused stack. The previous focus
// holder's deactivation event is appended before it is mutated, so the
// payload captures pre-change state. The active-status set is re-packed to
// a dense ordering with target at the front.
func (s *Stacks) SetActive(id string) error {
	db := s.env.DB
	target, ok := db.FindStack(id)
	if !ok {
		return NotFoundError{Kind: "stack", ID: id}
	}
	if target.IsDeleted {
		return ErrCannotActivateDeletedStack
	}
	if target.IsDraft {
		return ErrCannotActivateDraftStack
	}

	now := s.env.now()
	var events []model.Event

	// Capture the outgoing focus holder before any mutation.
	for _, st := range db.ActiveFlaggedStacks() {
		if st.ID == target.ID {
			continue
		}
		events = append(events, s.env.event(model.KindStack, st.ID, model.EvStackDeactivated, model.SnapshotStack(*st)))
	}

	// One pass over the active-status set: target moves to the front, the
	// rest keep their relative order and get dense indexes.
	live := db.LiveStacks()
	target.IsActive = true
	target.SortOrder = 0
	target.Touch(now)
	idx := 1
	reorder := []model.ReorderEntry{{ID: target.ID, SortOrder: 0}}
	for _, st := range live {
		if st.ID == target.ID {
			continue
		}
		if st.IsActive {
			st.IsActive = false
		}
		if st.SortOrder != idx {
			st.SortOrder = idx
		}
		st.Touch(now)
		reorder = append(reorder, model.ReorderEntry{ID: st.ID, SortOrder: idx})
		idx++
	}
	// Focus flags outside the active-status set are cleared too; the flag
	// is store-wide.
	for _, st := range db.ActiveFlaggedStacks() {
		if st.ID == target.ID {
			continue
		}
		st.IsActive = false
		st.Touch(now)
	}

	events = append(events,
		s.env.event(model.KindStack, target.ID, model.EvStackActivated, model.SnapshotStack(*target)),
		s.env.event(model.KindStack, target.ID, model.EvStackReordered, reorder),
	)
	if err := s.env.commit(events...); err != nil {
		return err
	}

	// Postcondition: exactly one focused stack must remain. A violation
	// means the algorithm above is broken, not the caller.
	if n := len(db.ActiveFlaggedStacks()); n > 1 {
		return MultipleActiveStacksError{Count: n}
	}
	return nil
}

// MarkCompleted completes the stack. With completeAllTasks, every pending
// non-deleted task is completed through the task manager's own event path.
func (s *Stacks) MarkCompleted(id string, completeAllTasks bool) error {
	db := s.env.DB
	st, ok := db.FindStack(id)
	if !ok {
		return NotFoundError{Kind: "stack", ID: id}
	}

	st.Status = model.StackCompleted
	st.Touch(s.env.now())
	if err := s.env.commit(s.env.event(model.KindStack, st.ID, model.EvStackCompleted, model.SnapshotStack(*st))); err != nil {
		return err
	}

	if !completeAllTasks {
		return nil
	}
	tasks := NewTasks(s.env)
	for _, t := range db.PendingTasksInStack(st.ID) {
		if err := tasks.MarkCompleted(t.ID); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the stack without completing its tasks.
func (s *Stacks) Close(id string) error {
	st, ok := s.env.DB.FindStack(id)
	if !ok {
		return NotFoundError{Kind: "stack", ID: id}
	}
	st.Status = model.StackClosed
	st.Touch(s.env.now())
	return s.env.commit(s.env.event(model.KindStack, st.ID, model.EvStackClosed, model.SnapshotStack(*st)))
}

// Delete soft-deletes the stack. A deleted stack can never hold focus.
func (s *Stacks) Delete(id string) error {
	st, ok := s.env.DB.FindStack(id)
	if !ok {
		return NotFoundError{Kind: "stack", ID: id}
	}
	st.IsDeleted = true
	st.IsActive = false
	st.Touch(s.env.now())
	return s.env.commit(s.env.event(model.KindStack, st.ID, model.EvStackDeleted, model.SnapshotStack(*st)))
}

// Reorder assigns dense sort orders following the given id order. Ids not
// present keep their position at the end in previous relative order.
func (s *Stacks) Reorder(ids []string) error {
	db := s.env.DB
	now := s.env.now()

	pos := map[string]int{}
	for i, id := range ids {
		pos[id] = i
	}

	var entries []model.ReorderEntry
	idx := len(ids)
	for _, st := range db.LiveStacks() {
		order, listed := pos[st.ID]
		if !listed {
			order = idx
			idx++
		}
		if st.SortOrder != order {
			st.SortOrder = order
			st.Touch(now)
		}
		entries = append(entries, model.ReorderEntry{ID: st.ID, SortOrder: order})
	}
	if len(entries) == 0 {
		return nil
	}
	anchor := entries[0].ID
	if len(ids) > 0 {
		anchor = ids[0]
	}
	return s.env.commit(s.env.event(model.KindStack, anchor, model.EvStackReordered, entries))
}

// snapshotStackEvents lists the event types whose payload is a full
// StackSnapshot. Update events carry a change set, not a snapshot, and
// cannot be reverted to.
var snapshotStackEvents = map[string]bool{
	model.EvStackCreated:        true,
	model.EvStackActivated:      true,
	model.EvStackDeactivated:    true,
	model.EvStackCompleted:      true,
	model.EvStackClosed:         true,
	model.EvStackDeleted:        true,
	model.EvStackDraftPublished: true,
	model.EvStackDraftDiscarded: true,
}

// RevertToHistoricalState overwrites the stack's mutable fields with the
// snapshot carried by a historical event, then appends a fresh update
// event. The original event is never altered; history only grows. Only
// snapshot-carrying events are accepted; anything else would decode into
// a zero-value snapshot and wipe the stack.
func (s *Stacks) RevertToHistoricalState(id string, ev model.Event) (*model.Stack, error) {
	st, ok := s.env.DB.FindStack(id)
	if !ok {
		return nil, NotFoundError{Kind: "stack", ID: id}
	}
	if !snapshotStackEvents[ev.Type] {
		return nil, ErrNoSnapshotPayload
	}

	snap, err := model.DecodePayload[model.StackSnapshot](ev)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(snap.Title) == "" {
		return nil, ErrInvalidTitle
	}

	st.Title = snap.Title
	st.Description = snap.Description
	st.Status = snap.Status
	st.Priority = snap.Priority
	st.SortOrder = snap.SortOrder
	st.IsDraft = snap.IsDraft
	st.IsActive = snap.IsActive
	st.Touch(s.env.now())

	payload := model.RevertPayload{SourceEventID: ev.ID, Snapshot: snap}
	if err := s.env.commit(s.env.event(model.KindStack, st.ID, model.EvStackUpdated, payload)); err != nil {
		return nil, err
	}
	return st, nil
}

// MigrateActiveState reconciles stores created before the explicit focus
// flag existed. Zero flagged stacks: the lowest sort order wins. More than
// one: only the lowest sort order keeps the flag. Idempotent.
func (s *Stacks) MigrateActiveState() (bool, error) {
	db := s.env.DB
	live := db.LiveStacks()
	if len(live) == 0 {
		return false, nil
	}

	var flagged []*model.Stack
	for _, st := range live {
		if st.IsActive {
			flagged = append(flagged, st)
		}
	}

	now := s.env.now()
	switch {
	case len(flagged) == 1:
		return false, nil

	case len(flagged) == 0:
		winner := live[0] // LiveStacks is sorted by sort order
		winner.IsActive = true
		winner.Touch(now)
		err := s.env.commit(s.env.event(model.KindStack, winner.ID, model.EvStackActivated, model.SnapshotStack(*winner)))
		return err == nil, err

	default:
		// flagged is in sort order; the first entry keeps the flag.
		var events []model.Event
		for _, st := range flagged[1:] {
			events = append(events, s.env.event(model.KindStack, st.ID, model.EvStackDeactivated, model.SnapshotStack(*st)))
			st.IsActive = false
			st.Touch(now)
		}
		err := s.env.commit(events...)
		return err == nil, err
	}
}
