package mutate

import (
	"strings"
	"time"

	"dequeue/internal/model"
	"dequeue/internal/store"
)

// DefaultMaxActiveArcs bounds how many arcs may be active at once.
const DefaultMaxActiveArcs = 5

// Arcs is the arc lifecycle manager. It owns the bounded active-arc-count
// invariant.
type Arcs struct {
	env       *Env
	maxActive int
}

func NewArcs(env *Env, maxActive int) *Arcs {
	if maxActive <= 0 {
		maxActive = DefaultMaxActiveArcs
	}
	return &Arcs{env: env, maxActive: maxActive}
}

type CreateArcParams struct {
	Title       string
	Description string
	ColorHex    string
	Status      model.ArcStatus // defaults to active
	StartAt     *time.Time
	DueAt       *time.Time
}

// Create adds an arc. Creating with status active counts existing active
// arcs first; at the limit the call fails with MaxActiveArcsError and
// nothing is mutated. Non-active statuses are unaffected by the limit.
func (a *Arcs) Create(p CreateArcParams) (*model.Arc, error) {
	title := strings.TrimSpace(p.Title)
	if title == "" {
		return nil, ErrInvalidTitle
	}
	status := p.Status
	if status == "" {
		status = model.ArcActive
	}

	db := a.env.DB
	if status == model.ArcActive && db.ActiveArcCount() >= a.maxActive {
		return nil, MaxActiveArcsError{Limit: a.maxActive}
	}

	now := a.env.now()
	sortOrder := 0
	for i := range db.Arcs {
		if !db.Arcs[i].IsDeleted {
			sortOrder++
		}
	}

	arc := model.Arc{
		ID:          store.NextID(db, "arc"),
		Title:       title,
		Description: strings.TrimSpace(p.Description),
		ColorHex:    strings.TrimSpace(p.ColorHex),
		Status:      status,
		SortOrder:   sortOrder,
		StartAt:     p.StartAt,
		DueAt:       p.DueAt,
		CreatedAt:   now,
		UpdatedAt:   now,
		Revision:    1,
		SyncState:   model.SyncPending,
	}
	db.Arcs = append(db.Arcs, arc)

	if err := a.env.commit(a.env.event(model.KindArc, arc.ID, model.EvArcCreated, model.SnapshotArc(arc))); err != nil {
		return nil, err
	}
	created, _ := db.FindArc(arc.ID)
	return created, nil
}

// ArcPatch is the tagged per-field update for Arcs.Update. Keep leaves a
// field alone, Clear empties it, Set writes a value.
type ArcPatch struct {
	Title       Field[string]
	Description Field[string]
	ColorHex    Field[string]
	StartAt     Field[time.Time]
	DueAt       Field[time.Time]
}

// Update applies a patch. Only fields that actually differ are written and
// recorded in the change payload; when nothing differs no event is
// appended and no save happens.
func (a *Arcs) Update(id string, p ArcPatch) (*model.Arc, error) {
	arc, ok := a.env.DB.FindArc(id)
	if !ok {
		return nil, NotFoundError{Kind: "arc", ID: id}
	}
	if p.Title.IsClear() || (p.Title.IsSet() && strings.TrimSpace(p.Title.Value()) == "") {
		return nil, ErrInvalidTitle
	}

	var changes model.ChangeSet
	if p.Title.IsSet() {
		if v := strings.TrimSpace(p.Title.Value()); v != arc.Title {
			changes.Add("title", arc.Title, v)
			arc.Title = v
		}
	}
	if v, changed := p.Description.apply(arc.Description, func(x, y string) bool { return x == y }); changed {
		changes.Add("description", arc.Description, v)
		arc.Description = v
	}
	if v, changed := p.ColorHex.apply(arc.ColorHex, func(x, y string) bool { return x == y }); changed {
		changes.Add("colorHex", arc.ColorHex, v)
		arc.ColorHex = v
	}
	if ts, changed := applyTimeField(p.StartAt, arc.StartAt); changed {
		changes.Add("startAt", arc.StartAt, ts)
		arc.StartAt = ts
	}
	if ts, changed := applyTimeField(p.DueAt, arc.DueAt); changed {
		changes.Add("dueAt", arc.DueAt, ts)
		arc.DueAt = ts
	}

	if changes.Empty() {
		return arc, nil
	}
	arc.Touch(a.env.now())
	if err := a.env.commit(a.env.event(model.KindArc, arc.ID, model.EvArcUpdated, changes)); err != nil {
		return nil, err
	}
	return arc, nil
}

func applyTimeField(f Field[time.Time], current *time.Time) (*time.Time, bool) {
	switch {
	case f.IsSet():
		v := f.Value()
		if current != nil && current.Equal(v) {
			return current, false
		}
		return &v, true
	case f.IsClear():
		if current == nil {
			return nil, false
		}
		return nil, true
	default:
		return current, false
	}
}

// Delete detaches every assigned stack (the stacks survive), then marks
// the arc deleted. All writes commit as a single unit.
func (a *Arcs) Delete(id string) error {
	db := a.env.DB
	arc, ok := db.FindArc(id)
	if !ok {
		return NotFoundError{Kind: "arc", ID: id}
	}

	now := a.env.now()
	var events []model.Event
	for _, st := range db.StacksInArc(arc.ID) {
		st.ArcID = ""
		st.Touch(now)
		events = append(events, a.env.event(model.KindArc, arc.ID, model.EvArcStackRemoved, model.StackRefPayload{StackID: st.ID, ArcID: arc.ID}))
	}

	arc.IsDeleted = true
	arc.Touch(now)
	events = append(events, a.env.event(model.KindArc, arc.ID, model.EvArcDeleted, model.SnapshotArc(*arc)))
	return a.env.commit(events...)
}

func (a *Arcs) MarkCompleted(id string) error {
	return a.setStatus(id, model.ArcCompleted, model.EvArcCompleted)
}

func (a *Arcs) Pause(id string) error {
	return a.setStatus(id, model.ArcPaused, model.EvArcPaused)
}

func (a *Arcs) Archive(id string) error {
	return a.setStatus(id, model.ArcArchived, model.EvArcArchived)
}

// Resume reactivates a paused arc, subject to the same bound as Create.
func (a *Arcs) Resume(id string) error {
	db := a.env.DB
	arc, ok := db.FindArc(id)
	if !ok {
		return NotFoundError{Kind: "arc", ID: id}
	}
	if arc.Status == model.ArcActive {
		return nil
	}
	if db.ActiveArcCount() >= a.maxActive {
		return MaxActiveArcsError{Limit: a.maxActive}
	}
	arc.Status = model.ArcActive
	arc.Touch(a.env.now())
	return a.env.commit(a.env.event(model.KindArc, arc.ID, model.EvArcResumed, model.SnapshotArc(*arc)))
}

func (a *Arcs) setStatus(id string, status model.ArcStatus, eventType string) error {
	arc, ok := a.env.DB.FindArc(id)
	if !ok {
		return NotFoundError{Kind: "arc", ID: id}
	}
	if arc.Status == status {
		return nil
	}
	arc.Status = status
	arc.Touch(a.env.now())
	return a.env.commit(a.env.event(model.KindArc, arc.ID, eventType, model.SnapshotArc(*arc)))
}

// AssignStack puts a stack under an arc. Already assigned to the same arc
// is a no-op; assigned elsewhere triggers the remove-from-old-arc path
// first.
func (a *Arcs) AssignStack(stackID, arcID string) error {
	db := a.env.DB
	st, ok := db.FindStack(stackID)
	if !ok {
		return NotFoundError{Kind: "stack", ID: stackID}
	}
	arc, ok := db.FindArc(arcID)
	if !ok {
		return NotFoundError{Kind: "arc", ID: arcID}
	}
	if st.ArcID == arc.ID {
		return nil
	}

	now := a.env.now()
	var events []model.Event
	if st.ArcID != "" {
		events = append(events, a.env.event(model.KindArc, st.ArcID, model.EvArcStackRemoved, model.StackRefPayload{StackID: st.ID, ArcID: st.ArcID}))
	}
	st.ArcID = arc.ID
	st.Touch(now)
	events = append(events, a.env.event(model.KindArc, arc.ID, model.EvArcStackAdded, model.StackRefPayload{StackID: st.ID, ArcID: arc.ID}))
	return a.env.commit(events...)
}

// RemoveStack detaches a stack from an arc. Not assigned there is a no-op.
func (a *Arcs) RemoveStack(stackID, arcID string) error {
	db := a.env.DB
	st, ok := db.FindStack(stackID)
	if !ok {
		return NotFoundError{Kind: "stack", ID: stackID}
	}
	if st.ArcID != arcID {
		return nil
	}
	st.ArcID = ""
	st.Touch(a.env.now())
	return a.env.commit(a.env.event(model.KindArc, arcID, model.EvArcStackRemoved, model.StackRefPayload{StackID: st.ID, ArcID: arcID}))
}

// Reorder assigns dense sort orders following the given id order.
func (a *Arcs) Reorder(ids []string) error {
	db := a.env.DB
	now := a.env.now()

	pos := map[string]int{}
	for i, id := range ids {
		pos[id] = i
	}

	var entries []model.ReorderEntry
	idx := len(ids)
	for i := range db.Arcs {
		arc := &db.Arcs[i]
		if arc.IsDeleted {
			continue
		}
		order, listed := pos[arc.ID]
		if !listed {
			order = idx
			idx++
		}
		if arc.SortOrder != order {
			arc.SortOrder = order
			arc.Touch(now)
		}
		entries = append(entries, model.ReorderEntry{ID: arc.ID, SortOrder: order})
	}
	if len(entries) == 0 {
		return nil
	}
	anchor := entries[0].ID
	if len(ids) > 0 {
		anchor = ids[0]
	}
	return a.env.commit(a.env.event(model.KindArc, anchor, model.EvArcReordered, entries))
}
