package mutate

import (
	"errors"
	"testing"
	"time"

	"dequeue/internal/model"
)

func TestCreateArcEnforcesActiveLimit(t *testing.T) {
	env, _, sv := newTestEnv(t)
	arcs := NewArcs(env, 5)

	for i := 0; i < 5; i++ {
		if _, err := arcs.Create(CreateArcParams{Title: "Arc"}); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}

	saves := sv.saves
	_, err := arcs.Create(CreateArcParams{Title: "Sixth"})
	var limitErr MaxActiveArcsError
	if !errors.As(err, &limitErr) || limitErr.Limit != 5 {
		t.Fatalf("err = %v, want MaxActiveArcsError{5}", err)
	}
	if len(env.DB.Arcs) != 5 || sv.saves != saves {
		t.Fatal("rejected create must not mutate or save")
	}

	// A non-active sixth arc is fine.
	paused, err := arcs.Create(CreateArcParams{Title: "Paused sixth", Status: model.ArcPaused})
	if err != nil {
		t.Fatalf("create paused: %v", err)
	}
	if paused.Status != model.ArcPaused {
		t.Fatalf("status = %s", paused.Status)
	}
}

func TestDeletedArcsDoNotCountTowardLimit(t *testing.T) {
	env, _, _ := newTestEnv(t)
	arcs := NewArcs(env, 2)
	a, _ := arcs.Create(CreateArcParams{Title: "A"})
	if _, err := arcs.Create(CreateArcParams{Title: "B"}); err != nil {
		t.Fatal(err)
	}
	if err := arcs.Delete(a.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := arcs.Create(CreateArcParams{Title: "C"}); err != nil {
		t.Fatalf("create after delete: %v", err)
	}
}

func TestResumeRespectsLimit(t *testing.T) {
	env, log, _ := newTestEnv(t)
	arcs := NewArcs(env, 2)
	a, _ := arcs.Create(CreateArcParams{Title: "A"})
	b, _ := arcs.Create(CreateArcParams{Title: "B"})
	if err := arcs.Pause(a.ID); err != nil {
		t.Fatal(err)
	}

	// Resume works below the limit.
	if err := arcs.Resume(a.ID); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if len(log.ofType(model.EvArcResumed)) != 1 {
		t.Fatal("expected resume event")
	}

	// Resuming an active arc is a no-op.
	before := len(log.events)
	if err := arcs.Resume(b.ID); err != nil {
		t.Fatalf("resume active: %v", err)
	}
	if len(log.events) != before {
		t.Fatal("no-op resume must not append")
	}

	if err := arcs.Pause(a.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := arcs.Create(CreateArcParams{Title: "C"}); err != nil {
		t.Fatal(err)
	}
	var limitErr MaxActiveArcsError
	if err := arcs.Resume(a.ID); !errors.As(err, &limitErr) {
		t.Fatalf("err = %v, want MaxActiveArcsError", err)
	}
	got, _ := env.DB.FindArc(a.ID)
	if got.Status != model.ArcPaused {
		t.Fatalf("rejected resume mutated status to %s", got.Status)
	}
}

func TestArcUpdateTaggedFields(t *testing.T) {
	env, log, _ := newTestEnv(t)
	arcs := NewArcs(env, 0)
	due := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	arc, _ := arcs.Create(CreateArcParams{Title: "Arc", Description: "desc", DueAt: &due})

	log.events = nil
	got, err := arcs.Update(arc.ID, ArcPatch{
		Title:       Keep[string](),
		Description: Clear[string](),
		ColorHex:    Set("#ff8800"),
		DueAt:       Clear[time.Time](),
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Title != "Arc" {
		t.Fatalf("kept title changed: %q", got.Title)
	}
	if got.Description != "" || got.DueAt != nil {
		t.Fatalf("cleared fields survive: desc=%q due=%v", got.Description, got.DueAt)
	}
	if got.ColorHex != "#ff8800" {
		t.Fatalf("color = %q", got.ColorHex)
	}

	ups := log.ofType(model.EvArcUpdated)
	if len(ups) != 1 {
		t.Fatalf("update events = %d", len(ups))
	}
	cs, err := model.DecodePayload[model.ChangeSet](ups[0])
	if err != nil {
		t.Fatal(err)
	}
	if len(cs.Fields) != 3 {
		t.Fatalf("changed fields = %+v", cs.Fields)
	}

	// Re-applying the same values is a no-op.
	before := len(log.events)
	if _, err := arcs.Update(arc.ID, ArcPatch{ColorHex: Set("#ff8800")}); err != nil {
		t.Fatal(err)
	}
	if len(log.events) != before {
		t.Fatal("no-op update must not append")
	}
}

func TestArcDeleteDetachesStacks(t *testing.T) {
	env, log, _ := newTestEnv(t)
	arcs := NewArcs(env, 0)
	stacks := NewStacks(env)
	arc, _ := arcs.Create(CreateArcParams{Title: "Arc"})
	s1, _ := stacks.Create("One", "", false)
	s2, _ := stacks.Create("Two", "", false)
	if err := arcs.AssignStack(s1.ID, arc.ID); err != nil {
		t.Fatal(err)
	}
	if err := arcs.AssignStack(s2.ID, arc.ID); err != nil {
		t.Fatal(err)
	}

	log.events = nil
	if err := arcs.Delete(arc.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, _ := env.DB.FindArc(arc.ID)
	if !got.IsDeleted {
		t.Fatal("arc not deleted")
	}
	for _, id := range []string{s1.ID, s2.ID} {
		st, _ := env.DB.FindStack(id)
		if st.IsDeleted {
			t.Fatal("stacks must survive arc deletion")
		}
		if st.ArcID != "" {
			t.Fatalf("stack still references arc: %q", st.ArcID)
		}
	}
	if n := len(log.ofType(model.EvArcStackRemoved)); n != 2 {
		t.Fatalf("detach events = %d, want 2", n)
	}
	if n := len(log.ofType(model.EvArcDeleted)); n != 1 {
		t.Fatalf("delete events = %d, want 1", n)
	}
}

func TestAssignStackMovesBetweenArcs(t *testing.T) {
	env, log, _ := newTestEnv(t)
	arcs := NewArcs(env, 0)
	stacks := NewStacks(env)
	a1, _ := arcs.Create(CreateArcParams{Title: "First"})
	a2, _ := arcs.Create(CreateArcParams{Title: "Second"})
	st, _ := stacks.Create("Stack", "", false)

	if err := arcs.AssignStack(st.ID, a1.ID); err != nil {
		t.Fatal(err)
	}
	// Same-arc assignment is a no-op.
	before := len(log.events)
	if err := arcs.AssignStack(st.ID, a1.ID); err != nil {
		t.Fatal(err)
	}
	if len(log.events) != before {
		t.Fatal("no-op assign must not append")
	}

	log.events = nil
	if err := arcs.AssignStack(st.ID, a2.ID); err != nil {
		t.Fatal(err)
	}
	got, _ := env.DB.FindStack(st.ID)
	if got.ArcID != a2.ID {
		t.Fatalf("arc id = %s", got.ArcID)
	}
	removed := log.ofType(model.EvArcStackRemoved)
	added := log.ofType(model.EvArcStackAdded)
	if len(removed) != 1 || removed[0].EntityID != a1.ID {
		t.Fatalf("removed = %+v", removed)
	}
	if len(added) != 1 || added[0].EntityID != a2.ID {
		t.Fatalf("added = %+v", added)
	}
}

func TestRemoveStackNotAssignedIsNoop(t *testing.T) {
	env, log, _ := newTestEnv(t)
	arcs := NewArcs(env, 0)
	stacks := NewStacks(env)
	arc, _ := arcs.Create(CreateArcParams{Title: "Arc"})
	st, _ := stacks.Create("Loose", "", false)

	before := len(log.events)
	if err := arcs.RemoveStack(st.ID, arc.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(log.events) != before {
		t.Fatal("no-op remove must not append")
	}
}

func TestArcStatusTransitions(t *testing.T) {
	env, log, _ := newTestEnv(t)
	arcs := NewArcs(env, 0)
	arc, _ := arcs.Create(CreateArcParams{Title: "Arc"})

	if err := arcs.MarkCompleted(arc.ID); err != nil {
		t.Fatal(err)
	}
	got, _ := env.DB.FindArc(arc.ID)
	if got.Status != model.ArcCompleted {
		t.Fatalf("status = %s", got.Status)
	}

	// Same-status transition appends nothing.
	before := len(log.events)
	if err := arcs.MarkCompleted(arc.ID); err != nil {
		t.Fatal(err)
	}
	if len(log.events) != before {
		t.Fatal("no-op transition must not append")
	}

	if err := arcs.Archive(arc.ID); err != nil {
		t.Fatal(err)
	}
	got, _ = env.DB.FindArc(arc.ID)
	if got.Status != model.ArcArchived {
		t.Fatalf("status = %s", got.Status)
	}
	if len(log.ofType(model.EvArcArchived)) != 1 {
		t.Fatal("expected archive event")
	}
}

func TestArcReorder(t *testing.T) {
	env, _, _ := newTestEnv(t)
	arcs := NewArcs(env, 0)
	a, _ := arcs.Create(CreateArcParams{Title: "A"})
	b, _ := arcs.Create(CreateArcParams{Title: "B"})
	c, _ := arcs.Create(CreateArcParams{Title: "C"})

	if err := arcs.Reorder([]string{b.ID}); err != nil {
		t.Fatalf("reorder: %v", err)
	}
	wantOrder := map[string]int{b.ID: 0, a.ID: 1, c.ID: 2}
	for id, want := range wantOrder {
		arc, _ := env.DB.FindArc(id)
		if arc.SortOrder != want {
			t.Fatalf("arc %s order = %d, want %d", arc.Title, arc.SortOrder, want)
		}
	}
}
