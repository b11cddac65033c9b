package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"dequeue/internal/model"
)

func TestSQLiteStateStore_SaveLoad_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := Store{Dir: dir}

	now := time.Now().UTC().Truncate(time.Millisecond)
	due := now.Add(48 * time.Hour)
	db := &DB{
		Version: 1,
		Arcs: []model.Arc{{
			ID: "arc-a", Title: "Launch", Status: model.ArcActive,
			CreatedAt: now, UpdatedAt: now, Revision: 1, SyncState: model.SyncPending,
		}},
		Stacks: []model.Stack{{
			ID: "stk-a", ArcID: "arc-a", Title: "Prep", Status: model.StackActive,
			IsActive: true, Tags: []string{"launch"},
			CreatedAt: now, UpdatedAt: now, Revision: 1, SyncState: model.SyncPending,
		}},
		Tasks: []model.Task{{
			ID: "tsk-a", StackID: "stk-a", Title: "Write notes", Status: model.TaskPending,
			DependencyIDs: []string{"tsk-b"}, DueAt: &due,
			Recurrence: &model.RecurrenceRule{Frequency: model.Daily, Interval: 1},
			CreatedAt:  now, UpdatedAt: now, Revision: 1, SyncState: model.SyncPending,
		}},
	}

	if err := s.Save(db); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := s.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if len(got.Arcs) != 1 || got.Arcs[0].ID != "arc-a" || got.Arcs[0].Title != "Launch" {
		t.Fatalf("arcs = %+v", got.Arcs)
	}
	if len(got.Stacks) != 1 || !got.Stacks[0].IsActive || got.Stacks[0].ArcID != "arc-a" {
		t.Fatalf("stacks = %+v", got.Stacks)
	}
	tk := got.Tasks[0]
	if tk.DueAt == nil || !tk.DueAt.Equal(due) {
		t.Fatalf("due = %v, want %v", tk.DueAt, due)
	}
	if len(tk.DependencyIDs) != 1 || tk.DependencyIDs[0] != "tsk-b" {
		t.Fatalf("deps = %v", tk.DependencyIDs)
	}
	if tk.Recurrence == nil || tk.Recurrence.Frequency != model.Daily {
		t.Fatalf("recurrence = %+v", tk.Recurrence)
	}
}

func TestSQLiteStateStore_SaveReplacesAll(t *testing.T) {
	dir := t.TempDir()
	s := Store{Dir: dir}
	now := time.Now().UTC()

	db := &DB{Version: 1, Tasks: []model.Task{
		{ID: "tsk-a", StackID: "stk-a", Title: "a", Status: model.TaskPending, CreatedAt: now, UpdatedAt: now},
		{ID: "tsk-b", StackID: "stk-a", Title: "b", Status: model.TaskPending, CreatedAt: now, UpdatedAt: now},
	}}
	if err := s.Save(db); err != nil {
		t.Fatalf("save: %v", err)
	}

	// Remove one task; the snapshot must shrink, not accumulate.
	db.Tasks = db.Tasks[:1]
	if err := s.Save(db); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := s.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got.Tasks) != 1 || got.Tasks[0].ID != "tsk-a" {
		t.Fatalf("tasks = %+v", got.Tasks)
	}
}

func TestLoadEmptyWorkspace(t *testing.T) {
	s := Store{Dir: filepath.Join(t.TempDir(), ".dequeue")}
	db, err := s.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if db.Version == 0 {
		t.Fatal("version not initialized")
	}
	if len(db.Arcs) != 0 || len(db.Stacks) != 0 || len(db.Tasks) != 0 {
		t.Fatalf("fresh db not empty: %+v", db)
	}
}

func TestDiscoverDirWalksUp(t *testing.T) {
	root := t.TempDir()
	ws := filepath.Join(root, workspaceMarker)
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(ws, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	got, ok := DiscoverDir(nested)
	if !ok || got != ws {
		t.Fatalf("got %q ok=%v, want %q", got, ok, ws)
	}

	if _, ok := DiscoverDir(t.TempDir()); ok {
		t.Fatal("discovered a workspace where none exists")
	}
}

func TestNextIDShapeAndUniqueness(t *testing.T) {
	db := &DB{}
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		id := NextID(db, "tsk")
		if len(id) != len("tsk-")+8 {
			t.Fatalf("id %q has unexpected shape", id)
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
		db.Tasks = append(db.Tasks, model.Task{ID: id})
	}
}
