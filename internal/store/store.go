package store

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"dequeue/internal/model"
)

// DB is the in-memory workspace state. Lifecycle managers mutate it and the
// Store persists it as one atomic snapshot on Save.
type DB struct {
	Version int           `json:"version"`
	Arcs    []model.Arc   `json:"arcs"`
	Stacks  []model.Stack `json:"stacks"`
	Tasks   []model.Task  `json:"tasks"`
}

// Store is a workspace directory holding the SQLite state snapshot and the
// append-only event log.
type Store struct {
	Dir string
}

const workspaceMarker = ".dequeue"

func DiscoverDir(start string) (string, bool) {
	dir := start
	for {
		candidate := filepath.Join(dir, workspaceMarker)
		if st, err := os.Stat(candidate); err == nil && st.IsDir() {
			return candidate, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

func DefaultDir() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	if found, ok := DiscoverDir(cwd); ok {
		return found, nil
	}
	return filepath.Join(cwd, workspaceMarker), nil
}

func (s Store) Ensure() error {
	return os.MkdirAll(s.Dir, 0o755)
}

func (s Store) Load() (*DB, error) {
	if err := s.Ensure(); err != nil {
		return nil, err
	}
	return s.loadSQLite(context.Background())
}

// Save writes the whole state snapshot in one transaction. Entity mutations
// made since the last Save become visible together or not at all.
func (s Store) Save(db *DB) error {
	if err := s.Ensure(); err != nil {
		return err
	}
	return s.saveSQLite(context.Background(), db)
}

// AppendEvent persists one immutable event record. Existing rows are never
// updated or deleted.
func (s Store) AppendEvent(ev model.Event) error {
	return s.appendEventSQLite(context.Background(), ev)
}

func (db *DB) FindArc(id string) (*model.Arc, bool) {
	for i := range db.Arcs {
		if db.Arcs[i].ID == id {
			return &db.Arcs[i], true
		}
	}
	return nil, false
}

func (db *DB) FindStack(id string) (*model.Stack, bool) {
	for i := range db.Stacks {
		if db.Stacks[i].ID == id {
			return &db.Stacks[i], true
		}
	}
	return nil, false
}

func (db *DB) FindTask(id string) (*model.Task, bool) {
	for i := range db.Tasks {
		if db.Tasks[i].ID == id {
			return &db.Tasks[i], true
		}
	}
	return nil, false
}

// ActiveArcCount counts non-deleted arcs with status active. The bounded
// active-arc invariant is checked against this.
func (db *DB) ActiveArcCount() int {
	n := 0
	for i := range db.Arcs {
		if !db.Arcs[i].IsDeleted && db.Arcs[i].Status == model.ArcActive {
			n++
		}
	}
	return n
}

// ActiveFlaggedStacks returns every non-deleted, non-draft stack carrying
// the singleton focus flag. More than one entry means the single-active
// invariant is broken.
func (db *DB) ActiveFlaggedStacks() []*model.Stack {
	var out []*model.Stack
	for i := range db.Stacks {
		st := &db.Stacks[i]
		if st.IsDeleted || st.IsDraft || !st.IsActive {
			continue
		}
		out = append(out, st)
	}
	return out
}

// LiveStacks returns non-deleted, non-draft stacks with status active,
// ordered by sort order. This is the set setActive re-packs.
func (db *DB) LiveStacks() []*model.Stack {
	var out []*model.Stack
	for i := range db.Stacks {
		st := &db.Stacks[i]
		if st.IsDeleted || st.IsDraft || st.Status != model.StackActive {
			continue
		}
		out = append(out, st)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out
}

// StacksInArc returns the non-deleted stacks currently assigned to arc.
func (db *DB) StacksInArc(arcID string) []*model.Stack {
	arcID = strings.TrimSpace(arcID)
	if arcID == "" {
		return nil
	}
	var out []*model.Stack
	for i := range db.Stacks {
		st := &db.Stacks[i]
		if st.IsDeleted || st.ArcID != arcID {
			continue
		}
		out = append(out, st)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out
}

// TasksInStack returns the non-deleted tasks of a stack in queue order.
func (db *DB) TasksInStack(stackID string) []*model.Task {
	var out []*model.Task
	for i := range db.Tasks {
		t := &db.Tasks[i]
		if t.IsDeleted || t.StackID != stackID {
			continue
		}
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out
}

// PendingTasksInStack returns the stack's pending queue in order.
func (db *DB) PendingTasksInStack(stackID string) []*model.Task {
	var out []*model.Task
	for _, t := range db.TasksInStack(stackID) {
		if t.Status == model.TaskPending {
			out = append(out, t)
		}
	}
	return out
}
