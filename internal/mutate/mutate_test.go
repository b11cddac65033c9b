package mutate

import (
	"sort"
	"testing"
	"time"

	"dequeue/internal/model"
	"dequeue/internal/store"
)

// memLog is an in-memory EventLog for tests.
type memLog struct {
	events []model.Event
}

func (l *memLog) AppendEvent(ev model.Event) error {
	l.events = append(l.events, ev)
	return nil
}

func (l *memLog) ofType(typ string) []model.Event {
	var out []model.Event
	for _, ev := range l.events {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}

type memSaver struct {
	saves int
}

func (s *memSaver) Save(db *store.DB) error {
	s.saves++
	return nil
}

// newTestEnv builds an Env over an empty in-memory DB with a deterministic
// clock that advances one second per call.
func newTestEnv(t *testing.T) (*Env, *memLog, *memSaver) {
	t.Helper()
	log := &memLog{}
	sv := &memSaver{}
	tick := 0
	env := &Env{
		DB:     &store.DB{Version: 1},
		Log:    log,
		Saver:  sv,
		Actor:  "tester",
		Device: "test-device",
		Clock: func() time.Time {
			tick++
			return time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC).Add(time.Duration(tick) * time.Second)
		},
	}
	return env, log, sv
}

func TestCommitStampsIdentity(t *testing.T) {
	env, log, _ := newTestEnv(t)
	if _, err := NewStacks(env).Create("Inbox", "", false); err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(log.events) == 0 {
		t.Fatal("expected events")
	}
	for _, ev := range log.events {
		if ev.ActorID != "tester" || ev.DeviceID != "test-device" {
			t.Fatalf("event %s missing identity: actor=%q device=%q", ev.Type, ev.ActorID, ev.DeviceID)
		}
		if ev.ID == "" {
			t.Fatalf("event %s missing id", ev.Type)
		}
	}
}

func TestCommitFiresSyncTrigger(t *testing.T) {
	env, _, _ := newTestEnv(t)
	pushes := 0
	env.Push = func() { pushes++ }

	if _, err := NewStacks(env).Create("Inbox", "", false); err != nil {
		t.Fatalf("create: %v", err)
	}
	if pushes != 1 {
		t.Fatalf("pushes = %d, want 1", pushes)
	}
}

func TestMarkSyncedFlipsPendingOnly(t *testing.T) {
	env, log, _ := newTestEnv(t)
	stacks := NewStacks(env)
	st, err := stacks.Create("Inbox", "", false)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	rev := st.Revision
	before := len(log.events)

	n, err := env.MarkSynced()
	if err != nil {
		t.Fatalf("mark synced: %v", err)
	}
	if n != 1 {
		t.Fatalf("n = %d, want 1", n)
	}
	got, _ := env.DB.FindStack(st.ID)
	if got.SyncState != model.SyncSynced {
		t.Fatalf("sync state = %s", got.SyncState)
	}
	if got.Revision != rev {
		t.Fatalf("revision bumped by sync bookkeeping: %d -> %d", rev, got.Revision)
	}
	if len(log.events) != before {
		t.Fatal("sync bookkeeping appended events")
	}

	// Second call is a no-op.
	n, err = env.MarkSynced()
	if err != nil || n != 0 {
		t.Fatalf("second mark synced: n=%d err=%v", n, err)
	}
}

// activeFlagged returns ids of non-deleted, non-draft stacks holding the
// focus flag, sorted for comparison.
func activeFlagged(db *store.DB) []string {
	var out []string
	for _, st := range db.ActiveFlaggedStacks() {
		out = append(out, st.ID)
	}
	sort.Strings(out)
	return out
}
