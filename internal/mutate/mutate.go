// Package mutate is the invariant-enforcing mutation engine. Every write to
// an arc, stack or task goes through one of the lifecycle managers here;
// nothing else may touch entity fields. Each operation validates its
// preconditions before mutating, then commits entity changes and event
// appends as one unit.
//
// Operations assume a single serialized writer: callers must not run two
// manager operations concurrently against the same DB. In a multi-goroutine
// host, wrap calls in a mutex or feed them through a single consumer.
package mutate

import (
	"time"

	"dequeue/internal/model"
	"dequeue/internal/store"

	"github.com/google/uuid"
)

// EventLog is the append-only change log consumed by the managers. Records
// are immutable once appended.
type EventLog interface {
	AppendEvent(ev model.Event) error
}

// Saver persists all pending entity mutations atomically.
type Saver interface {
	Save(db *store.DB) error
}

// SyncTrigger asks the sync layer for an immediate push. Fire-and-forget:
// it is never awaited and never error-checked.
type SyncTrigger func()

// Env carries the shared collaborators and the explicit device/user
// identity (no globals). One Env is shared by all managers of a workspace.
type Env struct {
	DB     *store.DB
	Log    EventLog
	Saver  Saver
	Push   SyncTrigger // optional
	Actor  string
	Device string
	Clock  func() time.Time // optional, defaults to time.Now
}

func (e *Env) now() time.Time {
	if e.Clock != nil {
		return e.Clock().UTC()
	}
	return time.Now().UTC()
}

func (e *Env) event(kind model.EntityKind, entityID, typ string, payload any) model.Event {
	return model.Event{
		ID:         uuid.NewString(),
		TS:         e.now(),
		ActorID:    e.Actor,
		DeviceID:   e.Device,
		EntityKind: kind,
		EntityID:   entityID,
		Type:       typ,
		Payload:    payload,
	}
}

// commit appends the operation's events and saves the entity state. The
// events and the save form one logical unit; Saver.Save is responsible for
// snapshot atomicity. The push trigger fires only after a successful save.
func (e *Env) commit(events ...model.Event) error {
	for _, ev := range events {
		if err := e.Log.AppendEvent(ev); err != nil {
			return err
		}
	}
	if err := e.Saver.Save(e.DB); err != nil {
		return err
	}
	if e.Push != nil {
		e.Push()
	}
	return nil
}

// MarkSynced flips every pending entity to synced after an external push.
// Sync bookkeeping, not a domain change: no events, no revision bump.
func (e *Env) MarkSynced() (int, error) {
	n := 0
	for i := range e.DB.Arcs {
		if e.DB.Arcs[i].SyncState == model.SyncPending {
			e.DB.Arcs[i].SyncState = model.SyncSynced
			n++
		}
	}
	for i := range e.DB.Stacks {
		if e.DB.Stacks[i].SyncState == model.SyncPending {
			e.DB.Stacks[i].SyncState = model.SyncSynced
			n++
		}
	}
	for i := range e.DB.Tasks {
		if e.DB.Tasks[i].SyncState == model.SyncPending {
			e.DB.Tasks[i].SyncState = model.SyncSynced
			n++
		}
	}
	if n == 0 {
		return 0, nil
	}
	return n, e.Saver.Save(e.DB)
}
