package store

import (
	"strings"
	"testing"
	"time"

	"dequeue/internal/model"
)

func testEvent(entityID, typ string, seq int) model.Event {
	return model.Event{
		TS:         time.Date(2026, 5, 1, 12, 0, seq, 0, time.UTC),
		ActorID:    "tester",
		DeviceID:   "test-device",
		EntityKind: model.KindStack,
		EntityID:   entityID,
		Type:       typ,
		Payload:    map[string]any{"n": seq},
	}
}

func TestAppendAndReadEvents(t *testing.T) {
	s := Store{Dir: t.TempDir()}

	for i, typ := range []string{model.EvStackCreated, model.EvStackUpdated, model.EvStackActivated} {
		if err := s.AppendEvent(testEvent("stk-a", typ, i)); err != nil {
			t.Fatalf("append %s: %v", typ, err)
		}
	}

	evs, err := s.ReadEvents(0)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(evs) != 3 {
		t.Fatalf("events = %d", len(evs))
	}
	wantTypes := []string{model.EvStackCreated, model.EvStackUpdated, model.EvStackActivated}
	for i, ev := range evs {
		if ev.Type != wantTypes[i] {
			t.Fatalf("order: got %s at %d, want %s", ev.Type, i, wantTypes[i])
		}
		if ev.ID == "" {
			t.Fatal("missing generated event id")
		}
		if ev.ActorID != "tester" || ev.DeviceID != "test-device" {
			t.Fatalf("identity: actor=%q device=%q", ev.ActorID, ev.DeviceID)
		}
	}

	// Payloads survive the JSON round trip.
	payload, ok := evs[1].Payload.(map[string]any)
	if !ok || payload["n"] != float64(1) {
		t.Fatalf("payload = %#v", evs[1].Payload)
	}

	n, err := s.CountEvents()
	if err != nil || n != 3 {
		t.Fatalf("count = %d err = %v", n, err)
	}
}

func TestReadEventsLimitAndTail(t *testing.T) {
	s := Store{Dir: t.TempDir()}
	for i := 0; i < 5; i++ {
		if err := s.AppendEvent(testEvent("stk-a", model.EvStackUpdated, i)); err != nil {
			t.Fatal(err)
		}
	}

	head, err := s.ReadEvents(2)
	if err != nil || len(head) != 2 {
		t.Fatalf("head = %d err = %v", len(head), err)
	}

	tail, err := s.ReadEventsTail(2)
	if err != nil || len(tail) != 2 {
		t.Fatalf("tail = %d err = %v", len(tail), err)
	}
	if head[0].ID == tail[0].ID {
		t.Fatal("tail returned the head of the log")
	}
}

func TestReadEventsForEntitySequenceOrder(t *testing.T) {
	s := Store{Dir: t.TempDir()}
	// Interleave two entities; per-entity order must still be contiguous.
	for i := 0; i < 3; i++ {
		if err := s.AppendEvent(testEvent("stk-a", model.EvStackUpdated, i)); err != nil {
			t.Fatal(err)
		}
		if err := s.AppendEvent(testEvent("stk-b", model.EvStackUpdated, i)); err != nil {
			t.Fatal(err)
		}
	}

	evs, err := s.ReadEventsForEntity("stk-a", 0)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(evs) != 3 {
		t.Fatalf("events = %d", len(evs))
	}
	for _, ev := range evs {
		if ev.EntityID != "stk-a" {
			t.Fatalf("leaked entity %s", ev.EntityID)
		}
	}

	none, err := s.ReadEventsForEntity("stk-missing", 0)
	if err != nil || len(none) != 0 {
		t.Fatalf("missing entity: %v %v", none, err)
	}
}

func TestAppendEventValidatesContract(t *testing.T) {
	s := Store{Dir: t.TempDir()}

	cases := []struct {
		name string
		ev   model.Event
	}{
		{"bad kind", model.Event{EntityKind: "widget", EntityID: "x", Type: "t", ActorID: "a"}},
		{"missing entity", model.Event{EntityKind: model.KindArc, Type: "t", ActorID: "a"}},
		{"missing type", model.Event{EntityKind: model.KindArc, EntityID: "x", ActorID: "a"}},
		{"missing actor", model.Event{EntityKind: model.KindArc, EntityID: "x", Type: "t"}},
	}
	for _, tc := range cases {
		err := s.AppendEvent(tc.ev)
		if err == nil || !strings.Contains(err.Error(), "event contract") {
			t.Fatalf("%s: err = %v", tc.name, err)
		}
	}

	if n, err := s.CountEvents(); err != nil || n != 0 {
		t.Fatalf("rejected events were persisted: n=%d err=%v", n, err)
	}
}
