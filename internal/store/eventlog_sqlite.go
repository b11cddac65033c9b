package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"dequeue/internal/model"

	"github.com/google/uuid"
)

func formatErrEventContract(format string, args ...any) error {
	return fmt.Errorf("event contract: "+format, args...)
}

func (s Store) appendEventSQLite(ctx context.Context, ev model.Event) error {
	if !validEntityKind(ev.EntityKind) {
		return formatErrEventContract("invalid entity kind %q", ev.EntityKind)
	}
	entityID := strings.TrimSpace(ev.EntityID)
	if entityID == "" {
		return formatErrEventContract("missing entity id")
	}
	typ := strings.TrimSpace(ev.Type)
	if typ == "" {
		return formatErrEventContract("missing type")
	}
	actorID := strings.TrimSpace(ev.ActorID)
	if actorID == "" {
		return formatErrEventContract("missing actor id")
	}

	db, err := s.openSQLite(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	now := ev.TS
	if now.IsZero() {
		now = time.Now().UTC()
	}
	nowMs := now.UTC().UnixMilli()

	pb, err := json.Marshal(ev.Payload)
	if err != nil {
		return err
	}

	eventID := strings.TrimSpace(ev.ID)
	if eventID == "" {
		eventID = uuid.NewString()
	}

	tx, err := db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	// Allocate per-entity sequence.
	var next int64
	err = tx.QueryRowContext(ctx, `SELECT next_seq FROM entity_seq WHERE entity_kind = ? AND entity_id = ?`, string(ev.EntityKind), entityID).Scan(&next)
	switch {
	case err == nil:
		if _, err := tx.ExecContext(ctx, `UPDATE entity_seq SET next_seq = ? WHERE entity_kind = ? AND entity_id = ?`, next+1, string(ev.EntityKind), entityID); err != nil {
			return err
		}
	case errors.Is(err, sql.ErrNoRows):
		next = 1
		if _, err := tx.ExecContext(ctx, `INSERT INTO entity_seq(entity_kind, entity_id, next_seq) VALUES(?, ?, ?)`, string(ev.EntityKind), entityID, int64(2)); err != nil {
			return err
		}
	default:
		return err
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO events(
			event_id, entity_kind, entity_id, entity_seq,
			type, issued_at_unixms, actor_id, device_id,
			payload_json, created_at_unixms
		) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, eventID, string(ev.EntityKind), entityID, next, typ, nowMs, actorID, strings.TrimSpace(ev.DeviceID), string(pb), nowMs); err != nil {
		return err
	}

	return tx.Commit()
}

func validEntityKind(k model.EntityKind) bool {
	switch k {
	case model.KindArc, model.KindStack, model.KindTask:
		return true
	}
	return false
}

// ReadEvents returns events in append order, all of them when limit <= 0.
func (s Store) ReadEvents(limit int) ([]model.Event, error) {
	return s.readEvents(context.Background(), ``, nil, limit, false)
}

// ReadEventsTail returns the last limit events, oldest-first within the
// returned window.
func (s Store) ReadEventsTail(limit int) ([]model.Event, error) {
	if limit <= 0 {
		return s.ReadEvents(0)
	}
	evs, err := s.ReadEvents(0)
	if err != nil {
		return nil, err
	}
	if len(evs) <= limit {
		return evs, nil
	}
	return evs[len(evs)-limit:], nil
}

// ReadEventsForEntity returns an entity's events in per-entity sequence
// order.
func (s Store) ReadEventsForEntity(entityID string, limit int) ([]model.Event, error) {
	entityID = strings.TrimSpace(entityID)
	if entityID == "" {
		return []model.Event{}, nil
	}
	return s.readEvents(context.Background(), `WHERE entity_id = ?`, []any{entityID}, limit, true)
}

func (s Store) readEvents(ctx context.Context, where string, args []any, limit int, byEntitySeq bool) ([]model.Event, error) {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	order := `ORDER BY created_at_unixms ASC, rowid ASC`
	if byEntitySeq {
		order = `ORDER BY entity_seq ASC`
	}
	q := fmt.Sprintf(`SELECT event_id, issued_at_unixms, actor_id, device_id, entity_kind, entity_id, type, payload_json
		FROM events %s %s`, where, order)
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Event
	for rows.Next() {
		var id, actor, device, kind, entityID, typ, payloadJSON string
		var tsMs int64
		if err := rows.Scan(&id, &tsMs, &actor, &device, &kind, &entityID, &typ, &payloadJSON); err != nil {
			return nil, err
		}
		var payload any
		_ = json.Unmarshal([]byte(payloadJSON), &payload)
		out = append(out, model.Event{
			ID:         id,
			TS:         time.UnixMilli(tsMs).UTC(),
			ActorID:    actor,
			DeviceID:   device,
			EntityKind: model.EntityKind(kind),
			EntityID:   entityID,
			Type:       typ,
			Payload:    payload,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if out == nil {
		out = []model.Event{}
	}
	return out, nil
}

// CountEvents reports the total number of log rows.
func (s Store) CountEvents() (int, error) {
	db, err := s.openSQLite(context.Background())
	if err != nil {
		return 0, err
	}
	defer db.Close()
	var n int
	if err := db.QueryRow(`SELECT COUNT(1) FROM events`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
