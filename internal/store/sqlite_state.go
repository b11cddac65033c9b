package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"dequeue/internal/model"
)

func (s Store) loadSQLite(ctx context.Context) (*DB, error) {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	out := &DB{Version: 1}

	var ver string
	_ = db.QueryRowContext(ctx, `SELECT v FROM state_meta WHERE k = ?`, "version").Scan(&ver)
	if n, err := strconv.Atoi(strings.TrimSpace(ver)); err == nil && n > 0 {
		out.Version = n
	}

	if xs, err := readJSONRows[model.Arc](ctx, db, `SELECT json FROM arcs`); err == nil {
		out.Arcs = xs
	} else {
		return nil, err
	}
	if xs, err := readJSONRows[model.Stack](ctx, db, `SELECT json FROM stacks`); err == nil {
		out.Stacks = xs
	} else {
		return nil, err
	}
	if xs, err := readJSONRows[model.Task](ctx, db, `SELECT json FROM tasks`); err == nil {
		out.Tasks = xs
	} else {
		return nil, err
	}

	// Ensure nil slices are empty for stable callers.
	if out.Arcs == nil {
		out.Arcs = []model.Arc{}
	}
	if out.Stacks == nil {
		out.Stacks = []model.Stack{}
	}
	if out.Tasks == nil {
		out.Tasks = []model.Task{}
	}
	return out, nil
}

func (s Store) saveSQLite(ctx context.Context, st *DB) error {
	if st == nil {
		return errors.New("nil db")
	}
	db, err := s.openSQLite(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO state_meta(k, v) VALUES(?, ?)`, "version", fmt.Sprintf("%d", st.Version)); err != nil {
		return err
	}

	// Replace-all strategy (simple + safe; incremental writes can come later).
	for _, t := range []string{"arcs", "stacks", "tasks"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+t); err != nil {
			return err
		}
	}

	nowMs := time.Now().UTC().UnixMilli()

	for _, a := range st.Arcs {
		raw, _ := json.Marshal(a)
		if _, err := tx.ExecContext(ctx, `INSERT INTO arcs(id, title, status, sort_order, is_deleted, json, updated_at_unixms) VALUES(?, ?, ?, ?, ?, ?, ?)`,
			a.ID, a.Title, string(a.Status), a.SortOrder, boolToInt(a.IsDeleted), string(raw), nowMs); err != nil {
			return err
		}
	}
	for _, sk := range st.Stacks {
		raw, _ := json.Marshal(sk)
		if _, err := tx.ExecContext(ctx, `INSERT INTO stacks(id, arc_id, title, status, is_draft, is_active, sort_order, is_deleted, json, updated_at_unixms) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			sk.ID, strings.TrimSpace(sk.ArcID), sk.Title, string(sk.Status),
			boolToInt(sk.IsDraft), boolToInt(sk.IsActive), sk.SortOrder, boolToInt(sk.IsDeleted),
			string(raw), nowMs); err != nil {
			return err
		}
	}
	for _, t := range st.Tasks {
		raw, _ := json.Marshal(t)
		depsJSON, _ := json.Marshal(t.DependencyIDs)
		if _, err := tx.ExecContext(ctx, `INSERT INTO tasks(id, stack_id, title, status, sort_order, is_deleted, deps_json, json, updated_at_unixms) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			t.ID, t.StackID, t.Title, string(t.Status), t.SortOrder, boolToInt(t.IsDeleted),
			string(depsJSON), string(raw), nowMs); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func readJSONRows[T any](ctx context.Context, db *sql.DB, query string) ([]T, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		var js string
		if err := rows.Scan(&js); err != nil {
			return nil, err
		}
		var v T
		if err := json.Unmarshal([]byte(js), &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
