// Package postgres implements the repository interfaces on database/sql with
// parameterized queries. Transitions run inside a transaction with a
// conditional status update followed by the history insert.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"supplierportal/internal/apperr"
	"supplierportal/internal/model"
)

const (
	subjectApplication = "application"
	subjectContract    = "contract"
)

type scanner interface {
	Scan(dest ...any) error
}

type rowQueryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// notFound maps sql.ErrNoRows to apperr.ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.ErrNotFound
	}
	return err
}

func insertHistory(ctx context.Context, ex execer, subject, id string, e model.HistoryEntry) error {
	const q = `
		INSERT INTO status_history (subject_type, subject_id, action, actor_id, actor_role, from_status, to_status, comments, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := ex.ExecContext(ctx, q,
		subject,
		id,
		string(e.Action),
		e.ActorID,
		string(e.ActorRole),
		e.FromStatus,
		e.ToStatus,
		e.Comments,
		e.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert history: %w", err)
	}
	return nil
}

func loadHistory(ctx context.Context, q queryer, subject, id string) ([]model.HistoryEntry, error) {
	const qHistory = `
		SELECT action, actor_id, actor_role, from_status, to_status, comments, created_at
		FROM status_history
		WHERE subject_type = $1 AND subject_id = $2
		ORDER BY id ASC
	`
	rows, err := q.QueryContext(ctx, qHistory, subject, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.HistoryEntry, 0)
	for rows.Next() {
		var (
			e      model.HistoryEntry
			action string
			role   string
		)
		if err := rows.Scan(&action, &e.ActorID, &role, &e.FromStatus, &e.ToStatus, &e.Comments, &e.Timestamp); err != nil {
			return nil, err
		}
		e.Action = model.Action(action)
		e.ActorRole = model.Role(role)
		out = append(out, e)
	}
	return out, rows.Err()
}

// jsonb encodes v for a JSONB parameter. nil maps are stored as {}.
func jsonb[T any](v map[string]T) (string, error) {
	if v == nil {
		return "{}", nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
