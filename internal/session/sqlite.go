package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Zachkp/moto-portfolio/internal/db"
)

// SQLite is a Backend stored in the session_values table.
type SQLite struct {
	db *db.DB
}

// NewSQLite creates a backend over an opened database.
func NewSQLite(d *db.DB) *SQLite {
	return &SQLite{db: d}
}

func (s *SQLite) Get(ctx context.Context, sid, key string) (string, bool, error) {
	var v string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM session_values WHERE session_id = ? AND key = ?`, sid, key,
	).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading session value %s: %w", key, err)
	}
	return v, true, nil
}

func (s *SQLite) SetAll(ctx context.Context, sid string, values map[string]string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning session write: %w", err)
	}
	defer tx.Rollback()

	now := db.FormatTime(time.Now())
	for k, v := range values {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO session_values (session_id, key, value, updated_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(session_id, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
		`, sid, k, v, now)
		if err != nil {
			return fmt.Errorf("writing session value %s: %w", k, err)
		}
	}
	return tx.Commit()
}

func (s *SQLite) Touch(ctx context.Context, sid string) error {
	if _, err := s.db.ExecContext(ctx,
		`UPDATE session_values SET updated_at = ? WHERE session_id = ?`, db.FormatTime(time.Now()), sid,
	); err != nil {
		return fmt.Errorf("touching session: %w", err)
	}
	return nil
}

func (s *SQLite) Delete(ctx context.Context, sid string, keys ...string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning session delete: %w", err)
	}
	defer tx.Rollback()

	for _, k := range keys {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM session_values WHERE session_id = ? AND key = ?`, sid, k,
		); err != nil {
			return fmt.Errorf("deleting session value %s: %w", k, err)
		}
	}
	return tx.Commit()
}

func (s *SQLite) Sweep(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM session_values WHERE updated_at < ?`, db.FormatTime(cutoff),
	)
	if err != nil {
		return 0, fmt.Errorf("sweeping sessions: %w", err)
	}
	return result.RowsAffected()
}
