// Package setlog persists completed sets to SQLite.
package setlog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const defaultHistoryLimit = 20

// Set is one logged set.
type Set struct {
	ID             string
	Exercise       string
	Weight         int
	ReachedFailure bool
	LoggedAt       time.Time
}

// Store is the set log.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (or creates) the set log at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create set log dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open set log: %w", err)
	}

	// One writer; the controller's log goroutine and CLI reads never need more.
	db.SetMaxOpenConns(1)

	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db, now: time.Now}, nil
}

func ensureSchema(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS sets (
		id              TEXT PRIMARY KEY,
		exercise        TEXT NOT NULL COLLATE NOCASE,
		weight          INTEGER NOT NULL,
		reached_failure INTEGER NOT NULL DEFAULT 0,
		logged_at       INTEGER NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("failed to create sets table: %w", err)
	}

	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS sets_exercise_logged ON sets (exercise, logged_at)`)
	if err != nil {
		return fmt.Errorf("failed to create sets index: %w", err)
	}

	return nil
}

// RecordSet appends a set.
func (s *Store) RecordSet(ctx context.Context, exercise string, weight int, reachedFailure bool) error {
	exercise = strings.TrimSpace(exercise)
	if exercise == "" {
		return errors.New("exercise name is required")
	}

	if weight < 0 {
		return fmt.Errorf("weight cannot be negative: %d", weight)
	}

	id := uuid.NewString()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sets (id, exercise, weight, reached_failure, logged_at) VALUES (?, ?, ?, ?, ?)`,
		id, exercise, weight, reachedFailure, s.now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to record set: %w", err)
	}

	slog.Info("set recorded", "id", id, "exercise", exercise, "weight", weight, "reachedFailure", reachedFailure)

	return nil
}

// LastWeight returns the most recent non-zero weight logged for exercise.
func (s *Store) LastWeight(ctx context.Context, exercise string) (int, bool, error) {
	var weight int

	err := s.db.QueryRowContext(ctx,
		`SELECT weight FROM sets WHERE exercise = ? AND weight > 0
		 ORDER BY logged_at DESC, rowid DESC LIMIT 1`,
		strings.TrimSpace(exercise),
	).Scan(&weight)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}

	if err != nil {
		return 0, false, fmt.Errorf("failed to query last weight: %w", err)
	}

	return weight, true, nil
}

// History returns up to limit sets for exercise, newest first. A non-positive
// limit uses the default.
func (s *Store) History(ctx context.Context, exercise string, limit int) ([]Set, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, exercise, weight, reached_failure, logged_at FROM sets
		 WHERE exercise = ? ORDER BY logged_at DESC, rowid DESC LIMIT ?`,
		strings.TrimSpace(exercise), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var sets []Set

	for rows.Next() {
		var (
			set    Set
			millis int64
		)

		if err := rows.Scan(&set.ID, &set.Exercise, &set.Weight, &set.ReachedFailure, &millis); err != nil {
			return nil, fmt.Errorf("failed to read set: %w", err)
		}

		set.LoggedAt = time.UnixMilli(millis)
		sets = append(sets, set)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}

	return sets, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
