// Package sqlite provides the SQLite ProgressStore implementation.
//
// SQLite is the default backend: file-based, zero-configuration, suitable
// for single-user apps and local development.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/mnemolabs/fire-go/pkg/fire"
	"github.com/mnemolabs/fire-go/pkg/storage"
)

// Config contains configuration for the SQLite store.
type Config struct {
	// DBPath is the path to the SQLite database file.
	DBPath string
}

// Store implements storage.ProgressStore on SQLite.
type Store struct {
	db *sqlx.DB
}

// NewStore opens (creating if necessary) the SQLite database at cfg.DBPath
// and initializes the schema.
func NewStore(cfg *Config) (*Store, error) {
	dir := filepath.Dir(cfg.DBPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("sqlite: create directory: %w", err)
		}
	}

	db, err := sqlx.Connect("sqlite3", cfg.DBPath+"?_foreign_keys=1&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("sqlite: connect: %w", err)
	}
	// SQLite does not support multiple writers.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.initTables(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initTables(ctx context.Context) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS item_states (
			learner_id TEXT NOT NULL,
			item_id TEXT NOT NULL,
			repetition_level REAL NOT NULL DEFAULT 0,
			memory REAL NOT NULL DEFAULT 0,
			learning_speed REAL NOT NULL DEFAULT 1.0,
			last_event_time DATETIME NOT NULL,
			PRIMARY KEY (learner_id, item_id)
		)`,
		`CREATE TABLE IF NOT EXISTS legacy_strengths (
			learner_id TEXT NOT NULL,
			item_id TEXT NOT NULL,
			strength REAL NOT NULL,
			PRIMARY KEY (learner_id, item_id)
		)`,
		`CREATE TABLE IF NOT EXISTS review_events (
			id INTEGER PRIMARY KEY,
			learner_id TEXT NOT NULL,
			item_id TEXT NOT NULL,
			passed BOOLEAN NOT NULL,
			expected_to_pass BOOLEAN NOT NULL,
			quality REAL NOT NULL,
			created_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_review_events_item
			ON review_events (learner_id, item_id, created_at)`,
	}
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlite: init tables: %w", err)
		}
	}
	return nil
}

// GetState returns the state for one item, or storage.ErrStateNotFound.
func (s *Store) GetState(ctx context.Context, learnerID, itemID string) (*fire.ItemMemoryState, error) {
	var state fire.ItemMemoryState
	err := s.db.GetContext(ctx, &state, `
		SELECT item_id, repetition_level, memory, learning_speed, last_event_time
		FROM item_states WHERE learner_id = ? AND item_id = ?`, learnerID, itemID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrStateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get state: %w", err)
	}
	return &state, nil
}

// PutState upserts the state for one item.
func (s *Store) PutState(ctx context.Context, learnerID string, state fire.ItemMemoryState) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO item_states (learner_id, item_id, repetition_level, memory, learning_speed, last_event_time)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (learner_id, item_id) DO UPDATE SET
			repetition_level = excluded.repetition_level,
			memory = excluded.memory,
			learning_speed = excluded.learning_speed,
			last_event_time = excluded.last_event_time`,
		learnerID, state.ItemID, state.RepetitionLevel, state.Memory, state.LearningSpeed, state.LastEventTime)
	if err != nil {
		return fmt.Errorf("sqlite: put state: %w", err)
	}
	return nil
}

// LoadStates returns the full item -> state map for a learner.
func (s *Store) LoadStates(ctx context.Context, learnerID string) (map[string]fire.ItemMemoryState, error) {
	var rows []fire.ItemMemoryState
	err := s.db.SelectContext(ctx, &rows, `
		SELECT item_id, repetition_level, memory, learning_speed, last_event_time
		FROM item_states WHERE learner_id = ?`, learnerID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: load states: %w", err)
	}
	states := make(map[string]fire.ItemMemoryState, len(rows))
	for _, state := range rows {
		states[state.ItemID] = state
	}
	return states, nil
}

// SaveStates upserts every state in the map inside one transaction.
func (s *Store) SaveStates(ctx context.Context, learnerID string, states map[string]fire.ItemMemoryState) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: save states: %w", err)
	}
	defer tx.Rollback()

	for _, state := range states {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO item_states (learner_id, item_id, repetition_level, memory, learning_speed, last_event_time)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT (learner_id, item_id) DO UPDATE SET
				repetition_level = excluded.repetition_level,
				memory = excluded.memory,
				learning_speed = excluded.learning_speed,
				last_event_time = excluded.last_event_time`,
			learnerID, state.ItemID, state.RepetitionLevel, state.Memory, state.LearningSpeed, state.LastEventTime); err != nil {
			return fmt.Errorf("sqlite: save states: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: save states: %w", err)
	}
	return nil
}

// LoadLegacyStrengths returns the legacy strength map for a learner.
func (s *Store) LoadLegacyStrengths(ctx context.Context, learnerID string) (map[string]float64, error) {
	rows, err := s.db.QueryxContext(ctx, `
		SELECT item_id, strength FROM legacy_strengths WHERE learner_id = ?`, learnerID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: load legacy strengths: %w", err)
	}
	defer rows.Close()

	strengths := make(map[string]float64)
	for rows.Next() {
		var itemID string
		var strength float64
		if err := rows.Scan(&itemID, &strength); err != nil {
			return nil, fmt.Errorf("sqlite: load legacy strengths: %w", err)
		}
		strengths[itemID] = strength
	}
	return strengths, rows.Err()
}

// AppendReviewEvent appends one review outcome to the event log.
func (s *Store) AppendReviewEvent(ctx context.Context, event *storage.ReviewEvent) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO review_events (id, learner_id, item_id, passed, expected_to_pass, quality, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		event.ID, event.LearnerID, event.ItemID, event.Passed, event.ExpectedToPass, event.Quality, event.CreatedAt)
	if err != nil {
		return fmt.Errorf("sqlite: append review event: %w", err)
	}
	return nil
}

// RecentResults returns up to limit of the most recent results for an item,
// oldest first.
func (s *Store) RecentResults(ctx context.Context, learnerID, itemID string, limit int) ([]fire.RepetitionResult, error) {
	var events []storage.ReviewEvent
	err := s.db.SelectContext(ctx, &events, `
		SELECT id, learner_id, item_id, passed, expected_to_pass, quality, created_at
		FROM review_events
		WHERE learner_id = ? AND item_id = ?
		ORDER BY created_at DESC LIMIT ?`, learnerID, itemID, limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite: recent results: %w", err)
	}

	results := make([]fire.RepetitionResult, len(events))
	for i, e := range events {
		results[len(events)-1-i] = e.Result()
	}
	return results, nil
}

// Learners returns every learner ID present in the store.
func (s *Store) Learners(ctx context.Context) ([]string, error) {
	var learners []string
	err := s.db.SelectContext(ctx, &learners, `
		SELECT learner_id FROM item_states
		UNION SELECT learner_id FROM legacy_strengths
		ORDER BY learner_id`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: learners: %w", err)
	}
	return learners, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
