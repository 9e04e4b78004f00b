// Package postgres provides the PostgreSQL ProgressStore implementation.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/mnemolabs/fire-go/pkg/fire"
	"github.com/mnemolabs/fire-go/pkg/storage"
)

// Config contains configuration for the PostgreSQL store.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// Store implements storage.ProgressStore on PostgreSQL.
type Store struct {
	db *sqlx.DB
}

// NewStore connects to PostgreSQL and initializes the schema.
func NewStore(cfg *Config) (*Store, error) {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, sslMode)

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}

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
			repetition_level DOUBLE PRECISION NOT NULL DEFAULT 0,
			memory DOUBLE PRECISION NOT NULL DEFAULT 0,
			learning_speed DOUBLE PRECISION NOT NULL DEFAULT 1.0,
			last_event_time TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (learner_id, item_id)
		)`,
		`CREATE TABLE IF NOT EXISTS legacy_strengths (
			learner_id TEXT NOT NULL,
			item_id TEXT NOT NULL,
			strength DOUBLE PRECISION NOT NULL,
			PRIMARY KEY (learner_id, item_id)
		)`,
		`CREATE TABLE IF NOT EXISTS review_events (
			id BIGINT PRIMARY KEY,
			learner_id TEXT NOT NULL,
			item_id TEXT NOT NULL,
			passed BOOLEAN NOT NULL,
			expected_to_pass BOOLEAN NOT NULL,
			quality DOUBLE PRECISION NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_review_events_item
			ON review_events (learner_id, item_id, created_at)`,
	}
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("postgres: init tables: %w", err)
		}
	}
	return nil
}

// GetState returns the state for one item, or storage.ErrStateNotFound.
func (s *Store) GetState(ctx context.Context, learnerID, itemID string) (*fire.ItemMemoryState, error) {
	var state fire.ItemMemoryState
	err := s.db.GetContext(ctx, &state, `
		SELECT item_id, repetition_level, memory, learning_speed, last_event_time
		FROM item_states WHERE learner_id = $1 AND item_id = $2`, learnerID, itemID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrStateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get state: %w", err)
	}
	return &state, nil
}

// PutState upserts the state for one item.
func (s *Store) PutState(ctx context.Context, learnerID string, state fire.ItemMemoryState) error {
	_, err := s.db.ExecContext(ctx, upsertStateQuery,
		learnerID, state.ItemID, state.RepetitionLevel, state.Memory, state.LearningSpeed, state.LastEventTime)
	if err != nil {
		return fmt.Errorf("postgres: put state: %w", err)
	}
	return nil
}

const upsertStateQuery = `
	INSERT INTO item_states (learner_id, item_id, repetition_level, memory, learning_speed, last_event_time)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (learner_id, item_id) DO UPDATE SET
		repetition_level = EXCLUDED.repetition_level,
		memory = EXCLUDED.memory,
		learning_speed = EXCLUDED.learning_speed,
		last_event_time = EXCLUDED.last_event_time`

// LoadStates returns the full item -> state map for a learner.
func (s *Store) LoadStates(ctx context.Context, learnerID string) (map[string]fire.ItemMemoryState, error) {
	var rows []fire.ItemMemoryState
	err := s.db.SelectContext(ctx, &rows, `
		SELECT item_id, repetition_level, memory, learning_speed, last_event_time
		FROM item_states WHERE learner_id = $1`, learnerID)
	if err != nil {
		return nil, fmt.Errorf("postgres: load states: %w", err)
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
		return fmt.Errorf("postgres: save states: %w", err)
	}
	defer tx.Rollback()

	for _, state := range states {
		if _, err := tx.ExecContext(ctx, upsertStateQuery,
			learnerID, state.ItemID, state.RepetitionLevel, state.Memory, state.LearningSpeed, state.LastEventTime); err != nil {
			return fmt.Errorf("postgres: save states: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("postgres: save states: %w", err)
	}
	return nil
}

// LoadLegacyStrengths returns the legacy strength map for a learner.
func (s *Store) LoadLegacyStrengths(ctx context.Context, learnerID string) (map[string]float64, error) {
	rows, err := s.db.QueryxContext(ctx, `
		SELECT item_id, strength FROM legacy_strengths WHERE learner_id = $1`, learnerID)
	if err != nil {
		return nil, fmt.Errorf("postgres: load legacy strengths: %w", err)
	}
	defer rows.Close()

	strengths := make(map[string]float64)
	for rows.Next() {
		var itemID string
		var strength float64
		if err := rows.Scan(&itemID, &strength); err != nil {
			return nil, fmt.Errorf("postgres: load legacy strengths: %w", err)
		}
		strengths[itemID] = strength
	}
	return strengths, rows.Err()
}

// AppendReviewEvent appends one review outcome to the event log.
func (s *Store) AppendReviewEvent(ctx context.Context, event *storage.ReviewEvent) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO review_events (id, learner_id, item_id, passed, expected_to_pass, quality, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		event.ID, event.LearnerID, event.ItemID, event.Passed, event.ExpectedToPass, event.Quality, event.CreatedAt)
	if err != nil {
		return fmt.Errorf("postgres: append review event: %w", err)
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
		WHERE learner_id = $1 AND item_id = $2
		ORDER BY created_at DESC LIMIT $3`, learnerID, itemID, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: recent results: %w", err)
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
		return nil, fmt.Errorf("postgres: learners: %w", err)
	}
	return learners, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
