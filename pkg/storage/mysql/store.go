// Package mysql provides the MySQL ProgressStore implementation.
package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/mnemolabs/fire-go/pkg/fire"
	"github.com/mnemolabs/fire-go/pkg/storage"
)

// Config contains configuration for the MySQL store.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

// Store implements storage.ProgressStore on MySQL.
type Store struct {
	db *sqlx.DB
}

// NewStore connects to MySQL and initializes the schema.
func NewStore(cfg *Config) (*Store, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.DBName)

	db, err := sqlx.Connect("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("mysql: connect: %w", err)
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
			learner_id VARCHAR(191) NOT NULL,
			item_id VARCHAR(191) NOT NULL,
			repetition_level DOUBLE NOT NULL DEFAULT 0,
			memory DOUBLE NOT NULL DEFAULT 0,
			learning_speed DOUBLE NOT NULL DEFAULT 1.0,
			last_event_time DATETIME(6) NOT NULL,
			PRIMARY KEY (learner_id, item_id)
		)`,
		`CREATE TABLE IF NOT EXISTS legacy_strengths (
			learner_id VARCHAR(191) NOT NULL,
			item_id VARCHAR(191) NOT NULL,
			strength DOUBLE NOT NULL,
			PRIMARY KEY (learner_id, item_id)
		)`,
		`CREATE TABLE IF NOT EXISTS review_events (
			id BIGINT PRIMARY KEY,
			learner_id VARCHAR(191) NOT NULL,
			item_id VARCHAR(191) NOT NULL,
			passed BOOLEAN NOT NULL,
			expected_to_pass BOOLEAN NOT NULL,
			quality DOUBLE NOT NULL,
			created_at DATETIME(6) NOT NULL,
			INDEX idx_review_events_item (learner_id, item_id, created_at)
		)`,
	}
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("mysql: init tables: %w", err)
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
		return nil, fmt.Errorf("mysql: get state: %w", err)
	}
	return &state, nil
}

const upsertStateQuery = `
	INSERT INTO item_states (learner_id, item_id, repetition_level, memory, learning_speed, last_event_time)
	VALUES (?, ?, ?, ?, ?, ?)
	ON DUPLICATE KEY UPDATE
		repetition_level = VALUES(repetition_level),
		memory = VALUES(memory),
		learning_speed = VALUES(learning_speed),
		last_event_time = VALUES(last_event_time)`

// PutState upserts the state for one item.
func (s *Store) PutState(ctx context.Context, learnerID string, state fire.ItemMemoryState) error {
	_, err := s.db.ExecContext(ctx, upsertStateQuery,
		learnerID, state.ItemID, state.RepetitionLevel, state.Memory, state.LearningSpeed, state.LastEventTime)
	if err != nil {
		return fmt.Errorf("mysql: put state: %w", err)
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
		return nil, fmt.Errorf("mysql: load states: %w", err)
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
		return fmt.Errorf("mysql: save states: %w", err)
	}
	defer tx.Rollback()

	for _, state := range states {
		if _, err := tx.ExecContext(ctx, upsertStateQuery,
			learnerID, state.ItemID, state.RepetitionLevel, state.Memory, state.LearningSpeed, state.LastEventTime); err != nil {
			return fmt.Errorf("mysql: save states: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("mysql: save states: %w", err)
	}
	return nil
}

// LoadLegacyStrengths returns the legacy strength map for a learner.
func (s *Store) LoadLegacyStrengths(ctx context.Context, learnerID string) (map[string]float64, error) {
	rows, err := s.db.QueryxContext(ctx, `
		SELECT item_id, strength FROM legacy_strengths WHERE learner_id = ?`, learnerID)
	if err != nil {
		return nil, fmt.Errorf("mysql: load legacy strengths: %w", err)
	}
	defer rows.Close()

	strengths := make(map[string]float64)
	for rows.Next() {
		var itemID string
		var strength float64
		if err := rows.Scan(&itemID, &strength); err != nil {
			return nil, fmt.Errorf("mysql: load legacy strengths: %w", err)
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
		return fmt.Errorf("mysql: append review event: %w", err)
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
		return nil, fmt.Errorf("mysql: recent results: %w", err)
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
		return nil, fmt.Errorf("mysql: learners: %w", err)
	}
	return learners, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
