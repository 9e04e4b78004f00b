// Package storage defines the progress-store contract the engine persists
// through, along with the types shared by all backends.
//
// A ProgressStore holds per-learner FIRe state, legacy strength records
// awaiting migration, and the review-event log that feeds learning-speed
// calibration. SQLite, PostgreSQL, and MySQL implementations live in
// subpackages; an in-memory implementation backs tests and examples.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/mnemolabs/fire-go/pkg/fire"
)

// ErrStateNotFound indicates that no state exists for the requested item.
var ErrStateNotFound = errors.New("item state not found")

// ReviewEvent is one persisted review outcome.
type ReviewEvent struct {
	// ID is a unique event identifier (snowflake).
	ID int64 `json:"id" db:"id"`

	// LearnerID identifies the learner.
	LearnerID string `json:"learner_id" db:"learner_id"`

	// ItemID identifies the reviewed item.
	ItemID string `json:"item_id" db:"item_id"`

	// Passed reports whether the review succeeded.
	Passed bool `json:"passed" db:"passed"`

	// ExpectedToPass is the engine's prediction at review time.
	ExpectedToPass bool `json:"expected_to_pass" db:"expected_to_pass"`

	// Quality is the answer quality in [0,1].
	Quality float64 `json:"quality" db:"quality"`

	// CreatedAt is when the review happened.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Result converts the event into the calibration record shape.
func (e ReviewEvent) Result() fire.RepetitionResult {
	return fire.RepetitionResult{
		Passed:         e.Passed,
		ExpectedToPass: e.ExpectedToPass,
		Timestamp:      e.CreatedAt,
	}
}

// ProgressStore is the persistence contract for learner progress.
//
// Implementations must be safe for use by a single engine client at a time;
// concurrent callers operating on the same learner must be serialized by the
// application.
type ProgressStore interface {
	// GetState returns the state for one item, or ErrStateNotFound.
	GetState(ctx context.Context, learnerID, itemID string) (*fire.ItemMemoryState, error)

	// PutState upserts the state for one item.
	PutState(ctx context.Context, learnerID string, state fire.ItemMemoryState) error

	// LoadStates returns the full item -> state map for a learner. The
	// returned map is owned by the caller and safe to mutate.
	LoadStates(ctx context.Context, learnerID string) (map[string]fire.ItemMemoryState, error)

	// SaveStates upserts every state in the map for a learner.
	SaveStates(ctx context.Context, learnerID string, states map[string]fire.ItemMemoryState) error

	// LoadLegacyStrengths returns the legacy item -> scalar strength map
	// for a learner, for one-time migration into FIRe state.
	LoadLegacyStrengths(ctx context.Context, learnerID string) (map[string]float64, error)

	// AppendReviewEvent appends one review outcome to the event log.
	AppendReviewEvent(ctx context.Context, event *ReviewEvent) error

	// RecentResults returns up to limit of the most recent review results
	// for an item, oldest first, shaped for the calibrator.
	RecentResults(ctx context.Context, learnerID, itemID string, limit int) ([]fire.RepetitionResult, error)

	// Learners returns every learner ID present in the store.
	Learners(ctx context.Context) ([]string, error)

	// Close releases backend resources.
	Close() error
}
