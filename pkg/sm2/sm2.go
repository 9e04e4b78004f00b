// Package sm2 carries the legacy SuperMemo-2 record shape and the one-way
// migration adapters from pre-FIRe progress data.
//
// Nothing here runs on the review hot path. The adapters exist so a progress
// store holding legacy scalar strengths or SM-2 records can be imported into
// FIRe state exactly once, at state-upgrade time.
package sm2

import (
	"math"
	"time"
)

const (
	// MinEasiness is the SM-2 floor for the easiness factor.
	MinEasiness = 1.3

	// MaxEasiness is the easiness factor assigned to a perfectly known item.
	MaxEasiness = 2.5

	// MaxIntervalDays caps legacy intervals at one year.
	MaxIntervalDays = 365
)

// initialIntervals are the graduated early-repetition intervals in days.
var initialIntervals = []int{0, 1, 2, 3, 7, 10, 15, 20, 30}

// Record is a legacy SM-2 progress record.
type Record struct {
	// EasinessFactor is the SM-2 EF, at least MinEasiness.
	EasinessFactor float64 `json:"easiness_factor" db:"easiness_factor"`

	// IntervalDays is the current review interval in days.
	IntervalDays int `json:"interval_days" db:"interval_days"`

	// Repetitions counts successful reviews.
	Repetitions int `json:"repetitions" db:"repetitions"`

	// LastQuality is the most recent SM-2 quality response (0-5).
	LastQuality int `json:"last_quality" db:"last_quality"`

	// LastReviewDate is when the item was last reviewed.
	LastReviewDate time.Time `json:"last_review_date" db:"last_review_date"`
}

// StrengthToSM2 converts a legacy scalar strength in [0,1] into an
// equivalent SM-2 record.
//
// The strength maps linearly onto the easiness range [1.3, 2.5], onto 0-5
// accumulated repetitions, and onto the graduated interval ladder. The
// record carries no review date; callers stamp one during import.
func StrengthToSM2(strength float64) Record {
	if strength < 0 || math.IsNaN(strength) {
		strength = 0
	}
	if strength > 1 {
		strength = 1
	}

	repetitions := int(math.Round(strength * 5))
	interval := initialIntervals[len(initialIntervals)-1]
	if repetitions < len(initialIntervals) {
		interval = initialIntervals[repetitions]
	}

	return Record{
		EasinessFactor: MinEasiness + strength*(MaxEasiness-MinEasiness),
		IntervalDays:   interval,
		Repetitions:    repetitions,
		LastQuality:    int(math.Round(strength * 5)),
	}
}
