package sm2

import (
	"math"
	"time"

	"github.com/mnemolabs/fire-go/pkg/fire"
)

// ToFIRe converts a legacy SM-2 record into FIRe state for an item.
//
// The repetition level is derived by inverting the FIRe interval schedule
// (interval = 2^(level-1) days) against the record's SM-2 interval, so an
// imported item keeps roughly the review cadence it had under SM-2:
//
//	interval <= 1 day  -> level capped at 1 (first-exposure regime)
//	interval <  6 days -> level 2 (second-exposure regime)
//	otherwise          -> level = log2(interval) + 1
//
// Memory is seeded from the last quality response (quality/5) and the
// learning speed starts neutral at 1.0. A zero LastReviewDate falls back to
// now so the imported item is immediately due rather than undefined.
func ToFIRe(itemID string, record Record, now time.Time) fire.ItemMemoryState {
	state := fire.NewItemState(itemID, now)
	if !record.LastReviewDate.IsZero() {
		state.LastEventTime = record.LastReviewDate
	}

	interval := record.IntervalDays
	if interval > MaxIntervalDays {
		interval = MaxIntervalDays
	}
	switch {
	case record.Repetitions <= 0 || interval <= 0:
		state.RepetitionLevel = 0
	case interval <= 1:
		state.RepetitionLevel = 1
	case interval < 6:
		state.RepetitionLevel = 2
	default:
		state.RepetitionLevel = math.Log2(float64(interval)) + 1
	}

	quality := record.LastQuality
	if quality < 0 {
		quality = 0
	}
	if quality > 5 {
		quality = 5
	}
	state.Memory = float64(quality) / 5

	return state
}

// StrengthToFIRe imports a legacy scalar strength directly into FIRe state,
// chaining the strength -> SM-2 -> FIRe adapters.
func StrengthToFIRe(itemID string, strength float64, now time.Time) fire.ItemMemoryState {
	record := StrengthToSM2(strength)
	record.LastReviewDate = now
	return ToFIRe(itemID, record, now)
}
