package fire

import (
	"fmt"
	"math"
	"time"
)

// MaxIntervalDays caps the review interval at one year.
const MaxIntervalDays = 365.0

// ItemMemoryState is the per-item, per-learner FIRe state.
//
// It is created with zero repetition level and memory on first encounter,
// updated on every explicit review via UpdateState, and opportunistically by
// implicit graph propagation. It is never deleted; it only decays toward
// zero relevance.
type ItemMemoryState struct {
	// ItemID identifies the learnable item this state belongs to.
	ItemID string `json:"item_id" db:"item_id"`

	// RepetitionLevel is the accumulated successful-repetition score.
	// It may be fractional because of implicit credit. Never negative.
	RepetitionLevel float64 `json:"repetition_level" db:"repetition_level"`

	// Memory is the retrievability estimate in [0,1] as of LastEventTime.
	// The current estimate is DecayedMemory.
	Memory float64 `json:"memory" db:"memory"`

	// LastEventTime is the wall-clock time of the last explicit or
	// implicit update.
	LastEventTime time.Time `json:"last_event_time" db:"last_event_time"`

	// LearningSpeed is the per-item multiplier on how fast repetitions
	// accrue, clamped to [MinLearningSpeed, MaxLearningSpeed].
	LearningSpeed float64 `json:"learning_speed" db:"learning_speed"`
}

// NewItemState returns the initial state for an item first seen at now.
func NewItemState(itemID string, now time.Time) ItemMemoryState {
	return ItemMemoryState{
		ItemID:        itemID,
		LastEventTime: now,
		LearningSpeed: 1.0,
	}
}

// Interval returns the review interval in days for a repetition level.
//
// The schedule has three regimes:
//   - level < 2: 1 day (first exposure)
//   - level < 3: 6 days (second exposure)
//   - otherwise: round(2^(level-1)) days, capped at MaxIntervalDays
//
// The exponential tail mirrors a half-life growth curve while the cap
// protects against runaway intervals.
func Interval(repetitionLevel float64) float64 {
	switch {
	case repetitionLevel < 2:
		return 1
	case repetitionLevel < 3:
		return 6
	default:
		days := math.Round(math.Pow(2, repetitionLevel-1))
		if days > MaxIntervalDays {
			return MaxIntervalDays
		}
		return days
	}
}

// DecayedMemory returns the current retrievability estimate at now.
//
// Memory decays exponentially with a half-life equal to the item's expected
// interval:
//
//	memory * 0.5^(daysSinceEvent / max(1, interval))
//
// The interval re-derives from the current repetition level, so the decay
// rate slows as mastery grows. The result is clamped to [0,1].
func DecayedMemory(state ItemMemoryState, now time.Time) float64 {
	days := daysSince(state.LastEventTime, now)
	halfLife := math.Max(1, Interval(state.RepetitionLevel))
	return clamp01(state.Memory * math.Pow(0.5, days/halfLife))
}

// IsDue reports whether the item needs an explicit review at now.
//
// There are two independent due conditions: the decayed memory has fallen
// below cfg.MemoryDueThreshold, or the elapsed time has reached the item's
// interval. Either alone triggers due-ness.
func IsDue(state ItemMemoryState, cfg *Config, now time.Time) bool {
	cfg = cfg.OrDefault()
	if DecayedMemory(state, now) < cfg.MemoryDueThreshold {
		return true
	}
	return daysSince(state.LastEventTime, now) >= Interval(state.RepetitionLevel)
}

// DaysOverdue returns how many days past its interval the item is at now,
// clamped at 0 for items not yet due.
func DaysOverdue(state ItemMemoryState, now time.Time) float64 {
	overdue := daysSince(state.LastEventTime, now) - Interval(state.RepetitionLevel)
	if overdue < 0 {
		return 0
	}
	return overdue
}

// DaysUntilDue returns how many days remain until the item's interval
// elapses. Negative values mean the item is overdue.
func DaysUntilDue(state ItemMemoryState, now time.Time) float64 {
	return Interval(state.RepetitionLevel) - daysSince(state.LastEventTime, now)
}

// UpdateState applies an explicit review outcome and returns the new state.
//
// The repetition-level delta is:
//   - pass: (PassBase + PassQualityMultiplier*quality) * learningSpeed
//   - fail: FailPenalty * learningSpeed * (1 + overdueRatio)
//
// Overdue failures are penalized harder: forgetting a very stale item is a
// stronger negative signal than forgetting a fresh one. The level is floored
// at 0. Memory is first decayed by the elapsed time, then moved up by
// MemoryPassBoost or down by MemoryFailReduction, clamped to [0,1].
// LastEventTime becomes now.
//
// Corrupted input state is clamped into range before the update rather than
// rejected, so a damaged persisted record degrades to safe behavior.
func UpdateState(state ItemMemoryState, passed bool, quality float64, cfg *Config, now time.Time) ItemMemoryState {
	cfg = cfg.OrDefault()
	state = Clamp(state, cfg)

	var delta float64
	if passed {
		delta = (cfg.PassBase + cfg.PassQualityMultiplier*clamp01(quality)) * state.LearningSpeed
	} else {
		overdueRatio := DaysOverdue(state, now) / math.Max(1, Interval(state.RepetitionLevel))
		delta = cfg.FailPenalty * state.LearningSpeed * (1 + overdueRatio)
	}

	decayed := DecayedMemory(state, now)

	state.RepetitionLevel = math.Max(0, state.RepetitionLevel+delta)
	if passed {
		state.Memory = clamp01(decayed + cfg.MemoryPassBoost)
	} else {
		state.Memory = clamp01(decayed - cfg.MemoryFailReduction)
	}
	state.LastEventTime = now
	return state
}

// Clamp enforces the state invariants unconditionally: memory in [0,1],
// learning speed within configured bounds, repetition level non-negative,
// and NaN fields reset to safe defaults.
func Clamp(state ItemMemoryState, cfg *Config) ItemMemoryState {
	cfg = cfg.OrDefault()
	if math.IsNaN(state.RepetitionLevel) || state.RepetitionLevel < 0 {
		state.RepetitionLevel = 0
	}
	if math.IsNaN(state.Memory) {
		state.Memory = 0
	}
	state.Memory = clamp01(state.Memory)
	if math.IsNaN(state.LearningSpeed) || state.LearningSpeed == 0 {
		state.LearningSpeed = 1.0
	}
	if state.LearningSpeed < cfg.MinLearningSpeed {
		state.LearningSpeed = cfg.MinLearningSpeed
	}
	if state.LearningSpeed > cfg.MaxLearningSpeed {
		state.LearningSpeed = cfg.MaxLearningSpeed
	}
	return state
}

// ValidateState checks the state invariants and returns a list of violation
// descriptions, empty when the state is well formed.
//
// It is intended for data-migration and test tooling; the review hot path
// relies on Clamp instead and never calls it.
func ValidateState(state ItemMemoryState, cfg *Config) []string {
	cfg = cfg.OrDefault()
	var violations []string
	if state.ItemID == "" {
		violations = append(violations, "item id is empty")
	}
	if math.IsNaN(state.RepetitionLevel) || state.RepetitionLevel < 0 {
		violations = append(violations, fmt.Sprintf("repetition level %v is negative or NaN", state.RepetitionLevel))
	}
	if math.IsNaN(state.Memory) || state.Memory < 0 || state.Memory > 1 {
		violations = append(violations, fmt.Sprintf("memory %v is outside [0,1]", state.Memory))
	}
	if math.IsNaN(state.LearningSpeed) || state.LearningSpeed < cfg.MinLearningSpeed || state.LearningSpeed > cfg.MaxLearningSpeed {
		violations = append(violations, fmt.Sprintf("learning speed %v is outside [%v,%v]",
			state.LearningSpeed, cfg.MinLearningSpeed, cfg.MaxLearningSpeed))
	}
	if state.LastEventTime.IsZero() {
		violations = append(violations, "last event time is unset")
	}
	return violations
}

// daysSince returns elapsed days between then and now, floored at 0 so a
// skewed clock never produces negative elapsed time.
func daysSince(then, now time.Time) float64 {
	days := now.Sub(then).Hours() / 24
	if days < 0 {
		return 0
	}
	return days
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
