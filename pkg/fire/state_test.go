package fire_test

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mnemolabs/fire-go/pkg/fire"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestIntervalSchedule(t *testing.T) {
	testCases := []struct {
		level float64
		days  float64
	}{
		{0, 1},
		{1, 1},
		{1.9, 1},
		{2, 6},
		{2.5, 6},
		{3, 4},
		{4, 8},
		{5, 16},
		{10, 365},
		{40, 365},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.days, fire.Interval(tc.level),
			"interval for repetition level %v", tc.level)
	}
}

func TestIntervalExponentialRegime(t *testing.T) {
	for level := 3.0; level <= 9; level++ {
		want := math.Min(fire.MaxIntervalDays, math.Round(math.Pow(2, level-1)))
		assert.Equal(t, want, fire.Interval(level))
	}
}

func TestDecayedMemoryHalfLife(t *testing.T) {
	state := fire.ItemMemoryState{
		ItemID:          "item",
		RepetitionLevel: 2,
		Memory:          1,
		LastEventTime:   testNow.Add(-6 * 24 * time.Hour),
		LearningSpeed:   1,
	}

	// Interval(2) is 6 days, so 6 days elapsed is exactly one half-life.
	assert.InDelta(t, 0.5, fire.DecayedMemory(state, testNow), 1e-9)

	state.LastEventTime = testNow.Add(-12 * 24 * time.Hour)
	assert.InDelta(t, 0.25, fire.DecayedMemory(state, testNow), 1e-9)
}

func TestDecayedMemoryMonotone(t *testing.T) {
	state := fire.ItemMemoryState{
		ItemID:          "item",
		RepetitionLevel: 3,
		Memory:          0.9,
		LastEventTime:   testNow,
		LearningSpeed:   1,
	}

	prev := fire.DecayedMemory(state, testNow)
	for days := 1; days <= 30; days++ {
		current := fire.DecayedMemory(state, testNow.Add(time.Duration(days)*24*time.Hour))
		assert.LessOrEqual(t, current, prev, "decay must not increase at day %d", days)
		prev = current
	}
}

func TestDecayedMemoryClockSkew(t *testing.T) {
	state := fire.ItemMemoryState{
		ItemID:          "item",
		RepetitionLevel: 2,
		Memory:          0.8,
		LastEventTime:   testNow.Add(24 * time.Hour), // in the future
		LearningSpeed:   1,
	}
	assert.InDelta(t, 0.8, fire.DecayedMemory(state, testNow), 1e-9)
}

func TestIsDue(t *testing.T) {
	cfg := fire.DefaultConfig()

	fresh := fire.ItemMemoryState{
		ItemID:          "fresh",
		RepetitionLevel: 2,
		Memory:          1,
		LastEventTime:   testNow.Add(-1 * time.Hour),
		LearningSpeed:   1,
	}
	assert.False(t, fire.IsDue(fresh, cfg, testNow))

	// Calendar overrun: 7 days elapsed against a 6 day interval.
	overdue := fresh
	overdue.LastEventTime = testNow.Add(-7 * 24 * time.Hour)
	assert.True(t, fire.IsDue(overdue, cfg, testNow))

	// Memory floor: low memory triggers even before the interval elapses.
	weak := fresh
	weak.Memory = 0.3
	assert.True(t, fire.IsDue(weak, cfg, testNow))
}

func TestDaysOverdueAndUntilDue(t *testing.T) {
	state := fire.ItemMemoryState{
		ItemID:          "item",
		RepetitionLevel: 2,
		Memory:          1,
		LastEventTime:   testNow.Add(-8 * 24 * time.Hour),
		LearningSpeed:   1,
	}

	assert.InDelta(t, 2, fire.DaysOverdue(state, testNow), 1e-9)
	assert.InDelta(t, -2, fire.DaysUntilDue(state, testNow), 1e-9)

	state.LastEventTime = testNow.Add(-2 * 24 * time.Hour)
	assert.Zero(t, fire.DaysOverdue(state, testNow))
	assert.InDelta(t, 4, fire.DaysUntilDue(state, testNow), 1e-9)
}

func TestUpdateStatePassNeverDecreasesLevel(t *testing.T) {
	cfg := fire.DefaultConfig()
	for _, quality := range []float64{0, 0.3, 0.7, 1} {
		state := fire.ItemMemoryState{
			ItemID:          "item",
			RepetitionLevel: 2.4,
			Memory:          0.6,
			LastEventTime:   testNow.Add(-3 * 24 * time.Hour),
			LearningSpeed:   1,
		}
		updated := fire.UpdateState(state, true, quality, cfg, testNow)
		assert.GreaterOrEqual(t, updated.RepetitionLevel, state.RepetitionLevel)
		assert.Equal(t, testNow, updated.LastEventTime)
	}
}

func TestUpdateStateQualityScalesGain(t *testing.T) {
	cfg := fire.DefaultConfig()
	state := fire.NewItemState("item", testNow.Add(-24*time.Hour))

	low := fire.UpdateState(state, true, 0.1, cfg, testNow)
	high := fire.UpdateState(state, true, 0.9, cfg, testNow)
	assert.Greater(t, high.RepetitionLevel, low.RepetitionLevel)
}

func TestUpdateStateFailNeverIncreasesLevel(t *testing.T) {
	cfg := fire.DefaultConfig()
	state := fire.ItemMemoryState{
		ItemID:          "item",
		RepetitionLevel: 3,
		Memory:          0.9,
		LastEventTime:   testNow.Add(-24 * time.Hour),
		LearningSpeed:   1,
	}

	updated := fire.UpdateState(state, false, 0, cfg, testNow)
	assert.LessOrEqual(t, updated.RepetitionLevel, state.RepetitionLevel)
	assert.GreaterOrEqual(t, updated.RepetitionLevel, 0.0)
}

func TestUpdateStateOverdueFailurePenalizedHarder(t *testing.T) {
	cfg := fire.DefaultConfig()
	base := fire.ItemMemoryState{
		ItemID:          "item",
		RepetitionLevel: 5, // 16 day interval
		Memory:          1,
		LearningSpeed:   1,
	}

	fresh := base
	fresh.LastEventTime = testNow.Add(-1 * 24 * time.Hour)
	stale := base
	stale.LastEventTime = testNow.Add(-32 * 24 * time.Hour)

	freshDrop := base.RepetitionLevel - fire.UpdateState(fresh, false, 0, cfg, testNow).RepetitionLevel
	staleDrop := base.RepetitionLevel - fire.UpdateState(stale, false, 0, cfg, testNow).RepetitionLevel
	assert.Greater(t, staleDrop, freshDrop,
		"forgetting a stale item must cost more than forgetting a fresh one")
}

func TestUpdateStateLevelNeverNegative(t *testing.T) {
	cfg := fire.DefaultConfig()
	state := fire.NewItemState("item", testNow.Add(-10*24*time.Hour))

	for i := 0; i < 5; i++ {
		state = fire.UpdateState(state, false, 0, cfg, testNow)
	}
	assert.GreaterOrEqual(t, state.RepetitionLevel, 0.0)
	assert.GreaterOrEqual(t, state.Memory, 0.0)
}

func TestUpdateStateClampsCorruptInput(t *testing.T) {
	cfg := fire.DefaultConfig()
	corrupt := fire.ItemMemoryState{
		ItemID:          "item",
		RepetitionLevel: -4,
		Memory:          7,
		LastEventTime:   testNow.Add(-24 * time.Hour),
		LearningSpeed:   99,
	}

	updated := fire.UpdateState(corrupt, true, 1, cfg, testNow)
	assert.GreaterOrEqual(t, updated.RepetitionLevel, 0.0)
	assert.LessOrEqual(t, updated.Memory, 1.0)
	assert.LessOrEqual(t, updated.LearningSpeed, cfg.MaxLearningSpeed)
	assert.GreaterOrEqual(t, updated.LearningSpeed, cfg.MinLearningSpeed)
}

func TestValidateState(t *testing.T) {
	cfg := fire.DefaultConfig()

	good := fire.ItemMemoryState{
		ItemID:          "item",
		RepetitionLevel: 2,
		Memory:          0.5,
		LastEventTime:   testNow,
		LearningSpeed:   1,
	}
	assert.Empty(t, fire.ValidateState(good, cfg))

	bad := fire.ItemMemoryState{
		RepetitionLevel: -1,
		Memory:          2,
		LearningSpeed:   9,
	}
	violations := fire.ValidateState(bad, cfg)
	assert.Len(t, violations, 5)
}
