package sm2_test

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mnemolabs/fire-go/pkg/sm2"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestStrengthToSM2Endpoints(t *testing.T) {
	zero := sm2.StrengthToSM2(0)
	assert.Equal(t, sm2.MinEasiness, zero.EasinessFactor)
	assert.Zero(t, zero.Repetitions)
	assert.Zero(t, zero.IntervalDays)
	assert.Zero(t, zero.LastQuality)

	full := sm2.StrengthToSM2(1)
	assert.Equal(t, sm2.MaxEasiness, full.EasinessFactor)
	assert.Equal(t, 5, full.Repetitions)
	assert.Equal(t, 10, full.IntervalDays, "five repetitions land on the 10 day rung")
	assert.Equal(t, 5, full.LastQuality)
}

func TestStrengthToSM2Midpoint(t *testing.T) {
	mid := sm2.StrengthToSM2(0.5)
	assert.InDelta(t, 1.9, mid.EasinessFactor, 1e-9)
	assert.Equal(t, 3, mid.Repetitions)
	assert.Equal(t, 3, mid.IntervalDays)
}

func TestStrengthToSM2ClampsOutOfRange(t *testing.T) {
	assert.Equal(t, sm2.StrengthToSM2(0), sm2.StrengthToSM2(-3))
	assert.Equal(t, sm2.StrengthToSM2(0), sm2.StrengthToSM2(math.NaN()))
	assert.Equal(t, sm2.StrengthToSM2(1), sm2.StrengthToSM2(7))
}

func TestToFIReInvertsIntervalSchedule(t *testing.T) {
	testCases := []struct {
		name   string
		record sm2.Record
		level  float64
	}{
		{
			name:   "never reviewed",
			record: sm2.Record{EasinessFactor: 1.3},
			level:  0,
		},
		{
			name:   "one day interval stays in first regime",
			record: sm2.Record{EasinessFactor: 2.0, IntervalDays: 1, Repetitions: 1, LastQuality: 4},
			level:  1,
		},
		{
			name:   "short interval maps to second regime",
			record: sm2.Record{EasinessFactor: 2.0, IntervalDays: 3, Repetitions: 2, LastQuality: 4},
			level:  2,
		},
		{
			name:   "sixteen day interval inverts to level five",
			record: sm2.Record{EasinessFactor: 2.3, IntervalDays: 16, Repetitions: 4, LastQuality: 5},
			level:  5,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			state := sm2.ToFIRe("item", tc.record, testNow)
			assert.InDelta(t, tc.level, state.RepetitionLevel, 1e-9)
			assert.Equal(t, "item", state.ItemID)
			assert.Equal(t, 1.0, state.LearningSpeed, "imports start at neutral speed")
		})
	}
}

func TestToFIReSeedsMemoryFromQuality(t *testing.T) {
	record := sm2.Record{EasinessFactor: 2.0, IntervalDays: 7, Repetitions: 3, LastQuality: 4}
	state := sm2.ToFIRe("item", record, testNow)
	assert.InDelta(t, 0.8, state.Memory, 1e-9)
}

func TestToFIReReviewDateFallback(t *testing.T) {
	record := sm2.Record{EasinessFactor: 2.0, IntervalDays: 7, Repetitions: 3, LastQuality: 4}

	state := sm2.ToFIRe("item", record, testNow)
	assert.Equal(t, testNow, state.LastEventTime, "a zero review date falls back to now")

	reviewed := testNow.Add(-48 * time.Hour)
	record.LastReviewDate = reviewed
	state = sm2.ToFIRe("item", record, testNow)
	assert.Equal(t, reviewed, state.LastEventTime)
}

func TestStrengthToFIReMonotone(t *testing.T) {
	weak := sm2.StrengthToFIRe("item", 0, testNow)
	mid := sm2.StrengthToFIRe("item", 0.5, testNow)
	strong := sm2.StrengthToFIRe("item", 1, testNow)

	assert.Zero(t, weak.RepetitionLevel)
	assert.Zero(t, weak.Memory)

	assert.InDelta(t, 2, mid.RepetitionLevel, 1e-9)
	assert.InDelta(t, 0.6, mid.Memory, 1e-9)

	assert.InDelta(t, math.Log2(10)+1, strong.RepetitionLevel, 1e-9)
	assert.Equal(t, 1.0, strong.Memory)
	assert.Greater(t, strong.RepetitionLevel, mid.RepetitionLevel)
}
