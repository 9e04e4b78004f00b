package session

import (
	"math"
	"math/rand"
	"time"

	"github.com/mnemolabs/fire-go/pkg/fire"
	"github.com/mnemolabs/fire-go/pkg/graph"
)

// Session sampling ratios: 40% weak, 40% learning, 20% mastered.
const (
	weakRatio     = 0.4
	learningRatio = 0.4
)

// Anti-clustering scores. Appending a candidate that would create three
// consecutive exercises of the same type is heavily penalized; a candidate
// that differs from the immediately preceding exercise gets a small bonus.
const (
	tripleRunPenalty = -1000
	varietyBonus     = 10
)

// BuildPracticeSession assembles a practice session of up to count
// exercises, balanced across difficulty buckets and varied in type.
//
// Exercises are bucketed with CategorizeByStrength using the legacy scalar
// strengths, sampled at 40/40/20 weak/learning/mastered ratios (rounded),
// and backfilled from whatever remains when a bucket runs short. The
// combined selection is shuffled with a Fisher-Yates permutation and then
// reordered so no exercise type appears three times in a row.
//
// Empty inputs yield an empty session; a count beyond the available
// exercises returns everything available. rng may be nil, in which case a
// time-seeded source is used.
func BuildPracticeSession(exercises []Exercise, strengths map[string]float64, count int, rng *rand.Rand) []Exercise {
	if count <= 0 || len(exercises) == 0 {
		return nil
	}
	rng = orSeeded(rng)

	buckets := CategorizeByStrength(exercises, strengths)
	picked := sampleBuckets(buckets, count)
	shuffle(picked, rng)
	return reorderForVariety(picked)
}

// BuildFIRePracticeSession assembles a session with a due-item-first phase.
//
// The due set is computed from states at now and compressed through
// graph.SelectOptimalReviews when a dependency graph is available (falling
// back to plain priority order otherwise). For each priority item, the first
// not-yet-selected exercise covering it is taken. Remaining slots are filled
// with the same bucketed-shuffle-and-reorder procedure as
// BuildPracticeSession, using FIRe buckets and excluding exercises already
// selected. Due picks keep their priority order at the front of the session.
func BuildFIRePracticeSession(exercises []Exercise, states map[string]fire.ItemMemoryState, g *graph.DependencyGraph, cfg *fire.Config, count int, rng *rand.Rand, now time.Time) []Exercise {
	cfg = cfg.OrDefault()
	if count <= 0 || len(exercises) == 0 {
		return nil
	}
	rng = orSeeded(rng)

	due := dueItems(exercises, states, cfg, now)
	var priority []string
	if g != nil {
		priority = graph.SelectOptimalReviews(due, g, count, cfg)
	} else {
		priority = graph.SortByReviewPriority(due, states, now)
	}

	var selected []Exercise
	taken := make(map[string]bool)
	for _, itemID := range priority {
		if len(selected) >= count {
			break
		}
		for _, ex := range exercises {
			if taken[ex.ID] || !covers(ex, itemID) {
				continue
			}
			selected = append(selected, ex)
			taken[ex.ID] = true
			break
		}
	}

	if len(selected) < count {
		var rest []Exercise
		for _, ex := range exercises {
			if !taken[ex.ID] {
				rest = append(rest, ex)
			}
		}
		buckets := CategorizeByFIRe(rest, states)
		filler := sampleBuckets(buckets, count-len(selected))
		shuffle(filler, rng)
		selected = append(selected, reorderForVariety(filler)...)
	}
	return selected
}

// dueItems collects the distinct due item IDs covered by the exercise set,
// in first-appearance order so downstream greedy selection is deterministic.
func dueItems(exercises []Exercise, states map[string]fire.ItemMemoryState, cfg *fire.Config, now time.Time) []string {
	var due []string
	seen := make(map[string]bool)
	for _, ex := range exercises {
		for _, id := range ex.ItemIDs {
			if seen[id] {
				continue
			}
			seen[id] = true
			state, ok := states[id]
			if !ok || fire.IsDue(state, cfg, now) {
				due = append(due, id)
			}
		}
	}
	return due
}

// sampleBuckets draws up to count exercises honoring the 40/40/20 ratios,
// then backfills from bucket leftovers when any tier runs short.
func sampleBuckets(buckets Buckets, count int) []Exercise {
	weakTarget := int(math.Round(float64(count) * weakRatio))
	learningTarget := int(math.Round(float64(count) * learningRatio))

	picked := make([]Exercise, 0, count)
	picked = append(picked, take(buckets.Weak, weakTarget)...)
	picked = append(picked, take(buckets.Learning, learningTarget)...)
	picked = append(picked, take(buckets.Mastered, count-len(picked))...)

	if len(picked) < count {
		taken := make(map[string]bool, len(picked))
		for _, ex := range picked {
			taken[ex.ID] = true
		}
		for _, pool := range [][]Exercise{buckets.Weak, buckets.Learning, buckets.Mastered} {
			for _, ex := range pool {
				if len(picked) >= count {
					break
				}
				if !taken[ex.ID] {
					picked = append(picked, ex)
					taken[ex.ID] = true
				}
			}
		}
	}
	return picked
}

func take(pool []Exercise, n int) []Exercise {
	if n <= 0 {
		return nil
	}
	if n > len(pool) {
		n = len(pool)
	}
	return pool[:n]
}

// shuffle applies an in-place Fisher-Yates permutation.
func shuffle(exercises []Exercise, rng *rand.Rand) {
	for i := len(exercises) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		exercises[i], exercises[j] = exercises[j], exercises[i]
	}
}

// reorderForVariety greedily rebuilds the slice so the same exercise type
// never appears three times in a row when the pool allows it.
//
// At each step every remaining candidate is scored: tripleRunPenalty when
// appending it would make three consecutive exercises of one type,
// varietyBonus when it differs from the immediately preceding exercise, 0
// otherwise. The highest-scoring candidate (first on ties) is appended.
func reorderForVariety(exercises []Exercise) []Exercise {
	if len(exercises) < 3 {
		return exercises
	}

	pool := make([]Exercise, len(exercises))
	copy(pool, exercises)
	ordered := make([]Exercise, 0, len(pool))

	for len(pool) > 0 {
		bestIdx := 0
		bestScore := math.Inf(-1)
		for i, candidate := range pool {
			score := 0.0
			n := len(ordered)
			if n >= 2 && ordered[n-1].Type == candidate.Type && ordered[n-2].Type == candidate.Type {
				score += tripleRunPenalty
			} else if n >= 1 && ordered[n-1].Type != candidate.Type {
				score += varietyBonus
			}
			if score > bestScore {
				bestScore = score
				bestIdx = i
			}
		}
		ordered = append(ordered, pool[bestIdx])
		pool = append(pool[:bestIdx], pool[bestIdx+1:]...)
	}
	return ordered
}

func covers(ex Exercise, itemID string) bool {
	for _, id := range ex.ItemIDs {
		if id == itemID {
			return true
		}
	}
	return false
}

func orSeeded(rng *rand.Rand) *rand.Rand {
	if rng != nil {
		return rng
	}
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}
