// Package session assembles bounded, diversity-constrained practice
// sessions from exercises and per-item mastery state.
//
// Exercises arrive from content modules as opaque descriptors; the scheduler
// only reads their covered item IDs and their type tag, which is compared
// for equality and nothing else.
package session

import "github.com/mnemolabs/fire-go/pkg/fire"

// Exercise describes one practice exercise supplied by a content module.
type Exercise struct {
	// ID is the unique exercise identifier.
	ID string `json:"id"`

	// LessonID is an opaque grouping key.
	LessonID string `json:"lesson_id"`

	// Type is an opaque exercise-type tag (e.g. "cloze", "unscramble").
	// The scheduler compares it only for equality when spreading types
	// across a session.
	Type string `json:"type"`

	// ItemIDs are the learnable items this exercise covers.
	ItemIDs []string `json:"item_ids"`
}

// Strength bucket boundaries for legacy scalar records.
const (
	legacyWeakBelow    = 0.4
	legacyMasteredFrom = 0.75
	fireMasteredLevel  = 3.0
	fireMasteredMemory = 0.5
	fireWeakLevelBelow = 1.0
)

// Buckets groups exercises into the three difficulty tiers used for session
// sampling.
type Buckets struct {
	Weak     []Exercise
	Learning []Exercise
	Mastered []Exercise
}

// CategorizeByStrength buckets exercises using legacy scalar strength
// records in [0,1], one per item.
//
// An exercise is rated by its weakest covered item: strength below 0.4 is
// weak, 0.75 and above is mastered, anything else is learning. Items with
// no record count as weak.
func CategorizeByStrength(exercises []Exercise, strengths map[string]float64) Buckets {
	var buckets Buckets
	for _, ex := range exercises {
		weakest := 1.0
		if len(ex.ItemIDs) == 0 {
			weakest = 0
		}
		for _, id := range ex.ItemIDs {
			s, ok := strengths[id]
			if !ok {
				weakest = 0
				break
			}
			if s < weakest {
				weakest = s
			}
		}
		switch {
		case weakest < legacyWeakBelow:
			buckets.Weak = append(buckets.Weak, ex)
		case weakest >= legacyMasteredFrom:
			buckets.Mastered = append(buckets.Mastered, ex)
		default:
			buckets.Learning = append(buckets.Learning, ex)
		}
	}
	return buckets
}

// CategorizeByFIRe buckets exercises using FIRe state.
//
// An exercise is weak when any covered item has a repetition level below 1
// (or no state at all), mastered when every covered item has level >= 3 and
// memory >= 0.5, and learning otherwise.
func CategorizeByFIRe(exercises []Exercise, states map[string]fire.ItemMemoryState) Buckets {
	var buckets Buckets
	for _, ex := range exercises {
		weak := len(ex.ItemIDs) == 0
		mastered := len(ex.ItemIDs) > 0
		for _, id := range ex.ItemIDs {
			state, ok := states[id]
			if !ok || state.RepetitionLevel < fireWeakLevelBelow {
				weak = true
				mastered = false
				break
			}
			if state.RepetitionLevel < fireMasteredLevel || state.Memory < fireMasteredMemory {
				mastered = false
			}
		}
		switch {
		case weak:
			buckets.Weak = append(buckets.Weak, ex)
		case mastered:
			buckets.Mastered = append(buckets.Mastered, ex)
		default:
			buckets.Learning = append(buckets.Learning, ex)
		}
	}
	return buckets
}
