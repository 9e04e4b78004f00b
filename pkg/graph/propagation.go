package graph

import (
	"math"
	"time"

	"github.com/mnemolabs/fire-go/pkg/fire"
)

// ApplyImplicitCredit applies fractional credit to an item without an
// explicit review and returns the new state.
//
// The credit is discounted by the item's current decayed memory:
//
//	credit * (1 - decayedMemory * CreditDiscountFactor)
//
// An item already at high memory gains little from an indirect success, so
// implicit credit cannot trivially max out easy items. Credit below
// MinCreditThreshold (before or after the discount) is a no-op and returns
// the state unchanged, which bounds propagation. When
// SlowLearnerImplicitCredit is off, items with learning speed below 1.0 are
// also left unchanged.
func ApplyImplicitCredit(state fire.ItemMemoryState, credit float64, cfg *fire.Config, now time.Time) fire.ItemMemoryState {
	cfg = cfg.OrDefault()
	if credit < cfg.MinCreditThreshold {
		return state
	}
	state = fire.Clamp(state, cfg)
	if !cfg.SlowLearnerImplicitCredit && state.LearningSpeed < 1.0 {
		return state
	}

	decayed := fire.DecayedMemory(state, now)
	discounted := credit * (1 - decayed*cfg.CreditDiscountFactor)
	if discounted < cfg.MinCreditThreshold {
		return state
	}

	state.RepetitionLevel += discounted
	state.Memory = math.Min(1, decayed+discounted*cfg.MemoryPassBoost)
	state.LastEventTime = now
	return state
}

// ApplyImplicitPenalty applies a fractional penalty to an item whose
// prerequisite was failed and returns the new state.
//
// Both the repetition level and memory are reduced, floored at 0. Penalties
// below MinCreditThreshold are a no-op.
func ApplyImplicitPenalty(state fire.ItemMemoryState, penalty float64, cfg *fire.Config, now time.Time) fire.ItemMemoryState {
	cfg = cfg.OrDefault()
	if penalty < cfg.MinCreditThreshold {
		return state
	}
	state = fire.Clamp(state, cfg)

	decayed := fire.DecayedMemory(state, now)
	state.RepetitionLevel = math.Max(0, state.RepetitionLevel-penalty)
	state.Memory = math.Max(0, decayed-penalty*cfg.MemoryFailReduction)
	state.LastEventTime = now
	return state
}

// FlowCreditDown propagates credit from an explicitly passed item through
// its Encompasses edges, mutating states in place.
//
// Each hop multiplies the credit by the edge weight, so it diminishes with
// distance. Traversal stops at already-visited items (cycle guard), beyond
// MaxPropagationDepth hops, and once the credit falls below
// MinCreditThreshold. The explicitly reviewed root item is marked visited
// but not credited here; UpdateState already handled it.
//
// Callers own the states map and its commit boundary: pass a private clone
// when a rollback-on-partial-failure guarantee is required.
func FlowCreditDown(itemID string, credit float64, g *DependencyGraph, states map[string]fire.ItemMemoryState, cfg *fire.Config, now time.Time, visited map[string]bool, depth int) {
	cfg = cfg.OrDefault()
	if g == nil || visited[itemID] {
		return
	}
	visited[itemID] = true
	if depth >= cfg.MaxPropagationDepth || credit < cfg.MinCreditThreshold {
		return
	}

	for _, edge := range g.Encompasses(itemID) {
		flowed := credit * edge.Weight
		if flowed < cfg.MinCreditThreshold || visited[edge.Target] {
			continue
		}
		if state, ok := states[edge.Target]; ok {
			states[edge.Target] = ApplyImplicitCredit(state, flowed, cfg, now)
		}
		FlowCreditDown(edge.Target, flowed, g, states, cfg, now, visited, depth+1)
	}
}

// FlowPenaltyUp propagates a penalty from an explicitly failed item through
// its EncompassedBy edges, mutating states in place.
//
// The walk mirrors FlowCreditDown with one extra damping: every hop also
// multiplies by PenaltyPropagationFactor, because failing a foundational
// item is weaker evidence against an advanced item than passing is strong
// evidence for a foundational one.
func FlowPenaltyUp(itemID string, penalty float64, g *DependencyGraph, states map[string]fire.ItemMemoryState, cfg *fire.Config, now time.Time, visited map[string]bool, depth int) {
	cfg = cfg.OrDefault()
	if g == nil || visited[itemID] {
		return
	}
	visited[itemID] = true
	if depth >= cfg.MaxPropagationDepth || penalty < cfg.MinCreditThreshold {
		return
	}

	for _, edge := range g.EncompassedBy(itemID) {
		flowed := penalty * edge.Weight * cfg.PenaltyPropagationFactor
		if flowed < cfg.MinCreditThreshold || visited[edge.Target] {
			continue
		}
		if state, ok := states[edge.Target]; ok {
			states[edge.Target] = ApplyImplicitPenalty(state, flowed, cfg, now)
		}
		FlowPenaltyUp(edge.Target, flowed, g, states, cfg, now, visited, depth+1)
	}
}
