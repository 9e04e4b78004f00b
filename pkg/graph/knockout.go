package graph

import (
	"sort"
	"time"

	"github.com/mnemolabs/fire-go/pkg/fire"
)

// Knockouts returns every item transitively reachable from itemID over
// Encompasses edges whose weight is at least KnockoutWeightThreshold.
//
// Reviewing itemID makes an explicit review of each returned item redundant.
// The visited set guards against cycles; callers may pass nil for a fresh
// walk. The root item itself is not included in the result.
func Knockouts(itemID string, g *DependencyGraph, cfg *fire.Config, visited map[string]bool) []string {
	cfg = cfg.OrDefault()
	if g == nil {
		return nil
	}
	if visited == nil {
		visited = make(map[string]bool)
	}
	if visited[itemID] {
		return nil
	}
	visited[itemID] = true

	var knocked []string
	for _, edge := range g.Encompasses(itemID) {
		if edge.Weight < cfg.KnockoutWeightThreshold || visited[edge.Target] {
			continue
		}
		knocked = append(knocked, edge.Target)
		knocked = append(knocked, Knockouts(edge.Target, g, cfg, visited)...)
	}
	return knocked
}

// SelectOptimalReviews picks at most maxReviews items from the due set so
// that explicit reviews transitively cover as many due items as possible.
//
// The heuristic is greedy: repeatedly pick the due item whose knockout set
// intersected with the remaining due set is largest, remove it and its
// knockouts, and repeat until maxReviews is reached or the due set is
// exhausted. When no candidate yields knockouts, the first remaining item is
// taken. Ties break by position in dueItems, which makes the selection
// deterministic for a fixed input order.
//
// This is a greedy approximation to minimum set cover, bounded by
// O(maxReviews * |dueItems| * graph walk); it makes no optimality claim.
func SelectOptimalReviews(dueItems []string, g *DependencyGraph, maxReviews int, cfg *fire.Config) []string {
	cfg = cfg.OrDefault()
	if maxReviews <= 0 || len(dueItems) == 0 {
		return nil
	}

	remaining := make([]string, 0, len(dueItems))
	inRemaining := make(map[string]bool, len(dueItems))
	for _, id := range dueItems {
		if !inRemaining[id] {
			remaining = append(remaining, id)
			inRemaining[id] = true
		}
	}

	var selected []string
	for len(selected) < maxReviews && len(remaining) > 0 {
		best := remaining[0]
		var bestKnocked []string
		for _, candidate := range remaining {
			var knocked []string
			for _, id := range Knockouts(candidate, g, cfg, nil) {
				if inRemaining[id] && id != candidate {
					knocked = append(knocked, id)
				}
			}
			if len(knocked) > len(bestKnocked) {
				best = candidate
				bestKnocked = knocked
			}
		}

		selected = append(selected, best)
		delete(inRemaining, best)
		for _, id := range bestKnocked {
			delete(inRemaining, id)
		}
		next := remaining[:0]
		for _, id := range remaining {
			if inRemaining[id] {
				next = append(next, id)
			}
		}
		remaining = next
	}
	return selected
}

// SortByReviewPriority orders items by urgency: days overdue descending,
// then current decayed memory ascending as the tiebreak (lower memory means
// more urgent). Items without state count as zero memory, so they sort ahead
// of every known never-overdue item.
//
// The input slice is not modified; a sorted copy is returned.
func SortByReviewPriority(items []string, states map[string]fire.ItemMemoryState, now time.Time) []string {
	sorted := make([]string, len(items))
	copy(sorted, items)

	overdue := make(map[string]float64, len(items))
	memory := make(map[string]float64, len(items))
	for _, id := range sorted {
		if state, ok := states[id]; ok {
			overdue[id] = fire.DaysOverdue(state, now)
			memory[id] = fire.DecayedMemory(state, now)
		}
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if overdue[a] != overdue[b] {
			return overdue[a] > overdue[b]
		}
		return memory[a] < memory[b]
	})
	return sorted
}
