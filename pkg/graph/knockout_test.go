package graph_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mnemolabs/fire-go/pkg/fire"
	"github.com/mnemolabs/fire-go/pkg/graph"
)

func TestKnockoutsCollectsTransitively(t *testing.T) {
	g := graph.New()
	g.AddEdge("a", "b", 1.0)
	g.AddEdge("a", "c", 0.8)
	g.AddEdge("c", "d", 0.7)
	g.AddEdge("a", "e", 0.5) // below the 0.65 knockout threshold

	knocked := graph.Knockouts("a", g, fire.DefaultConfig(), nil)
	assert.ElementsMatch(t, []string{"b", "c", "d"}, knocked)
}

func TestKnockoutsCycleTerminates(t *testing.T) {
	g := graph.New()
	g.AddEdge("a", "b", 0.9)
	g.AddEdge("b", "a", 0.9)

	assert.ElementsMatch(t, []string{"b"}, graph.Knockouts("a", g, fire.DefaultConfig(), nil))
}

func TestSelectOptimalReviewsEdgelessGraph(t *testing.T) {
	g := graph.New()
	due := []string{"a", "b", "c", "d", "e"}

	selected := graph.SelectOptimalReviews(due, g, 3, fire.DefaultConfig())
	assert.Equal(t, []string{"a", "b", "c"}, selected,
		"with no knockouts the greedy pass takes due items in order")

	all := graph.SelectOptimalReviews(due, g, 10, fire.DefaultConfig())
	assert.Equal(t, due, all)
}

func TestSelectOptimalReviewsCompresses(t *testing.T) {
	g := graph.New()
	g.AddEdge("a", "b", 1.0)
	g.AddEdge("a", "c", 0.8)

	due := []string{"a", "b", "c", "d"}
	selected := graph.SelectOptimalReviews(due, g, 2, fire.DefaultConfig())
	assert.Equal(t, []string{"a", "d"}, selected,
		"reviewing a knocks out b and c, leaving d")
}

func TestSelectOptimalReviewsPrefersWidestCoverage(t *testing.T) {
	g := graph.New()
	g.AddEdge("x", "p", 0.9)
	g.AddEdge("y", "p", 0.9)
	g.AddEdge("y", "q", 0.9)
	g.AddEdge("y", "r", 0.9)

	due := []string{"x", "y", "p", "q", "r"}
	selected := graph.SelectOptimalReviews(due, g, 2, fire.DefaultConfig())
	assert.Equal(t, []string{"y", "x"}, selected,
		"y covers three due items and wins the first pick")
}

func TestSelectOptimalReviewsEmptyInputs(t *testing.T) {
	cfg := fire.DefaultConfig()
	assert.Nil(t, graph.SelectOptimalReviews(nil, graph.New(), 5, cfg))
	assert.Nil(t, graph.SelectOptimalReviews([]string{"a"}, graph.New(), 0, cfg))
}

func TestSortByReviewPriority(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	states := map[string]fire.ItemMemoryState{
		// 2 days overdue against a 1 day interval.
		"stale": {ItemID: "stale", RepetitionLevel: 1, Memory: 0.9, LastEventTime: now.Add(-3 * 24 * time.Hour), LearningSpeed: 1},
		// Not overdue, strong memory.
		"strong": {ItemID: "strong", RepetitionLevel: 2, Memory: 1, LastEventTime: now.Add(-1 * time.Hour), LearningSpeed: 1},
		// Not overdue, weak memory: more urgent than strong.
		"weak": {ItemID: "weak", RepetitionLevel: 2, Memory: 0.4, LastEventTime: now.Add(-1 * time.Hour), LearningSpeed: 1},
	}

	sorted := graph.SortByReviewPriority([]string{"strong", "weak", "stale"}, states, now)
	assert.Equal(t, []string{"stale", "weak", "strong"}, sorted)
}
