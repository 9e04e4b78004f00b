package core_test

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mnemolabs/fire-go/pkg/core"
	"github.com/mnemolabs/fire-go/pkg/fire"
	"github.com/mnemolabs/fire-go/pkg/graph"
	"github.com/mnemolabs/fire-go/pkg/session"
	"github.com/mnemolabs/fire-go/pkg/storage"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestClient(t *testing.T, store *storage.MemStore, g *graph.DependencyGraph) *core.Client {
	t.Helper()
	client, err := core.NewClient(nil, store, g,
		core.WithClock(func() time.Time { return testNow }),
		core.WithRand(rand.New(rand.NewSource(42))))
	require.NoError(t, err)
	return client
}

func seedState(t *testing.T, store *storage.MemStore, learnerID string, state fire.ItemMemoryState) {
	t.Helper()
	require.NoError(t, store.PutState(context.Background(), learnerID, state))
}

func TestNewClientRequiresStore(t *testing.T) {
	_, err := core.NewClient(nil, nil, nil)
	assert.ErrorIs(t, err, core.ErrNoStore)
}

func TestNewClientRejectsUnknownProvider(t *testing.T) {
	config := &core.Config{Storage: core.StorageConfig{Provider: "redis"}}
	_, err := core.NewClient(config, storage.NewMemStore(), nil)
	assert.ErrorIs(t, err, core.ErrUnknownProvider)
}

func TestProcessReviewCreatesStateAndLogsEvent(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemStore()
	client := newTestClient(t, store, nil)

	outcome, err := client.ProcessReview(ctx, "learner-1", "item-1", true, 1)
	require.NoError(t, err)
	assert.NotZero(t, outcome.EventID)
	assert.Zero(t, outcome.PropagatedItems)
	assert.Greater(t, outcome.State.RepetitionLevel, 0.0)
	assert.Equal(t, testNow, outcome.State.LastEventTime)

	state, err := store.GetState(ctx, "learner-1", "item-1")
	require.NoError(t, err)
	assert.Equal(t, outcome.State, *state)

	results, err := store.RecentResults(ctx, "learner-1", "item-1", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Passed)
	assert.False(t, results[0].ExpectedToPass, "a brand new item is not expected to pass")
}

func TestProcessReviewPassCreditsDependencies(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemStore()

	g := graph.New()
	g.AddEdge("compound", "root-word", 1.0)

	seedState(t, store, "learner-1", fire.ItemMemoryState{
		ItemID: "root-word", RepetitionLevel: 1, Memory: 0.2,
		LastEventTime: testNow.Add(-24 * time.Hour), LearningSpeed: 1,
	})

	client := newTestClient(t, store, g)
	outcome, err := client.ProcessReview(ctx, "learner-1", "compound", true, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, outcome.PropagatedItems)

	dep, err := store.GetState(ctx, "learner-1", "root-word")
	require.NoError(t, err)
	assert.Greater(t, dep.RepetitionLevel, 1.0, "the encompassed item receives implicit credit")
}

func TestProcessReviewClampsQualityBeforePropagation(t *testing.T) {
	ctx := context.Background()

	runReview := func(quality float64) fire.ItemMemoryState {
		store := storage.NewMemStore()
		g := graph.New()
		g.AddEdge("compound", "root-word", 1.0)
		seedState(t, store, "learner-1", fire.ItemMemoryState{
			ItemID: "root-word", RepetitionLevel: 1, Memory: 0.2,
			LastEventTime: testNow.Add(-24 * time.Hour), LearningSpeed: 1,
		})

		client := newTestClient(t, store, g)
		_, err := client.ProcessReview(ctx, "learner-1", "compound", true, quality)
		require.NoError(t, err)

		dep, err := store.GetState(ctx, "learner-1", "root-word")
		require.NoError(t, err)
		return *dep
	}

	assert.Equal(t, runReview(1), runReview(5),
		"out-of-range quality must not inflate the credit flowed to dependencies")
	assert.Equal(t, runReview(0), runReview(-3))
}

func TestProcessReviewFailPenalizesDependents(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemStore()

	g := graph.New()
	g.AddEdge("compound", "root-word", 1.0)

	seedState(t, store, "learner-1", fire.ItemMemoryState{
		ItemID: "compound", RepetitionLevel: 3, Memory: 0.9,
		LastEventTime: testNow.Add(-24 * time.Hour), LearningSpeed: 1,
	})

	client := newTestClient(t, store, g)
	outcome, err := client.ProcessReview(ctx, "learner-1", "root-word", false, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, outcome.PropagatedItems)

	parent, err := store.GetState(ctx, "learner-1", "compound")
	require.NoError(t, err)
	assert.Less(t, parent.RepetitionLevel, 3.0, "failing a building block flags what depends on it")
}

func TestDueItemsPriorityOrder(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemStore()

	// 2 days overdue against a 1 day interval.
	seedState(t, store, "learner-1", fire.ItemMemoryState{
		ItemID: "stale", RepetitionLevel: 1, Memory: 0.9,
		LastEventTime: testNow.Add(-3 * 24 * time.Hour), LearningSpeed: 1,
	})
	// Due by the memory floor only.
	seedState(t, store, "learner-1", fire.ItemMemoryState{
		ItemID: "weak", RepetitionLevel: 2, Memory: 0.3,
		LastEventTime: testNow.Add(-1 * time.Hour), LearningSpeed: 1,
	})
	// Not due at all.
	seedState(t, store, "learner-1", fire.ItemMemoryState{
		ItemID: "fresh", RepetitionLevel: 2, Memory: 1,
		LastEventTime: testNow.Add(-1 * time.Hour), LearningSpeed: 1,
	})

	client := newTestClient(t, store, nil)
	due, err := client.DueItems(ctx, "learner-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"stale", "weak"}, due)
}

func TestOptimalReviewsCompressesDueSet(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemStore()

	g := graph.New()
	g.AddEdge("a", "b", 1.0)
	g.AddEdge("a", "c", 0.8)

	overdue := func(id string) fire.ItemMemoryState {
		return fire.ItemMemoryState{
			ItemID: id, RepetitionLevel: 1, Memory: 0.9,
			LastEventTime: testNow.Add(-3 * 24 * time.Hour), LearningSpeed: 1,
		}
	}
	for _, id := range []string{"a", "b", "c"} {
		seedState(t, store, "learner-1", overdue(id))
	}

	client := newTestClient(t, store, g)
	selected, err := client.OptimalReviews(ctx, "learner-1", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, selected, "reviewing a knocks out b and c")
}

func TestMigrateLegacy(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemStore()
	store.SeedLegacyStrength("learner-1", "item-1", 0.9)
	store.SeedLegacyStrength("learner-1", "item-2", 0.2)
	store.SeedLegacyStrength("learner-1", "item-3", 0.5)

	existing := fire.ItemMemoryState{
		ItemID: "item-3", RepetitionLevel: 4, Memory: 0.7,
		LastEventTime: testNow.Add(-24 * time.Hour), LearningSpeed: 1.2,
	}
	seedState(t, store, "learner-1", existing)

	client := newTestClient(t, store, nil)

	migrated, err := client.MigrateLegacy(ctx, "learner-1")
	require.NoError(t, err)
	assert.Equal(t, 2, migrated, "items with existing FIRe state are skipped")

	kept, err := store.GetState(ctx, "learner-1", "item-3")
	require.NoError(t, err)
	assert.Equal(t, existing, *kept, "migration never overwrites FIRe state")

	imported, err := store.GetState(ctx, "learner-1", "item-1")
	require.NoError(t, err)
	assert.Greater(t, imported.RepetitionLevel, 0.0)

	again, err := client.MigrateLegacy(ctx, "learner-1")
	require.NoError(t, err)
	assert.Zero(t, again, "a second run finds nothing left to migrate")
}

func TestValidateStatesFlagsCorruptRecords(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemStore()

	seedState(t, store, "learner-1", fire.ItemMemoryState{
		ItemID: "good", RepetitionLevel: 2, Memory: 0.5,
		LastEventTime: testNow, LearningSpeed: 1,
	})
	seedState(t, store, "learner-1", fire.ItemMemoryState{
		ItemID: "bad", RepetitionLevel: -1, Memory: 2, LearningSpeed: 9,
	})

	client := newTestClient(t, store, nil)
	violations, err := client.ValidateStates(ctx, "learner-1")
	require.NoError(t, err)
	assert.NotContains(t, violations, "good")
	assert.NotEmpty(t, violations["bad"])
}

func TestBuildSessionRespectsCount(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemStore()
	seedState(t, store, "learner-1", fire.ItemMemoryState{
		ItemID: "due", RepetitionLevel: 1, Memory: 0.2,
		LastEventTime: testNow.Add(-5 * 24 * time.Hour), LearningSpeed: 1,
	})

	exercises := []session.Exercise{
		{ID: "e1", Type: "cloze", ItemIDs: []string{"due"}},
		{ID: "e2", Type: "cloze", ItemIDs: []string{"other-1"}},
		{ID: "e3", Type: "unscramble", ItemIDs: []string{"other-2"}},
		{ID: "e4", Type: "unscramble", ItemIDs: []string{"other-3"}},
	}

	client := newTestClient(t, store, nil)
	built, err := client.BuildSession(ctx, "learner-1", exercises, 2)
	require.NoError(t, err)
	require.NotEmpty(t, built)
	assert.LessOrEqual(t, len(built), 2)
	assert.Equal(t, "e1", built[0].ID, "the due item's exercise leads the session")
}

func TestLearners(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemStore()
	seedState(t, store, "b-learner", fire.ItemMemoryState{ItemID: "x", LastEventTime: testNow, LearningSpeed: 1})
	store.SeedLegacyStrength("a-learner", "y", 0.5)

	client := newTestClient(t, store, nil)
	learners, err := client.Learners(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a-learner", "b-learner"}, learners)
}
