package core

import (
	"context"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/bwmarrin/snowflake"

	"github.com/mnemolabs/fire-go/pkg/fire"
	"github.com/mnemolabs/fire-go/pkg/graph"
	"github.com/mnemolabs/fire-go/pkg/session"
	"github.com/mnemolabs/fire-go/pkg/sm2"
	"github.com/mnemolabs/fire-go/pkg/storage"
)

// expectedPassMemory is the decayed-memory level at which the engine
// predicts a pass; outcomes contradicting the prediction feed calibration.
const expectedPassMemory = 0.5

// Client is the FIRe engine facade.
//
// It combines the progress store, the dependency graph, and the engine
// configuration behind the operations an application calls: processing
// reviews, scanning due items, compressing reviews, and building practice
// sessions.
//
// The engine itself is synchronous and single-threaded; callers operating
// on the same learner concurrently must serialize themselves (one review
// transaction per learner at a time).
//
// Example:
//
//	config, _ := core.LoadConfigFromEnv()
//	store, _ := core.OpenStore(config.Storage)
//	client, _ := core.NewClient(config, store, depGraph)
//	defer client.Close()
//
//	outcome, _ := client.ProcessReview(ctx, "learner-1", "item-42", true, 0.9)
type Client struct {
	config *Config
	engine *fire.Config
	store  storage.ProgressStore
	graph  *graph.DependencyGraph
	node   *snowflake.Node
	clock  func() time.Time
	rng    *rand.Rand
}

// Option customizes a Client.
type Option func(*Client)

// WithClock injects the wall-clock source, for deterministic tests.
func WithClock(clock func() time.Time) Option {
	return func(c *Client) { c.clock = clock }
}

// WithRand injects the random source used for session shuffling.
func WithRand(rng *rand.Rand) Option {
	return func(c *Client) { c.rng = rng }
}

// NewClient creates an engine client.
//
// The dependency graph may be nil, in which case propagation and
// compression degrade gracefully to plain per-item scheduling.
func NewClient(config *Config, store storage.ProgressStore, g *graph.DependencyGraph, opts ...Option) (*Client, error) {
	if config == nil {
		config = &Config{}
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if store == nil {
		return nil, NewEngineError("NewClient", ErrNoStore)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return nil, NewEngineError("NewClient", err)
	}

	c := &Client{
		config: config,
		engine: config.Engine.OrDefault(),
		store:  store,
		graph:  g,
		node:   node,
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.rng == nil {
		c.rng = rand.New(rand.NewSource(c.clock().UnixNano()))
	}
	return c, nil
}

// ReviewOutcome summarizes one processed review.
type ReviewOutcome struct {
	// EventID is the snowflake ID of the logged review event.
	EventID int64

	// State is the reviewed item's state after the update.
	State fire.ItemMemoryState

	// PropagatedItems is how many related items received implicit credit
	// or penalty through the dependency graph.
	PropagatedItems int
}

// ProcessReview applies an explicit review outcome for one item.
//
// The learner's full state map is loaded, the reviewed item is updated, and
// the outcome is propagated through the dependency graph: credit flows down
// Encompasses edges on a pass, penalty flows up EncompassedBy edges on a
// fail. The learning speed is recalibrated from the stored result window.
// The working map is a private clone; it is committed back to the store in
// one SaveStates call, so a storage failure leaves the persisted state
// untouched. The review event is logged afterward for future calibration.
func (c *Client) ProcessReview(ctx context.Context, learnerID, itemID string, passed bool, quality float64) (*ReviewOutcome, error) {
	now := c.clock()

	// Both the explicit update and the propagated credit must see the same
	// sanitized quality.
	if quality < 0 || math.IsNaN(quality) {
		quality = 0
	} else if quality > 1 {
		quality = 1
	}

	states, err := c.store.LoadStates(ctx, learnerID)
	if err != nil {
		return nil, NewEngineError("ProcessReview", err)
	}

	state, ok := states[itemID]
	if !ok {
		state = fire.NewItemState(itemID, now)
	}
	expected := fire.DecayedMemory(state, now) >= expectedPassMemory

	updated := fire.UpdateState(state, passed, quality, c.engine, now)

	recent, err := c.store.RecentResults(ctx, learnerID, itemID, 10)
	if err != nil {
		return nil, NewEngineError("ProcessReview", err)
	}
	recent = append(recent, fire.RepetitionResult{Passed: passed, ExpectedToPass: expected, Timestamp: now})
	updated.LearningSpeed = fire.CalibrateLearningSpeed(updated, recent, c.engine)
	states[itemID] = updated

	visited := map[string]bool{}
	if c.graph != nil {
		if passed {
			credit := c.engine.PassBase + c.engine.PassQualityMultiplier*quality
			graph.FlowCreditDown(itemID, credit, c.graph, states, c.engine, now, visited, 0)
		} else {
			penalty := -c.engine.FailPenalty
			graph.FlowPenaltyUp(itemID, penalty, c.graph, states, c.engine, now, visited, 0)
		}
	}

	if err := c.store.SaveStates(ctx, learnerID, states); err != nil {
		return nil, NewEngineError("ProcessReview", err)
	}

	event := &storage.ReviewEvent{
		ID:             c.node.Generate().Int64(),
		LearnerID:      learnerID,
		ItemID:         itemID,
		Passed:         passed,
		ExpectedToPass: expected,
		Quality:        quality,
		CreatedAt:      now,
	}
	if err := c.store.AppendReviewEvent(ctx, event); err != nil {
		return nil, NewEngineError("ProcessReview", err)
	}

	propagated := len(visited)
	if propagated > 0 {
		propagated-- // the reviewed root is in the visited set
	}
	return &ReviewOutcome{EventID: event.ID, State: updated, PropagatedItems: propagated}, nil
}

// DueItems returns the learner's due items in review-priority order: days
// overdue descending, then decayed memory ascending.
func (c *Client) DueItems(ctx context.Context, learnerID string) ([]string, error) {
	states, err := c.store.LoadStates(ctx, learnerID)
	if err != nil {
		return nil, NewEngineError("DueItems", err)
	}

	now := c.clock()
	ids := make([]string, 0, len(states))
	for id := range states {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var due []string
	for _, id := range ids {
		if fire.IsDue(states[id], c.engine, now) {
			due = append(due, id)
		}
	}
	return graph.SortByReviewPriority(due, states, now), nil
}

// OptimalReviews returns at most maxReviews item IDs whose explicit review
// transitively covers the largest share of the learner's due set.
//
// Without a dependency graph it falls back to the first maxReviews items in
// priority order.
func (c *Client) OptimalReviews(ctx context.Context, learnerID string, maxReviews int) ([]string, error) {
	due, err := c.DueItems(ctx, learnerID)
	if err != nil {
		return nil, NewEngineError("OptimalReviews", err)
	}
	if c.graph == nil {
		if len(due) > maxReviews {
			due = due[:maxReviews]
		}
		return due, nil
	}
	return graph.SelectOptimalReviews(due, c.graph, maxReviews, c.engine), nil
}

// BuildSession assembles a practice session of up to count exercises for
// the learner, due items first, using the FIRe session scheduler.
func (c *Client) BuildSession(ctx context.Context, learnerID string, exercises []session.Exercise, count int) ([]session.Exercise, error) {
	states, err := c.store.LoadStates(ctx, learnerID)
	if err != nil {
		return nil, NewEngineError("BuildSession", err)
	}
	return session.BuildFIRePracticeSession(exercises, states, c.graph, c.engine, count, c.rng, c.clock()), nil
}

// MigrateLegacy imports legacy scalar-strength records into FIRe state for
// every item the learner has no FIRe state for yet, chaining the
// strength -> SM-2 -> FIRe adapters. It returns the number of items
// migrated. Items that already have FIRe state are never overwritten.
func (c *Client) MigrateLegacy(ctx context.Context, learnerID string) (int, error) {
	strengths, err := c.store.LoadLegacyStrengths(ctx, learnerID)
	if err != nil {
		return 0, NewEngineError("MigrateLegacy", err)
	}
	if len(strengths) == 0 {
		return 0, nil
	}

	states, err := c.store.LoadStates(ctx, learnerID)
	if err != nil {
		return 0, NewEngineError("MigrateLegacy", err)
	}

	now := c.clock()
	migrated := make(map[string]fire.ItemMemoryState)
	for itemID, strength := range strengths {
		if _, ok := states[itemID]; ok {
			continue
		}
		migrated[itemID] = sm2.StrengthToFIRe(itemID, strength, now)
	}
	if len(migrated) == 0 {
		return 0, nil
	}

	if err := c.store.SaveStates(ctx, learnerID, migrated); err != nil {
		return 0, NewEngineError("MigrateLegacy", err)
	}
	return len(migrated), nil
}

// ValidateStates runs the invariant check over every state the learner has
// and returns itemID -> violations for the states that fail. Intended for
// data-migration tooling, not the review hot path.
func (c *Client) ValidateStates(ctx context.Context, learnerID string) (map[string][]string, error) {
	states, err := c.store.LoadStates(ctx, learnerID)
	if err != nil {
		return nil, NewEngineError("ValidateStates", err)
	}
	violations := make(map[string][]string)
	for id, state := range states {
		if v := fire.ValidateState(state, c.engine); len(v) > 0 {
			violations[id] = v
		}
	}
	return violations, nil
}

// Learners returns every learner known to the progress store.
func (c *Client) Learners(ctx context.Context) ([]string, error) {
	learners, err := c.store.Learners(ctx)
	return learners, NewEngineError("Learners", err)
}

// Config returns the engine tunables the client runs with.
func (c *Client) Config() *fire.Config {
	return c.engine
}

// Close releases the underlying store.
func (c *Client) Close() error {
	return c.store.Close()
}
