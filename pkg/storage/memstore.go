package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/mnemolabs/fire-go/pkg/fire"
)

// MemStore is an in-memory ProgressStore for tests and examples.
type MemStore struct {
	mu        sync.RWMutex
	states    map[string]map[string]fire.ItemMemoryState
	strengths map[string]map[string]float64
	events    []ReviewEvent
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		states:    make(map[string]map[string]fire.ItemMemoryState),
		strengths: make(map[string]map[string]float64),
	}
}

// SeedLegacyStrength records a legacy strength value, for migration tests.
func (m *MemStore) SeedLegacyStrength(learnerID, itemID string, strength float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.strengths[learnerID] == nil {
		m.strengths[learnerID] = make(map[string]float64)
	}
	m.strengths[learnerID][itemID] = strength
}

// GetState returns the state for one item, or ErrStateNotFound.
func (m *MemStore) GetState(ctx context.Context, learnerID, itemID string) (*fire.ItemMemoryState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	state, ok := m.states[learnerID][itemID]
	if !ok {
		return nil, ErrStateNotFound
	}
	return &state, nil
}

// PutState upserts the state for one item.
func (m *MemStore) PutState(ctx context.Context, learnerID string, state fire.ItemMemoryState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.states[learnerID] == nil {
		m.states[learnerID] = make(map[string]fire.ItemMemoryState)
	}
	m.states[learnerID][state.ItemID] = state
	return nil
}

// LoadStates returns a private copy of the learner's state map.
func (m *MemStore) LoadStates(ctx context.Context, learnerID string) (map[string]fire.ItemMemoryState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]fire.ItemMemoryState, len(m.states[learnerID]))
	for id, state := range m.states[learnerID] {
		out[id] = state
	}
	return out, nil
}

// SaveStates upserts every state in the map.
func (m *MemStore) SaveStates(ctx context.Context, learnerID string, states map[string]fire.ItemMemoryState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.states[learnerID] == nil {
		m.states[learnerID] = make(map[string]fire.ItemMemoryState, len(states))
	}
	for id, state := range states {
		m.states[learnerID][id] = state
	}
	return nil
}

// LoadLegacyStrengths returns a copy of the learner's legacy strengths.
func (m *MemStore) LoadLegacyStrengths(ctx context.Context, learnerID string) (map[string]float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]float64, len(m.strengths[learnerID]))
	for id, s := range m.strengths[learnerID] {
		out[id] = s
	}
	return out, nil
}

// AppendReviewEvent appends one review outcome.
func (m *MemStore) AppendReviewEvent(ctx context.Context, event *ReviewEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, *event)
	return nil
}

// RecentResults returns up to limit of the most recent results for an item,
// oldest first.
func (m *MemStore) RecentResults(ctx context.Context, learnerID, itemID string, limit int) ([]fire.RepetitionResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var results []fire.RepetitionResult
	for _, e := range m.events {
		if e.LearnerID == learnerID && e.ItemID == itemID {
			results = append(results, e.Result())
		}
	}
	if limit > 0 && len(results) > limit {
		results = results[len(results)-limit:]
	}
	return results, nil
}

// Learners returns every learner ID present in the store, sorted.
func (m *MemStore) Learners(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	learners := make([]string, 0, len(m.states))
	for id := range m.states {
		learners = append(learners, id)
	}
	for id := range m.strengths {
		if _, ok := m.states[id]; !ok {
			learners = append(learners, id)
		}
	}
	sort.Strings(learners)
	return learners, nil
}

// Close is a no-op for the in-memory store.
func (m *MemStore) Close() error { return nil }
