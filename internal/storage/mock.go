package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/jwebster45206/progression-engine/pkg/story"
)

// MockStore is an in-memory ProgressStore for testing.
type MockStore struct {
	mu        sync.RWMutex
	records   map[string]*PersistedProgress
	pingError error
	putError  error
	getError  error
	putCount  int
}

// Ensure MockStore implements ProgressStore interface
var _ ProgressStore = (*MockStore)(nil)

// NewMockStore creates a new mock progress store
func NewMockStore() *MockStore {
	return &MockStore{
		records: make(map[string]*PersistedProgress),
	}
}

// SetPingError configures the mock to fail on ping with the given error
func (m *MockStore) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

// SetPutError configures the mock to fail on PutProgress
func (m *MockStore) SetPutError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putError = err
}

// SetGetError configures the mock to fail on GetProgress
func (m *MockStore) SetGetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getError = err
}

// PutCount returns how many times PutProgress has been called
func (m *MockStore) PutCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.putCount
}

func (m *MockStore) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingError
}

func (m *MockStore) Close() error { return nil }

func (m *MockStore) WaitForConnection(ctx context.Context) error {
	return m.Ping(ctx)
}

func (m *MockStore) GetProgress(ctx context.Context, storyID, playerID string) (*PersistedProgress, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.getError != nil {
		return nil, m.getError
	}
	rec, ok := m.records[progressKey(storyID, playerID)]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (m *MockStore) PutProgress(ctx context.Context, rec *PersistedProgress) error {
	if rec == nil {
		return errors.New("progress record cannot be nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putError != nil {
		return m.putError
	}
	cp := *rec
	m.records[progressKey(rec.StoryID, rec.PlayerID)] = &cp
	m.putCount++
	return nil
}

func (m *MockStore) DeleteProgress(ctx context.Context, storyID, playerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, progressKey(storyID, playerID))
	return nil
}

// MockProvider is an in-memory StoryProvider for testing.
type MockProvider struct {
	mu      sync.RWMutex
	stories map[string]*story.Graph
	loads   int
}

// Ensure MockProvider implements StoryProvider interface
var _ StoryProvider = (*MockProvider)(nil)

// NewMockProvider creates a new mock story provider
func NewMockProvider() *MockProvider {
	return &MockProvider{
		stories: make(map[string]*story.Graph),
	}
}

// AddStory registers a graph under its ID
func (m *MockProvider) AddStory(g *story.Graph) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stories[g.ID] = g
}

// LoadCount returns how many times LoadFullStory has been called
func (m *MockProvider) LoadCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loads
}

func (m *MockProvider) LoadFullStory(ctx context.Context, storyID string) (*story.Graph, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads++
	g, ok := m.stories[storyID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrStoryNotFound, storyID)
	}
	return g, nil
}

func (m *MockProvider) ListStories(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.stories))
	for id := range m.stories {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
