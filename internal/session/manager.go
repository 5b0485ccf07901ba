package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/jwebster45206/progression-engine/internal/storage"
	"github.com/jwebster45206/progression-engine/pkg/progress"
	"github.com/jwebster45206/progression-engine/pkg/story"
)

// ErrSessionNotFound marks a load for a (storyID, playerID) with no
// cached or persisted snapshot. Callers must initialize first.
var ErrSessionNotFound = errors.New("session not found")

// Manager orchestrates progress sessions: it owns the in-memory
// snapshot and graph caches, serializes writers per session key, and
// talks to the external story provider and progress store.
//
// Published snapshots are immutable: cache entries are replaced, never
// mutated, so read operations can interleave safely with the single
// writer for a key. Cache entries live until explicitly cleared or the
// process exits; there is no TTL.
type Manager struct {
	provider storage.StoryProvider
	store    storage.ProgressStore
	logger   *slog.Logger

	mu        sync.Mutex // guards the three maps
	snapshots map[string]*progress.Snapshot
	graphs    map[string]*story.Graph
	locks     map[string]*sync.Mutex
}

// MechanicsState exposes the hidden numeric and boolean state driving
// gating decisions. It is not part of the player-facing view.
type MechanicsState struct {
	Stats         map[string]float64 `json:"stats,omitempty"`
	Relationships map[string]float64 `json:"relationships,omitempty"`
	Flags         map[string]bool    `json:"flags,omitempty"`
}

// NewManager creates a session manager.
func NewManager(provider storage.StoryProvider, store storage.ProgressStore, logger *slog.Logger) *Manager {
	return &Manager{
		provider:  provider,
		store:     store,
		logger:    logger,
		snapshots: make(map[string]*progress.Snapshot),
		graphs:    make(map[string]*story.Graph),
		locks:     make(map[string]*sync.Mutex),
	}
}

func sessionKey(storyID, playerID string) string {
	return storyID + ":" + playerID
}

// sessionLock returns the write lock for a session key, creating it on
// first use. Locks are never removed: clearing a cache entry while a
// writer holds its lock must not orphan the serialization point.
func (m *Manager) sessionLock(key string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[key]
	if !ok {
		l = &sync.Mutex{}
		m.locks[key] = l
	}
	return l
}

func (m *Manager) cachedSnapshot(key string) *progress.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshots[key]
}

// publish replaces the cache entry with a private clone of the given
// snapshot.
func (m *Manager) publish(key string, s *progress.Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots[key] = s.Clone()
}

// graph returns the story graph from cache, loading it through the
// provider on a miss.
func (m *Manager) graph(ctx context.Context, storyID string) (*story.Graph, error) {
	m.mu.Lock()
	g, ok := m.graphs[storyID]
	m.mu.Unlock()
	if ok {
		return g, nil
	}

	g, err := m.provider.LoadFullStory(ctx, storyID)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.graphs[storyID] = g
	m.mu.Unlock()
	m.logger.Debug("Story graph cached", "story_id", storyID, "beats", len(g.Beats))
	return g, nil
}

// InitializeStory starts a fresh session: it loads the story graph,
// builds a snapshot with only the starting beat accessible and the
// graph's declared baselines, persists and caches it, and returns the
// opening projection.
func (m *Manager) InitializeStory(ctx context.Context, storyID, playerID string) (*progress.PlayerView, error) {
	lock := m.sessionLock(sessionKey(storyID, playerID))
	lock.Lock()
	defer lock.Unlock()

	g, err := m.graph(ctx, storyID)
	if err != nil {
		return nil, err
	}

	snap := progress.NewSnapshot(g, storyID, playerID)
	view, err := progress.Project(g, snap)
	if err != nil {
		return nil, err
	}

	if err := m.store.PutProgress(ctx, storage.FromSnapshot(snap)); err != nil {
		return nil, fmt.Errorf("failed to persist new session: %w", err)
	}
	m.publish(sessionKey(storyID, playerID), snap)

	m.logger.Info("Story session initialized",
		"story_id", storyID,
		"player_id", playerID,
		"starting_beat", snap.CurrentBeat)
	return view, nil
}

// LoadStorySession returns the projection for an existing session,
// using the cached snapshot when present and the persisted record
// otherwise. Fails with ErrSessionNotFound when neither exists.
//
// Consumer-visible contract: on a cold load (cache miss), relationship
// values are reset to the story graph's declared initial values rather
// than the persisted ones. Graph-declared baselines win on cache miss.
func (m *Manager) LoadStorySession(ctx context.Context, storyID, playerID string) (*progress.PlayerView, error) {
	key := sessionKey(storyID, playerID)
	lock := m.sessionLock(key)
	lock.Lock()
	defer lock.Unlock()

	g, err := m.graph(ctx, storyID)
	if err != nil {
		return nil, err
	}

	var snap *progress.Snapshot
	if cached := m.cachedSnapshot(key); cached != nil {
		snap = cached.Clone()
	} else {
		rec, err := m.store.GetProgress(ctx, storyID, playerID)
		if err != nil {
			return nil, fmt.Errorf("failed to load session: %w", err)
		}
		if rec == nil {
			return nil, fmt.Errorf("%w: %s/%s", ErrSessionNotFound, storyID, playerID)
		}
		snap = rec.ToSnapshot()
		snap.Relationships = maps.Clone(g.InitialRelationships)
		m.logger.Debug("Cold session load, relationships reset to graph baselines",
			"story_id", storyID, "player_id", playerID)
	}

	view, err := m.projectAndHeal(ctx, g, snap)
	if err != nil {
		return nil, err
	}
	m.publish(key, snap)
	return view, nil
}

// UpdateStoryProgress applies a delta to the session's snapshot, runs
// one reachability expansion pass, persists, refreshes the cache, and
// returns the new projection. An empty update changes nothing but the
// LastUpdated timestamp.
func (m *Manager) UpdateStoryProgress(ctx context.Context, storyID, playerID string, update *progress.Update) (*progress.PlayerView, error) {
	key := sessionKey(storyID, playerID)
	lock := m.sessionLock(key)
	lock.Lock()
	defer lock.Unlock()

	g, err := m.graph(ctx, storyID)
	if err != nil {
		return nil, err
	}

	var snap *progress.Snapshot
	if cached := m.cachedSnapshot(key); cached != nil {
		snap = cached.Clone()
	} else {
		rec, err := m.store.GetProgress(ctx, storyID, playerID)
		if err != nil {
			return nil, fmt.Errorf("failed to load session: %w", err)
		}
		if rec == nil {
			return nil, fmt.Errorf("%w: %s/%s", ErrSessionNotFound, storyID, playerID)
		}
		snap = rec.ToSnapshot()
	}

	snap.Apply(update)
	if unlocked := progress.Expand(g, snap); len(unlocked) > 0 {
		m.logger.Info("Beats unlocked",
			"story_id", storyID,
			"player_id", playerID,
			"beats", unlocked)
	}
	snap.LastUpdated = time.Now().UTC()

	view, err := m.projectAndHeal(ctx, g, snap)
	if err != nil {
		return nil, err
	}

	if err := m.store.PutProgress(ctx, storage.FromSnapshot(snap)); err != nil {
		return nil, fmt.Errorf("failed to persist progress: %w", err)
	}
	m.publish(key, snap)
	return view, nil
}

// projectAndHeal projects the snapshot and, when the projector had to
// recover a corrupted current-beat pointer, logs the recovery and
// persists the corrected snapshot.
func (m *Manager) projectAndHeal(ctx context.Context, g *story.Graph, snap *progress.Snapshot) (*progress.PlayerView, error) {
	before := snap.CurrentBeat
	view, err := progress.Project(g, snap)
	if err != nil {
		return nil, err
	}
	if snap.CurrentBeat != before {
		m.logger.Warn("Recovered corrupted current beat",
			"story_id", snap.StoryID,
			"player_id", snap.PlayerID,
			"stale_beat", before,
			"current_beat", snap.CurrentBeat)
		if err := m.store.PutProgress(ctx, storage.FromSnapshot(snap)); err != nil {
			m.logger.Error("Failed to persist healed snapshot", "error", err)
		}
	}
	return view, nil
}

// readSnapshot serves the read-only query operations: cache-first,
// falling back to a parse of the persisted record.
func (m *Manager) readSnapshot(ctx context.Context, storyID, playerID string) (*progress.Snapshot, error) {
	if cached := m.cachedSnapshot(sessionKey(storyID, playerID)); cached != nil {
		return cached, nil
	}
	rec, err := m.store.GetProgress(ctx, storyID, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if rec == nil {
		return nil, fmt.Errorf("%w: %s/%s", ErrSessionNotFound, storyID, playerID)
	}
	return rec.ToSnapshot(), nil
}

// GetAccessibleBeats returns the IDs of every beat the player can see.
func (m *Manager) GetAccessibleBeats(ctx context.Context, storyID, playerID string) ([]string, error) {
	snap, err := m.readSnapshot(ctx, storyID, playerID)
	if err != nil {
		return nil, err
	}
	return slices.Clone(snap.AccessibleBeats), nil
}

// CanAccessBeat reports whether a single beat is accessible.
func (m *Manager) CanAccessBeat(ctx context.Context, storyID, playerID, beatID string) (bool, error) {
	snap, err := m.readSnapshot(ctx, storyID, playerID)
	if err != nil {
		return false, err
	}
	return snap.HasBeat(beatID), nil
}

// GetHiddenMechanicsState returns the stat, relationship, and flag
// state for a session.
func (m *Manager) GetHiddenMechanicsState(ctx context.Context, storyID, playerID string) (*MechanicsState, error) {
	snap, err := m.readSnapshot(ctx, storyID, playerID)
	if err != nil {
		return nil, err
	}
	return &MechanicsState{
		Stats:         maps.Clone(snap.Stats),
		Relationships: maps.Clone(snap.Relationships),
		Flags:         maps.Clone(snap.Flags),
	}, nil
}

// ClearProgressCache evicts one session's cached snapshot. The
// persisted record is untouched.
func (m *Manager) ClearProgressCache(storyID, playerID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.snapshots, sessionKey(storyID, playerID))
}

// ClearAllCaches evicts every cached snapshot and story graph.
func (m *Manager) ClearAllCaches() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots = make(map[string]*progress.Snapshot)
	m.graphs = make(map[string]*story.Graph)
}
