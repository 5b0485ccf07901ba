package progress

import (
	"maps"
	"slices"
	"time"

	"github.com/jwebster45206/progression-engine/pkg/story"
)

// Snapshot is the mutable per-player, per-story progress record that
// drives all gating decisions. AccessibleBeats only ever grows over
// the life of a snapshot: content is never un-revealed.
type Snapshot struct {
	StoryID            string             `json:"story_id"`
	PlayerID           string             `json:"player_id"`
	CurrentBeat        string             `json:"current_beat"`
	AccessibleBeats    []string           `json:"accessible_beats"`
	RevealedCharacters []string           `json:"revealed_characters,omitempty"`
	DiscoveredItems    []string           `json:"discovered_items,omitempty"`
	UnlockedEndings    []string           `json:"unlocked_endings,omitempty"`
	Stats              map[string]float64 `json:"stats,omitempty"`
	Relationships      map[string]float64 `json:"relationships,omitempty"`
	Flags              map[string]bool    `json:"flags,omitempty"`
	LastUpdated        time.Time          `json:"last_updated"`
}

// NewSnapshot builds a fresh snapshot for a player starting the given
// story: only the starting beat is accessible, and stat and
// relationship values are copied from the graph's declared baselines.
func NewSnapshot(g *story.Graph, storyID, playerID string) *Snapshot {
	s := &Snapshot{
		StoryID:       storyID,
		PlayerID:      playerID,
		Stats:         make(map[string]float64, len(g.InitialStats)),
		Relationships: make(map[string]float64, len(g.InitialRelationships)),
		Flags:         make(map[string]bool),
		LastUpdated:   time.Now().UTC(),
	}
	maps.Copy(s.Stats, g.InitialStats)
	maps.Copy(s.Relationships, g.InitialRelationships)

	if start := g.StartingBeat(); start != nil {
		s.CurrentBeat = start.ID
		s.AccessibleBeats = []string{start.ID}
	}
	return s
}

// Stat returns a stat value, defaulting missing keys to 0.
func (s *Snapshot) Stat(name string) float64 {
	return s.Stats[name]
}

// Relationship returns a relationship value, defaulting missing keys to 0.
func (s *Snapshot) Relationship(name string) float64 {
	return s.Relationships[name]
}

func (s *Snapshot) HasBeat(id string) bool {
	return slices.Contains(s.AccessibleBeats, id)
}

func (s *Snapshot) HasCharacter(id string) bool {
	return slices.Contains(s.RevealedCharacters, id)
}

func (s *Snapshot) HasItem(id string) bool {
	return slices.Contains(s.DiscoveredItems, id)
}

func (s *Snapshot) HasEnding(id string) bool {
	return slices.Contains(s.UnlockedEndings, id)
}

// AddBeat marks a beat accessible. Re-adding an existing member is a
// no-op; returns true only when the set actually grew.
func (s *Snapshot) AddBeat(id string) bool {
	if id == "" || s.HasBeat(id) {
		return false
	}
	s.AccessibleBeats = append(s.AccessibleBeats, id)
	return true
}

func (s *Snapshot) RevealCharacter(id string) bool {
	if id == "" || s.HasCharacter(id) {
		return false
	}
	s.RevealedCharacters = append(s.RevealedCharacters, id)
	return true
}

func (s *Snapshot) DiscoverItem(id string) bool {
	if id == "" || s.HasItem(id) {
		return false
	}
	s.DiscoveredItems = append(s.DiscoveredItems, id)
	return true
}

func (s *Snapshot) UnlockEnding(id string) bool {
	if id == "" || s.HasEnding(id) {
		return false
	}
	s.UnlockedEndings = append(s.UnlockedEndings, id)
	return true
}

// Clone returns a deep copy. Snapshots are treated as
// immutable-after-publish: anything handed to a caller or placed in a
// cache is a clone, so readers can safely interleave with the single
// writer for a session key.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	out := *s
	out.AccessibleBeats = slices.Clone(s.AccessibleBeats)
	out.RevealedCharacters = slices.Clone(s.RevealedCharacters)
	out.DiscoveredItems = slices.Clone(s.DiscoveredItems)
	out.UnlockedEndings = slices.Clone(s.UnlockedEndings)
	out.Stats = maps.Clone(s.Stats)
	out.Relationships = maps.Clone(s.Relationships)
	out.Flags = maps.Clone(s.Flags)
	return &out
}
