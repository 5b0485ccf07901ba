package storage

import (
	"encoding/json"
	"time"

	"github.com/jwebster45206/progression-engine/pkg/progress"
)

// PersistedProgress is the durable representation of a progress
// snapshot. Sets serialize as ordered string lists, maps as
// string-keyed number/bool objects.
//
// The field names predate this engine and survive for compatibility
// with existing records: "completed_beats" actually stores the
// accessible-beat set, "discovered_secrets" stores discovered items,
// and "ending_implications" stores stat values. Do not rename without
// a schema version bump.
type PersistedProgress struct {
	StoryID            string     `json:"story_id"`
	PlayerID           string     `json:"player_id"`
	CurrentBeat        string     `json:"current_beat"`
	CompletedBeats     laxStrings `json:"completed_beats"`
	RevealedCharacters laxStrings `json:"revealed_characters,omitempty"`
	DiscoveredSecrets  laxStrings `json:"discovered_secrets,omitempty"`
	UnlockedEndings    laxStrings `json:"unlocked_endings,omitempty"`
	EndingImplications laxNumbers `json:"ending_implications,omitempty"`
	Relationships      laxNumbers `json:"relationships,omitempty"`
	Flags              laxBools   `json:"flags,omitempty"`
	LastUpdated        time.Time  `json:"last_updated"`
}

// The lax container types recover from malformed persisted fields by
// substituting an empty container for that field only, so one corrupt
// field never aborts a whole load.

type laxStrings []string

func (l *laxStrings) UnmarshalJSON(data []byte) error {
	var v []string
	if err := json.Unmarshal(data, &v); err != nil {
		*l = nil
		return nil
	}
	*l = v
	return nil
}

type laxNumbers map[string]float64

func (l *laxNumbers) UnmarshalJSON(data []byte) error {
	var v map[string]float64
	if err := json.Unmarshal(data, &v); err != nil {
		*l = nil
		return nil
	}
	*l = v
	return nil
}

type laxBools map[string]bool

func (l *laxBools) UnmarshalJSON(data []byte) error {
	var v map[string]bool
	if err := json.Unmarshal(data, &v); err != nil {
		*l = nil
		return nil
	}
	*l = v
	return nil
}

// FromSnapshot converts a snapshot to its persisted form.
func FromSnapshot(s *progress.Snapshot) *PersistedProgress {
	return &PersistedProgress{
		StoryID:            s.StoryID,
		PlayerID:           s.PlayerID,
		CurrentBeat:        s.CurrentBeat,
		CompletedBeats:     laxStrings(s.AccessibleBeats),
		RevealedCharacters: laxStrings(s.RevealedCharacters),
		DiscoveredSecrets:  laxStrings(s.DiscoveredItems),
		UnlockedEndings:    laxStrings(s.UnlockedEndings),
		EndingImplications: laxNumbers(s.Stats),
		Relationships:      laxNumbers(s.Relationships),
		Flags:              laxBools(s.Flags),
		LastUpdated:        s.LastUpdated,
	}
}

// ToSnapshot converts a persisted record back to a live snapshot.
func (p *PersistedProgress) ToSnapshot() *progress.Snapshot {
	return &progress.Snapshot{
		StoryID:            p.StoryID,
		PlayerID:           p.PlayerID,
		CurrentBeat:        p.CurrentBeat,
		AccessibleBeats:    []string(p.CompletedBeats),
		RevealedCharacters: []string(p.RevealedCharacters),
		DiscoveredItems:    []string(p.DiscoveredSecrets),
		UnlockedEndings:    []string(p.UnlockedEndings),
		Stats:              map[string]float64(p.EndingImplications),
		Relationships:      map[string]float64(p.Relationships),
		Flags:              map[string]bool(p.Flags),
		LastUpdated:        p.LastUpdated,
	}
}
