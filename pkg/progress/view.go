package progress

import (
	"time"

	"github.com/jwebster45206/progression-engine/pkg/story"
)

// PlayerView is the restricted, spoiler-safe projection of a story
// handed to narration and session layers. It contains only content
// the player's snapshot currently entitles them to see, plus ending
// reachability so callers can show progress toward endings without
// revealing their content.
type PlayerView struct {
	StoryID            string            `json:"story_id"`
	StoryTitle         string            `json:"story_title"`
	PlayerID           string            `json:"player_id"`
	GeneratedAt        time.Time         `json:"generated_at"`
	CurrentBeat        BeatView          `json:"current_beat"`
	AccessibleBeats    []BeatView        `json:"accessible_beats"`
	RevealedCharacters []story.Character `json:"revealed_characters,omitempty"`
	DiscoveredItems    []story.Item      `json:"discovered_items,omitempty"`
	AvailableEndings   []EndingStatus    `json:"available_endings,omitempty"`
	Snapshot           *Snapshot         `json:"snapshot"`
}

// BeatView is a beat with its quick actions and objectives filtered
// down to what the player may currently see. Entry requirements and
// exit conditions are deliberately absent.
type BeatView struct {
	ID           string       `json:"id"`
	Act          int          `json:"act"`
	Title        string       `json:"title,omitempty"`
	Summary      string       `json:"summary,omitempty"`
	QuickActions []ActionView `json:"quick_actions,omitempty"`
	Objectives   []Objective  `json:"objectives,omitempty"`
}

// ActionView is a quick action stripped of its gating requirements.
type ActionView struct {
	ID     string `json:"id"`
	Prompt string `json:"prompt,omitempty"`
}

// Objective is a surfaced objective.
type Objective struct {
	ID          string              `json:"id"`
	Description string              `json:"description,omitempty"`
	Type        story.ObjectiveType `json:"type,omitempty"`
}

// EndingStatus reports reachability for one ending. Every ending in
// the graph is listed, reachable or not.
type EndingStatus struct {
	ID                  string   `json:"id"`
	Title               string   `json:"title,omitempty"`
	CanBeReached        bool     `json:"can_be_reached"`
	Unlocked            bool     `json:"unlocked"`
	MissingRequirements []string `json:"missing_requirements,omitempty"`
}
