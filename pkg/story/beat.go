package story

// ObjectiveType distinguishes objectives a player must complete from
// optional side goals.
type ObjectiveType string

const (
	ObjectiveRequired ObjectiveType = "required"
	ObjectiveOptional ObjectiveType = "optional"
)

// Beat is one node of the branching narrative: a discrete scene or
// stage with its own entry gates, exits, actions, and objectives.
type Beat struct {
	ID                string          `json:"id"`
	Act               int             `json:"act"`                          // Act number, drives starting-beat selection
	Title             string          `json:"title,omitempty"`              // Display title
	Summary           string          `json:"summary,omitempty"`            // Narrative context for downstream narration
	EntryRequirements Requirements    `json:"entry_requirements,omitempty"` // AND-combined gates for reachability
	ExitConditions    []ExitCondition `json:"exit_conditions,omitempty"`    // Gated transitions out of this beat
	QuickActions      []QuickAction   `json:"quick_actions,omitempty"`      // Player-facing actions, individually gated
	Objectives        []Objective     `json:"objectives,omitempty"`
}

// ExitCondition is a gated transition from one beat to the next.
type ExitCondition struct {
	Requirements Requirements `json:"requirements,omitempty"`
	NextBeat     string       `json:"next_beat"`
}

// QuickAction is a player-facing action offered within a beat. An
// action with requirements is shown only while they all hold, and its
// static Visible flag is ignored. An action without requirements is
// shown iff Visible is true.
type QuickAction struct {
	ID           string       `json:"id"`
	Prompt       string       `json:"prompt,omitempty"`
	Requirements Requirements `json:"requirements,omitempty"`
	Visible      bool         `json:"visible"`
}

// Objective is a goal surfaced within a beat. Required objectives are
// always shown regardless of their Visible flag.
type Objective struct {
	ID          string        `json:"id"`
	Description string        `json:"description,omitempty"`
	Visible     bool          `json:"visible"`
	Type        ObjectiveType `json:"type,omitempty"`
}
