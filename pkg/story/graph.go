package story

// Graph is the complete, spoiler-inclusive definition of a branching
// story. It is immutable once loaded: the engine only ever reads it.
type Graph struct {
	ID                   string             `json:"id"`                              // Stable story identifier
	Title                string             `json:"title"`                           // Display title
	Beats                []Beat             `json:"beats"`                           // Ordered narrative beats
	Characters           []Character        `json:"characters,omitempty"`            // Every character in the story
	Items                []Item             `json:"items,omitempty"`                 // Every discoverable item
	Endings              []Ending           `json:"endings,omitempty"`               // Possible endings with their gates
	InitialStats         map[string]float64 `json:"initial_stats,omitempty"`         // Baseline player stats
	InitialRelationships map[string]float64 `json:"initial_relationships,omitempty"` // Baseline relationship values
}

// Character is a story character. Whether a player has met them is
// tracked in the progress snapshot, not here.
type Character struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Item is a discoverable story item.
type Item struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Ending is a story ending gated by requirements. Endings are always
// listed to players with a reachability flag; the requirements decide
// whether the ending can currently be reached.
type Ending struct {
	ID           string       `json:"id"`
	Title        string       `json:"title,omitempty"`
	Requirements Requirements `json:"requirements,omitempty"`
}

// Beat returns the beat with the given ID, or false if no beat matches.
func (g *Graph) Beat(id string) (*Beat, bool) {
	for i := range g.Beats {
		if g.Beats[i].ID == id {
			return &g.Beats[i], true
		}
	}
	return nil, false
}

// StartingBeat returns the beat with the lowest act number, breaking
// ties by graph order. Returns nil for an empty graph.
func (g *Graph) StartingBeat() *Beat {
	var start *Beat
	for i := range g.Beats {
		if start == nil || g.Beats[i].Act < start.Act {
			start = &g.Beats[i]
		}
	}
	return start
}
