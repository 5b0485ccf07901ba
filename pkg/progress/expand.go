package progress

import (
	"github.com/jwebster45206/progression-engine/pkg/story"
)

// Expand grows the snapshot's accessible-beat set by one single pass
// over the graph: a beat with entry requirements becomes accessible
// when all of them hold against the snapshot as it stood when the pass
// began. Beats unlocked during the pass do not satisfy other beats'
// requirements until a later invocation, so multi-hop unlock chains
// surface one hop per update rather than all at once. Beats with no
// entry requirements are never auto-added; only the starting beat
// enters the set, at initialization.
//
// Returns the IDs of newly unlocked beats in graph order.
func Expand(g *story.Graph, s *Snapshot) []string {
	var unlocked []string
	for i := range g.Beats {
		b := &g.Beats[i]
		if s.HasBeat(b.ID) {
			continue
		}
		if len(b.EntryRequirements) == 0 {
			continue
		}
		if EvaluateAll(b.EntryRequirements, s) {
			unlocked = append(unlocked, b.ID)
		}
	}
	for _, id := range unlocked {
		s.AddBeat(id)
	}
	return unlocked
}

// ExpandToFixedPoint runs Expand until no further beats unlock. This is
// a distinct operation for callers that explicitly want the full
// transitive closure; the default update path keeps the one-hop pacing
// of Expand.
func ExpandToFixedPoint(g *story.Graph, s *Snapshot) []string {
	var all []string
	for {
		unlocked := Expand(g, s)
		if len(unlocked) == 0 {
			return all
		}
		all = append(all, unlocked...)
	}
}
