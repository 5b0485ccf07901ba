package progress

import (
	"reflect"
	"testing"

	"github.com/jwebster45206/progression-engine/pkg/story"
)

// chainGraph is the canonical incremental-unlock fixture: middle opens
// on trust, ending opens on middle being accessible.
func chainGraph() *story.Graph {
	return &story.Graph{
		ID:    "chain",
		Title: "Chain of Trust",
		Beats: []story.Beat{
			{ID: "start", Act: 1},
			{
				ID:                "middle",
				Act:               1,
				EntryRequirements: story.Requirements{story.StatRequirement{Stat: "trust", Operator: story.OpGTE, Value: 5}},
			},
			{
				ID:                "ending",
				Act:               2,
				EntryRequirements: story.Requirements{story.BeatRequirement{Beat: "middle"}},
			},
		},
	}
}

func TestExpand_IncrementalUnlock(t *testing.T) {
	g := chainGraph()
	s := NewSnapshot(g, "chain", "player-1")

	if !reflect.DeepEqual(s.AccessibleBeats, []string{"start"}) {
		t.Fatalf("expected only starting beat accessible, got %v", s.AccessibleBeats)
	}

	// First pass: trust not yet earned, nothing unlocks.
	if unlocked := Expand(g, s); len(unlocked) != 0 {
		t.Errorf("expected no unlocks, got %v", unlocked)
	}

	// Earn trust: middle unlocks, but ending must wait for the next
	// pass even though middle is now accessible.
	s.Stats["trust"] = 5
	unlocked := Expand(g, s)
	if !reflect.DeepEqual(unlocked, []string{"middle"}) {
		t.Fatalf("expected only middle to unlock, got %v", unlocked)
	}
	if s.HasBeat("ending") {
		t.Error("ending unlocked in the same pass as its prerequisite")
	}

	// Next pass with no state change: ending unlocks.
	unlocked = Expand(g, s)
	if !reflect.DeepEqual(unlocked, []string{"ending"}) {
		t.Errorf("expected ending to unlock on the second pass, got %v", unlocked)
	}
}

func TestExpand_SinglePassRegardlessOfGraphOrder(t *testing.T) {
	// The dependent beat comes before its prerequisite in graph order;
	// the pass must still evaluate both against the set as it stood at
	// the start of the pass.
	g := &story.Graph{
		ID: "reversed",
		Beats: []story.Beat{
			{ID: "start", Act: 1},
			{
				ID:                "ending",
				Act:               2,
				EntryRequirements: story.Requirements{story.BeatRequirement{Beat: "middle"}},
			},
			{
				ID:                "middle",
				Act:               1,
				EntryRequirements: story.Requirements{story.StatRequirement{Stat: "trust", Operator: story.OpGTE, Value: 5}},
			},
		},
	}
	s := NewSnapshot(g, "reversed", "player-1")
	s.Stats["trust"] = 5

	unlocked := Expand(g, s)
	if !reflect.DeepEqual(unlocked, []string{"middle"}) {
		t.Errorf("expected only middle to unlock, got %v", unlocked)
	}
}

func TestExpand_NoRequirementsBeatsAreNotAutoAdded(t *testing.T) {
	g := &story.Graph{
		ID: "open",
		Beats: []story.Beat{
			{ID: "start", Act: 1},
			{ID: "interlude", Act: 1}, // no entry requirements
		},
	}
	s := NewSnapshot(g, "open", "player-1")

	if unlocked := Expand(g, s); len(unlocked) != 0 {
		t.Errorf("beats without entry requirements must not be auto-added, got %v", unlocked)
	}
}

func TestExpand_Monotonic(t *testing.T) {
	g := chainGraph()
	s := NewSnapshot(g, "chain", "player-1")

	prev := len(s.AccessibleBeats)
	s.Stats["trust"] = 5
	for i := 0; i < 4; i++ {
		Expand(g, s)
		if len(s.AccessibleBeats) < prev {
			t.Fatalf("accessible beats shrank from %d to %d", prev, len(s.AccessibleBeats))
		}
		prev = len(s.AccessibleBeats)
	}
}

func TestExpandToFixedPoint(t *testing.T) {
	g := chainGraph()
	s := NewSnapshot(g, "chain", "player-1")
	s.Stats["trust"] = 5

	unlocked := ExpandToFixedPoint(g, s)
	if !reflect.DeepEqual(unlocked, []string{"middle", "ending"}) {
		t.Errorf("expected full closure in one call, got %v", unlocked)
	}
}
