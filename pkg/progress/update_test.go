package progress

import (
	"reflect"
	"testing"
)

func TestUpdate_IsEmpty(t *testing.T) {
	if !(&Update{}).IsEmpty() {
		t.Error("zero update should be empty")
	}
	if (&Update{StatChanges: map[string]float64{"trust": 1}}).IsEmpty() {
		t.Error("update with stat changes should not be empty")
	}
	if (&Update{CurrentBeat: "middle"}).IsEmpty() {
		t.Error("update with beat transition should not be empty")
	}
	var nilUpdate *Update
	if !nilUpdate.IsEmpty() {
		t.Error("nil update should be empty")
	}
}

func TestSnapshot_Apply(t *testing.T) {
	s := &Snapshot{
		StoryID:         "test_story",
		PlayerID:        "player-1",
		CurrentBeat:     "start",
		AccessibleBeats: []string{"start"},
		Stats:           map[string]float64{"trust": 2},
	}

	s.Apply(&Update{
		StatChanges:         map[string]float64{"trust": 3, "courage": -1},
		RelationshipChanges: map[string]float64{"marla": 2},
		SetFlags:            map[string]bool{"gate_open": true},
		RevealCharacters:    []string{"davey", "davey"},
		DiscoverItems:       []string{"map"},
		CurrentBeat:         "middle",
	})

	if s.Stats["trust"] != 5 {
		t.Errorf("expected additive stat delta, trust = %v", s.Stats["trust"])
	}
	if s.Stats["courage"] != -1 {
		t.Errorf("expected missing stat to default to 0 before delta, courage = %v", s.Stats["courage"])
	}
	if s.Relationships["marla"] != 2 {
		t.Errorf("expected relationship delta applied, marla = %v", s.Relationships["marla"])
	}
	if !s.Flags["gate_open"] {
		t.Error("expected flag merged")
	}
	if !reflect.DeepEqual(s.RevealedCharacters, []string{"davey"}) {
		t.Errorf("expected idempotent character reveal, got %v", s.RevealedCharacters)
	}
	if s.CurrentBeat != "middle" || !s.HasBeat("middle") {
		t.Errorf("expected beat transition to update pointer and accessible set: %q %v", s.CurrentBeat, s.AccessibleBeats)
	}
}

func TestSnapshot_IdempotentAdds(t *testing.T) {
	s := &Snapshot{}

	if !s.AddBeat("start") {
		t.Error("first add should grow the set")
	}
	if s.AddBeat("start") {
		t.Error("re-adding an existing beat should be a no-op")
	}
	if s.AddBeat("") {
		t.Error("empty IDs should never be added")
	}
	if !s.DiscoverItem("map") || s.DiscoverItem("map") {
		t.Error("item discovery should be idempotent")
	}
	if !s.UnlockEnding("good") || s.UnlockEnding("good") {
		t.Error("ending unlock should be idempotent")
	}
}

func TestSnapshot_Clone(t *testing.T) {
	s := testSnapshot()
	c := s.Clone()

	if !reflect.DeepEqual(s, c) {
		t.Fatal("clone should equal the source")
	}

	c.Stats["trust"] = 99
	c.AddBeat("ending")
	c.Flags["new_flag"] = true

	if s.Stats["trust"] == 99 || s.HasBeat("ending") || s.Flags["new_flag"] {
		t.Error("mutating the clone leaked into the source")
	}

	var nilSnap *Snapshot
	if nilSnap.Clone() != nil {
		t.Error("cloning nil should return nil")
	}
}
