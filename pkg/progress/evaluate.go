package progress

import (
	"github.com/jwebster45206/progression-engine/pkg/story"
)

// Evaluate checks one requirement against a snapshot. It is pure: the
// snapshot is never mutated, and the same inputs always produce the
// same answer.
func Evaluate(req story.Requirement, s *Snapshot) bool {
	switch r := req.(type) {
	case story.StatRequirement:
		return r.Operator.Compare(s.Stat(r.Stat), r.Value)
	case story.RelationshipRequirement:
		return r.Operator.Compare(s.Relationship(r.Character), r.Value)
	case story.FlagRequirement:
		// An unset flag matches nothing, including an asserted false.
		v, ok := s.Flags[r.Flag]
		return ok && v == r.Value
	case story.BeatRequirement:
		return s.HasBeat(r.Beat)
	case story.ItemRequirement:
		return s.HasItem(r.Item)
	case story.CharacterRequirement:
		return s.HasCharacter(r.Character)
	default:
		// Fail closed: an unrecognized gate must never unlock content.
		return false
	}
}

// EvaluateAll applies AND semantics to a requirement list. An empty
// list evaluates true.
func EvaluateAll(reqs story.Requirements, s *Snapshot) bool {
	for _, req := range reqs {
		if !Evaluate(req, s) {
			return false
		}
	}
	return true
}
