package story

import (
	"encoding/json"
	"fmt"
)

// RequirementType identifies which part of a player's progress a
// requirement gates on.
type RequirementType string

const (
	RequirementStat         RequirementType = "stat"
	RequirementRelationship RequirementType = "relationship"
	RequirementFlag         RequirementType = "flag"
	RequirementBeat         RequirementType = "beat"
	RequirementItem         RequirementType = "item"
	RequirementCharacter    RequirementType = "character"
)

// Operator is a numeric comparison used by stat and relationship requirements.
type Operator string

const (
	OpGTE Operator = ">="
	OpLTE Operator = "<="
	OpGT  Operator = ">"
	OpLT  Operator = "<"
	OpEQ  Operator = "=="
	OpNEQ Operator = "!="
)

// Compare applies the operator to an observed value and a required value.
// Unrecognized operators compare as false.
func (o Operator) Compare(have, want float64) bool {
	switch o {
	case OpGTE:
		return have >= want
	case OpLTE:
		return have <= want
	case OpGT:
		return have > want
	case OpLT:
		return have < want
	case OpEQ:
		return have == want
	case OpNEQ:
		return have != want
	default:
		return false
	}
}

// Requirement is one typed gating condition on a player's progress.
// The set of implementations is closed: evaluation code type-switches
// over every variant, and anything that arrives on the wire with an
// unrecognized type is preserved as UnknownRequirement so it can be
// reported but never unlocks content.
type Requirement interface {
	Type() RequirementType

	// Condition is the key the requirement gates on: a stat or
	// relationship name, a flag name, or a beat/item/character ID.
	Condition() string
}

// StatRequirement compares a player stat against a threshold.
type StatRequirement struct {
	Stat     string
	Operator Operator
	Value    float64
}

func (StatRequirement) Type() RequirementType { return RequirementStat }
func (r StatRequirement) Condition() string   { return r.Stat }

// RelationshipRequirement compares a relationship value against a threshold.
type RelationshipRequirement struct {
	Character string
	Operator  Operator
	Value     float64
}

func (RelationshipRequirement) Type() RequirementType { return RequirementRelationship }
func (r RelationshipRequirement) Condition() string   { return r.Character }

// FlagRequirement asserts an exact flag value. An unset flag never
// matches, even when the asserted value is false.
type FlagRequirement struct {
	Flag  string
	Value bool
}

func (FlagRequirement) Type() RequirementType { return RequirementFlag }
func (r FlagRequirement) Condition() string   { return r.Flag }

// BeatRequirement requires a beat to already be accessible.
type BeatRequirement struct {
	Beat string
}

func (BeatRequirement) Type() RequirementType { return RequirementBeat }
func (r BeatRequirement) Condition() string   { return r.Beat }

// ItemRequirement requires an item to have been discovered.
type ItemRequirement struct {
	Item string
}

func (ItemRequirement) Type() RequirementType { return RequirementItem }
func (r ItemRequirement) Condition() string   { return r.Item }

// CharacterRequirement requires a character to have been revealed.
type CharacterRequirement struct {
	Character string
}

func (CharacterRequirement) Type() RequirementType { return RequirementCharacter }
func (r CharacterRequirement) Condition() string   { return r.Character }

// UnknownRequirement carries a requirement whose type this engine does
// not recognize. It parses cleanly so that newer story files load on
// older engines, and it always evaluates to false.
type UnknownRequirement struct {
	TypeName string
	Key      string
	RawValue json.RawMessage
	RawOp    string
}

func (r UnknownRequirement) Type() RequirementType { return RequirementType(r.TypeName) }
func (r UnknownRequirement) Condition() string     { return r.Key }

// Requirements is an AND-combined list of requirements.
type Requirements []Requirement

// rawRequirement is the wire format shared by all requirement types.
type rawRequirement struct {
	Type      string          `json:"type"`
	Condition string          `json:"condition"`
	Value     json.RawMessage `json:"value,omitempty"`
	Operator  string          `json:"operator,omitempty"`
}

// UnmarshalJSON decodes the wire format into typed requirements.
// Malformed payloads (non-numeric stat values, bad operators) are load
// errors; unrecognized types are not.
func (rs *Requirements) UnmarshalJSON(data []byte) error {
	var raws []rawRequirement
	if err := json.Unmarshal(data, &raws); err != nil {
		return err
	}

	out := make(Requirements, 0, len(raws))
	for i, raw := range raws {
		req, err := decodeRequirement(raw)
		if err != nil {
			return fmt.Errorf("requirement %d (%s %q): %w", i, raw.Type, raw.Condition, err)
		}
		out = append(out, req)
	}
	*rs = out
	return nil
}

// MarshalJSON re-encodes typed requirements into the shared wire format.
func (rs Requirements) MarshalJSON() ([]byte, error) {
	raws := make([]rawRequirement, 0, len(rs))
	for _, req := range rs {
		raw := rawRequirement{Type: string(req.Type()), Condition: req.Condition()}
		switch r := req.(type) {
		case StatRequirement:
			raw.Operator = string(r.Operator)
			raw.Value = mustRawNumber(r.Value)
		case RelationshipRequirement:
			raw.Operator = string(r.Operator)
			raw.Value = mustRawNumber(r.Value)
		case FlagRequirement:
			if r.Value {
				raw.Value = json.RawMessage("true")
			} else {
				raw.Value = json.RawMessage("false")
			}
		case UnknownRequirement:
			raw.Value = r.RawValue
			raw.Operator = r.RawOp
		}
		raws = append(raws, raw)
	}
	return json.Marshal(raws)
}

func mustRawNumber(v float64) json.RawMessage {
	data, _ := json.Marshal(v)
	return data
}

func decodeRequirement(raw rawRequirement) (Requirement, error) {
	switch RequirementType(raw.Type) {
	case RequirementStat:
		op, value, err := decodeNumericComparison(raw)
		if err != nil {
			return nil, err
		}
		return StatRequirement{Stat: raw.Condition, Operator: op, Value: value}, nil

	case RequirementRelationship:
		op, value, err := decodeNumericComparison(raw)
		if err != nil {
			return nil, err
		}
		return RelationshipRequirement{Character: raw.Condition, Operator: op, Value: value}, nil

	case RequirementFlag:
		var value bool
		if err := json.Unmarshal(raw.Value, &value); err != nil {
			return nil, fmt.Errorf("flag value must be a boolean: %w", err)
		}
		return FlagRequirement{Flag: raw.Condition, Value: value}, nil

	case RequirementBeat:
		return BeatRequirement{Beat: raw.Condition}, nil

	case RequirementItem:
		return ItemRequirement{Item: raw.Condition}, nil

	case RequirementCharacter:
		return CharacterRequirement{Character: raw.Condition}, nil

	default:
		return UnknownRequirement{
			TypeName: raw.Type,
			Key:      raw.Condition,
			RawValue: raw.Value,
			RawOp:    raw.Operator,
		}, nil
	}
}

func decodeNumericComparison(raw rawRequirement) (Operator, float64, error) {
	op := Operator(raw.Operator)
	if raw.Operator == "" {
		op = OpGTE
	}
	switch op {
	case OpGTE, OpLTE, OpGT, OpLT, OpEQ, OpNEQ:
	default:
		return "", 0, fmt.Errorf("unsupported operator %q", raw.Operator)
	}

	var value float64
	if err := json.Unmarshal(raw.Value, &value); err != nil {
		return "", 0, fmt.Errorf("value must be a number: %w", err)
	}
	return op, value, nil
}
