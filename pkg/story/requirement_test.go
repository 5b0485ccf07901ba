package story

import (
	"encoding/json"
	"testing"
)

func TestRequirements_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expectError bool
		check       func(t *testing.T, reqs Requirements)
	}{
		{
			name:  "stat with explicit operator",
			input: `[{"type":"stat","condition":"trust","value":5,"operator":">="}]`,
			check: func(t *testing.T, reqs Requirements) {
				r, ok := reqs[0].(StatRequirement)
				if !ok {
					t.Fatalf("expected StatRequirement, got %T", reqs[0])
				}
				if r.Stat != "trust" || r.Operator != OpGTE || r.Value != 5 {
					t.Errorf("unexpected requirement: %+v", r)
				}
			},
		},
		{
			name:  "stat defaults to >= when operator omitted",
			input: `[{"type":"stat","condition":"courage","value":3}]`,
			check: func(t *testing.T, reqs Requirements) {
				r := reqs[0].(StatRequirement)
				if r.Operator != OpGTE {
					t.Errorf("expected default operator >=, got %q", r.Operator)
				}
			},
		},
		{
			name:  "relationship with less-than",
			input: `[{"type":"relationship","condition":"marla","value":-2,"operator":"<"}]`,
			check: func(t *testing.T, reqs Requirements) {
				r := reqs[0].(RelationshipRequirement)
				if r.Character != "marla" || r.Operator != OpLT || r.Value != -2 {
					t.Errorf("unexpected requirement: %+v", r)
				}
			},
		},
		{
			name:  "flag requirement",
			input: `[{"type":"flag","condition":"has_key","value":true}]`,
			check: func(t *testing.T, reqs Requirements) {
				r := reqs[0].(FlagRequirement)
				if r.Flag != "has_key" || !r.Value {
					t.Errorf("unexpected requirement: %+v", r)
				}
			},
		},
		{
			name:  "beat item and character requirements",
			input: `[{"type":"beat","condition":"middle"},{"type":"item","condition":"map"},{"type":"character","condition":"davey"}]`,
			check: func(t *testing.T, reqs Requirements) {
				if _, ok := reqs[0].(BeatRequirement); !ok {
					t.Errorf("expected BeatRequirement, got %T", reqs[0])
				}
				if _, ok := reqs[1].(ItemRequirement); !ok {
					t.Errorf("expected ItemRequirement, got %T", reqs[1])
				}
				if _, ok := reqs[2].(CharacterRequirement); !ok {
					t.Errorf("expected CharacterRequirement, got %T", reqs[2])
				}
			},
		},
		{
			name:  "unknown type is carried, not rejected",
			input: `[{"type":"weather","condition":"storm","value":"heavy"}]`,
			check: func(t *testing.T, reqs Requirements) {
				r, ok := reqs[0].(UnknownRequirement)
				if !ok {
					t.Fatalf("expected UnknownRequirement, got %T", reqs[0])
				}
				if r.TypeName != "weather" || r.Key != "storm" {
					t.Errorf("unexpected requirement: %+v", r)
				}
			},
		},
		{
			name:        "stat with non-numeric value is rejected",
			input:       `[{"type":"stat","condition":"trust","value":"high"}]`,
			expectError: true,
		},
		{
			name:        "unsupported operator is rejected",
			input:       `[{"type":"stat","condition":"trust","value":1,"operator":"~="}]`,
			expectError: true,
		},
		{
			name:        "flag with non-boolean value is rejected",
			input:       `[{"type":"flag","condition":"has_key","value":"yes"}]`,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var reqs Requirements
			err := json.Unmarshal([]byte(tt.input), &reqs)
			if tt.expectError {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			tt.check(t, reqs)
		})
	}
}

func TestRequirements_MarshalRoundTrip(t *testing.T) {
	input := `[{"type":"stat","condition":"trust","value":5,"operator":">="},{"type":"flag","condition":"has_key","value":true},{"type":"beat","condition":"middle"}]`

	var reqs Requirements
	if err := json.Unmarshal([]byte(input), &reqs); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	data, err := json.Marshal(reqs)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var again Requirements
	if err := json.Unmarshal(data, &again); err != nil {
		t.Fatalf("re-unmarshal: %v", err)
	}
	if len(again) != len(reqs) {
		t.Fatalf("expected %d requirements after round trip, got %d", len(reqs), len(again))
	}
	if r := again[0].(StatRequirement); r.Value != 5 || r.Operator != OpGTE {
		t.Errorf("stat requirement lost in round trip: %+v", r)
	}
	if r := again[1].(FlagRequirement); !r.Value {
		t.Errorf("flag requirement lost in round trip: %+v", r)
	}
}

func TestOperator_Compare(t *testing.T) {
	tests := []struct {
		op         Operator
		have, want float64
		expected   bool
	}{
		{OpGTE, 5, 5, true},
		{OpGTE, 4, 5, false},
		{OpLTE, 5, 5, true},
		{OpLTE, 6, 5, false},
		{OpGT, 6, 5, true},
		{OpGT, 5, 5, false},
		{OpLT, 4, 5, true},
		{OpLT, 5, 5, false},
		{OpEQ, 5, 5, true},
		{OpEQ, 4, 5, false},
		{OpNEQ, 4, 5, true},
		{OpNEQ, 5, 5, false},
		{Operator("~="), 5, 5, false}, // unrecognized operators compare false
	}

	for _, tt := range tests {
		if got := tt.op.Compare(tt.have, tt.want); got != tt.expected {
			t.Errorf("Compare(%v %s %v) = %v, expected %v", tt.have, tt.op, tt.want, got, tt.expected)
		}
	}
}
