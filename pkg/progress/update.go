package progress

// Update is the delta applied to a snapshot by a single progress
// update. Numeric changes are additive; flags merge over existing
// values; reveal lists append idempotently.
type Update struct {
	StatChanges         map[string]float64 `json:"stat_changes,omitempty"`
	RelationshipChanges map[string]float64 `json:"relationship_changes,omitempty"`
	SetFlags            map[string]bool    `json:"set_flags,omitempty"`
	RevealCharacters    []string           `json:"reveal_characters,omitempty"`
	DiscoverItems       []string           `json:"discover_items,omitempty"`
	UnlockEndings       []string           `json:"unlock_endings,omitempty"`

	// CurrentBeat transitions the player to another beat. The target
	// is added to the accessible set so the membership invariant holds.
	CurrentBeat string `json:"current_beat,omitempty"`
}

// IsEmpty reports whether the update carries no changes at all.
func (u *Update) IsEmpty() bool {
	return u == nil || (len(u.StatChanges) == 0 &&
		len(u.RelationshipChanges) == 0 &&
		len(u.SetFlags) == 0 &&
		len(u.RevealCharacters) == 0 &&
		len(u.DiscoverItems) == 0 &&
		len(u.UnlockEndings) == 0 &&
		u.CurrentBeat == "")
}

// Apply mutates the snapshot with the update's deltas. Expansion and
// the LastUpdated bump are the caller's responsibility.
func (s *Snapshot) Apply(u *Update) {
	if u == nil {
		return
	}

	for name, delta := range u.StatChanges {
		if s.Stats == nil {
			s.Stats = make(map[string]float64)
		}
		s.Stats[name] += delta
	}
	for name, delta := range u.RelationshipChanges {
		if s.Relationships == nil {
			s.Relationships = make(map[string]float64)
		}
		s.Relationships[name] += delta
	}
	for name, value := range u.SetFlags {
		if s.Flags == nil {
			s.Flags = make(map[string]bool)
		}
		s.Flags[name] = value
	}

	for _, id := range u.RevealCharacters {
		s.RevealCharacter(id)
	}
	for _, id := range u.DiscoverItems {
		s.DiscoverItem(id)
	}
	for _, id := range u.UnlockEndings {
		s.UnlockEnding(id)
	}

	if u.CurrentBeat != "" {
		s.CurrentBeat = u.CurrentBeat
		s.AddBeat(u.CurrentBeat)
	}
}
