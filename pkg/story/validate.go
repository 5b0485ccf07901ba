package story

import (
	"fmt"
	"strings"
)

// Validate checks the structural integrity of a loaded graph: IDs are
// present and unique, and every reference (exit targets, beat/item/
// character requirements) resolves to something in the graph.
func (g *Graph) Validate() error {
	var errs []string

	if g.ID == "" {
		errs = append(errs, "story id is required")
	}
	if len(g.Beats) == 0 {
		errs = append(errs, "story must have at least one beat")
	}

	beatIDs := make(map[string]bool, len(g.Beats))
	for i, b := range g.Beats {
		if b.ID == "" {
			errs = append(errs, fmt.Sprintf("beat %d has no id", i))
			continue
		}
		if beatIDs[b.ID] {
			errs = append(errs, fmt.Sprintf("duplicate beat id %q", b.ID))
		}
		beatIDs[b.ID] = true
	}

	characterIDs := make(map[string]bool, len(g.Characters))
	for _, c := range g.Characters {
		characterIDs[c.ID] = true
	}
	itemIDs := make(map[string]bool, len(g.Items))
	for _, it := range g.Items {
		itemIDs[it.ID] = true
	}

	checkRefs := func(where string, reqs Requirements) {
		for _, req := range reqs {
			switch r := req.(type) {
			case BeatRequirement:
				if !beatIDs[r.Beat] {
					errs = append(errs, fmt.Sprintf("%s references unknown beat %q", where, r.Beat))
				}
			case ItemRequirement:
				if len(itemIDs) > 0 && !itemIDs[r.Item] {
					errs = append(errs, fmt.Sprintf("%s references unknown item %q", where, r.Item))
				}
			case CharacterRequirement:
				if len(characterIDs) > 0 && !characterIDs[r.Character] {
					errs = append(errs, fmt.Sprintf("%s references unknown character %q", where, r.Character))
				}
			case UnknownRequirement:
				errs = append(errs, fmt.Sprintf("%s has unrecognized requirement type %q (will never unlock)", where, r.TypeName))
			}
		}
	}

	for _, b := range g.Beats {
		checkRefs(fmt.Sprintf("beat %q entry requirements", b.ID), b.EntryRequirements)
		for i, exit := range b.ExitConditions {
			if !beatIDs[exit.NextBeat] {
				errs = append(errs, fmt.Sprintf("beat %q exit %d targets unknown beat %q", b.ID, i, exit.NextBeat))
			}
			checkRefs(fmt.Sprintf("beat %q exit %d", b.ID, i), exit.Requirements)
		}
		for _, qa := range b.QuickActions {
			checkRefs(fmt.Sprintf("beat %q action %q", b.ID, qa.ID), qa.Requirements)
		}
	}

	for _, e := range g.Endings {
		if e.ID == "" {
			errs = append(errs, "ending has no id")
		}
		checkRefs(fmt.Sprintf("ending %q", e.ID), e.Requirements)
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid story graph:\n%s", strings.Join(errs, "\n"))
	}
	return nil
}
