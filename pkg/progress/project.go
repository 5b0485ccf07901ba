package progress

import (
	"errors"
	"fmt"
	"time"

	"github.com/jwebster45206/progression-engine/pkg/story"
)

// ErrEmptyStoryGraph marks a graph with zero beats. This is an
// upstream authoring failure the engine cannot recover from.
var ErrEmptyStoryGraph = errors.New("story graph has no beats")

// Project builds the player-facing view of a story from a snapshot.
//
// A stale CurrentBeat pointer (the beat was removed from the graph) is
// self-healed: the first beat in graph order is substituted and the
// snapshot is updated in place, never an error. The current beat is
// always (re-)added to the accessible set so the membership invariant
// holds after every projection.
func Project(g *story.Graph, s *Snapshot) (*PlayerView, error) {
	if len(g.Beats) == 0 {
		return nil, ErrEmptyStoryGraph
	}

	current, ok := g.Beat(s.CurrentBeat)
	if !ok {
		current = &g.Beats[0]
		s.CurrentBeat = current.ID
	}
	s.AddBeat(current.ID)

	view := &PlayerView{
		StoryID:     g.ID,
		StoryTitle:  g.Title,
		PlayerID:    s.PlayerID,
		GeneratedAt: time.Now().UTC(),
		CurrentBeat: projectBeat(current, s),
	}

	for i := range g.Beats {
		b := &g.Beats[i]
		if s.HasBeat(b.ID) {
			view.AccessibleBeats = append(view.AccessibleBeats, projectBeat(b, s))
		}
	}

	// Already-revealed entities pass through on set membership alone;
	// no further requirement gating applies.
	for _, c := range g.Characters {
		if s.HasCharacter(c.ID) {
			view.RevealedCharacters = append(view.RevealedCharacters, c)
		}
	}
	for _, it := range g.Items {
		if s.HasItem(it.ID) {
			view.DiscoveredItems = append(view.DiscoveredItems, it)
		}
	}

	for _, e := range g.Endings {
		view.AvailableEndings = append(view.AvailableEndings, projectEnding(e, s))
	}

	view.Snapshot = s.Clone()
	return view, nil
}

// projectBeat filters a beat's quick actions and objectives for the
// player. An action carrying requirements is shown only while they all
// hold (its static visible flag is ignored); an action without
// requirements falls back to the flag. Required objectives always
// surface.
func projectBeat(b *story.Beat, s *Snapshot) BeatView {
	view := BeatView{
		ID:      b.ID,
		Act:     b.Act,
		Title:   b.Title,
		Summary: b.Summary,
	}

	for _, qa := range b.QuickActions {
		if len(qa.Requirements) > 0 {
			if !EvaluateAll(qa.Requirements, s) {
				continue
			}
		} else if !qa.Visible {
			continue
		}
		view.QuickActions = append(view.QuickActions, ActionView{ID: qa.ID, Prompt: qa.Prompt})
	}

	for _, obj := range b.Objectives {
		if obj.Visible || obj.Type == story.ObjectiveRequired {
			view.Objectives = append(view.Objectives, Objective{
				ID:          obj.ID,
				Description: obj.Description,
				Type:        obj.Type,
			})
		}
	}

	return view
}

func projectEnding(e story.Ending, s *Snapshot) EndingStatus {
	status := EndingStatus{
		ID:       e.ID,
		Title:    e.Title,
		Unlocked: s.HasEnding(e.ID),
	}
	for _, req := range e.Requirements {
		if !Evaluate(req, s) {
			status.MissingRequirements = append(status.MissingRequirements,
				fmt.Sprintf("%s:%s", req.Type(), req.Condition()))
		}
	}
	status.CanBeReached = len(status.MissingRequirements) == 0
	return status
}
