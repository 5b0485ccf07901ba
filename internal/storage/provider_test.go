package storage

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func writeStoryFile(t *testing.T, dataDir, storyID, content string) {
	t.Helper()
	storiesDir := filepath.Join(dataDir, "stories")
	if err := os.MkdirAll(storiesDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(storiesDir, storyID+".json"), []byte(content), 0o644); err != nil {
		t.Fatalf("write story file: %v", err)
	}
}

const validStoryJSON = `{
	"title": "The Hollow Manor",
	"beats": [
		{"id": "foyer", "act": 1, "title": "The Foyer"},
		{
			"id": "cellar",
			"act": 1,
			"entry_requirements": [
				{"type": "flag", "condition": "has_key", "value": true}
			]
		}
	]
}`

func newTestProvider(t *testing.T) (*FileStoryProvider, string) {
	t.Helper()
	dataDir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewFileStoryProvider(dataDir, logger), dataDir
}

func TestFileStoryProvider_LoadFullStory(t *testing.T) {
	p, dataDir := newTestProvider(t)
	writeStoryFile(t, dataDir, "manor", validStoryJSON)

	g, err := p.LoadFullStory(context.Background(), "manor")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.ID != "manor" {
		t.Errorf("expected ID from filename, got %q", g.ID)
	}
	if g.Title != "The Hollow Manor" {
		t.Errorf("unexpected title %q", g.Title)
	}
	if len(g.Beats) != 2 {
		t.Fatalf("expected 2 beats, got %d", len(g.Beats))
	}
	if len(g.Beats[1].EntryRequirements) != 1 {
		t.Errorf("expected parsed entry requirements, got %v", g.Beats[1].EntryRequirements)
	}
}

func TestFileStoryProvider_StoryNotFound(t *testing.T) {
	p, _ := newTestProvider(t)

	_, err := p.LoadFullStory(context.Background(), "nonexistent")
	if !errors.Is(err, ErrStoryNotFound) {
		t.Fatalf("expected ErrStoryNotFound, got %v", err)
	}
}

func TestFileStoryProvider_InvalidJSON(t *testing.T) {
	p, dataDir := newTestProvider(t)
	writeStoryFile(t, dataDir, "broken", `{"beats": [`)

	_, err := p.LoadFullStory(context.Background(), "broken")
	if err == nil || !strings.Contains(err.Error(), "unmarshal") {
		t.Fatalf("expected unmarshal error, got %v", err)
	}
}

func TestFileStoryProvider_ValidationFailure(t *testing.T) {
	p, dataDir := newTestProvider(t)
	// cellar's exit points at a beat that does not exist
	writeStoryFile(t, dataDir, "dangling", `{
		"title": "Dangling",
		"beats": [
			{"id": "foyer", "act": 1, "exit_conditions": [{"next_beat": "missing"}]}
		]
	}`)

	_, err := p.LoadFullStory(context.Background(), "dangling")
	if err == nil || !strings.Contains(err.Error(), "validation") {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestFileStoryProvider_ListStories(t *testing.T) {
	p, dataDir := newTestProvider(t)
	writeStoryFile(t, dataDir, "manor", validStoryJSON)
	writeStoryFile(t, dataDir, "archive", validStoryJSON)
	// Non-JSON files are ignored.
	if err := os.WriteFile(filepath.Join(dataDir, "stories", "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	ids, err := p.ListStories(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(ids, []string{"archive", "manor"}) {
		t.Errorf("expected sorted story IDs, got %v", ids)
	}
}

func TestFileStoryProvider_ListStoriesEmpty(t *testing.T) {
	p, _ := newTestProvider(t)

	ids, err := p.ListStories(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("expected no stories, got %v", ids)
	}
}
