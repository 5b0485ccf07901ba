package storage

import (
	"context"
	"errors"

	"github.com/jwebster45206/progression-engine/pkg/story"
)

// ErrStoryNotFound marks an unknown story ID. Surfaced to callers,
// never retried internally.
var ErrStoryNotFound = errors.New("story not found")

// StoryProvider loads full, spoiler-complete story graphs. The
// provider's own caching and validation policy is its own concern; the
// session manager caches results per story ID.
type StoryProvider interface {
	// LoadFullStory returns the complete graph for a story, or an
	// error wrapping ErrStoryNotFound if the ID is unknown.
	LoadFullStory(ctx context.Context, storyID string) (*story.Graph, error)

	// ListStories returns the IDs of every available story.
	ListStories(ctx context.Context) ([]string, error)
}

// ProgressStore persists player progress records.
type ProgressStore interface {
	// Ping tests the store connection
	Ping(ctx context.Context) error

	// Close closes the store connection
	Close() error

	// WaitForConnection waits for the store to be available with retries
	WaitForConnection(ctx context.Context) error

	// GetProgress retrieves a persisted record.
	// Returns nil if no record exists for the key.
	GetProgress(ctx context.Context, storyID, playerID string) (*PersistedProgress, error)

	// PutProgress writes a record, replacing any previous version.
	PutProgress(ctx context.Context, rec *PersistedProgress) error

	// DeleteProgress removes a record by key.
	DeleteProgress(ctx context.Context, storyID, playerID string) error
}
