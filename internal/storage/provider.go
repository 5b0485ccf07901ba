package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jwebster45206/progression-engine/pkg/story"
)

// FileStoryProvider loads story graphs from JSON files on disk,
// one file per story under <dataDir>/stories.
type FileStoryProvider struct {
	dataDir string
	logger  *slog.Logger
}

// Ensure FileStoryProvider implements StoryProvider interface
var _ StoryProvider = (*FileStoryProvider)(nil)

// NewFileStoryProvider creates a filesystem-backed story provider.
func NewFileStoryProvider(dataDir string, logger *slog.Logger) *FileStoryProvider {
	if dataDir == "" {
		dataDir = "./data"
	}
	return &FileStoryProvider{
		dataDir: dataDir,
		logger:  logger,
	}
}

// LoadFullStory reads and validates <dataDir>/stories/<storyID>.json.
func (p *FileStoryProvider) LoadFullStory(ctx context.Context, storyID string) (*story.Graph, error) {
	path := filepath.Join(p.dataDir, "stories", storyID+".json")

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrStoryNotFound, storyID)
		}
		return nil, fmt.Errorf("failed to read story file: %w", err)
	}

	var g story.Graph
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("failed to unmarshal story %s: %w", storyID, err)
	}

	// Filename overrides any ID in the JSON
	g.ID = storyID

	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("story %s failed validation: %w", storyID, err)
	}

	return &g, nil
}

// ListStories returns the IDs of every story file under the data dir.
func (p *FileStoryProvider) ListStories(ctx context.Context) ([]string, error) {
	storiesDir := filepath.Join(p.dataDir, "stories")

	var ids []string
	err := filepath.WalkDir(storiesDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}
		ids = append(ids, strings.TrimSuffix(filepath.Base(path), ".json"))
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		p.logger.Error("Failed to walk stories directory", "error", err)
		return nil, fmt.Errorf("failed to list stories: %w", err)
	}

	sort.Strings(ids)
	return ids, nil
}
