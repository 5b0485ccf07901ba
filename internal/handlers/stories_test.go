package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/progression-engine/internal/storage"
	"github.com/jwebster45206/progression-engine/pkg/story"
)

func TestStoriesHandler_List(t *testing.T) {
	provider := storage.NewMockProvider()
	provider.AddStory(&story.Graph{ID: "manor", Beats: []story.Beat{{ID: "foyer"}}})
	provider.AddStory(&story.Graph{ID: "archive", Beats: []story.Beat{{ID: "stacks"}}})
	h := NewStoriesHandler(provider, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/v1/stories", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string][]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []string{"archive", "manor"}, resp["stories"])
}

func TestStoriesHandler_MethodNotAllowed(t *testing.T) {
	h := NewStoriesHandler(storage.NewMockProvider(), testLogger())

	req := httptest.NewRequest(http.MethodPost, "/v1/stories", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
