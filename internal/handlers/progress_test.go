package handlers

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/progression-engine/internal/session"
	"github.com/jwebster45206/progression-engine/internal/storage"
	"github.com/jwebster45206/progression-engine/pkg/progress"
	"github.com/jwebster45206/progression-engine/pkg/story"
)

const testPlayerID = "0b8f2b5e-6d6a-4f3e-9a9a-2f1c4d5e6f70"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func handlerGraph() *story.Graph {
	return &story.Graph{
		ID:    "manor",
		Title: "The Hollow Manor",
		Beats: []story.Beat{
			{ID: "foyer", Act: 1, Title: "The Foyer"},
			{
				ID:                "cellar",
				Act:               1,
				EntryRequirements: story.Requirements{story.FlagRequirement{Flag: "has_key", Value: true}},
			},
		},
		InitialStats: map[string]float64{"trust": 0},
	}
}

func newProgressHandler(t *testing.T) *ProgressHandler {
	t.Helper()
	provider := storage.NewMockProvider()
	provider.AddStory(handlerGraph())
	manager := session.NewManager(provider, storage.NewMockStore(), testLogger())
	return NewProgressHandler(manager, testLogger())
}

func initSession(t *testing.T, h *ProgressHandler) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/progress/manor/"+testPlayerID, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)
}

func TestProgressHandler_Initialize(t *testing.T) {
	h := newProgressHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/progress/manor/"+testPlayerID, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var view progress.PlayerView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, "manor", view.StoryID)
	assert.Equal(t, "foyer", view.CurrentBeat.ID)
	assert.Equal(t, []string{"foyer"}, view.Snapshot.AccessibleBeats)
}

func TestProgressHandler_Initialize_UnknownStory(t *testing.T) {
	h := newProgressHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/progress/nonexistent/"+testPlayerID, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Story not found", resp.Error)
}

func TestProgressHandler_LoadBeforeInitialize(t *testing.T) {
	h := newProgressHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/progress/manor/"+testPlayerID, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.Error, "initialize")
}

func TestProgressHandler_Update(t *testing.T) {
	h := newProgressHandler(t)
	initSession(t, h)

	body, err := json.Marshal(progress.Update{
		SetFlags: map[string]bool{"has_key": true},
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPatch, "/v1/progress/manor/"+testPlayerID, bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var view progress.PlayerView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, []string{"foyer", "cellar"}, view.Snapshot.AccessibleBeats)
}

func TestProgressHandler_Update_InvalidBody(t *testing.T) {
	h := newProgressHandler(t)
	initSession(t, h)

	req := httptest.NewRequest(http.MethodPatch, "/v1/progress/manor/"+testPlayerID, bytes.NewReader([]byte("{not json")))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProgressHandler_Beats(t *testing.T) {
	h := newProgressHandler(t)
	initSession(t, h)

	req := httptest.NewRequest(http.MethodGet, "/v1/progress/manor/"+testPlayerID+"/beats", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string][]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []string{"foyer"}, resp["accessible_beats"])
}

func TestProgressHandler_Mechanics(t *testing.T) {
	h := newProgressHandler(t)
	initSession(t, h)

	req := httptest.NewRequest(http.MethodGet, "/v1/progress/manor/"+testPlayerID+"/mechanics", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var state session.MechanicsState
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
	assert.Equal(t, float64(0), state.Stats["trust"])
}

func TestProgressHandler_ClearCache(t *testing.T) {
	h := newProgressHandler(t)
	initSession(t, h)

	req := httptest.NewRequest(http.MethodDelete, "/v1/progress/manor/"+testPlayerID, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)

	// The persisted record still serves a subsequent load.
	req = httptest.NewRequest(http.MethodGet, "/v1/progress/manor/"+testPlayerID, nil)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestProgressHandler_InvalidPlayerID(t *testing.T) {
	h := newProgressHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/progress/manor/not-a-uuid", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProgressHandler_MissingPathSegments(t *testing.T) {
	h := newProgressHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/progress/manor", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProgressHandler_MethodNotAllowed(t *testing.T) {
	h := newProgressHandler(t)

	req := httptest.NewRequest(http.MethodPut, "/v1/progress/manor/"+testPlayerID, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
