package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jwebster45206/progression-engine/internal/session"
	"github.com/jwebster45206/progression-engine/internal/storage"
	"github.com/jwebster45206/progression-engine/pkg/progress"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// ProgressHandler exposes progress sessions over HTTP.
type ProgressHandler struct {
	manager *session.Manager
	logger  *slog.Logger
}

func NewProgressHandler(manager *session.Manager, logger *slog.Logger) *ProgressHandler {
	return &ProgressHandler{
		manager: manager,
		logger:  logger,
	}
}

// ServeHTTP handles HTTP requests for progress session operations
// Routes:
// POST   /v1/progress/{storyID}/{playerID}           - Initialize a session
// GET    /v1/progress/{storyID}/{playerID}           - Load the session projection
// PATCH  /v1/progress/{storyID}/{playerID}           - Apply a progress update
// DELETE /v1/progress/{storyID}/{playerID}           - Evict the session's cache entry
// GET    /v1/progress/{storyID}/{playerID}/beats     - Accessible beat IDs
// GET    /v1/progress/{storyID}/{playerID}/mechanics - Hidden mechanics state
func (h *ProgressHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	path := strings.TrimPrefix(r.URL.Path, "/v1/progress/")
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		h.writeError(w, http.StatusBadRequest, "Story ID and player ID are required")
		return
	}

	storyID := parts[0]
	playerID, err := uuid.Parse(parts[1])
	if err != nil {
		h.logger.Warn("Invalid player ID", "id", parts[1], "error", err)
		h.writeError(w, http.StatusBadRequest, "Invalid player ID format")
		return
	}

	var sub string
	if len(parts) > 2 {
		sub = parts[2]
	}

	switch {
	case sub == "" && r.Method == http.MethodPost:
		h.handleInitialize(w, r, storyID, playerID.String())
	case sub == "" && r.Method == http.MethodGet:
		h.handleLoad(w, r, storyID, playerID.String())
	case sub == "" && r.Method == http.MethodPatch:
		h.handleUpdate(w, r, storyID, playerID.String())
	case sub == "" && r.Method == http.MethodDelete:
		h.handleClear(w, storyID, playerID.String())
	case sub == "beats" && r.Method == http.MethodGet:
		h.handleBeats(w, r, storyID, playerID.String())
	case sub == "mechanics" && r.Method == http.MethodGet:
		h.handleMechanics(w, r, storyID, playerID.String())
	default:
		h.logger.Warn("Method not allowed for progress endpoint", "method", r.Method, "path", r.URL.Path)
		h.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (h *ProgressHandler) handleInitialize(w http.ResponseWriter, r *http.Request, storyID, playerID string) {
	view, err := h.manager.InitializeStory(r.Context(), storyID, playerID)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, view)
}

func (h *ProgressHandler) handleLoad(w http.ResponseWriter, r *http.Request, storyID, playerID string) {
	view, err := h.manager.LoadStorySession(r.Context(), storyID, playerID)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, view)
}

func (h *ProgressHandler) handleUpdate(w http.ResponseWriter, r *http.Request, storyID, playerID string) {
	var update progress.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		h.logger.Warn("Invalid update body", "error", err)
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	view, err := h.manager.UpdateStoryProgress(r.Context(), storyID, playerID, &update)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, view)
}

func (h *ProgressHandler) handleClear(w http.ResponseWriter, storyID, playerID string) {
	h.manager.ClearProgressCache(storyID, playerID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *ProgressHandler) handleBeats(w http.ResponseWriter, r *http.Request, storyID, playerID string) {
	beats, err := h.manager.GetAccessibleBeats(r.Context(), storyID, playerID)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string][]string{"accessible_beats": beats})
}

func (h *ProgressHandler) handleMechanics(w http.ResponseWriter, r *http.Request, storyID, playerID string) {
	state, err := h.manager.GetHiddenMechanicsState(r.Context(), storyID, playerID)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, state)
}

// writeEngineError maps engine errors to HTTP statuses. Not-found
// conditions are the caller's to resolve; everything else is internal.
func (h *ProgressHandler) writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrStoryNotFound):
		h.writeError(w, http.StatusNotFound, "Story not found")
	case errors.Is(err, session.ErrSessionNotFound):
		h.writeError(w, http.StatusNotFound, "Session not found; initialize the story first")
	case errors.Is(err, progress.ErrEmptyStoryGraph):
		h.logger.Error("Story graph has no beats", "error", err)
		h.writeError(w, http.StatusInternalServerError, "Story graph is empty")
	default:
		h.logger.Error("Progress operation failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func (h *ProgressHandler) writeError(w http.ResponseWriter, status int, msg string) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(ErrorResponse{Error: msg}); err != nil {
		h.logger.Error("Failed to encode error response", "error", err)
	}
}

func (h *ProgressHandler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("Failed to encode response", "error", err)
	}
}
