package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/jwebster45206/progression-engine/internal/storage"
)

// StoriesHandler lists the stories available from the provider.
type StoriesHandler struct {
	provider storage.StoryProvider
	logger   *slog.Logger
}

func NewStoriesHandler(provider storage.StoryProvider, logger *slog.Logger) *StoriesHandler {
	return &StoriesHandler{
		provider: provider,
		logger:   logger,
	}
}

// ServeHTTP handles GET /v1/stories
func (h *StoriesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		h.logger.Warn("Method not allowed for stories endpoint", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		if err := json.NewEncoder(w).Encode(ErrorResponse{Error: "Method not allowed. Only GET is supported at /v1/stories."}); err != nil {
			h.logger.Error("Failed to encode error response", "error", err)
		}
		return
	}

	ids, err := h.provider.ListStories(r.Context())
	if err != nil {
		h.logger.Error("Failed to list stories", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		if err := json.NewEncoder(w).Encode(ErrorResponse{Error: "Failed to list stories"}); err != nil {
			h.logger.Error("Failed to encode error response", "error", err)
		}
		return
	}

	if err := json.NewEncoder(w).Encode(map[string][]string{"stories": ids}); err != nil {
		h.logger.Error("Failed to encode stories response", "error", err)
	}
}
