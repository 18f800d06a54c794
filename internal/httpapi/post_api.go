package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/ewhitmore/inkfeed/internal/logging"
	"github.com/ewhitmore/inkfeed/internal/post"
)

// PostAPI handles HTTP API requests for single posts
type PostAPI struct {
	postSvc *post.Service
	logger  *logging.Logger
}

// NewPostAPI creates a new post API handler
func NewPostAPI(postSvc *post.Service, logger *logging.Logger) *PostAPI {
	return &PostAPI{
		postSvc: postSvc,
		logger:  logger,
	}
}

// RegisterRoutes registers post routes on the given mux
func (api *PostAPI) RegisterRoutes(mux *http.ServeMux, middleware func(http.HandlerFunc) http.HandlerFunc) {
	mux.HandleFunc("/api/posts/", middleware(api.handleGetPost))
}

// handleGetPost serves a single post by slug with its adjacent posts
func (api *PostAPI) handleGetPost(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	slug := strings.TrimPrefix(r.URL.Path, "/api/posts/")
	if slug == "" || strings.Contains(slug, "/") {
		api.writeError(w, http.StatusBadRequest, "invalid_request", "post slug is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	response, err := api.postSvc.GetBySlug(ctx, slug)
	if err != nil {
		api.logger.Error("Failed to fetch post", logging.WithFields(map[string]interface{}{
			"slug":  slug,
			"error": err.Error(),
		}))
		api.writeError(w, http.StatusBadGateway, "upstream_error", "failed to fetch post")
		return
	}
	if response == nil {
		api.writeError(w, http.StatusNotFound, "not_found", "no post with that slug")
		return
	}

	api.writeJSON(w, http.StatusOK, response)
}

func (api *PostAPI) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (api *PostAPI) writeError(w http.ResponseWriter, status int, code, message string) {
	api.writeJSON(w, status, map[string]string{
		"error":   code,
		"message": message,
	})
}
