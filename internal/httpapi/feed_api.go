package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ewhitmore/inkfeed/internal/contentapi"
	"github.com/ewhitmore/inkfeed/internal/enrich"
	"github.com/ewhitmore/inkfeed/internal/feed"
	"github.com/ewhitmore/inkfeed/internal/logging"
	"github.com/ewhitmore/inkfeed/internal/models"
)

var (
	errInvalidPageSize = errors.New("pageSize must be a positive integer")
	errInvalidSort     = errors.New("sort must be field:asc or field:desc clauses")
)

// FeedAPI handles HTTP API requests for the post feed
type FeedAPI struct {
	client          contentapi.Client
	enricher        *enrich.Service
	defaultPageSize int
	maxPageSize     int
	logger          *logging.Logger
}

// NewFeedAPI creates a new feed API handler
func NewFeedAPI(client contentapi.Client, enricher *enrich.Service, defaultPageSize, maxPageSize int, logger *logging.Logger) *FeedAPI {
	return &FeedAPI{
		client:          client,
		enricher:        enricher,
		defaultPageSize: defaultPageSize,
		maxPageSize:     maxPageSize,
		logger:          logger,
	}
}

// RegisterRoutes registers feed routes on the given mux
func (api *FeedAPI) RegisterRoutes(mux *http.ServeMux, middleware func(http.HandlerFunc) http.HandlerFunc) {
	mux.HandleFunc("/api/feed", middleware(api.handleGetFeed))
	mux.HandleFunc("/api/feed/page", middleware(api.handleGetFeedPage))
}

// handleGetFeed serves the first page of a feed
func (api *FeedAPI) handleGetFeed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	api.serveFeed(w, r, "")
}

// handleGetFeedPage continues a feed from a cursor returned by an
// earlier response
func (api *FeedAPI) handleGetFeedPage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	cursor := r.URL.Query().Get("cursor")
	if cursor == "" {
		api.writeError(w, http.StatusBadRequest, "invalid_request", "cursor is required")
		return
	}

	api.serveFeed(w, r, cursor)
}

func (api *FeedAPI) serveFeed(w http.ResponseWriter, r *http.Request, cursor string) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	opts, err := api.parseOptions(r)
	if err != nil {
		api.writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	opts.Cursor = cursor

	controller := feed.NewService(api.client, api.enricher, api.logger)
	controller.Load(ctx, opts)

	snap := controller.Snapshot()
	if snap.State == feed.StateError {
		api.writeError(w, http.StatusBadGateway, "upstream_error", snap.Err)
		return
	}

	api.writeJSON(w, http.StatusOK, models.FeedResponse{
		Posts:      snap.Posts,
		NextCursor: snap.NextCursor,
		TotalCount: snap.TotalCount,
		PageSize:   snap.PageSize,
	})
}

func (api *FeedAPI) parseOptions(r *http.Request) (feed.Options, error) {
	query := r.URL.Query()

	opts := feed.Options{
		CategorySlug: query.Get("category"),
		PageSize:     api.defaultPageSize,
	}

	if size := query.Get("pageSize"); size != "" {
		parsed, err := strconv.Atoi(size)
		if err != nil || parsed <= 0 {
			return feed.Options{}, errInvalidPageSize
		}
		if parsed > api.maxPageSize {
			parsed = api.maxPageSize
		}
		opts.PageSize = parsed
	}

	if include := query.Get("include"); include != "" {
		opts.IncludeIDs = strings.Split(include, ",")
	}
	if exclude := query.Get("exclude"); exclude != "" {
		opts.ExcludeIDs = strings.Split(exclude, ",")
	}

	sort, err := parseSort(query.Get("sort"))
	if err != nil {
		return feed.Options{}, err
	}
	opts.Sort = sort

	return opts, nil
}

// parseSort parses comma-separated "field:direction" clauses, e.g.
// "firstPublishedAt:asc". Direction defaults to desc.
func parseSort(raw string) ([]models.SortField, error) {
	if raw == "" {
		return nil, nil
	}

	var fields []models.SortField
	for _, clause := range strings.Split(raw, ",") {
		name, dir, _ := strings.Cut(clause, ":")
		if name == "" {
			return nil, errInvalidSort
		}

		order := models.SortDesc
		switch strings.ToLower(dir) {
		case "", "desc":
		case "asc":
			order = models.SortAsc
		default:
			return nil, errInvalidSort
		}

		fields = append(fields, models.SortField{FieldName: name, Order: order})
	}
	return fields, nil
}

func (api *FeedAPI) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (api *FeedAPI) writeError(w http.ResponseWriter, status int, code, message string) {
	api.writeJSON(w, status, map[string]string{
		"error":   code,
		"message": message,
	})
}
