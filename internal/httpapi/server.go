package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/ewhitmore/inkfeed/internal/contentapi"
	"github.com/ewhitmore/inkfeed/internal/enrich"
	"github.com/ewhitmore/inkfeed/internal/logging"
	"github.com/ewhitmore/inkfeed/internal/post"
)

type Server struct {
	client          contentapi.Client
	enricher        *enrich.Service
	postSvc         *post.Service
	defaultPageSize int
	maxPageSize     int
	logger          *logging.Logger
	server          *http.Server
}

func New(client contentapi.Client, enricher *enrich.Service, postSvc *post.Service, defaultPageSize, maxPageSize int, logger *logging.Logger) *Server {
	return &Server{
		client:          client,
		enricher:        enricher,
		postSvc:         postSvc,
		defaultPageSize: defaultPageSize,
		maxPageSize:     maxPageSize,
		logger:          logger,
	}
}

func (s *Server) Start(addr string) error {
	mux := http.NewServeMux()

	// Feed routes
	feedAPI := NewFeedAPI(s.client, s.enricher, s.defaultPageSize, s.maxPageSize, s.logger)
	feedAPI.RegisterRoutes(mux, s.wrap)

	// Post routes
	postAPI := NewPostAPI(s.postSvc, s.logger)
	postAPI.RegisterRoutes(mux, s.wrap)

	// Health check
	mux.HandleFunc("/health", s.handleHealth)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	s.logger.Info("HTTP API server starting", logging.WithField("addr", addr))
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// wrap applies CORS headers and request-id tagging to a handler
func (s *Server) wrap(next http.HandlerFunc) http.HandlerFunc {
	return s.corsMiddleware(s.requestIDMiddleware(next))
}

func (s *Server) corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}

// requestIDMiddleware assigns each request an id, echoes it in the
// response, and logs the request with it.
func (s *Server) requestIDMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-Id")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", requestID)

		s.logger.Debug("Handling request", logging.WithFields(map[string]interface{}{
			"request_id": requestID,
			"method":     r.Method,
			"path":       r.URL.Path,
		}))

		next(w, r)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
