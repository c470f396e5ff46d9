// Package server serves the latest analysis documents read-only over HTTP.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"pelican-stonks/internal/interfaces"
	"pelican-stonks/internal/logger"
	"pelican-stonks/internal/persistence"
)

type Server struct {
	store   interfaces.DocumentStore
	origins map[string]bool
	server  *http.Server
}

// New builds a server on addr. Browsers from the given origins may read the API.
func New(addr string, store interfaces.DocumentStore, origins ...string) *Server {
	s := &Server{
		store:   store,
		origins: map[string]bool{},
	}
	for _, o := range origins {
		if o != "" {
			s.origins[o] = true
		}
	}

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler returns the routed handler wrapped in middleware.
func (s *Server) Handler() http.Handler {
	return s.withMiddleware(s.routes())
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.health)
	mux.HandleFunc("GET /stocks/financial-reports", s.latest(persistence.CollectionFinancialReports, "financial reports"))
	mux.HandleFunc("GET /stocks/fundamental-analysis", s.latest(persistence.CollectionFundamentalAnalysis, "fundamental analysis"))
	mux.HandleFunc("GET /stocks/technical-analysis", s.latest(persistence.CollectionTechnicalAnalysis, "technical analysis"))
	mux.HandleFunc("GET /stocks/history", s.latest(persistence.CollectionStonkHistory, "stock history"))

	return mux
}

func (s *Server) Start() error {
	logger.Info(context.Background(), "HTTP server starting", "address", s.server.Addr)

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	logger.Info(ctx, "Shutting down HTTP server")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// latest serves the newest document of collection, or null when it is empty.
func (s *Server) latest(collection, label string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var doc map[string]any
		found, err := s.store.FindLatest(r.Context(), collection, &doc)
		if err != nil {
			logger.ErrorWithErr(r.Context(), "Failed to fetch latest document", err, "collection", collection)
			writeJSON(w, http.StatusInternalServerError, map[string]string{
				"detail": fmt.Sprintf("Error fetching %s: %v", label, err),
			})
			return
		}
		if !found {
			writeJSON(w, http.StatusOK, nil)
			return
		}
		writeJSON(w, http.StatusOK, doc)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn(context.Background(), "Failed to encode response", "error", err)
	}
}
