// SPDX-License-Identifier: MIT

// Package server exposes the generated artifacts and run state over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/twkuo/gtv2m3u/internal/history"
	"github.com/twkuo/gtv2m3u/internal/jobs"
	xglog "github.com/twkuo/gtv2m3u/internal/log"
)

// Config holds the HTTP surface parameters.
type Config struct {
	Listen  string
	DataDir string
	// RequestLimit is the per-IP request budget per minute. 0 uses a
	// conservative default.
	RequestLimit int
}

// Server serves the playlist, the XMLTV file, run status and metrics. It is
// read-only: refreshes happen in the owning process, which publishes results
// via SetStatus.
type Server struct {
	cfg     Config
	logger  zerolog.Logger
	history *history.Store

	mu     sync.RWMutex
	status *jobs.Status
}

// New builds a Server. history may be nil; the history endpoint then answers
// 404.
func New(cfg Config, hist *history.Store) *Server {
	if cfg.RequestLimit <= 0 {
		cfg.RequestLimit = 120
	}
	return &Server{
		cfg:     cfg,
		logger:  xglog.WithComponent("server"),
		history: hist,
	}
}

// SetStatus publishes the outcome of the most recent refresh.
func (s *Server) SetStatus(st *jobs.Status) {
	s.mu.Lock()
	s.status = st
	s.mu.Unlock()
}

// Router assembles the route table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(httprate.Limit(
		s.cfg.RequestLimit,
		time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
	))

	r.Get("/healthz", s.handleHealth)
	r.Get("/playlist.m3u", s.fileHandler("playlist.m3u", "audio/x-mpegurl"))
	r.Get("/xmltv.xml", s.fileHandler("xmltv.xml", "application/xml; charset=utf-8"))
	r.Get("/api/status", s.handleStatus)
	r.Get("/api/history", s.handleHistory)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	return r
}

// Run serves until ctx is cancelled, then drains connections.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("event", "server.start").Str("listen", s.cfg.Listen).Msg("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		<-errCh
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	ready := s.status != nil
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	if !ready {
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "starting"})
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	st := s.status
	s.mu.RUnlock()

	if st == nil {
		http.Error(w, "no refresh completed yet", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(st)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		http.Error(w, "history disabled", http.StatusNotFound)
		return
	}
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 500 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}
	runs, err := s.history.Runs(r.Context(), limit)
	if err != nil {
		s.logger.Error().Err(err).Str("event", "history.query_failed").Msg("history query failed")
		http.Error(w, "history unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(runs)
}

// fileHandler serves one named artifact from the data directory. The name is
// fixed per route, so no client-controlled path ever reaches the filesystem.
func (s *Server) fileHandler(name, contentType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := filepath.Join(s.cfg.DataDir, name)
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			http.Error(w, "not generated yet", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", contentType)
		http.ServeFile(w, r, path)
	}
}
