// Package server exposes pacer sessions over HTTP with a server-sent event
// stream of their state.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sadopc/breathr/internal/pacer"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type Server struct {
	mgr      *Manager
	defaults pacer.Config
	log      *zap.Logger

	// streamInterval is the SSE snapshot cadence.
	streamInterval time.Duration
}

func New(mgr *Manager, defaults pacer.Config, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		mgr:            mgr,
		defaults:       defaults,
		log:            log,
		streamInterval: pacer.TickInterval,
	}
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(s.log))
	r.Use(middleware.Recoverer)

	r.Post("/sessions", s.createSession)
	r.Route("/sessions/{id}", func(r chi.Router) {
		r.Get("/", s.getSession)
		r.Post("/pause", s.pauseSession)
		r.Post("/resume", s.resumeSession)
		r.Post("/stop", s.stopSession)
		r.Get("/events", s.streamEvents)
	})
	return r
}

// Run serves on addr until ctx is done, then shuts down gracefully and
// stops all sessions.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.log.Info("listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		s.mgr.Close()
		return err
	})
	return g.Wait()
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	cfg := s.defaults
	// An empty body starts a session with the defaults.
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	id, err := s.mgr.Start(cfg)
	if err != nil {
		if errors.Is(err, pacer.ErrConfiguration) {
			respondError(w, err.Error(), http.StatusBadRequest)
			return
		}
		respondError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	snap, err := s.mgr.Snapshot(id)
	if err != nil {
		respondError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, snap, http.StatusCreated)
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	snap, err := s.mgr.Snapshot(chi.URLParam(r, "id"))
	if err != nil {
		s.respondManagerError(w, err)
		return
	}
	respondJSON(w, snap, http.StatusOK)
}

func (s *Server) pauseSession(w http.ResponseWriter, r *http.Request) {
	s.control(w, r, s.mgr.Pause)
}

func (s *Server) resumeSession(w http.ResponseWriter, r *http.Request) {
	s.control(w, r, s.mgr.Resume)
}

func (s *Server) stopSession(w http.ResponseWriter, r *http.Request) {
	s.control(w, r, s.mgr.Stop)
}

// control applies op and answers with the resulting snapshot.
func (s *Server) control(w http.ResponseWriter, r *http.Request, op func(string) error) {
	id := chi.URLParam(r, "id")
	if err := op(id); err != nil {
		s.respondManagerError(w, err)
		return
	}
	snap, err := s.mgr.Snapshot(id)
	if err != nil {
		s.respondManagerError(w, err)
		return
	}
	respondJSON(w, snap, http.StatusOK)
}

func (s *Server) respondManagerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		respondError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrNotRunning):
		respondError(w, err.Error(), http.StatusConflict)
	default:
		respondError(w, err.Error(), http.StatusInternalServerError)
	}
}

func respondJSON(w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, message string, status int) {
	respondJSON(w, map[string]string{"error": message}, status)
}

func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				log.Info("http request",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("duration", time.Since(start)),
					zap.String("request_id", middleware.GetReqID(r.Context())),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
