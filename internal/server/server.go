// Package server exposes the game over WebSocket plus a small JSON API for
// health checks and room inspection.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/vovakirdan/pong-arena/internal/config"
	"github.com/vovakirdan/pong-arena/internal/room"
	"github.com/vovakirdan/pong-arena/internal/storage"
)

const shutdownTimeout = 5 * time.Second

// Server owns the room registry and the HTTP listener.
type Server struct {
	cfg      config.Config
	logger   *log.Logger
	registry *room.Registry
	store    *storage.Store
}

// New builds a server from configuration. Storage is best-effort: when the
// database cannot be opened the server still runs, without match history.
func New(cfg config.Config, logger *log.Logger) *Server {
	var saver room.ResultSaver
	store, err := storage.Open(cfg.Server.DBPath)
	if err != nil {
		logger.Warn("match history disabled", "err", err)
		store = nil
	} else {
		saver = store
	}

	return &Server{
		cfg:      cfg,
		logger:   logger,
		registry: room.NewRegistry(logger, saver),
		store:    store,
	}
}

// Handler returns the full route table: the websocket endpoint plus the
// JSON inspection API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/rooms", s.handleRooms)
	mux.HandleFunc("GET /api/room/{id}", s.handleRoom)
	mux.HandleFunc("GET /api/matches", s.handleMatches)
	return mux
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.Server.Addr,
		Handler: s.Handler(),
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.cfg.Server.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down")
		shCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shCtx)
		s.registry.StopAll()
		if s.store != nil {
			s.store.Close()
		}
		return err
	case err := <-errCh:
		s.registry.StopAll()
		if s.store != nil {
			s.store.Close()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// handleWS upgrades the connection and runs a client until it disconnects.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // clients connect from arbitrary origins
	})
	if err != nil {
		s.logger.Error("failed to accept connection", "err", err)
		return
	}
	defer conn.CloseNow()

	c := newClient(uuid.NewString(), s, conn)
	c.logger.Debug("client connected")
	if err := c.run(r.Context()); err != nil && websocket.CloseStatus(err) < 0 && !errors.Is(err, context.Canceled) {
		c.logger.Debug("client disconnected", "err", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"rooms":  s.registry.Count(),
	})
}

func (s *Server) handleRooms(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"rooms": s.registry.List(),
	})
}

func (s *Server) handleRoom(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	rm, ok := s.registry.Lookup(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "room not found"})
		return
	}
	writeJSON(w, http.StatusOK, rm.Info())
}

func (s *Server) handleMatches(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"error": "match history disabled"})
		return
	}
	matches, err := s.store.RecentMatches(r.Context(), 20)
	if err != nil {
		s.logger.Error("failed to load matches", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "storage error"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"matches": matches})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
