// Package httpserver exposes tournament progress over HTTP: standings, the
// games in progress and a websocket feed per game slot.
package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"nhooyr.io/websocket"

	"github.com/ChizhovVadim/takmatch/internal/arena"
	"github.com/ChizhovVadim/takmatch/internal/store"
)

// Results gives access to stored runs. May be nil.
type Results interface {
	Runs(ctx context.Context) ([]store.Run, error)
	Games(ctx context.Context, runID uuid.UUID) ([]store.Game, error)
}

type Server struct {
	r         *chi.Mux
	hub       *Hub
	standings *arena.Standings
	results   Results
	logger    *zap.Logger
}

func New(hub *Hub, standings *arena.Standings, results Results, logger *zap.Logger) *Server {
	s := &Server{
		r:         chi.NewRouter(),
		hub:       hub,
		standings: standings,
		results:   results,
		logger:    logger,
	}

	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(chimw.Recoverer)
	s.r.Use(s.logRequests)

	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})
	s.r.Get("/standings", s.handleStandings)
	s.r.Get("/games", s.handleGames)
	s.r.Get("/games/{slot}", s.handleGame)
	s.r.Get("/games/{slot}/ws", s.handleGameWS)
	if results != nil {
		s.r.Get("/runs", s.handleRuns)
		s.r.Get("/runs/{id}/games", s.handleRunGames)
	}
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.r.ServeHTTP(w, r)
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	var srv = &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	var errs = make(chan error, 1)
	go func() {
		errs <- srv.ListenAndServe()
	}()
	s.logger.Info("http server started", zap.String("addr", addr))
	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}
	var shutdownCtx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errs; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var ww = chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		var start = time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("requestID", chimw.GetReqID(r.Context())))
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleStandings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.standings.Snapshot())
}

func (s *Server) handleGames(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.hub.Games())
}

func slotParam(r *http.Request) (int, bool) {
	var slot, err = strconv.Atoi(chi.URLParam(r, "slot"))
	return slot, err == nil && slot >= 0
}

func (s *Server) handleGame(w http.ResponseWriter, r *http.Request) {
	var slot, ok = slotParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "bad slot")
		return
	}
	game, ok := s.hub.Game(slot)
	if !ok {
		writeError(w, http.StatusNotFound, "no game in slot")
		return
	}
	writeJSON(w, http.StatusOK, game)
}

// handleGameWS pushes the slot's current state, then every update until the
// client goes away.
func (s *Server) handleGameWS(w http.ResponseWriter, r *http.Request) {
	var slot, ok = slotParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "bad slot")
		return
	}
	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		s.logger.Debug("websocket accept failed", zap.Error(err))
		return
	}
	defer c.Close(websocket.StatusInternalError, "unexpected close")

	var updates, unsubscribe = s.hub.subscribe(slot)
	defer unsubscribe()

	// Reads are only needed to notice the client closing.
	var ctx = c.CloseRead(r.Context())

	if game, ok := s.hub.Game(slot); ok {
		var msg, _ = json.Marshal(game)
		if err := c.Write(ctx, websocket.MessageText, msg); err != nil {
			return
		}
	}
	var ping = time.NewTicker(15 * time.Second)
	defer ping.Stop()
	for {
		select {
		case <-ctx.Done():
			c.Close(websocket.StatusNormalClosure, "")
			return
		case msg := <-updates:
			if err := c.Write(ctx, websocket.MessageText, msg); err != nil {
				return
			}
		case <-ping.C:
			if err := c.Ping(ctx); err != nil {
				return
			}
		}
	}
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	var runs, err = s.results.Runs(r.Context())
	if err != nil {
		s.logger.Error("list runs", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleRunGames(w http.ResponseWriter, r *http.Request) {
	var id, err = uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad run id")
		return
	}
	games, err := s.results.Games(r.Context(), id)
	if err != nil {
		s.logger.Error("list games", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	writeJSON(w, http.StatusOK, games)
}
