package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"coffeemarket/internal/config"
	"coffeemarket/internal/game"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Sessions is the session surface the HTTP layer drives.
type Sessions interface {
	Create(ctx context.Context) (string, game.Snapshot, error)
	Snapshot(ctx context.Context, id string) (game.Snapshot, error)
	Apply(ctx context.Context, id string, cmd game.Command) (game.Result, error)
	Replay(ctx context.Context, id string, batch []game.CommandEnvelope) ([]game.ReplayResult, game.Snapshot, error)
	End(ctx context.Context, id string) error
}

type Server struct {
	cfg  config.APIConfig
	log  *slog.Logger
	game Sessions
	mux  *chi.Mux
}

func New(cfg config.APIConfig, logger *slog.Logger, sessions Sessions) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:  cfg,
		log:  logger,
		game: sessions,
		mux:  chi.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	r := s.mux
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	r.Route("/v1/sessions", func(r chi.Router) {
		r.Post("/", s.handleCreateSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleSessionState)
			r.Delete("/", s.handleEndSession)
			r.Get("/market", s.handleMarket)
			r.Put("/settings", s.handleSettings)
			r.Post("/rounds", s.handlePlayRound)
			r.Post("/acquisitions", s.handleAcquire)
			r.Post("/commands", s.handleCommands)
		})
	})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	id, snap, err := s.game.Create(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": id, "snapshot": snap})
}

func (s *Server) handleSessionState(w http.ResponseWriter, r *http.Request) {
	snap, err := s.game.Snapshot(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	if err := s.game.End(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleMarket(w http.ResponseWriter, r *http.Request) {
	snap, err := s.game.Snapshot(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"market":           snap.Market,
		"rank":             snap.Rank,
		"is_market_leader": snap.IsMarketLeader,
		"offers":           snap.Offers,
	})
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	var in game.PlayerSettings
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := in.Validate(); err != nil {
		writeDomainError(w, err)
		return
	}
	s.apply(w, r, game.SetSettings{Settings: in})
}

func (s *Server) handlePlayRound(w http.ResponseWriter, r *http.Request) {
	s.apply(w, r, game.PlayRound{})
}

func (s *Server) handleAcquire(w http.ResponseWriter, r *http.Request) {
	var in struct {
		CompetitorID int `json:"competitor_id"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.apply(w, r, game.Acquire{CompetitorID: in.CompetitorID})
}

func (s *Server) handleCommands(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Commands []game.CommandEnvelope `json:"commands"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	for _, c := range in.Commands {
		if c.Settings == nil {
			continue
		}
		if err := c.Settings.Validate(); err != nil {
			writeDomainError(w, err)
			return
		}
	}
	results, snap, err := s.game.Replay(r.Context(), chi.URLParam(r, "id"), in.Commands)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results, "snapshot": snap})
}

func (s *Server) apply(w http.ResponseWriter, r *http.Request, cmd game.Command) {
	id := chi.URLParam(r, "id")
	res, err := s.game.Apply(r.Context(), id, cmd)
	if err != nil {
		s.log.Info("command rejected", "session_id", id, "command", cmd.Name(), "err", err,
			"request_id", middleware.GetReqID(r.Context()))
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, game.ErrInsufficientFunds):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":  strings.TrimSpace(err.Error()),
			"notice": game.Message(game.MessageInsufficientFunds),
		})
	case errors.Is(err, game.ErrInvalidSettings), errors.Is(err, game.ErrUnknownCommand):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, game.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, game.ErrSessionLimit):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": strings.TrimSpace(message)})
}
