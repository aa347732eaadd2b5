package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"r6-tracker/internal/domain"
	"r6-tracker/internal/scrape"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// TrackerServer exposes the scrape engine over JSON endpoints.
type TrackerServer struct {
	svc    *scrape.Service
	logger zerolog.Logger
}

func NewTrackerServer(svc *scrape.Service, logger zerolog.Logger) *TrackerServer {
	return &TrackerServer{svc: svc, logger: logger}
}

// Routes mounts the API onto a chi router.
func (s *TrackerServer) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/api/scrape", s.handleScrape)
	r.Get("/api/roster", s.handleGetRoster)
	r.Post("/api/roster", s.handleUpdateRoster)
	r.Handle("/metrics", promhttp.Handler())
	return r
}

func (s *TrackerServer) handleScrape(w http.ResponseWriter, r *http.Request) {
	refresh := r.URL.Query().Get("refresh")
	force := refresh == "1" || refresh == "true"

	records, err := s.svc.Scrape(r.Context(), force)
	if err != nil {
		switch {
		case errors.Is(err, scrape.ErrCycleSuperseded):
			s.respondError(w, http.StatusConflict, "cycle superseded by a newer roster")
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			s.respondError(w, http.StatusRequestTimeout, "scrape cancelled")
		default:
			s.logger.Error().Err(err).Msg("scrape cycle failed")
			s.respondError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{"players": records})
}

func (s *TrackerServer) handleGetRoster(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.svc.Roster())
}

type identityPayload struct {
	Platform string `json:"platform"`
	Username string `json:"username"`
}

type rosterUpdate struct {
	Allies  *[]identityPayload `json:"allies,omitempty"`
	Enemies *[]identityPayload `json:"enemies,omitempty"`
	Persist bool               `json:"persist,omitempty"`
}

func (s *TrackerServer) handleUpdateRoster(w http.ResponseWriter, r *http.Request) {
	var req rosterUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Allies == nil && req.Enemies == nil {
		s.respondError(w, http.StatusBadRequest, "nothing to update: provide allies and/or enemies")
		return
	}

	if req.Allies != nil {
		allies, err := parseIdentities(*req.Allies)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := s.svc.UpdateAllies(r.Context(), allies, req.Persist); err != nil {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if req.Enemies != nil {
		enemies, err := parseIdentities(*req.Enemies)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := s.svc.UpdateEnemies(enemies); err != nil {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	s.respondJSON(w, http.StatusOK, s.svc.Roster())
}

func parseIdentities(payload []identityPayload) ([]domain.PlayerIdentity, error) {
	ids := make([]domain.PlayerIdentity, 0, len(payload))
	for _, p := range payload {
		id, err := domain.NewPlayerIdentity(p.Platform, p.Username)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *TrackerServer) respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn().Err(err).Msg("failed to encode response")
	}
}

func (s *TrackerServer) respondError(w http.ResponseWriter, status int, msg string) {
	s.respondJSON(w, status, map[string]string{"error": msg})
}
