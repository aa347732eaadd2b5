package scrape

import (
	"context"
	"sync"

	"r6-tracker/internal/cache"
	"r6-tracker/internal/domain"

	"github.com/rs/zerolog"
)

// RosterStore persists the configured self/allies roster.
type RosterStore interface {
	SaveAllies(ctx context.Context, allies []domain.PlayerIdentity) error
}

// Service owns the current roster between cycles: the configured
// self/allies part plus the enemies entered for the current match.
type Service struct {
	orch   *Orchestrator
	cache  *cache.Store
	store  RosterStore // optional
	logger zerolog.Logger

	mu     sync.RWMutex
	roster domain.Roster
}

func NewService(orch *Orchestrator, store *cache.Store, rosterStore RosterStore, initial domain.Roster, logger zerolog.Logger) *Service {
	return &Service{
		orch:   orch,
		cache:  store,
		store:  rosterStore,
		logger: logger,
		roster: initial,
	}
}

// Roster returns a copy of the current roster.
func (s *Service) Roster() domain.Roster {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r := s.roster
	r.Allies = append([]domain.PlayerIdentity(nil), s.roster.Allies...)
	r.Enemies = append([]domain.PlayerIdentity(nil), s.roster.Enemies...)
	return r
}

// Scrape runs one cycle over the current roster.
func (s *Service) Scrape(ctx context.Context, force bool) ([]*domain.ConsolidatedRecord, error) {
	return s.orch.Run(ctx, s.Roster(), force)
}

// UpdateEnemies replaces the enemy half of the roster. Cache entries for
// vacated enemy slots are invalidated so they can never serve a player
// who is no longer in the match.
func (s *Service) UpdateEnemies(enemies []domain.PlayerIdentity) error {
	s.mu.Lock()
	candidate := s.roster
	candidate.Enemies = enemies
	if err := candidate.Validate(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.roster = candidate
	s.mu.Unlock()

	s.cache.RetainEphemeral(enemies)
	s.logger.Info().Int("enemies", len(enemies)).Msg("enemy roster updated")
	return nil
}

// UpdateAllies replaces the ally half of the roster, invalidating cache
// entries for allies that were removed or changed. With persist set the
// new allies are written to the roster store for the next run.
func (s *Service) UpdateAllies(ctx context.Context, allies []domain.PlayerIdentity, persist bool) error {
	s.mu.Lock()
	candidate := s.roster
	candidate.Allies = allies
	if err := candidate.Validate(); err != nil {
		s.mu.Unlock()
		return err
	}

	kept := make(map[string]bool, len(allies))
	for _, id := range allies {
		kept[id.Key()] = true
	}
	var removed []domain.PlayerIdentity
	for _, old := range s.roster.Allies {
		if !kept[old.Key()] {
			removed = append(removed, old)
		}
	}
	s.roster = candidate
	s.mu.Unlock()

	for _, id := range removed {
		s.cache.Invalidate(id)
	}

	if persist && s.store != nil {
		if err := s.store.SaveAllies(ctx, allies); err != nil {
			s.logger.Warn().Err(err).Msg("failed to persist allies")
			return err
		}
	}

	s.logger.Info().Int("allies", len(allies)).Bool("persist", persist).Msg("ally roster updated")
	return nil
}
