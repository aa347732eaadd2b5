package scrape

import (
	"context"
	"testing"

	"r6-tracker/internal/cache"
	"r6-tracker/internal/domain"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type fakeRosterStore struct {
	saved []domain.PlayerIdentity
}

func (s *fakeRosterStore) SaveAllies(_ context.Context, allies []domain.PlayerIdentity) error {
	s.saved = allies
	return nil
}

func newService(t *testing.T) (*Service, *cache.Store, *fakeRosterStore) {
	t.Helper()
	main := ident(t, "psn", "Main")
	f := &fakeFetcher{}
	fullFixture(f, main)
	store := cache.New()
	orch := NewOrchestrator(f, fakeExtractor{}, store, zerolog.Nop())
	rosterStore := &fakeRosterStore{}
	svc := NewService(orch, store, rosterStore, domain.Roster{Main: main}, zerolog.Nop())
	return svc, store, rosterStore
}

func TestUpdateEnemiesInvalidatesVacatedSlots(t *testing.T) {
	svc, store, _ := newService(t)

	e1 := ident(t, "psn", "Enemy1")
	e2 := ident(t, "psn", "Enemy2")
	rec := domain.NewConsolidatedRecord(e1)
	rec.Overview = &domain.OverviewFragment{RankPoints: "100"}
	store.Store(e1, rec, true)

	require.NoError(t, svc.UpdateEnemies([]domain.PlayerIdentity{e2}))

	require.Nil(t, store.Lookup(e1), "vacated enemy slot must not serve stale data")
	require.Equal(t, []domain.PlayerIdentity{e2}, svc.Roster().Enemies)
}

func TestUpdateEnemiesRejectsOversizedRoster(t *testing.T) {
	svc, _, _ := newService(t)

	enemies := make([]domain.PlayerIdentity, domain.MaxEnemies+1)
	for i := range enemies {
		enemies[i] = ident(t, "psn", "E")
	}
	require.Error(t, svc.UpdateEnemies(enemies))
	require.Empty(t, svc.Roster().Enemies, "rejected update must not change the roster")
}

func TestUpdateAlliesPersistsAndInvalidates(t *testing.T) {
	svc, store, rosterStore := newService(t)

	old := ident(t, "xbox", "OldAlly")
	require.NoError(t, svc.UpdateAllies(context.Background(), []domain.PlayerIdentity{old}, false))
	rec := domain.NewConsolidatedRecord(old)
	store.Store(old, rec, false)

	replacement := ident(t, "xbox", "NewAlly")
	require.NoError(t, svc.UpdateAllies(context.Background(), []domain.PlayerIdentity{replacement}, true))

	require.Nil(t, store.Lookup(old))
	require.Equal(t, []domain.PlayerIdentity{replacement}, rosterStore.saved)
}
