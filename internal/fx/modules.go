package fx

import (
	"context"

	"r6-tracker/internal/browser"
	"r6-tracker/internal/cache"
	"r6-tracker/internal/config"
	"r6-tracker/internal/database"
	"r6-tracker/internal/domain"
	"r6-tracker/internal/extract"
	"r6-tracker/internal/fetch"
	"r6-tracker/internal/logger"
	"r6-tracker/internal/repository"
	"r6-tracker/internal/scrape"
	"r6-tracker/internal/server"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

// fetchStack bundles the mode-dependent fetch pieces. In http mode the
// pool is nil and the orchestrator skips pool steering.
type fetchStack struct {
	fx.Out

	Source fetch.Source
	Pool   *browser.Pool
}

func provideFetchStack(lc fx.Lifecycle, cfg *config.Config, log zerolog.Logger) (fetchStack, error) {
	if cfg.FetchMode == config.FetchModeHTTP {
		src, err := fetch.NewHTTPSource()
		if err != nil {
			return fetchStack{}, err
		}
		return fetchStack{Source: src}, nil
	}

	chrome, err := browser.StartChromium(cfg.BrowserRemoteURL, log)
	if err != nil {
		return fetchStack{}, err
	}
	pool := browser.NewPool(chrome, cfg.MaxSessions, cfg.DegradedSessions, log)

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			pool.Close()
			return chrome.Close()
		},
	})

	return fetchStack{Source: &fetch.PoolSource{Pool: pool}, Pool: pool}, nil
}

func provideController(source fetch.Source, cfg *config.Config, log zerolog.Logger) *fetch.Controller {
	rc := fetch.DefaultRetryConfig()
	rc.MaxAttempts = cfg.FetchAttempts
	rc.InitialBackoff = cfg.InitialBackoff
	rc.MaxBackoff = cfg.MaxBackoff
	return fetch.NewController(source, rc, log)
}

// provideCache warms the in-memory store from the last persisted
// snapshots so a restart starts from known stats.
func provideCache(records *repository.RecordRepository, log zerolog.Logger) *cache.Store {
	store := cache.New()

	stored, err := records.LoadRecords(context.Background())
	if err != nil {
		log.Warn().Err(err).Msg("failed to load record snapshots, starting cold")
		return store
	}
	for _, s := range stored {
		store.Store(s.Record.Identity, s.Record, false)
	}
	if len(stored) > 0 {
		log.Info().Int("records", len(stored)).Msg("cache warmed from snapshots")
	}
	return store
}

func provideOrchestrator(
	ctrl *fetch.Controller,
	adapter *extract.Adapter,
	store *cache.Store,
	pool *browser.Pool,
	probe *fetch.Probe,
	records *repository.RecordRepository,
	log zerolog.Logger,
) *scrape.Orchestrator {
	orch := scrape.NewOrchestrator(ctrl, adapter, store, log).
		WithProbe(probe).
		WithSnapshots(records)
	if pool != nil {
		orch = orch.WithPool(pool)
	}
	return orch
}

// provideRoster merges the YAML roster with DB-persisted allies: the
// file names the main player, the DB wins for allies once it has any.
func provideRoster(cfg *config.Config, rosters *repository.RosterRepository, log zerolog.Logger) (domain.Roster, error) {
	roster, err := config.LoadRoster(cfg.RosterPath)
	if err != nil {
		return domain.Roster{}, err
	}

	allies, err := rosters.LoadAllies(context.Background())
	if err != nil {
		log.Warn().Err(err).Msg("failed to load persisted allies, using file roster")
		return roster, nil
	}
	if len(allies) > 0 {
		roster.Allies = allies
		log.Info().Int("allies", len(allies)).Msg("allies restored from database")
	}

	log.Info().
		Str("main", roster.Main.String()).
		Int("allies", len(roster.Allies)).
		Msg("roster loaded")
	return roster, nil
}

func provideService(
	orch *scrape.Orchestrator,
	store *cache.Store,
	rosters *repository.RosterRepository,
	roster domain.Roster,
	log zerolog.Logger,
) *scrape.Service {
	return scrape.NewService(orch, store, rosters, roster, log)
}

var Module = fx.Options(
	fx.Provide(logger.New),
	fx.Provide(config.Load),
	fx.Provide(database.New),
	// repos
	fx.Provide(repository.NewRosterRepository),
	fx.Provide(repository.NewRecordRepository),
	// scrape engine
	fx.Provide(provideFetchStack),
	fx.Provide(provideController),
	fx.Provide(fetch.NewProbe),
	fx.Provide(extract.NewAdapter),
	fx.Provide(provideCache),
	fx.Provide(provideRoster),
	fx.Provide(provideOrchestrator),
	fx.Provide(provideService),
	// server
	fx.Provide(server.NewTrackerServer),
)
