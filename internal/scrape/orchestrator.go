// Package scrape coordinates one cycle: diff the roster against the
// cache, fan the remaining players out over the session pool as paired
// overview/operators tasks, merge the fragments that come back in any
// order, and join before reporting.
package scrape

import (
	"context"
	"errors"
	"sync"
	"time"

	"r6-tracker/internal/cache"
	"r6-tracker/internal/constants"
	"r6-tracker/internal/domain"
	"r6-tracker/internal/extract"
	"r6-tracker/internal/fetch"
	"r6-tracker/internal/metrics"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// ErrCycleSuperseded is returned by Run when a newer roster was submitted
// before this cycle finished. Its partial results are discarded.
var ErrCycleSuperseded = errors.New("scrape: cycle superseded by a newer roster")

// Fetcher runs one fetch task to a terminal outcome (the retry/bypass
// controller in production).
type Fetcher interface {
	Fetch(ctx context.Context, task fetch.Task) (string, error)
}

// Extractor is the page-to-fields contract.
type Extractor interface {
	Overview(content string) (*domain.OverviewFragment, error)
	Operators(content string) (*domain.OperatorFragment, error)
}

// PoolControl is the slice of the session pool the orchestrator steers:
// lifting the degraded cap between cycles and pre-degrading on a bad
// probe.
type PoolControl interface {
	Degrade()
	Restore()
}

// Prober checks target health before a cycle spends sessions.
type Prober interface {
	Check() (blocked bool, err error)
}

// Snapshots persists final records for the configured (non-ephemeral)
// roster so they survive restarts.
type Snapshots interface {
	SaveRecord(ctx context.Context, role domain.Role, rec *domain.ConsolidatedRecord) error
}

type Orchestrator struct {
	fetcher   Fetcher
	extractor Extractor
	cache     *cache.Store
	pool      PoolControl // optional
	probe     Prober      // optional
	snapshots Snapshots   // optional
	logger    zerolog.Logger

	budget time.Duration

	mu         sync.Mutex
	generation uint64
	cancelPrev context.CancelFunc
}

func NewOrchestrator(fetcher Fetcher, extractor Extractor, store *cache.Store, logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		fetcher:   fetcher,
		extractor: extractor,
		cache:     store,
		logger:    logger,
		budget:    constants.PerIdentityBudget,
	}
}

func (o *Orchestrator) WithPool(pool PoolControl) *Orchestrator       { o.pool = pool; return o }
func (o *Orchestrator) WithProbe(probe Prober) *Orchestrator          { o.probe = probe; return o }
func (o *Orchestrator) WithSnapshots(snap Snapshots) *Orchestrator    { o.snapshots = snap; return o }
func (o *Orchestrator) WithIdentityBudget(d time.Duration) *Orchestrator {
	o.budget = d
	return o
}

// begin registers a new cycle, canceling any still-running predecessor.
func (o *Orchestrator) begin(ctx context.Context) (context.Context, context.CancelFunc, uint64) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.cancelPrev != nil {
		o.cancelPrev()
	}
	o.generation++
	gen := o.generation

	cycleCtx, cancel := context.WithTimeout(ctx, constants.CycleTimeout)
	o.cancelPrev = cancel
	return cycleCtx, cancel, gen
}

func (o *Orchestrator) isCurrent(gen uint64) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.generation == gen
}

// Run executes one scrape cycle and returns the consolidated records in
// roster order. It does not return until every queued identity reached a
// terminal completeness state, or the cycle was superseded.
func (o *Orchestrator) Run(ctx context.Context, roster domain.Roster, force bool) ([]*domain.ConsolidatedRecord, error) {
	if err := roster.Validate(); err != nil {
		return nil, err
	}

	cycleCtx, cancel, gen := o.begin(ctx)
	defer cancel()

	cycleID, _ := gonanoid.New(8)
	logger := o.logger.With().Str("cycle", cycleID).Logger()
	start := time.Now()
	defer func() { metrics.CycleDurationSeconds.Observe(time.Since(start).Seconds()) }()

	if o.pool != nil {
		o.pool.Restore()
	}
	if o.probe != nil {
		if blocked, err := o.probe.Check(); err != nil {
			logger.Warn().Err(err).Msg("target probe failed, continuing anyway")
		} else if blocked && o.pool != nil {
			logger.Warn().Msg("target is serving challenges, starting cycle degraded")
			o.pool.Degrade()
		}
	}

	entries := roster.Entries()
	resolved := make(map[string]*domain.ConsolidatedRecord, len(entries))
	var queued []domain.RosterEntry

	for _, entry := range entries {
		if !force && !entry.Force {
			if rec := o.cache.Lookup(entry.Identity); rec != nil {
				resolved[entry.Identity.Key()] = rec
				continue
			}
		}
		queued = append(queued, entry)
	}

	logger.Info().
		Int("roster", len(entries)).
		Int("cached", len(resolved)).
		Int("queued", len(queued)).
		Bool("force", force).
		Msg("cycle started")

	// Fan out. Each queued identity resolves both of its pages in
	// parallel; the group Wait is the cycle's join barrier. Failures are
	// folded into records, so the goroutines themselves never error.
	var (
		g       errgroup.Group
		freshMu sync.Mutex
		fresh   = make(map[string]*domain.ConsolidatedRecord, len(queued))
	)
	for _, entry := range queued {
		g.Go(func() error {
			rec := o.scrapeIdentity(cycleCtx, logger, entry.Identity)
			freshMu.Lock()
			fresh[entry.Identity.Key()] = rec
			freshMu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	// A superseded cycle must not leak results into the cache: its
	// records may describe a roster the process no longer displays.
	if !o.isCurrent(gen) {
		logger.Info().Msg("cycle superseded, discarding results")
		return nil, ErrCycleSuperseded
	}

	for _, entry := range queued {
		rec := fresh[entry.Identity.Key()]
		resolved[entry.Identity.Key()] = rec

		ephemeral := entry.Role == domain.RoleEnemy
		if ephemeral && rec.Completeness == domain.CompletenessEmpty {
			// A transient enemy that yielded nothing is not worth
			// pinning in the cache.
			continue
		}
		o.cache.Store(entry.Identity, rec, ephemeral)

		if !ephemeral && o.snapshots != nil {
			if err := o.snapshots.SaveRecord(cycleCtx, entry.Role, rec); err != nil {
				logger.Warn().Err(err).
					Str("player", entry.Identity.String()).
					Msg("failed to snapshot record")
			}
		}
	}

	out := make([]*domain.ConsolidatedRecord, 0, len(entries))
	for _, entry := range entries {
		out = append(out, resolved[entry.Identity.Key()])
	}

	logger.Info().
		Dur("elapsed", time.Since(start)).
		Int("players", len(out)).
		Msg("cycle completed")
	return out, nil
}

// scrapeIdentity resolves both fragments for one player under the
// per-identity budget. Failures are folded into the record's completeness
// state; they never escape to abort the cycle for other players.
func (o *Orchestrator) scrapeIdentity(ctx context.Context, logger zerolog.Logger, id domain.PlayerIdentity) *domain.ConsolidatedRecord {
	idCtx, cancel := context.WithTimeout(ctx, o.budget)
	defer cancel()

	rec := domain.NewConsolidatedRecord(id)

	type fragments struct {
		overview  *domain.OverviewFragment
		operators *domain.OperatorFragment
		ovErr     error
		opErr     error
	}
	var (
		frags fragments
		wg    sync.WaitGroup
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		frags.overview, frags.ovErr = o.fetchOverview(idCtx, id)
	}()
	go func() {
		defer wg.Done()
		frags.operators, frags.opErr = o.fetchOperators(idCtx, id)
	}()
	wg.Wait()

	rec.Overview = frags.overview
	rec.Operators = frags.operators
	rec.Finalize(time.Now())

	switch {
	case frags.ovErr != nil && errors.Is(frags.ovErr, extract.ErrProfileNotFound):
		rec.Error = "profile not found on tracker"
	case frags.ovErr != nil && fetch.ClassOf(frags.ovErr) == fetch.ClassBlocked:
		rec.Error = "blocked by anti-bot defenses"
	case frags.ovErr != nil:
		rec.Error = "overview unavailable"
	case frags.opErr != nil:
		rec.Error = "operators unavailable"
	}

	evt := logger.Debug()
	if rec.Completeness != domain.CompletenessFull {
		evt = logger.Warn().AnErr("overview_err", frags.ovErr).AnErr("operators_err", frags.opErr)
	}
	evt.Str("player", id.String()).
		Str("completeness", string(rec.Completeness)).
		Msg("player finalized")

	return rec
}

// fetchOverview runs the overview task and extraction, retrying a
// malformed page once. Not-found is terminal immediately.
func (o *Orchestrator) fetchOverview(ctx context.Context, id domain.PlayerIdentity) (*domain.OverviewFragment, error) {
	task := fetch.Task{Identity: id, Kind: domain.PageOverview}

	var lastErr error
	for attempt := 0; attempt <= constants.MalformedRetries; attempt++ {
		content, err := o.fetcher.Fetch(ctx, task)
		if err != nil {
			return nil, err
		}

		frag, err := o.extractor.Overview(content)
		if err == nil {
			return frag, nil
		}
		if errors.Is(err, extract.ErrProfileNotFound) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

func (o *Orchestrator) fetchOperators(ctx context.Context, id domain.PlayerIdentity) (*domain.OperatorFragment, error) {
	task := fetch.Task{Identity: id, Kind: domain.PageOperators}

	var lastErr error
	for attempt := 0; attempt <= constants.MalformedRetries; attempt++ {
		content, err := o.fetcher.Fetch(ctx, task)
		if err != nil {
			return nil, err
		}

		frag, err := o.extractor.Operators(content)
		if err == nil {
			return frag, nil
		}
		lastErr = err
	}
	return nil, lastErr
}
