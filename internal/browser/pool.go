// Package browser provides the bounded pool of isolated fetch sessions
// used by the scrape cycle, backed by headless Chromium in production.
package browser

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"r6-tracker/internal/metrics"

	"github.com/rs/zerolog"
)

var ErrPoolClosed = errors.New("browser: pool is closed")

// Session is one isolated execution context able to navigate to a URL and
// return the rendered page content.
type Session interface {
	Fetch(ctx context.Context, url string) (string, error)
	Close() error
}

// Factory creates sessions on demand. The rod-backed implementation opens
// a stealth page per session; tests inject fakes.
type Factory interface {
	NewSession(ctx context.Context) (Session, error)
}

// Pool bounds how many sessions run concurrently. Healthy sessions are
// reused within a cycle; a session reported poisoned is closed and
// replaced, never handed out again. After Degrade the effective bound
// drops to the degraded capacity for the lifetime of the pool's cycle.
type Pool struct {
	factory  Factory
	logger   zerolog.Logger
	slots    chan struct{}
	degraded chan struct{}
	lowGear  atomic.Bool

	mu     sync.Mutex
	idle   []Session
	closed bool
}

func NewPool(factory Factory, maxSessions, degradedSessions int, logger zerolog.Logger) *Pool {
	p := &Pool{
		factory:  factory,
		logger:   logger,
		slots:    make(chan struct{}, maxSessions),
		degraded: make(chan struct{}, degradedSessions),
	}
	for range maxSessions {
		p.slots <- struct{}{}
	}
	for range degradedSessions {
		p.degraded <- struct{}{}
	}
	return p
}

// Lease is a scoped acquisition of one session. Callers must Release on
// every exit path.
type Lease struct {
	pool     *Pool
	session  Session
	lowGear  bool
	released bool
}

func (l *Lease) Session() Session { return l.session }

// Acquire blocks until a slot is free or the context is done.
func (p *Pool) Acquire(ctx context.Context) (*Lease, error) {
	lowGear := p.lowGear.Load()
	if lowGear {
		select {
		case <-p.degraded:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	select {
	case <-p.slots:
	case <-ctx.Done():
		if lowGear {
			p.degraded <- struct{}{}
		}
		return nil, ctx.Err()
	}

	sess, err := p.takeSession(ctx)
	if err != nil {
		p.slots <- struct{}{}
		if lowGear {
			p.degraded <- struct{}{}
		}
		return nil, err
	}

	metrics.ActiveSessions.Inc()
	return &Lease{pool: p, session: sess, lowGear: lowGear}, nil
}

func (p *Pool) takeSession(ctx context.Context) (Session, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrPoolClosed
	}
	if n := len(p.idle); n > 0 {
		sess := p.idle[n-1]
		p.idle = p.idle[:n-1]
		p.mu.Unlock()
		return sess, nil
	}
	p.mu.Unlock()

	return p.factory.NewSession(ctx)
}

// Release returns the lease's slot. A poisoned session is discarded so it
// can never be reused in a broken state.
func (l *Lease) Release(poisoned bool) {
	if l.released {
		return
	}
	l.released = true
	metrics.ActiveSessions.Dec()

	p := l.pool
	if poisoned {
		if err := l.session.Close(); err != nil {
			p.logger.Debug().Err(err).Msg("closing poisoned session")
		}
	} else {
		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			l.session.Close()
		} else {
			p.idle = append(p.idle, l.session)
			p.mu.Unlock()
		}
	}

	p.slots <- struct{}{}
	if l.lowGear {
		p.degraded <- struct{}{}
	}
}

// Degrade caps concurrency at the degraded bound for subsequent acquires.
// Leases already held are unaffected.
func (p *Pool) Degrade() {
	if p.lowGear.CompareAndSwap(false, true) {
		p.logger.Warn().
			Int("cap", cap(p.degraded)).
			Msg("blocking detected, degrading session concurrency")
	}
}

func (p *Pool) Degraded() bool { return p.lowGear.Load() }

// Restore lifts the degraded cap, typically at the start of a new cycle.
func (p *Pool) Restore() { p.lowGear.Store(false) }

// Close discards all idle sessions. In-flight leases drain through
// Release as usual.
func (p *Pool) Close() {
	p.mu.Lock()
	idle := p.idle
	p.idle = nil
	p.closed = true
	p.mu.Unlock()

	for _, sess := range idle {
		sess.Close()
	}
}
