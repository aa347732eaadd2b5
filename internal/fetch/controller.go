package fetch

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"r6-tracker/internal/browser"
	"r6-tracker/internal/constants"
	"r6-tracker/internal/metrics"

	"github.com/rs/zerolog"
)

// Source fetches one URL and returns raw page content.
type Source interface {
	FetchPage(ctx context.Context, url string) (string, error)
}

// Degradable sources can cap their concurrency after persistent blocking.
type Degradable interface {
	Degrade()
}

type RetryConfig struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    constants.MaxFetchAttempts,
		InitialBackoff: constants.InitialBackoff,
		MaxBackoff:     constants.MaxBackoff,
		Multiplier:     2.0,
	}
}

// Controller executes one fetch task with block detection and bounded
// exponential backoff. A persistent block surfaces as a ClassBlocked
// error, distinct from plain failure, and triggers source degradation so
// the remainder of the cycle runs at reduced concurrency.
type Controller struct {
	source Source
	cfg    RetryConfig
	logger zerolog.Logger
}

func NewController(source Source, cfg RetryConfig, logger zerolog.Logger) *Controller {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.Multiplier <= 1 {
		cfg.Multiplier = 2.0
	}
	return &Controller{source: source, cfg: cfg, logger: logger}
}

// Fetch runs the task to a terminal outcome: content, or an *Error whose
// class tells the orchestrator how to fold it into the record.
func (c *Controller) Fetch(ctx context.Context, task Task) (string, error) {
	url := task.URL()
	backoff := c.cfg.InitialBackoff

	var lastErr error
	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		content, err := c.source.FetchPage(ctx, url)

		switch {
		case err == nil && !IsChallenge(content):
			if attempt > 1 {
				c.logger.Info().
					Str("url", url).
					Int("attempt", attempt).
					Msg("fetch succeeded after retry")
			}
			metrics.FetchesTotal.WithLabelValues(string(task.Kind), "ok").Inc()
			return content, nil

		case err == nil:
			metrics.BlocksTotal.Inc()
			lastErr = &Error{Class: ClassBlocked, URL: url, Err: errors.New("challenge page served")}

		default:
			if ctx.Err() != nil {
				metrics.FetchesTotal.WithLabelValues(string(task.Kind), "canceled").Inc()
				return "", &Error{Class: ClassTransient, URL: url, Err: ctx.Err()}
			}
			var fe *Error
			if errors.As(err, &fe) {
				lastErr = err
			} else {
				lastErr = &Error{Class: ClassTransient, URL: url, Err: err}
			}
		}

		class := ClassOf(lastErr)
		if !retryable(class) || attempt >= c.cfg.MaxAttempts {
			break
		}

		metrics.RetriesTotal.WithLabelValues(string(class)).Inc()

		// ±20% jitter keeps parallel tasks from retrying in lockstep.
		jitter := time.Duration(float64(backoff) * (0.8 + rand.Float64()*0.4))
		c.logger.Debug().
			Str("url", url).
			Str("error_class", string(class)).
			Int("attempt", attempt).
			Dur("backoff", jitter).
			Msg("retrying fetch after backoff")

		select {
		case <-ctx.Done():
			return "", &Error{Class: ClassTransient, URL: url, Err: ctx.Err()}
		case <-time.After(jitter):
		}

		backoff = min(time.Duration(float64(backoff)*c.cfg.Multiplier), c.cfg.MaxBackoff)
	}

	class := ClassOf(lastErr)
	metrics.FetchesTotal.WithLabelValues(string(task.Kind), string(class)).Inc()

	switch class {
	case ClassBlocked:
		if d, ok := c.source.(Degradable); ok {
			d.Degrade()
		}
		c.logger.Warn().
			Str("url", url).
			Int("max_attempts", c.cfg.MaxAttempts).
			Msg("persistent block, giving up on task")
		return "", lastErr
	case ClassNotFound:
		return "", lastErr
	default:
		return "", &Error{
			Class: class,
			URL:   url,
			Err:   fmt.Errorf("%w after %d attempts: %v", ErrRetryExhausted, c.cfg.MaxAttempts, lastErr),
		}
	}
}

// PoolSource adapts the browser session pool to the Source contract with
// scoped acquisition and guaranteed release. A session whose fetch errors
// is poisoned so the pool replaces it.
type PoolSource struct {
	Pool *browser.Pool
}

func (s *PoolSource) FetchPage(ctx context.Context, url string) (string, error) {
	lease, err := s.Pool.Acquire(ctx)
	if err != nil {
		return "", err
	}

	content, err := lease.Session().Fetch(ctx, url)
	lease.Release(err != nil)
	return content, err
}

func (s *PoolSource) Degrade() {
	s.Pool.Degrade()
}
