package constants

import "time"

const (
	// Session pool sizing. A full roster is 10 players x 2 pages, so the
	// normal bound covers one whole cycle in a single wave;
	// DegradedSessions applies after the target starts serving challenge
	// pages.
	MaxSessions      = 20
	DegradedSessions = 3
)

const (
	NavigateTimeout   = 30 * time.Second
	PageSettleDelay   = 2 * time.Second
	ChallengeWait     = 8 * time.Second
	PerIdentityBudget = 45 * time.Second
	CycleTimeout      = 2 * time.Minute
)

const (
	// Retry/bypass bounds. Backoff doubles per attempt with jitter.
	// Tuned empirically against the tracker site; override via env.
	MaxFetchAttempts = 3
	InitialBackoff   = 2 * time.Second
	MaxBackoff       = 20 * time.Second
	MalformedRetries = 1
)

const (
	HTTPFetchTimeout  = 30 * time.Second
	ProbeTimeout      = 5 * time.Second
	HTTPRatePerSecond = 2
	HTTPRateBurst     = 2
)

const (
	DatabaseTimeout = 5 * time.Second
	ShutdownTimeout = 5 * time.Second
)

const (
	DBMaxOpenConns    = 10
	DBMaxIdleConns    = 2
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
)
