package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"r6-tracker/internal/constants"
	"r6-tracker/internal/domain"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// FetchMode selects how pages are fetched.
type FetchMode string

const (
	// FetchModeBrowser drives headless Chromium sessions with stealth.
	FetchModeBrowser FetchMode = "browser"
	// FetchModeHTTP fetches over plain HTTP with a bypass transport.
	// Cheaper, but the tracker renders most stats client-side, so this
	// mode only works while the site still serves server-rendered markup.
	FetchModeHTTP FetchMode = "http"
)

type Config struct {
	ServerPort       string
	DBPath           string
	RosterPath       string
	FetchMode        FetchMode
	BrowserRemoteURL string
	MaxSessions      int
	DegradedSessions int

	// Retry tuning. The block signature and backoff timings are tuned
	// against the live site and drift over time, so they are settings
	// rather than invariants.
	FetchAttempts  int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg := &Config{
		ServerPort:       getEnv("SERVER_PORT", "8080"),
		DBPath:           getEnv("DB_PATH", "r6tracker.db"),
		RosterPath:       getEnv("ROSTER_PATH", "players.yaml"),
		FetchMode:        FetchMode(getEnv("FETCH_MODE", string(FetchModeBrowser))),
		BrowserRemoteURL: getEnv("BROWSER_REMOTE_URL", ""),
		MaxSessions:      getEnvInt("MAX_SESSIONS", constants.MaxSessions),
		DegradedSessions: getEnvInt("DEGRADED_SESSIONS", constants.DegradedSessions),
		FetchAttempts:    getEnvInt("FETCH_ATTEMPTS", constants.MaxFetchAttempts),
		InitialBackoff:   getEnvDuration("INITIAL_BACKOFF", constants.InitialBackoff),
		MaxBackoff:       getEnvDuration("MAX_BACKOFF", constants.MaxBackoff),
	}

	if cfg.FetchMode != FetchModeBrowser && cfg.FetchMode != FetchModeHTTP {
		return nil, fmt.Errorf("invalid FETCH_MODE %q: use browser or http", cfg.FetchMode)
	}
	if cfg.MaxSessions < 1 || cfg.DegradedSessions < 1 {
		return nil, fmt.Errorf("session bounds must be positive")
	}

	logger.Info().
		Str("server_port", cfg.ServerPort).
		Str("db_path", cfg.DBPath).
		Str("roster_path", cfg.RosterPath).
		Str("fetch_mode", string(cfg.FetchMode)).
		Int("max_sessions", cfg.MaxSessions).
		Msg("configuration loaded")

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

type rosterPlayer struct {
	Platform string `yaml:"platform"`
	Username string `yaml:"username"`
}

type rosterFile struct {
	Main   rosterPlayer   `yaml:"main"`
	Allies []rosterPlayer `yaml:"allies"`
}

// LoadRoster reads the persisted self/allies roster from the YAML file.
// A malformed platform token is a configuration error, never defaulted.
func LoadRoster(path string) (domain.Roster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Roster{}, fmt.Errorf("roster file %s: %w", path, err)
	}
	return ParseRoster(data)
}

func ParseRoster(data []byte) (domain.Roster, error) {
	var file rosterFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return domain.Roster{}, fmt.Errorf("parse roster: %w", err)
	}

	main, err := domain.NewPlayerIdentity(file.Main.Platform, file.Main.Username)
	if err != nil {
		return domain.Roster{}, fmt.Errorf("main player: %w", err)
	}

	roster := domain.Roster{Main: main}
	for i, ally := range file.Allies {
		id, err := domain.NewPlayerIdentity(ally.Platform, ally.Username)
		if err != nil {
			return domain.Roster{}, fmt.Errorf("ally %d: %w", i+1, err)
		}
		roster.Allies = append(roster.Allies, id)
	}

	if err := roster.Validate(); err != nil {
		return domain.Roster{}, err
	}
	return roster, nil
}
