package fetch

import (
	"context"
	"errors"
	"testing"
	"time"

	"r6-tracker/internal/domain"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const challengeHTML = `<html><head><title>Just a moment...</title></head></html>`

// scriptedSource replays a fixed sequence of responses.
type scriptedSource struct {
	responses []response
	calls     int
	degraded  bool
}

type response struct {
	content string
	err     error
}

func (s *scriptedSource) FetchPage(ctx context.Context, url string) (string, error) {
	i := s.calls
	s.calls++
	if i >= len(s.responses) {
		i = len(s.responses) - 1
	}
	r := s.responses[i]
	return r.content, r.err
}

func (s *scriptedSource) Degrade() { s.degraded = true }

func fastRetry(attempts int) RetryConfig {
	return RetryConfig{
		MaxAttempts:    attempts,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		Multiplier:     2.0,
	}
}

func overviewTask(t *testing.T) Task {
	t.Helper()
	id, err := domain.NewPlayerIdentity("psn", "Alice")
	require.NoError(t, err)
	return Task{Identity: id, Kind: domain.PageOverview}
}

func TestFetchSuccessFirstAttempt(t *testing.T) {
	src := &scriptedSource{responses: []response{{content: "<html>profile</html>"}}}
	c := NewController(src, fastRetry(3), zerolog.Nop())

	content, err := c.Fetch(context.Background(), overviewTask(t))
	require.NoError(t, err)
	require.Equal(t, "<html>profile</html>", content)
	require.Equal(t, 1, src.calls)
}

func TestFetchRetriesTransientThenSucceeds(t *testing.T) {
	src := &scriptedSource{responses: []response{
		{err: errors.New("connection reset")},
		{content: "<html>profile</html>"},
	}}
	c := NewController(src, fastRetry(3), zerolog.Nop())

	content, err := c.Fetch(context.Background(), overviewTask(t))
	require.NoError(t, err)
	require.Equal(t, "<html>profile</html>", content)
	require.Equal(t, 2, src.calls)
}

func TestFetchGivesUpAfterAttemptBound(t *testing.T) {
	// Five consecutive blocks available, but the controller must stop at
	// its configured bound of three.
	src := &scriptedSource{responses: []response{
		{content: challengeHTML},
		{content: challengeHTML},
		{content: challengeHTML},
		{content: challengeHTML},
		{content: challengeHTML},
	}}
	c := NewController(src, fastRetry(3), zerolog.Nop())

	_, err := c.Fetch(context.Background(), overviewTask(t))
	require.Error(t, err)
	require.Equal(t, ClassBlocked, ClassOf(err))
	require.Equal(t, 3, src.calls)
}

func TestPersistentBlockDegradesSource(t *testing.T) {
	src := &scriptedSource{responses: []response{{content: challengeHTML}}}
	c := NewController(src, fastRetry(2), zerolog.Nop())

	_, err := c.Fetch(context.Background(), overviewTask(t))
	require.Error(t, err)
	require.True(t, src.degraded, "persistent block must degrade the source")
}

func TestBlockRecoveredWithinBoundDoesNotDegrade(t *testing.T) {
	src := &scriptedSource{responses: []response{
		{content: challengeHTML},
		{content: "<html>profile</html>"},
	}}
	c := NewController(src, fastRetry(3), zerolog.Nop())

	content, err := c.Fetch(context.Background(), overviewTask(t))
	require.NoError(t, err)
	require.Equal(t, "<html>profile</html>", content)
	require.False(t, src.degraded)
}

func TestNotFoundIsTerminal(t *testing.T) {
	src := &scriptedSource{responses: []response{
		{err: &Error{Class: ClassNotFound, Err: errors.New("status 404")}},
	}}
	c := NewController(src, fastRetry(3), zerolog.Nop())

	_, err := c.Fetch(context.Background(), overviewTask(t))
	require.Error(t, err)
	require.Equal(t, ClassNotFound, ClassOf(err))
	require.Equal(t, 1, src.calls, "not-found must not be retried")
}

func TestFetchStopsOnContextCancel(t *testing.T) {
	src := &scriptedSource{responses: []response{{err: errors.New("timeout")}}}
	c := NewController(src, RetryConfig{
		MaxAttempts:    5,
		InitialBackoff: time.Hour, // canceled context must win over backoff
		MaxBackoff:     time.Hour,
		Multiplier:     2.0,
	}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Fetch(ctx, overviewTask(t))
	require.Error(t, err)
	require.Equal(t, ClassTransient, ClassOf(err))
	require.Equal(t, 1, src.calls)
}

func TestIsChallenge(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    bool
	}{
		{"cloudflare interstitial", challengeHTML, true},
		{"challenge platform script", `<script src="/cdn-cgi/challenge-platform/x.js">`, true},
		{"profile page", "<html><body>Rank Points 4,120</body></html>", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, IsChallenge(tt.content))
		})
	}
}
