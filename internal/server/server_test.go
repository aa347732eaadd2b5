package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"r6-tracker/internal/cache"
	"r6-tracker/internal/domain"
	"r6-tracker/internal/fetch"
	"r6-tracker/internal/scrape"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type stubFetcher struct{}

func (stubFetcher) Fetch(_ context.Context, task fetch.Task) (string, error) {
	return "page:" + task.URL(), nil
}

type stubExtractor struct{}

func (stubExtractor) Overview(string) (*domain.OverviewFragment, error) {
	return &domain.OverviewFragment{RankPoints: "4,120"}, nil
}

func (stubExtractor) Operators(string) (*domain.OperatorFragment, error) {
	return &domain.OperatorFragment{
		TopOperators: []domain.OperatorStat{{Name: "Sledge", KD: "1.20"}},
	}, nil
}

func testServer(t *testing.T) *httptest.Server {
	t.Helper()

	store := cache.New()
	orch := scrape.NewOrchestrator(stubFetcher{}, stubExtractor{}, store, zerolog.Nop())
	roster := domain.Roster{
		Main: domain.PlayerIdentity{Platform: domain.PlatformUbisoft, Username: "Shadow.Leg"},
	}
	svc := scrape.NewService(orch, store, nil, roster, zerolog.Nop())

	srv := httptest.NewServer(NewTrackerServer(svc, zerolog.Nop()).Routes())
	t.Cleanup(srv.Close)
	return srv
}

func TestScrapeEndpoint(t *testing.T) {
	srv := testServer(t)

	resp, err := http.Get(srv.URL + "/api/scrape")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Players []*domain.ConsolidatedRecord `json:"players"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Players, 1)
	require.Equal(t, "shadow.leg", strings.ToLower(body.Players[0].Identity.Username))
	require.Equal(t, domain.CompletenessFull, body.Players[0].Completeness)
}

func TestGetRoster(t *testing.T) {
	srv := testServer(t)

	resp, err := http.Get(srv.URL + "/api/roster")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var roster domain.Roster
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&roster))
	require.Equal(t, "Shadow.Leg", roster.Main.Username)
}

func TestUpdateRosterEnemies(t *testing.T) {
	srv := testServer(t)

	payload := `{"enemies":[{"platform":"psn","username":"enemy_one"},{"platform":"xbox","username":"enemy_two"}]}`
	resp, err := http.Post(srv.URL+"/api/roster", "application/json", strings.NewReader(payload))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var roster domain.Roster
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&roster))
	require.Len(t, roster.Enemies, 2)
	require.Equal(t, domain.PlatformPSN, roster.Enemies[0].Platform)
}

func TestUpdateRosterRejectsBadPlatform(t *testing.T) {
	srv := testServer(t)

	payload := `{"enemies":[{"platform":"steam","username":"nope"}]}`
	resp, err := http.Post(srv.URL+"/api/roster", "application/json", strings.NewReader(payload))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUpdateRosterRejectsOversizedEnemies(t *testing.T) {
	srv := testServer(t)

	payload := `{"enemies":[
		{"platform":"psn","username":"e1"},{"platform":"psn","username":"e2"},
		{"platform":"psn","username":"e3"},{"platform":"psn","username":"e4"},
		{"platform":"psn","username":"e5"},{"platform":"psn","username":"e6"}]}`
	resp, err := http.Post(srv.URL+"/api/roster", "application/json", strings.NewReader(payload))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUpdateRosterRequiresAField(t *testing.T) {
	srv := testServer(t)

	resp, err := http.Post(srv.URL+"/api/roster", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := testServer(t)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
