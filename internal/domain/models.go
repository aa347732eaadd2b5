package domain

import (
	"time"
)

// Stat values are kept as the formatted strings the tracker renders
// ("1,697h", "64.4%", "N/A"); the presentation layer shows them verbatim.
const StatUnavailable = "N/A"

type MatchSummary struct {
	Result      string `json:"result"` // "Win", "Loss" or "Unknown"
	Map         string `json:"map"`
	Mode        string `json:"mode"`
	Score       string `json:"score"`
	KD          string `json:"kd"`
	Kills       string `json:"kills"`
	Deaths      string `json:"deaths"`
	Assists     string `json:"assists"`
	HeadshotPct string `json:"headshotPct"`
}

type OverviewFragment struct {
	RankPoints      string         `json:"rankPoints"`
	RankImageURL    string         `json:"rankImageUrl"`
	SeasonKD        string         `json:"seasonKd"`
	SeasonWinRate   string         `json:"seasonWinRate"`
	SeasonMatches   string         `json:"seasonMatches"`
	LifetimeLevel   string         `json:"lifetimeLevel"`
	LifetimeMatches string         `json:"lifetimeMatches"`
	TimePlayed      string         `json:"timePlayed"`
	BestRankName    string         `json:"bestRankName"`
	BestRankRP      string         `json:"bestRankRp"`
	BestRankImage   string         `json:"bestRankImageUrl"`
	LastMatches     []MatchSummary `json:"lastMatches"` // at most 4
}

type OperatorStat struct {
	Name         string `json:"name"`
	ImageURL     string `json:"imageUrl"`
	RoundsPlayed string `json:"roundsPlayed"`
	KD           string `json:"kd"`
	WinPct       string `json:"winPct"`
	HeadshotPct  string `json:"headshotPct"`
}

type OperatorFragment struct {
	TopOperators []OperatorStat `json:"topOperators"` // at most 4
}

type Completeness string

const (
	CompletenessFull          Completeness = "full"
	CompletenessOverviewOnly  Completeness = "partial_overview_only"
	CompletenessOperatorsOnly Completeness = "partial_operators_only"
	CompletenessEmpty         Completeness = "empty"
)

// ComputeCompleteness is the single source of truth for how much of a
// record was obtained. A record is never Full with a fragment missing.
func ComputeCompleteness(hasOverview, hasOperators bool) Completeness {
	switch {
	case hasOverview && hasOperators:
		return CompletenessFull
	case hasOverview:
		return CompletenessOverviewOnly
	case hasOperators:
		return CompletenessOperatorsOnly
	default:
		return CompletenessEmpty
	}
}

// ConsolidatedRecord is the merged per-player result of one scrape cycle.
// The orchestrator mutates it at most twice (once per fragment) and then
// freezes it via Finalize.
type ConsolidatedRecord struct {
	Identity     PlayerIdentity    `json:"identity"`
	TrackerURL   string            `json:"trackerUrl"`
	Overview     *OverviewFragment `json:"overview,omitempty"`
	Operators    *OperatorFragment `json:"operators,omitempty"`
	Completeness Completeness      `json:"completeness"`
	// Error describes why data is missing when completeness is not Full,
	// e.g. "profile not found". Informational only.
	Error       string    `json:"error,omitempty"`
	LastUpdated time.Time `json:"lastUpdated"`
}

func NewConsolidatedRecord(id PlayerIdentity) *ConsolidatedRecord {
	return &ConsolidatedRecord{
		Identity:     id,
		TrackerURL:   id.PageURL(PageOverview),
		Completeness: CompletenessEmpty,
	}
}

// Finalize stamps the record and derives its completeness from the
// fragments actually present.
func (r *ConsolidatedRecord) Finalize(now time.Time) {
	r.Completeness = ComputeCompleteness(r.Overview != nil, r.Operators != nil)
	r.LastUpdated = now
}

// Clone returns a deep copy so cached records never alias the caller's.
func (r *ConsolidatedRecord) Clone() *ConsolidatedRecord {
	cp := *r
	if r.Overview != nil {
		ov := *r.Overview
		ov.LastMatches = append([]MatchSummary(nil), r.Overview.LastMatches...)
		cp.Overview = &ov
	}
	if r.Operators != nil {
		ops := *r.Operators
		ops.TopOperators = append([]OperatorStat(nil), r.Operators.TopOperators...)
		cp.Operators = &ops
	}
	return &cp
}
