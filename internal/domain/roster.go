package domain

import "fmt"

const (
	MaxAllies  = 4
	MaxEnemies = 5
)

type Role string

const (
	RoleMain  Role = "main"
	RoleAlly  Role = "ally"
	RoleEnemy Role = "enemy"
)

// RosterEntry is one slot of a roster in presentation order.
type RosterEntry struct {
	Role     Role           `json:"role"`
	Index    int            `json:"index"` // 1-based within the role, 0 for main
	Identity PlayerIdentity `json:"identity"`
	Force    bool           `json:"-"` // per-identity force refresh
}

// Roster is the ordered set of players for one match: the configured
// self/allies plus the ephemeral enemies entered per match.
type Roster struct {
	Main    PlayerIdentity   `json:"main"`
	Allies  []PlayerIdentity `json:"allies"`
	Enemies []PlayerIdentity `json:"enemies"`
}

func (r Roster) Validate() error {
	if r.Main.IsZero() {
		return fmt.Errorf("roster: main player is required")
	}
	if len(r.Allies) > MaxAllies {
		return fmt.Errorf("roster: at most %d allies, got %d", MaxAllies, len(r.Allies))
	}
	if len(r.Enemies) > MaxEnemies {
		return fmt.Errorf("roster: at most %d enemies, got %d", MaxEnemies, len(r.Enemies))
	}
	return nil
}

// Entries returns the roster in presentation order: main, allies, enemies.
// Completion order of scraping never changes this order.
func (r Roster) Entries() []RosterEntry {
	entries := make([]RosterEntry, 0, 1+len(r.Allies)+len(r.Enemies))
	entries = append(entries, RosterEntry{Role: RoleMain, Index: 0, Identity: r.Main})
	for i, a := range r.Allies {
		entries = append(entries, RosterEntry{Role: RoleAlly, Index: i + 1, Identity: a})
	}
	for i, e := range r.Enemies {
		entries = append(entries, RosterEntry{Role: RoleEnemy, Index: i + 1, Identity: e})
	}
	return entries
}
