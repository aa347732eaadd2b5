package fetch

import "r6-tracker/internal/domain"

// Task is the unit of work of a scrape cycle: one page kind for one
// player identity.
type Task struct {
	Identity domain.PlayerIdentity
	Kind     domain.PageKind
}

func (t Task) URL() string {
	return t.Identity.PageURL(t.Kind)
}
