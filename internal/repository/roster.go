package repository

import (
	"context"
	"database/sql"
	"fmt"

	"r6-tracker/internal/domain"

	"github.com/rs/zerolog"
)

// RosterRepository persists the configured allies so roster edits made
// through the API survive restarts.
type RosterRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewRosterRepository(db *sql.DB, logger zerolog.Logger) *RosterRepository {
	return &RosterRepository{db: db, logger: logger}
}

// SaveAllies replaces the stored ally list with the given one.
func (r *RosterRepository) SaveAllies(ctx context.Context, allies []domain.PlayerIdentity) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM allies"); err != nil {
		return fmt.Errorf("failed to clear allies: %w", err)
	}
	for i, ally := range allies {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO allies (position, platform, username) VALUES (?, ?, ?)",
			i, string(ally.Platform), ally.Username,
		)
		if err != nil {
			return fmt.Errorf("failed to insert ally %s: %w", ally.String(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit allies: %w", err)
	}

	r.logger.Debug().Int("count", len(allies)).Msg("allies persisted")
	return nil
}

// LoadAllies returns the stored ally list in position order. An empty
// table yields an empty slice, not an error.
func (r *RosterRepository) LoadAllies(ctx context.Context) ([]domain.PlayerIdentity, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT platform, username FROM allies ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("failed to query allies: %w", err)
	}
	defer rows.Close()

	var allies []domain.PlayerIdentity
	for rows.Next() {
		var platform, username string
		if err := rows.Scan(&platform, &username); err != nil {
			return nil, fmt.Errorf("failed to scan ally: %w", err)
		}
		p, err := domain.ParsePlatform(platform)
		if err != nil {
			r.logger.Warn().Str("platform", platform).Msg("skipping ally with unknown platform")
			continue
		}
		allies = append(allies, domain.PlayerIdentity{Platform: p, Username: username})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate allies: %w", err)
	}
	return allies, nil
}
