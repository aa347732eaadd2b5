package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"r6-tracker/internal/domain"

	"github.com/rs/zerolog"
)

// RecordRepository snapshots consolidated records for the persistent
// roster roles so a restart starts from the last known stats instead of
// an empty cache.
type RecordRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewRecordRepository(db *sql.DB, logger zerolog.Logger) *RecordRepository {
	return &RecordRepository{db: db, logger: logger}
}

type StoredRecord struct {
	Role   domain.Role
	Record *domain.ConsolidatedRecord
}

// SaveRecord upserts the record keyed by normalized identity.
func (r *RecordRepository) SaveRecord(ctx context.Context, role domain.Role, rec *domain.ConsolidatedRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO records (identity_key, platform, username, role, payload, updated_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(identity_key) DO UPDATE SET
			platform   = excluded.platform,
			username   = excluded.username,
			role       = excluded.role,
			payload    = excluded.payload,
			updated_at = excluded.updated_at`,
		rec.Identity.Key(), string(rec.Identity.Platform), rec.Identity.Username,
		string(role), string(payload),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert record: %w", err)
	}

	r.logger.Debug().
		Str("player", rec.Identity.String()).
		Str("role", string(role)).
		Msg("record snapshot saved")
	return nil
}

// LoadRecords returns all stored snapshots, used to warm the cache at
// startup.
func (r *RecordRepository) LoadRecords(ctx context.Context) ([]StoredRecord, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT role, payload FROM records")
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var out []StoredRecord
	for rows.Next() {
		var role, payload string
		if err := rows.Scan(&role, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		var rec domain.ConsolidatedRecord
		if err := json.Unmarshal([]byte(payload), &rec); err != nil {
			r.logger.Warn().Err(err).Str("role", role).Msg("skipping unreadable record snapshot")
			continue
		}
		out = append(out, StoredRecord{Role: domain.Role(role), Record: &rec})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate records: %w", err)
	}
	return out, nil
}

// DeleteRecord removes the snapshot for an identity, used when an ally
// is dropped from the roster.
func (r *RecordRepository) DeleteRecord(ctx context.Context, id domain.PlayerIdentity) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM records WHERE identity_key = ?", id.Key())
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	return nil
}
