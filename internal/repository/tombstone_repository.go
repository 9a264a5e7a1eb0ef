package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/sma-faculty-api/internal/models"
)

// TombstoneRepository persists per-user hidden-item markers.
type TombstoneRepository struct {
	db *sqlx.DB
}

// NewTombstoneRepository constructs the repository.
func NewTombstoneRepository(db *sqlx.DB) *TombstoneRepository {
	return &TombstoneRepository{db: db}
}

// Upsert records a tombstone for (user, item). Re-hiding is a no-op thanks to
// the conflict clause, which is what keeps Hide idempotent.
func (r *TombstoneRepository) Upsert(ctx context.Context, tombstone *models.Tombstone) error {
	if tombstone.HiddenAt.IsZero() {
		tombstone.HiddenAt = time.Now().UTC()
	}
	const query = `INSERT INTO tombstones (user_id, item_id, item_type, hidden_at)
	VALUES (:user_id, :item_id, :item_type, :hidden_at)
	ON CONFLICT (user_id, item_id) DO NOTHING`
	if _, err := r.db.NamedExecContext(ctx, query, tombstone); err != nil {
		return fmt.Errorf("upsert tombstone: %w", err)
	}
	return nil
}

// Exists reports whether the user has hidden the item.
func (r *TombstoneRepository) Exists(ctx context.Context, userID, itemID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM tombstones WHERE user_id = $1 AND item_id = $2)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, userID, itemID); err != nil {
		return false, fmt.Errorf("check tombstone: %w", err)
	}
	return exists, nil
}

// HiddenIDs returns the subset of candidate ids the user has hidden, so a
// batch can be filtered with a single round trip.
func (r *TombstoneRepository) HiddenIDs(ctx context.Context, userID string, candidateIDs []string) ([]string, error) {
	if len(candidateIDs) == 0 {
		return nil, nil
	}
	const query = `SELECT item_id FROM tombstones WHERE user_id = $1 AND item_id = ANY($2)`
	var hidden []string
	if err := r.db.SelectContext(ctx, &hidden, query, userID, pq.Array(candidateIDs)); err != nil {
		return nil, fmt.Errorf("list hidden ids: %w", err)
	}
	return hidden, nil
}
