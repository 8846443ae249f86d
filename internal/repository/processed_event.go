package repository

import (
	"context"
	"fmt"
)

type processedEventRepo struct{}

// NewProcessedEventRepository returns a pgx-backed ProcessedEventRepository.
func NewProcessedEventRepository() ProcessedEventRepository {
	return &processedEventRepo{}
}

// Reserve claims the event id inside the caller's transaction. A conflict on
// the unique constraint means the event already produced its effect; that is
// reported as alreadySeen, not as an error.
func (r *processedEventRepo) Reserve(ctx context.Context, db DBTX, eventID string) (bool, error) {
	tag, err := db.Exec(ctx, `
		INSERT INTO processed_events (external_event_id)
		VALUES ($1)
		ON CONFLICT (external_event_id) DO NOTHING`, eventID)
	if err != nil {
		return false, fmt.Errorf("reserve processed event: %w", err)
	}
	return tag.RowsAffected() == 0, nil
}
