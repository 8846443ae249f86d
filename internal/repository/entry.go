package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/resumelane/platform/internal/domain"
)

type entryRepo struct{}

// NewEntryRepository returns a pgx-backed EntryRepository.
func NewEntryRepository() EntryRepository {
	return &entryRepo{}
}

const entryColumns = `seq_id, id, account_id, delta, reason, source_reference, external_event_id, balance_after, metadata, created_at`

func (r *entryRepo) Insert(ctx context.Context, db DBTX, params domain.PostLedgerEntryParams, balanceAfter int64) (*domain.LedgerEntry, error) {
	meta := params.Metadata
	if meta == nil {
		meta = json.RawMessage(`{}`)
	}

	row := db.QueryRow(ctx, `
		INSERT INTO ledger_entries
		  (account_id, delta, reason, source_reference, external_event_id, balance_after, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+entryColumns,
		params.AccountID,
		params.Delta,
		string(params.Reason),
		params.SourceReference,
		params.ExternalEventID,
		balanceAfter,
		meta,
	)
	return scanEntry(row)
}

func (r *entryRepo) FindByExternalEventID(ctx context.Context, db DBTX, eventID string) (*domain.LedgerEntry, error) {
	row := db.QueryRow(ctx, `
		SELECT `+entryColumns+`
		FROM ledger_entries WHERE external_event_id = $1`, eventID)
	return scanEntry(row)
}

func (r *entryRepo) ListByAccount(ctx context.Context, db DBTX, accountID uuid.UUID, cursor *string, limit int) ([]domain.LedgerEntry, error) {
	if limit <= 0 {
		limit = 20
	}

	var rows pgx.Rows
	var err error
	if cursor != nil {
		rows, err = db.Query(ctx, `
			SELECT `+entryColumns+`
			FROM ledger_entries
			WHERE account_id = $1
			  AND seq_id <= (SELECT seq_id FROM ledger_entries WHERE id = $2)
			ORDER BY seq_id DESC
			LIMIT $3`, accountID, *cursor, limit)
	} else {
		rows, err = db.Query(ctx, `
			SELECT `+entryColumns+`
			FROM ledger_entries
			WHERE account_id = $1
			ORDER BY seq_id DESC
			LIMIT $2`, accountID, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("query ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.LedgerEntry
	for rows.Next() {
		var e domain.LedgerEntry
		if err := rows.Scan(&e.SeqID, &e.ID, &e.AccountID, &e.Delta, &e.Reason, &e.SourceReference,
			&e.ExternalEventID, &e.BalanceAfter, &e.Metadata, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan ledger entry row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *entryRepo) SumByAccount(ctx context.Context, db DBTX, accountID uuid.UUID) (int64, int, error) {
	var sum int64
	var count int
	err := db.QueryRow(ctx, `
		SELECT COALESCE(SUM(delta), 0), COUNT(*)
		FROM ledger_entries WHERE account_id = $1`, accountID).Scan(&sum, &count)
	if err != nil {
		return 0, 0, fmt.Errorf("sum ledger entries: %w", err)
	}
	return sum, count, nil
}

func scanEntry(row pgx.Row) (*domain.LedgerEntry, error) {
	var e domain.LedgerEntry
	err := row.Scan(&e.SeqID, &e.ID, &e.AccountID, &e.Delta, &e.Reason, &e.SourceReference,
		&e.ExternalEventID, &e.BalanceAfter, &e.Metadata, &e.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan ledger entry: %w", err)
	}
	return &e, nil
}
