package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/resumelane/platform/internal/domain"
)

// DBTX abstracts pgx.Tx and pgxpool.Pool so repositories work with both.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// AccountRepository provides access to accounts.
type AccountRepository interface {
	// FindByID returns an account by ID.
	FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Account, error)

	// LockForUpdate acquires a row-level lock (SELECT FOR UPDATE) and returns the account.
	LockForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Account, error)

	// Create inserts a new account.
	Create(ctx context.Context, db DBTX, account *domain.Account) error

	// ApplyDelta atomically moves the balance using server-side arithmetic.
	// Must be called with the account row already locked.
	ApplyDelta(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, delta int64) (*domain.Account, error)

	// SetDebitPolicy updates the account's debit policy.
	SetDebitPolicy(ctx context.Context, db DBTX, accountID uuid.UUID, p domain.DebitPolicy) (*domain.Account, error)
}

// EntryRepository provides access to ledger_entries.
type EntryRepository interface {
	// Insert creates a new ledger entry with the post-update balance snapshot.
	Insert(ctx context.Context, db DBTX, params domain.PostLedgerEntryParams, balanceAfter int64) (*domain.LedgerEntry, error)

	// FindByExternalEventID returns the entry a processed event produced, if any.
	FindByExternalEventID(ctx context.Context, db DBTX, eventID string) (*domain.LedgerEntry, error)

	// ListByAccount returns entries for an account, newest first, with
	// cursor-based pagination.
	ListByAccount(ctx context.Context, db DBTX, accountID uuid.UUID, cursor *string, limit int) ([]domain.LedgerEntry, error)

	// SumByAccount recomputes the balance from the append-only log.
	SumByAccount(ctx context.Context, db DBTX, accountID uuid.UUID) (sum int64, count int, err error)
}

// ProcessedEventRepository provides access to processed_events, the durable
// idempotency guard for at-least-once external deliveries.
type ProcessedEventRepository interface {
	// Reserve atomically inserts the event id. alreadySeen is true when a row
	// already existed; the unique-constraint hit is an outcome, not an error.
	Reserve(ctx context.Context, db DBTX, eventID string) (alreadySeen bool, err error)
}

// GiftCodeRepository provides access to gift_codes and redemptions.
type GiftCodeRepository interface {
	// Create inserts a new gift code.
	Create(ctx context.Context, db DBTX, gc *domain.GiftCode) error

	// FindByCode returns a gift code by its normalized code.
	FindByCode(ctx context.Context, db DBTX, code string) (*domain.GiftCode, error)

	// LockByCode acquires a row-level lock on the gift code.
	LockByCode(ctx context.Context, tx pgx.Tx, code string) (*domain.GiftCode, error)

	// ConsumeSlot increments redemption_count under the cap guard and flips
	// the status to exhausted when the cap is reached. Returns nil when no
	// slot was available.
	ConsumeSlot(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.GiftCode, error)

	// SetStatus transitions the code's status (revocation, lazy expiry).
	SetStatus(ctx context.Context, db DBTX, id uuid.UUID, status domain.GiftCodeStatus) (*domain.GiftCode, error)

	// InsertRedemption records the (code, account) join row.
	InsertRedemption(ctx context.Context, db DBTX, r *domain.Redemption) error

	// RedemptionExists reports whether the account already redeemed the code.
	RedemptionExists(ctx context.Context, db DBTX, giftCodeID, accountID uuid.UUID) (bool, error)
}

// OutboxRepository provides access to the event_outbox table.
type OutboxRepository interface {
	// Insert writes an outbox event (within the same transaction as the ledger entry).
	Insert(ctx context.Context, db DBTX, draft domain.OutboxDraft) error
}
