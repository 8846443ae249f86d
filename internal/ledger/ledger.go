package ledger

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/resumelane/platform/internal/domain"
	"github.com/resumelane/platform/internal/repository"
)

// Engine provides the 3 foundational ledger operations:
//  1. LockAccountForUpdate: row-level pessimistic lock
//  2. ReserveEvent: durable idempotency reservation
//  3. PostLedgerEntry: atomic balance update + append-only insert + outbox event
//
// Every command runs inside a caller-owned pgx.Tx so all effects commit or
// roll back together. Locks are always taken in the same order: account row,
// then gift code row, then insert-only tables.
type Engine struct {
	accounts repository.AccountRepository
	entries  repository.EntryRepository
	events   repository.ProcessedEventRepository
	outbox   repository.OutboxRepository
}

// NewEngine creates a ledger engine with the given repositories.
func NewEngine(
	accounts repository.AccountRepository,
	entries repository.EntryRepository,
	events repository.ProcessedEventRepository,
	outbox repository.OutboxRepository,
) *Engine {
	return &Engine{
		accounts: accounts,
		entries:  entries,
		events:   events,
		outbox:   outbox,
	}
}

// LockAccountForUpdate acquires a row-level lock and returns the account.
// Must be called within a transaction.
func (e *Engine) LockAccountForUpdate(ctx context.Context, tx pgx.Tx, accountID uuid.UUID) (*domain.Account, error) {
	account, err := e.accounts.LockForUpdate(ctx, tx, accountID)
	if err != nil {
		return nil, fmt.Errorf("lock account: %w", err)
	}
	if account == nil {
		return nil, domain.ErrNotFound("account", accountID.String())
	}
	return account, nil
}

// ReserveEvent claims an external event id. When the event was already seen
// it resolves the entry the earlier delivery produced, so callers can report
// the committed state instead of re-applying the effect. A reservation with
// no matching entry means the key was claimed by a flow that posts no ledger
// entry for it; the retry cannot resolve the committed state and is rejected.
func (e *Engine) ReserveEvent(ctx context.Context, tx pgx.Tx, eventID string) (alreadySeen bool, existing *domain.LedgerEntry, err error) {
	alreadySeen, err = e.events.Reserve(ctx, tx, eventID)
	if err != nil {
		return false, nil, err
	}
	if !alreadySeen {
		return false, nil, nil
	}
	existing, err = e.entries.FindByExternalEventID(ctx, tx, eventID)
	if err != nil {
		return true, nil, fmt.Errorf("find existing entry: %w", err)
	}
	if existing == nil {
		return true, nil, domain.ErrAlreadyProcessed(eventID)
	}
	return true, existing, nil
}

// PostLedgerEntry atomically moves the balance and appends the ledger entry.
// This is the only write path for accounts.credit_balance.
//
// Steps:
//  1. Apply the delta with server-side arithmetic on the locked row
//  2. Insert the entry with the post-update balance snapshot
//  3. Insert the outbox event
func (e *Engine) PostLedgerEntry(ctx context.Context, tx pgx.Tx, params domain.PostLedgerEntryParams) (*domain.LedgerEntry, *domain.Account, error) {
	updated, err := e.accounts.ApplyDelta(ctx, tx, params.AccountID, params.Delta)
	if err != nil {
		return nil, nil, fmt.Errorf("apply delta: %w", err)
	}
	if updated == nil {
		return nil, nil, domain.ErrNotFound("account", params.AccountID.String())
	}

	entry, err := e.entries.Insert(ctx, tx, params, updated.CreditBalance)
	if err != nil {
		return nil, nil, fmt.Errorf("insert ledger entry: %w", err)
	}

	if err := e.outbox.Insert(ctx, tx, domain.NewEntryPostedEvent(entry)); err != nil {
		return nil, nil, fmt.Errorf("insert outbox event: %w", err)
	}

	return entry, updated, nil
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func ensureJSON(data json.RawMessage) json.RawMessage {
	if data == nil {
		return json.RawMessage(`{}`)
	}
	return data
}
