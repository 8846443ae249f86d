package ledger

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/resumelane/platform/internal/domain"
)

// ExecuteCredit adds credits to an account.
// Pattern: Lock → Idempotency → PostLedgerEntry
func (e *Engine) ExecuteCredit(ctx context.Context, tx pgx.Tx, params domain.CreditParams) (*domain.CommandResult, error) {
	if err := domain.ValidatePositiveAmount(params.Amount); err != nil {
		return nil, err
	}
	if err := domain.ValidateReason(params.Reason); err != nil {
		return nil, err
	}

	// Lock
	account, err := e.LockAccountForUpdate(ctx, tx, params.AccountID)
	if err != nil {
		return nil, fmt.Errorf("credit: %w", err)
	}

	// Idempotency reservation
	if params.ExternalEventID != "" {
		alreadySeen, existing, err := e.ReserveEvent(ctx, tx, params.ExternalEventID)
		if err != nil {
			return nil, err
		}
		if alreadySeen {
			return &domain.CommandResult{Entry: existing, Account: account, Idempotent: true}, nil
		}
	}

	entry, updated, err := e.PostLedgerEntry(ctx, tx, domain.PostLedgerEntryParams{
		AccountID:       params.AccountID,
		Delta:           params.Amount,
		Reason:          params.Reason,
		SourceReference: params.Reference,
		ExternalEventID: strPtr(params.ExternalEventID),
		Metadata:        ensureJSON(params.Metadata),
	})
	if err != nil {
		return nil, fmt.Errorf("credit post: %w", err)
	}

	return &domain.CommandResult{Entry: entry, Account: updated}, nil
}
