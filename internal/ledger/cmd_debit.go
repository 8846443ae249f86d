package ledger

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/resumelane/platform/internal/domain"
	"github.com/resumelane/platform/internal/policy"
)

// ExecuteDebit consumes credits from an account. The balance check happens
// against the locked row, so two racing debits serialize and the loser sees
// the post-commit balance.
func (e *Engine) ExecuteDebit(ctx context.Context, tx pgx.Tx, params domain.DebitParams) (*domain.CommandResult, error) {
	if err := domain.ValidatePositiveAmount(params.Amount); err != nil {
		return nil, err
	}
	if err := domain.ValidateReason(params.Reason); err != nil {
		return nil, err
	}

	// Lock
	account, err := e.LockAccountForUpdate(ctx, tx, params.AccountID)
	if err != nil {
		return nil, fmt.Errorf("debit: %w", err)
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

	eval := policy.EvaluateDebit(account.DebitPolicy, account.CreditBalance, params.Amount)
	if !eval.Allowed {
		return nil, domain.ErrInsufficientCredit()
	}

	meta := params.Metadata
	if account.Unlimited() && eval.Delta != -params.Amount {
		// The override clamped the delta; keep the requested amount on record.
		meta = mergeMeta(meta, map[string]interface{}{
			"requested_amount": params.Amount,
			"debit_policy":     string(account.DebitPolicy),
		})
	}

	entry, updated, err := e.PostLedgerEntry(ctx, tx, domain.PostLedgerEntryParams{
		AccountID:       params.AccountID,
		Delta:           eval.Delta,
		Reason:          params.Reason,
		SourceReference: params.Reference,
		ExternalEventID: strPtr(params.ExternalEventID),
		Metadata:        ensureJSON(meta),
	})
	if err != nil {
		return nil, fmt.Errorf("debit post: %w", err)
	}

	return &domain.CommandResult{Entry: entry, Account: updated}, nil
}

func mergeMeta(base json.RawMessage, extra map[string]interface{}) json.RawMessage {
	merged := make(map[string]interface{})
	if len(base) > 0 {
		_ = json.Unmarshal(base, &merged)
	}
	for k, v := range extra {
		merged[k] = v
	}
	out, _ := json.Marshal(merged)
	return out
}
