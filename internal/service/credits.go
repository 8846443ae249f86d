package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/resumelane/platform/internal/domain"
	"github.com/resumelane/platform/internal/ledger"
	"github.com/resumelane/platform/internal/repository"
)

// CreditService is the accounting façade: the only path by which an account
// balance may change. It owns transaction boundaries; the ledger engine owns
// the invariants inside them.
type CreditService struct {
	pool     *pgxpool.Pool
	accounts repository.AccountRepository
	entries  repository.EntryRepository
	engine   *ledger.Engine
	logger   *slog.Logger
}

// NewCreditService creates a CreditService.
func NewCreditService(
	pool *pgxpool.Pool,
	accounts repository.AccountRepository,
	entries repository.EntryRepository,
	engine *ledger.Engine,
	logger *slog.Logger,
) *CreditService {
	return &CreditService{
		pool:     pool,
		accounts: accounts,
		entries:  entries,
		engine:   engine,
		logger:   logger,
	}
}

// Credit adds credits to an account in one atomic transaction.
func (s *CreditService) Credit(ctx context.Context, params domain.CreditParams) (*domain.CommandResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, domain.ErrStorageUnavailable("begin tx", err)
	}
	defer tx.Rollback(ctx)

	result, err := s.engine.ExecuteCredit(ctx, tx, params)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, domain.ErrStorageUnavailable("commit tx", err)
	}

	if result.Idempotent {
		s.logger.Info("credit skipped, event already processed",
			"account_id", params.AccountID, "event_id", params.ExternalEventID)
	} else {
		s.logger.Info("credit applied",
			"account_id", params.AccountID, "amount", params.Amount,
			"reason", params.Reason, "balance", result.Account.CreditBalance)
	}
	return result, nil
}

// Debit consumes credits from an account in one atomic transaction.
// The paid action must not proceed when this returns an error.
func (s *CreditService) Debit(ctx context.Context, params domain.DebitParams) (*domain.CommandResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, domain.ErrStorageUnavailable("begin tx", err)
	}
	defer tx.Rollback(ctx)

	result, err := s.engine.ExecuteDebit(ctx, tx, params)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, domain.ErrStorageUnavailable("commit tx", err)
	}

	if !result.Idempotent {
		s.logger.Info("debit applied",
			"account_id", params.AccountID, "amount", params.Amount,
			"reason", params.Reason, "balance", result.Account.CreditBalance)
	}
	return result, nil
}

// GetBalance returns the account's current credit balance.
func (s *CreditService) GetBalance(ctx context.Context, accountID uuid.UUID) (int64, error) {
	account, err := s.accounts.FindByID(ctx, s.pool, accountID)
	if err != nil {
		return 0, domain.ErrStorageUnavailable("find account", err)
	}
	if account == nil {
		return 0, domain.ErrNotFound("account", accountID.String())
	}
	return account.CreditBalance, nil
}

// GetAccount returns the full account row.
func (s *CreditService) GetAccount(ctx context.Context, accountID uuid.UUID) (*domain.Account, error) {
	account, err := s.accounts.FindByID(ctx, s.pool, accountID)
	if err != nil {
		return nil, domain.ErrStorageUnavailable("find account", err)
	}
	if account == nil {
		return nil, domain.ErrNotFound("account", accountID.String())
	}
	return account, nil
}

// ListEntries returns the account's ledger history, newest first.
func (s *CreditService) ListEntries(ctx context.Context, accountID uuid.UUID, cursor *string, limit int) ([]domain.LedgerEntry, error) {
	entries, err := s.entries.ListByAccount(ctx, s.pool, accountID, cursor, limit)
	if err != nil {
		return nil, domain.ErrStorageUnavailable("list entries", err)
	}
	return entries, nil
}

// CreateAccount provisions an account. An empty id means generate one.
func (s *CreditService) CreateAccount(ctx context.Context, id uuid.UUID, policy domain.DebitPolicy) (*domain.Account, error) {
	if id == uuid.Nil {
		id = uuid.New()
	}
	if policy == "" {
		policy = domain.DebitPolicyStandard
	}
	if !policy.Valid() {
		return nil, domain.ErrValidation("unrecognized debit policy: " + string(policy))
	}

	account := &domain.Account{ID: id, DebitPolicy: policy}
	if err := s.accounts.Create(ctx, s.pool, account); err != nil {
		return nil, domain.ErrStorageUnavailable("create account", err)
	}
	return s.GetAccount(ctx, id)
}

// SetDebitPolicy updates the account's debit policy (admin override).
func (s *CreditService) SetDebitPolicy(ctx context.Context, accountID uuid.UUID, policy domain.DebitPolicy) (*domain.Account, error) {
	if !policy.Valid() {
		return nil, domain.ErrValidation("unrecognized debit policy: " + string(policy))
	}
	account, err := s.accounts.SetDebitPolicy(ctx, s.pool, accountID, policy)
	if err != nil {
		return nil, domain.ErrStorageUnavailable("set debit policy", err)
	}
	if account == nil {
		return nil, domain.ErrNotFound("account", accountID.String())
	}
	s.logger.Info("debit policy changed", "account_id", accountID, "policy", policy)
	return account, nil
}

// Audit replays the account's ledger and checks the balance invariants.
func (s *CreditService) Audit(ctx context.Context, accountID uuid.UUID) (*ledger.AuditResult, error) {
	return s.engine.AuditAccount(ctx, s.pool, accountID)
}
