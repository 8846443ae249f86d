package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/resumelane/platform/internal/domain"
	"github.com/resumelane/platform/internal/ledger"
	"github.com/resumelane/platform/internal/repository"
)

// GiftCodeService validates and consumes promotional codes.
type GiftCodeService struct {
	pool      *pgxpool.Pool
	giftCodes repository.GiftCodeRepository
	outbox    repository.OutboxRepository
	engine    *ledger.Engine
	logger    *slog.Logger
}

// NewGiftCodeService creates a GiftCodeService.
func NewGiftCodeService(
	pool *pgxpool.Pool,
	giftCodes repository.GiftCodeRepository,
	outbox repository.OutboxRepository,
	engine *ledger.Engine,
	logger *slog.Logger,
) *GiftCodeService {
	return &GiftCodeService{
		pool:      pool,
		giftCodes: giftCodes,
		outbox:    outbox,
		engine:    engine,
		logger:    logger,
	}
}

// RedemptionResult is the outcome of a successful (or idempotently repeated)
// redemption.
type RedemptionResult struct {
	NewBalance int64               `json:"new_balance"`
	Credits    int64               `json:"credits"`
	Entry      *domain.LedgerEntry `json:"entry,omitempty"`
	Idempotent bool                `json:"idempotent"`
}

// Redeem consumes one slot of the code and credits the account, atomically.
// The slot consumption and the credit either both commit or neither does.
//
// Lock order: account row first, then the gift code row. Every ledger
// operation in this service takes locks in that order, so concurrent
// redemptions and debits cannot deadlock.
func (s *GiftCodeService) Redeem(ctx context.Context, rawCode string, accountID uuid.UUID) (*RedemptionResult, error) {
	code := domain.NormalizeGiftCode(rawCode)
	if code == "" {
		return nil, domain.ErrValidation("gift code is required")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, domain.ErrStorageUnavailable("begin tx", err)
	}
	defer tx.Rollback(ctx)

	if _, err := s.engine.LockAccountForUpdate(ctx, tx, accountID); err != nil {
		return nil, err
	}

	gc, err := s.giftCodes.LockByCode(ctx, tx, code)
	if err != nil {
		return nil, domain.ErrStorageUnavailable("lock gift code", err)
	}
	if gc == nil {
		return nil, domain.ErrNotFound("gift code", code)
	}

	switch gc.Status {
	case domain.GiftCodeRevoked:
		return nil, domain.ErrGiftCodeRevoked(code)
	case domain.GiftCodeExhausted:
		return nil, domain.ErrGiftCodeExhausted(code)
	case domain.GiftCodeExpired:
		return nil, domain.ErrGiftCodeExpired(code)
	}

	if gc.ExpiredAt(time.Now()) {
		// Materialize the lazy transition so later lookups short-circuit.
		if _, err := s.giftCodes.SetStatus(ctx, tx, gc.ID, domain.GiftCodeExpired); err != nil {
			return nil, domain.ErrStorageUnavailable("expire gift code", err)
		}
		if err := tx.Commit(ctx); err != nil {
			return nil, domain.ErrStorageUnavailable("commit tx", err)
		}
		return nil, domain.ErrGiftCodeExpired(code)
	}

	redeemed, err := s.giftCodes.RedemptionExists(ctx, tx, gc.ID, accountID)
	if err != nil {
		return nil, domain.ErrStorageUnavailable("check redemption", err)
	}
	if redeemed {
		return nil, domain.ErrAlreadyRedeemed(code)
	}

	consumed, err := s.giftCodes.ConsumeSlot(ctx, tx, gc.ID)
	if err != nil {
		return nil, domain.ErrStorageUnavailable("consume slot", err)
	}
	if consumed == nil {
		return nil, domain.ErrGiftCodeExhausted(code)
	}

	if err := s.giftCodes.InsertRedemption(ctx, tx, &domain.Redemption{
		ID:         uuid.New(),
		GiftCodeID: gc.ID,
		AccountID:  accountID,
	}); err != nil {
		return nil, domain.ErrStorageUnavailable("insert redemption", err)
	}

	result, err := s.engine.ExecuteCredit(ctx, tx, domain.CreditParams{
		AccountID:       accountID,
		Amount:          gc.CreditValue,
		Reason:          domain.ReasonGiftCode,
		Reference:       gc.ID.String(),
		ExternalEventID: domain.GiftCodeEventID(code, accountID),
	})
	if err != nil {
		return nil, err
	}

	if err := s.outbox.Insert(ctx, tx, domain.NewGiftCodeRedeemedEvent(consumed, accountID, result.Entry)); err != nil {
		return nil, domain.ErrStorageUnavailable("insert outbox event", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, domain.ErrStorageUnavailable("commit tx", err)
	}

	s.logger.Info("gift code redeemed",
		"code", code, "account_id", accountID,
		"credits", gc.CreditValue, "remaining", consumed.MaxRedemptions-consumed.RedemptionCount)

	return &RedemptionResult{
		NewBalance: result.Account.CreditBalance,
		Credits:    gc.CreditValue,
		Entry:      result.Entry,
		Idempotent: result.Idempotent,
	}, nil
}

// Create registers a new gift code (administrative action).
func (s *GiftCodeService) Create(ctx context.Context, rawCode string, creditValue int64, maxRedemptions int, expiresAt *time.Time) (*domain.GiftCode, error) {
	code := domain.NormalizeGiftCode(rawCode)
	if err := domain.ValidateGiftCodeSpec(code, creditValue, maxRedemptions, expiresAt); err != nil {
		return nil, err
	}

	existing, err := s.giftCodes.FindByCode(ctx, s.pool, code)
	if err != nil {
		return nil, domain.ErrStorageUnavailable("find gift code", err)
	}
	if existing != nil {
		return nil, domain.ErrConflict("gift code already exists: " + code)
	}

	gc := &domain.GiftCode{
		ID:             uuid.New(),
		Code:           code,
		CreditValue:    creditValue,
		MaxRedemptions: maxRedemptions,
		ExpiresAt:      expiresAt,
		Status:         domain.GiftCodeActive,
	}
	if err := s.giftCodes.Create(ctx, s.pool, gc); err != nil {
		return nil, domain.ErrStorageUnavailable("create gift code", err)
	}

	s.logger.Info("gift code created",
		"code", code, "credits", creditValue, "max_redemptions", maxRedemptions)
	return s.Get(ctx, code)
}

// Revoke is the terminal administrative transition. It is allowed from any
// status and never deletes the row.
func (s *GiftCodeService) Revoke(ctx context.Context, rawCode string) (*domain.GiftCode, error) {
	code := domain.NormalizeGiftCode(rawCode)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, domain.ErrStorageUnavailable("begin tx", err)
	}
	defer tx.Rollback(ctx)

	gc, err := s.giftCodes.LockByCode(ctx, tx, code)
	if err != nil {
		return nil, domain.ErrStorageUnavailable("lock gift code", err)
	}
	if gc == nil {
		return nil, domain.ErrNotFound("gift code", code)
	}

	revoked, err := s.giftCodes.SetStatus(ctx, tx, gc.ID, domain.GiftCodeRevoked)
	if err != nil {
		return nil, domain.ErrStorageUnavailable("revoke gift code", err)
	}

	if err := s.outbox.Insert(ctx, tx, domain.NewGiftCodeRevokedEvent(revoked)); err != nil {
		return nil, domain.ErrStorageUnavailable("insert outbox event", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, domain.ErrStorageUnavailable("commit tx", err)
	}

	s.logger.Info("gift code revoked", "code", code)
	return revoked, nil
}

// Get returns a gift code by its (raw) code.
func (s *GiftCodeService) Get(ctx context.Context, rawCode string) (*domain.GiftCode, error) {
	code := domain.NormalizeGiftCode(rawCode)
	gc, err := s.giftCodes.FindByCode(ctx, s.pool, code)
	if err != nil {
		return nil, domain.ErrStorageUnavailable("find gift code", err)
	}
	if gc == nil {
		return nil, domain.ErrNotFound("gift code", code)
	}
	return gc, nil
}
