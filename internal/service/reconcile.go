package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/resumelane/platform/internal/domain"
	"github.com/resumelane/platform/internal/ledger"
	"github.com/resumelane/platform/internal/provider"
)

// PaymentEvent is a verified payment-provider event: a stable external id,
// the account it belongs to, and the resolved credit amount.
type PaymentEvent struct {
	ExternalEventID string    `json:"external_event_id"`
	AccountID       uuid.UUID `json:"account_id"`
	Credits         int64     `json:"credits"`
}

// ReconcileResult reports whether the event produced a new ledger effect.
type ReconcileResult struct {
	Applied    bool  `json:"applied"`
	NewBalance int64 `json:"new_balance"`
}

// ReconcileService translates verified payment-provider events into ledger
// credits. It performs no retries of its own; redelivered events are absorbed
// by the processed_events reservation inside the credit transaction.
type ReconcileService struct {
	pool   *pgxpool.Pool
	stripe *provider.StripeProvider
	engine *ledger.Engine
	logger *slog.Logger
}

// NewReconcileService creates a ReconcileService.
func NewReconcileService(pool *pgxpool.Pool, stripe *provider.StripeProvider, engine *ledger.Engine, logger *slog.Logger) *ReconcileService {
	return &ReconcileService{pool: pool, stripe: stripe, engine: engine, logger: logger}
}

// Reconcile applies a verified payment event to the ledger exactly once.
// A duplicate delivery returns Applied=false with the committed balance.
func (s *ReconcileService) Reconcile(ctx context.Context, event PaymentEvent) (*ReconcileResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, domain.ErrStorageUnavailable("begin tx", err)
	}
	defer tx.Rollback(ctx)

	result, err := s.engine.ExecuteCredit(ctx, tx, domain.CreditParams{
		AccountID:       event.AccountID,
		Amount:          event.Credits,
		Reason:          domain.ReasonPurchase,
		Reference:       event.ExternalEventID,
		ExternalEventID: event.ExternalEventID,
		Metadata:        json.RawMessage(`{"provider":"stripe"}`),
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, domain.ErrStorageUnavailable("commit tx", err)
	}

	if result.Idempotent {
		s.logger.Info("payment event already reconciled",
			"event_id", event.ExternalEventID, "account_id", event.AccountID)
	} else {
		s.logger.Info("payment reconciled",
			"event_id", event.ExternalEventID, "account_id", event.AccountID,
			"credits", event.Credits, "balance", result.Account.CreditBalance)
	}

	return &ReconcileResult{
		Applied:    !result.Idempotent,
		NewBalance: result.Account.CreditBalance,
	}, nil
}

// HandleStripeWebhook verifies a raw Stripe delivery and reconciles
// completed checkout sessions. Unknown event types are acknowledged and
// ignored so Stripe stops redelivering them.
func (s *ReconcileService) HandleStripeWebhook(ctx context.Context, payload []byte, sigHeader string) error {
	event, err := s.stripe.VerifyWebhookSignature(payload, sigHeader)
	if err != nil {
		return domain.ErrUnauthorized(fmt.Sprintf("webhook verification failed: %v", err))
	}

	switch event.Type {
	case "checkout.session.completed":
		return s.handleCheckoutCompleted(ctx, event)
	default:
		s.logger.Info("unhandled stripe event type", "type", event.Type)
		return nil
	}
}

func (s *ReconcileService) handleCheckoutCompleted(ctx context.Context, event *provider.StripeWebhookEvent) error {
	session, err := provider.ParseCheckoutSessionData(event.Data)
	if err != nil {
		return domain.ErrInternal("parse checkout session", err)
	}

	accountID, err := uuid.Parse(session.ClientReferenceID)
	if err != nil {
		// Not a session this service owns; acknowledge so Stripe stops retrying.
		s.logger.Warn("checkout session without account reference",
			"session_id", session.ID, "client_reference_id", session.ClientReferenceID)
		return nil
	}

	credits, err := session.Credits()
	if err != nil {
		s.logger.Warn("checkout session without resolved credits", "error", err)
		return nil
	}

	_, err = s.Reconcile(ctx, PaymentEvent{
		ExternalEventID: "stripe:" + event.ID,
		AccountID:       accountID,
		Credits:         credits,
	})
	return err
}
