package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/resumelane/platform/internal/domain"
)

type giftCodeRepo struct{}

// NewGiftCodeRepository returns a pgx-backed GiftCodeRepository.
func NewGiftCodeRepository() GiftCodeRepository {
	return &giftCodeRepo{}
}

const giftCodeColumns = `id, code, credit_value, max_redemptions, redemption_count, expires_at, status, created_at, updated_at`

func (r *giftCodeRepo) Create(ctx context.Context, db DBTX, gc *domain.GiftCode) error {
	_, err := db.Exec(ctx, `
		INSERT INTO gift_codes (id, code, credit_value, max_redemptions, expires_at, status)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		gc.ID, gc.Code, gc.CreditValue, gc.MaxRedemptions, gc.ExpiresAt, string(gc.Status))
	if err != nil {
		return fmt.Errorf("insert gift code: %w", err)
	}
	return nil
}

func (r *giftCodeRepo) FindByCode(ctx context.Context, db DBTX, code string) (*domain.GiftCode, error) {
	row := db.QueryRow(ctx, `
		SELECT `+giftCodeColumns+`
		FROM gift_codes WHERE code = $1`, code)
	return scanGiftCode(row)
}

func (r *giftCodeRepo) LockByCode(ctx context.Context, tx pgx.Tx, code string) (*domain.GiftCode, error) {
	row := tx.QueryRow(ctx, `
		SELECT `+giftCodeColumns+`
		FROM gift_codes WHERE code = $1 FOR UPDATE`, code)
	return scanGiftCode(row)
}

// ConsumeSlot performs the optimistic capped increment. The WHERE guard keeps
// a racing redemption from pushing redemption_count past max_redemptions even
// if the row lock was somehow bypassed.
func (r *giftCodeRepo) ConsumeSlot(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.GiftCode, error) {
	row := tx.QueryRow(ctx, `
		UPDATE gift_codes
		SET redemption_count = redemption_count + 1,
		    status = CASE WHEN redemption_count + 1 >= max_redemptions THEN 'exhausted' ELSE status END,
		    updated_at = now()
		WHERE id = $1 AND status = 'active' AND redemption_count < max_redemptions
		RETURNING `+giftCodeColumns, id)
	return scanGiftCode(row)
}

func (r *giftCodeRepo) SetStatus(ctx context.Context, db DBTX, id uuid.UUID, status domain.GiftCodeStatus) (*domain.GiftCode, error) {
	row := db.QueryRow(ctx, `
		UPDATE gift_codes SET status = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+giftCodeColumns, id, string(status))
	return scanGiftCode(row)
}

func (r *giftCodeRepo) InsertRedemption(ctx context.Context, db DBTX, red *domain.Redemption) error {
	_, err := db.Exec(ctx, `
		INSERT INTO redemptions (id, gift_code_id, account_id)
		VALUES ($1, $2, $3)`,
		red.ID, red.GiftCodeID, red.AccountID)
	if err != nil {
		return fmt.Errorf("insert redemption: %w", err)
	}
	return nil
}

func (r *giftCodeRepo) RedemptionExists(ctx context.Context, db DBTX, giftCodeID, accountID uuid.UUID) (bool, error) {
	var exists bool
	err := db.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM redemptions WHERE gift_code_id = $1 AND account_id = $2)`,
		giftCodeID, accountID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check redemption: %w", err)
	}
	return exists, nil
}

func scanGiftCode(row pgx.Row) (*domain.GiftCode, error) {
	var g domain.GiftCode
	err := row.Scan(&g.ID, &g.Code, &g.CreditValue, &g.MaxRedemptions, &g.RedemptionCount,
		&g.ExpiresAt, &g.Status, &g.CreatedAt, &g.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan gift code: %w", err)
	}
	return &g, nil
}
