package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/resumelane/platform/internal/domain"
)

type accountRepo struct{}

// NewAccountRepository returns a pgx-backed AccountRepository.
func NewAccountRepository() AccountRepository {
	return &accountRepo{}
}

func (r *accountRepo) FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Account, error) {
	row := db.QueryRow(ctx, `
		SELECT id, credit_balance, debit_policy, created_at, updated_at
		FROM accounts WHERE id = $1`, id)
	return scanAccount(row)
}

func (r *accountRepo) LockForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Account, error) {
	row := tx.QueryRow(ctx, `
		SELECT id, credit_balance, debit_policy, created_at, updated_at
		FROM accounts WHERE id = $1 FOR UPDATE`, id)
	return scanAccount(row)
}

func (r *accountRepo) Create(ctx context.Context, db DBTX, account *domain.Account) error {
	_, err := db.Exec(ctx, `
		INSERT INTO accounts (id, credit_balance, debit_policy)
		VALUES ($1, $2, $3)`,
		account.ID, account.CreditBalance, string(account.DebitPolicy))
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

// ApplyDelta uses server-side arithmetic so the new balance is computed from
// the locked row, never from a value the caller read earlier.
func (r *accountRepo) ApplyDelta(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, delta int64) (*domain.Account, error) {
	row := tx.QueryRow(ctx, `
		UPDATE accounts
		SET credit_balance = credit_balance + $2, updated_at = now()
		WHERE id = $1
		RETURNING id, credit_balance, debit_policy, created_at, updated_at`,
		accountID, delta)
	return scanAccount(row)
}

func (r *accountRepo) SetDebitPolicy(ctx context.Context, db DBTX, accountID uuid.UUID, p domain.DebitPolicy) (*domain.Account, error) {
	row := db.QueryRow(ctx, `
		UPDATE accounts SET debit_policy = $2, updated_at = now()
		WHERE id = $1
		RETURNING id, credit_balance, debit_policy, created_at, updated_at`,
		accountID, string(p))
	return scanAccount(row)
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var a domain.Account
	err := row.Scan(&a.ID, &a.CreditBalance, &a.DebitPolicy, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan account: %w", err)
	}
	return &a, nil
}
