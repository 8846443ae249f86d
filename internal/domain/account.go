package domain

import (
	"time"

	"github.com/google/uuid"
)

// DebitPolicy selects how debits are applied to an account.
type DebitPolicy string

const (
	// DebitPolicyStandard rejects any debit that would drive the balance negative.
	DebitPolicyStandard DebitPolicy = "standard"
	// DebitPolicyUnlimited is the admin override: debits always succeed and
	// the balance never drops below zero.
	DebitPolicyUnlimited DebitPolicy = "unlimited"
)

// Valid reports whether p is a recognized debit policy.
func (p DebitPolicy) Valid() bool {
	return p == DebitPolicyStandard || p == DebitPolicyUnlimited
}

// Account represents an accounts row. CreditBalance is a materialized
// projection over ledger_entries and is only ever written through the
// ledger engine.
type Account struct {
	ID            uuid.UUID   `json:"id"`
	CreditBalance int64       `json:"credit_balance"`
	DebitPolicy   DebitPolicy `json:"debit_policy"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// Unlimited reports whether the account bypasses balance checks on debit.
func (a *Account) Unlimited() bool {
	return a.DebitPolicy == DebitPolicyUnlimited
}
