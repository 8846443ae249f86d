package policy

import "github.com/resumelane/platform/internal/domain"

// DebitEvaluation holds the result of applying a debit policy to a requested
// amount. Delta is the signed ledger delta to post when Allowed.
type DebitEvaluation struct {
	Allowed bool  `json:"allowed"`
	Delta   int64 `json:"delta"`
}

// EvaluateDebit decides how a debit of amount applies to an account with the
// given balance and policy.
//
// Standard accounts fail when the balance cannot cover the amount. Unlimited
// accounts always succeed; their balance is consumed down to a floor of zero
// so the ledger-sum invariant (balance == sum of deltas) holds even when the
// override bypasses the check.
func EvaluateDebit(p domain.DebitPolicy, balance, amount int64) DebitEvaluation {
	if p == domain.DebitPolicyUnlimited {
		delta := -amount
		if amount > balance {
			delta = -balance
		}
		return DebitEvaluation{Allowed: true, Delta: delta}
	}
	if balance < amount {
		return DebitEvaluation{Allowed: false}
	}
	return DebitEvaluation{Allowed: true, Delta: -amount}
}
