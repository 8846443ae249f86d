package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/resumelane/platform/internal/domain"
)

func TestEvaluateDebit_StandardSufficientBalance(t *testing.T) {
	result := EvaluateDebit(domain.DebitPolicyStandard, 5, 3)
	assert.True(t, result.Allowed)
	assert.Equal(t, int64(-3), result.Delta)
}

func TestEvaluateDebit_StandardExactBalance(t *testing.T) {
	result := EvaluateDebit(domain.DebitPolicyStandard, 3, 3)
	assert.True(t, result.Allowed)
	assert.Equal(t, int64(-3), result.Delta)
}

func TestEvaluateDebit_StandardInsufficientBalance(t *testing.T) {
	result := EvaluateDebit(domain.DebitPolicyStandard, 2, 3)
	assert.False(t, result.Allowed)
	assert.Equal(t, int64(0), result.Delta)
}

func TestEvaluateDebit_StandardZeroBalance(t *testing.T) {
	result := EvaluateDebit(domain.DebitPolicyStandard, 0, 1)
	assert.False(t, result.Allowed)
}

func TestEvaluateDebit_UnlimitedCoveredAmount(t *testing.T) {
	result := EvaluateDebit(domain.DebitPolicyUnlimited, 10, 4)
	assert.True(t, result.Allowed)
	assert.Equal(t, int64(-4), result.Delta)
}

func TestEvaluateDebit_UnlimitedFloorsAtZero(t *testing.T) {
	result := EvaluateDebit(domain.DebitPolicyUnlimited, 2, 5)
	assert.True(t, result.Allowed)
	assert.Equal(t, int64(-2), result.Delta)
}

func TestEvaluateDebit_UnlimitedZeroBalance(t *testing.T) {
	result := EvaluateDebit(domain.DebitPolicyUnlimited, 0, 5)
	assert.True(t, result.Allowed)
	assert.Equal(t, int64(0), result.Delta)
}
