//go:build integration

package integration

import (
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resumelane/platform/test/integration/testutil"
)

func TestGetBalance(t *testing.T) {
	env := testutil.NewTestEnv(t)
	_, token := env.CreateAccount(7, "standard")

	resp := env.AuthGET("/credits/balance", token)
	testutil.AssertStatus(t, resp, http.StatusOK)

	var body struct {
		Balance     int64  `json:"balance"`
		DebitPolicy string `json:"debit_policy"`
	}
	testutil.DecodeJSON(t, resp, &body)
	assert.Equal(t, int64(7), body.Balance)
	assert.Equal(t, "standard", body.DebitPolicy)
}

func TestGetBalance_RequiresAuth(t *testing.T) {
	env := testutil.NewTestEnv(t)

	resp := env.GET("/credits/balance")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestDebit_SequentialDrain(t *testing.T) {
	env := testutil.NewTestEnv(t)
	accountID, token := env.CreateAccount(3, "standard")

	// Three debits drain 3 -> 2 -> 1 -> 0
	for i, ref := range []string{"analysis-a", "analysis-b", "analysis-c"} {
		resp := env.POST("/credits/debit", map[string]interface{}{
			"amount": 1, "reference": ref,
		}, token)
		testutil.AssertStatus(t, resp, http.StatusOK)

		var body struct {
			NewBalance int64 `json:"new_balance"`
		}
		testutil.DecodeJSON(t, resp, &body)
		assert.Equal(t, int64(2-i), body.NewBalance)
	}

	// Fourth debit fails without altering the balance
	resp := env.POST("/credits/debit", map[string]interface{}{
		"amount": 1, "reference": "analysis-d",
	}, token)
	testutil.AssertStatus(t, resp, http.StatusPaymentRequired)
	testutil.AssertErrorCode(t, resp, "INSUFFICIENT_CREDIT")

	testutil.AssertBalance(t, env, accountID, 0)
	testutil.AssertLedgerSum(t, env, accountID)
}

func TestDebit_ConcurrentExactlyOneWins(t *testing.T) {
	env := testutil.NewTestEnv(t)
	accountID, token := env.CreateAccount(1, "standard")

	const workers = 8
	statuses := make([]int, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			resp := env.POST("/credits/debit", map[string]interface{}{
				"amount": 1, "reference": string(rune('a'+n)) + "-race",
			}, token)
			statuses[n] = resp.StatusCode
			resp.Body.Close()
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, s := range statuses {
		if s == http.StatusOK {
			succeeded++
		} else {
			assert.Equal(t, http.StatusPaymentRequired, s)
		}
	}
	assert.Equal(t, 1, succeeded, "exactly one concurrent debit must win")

	testutil.AssertBalance(t, env, accountID, 0)
	testutil.AssertLedgerSum(t, env, accountID)
}

func TestDebit_IdempotentRetrySameReference(t *testing.T) {
	env := testutil.NewTestEnv(t)
	accountID, token := env.CreateAccount(5, "standard")

	body := map[string]interface{}{"amount": 2, "reference": "analysis-retry"}

	resp := env.POST("/credits/debit", body, token)
	testutil.AssertStatus(t, resp, http.StatusOK)
	var first struct {
		NewBalance int64 `json:"new_balance"`
		Idempotent bool  `json:"idempotent"`
	}
	testutil.DecodeJSON(t, resp, &first)
	assert.Equal(t, int64(3), first.NewBalance)
	assert.False(t, first.Idempotent)

	// Same reference is a retry, not a second charge
	resp = env.POST("/credits/debit", body, token)
	testutil.AssertStatus(t, resp, http.StatusOK)
	var second struct {
		Idempotent bool `json:"idempotent"`
	}
	testutil.DecodeJSON(t, resp, &second)
	assert.True(t, second.Idempotent)

	testutil.AssertBalance(t, env, accountID, 3)
}

func TestDebit_SameReferenceAcrossAccountsChargesBoth(t *testing.T) {
	env := testutil.NewTestEnv(t)
	aID, aToken := env.CreateAccount(5, "standard")
	bID, bToken := env.CreateAccount(5, "standard")

	body := map[string]interface{}{"amount": 2, "reference": "resume-shared"}

	resp := env.POST("/credits/debit", body, aToken)
	testutil.AssertStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	// Account B reusing A's reference is a fresh debit, not a replay of A's
	resp = env.POST("/credits/debit", body, bToken)
	testutil.AssertStatus(t, resp, http.StatusOK)
	var second struct {
		NewBalance int64 `json:"new_balance"`
		Idempotent bool  `json:"idempotent"`
		Entry      *struct {
			AccountID string `json:"account_id"`
		} `json:"entry"`
	}
	testutil.DecodeJSON(t, resp, &second)
	assert.False(t, second.Idempotent)
	assert.Equal(t, int64(3), second.NewBalance)
	require.NotNil(t, second.Entry)
	assert.Equal(t, bID.String(), second.Entry.AccountID)

	testutil.AssertBalance(t, env, aID, 3)
	testutil.AssertBalance(t, env, bID, 3)
}

func TestDebit_UnlimitedPolicyFloorsAtZero(t *testing.T) {
	env := testutil.NewTestEnv(t)
	accountID, token := env.CreateAccount(0, "unlimited")

	resp := env.POST("/credits/debit", map[string]interface{}{
		"amount": 1, "reference": "analysis-free",
	}, token)
	testutil.AssertStatus(t, resp, http.StatusOK)

	var body struct {
		NewBalance int64 `json:"new_balance"`
	}
	testutil.DecodeJSON(t, resp, &body)
	assert.Equal(t, int64(0), body.NewBalance)

	testutil.AssertBalance(t, env, accountID, 0)
	testutil.AssertLedgerSum(t, env, accountID)
}

func TestDebit_RejectsNonPositiveAmount(t *testing.T) {
	env := testutil.NewTestEnv(t)
	_, token := env.CreateAccount(5, "standard")

	for _, amount := range []int64{0, -3} {
		resp := env.POST("/credits/debit", map[string]interface{}{
			"amount": amount, "reference": "bad-amount",
		}, token)
		testutil.AssertStatus(t, resp, http.StatusBadRequest)
		resp.Body.Close()
	}
}

func TestListEntries_Paginates(t *testing.T) {
	env := testutil.NewTestEnv(t)
	_, token := env.CreateAccount(10, "standard")

	for _, ref := range []string{"e1", "e2", "e3"} {
		resp := env.POST("/credits/debit", map[string]interface{}{
			"amount": 1, "reference": ref,
		}, token)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()
	}

	resp := env.AuthGET("/credits/entries?limit=2", token)
	testutil.AssertStatus(t, resp, http.StatusOK)

	var page struct {
		Entries []struct {
			Delta int64 `json:"delta"`
		} `json:"entries"`
		NextCursor *string `json:"next_cursor"`
	}
	testutil.DecodeJSON(t, resp, &page)
	assert.Len(t, page.Entries, 2)
	require.NotNil(t, page.NextCursor)

	resp = env.AuthGET("/credits/entries?limit=10&cursor="+*page.NextCursor, token)
	testutil.AssertStatus(t, resp, http.StatusOK)

	var rest struct {
		Entries    []struct{} `json:"entries"`
		NextCursor *string    `json:"next_cursor"`
	}
	testutil.DecodeJSON(t, resp, &rest)
	assert.NotEmpty(t, rest.Entries)
	assert.Nil(t, rest.NextCursor)
}

func TestListEntries_OrderFollowsCommitSequence(t *testing.T) {
	env := testutil.NewTestEnv(t)
	accountID, token := env.CreateAccount(0, "standard")
	ctx := t.Context()

	// A writer that loses the row-lock race commits later but keeps its
	// earlier transaction timestamp; insertion order is the ledger order.
	_, err := env.Pool.Exec(ctx, `
		INSERT INTO ledger_entries (account_id, delta, reason, source_reference, balance_after, created_at)
		VALUES ($1, 5, 'admin_adjust', 'posted-first', 5, now())`, accountID)
	require.NoError(t, err)
	_, err = env.Pool.Exec(ctx, `
		INSERT INTO ledger_entries (account_id, delta, reason, source_reference, balance_after, created_at)
		VALUES ($1, -2, 'analysis_debit', 'posted-second', 3, now() - interval '1 minute')`, accountID)
	require.NoError(t, err)
	_, err = env.Pool.Exec(ctx, `UPDATE accounts SET credit_balance = 3 WHERE id = $1`, accountID)
	require.NoError(t, err)

	resp := env.AuthGET("/credits/entries", token)
	testutil.AssertStatus(t, resp, http.StatusOK)
	var page struct {
		Entries []struct {
			SourceReference string `json:"source_reference"`
		} `json:"entries"`
	}
	testutil.DecodeJSON(t, resp, &page)
	require.Len(t, page.Entries, 2)
	assert.Equal(t, "posted-second", page.Entries[0].SourceReference)
	assert.Equal(t, "posted-first", page.Entries[1].SourceReference)

	resp = env.AuthGET("/admin/accounts/"+accountID.String()+"/audit", env.AdminToken())
	testutil.AssertStatus(t, resp, http.StatusOK)
	var audit struct {
		AllPassed bool `json:"all_passed"`
	}
	testutil.DecodeJSON(t, resp, &audit)
	assert.True(t, audit.AllPassed, "snapshot parity must follow ledger sequence, not created_at")
}

func TestAdminAdjustAndAudit(t *testing.T) {
	env := testutil.NewTestEnv(t)
	accountID, _ := env.CreateAccount(0, "standard")
	admin := env.AdminToken()

	resp := env.POST("/admin/accounts/"+accountID.String()+"/adjust", map[string]interface{}{
		"amount": 25, "note": "support comp",
	}, admin)
	testutil.AssertStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	testutil.AssertBalance(t, env, accountID, 25)

	resp = env.AuthGET("/admin/accounts/"+accountID.String()+"/audit", admin)
	testutil.AssertStatus(t, resp, http.StatusOK)

	var audit struct {
		AllPassed  bool `json:"all_passed"`
		Invariants []struct {
			Name   string `json:"name"`
			Passed bool   `json:"passed"`
			Detail string `json:"detail"`
		} `json:"invariants"`
	}
	testutil.DecodeJSON(t, resp, &audit)
	require.NotEmpty(t, audit.Invariants)
	assert.True(t, audit.AllPassed)
	for _, check := range audit.Invariants {
		assert.True(t, check.Passed, "invariant %s failed: %s", check.Name, check.Detail)
	}
}

func TestAdminRoutes_RejectUserToken(t *testing.T) {
	env := testutil.NewTestEnv(t)
	accountID, token := env.CreateAccount(0, "standard")

	resp := env.POST("/admin/accounts/"+accountID.String()+"/adjust", map[string]interface{}{
		"amount": 100,
	}, token)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
