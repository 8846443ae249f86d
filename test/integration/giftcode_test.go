//go:build integration

package integration

import (
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resumelane/platform/test/integration/testutil"
)

func TestRedeem_CreditsAccount(t *testing.T) {
	env := testutil.NewTestEnv(t)
	accountID, token := env.CreateAccount(0, "standard")
	env.CreateGiftCode("WELCOME10", 10, 100, nil, "active")

	resp := env.POST("/giftcodes/redeem", map[string]string{"code": "WELCOME10"}, token)
	testutil.AssertStatus(t, resp, http.StatusOK)

	var body struct {
		NewBalance int64 `json:"new_balance"`
		Credits    int64 `json:"credits"`
		Idempotent bool  `json:"idempotent"`
	}
	testutil.DecodeJSON(t, resp, &body)
	assert.Equal(t, int64(10), body.NewBalance)
	assert.Equal(t, int64(10), body.Credits)
	assert.False(t, body.Idempotent)

	testutil.AssertBalance(t, env, accountID, 10)
	testutil.AssertLedgerSum(t, env, accountID)

	// The redemption stages a gift_code_redeemed event next to the entry_posted one
	var staged int
	require.NoError(t, env.Pool.QueryRow(t.Context(), `
		SELECT COUNT(*) FROM event_outbox
		WHERE event_type = 'gift_code_redeemed' AND payload->>'account_id' = $1`,
		accountID.String()).Scan(&staged))
	assert.Equal(t, 1, staged)
}

func TestRedeem_CaseAndWhitespaceInsensitive(t *testing.T) {
	env := testutil.NewTestEnv(t)
	accountID, token := env.CreateAccount(0, "standard")
	env.CreateGiftCode("WELCOME10", 10, 100, nil, "active")

	resp := env.POST("/giftcodes/redeem", map[string]string{"code": "  welcome10 "}, token)
	testutil.AssertStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	testutil.AssertBalance(t, env, accountID, 10)
}

func TestRedeem_SecondAttemptSameAccount(t *testing.T) {
	env := testutil.NewTestEnv(t)
	accountID, token := env.CreateAccount(0, "standard")
	env.CreateGiftCode("WELCOME10", 10, 100, nil, "active")

	resp := env.POST("/giftcodes/redeem", map[string]string{"code": "WELCOME10"}, token)
	testutil.AssertStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	// A second tab retrying the same code must not double-credit
	resp = env.POST("/giftcodes/redeem", map[string]string{"code": "WELCOME10"}, token)
	testutil.AssertStatus(t, resp, http.StatusConflict)
	testutil.AssertErrorCode(t, resp, "ALREADY_REDEEMED")

	testutil.AssertBalance(t, env, accountID, 10)
	assert.Equal(t, 1, testutil.EntryCount(t, env, accountID))
}

func TestRedeem_UnknownCode(t *testing.T) {
	env := testutil.NewTestEnv(t)
	_, token := env.CreateAccount(0, "standard")

	resp := env.POST("/giftcodes/redeem", map[string]string{"code": "NO-SUCH-CODE"}, token)
	testutil.AssertStatus(t, resp, http.StatusNotFound)
	testutil.AssertErrorCode(t, resp, "NOT_FOUND")
}

func TestRedeem_ExpiredCode(t *testing.T) {
	env := testutil.NewTestEnv(t)
	accountID, token := env.CreateAccount(0, "standard")

	past := time.Now().Add(-24 * time.Hour)
	env.CreateGiftCode("OLD-2023", 10, 100, &past, "active")

	resp := env.POST("/giftcodes/redeem", map[string]string{"code": "OLD-2023"}, token)
	testutil.AssertStatus(t, resp, http.StatusGone)
	testutil.AssertErrorCode(t, resp, "EXPIRED")

	testutil.AssertBalance(t, env, accountID, 0)

	// Expiry was materialized on the stored row
	var status string
	err := env.Pool.QueryRow(t.Context(),
		"SELECT status FROM gift_codes WHERE code = $1", "OLD-2023").Scan(&status)
	require.NoError(t, err)
	assert.Equal(t, "expired", status)
}

func TestRedeem_RevokedCode(t *testing.T) {
	env := testutil.NewTestEnv(t)
	_, token := env.CreateAccount(0, "standard")
	env.CreateGiftCode("LEAKED-1", 10, 100, nil, "revoked")

	resp := env.POST("/giftcodes/redeem", map[string]string{"code": "LEAKED-1"}, token)
	testutil.AssertStatus(t, resp, http.StatusGone)
	testutil.AssertErrorCode(t, resp, "REVOKED")
}

func TestRedeem_CapEnforcedUnderRace(t *testing.T) {
	env := testutil.NewTestEnv(t)
	env.CreateGiftCode("LAUNCH2", 5, 2, nil, "active")

	const accounts = 6
	type attempt struct {
		status int
	}
	results := make([]attempt, accounts)

	var wg sync.WaitGroup
	for i := 0; i < accounts; i++ {
		_, token := env.CreateAccount(0, "standard")
		wg.Add(1)
		go func(n int, tok string) {
			defer wg.Done()
			resp := env.POST("/giftcodes/redeem", map[string]string{"code": "LAUNCH2"}, tok)
			results[n].status = resp.StatusCode
			resp.Body.Close()
		}(i, token)
	}
	wg.Wait()

	succeeded := 0
	for _, r := range results {
		if r.status == http.StatusOK {
			succeeded++
		} else {
			assert.Equal(t, http.StatusConflict, r.status)
		}
	}
	assert.Equal(t, 2, succeeded, "cap of 2 must hold under concurrency")

	var count int
	var status string
	err := env.Pool.QueryRow(t.Context(),
		"SELECT redemption_count, status FROM gift_codes WHERE code = $1", "LAUNCH2").
		Scan(&count, &status)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, "exhausted", status)
}

func TestRedeem_ExhaustedCode(t *testing.T) {
	env := testutil.NewTestEnv(t)
	_, token := env.CreateAccount(0, "standard")
	gcID := env.CreateGiftCode("GONE-1", 10, 1, nil, "exhausted")
	_ = gcID

	resp := env.POST("/giftcodes/redeem", map[string]string{"code": "GONE-1"}, token)
	testutil.AssertStatus(t, resp, http.StatusConflict)
	testutil.AssertErrorCode(t, resp, "EXHAUSTED")
}

func TestAdminGiftCodeLifecycle(t *testing.T) {
	env := testutil.NewTestEnv(t)
	admin := env.AdminToken()

	resp := env.POST("/admin/giftcodes", map[string]interface{}{
		"code":            "spring-2026",
		"credit_value":    15,
		"max_redemptions": 50,
	}, admin)
	testutil.AssertStatus(t, resp, http.StatusCreated)
	resp.Body.Close()

	// Code is normalized on create
	resp = env.AuthGET("/admin/giftcodes/SPRING-2026", admin)
	testutil.AssertStatus(t, resp, http.StatusOK)
	var gc struct {
		Code        string `json:"code"`
		CreditValue int64  `json:"credit_value"`
		Status      string `json:"status"`
	}
	testutil.DecodeJSON(t, resp, &gc)
	assert.Equal(t, "SPRING-2026", gc.Code)
	assert.Equal(t, int64(15), gc.CreditValue)
	assert.Equal(t, "active", gc.Status)

	resp = env.POST("/admin/giftcodes/SPRING-2026/revoke", nil, admin)
	testutil.AssertStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	// Revoked codes stop redeeming immediately
	_, token := env.CreateAccount(0, "standard")
	resp = env.POST("/giftcodes/redeem", map[string]string{"code": "SPRING-2026"}, token)
	testutil.AssertStatus(t, resp, http.StatusGone)
	testutil.AssertErrorCode(t, resp, "REVOKED")
}

func TestAdminGiftCode_DuplicateCode(t *testing.T) {
	env := testutil.NewTestEnv(t)
	admin := env.AdminToken()
	env.CreateGiftCode("TAKEN-1", 5, 10, nil, "active")

	resp := env.POST("/admin/giftcodes", map[string]interface{}{
		"code":            "TAKEN-1",
		"credit_value":    5,
		"max_redemptions": 10,
	}, admin)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}
