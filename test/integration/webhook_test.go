//go:build integration

package integration

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/resumelane/platform/test/integration/testutil"
)

func postWebhook(env *testutil.TestEnv, payload []byte) *http.Response {
	return env.RawPOST("/webhooks/stripe", payload, map[string]string{
		"Content-Type":     "application/json",
		"Stripe-Signature": testutil.SignedStripeHeader(payload),
	})
}

func TestStripeWebhook_CreditsPurchasedPack(t *testing.T) {
	env := testutil.NewTestEnv(t)
	accountID, _ := env.CreateAccount(0, "standard")

	payload := testutil.CheckoutCompletedPayload("evt_pack_1", accountID, 5)
	resp := postWebhook(env, payload)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	testutil.AssertBalance(t, env, accountID, 5)
	testutil.AssertLedgerSum(t, env, accountID)
}

func TestStripeWebhook_DuplicateDeliveryAppliedOnce(t *testing.T) {
	env := testutil.NewTestEnv(t)
	accountID, _ := env.CreateAccount(0, "standard")

	payload := testutil.CheckoutCompletedPayload("evt_dup_1", accountID, 5)

	for i := 0; i < 3; i++ {
		resp := postWebhook(env, payload)
		assert.Equal(t, http.StatusOK, resp.StatusCode, "delivery %d must be acked", i+1)
		resp.Body.Close()
	}

	testutil.AssertBalance(t, env, accountID, 5)
	assert.Equal(t, 1, testutil.EntryCount(t, env, accountID))
}

func TestStripeWebhook_MissingSignatureHeader(t *testing.T) {
	env := testutil.NewTestEnv(t)

	payload := []byte(`{"type":"checkout.session.completed","data":{}}`)
	resp := env.RawPOST("/webhooks/stripe", payload, map[string]string{
		"Content-Type": "application/json",
	})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestStripeWebhook_InvalidSignature(t *testing.T) {
	env := testutil.NewTestEnv(t)

	payload := []byte(`{"id":"evt_bad","type":"checkout.session.completed","data":{}}`)
	resp := env.RawPOST("/webhooks/stripe", payload, map[string]string{
		"Content-Type":     "application/json",
		"Stripe-Signature": "t=1234567890,v1=invalid_signature_here",
	})
	defer resp.Body.Close()

	assert.True(t, resp.StatusCode >= 400, "expected 4xx error, got %d", resp.StatusCode)
}

func TestStripeWebhook_UnknownEventTypeAcked(t *testing.T) {
	env := testutil.NewTestEnv(t)

	payload := []byte(`{"id":"evt_other","type":"invoice.paid","data":{}}`)
	resp := postWebhook(env, payload)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestStripeWebhook_UnparseableAccountRefAcked(t *testing.T) {
	env := testutil.NewTestEnv(t)

	// A session referencing no known account is logged and acked so Stripe
	// stops retrying; nothing is credited.
	payload := []byte(`{
		"id": "evt_badref",
		"type": "checkout.session.completed",
		"data": {"object": {"id": "cs_x", "client_reference_id": "not-a-uuid",
			"metadata": {"credits": "5"}}}
	}`)
	resp := postWebhook(env, payload)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestStripeWebhook_DistinctEventsBothApply(t *testing.T) {
	env := testutil.NewTestEnv(t)
	accountID, _ := env.CreateAccount(0, "standard")

	for _, evt := range []struct {
		id      string
		credits int64
	}{{"evt_a", 5}, {"evt_b", 20}} {
		resp := postWebhook(env, testutil.CheckoutCompletedPayload(evt.id, accountID, evt.credits))
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()
	}

	testutil.AssertBalance(t, env, accountID, 25)
	assert.Equal(t, 2, testutil.EntryCount(t, env, accountID))
}

func TestStripeWebhook_UnknownAccountNotAcked(t *testing.T) {
	env := testutil.NewTestEnv(t)

	// Valid UUID but no such account row. The reconcile fails and the
	// delivery is not acked, so Stripe will retry after the account exists.
	payload := testutil.CheckoutCompletedPayload("evt_ghost", uuid.New(), 5)
	resp := postWebhook(env, payload)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
