//go:build integration

package testutil

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/resumelane/platform/internal/auth"
)

// CreateAccount inserts an account row directly and returns its id with a user token.
func (env *TestEnv) CreateAccount(balance int64, policy string) (uuid.UUID, string) {
	env.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	id := uuid.New()
	_, err := env.Pool.Exec(ctx,
		"INSERT INTO accounts (id, credit_balance, debit_policy) VALUES ($1, $2, $3)",
		id, balance, policy)
	if err != nil {
		env.t.Fatalf("CreateAccount: %v", err)
	}

	// Balance seeded directly must still reconcile against the ledger.
	if balance != 0 {
		_, err = env.Pool.Exec(ctx, `
			INSERT INTO ledger_entries (account_id, delta, reason, source_reference, balance_after, metadata)
			VALUES ($1, $2, 'admin_adjust', $3, $2, '{}')`,
			id, balance, "test_seed_"+id.String()[:8])
		if err != nil {
			env.t.Fatalf("CreateAccount: seed entry: %v", err)
		}
	}

	return id, env.UserToken(id)
}

// UserToken issues a user-realm JWT for the given account.
func (env *TestEnv) UserToken(accountID uuid.UUID) string {
	env.t.Helper()
	token, err := env.JWTMgr.GenerateToken(auth.RealmUser, accountID, "user@example.com")
	if err != nil {
		env.t.Fatalf("UserToken: %v", err)
	}
	return token
}

// AdminToken issues an admin-realm JWT.
func (env *TestEnv) AdminToken() string {
	env.t.Helper()
	token, err := env.JWTMgr.GenerateToken(auth.RealmAdmin, uuid.New(), "admin@example.com")
	if err != nil {
		env.t.Fatalf("AdminToken: %v", err)
	}
	return token
}

// GET performs an unauthenticated GET request.
func (env *TestEnv) GET(path string) *http.Response {
	env.t.Helper()
	resp, err := http.Get(env.Server.URL + path)
	if err != nil {
		env.t.Fatalf("GET %s: %v", path, err)
	}
	return resp
}

// POST performs a POST request with optional auth token.
func (env *TestEnv) POST(path string, body interface{}, token string) *http.Response {
	env.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			env.t.Fatalf("POST %s: encode: %v", path, err)
		}
	}
	req, err := http.NewRequest("POST", env.Server.URL+path, &buf)
	if err != nil {
		env.t.Fatalf("POST %s: new request: %v", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		env.t.Fatalf("POST %s: %v", path, err)
	}
	return resp
}

// AuthGET performs an authenticated GET request.
func (env *TestEnv) AuthGET(path, token string) *http.Response {
	env.t.Helper()
	req, err := http.NewRequest("GET", env.Server.URL+path, nil)
	if err != nil {
		env.t.Fatalf("AuthGET %s: new request: %v", path, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		env.t.Fatalf("AuthGET %s: %v", path, err)
	}
	return resp
}

// AuthPATCH performs an authenticated PATCH request.
func (env *TestEnv) AuthPATCH(path string, body interface{}, token string) *http.Response {
	env.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			env.t.Fatalf("PATCH %s: encode: %v", path, err)
		}
	}
	req, err := http.NewRequest("PATCH", env.Server.URL+path, &buf)
	if err != nil {
		env.t.Fatalf("PATCH %s: new request: %v", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		env.t.Fatalf("PATCH %s: %v", path, err)
	}
	return resp
}

// RawPOST performs a POST with a raw byte body and explicit headers.
func (env *TestEnv) RawPOST(path string, payload []byte, headers map[string]string) *http.Response {
	env.t.Helper()
	req, err := http.NewRequest("POST", env.Server.URL+path, bytes.NewReader(payload))
	if err != nil {
		env.t.Fatalf("RawPOST %s: new request: %v", path, err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		env.t.Fatalf("RawPOST %s: %v", path, err)
	}
	return resp
}

// SignedStripeHeader computes a valid Stripe-Signature header for the payload
// using the test webhook secret.
func SignedStripeHeader(payload []byte) string {
	ts := fmt.Sprintf("%d", time.Now().Unix())
	mac := hmac.New(sha256.New, []byte(TestStripeWebhookSecret))
	mac.Write([]byte(ts + "." + string(payload)))
	return fmt.Sprintf("t=%s,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

// CheckoutCompletedPayload builds a checkout.session.completed event body.
func CheckoutCompletedPayload(eventID string, accountID uuid.UUID, credits int64) []byte {
	payload, _ := json.Marshal(map[string]interface{}{
		"id":   eventID,
		"type": "checkout.session.completed",
		"data": map[string]interface{}{
			"object": map[string]interface{}{
				"id":                  "cs_" + eventID,
				"payment_intent":      "pi_" + eventID,
				"amount_total":        credits * 300,
				"currency":            "usd",
				"status":              "complete",
				"client_reference_id": accountID.String(),
				"metadata":            map[string]string{"credits": fmt.Sprintf("%d", credits)},
			},
		},
	})
	return payload
}

// CreateGiftCode inserts a gift code row directly.
func (env *TestEnv) CreateGiftCode(code string, creditValue int64, maxRedemptions int, expiresAt *time.Time, status string) uuid.UUID {
	env.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	id := uuid.New()
	_, err := env.Pool.Exec(ctx, `
		INSERT INTO gift_codes (id, code, credit_value, max_redemptions, expires_at, status)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		id, code, creditValue, maxRedemptions, expiresAt, status)
	if err != nil {
		env.t.Fatalf("CreateGiftCode: %v", err)
	}
	return id
}
