//go:build integration

package testutil

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
)

// DecodeJSON reads and decodes a JSON response body into dst.
func DecodeJSON(t *testing.T, resp *http.Response, dst interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
}

// AssertStatus checks that the response has the expected HTTP status code.
func AssertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Errorf("expected status %d, got %d", expected, resp.StatusCode)
	}
}

// AssertErrorCode checks that the response body contains the expected error code.
func AssertErrorCode(t *testing.T, resp *http.Response, expectedCode string) {
	t.Helper()
	var errResp struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	DecodeJSON(t, resp, &errResp)
	if errResp.Code != expectedCode {
		t.Errorf("expected error code %q, got %q (message: %s)", expectedCode, errResp.Code, errResp.Message)
	}
}

// AssertBalance asserts the account's stored balance snapshot.
func AssertBalance(t *testing.T, env *TestEnv, accountID uuid.UUID, expected int64) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var balance int64
	err := env.Pool.QueryRow(ctx,
		"SELECT credit_balance FROM accounts WHERE id = $1", accountID).Scan(&balance)
	if err != nil {
		t.Fatalf("AssertBalance: query: %v", err)
	}
	if balance != expected {
		t.Errorf("balance: expected %d, got %d", expected, balance)
	}
}

// AssertLedgerSum asserts that the balance snapshot equals SUM(delta).
func AssertLedgerSum(t *testing.T, env *TestEnv, accountID uuid.UUID) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var balance, sum int64
	err := env.Pool.QueryRow(ctx, `
		SELECT a.credit_balance, COALESCE(SUM(e.delta), 0)
		FROM accounts a
		LEFT JOIN ledger_entries e ON e.account_id = a.id
		WHERE a.id = $1
		GROUP BY a.credit_balance`, accountID).Scan(&balance, &sum)
	if err != nil {
		t.Fatalf("AssertLedgerSum: query: %v", err)
	}
	if balance != sum {
		t.Errorf("ledger drift: balance %d != sum of deltas %d", balance, sum)
	}
}

// EntryCount returns the number of ledger entries for the account.
func EntryCount(t *testing.T, env *TestEnv, accountID uuid.UUID) int {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var n int
	err := env.Pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM ledger_entries WHERE account_id = $1", accountID).Scan(&n)
	if err != nil {
		t.Fatalf("EntryCount: query: %v", err)
	}
	return n
}
