package provider

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// StripeProvider verifies and parses Stripe webhook deliveries. Checkout
// initiation lives with the storefront; this service only consumes already
// completed payment events.
type StripeProvider struct {
	webhookSecret string
}

// NewStripeProvider creates a Stripe webhook provider.
func NewStripeProvider(webhookSecret string) *StripeProvider {
	return &StripeProvider{webhookSecret: webhookSecret}
}

// StripeWebhookEvent represents a parsed Stripe webhook event.
type StripeWebhookEvent struct {
	ID   string          `json:"id"`
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// CheckoutSessionData is the nested data.object from a
// checkout.session.completed event. ClientReferenceID carries the account id
// and the metadata carries the resolved credit amount for the pack purchased.
type CheckoutSessionData struct {
	ID                string            `json:"id"`
	PaymentIntent     string            `json:"payment_intent"`
	AmountTotal       int64             `json:"amount_total"`
	Currency          string            `json:"currency"`
	Status            string            `json:"status"`
	ClientReferenceID string            `json:"client_reference_id"`
	Metadata          map[string]string `json:"metadata"`
}

// Credits returns the credit amount resolved from the session metadata.
func (d *CheckoutSessionData) Credits() (int64, error) {
	raw, ok := d.Metadata["credits"]
	if !ok {
		return 0, fmt.Errorf("session %s has no credits metadata", d.ID)
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("session %s credits metadata %q: %w", d.ID, raw, err)
	}
	return n, nil
}

// VerifyWebhookSignature verifies a Stripe webhook signature.
// Returns the parsed event if valid.
func (s *StripeProvider) VerifyWebhookSignature(payload []byte, sigHeader string) (*StripeWebhookEvent, error) {
	if s.webhookSecret == "" {
		return nil, fmt.Errorf("stripe webhook secret not configured")
	}

	// Parse Stripe-Signature header: t=timestamp,v1=signature
	parts := strings.Split(sigHeader, ",")
	var timestamp string
	var signatures []string
	for _, part := range parts {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			timestamp = kv[1]
		case "v1":
			signatures = append(signatures, kv[1])
		}
	}

	if timestamp == "" || len(signatures) == 0 {
		return nil, fmt.Errorf("invalid signature header format")
	}

	// Check timestamp tolerance (5 minutes)
	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid timestamp: %w", err)
	}
	if time.Now().Unix()-ts > 300 {
		return nil, fmt.Errorf("webhook timestamp too old")
	}

	// Compute expected signature
	signedPayload := timestamp + "." + string(payload)
	mac := hmac.New(sha256.New, []byte(s.webhookSecret))
	mac.Write([]byte(signedPayload))
	expected := hex.EncodeToString(mac.Sum(nil))

	// Compare with provided signatures
	valid := false
	for _, sig := range signatures {
		if hmac.Equal([]byte(expected), []byte(sig)) {
			valid = true
			break
		}
	}
	if !valid {
		return nil, fmt.Errorf("invalid webhook signature")
	}

	var event StripeWebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("decode webhook event: %w", err)
	}
	return &event, nil
}

// ParseCheckoutSessionData extracts checkout session data from a webhook event.
func ParseCheckoutSessionData(data json.RawMessage) (*CheckoutSessionData, error) {
	var wrapper struct {
		Object CheckoutSessionData `json:"object"`
	}
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return nil, fmt.Errorf("parse checkout session data: %w", err)
	}
	return &wrapper.Object, nil
}
