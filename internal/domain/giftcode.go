package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// GiftCodeStatus tracks the lifecycle of a promotional code.
type GiftCodeStatus string

const (
	GiftCodeActive    GiftCodeStatus = "active"
	GiftCodeExhausted GiftCodeStatus = "exhausted"
	GiftCodeExpired   GiftCodeStatus = "expired"
	GiftCodeRevoked   GiftCodeStatus = "revoked"
)

// GiftCode represents a gift_codes row. Codes are never deleted; they
// transition through statuses instead.
type GiftCode struct {
	ID              uuid.UUID      `json:"id"`
	Code            string         `json:"code"`
	CreditValue     int64          `json:"credit_value"`
	MaxRedemptions  int            `json:"max_redemptions"`
	RedemptionCount int            `json:"redemption_count"`
	ExpiresAt       *time.Time     `json:"expires_at,omitempty"`
	Status          GiftCodeStatus `json:"status"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// ExpiredAt reports whether the code's expiry has passed at the given time.
// Expiry is checked lazily at redemption; the stored status may lag.
func (g *GiftCode) ExpiredAt(now time.Time) bool {
	return g.ExpiresAt != nil && now.After(*g.ExpiresAt)
}

// Redemption is the join record of a code consumed by an account,
// unique per (gift_code_id, account_id).
type Redemption struct {
	ID         uuid.UUID `json:"id"`
	GiftCodeID uuid.UUID `json:"gift_code_id"`
	AccountID  uuid.UUID `json:"account_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// NormalizeGiftCode canonicalizes user input: trimmed and case-insensitive.
func NormalizeGiftCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// GiftCodeEventID derives the deterministic idempotency key for a redemption,
// so a retried redemption request maps onto the same processed event even
// without a client-supplied submission id.
func GiftCodeEventID(code string, accountID uuid.UUID) string {
	return "giftcode:" + NormalizeGiftCode(code) + ":" + accountID.String()
}
