package domain

import (
	"regexp"
	"time"
)

var codeRegex = regexp.MustCompile(`^[A-Z0-9][A-Z0-9\-]{2,63}$`)

// ValidatePositiveAmount checks that a credit amount is positive.
func ValidatePositiveAmount(amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount(amount)
	}
	return nil
}

// ValidateReason checks that a ledger reason is one of the closed set.
func ValidateReason(reason EntryReason) error {
	if !reason.Valid() {
		return ErrValidation("unrecognized ledger reason: " + string(reason))
	}
	return nil
}

// ValidateGiftCodeSpec checks the admin-supplied fields of a new gift code.
// The code must already be normalized.
func ValidateGiftCodeSpec(code string, creditValue int64, maxRedemptions int, expiresAt *time.Time) error {
	if !codeRegex.MatchString(code) {
		return ErrValidation("gift code must be 3-64 characters of A-Z, 0-9 or dash")
	}
	if creditValue <= 0 {
		return ErrValidation("gift code credit value must be positive")
	}
	if maxRedemptions <= 0 {
		return ErrValidation("gift code max redemptions must be positive")
	}
	if expiresAt != nil && expiresAt.Before(time.Now()) {
		return ErrValidation("gift code expiry is in the past")
	}
	return nil
}
