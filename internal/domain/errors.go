package domain

import "fmt"

// AppError is the base domain error type.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Cause   error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Cause }

// Standard domain error constructors.

func ErrNotFound(entity, id string) *AppError {
	return &AppError{Code: "NOT_FOUND", Message: fmt.Sprintf("%s %s not found", entity, id), Status: 404}
}

func ErrValidation(msg string) *AppError {
	return &AppError{Code: "VALIDATION_ERROR", Message: msg, Status: 400}
}

func ErrInvalidAmount(amount int64) *AppError {
	return &AppError{Code: "INVALID_AMOUNT", Message: fmt.Sprintf("amount must be positive, got %d", amount), Status: 400}
}

func ErrUnauthorized(msg string) *AppError {
	return &AppError{Code: "UNAUTHORIZED", Message: msg, Status: 401}
}

func ErrForbidden(msg string) *AppError {
	return &AppError{Code: "FORBIDDEN", Message: msg, Status: 403}
}

func ErrConflict(msg string) *AppError {
	return &AppError{Code: "CONFLICT", Message: msg, Status: 409}
}

func ErrInsufficientCredit() *AppError {
	return &AppError{Code: "INSUFFICIENT_CREDIT", Message: "insufficient credits", Status: 402}
}

// Gift code redemption outcomes. EXPIRED, EXHAUSTED and REVOKED are distinct
// codes so the client can tell "invalid code" apart from "already used up".

func ErrGiftCodeExpired(code string) *AppError {
	return &AppError{Code: "EXPIRED", Message: fmt.Sprintf("gift code %s has expired", code), Status: 410}
}

func ErrGiftCodeExhausted(code string) *AppError {
	return &AppError{Code: "EXHAUSTED", Message: fmt.Sprintf("gift code %s has no redemptions left", code), Status: 409}
}

func ErrGiftCodeRevoked(code string) *AppError {
	return &AppError{Code: "REVOKED", Message: fmt.Sprintf("gift code %s has been revoked", code), Status: 410}
}

func ErrAlreadyRedeemed(code string) *AppError {
	return &AppError{Code: "ALREADY_REDEEMED", Message: fmt.Sprintf("gift code %s was already redeemed by this account", code), Status: 409}
}

func ErrAlreadyProcessed(eventID string) *AppError {
	return &AppError{Code: "ALREADY_PROCESSED", Message: fmt.Sprintf("event %s was already processed", eventID), Status: 409}
}

func ErrRateLimited(msg string) *AppError {
	return &AppError{Code: "RATE_LIMITED", Message: msg, Status: 429}
}

func ErrStorageUnavailable(msg string, cause error) *AppError {
	return &AppError{Code: "STORAGE_UNAVAILABLE", Message: msg, Status: 503, Cause: cause}
}

func ErrInternal(msg string, cause error) *AppError {
	return &AppError{Code: "INTERNAL_ERROR", Message: msg, Status: 500, Cause: cause}
}
