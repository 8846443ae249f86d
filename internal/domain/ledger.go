package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EntryReason enumerates every recognized cause of a balance change.
type EntryReason string

const (
	ReasonPurchase      EntryReason = "purchase"
	ReasonGiftCode      EntryReason = "gift_code"
	ReasonAnalysisDebit EntryReason = "analysis_debit"
	ReasonAdminAdjust   EntryReason = "admin_adjust"
)

// Valid reports whether r is a recognized entry reason.
func (r EntryReason) Valid() bool {
	switch r {
	case ReasonPurchase, ReasonGiftCode, ReasonAnalysisDebit, ReasonAdminAdjust:
		return true
	}
	return false
}

// LedgerEntry represents a ledger_entries row (append-only).
// Delta is signed: positive for credits, negative (or zero under the
// unlimited policy) for debits. BalanceAfter snapshots the account balance
// as of this entry's commit. SeqID is the authoritative ordering; created_at
// is the transaction timestamp and can run backwards across lock races.
type LedgerEntry struct {
	SeqID           int64           `json:"seq_id"`
	ID              uuid.UUID       `json:"id"`
	AccountID       uuid.UUID       `json:"account_id"`
	Delta           int64           `json:"delta"`
	Reason          EntryReason     `json:"reason"`
	SourceReference string          `json:"source_reference"`
	ExternalEventID *string         `json:"external_event_id,omitempty"`
	BalanceAfter    int64           `json:"balance_after"`
	Metadata        json.RawMessage `json:"metadata"`
	CreatedAt       time.Time       `json:"created_at"`
}

// ProcessedEvent represents a processed_events row. The existence of a row
// is the sole proof that an external event already produced its ledger effect.
type ProcessedEvent struct {
	ExternalEventID string    `json:"external_event_id"`
	ProcessedAt     time.Time `json:"processed_at"`
}

// AnalysisEventID derives the deterministic idempotency key for an analysis
// debit. The account id is part of the key so one account's reference can
// never shadow another account's debit.
func AnalysisEventID(accountID uuid.UUID, reference string) string {
	return "analysis:" + accountID.String() + ":" + reference
}

// PostLedgerEntryParams is the input to the atomic PostLedgerEntry operation.
type PostLedgerEntryParams struct {
	AccountID       uuid.UUID
	Delta           int64
	Reason          EntryReason
	SourceReference string
	ExternalEventID *string
	Metadata        json.RawMessage
}

// CreditParams holds the input for ExecuteCredit.
type CreditParams struct {
	AccountID       uuid.UUID
	Amount          int64
	Reason          EntryReason
	Reference       string
	ExternalEventID string
	Metadata        json.RawMessage
}

// DebitParams holds the input for ExecuteDebit.
type DebitParams struct {
	AccountID       uuid.UUID
	Amount          int64
	Reason          EntryReason
	Reference       string
	ExternalEventID string
	Metadata        json.RawMessage
}

// CommandResult is the return value from the ledger commands.
// Idempotent is true when the triggering external event had already been
// processed; Entry then points at the previously committed entry when it
// could be resolved.
type CommandResult struct {
	Entry      *LedgerEntry
	Account    *Account
	Idempotent bool
}
