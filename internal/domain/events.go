package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AggregateType identifies the aggregate an outbox event belongs to.
type AggregateType string

const (
	AggregateAccount  AggregateType = "account"
	AggregateGiftCode AggregateType = "gift_code"
)

// EventType identifies the kind of outbox event.
type EventType string

const (
	EventEntryPosted      EventType = "entry_posted"
	EventGiftCodeRedeemed EventType = "gift_code_redeemed"
	EventGiftCodeRevoked  EventType = "gift_code_revoked"
)

// OutboxDraft is an event staged in event_outbox within the same transaction
// as the state change it describes.
type OutboxDraft struct {
	EventID       uuid.UUID       `json:"event_id"`
	AggregateType AggregateType   `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	EventType     EventType       `json:"event_type"`
	PartitionKey  string          `json:"partition_key"`
	Payload       json.RawMessage `json:"payload"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

// NewEntryPostedEvent creates the standard ledger event for a committed entry.
func NewEntryPostedEvent(entry *LedgerEntry) OutboxDraft {
	payload, _ := json.Marshal(entry)
	return OutboxDraft{
		EventID:       uuid.New(),
		AggregateType: AggregateAccount,
		AggregateID:   entry.AccountID.String(),
		EventType:     EventEntryPosted,
		PartitionKey:  entry.AccountID.String(),
		Payload:       payload,
		OccurredAt:    time.Now(),
	}
}

// NewGiftCodeRedeemedEvent records one slot of a code being consumed.
func NewGiftCodeRedeemedEvent(code *GiftCode, accountID uuid.UUID, entry *LedgerEntry) OutboxDraft {
	payload, _ := json.Marshal(map[string]interface{}{
		"gift_code_id":    code.ID.String(),
		"code":            code.Code,
		"account_id":      accountID.String(),
		"credits":         code.CreditValue,
		"ledger_entry_id": entry.ID.String(),
	})
	return OutboxDraft{
		EventID:       uuid.New(),
		AggregateType: AggregateGiftCode,
		AggregateID:   code.ID.String(),
		EventType:     EventGiftCodeRedeemed,
		PartitionKey:  code.ID.String(),
		Payload:       payload,
		OccurredAt:    time.Now(),
	}
}

// NewGiftCodeRevokedEvent records an administrative revocation.
func NewGiftCodeRevokedEvent(code *GiftCode) OutboxDraft {
	payload, _ := json.Marshal(map[string]string{
		"gift_code_id": code.ID.String(),
		"code":         code.Code,
	})
	return OutboxDraft{
		EventID:       uuid.New(),
		AggregateType: AggregateGiftCode,
		AggregateID:   code.ID.String(),
		EventType:     EventGiftCodeRevoked,
		PartitionKey:  code.ID.String(),
		Payload:       payload,
		OccurredAt:    time.Now(),
	}
}

// GuardResult is the outcome of a request guard check.
type GuardResult struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
	Guard   string `json:"guard,omitempty"`
}
