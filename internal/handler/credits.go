package handler

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/resumelane/platform/internal/auth"
	"github.com/resumelane/platform/internal/domain"
	"github.com/resumelane/platform/internal/service"
)

// CreditsHandler handles balance, history and debit endpoints.
type CreditsHandler struct {
	credits *service.CreditService
}

// NewCreditsHandler creates a new CreditsHandler.
func NewCreditsHandler(credits *service.CreditService) *CreditsHandler {
	return &CreditsHandler{credits: credits}
}

// balanceResponse is the shape of GET /credits/balance.
type balanceResponse struct {
	Balance     int64              `json:"balance"`
	DebitPolicy domain.DebitPolicy `json:"debit_policy"`
}

// GetBalance handles GET /credits/balance.
func (h *CreditsHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	accountID, err := accountIDFromContext(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	account, err := h.credits.GetAccount(r.Context(), accountID)
	if err != nil {
		RespondError(w, err)
		return
	}

	RespondJSON(w, http.StatusOK, balanceResponse{
		Balance:     account.CreditBalance,
		DebitPolicy: account.DebitPolicy,
	})
}

// entryListResponse wraps a list of ledger entries with cursor.
type entryListResponse struct {
	Entries    []domain.LedgerEntry `json:"entries"`
	NextCursor *string              `json:"next_cursor,omitempty"`
}

// GetEntries handles GET /credits/entries with cursor-based pagination.
func (h *CreditsHandler) GetEntries(w http.ResponseWriter, r *http.Request) {
	accountID, err := accountIDFromContext(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	limitStr := r.URL.Query().Get("limit")
	limit := 20
	if limitStr != "" {
		if n, err := strconv.Atoi(limitStr); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	var cursor *string
	if c := r.URL.Query().Get("cursor"); c != "" {
		cursor = &c
	}

	entries, err := h.credits.ListEntries(r.Context(), accountID, cursor, limit+1)
	if err != nil {
		RespondError(w, err)
		return
	}

	resp := entryListResponse{Entries: entries}
	if len(entries) > limit {
		resp.Entries = entries[:limit]
		nextID := entries[limit].ID.String()
		resp.NextCursor = &nextID
	}

	RespondJSON(w, http.StatusOK, resp)
}

// debitRequest is the body of POST /credits/debit.
type debitRequest struct {
	Amount    int64  `json:"amount"`
	Reference string `json:"reference"`
}

// debitResponse is the shape of a successful debit.
type debitResponse struct {
	NewBalance int64               `json:"new_balance"`
	Entry      *domain.LedgerEntry `json:"entry,omitempty"`
	Idempotent bool                `json:"idempotent,omitempty"`
}

// Debit handles POST /credits/debit. The analysis feature calls this before
// doing paid work and must stop when it fails.
func (h *CreditsHandler) Debit(w http.ResponseWriter, r *http.Request) {
	accountID, err := accountIDFromContext(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	var req debitRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}
	if req.Reference == "" {
		RespondError(w, domain.ErrValidation("reference is required"))
		return
	}

	result, err := h.credits.Debit(r.Context(), domain.DebitParams{
		AccountID:       accountID,
		Amount:          req.Amount,
		Reason:          domain.ReasonAnalysisDebit,
		Reference:       req.Reference,
		ExternalEventID: domain.AnalysisEventID(accountID, req.Reference),
	})
	if err != nil {
		RespondError(w, err)
		return
	}

	RespondJSON(w, http.StatusOK, debitResponse{
		NewBalance: result.Account.CreditBalance,
		Entry:      result.Entry,
		Idempotent: result.Idempotent,
	})
}

// accountIDFromContext extracts and validates the account UUID from auth context.
func accountIDFromContext(r *http.Request) (uuid.UUID, error) {
	sub := auth.SubjectFromContext(r.Context())
	if sub == "" {
		return uuid.Nil, domain.ErrUnauthorized("no subject in context")
	}
	id, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, domain.ErrUnauthorized("invalid subject")
	}
	return id, nil
}
