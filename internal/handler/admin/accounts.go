package admin

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/resumelane/platform/internal/domain"
	"github.com/resumelane/platform/internal/handler"
	"github.com/resumelane/platform/internal/service"
)

// AccountAdminHandler handles account provisioning and overrides.
type AccountAdminHandler struct {
	credits *service.CreditService
}

// NewAccountAdminHandler creates a new AccountAdminHandler.
func NewAccountAdminHandler(credits *service.CreditService) *AccountAdminHandler {
	return &AccountAdminHandler{credits: credits}
}

type createAccountRequest struct {
	AccountID   string             `json:"account_id,omitempty"`
	DebitPolicy domain.DebitPolicy `json:"debit_policy,omitempty"`
}

// Create handles POST /admin/accounts.
func (h *AccountAdminHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := handler.DecodeJSON(r, &req); err != nil {
		handler.RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}

	id := uuid.Nil
	if req.AccountID != "" {
		parsed, err := uuid.Parse(req.AccountID)
		if err != nil {
			handler.RespondError(w, domain.ErrValidation("invalid account_id"))
			return
		}
		id = parsed
	}

	account, err := h.credits.CreateAccount(r.Context(), id, req.DebitPolicy)
	if err != nil {
		handler.RespondError(w, err)
		return
	}
	handler.RespondJSON(w, http.StatusCreated, account)
}

// Get handles GET /admin/accounts/{id}.
func (h *AccountAdminHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := accountIDFromURL(r)
	if err != nil {
		handler.RespondError(w, err)
		return
	}

	account, err := h.credits.GetAccount(r.Context(), id)
	if err != nil {
		handler.RespondError(w, err)
		return
	}
	handler.RespondJSON(w, http.StatusOK, account)
}

type setPolicyRequest struct {
	DebitPolicy domain.DebitPolicy `json:"debit_policy"`
}

// SetPolicy handles POST /admin/accounts/{id}/policy.
func (h *AccountAdminHandler) SetPolicy(w http.ResponseWriter, r *http.Request) {
	id, err := accountIDFromURL(r)
	if err != nil {
		handler.RespondError(w, err)
		return
	}

	var req setPolicyRequest
	if err := handler.DecodeJSON(r, &req); err != nil {
		handler.RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}

	account, err := h.credits.SetDebitPolicy(r.Context(), id, req.DebitPolicy)
	if err != nil {
		handler.RespondError(w, err)
		return
	}
	handler.RespondJSON(w, http.StatusOK, account)
}

type adjustRequest struct {
	Amount int64  `json:"amount"` // signed: positive credits, negative debits
	Note   string `json:"note"`
}

// Adjust handles POST /admin/accounts/{id}/adjust.
func (h *AccountAdminHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	id, err := accountIDFromURL(r)
	if err != nil {
		handler.RespondError(w, err)
		return
	}

	var req adjustRequest
	if err := handler.DecodeJSON(r, &req); err != nil {
		handler.RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}
	if req.Amount == 0 {
		handler.RespondError(w, domain.ErrInvalidAmount(0))
		return
	}

	var result *domain.CommandResult
	if req.Amount > 0 {
		result, err = h.credits.Credit(r.Context(), domain.CreditParams{
			AccountID: id,
			Amount:    req.Amount,
			Reason:    domain.ReasonAdminAdjust,
			Reference: req.Note,
		})
	} else {
		result, err = h.credits.Debit(r.Context(), domain.DebitParams{
			AccountID: id,
			Amount:    -req.Amount,
			Reason:    domain.ReasonAdminAdjust,
			Reference: req.Note,
		})
	}
	if err != nil {
		handler.RespondError(w, err)
		return
	}

	handler.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"new_balance": result.Account.CreditBalance,
		"entry":       result.Entry,
	})
}

// Audit handles GET /admin/accounts/{id}/audit.
func (h *AccountAdminHandler) Audit(w http.ResponseWriter, r *http.Request) {
	id, err := accountIDFromURL(r)
	if err != nil {
		handler.RespondError(w, err)
		return
	}

	result, err := h.credits.Audit(r.Context(), id)
	if err != nil {
		handler.RespondError(w, err)
		return
	}
	handler.RespondJSON(w, http.StatusOK, result)
}

func accountIDFromURL(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, domain.ErrValidation("invalid account id")
	}
	return id, nil
}
