package admin

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/resumelane/platform/internal/domain"
	"github.com/resumelane/platform/internal/handler"
	"github.com/resumelane/platform/internal/service"
)

// GiftCodeAdminHandler handles gift code administration.
type GiftCodeAdminHandler struct {
	giftCodes *service.GiftCodeService
}

// NewGiftCodeAdminHandler creates a new GiftCodeAdminHandler.
func NewGiftCodeAdminHandler(giftCodes *service.GiftCodeService) *GiftCodeAdminHandler {
	return &GiftCodeAdminHandler{giftCodes: giftCodes}
}

type createGiftCodeRequest struct {
	Code           string     `json:"code"`
	CreditValue    int64      `json:"credit_value"`
	MaxRedemptions int        `json:"max_redemptions"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
}

// Create handles POST /admin/giftcodes.
func (h *GiftCodeAdminHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createGiftCodeRequest
	if err := handler.DecodeJSON(r, &req); err != nil {
		handler.RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}

	gc, err := h.giftCodes.Create(r.Context(), req.Code, req.CreditValue, req.MaxRedemptions, req.ExpiresAt)
	if err != nil {
		handler.RespondError(w, err)
		return
	}
	handler.RespondJSON(w, http.StatusCreated, gc)
}

// Get handles GET /admin/giftcodes/{code}.
func (h *GiftCodeAdminHandler) Get(w http.ResponseWriter, r *http.Request) {
	gc, err := h.giftCodes.Get(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		handler.RespondError(w, err)
		return
	}
	handler.RespondJSON(w, http.StatusOK, gc)
}

// Revoke handles POST /admin/giftcodes/{code}/revoke.
func (h *GiftCodeAdminHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	gc, err := h.giftCodes.Revoke(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		handler.RespondError(w, err)
		return
	}
	handler.RespondJSON(w, http.StatusOK, gc)
}
