package handler

import (
	"net/http"

	"github.com/resumelane/platform/internal/domain"
	"github.com/resumelane/platform/internal/guard"
	"github.com/resumelane/platform/internal/service"
)

// GiftCodeHandler handles user-facing gift code redemption.
type GiftCodeHandler struct {
	giftCodes *service.GiftCodeService
	limiter   *guard.RedemptionLimiter
}

// NewGiftCodeHandler creates a new GiftCodeHandler.
func NewGiftCodeHandler(giftCodes *service.GiftCodeService, limiter *guard.RedemptionLimiter) *GiftCodeHandler {
	return &GiftCodeHandler{giftCodes: giftCodes, limiter: limiter}
}

// redeemRequest is the body of POST /giftcodes/redeem.
type redeemRequest struct {
	Code string `json:"code"`
}

// Redeem handles POST /giftcodes/redeem.
func (h *GiftCodeHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	accountID, err := accountIDFromContext(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	if res := h.limiter.Check(r.Context(), accountID.String()); !res.Allowed {
		RespondError(w, domain.ErrRateLimited(res.Reason))
		return
	}

	var req redeemRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}

	result, err := h.giftCodes.Redeem(r.Context(), req.Code, accountID)
	if err != nil {
		RespondError(w, err)
		return
	}

	RespondJSON(w, http.StatusOK, result)
}
