package handlers

import (
	"errors"
	"net/http"

	"storefront/internal/auth"
	"storefront/internal/checkout"
	"storefront/internal/pricing"
	"storefront/internal/repository"
)

type CheckoutHandler struct {
	service *checkout.Service
}

func NewCheckoutHandler(service *checkout.Service) *CheckoutHandler {
	return &CheckoutHandler{service: service}
}

type shippingRequest struct {
	CEP string `json:"cep" validate:"required,len=8,numeric"`
}

type stageRequest struct {
	CEP        string `json:"cep" validate:"required"`
	CouponCode string `json:"coupon_code"`
}

// EstimateShipping answers the "calcule o frete" box on the cart page.
func (h *CheckoutHandler) EstimateShipping(w http.ResponseWriter, r *http.Request) {
	var req shippingRequest
	if !decodeJSON(w, r, &req) || !checkValid(w, req) {
		return
	}

	frete, err := pricing.EstimateShipping(req.CEP)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_cep", err.Error(), nil)
		return
	}

	writeJSON(w, http.StatusOK, map[string]float64{"frete": frete})
}

// Stage snapshots the cart for the checkout page. Without it Finalize is
// blocked, which is how "no frete, no checkout" is enforced.
func (h *CheckoutHandler) Stage(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFrom(r.Context())

	var req stageRequest
	if !decodeJSON(w, r, &req) || !checkValid(w, req) {
		return
	}

	result, err := h.service.Stage(r.Context(), user.ID, req.CEP, req.CouponCode)
	if err != nil {
		h.writeCheckoutError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Finalize records the order and returns the WhatsApp hand-off.
func (h *CheckoutHandler) Finalize(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFrom(r.Context())

	result, err := h.service.Finalize(r.Context(), user)
	if err != nil {
		h.writeCheckoutError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

func (h *CheckoutHandler) writeCheckoutError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, pricing.ErrInvalidCEP):
		writeError(w, http.StatusBadRequest, "invalid_cep", err.Error(), nil)
	case errors.Is(err, pricing.ErrShippingRequired):
		// The warning the cart page shows before letting anyone continue.
		writeError(w, http.StatusConflict, "frete_required",
			"Por favor, adicione o CEP antes de continuar.", nil)
	case errors.Is(err, checkout.ErrEmptyCart):
		writeError(w, http.StatusConflict, "empty_cart", "cart is empty", nil)
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "coupon_not_found", "coupon is invalid or inactive", nil)
	default:
		writeRepoError(w, err, "checkout failed")
	}
}
