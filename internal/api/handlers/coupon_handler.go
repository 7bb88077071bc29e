package handlers

import (
	"errors"
	"net/http"

	"storefront/internal/repository"
)

type CouponHandler struct {
	repo repository.CouponRepository
}

func NewCouponHandler(repo repository.CouponRepository) *CouponHandler {
	return &CouponHandler{repo: repo}
}

// Validate looks up an active coupon by code. A missing or deactivated code
// both come back as the same null result.
func (h *CouponHandler) Validate(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		writeError(w, http.StatusBadRequest, "invalid_input", "coupon code is required", nil)
		return
	}

	coupon, err := h.repo.GetActiveByCode(r.Context(), code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeJSON(w, http.StatusOK, map[string]any{"coupon": nil})
			return
		}
		writeRepoError(w, err, "coupon not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"coupon": coupon})
}

// ListActive feeds the storefront's promotional banner.
func (h *CouponHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	coupons, err := h.repo.ListActive(r.Context())
	if err != nil {
		writeRepoError(w, err, "coupons not found")
		return
	}

	writeJSON(w, http.StatusOK, coupons)
}
