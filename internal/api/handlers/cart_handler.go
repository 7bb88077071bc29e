package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"storefront/internal/auth"
	"storefront/internal/cache"
	"storefront/internal/pricing"
	"storefront/internal/repository"
)

type CartHandler struct {
	repo    repository.CartRepository
	staging *cache.StagingStore
	log     zerolog.Logger
}

func NewCartHandler(repo repository.CartRepository, staging *cache.StagingStore, log zerolog.Logger) *CartHandler {
	return &CartHandler{repo: repo, staging: staging, log: log}
}

type cartAddRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity"`
}

type cartQuantityRequest struct {
	Quantity int `json:"quantity" validate:"required,min=1"`
}

// List returns the user's cart joined with products, plus the running
// subtotal the summary panel shows.
func (h *CartHandler) List(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFrom(r.Context())

	items, err := h.repo.ListByUser(r.Context(), user.ID)
	if err != nil {
		writeRepoError(w, err, "cart not found")
		return
	}

	h.mirror(r, user.ID)

	writeJSON(w, http.StatusOK, map[string]any{
		"items":    items,
		"subtotal": pricing.Subtotal(items),
	})
}

// Add inserts or increments the (user, product) row and reports which.
func (h *CartHandler) Add(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFrom(r.Context())

	var req cartAddRequest
	if !decodeJSON(w, r, &req) || !checkValid(w, req) {
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	inserted, err := h.repo.Add(r.Context(), user.ID, req.ProductID, req.Quantity)
	if err != nil {
		writeRepoError(w, err, "product not found")
		return
	}

	h.mirror(r, user.ID)

	writeJSON(w, http.StatusOK, map[string]bool{
		"inserted": inserted,
		"updated":  !inserted,
	})
}

// Remove deletes an item by id. Removing an already-removed id succeeds.
func (h *CartHandler) Remove(w http.ResponseWriter, r *http.Request) {
	itemID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id", "invalid cart item id", nil)
		return
	}

	if err := h.repo.Remove(r.Context(), itemID); err != nil {
		writeRepoError(w, err, "cart item not found")
		return
	}

	if user := auth.UserFrom(r.Context()); user != nil {
		h.mirror(r, user.ID)
	}

	writeJSON(w, http.StatusNoContent, nil)
}

// UpdateQuantity overwrites an item's quantity; values below 1 are rejected.
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	itemID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id", "invalid cart item id", nil)
		return
	}

	var req cartQuantityRequest
	if !decodeJSON(w, r, &req) || !checkValid(w, req) {
		return
	}

	if err := h.repo.UpdateQuantity(r.Context(), itemID, req.Quantity); err != nil {
		writeRepoError(w, err, "cart item not found")
		return
	}

	if user := auth.UserFrom(r.Context()); user != nil {
		h.mirror(r, user.ID)
	}

	writeJSON(w, http.StatusNoContent, nil)
}

// mirror refreshes the reload-resilient cart copy after any mutation. Purely
// best effort.
func (h *CartHandler) mirror(r *http.Request, userID uuid.UUID) {
	if h.staging == nil {
		return
	}
	items, err := h.repo.ListByUser(r.Context(), userID)
	if err != nil {
		return
	}
	if err := h.staging.SaveCartMirror(r.Context(), userID, items); err != nil {
		h.log.Warn().Err(err).Msg("failed to refresh cart mirror")
	}
}
