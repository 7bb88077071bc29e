package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"storefront/internal/auth"
	"storefront/internal/repository"
)

type OrderHandler struct {
	repo repository.OrderRepository
}

func NewOrderHandler(repo repository.OrderRepository) *OrderHandler {
	return &OrderHandler{repo: repo}
}

// History lists the user's orders, newest first.
func (h *OrderHandler) History(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFrom(r.Context())

	orders, err := h.repo.ListByUser(r.Context(), user.ID)
	if err != nil {
		writeRepoError(w, err, "orders not found")
		return
	}

	writeJSON(w, http.StatusOK, orders)
}

// GetByID returns one order, only to its owner.
func (h *OrderHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFrom(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id", "invalid order id", nil)
		return
	}

	order, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		writeRepoError(w, err, "order not found")
		return
	}
	if order.UserID != user.ID {
		writeError(w, http.StatusNotFound, "not_found", "order not found", nil)
		return
	}

	writeJSON(w, http.StatusOK, order)
}
