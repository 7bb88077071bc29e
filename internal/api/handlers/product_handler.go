package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"storefront/internal/auth"
	"storefront/internal/cache"
	"storefront/internal/models"
	"storefront/internal/repository"
)

type ProductHandler struct {
	repo    repository.ProductRepository
	recents *cache.RecentViews
}

func NewProductHandler(repo repository.ProductRepository, recents *cache.RecentViews) *ProductHandler {
	return &ProductHandler{repo: repo, recents: recents}
}

// List serves the catalog page: optional category / price-range filters and
// a sort key, defaulting to newest first.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := models.ProductFilter{
		Category: q.Get("category"),
		Sort:     models.ProductSort(q.Get("sort")),
	}
	if raw := q.Get("min_price"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 {
			writeError(w, http.StatusBadRequest, "invalid_filter", "min_price must be a non-negative number", nil)
			return
		}
		filter.MinPrice = v
	}
	if raw := q.Get("max_price"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 {
			writeError(w, http.StatusBadRequest, "invalid_filter", "max_price must be a non-negative number", nil)
			return
		}
		filter.MaxPrice = v
	}

	products, err := h.repo.List(r.Context(), filter)
	if err != nil {
		writeRepoError(w, err, "products not found")
		return
	}

	writeJSON(w, http.StatusOK, products)
}

func (h *ProductHandler) Search(w http.ResponseWriter, r *http.Request) {
	products, err := h.repo.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeRepoError(w, err, "products not found")
		return
	}

	writeJSON(w, http.StatusOK, products)
}

// GetByID serves the product detail page and, for signed-in users, records
// the view in their recently-seen list.
func (h *ProductHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id", "invalid product id", nil)
		return
	}

	product, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		writeRepoError(w, err, "product not found")
		return
	}

	if user := auth.UserFrom(r.Context()); user != nil && h.recents != nil {
		// Best effort; a full recents list is not worth failing the page.
		_ = h.recents.Add(r.Context(), user.ID, product.ID)
	}

	writeJSON(w, http.StatusOK, product)
}

// RecentViews returns the signed-in user's recently viewed products,
// most recent first.
func (h *ProductHandler) RecentViews(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFrom(r.Context())

	ids, err := h.recents.List(r.Context(), user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to load recent views", nil)
		return
	}

	products := make([]models.Product, 0, len(ids))
	for _, id := range ids {
		product, err := h.repo.GetByID(r.Context(), id)
		if err != nil {
			continue // product may have been removed since it was viewed
		}
		products = append(products, *product)
	}

	writeJSON(w, http.StatusOK, products)
}
