package models

import (
	"time"

	"github.com/google/uuid"
)

// CouponType selects what a coupon discounts: the purchase subtotal or the
// shipping (frete) estimate.
type CouponType string

const (
	CouponCompra CouponType = "compra"
	CouponFrete  CouponType = "frete"
)

// Product is a catalog row. The storefront only reads products; writes happen
// through the provisioning command.
type Product struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	Price     float64   `json:"price"`
	Quantity  int       `json:"quantity"`
	ImageURL  string    `json:"image_url"`
	CreatedAt time.Time `json:"created_at"`
}

// DisplayName falls back to the category when a product has no name.
func (p Product) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return "Produto " + p.Category
}

// CartItem is one (user, product) row. The table enforces uniqueness of the
// pair; adding an existing product increments quantity instead of inserting.
type CartItem struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	Product   *Product  `json:"product,omitempty"`
}

type Coupon struct {
	ID     uuid.UUID  `json:"id"`
	Code   string     `json:"code"`
	Type   CouponType `json:"type"`
	Value  float64    `json:"value"`
	Active bool       `json:"ativo"`
}

// OrderItem is a snapshot of a purchased product, copied at checkout time.
// Later changes to the product row do not alter it.
type OrderItem struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	ImageURL string    `json:"image_url"`
	Price    float64   `json:"price"`
	Quantity int       `json:"quantity"`
}

// Order is immutable once written; there is no update path.
type Order struct {
	ID        uuid.UUID   `json:"id"`
	UserID    uuid.UUID   `json:"user_id"`
	Items     []OrderItem `json:"items"`
	Total     float64     `json:"total"`
	Shipping  float64     `json:"frete"`
	CreatedAt time.Time   `json:"created_at"`
}

// ProductSort orders catalog listings.
type ProductSort string

const (
	SortRecency   ProductSort = "recent"
	SortPriceAsc  ProductSort = "price_asc"
	SortPriceDesc ProductSort = "price_desc"
	SortName      ProductSort = "name"
)

// ProductFilter narrows catalog listings. Zero values mean "no constraint";
// MaxPrice <= 0 disables the upper bound.
type ProductFilter struct {
	Category string
	MinPrice float64
	MaxPrice float64
	Sort     ProductSort
}
