// Package pricing computes the checkout money pipeline:
// subtotal -> frete -> coupon discount -> total.
package pricing

import (
	"errors"
	"math"
	"regexp"

	"storefront/internal/models"
)

var (
	// ErrInvalidCEP rejects postal codes that are not exactly 8 digits.
	ErrInvalidCEP = errors.New("CEP must be exactly 8 numeric digits")
	// ErrShippingRequired blocks finalization when no frete was computed.
	ErrShippingRequired = errors.New("frete must be calculated before checkout")
)

// Frete tiers by the first CEP digit.
const (
	freteDefault = 29.90
	freteHigh    = 49.90 // CEP prefix 1
	freteLow     = 19.90 // CEP prefix 8
)

var cepPattern = regexp.MustCompile(`^\d{8}$`)

// EstimateShipping maps a CEP to its frete tier. Invalid CEPs yield an error
// and no value; there is no silent default.
func EstimateShipping(cep string) (float64, error) {
	if !cepPattern.MatchString(cep) {
		return 0, ErrInvalidCEP
	}

	switch cep[0] {
	case '1':
		return freteHigh, nil
	case '8':
		return freteLow, nil
	default:
		return freteDefault, nil
	}
}

// Quote is one fully evaluated pricing run. Nothing here is cached; callers
// recompute on every cart, frete or coupon change.
type Quote struct {
	Subtotal float64 `json:"subtotal"`
	Shipping float64 `json:"frete"`
	Discount float64 `json:"discount"`
	Total    float64 `json:"total"`
}

// Subtotal sums price x quantity over the cart, to currency precision.
func Subtotal(items []models.CartItem) float64 {
	var sum float64
	for _, item := range items {
		if item.Product == nil {
			continue
		}
		sum += item.Product.Price * float64(item.Quantity)
	}
	return round2(sum)
}

// Compute runs the full pipeline. The coupon is optional; its type selects
// whether the percentage applies to the subtotal (compra) or frete.
func Compute(items []models.CartItem, shipping float64, coupon *models.Coupon) Quote {
	quote := Quote{
		Subtotal: Subtotal(items),
		Shipping: round2(shipping),
	}

	if coupon != nil {
		switch coupon.Type {
		case models.CouponCompra:
			quote.Discount = round2(quote.Subtotal * coupon.Value / 100)
		case models.CouponFrete:
			quote.Discount = round2(quote.Shipping * coupon.Value / 100)
		}
	}

	quote.Total = round2(quote.Subtotal + quote.Shipping - quote.Discount)
	return quote
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
