package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/models"
)

func TestEstimateShipping(t *testing.T) {
	tests := []struct {
		name string
		cep  string
		want float64
	}{
		{"prefix 1 is the high tier", "10000000", 49.90},
		{"prefix 8 is the low tier", "80000000", 19.90},
		{"anything else is the default", "50000000", 29.90},
		{"prefix 0 is the default", "01310100", 29.90},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EstimateShipping(tt.cep)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEstimateShippingRejectsInvalidCEP(t *testing.T) {
	for _, cep := range []string{"", "1234", "123456789", "1234567a", "12345-67"} {
		_, err := EstimateShipping(cep)
		assert.ErrorIs(t, err, ErrInvalidCEP, "cep %q", cep)
	}
}

func TestSubtotal(t *testing.T) {
	items := []models.CartItem{
		{Quantity: 2, Product: &models.Product{Price: 49.90}},
		{Quantity: 1, Product: &models.Product{Price: 100.20}},
		{Quantity: 3, Product: nil}, // product row gone, line is skipped
	}

	assert.Equal(t, 200.00, Subtotal(items))
}

func TestSubtotalEmptyCart(t *testing.T) {
	assert.Equal(t, 0.0, Subtotal(nil))
}

func TestComputeWithoutCoupon(t *testing.T) {
	items := []models.CartItem{
		{Quantity: 1, Product: &models.Product{Price: 150.00}},
	}

	quote := Compute(items, 29.90, nil)

	assert.Equal(t, 150.00, quote.Subtotal)
	assert.Equal(t, 29.90, quote.Shipping)
	assert.Equal(t, 0.0, quote.Discount)
	assert.Equal(t, 179.90, quote.Total)
}

func TestComputeCompraCouponDiscountsSubtotal(t *testing.T) {
	items := []models.CartItem{
		{Quantity: 2, Product: &models.Product{Price: 100.00}},
	}
	coupon := &models.Coupon{Code: "SAVE10", Type: models.CouponCompra, Value: 10}

	quote := Compute(items, 29.90, coupon)

	assert.Equal(t, 200.00, quote.Subtotal)
	assert.Equal(t, 20.00, quote.Discount)
	assert.Equal(t, 209.90, quote.Total)
}

func TestComputeFreteCouponDiscountsShipping(t *testing.T) {
	items := []models.CartItem{
		{Quantity: 1, Product: &models.Product{Price: 50.00}},
	}
	coupon := &models.Coupon{Code: "FRETE50", Type: models.CouponFrete, Value: 50}

	quote := Compute(items, 49.90, coupon)

	assert.Equal(t, 24.95, quote.Discount)
	assert.Equal(t, 74.95, quote.Total)
}

func TestComputeRoundsToCents(t *testing.T) {
	items := []models.CartItem{
		{Quantity: 3, Product: &models.Product{Price: 33.33}},
	}
	coupon := &models.Coupon{Code: "SAVE7", Type: models.CouponCompra, Value: 7}

	quote := Compute(items, 19.90, coupon)

	// 99.99 * 7% = 6.9993 rounds to 7.00
	assert.Equal(t, 99.99, quote.Subtotal)
	assert.Equal(t, 7.00, quote.Discount)
	assert.Equal(t, 112.89, quote.Total)
}
