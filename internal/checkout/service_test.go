package checkout

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/auth"
	"storefront/internal/cache"
	"storefront/internal/models"
	"storefront/internal/pricing"
	"storefront/internal/repository"
)

type fakeCarts struct {
	items   []models.CartItem
	cleared bool
}

func (f *fakeCarts) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	return f.items, nil
}

func (f *fakeCarts) Add(ctx context.Context, userID, productID uuid.UUID, quantity int) (bool, error) {
	return true, nil
}

func (f *fakeCarts) Remove(ctx context.Context, itemID uuid.UUID) error { return nil }

func (f *fakeCarts) UpdateQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error {
	return nil
}

func (f *fakeCarts) Clear(ctx context.Context, userID uuid.UUID) error {
	f.cleared = true
	f.items = nil
	return nil
}

type fakeOrders struct {
	created *models.Order
	err     error
}

func (f *fakeOrders) Create(ctx context.Context, order *models.Order) error {
	if f.err != nil {
		return f.err
	}
	order.ID = uuid.New()
	f.created = order
	return nil
}

func (f *fakeOrders) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return nil, repository.ErrNotFound
}

func (f *fakeOrders) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	return nil, nil
}

type fakeProducts struct {
	decremented map[uuid.UUID]int
}

func (f *fakeProducts) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	return nil, repository.ErrNotFound
}

func (f *fakeProducts) List(ctx context.Context, filter models.ProductFilter) ([]models.Product, error) {
	return nil, nil
}

func (f *fakeProducts) Search(ctx context.Context, query string) ([]models.Product, error) {
	return nil, nil
}

func (f *fakeProducts) DecrementQuantity(ctx context.Context, id uuid.UUID, by int) error {
	if f.decremented == nil {
		f.decremented = make(map[uuid.UUID]int)
	}
	f.decremented[id] += by
	return nil
}

func (f *fakeProducts) ListMissingImages(ctx context.Context, limit int) ([]models.Product, error) {
	return nil, nil
}

func (f *fakeProducts) SetImageURL(ctx context.Context, id uuid.UUID, imageURL string) error {
	return nil
}

type fakeCoupons struct {
	byCode map[string]*models.Coupon
}

func (f *fakeCoupons) GetActiveByCode(ctx context.Context, code string) (*models.Coupon, error) {
	if c, ok := f.byCode[code]; ok {
		return c, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeCoupons) ListActive(ctx context.Context) ([]models.Coupon, error) { return nil, nil }

type fakeStaging struct {
	staged  *cache.StagedCheckout
	cleared bool
}

func (f *fakeStaging) SaveCheckout(ctx context.Context, userID uuid.UUID, staged cache.StagedCheckout) error {
	f.staged = &staged
	return nil
}

func (f *fakeStaging) Checkout(ctx context.Context, userID uuid.UUID) (*cache.StagedCheckout, error) {
	if f.staged == nil {
		return nil, cache.ErrNoStagedCheckout
	}
	return f.staged, nil
}

func (f *fakeStaging) Clear(ctx context.Context, userID uuid.UUID) error {
	f.cleared = true
	return nil
}

type fakeNotifier struct {
	messages []string
}

func (f *fakeNotifier) OrderPlaced(message string) {
	f.messages = append(f.messages, message)
}

func testUser() *auth.User {
	return &auth.User{
		ID:           uuid.New(),
		Email:        "maria@example.com",
		UserMetadata: map[string]any{"full_name": "Maria Silva"},
	}
}

func cartWith(product models.Product, quantity int) []models.CartItem {
	return []models.CartItem{{
		ID:        uuid.New(),
		ProductID: product.ID,
		Quantity:  quantity,
		Product:   &product,
	}}
}

func newTestService(carts *fakeCarts, orders *fakeOrders, products *fakeProducts, coupons *fakeCoupons, staging *fakeStaging, notifier *fakeNotifier) *Service {
	// A typed nil *fakeNotifier must become a nil interface, or the
	// service's notifier guard sees a non-nil value.
	var n Notifier
	if notifier != nil {
		n = notifier
	}
	return NewService(carts, orders, products, coupons, staging, n, "5511999999999", zerolog.Nop())
}

func TestStageSnapshotsCartWithQuote(t *testing.T) {
	product := models.Product{ID: uuid.New(), Name: "Fone Bluetooth", Price: 100.00}
	carts := &fakeCarts{items: cartWith(product, 2)}
	staging := &fakeStaging{}
	coupons := &fakeCoupons{byCode: map[string]*models.Coupon{
		"SAVE10": {Code: "SAVE10", Type: models.CouponCompra, Value: 10, Active: true},
	}}
	svc := newTestService(carts, &fakeOrders{}, &fakeProducts{}, coupons, staging, nil)

	result, err := svc.Stage(context.Background(), uuid.New(), "10000000", "SAVE10")
	require.NoError(t, err)

	assert.Equal(t, 200.00, result.Quote.Subtotal)
	assert.Equal(t, 49.90, result.Quote.Shipping)
	assert.Equal(t, 20.00, result.Quote.Discount)
	assert.Equal(t, 229.90, result.Quote.Total)

	require.NotNil(t, staging.staged)
	assert.Equal(t, 49.90, staging.staged.Frete)
	assert.Equal(t, "SAVE10", staging.staged.CouponCode)
}

func TestStageRejectsInvalidCEP(t *testing.T) {
	svc := newTestService(&fakeCarts{}, &fakeOrders{}, &fakeProducts{}, &fakeCoupons{}, &fakeStaging{}, nil)

	_, err := svc.Stage(context.Background(), uuid.New(), "1234", "")
	assert.ErrorIs(t, err, pricing.ErrInvalidCEP)
}

func TestStageRejectsEmptyCart(t *testing.T) {
	svc := newTestService(&fakeCarts{}, &fakeOrders{}, &fakeProducts{}, &fakeCoupons{}, &fakeStaging{}, nil)

	_, err := svc.Stage(context.Background(), uuid.New(), "50000000", "")
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestStageRejectsUnknownCoupon(t *testing.T) {
	product := models.Product{ID: uuid.New(), Price: 10.00}
	carts := &fakeCarts{items: cartWith(product, 1)}
	svc := newTestService(carts, &fakeOrders{}, &fakeProducts{}, &fakeCoupons{}, &fakeStaging{}, nil)

	_, err := svc.Stage(context.Background(), uuid.New(), "50000000", "NOPE")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestFinalizeWithoutStagingRequiresShipping(t *testing.T) {
	svc := newTestService(&fakeCarts{}, &fakeOrders{}, &fakeProducts{}, &fakeCoupons{}, &fakeStaging{}, nil)

	_, err := svc.Finalize(context.Background(), testUser())
	assert.ErrorIs(t, err, pricing.ErrShippingRequired)
}

func TestFinalizeRecordsOrderAndCleansUp(t *testing.T) {
	product := models.Product{ID: uuid.New(), Name: "Fone Bluetooth", Price: 100.00}
	carts := &fakeCarts{items: cartWith(product, 2)}
	orders := &fakeOrders{}
	products := &fakeProducts{}
	notifier := &fakeNotifier{}
	staging := &fakeStaging{staged: &cache.StagedCheckout{
		Items: carts.items,
		Frete: 29.90,
	}}
	svc := newTestService(carts, orders, products, &fakeCoupons{}, staging, notifier)

	result, err := svc.Finalize(context.Background(), testUser())
	require.NoError(t, err)

	require.NotNil(t, orders.created)
	assert.Equal(t, 229.90, orders.created.Total)
	assert.Equal(t, 29.90, orders.created.Shipping)
	require.Len(t, orders.created.Items, 1)
	assert.Equal(t, "Fone Bluetooth", orders.created.Items[0].Name)
	assert.Equal(t, 2, orders.created.Items[0].Quantity)

	assert.True(t, carts.cleared)
	assert.True(t, staging.cleared)
	assert.Equal(t, 2, products.decremented[product.ID])

	require.Len(t, notifier.messages, 1)
	assert.Contains(t, notifier.messages[0], "NOVO PEDIDO - STG CATALOG")
	assert.Contains(t, notifier.messages[0], "Cliente: Maria Silva")
	assert.Contains(t, result.WhatsAppURL, "https://wa.me/5511999999999?text=")
	assert.Equal(t, result.Message, notifier.messages[0])
}

func TestFinalizeWithoutNotifierConfigured(t *testing.T) {
	product := models.Product{ID: uuid.New(), Name: "Fone Bluetooth", Price: 100.00}
	carts := &fakeCarts{items: cartWith(product, 1)}
	staging := &fakeStaging{staged: &cache.StagedCheckout{Items: carts.items, Frete: 29.90}}
	svc := newTestService(carts, &fakeOrders{}, &fakeProducts{}, &fakeCoupons{}, staging, nil)

	result, err := svc.Finalize(context.Background(), testUser())
	require.NoError(t, err)

	assert.True(t, carts.cleared)
	assert.Contains(t, result.Message, "NOVO PEDIDO - STG CATALOG")
}

func TestFinalizeSnapshotIgnoresLaterPriceChanges(t *testing.T) {
	product := models.Product{ID: uuid.New(), Name: "Fone Bluetooth", Price: 100.00}
	items := cartWith(product, 1)
	staging := &fakeStaging{staged: &cache.StagedCheckout{Items: items, Frete: 29.90}}
	orders := &fakeOrders{}
	svc := newTestService(&fakeCarts{items: items}, orders, &fakeProducts{}, &fakeCoupons{}, staging, nil)

	// The catalog price moves after staging; the staged snapshot is what the
	// order records.
	product.Price = 250.00

	result, err := svc.Finalize(context.Background(), testUser())
	require.NoError(t, err)

	assert.Equal(t, 100.00, result.Order.Items[0].Price)
	assert.Equal(t, 129.90, result.Order.Total)
}

func TestFinalizeOrderFailureLeavesCartAlone(t *testing.T) {
	product := models.Product{ID: uuid.New(), Price: 50.00}
	carts := &fakeCarts{items: cartWith(product, 1)}
	orders := &fakeOrders{err: errors.New("db down")}
	staging := &fakeStaging{staged: &cache.StagedCheckout{Items: carts.items, Frete: 19.90}}
	svc := newTestService(carts, orders, &fakeProducts{}, &fakeCoupons{}, staging, nil)

	_, err := svc.Finalize(context.Background(), testUser())
	require.Error(t, err)

	assert.False(t, carts.cleared)
	assert.False(t, staging.cleared)
}

func TestFinalizeRevalidatesCoupon(t *testing.T) {
	product := models.Product{ID: uuid.New(), Price: 50.00}
	carts := &fakeCarts{items: cartWith(product, 1)}
	// Coupon was staged but has been deactivated since.
	staging := &fakeStaging{staged: &cache.StagedCheckout{
		Items:      carts.items,
		Frete:      19.90,
		CouponCode: "SAVE10",
	}}
	svc := newTestService(carts, &fakeOrders{}, &fakeProducts{}, &fakeCoupons{}, staging, nil)

	_, err := svc.Finalize(context.Background(), testUser())
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.False(t, carts.cleared)
}
