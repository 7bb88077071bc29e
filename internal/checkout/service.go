// Package checkout drives the cart -> order flow: staging the cart with a
// frete estimate, then finalizing into an immutable order snapshot plus the
// messaging hand-off.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"storefront/internal/auth"
	"storefront/internal/cache"
	"storefront/internal/models"
	"storefront/internal/notify"
	"storefront/internal/pricing"
	"storefront/internal/repository"
)

var ErrEmptyCart = errors.New("cart is empty")

// Staging is the slice of the staging store this service needs.
type Staging interface {
	SaveCheckout(ctx context.Context, userID uuid.UUID, staged cache.StagedCheckout) error
	Checkout(ctx context.Context, userID uuid.UUID) (*cache.StagedCheckout, error)
	Clear(ctx context.Context, userID uuid.UUID) error
}

// Notifier receives the order summary after a successful checkout.
type Notifier interface {
	OrderPlaced(message string)
}

type Service struct {
	carts    repository.CartRepository
	orders   repository.OrderRepository
	products repository.ProductRepository
	coupons  repository.CouponRepository
	staging  Staging
	notifier Notifier
	waNumber string
	log      zerolog.Logger
}

func NewService(
	carts repository.CartRepository,
	orders repository.OrderRepository,
	products repository.ProductRepository,
	coupons repository.CouponRepository,
	staging Staging,
	notifier Notifier,
	waNumber string,
	log zerolog.Logger,
) *Service {
	return &Service{
		carts:    carts,
		orders:   orders,
		products: products,
		coupons:  coupons,
		staging:  staging,
		notifier: notifier,
		waNumber: waNumber,
		log:      log,
	}
}

// StageResult echoes the staged snapshot with its evaluated quote so the
// cart page can render the summary it just staged.
type StageResult struct {
	Items  []models.CartItem `json:"items"`
	Quote  pricing.Quote     `json:"quote"`
	Coupon *models.Coupon    `json:"coupon,omitempty"`
}

// Stage validates the CEP and optional coupon, snapshots the live cart into
// the staging store, and returns the quote. Checkout cannot proceed without
// a prior successful Stage.
func (s *Service) Stage(ctx context.Context, userID uuid.UUID, cep, couponCode string) (*StageResult, error) {
	frete, err := pricing.EstimateShipping(cep)
	if err != nil {
		return nil, err
	}

	items, err := s.carts.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	var coupon *models.Coupon
	if couponCode != "" {
		coupon, err = s.coupons.GetActiveByCode(ctx, couponCode)
		if err != nil {
			return nil, err
		}
	}

	staged := cache.StagedCheckout{Items: items, Frete: frete}
	if coupon != nil {
		staged.CouponCode = coupon.Code
	}
	if err := s.staging.SaveCheckout(ctx, userID, staged); err != nil {
		return nil, err
	}

	return &StageResult{
		Items:  items,
		Quote:  pricing.Compute(items, frete, coupon),
		Coupon: coupon,
	}, nil
}

// Result is the outcome of a finalized checkout: the durable order, the
// formatted summary and the WhatsApp hand-off URL the client should open.
type Result struct {
	Order       *models.Order `json:"order"`
	Quote       pricing.Quote `json:"quote"`
	Message     string        `json:"message"`
	WhatsAppURL string        `json:"whatsapp_url"`
}

// Finalize turns the staged cart into an order. The order insert and the
// cart cleanup are two separate external calls: a failure of the first
// aborts everything, while cleanup failures after a recorded order are
// logged and tolerated (cart deletion is idempotent and will be retried by
// the next checkout).
func (s *Service) Finalize(ctx context.Context, user *auth.User) (*Result, error) {
	staged, err := s.staging.Checkout(ctx, user.ID)
	if err != nil {
		if errors.Is(err, cache.ErrNoStagedCheckout) {
			return nil, pricing.ErrShippingRequired
		}
		return nil, err
	}
	if len(staged.Items) == 0 {
		return nil, ErrEmptyCart
	}

	// Revalidate the coupon: it may have been deactivated since staging, and
	// silently charging a different total would be worse than an error.
	var coupon *models.Coupon
	if staged.CouponCode != "" {
		coupon, err = s.coupons.GetActiveByCode(ctx, staged.CouponCode)
		if err != nil {
			return nil, err
		}
	}

	quote := pricing.Compute(staged.Items, staged.Frete, coupon)

	order := &models.Order{
		UserID:    user.ID,
		Items:     snapshotItems(staged.Items),
		Total:     quote.Total,
		Shipping:  quote.Shipping,
		CreatedAt: time.Now(),
	}

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to record order: %w", err)
	}

	if err := s.carts.Clear(ctx, user.ID); err != nil {
		s.log.Warn().Err(err).Stringer("user", user.ID).Msg("order recorded but cart not cleared")
	}
	if err := s.staging.Clear(ctx, user.ID); err != nil {
		s.log.Warn().Err(err).Stringer("user", user.ID).Msg("failed to clear checkout staging")
	}

	for _, item := range staged.Items {
		if err := s.products.DecrementQuantity(ctx, item.ProductID, item.Quantity); err != nil {
			s.log.Warn().Err(err).Stringer("product", item.ProductID).Msg("failed to decrement stock")
		}
	}

	message := notify.OrderMessage(user.DisplayName(), user.Email, order.Items, quote, coupon)
	if s.notifier != nil {
		s.notifier.OrderPlaced(message)
	}

	return &Result{
		Order:       order,
		Quote:       quote,
		Message:     message,
		WhatsAppURL: notify.WhatsAppURL(s.waNumber, message),
	}, nil
}

// snapshotItems copies the purchased products into the order, detached from
// the live catalog rows.
func snapshotItems(items []models.CartItem) []models.OrderItem {
	snapshot := make([]models.OrderItem, 0, len(items))
	for _, item := range items {
		if item.Product == nil {
			continue
		}
		snapshot = append(snapshot, models.OrderItem{
			ID:       item.Product.ID,
			Name:     item.Product.DisplayName(),
			ImageURL: item.Product.ImageURL,
			Price:    item.Product.Price,
			Quantity: item.Quantity,
		})
	}
	return snapshot
}
