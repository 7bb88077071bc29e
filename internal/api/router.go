package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"storefront/internal/api/handlers"
	"storefront/internal/auth"
)

// Deps bundles everything the router mounts.
type Deps struct {
	Products *handlers.ProductHandler
	Cart     *handlers.CartHandler
	Coupons  *handlers.CouponHandler
	Checkout *handlers.CheckoutHandler
	Orders   *handlers.OrderHandler
	Auth     *handlers.AuthHandler
	Verifier *auth.Verifier
	Log      zerolog.Logger
}

// NewRouter wires the route surface: public catalog/coupon reads, guest-only
// auth endpoints, and session-guarded cart/checkout/orders.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(deps.Log))
	r.Use(deps.Verifier.Middleware)

	r.Route("/api", func(r chi.Router) {
		r.Get("/products", deps.Products.List)
		r.Get("/products/search", deps.Products.Search)
		r.Get("/products/{id}", deps.Products.GetByID)

		r.Get("/coupons/validate", deps.Coupons.Validate)
		r.Get("/coupons", deps.Coupons.ListActive)

		r.Get("/check-email", deps.Auth.CheckEmail)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireGuest)
			r.Post("/auth/signin", deps.Auth.SignIn)
			r.Post("/auth/signup", deps.Auth.SignUp)
			r.Post("/auth/recover", deps.Auth.ResetPassword)
		})

		r.Post("/auth/signout", deps.Auth.SignOut)
		r.Put("/auth/password", deps.Auth.UpdatePassword)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth)

			r.Get("/cart", deps.Cart.List)
			r.Post("/cart", deps.Cart.Add)
			r.Delete("/cart/{id}", deps.Cart.Remove)
			r.Put("/cart/{id}", deps.Cart.UpdateQuantity)

			r.Post("/checkout/frete", deps.Checkout.EstimateShipping)
			r.Post("/checkout/stage", deps.Checkout.Stage)
			r.Post("/checkout/finalize", deps.Checkout.Finalize)

			r.Get("/orders", deps.Orders.History)
			r.Get("/orders/{id}", deps.Orders.GetByID)

			r.Get("/products/recent", deps.Products.RecentViews)
		})
	})

	return r
}

func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("duration", time.Since(start)).
				Msg("request")
		})
	}
}
