package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"storefront/internal/api"
	"storefront/internal/api/handlers"
	"storefront/internal/auth"
	"storefront/internal/cache"
	"storefront/internal/checkout"
	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/notify"
	"storefront/internal/repository"
)

func main() {
	log := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	ctx := context.Background()

	pool, err := database.Connect(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool, log); err != nil {
		log.Fatal().Err(err).Msg("migrations failed")
	}

	rdb, err := cache.ConnectRedis(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect redis")
	}
	defer rdb.Close()

	products := cache.NewCachedProductRepository(repository.NewProductRepository(pool), rdb, log)
	carts := repository.NewCartRepository(pool)
	coupons := repository.NewCouponRepository(pool)
	orders := repository.NewOrderRepository(pool)
	users := repository.NewUserRepository(pool)

	staging := cache.NewStagingStore(rdb)
	recents := cache.NewRecentViews(rdb)

	gateway := auth.NewGateway(cfg.SupabaseURL, cfg.SupabaseAnonKey)
	verifier := auth.NewVerifier(cfg.SupabaseJWTSecret, gateway)

	// The shop alert channel is optional; checkout works without it. The
	// interface stays nil unless a notifier actually exists, so the service's
	// nil check is meaningful.
	var orderNotifier checkout.Notifier
	notifier, err := notify.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID, log)
	switch {
	case err != nil:
		log.Warn().Err(err).Msg("telegram notifier disabled")
	case notifier != nil:
		orderNotifier = notifier
	}

	checkoutSvc := checkout.NewService(
		carts, orders, products, coupons,
		staging, orderNotifier, cfg.WhatsAppNumber, log,
	)

	router := api.NewRouter(api.Deps{
		Products: handlers.NewProductHandler(products, recents),
		Cart:     handlers.NewCartHandler(carts, staging, log),
		Coupons:  handlers.NewCouponHandler(coupons),
		Checkout: handlers.NewCheckoutHandler(checkoutSvc),
		Orders:   handlers.NewOrderHandler(orders),
		Auth:     handlers.NewAuthHandler(gateway, users, cfg.SupabaseURL+"/reset-password"),
		Verifier: verifier,
		Log:      log,
	})

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("storefront listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown failed")
	}
}
