package main

import (
	"net/http"

	"go.uber.org/zap"

	"foodline-bot/internal/bot"
	"foodline-bot/internal/cart"
	"foodline-bot/internal/catalog"
	"foodline-bot/internal/checkout"
	"foodline-bot/internal/config"
	"foodline-bot/internal/db"
	"foodline-bot/internal/logger"
	"foodline-bot/internal/metrics"
	"foodline-bot/internal/middleware"
	"foodline-bot/internal/notify"
	"foodline-bot/internal/ops"
	"foodline-bot/internal/order"
	"foodline-bot/internal/promo"
	"foodline-bot/internal/review"
	"foodline-bot/internal/session"
	"foodline-bot/internal/user"
)

func main() {
	cfg := config.LoadConfig()

	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	database, err := db.NewDatabase(cfg)
	if err != nil {
		logger.L().Fatal("failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	catalogRepo := catalog.NewRepository(database)
	catalogSvc := catalog.NewService(catalogRepo)

	userRepo := user.NewRepository(database)
	userSvc := user.NewService(userRepo)

	cartRepo := cart.NewRepository(database)
	cartSvc := cart.NewService(cartRepo, catalogRepo)

	promoRepo := promo.NewRepository(database)
	promoValidator := promo.NewValidator(promoRepo)

	orderRepo := order.NewRepository(database)
	orderSvc := order.NewService(orderRepo)

	reviewRepo := review.NewRepository(database)
	reviewSvc := review.NewService(reviewRepo)

	sessions := session.NewStore(cfg.SessionTTL)
	notifier := notify.NewLogNotifier(cfg.OperatorIDs)
	registry := metrics.NewRegistry()

	flow := checkout.NewFlow(sessions, cartSvc, userSvc, promoValidator, orderSvc, notifier, checkout.Config{
		DeliveryFee:            cfg.DeliveryFee,
		FreeDeliveryThreshold:  cfg.FreeDeliveryThreshold,
		PremiumDiscountPercent: cfg.PremiumDiscountPercent,
	})

	dispatcher := bot.NewDispatcher(userSvc, catalogSvc, cartSvc, orderSvc, reviewSvc, promoRepo, flow, sessions, registry)

	secret := []byte(cfg.JWTSecret)
	operatorRepo := ops.NewOperatorRepository(database)
	opsHandler := ops.NewHandler(ops.NewAuth(operatorRepo, secret), orderSvc, notifier, registry, sessions, secret)

	mux := http.NewServeMux()
	bot.NewHandler(dispatcher).Register(mux)
	opsHandler.Register(mux)

	handler := logger.RequestIDMiddleware(
		logger.LoggingMiddleware(
			middleware.RateLimitMiddleware(mux),
		),
	)

	logger.L().Info("server listening", zap.String("port", cfg.AppPort))
	if err := http.ListenAndServe(":"+cfg.AppPort, handler); err != nil {
		logger.L().Fatal("server stopped", zap.Error(err))
	}
}
