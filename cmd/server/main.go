// @title        Marketplace API
// @version      1.0
// @description  Sessions, roles and payment verification for the property marketplace.
// @BasePath     /
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/propnest/marketplace/internal/api"
	"github.com/propnest/marketplace/internal/api/handler"
	"github.com/propnest/marketplace/internal/core/domain"
	"github.com/propnest/marketplace/internal/core/payment"
	"github.com/propnest/marketplace/internal/core/ports"
	"github.com/propnest/marketplace/internal/core/service"
	mongodb "github.com/propnest/marketplace/internal/infrastructure/db/mongo"
	redisdb "github.com/propnest/marketplace/internal/infrastructure/db/redis"
	"github.com/propnest/marketplace/internal/infrastructure/gateway"
	"github.com/propnest/marketplace/internal/infrastructure/queue"
	"github.com/propnest/marketplace/internal/pkg/config"
	"github.com/propnest/marketplace/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "marketplace",
	})
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:         cfg.Mongo.URI,
		Database:    cfg.Mongo.Database,
		MaxPoolSize: cfg.Mongo.MaxPoolSize,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("connect mongodb")
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = mongoClient.Disconnect(disconnectCtx)
	}()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err != nil {
		log.Fatal().Err(err).Msg("connect redis")
	}
	defer rdb.Close()

	users := mongodb.NewAuthRepository(db)
	orders := mongodb.NewOrderRepository(db)
	if err := users.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("ensure user indexes")
	}
	if err := orders.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("ensure order indexes")
	}

	// The gateway stays nil without a full key pair; order creation then
	// answers with a ConfigurationError instead of calling out.
	var (
		gw         ports.Gateway
		gatewayErr error
		keyID      string
		keySecret  string
	)
	if id, secret, ok := cfg.Gateway.Credentials(); ok {
		client, err := gateway.New(cfg.Gateway.BaseURL, gateway.Credentials{KeyID: id, KeySecret: secret})
		if err != nil {
			log.Fatal().Err(err).Msg("payment gateway client")
		}
		gw, keyID, keySecret = client, id, secret
	} else {
		gatewayErr = &domain.ConfigurationError{Component: "gateway", Missing: cfg.Gateway.Missing()}
		log.Warn().Err(gatewayErr).Msg("payment gateway not configured, payments disabled")
	}

	verifier := payment.NewSignatureVerifier(keySecret, cfg.Gateway.WebhookSecret)

	authService := service.NewAuthService(users, redisdb.NewSessionStore(rdb), cfg.JWTSecret, cfg.SessionTTL, log)
	orderService := service.NewOrderService(gw, orders, log)
	paymentService := service.NewPaymentService(
		verifier,
		orders,
		mongodb.NewSubscriptionRepository(db),
		mongodb.NewPaymentEventRepository(db),
		redisdb.NewDedupChecker(rdb),
		log,
	)

	dispatcher := queue.NewDispatcher(cfg.Webhook.Workers, paymentService, logger.For("webhooks"))
	dispatcher.Start(ctx)

	e := api.NewRouter(api.Dependencies{
		Log:           log,
		Auth:          authService,
		Orders:        orderService,
		Payments:      paymentService,
		Rejecter:      paymentService,
		Verifier:      verifier,
		Webhooks:      dispatcher,
		Readiness:     handler.NewHealthDependenciesHandler(db, rdb, gatewayErr),
		GatewayKeyID:  keyID,
		SecureCookie:  !cfg.IsDevelopment(),
		RatePerSecond: cfg.RateLimit.PerSecond,
		RateBurst:     cfg.RateLimit.Burst,
	})

	go func() {
		log.Info().Str("port", cfg.Port).Msg("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown")
	}
}
