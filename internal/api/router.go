package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/propnest/marketplace/docs"
	"github.com/propnest/marketplace/internal/api/handler"
	"github.com/propnest/marketplace/internal/api/middleware"
	"github.com/propnest/marketplace/internal/core/ports"
)

// Dependencies carries everything the router wires into handlers.
type Dependencies struct {
	Log          zerolog.Logger
	Auth         ports.AuthService
	Orders       ports.OrderService
	Payments     ports.PaymentService
	Rejecter     handler.WebhookRejecter
	Verifier     handler.WebhookAuthenticator
	Webhooks     handler.WebhookQueue
	Readiness    *handler.HealthDependenciesHandler
	GatewayKeyID string
	SecureCookie bool

	// RatePerSecond and RateBurst bound the session-sensitive endpoints
	// (login, role grants, payment verification) per caller.
	RatePerSecond float64
	RateBurst     int
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("marketplace"))

	authn := middleware.Auth(d.Auth)
	limiter := middleware.NewRateLimiter(d.RatePerSecond, d.RateBurst).Middleware()

	authHandler := handler.NewAuthHandler(d.Auth, d.Log, d.SecureCookie)
	paymentHandler := handler.NewPaymentHandler(d.Orders, d.Payments, d.GatewayKeyID, d.Log)
	webhookHandler := handler.NewWebhookHandler(d.Verifier, d.Webhooks, d.Rejecter, d.Log)

	// --- Auth routes ---
	e.POST("/auth/register", authHandler.Register, limiter)
	e.POST("/auth/login", authHandler.Login, limiter)
	e.GET("/auth/me", authHandler.Me, authn)
	e.PATCH("/auth/roles", authHandler.AddRole, authn, limiter)
	e.POST("/auth/logout", authHandler.Logout, middleware.OptionalAuth(d.Auth))

	// --- Admin routes ---
	admin := e.Group("/admin", authn)
	admin.POST("/auth/logout", authHandler.Logout, middleware.RequireAdmin())
	admin.PATCH("/users/:id/admin", authHandler.GrantAdmin, middleware.RequireSuperAdmin())

	// --- Payment routes ---
	payments := e.Group("/v1/payments")
	payments.POST("/orders", paymentHandler.CreateOrder, authn, limiter)
	payments.GET("/orders/:id", paymentHandler.GetOrder, authn)
	payments.POST("/verify", paymentHandler.Verify, authn, limiter)
	payments.POST("/webhook", webhookHandler.Receive)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	e.GET("/health", healthHandler.Liveness)
	if d.Readiness != nil {
		e.GET("/health/ready", d.Readiness.Readiness)
	}

	// --- Observability ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}
