package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/propnest/marketplace/internal/core/domain"
	"github.com/propnest/marketplace/internal/core/payment"
	"github.com/propnest/marketplace/internal/core/ports"
)

type stubAuthService struct {
	registerFn   func(ctx context.Context, in ports.RegisterInput) (*domain.User, error)
	loginFn      func(ctx context.Context, email, password string) (*ports.Session, *domain.User, error)
	addRoleFn    func(ctx context.Context, userID string, role domain.Role, st domain.SellerType) (*domain.Principal, error)
	grantAdminFn func(ctx context.Context, actor *domain.Principal, targetID string) (*domain.Principal, error)
	logoutFn     func(ctx context.Context, s *ports.Session) error
}

func (s *stubAuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	return s.registerFn(ctx, in)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (*ports.Session, *domain.User, error) {
	return s.loginFn(ctx, email, password)
}

func (s *stubAuthService) Authenticate(context.Context, string) (*ports.Session, *domain.Principal, error) {
	return nil, nil, domain.ErrAuthenticationRequired
}

func (s *stubAuthService) CurrentPrincipal(context.Context, string) (*domain.Principal, error) {
	return nil, domain.ErrUserNotFound
}

func (s *stubAuthService) AddRole(ctx context.Context, userID string, role domain.Role, st domain.SellerType) (*domain.Principal, error) {
	return s.addRoleFn(ctx, userID, role, st)
}

func (s *stubAuthService) GrantAdmin(ctx context.Context, actor *domain.Principal, targetID string) (*domain.Principal, error) {
	return s.grantAdminFn(ctx, actor, targetID)
}

func (s *stubAuthService) Logout(ctx context.Context, session *ports.Session) error {
	if s.logoutFn == nil {
		return nil
	}
	return s.logoutFn(ctx, session)
}

type stubOrderService struct {
	createFn func(ctx context.Context, in ports.CreateOrderInput) (*domain.Order, error)
	orders   map[string]*domain.Order
}

func (s *stubOrderService) CreateOrder(ctx context.Context, in ports.CreateOrderInput) (*domain.Order, error) {
	return s.createFn(ctx, in)
}

func (s *stubOrderService) GetOrder(_ context.Context, id string) (*domain.Order, error) {
	o, ok := s.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return o, nil
}

type stubPaymentService struct {
	confirmFn func(ctx context.Context, in ports.ConfirmInput) (*domain.Order, error)
	calls     int
}

func (s *stubPaymentService) Confirm(ctx context.Context, in ports.ConfirmInput) (*domain.Order, error) {
	s.calls++
	return s.confirmFn(ctx, in)
}

func (s *stubPaymentService) ApplyWebhook(context.Context, payment.Proof) (*domain.Order, error) {
	return nil, nil
}

// newContext builds an echo context with the package validator installed.
func newContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func withPrincipal(c echo.Context, p *domain.Principal) {
	c.Set("principal", p)
	c.Set("session", &ports.Session{ID: "sid-" + p.ID, UserID: p.ID})
}

func httpCode(err error) int {
	if he, ok := err.(*echo.HTTPError); ok {
		return he.Code
	}
	return 0
}
