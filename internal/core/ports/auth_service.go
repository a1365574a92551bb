package ports

import (
	"context"
	"time"

	"github.com/propnest/marketplace/internal/core/domain"
)

// RegisterInput carries the data needed to create an account. Roles may be
// empty (pre-onboarding) and may only contain buyer or seller.
type RegisterInput struct {
	Name       string
	Email      string
	Password   string
	Roles      []domain.Role
	SellerType domain.SellerType
}

// Session is an issued session token and its identity.
type Session struct {
	Token     string
	ID        string
	UserID    string
	ExpiresAt time.Time
}

// AuthService implements accounts, sessions and role grants.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*Session, *domain.User, error)
	// Authenticate resolves a session token to the current principal. The
	// principal is loaded from storage, never from the token.
	Authenticate(ctx context.Context, token string) (*Session, *domain.Principal, error)
	CurrentPrincipal(ctx context.Context, userID string) (*domain.Principal, error)
	AddRole(ctx context.Context, userID string, role domain.Role, sellerType domain.SellerType) (*domain.Principal, error)
	GrantAdmin(ctx context.Context, actor *domain.Principal, targetID string) (*domain.Principal, error)
	Logout(ctx context.Context, session *Session) error
}
