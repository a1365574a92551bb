package ports

import (
	"context"

	"github.com/propnest/marketplace/internal/core/domain"
)

// AuthRepository defines the interface for user persistence.
type AuthRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	// AddRole atomically adds role to the user's role set. Adding a role the
	// user already holds is a no-op. sellerType is stored only when non-empty.
	AddRole(ctx context.Context, id string, role domain.Role, sellerType domain.SellerType) (*domain.User, error)
}

// SessionStore tracks revoked session ids until their token would have
// expired anyway.
type SessionStore interface {
	Revoke(ctx context.Context, sessionID string, until int64) error
	IsRevoked(ctx context.Context, sessionID string) (bool, error)
}
