package handler

import (
	"time"

	"github.com/propnest/marketplace/internal/core/domain"
)

type registerRequest struct {
	Name       string   `json:"name"        validate:"required,max=120"`
	Email      string   `json:"email"       validate:"required,email"`
	Password   string   `json:"password"    validate:"required,min=8"`
	Roles      []string `json:"roles"       validate:"max=2"`
	SellerType string   `json:"seller_type" validate:"omitempty,oneof=individual broker builder"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

type addRoleRequest struct {
	Role       string `json:"role"        validate:"required"`
	SellerType string `json:"seller_type" validate:"omitempty,oneof=individual broker builder"`
}

type userResponse struct {
	User *domain.User `json:"user"`
}

type loginResponse struct {
	Token     string            `json:"token"`
	ExpiresAt time.Time         `json:"expires_at"`
	Principal *domain.Principal `json:"principal"`
}

type principalResponse struct {
	Principal *domain.Principal `json:"principal"`
}

func toRoles(in []string) []domain.Role {
	out := make([]domain.Role, len(in))
	for i, r := range in {
		out[i] = domain.Role(r)
	}
	return out
}
