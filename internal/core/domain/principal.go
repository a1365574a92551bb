package domain

import (
	"slices"
	"time"
)

// Role is a marketplace role a user can hold. Super-admin is not a Role; it is
// tracked separately on the user record.
type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
	RoleAdmin  Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleBuyer, RoleSeller, RoleAdmin:
		return true
	}
	return false
}

// SelfGrantable reports whether a user may add r to their own account.
// Admin is only ever granted by a super-admin.
func (r Role) SelfGrantable() bool {
	return r == RoleBuyer || r == RoleSeller
}

// SellerType qualifies a seller account. Meaningful only when the user holds
// RoleSeller.
type SellerType string

const (
	SellerIndividual SellerType = "individual"
	SellerBroker     SellerType = "broker"
	SellerBuilder    SellerType = "builder"
)

// Valid reports whether t is one of the known seller types.
func (t SellerType) Valid() bool {
	switch t {
	case SellerIndividual, SellerBroker, SellerBuilder:
		return true
	}
	return false
}

// User is the persisted account record. It is the only authoritative source
// of role data; everything handed to clients is a Principal projection.
type User struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Roles        []Role     `json:"roles"`
	IsSuperAdmin bool       `json:"is_super_admin"`
	SellerType   SellerType `json:"seller_type,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// HasRole reports whether the user holds role r.
func (u *User) HasRole(r Role) bool {
	return slices.Contains(u.Roles, r)
}

// Principal projects the user into the identity record shared with clients.
func (u *User) Principal() *Principal {
	p := &Principal{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		Roles:        slices.Clone(u.Roles),
		IsSuperAdmin: u.IsSuperAdmin,
	}
	if u.HasRole(RoleSeller) && u.SellerType != "" {
		st := u.SellerType
		p.SellerType = &st
	}
	if p.Roles == nil {
		p.Roles = []Role{}
	}
	return p
}

// Principal is the authenticated identity and its role data.
//
// IsSuperAdmin is independent of RoleAdmin: a super-admin without the admin
// role does not pass admin-only checks, and an admin never passes
// super-admin checks.
type Principal struct {
	ID           string      `json:"id"`
	Name         string      `json:"name,omitempty"`
	Email        string      `json:"email"`
	Roles        []Role      `json:"roles"`
	IsSuperAdmin bool        `json:"is_super_admin"`
	SellerType   *SellerType `json:"seller_type,omitempty"`
}

// HasRole reports whether the principal holds role r.
func (p *Principal) HasRole(r Role) bool {
	if p == nil {
		return false
	}
	return slices.Contains(p.Roles, r)
}
