// Package access derives capabilities from a principal's role data and
// decides whether those capabilities satisfy a screen or route constraint.
// It is the single place where role combination rules live; the server RBAC
// middleware and the client route guard both call into it.
package access

import (
	"strings"

	"github.com/propnest/marketplace/internal/core/domain"
)

// Capability is a single checkable permission.
type Capability uint8

const (
	Buyer Capability = 1 << iota
	Seller
	Admin
	SuperAdmin
)

func (c Capability) String() string {
	switch c {
	case Buyer:
		return "buyer"
	case Seller:
		return "seller"
	case Admin:
		return "admin"
	case SuperAdmin:
		return "super_admin"
	}
	return "unknown"
}

// CapabilitySet is a closed set over {Buyer, Seller, Admin, SuperAdmin}.
type CapabilitySet uint8

// Has reports whether c is in the set. Admin and SuperAdmin are independent
// bits: neither implies the other.
func (s CapabilitySet) Has(c Capability) bool {
	return s&CapabilitySet(c) != 0
}

// With returns the set with c added.
func (s CapabilitySet) With(c Capability) CapabilitySet {
	return s | CapabilitySet(c)
}

// Empty reports whether the set holds no capability.
func (s CapabilitySet) Empty() bool {
	return s == 0
}

func (s CapabilitySet) String() string {
	var parts []string
	for _, c := range []Capability{Buyer, Seller, Admin, SuperAdmin} {
		if s.Has(c) {
			parts = append(parts, c.String())
		}
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// CapabilityOf maps a role to its capability.
func CapabilityOf(r domain.Role) (Capability, bool) {
	switch r {
	case domain.RoleBuyer:
		return Buyer, true
	case domain.RoleSeller:
		return Seller, true
	case domain.RoleAdmin:
		return Admin, true
	}
	return 0, false
}

// Capabilities derives the capability set of p. A nil principal has none.
func Capabilities(p *domain.Principal) CapabilitySet {
	var set CapabilitySet
	if p == nil {
		return set
	}
	for _, r := range p.Roles {
		if c, ok := CapabilityOf(r); ok {
			set = set.With(c)
		}
	}
	if p.IsSuperAdmin {
		set = set.With(SuperAdmin)
	}
	return set
}
