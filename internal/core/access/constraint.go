package access

import "github.com/propnest/marketplace/internal/core/domain"

// Landing paths used for redirects after a denied check.
const (
	PathHome            = "/"
	PathSignIn          = "/login"
	PathBuyerDashboard  = "/buyer/dashboard"
	PathSellerDashboard = "/seller/dashboard"
	PathAdminDashboard  = "/admin/dashboard"
	PathOnboarding      = "/onboarding"
)

// Constraint is the set of requirements attached to a guarded screen or
// route. The zero value only requires authentication.
type Constraint struct {
	RequireAdmin      bool
	RequireSuperAdmin bool
	// RequiredRoles is satisfied by holding any one of the listed roles, or
	// by holding Admin.
	RequiredRoles []domain.Role
}

// RequireRoles is shorthand for a Constraint with RequiredRoles set.
func RequireRoles(roles ...domain.Role) Constraint {
	return Constraint{RequiredRoles: roles}
}

// Allows reports whether caps satisfies every requirement.
//
// Admin overrides RequiredRoles but never RequireSuperAdmin, and SuperAdmin
// never satisfies RequireAdmin on its own.
func (c Constraint) Allows(caps CapabilitySet) bool {
	if c.RequireSuperAdmin && !caps.Has(SuperAdmin) {
		return false
	}
	if c.RequireAdmin && !caps.Has(Admin) {
		return false
	}
	if len(c.RequiredRoles) > 0 && !caps.Has(Admin) {
		matched := false
		for _, r := range c.RequiredRoles {
			if rc, ok := CapabilityOf(r); ok && caps.Has(rc) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

// Equal reports whether two constraints carry the same requirements.
func (c Constraint) Equal(o Constraint) bool {
	if c.RequireAdmin != o.RequireAdmin || c.RequireSuperAdmin != o.RequireSuperAdmin {
		return false
	}
	if len(c.RequiredRoles) != len(o.RequiredRoles) {
		return false
	}
	for i := range c.RequiredRoles {
		if c.RequiredRoles[i] != o.RequiredRoles[i] {
			return false
		}
	}
	return true
}

// Landing returns where a denied principal is sent: their own dashboard,
// the admin dashboard, onboarding for a principal with no role yet, or the
// public home.
func Landing(res Resolution) string {
	switch {
	case res.EffectiveDashboard == DashboardBuyer:
		return PathBuyerDashboard
	case res.EffectiveDashboard == DashboardSeller:
		return PathSellerDashboard
	case res.Capabilities.Has(Admin):
		return PathAdminDashboard
	case res.NeedsOnboarding:
		return PathOnboarding
	}
	return PathHome
}

// DashboardPath returns the landing page of a dashboard.
func DashboardPath(d Dashboard) string {
	switch d {
	case DashboardBuyer:
		return PathBuyerDashboard
	case DashboardSeller:
		return PathSellerDashboard
	}
	return PathHome
}
