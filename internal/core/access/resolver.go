package access

import "github.com/propnest/marketplace/internal/core/domain"

// Dashboard is the role-specific view shown to a buyer or seller.
type Dashboard string

const (
	DashboardNone   Dashboard = ""
	DashboardBuyer  Dashboard = "buyer"
	DashboardSeller Dashboard = "seller"
)

// Role returns the role backing the dashboard.
func (d Dashboard) Role() (domain.Role, bool) {
	switch d {
	case DashboardBuyer:
		return domain.RoleBuyer, true
	case DashboardSeller:
		return domain.RoleSeller, true
	}
	return "", false
}

// Capability returns the capability backing the dashboard.
func (d Dashboard) Capability() (Capability, bool) {
	switch d {
	case DashboardBuyer:
		return Buyer, true
	case DashboardSeller:
		return Seller, true
	}
	return 0, false
}

// Resolution is everything downstream consumers need to know about the
// current principal.
type Resolution struct {
	IsAuthenticated    bool
	Capabilities       CapabilitySet
	EffectiveDashboard Dashboard
	// DualRole is true when the principal holds both buyer and seller.
	DualRole bool
	// NeedsOnboarding is true for an authenticated principal with no role.
	NeedsOnboarding bool
}

// Resolve computes the resolution for a loaded principal. loadErr non-nil or
// p nil means no principal was loaded; the result is then unauthenticated no
// matter what a previous resolution said. pref is the persisted active
// dashboard and only matters for dual-role principals.
func Resolve(p *domain.Principal, loadErr error, pref Dashboard) Resolution {
	if loadErr != nil || p == nil {
		return Resolution{}
	}

	caps := Capabilities(p)
	res := Resolution{
		IsAuthenticated: true,
		Capabilities:    caps,
	}

	buyer, seller := caps.Has(Buyer), caps.Has(Seller)
	switch {
	case buyer && seller:
		res.DualRole = true
		res.EffectiveDashboard = DashboardBuyer
		if pref == DashboardSeller {
			res.EffectiveDashboard = DashboardSeller
		}
	case buyer:
		res.EffectiveDashboard = DashboardBuyer
	case seller:
		res.EffectiveDashboard = DashboardSeller
	}

	res.NeedsOnboarding = !buyer && !seller && !caps.Has(Admin) && !caps.Has(SuperAdmin)
	return res
}
