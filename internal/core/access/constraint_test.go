package access

import (
	"testing"

	"github.com/propnest/marketplace/internal/core/domain"
)

func caps(cs ...Capability) CapabilitySet {
	var s CapabilitySet
	for _, c := range cs {
		s = s.With(c)
	}
	return s
}

func TestConstraint_Allows(t *testing.T) {
	sellerOnly := RequireRoles(domain.RoleSeller)
	cases := []struct {
		name string
		c    Constraint
		caps CapabilitySet
		want bool
	}{
		{"zero constraint allows any authenticated", Constraint{}, caps(), true},
		{"role match", sellerOnly, caps(Seller), true},
		{"role mismatch", sellerOnly, caps(Buyer), false},
		{"any of several roles", RequireRoles(domain.RoleBuyer, domain.RoleSeller), caps(Seller), true},
		{"admin overrides required roles", sellerOnly, caps(Admin), true},
		{"super admin does not override required roles", sellerOnly, caps(SuperAdmin), false},
		{"require admin with admin", Constraint{RequireAdmin: true}, caps(Admin), true},
		{"require admin with super admin only", Constraint{RequireAdmin: true}, caps(SuperAdmin), false},
		{"require super admin with admin only", Constraint{RequireSuperAdmin: true}, caps(Admin), false},
		{"require super admin with super admin", Constraint{RequireSuperAdmin: true}, caps(SuperAdmin), true},
		{"both admin flags", Constraint{RequireAdmin: true, RequireSuperAdmin: true}, caps(Admin, SuperAdmin), true},
		{"both admin flags missing admin bit", Constraint{RequireAdmin: true, RequireSuperAdmin: true}, caps(SuperAdmin), false},
	}
	for _, tc := range cases {
		if got := tc.c.Allows(tc.caps); got != tc.want {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestConstraint_AdminVersusSuperAdminScreens(t *testing.T) {
	adminCaps := Capabilities(&domain.Principal{Roles: []domain.Role{domain.RoleAdmin}, IsSuperAdmin: false})

	if !(Constraint{RequireAdmin: true}).Allows(adminCaps) {
		t.Fatalf("admin must be granted an admin screen")
	}
	if (Constraint{RequireSuperAdmin: true}).Allows(adminCaps) {
		t.Fatalf("admin without super admin must be denied a super admin screen")
	}
}

func TestLanding(t *testing.T) {
	cases := []struct {
		name string
		p    *domain.Principal
		pref Dashboard
		want string
	}{
		{"buyer", principal(domain.RoleBuyer), DashboardNone, PathBuyerDashboard},
		{"seller", principal(domain.RoleSeller), DashboardNone, PathSellerDashboard},
		{"dual on seller", principal(domain.RoleBuyer, domain.RoleSeller), DashboardSeller, PathSellerDashboard},
		{"admin", principal(domain.RoleAdmin), DashboardNone, PathAdminDashboard},
		{"no roles", principal(), DashboardNone, PathOnboarding},
		{"super-admin only", superAdmin(), DashboardNone, PathHome},
	}
	for _, tc := range cases {
		if got := Landing(Resolve(tc.p, nil, tc.pref)); got != tc.want {
			t.Errorf("%s: expected %s, got %s", tc.name, tc.want, got)
		}
	}
}
