package access

import (
	"errors"
	"testing"

	"github.com/propnest/marketplace/internal/core/domain"
)

func principal(roles ...domain.Role) *domain.Principal {
	return &domain.Principal{ID: "u1", Email: "u1@example.com", Roles: roles}
}

func superAdmin(roles ...domain.Role) *domain.Principal {
	p := principal(roles...)
	p.IsSuperAdmin = true
	return p
}

func TestResolve_Unauthenticated(t *testing.T) {
	cases := map[string]struct {
		p   *domain.Principal
		err error
	}{
		"no principal": {nil, nil},
		"load failed":  {principal(domain.RoleBuyer), errors.New("401")},
	}
	for name, tc := range cases {
		res := Resolve(tc.p, tc.err, DashboardSeller)
		if res.IsAuthenticated {
			t.Errorf("%s: expected unauthenticated", name)
		}
		if !res.Capabilities.Empty() {
			t.Errorf("%s: expected no capabilities, got %s", name, res.Capabilities)
		}
		if res.EffectiveDashboard != DashboardNone {
			t.Errorf("%s: expected no dashboard, got %q", name, res.EffectiveDashboard)
		}
	}
}

func TestResolve_EffectiveDashboard(t *testing.T) {
	cases := []struct {
		name  string
		p     *domain.Principal
		pref  Dashboard
		want  Dashboard
		dual  bool
		onbrd bool
	}{
		{"buyer only ignores pref", principal(domain.RoleBuyer), DashboardSeller, DashboardBuyer, false, false},
		{"seller only ignores pref", principal(domain.RoleSeller), DashboardBuyer, DashboardSeller, false, false},
		{"dual defaults to buyer", principal(domain.RoleBuyer, domain.RoleSeller), DashboardNone, DashboardBuyer, true, false},
		{"dual honours seller pref", principal(domain.RoleSeller, domain.RoleBuyer), DashboardSeller, DashboardSeller, true, false},
		{"admin only", principal(domain.RoleAdmin), DashboardBuyer, DashboardNone, false, false},
		{"no roles", principal(), DashboardBuyer, DashboardNone, false, true},
	}
	for _, tc := range cases {
		res := Resolve(tc.p, nil, tc.pref)
		if !res.IsAuthenticated {
			t.Errorf("%s: expected authenticated", tc.name)
		}
		if res.EffectiveDashboard != tc.want {
			t.Errorf("%s: expected dashboard %q, got %q", tc.name, tc.want, res.EffectiveDashboard)
		}
		if res.DualRole != tc.dual {
			t.Errorf("%s: expected dual=%v", tc.name, tc.dual)
		}
		if res.NeedsOnboarding != tc.onbrd {
			t.Errorf("%s: expected onboarding=%v", tc.name, tc.onbrd)
		}
	}
}

func TestCapabilities_SuperAdminIndependentOfAdmin(t *testing.T) {
	p := principal(domain.RoleBuyer)
	p.IsSuperAdmin = true
	caps := Capabilities(p)
	if !caps.Has(SuperAdmin) {
		t.Fatalf("expected super admin capability")
	}
	if caps.Has(Admin) {
		t.Fatalf("super admin must not imply admin")
	}

	caps = Capabilities(principal(domain.RoleAdmin))
	if caps.Has(SuperAdmin) {
		t.Fatalf("admin must not imply super admin")
	}
}

func TestCapabilities_IgnoresUnknownRoles(t *testing.T) {
	caps := Capabilities(principal("owner", domain.RoleSeller))
	if caps != CapabilitySet(Seller) {
		t.Fatalf("expected only seller, got %s", caps)
	}
}
