package session

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/propnest/marketplace/internal/core/access"
	"github.com/propnest/marketplace/internal/core/domain"
)

type dashboardFixture struct {
	dash    *Dashboard
	store   *Store
	fetcher *stubFetcher
	granter *stubGranter
	prefs   *MemoryPreferences
	cache   *countingCache
	nav     *recordingNav
	notes   *recordingNotifier
}

func newDashboardFixture(t *testing.T, p *domain.Principal) *dashboardFixture {
	t.Helper()
	fx := &dashboardFixture{
		fetcher: &stubFetcher{p: p},
		prefs:   NewMemoryPreferences(),
		cache:   &countingCache{},
		nav:     &recordingNav{},
		notes:   &recordingNotifier{},
	}
	fx.granter = &stubGranter{fetcher: fx.fetcher}
	fx.store = NewStore(fx.fetcher, nopLog)
	if err := fx.store.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	fx.dash = NewDashboard(DashboardConfig{
		Store:       fx.store,
		Granter:     fx.granter,
		Preferences: fx.prefs,
		Queries:     fx.cache,
		Navigator:   fx.nav,
		Notifier:    fx.notes,
		Log:         nopLog,
	})
	return fx
}

func TestDashboard_SingleRoleIsFixed(t *testing.T) {
	tests := []struct {
		name string
		p    *domain.Principal
		want access.Dashboard
	}{
		{"buyer", principal("b", domain.RoleBuyer), access.DashboardBuyer},
		{"seller", principal("s", domain.RoleSeller), access.DashboardSeller},
		{"admin only", principal("a", domain.RoleAdmin), access.DashboardNone},
		{"no role yet", principal("n"), access.DashboardNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newDashboardFixture(t, tt.p)
			if got := fx.dash.Active(); got != tt.want {
				t.Fatalf("Active() = %q, want %q", got, tt.want)
			}
			if fx.dash.OnLocation("/seller/listings") || fx.dash.OnLocation("/favorites") {
				t.Fatalf("route inference applies to dual-role principals only")
			}
			if saved, _ := fx.prefs.Load(tt.p.ID); saved != access.DashboardNone {
				t.Fatalf("preference must not be created, got %q", saved)
			}
		})
	}
}

func TestDashboard_DualRoleDefaultsToBuyer(t *testing.T) {
	fx := newDashboardFixture(t, principal("d", domain.RoleBuyer, domain.RoleSeller))

	if got := fx.dash.Active(); got != access.DashboardBuyer {
		t.Fatalf("Active() = %q, want buyer", got)
	}
	if saved, _ := fx.prefs.Load("d"); saved != access.DashboardBuyer {
		t.Fatalf("first dual-role observation must persist buyer, got %q", saved)
	}
}

func TestDashboard_OnLocation(t *testing.T) {
	fx := newDashboardFixture(t, principal("d", domain.RoleBuyer, domain.RoleSeller))

	if !fx.dash.OnLocation("/seller/listings/42") {
		t.Fatalf("seller path must switch to seller")
	}
	if got := fx.dash.Active(); got != access.DashboardSeller {
		t.Fatalf("Active() = %q", got)
	}
	if fx.dash.OnLocation("/seller/dashboard") {
		t.Fatalf("already on seller, nothing changes")
	}
	if fx.dash.OnLocation("/admin/users") || fx.dash.OnLocation("/sellers") {
		t.Fatalf("paths without a dashboard context must not switch")
	}
	if !fx.dash.OnLocation("/saved-searches") {
		t.Fatalf("shared buyer route must switch to buyer")
	}
	if got, _ := fx.prefs.Load("d"); got != access.DashboardBuyer {
		t.Fatalf("persisted preference = %q", got)
	}
	if len(fx.nav.all()) != 0 {
		t.Fatalf("route inference must not navigate")
	}
}

func TestDashboard_SwitchToHeldRoleIsLocal(t *testing.T) {
	fx := newDashboardFixture(t, principal("d", domain.RoleBuyer, domain.RoleSeller))
	fetches := fx.fetcher.callCount()

	if err := fx.dash.SwitchTo(context.Background(), access.DashboardSeller); err != nil {
		t.Fatalf("SwitchTo: %v", err)
	}
	if fx.granter.callCount() != 0 || fx.fetcher.callCount() != fetches {
		t.Fatalf("held-role switch must not touch the network")
	}
	if got := fx.dash.Active(); got != access.DashboardSeller {
		t.Fatalf("Active() = %q", got)
	}
	if got := fx.nav.all(); !slices.Equal(got, []string{access.PathSellerDashboard}) {
		t.Fatalf("unexpected navigation %v", got)
	}
}

func TestDashboard_SwitchToUnheldRoleGrantsFirst(t *testing.T) {
	fx := newDashboardFixture(t, principal("b", domain.RoleBuyer))

	if err := fx.dash.SwitchTo(context.Background(), access.DashboardSeller); err != nil {
		t.Fatalf("SwitchTo: %v", err)
	}
	if fx.granter.callCount() != 1 {
		t.Fatalf("expected one grant call, got %d", fx.granter.callCount())
	}
	if fx.fetcher.callCount() != 2 {
		t.Fatalf("principal must be refreshed after the grant")
	}
	if fx.cache.count() != 1 {
		t.Fatalf("dependent queries must be invalidated once")
	}
	if !fx.store.Snapshot().Principal.HasRole(domain.RoleSeller) {
		t.Fatalf("store must hold the granted role")
	}
	if fx.dash.GrantState() != GrantConfirmed {
		t.Fatalf("grant state = %s", fx.dash.GrantState())
	}
	if got := fx.dash.Active(); got != access.DashboardSeller {
		t.Fatalf("Active() = %q", got)
	}
	if got := fx.nav.all(); !slices.Equal(got, []string{access.PathSellerDashboard}) {
		t.Fatalf("unexpected navigation %v", got)
	}
}

func TestDashboard_FailedGrantChangesNothing(t *testing.T) {
	fx := newDashboardFixture(t, principal("s", domain.RoleSeller))
	fx.granter.err = errors.New("connection reset")

	err := fx.dash.SwitchTo(context.Background(), access.DashboardBuyer)
	if !errors.Is(err, domain.ErrRoleGrantFailed) {
		t.Fatalf("expected ErrRoleGrantFailed, got %v", err)
	}
	if got := fx.dash.Active(); got != access.DashboardSeller {
		t.Fatalf("dashboard must stay on seller, got %q", got)
	}
	if fx.dash.GrantState() != GrantFailed {
		t.Fatalf("grant state = %s", fx.dash.GrantState())
	}
	if len(fx.nav.all()) != 0 || fx.cache.count() != 0 || fx.fetcher.callCount() != 1 {
		t.Fatalf("a failed grant must have no side effects besides the notice")
	}
	if got := fx.notes.all(); !slices.Equal(got, []Notice{NoticeRoleGrantFailed}) {
		t.Fatalf("unexpected notices %v", got)
	}

	fx.granter.mu.Lock()
	fx.granter.err = nil
	fx.granter.mu.Unlock()
	if err := fx.dash.SwitchTo(context.Background(), access.DashboardBuyer); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if got := fx.dash.Active(); got != access.DashboardBuyer {
		t.Fatalf("retry must switch, got %q", got)
	}
	if fx.granter.callCount() != 2 {
		t.Fatalf("no automatic retries, one per user action")
	}
}

func TestDashboard_AbandonedGrantIsDiscarded(t *testing.T) {
	fx := newDashboardFixture(t, principal("b", domain.RoleBuyer))
	fx.granter.started = make(chan struct{})
	fx.granter.gate = make(chan struct{})

	done := make(chan error, 1)
	go func() { done <- fx.dash.SwitchTo(context.Background(), access.DashboardSeller) }()
	<-fx.granter.started

	if fx.dash.GrantState() != GrantPending {
		t.Fatalf("grant must be pending")
	}
	fx.dash.Abandon()
	close(fx.granter.gate)

	if err := <-done; !errors.Is(err, ErrGrantAbandoned) {
		t.Fatalf("expected ErrGrantAbandoned, got %v", err)
	}
	if got := fx.dash.Active(); got != access.DashboardBuyer {
		t.Fatalf("abandoned grant must not switch, got %q", got)
	}
	if len(fx.nav.all()) != 0 {
		t.Fatalf("abandoned grant must not navigate")
	}
}

func TestDashboard_SwitchRequiresSession(t *testing.T) {
	fx := newDashboardFixture(t, principal("b", domain.RoleBuyer))
	fx.store.Clear()

	if err := fx.dash.SwitchTo(context.Background(), access.DashboardSeller); !errors.Is(err, domain.ErrAuthenticationRequired) {
		t.Fatalf("expected ErrAuthenticationRequired, got %v", err)
	}
	if err := fx.dash.SwitchTo(context.Background(), access.DashboardNone); !errors.Is(err, domain.ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
}
