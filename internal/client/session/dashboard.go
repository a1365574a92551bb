package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/propnest/marketplace/internal/core/access"
	"github.com/propnest/marketplace/internal/core/domain"
)

var (
	// ErrGrantAbandoned is returned when Abandon or a newer switch overtook a
	// pending grant. The caller's screen is no longer the one that asked.
	ErrGrantAbandoned = errors.New("role grant abandoned")
	// ErrGrantInProgress is returned by SwitchTo while another grant is pending.
	ErrGrantInProgress = errors.New("role grant already in progress")
)

// GrantState tracks an explicit role grant.
type GrantState int

const (
	GrantIdle GrantState = iota
	GrantPending
	GrantConfirmed
	GrantFailed
)

func (s GrantState) String() string {
	switch s {
	case GrantIdle:
		return "idle"
	case GrantPending:
		return "pending"
	case GrantConfirmed:
		return "confirmed"
	case GrantFailed:
		return "failed"
	}
	return "unknown"
}

// RoleGranter asks the server to add a role to the caller.
type RoleGranter interface {
	AddRole(ctx context.Context, role domain.Role, sellerType domain.SellerType) (*domain.Principal, error)
}

// QueryCache is any client cache whose entries depend on the principal's
// roles.
type QueryCache interface {
	Invalidate()
}

type DashboardConfig struct {
	Store       *Store
	Routes      *access.RouteTable
	Granter     RoleGranter
	Preferences Preferences
	Queries     QueryCache
	Navigator   Navigator
	Notifier    Notifier
	Log         zerolog.Logger
}

// Dashboard reconciles the displayed dashboard of a buyer+seller principal
// with the route and with explicit switches. Single-role and admin-only
// principals have no preference; their dashboard is fixed by their role.
type Dashboard struct {
	store    *Store
	routes   *access.RouteTable
	granter  RoleGranter
	prefs    Preferences
	queries  QueryCache
	nav      Navigator
	notifier Notifier
	log      zerolog.Logger

	mu          sync.Mutex
	principalID string
	pref        access.Dashboard
	grant       GrantState
	token       string
}

func NewDashboard(cfg DashboardConfig) *Dashboard {
	routes := cfg.Routes
	if routes == nil {
		routes = access.DefaultRoutes()
	}
	prefs := cfg.Preferences
	if prefs == nil {
		prefs = NewMemoryPreferences()
	}
	return &Dashboard{
		store:    cfg.Store,
		routes:   routes,
		granter:  cfg.Granter,
		prefs:    prefs,
		queries:  cfg.Queries,
		nav:      cfg.Navigator,
		notifier: cfg.Notifier,
		log:      cfg.Log.With().Str("component", "dashboard").Logger(),
	}
}

// Preference returns the persisted active dashboard for the current
// principal, creating it as buyer on the first dual-role observation.
func (d *Dashboard) Preference() access.Dashboard {
	snap := d.store.Snapshot()
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.preferenceLocked(snap.Principal)
}

// Resolution resolves the store with the current preference applied.
func (d *Dashboard) Resolution() access.Resolution {
	return d.store.Resolve(d.Preference())
}

// Active returns the dashboard being shown, or DashboardNone when there is
// nothing to switch between.
func (d *Dashboard) Active() access.Dashboard {
	return d.Resolution().EffectiveDashboard
}

func (d *Dashboard) GrantState() GrantState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.grant
}

// OnLocation follows the route: a dual-role principal on a seller-scoped
// path is switched to seller, on a buyer-scoped path to buyer. It reports
// whether the preference changed.
func (d *Dashboard) OnLocation(path string) bool {
	target := d.routes.DashboardFor(path)
	if target == access.DashboardNone {
		return false
	}
	res := d.Resolution()
	if !res.DualRole || res.EffectiveDashboard == target {
		return false
	}

	d.choose(d.store.Snapshot().Principal, target)
	return true
}

// SwitchTo shows target. Holding the role is a local change plus
// navigation. Otherwise the role is granted first, and only once the server
// confirms it and the refreshed principal carries it does the dashboard
// change. A failed grant leaves everything as it was and returns an error
// matching domain.ErrRoleGrantFailed.
func (d *Dashboard) SwitchTo(ctx context.Context, target access.Dashboard) error {
	role, ok := target.Role()
	if !ok {
		return domain.ErrInvalidRole
	}
	snap := d.store.Snapshot()
	if !snap.Authenticated() {
		return domain.ErrAuthenticationRequired
	}

	if snap.Principal.HasRole(role) {
		d.choose(snap.Principal, target)
		d.navigate(access.DashboardPath(target))
		return nil
	}

	return d.grantAndSwitch(ctx, role, target)
}

// Abandon detaches a pending grant from the current screen. Its result, if
// it ever arrives, is discarded.
func (d *Dashboard) Abandon() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.grant == GrantPending {
		d.token = ""
		d.grant = GrantIdle
	}
}

func (d *Dashboard) grantAndSwitch(ctx context.Context, role domain.Role, target access.Dashboard) error {
	d.mu.Lock()
	if d.grant == GrantPending {
		d.mu.Unlock()
		return ErrGrantInProgress
	}
	token := uuid.NewString()
	d.token = token
	d.grant = GrantPending
	d.mu.Unlock()

	log := d.log.With().Str("role", string(role)).Str("request", token).Logger()

	granted, err := d.granter.AddRole(ctx, role, "")
	if err == nil && !granted.HasRole(role) {
		err = errors.New("server response does not carry the role")
	}
	if err != nil {
		return d.fail(token, log, err)
	}
	if !d.current(token) {
		return ErrGrantAbandoned
	}

	if err := d.store.Refresh(ctx); err != nil {
		return d.fail(token, log, fmt.Errorf("refresh principal: %w", err))
	}
	refreshed := d.store.Snapshot().Principal
	if !refreshed.HasRole(role) {
		return d.fail(token, log, errors.New("refreshed principal does not carry the role"))
	}
	if d.queries != nil {
		d.queries.Invalidate()
	}

	d.mu.Lock()
	if d.token != token {
		d.mu.Unlock()
		return ErrGrantAbandoned
	}
	d.grant = GrantConfirmed
	d.token = ""
	d.mu.Unlock()
	d.choose(refreshed, target)

	log.Info().Msg("role granted")
	d.navigate(access.DashboardPath(target))
	return nil
}

func (d *Dashboard) fail(token string, log zerolog.Logger, err error) error {
	d.mu.Lock()
	if d.token != token {
		d.mu.Unlock()
		return ErrGrantAbandoned
	}
	d.grant = GrantFailed
	d.token = ""
	d.mu.Unlock()

	log.Error().Err(err).Msg("role grant failed")
	if d.notifier != nil {
		d.notifier.Notify(NoticeRoleGrantFailed)
	}
	return fmt.Errorf("%w: %v", domain.ErrRoleGrantFailed, err)
}

func (d *Dashboard) current(token string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.token == token
}

// choose records target as the preference when p holds both roles.
func (d *Dashboard) choose(p *domain.Principal, target access.Dashboard) {
	if !p.HasRole(domain.RoleBuyer) || !p.HasRole(domain.RoleSeller) {
		return
	}
	d.mu.Lock()
	d.preferenceLocked(p)
	d.setLocked(p.ID, target)
	d.mu.Unlock()
}

func (d *Dashboard) navigate(path string) {
	if d.nav != nil {
		d.nav.Navigate(path)
	}
}

// preferenceLocked loads the preference when the principal changes. It is
// created only for dual-role principals.
func (d *Dashboard) preferenceLocked(p *domain.Principal) access.Dashboard {
	if p == nil {
		d.principalID, d.pref = "", access.DashboardNone
		return access.DashboardNone
	}
	if p.ID != d.principalID {
		d.principalID = p.ID
		pref, err := d.prefs.Load(p.ID)
		if err != nil {
			d.log.Warn().Err(err).Msg("load dashboard preference")
		}
		d.pref = pref
	}
	if d.pref == access.DashboardNone && p.HasRole(domain.RoleBuyer) && p.HasRole(domain.RoleSeller) {
		d.setLocked(p.ID, access.DashboardBuyer)
	}
	return d.pref
}

func (d *Dashboard) setLocked(principalID string, target access.Dashboard) {
	d.principalID = principalID
	if d.pref == target {
		return
	}
	d.pref = target
	if err := d.prefs.Save(principalID, target); err != nil {
		d.log.Warn().Err(err).Msg("save dashboard preference")
	}
}
