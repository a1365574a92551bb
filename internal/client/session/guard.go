package session

import (
	"strings"
	"sync"

	"github.com/propnest/marketplace/internal/core/access"
)

// State is the outcome of a guard evaluation.
type State int

const (
	StateLoading State = iota
	StateUnauthenticated
	StateChecking
	StateAuthorized
	StateForbidden
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateUnauthenticated:
		return "unauthenticated"
	case StateChecking:
		return "checking"
	case StateAuthorized:
		return "authorized"
	case StateForbidden:
		return "forbidden"
	}
	return "unknown"
}

// Notice is a user-facing message raised by the guard or the dashboard.
type Notice int

const (
	NoticeNone Notice = iota
	NoticeAuthenticationRequired
	NoticeAccessDenied
	NoticeRoleGrantFailed
)

func (n Notice) String() string {
	switch n {
	case NoticeAuthenticationRequired:
		return "Please sign in to continue."
	case NoticeAccessDenied:
		return "You do not have access to that page."
	case NoticeRoleGrantFailed:
		return "We could not switch your dashboard. Please try again."
	}
	return ""
}

// Navigator performs client-side redirects.
type Navigator interface {
	Navigate(path string)
}

// Notifier shows transient notices.
type Notifier interface {
	Notify(n Notice)
}

// Decision is what a guarded screen should do. Render is true only in
// StateAuthorized.
type Decision struct {
	State      State
	Render     bool
	RedirectTo string
	Notice     Notice
}

type GuardOption func(*Guard)

// WithSignInPath overrides the unauthenticated redirect target.
func WithSignInPath(path string) GuardOption {
	return func(g *Guard) { g.signIn = path }
}

// WithRoutes replaces the route table used by EvaluatePath and WatchPath.
func WithRoutes(routes *access.RouteTable) GuardOption {
	return func(g *Guard) { g.routes = routes }
}

// WithPreference supplies the active dashboard used to pick the landing page
// for dual-role principals.
func WithPreference(pref func() access.Dashboard) GuardOption {
	return func(g *Guard) { g.pref = pref }
}

// Guard decides whether the current principal may see a screen.
//
// Side effects run once per distinct settled input: evaluating again with the
// same location, constraint and capabilities returns the same decision and
// does nothing, even across a pending re-check in between. Use one Guard per
// navigation surface.
type Guard struct {
	store    *Store
	nav      Navigator
	notifier Notifier
	routes   *access.RouteTable
	signIn   string
	pref     func() access.Dashboard

	mu      sync.Mutex
	last    evalKey
	hasLast bool
}

type evalKey struct {
	location   string
	constraint string
	state      State
	caps       access.CapabilitySet
	redirect   string
}

func NewGuard(store *Store, nav Navigator, notifier Notifier, opts ...GuardOption) *Guard {
	g := &Guard{
		store:    store,
		nav:      nav,
		notifier: notifier,
		routes:   access.DefaultRoutes(),
		signIn:   access.PathSignIn,
		pref:     func() access.Dashboard { return access.DashboardNone },
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Evaluate decides for location under c and runs the decision's side
// effects if the inputs changed since the previous evaluation.
func (g *Guard) Evaluate(location string, c access.Constraint) Decision {
	snap := g.store.Snapshot()
	res := access.Resolve(snap.Principal, snap.Err, g.pref())
	d := g.decide(snap, res, location, c)
	if d.State == StateLoading || d.State == StateChecking {
		// Pending decisions have no effects and do not replace the last
		// settled one.
		return d
	}

	key := evalKey{
		location:   location,
		constraint: constraintKey(c),
		state:      d.State,
		caps:       res.Capabilities,
		redirect:   d.RedirectTo,
	}
	g.mu.Lock()
	repeat := g.hasLast && g.last == key
	g.last, g.hasLast = key, true
	g.mu.Unlock()

	if !repeat {
		g.apply(d)
	}
	return d
}

// EvaluatePath evaluates location under the constraint the route table
// declares for it. A path the table does not guard is rendered as is.
func (g *Guard) EvaluatePath(location string) Decision {
	c, guarded := g.routes.ConstraintFor(location)
	if !guarded {
		return Decision{State: StateAuthorized, Render: true}
	}
	return g.Evaluate(location, c)
}

// WatchPath is Watch with the constraint taken from the route table.
func (g *Guard) WatchPath(location string, fn func(Decision)) (stop func()) {
	unsubscribe := g.store.Subscribe(func(Snapshot) {
		fn(g.EvaluatePath(location))
	})
	fn(g.EvaluatePath(location))
	return unsubscribe
}

// Watch evaluates now and again after every store change, passing each
// decision to fn. The returned function stops watching.
func (g *Guard) Watch(location string, c access.Constraint, fn func(Decision)) (stop func()) {
	unsubscribe := g.store.Subscribe(func(Snapshot) {
		fn(g.Evaluate(location, c))
	})
	fn(g.Evaluate(location, c))
	return unsubscribe
}

// Reset forgets the previous evaluation so the next one runs its effects.
func (g *Guard) Reset() {
	g.mu.Lock()
	g.hasLast = false
	g.mu.Unlock()
}

func (g *Guard) decide(snap Snapshot, res access.Resolution, location string, c access.Constraint) Decision {
	switch {
	case snap.Loading:
		return Decision{State: StateLoading}
	case snap.Stale:
		return Decision{State: StateChecking}
	case !res.IsAuthenticated:
		d := Decision{State: StateUnauthenticated}
		if !samePath(location, g.signIn) {
			d.RedirectTo = g.signIn
			d.Notice = NoticeAuthenticationRequired
		}
		return d
	case c.Allows(res.Capabilities):
		return Decision{State: StateAuthorized, Render: true}
	}

	d := Decision{State: StateForbidden, Notice: NoticeAccessDenied}
	if landing := access.Landing(res); !samePath(location, landing) {
		d.RedirectTo = landing
	}
	return d
}

func (g *Guard) apply(d Decision) {
	if d.State == StateUnauthenticated {
		g.store.Clear()
	}
	if d.Notice != NoticeNone && g.notifier != nil {
		g.notifier.Notify(d.Notice)
	}
	if d.RedirectTo != "" && g.nav != nil {
		g.nav.Navigate(d.RedirectTo)
	}
}

func constraintKey(c access.Constraint) string {
	var b strings.Builder
	if c.RequireAdmin {
		b.WriteString("admin;")
	}
	if c.RequireSuperAdmin {
		b.WriteString("super;")
	}
	for _, r := range c.RequiredRoles {
		b.WriteString(string(r))
		b.WriteByte(',')
	}
	return b.String()
}

func samePath(a, b string) bool {
	trim := func(p string) string {
		if i := strings.IndexAny(p, "?#"); i >= 0 {
			p = p[:i]
		}
		if len(p) > 1 {
			p = strings.TrimSuffix(p, "/")
		}
		return p
	}
	return trim(a) == trim(b)
}
