package session

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/propnest/marketplace/internal/core/domain"
)

var nopLog = zerolog.Nop()

func principal(id string, roles ...domain.Role) *domain.Principal {
	return &domain.Principal{ID: id, Email: id + "@example.com", Roles: roles}
}

// stubFetcher returns whatever was last set.
type stubFetcher struct {
	mu    sync.Mutex
	p     *domain.Principal
	err   error
	calls int
}

func (f *stubFetcher) set(p *domain.Principal, err error) {
	f.mu.Lock()
	f.p, f.err = p, err
	f.mu.Unlock()
}

func (f *stubFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *stubFetcher) Me(context.Context) (*domain.Principal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.p, nil
}

// gatedResponse is one scripted fetch. started is closed when the fetch
// begins; the fetch returns once release is closed.
type gatedResponse struct {
	p       *domain.Principal
	err     error
	started chan struct{}
	release chan struct{}
}

type scriptedFetcher struct {
	mu        sync.Mutex
	responses []*gatedResponse
}

func (f *scriptedFetcher) push(r *gatedResponse) {
	f.mu.Lock()
	f.responses = append(f.responses, r)
	f.mu.Unlock()
}

func (f *scriptedFetcher) Me(ctx context.Context) (*domain.Principal, error) {
	f.mu.Lock()
	r := f.responses[0]
	f.responses = f.responses[1:]
	f.mu.Unlock()

	if r.started != nil {
		close(r.started)
	}
	if r.release != nil {
		select {
		case <-r.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return r.p, r.err
}

type recordingNav struct {
	mu    sync.Mutex
	paths []string
}

func (n *recordingNav) Navigate(path string) {
	n.mu.Lock()
	n.paths = append(n.paths, path)
	n.mu.Unlock()
}

func (n *recordingNav) all() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.paths...)
}

type recordingNotifier struct {
	mu      sync.Mutex
	notices []Notice
}

func (n *recordingNotifier) Notify(notice Notice) {
	n.mu.Lock()
	n.notices = append(n.notices, notice)
	n.mu.Unlock()
}

func (n *recordingNotifier) all() []Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Notice(nil), n.notices...)
}

// stubGranter grants by updating the fetcher, unless err is set. When gate
// is set it signals started and waits on gate before answering.
type stubGranter struct {
	mu      sync.Mutex
	fetcher *stubFetcher
	err     error
	calls   int
	started chan struct{}
	gate    chan struct{}
}

func (g *stubGranter) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

func (g *stubGranter) AddRole(ctx context.Context, role domain.Role, _ domain.SellerType) (*domain.Principal, error) {
	g.mu.Lock()
	g.calls++
	err, started, gate := g.err, g.started, g.gate
	g.mu.Unlock()

	if started != nil {
		close(started)
	}
	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}

	g.fetcher.mu.Lock()
	defer g.fetcher.mu.Unlock()
	p := *g.fetcher.p
	if !p.HasRole(role) {
		p.Roles = append(append([]domain.Role(nil), p.Roles...), role)
	}
	g.fetcher.p = &p
	out := p
	return &out, nil
}

type countingCache struct {
	mu sync.Mutex
	n  int
}

func (c *countingCache) Invalidate() {
	c.mu.Lock()
	c.n++
	c.mu.Unlock()
}

func (c *countingCache) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}
