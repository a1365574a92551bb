// Package session holds the client-side view of the signed-in principal:
// the store that loads it, the guard that gates screens on it, and the
// dashboard context for principals holding both buyer and seller.
//
// Nothing here is authoritative. Every decision the guard makes is repeated
// by the server on each request.
package session

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"github.com/propnest/marketplace/internal/core/access"
	"github.com/propnest/marketplace/internal/core/domain"
)

// ErrStoreClosed is returned by Refresh after Teardown.
var ErrStoreClosed = errors.New("principal store closed")

// Fetcher loads the current principal from the server.
type Fetcher interface {
	Me(ctx context.Context) (*domain.Principal, error)
}

// Snapshot is the store state at one instant.
//
// Loading is set while the first fetch for an empty store is in flight.
// Stale is set while a loaded principal is being re-checked; consumers treat
// it as pending, never as authorized.
type Snapshot struct {
	Loading   bool
	Stale     bool
	Principal *domain.Principal
	Err       error
}

// Pending reports whether a decision must wait for a fetch.
func (s Snapshot) Pending() bool {
	return s.Loading || s.Stale
}

func (s Snapshot) empty() bool {
	return !s.Loading && !s.Stale && s.Principal == nil && s.Err == nil
}

// Authenticated reports whether a principal is loaded and current.
func (s Snapshot) Authenticated() bool {
	return !s.Pending() && s.Err == nil && s.Principal != nil
}

// Store is the principal store. One instance lives for one signed-in
// lifetime; it is torn down on sign-out.
type Store struct {
	fetcher Fetcher
	log     zerolog.Logger

	mu      sync.Mutex
	snap    Snapshot
	gen     uint64
	subs    map[int]func(Snapshot)
	nextSub int
	closed  bool
}

func NewStore(fetcher Fetcher, log zerolog.Logger) *Store {
	return &Store{
		fetcher: fetcher,
		log:     log.With().Str("component", "principal_store").Logger(),
		snap:    Snapshot{Loading: true},
		subs:    make(map[int]func(Snapshot)),
	}
}

// Init performs the first load.
func (s *Store) Init(ctx context.Context) error {
	return s.Refresh(ctx)
}

// Refresh refetches the principal. Only the latest call's result is kept;
// a fetch overtaken by another Refresh or a Clear is discarded. Any fetch
// error drops the principal, so a revoked session reads as signed out.
func (s *Store) Refresh(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrStoreClosed
	}
	s.gen++
	gen := s.gen
	if s.snap.Principal == nil {
		s.snap = Snapshot{Loading: true}
	} else {
		s.snap.Stale = true
	}
	s.publishLocked()

	p, err := s.fetcher.Me(ctx)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrStoreClosed
	}
	if gen != s.gen {
		s.mu.Unlock()
		return nil
	}
	if err != nil {
		s.log.Debug().Err(err).Msg("principal fetch failed, treating as signed out")
		s.snap = Snapshot{Err: err}
	} else {
		s.snap = Snapshot{Principal: clonePrincipal(p)}
	}
	s.publishLocked()
	return err
}

// Invalidate marks a loaded principal stale until the next Refresh lands.
func (s *Store) Invalidate() {
	s.mu.Lock()
	if s.closed || s.snap.Principal == nil || s.snap.Stale {
		s.mu.Unlock()
		return
	}
	s.snap.Stale = true
	s.publishLocked()
}

// Clear drops the principal and any in-flight fetch.
func (s *Store) Clear() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.gen++
	if s.snap.empty() {
		s.mu.Unlock()
		return
	}
	s.snap = Snapshot{}
	s.publishLocked()
}

// Teardown clears the store, notifies subscribers one last time and
// detaches them.
func (s *Store) Teardown() {
	s.Clear()
	s.mu.Lock()
	s.closed = true
	s.subs = make(map[int]func(Snapshot))
	s.mu.Unlock()
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// Resolve resolves the current snapshot. A pending snapshot resolves as
// unauthenticated; callers that need to tell the two apart use Snapshot.
func (s *Store) Resolve(pref access.Dashboard) access.Resolution {
	snap := s.Snapshot()
	if snap.Pending() {
		return access.Resolution{}
	}
	return access.Resolve(snap.Principal, snap.Err, pref)
}

// Subscribe registers fn to run after every state change and returns a
// function that removes it. fn runs outside the store lock and may call back
// into the store.
func (s *Store) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// publishLocked releases s.mu and then notifies subscribers.
func (s *Store) publishLocked() {
	snap := s.snap
	fns := make([]func(Snapshot), 0, len(s.subs))
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		fns = append(fns, s.subs[id])
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

func clonePrincipal(p *domain.Principal) *domain.Principal {
	if p == nil {
		return nil
	}
	c := *p
	c.Roles = slices.Clone(p.Roles)
	if p.SellerType != nil {
		st := *p.SellerType
		c.SellerType = &st
	}
	return &c
}
