package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/propnest/marketplace/internal/core/domain"
	"github.com/propnest/marketplace/internal/core/payment"
	"github.com/propnest/marketplace/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Auth stubs
// ---------------------------------------------------------------------------

type stubAuthRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newStubAuthRepo() *stubAuthRepo {
	return &stubAuthRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	clone.Roles = append([]domain.Role(nil), u.Roles...)
	return &clone
}

func (r *stubAuthRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return nil, domain.ErrUserExists
		}
	}
	c := cloneUser(user)
	if c.ID == "" {
		c.ID = fmt.Sprintf("user_%d", len(r.users)+1)
	}
	r.users[c.ID] = cloneUser(c)
	return c, nil
}

func (r *stubAuthRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubAuthRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		return cloneUser(u), nil
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubAuthRepo) AddRole(_ context.Context, id string, role domain.Role, st domain.SellerType) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	if !u.HasRole(role) {
		u.Roles = append(u.Roles, role)
	}
	if st != "" {
		u.SellerType = st
	}
	return cloneUser(u), nil
}

type stubSessions struct {
	revoked map[string]int64
	err     error
}

func newStubSessions() *stubSessions {
	return &stubSessions{revoked: make(map[string]int64)}
}

func (s *stubSessions) Revoke(_ context.Context, id string, until int64) error {
	if s.err != nil {
		return s.err
	}
	s.revoked[id] = until
	return nil
}

func (s *stubSessions) IsRevoked(_ context.Context, id string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	_, ok := s.revoked[id]
	return ok, nil
}

// ---------------------------------------------------------------------------
// Payment stubs
// ---------------------------------------------------------------------------

type stubGateway struct {
	mu       sync.Mutex
	requests []ports.GatewayOrderRequest
	err      error
	// skew is added to the amount the gateway reports back.
	skew domain.MinorUnits
	// fixedID, when set, is returned for every request, as a gateway that
	// dedupes on receipt would.
	fixedID string
}

func (g *stubGateway) CreateOrder(_ context.Context, req ports.GatewayOrderRequest) (*ports.GatewayOrder, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	g.requests = append(g.requests, req)
	id := fmt.Sprintf("order_%d", len(g.requests))
	if g.fixedID != "" {
		id = g.fixedID
	}
	return &ports.GatewayOrder{
		ID:        id,
		Amount:    req.Amount + g.skew,
		Currency:  req.Currency,
		Receipt:   req.Receipt,
		Status:    "created",
		CreatedAt: time.Unix(1700000000, 0),
	}, nil
}

type stubOrderRepo struct {
	mu     sync.Mutex
	orders map[string]*domain.Order
}

func newStubOrderRepo() *stubOrderRepo {
	return &stubOrderRepo{orders: make(map[string]*domain.Order)}
}

func cloneOrder(o *domain.Order) *domain.Order {
	c := *o
	return &c
}

func (r *stubOrderRepo) seed(o *domain.Order) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[o.ID] = cloneOrder(o)
}

func (r *stubOrderRepo) status(id string) domain.OrderStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.orders[id].Status
}

func (r *stubOrderRepo) Create(_ context.Context, o *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[o.ID]; ok {
		return domain.ErrOrderExists
	}
	r.orders[o.ID] = cloneOrder(o)
	return nil
}

func (r *stubOrderRepo) FindByID(_ context.Context, id string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o, ok := r.orders[id]; ok {
		return cloneOrder(o), nil
	}
	return nil, domain.ErrOrderNotFound
}

func (r *stubOrderRepo) FindByReceipt(_ context.Context, receipt string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.Receipt == receipt && o.Status != domain.OrderFailed {
			return cloneOrder(o), nil
		}
	}
	return nil, domain.ErrOrderNotFound
}

func (r *stubOrderRepo) transition(id string, to domain.OrderStatus, paymentID string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	if !o.Status.CanTransitionTo(to) {
		return nil, domain.ErrInvalidTransition
	}
	if to == domain.OrderVerified && o.PaymentID != paymentID {
		return nil, domain.ErrInvalidTransition
	}
	o.Status = to
	if paymentID != "" {
		o.PaymentID = paymentID
	}
	return cloneOrder(o), nil
}

func (r *stubOrderRepo) MarkPaid(_ context.Context, id, paymentID string) (*domain.Order, error) {
	return r.transition(id, domain.OrderPaid, paymentID)
}

func (r *stubOrderRepo) MarkVerified(_ context.Context, proof payment.Proof) (*domain.Order, error) {
	return r.transition(proof.OrderID(), domain.OrderVerified, proof.PaymentID())
}

func (r *stubOrderRepo) MarkFailed(_ context.Context, id string) (*domain.Order, error) {
	return r.transition(id, domain.OrderFailed, "")
}

type stubSubs struct {
	mu        sync.Mutex
	activated map[string]*domain.Subscription
	err       error
}

func newStubSubs() *stubSubs {
	return &stubSubs{activated: make(map[string]*domain.Subscription)}
}

func (s *stubSubs) Activate(_ context.Context, sub *domain.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	if _, ok := s.activated[sub.OrderID]; !ok {
		s.activated[sub.OrderID] = sub
	}
	return nil
}

type stubEvents struct {
	mu     sync.Mutex
	events []*domain.PaymentEvent
}

func (e *stubEvents) InsertEvent(_ context.Context, ev *domain.PaymentEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, ev)
	return nil
}

func (e *stubEvents) outcomes() []domain.PaymentOutcome {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]domain.PaymentOutcome, len(e.events))
	for i, ev := range e.events {
		out[i] = ev.Outcome
	}
	return out
}

type stubDedup struct {
	mu     sync.Mutex
	marked map[string]bool
	err    error
}

func newStubDedup() *stubDedup {
	return &stubDedup{marked: make(map[string]bool)}
}

func (d *stubDedup) IsDuplicate(_ context.Context, orderID, paymentID string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return false, d.err
	}
	return d.marked[orderID+":"+paymentID], nil
}

func (d *stubDedup) Mark(_ context.Context, orderID, paymentID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.marked[orderID+":"+paymentID] = true
	return nil
}
