package service

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/stripe/stripe-go/v79"

	"storefront-order-service/internal/model"
	"storefront-order-service/internal/repository"
)

// memOrderRepo respeta el contrato de create-if-absent del repositorio Mongo:
// Create y UpdateStatus son atómicos bajo el mutex.
type memOrderRepo struct {
	mu     sync.Mutex
	orders map[string]*model.Order

	createErr error
	findErr   error
	updates   int
}

func newMemOrderRepo() *memOrderRepo {
	return &memOrderRepo{orders: map[string]*model.Order{}}
}

func cloneOrder(o *model.Order) *model.Order {
	c := *o
	c.LineItems = slices.Clone(o.LineItems)
	if o.Tracking != nil {
		t := *o.Tracking
		c.Tracking = &t
	}
	return &c
}

func (m *memOrderRepo) Create(_ context.Context, o *model.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	if _, ok := m.orders[o.ID]; ok {
		return repository.ErrAlreadyExists
	}
	m.orders[o.ID] = cloneOrder(o)
	return nil
}

func (m *memOrderRepo) FindByID(ctx context.Context, id string) (*model.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	o, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneOrder(o), nil
}

func (m *memOrderRepo) UpdateStatus(_ context.Context, id string, ch repository.StatusChange) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return repository.ErrNotFound
	}
	if !slices.Contains(ch.From, o.Status) {
		return repository.ErrConflict
	}

	at := ch.At
	actor := ch.Actor
	switch ch.Stamp {
	case "accepted":
		if o.AcceptedAt != nil {
			return repository.ErrConflict
		}
		o.AcceptedAt, o.AcceptedBy = &at, &actor
	case "shipped":
		if o.ShippedAt != nil {
			return repository.ErrConflict
		}
		o.ShippedAt, o.ShippedBy = &at, &actor
	case "canceled":
		if o.CanceledAt != nil {
			return repository.ErrConflict
		}
		o.CanceledAt, o.CanceledBy = &at, &actor
	default:
		return errors.New("unknown stamp " + ch.Stamp)
	}
	o.Status = ch.To
	o.UpdatedAt = at
	if ch.Tracking != nil {
		t := *ch.Tracking
		o.Tracking = &t
	}
	m.updates++
	return nil
}

func (m *memOrderRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.orders, id)
	return nil
}

func (m *memOrderRepo) FindAll(_ context.Context) ([]*model.Order, error) {
	return m.filter(func(*model.Order) bool { return true }), nil
}

func (m *memOrderRepo) FindByStatus(_ context.Context, s model.Status) ([]*model.Order, error) {
	return m.filter(func(o *model.Order) bool { return o.Status == s }), nil
}

func (m *memOrderRepo) FindByCustomerUID(_ context.Context, uid string) ([]*model.Order, error) {
	return m.filter(func(o *model.Order) bool { return o.CustomerUID == uid }), nil
}

func (m *memOrderRepo) filter(keep func(*model.Order) bool) []*model.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*model.Order{}
	for _, o := range m.orders {
		if keep(o) {
			out = append(out, cloneOrder(o))
		}
	}
	return out
}

func (m *memOrderRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.orders)
}

// cancelAfterWrite simula un cliente que se desconecta justo después de que
// la escritura se confirma.
type cancelAfterWrite struct {
	*memOrderRepo
	cancel context.CancelFunc
}

func (c *cancelAfterWrite) Create(ctx context.Context, o *model.Order) error {
	err := c.memOrderRepo.Create(ctx, o)
	c.cancel()
	return err
}

func (c *cancelAfterWrite) UpdateStatus(ctx context.Context, id string, ch repository.StatusChange) error {
	err := c.memOrderRepo.UpdateStatus(ctx, id, ch)
	c.cancel()
	return err
}

type statsCall struct {
	uid    string
	amount float64
	at     time.Time
}

type memUsers struct {
	mu       sync.Mutex
	byEmail  map[string]string
	calls    []statsCall
	lookups  int
	incErr   error
	findErr  error
	profiles map[string]*model.UserProfile
}

func newMemUsers() *memUsers {
	return &memUsers{byEmail: map[string]string{}, profiles: map[string]*model.UserProfile{}}
}

func (u *memUsers) FindUIDByEmail(_ context.Context, email string) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.lookups++
	if u.findErr != nil {
		return "", u.findErr
	}
	return u.byEmail[email], nil
}

func (u *memUsers) IncrementOrderStats(ctx context.Context, uid string, amount float64, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.incErr != nil {
		return u.incErr
	}
	u.calls = append(u.calls, statsCall{uid, amount, at})
	return nil
}

func (u *memUsers) GetProfile(_ context.Context, uid string) (*model.UserProfile, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	p, ok := u.profiles[uid]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return p, nil
}

func (u *memUsers) statsCalls() []statsCall {
	u.mu.Lock()
	defer u.mu.Unlock()
	return slices.Clone(u.calls)
}

type memNotifier struct {
	mu        sync.Mutex
	confirmed []*model.Order
	shipped   []*model.Order
	err       error
}

func (n *memNotifier) OrderConfirmed(ctx context.Context, o *model.Order) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.confirmed = append(n.confirmed, cloneOrder(o))
	return n.err
}

func (n *memNotifier) OrderShipped(ctx context.Context, o *model.Order) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.shipped = append(n.shipped, cloneOrder(o))
	return n.err
}

func (n *memNotifier) confirmedCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.confirmed)
}

func paidSession(id string) *stripe.CheckoutSession {
	return &stripe.CheckoutSession{
		ID:            id,
		PaymentStatus: stripe.CheckoutSessionPaymentStatusPaid,
		AmountTotal:   4000,
		Currency:      stripe.CurrencyUSD,
		CustomerDetails: &stripe.CheckoutSessionCustomerDetails{
			Email: "ana@example.com",
			Name:  "Ana Pérez",
			Phone: "+5492610000000",
			Address: &stripe.Address{
				Line1:      "Av San Martín 1234",
				City:       "Mendoza",
				PostalCode: "5500",
				State:      "Mendoza",
				Country:    "AR",
			},
		},
		ShippingDetails: &stripe.ShippingDetails{
			Name: "Ana Pérez",
			Address: &stripe.Address{
				Line1:      "Belgrano 55",
				Line2:      "Depto 3",
				City:       "Godoy Cruz",
				PostalCode: "5501",
				State:      "Mendoza",
				Country:    "AR",
			},
		},
		TotalDetails: &stripe.CheckoutSessionTotalDetails{AmountShipping: 500, AmountTax: 120},
		LineItems: &stripe.LineItemList{
			Data: []*stripe.LineItem{
				{
					Description:    "Tee",
					Quantity:       2,
					AmountTotal:    4000,
					AmountSubtotal: 4000,
					Currency:       stripe.CurrencyUSD,
					Price: &stripe.Price{
						ID:      "price_tee",
						Product: &stripe.Product{ID: "prod_tee"},
					},
				},
			},
		},
	}
}
