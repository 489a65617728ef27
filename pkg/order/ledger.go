// Package order holds the order model and the ledger that records every
// order a session has placed, newest first.
package order

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"storefront/pkg/cart"
)

var (
	// ErrEmptyCart rejects checkout of a cart with nothing in it.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrAlreadySeeded is returned when demo orders are loaded into a ledger that has history.
	ErrAlreadySeeded = errors.New("ledger already has orders")
)

const maxIDAttempts = 8

// Option customizes a Ledger.
type Option func(*Ledger)

// WithClock replaces time.Now as the source of creation timestamps.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithIDGenerator replaces the id source for orders placed through Create.
func WithIDGenerator(next func() string) Option {
	return func(l *Ledger) { l.newID = next }
}

// Ledger is the order history. It is not safe for concurrent use.
type Ledger struct {
	orders []Order
	ids    map[string]struct{}
	now    func() time.Time
	newID  func() string
}

// NewLedger returns an empty ledger.
func NewLedger(opts ...Option) *Ledger {
	l := &Ledger{
		ids:   make(map[string]struct{}),
		now:   time.Now,
		newID: NewID,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// NewID builds an id for a shopper-placed order.
func NewID() string {
	return "ORD-" + uuid.NewString()
}

// Create records a new incomplete order for the given items and puts it at the
// head of the ledger.
func (l *Ledger) Create(items []cart.Item, shipping ShippingInfo) (Order, error) {
	if len(items) == 0 {
		return Order{}, ErrEmptyCart
	}
	id := l.newID()
	for attempt := 1; l.has(id); attempt++ {
		if attempt == maxIDAttempts {
			return Order{}, fmt.Errorf("order id %s already in use", id)
		}
		id = l.newID()
	}
	o := Order{
		ID:           id,
		Items:        slices.Clone(items),
		Total:        totalFor(items),
		Status:       StatusIncomplete,
		ShippingInfo: shipping,
		CreatedAt:    l.now(),
	}
	l.orders = slices.Insert(l.orders, 0, o)
	l.ids[id] = struct{}{}
	return o.clone(), nil
}

// UpdateStatus changes the status of one order in place and reports whether
// the order exists. Undeclared statuses are ignored.
func (l *Ledger) UpdateStatus(id string, status Status) bool {
	if !status.Valid() {
		return false
	}
	for i := range l.orders {
		if l.orders[i].ID == id {
			l.orders[i].Status = status
			return true
		}
	}
	return false
}

// Get returns a copy of the order with the given id.
func (l *Ledger) Get(id string) (Order, bool) {
	for _, o := range l.orders {
		if o.ID == id {
			return o.clone(), true
		}
	}
	return Order{}, false
}

// Orders returns the history newest first.
func (l *Ledger) Orders() []Order {
	out := make([]Order, len(l.orders))
	for i, o := range l.orders {
		out[i] = o.clone()
	}
	return out
}

// Len is the number of orders.
func (l *Ledger) Len() int { return len(l.orders) }

// Seed loads historical orders into an empty ledger. The orders must already
// be newest first.
func (l *Ledger) Seed(orders []Order) error {
	if len(l.orders) > 0 {
		return ErrAlreadySeeded
	}
	for i := 1; i < len(orders); i++ {
		if orders[i].CreatedAt.After(orders[i-1].CreatedAt) {
			return fmt.Errorf("seed order %s is newer than %s", orders[i].ID, orders[i-1].ID)
		}
	}
	ids := make(map[string]struct{}, len(orders))
	for _, o := range orders {
		if _, dup := ids[o.ID]; dup {
			return fmt.Errorf("duplicate seed order id %s", o.ID)
		}
		ids[o.ID] = struct{}{}
	}
	l.orders = make([]Order, len(orders))
	for i, o := range orders {
		l.orders[i] = o.clone()
	}
	l.ids = ids
	return nil
}

func (l *Ledger) has(id string) bool {
	_, ok := l.ids[id]
	return ok
}
