// Package storefront exposes the operations shoppers and admins may perform.
// A Session owns one cart and one order ledger; a Service keeps many
// sessions and applies their commands one at a time.
package storefront

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"storefront/pkg/cart"
	"storefront/pkg/catalog"
	"storefront/pkg/order"
	"storefront/pkg/query"
)

// SessionConfig customizes a Session. Zero values fall back to time.Now,
// order.NewID and no seeding.
type SessionConfig struct {
	Now    func() time.Time
	NewID  func() string
	Seeder order.Seeder
}

// Session is the only way to change a cart or a ledger. It is not safe for
// concurrent use.
type Session struct {
	catalog *catalog.Catalog
	cart    *cart.Cart
	ledger  *order.Ledger
	browser *query.OrderBrowser
	now     func() time.Time
}

// NewSession builds a session over the catalog and, when a seeder is set,
// fills its ledger with historical orders.
func NewSession(c *catalog.Catalog, cfg SessionConfig) (*Session, error) {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	opts := []order.Option{order.WithClock(now)}
	if cfg.NewID != nil {
		opts = append(opts, order.WithIDGenerator(cfg.NewID))
	}
	s := &Session{
		catalog: c,
		cart:    cart.New(c),
		ledger:  order.NewLedger(opts...),
		browser: query.NewOrderBrowser(),
		now:     now,
	}
	if cfg.Seeder != nil {
		if err := order.SeedLedger(s.ledger, cfg.Seeder, c.Products(), now()); err != nil {
			return nil, fmt.Errorf("seed ledger: %w", err)
		}
	}
	return s, nil
}

// AddToCart puts one unit of the product in the cart. Unknown products and
// products already in the cart are ignored; the result reports a change.
func (s *Session) AddToCart(productID string) bool { return s.cart.Add(productID) }

// RemoveFromCart drops the product from the cart if it is there.
func (s *Session) RemoveFromCart(productID string) bool { return s.cart.Remove(productID) }

// ClearCart empties the cart.
func (s *Session) ClearCart() { s.cart.Clear() }

// CartTotal is the sum of item prices, without shipping.
func (s *Session) CartTotal() decimal.Decimal { return s.cart.Total() }

// CartItemCount is the number of products in the cart.
func (s *Session) CartItemCount() int { return s.cart.Count() }

// Cart returns the cart items in the order they were added.
func (s *Session) Cart() []cart.Item { return s.cart.Items() }

// CreateOrder validates shipping, turns the cart into a new order and
// empties the cart. Invalid shipping returns *order.ValidationError and an
// empty cart returns order.ErrEmptyCart; neither changes any state.
func (s *Session) CreateOrder(shipping order.ShippingInfo) (order.Order, error) {
	if err := shipping.Validate(); err != nil {
		return order.Order{}, err
	}
	if s.cart.Count() == 0 {
		return order.Order{}, order.ErrEmptyCart
	}
	o, err := s.ledger.Create(s.cart.Items(), shipping)
	if err != nil {
		return order.Order{}, err
	}
	s.cart.Clear()
	return o, nil
}

// UpdateOrderStatus sets the status of one order; unknown ids are ignored.
func (s *Session) UpdateOrderStatus(orderID string, status order.Status) bool {
	return s.ledger.UpdateStatus(orderID, status)
}

// Order looks up a single order.
func (s *Session) Order(orderID string) (order.Order, bool) { return s.ledger.Get(orderID) }

// Orders returns the ledger newest first.
func (s *Session) Orders() []order.Order { return s.ledger.Orders() }

// Product looks up a catalog product.
func (s *Session) Product(productID string) (catalog.Product, bool) { return s.catalog.Get(productID) }

// Categories lists the categories available to the product filter.
func (s *Session) Categories() []string { return s.catalog.Categories() }

// TopRated returns the n best rated products.
func (s *Session) TopRated(n int) []catalog.Product { return s.catalog.TopRated(n) }

// QueryProducts runs the product view over the full catalog.
func (s *Session) QueryProducts(c query.ProductCriteria) []catalog.Product {
	return query.Products(s.catalog.Products(), c)
}

// QueryOrders runs the admin order view over the ledger as of now.
func (s *Session) QueryOrders(c query.OrderCriteria, page int) query.OrderPage {
	return query.Orders(s.ledger.Orders(), c, page, s.now())
}

// BrowseOrders is the stateful admin view. New criteria send the admin back
// to page 1; otherwise a positive page moves the admin there and zero keeps
// the current page.
func (s *Session) BrowseOrders(c query.OrderCriteria, page int) query.OrderPage {
	if !s.browser.SetCriteria(c) && page > 0 {
		s.browser.GoTo(page)
	}
	return s.browser.View(s.ledger.Orders(), s.now())
}
