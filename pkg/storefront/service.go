package storefront

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"storefront/pkg/cart"
	"storefront/pkg/catalog"
	"storefront/pkg/metrics"
	"storefront/pkg/order"
	"storefront/pkg/query"
)

// DefaultSessionID is used when a caller does not name a session.
const DefaultSessionID = "demo"

const (
	defaultTimeout     = 2 * time.Second
	defaultMaxSessions = 1024
)

var (
	// ErrBusy means the command loop did not accept a command in time.
	ErrBusy = errors.New("storefront is busy processing other requests")
	// ErrClosed is returned once Close has been called.
	ErrClosed = errors.New("storefront service is closed")
)

// Config wires a Service.
type Config struct {
	Catalog *catalog.Catalog
	Session SessionConfig
	Logger  *zap.Logger
	Metrics *metrics.Registry
	// Timeout bounds how long a command waits to be accepted by the loop.
	Timeout time.Duration
	// MaxSessions caps the sessions held in memory. Creating one more drops
	// the least recently used session together with its cart and orders.
	MaxSessions int
}

// command is one unit of work for the loop goroutine.
type command struct {
	session string
	run     func(*Session) error
	reply   chan error
}

type sessionEntry struct {
	session *Session
	used    uint64
}

// Service owns every session and runs their commands on one goroutine, so a
// command always finishes before the next one starts.
type Service struct {
	cfg      Config
	log      *zap.Logger
	metrics  *metrics.Registry
	sessions map[string]*sessionEntry
	clock    uint64
	commands chan command
	quit     chan struct{}
	once     sync.Once
}

// NewService starts the command loop immediately.
func NewService(cfg Config) *Service {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewRegistry()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = defaultMaxSessions
	}
	svc := &Service{
		cfg:      cfg,
		log:      cfg.Logger,
		metrics:  cfg.Metrics,
		sessions: make(map[string]*sessionEntry),
		commands: make(chan command),
		quit:     make(chan struct{}),
	}
	go svc.loop()
	return svc
}

func (s *Service) loop() {
	for {
		select {
		case cmd := <-s.commands:
			sess, err := s.session(cmd.session)
			if err != nil {
				cmd.reply <- err
				continue
			}
			start := time.Now()
			err = cmd.run(sess)
			s.metrics.CommandLatency.Observe(time.Since(start).Seconds())
			cmd.reply <- err
		case <-s.quit:
			return
		}
	}
}

// session returns the named session, creating and seeding it on first use.
// Only the loop goroutine calls it.
func (s *Service) session(id string) (*Session, error) {
	s.clock++
	if entry, ok := s.sessions[id]; ok {
		entry.used = s.clock
		return entry.session, nil
	}
	sess, err := NewSession(s.cfg.Catalog, s.cfg.Session)
	if err != nil {
		s.log.Error("session creation failed", zap.String("session", id), zap.Error(err))
		return nil, err
	}
	if len(s.sessions) >= s.cfg.MaxSessions {
		s.evictOldest()
	}
	s.sessions[id] = &sessionEntry{session: sess, used: s.clock}
	s.metrics.Sessions.Set(float64(len(s.sessions)))
	s.log.Info("session created", zap.String("session", id), zap.Int("seeded_orders", sess.ledger.Len()))
	return sess, nil
}

func (s *Service) evictOldest() {
	var (
		oldest string
		used   uint64
		found  bool
	)
	for id, entry := range s.sessions {
		if !found || entry.used < used {
			oldest, used, found = id, entry.used, true
		}
	}
	if found {
		delete(s.sessions, oldest)
		s.log.Info("session evicted", zap.String("session", oldest))
	}
}

// Do runs fn against the named session on the loop goroutine. The timeout
// and ctx only bound the wait for the loop to accept the command; once
// accepted, Do waits for fn and returns its result. ErrBusy, ErrClosed and
// ctx errors therefore mean fn never ran. Values fn captures must only be
// read after Do returns a nil error.
func (s *Service) Do(ctx context.Context, sessionID string, fn func(*Session) error) error {
	if sessionID == "" {
		sessionID = DefaultSessionID
	}
	reply := make(chan error, 1)
	cmd := command{session: sessionID, run: fn, reply: reply}

	timer := time.NewTimer(s.cfg.Timeout)
	defer timer.Stop()

	select {
	case s.commands <- cmd:
	case <-s.quit:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return ErrBusy
	}

	return <-reply
}

// Close stops the loop. It is safe to call more than once.
func (s *Service) Close() {
	s.once.Do(func() { close(s.quit) })
}

// AddToCart adds a product to the session's cart.
func (s *Service) AddToCart(ctx context.Context, sessionID, productID string) (bool, error) {
	var added bool
	if err := s.Do(ctx, sessionID, func(sess *Session) error {
		added = sess.AddToCart(productID)
		return nil
	}); err != nil {
		return false, err
	}
	s.metrics.CartChanges.WithLabelValues("add", changeResult(added)).Inc()
	s.log.Debug("cart add", zap.String("session", sessionID), zap.String("product", productID), zap.Bool("added", added))
	return added, nil
}

// RemoveFromCart removes a product from the session's cart.
func (s *Service) RemoveFromCart(ctx context.Context, sessionID, productID string) (bool, error) {
	var removed bool
	if err := s.Do(ctx, sessionID, func(sess *Session) error {
		removed = sess.RemoveFromCart(productID)
		return nil
	}); err != nil {
		return false, err
	}
	s.metrics.CartChanges.WithLabelValues("remove", changeResult(removed)).Inc()
	s.log.Debug("cart remove", zap.String("session", sessionID), zap.String("product", productID), zap.Bool("removed", removed))
	return removed, nil
}

// ClearCart empties the session's cart.
func (s *Service) ClearCart(ctx context.Context, sessionID string) error {
	if err := s.Do(ctx, sessionID, func(sess *Session) error {
		sess.ClearCart()
		return nil
	}); err != nil {
		return err
	}
	s.metrics.CartChanges.WithLabelValues("clear", "changed").Inc()
	return nil
}

// CartView is a consistent read of the cart and its totals.
type CartView struct {
	Items    []cart.Item     `json:"items"`
	Count    int             `json:"count"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Shipping decimal.Decimal `json:"shipping"`
	Total    decimal.Decimal `json:"total"`
}

// Cart reads the session's cart. Shipping is only charged on a non-empty cart.
func (s *Service) Cart(ctx context.Context, sessionID string) (CartView, error) {
	var view CartView
	if err := s.Do(ctx, sessionID, func(sess *Session) error {
		view = CartView{
			Items:    sess.Cart(),
			Count:    sess.CartItemCount(),
			Subtotal: sess.CartTotal(),
			Shipping: decimal.Zero,
		}
		if view.Count > 0 {
			view.Shipping = order.ShippingFee
		}
		view.Total = view.Subtotal.Add(view.Shipping)
		return nil
	}); err != nil {
		return CartView{}, err
	}
	return view, nil
}

// CreateOrder checks out the session's cart.
func (s *Service) CreateOrder(ctx context.Context, sessionID string, shipping order.ShippingInfo) (order.Order, error) {
	var created order.Order
	err := s.Do(ctx, sessionID, func(sess *Session) error {
		o, err := sess.CreateOrder(shipping)
		if err != nil {
			return err
		}
		created = o
		return nil
	})
	switch {
	case err == nil:
	case order.IsValidation(err):
		s.metrics.CheckoutFailed.WithLabelValues("validation").Inc()
		s.log.Info("checkout rejected", zap.String("session", sessionID), zap.Error(err))
		return order.Order{}, err
	case errors.Is(err, order.ErrEmptyCart):
		s.metrics.CheckoutFailed.WithLabelValues("empty_cart").Inc()
		s.log.Info("checkout rejected", zap.String("session", sessionID), zap.Error(err))
		return order.Order{}, err
	default:
		s.metrics.CheckoutFailed.WithLabelValues("error").Inc()
		s.log.Error("checkout failed", zap.String("session", sessionID), zap.Error(err))
		return order.Order{}, err
	}

	total, _ := created.Total.Float64()
	s.metrics.OrdersCreated.Inc()
	s.metrics.OrderTotal.Observe(total)
	s.log.Info("order created",
		zap.String("session", sessionID),
		zap.String("order", created.ID),
		zap.Int("items", len(created.Items)),
		zap.String("total", created.Total.StringFixed(2)))
	return created, nil
}

// UpdateOrderStatus changes an order's status.
func (s *Service) UpdateOrderStatus(ctx context.Context, sessionID, orderID string, status order.Status) (bool, error) {
	var updated bool
	if err := s.Do(ctx, sessionID, func(sess *Session) error {
		updated = sess.UpdateOrderStatus(orderID, status)
		return nil
	}); err != nil {
		return false, err
	}
	if updated {
		s.metrics.StatusUpdates.WithLabelValues(status.String()).Inc()
		s.log.Info("order status updated", zap.String("session", sessionID), zap.String("order", orderID), zap.Stringer("status", status))
	}
	return updated, nil
}

// Order fetches one order of the session.
func (s *Service) Order(ctx context.Context, sessionID, orderID string) (order.Order, bool, error) {
	var (
		found order.Order
		ok    bool
	)
	if err := s.Do(ctx, sessionID, func(sess *Session) error {
		found, ok = sess.Order(orderID)
		return nil
	}); err != nil {
		return order.Order{}, false, err
	}
	return found, ok, nil
}

// BrowseOrders returns the session's admin order page.
func (s *Service) BrowseOrders(ctx context.Context, sessionID string, c query.OrderCriteria, page int) (query.OrderPage, error) {
	var view query.OrderPage
	if err := s.Do(ctx, sessionID, func(sess *Session) error {
		view = sess.BrowseOrders(c, page)
		return nil
	}); err != nil {
		return query.OrderPage{}, err
	}
	return view, nil
}

// Catalog exposes the shared read-only catalog. Reading it needs no session.
func (s *Service) Catalog() *catalog.Catalog { return s.cfg.Catalog }

func changeResult(changed bool) string {
	if changed {
		return "changed"
	}
	return "noop"
}
