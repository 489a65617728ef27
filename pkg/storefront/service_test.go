package storefront

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"storefront/pkg/catalog"
	"storefront/pkg/metrics"
	"storefront/pkg/order"
	"storefront/pkg/query"
)

func newTestService(t *testing.T, seeded bool) (*Service, *metrics.Registry) {
	t.Helper()
	c, err := catalog.Default()
	require.NoError(t, err)
	reg := metrics.NewRegistry()
	cfg := Config{
		Catalog: c,
		Logger:  zaptest.NewLogger(t),
		Metrics: reg,
		Session: SessionConfig{Now: func() time.Time { return fixedNow }},
	}
	if seeded {
		cfg.Session.Seeder = order.NewDemoSeeder(rand.New(rand.NewPCG(1, 1)))
	}
	svc := NewService(cfg)
	t.Cleanup(svc.Close)
	return svc, reg
}

func TestServiceCheckoutFlow(t *testing.T) {
	svc, reg := newTestService(t, false)
	ctx := context.Background()

	added, err := svc.AddToCart(ctx, "s1", "1")
	require.NoError(t, err)
	assert.True(t, added)
	added, err = svc.AddToCart(ctx, "s1", "1")
	require.NoError(t, err)
	assert.False(t, added)
	_, err = svc.AddToCart(ctx, "s1", "4")
	require.NoError(t, err)

	view, err := svc.Cart(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 2, view.Count)
	assert.Equal(t, "219.98", view.Subtotal.StringFixed(2))
	assert.Equal(t, "229.98", view.Total.StringFixed(2))

	o, err := svc.CreateOrder(ctx, "s1", validInfo())
	require.NoError(t, err)
	assert.Equal(t, "229.98", o.Total.StringFixed(2))

	view, err = svc.Cart(ctx, "s1")
	require.NoError(t, err)
	assert.Zero(t, view.Count)
	assert.True(t, view.Total.Equal(decimal.Zero))

	updated, err := svc.UpdateOrderStatus(ctx, "s1", o.ID, order.StatusCompleted)
	require.NoError(t, err)
	assert.True(t, updated)

	got, ok, err := svc.Order(ctx, "s1", o.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, order.StatusCompleted, got.Status)

	assert.Equal(t, 1.0, testutil.ToFloat64(reg.OrdersCreated))
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.CartChanges.WithLabelValues("add", "noop")))
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.StatusUpdates.WithLabelValues("completed")))
}

func TestServiceSessionsAreIsolated(t *testing.T) {
	svc, reg := newTestService(t, false)
	ctx := context.Background()

	_, err := svc.AddToCart(ctx, "alice", "1")
	require.NoError(t, err)

	bob, err := svc.Cart(ctx, "bob")
	require.NoError(t, err)
	assert.Zero(t, bob.Count)

	alice, err := svc.Cart(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, alice.Count)
	assert.Equal(t, 2.0, testutil.ToFloat64(reg.Sessions))
}

func TestServiceDefaultSession(t *testing.T) {
	svc, _ := newTestService(t, false)
	ctx := context.Background()

	_, err := svc.AddToCart(ctx, "", "2")
	require.NoError(t, err)
	view, err := svc.Cart(ctx, DefaultSessionID)
	require.NoError(t, err)
	assert.Equal(t, 1, view.Count)
}

func TestServiceSeedsNewSessions(t *testing.T) {
	svc, _ := newTestService(t, true)
	page, err := svc.BrowseOrders(context.Background(), "admin", query.OrderCriteria{}, 1)
	require.NoError(t, err)
	assert.Equal(t, order.DemoOrderCount, page.Total)
	assert.Equal(t, 3, page.TotalPages)
	assert.Len(t, page.Orders, query.OrderPageSize)
}

func TestServiceCheckoutErrors(t *testing.T) {
	svc, reg := newTestService(t, false)
	ctx := context.Background()

	_, err := svc.CreateOrder(ctx, "s", validInfo())
	assert.True(t, errors.Is(err, order.ErrEmptyCart))

	_, err = svc.AddToCart(ctx, "s", "1")
	require.NoError(t, err)
	_, err = svc.CreateOrder(ctx, "s", order.ShippingInfo{})
	assert.True(t, order.IsValidation(err))

	view, err := svc.Cart(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, 1, view.Count)

	assert.Equal(t, 1.0, testutil.ToFloat64(reg.CheckoutFailed.WithLabelValues("empty_cart")))
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.CheckoutFailed.WithLabelValues("validation")))
}

func TestServiceSerializesConcurrentCommands(t *testing.T) {
	svc, _ := newTestService(t, false)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 1; i <= 20; i++ {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			for j := 0; j < 5; j++ {
				_, err := svc.AddToCart(ctx, "shared", id)
				assert.NoError(t, err)
			}
		}(fmt.Sprint(i))
	}
	wg.Wait()

	view, err := svc.Cart(ctx, "shared")
	require.NoError(t, err)
	assert.Equal(t, 20, view.Count)
}

func TestServiceHonorsContextAndClose(t *testing.T) {
	svc, _ := newTestService(t, false)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := svc.Do(ctx, "s", func(*Session) error { return nil })
	// Either the command slipped through before the cancellation was seen or
	// the call reports the cancellation.
	if err != nil {
		assert.ErrorIs(t, err, context.Canceled)
	}

	svc.Close()
	svc.Close()
	_, err = svc.AddToCart(context.Background(), "s", "1")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestServiceReportsBusy(t *testing.T) {
	c, err := catalog.Default()
	require.NoError(t, err)
	svc := NewService(Config{Catalog: c, Timeout: 20 * time.Millisecond})
	defer svc.Close()

	release := make(chan struct{})
	started := make(chan struct{})
	go func() {
		_ = svc.Do(context.Background(), "s", func(*Session) error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	err = svc.Do(context.Background(), "s", func(*Session) error { return nil })
	assert.ErrorIs(t, err, ErrBusy)
	close(release)
}

func TestServiceFinishesAcceptedCommandsPastTimeout(t *testing.T) {
	c, err := catalog.Default()
	require.NoError(t, err)
	svc := NewService(Config{Catalog: c, Timeout: 20 * time.Millisecond})
	defer svc.Close()

	err = svc.Do(context.Background(), "s", func(sess *Session) error {
		time.Sleep(60 * time.Millisecond)
		sess.AddToCart("1")
		return nil
	})
	require.NoError(t, err)

	view, err := svc.Cart(context.Background(), "s")
	require.NoError(t, err)
	assert.Equal(t, 1, view.Count)
}

func TestServiceIgnoresCancellationOnceAccepted(t *testing.T) {
	svc, _ := newTestService(t, false)
	_, err := svc.AddToCart(context.Background(), "s", "1")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var created order.Order
	err = svc.Do(ctx, "s", func(sess *Session) error {
		cancel()
		o, err := sess.CreateOrder(validInfo())
		created = o
		return err
	})
	require.NoError(t, err)

	got, ok, err := svc.Order(context.Background(), "s", created.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, created.ID, got.ID)
}

func TestServiceEvictsLeastRecentlyUsedSession(t *testing.T) {
	c, err := catalog.Default()
	require.NoError(t, err)
	reg := metrics.NewRegistry()
	svc := NewService(Config{Catalog: c, Metrics: reg, MaxSessions: 2, Logger: zaptest.NewLogger(t)})
	defer svc.Close()
	ctx := context.Background()

	count := func(id string) int {
		view, err := svc.Cart(ctx, id)
		require.NoError(t, err)
		return view.Count
	}

	_, err = svc.AddToCart(ctx, "a", "1")
	require.NoError(t, err)
	_, err = svc.AddToCart(ctx, "b", "2")
	require.NoError(t, err)
	assert.Equal(t, 1, count("a"))

	assert.Equal(t, 0, count("c"))
	assert.Equal(t, 1, count("a"))
	assert.Equal(t, 0, count("b"))
	assert.Equal(t, 2.0, testutil.ToFloat64(reg.Sessions))
}
