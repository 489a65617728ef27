package order

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/pkg/cart"
	"storefront/pkg/catalog"
)

func demoProducts() []catalog.Product {
	products := make([]catalog.Product, 0, 8)
	for i, price := range []int64{10, 20, 30, 40, 50, 60, 70, 80} {
		id := string(rune('a' + i))
		products = append(products, catalog.Product{ID: id, Name: "P" + id, Price: decimal.NewFromInt(price)})
	}
	return products
}

func TestDemoSeederShape(t *testing.T) {
	s := NewDemoSeeder(rand.New(rand.NewPCG(1, 2)))
	orders := s.Seed(demoProducts(), baseTime)
	require.Len(t, orders, DemoOrderCount)

	ids := map[string]bool{}
	for i, o := range orders {
		assert.False(t, ids[o.ID], o.ID)
		ids[o.ID] = true
		assert.Regexp(t, `^SEED-\d{4}$`, o.ID)

		assert.GreaterOrEqual(t, len(o.Items), 1)
		assert.LessOrEqual(t, len(o.Items), 3)
		distinct := map[string]bool{}
		for _, it := range o.Items {
			assert.False(t, distinct[it.ProductID])
			distinct[it.ProductID] = true
		}

		assert.True(t, o.Total.Equal(cart.Sum(o.Items).Add(ShippingFee)))
		assert.True(t, o.Status.Valid())

		age := baseTime.Sub(o.CreatedAt)
		assert.GreaterOrEqual(t, age, 10*time.Minute)
		assert.LessOrEqual(t, age, 7*24*time.Hour)

		if i > 0 {
			assert.True(t, orders[i-1].CreatedAt.After(o.CreatedAt), "orders must be strictly newest first")
		}
	}
}

func TestDemoSeederRoundRobinRoster(t *testing.T) {
	s := NewDemoSeeder(rand.New(rand.NewPCG(7, 7)))
	orders := s.Seed(demoProducts(), baseTime)
	roster := DemoCustomers()
	require.Len(t, roster, 10)

	perCustomer := map[string]int{}
	for _, o := range orders {
		perCustomer[o.ShippingInfo.Name]++
		assert.NoError(t, o.ShippingInfo.Validate())
	}
	// 25 orders over 10 customers: the first five get three orders.
	for i, c := range roster {
		want := 2
		if i < 5 {
			want = 3
		}
		assert.Equal(t, want, perCustomer[c.Name], c.Name)
	}
}

func TestDemoSeederIsDeterministic(t *testing.T) {
	a := NewDemoSeeder(rand.New(rand.NewPCG(42, 0))).Seed(demoProducts(), baseTime)
	b := NewDemoSeeder(rand.New(rand.NewPCG(42, 0))).Seed(demoProducts(), baseTime)
	assert.Equal(t, a, b)
}

func TestDemoSeederSmallCatalog(t *testing.T) {
	s := NewDemoSeeder(rand.New(rand.NewPCG(3, 4)))
	orders := s.Seed(demoProducts()[:1], baseTime)
	require.Len(t, orders, DemoOrderCount)
	for _, o := range orders {
		assert.Len(t, o.Items, 1)
	}
	assert.Empty(t, s.Seed(nil, baseTime))
}

func TestSeedLedgerThenCreateKeepsIDsDisjoint(t *testing.T) {
	l := NewLedger(WithClock(func() time.Time { return baseTime }))
	s := NewDemoSeeder(rand.New(rand.NewPCG(9, 9)))
	require.NoError(t, SeedLedger(l, s, demoProducts(), baseTime))
	require.Equal(t, DemoOrderCount, l.Len())

	o, err := l.Create([]cart.Item{item("a", 10)}, validShipping())
	require.NoError(t, err)

	ids := map[string]bool{}
	for _, existing := range l.Orders() {
		assert.False(t, ids[existing.ID])
		ids[existing.ID] = true
	}
	assert.Equal(t, o.ID, l.Orders()[0].ID)
	assert.Len(t, ids, DemoOrderCount+1)
}
