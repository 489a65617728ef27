package order

import (
	"fmt"
	"math/rand/v2"
	"sort"
	"time"

	"storefront/pkg/cart"
	"storefront/pkg/catalog"
)

const (
	// DemoOrderCount is how many historical orders a fresh session gets.
	DemoOrderCount = 25

	minDemoAge   = 10 * time.Minute
	maxDemoAge   = 7 * 24 * time.Hour
	maxDemoItems = 3
)

// Seeder fabricates history for a new ledger.
type Seeder interface {
	Seed(products []catalog.Product, now time.Time) []Order
}

// SeedLedger fills an empty ledger using s.
func SeedLedger(l *Ledger, s Seeder, products []catalog.Product, now time.Time) error {
	return l.Seed(s.Seed(products, now))
}

// DemoSeeder generates random orders from a fixed customer roster.
type DemoSeeder struct {
	Rand   *rand.Rand
	Count  int
	Roster []ShippingInfo
}

// NewDemoSeeder returns a seeder producing DemoOrderCount orders from DemoCustomers.
func NewDemoSeeder(r *rand.Rand) *DemoSeeder {
	return &DemoSeeder{Rand: r, Count: DemoOrderCount, Roster: DemoCustomers()}
}

// Seed returns Count orders sorted newest first. Ids come from the SEED-
// sequence, which never overlaps ids handed out by Ledger.Create.
func (s *DemoSeeder) Seed(products []catalog.Product, now time.Time) []Order {
	if len(products) == 0 || len(s.Roster) == 0 || s.Count <= 0 {
		return nil
	}
	span := int64(maxDemoAge - minDemoAge)
	usedAges := make(map[int64]struct{}, s.Count)
	orders := make([]Order, 0, s.Count)

	for i := 0; i < s.Count; i++ {
		count := min(1+s.Rand.IntN(maxDemoItems), len(products))
		picks := s.Rand.Perm(len(products))[:count]
		items := make([]cart.Item, 0, count)
		for _, idx := range picks {
			p := products[idx]
			items = append(items, cart.Item{ProductID: p.ID, Product: p})
		}

		status := StatusIncomplete
		if s.Rand.IntN(2) == 1 {
			status = StatusCompleted
		}

		age := s.Rand.Int64N(span + 1)
		for {
			if _, taken := usedAges[age]; !taken {
				break
			}
			age = s.Rand.Int64N(span + 1)
		}
		usedAges[age] = struct{}{}

		orders = append(orders, Order{
			ID:           fmt.Sprintf("SEED-%04d", i+1),
			Items:        items,
			Total:        totalFor(items),
			Status:       status,
			ShippingInfo: s.Roster[i%len(s.Roster)],
			CreatedAt:    now.Add(-(minDemoAge + time.Duration(age))),
		})
	}

	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	return orders
}

// DemoCustomers is the roster used for generated orders.
func DemoCustomers() []ShippingInfo {
	return []ShippingInfo{
		{Name: "John Smith", Email: "john.smith@example.com", Address: "123 Main St", City: "New York", State: "NY", ZipCode: "10001", Country: "USA"},
		{Name: "Emma Johnson", Email: "emma.j@example.com", Address: "456 Oak Ave", City: "Los Angeles", State: "CA", ZipCode: "90001", Country: "USA"},
		{Name: "Michael Brown", Email: "m.brown@example.com", Address: "789 Pine Rd", City: "Chicago", State: "IL", ZipCode: "60601", Country: "USA"},
		{Name: "Sophia Davis", Email: "sophia.davis@example.com", Address: "321 Elm St", City: "Houston", State: "TX", ZipCode: "77001", Country: "USA"},
		{Name: "William Garcia", Email: "will.garcia@example.com", Address: "654 Maple Dr", City: "Phoenix", State: "AZ", ZipCode: "85001", Country: "USA"},
		{Name: "Olivia Martinez", Email: "olivia.m@example.com", Address: "987 Cedar Ln", City: "Philadelphia", State: "PA", ZipCode: "19101", Country: "USA"},
		{Name: "James Wilson", Email: "j.wilson@example.com", Address: "147 Birch Blvd", City: "San Antonio", State: "TX", ZipCode: "78201", Country: "USA"},
		{Name: "Ava Anderson", Email: "ava.anderson@example.com", Address: "258 Spruce Way", City: "San Diego", State: "CA", ZipCode: "92101", Country: "USA"},
		{Name: "Benjamin Taylor", Email: "ben.taylor@example.com", Address: "369 Walnut St", City: "Dallas", State: "TX", ZipCode: "75201", Country: "USA"},
		{Name: "Mia Thomas", Email: "mia.thomas@example.com", Address: "741 Ash Ct", City: "San Jose", State: "CA", ZipCode: "95101", Country: "USA"},
	}
}
