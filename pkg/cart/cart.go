// Package cart keeps the working set of products a shopper intends to buy.
// A cart holds at most one unit of each product.
package cart

import (
	"slices"

	"github.com/shopspring/decimal"

	"storefront/pkg/catalog"
)

// Lookup resolves product ids. *catalog.Catalog satisfies it.
type Lookup interface {
	Get(id string) (catalog.Product, bool)
}

// Item pairs a product id with the product as it looked when it was added.
type Item struct {
	ProductID string          `json:"productId"`
	Product   catalog.Product `json:"product"`
}

// Cart is not safe for concurrent use; its owner serializes access.
type Cart struct {
	products Lookup
	items    []Item
}

// New returns an empty cart backed by the given product lookup.
func New(products Lookup) *Cart {
	return &Cart{products: products}
}

// Add appends the product unless it is unknown or already in the cart.
// It reports whether the cart changed.
func (c *Cart) Add(productID string) bool {
	if c.Contains(productID) {
		return false
	}
	p, ok := c.products.Get(productID)
	if !ok {
		return false
	}
	c.items = append(c.items, Item{ProductID: productID, Product: p})
	return true
}

// Remove drops the matching item and reports whether one was present.
func (c *Cart) Remove(productID string) bool {
	i := c.indexOf(productID)
	if i < 0 {
		return false
	}
	c.items = slices.Delete(c.items, i, i+1)
	return true
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.items = nil
}

// Total sums the prices of everything in the cart.
func (c *Cart) Total() decimal.Decimal {
	return Sum(c.items)
}

// Count is the number of items, which equals the number of distinct products.
func (c *Cart) Count() int { return len(c.items) }

// Contains reports whether the product is already in the cart.
func (c *Cart) Contains(productID string) bool {
	return c.indexOf(productID) >= 0
}

// Items returns the cart contents in insertion order. The slice is a copy.
func (c *Cart) Items() []Item {
	return slices.Clone(c.items)
}

func (c *Cart) indexOf(productID string) int {
	return slices.IndexFunc(c.items, func(it Item) bool { return it.ProductID == productID })
}

// Sum adds up product prices of the given items.
func Sum(items []Item) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Product.Price)
	}
	return total
}
