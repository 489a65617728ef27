package order

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"storefront/pkg/cart"
)

// ShippingFee is the flat surcharge added to every order.
var ShippingFee = decimal.NewFromInt(10)

// ShippingInfo is where and to whom an order ships.
type ShippingInfo struct {
	Name    string `json:"name" validate:"notblank"`
	Email   string `json:"email" validate:"notblank,basicemail"`
	Address string `json:"address" validate:"notblank"`
	City    string `json:"city" validate:"notblank"`
	State   string `json:"state" validate:"notblank"`
	ZipCode string `json:"zipCode" validate:"notblank"`
	Country string `json:"country" validate:"notblank"`
}

// Order is a ledger entry built from a cart. Only Status changes after creation;
// Items keep the product data captured when the order was placed.
type Order struct {
	ID           string          `json:"id"`
	Items        []cart.Item     `json:"items"`
	Total        decimal.Decimal `json:"total"`
	Status       Status          `json:"status"`
	ShippingInfo ShippingInfo    `json:"shippingInfo"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// Subtotal is the order total without the shipping fee.
func (o Order) Subtotal() decimal.Decimal {
	return cart.Sum(o.Items)
}

// clone detaches the item slice so callers cannot rewrite ledger history.
func (o Order) clone() Order {
	o.Items = slices.Clone(o.Items)
	return o
}

// totalFor prices a set of items including shipping.
func totalFor(items []cart.Item) decimal.Decimal {
	return cart.Sum(items).Add(ShippingFee)
}
