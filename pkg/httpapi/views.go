package httpapi

import (
	"github.com/shopspring/decimal"

	"storefront/pkg/catalog"
	"storefront/pkg/order"
	"storefront/pkg/query"
)

// productView adds the best-seller badge the storefront renders.
type productView struct {
	catalog.Product
	BestSeller bool `json:"bestSeller"`
}

func newProductView(p catalog.Product) productView {
	return productView{Product: p, BestSeller: p.BestSeller()}
}

func productViews(products []catalog.Product) []productView {
	out := make([]productView, 0, len(products))
	for _, p := range products {
		out = append(out, newProductView(p))
	}
	return out
}

// orderView splits the total into subtotal and shipping for the receipt.
type orderView struct {
	order.Order
	Subtotal decimal.Decimal `json:"subtotal"`
	Shipping decimal.Decimal `json:"shipping"`
}

func newOrderView(o order.Order) orderView {
	return orderView{Order: o, Subtotal: o.Subtotal(), Shipping: order.ShippingFee}
}

type orderPageView struct {
	query.OrderPage
	Orders []orderView `json:"orders"`
}

func newOrderPageView(p query.OrderPage) orderPageView {
	views := make([]orderView, 0, len(p.Orders))
	for _, o := range p.Orders {
		views = append(views, newOrderView(o))
	}
	return orderPageView{OrderPage: p, Orders: views}
}
