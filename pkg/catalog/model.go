package catalog

import "github.com/shopspring/decimal"

// BestSellerRating is the lowest rating that still counts as a best seller.
const BestSellerRating = 4.5

// Product is a purchasable item. Products never change after the catalog is loaded.
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Rating      float64         `json:"rating"`
	Image       string          `json:"image"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
}

// BestSeller reports whether the product is rated high enough to be featured.
func (p Product) BestSeller() bool {
	return p.Rating >= BestSellerRating
}
