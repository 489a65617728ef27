// Package query derives the product and order views shown to shoppers and
// admins. Every function here is pure: inputs are never modified and nothing
// is cached between calls.
package query

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"storefront/pkg/catalog"
)

// AllCategories is the wildcard category.
const AllCategories = "all"

// ProductSort selects the ordering of the product view.
type ProductSort uint8

const (
	SortDefault ProductSort = iota
	SortPriceAsc
	SortPriceDesc
	SortAlphabetical
	SortRatingDesc
)

func (s ProductSort) String() string {
	switch s {
	case SortDefault:
		return "default"
	case SortPriceAsc:
		return "price-asc"
	case SortPriceDesc:
		return "price-desc"
	case SortAlphabetical:
		return "alphabetical"
	case SortRatingDesc:
		return "rating-desc"
	default:
		return fmt.Sprintf("ProductSort(%d)", uint8(s))
	}
}

// ParseProductSort accepts both the canonical names and the storefront's
// dropdown values (price-low, price-high, best-sellers).
func ParseProductSort(text string) (ProductSort, error) {
	switch text {
	case "", "default":
		return SortDefault, nil
	case "price-asc", "price-low":
		return SortPriceAsc, nil
	case "price-desc", "price-high":
		return SortPriceDesc, nil
	case "alphabetical":
		return SortAlphabetical, nil
	case "rating-desc", "best-sellers":
		return SortRatingDesc, nil
	default:
		return SortDefault, fmt.Errorf("unknown product sort %q", text)
	}
}

// PriceRange is an inclusive price window. A nil Max leaves the range open
// above; a nil Min as well means no price filter at all.
type PriceRange struct {
	Min *decimal.Decimal
	Max *decimal.Decimal
}

// AnyPrice is the wildcard range.
var AnyPrice = PriceRange{}

// IsAny reports whether the range filters nothing.
func (r PriceRange) IsAny() bool { return r.Min == nil && r.Max == nil }

// Contains reports whether price lies inside the range.
func (r PriceRange) Contains(price decimal.Decimal) bool {
	if r.Min != nil && price.LessThan(*r.Min) {
		return false
	}
	if r.Max != nil && price.GreaterThan(*r.Max) {
		return false
	}
	return true
}

func (r PriceRange) String() string {
	switch {
	case r.IsAny():
		return "all"
	case r.Max == nil:
		return r.Min.String() + "-"
	case r.Min == nil:
		return "0-" + r.Max.String()
	default:
		return r.Min.String() + "-" + r.Max.String()
	}
}

// ParsePriceRange reads "min-max", "min-" or "all" (also the empty string).
func ParsePriceRange(text string) (PriceRange, error) {
	text = strings.TrimSpace(text)
	if text == "" || text == "all" {
		return AnyPrice, nil
	}
	lo, hi, found := strings.Cut(text, "-")
	if !found {
		return AnyPrice, fmt.Errorf("price range %q: want min-max", text)
	}
	floor, err := decimal.NewFromString(lo)
	if err != nil {
		return AnyPrice, fmt.Errorf("price range %q: %w", text, err)
	}
	r := PriceRange{Min: &floor}
	if hi != "" {
		ceiling, err := decimal.NewFromString(hi)
		if err != nil {
			return AnyPrice, fmt.Errorf("price range %q: %w", text, err)
		}
		if ceiling.LessThan(floor) {
			return AnyPrice, fmt.Errorf("price range %q: max below min", text)
		}
		r.Max = &ceiling
	}
	return r, nil
}

// ProductCriteria is everything the shopper can set on the products page.
type ProductCriteria struct {
	Search          string
	Category        string
	Price           PriceRange
	BestSellersOnly bool
	SortBy          ProductSort
}

// DefaultProductCriteria shows the whole catalog in catalog order.
func DefaultProductCriteria() ProductCriteria {
	return ProductCriteria{Category: AllCategories}
}

// IsFiltered reports whether any criterion differs from the defaults.
func (c ProductCriteria) IsFiltered() bool {
	return c.Search != "" || !isAllCategories(c.Category) || !c.Price.IsAny() ||
		c.BestSellersOnly || c.SortBy != SortDefault
}

// Products filters by search, category, price and best-seller flag, in that
// order, then sorts. The sort is stable and SortDefault keeps catalog order.
func Products(products []catalog.Product, c ProductCriteria) []catalog.Product {
	// Casers and collators carry state, so each call builds its own.
	folder := cases.Fold()
	out := make([]catalog.Product, 0, len(products))
	needle := folder.String(c.Search)
	for _, p := range products {
		if needle != "" && !strings.Contains(folder.String(p.Name), needle) &&
			!strings.Contains(folder.String(p.Description), needle) {
			continue
		}
		if !isAllCategories(c.Category) && p.Category != c.Category {
			continue
		}
		if !c.Price.Contains(p.Price) {
			continue
		}
		if c.BestSellersOnly && !p.BestSeller() {
			continue
		}
		out = append(out, p)
	}
	sortProducts(out, c.SortBy)
	return out
}

func sortProducts(products []catalog.Product, by ProductSort) {
	switch by {
	case SortDefault:
	case SortPriceAsc:
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].Price.LessThan(products[j].Price)
		})
	case SortPriceDesc:
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].Price.GreaterThan(products[j].Price)
		})
	case SortAlphabetical:
		coll := collate.New(language.English)
		slices.SortStableFunc(products, func(a, b catalog.Product) int {
			return coll.CompareString(a.Name, b.Name)
		})
	case SortRatingDesc:
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].Rating > products[j].Rating
		})
	}
}

func isAllCategories(category string) bool {
	return category == "" || category == AllCategories
}
