package query

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"

	"storefront/pkg/order"
)

// OrderPageSize is the number of orders shown per admin page.
const OrderPageSize = 10

// DateRange limits orders to those placed within a trailing window.
type DateRange uint8

const (
	AllTime DateRange = iota
	Last10Minutes
	LastHour
	LastDay
	LastWeek
	LastMonth
)

// Window is how far back the range reaches. AllTime has no window.
func (r DateRange) Window() time.Duration {
	switch r {
	case AllTime:
		return 0
	case Last10Minutes:
		return 10 * time.Minute
	case LastHour:
		return 60 * time.Minute
	case LastDay:
		return 24 * 60 * time.Minute
	case LastWeek:
		return 7 * 24 * 60 * time.Minute
	case LastMonth:
		return 30 * 24 * 60 * time.Minute
	default:
		return 0
	}
}

func (r DateRange) String() string {
	switch r {
	case AllTime:
		return "all"
	case Last10Minutes:
		return "last-10-minutes"
	case LastHour:
		return "last-hour"
	case LastDay:
		return "last-day"
	case LastWeek:
		return "last-week"
	case LastMonth:
		return "last-month"
	default:
		return fmt.Sprintf("DateRange(%d)", uint8(r))
	}
}

// ParseDateRange reads the range names; "last-10-mins" is accepted as well.
func ParseDateRange(text string) (DateRange, error) {
	switch text {
	case "", "all":
		return AllTime, nil
	case "last-10-minutes", "last-10-mins":
		return Last10Minutes, nil
	case "last-hour":
		return LastHour, nil
	case "last-day":
		return LastDay, nil
	case "last-week":
		return LastWeek, nil
	case "last-month":
		return LastMonth, nil
	default:
		return AllTime, fmt.Errorf("unknown date range %q", text)
	}
}

// OrderCriteria holds the admin filters. A nil Status matches every status.
type OrderCriteria struct {
	Search    string
	Status    *order.Status
	DateRange DateRange
}

// OrderPage is one page of filtered orders plus the numbers needed to render
// the pager and the "showing F of N" line.
type OrderPage struct {
	Orders     []order.Order `json:"orders"`
	Page       int           `json:"page"`
	PageSize   int           `json:"pageSize"`
	TotalPages int           `json:"totalPages"`
	Filtered   int           `json:"filtered"`
	Total      int           `json:"total"`
	HasPrev    bool          `json:"hasPrev"`
	HasNext    bool          `json:"hasNext"`
}

// FilterOrders applies the criteria without reordering, so the result keeps
// the ledger's newest-first order.
func FilterOrders(orders []order.Order, c OrderCriteria, now time.Time) []order.Order {
	folder := cases.Fold()
	needle := folder.String(c.Search)
	var cutoff time.Time
	if w := c.DateRange.Window(); w > 0 {
		cutoff = now.Add(-w)
	}

	out := make([]order.Order, 0, len(orders))
	for _, o := range orders {
		if needle != "" && !matchesOrder(folder, o, needle) {
			continue
		}
		if c.Status != nil && o.Status != *c.Status {
			continue
		}
		if !cutoff.IsZero() && o.CreatedAt.Before(cutoff) {
			continue
		}
		out = append(out, o)
	}
	return out
}

func matchesOrder(folder cases.Caser, o order.Order, needle string) bool {
	if strings.Contains(folder.String(o.ID), needle) ||
		strings.Contains(folder.String(o.ShippingInfo.Name), needle) {
		return true
	}
	for _, it := range o.Items {
		if strings.Contains(folder.String(it.Product.Name), needle) {
			return true
		}
	}
	return false
}

// TotalPages is ceil(filtered / OrderPageSize).
func TotalPages(filtered int) int {
	return (filtered + OrderPageSize - 1) / OrderPageSize
}

// Orders filters and returns the requested 1-based page. Out of range pages
// are clamped to the nearest valid page.
func Orders(orders []order.Order, c OrderCriteria, page int, now time.Time) OrderPage {
	filtered := FilterOrders(orders, c, now)
	pages := TotalPages(len(filtered))
	page = clampPage(page, pages)

	start := min((page-1)*OrderPageSize, len(filtered))
	end := min(start+OrderPageSize, len(filtered))
	return OrderPage{
		Orders:     filtered[start:end],
		Page:       page,
		PageSize:   OrderPageSize,
		TotalPages: pages,
		Filtered:   len(filtered),
		Total:      len(orders),
		HasPrev:    page > 1,
		HasNext:    page < pages,
	}
}

func clampPage(page, pages int) int {
	if page > pages {
		page = pages
	}
	if page < 1 {
		page = 1
	}
	return page
}
