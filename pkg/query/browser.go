package query

import (
	"time"

	"storefront/pkg/order"
)

// OrderBrowser remembers the admin's filters and current page between
// requests. Changing any filter sends the admin back to page 1.
type OrderBrowser struct {
	criteria OrderCriteria
	page     int
}

// NewOrderBrowser starts unfiltered on page 1.
func NewOrderBrowser() *OrderBrowser {
	return &OrderBrowser{page: 1}
}

// Criteria returns the active filters.
func (b *OrderBrowser) Criteria() OrderCriteria { return b.criteria }

// Page is the requested page; View clamps it against the current results.
func (b *OrderBrowser) Page() int { return b.page }

// SetSearch changes the search text.
func (b *OrderBrowser) SetSearch(text string) {
	if text != b.criteria.Search {
		b.criteria.Search = text
		b.page = 1
	}
}

// SetStatus restricts the view to one status, or clears the restriction with nil.
func (b *OrderBrowser) SetStatus(status *order.Status) {
	if sameStatus(status, b.criteria.Status) {
		return
	}
	if status != nil {
		s := *status
		status = &s
	}
	b.criteria.Status = status
	b.page = 1
}

// SetDateRange changes the trailing window.
func (b *OrderBrowser) SetDateRange(r DateRange) {
	if r != b.criteria.DateRange {
		b.criteria.DateRange = r
		b.page = 1
	}
}

// SetCriteria replaces all filters at once and reports whether any changed.
func (b *OrderBrowser) SetCriteria(c OrderCriteria) bool {
	before := b.criteria
	b.SetSearch(c.Search)
	b.SetStatus(c.Status)
	b.SetDateRange(c.DateRange)
	return before.Search != b.criteria.Search ||
		!sameStatus(before.Status, b.criteria.Status) ||
		before.DateRange != b.criteria.DateRange
}

// GoTo jumps to a page; values below 1 become 1.
func (b *OrderBrowser) GoTo(page int) {
	b.page = max(page, 1)
}

// Next advances one page, stopping at the last page of orders.
func (b *OrderBrowser) Next(orders []order.Order, now time.Time) {
	pages := TotalPages(len(FilterOrders(orders, b.criteria, now)))
	b.page = clampPage(b.page+1, pages)
}

// Prev goes back one page, stopping at page 1.
func (b *OrderBrowser) Prev() {
	b.page = max(b.page-1, 1)
}

// View renders the current page over orders.
func (b *OrderBrowser) View(orders []order.Order, now time.Time) OrderPage {
	return Orders(orders, b.criteria, b.page, now)
}

func sameStatus(a, b *order.Status) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
