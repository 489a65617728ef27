package query

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"storefront/pkg/order"
)

func TestBrowserResetsPageOnFilterChange(t *testing.T) {
	orders := manyOrders(35)
	b := NewOrderBrowser()
	b.GoTo(3)
	assert.Equal(t, 3, b.View(orders, now).Page)

	b.SetSearch("ORD-0")
	assert.Equal(t, 1, b.Page())

	b.GoTo(2)
	b.SetStatus(statusPtr(order.StatusIncomplete))
	assert.Equal(t, 1, b.Page())

	b.GoTo(2)
	b.SetDateRange(LastDay)
	assert.Equal(t, 1, b.Page())

	b.GoTo(2)
	assert.True(t, b.SetCriteria(OrderCriteria{Search: "x"}))
	assert.Equal(t, 1, b.Page())

	b.GoTo(2)
	assert.False(t, b.SetCriteria(OrderCriteria{Search: "x"}))
	assert.Equal(t, 2, b.Page())
}

func TestBrowserKeepsPageWhenFilterUnchanged(t *testing.T) {
	b := NewOrderBrowser()
	b.SetStatus(statusPtr(order.StatusCompleted))
	b.GoTo(2)

	b.SetStatus(statusPtr(order.StatusCompleted))
	b.SetSearch("")
	b.SetDateRange(AllTime)
	assert.Equal(t, 2, b.Page())

	b.SetStatus(nil)
	assert.Equal(t, 1, b.Page())
	assert.Nil(t, b.Criteria().Status)
}

func TestBrowserCopiesStatus(t *testing.T) {
	b := NewOrderBrowser()
	s := order.StatusCompleted
	b.SetStatus(&s)
	s = order.StatusIncomplete
	assert.Equal(t, order.StatusCompleted, *b.Criteria().Status)
}

func TestBrowserNextPrevClamp(t *testing.T) {
	orders := manyOrders(25)
	b := NewOrderBrowser()

	b.Prev()
	assert.Equal(t, 1, b.Page())

	b.Next(orders, now)
	b.Next(orders, now)
	b.Next(orders, now)
	assert.Equal(t, 3, b.Page())

	view := b.View(orders, now)
	assert.Len(t, view.Orders, 5)
	assert.False(t, view.HasNext)

	b.Prev()
	assert.Equal(t, 2, b.Page())
	b.GoTo(0)
	assert.Equal(t, 1, b.Page())
}
