package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/pkg/catalog"
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.New([]catalog.Product{
		{ID: "a", Name: "Alpha", Price: decimal.NewFromInt(10)},
		{ID: "b", Name: "Beta", Price: decimal.NewFromInt(20)},
		{ID: "c", Name: "Gamma", Price: decimal.RequireFromString("5.25")},
	})
	require.NoError(t, err)
	return c
}

func TestAddIsIdempotent(t *testing.T) {
	c := New(testCatalog(t))

	assert.True(t, c.Add("a"))
	assert.False(t, c.Add("a"))
	assert.Equal(t, 1, c.Count())
	assert.Equal(t, "a", c.Items()[0].ProductID)
}

func TestAddUnknownProductIsNoop(t *testing.T) {
	c := New(testCatalog(t))

	assert.False(t, c.Add("zzz"))
	assert.Zero(t, c.Count())
	assert.True(t, c.Total().IsZero())
}

func TestInsertionOrderAndSnapshot(t *testing.T) {
	c := New(testCatalog(t))
	c.Add("b")
	c.Add("a")
	c.Add("c")

	items := c.Items()
	require.Len(t, items, 3)
	assert.Equal(t, []string{"b", "a", "c"}, []string{items[0].ProductID, items[1].ProductID, items[2].ProductID})
	assert.Equal(t, "Beta", items[0].Product.Name)

	items[0].ProductID = "mutated"
	assert.Equal(t, "b", c.Items()[0].ProductID)
}

func TestRemove(t *testing.T) {
	c := New(testCatalog(t))
	c.Add("a")
	c.Add("b")

	assert.True(t, c.Remove("a"))
	assert.False(t, c.Remove("a"))
	assert.False(t, c.Remove("nothing"))
	assert.Equal(t, 1, c.Count())
	assert.False(t, c.Contains("a"))
	assert.True(t, c.Contains("b"))
}

func TestTotalAndCount(t *testing.T) {
	c := New(testCatalog(t))
	assert.True(t, c.Total().Equal(decimal.Zero))

	c.Add("a")
	c.Add("b")
	assert.True(t, c.Total().Equal(decimal.NewFromInt(30)), c.Total().String())

	c.Add("c")
	assert.Equal(t, "35.25", c.Total().StringFixed(2))
	assert.Equal(t, len(c.Items()), c.Count())

	c.Clear()
	assert.Zero(t, c.Count())
	assert.True(t, c.Total().IsZero())
}
