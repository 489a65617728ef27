package catalog

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"sort"
	"strings"
)

//go:embed products.json
var defaultProducts []byte

// ErrInvalidProduct is wrapped by every rejection raised while loading a catalog.
var ErrInvalidProduct = errors.New("invalid product")

// Catalog is the read-only product collection shared by every session.
type Catalog struct {
	products   []Product
	index      map[string]int
	categories []string
}

// New validates the records and freezes them in the given order.
func New(products []Product) (*Catalog, error) {
	c := &Catalog{
		products: make([]Product, 0, len(products)),
		index:    make(map[string]int, len(products)),
	}
	seen := make(map[string]struct{})
	for i, p := range products {
		if err := validate(p); err != nil {
			return nil, fmt.Errorf("product %d: %w", i, err)
		}
		if _, dup := c.index[p.ID]; dup {
			return nil, fmt.Errorf("product %d: %w: duplicate id %q", i, ErrInvalidProduct, p.ID)
		}
		c.index[p.ID] = len(c.products)
		c.products = append(c.products, p)
		if _, ok := seen[p.Category]; !ok {
			seen[p.Category] = struct{}{}
			c.categories = append(c.categories, p.Category)
		}
	}
	sort.Strings(c.categories)
	return c, nil
}

// Load decodes a JSON array of product records.
func Load(r io.Reader) (*Catalog, error) {
	var products []Product
	if err := json.NewDecoder(r).Decode(&products); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return New(products)
}

// LoadFile reads the catalog from disk.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Default returns the catalog bundled with the binary.
func Default() (*Catalog, error) {
	return Load(bytes.NewReader(defaultProducts))
}

func validate(p Product) error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidProduct)
	}
	if p.Price.IsNegative() {
		return fmt.Errorf("%w: %s has negative price %s", ErrInvalidProduct, p.ID, p.Price)
	}
	if p.Rating < 0 || p.Rating > 5 {
		return fmt.Errorf("%w: %s has rating %.2f outside [0,5]", ErrInvalidProduct, p.ID, p.Rating)
	}
	return nil
}

// Get looks a product up by id.
func (c *Catalog) Get(id string) (Product, bool) {
	i, ok := c.index[id]
	if !ok {
		return Product{}, false
	}
	return c.products[i], true
}

// Products returns the catalog in its original order. The slice is a copy.
func (c *Catalog) Products() []Product {
	return slices.Clone(c.products)
}

// Len is the number of products.
func (c *Catalog) Len() int { return len(c.products) }

// Categories lists the distinct categories of the whole catalog, sorted.
func (c *Catalog) Categories() []string {
	return slices.Clone(c.categories)
}

// TopRated returns up to n products ordered by rating, highest first.
// Products with equal ratings keep their catalog order.
func (c *Catalog) TopRated(n int) []Product {
	if n <= 0 {
		return nil
	}
	ranked := c.Products()
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Rating > ranked[j].Rating
	})
	if n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked
}
