package catalog

import (
	"slices"
	"sync"

	apperrors "github.com/abgdnv/shopcart/internal/errors"
	"github.com/abgdnv/shopcart/internal/observable"
	"github.com/google/uuid"
)

// Catalog is the local copy of the remote collection. It is only ever replaced as a whole.
type Catalog struct {
	mu       sync.RWMutex
	products []Product
	byID     map[uuid.UUID]int
	changes  observable.Broadcaster[[]Product]
}

// New creates an empty catalog.
func New() *Catalog {
	return &Catalog{
		products: make([]Product, 0),
		byID:     make(map[uuid.UUID]int),
	}
}

// Replace swaps in a new product list and notifies subscribers.
func (c *Catalog) Replace(products []Product) {
	list := slices.Clone(products)
	if list == nil {
		list = make([]Product, 0)
	}
	index := make(map[uuid.UUID]int, len(list))
	for i, p := range list {
		// first occurrence wins when two documents share a key
		if _, ok := index[p.ID]; !ok {
			index[p.ID] = i
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.products = list
	c.byID = index
	c.changes.Publish(slices.Clone(list))
}

// All returns the products in the order the source delivered them.
func (c *Catalog) All() []Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.products)
}

// FindByID returns ErrProductNotFound when the id is not in the current catalog.
func (c *Catalog) FindByID(id uuid.UUID) (Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.byID[id]
	if !ok {
		return Product{}, apperrors.ErrProductNotFound
	}
	return c.products[i], nil
}

// Len returns the number of products.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.products)
}

// Subscribe returns a channel receiving the full product list after every replace.
func (c *Catalog) Subscribe() (<-chan []Product, func()) {
	return c.changes.Subscribe()
}
