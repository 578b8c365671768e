// Package cart implements the in-memory shopping cart: an ordered list of entries
// and a running total that always equals the sum of the entries' prices in position order.
package cart

import (
	"context"
	"fmt"
	"slices"
	"sync"

	apperrors "github.com/abgdnv/shopcart/internal/errors"
	"github.com/abgdnv/shopcart/internal/observable"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// Entry is one item placed into the cart.
type Entry struct {
	ID          uuid.UUID
	Name        string
	Description string
	Price       float64
}

// State is an immutable view of the cart at one point in time.
type State struct {
	Entries []Entry
	Total   float64
}

// Count returns the number of entries.
func (s State) Count() int {
	return len(s.Entries)
}

// Cart owns the entries and the total. All mutations go through AddToCart and Delete,
// which keep the total in step and notify subscribers. An add extends the total by the
// new price; a delete recomputes it from the entries that remain, so an empty cart totals 0.
type Cart struct {
	mu      sync.RWMutex
	entries []Entry
	total   float64
	changes observable.Broadcaster[State]

	addedCounter    metric.Int64Counter
	removedCounter  metric.Int64Counter
	rejectedCounter metric.Int64Counter
}

// New creates an empty cart.
func New() *Cart {
	meter := otel.Meter("shopcart/cart")
	addedCounter, err := meter.Int64Counter("cart_items_added", metric.WithDescription("Total number of entries added to the cart"))
	if err != nil {
		panic(fmt.Sprintf("failed to create cart_items_added counter: %v", err))
	}
	removedCounter, err := meter.Int64Counter("cart_items_removed", metric.WithDescription("Total number of entries removed from the cart"))
	if err != nil {
		panic(fmt.Sprintf("failed to create cart_items_removed counter: %v", err))
	}
	rejectedCounter, err := meter.Int64Counter("cart_delete_rejected", metric.WithDescription("Delete calls rejected because of an out of range index"))
	if err != nil {
		panic(fmt.Sprintf("failed to create cart_delete_rejected counter: %v", err))
	}
	return &Cart{
		entries:         make([]Entry, 0),
		addedCounter:    addedCounter,
		removedCounter:  removedCounter,
		rejectedCounter: rejectedCounter,
	}
}

// AddToCart appends a new entry and adds price to the total. It returns the entry and
// the cart as it was right after the add.
// Inputs are not validated: a negative price is accepted and lowers the total.
func (c *Cart) AddToCart(name, description string, price float64) (Entry, State) {
	entry := Entry{
		ID:          uuid.New(),
		Name:        name,
		Description: description,
		Price:       price,
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, entry)
	c.total += price
	c.addedCounter.Add(context.Background(), 1)
	state := c.snapshotLocked()
	c.changes.Publish(state)
	return entry, state
}

// Delete removes the entries at the given positions and subtracts their prices from the total.
// Positions refer to the cart as it was before the call; duplicates are removed once.
// If any position is out of range nothing is removed and the error wraps ErrIndexOutOfRange.
// The removed entries are returned in ascending position order, together with the cart
// as it was right after the delete.
func (c *Cart) Delete(indices ...int) ([]Entry, State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.entries)
	for _, i := range indices {
		if i < 0 || i >= n {
			c.rejectedCounter.Add(context.Background(), 1)
			return nil, State{}, fmt.Errorf("%w: index %d, cart has %d entries", apperrors.ErrIndexOutOfRange, i, n)
		}
	}
	if len(indices) == 0 {
		return []Entry{}, c.snapshotLocked(), nil
	}

	positions := slices.Clone(indices)
	slices.Sort(positions)
	positions = slices.Compact(positions)

	removed := make([]Entry, len(positions))
	for k, i := range positions {
		removed[k] = c.entries[i]
	}
	// descending order keeps the lower positions valid while removing
	for k := len(positions) - 1; k >= 0; k-- {
		i := positions[k]
		c.entries = slices.Delete(c.entries, i, i+1)
	}
	c.total = sumPrices(c.entries)

	c.removedCounter.Add(context.Background(), int64(len(removed)))
	state := c.snapshotLocked()
	c.changes.Publish(state)
	return removed, state, nil
}

// Entries returns a copy of the entries in position order.
func (c *Cart) Entries() []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.entries)
}

// Total returns the running total.
func (c *Cart) Total() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.total
}

// Len returns the number of entries.
func (c *Cart) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Snapshot returns the entries and total read together.
func (c *Cart) Snapshot() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshotLocked()
}

// Subscribe returns a channel receiving the latest State after every change.
func (c *Cart) Subscribe() (<-chan State, func()) {
	return c.changes.Subscribe()
}

// sumPrices adds the prices in position order, the same order AddToCart accumulates them.
func sumPrices(entries []Entry) float64 {
	var sum float64
	for _, e := range entries {
		sum += e.Price
	}
	return sum
}

func (c *Cart) snapshotLocked() State {
	return State{Entries: slices.Clone(c.entries), Total: c.total}
}
