// Package cart implements the shopping cart.
package cart

import (
	"slices"
	"sync"

	"github.com/giftem/giftem/internal/catalog"
	"github.com/giftem/giftem/internal/store"
	"go.uber.org/zap"
)

const itemsKey = "cart.items"

// Item is a cart line. UnitPriceCents snapshots the price when first added.
type Item struct {
	ProductID      string `json:"product_id"`
	Name           string `json:"name"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
}

// Subtotal is the line price in cents.
func (i Item) Subtotal() int64 {
	return int64(i.Quantity) * i.UnitPriceCents
}

// Cart holds line items in the order they were first added.
type Cart struct {
	mu     sync.RWMutex
	items  []Item
	mirror store.Mirror
	logger *zap.Logger
}

// New restores the cart from mirror, starting empty if nothing was saved.
func New(mirror store.Mirror, logger *zap.Logger) *Cart {
	if mirror == nil {
		mirror = store.NopMirror{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Cart{mirror: mirror, logger: logger}
	if _, err := mirror.Get(itemsKey, &c.items); err != nil {
		logger.Warn("failed to load cart, starting empty", zap.Error(err))
		c.items = nil
	}
	return c
}

// Items returns a copy of the cart lines.
func (c *Cart) Items() []Item {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Item(nil), c.items...)
}

// Add puts qty units of p in the cart, merging with an existing line.
// Non-positive quantities and out-of-stock products are refused.
func (c *Cart) Add(p catalog.Product, qty int) bool {
	if qty <= 0 || !p.InStock {
		return false
	}
	c.mu.Lock()
	if i := c.index(p.ID); i >= 0 {
		c.items[i].Quantity += qty
	} else {
		c.items = append(c.items, Item{
			ProductID:      p.ID,
			Name:           p.Name,
			Quantity:       qty,
			UnitPriceCents: p.PriceCents,
		})
	}
	c.mu.Unlock()
	c.save()
	return true
}

// UpdateQuantity sets a line's quantity; zero or less removes the line.
func (c *Cart) UpdateQuantity(productID string, qty int) {
	c.mu.Lock()
	i := c.index(productID)
	if i < 0 {
		c.mu.Unlock()
		return
	}
	if qty <= 0 {
		c.items = slices.Delete(c.items, i, i+1)
	} else {
		c.items[i].Quantity = qty
	}
	c.mu.Unlock()
	c.save()
}

// Remove drops a line.
func (c *Cart) Remove(productID string) {
	c.UpdateQuantity(productID, 0)
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.mu.Lock()
	c.items = nil
	c.mu.Unlock()
	c.save()
}

// Count is the total number of units.
func (c *Cart) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := 0
	for _, it := range c.items {
		n += it.Quantity
	}
	return n
}

// Total is the cart value in cents.
func (c *Cart) Total() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var total int64
	for _, it := range c.items {
		total += it.Subtotal()
	}
	return total
}

func (c *Cart) index(productID string) int {
	return slices.IndexFunc(c.items, func(it Item) bool { return it.ProductID == productID })
}

func (c *Cart) save() {
	items := c.Items()
	if err := c.mirror.Put(itemsKey, items); err != nil {
		c.logger.Error("failed to mirror cart", zap.Error(err))
	}
}
