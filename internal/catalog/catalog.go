// Package catalog holds the product records listed in the shop and feed.
package catalog

import (
	"slices"
	"strings"
	"sync"
)

// CategoryAll matches every product in ByCategory.
const CategoryAll = "all"

// Product is a listed item. Prices are in cents.
type Product struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	PriceCents  int64   `json:"price_cents"`
	Category    string  `json:"category"`
	ImageURL    string  `json:"image_url,omitempty"`
	SellerID    string  `json:"seller_id"`
	Rating      float64 `json:"rating"`
	InStock     bool    `json:"in_stock"`
}

// Store is a read-mostly product list.
type Store struct {
	mu       sync.RWMutex
	products []Product
}

// NewStore returns a store holding products in the given order.
func NewStore(products []Product) *Store {
	return &Store{products: append([]Product(nil), products...)}
}

// Products returns every product.
func (s *Store) Products() []Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Product(nil), s.products...)
}

// Product looks up a product by id.
func (s *Store) Product(id string) (Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.products {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}

// Search returns products whose name or description contains query, ignoring
// case. A blank query returns everything.
func (s *Store) Search(query string) []Product {
	q := strings.ToLower(strings.TrimSpace(query))
	return s.filter(func(p Product) bool {
		return q == "" ||
			strings.Contains(strings.ToLower(p.Name), q) ||
			strings.Contains(strings.ToLower(p.Description), q)
	})
}

// ByCategory returns products in category, or all of them for CategoryAll.
func (s *Store) ByCategory(category string) []Product {
	if category == "" || strings.EqualFold(category, CategoryAll) {
		return s.Products()
	}
	return s.filter(func(p Product) bool { return p.Category == category })
}

// BySeller returns the products listed by a user.
func (s *Store) BySeller(userID string) []Product {
	return s.filter(func(p Product) bool { return p.SellerID == userID })
}

// Categories returns the distinct categories, sorted.
func (s *Store) Categories() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []string
	for _, p := range s.products {
		if !slices.Contains(out, p.Category) {
			out = append(out, p.Category)
		}
	}
	slices.Sort(out)
	return out
}

func (s *Store) filter(keep func(Product) bool) []Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Product
	for _, p := range s.products {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}
