package catalog

import "github.com/giftem/giftem/internal/identity"

// SampleProducts is the catalog the app starts with.
func SampleProducts() []Product {
	sarah := identity.UserID("sarahm")
	mike := identity.UserID("mikechen")
	emma := identity.UserID("emmaw")
	david := identity.UserID("davidk")
	return []Product{
		{ID: "prod-necklace", Name: "Rose Gold Necklace", Description: "Handmade pendant with a hidden engraving", PriceCents: 4999, Category: "jewelry", ImageURL: "necklace", SellerID: sarah, Rating: 4.8, InStock: true},
		{ID: "prod-candle", Name: "Lavender Soy Candle", Description: "Hand-poured, 40 hour burn time", PriceCents: 2499, Category: "home", ImageURL: "candle", SellerID: sarah, Rating: 4.6, InStock: true},
		{ID: "prod-earbuds", Name: "Wireless Earbuds Pro", Description: "Noise cancelling with wireless charging case", PriceCents: 12999, Category: "electronics", ImageURL: "earbuds", SellerID: mike, Rating: 4.5, InStock: true},
		{ID: "prod-watch", Name: "Smart Fitness Watch", Description: "Heart rate, GPS and sleep tracking", PriceCents: 19999, Category: "electronics", ImageURL: "watch", SellerID: mike, Rating: 4.4, InStock: false},
		{ID: "prod-vase", Name: "Ceramic Bud Vase", Description: "Minimalist matte white vase", PriceCents: 3200, Category: "home", ImageURL: "vase", SellerID: emma, Rating: 4.9, InStock: true},
		{ID: "prod-throw", Name: "Knitted Throw Blanket", Description: "Chunky knit in oatmeal wool", PriceCents: 8900, Category: "home", ImageURL: "throw", SellerID: emma, Rating: 4.7, InStock: true},
		{ID: "prod-coffee", Name: "Single Origin Coffee Set", Description: "Three roasts with a pour-over dripper", PriceCents: 5400, Category: "food", ImageURL: "coffee", SellerID: david, Rating: 4.8, InStock: true},
		{ID: "prod-vinyl", Name: "Classic Jazz Vinyl", Description: "Remastered 180g pressing", PriceCents: 3499, Category: "music", ImageURL: "vinyl", SellerID: david, Rating: 4.9, InStock: true},
	}
}
