// Package catalog holds the product listing model: products, filter criteria,
// the matching predicate and the URL query representation of criteria.
package catalog

// Product is a read-only catalog entry.
type Product struct {
	ID       int     `json:"id"`
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Price    float64 `json:"price"`
}

// MockProducts returns the demo catalog. A fresh slice is returned on every call.
func MockProducts() []Product {
	return []Product{
		{ID: 1, Name: "Classic Laptop", Category: "Electronics", Price: 999},
		{ID: 2, Name: "Running Shoes", Category: "Fashion", Price: 75},
		{ID: 3, Name: "Bluetooth Headphones", Category: "Electronics", Price: 120},
		{ID: 4, Name: "Coffee Mug", Category: "Home", Price: 15},
		{ID: 5, Name: "Office Chair", Category: "Home", Price: 180},
		{ID: 6, Name: "Graphic T-Shirt", Category: "Fashion", Price: 25},
		{ID: 7, Name: "Smart Watch", Category: "Electronics", Price: 220},
		{ID: 8, Name: "Notebook", Category: "Stationery", Price: 5},
		{ID: 9, Name: "Ballpoint Pen", Category: "Stationery", Price: 2},
		{ID: 10, Name: "Desk Lamp", Category: "Home", Price: 40},
	}
}

// Categories returns the distinct categories of products in first-seen order.
func Categories(products []Product) []string {
	seen := make(map[string]struct{}, len(products))
	categories := make([]string, 0)
	for _, p := range products {
		if _, ok := seen[p.Category]; ok {
			continue
		}
		seen[p.Category] = struct{}{}
		categories = append(categories, p.Category)
	}
	return categories
}
