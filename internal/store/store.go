// Package store provides read access to the product catalog.
package store

import (
	"context"

	"github.com/abgdnv/shopfront/internal/catalog"
)

// ProductStore is an interface for product storage operations.
// It abstracts the underlying data source; the catalog is read-only.
type ProductStore interface {
	// FindAll returns all products in catalog order.
	// Returns an empty slice if no products exist.
	FindAll(ctx context.Context) ([]catalog.Product, error)

	// FindByID retrieves a single product by its identifier.
	// Returns ErrProductNotFound if no product exists with the given ID.
	FindByID(ctx context.Context, id int) (*catalog.Product, error)
}
