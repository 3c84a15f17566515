package store

import (
	"context"

	"github.com/abgdnv/shopfront/internal/catalog"
	shoperrors "github.com/abgdnv/shopfront/internal/errors"
)

// inMemory implements ProductStore over a fixed product list.
type inMemory struct {
	products []catalog.Product
	byID     map[int]int
}

// NewInMemoryStore creates a ProductStore serving a copy of products.
func NewInMemoryStore(products []catalog.Product) ProductStore {
	s := &inMemory{
		products: make([]catalog.Product, len(products)),
		byID:     make(map[int]int, len(products)),
	}
	copy(s.products, products)
	for i, p := range s.products {
		s.byID[p.ID] = i
	}
	return s
}

// FindAll returns a copy of all products.
func (s *inMemory) FindAll(_ context.Context) ([]catalog.Product, error) {
	list := make([]catalog.Product, len(s.products))
	copy(list, s.products)
	return list, nil
}

// FindByID retrieves a product by its ID.
func (s *inMemory) FindByID(_ context.Context, id int) (*catalog.Product, error) {
	i, ok := s.byID[id]
	if !ok {
		return nil, shoperrors.ErrProductNotFound
	}
	p := s.products[i]
	return &p, nil
}
