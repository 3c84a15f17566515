package store

import (
	"context"
	"testing"

	"github.com/abgdnv/shopfront/internal/catalog"
	shoperrors "github.com/abgdnv/shopfront/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_InMemoryStore_FindAll(t *testing.T) {
	// given
	s := NewInMemoryStore(catalog.MockProducts())
	// when
	list, err := s.FindAll(context.Background())
	// then
	require.NoError(t, err)
	assert.Equal(t, catalog.MockProducts(), list)

	// mutating the returned slice must not leak into the store
	list[0].Name = "changed"
	again, err := s.FindAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Classic Laptop", again[0].Name)
}

func Test_InMemoryStore_FindByID(t *testing.T) {
	testCases := []struct {
		name        string
		id          int
		expected    string
		expectError error
	}{
		{name: "Success - product found", id: 7, expected: "Smart Watch"},
		{name: "Error - product not found", id: 42, expectError: shoperrors.ErrProductNotFound},
	}

	s := NewInMemoryStore(catalog.MockProducts())
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// when
			p, err := s.FindByID(context.Background(), tc.id)
			// then
			if tc.expectError != nil {
				assert.ErrorIs(t, err, tc.expectError)
				assert.Nil(t, p)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, p.Name)
		})
	}
}
