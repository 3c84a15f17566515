package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

const (
	DefaultMinPrice = 0
	DefaultMaxPrice = 1000
)

// Criteria is the user-chosen filter state.
// MinPrice <= MaxPrice is not enforced; an inverted range simply matches nothing.
type Criteria struct {
	Query    string  `json:"q"`
	Category string  `json:"category"`
	MinPrice float64 `json:"minPrice"`
	MaxPrice float64 `json:"maxPrice"`
}

// DefaultCriteria returns the criteria used when the URL carries no filter parameters.
func DefaultCriteria() Criteria {
	return Criteria{MinPrice: DefaultMinPrice, MaxPrice: DefaultMaxPrice}
}

// Override is a partial update of Criteria. A nil field keeps the current value.
type Override struct {
	Query    *string  `json:"q,omitempty"        validate:"omitempty,max=200"`
	Category *string  `json:"category,omitempty" validate:"omitempty,max=100"`
	MinPrice *float64 `json:"minPrice,omitempty"`
	MaxPrice *float64 `json:"maxPrice,omitempty"`
}

// IsEmpty reports whether the override changes nothing.
func (o Override) IsEmpty() bool {
	return o.Query == nil && o.Category == nil && o.MinPrice == nil && o.MaxPrice == nil
}

// UnmarshalJSON accepts price bounds as JSON numbers or strings, the way a price
// input field submits them. A string that is not a number becomes NaN, a blank
// string becomes 0 and null leaves the bound unchanged. Unknown fields are rejected.
func (o *Override) UnmarshalJSON(data []byte) error {
	type plain Override
	var raw struct {
		plain
		MinPrice json.RawMessage `json:"minPrice"`
		MaxPrice json.RawMessage `json:"maxPrice"`
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	minPrice, err := decodePrice(raw.MinPrice)
	if err != nil {
		return fmt.Errorf("minPrice: %w", err)
	}
	maxPrice, err := decodePrice(raw.MaxPrice)
	if err != nil {
		return fmt.Errorf("maxPrice: %w", err)
	}
	*o = Override(raw.plain)
	o.MinPrice, o.MaxPrice = minPrice, maxPrice
	return nil
}

func decodePrice(raw json.RawMessage) (*float64, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		price := 0.0
		if strings.TrimSpace(text) != "" {
			price = parseNumber(text)
		}
		return &price, nil
	}
	var price float64
	if err := json.Unmarshal(raw, &price); err != nil {
		return nil, err
	}
	return &price, nil
}

// Apply merges o over c and returns the result. c is not modified.
func (c Criteria) Apply(o Override) Criteria {
	next := c
	if o.Query != nil {
		next.Query = *o.Query
	}
	if o.Category != nil {
		next.Category = *o.Category
	}
	if o.MinPrice != nil {
		next.MinPrice = *o.MinPrice
	}
	if o.MaxPrice != nil {
		next.MaxPrice = *o.MaxPrice
	}
	return next
}

// Matches reports whether p satisfies c.
//
// A zero price bound means "no bound" on that side, so MaxPrice == 0 does not
// exclude everything. A NaN bound fails every comparison and rejects all products.
func Matches(p Product, c Criteria) bool {
	q := strings.ToLower(strings.TrimSpace(c.Query))
	if q != "" && !strings.Contains(strings.ToLower(p.Name), q) {
		return false
	}
	if c.Category != "" && p.Category != c.Category {
		return false
	}
	if c.MinPrice != 0 && !(p.Price >= c.MinPrice) {
		return false
	}
	if c.MaxPrice != 0 && !(p.Price <= c.MaxPrice) {
		return false
	}
	return true
}

// Filter returns the products matching c, preserving input order.
// It never modifies products and always returns a non-nil slice.
func Filter(products []Product, c Criteria) []Product {
	filtered := make([]Product, 0, len(products))
	for _, p := range products {
		if Matches(p, c) {
			filtered = append(filtered, p)
		}
	}
	return filtered
}

// MarshalJSON writes non-finite price bounds as null; encoding/json rejects NaN.
func (c Criteria) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Query    string   `json:"q"`
		Category string   `json:"category"`
		MinPrice *float64 `json:"minPrice"`
		MaxPrice *float64 `json:"maxPrice"`
	}{
		Query:    c.Query,
		Category: c.Category,
		MinPrice: finite(c.MinPrice),
		MaxPrice: finite(c.MaxPrice),
	})
}

func finite(f float64) *float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}
