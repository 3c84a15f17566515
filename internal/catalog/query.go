package catalog

import (
	"math"
	"net/url"
	"strconv"
	"strings"
)

// Query parameter names shared by the stateless endpoint and session locations.
const (
	ParamQuery    = "q"
	ParamCategory = "category"
	ParamMinPrice = "minPrice"
	ParamMaxPrice = "maxPrice"
)

// ParseQuery builds Criteria from URL query parameters.
// Missing or empty values fall back to the defaults. A price that does not parse
// as a number becomes NaN and is kept as is.
func ParseQuery(values url.Values) Criteria {
	c := DefaultCriteria()
	c.Query = values.Get(ParamQuery)
	c.Category = values.Get(ParamCategory)
	if v := values.Get(ParamMinPrice); v != "" {
		c.MinPrice = parseNumber(v)
	}
	if v := values.Get(ParamMaxPrice); v != "" {
		c.MaxPrice = parseNumber(v)
	}
	return c
}

// EncodeQuery is the inverse of ParseQuery. Empty text filters are omitted since
// empty means "no constraint"; price bounds are always written.
func EncodeQuery(c Criteria) url.Values {
	values := url.Values{}
	if c.Query != "" {
		values.Set(ParamQuery, c.Query)
	}
	if c.Category != "" {
		values.Set(ParamCategory, c.Category)
	}
	values.Set(ParamMinPrice, formatNumber(c.MinPrice))
	values.Set(ParamMaxPrice, formatNumber(c.MaxPrice))
	return values
}

func parseNumber(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
