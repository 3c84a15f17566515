package filterstate

import (
	"io"
	"log/slog"
	"net/url"
	"testing"

	"github.com/abgdnv/shopfront/internal/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingLocation is a Location that keeps every replacement.
type recordingLocation struct {
	initial url.Values
	writes  []url.Values
}

func (l *recordingLocation) Query() url.Values {
	if len(l.writes) == 0 {
		return l.initial
	}
	return l.writes[len(l.writes)-1]
}

func (l *recordingLocation) ReplaceQuery(values url.Values) {
	l.writes = append(l.writes, values)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }

func Test_NewManager_InitialisesFromLocation(t *testing.T) {
	testCases := []struct {
		name     string
		query    url.Values
		expected catalog.Criteria
	}{
		{
			name:     "empty location uses defaults",
			query:    url.Values{},
			expected: catalog.Criteria{MinPrice: 0, MaxPrice: 1000},
		},
		{
			name:     "location parameters are read",
			query:    url.Values{"q": {"mug"}, "category": {"Home"}, "minPrice": {"5"}, "maxPrice": {"20"}},
			expected: catalog.Criteria{Query: "mug", Category: "Home", MinPrice: 5, MaxPrice: 20},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			loc := &recordingLocation{initial: tc.query}
			// when
			m := NewManager(loc, discardLogger())
			// then
			assert.Equal(t, tc.expected, m.Criteria())
			assert.Empty(t, loc.writes, "initialisation must not write the location")
		})
	}
}

func Test_Manager_Apply(t *testing.T) {
	// given
	loc := &recordingLocation{initial: url.Values{}}
	m := NewManager(loc, discardLogger())

	// when
	c := m.Apply(catalog.Override{Query: strPtr("lamp"), MaxPrice: floatPtr(50)})

	// then
	expected := catalog.Criteria{Query: "lamp", MinPrice: 0, MaxPrice: 50}
	assert.Equal(t, expected, c)
	assert.Equal(t, expected, m.Criteria())
	require.Len(t, loc.writes, 1, "exactly one location write per change")
	assert.Equal(t, "maxPrice=50&minPrice=0&q=lamp", loc.writes[0].Encode())
}

func Test_Manager_Apply_EmptyOverrideKeepsCriteria(t *testing.T) {
	// given
	loc := &recordingLocation{initial: url.Values{"q": {"pen"}, "minPrice": {"1"}}}
	m := NewManager(loc, discardLogger())
	before := m.Criteria()
	// when
	after := m.Apply(catalog.Override{})
	// then
	assert.Equal(t, before, after)
}

func Test_Manager_Apply_ClearingTextDropsParameters(t *testing.T) {
	// given
	loc := &recordingLocation{initial: url.Values{"q": {"pen"}, "category": {"Stationery"}}}
	m := NewManager(loc, discardLogger())
	// when
	m.Apply(catalog.Override{Query: strPtr(""), Category: strPtr("")})
	// then
	require.Len(t, loc.writes, 1)
	assert.Equal(t, "maxPrice=1000&minPrice=0", loc.writes[0].Encode())
}

func Test_MemoryLocation(t *testing.T) {
	// given
	loc, err := NewMemoryLocation("/shop?q=lap&minPrice=10")
	require.NoError(t, err)
	m := NewManager(loc, discardLogger())
	require.Equal(t, catalog.Criteria{Query: "lap", MinPrice: 10, MaxPrice: 1000}, m.Criteria())

	// when
	m.Apply(catalog.Override{Category: strPtr("Electronics")})

	// then
	assert.Equal(t, "/shop?category=Electronics&maxPrice=1000&minPrice=10&q=lap", loc.String())
	assert.Equal(t, 1, loc.Replacements())
	assert.Equal(t, m.Criteria(), catalog.ParseQuery(loc.Query()))
}

func Test_NewMemoryLocation_QueryOnly(t *testing.T) {
	loc, err := NewMemoryLocation("?category=Home")
	require.NoError(t, err)
	assert.Equal(t, "/?category=Home", loc.String())

	_, err = NewMemoryLocation("%zz")
	assert.Error(t, err)
}
