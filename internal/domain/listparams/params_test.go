package listparams

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseOrder(t *testing.T) {
	tests := []struct {
		in   string
		want Order
		ok   bool
	}{
		{"ASC", OrderAsc, true},
		{"desc", OrderDesc, true},
		{" Desc ", OrderDesc, true},
		{"", "", false},
		{"up", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseOrder(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
	}
}

func TestOrderOpposite(t *testing.T) {
	assert.Equal(t, OrderDesc, OrderAsc.Opposite())
	assert.Equal(t, OrderAsc, OrderDesc.Opposite())
	assert.Equal(t, OrderDesc, Order("").Opposite())
}

func TestFilterCopies(t *testing.T) {
	var nilFilter Filter
	assert.Equal(t, Filter{}, nilFilter.Clone())

	f := Filter{"a": 1}
	assert.Equal(t, Filter{"a": 1, "b": 2}, f.With("b", 2))
	assert.Equal(t, Filter{}, f.Without("a"))
	assert.Equal(t, Filter{"a": 1}, f)
}

func TestLocationString(t *testing.T) {
	assert.Equal(t, "/posts", Location{Pathname: "/posts"}.String())
	assert.Equal(t, "/posts", Location{Pathname: "/posts", Search: "?"}.String())
	assert.Equal(t, "/posts?page=2", Location{Pathname: "/posts", Search: "?page=2"}.String())
	assert.Equal(t, "/posts?page=2", Location{Pathname: "/posts", Search: "page=2"}.String())
}

func TestRequestSignature(t *testing.T) {
	loc := Location{Pathname: "/posts", Search: "?page=2"}
	sort := Sort{Field: "id", Order: OrderDesc}

	a := NewRequestSignature(loc, "posts", nil, Filter{"b": 1, "a": 2}, sort, 10)
	b := NewRequestSignature(Location{Pathname: "/other", Search: "page=2"}, "posts", nil, Filter{"a": 2, "b": 1}, sort, 10)
	assert.Equal(t, a, b)

	stored := &ListParams{Page: 2}
	assert.NotEqual(t, a, NewRequestSignature(loc, "posts", stored, Filter{"b": 1, "a": 2}, sort, 10))
	assert.NotEqual(t, a, NewRequestSignature(loc, "posts", nil, Filter{"b": 1, "a": 2}, sort, 20))
	assert.NotEqual(t, a, NewRequestSignature(loc, "comments", nil, Filter{"b": 1, "a": 2}, sort, 10))
}
