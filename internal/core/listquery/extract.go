package listquery

import (
	"encoding/json"
	"net/url"
	"strings"

	"listkeeper/internal/domain/listparams"
)

// Recognized query string keys. Everything else in a URL is ignored.
const (
	KeyPage    = "page"
	KeyPerPage = "perPage"
	KeySort    = "sort"
	KeyOrder   = "order"
	KeyFilter  = "filter"
)

var validKeys = []string{KeyPage, KeyPerPage, KeySort, KeyOrder, KeyFilter}

type keySet uint8

func keyBit(key string) keySet {
	for i, k := range validKeys {
		if k == key {
			return 1 << i
		}
	}
	return 0
}

// Query is a partially specified parameter set, as found in a URL or restored
// from the store. Numeric members stay raw until GetQuery coerces them.
type Query struct {
	Page    string
	PerPage string
	Sort    string
	Order   string
	Filter  listparams.Filter

	keys keySet
}

// Set assigns a raw value to a recognized key and marks it present.
// Unknown keys are ignored and report false.
func (q *Query) Set(key, value string) bool {
	bit := keyBit(key)
	if bit == 0 {
		return false
	}
	switch key {
	case KeyPage:
		q.Page = value
	case KeyPerPage:
		q.PerPage = value
	case KeySort:
		q.Sort = value
	case KeyOrder:
		q.Order = value
	case KeyFilter:
		filter, ok := parseFilter(value)
		if !ok {
			q.Filter = nil
			q.keys &^= bit
			return false
		}
		q.Filter = filter
	}
	q.keys |= bit
	return true
}

// Has reports whether key was present.
func (q Query) Has(key string) bool {
	bit := keyBit(key)
	return bit != 0 && q.keys&bit != 0
}

// Len is the number of recognized keys present.
func (q Query) Len() int {
	n := 0
	for k := q.keys; k != 0; k &= k - 1 {
		n++
	}
	return n
}

// Empty reports whether no recognized key is present.
func (q Query) Empty() bool { return q.keys == 0 }

// Extract parses a location's query string into a Query holding only the
// recognized keys. It never fails: pairs are split on "&" only, a pair with a
// bad escape is skipped, and a malformed filter is dropped. The first
// decodable value of a key wins.
func Extract(search string) Query {
	var q Query
	var seen keySet
	for _, pair := range strings.Split(strings.TrimPrefix(search, "?"), "&") {
		if pair == "" {
			continue
		}
		rawKey, rawValue, _ := strings.Cut(pair, "=")
		key, err := url.QueryUnescape(rawKey)
		if err != nil {
			continue
		}
		bit := keyBit(key)
		if bit == 0 || seen&bit != 0 {
			continue
		}
		value, err := url.QueryUnescape(rawValue)
		if err != nil {
			continue
		}
		seen |= bit
		q.Set(key, value)
	}
	return q
}

// parseFilter decodes a JSON filter object. Anything else, including null,
// is rejected.
func parseFilter(raw string) (listparams.Filter, bool) {
	var filter map[string]any
	if err := json.Unmarshal([]byte(raw), &filter); err != nil || filter == nil {
		return nil, false
	}
	return listparams.Filter(filter), true
}
