package listparams

import (
	"encoding/json"
	"strings"
)

// Order is the sort direction of a list
type Order string

const (
	OrderAsc  Order = "ASC"
	OrderDesc Order = "DESC"
)

// ParseOrder normalizes a raw order value. Unknown values report false.
func ParseOrder(s string) (Order, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(OrderAsc):
		return OrderAsc, true
	case string(OrderDesc):
		return OrderDesc, true
	default:
		return "", false
	}
}

// Opposite returns the reverse direction. Anything that is not DESC flips to DESC.
func (o Order) Opposite() Order {
	if o == OrderDesc {
		return OrderAsc
	}
	return OrderDesc
}

// Sort is the default sort a list is configured with
type Sort struct {
	Field string `json:"field"`
	Order Order  `json:"order"`
}

// Filter maps filter names to JSON values
type Filter map[string]any

// Clone returns a shallow copy; a nil filter clones to an empty one.
func (f Filter) Clone() Filter {
	out := make(Filter, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Without returns a copy of f without key.
func (f Filter) Without(key string) Filter {
	out := f.Clone()
	delete(out, key)
	return out
}

// With returns a copy of f with key set to value.
func (f Filter) With(key string, value any) Filter {
	out := f.Clone()
	out[key] = value
	return out
}

// ListParams is the parameter set persisted in the store and mirrored in the URL
type ListParams struct {
	Page    int    `json:"page,omitempty"`
	PerPage int    `json:"perPage,omitempty"`
	Sort    string `json:"sort,omitempty"`
	Order   Order  `json:"order,omitempty"`
	Filter  Filter `json:"filter"`
}

// Clone copies p including its filter map. A nil filter stays nil.
func (p ListParams) Clone() ListParams {
	out := p
	if p.Filter != nil {
		out.Filter = p.Filter.Clone()
	}
	return out
}

// DisplayedFilters tracks which filter inputs are visible. Never persisted.
type DisplayedFilters map[string]bool

// Location is the path and raw query string a session is looking at
type Location struct {
	Pathname string `json:"pathname"`
	Search   string `json:"search"`
}

// String renders the location as a relative URL.
func (l Location) String() string {
	search := strings.TrimPrefix(l.Search, "?")
	if search == "" {
		return l.Pathname
	}
	return l.Pathname + "?" + search
}

// RequestSignature captures every input a derived list query depends on.
// Debounced work scheduled under one signature must not run under another.
type RequestSignature struct {
	Search              string `json:"search"`
	Resource            string `json:"resource"`
	Params              string `json:"params"`
	FilterDefaultValues string `json:"filterDefaultValues"`
	Sort                string `json:"sort"`
	PerPage             int    `json:"perPage"`
}

// NewRequestSignature builds a signature from the raw inputs. Structured
// members are compared through their JSON encoding, which sorts map keys.
func NewRequestSignature(loc Location, resource string, stored *ListParams, defaults Filter, sort Sort, perPage int) RequestSignature {
	return RequestSignature{
		Search:              strings.TrimPrefix(loc.Search, "?"),
		Resource:            resource,
		Params:              encodeSignaturePart(stored),
		FilterDefaultValues: encodeSignaturePart(defaults),
		Sort:                encodeSignaturePart(sort),
		PerPage:             perPage,
	}
}

func encodeSignaturePart(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "!" + err.Error()
	}
	return string(b)
}

// Snapshot is the read-only view of a list's parameters
type Snapshot struct {
	Page             int              `json:"page"`
	PerPage          int              `json:"perPage"`
	Sort             string           `json:"sort"`
	Order            Order            `json:"order"`
	Filter           Filter           `json:"filter,omitempty"`
	FilterValues     Filter           `json:"filterValues"`
	DisplayedFilters DisplayedFilters `json:"displayedFilters"`
	RequestSignature RequestSignature `json:"requestSignature"`
}

// Params returns the persisted part of the snapshot.
func (s Snapshot) Params() ListParams {
	return ListParams{
		Page:    s.Page,
		PerPage: s.PerPage,
		Sort:    s.Sort,
		Order:   s.Order,
		Filter:  s.Filter,
	}
}
