package listquery

import (
	"encoding/json"
	"net/url"
	"strconv"

	"listkeeper/internal/domain/listparams"
)

// Encode serializes params into a query string, with the filter embedded as
// a JSON object. Keys come out sorted.
func Encode(p listparams.ListParams) string {
	v := url.Values{}
	if p.Page > 0 {
		v.Set(KeyPage, strconv.Itoa(p.Page))
	}
	if p.PerPage > 0 {
		v.Set(KeyPerPage, strconv.Itoa(p.PerPage))
	}
	if p.Sort != "" {
		v.Set(KeySort, p.Sort)
	}
	if p.Order != "" {
		v.Set(KeyOrder, string(p.Order))
	}
	v.Set(KeyFilter, encodeFilter(p.Filter))
	return v.Encode()
}

// Location returns path with its query string replaced by the encoded params.
func Location(path string, p listparams.ListParams) listparams.Location {
	return listparams.Location{Pathname: path, Search: "?" + Encode(p)}
}

func encodeFilter(f listparams.Filter) string {
	if f == nil {
		return "{}"
	}
	b, err := json.Marshal(f)
	if err != nil {
		return "{}"
	}
	return string(b)
}
