package listquery

import (
	"strconv"
	"strings"

	"listkeeper/internal/domain/listparams"
)

const (
	DefaultPage    = 1
	DefaultPerPage = 10
)

// Input holds the three sources a list query is derived from.
type Input struct {
	Location            listparams.Location
	Params              *listparams.ListParams
	FilterDefaultValues listparams.Filter
	Sort                listparams.Sort
	PerPage             int
}

// HasCustomParams reports whether stored params carry something a user chose
// on an earlier visit. The filter must be non-nil even when other members are
// set: {sort: "x", filter: nil} is not custom.
func HasCustomParams(p *listparams.ListParams) bool {
	if p == nil || p.Filter == nil {
		return false
	}
	return len(p.Filter) > 0 ||
		p.Order != "" ||
		p.Page != 1 ||
		p.PerPage != 0 ||
		p.Sort != ""
}

// FromParams turns stored params into a Query. Zero members are absent.
func FromParams(p listparams.ListParams) Query {
	var q Query
	if p.Page != 0 {
		q.Set(KeyPage, strconv.Itoa(p.Page))
	}
	if p.PerPage != 0 {
		q.Set(KeyPerPage, strconv.Itoa(p.PerPage))
	}
	if p.Sort != "" {
		q.Set(KeySort, p.Sort)
	}
	if p.Order != "" {
		q.Set(KeyOrder, string(p.Order))
	}
	if p.Filter != nil {
		q.Filter = p.Filter.Clone()
		q.keys |= keyBit(KeyFilter)
	}
	return q
}

// GetQuery merges URL, stored and default params. A URL with any recognized
// key wins wholesale; otherwise custom stored params win; otherwise the
// default filter is used. Missing members are then filled from the defaults.
func GetQuery(in Input) listparams.ListParams {
	q := Extract(in.Location.Search)
	if q.Empty() {
		if HasCustomParams(in.Params) {
			q = FromParams(*in.Params)
		} else {
			q = Query{Filter: in.FilterDefaultValues.Clone()}
		}
	}

	if q.Sort == "" {
		q.Sort = in.Sort.Field
		q.Order = string(in.Sort.Order)
	}
	if q.PerPage == "" && in.PerPage > 0 {
		q.PerPage = strconv.Itoa(in.PerPage)
	}
	if q.Page == "" {
		q.Page = strconv.Itoa(DefaultPage)
	}

	order, ok := listparams.ParseOrder(q.Order)
	if !ok {
		order, ok = listparams.ParseOrder(string(in.Sort.Order))
		if !ok {
			order = listparams.OrderAsc
		}
	}

	filter := q.Filter
	if filter == nil {
		filter = listparams.Filter{}
	}

	return listparams.ListParams{
		Page:    NumberOrDefault(q.Page, DefaultPage),
		PerPage: NumberOrDefault(q.PerPage, DefaultPerPage),
		Sort:    q.Sort,
		Order:   order,
		Filter:  filter,
	}
}

// NumberOrDefault reads the leading integer of s, the way browsers parse
// "12abc" as 12. Missing, malformed or non-positive values yield def.
func NumberOrDefault(s string, def int) int {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return def
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil || n < 1 {
		return def
	}
	return n
}
