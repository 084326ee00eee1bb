package listquery

import "listkeeper/internal/domain/listparams"

// ActionType names a parameter mutation
type ActionType string

const (
	SetFilter  ActionType = "SET_FILTER"
	SetPage    ActionType = "SET_PAGE"
	SetPerPage ActionType = "SET_PER_PAGE"
	SetSort    ActionType = "SET_SORT"
)

// Action is a mutation applied by Reduce. Only the member matching Type is read.
type Action struct {
	Type    ActionType        `json:"type"`
	Page    int               `json:"page,omitempty"`
	PerPage int               `json:"perPage,omitempty"`
	Sort    listparams.Sort   `json:"sort,omitempty"`
	Filter  listparams.Filter `json:"filter,omitempty"`
}

func PageAction(page int) Action { return Action{Type: SetPage, Page: page} }

func PerPageAction(perPage int) Action { return Action{Type: SetPerPage, PerPage: perPage} }

func SortAction(sort listparams.Sort) Action { return Action{Type: SetSort, Sort: sort} }

func FilterAction(filter listparams.Filter) Action { return Action{Type: SetFilter, Filter: filter} }

// Reduce computes the params that result from applying a to prev.
// Unknown action types leave prev unchanged.
func Reduce(prev listparams.ListParams, a Action) listparams.ListParams {
	next := prev.Clone()
	switch a.Type {
	case SetSort:
		if a.Sort.Field == prev.Sort {
			if a.Sort.Order != "" {
				next.Order = a.Sort.Order
			} else {
				next.Order = prev.Order.Opposite()
			}
		} else {
			next.Sort = a.Sort.Field
			next.Order = a.Sort.Order
			if next.Order == "" {
				next.Order = listparams.OrderAsc
			}
		}
		next.Page = 1
	case SetPage:
		next.Page = a.Page
	case SetPerPage:
		next.PerPage = a.PerPage
		next.Page = 1
	case SetFilter:
		next.Filter = RemoveEmpty(a.Filter)
		next.Page = 1
	}
	return next
}
