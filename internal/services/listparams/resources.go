package listparams

import (
	"fmt"

	"listkeeper/internal/config"
	"listkeeper/internal/domain/listparams"
)

// ResourcesFromConfig validates configured resources and converts them into
// list defaults.
func ResourcesFromConfig(in map[string]config.ResourceCfg) (map[string]ResourceConfig, error) {
	out := make(map[string]ResourceConfig, len(in))
	for name, rc := range in {
		if name == "" {
			return nil, fmt.Errorf("%w: empty resource name", ErrInvalidArgument)
		}
		sort := listparams.Sort{Field: rc.Sort.Field, Order: listparams.OrderAsc}
		if rc.Sort.Order != "" {
			order, ok := listparams.ParseOrder(rc.Sort.Order)
			if !ok {
				return nil, fmt.Errorf("%w: resource %q has unknown sort order %q", ErrInvalidArgument, name, rc.Sort.Order)
			}
			sort.Order = order
		}
		out[name] = ResourceConfig{
			Sort:                sort,
			PerPage:             rc.PerPage,
			FilterDefaultValues: listparams.Filter(rc.FilterDefaultValues),
		}
	}
	return out, nil
}
