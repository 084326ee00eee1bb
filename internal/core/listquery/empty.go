package listquery

import (
	"bytes"
	"encoding/json"
	"reflect"

	"listkeeper/internal/domain/listparams"
)

// RemoveEmpty strips empty values from a filter, descending into nested
// objects. A nested object left empty by the strip is dropped too.
func RemoveEmpty(f listparams.Filter) listparams.Filter {
	out := make(listparams.Filter, len(f))
	for k, v := range f {
		if nested, ok := asObject(v); ok {
			v = map[string]any(RemoveEmpty(nested))
		}
		if isEmpty(v) {
			continue
		}
		out[k] = v
	}
	return out
}

func asObject(v any) (listparams.Filter, bool) {
	switch t := v.(type) {
	case map[string]any:
		return listparams.Filter(t), true
	case listparams.Filter:
		return t, true
	default:
		return nil, false
	}
}

// isEmpty matches "", nil, and zero-length arrays and objects.
func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map:
		return rv.IsNil() || rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// Equal reports whether two filters hold the same JSON document. Numbers
// compare by value regardless of Go type, and nil equals an empty filter.
func Equal(a, b listparams.Filter) bool {
	return bytes.Equal(canonical(a), canonical(b))
}

func canonical(f listparams.Filter) []byte {
	if len(f) == 0 {
		return []byte("{}")
	}
	raw, err := json.Marshal(f)
	if err != nil {
		return nil
	}
	// a second pass normalizes int/float and struct/map differences
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return raw
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return raw
	}
	return out
}
