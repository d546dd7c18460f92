package engine

import "reflect"

// matchesFilter reports whether props satisfies every key of filter by exact
// equality. An empty filter matches everything; callers that must reject it
// (deleteByFilter) validate before calling.
func matchesFilter(props, filter map[string]any) bool {
	for key, want := range filter {
		got, ok := props[key]
		if !ok {
			return false
		}
		if !equalValue(got, want) {
			return false
		}
	}
	return true
}

// equalValue compares two free-form property values. Numbers compare by
// value across int/float kinds so that a filter built from JSON (float64)
// still matches an int property.
func equalValue(a, b any) bool {
	if af, aok := asFloat64(a); aok {
		bf, bok := asFloat64(b)
		return bok && af == bf
	}

	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case nil:
		return b == nil
	default:
		return reflect.DeepEqual(a, b)
	}
}

func asFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
