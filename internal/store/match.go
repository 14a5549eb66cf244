package store

import (
	"reflect"
	"time"

	"diabeater-console/pkg/models"
)

// Match evaluates filters against a decoded record the way Firestore does for
// the supported operators. A missing field never matches, not even "!=".
func Match(data models.Record, filters ...Filter) bool {
	for _, f := range filters {
		if !matchOne(data, f) {
			return false
		}
	}
	return true
}

func matchOne(data models.Record, f Filter) bool {
	v, ok := data[f.Field]
	if !ok {
		return false
	}
	switch f.Op {
	case OpEqual:
		return equalValues(v, f.Value)
	case OpNotEqual:
		return v != nil && !equalValues(v, f.Value)
	case OpIn:
		for _, candidate := range asList(f.Value) {
			if equalValues(v, candidate) {
				return true
			}
		}
		return false
	case OpArrayContains:
		for _, item := range asList(v) {
			if equalValues(item, f.Value) {
				return true
			}
		}
		return false
	}
	return false
}

func asList(v interface{}) []interface{} {
	if v == nil {
		return nil
	}
	if list, ok := v.([]interface{}); ok {
		return list
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil
	}
	out := make([]interface{}, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}

func equalValues(a, b interface{}) bool {
	return reflect.DeepEqual(normalize(a), normalize(b))
}

// normalize folds the representations a value can take after a JSON round
// trip: every number becomes float64 and timestamps become RFC 3339 strings.
func normalize(v interface{}) interface{} {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case uint:
		return float64(n)
	case uint32:
		return float64(n)
	case uint64:
		return float64(n)
	case float32:
		return float64(n)
	case time.Time:
		return n.UTC().Format(time.RFC3339Nano)
	case *time.Time:
		if n == nil {
			return nil
		}
		return n.UTC().Format(time.RFC3339Nano)
	}
	return v
}
