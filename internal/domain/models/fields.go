// internal/domain/models/fields.go
package models

import (
	"reflect"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Field decoding helpers. Documents arrive either from the in-memory store
// (plain Go values) or decoded from BSON (primitive.DateTime, primitive.A,
// int32), so each helper accepts both shapes.

func stringField(f map[string]any, key string) string {
	s, _ := f[key].(string)
	return s
}

func boolField(f map[string]any, key string) bool {
	b, _ := f[key].(bool)
	return b
}

func intField(f map[string]any, key string) (int, bool) {
	switch v := f[key].(type) {
	case int:
		return v, true
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func timeField(f map[string]any, key string) time.Time {
	switch v := f[key].(type) {
	case time.Time:
		return v
	case primitive.DateTime:
		return v.Time().UTC()
	case primitive.Timestamp:
		return time.Unix(int64(v.T), 0).UTC()
	default:
		return time.Time{}
	}
}

func stringsField(f map[string]any, key string) []string {
	switch v := f[key].(type) {
	case []string:
		out := make([]string, len(v))
		copy(out, v)
		return out
	case nil:
		return nil
	default:
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Slice {
			return nil
		}
		out := make([]string, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			if s, ok := rv.Index(i).Interface().(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
}
