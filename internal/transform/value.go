package transform

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vyrodovalexey/paramgw/internal/payload"
	"github.com/vyrodovalexey/paramgw/internal/template"
)

// ResolveValue looks key up in data and applies the required/default policy
// of field. Absent or blank values fail for required fields and fall back to
// the field default otherwise; a nil result means the field has no value.
// The found value is returned unconverted.
func ResolveValue(field *template.Field, key string, data payload.Lookup) (interface{}, error) {
	var value interface{}
	if data != nil {
		value, _ = data.Get(key)
	}

	if !isBlank(value) {
		return value, nil
	}
	if field.Required {
		return nil, newError(KindMissingRequired, key, "%s parameter should not be null/blank", key)
	}
	return field.Default, nil
}

// isBlank reports whether v is nil or a string of only whitespace.
func isBlank(v interface{}) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(val) == ""
	case json.Number:
		return strings.TrimSpace(string(val)) == ""
	case *payload.Map:
		return val == nil
	default:
		return false
	}
}

// textOf returns the canonical textual form of a scalar value.
func textOf(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case int64:
		return strconv.FormatInt(val, 10)
	case uint64:
		return strconv.FormatUint(val, 10)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case decimal.Decimal:
		return val.String()
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(v)
	}
}

// elementsOf treats v as a candidate collection: slices are taken element by
// element and anything else becomes a one-element collection.
func elementsOf(v interface{}) []interface{} {
	switch val := v.(type) {
	case []interface{}:
		return val
	case []string:
		out := make([]interface{}, len(val))
		for i, s := range val {
			out[i] = s
		}
		return out
	case []int:
		out := make([]interface{}, len(val))
		for i, n := range val {
			out[i] = n
		}
		return out
	case []int64:
		out := make([]interface{}, len(val))
		for i, n := range val {
			out[i] = n
		}
		return out
	case []float64:
		out := make([]interface{}, len(val))
		for i, n := range val {
			out[i] = n
		}
		return out
	case []*payload.Map:
		out := make([]interface{}, len(val))
		for i, m := range val {
			out[i] = m
		}
		return out
	case []map[string]interface{}:
		out := make([]interface{}, len(val))
		for i, m := range val {
			out[i] = m
		}
		return out
	default:
		return []interface{}{v}
	}
}

// copyValue returns v with nested maps and slices freshly allocated so the
// generated map never aliases caller-owned structures.
func copyValue(v interface{}) interface{} {
	switch val := v.(type) {
	case *payload.Map:
		if val == nil {
			return nil
		}
		out := payload.New(val.Len())
		val.Range(func(k string, item interface{}) bool {
			out.Set(k, copyValue(item))
			return true
		})
		return out
	case map[string]interface{}:
		return payload.FromMap(val)
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = copyValue(item)
		}
		return out
	default:
		return v
	}
}
