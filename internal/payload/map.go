// Package payload provides the ordered mapping used for transport payloads
// and for the maps generated by the transformers.
package payload

import (
	"sort"
)

// Lookup is the read side shared by *Map and plain Go maps.
type Lookup interface {
	Get(key string) (interface{}, bool)
}

// Map is an ordered string-keyed mapping. Keys are unique; replacing the
// value of an existing key keeps its original position.
//
// A Map is not safe for concurrent mutation. Maps produced by the
// transformers are owned by the caller.
type Map struct {
	keys   []string
	values map[string]interface{}
}

// New creates an empty Map with room for size entries.
func New(size int) *Map {
	return &Map{
		keys:   make([]string, 0, size),
		values: make(map[string]interface{}, size),
	}
}

// FromMap builds a Map from a plain map. Keys are sorted so the result is
// deterministic. Nested plain maps are converted recursively.
func FromMap(m map[string]interface{}) *Map {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := New(len(keys))
	for _, k := range keys {
		out.Set(k, fromValue(m[k]))
	}
	return out
}

func fromValue(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		return FromMap(val)
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = fromValue(item)
		}
		return out
	default:
		return v
	}
}

// Set stores value under key.
func (m *Map) Set(key string, value interface{}) {
	if m.values == nil {
		m.values = make(map[string]interface{})
	}
	if _, exists := m.values[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Get returns the value stored under key.
func (m *Map) Get(key string) (interface{}, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m.values[key]
	return v, ok
}

// Has reports whether key is present.
func (m *Map) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Keys returns the keys in insertion order.
func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Len returns the number of entries.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Range calls fn for every entry in order until fn returns false.
func (m *Map) Range(fn func(key string, value interface{}) bool) {
	if m == nil {
		return
	}
	for _, k := range m.keys {
		if !fn(k, m.values[k]) {
			return
		}
	}
}

// ToMap converts the Map, and every nested Map, into plain Go maps.
func (m *Map) ToMap() map[string]interface{} {
	if m == nil {
		return nil
	}
	out := make(map[string]interface{}, len(m.keys))
	for _, k := range m.keys {
		out[k] = toPlain(m.values[k])
	}
	return out
}

func toPlain(v interface{}) interface{} {
	switch val := v.(type) {
	case *Map:
		return val.ToMap()
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = toPlain(item)
		}
		return out
	case []*Map:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = item.ToMap()
		}
		return out
	default:
		return v
	}
}

// PlainLookup adapts a plain Go map to Lookup.
type PlainLookup map[string]interface{}

// Get implements Lookup.
func (p PlainLookup) Get(key string) (interface{}, bool) {
	v, ok := p[key]
	return v, ok
}

// AsLookup returns a Lookup for v when v is a *Map or a plain map.
func AsLookup(v interface{}) (Lookup, bool) {
	switch val := v.(type) {
	case *Map:
		if val == nil {
			return nil, false
		}
		return val, true
	case map[string]interface{}:
		return PlainLookup(val), true
	case PlainLookup:
		return val, true
	default:
		return nil, false
	}
}
