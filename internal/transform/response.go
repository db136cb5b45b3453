package transform

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/vyrodovalexey/paramgw/internal/payload"
	"github.com/vyrodovalexey/paramgw/internal/template"
)

// decimalZero is the zero-fill for decimal fields; it encodes as 0.0.
var decimalZero = decimal.New(0, -1)

// ResolveResponse builds the generated response map for doc from the actual
// response data. Absent values are filled with the zero value of their type
// instead of consulting defaults, and only shape problems fail the call.
func ResolveResponse(data *payload.Map, doc *template.Document) (*payload.Map, error) {
	if doc == nil {
		doc = &template.Document{}
	}

	if doc.FastForward {
		if data == nil {
			return payload.New(0), nil
		}
		return data, nil
	}

	out := payload.New(len(doc.Fields))
	var lookup payload.Lookup
	if data != nil {
		lookup = data
	}
	if err := resolveResponseFields(doc.Fields, lookup, out); err != nil {
		return nil, err
	}
	return out, nil
}

func resolveResponseFields(fields []*template.Field, data payload.Lookup, out *payload.Map) error {
	for _, f := range fields {
		if err := resolveResponseField(f, data, out); err != nil {
			return err
		}
	}
	return nil
}

//nolint:gocyclo // one case per field type
func resolveResponseField(f *template.Field, data payload.Lookup, out *payload.Map) error {
	key := f.LookupKey()

	if f.Type.IsComposite() && f.Children == nil {
		return newError(KindTemplateError, key, "%s parameters must be list", key)
	}

	var value interface{}
	if data != nil {
		value, _ = data.Get(key)
	}
	blank := isBlank(value)

	var (
		converted interface{}
		err       error
	)
	switch f.Type {
	case template.TypeBoolean:
		converted = !blank && toBool(value)
	case template.TypeInt:
		if blank {
			converted = 0
		} else {
			converted, err = toInteger(f, key, value, false)
		}
	case template.TypeLong:
		if blank {
			converted = int64(0)
		} else {
			converted, err = toLong(f, key, value, false)
		}
	case template.TypeDecimal:
		if blank {
			converted = decimalZero
		} else {
			converted, err = toDecimal(f, key, value, false)
		}
	case template.TypeString:
		converted, err = responseString(key, value)
	case template.TypeOption:
		converted, err = responseOption(f, key, value)
	case template.TypeIntOption:
		if value != nil {
			converted, err = checkIntOption(f, key, value)
		}
	case template.TypeFixed:
		converted = copyValue(f.FixedValue)
	case template.TypeIntArray:
		converted, err = responseIntArray(key, value)
	case template.TypeLongArray:
		converted, err = responseLongArray(key, value)
	case template.TypeStringArray:
		converted = responseStringArray(value)
	case template.TypeObject:
		converted, err = responseObject(f, key, value)
	case template.TypeObjectArray:
		converted, err = responseObjectArray(f, key, value)
	default:
		// Ambient types have no meaning in a response.
		return unknownType(f)
	}
	if err != nil {
		return err
	}

	out.Set(f.Name, converted)
	return nil
}

// responseString keeps nil as nil and renders everything else as text;
// nested structures are rendered as JSON.
func responseString(key string, value interface{}) (interface{}, error) {
	if value == nil {
		return nil, nil
	}
	if isScalar(value) {
		return textOf(value), nil
	}
	b, err := json.Marshal(value)
	if err != nil {
		return nil, &Error{Kind: KindTypeMismatch, Field: key, Message: key + " parameter should be string", Cause: err}
	}
	return string(b), nil
}

// responseOption passes nil through unchanged, even when the option set is
// empty; any other value must be a member of the option set.
func responseOption(f *template.Field, key string, value interface{}) (interface{}, error) {
	if value == nil {
		return nil, nil
	}
	return checkOption(f, key, value)
}

func responseIntArray(key string, value interface{}) ([]int, error) {
	if value == nil {
		return []int{}, nil
	}
	elems := elementsOf(value)
	out := make([]int, 0, len(elems))
	for _, e := range elems {
		n, err := toInteger(nil, key, e, false)
		if err != nil {
			return nil, newError(KindTypeMismatch, key, "%s parameter should be numbers", key)
		}
		out = append(out, n)
	}
	return out, nil
}

func responseLongArray(key string, value interface{}) ([]int64, error) {
	if value == nil {
		return []int64{}, nil
	}
	elems := elementsOf(value)
	out := make([]int64, 0, len(elems))
	for _, e := range elems {
		n, err := toLong(nil, key, e, false)
		if err != nil {
			return nil, newError(KindTypeMismatch, key, "%s parameter should be numbers", key)
		}
		out = append(out, n)
	}
	return out, nil
}

func responseStringArray(value interface{}) []string {
	if value == nil {
		return []string{}
	}
	elems := elementsOf(value)
	out := make([]string, 0, len(elems))
	for _, e := range elems {
		out = append(out, textOf(e))
	}
	return out
}

// responseObject recurses into the nested map; a missing object is resolved
// against an empty map so its children are zero-filled.
func responseObject(f *template.Field, key string, value interface{}) (*payload.Map, error) {
	var data payload.Lookup = payload.New(0)
	if value != nil {
		var ok bool
		if data, ok = payload.AsLookup(value); !ok {
			return nil, newError(KindTypeMismatch, key, "%s parameter should be object", key)
		}
	}

	out := payload.New(len(f.Children))
	if err := resolveResponseFields(f.Children, data, out); err != nil {
		return nil, err
	}
	return out, nil
}

func responseObjectArray(f *template.Field, key string, value interface{}) ([]interface{}, error) {
	if value == nil {
		return []interface{}{}, nil
	}

	elems := elementsOf(value)
	out := make([]interface{}, 0, len(elems))
	for _, e := range elems {
		data, err := unwrapElement(f, key, e)
		if err != nil {
			return nil, err
		}

		generated := payload.New(len(f.Children))
		if err := resolveResponseFields(f.Children, data, generated); err != nil {
			return nil, err
		}
		out = append(out, wrapElement(f, generated))
	}
	return out, nil
}
