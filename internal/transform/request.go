package transform

import (
	"strings"

	"github.com/vyrodovalexey/paramgw/internal/constraint"
	"github.com/vyrodovalexey/paramgw/internal/payload"
	"github.com/vyrodovalexey/paramgw/internal/template"
)

// ResolveRequest builds the generated request map for doc from the actual
// request in dc. A fast-forward document returns the payload itself.
// Fields are resolved in template order and the first violation aborts the
// call.
func ResolveRequest(dc *DataContext, doc *template.Document) (*payload.Map, error) {
	if dc == nil {
		dc = &DataContext{}
	}
	if doc == nil {
		doc = &template.Document{}
	}

	if doc.FastForward {
		if dc.Payload == nil {
			return payload.New(0), nil
		}
		return dc.Payload, nil
	}

	r := &requestResolver{dc: dc}
	out := payload.New(len(doc.Fields))

	var data payload.Lookup
	if dc.Payload != nil {
		data = dc.Payload
	}
	if err := r.resolveFields(doc.Fields, data, out); err != nil {
		return nil, err
	}
	return out, nil
}

// requestResolver carries the ambient context through the recursion.
type requestResolver struct {
	dc *DataContext
}

func (r *requestResolver) resolveFields(fields []*template.Field, data payload.Lookup, out *payload.Map) error {
	for _, f := range fields {
		if err := r.resolveField(f, data, out); err != nil {
			return err
		}
	}
	return nil
}

//nolint:gocyclo // one case per field type
func (r *requestResolver) resolveField(f *template.Field, data payload.Lookup, out *payload.Map) error {
	key := f.LookupKey()

	switch f.Type {
	case template.TypeClientID:
		if f.Required && strings.TrimSpace(r.dc.ClientID) == "" {
			return newError(KindMissingRequired, key, "X-ClientId header is required")
		}
		out.Set(f.Name, ambient(r.dc.ClientID))
		return nil
	case template.TypeService:
		out.Set(f.Name, ambient(r.dc.Service))
		return nil
	case template.TypeOperation:
		out.Set(f.Name, ambient(r.dc.Operation))
		return nil
	case template.TypeVersion:
		out.Set(f.Name, ambient(r.dc.Version))
		return nil
	case template.TypeFixed:
		out.Set(f.Name, copyValue(f.FixedValue))
		return nil
	case template.TypeUnknown:
		return unknownType(f)
	}

	if f.Type.IsComposite() && f.Children == nil {
		return newError(KindTemplateError, key, "%s parameters must be list", key)
	}

	value, err := ResolveValue(f, key, data)
	if err != nil {
		return err
	}
	if value == nil {
		return nil
	}

	var converted interface{}
	switch f.Type {
	case template.TypeBoolean:
		converted = toBool(value)
	case template.TypeInt:
		converted, err = toInteger(f, key, value, true)
	case template.TypeLong:
		converted, err = toLong(f, key, value, true)
	case template.TypeDecimal:
		converted, err = toDecimal(f, key, value, true)
	case template.TypeOption:
		converted, err = checkOption(f, key, value)
	case template.TypeIntOption:
		converted, err = checkIntOption(f, key, value)
	case template.TypeString:
		converted, err = checkString(f, key, value)
	case template.TypeIntArray:
		converted, err = r.intArray(f, key, value)
	case template.TypeLongArray:
		converted, err = r.longArray(f, key, value)
	case template.TypeStringArray:
		converted, err = r.stringArray(f, key, value)
	case template.TypeObject:
		converted, err = r.object(f, key, value)
	case template.TypeObjectArray:
		converted, err = r.objectArray(f, key, value)
	default:
		return unknownType(f)
	}
	if err != nil {
		return err
	}

	out.Set(f.Name, converted)
	return nil
}

func checkSize(f *template.Field, key string, n int) error {
	if f.MaxSize != nil && constraint.ExceedsSize(n, *f.MaxSize) {
		return newError(KindSizeViolation, key, "%s array size must be under %d", key, *f.MaxSize)
	}
	return nil
}

func (r *requestResolver) intArray(f *template.Field, key string, value interface{}) ([]int, error) {
	elems := elementsOf(value)
	if err := checkSize(f, key, len(elems)); err != nil {
		return nil, err
	}

	out := make([]int, 0, len(elems))
	for _, e := range elems {
		text := textOf(e)
		if !constraint.IsInteger(text) {
			return nil, newError(KindTypeMismatch, key, "%s parameter should be numbers", key)
		}
		if err := checkElementRange(f, key, text); err != nil {
			return nil, err
		}
		n, _ := constraint.ParseInteger(text)
		out = append(out, n)
	}
	return out, nil
}

func (r *requestResolver) longArray(f *template.Field, key string, value interface{}) ([]int64, error) {
	elems := elementsOf(value)
	if err := checkSize(f, key, len(elems)); err != nil {
		return nil, err
	}

	out := make([]int64, 0, len(elems))
	for _, e := range elems {
		text := textOf(e)
		if !constraint.IsLong(text) {
			return nil, newError(KindTypeMismatch, key, "%s parameter should be numbers", key)
		}
		if err := checkElementRange(f, key, text); err != nil {
			return nil, err
		}
		n, _ := constraint.ParseLong(text)
		out = append(out, n)
	}
	return out, nil
}

// stringArray renders elements as text; null elements stay null and skip
// the pattern and length checks.
func (r *requestResolver) stringArray(f *template.Field, key string, value interface{}) ([]interface{}, error) {
	elems := elementsOf(value)
	if err := checkSize(f, key, len(elems)); err != nil {
		return nil, err
	}

	out := make([]interface{}, 0, len(elems))
	for _, e := range elems {
		if e == nil {
			out = append(out, nil)
			continue
		}
		text := textOf(e)
		if err := checkPattern(f, key, text, "all %s's must follow %s"); err != nil {
			return nil, err
		}
		if err := checkLength(f, key, text, "all "+key+"'s length"); err != nil {
			return nil, err
		}
		out = append(out, text)
	}
	return out, nil
}

func (r *requestResolver) object(f *template.Field, key string, value interface{}) (*payload.Map, error) {
	data, ok := payload.AsLookup(value)
	if !ok {
		return nil, newError(KindTypeMismatch, key, "%s parameter should be object", key)
	}

	out := payload.New(len(f.Children))
	if err := r.resolveFields(f.Children, data, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *requestResolver) objectArray(f *template.Field, key string, value interface{}) ([]interface{}, error) {
	elems := elementsOf(value)
	if err := checkSize(f, key, len(elems)); err != nil {
		return nil, err
	}

	out := make([]interface{}, 0, len(elems))
	for _, e := range elems {
		data, err := unwrapElement(f, key, e)
		if err != nil {
			return nil, err
		}

		generated := payload.New(len(f.Children))
		if err := r.resolveFields(f.Children, data, generated); err != nil {
			return nil, err
		}
		out = append(out, wrapElement(f, generated))
	}
	return out, nil
}

// unwrapElement returns the map an object-array element is resolved against.
// With a child name the element is a wrapper and the map sits under that key;
// a missing wrapper value resolves against an empty map.
func unwrapElement(f *template.Field, key string, element interface{}) (payload.Lookup, error) {
	data, ok := payload.AsLookup(element)
	if !ok {
		return nil, newError(KindTypeMismatch, key, "%s elements should be objects", key)
	}
	if f.ChildName == "" {
		return data, nil
	}

	inner, _ := data.Get(f.ChildName)
	if inner == nil {
		return payload.New(0), nil
	}
	innerData, ok := payload.AsLookup(inner)
	if !ok {
		return nil, newError(KindTypeMismatch, key, "%s.%s should be object", key, f.ChildName)
	}
	return innerData, nil
}

func wrapElement(f *template.Field, generated *payload.Map) *payload.Map {
	if f.ChildName == "" {
		return generated
	}
	wrapper := payload.New(1)
	wrapper.Set(f.ChildName, generated)
	return wrapper
}

func unknownType(f *template.Field) error {
	key := f.LookupKey()
	return newError(KindUnknownType, key, "%s unknown type %s", key, f.Label())
}
