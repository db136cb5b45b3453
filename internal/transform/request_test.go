package transform

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/paramgw/internal/payload"
	"github.com/vyrodovalexey/paramgw/internal/template"
)

func requestContext(data map[string]interface{}) *DataContext {
	return NewDataContext(payload.FromMap(data))
}

func document(fields ...*template.Field) *template.Document {
	return &template.Document{Fields: fields}
}

func requireKind(t *testing.T, err error, kind Kind) *Error {
	t.Helper()
	var e *Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, kind, e.Kind)
	return e
}

func TestResolveRequest_FastForward(t *testing.T) {
	dc := requestContext(map[string]interface{}{"anything": "goes", "id": "not-a-number"})
	doc := &template.Document{
		FastForward: true,
		Fields:      []*template.Field{{Name: "id", Type: template.TypeInt, Required: true}},
	}

	out, err := ResolveRequest(dc, doc)
	require.NoError(t, err)
	assert.Same(t, dc.Payload, out)

	out, err = ResolveRequest(&DataContext{}, doc)
	require.NoError(t, err)
	assert.Equal(t, 0, out.Len())
}

func TestResolveRequest_NilArguments(t *testing.T) {
	out, err := ResolveRequest(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, out.Len())
}

func TestResolveRequest_Int(t *testing.T) {
	field := &template.Field{
		Name:     "id",
		Type:     template.TypeInt,
		MinValue: template.Bound("1"),
		MaxValue: template.Bound("10"),
	}

	tests := []struct {
		name    string
		value   interface{}
		want    interface{}
		kind    Kind
		message string
	}{
		{name: "string", value: "7", want: 7},
		{name: "json number", value: json.Number("10"), want: 10},
		{name: "native int", value: 1, want: 1},
		{name: "padded", value: " 5 ", want: 5},
		{name: "above max", value: "11", kind: KindRangeViolation, message: "id must be under 10"},
		{name: "below min", value: "0", kind: KindRangeViolation, message: "id must be over 1"},
		{name: "not a number", value: "abc", kind: KindTypeMismatch, message: "id parameter should be number"},
		{name: "fraction", value: "1.5", kind: KindTypeMismatch},
		{name: "overflows 32 bits", value: "3000000000", kind: KindTypeMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := ResolveRequest(requestContext(map[string]interface{}{"id": tt.value}), document(field))
			if tt.kind != "" {
				e := requireKind(t, err, tt.kind)
				assert.Equal(t, "id", e.Field)
				if tt.message != "" {
					assert.Equal(t, tt.message, e.Error())
				}
				assert.Nil(t, out)
				return
			}
			require.NoError(t, err)
			v, _ := out.Get("id")
			assert.Equal(t, tt.want, v)
		})
	}
}

func TestResolveRequest_Long(t *testing.T) {
	field := &template.Field{Name: "n", Type: template.TypeLong, MaxValue: template.Bound("9223372036854775807")}

	out, err := ResolveRequest(requestContext(map[string]interface{}{"n": "9223372036854775807"}), document(field))
	require.NoError(t, err)
	v, _ := out.Get("n")
	assert.Equal(t, int64(9223372036854775807), v)

	_, err = ResolveRequest(requestContext(map[string]interface{}{"n": "9223372036854775808"}), document(field))
	requireKind(t, err, KindTypeMismatch)
}

func TestResolveRequest_Decimal(t *testing.T) {
	field := &template.Field{
		Name:     "amount",
		Type:     template.TypeDecimal,
		Pattern:  `\d+\.\d{2}`,
		MinValue: template.Bound("0.01"),
		MaxValue: template.Bound("99.99"),
	}

	out, err := ResolveRequest(requestContext(map[string]interface{}{"amount": "12.50"}), document(field))
	require.NoError(t, err)
	v, _ := out.Get("amount")
	d, ok := v.(decimal.Decimal)
	require.True(t, ok)
	assert.True(t, d.Equal(decimal.RequireFromString("12.5")))

	_, err = ResolveRequest(requestContext(map[string]interface{}{"amount": "12.5"}), document(field))
	e := requireKind(t, err, KindPatternViolation)
	assert.Equal(t, `amount must follow \d+\.\d{2}`, e.Error())

	_, err = ResolveRequest(requestContext(map[string]interface{}{"amount": "100.00"}), document(field))
	e = requireKind(t, err, KindRangeViolation)
	assert.Equal(t, "amount must be under 99.99", e.Error())

	_, err = ResolveRequest(requestContext(map[string]interface{}{"amount": "0.00"}), document(field))
	e = requireKind(t, err, KindRangeViolation)
	assert.Equal(t, "amount must be over 0.01", e.Error())

	_, err = ResolveRequest(requestContext(map[string]interface{}{"amount": "ten"}), document(field))
	requireKind(t, err, KindTypeMismatch)
}

func TestResolveRequest_DecimalBoundsAreExact(t *testing.T) {
	field := &template.Field{Name: "x", Type: template.TypeDecimal, MaxValue: template.Bound("0.3")}

	// 0.1 + 0.2 style inputs must not drift past the bound.
	out, err := ResolveRequest(requestContext(map[string]interface{}{"x": "0.30000000000000000"}), document(field))
	require.NoError(t, err)
	assert.True(t, out.Has("x"))

	_, err = ResolveRequest(requestContext(map[string]interface{}{"x": "0.30000000000000001"}), document(field))
	requireKind(t, err, KindRangeViolation)
}

func TestResolveRequest_Boolean(t *testing.T) {
	field := &template.Field{Name: "flag", Type: template.TypeBoolean}

	tests := []struct {
		value interface{}
		want  bool
	}{
		{"true", true},
		{"TRUE", true},
		{true, true},
		{"1", true},
		{json.Number("2"), true},
		{"0", false},
		{"-3", false},
		{"yes", false},
		{false, false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.value), func(t *testing.T) {
			out, err := ResolveRequest(requestContext(map[string]interface{}{"flag": tt.value}), document(field))
			require.NoError(t, err)
			v, _ := out.Get("flag")
			assert.Equal(t, tt.want, v)
		})
	}

	out, err := ResolveRequest(requestContext(nil), document(field))
	require.NoError(t, err)
	assert.False(t, out.Has("flag"))
}

func TestResolveRequest_RequiredAndDefault(t *testing.T) {
	required := &template.Field{Name: "id", Type: template.TypeInt, Required: true}
	withDefault := &template.Field{Name: "size", Type: template.TypeInt, Default: 5}
	optional := &template.Field{Name: "note", Type: template.TypeString}

	for _, value := range []interface{}{nil, "", "   "} {
		_, err := ResolveRequest(requestContext(map[string]interface{}{"id": value}), document(required))
		e := requireKind(t, err, KindMissingRequired)
		assert.Equal(t, "id parameter should not be null/blank", e.Error())
		assert.True(t, errors.Is(err, ErrMissingRequired))
	}

	out, err := ResolveRequest(requestContext(map[string]interface{}{"size": ""}), document(withDefault, optional))
	require.NoError(t, err)
	v, _ := out.Get("size")
	assert.Equal(t, 5, v)
	assert.False(t, out.Has("note"))
	assert.Equal(t, []string{"size"}, out.Keys())
}

func TestResolveRequest_DefaultIsConverted(t *testing.T) {
	field := &template.Field{Name: "size", Type: template.TypeInt, Default: "42", MaxValue: template.Bound("10")}

	_, err := ResolveRequest(requestContext(nil), document(field))
	requireKind(t, err, KindRangeViolation)
}

func TestResolveRequest_SourceAlias(t *testing.T) {
	field := &template.Field{Name: "id", Source: "userId", Type: template.TypeInt, Required: true}

	out, err := ResolveRequest(requestContext(map[string]interface{}{"userId": "3", "id": "4"}), document(field))
	require.NoError(t, err)
	v, _ := out.Get("id")
	assert.Equal(t, 3, v)

	_, err = ResolveRequest(requestContext(map[string]interface{}{"id": "4"}), document(field))
	e := requireKind(t, err, KindMissingRequired)
	assert.Equal(t, "userId", e.Field)
}

func TestResolveRequest_String(t *testing.T) {
	pattern := &template.Field{Name: "code", Type: template.TypeString, Pattern: "^[A-Z]{3}$"}
	length := &template.Field{
		Name:      "name",
		Type:      template.TypeString,
		MinLength: template.Size(2),
		MaxLength: template.Size(4),
	}

	tests := []struct {
		name  string
		field *template.Field
		value interface{}
		want  interface{}
		kind  Kind
		msg   string
	}{
		{name: "pattern match", field: pattern, value: "ABC", want: "ABC"},
		{name: "pattern too long", field: pattern, value: "abcd", kind: KindPatternViolation, msg: "code must follow ^[A-Z]{3}$"},
		{name: "pattern too short", field: pattern, value: "AB", kind: KindPatternViolation},
		{name: "length ok", field: length, value: "äöü", want: "äöü"},
		{name: "length inclusive max", field: length, value: "abcd", want: "abcd"},
		{name: "too long", field: length, value: "abcde", kind: KindLengthViolation, msg: "name length must be under 4"},
		{name: "too short", field: length, value: "a", kind: KindLengthViolation, msg: "name length must be over 2"},
		{name: "number keeps its type", field: length, value: json.Number("123"), want: json.Number("123")},
		{name: "number checked as text", field: length, value: json.Number("12345"), kind: KindLengthViolation},
		{name: "object", field: length, value: map[string]interface{}{"a": 1}, kind: KindTypeMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := ResolveRequest(requestContext(map[string]interface{}{tt.field.Name: tt.value}), document(tt.field))
			if tt.kind != "" {
				e := requireKind(t, err, tt.kind)
				if tt.msg != "" {
					assert.Equal(t, tt.msg, e.Error())
				}
				return
			}
			require.NoError(t, err)
			v, _ := out.Get(tt.field.Name)
			assert.Equal(t, tt.want, v)
		})
	}
}

func TestResolveRequest_InvalidPatternIsTemplateError(t *testing.T) {
	field := &template.Field{Name: "code", Type: template.TypeString, Pattern: "[oops"}

	_, err := ResolveRequest(requestContext(map[string]interface{}{"code": "x"}), document(field))
	requireKind(t, err, KindTemplateError)
	assert.True(t, IsTemplateFault(err))
}

func TestResolveRequest_Option(t *testing.T) {
	field := &template.Field{Name: "kind", Type: template.TypeOption, Options: []interface{}{"A", "B"}}

	out, err := ResolveRequest(requestContext(map[string]interface{}{"kind": "A"}), document(field))
	require.NoError(t, err)
	v, _ := out.Get("kind")
	assert.Equal(t, "A", v)

	_, err = ResolveRequest(requestContext(map[string]interface{}{"kind": "C"}), document(field))
	e := requireKind(t, err, KindInvalidOption)
	assert.Equal(t, "set kind from A,B", e.Error())
	assert.ErrorIs(t, err, ErrInvalidOption)

	empty := &template.Field{Name: "kind", Type: template.TypeOption}
	_, err = ResolveRequest(requestContext(map[string]interface{}{"kind": "A"}), document(empty))
	e = requireKind(t, err, KindTemplateError)
	assert.Equal(t, "kind options should not be null/blank", e.Error())

	// An absent optional value is not checked against the set.
	out, err = ResolveRequest(requestContext(nil), document(empty))
	require.NoError(t, err)
	assert.False(t, out.Has("kind"))
}

func TestResolveRequest_IntOption(t *testing.T) {
	field := &template.Field{Name: "level", Type: template.TypeIntOption, Options: []interface{}{1, "2", 3}}

	out, err := ResolveRequest(requestContext(map[string]interface{}{"level": "2"}), document(field))
	require.NoError(t, err)
	v, _ := out.Get("level")
	assert.Equal(t, 2, v)

	_, err = ResolveRequest(requestContext(map[string]interface{}{"level": "5"}), document(field))
	requireKind(t, err, KindInvalidOption)

	_, err = ResolveRequest(requestContext(map[string]interface{}{"level": "two"}), document(field))
	requireKind(t, err, KindTypeMismatch)
}

func TestResolveRequest_Fixed(t *testing.T) {
	fixedMap := map[string]interface{}{"region": "eu"}
	fields := document(
		&template.Field{Name: "channel", Type: template.TypeFixed, FixedValue: "web"},
		&template.Field{Name: "meta", Type: template.TypeFixed, FixedValue: fixedMap},
	)

	out, err := ResolveRequest(requestContext(map[string]interface{}{"channel": "mobile"}), fields)
	require.NoError(t, err)
	v, _ := out.Get("channel")
	assert.Equal(t, "web", v)

	meta, _ := out.Get("meta")
	m, ok := meta.(*payload.Map)
	require.True(t, ok)
	m.Set("region", "us")
	assert.Equal(t, "eu", fixedMap["region"])
}

func TestResolveRequest_IntArray(t *testing.T) {
	field := &template.Field{
		Name:     "ids",
		Type:     template.TypeIntArray,
		MaxSize:  template.Size(3),
		MinValue: template.Bound("1"),
		MaxValue: template.Bound("100"),
	}

	tests := []struct {
		name  string
		value interface{}
		want  []int
		kind  Kind
		msg   string
	}{
		{name: "list", value: []interface{}{"1", 2, json.Number("3")}, want: []int{1, 2, 3}},
		{name: "scalar", value: "7", want: []int{7}},
		{name: "native", value: []int{4, 5}, want: []int{4, 5}},
		{name: "too many", value: []interface{}{1, 2, 3, 4}, kind: KindSizeViolation, msg: "ids array size must be under 3"},
		{name: "not numbers", value: []interface{}{"1", "x"}, kind: KindTypeMismatch, msg: "ids parameter should be numbers"},
		{name: "element above", value: []interface{}{1, 101}, kind: KindRangeViolation, msg: "all ids's must be under 100"},
		{name: "element below", value: []interface{}{0}, kind: KindRangeViolation, msg: "all ids's must be over 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := ResolveRequest(requestContext(map[string]interface{}{"ids": tt.value}), document(field))
			if tt.kind != "" {
				e := requireKind(t, err, tt.kind)
				assert.Equal(t, tt.msg, e.Error())
				return
			}
			require.NoError(t, err)
			v, _ := out.Get("ids")
			assert.Equal(t, tt.want, v)
		})
	}
}

func TestResolveRequest_LongArray(t *testing.T) {
	field := &template.Field{Name: "ids", Type: template.TypeLongArray}

	out, err := ResolveRequest(requestContext(map[string]interface{}{"ids": []interface{}{"5000000000", 1}}), document(field))
	require.NoError(t, err)
	v, _ := out.Get("ids")
	assert.Equal(t, []int64{5000000000, 1}, v)

	_, err = ResolveRequest(requestContext(map[string]interface{}{"ids": []interface{}{"1.5"}}), document(field))
	requireKind(t, err, KindTypeMismatch)
}

func TestResolveRequest_StringArray(t *testing.T) {
	field := &template.Field{
		Name:      "tags",
		Type:      template.TypeStringArray,
		Pattern:   "[a-z]+",
		MaxLength: template.Size(5),
		MaxSize:   template.Size(3),
	}

	out, err := ResolveRequest(requestContext(map[string]interface{}{"tags": []string{"ab", "", "cd"}}), document(field))
	require.NoError(t, err)
	v, _ := out.Get("tags")
	assert.Equal(t, []interface{}{"ab", "", "cd"}, v)

	out, err = ResolveRequest(requestContext(map[string]interface{}{"tags": "solo"}), document(field))
	require.NoError(t, err)
	v, _ = out.Get("tags")
	assert.Equal(t, []interface{}{"solo"}, v)

	out, err = ResolveRequest(requestContext(map[string]interface{}{"tags": []interface{}{"a", nil}}), document(field))
	require.NoError(t, err, "null elements skip pattern and length checks")
	v, _ = out.Get("tags")
	assert.Equal(t, []interface{}{"a", nil}, v)

	_, err = ResolveRequest(requestContext(map[string]interface{}{"tags": []interface{}{"ok", "A1"}}), document(field))
	e := requireKind(t, err, KindPatternViolation)
	assert.Equal(t, "all tags's must follow [a-z]+", e.Error())

	_, err = ResolveRequest(requestContext(map[string]interface{}{"tags": []interface{}{"toolong"}}), document(field))
	e = requireKind(t, err, KindLengthViolation)
	assert.Equal(t, "all tags's length must be under 5", e.Error())

	_, err = ResolveRequest(requestContext(map[string]interface{}{"tags": []interface{}{"a", "b", "c", "d"}}), document(field))
	requireKind(t, err, KindSizeViolation)
}

func TestResolveRequest_Object(t *testing.T) {
	field := &template.Field{
		Name: "user",
		Type: template.TypeObject,
		Children: []*template.Field{
			{Name: "id", Type: template.TypeInt, Required: true},
			{Name: "nick", Type: template.TypeString},
		},
	}

	out, err := ResolveRequest(requestContext(map[string]interface{}{
		"user": map[string]interface{}{"id": "9", "nick": "neo", "extra": true},
	}), document(field))
	require.NoError(t, err)

	user, _ := out.Get("user")
	m, ok := user.(*payload.Map)
	require.True(t, ok)
	assert.Equal(t, []string{"id", "nick"}, m.Keys())
	id, _ := m.Get("id")
	assert.Equal(t, 9, id)

	_, err = ResolveRequest(requestContext(map[string]interface{}{
		"user": map[string]interface{}{"nick": "neo"},
	}), document(field))
	e := requireKind(t, err, KindMissingRequired)
	assert.Equal(t, "id", e.Field)

	_, err = ResolveRequest(requestContext(map[string]interface{}{"user": "neo"}), document(field))
	requireKind(t, err, KindTypeMismatch)

	out, err = ResolveRequest(requestContext(nil), document(field))
	require.NoError(t, err)
	assert.False(t, out.Has("user"))
}

func TestResolveRequest_ChildrenNotList(t *testing.T) {
	for _, ft := range []template.FieldType{template.TypeObject, template.TypeObjectArray} {
		t.Run(ft.String(), func(t *testing.T) {
			field := &template.Field{Name: "x", Type: ft}
			_, err := ResolveRequest(requestContext(nil), document(field))
			e := requireKind(t, err, KindTemplateError)
			assert.Equal(t, "x parameters must be list", e.Error())
		})
	}

	empty := &template.Field{Name: "x", Type: template.TypeObject, Children: []*template.Field{}}
	out, err := ResolveRequest(requestContext(map[string]interface{}{"x": map[string]interface{}{"a": 1}}), document(empty))
	require.NoError(t, err)
	x, _ := out.Get("x")
	assert.Equal(t, 0, x.(*payload.Map).Len())
}

func TestResolveRequest_ObjectArray(t *testing.T) {
	children := []*template.Field{
		{Name: "sku", Type: template.TypeString, Default: "none"},
		{Name: "qty", Type: template.TypeInt, Default: 1},
	}

	t.Run("direct elements", func(t *testing.T) {
		field := &template.Field{Name: "items", Type: template.TypeObjectArray, Children: children}
		out, err := ResolveRequest(requestContext(map[string]interface{}{
			"items": []interface{}{
				map[string]interface{}{"sku": "a", "qty": "2"},
				map[string]interface{}{"sku": "b"},
			},
		}), document(field))
		require.NoError(t, err)

		items, _ := out.Get("items")
		list, ok := items.([]interface{})
		require.True(t, ok)
		require.Len(t, list, 2)
		assert.Equal(t, map[string]interface{}{"sku": "a", "qty": 2}, list[0].(*payload.Map).ToMap())
		assert.Equal(t, map[string]interface{}{"sku": "b", "qty": 1}, list[1].(*payload.Map).ToMap())
	})

	t.Run("wrapped elements", func(t *testing.T) {
		field := &template.Field{Name: "items", Type: template.TypeObjectArray, ChildName: "item", Children: children}
		out, err := ResolveRequest(requestContext(map[string]interface{}{
			"items": []interface{}{
				map[string]interface{}{"item": map[string]interface{}{"sku": "a"}},
				map[string]interface{}{"other": 1},
			},
		}), document(field))
		require.NoError(t, err)

		items, _ := out.Get("items")
		list := items.([]interface{})
		require.Len(t, list, 2)
		assert.Equal(t, map[string]interface{}{"item": map[string]interface{}{"sku": "a", "qty": 1}},
			list[0].(*payload.Map).ToMap())
		assert.Equal(t, map[string]interface{}{"item": map[string]interface{}{"sku": "none", "qty": 1}},
			list[1].(*payload.Map).ToMap())
	})

	t.Run("element not an object", func(t *testing.T) {
		field := &template.Field{Name: "items", Type: template.TypeObjectArray, Children: children}
		_, err := ResolveRequest(requestContext(map[string]interface{}{"items": []interface{}{"x"}}), document(field))
		requireKind(t, err, KindTypeMismatch)
	})

	t.Run("size cap", func(t *testing.T) {
		field := &template.Field{Name: "items", Type: template.TypeObjectArray, Children: children, MaxSize: template.Size(1)}
		_, err := ResolveRequest(requestContext(map[string]interface{}{
			"items": []interface{}{map[string]interface{}{}, map[string]interface{}{}},
		}), document(field))
		requireKind(t, err, KindSizeViolation)
	})

	t.Run("nested failure aborts", func(t *testing.T) {
		strict := []*template.Field{{Name: "qty", Type: template.TypeInt, Required: true}}
		field := &template.Field{Name: "items", Type: template.TypeObjectArray, Children: strict}
		_, err := ResolveRequest(requestContext(map[string]interface{}{
			"items": []interface{}{map[string]interface{}{"qty": 1}, map[string]interface{}{}},
		}), document(field))
		requireKind(t, err, KindMissingRequired)
	})
}

func TestResolveRequest_Ambient(t *testing.T) {
	doc := document(
		&template.Field{Name: "cid", Type: template.TypeClientID, Required: true, Source: "ignored"},
		&template.Field{Name: "svc", Type: template.TypeService, Required: true},
		&template.Field{Name: "op", Type: template.TypeOperation},
		&template.Field{Name: "ver", Type: template.TypeVersion},
	)

	dc := requestContext(map[string]interface{}{"ignored": "body-client", "svc": "body-service"})
	dc.ClientID = "client-1"
	dc.Operation = "create"

	out, err := ResolveRequest(dc, doc)
	require.NoError(t, err)
	cid, _ := out.Get("cid")
	assert.Equal(t, "client-1", cid)
	svc, ok := out.Get("svc")
	assert.True(t, ok)
	assert.Nil(t, svc)
	op, _ := out.Get("op")
	assert.Equal(t, "create", op)
	assert.Equal(t, []string{"cid", "svc", "op", "ver"}, out.Keys())

	dc.ClientID = "  "
	_, err = ResolveRequest(dc, doc)
	e := requireKind(t, err, KindMissingRequired)
	assert.Equal(t, "X-ClientId header is required", e.Error())
}

func TestResolveRequest_UnknownType(t *testing.T) {
	field := &template.Field{Name: "x", Type: template.TypeUnknown, TypeLabel: "frobnicate"}

	_, err := ResolveRequest(requestContext(map[string]interface{}{"x": 1}), document(field))
	e := requireKind(t, err, KindUnknownType)
	assert.Equal(t, "x unknown type frobnicate", e.Error())
	assert.True(t, IsTemplateFault(err))
}

func TestResolveRequest_FirstViolationWins(t *testing.T) {
	doc := document(
		&template.Field{Name: "a", Type: template.TypeString},
		&template.Field{Name: "b", Type: template.TypeInt, Required: true},
		&template.Field{Name: "c", Type: template.TypeInt},
	)

	_, err := ResolveRequest(requestContext(map[string]interface{}{"a": "ok", "c": "bad"}), doc)
	e := requireKind(t, err, KindMissingRequired)
	assert.Equal(t, "b", e.Field)
}

func TestResolveRequest_TemplateOrder(t *testing.T) {
	doc := document(
		&template.Field{Name: "z", Type: template.TypeFixed, FixedValue: 1},
		&template.Field{Name: "a", Type: template.TypeFixed, FixedValue: 2},
		&template.Field{Name: "m", Type: template.TypeFixed, FixedValue: 3},
	)

	out, err := ResolveRequest(requestContext(nil), doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"z", "a", "m"}, out.Keys())
}

func TestResolveRequest_DoesNotAliasInput(t *testing.T) {
	field := &template.Field{
		Name:     "user",
		Type:     template.TypeObject,
		Children: []*template.Field{{Name: "nick", Type: template.TypeString}},
	}
	dc := requestContext(map[string]interface{}{"user": map[string]interface{}{"nick": "neo"}})

	out, err := ResolveRequest(dc, document(field))
	require.NoError(t, err)

	generated, _ := out.Get("user")
	generated.(*payload.Map).Set("nick", "trinity")

	input, _ := dc.Payload.Get("user")
	nick, _ := input.(*payload.Map).Get("nick")
	assert.Equal(t, "neo", nick)
}

func TestResolveRequest_ConcurrentSharedDocument(t *testing.T) {
	doc := document(
		&template.Field{Name: "id", Type: template.TypeInt, Required: true, MaxValue: template.Bound("1000")},
		&template.Field{
			Name: "items",
			Type: template.TypeObjectArray,
			Children: []*template.Field{
				{Name: "n", Type: template.TypeInt},
			},
		},
	)

	const workers = 32
	var wg sync.WaitGroup
	errs := make([]error, workers)
	results := make([]*payload.Map, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			dc := requestContext(map[string]interface{}{
				"id":    i,
				"items": []interface{}{map[string]interface{}{"n": i}},
			})
			results[i], errs[i] = ResolveRequest(dc, doc)
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		id, _ := results[i].Get("id")
		assert.Equal(t, i, id)
		items, _ := results[i].Get("items")
		n, _ := items.([]interface{})[0].(*payload.Map).Get("n")
		assert.Equal(t, i, n)
	}
}
