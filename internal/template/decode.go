package template

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// ErrNotList indicates that a parameters attribute is not a list.
var ErrNotList = errors.New("parameters must be a list")

// Parse decodes a Definition from YAML or JSON (JSON is read as YAML).
func Parse(data []byte) (*Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}
	return &def, nil
}

// ParseDocument decodes a single Document from YAML or JSON.
func ParseDocument(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse template document: %w", err)
	}
	return &doc, nil
}

type rawDefinition struct {
	Name     string    `yaml:"name"`
	Request  *Document `yaml:"request"`
	Response *Document `yaml:"response"`
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Definition) UnmarshalYAML(value *yaml.Node) error {
	var raw rawDefinition
	if err := value.Decode(&raw); err != nil {
		return err
	}
	d.Name = raw.Name
	d.Request = raw.Request
	d.Response = raw.Response
	return nil
}

type rawDocument struct {
	FastForward      *bool     `yaml:"fastForward"`
	FastForwardLower *bool     `yaml:"fastforward"`
	Parameters       yaml.Node `yaml:"parameters"`
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Document) UnmarshalYAML(value *yaml.Node) error {
	var raw rawDocument
	if err := value.Decode(&raw); err != nil {
		return err
	}

	switch {
	case raw.FastForward != nil:
		d.FastForward = *raw.FastForward
	case raw.FastForwardLower != nil:
		d.FastForward = *raw.FastForwardLower
	}

	fields, ok, err := decodeFields(&raw.Parameters)
	if err != nil {
		return err
	}
	if !ok && raw.Parameters.Kind != 0 {
		return fmt.Errorf("line %d: document %w", raw.Parameters.Line, ErrNotList)
	}
	d.Fields = fields
	return nil
}

// decodeFields decodes a parameters node. ok is false when the node is
// absent or not a sequence.
func decodeFields(node *yaml.Node) ([]*Field, bool, error) {
	if node.Kind != yaml.SequenceNode {
		return nil, false, nil
	}
	fields := make([]*Field, 0, len(node.Content))
	for _, item := range node.Content {
		var f Field
		if err := item.Decode(&f); err != nil {
			return nil, false, err
		}
		fields = append(fields, &f)
	}
	return fields, true, nil
}

type rawField struct {
	Name       string        `yaml:"name"`
	Type       string        `yaml:"type"`
	Source     string        `yaml:"source"`
	Required   yaml.Node     `yaml:"required"`
	Default    interface{}   `yaml:"default"`
	MinValue   yaml.Node     `yaml:"minValue"`
	MaxValue   yaml.Node     `yaml:"maxValue"`
	MinLength  *int          `yaml:"minLength"`
	MaxLength  *int          `yaml:"maxLength"`
	MaxSize    *int          `yaml:"maxSize"`
	Pattern    string        `yaml:"pattern"`
	Option     []interface{} `yaml:"option"`
	Options    []interface{} `yaml:"options"`
	Value      interface{}   `yaml:"value"`
	ChildName  string        `yaml:"childName"`
	Parameters yaml.Node     `yaml:"parameters"`
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (f *Field) UnmarshalYAML(value *yaml.Node) error {
	var raw rawField
	if err := value.Decode(&raw); err != nil {
		return err
	}
	if raw.Name == "" {
		return fmt.Errorf("line %d: field name is required", value.Line)
	}

	f.Name = raw.Name
	f.TypeLabel = raw.Type
	f.Type = ParseFieldType(raw.Type)
	f.Source = raw.Source
	f.Required = isTrue(&raw.Required)
	f.Default = raw.Default
	f.MinLength = raw.MinLength
	f.MaxLength = raw.MaxLength
	f.MaxSize = raw.MaxSize
	f.Pattern = raw.Pattern
	f.FixedValue = raw.Value
	f.ChildName = raw.ChildName

	f.Options = raw.Option
	if len(f.Options) == 0 {
		f.Options = raw.Options
	}

	var err error
	if f.MinValue, err = decodeBound(&raw.MinValue); err != nil {
		return fmt.Errorf("field %s: minValue: %w", raw.Name, err)
	}
	if f.MaxValue, err = decodeBound(&raw.MaxValue); err != nil {
		return fmt.Errorf("field %s: maxValue: %w", raw.Name, err)
	}

	children, _, err := decodeFields(&raw.Parameters)
	if err != nil {
		return fmt.Errorf("field %s: %w", raw.Name, err)
	}
	f.Children = children
	return nil
}

// isTrue accepts booleans and the string "true" in any case.
func isTrue(node *yaml.Node) bool {
	if node.Kind != yaml.ScalarNode {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(node.Value), "true")
}

func decodeBound(node *yaml.Node) (*decimal.Decimal, error) {
	if node.Kind == 0 || node.Tag == "!!null" {
		return nil, nil
	}
	if node.Kind != yaml.ScalarNode {
		return nil, fmt.Errorf("line %d: bound must be a number", node.Line)
	}
	d, err := decimal.NewFromString(strings.TrimSpace(node.Value))
	if err != nil {
		return nil, fmt.Errorf("line %d: bound %s is not a number", node.Line, strconv.Quote(node.Value))
	}
	return &d, nil
}
