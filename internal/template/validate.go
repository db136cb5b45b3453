package template

import (
	"fmt"

	"github.com/vyrodovalexey/paramgw/internal/constraint"
)

// ValidationError lists the authoring defects found in a template.
type ValidationError struct {
	Template string
	Problems []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("template %s is invalid: %v", e.Template, e.Problems)
}

// Is reports whether target is a *ValidationError.
func (e *ValidationError) Is(target error) bool {
	_, ok := target.(*ValidationError)
	return ok
}

// Side identifies which document of a definition is being checked.
type Side string

const (
	SideRequest  Side = "request"
	SideResponse Side = "response"
)

// Validate checks both documents for defects that would make resolution
// fail regardless of the payload. It returns nil or a *ValidationError.
func (d *Definition) Validate() error {
	if d == nil {
		return &ValidationError{Problems: []string{"definition is nil"}}
	}

	var problems []string
	problems = append(problems, d.RequestDocument().problems(SideRequest)...)
	problems = append(problems, d.ResponseDocument().problems(SideResponse)...)

	if len(problems) == 0 {
		return nil
	}
	return &ValidationError{Template: d.Name, Problems: problems}
}

func (doc *Document) problems(side Side) []string {
	var out []string
	for _, f := range doc.Fields {
		out = append(out, f.problems(string(side), side)...)
	}
	return out
}

func (f *Field) problems(path string, side Side) []string {
	var out []string
	at := path + "." + f.Name

	switch {
	case f.Type == TypeUnknown:
		out = append(out, fmt.Sprintf("%s: unknown type %q", at, f.Label()))
	case side == SideResponse && f.Type.IsAmbient():
		out = append(out, fmt.Sprintf("%s: type %s is only valid in requests", at, f.Type))
	}

	if (f.Type == TypeOption || f.Type == TypeIntOption) && len(f.Options) == 0 {
		out = append(out, at+": options must not be empty")
	}
	if f.Type == TypeIntOption {
		for _, o := range f.Options {
			if !constraint.IsInteger(fmt.Sprint(o)) {
				out = append(out, fmt.Sprintf("%s: option %v is not an integer", at, o))
			}
		}
	}

	if f.Pattern != "" {
		if _, err := constraint.Compile(f.Pattern); err != nil {
			out = append(out, fmt.Sprintf("%s: %v", at, err))
		}
	}

	if f.MinValue != nil && f.MaxValue != nil && f.MinValue.GreaterThan(*f.MaxValue) {
		out = append(out, at+": minValue is greater than maxValue")
	}
	if f.MinLength != nil && f.MaxLength != nil && *f.MinLength > *f.MaxLength {
		out = append(out, at+": minLength is greater than maxLength")
	}
	if f.MaxSize != nil && *f.MaxSize < 0 {
		out = append(out, at+": maxSize must not be negative")
	}

	if f.Type.IsComposite() {
		if f.Children == nil {
			out = append(out, at+": "+ErrNotList.Error())
		}
		for _, c := range f.Children {
			out = append(out, c.problems(at, side)...)
		}
	}
	return out
}
