package store

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"github.com/vyrodovalexey/paramgw/internal/template"
)

// Source loads the complete set of template definitions keyed by name.
type Source interface {
	// Kind returns a short label identifying the source type.
	Kind() string

	// Load reads every definition the source currently holds.
	Load(ctx context.Context) (map[string]*template.Definition, error)
}

// ErrDuplicateTemplate indicates that two definitions share a name.
var ErrDuplicateTemplate = errors.New("duplicate template name")

// templateExtensions lists the file extensions recognized as templates.
var templateExtensions = map[string]bool{
	".yaml": true,
	".yml":  true,
	".json": true,
}

// IsTemplateFile reports whether path has a template file extension.
func IsTemplateFile(path string) bool {
	return templateExtensions[strings.ToLower(filepath.Ext(path))]
}

// parseNamed decodes a definition and names it after fallback when the
// document carries no name attribute.
func parseNamed(data []byte, fallback string) (*template.Definition, error) {
	def, err := template.Parse(data)
	if err != nil {
		return nil, err
	}
	if def.Name == "" {
		def.Name = fallback
	}
	return def, nil
}
