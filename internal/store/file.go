package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vyrodovalexey/paramgw/internal/config"
	"github.com/vyrodovalexey/paramgw/internal/template"
)

// FileSource loads definitions from the template files of a directory.
// Subdirectories are not traversed.
type FileSource struct {
	dir string
}

// NewFileSource creates a FileSource reading from dir.
func NewFileSource(dir string) (*FileSource, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve template dir %s: %w", dir, err)
	}
	return &FileSource{dir: absDir}, nil
}

// Dir returns the absolute template directory.
func (s *FileSource) Dir() string {
	return s.dir
}

// Kind implements Source.
func (s *FileSource) Kind() string {
	return config.SourceFile
}

// Load implements Source.
func (s *FileSource) Load(ctx context.Context) (map[string]*template.Definition, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read template dir %s: %w", s.dir, err)
	}

	defs := make(map[string]*template.Definition, len(entries))
	origins := make(map[string]string, len(entries))

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.IsDir() || !IsTemplateFile(entry.Name()) {
			continue
		}

		path := filepath.Join(s.dir, entry.Name())
		data, err := os.ReadFile(path) //nolint:gosec // path is within the configured directory
		if err != nil {
			return nil, fmt.Errorf("failed to read template %s: %w", path, err)
		}

		base := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		def, err := parseNamed(data, base)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}

		if prev, ok := origins[def.Name]; ok {
			return nil, fmt.Errorf("%w %q in %s and %s", ErrDuplicateTemplate, def.Name, prev, entry.Name())
		}
		origins[def.Name] = entry.Name()
		defs[def.Name] = def
	}

	return defs, nil
}
