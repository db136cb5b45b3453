package store

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/paramgw/internal/template"
)

const orderTemplate = `
request:
  parameters:
    - name: id
      type: int
      required: true
response:
  parameters:
    - name: status
      type: string
`

const invalidTemplate = `
request:
  parameters:
    - name: kind
      type: option
`

func writeTemplate(t *testing.T, dir, file, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, file), []byte(content), 0o600))
}

// fakeSource returns preset definitions or an error.
type fakeSource struct {
	mu    sync.Mutex
	defs  map[string]*template.Definition
	err   error
	calls int
}

func (f *fakeSource) Kind() string { return "fake" }

func (f *fakeSource) Load(_ context.Context) (map[string]*template.Definition, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string]*template.Definition, len(f.defs))
	for k, v := range f.defs {
		out[k] = v
	}
	return out, nil
}

func (f *fakeSource) set(defs map[string]*template.Definition, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.defs = defs
	f.err = err
}

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeRecorder captures refresh outcomes.
type fakeRecorder struct {
	mu        sync.Mutex
	loaded    int
	successes int
	failures  int
	sources   []string
}

func (r *fakeRecorder) SetTemplatesLoaded(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loaded = n
}

func (r *fakeRecorder) RecordTemplateRefresh(source string, success bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources = append(r.sources, source)
	if success {
		r.successes++
	} else {
		r.failures++
	}
}

func mustParse(t *testing.T, name, content string) *template.Definition {
	t.Helper()
	def, err := template.Parse([]byte(content))
	require.NoError(t, err)
	def.Name = name
	return def
}
