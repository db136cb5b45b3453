package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vyrodovalexey/paramgw/internal/observability"
	"github.com/vyrodovalexey/paramgw/internal/template"
)

// ErrTemplateNotFound indicates that no definition is registered under a name.
var ErrTemplateNotFound = errors.New("template not found")

// ErrNotLoaded indicates that no snapshot has been loaded yet.
var ErrNotLoaded = errors.New("templates not loaded")

// RefreshRecorder receives the outcome of every refresh.
type RefreshRecorder interface {
	SetTemplatesLoaded(n int)
	RecordTemplateRefresh(source string, success bool)
}

type snapshot struct {
	defs     map[string]*template.Definition
	names    []string
	loadedAt time.Time
}

// Store holds the current snapshot of template definitions. Reads are
// lock-free; refreshes are serialized.
type Store struct {
	source   Source
	logger   observability.Logger
	recorder RefreshRecorder
	strict   bool
	interval time.Duration

	current   atomic.Pointer[snapshot]
	refreshMu sync.Mutex

	mu        sync.Mutex
	running   bool
	stopCh    chan struct{}
	stoppedCh chan struct{}
}

// Option is a functional option for configuring the Store.
type Option func(*Store)

// WithLogger sets the logger for the store.
func WithLogger(logger observability.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithStrict makes a refresh drop definitions that fail validation instead
// of loading them with a warning.
func WithStrict(strict bool) Option {
	return func(s *Store) {
		s.strict = strict
	}
}

// WithRefreshInterval sets the periodic refresh interval. Zero disables
// periodic refresh.
func WithRefreshInterval(interval time.Duration) Option {
	return func(s *Store) {
		s.interval = interval
	}
}

// WithRecorder sets the refresh outcome recorder.
func WithRecorder(r RefreshRecorder) Option {
	return func(s *Store) {
		s.recorder = r
	}
}

// New creates a Store over source. No definitions are available until the
// first Refresh or Start.
func New(source Source, opts ...Option) *Store {
	s := &Store{
		source: source,
		logger: observability.NopLogger(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Get returns the definition registered under name.
func (s *Store) Get(name string) (*template.Definition, bool) {
	snap := s.current.Load()
	if snap == nil {
		return nil, false
	}
	def, ok := snap.defs[name]
	return def, ok
}

// Lookup returns the definition registered under name or an error wrapping
// ErrNotLoaded or ErrTemplateNotFound.
func (s *Store) Lookup(name string) (*template.Definition, error) {
	if !s.Ready() {
		return nil, ErrNotLoaded
	}
	def, ok := s.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
	}
	return def, nil
}

// Names returns the registered template names in sorted order.
func (s *Store) Names() []string {
	snap := s.current.Load()
	if snap == nil {
		return []string{}
	}
	out := make([]string, len(snap.names))
	copy(out, snap.names)
	return out
}

// Ready reports whether a snapshot has been loaded.
func (s *Store) Ready() bool {
	return s.current.Load() != nil
}

// LoadedAt returns the time of the last successful refresh.
func (s *Store) LoadedAt() time.Time {
	snap := s.current.Load()
	if snap == nil {
		return time.Time{}
	}
	return snap.loadedAt
}

// Refresh reloads every definition from the source and swaps the snapshot.
// On failure the previous snapshot stays active.
func (s *Store) Refresh(ctx context.Context) error {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	defs, err := s.source.Load(ctx)
	if err != nil {
		s.logger.Error("failed to refresh templates",
			observability.String("source", s.source.Kind()),
			observability.Error(err),
		)
		s.record(false, 0)
		return err
	}

	for name, def := range defs {
		verr := def.Validate()
		if verr == nil {
			continue
		}
		if s.strict {
			s.logger.Error("rejecting invalid template",
				observability.String("template", name),
				observability.Error(verr),
			)
			delete(defs, name)
			continue
		}
		s.logger.Warn("template has authoring defects",
			observability.String("template", name),
			observability.Error(verr),
		)
	}

	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	sort.Strings(names)

	s.current.Store(&snapshot{defs: defs, names: names, loadedAt: time.Now()})
	s.record(true, len(defs))

	s.logger.Info("templates refreshed",
		observability.String("source", s.source.Kind()),
		observability.Int("count", len(defs)),
	)
	return nil
}

func (s *Store) record(success bool, loaded int) {
	if s.recorder == nil {
		return
	}
	s.recorder.RecordTemplateRefresh(s.source.Kind(), success)
	if success {
		s.recorder.SetTemplatesLoaded(loaded)
	}
}

// Start performs the initial refresh and, when an interval is configured,
// refreshes periodically until Stop is called or ctx is cancelled.
func (s *Store) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	if err := s.Refresh(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.stoppedCh = make(chan struct{})

	go s.loop(ctx, s.stopCh, s.stoppedCh)

	return nil
}

// Stop stops periodic refresh. It is safe to call more than once.
func (s *Store) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	stopCh, stoppedCh := s.stopCh, s.stoppedCh
	s.mu.Unlock()

	close(stopCh)
	<-stoppedCh
}

func (s *Store) loop(ctx context.Context, stopCh <-chan struct{}, stoppedCh chan<- struct{}) {
	defer close(stoppedCh)

	if s.interval <= 0 {
		select {
		case <-ctx.Done():
		case <-stopCh:
		}
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("template refresh stopped due to context cancellation")
			return
		case <-stopCh:
			s.logger.Info("template refresh stopped")
			return
		case <-ticker.C:
			// Errors are logged and recorded by Refresh.
			_ = s.Refresh(ctx)
		}
	}
}
