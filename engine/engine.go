// Package engine hosts the Engine and its Sessions: the owning
// collaborators queries depend on for lifecycle checks, default
// properties and error translation.
package engine

import (
	"log/slog"

	"github.com/ormkit/persistq/cache"
	"github.com/ormkit/persistq/database"
	"github.com/ormkit/persistq/query"
)

const defaultRegionCapacity = 512

// Engine owns the execution surface and the shared result-cache
// regions, and opens sessions. One engine per database.
type Engine struct {
	db      database.Database
	regions *cache.RegionManager
	props   map[string]any
	log     *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger sessions and queries derive theirs from.
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// WithProperty sets an engine-level default property, e.g. the default
// cache retrieve/store modes consulted by the split cache-mode hints.
func WithProperty(name string, value any) Option {
	return func(e *Engine) { e.props[name] = value }
}

// WithRegionCapacity sets the per-region LRU capacity.
func WithRegionCapacity(n int) Option {
	return func(e *Engine) { e.regions = cache.NewRegionManager(n) }
}

// New creates an Engine on the given execution surface.
func New(db database.Database, opts ...Option) *Engine {
	e := &Engine{
		db:      db,
		regions: cache.NewRegionManager(defaultRegionCapacity),
		props:   make(map[string]any),
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Database returns the execution surface.
func (e *Engine) Database() database.Database {
	return e.db
}

// Regions returns the shared cache-region manager.
func (e *Engine) Regions() *cache.RegionManager {
	return e.regions
}

// OpenSession starts a new unit of work. Sessions are single-threaded;
// callers must not share one across goroutines without external
// synchronization.
func (e *Engine) OpenSession() *Session {
	props := make(map[string]any, len(e.props))
	for k, v := range e.props {
		props[k] = v
	}
	s := newSession(e, props)
	s.log.Debug("session opened")
	return s
}

var _ query.Session = (*Session)(nil)
