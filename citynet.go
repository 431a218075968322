// Package citynet turns user drawn regions over a city footprint into a
// concrete spatial graph.
//
// Cell regions carve the footprint into cells (per layer), node regions
// place at most one node of their type in each cell they cover & edge
// regions link those nodes by one of a handful of topology rules. Every
// derived thing can be regenerated from the regions at any time; the
// regions are the source of truth.
package citynet

import (
	"io"
	"os"

	"github.com/charmbracelet/log"

	"github.com/voidshard/citynet/coords"
)

// Engine runs partitioning & synthesis. It holds no city state of its own
// so one engine can serve any number of cities, concurrently.
type Engine struct {
	cfg *Config
	log *log.Logger
}

// Option configures an Engine
type Option func(*Engine)

// WithLogger sets the logger the engine reports through.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) {
		e.log = l
	}
}

// New returns an engine using the given config (DefaultConfig if nil).
func New(cfg *Config, opts ...Option) *Engine {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	e := &Engine{
		cfg: cfg,
		log: log.NewWithOptions(os.Stderr, log.Options{Level: log.WarnLevel}),
	}
	for _, o := range opts {
		o(e)
	}
	if e.log == nil {
		e.log = log.NewWithOptions(io.Discard, log.Options{})
	}
	return e
}

// Config returns a copy of the engine's config.
func (e *Engine) Config() Config {
	return *e.cfg
}

// NewCity returns a city over the footprint using the engine's base layer &
// default unit.
func (e *Engine) NewCity(name string, footprint *coords.List) (*City, error) {
	return NewCity(name, footprint, e.cfg.BaseLayer)
}
