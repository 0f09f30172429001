package registry

import (
	"strings"
	"sync"

	"github.com/corelog/logpp/pkg/errors"
	"github.com/corelog/logpp/pkg/sink"
)

// SinkFactory builds a sink.Sink from its option map (the `[sinks.X.options]`
// table of a parsed configuration document), keyed by a sink type name.
type SinkFactory func(options map[string]string) (sink.Sink, error)

// Registry is the name-indexed store of loggers and sinks, plus the
// sink-type factories a configuration loader uses to turn a parsed
// {sink name, sink type, options} record into a wired sink.
//
// Logger names are dot-separated (app.net.tls). Resolution walks the
// dotted fragments from most to least specific, returning the logger
// registered for the longest matching prefix, falling back to the
// default logger. At most one logger is registered per exact name.
type Registry struct {
	mu        sync.RWMutex
	loggers   map[string]*Logger
	sinks     map[string]sink.Sink
	factories map[string]SinkFactory
	def       *Logger
}

// New returns an empty registry with the built-in sink factories
// (console, file, rolling_file) pre-registered.
func New() *Registry {
	r := &Registry{
		loggers:   make(map[string]*Logger),
		sinks:     make(map[string]sink.Sink),
		factories: make(map[string]SinkFactory),
	}
	registerBuiltinFactories(r)
	return r
}

// RegisterSinkFactory adds or replaces the factory for a sink type name.
func (r *Registry) RegisterSinkFactory(typeName string, factory SinkFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[typeName] = factory
}

// NewSink builds a sink of typeName via its registered factory.
func (r *Registry) NewSink(typeName string, options map[string]string) (sink.Sink, error) {
	r.mu.RLock()
	factory, ok := r.factories[typeName]
	r.mu.RUnlock()
	if !ok {
		return nil, &errors.ConfigError{Description: "unknown sink type: " + typeName}
	}
	return factory(options)
}

// RegisterSink stores a constructed sink under name so loggers can
// reference it by name when wired from configuration.
func (r *Registry) RegisterSink(name string, s sink.Sink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sinks[name] = s
}

// Sink returns the sink registered under name, if any.
func (r *Registry) Sink(name string) (sink.Sink, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sinks[name]
	return s, ok
}

// Register adds l under its own name. It fails if a logger is already
// registered under that exact name.
func (r *Registry) Register(l *Logger) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.loggers[l.Name()]; exists {
		return &errors.ConfigError{Description: "logger already registered: " + l.Name()}
	}
	r.loggers[l.Name()] = l
	return nil
}

// SetDefault marks l as the fallback logger returned by Get when no
// registered name is a prefix of the requested one.
func (r *Registry) SetDefault(l *Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.def = l
}

// Default returns the registry's fallback logger, or nil if none was set.
func (r *Registry) Default() *Logger {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.def
}

// Get resolves name to the logger registered for its longest matching
// dotted prefix, falling back to the default logger. Returns nil only
// if no prefix matches and no default was configured.
func (r *Registry) Get(name string) *Logger {
	r.mu.RLock()
	defer r.mu.RUnlock()

	candidate := name
	for {
		if l, ok := r.loggers[candidate]; ok {
			return l
		}
		idx := strings.LastIndexByte(candidate, '.')
		if idx < 0 {
			break
		}
		candidate = candidate[:idx]
	}
	return r.def
}
