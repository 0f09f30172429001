// Package logpp is the public entry point: construct a standalone
// Logger directly over a sink, or Load a TOML configuration document
// that wires a whole tree of named sinks and loggers at once.
//
// internal/registry and internal/config hold the actual mechanism;
// this package is the stable surface applications import.
package logpp

import (
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/corelog/logpp/internal/config"
	"github.com/corelog/logpp/internal/queue"
	"github.com/corelog/logpp/internal/registry"
	"github.com/corelog/logpp/pkg/level"
	"github.com/corelog/logpp/pkg/sink"
)

// Logger and Field are re-exported so callers never need to import
// internal/registry directly (they couldn't; it's internal to this module).
type (
	Logger = registry.Logger
	Field  = registry.Field
)

// Level and its values, re-exported from pkg/level for convenience.
type Level = level.Level

const (
	Trace   = level.Trace
	Debug   = level.Debug
	Info    = level.Info
	Warning = level.Warning
	Error   = level.Error
)

// New constructs a standalone Logger over sink s, bypassing the
// registry/config machinery entirely. Most applications that don't need
// hierarchical resolution or live configuration want this.
func New(name string, lvl Level, s sink.Sink) *Logger {
	return registry.NewLogger(name, lvl, s)
}

// Instance is a configured tree of loggers and sinks built from a TOML
// document, with its own async poller and, optionally, a hot-reload
// watcher.
type Instance struct {
	reg       atomic.Pointer[registry.Registry]
	poller    *queue.Poller
	watcher   *config.Watcher
	expandEnv bool
}

// Option configures Load.
type Option func(*Instance)

// WithEnvExpansion enables ${NAME} environment variable substitution in
// string values of the configuration document, on both initial load and
// every hot reload.
func WithEnvExpansion() Option {
	return func(i *Instance) { i.expandEnv = true }
}

// Load parses path as a logpp TOML configuration document and builds a
// live Instance from it. The returned Instance owns a poller goroutine;
// callers must call Close when done.
func Load(path string, opts ...Option) (*Instance, error) {
	inst := &Instance{poller: queue.NewPoller()}
	for _, opt := range opts {
		opt(inst)
	}

	doc, err := config.ParseFile(path)
	if err != nil {
		inst.poller.Stop()
		return nil, err
	}
	if inst.expandEnv {
		config.ExpandEnv(doc)
	}

	reg := registry.New()
	if err := config.Build(doc, reg, inst.poller); err != nil {
		inst.poller.Stop()
		return nil, err
	}
	inst.reg.Store(reg)

	return inst, nil
}

// WatchForChanges starts a hot-reload watcher on path: every distinct
// content change is parsed and built into a fresh registry, which
// atomically replaces the one Get reads from. A reload that fails to
// parse or to wire is logged and discarded; the previous registry stays
// live. Call at most once per Instance.
func (i *Instance) WatchForChanges(path string) error {
	w, err := config.NewWatcher(path, func(doc *config.Document) {
		if i.expandEnv {
			config.ExpandEnv(doc)
		}
		reg := registry.New()
		if err := config.Build(doc, reg, i.poller); err != nil {
			logrus.WithField("path", path).WithError(err).Warn("logpp: reload produced an invalid configuration, keeping the previous one")
			return
		}
		i.reg.Store(reg)
	})
	if err != nil {
		return err
	}
	i.watcher = w
	return nil
}

// Get resolves name against the current registry's loggers by longest
// dotted-prefix match, falling back to the configured default logger.
func (i *Instance) Get(name string) *Logger {
	return i.reg.Load().Get(name)
}

// Default returns the instance's default (fallback) logger.
func (i *Instance) Default() *Logger {
	return i.reg.Load().Default()
}

// Close stops the hot-reload watcher (if any) and the async poller,
// draining every registered async sink's queue one last time.
func (i *Instance) Close() error {
	if i.watcher != nil {
		if err := i.watcher.Close(); err != nil {
			return err
		}
	}
	i.poller.Stop()
	return nil
}
