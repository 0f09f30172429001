package config

import (
	"fmt"
	"strings"

	"github.com/corelog/logpp/internal/queue"
	"github.com/corelog/logpp/internal/registry"
	"github.com/corelog/logpp/pkg/errors"
	"github.com/corelog/logpp/pkg/level"
	"github.com/corelog/logpp/pkg/sink"
)

// defaultAsyncQueueCapacity is used when a sink sets async = true without
// an explicit queue_capacity.
const defaultAsyncQueueCapacity = 1024

// Build validates doc and wires its sinks and loggers into reg. Sinks
// declared async = true are wrapped in an AsyncSink backed by poller,
// which the caller owns and must Stop when the registry is discarded.
// Exactly one logger must declare default = true; Build fails otherwise.
func Build(doc *Document, reg *registry.Registry, poller *queue.Poller) error {
	if err := wireSinks(doc, reg, poller); err != nil {
		return err
	}
	return wireLoggers(doc, reg)
}

func wireSinks(doc *Document, reg *registry.Registry, poller *queue.Poller) error {
	for name, decl := range doc.Sinks {
		s, err := reg.NewSink(decl.Type, decl.Options)
		if err != nil {
			return &errors.ConfigError{Description: fmt.Sprintf("sink %q: %v", name, err)}
		}

		if decl.Async {
			capacity := decl.QueueCapacity
			if capacity <= 0 {
				capacity = defaultAsyncQueueCapacity
			}
			async, err := sink.NewAsyncSink(poller, s, name, capacity)
			if err != nil {
				return &errors.ConfigError{Description: fmt.Sprintf("sink %q: wrapping async: %v", name, err)}
			}
			s = async
		}

		reg.RegisterSink(name, s)
	}
	return nil
}

func wireLoggers(doc *Document, reg *registry.Registry) error {
	var defaultCount int

	for _, decl := range doc.Loggers {
		if decl.Name == "" {
			return &errors.ConfigError{Description: "logger entry missing required \"name\""}
		}

		lvl, ok := level.Parse(decl.Level)
		if !ok {
			return &errors.ConfigError{Description: fmt.Sprintf("logger %q: invalid level %q", decl.Name, decl.Level)}
		}

		s, err := resolveLoggerSink(reg, decl)
		if err != nil {
			return err
		}

		l := registry.NewLogger(decl.Name, lvl, s)
		if err := reg.Register(l); err != nil {
			return &errors.ConfigError{Description: err.Error()}
		}

		if decl.Default {
			defaultCount++
			reg.SetDefault(l)
		}
	}

	if defaultCount != 1 {
		return &errors.ConfigError{Description: fmt.Sprintf("exactly one logger must declare default = true, found %d", defaultCount)}
	}
	return nil
}

func resolveLoggerSink(reg *registry.Registry, decl LoggerDocument) (sink.Sink, error) {
	if len(decl.Sinks) == 0 {
		return nil, &errors.ConfigError{Description: fmt.Sprintf("logger %q: must reference at least one sink", decl.Name)}
	}

	resolved := make([]sink.Sink, 0, len(decl.Sinks))
	for _, name := range decl.Sinks {
		s, ok := reg.Sink(name)
		if !ok {
			return nil, &errors.ConfigError{Description: fmt.Sprintf("logger %q: unknown sink %q", decl.Name, strings.TrimSpace(name))}
		}
		resolved = append(resolved, s)
	}

	if len(resolved) == 1 {
		return resolved[0], nil
	}
	return sink.NewMultiSink(resolved...), nil
}
