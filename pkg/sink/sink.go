// Package sink implements logpp's output stage: where formatted records
// go once a logger has decided to emit them. Sinks compose: a level
// filter wraps any sink, an async wrapper makes any sink non-blocking, a
// multi-sink fans one record out to several.
package sink

import (
	"github.com/corelog/logpp/internal/buffer"
	"github.com/corelog/logpp/pkg/level"
)

// Sink receives one formatted record at a time. Write must be safe for
// concurrent use; sinks that need to serialize access (a single file
// descriptor, a rolling policy) do so internally.
type Sink interface {
	Write(name string, lvl level.Level, e *buffer.Event)
}

// Configurable is implemented by sinks whose behavior can be adjusted
// after construction through string key/value options, mirroring the
// original C++ source's universal sink option-setter. Config loading does
// not apply a sink's option map through this interface: each built-in
// sink factory reads the options it knows itself, and only the rolling
// file sink's "strategy" and "archive" options go through SetOption.
type Configurable interface {
	SetOption(key, value string) error
}

// Closer is implemented by sinks holding an open resource (a file
// descriptor) that must be released on shutdown.
type Closer interface {
	Close() error
}
