// Package format renders an Event to text. Two formatters share one
// mechanism: a pattern is parsed once, at construction time, into an
// ordered list of flag renderers; formatting walks that list and writes
// each renderer's output to the destination buffer.
package format

import (
	"bytes"

	"github.com/corelog/logpp/internal/buffer"
	"github.com/corelog/logpp/pkg/level"
)

// Formatter renders one record into a destination byte buffer. A
// Formatter is immutable after construction and may be shared across
// concurrent sinks.
type Formatter interface {
	Format(out *bytes.Buffer, name string, lvl level.Level, e *buffer.Event)
}

// FlagRenderer renders the output of a single pattern directive. Built-in
// directives implement it internally; custom directives registered with
// RegisterFlag implement it too.
type FlagRenderer interface {
	Render(out *bytes.Buffer, name string, lvl level.Level, e *buffer.Event)
}

// FlagFactory builds a FlagRenderer for a custom flag, given the optional
// bracketed parameter that followed it in the pattern (empty if none was
// given).
type FlagFactory func(param string) (FlagRenderer, error)
