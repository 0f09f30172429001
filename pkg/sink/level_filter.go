package sink

import (
	"github.com/corelog/logpp/internal/buffer"
	"github.com/corelog/logpp/pkg/level"
)

// LevelFilterSink drops any record below a minimum severity before it
// reaches an inner sink.
type LevelFilterSink struct {
	inner Sink
	min   level.Level
}

// NewLevelFilterSink wraps inner, rejecting records below min.
func NewLevelFilterSink(inner Sink, min level.Level) *LevelFilterSink {
	return &LevelFilterSink{inner: inner, min: min}
}

// Write implements Sink.
func (s *LevelFilterSink) Write(name string, lvl level.Level, e *buffer.Event) {
	if lvl < s.min {
		return
	}
	s.inner.Write(name, lvl, e)
}

// SetOption implements Configurable when the wrapped sink does.
func (s *LevelFilterSink) SetOption(key, value string) error {
	if c, ok := s.inner.(Configurable); ok {
		return c.SetOption(key, value)
	}
	return &unknownOptionError{sink: "level-filter", key: key}
}
