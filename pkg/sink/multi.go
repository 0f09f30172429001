package sink

import (
	"github.com/corelog/logpp/internal/buffer"
	"github.com/corelog/logpp/pkg/level"
)

// MultiSink fans one record out to every inner sink, in registration
// order.
type MultiSink struct {
	sinks []Sink
}

// NewMultiSink returns a MultiSink wrapping sinks.
func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

// AddSink appends another inner sink.
func (s *MultiSink) AddSink(inner Sink) {
	s.sinks = append(s.sinks, inner)
}

// Write implements Sink.
func (s *MultiSink) Write(name string, lvl level.Level, e *buffer.Event) {
	for _, inner := range s.sinks {
		inner.Write(name, lvl, e)
	}
}
