package sink

import (
	"bytes"
	"io"
	"os"
	"sync"

	"github.com/corelog/logpp/internal/buffer"
	"github.com/corelog/logpp/internal/format"
	"github.com/corelog/logpp/pkg/level"
)

// ConsoleSink writes formatted records to an io.Writer, os.Stdout by
// default. Writes are serialized so interleaved goroutines never tear a
// line in half.
type ConsoleSink struct {
	mu        sync.Mutex
	out       io.Writer
	formatter format.Formatter
}

// NewConsoleSink returns a ConsoleSink writing to os.Stdout with f.
func NewConsoleSink(f format.Formatter) *ConsoleSink {
	return &ConsoleSink{out: os.Stdout, formatter: f}
}

// NewConsoleSinkTo returns a ConsoleSink writing to an arbitrary writer,
// primarily for tests.
func NewConsoleSinkTo(out io.Writer, f format.Formatter) *ConsoleSink {
	return &ConsoleSink{out: out, formatter: f}
}

// Write implements Sink.
func (s *ConsoleSink) Write(name string, lvl level.Level, e *buffer.Event) {
	var buf bytes.Buffer
	s.formatter.Format(&buf, name, lvl, e)
	buf.WriteByte('\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	s.out.Write(buf.Bytes())
}

// SetOption implements Configurable. ConsoleSink has no tunable options
// today; any key passed here is rejected with an error rather than being
// silently ignored.
func (s *ConsoleSink) SetOption(key, _ string) error {
	return &unknownOptionError{sink: "console", key: key}
}
