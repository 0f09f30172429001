package sink

import (
	"bytes"
	"os"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/corelog/logpp/internal/buffer"
	"github.com/corelog/logpp/internal/format"
	"github.com/corelog/logpp/internal/metrics"
	"github.com/corelog/logpp/pkg/errors"
	"github.com/corelog/logpp/pkg/level"
)

// FileSink writes formatted records to a single append-mode file. A
// mutex serializes writes so a partial line never interleaves with
// another goroutine's.
type FileSink struct {
	mu        sync.Mutex
	path      string
	file      *os.File
	size      int64
	formatter format.Formatter
	degraded  bool
}

// NewFileSink opens (creating if needed) path in append mode.
func NewFileSink(path string, f format.Formatter) (*FileSink, error) {
	file, size, err := openAppend(path)
	if err != nil {
		return nil, &errors.SinkIOError{Sink: "file", Operation: "open", Path: path, Cause: err}
	}
	return &FileSink{path: path, file: file, size: size, formatter: f}, nil
}

func openAppend(path string) (*os.File, int64, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, 0, err
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, 0, err
	}
	return file, info.Size(), nil
}

// Write implements Sink. On failure it records a SinkIOError metric and
// marks the sink degraded rather than panicking or blocking the caller;
// degraded sinks keep attempting writes, since a later roll or external
// fix (disk freed, permissions restored) may recover them.
func (s *FileSink) Write(name string, lvl level.Level, e *buffer.Event) {
	var buf bytes.Buffer
	s.formatter.Format(&buf, name, lvl, e)
	buf.WriteByte('\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeLocked(buf.Bytes())
}

func (s *FileSink) writeLocked(p []byte) {
	n, err := s.file.Write(p)
	s.size += int64(n)
	if err != nil {
		metrics.SinkIOErrorsTotal.WithLabelValues("file", "write").Inc()
		if !s.degraded {
			appErr := errors.New(errors.CodeSystemFailure, "file", "write", "file sink write failed, entering degraded state").
				Wrap(err).
				WithMetadata("path", s.path)
			appErr.Severity = errors.SeverityHigh
			logrus.WithFields(logrus.Fields(appErr.ToMap())).Warn(appErr.Error())
		}
		s.degraded = true
	} else {
		s.degraded = false
	}
}

// Close implements Closer.
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}

// Size reports the current file size as tracked since open, used by
// size-based rolling strategies without an extra stat syscall per write.
func (s *FileSink) Size() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.size
}

// Degraded reports whether the most recent write failed.
func (s *FileSink) Degraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.degraded
}

// SetOption implements Configurable. FileSink itself has no options;
// RollingFileSink overrides this to wire strategy selection.
func (s *FileSink) SetOption(key, _ string) error {
	return &unknownOptionError{sink: "file", key: key}
}
