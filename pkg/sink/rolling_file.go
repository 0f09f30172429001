package sink

import (
	"bytes"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/shirou/gopsutil/v3/disk"
	"github.com/sirupsen/logrus"

	"github.com/corelog/logpp/internal/buffer"
	"github.com/corelog/logpp/internal/format"
	"github.com/corelog/logpp/internal/metrics"
	"github.com/corelog/logpp/pkg/errors"
	"github.com/corelog/logpp/pkg/level"
)

// minFreeBytesBeforeRoll guards against rolling into a full disk:
// RollingFileSink refuses to roll (and keeps appending to the current
// file instead) when free space on the target filesystem drops below
// this, mirroring the original local file sink's disk-space protections.
const minFreeBytesBeforeRoll = 64 * 1024 * 1024

// RollingFileSink is a FileSink that periodically archives its current
// file and starts a fresh one, driven by a RollingStrategy (when to
// roll) and an ArchiveStrategy (how the old file is renamed out of the
// way). A single mutex serializes the roll check, archive, reopen and
// write for each record, so a roll can never interleave with a write
// that should have landed in the file it displaces.
type RollingFileSink struct {
	mu sync.Mutex

	basePath  string
	formatter format.Formatter
	rolling   RollingStrategy
	archive   ArchiveStrategy

	file     *FileSink
	rollName string
}

// NewRollingFileSink opens basePath and returns a sink that rolls it per
// rolling and archive.
func NewRollingFileSink(basePath string, f format.Formatter, rolling RollingStrategy, archive ArchiveStrategy) (*RollingFileSink, error) {
	file, err := NewFileSink(basePath, f)
	if err != nil {
		return nil, err
	}
	return &RollingFileSink{
		basePath:  basePath,
		formatter: f,
		rolling:   rolling,
		archive:   archive,
		file:      file,
		rollName:  "rolling-file:" + filepath.Base(basePath),
	}, nil
}

// Write implements Sink.
func (s *RollingFileSink) Write(name string, lvl level.Level, e *buffer.Event) {
	var buf bytes.Buffer
	s.formatter.Format(&buf, name, lvl, e)
	buf.WriteByte('\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rolling.ShouldRoll(e.Time(), s.file.Size()) {
		s.roll()
	}

	s.file.writeLocked(buf.Bytes())
}

// roll archives the current file and reopens basePath. Must be called
// with s.mu held. A roll that cannot proceed (insufficient free disk
// space, or a rename/reopen failure) leaves the sink writing to its
// existing file and records a SinkIOError metric instead of losing
// records.
func (s *RollingFileSink) roll() {
	if !diskHasFreeSpace(s.basePath, minFreeBytesBeforeRoll) {
		metrics.SinkIOErrorsTotal.WithLabelValues("rolling-file", "roll-skipped-disk-full").Inc()
		return
	}

	if err := s.file.Close(); err != nil {
		metrics.SinkIOErrorsTotal.WithLabelValues("rolling-file", "close").Inc()
		s.logRollFailure("close", err, errors.SeverityMedium, "keeping it open")
		return
	}

	if err := s.archive.Archive(s.basePath); err != nil {
		metrics.SinkIOErrorsTotal.WithLabelValues("rolling-file", "archive").Inc()
		s.logRollFailure("archive", err, errors.SeverityMedium, "reopening in place")
		// The old file is still at basePath (or in an unknown partial
		// state); reopening it in append mode is the safest recovery.
	}

	file, err := NewFileSink(s.basePath, s.formatter)
	if err != nil {
		metrics.SinkIOErrorsTotal.WithLabelValues("rolling-file", "reopen").Inc()
		s.logRollFailure("reopen", err, errors.SeverityCritical, "degraded, writes will be dropped until reopen succeeds")
		return
	}

	s.file = file
	metrics.RollsTotal.WithLabelValues(s.rollName).Inc()
}

// logRollFailure builds an AppError around a roll-step failure and logs
// it structurally. Severity drives the log level: a reopen failure is
// critical (the sink is now degraded), close/archive failures are
// recoverable (the sink keeps writing to its existing file).
func (s *RollingFileSink) logRollFailure(operation string, cause error, severity errors.Severity, outcome string) {
	err := errors.New(errors.CodeSystemFailure, s.rollName, operation, "rolling file sink "+operation+" failed, "+outcome).
		Wrap(cause).
		WithMetadata("path", s.basePath)
	err.Severity = severity

	fields := logrus.Fields(err.ToMap())
	if severity == errors.SeverityCritical {
		logrus.WithFields(fields).Error(err.Error())
	} else {
		logrus.WithFields(fields).Warn(err.Error())
	}
}

func diskHasFreeSpace(path string, minFree uint64) bool {
	usage, err := disk.Usage(filepath.Dir(path))
	if err != nil {
		// Unable to determine free space: fail open rather than stall
		// rolling indefinitely on an unsupported filesystem.
		return true
	}
	return usage.Free >= minFree
}

// Close implements Closer.
func (s *RollingFileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}

// SetOption implements Configurable, mirroring the original source's
// "strategy" and "archive" setOption keys:
//
//	strategy = size|10MB
//	archive  = incremental
//	archive  = timestamp|20060102-150405
func (s *RollingFileSink) SetOption(key, value string) error {
	switch strings.ToLower(key) {
	case "strategy":
		strategy, err := parseRollingStrategy(value)
		if err != nil {
			return err
		}
		s.mu.Lock()
		s.rolling = strategy
		s.mu.Unlock()
		return nil

	case "archive":
		strategy, err := parseArchiveStrategy(value)
		if err != nil {
			return err
		}
		s.mu.Lock()
		s.archive = strategy
		s.mu.Unlock()
		return nil

	default:
		return &unknownOptionError{sink: "rolling-file", key: key}
	}
}

func parseRollingStrategy(value string) (RollingStrategy, error) {
	name, option, _ := strings.Cut(value, "|")

	switch strings.ToLower(name) {
	case "size":
		bytesThreshold, err := parseSize(option)
		if err != nil {
			return nil, err
		}
		return SizeRollingStrategy{Threshold: bytesThreshold}, nil
	default:
		return nil, &errors.ConfigError{Description: "unknown rolling strategy: " + name}
	}
}

// parseSize parses a human size like "10MB", "512KB" or a bare byte count.
func parseSize(s string) (int64, error) {
	s = strings.TrimSpace(strings.ToUpper(s))

	multiplier := int64(1)
	switch {
	case strings.HasSuffix(s, "GB"):
		multiplier = 1 << 30
		s = strings.TrimSuffix(s, "GB")
	case strings.HasSuffix(s, "MB"):
		multiplier = 1 << 20
		s = strings.TrimSuffix(s, "MB")
	case strings.HasSuffix(s, "KB"):
		multiplier = 1 << 10
		s = strings.TrimSuffix(s, "KB")
	case strings.HasSuffix(s, "B"):
		s = strings.TrimSuffix(s, "B")
	}

	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, &errors.ConfigError{Description: "invalid size: " + s, Cause: err}
	}
	return n * multiplier, nil
}
