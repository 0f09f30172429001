package registry

import (
	"runtime"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/corelog/logpp/internal/buffer"
	"github.com/corelog/logpp/internal/metrics"
	"github.com/corelog/logpp/pkg/errors"
	"github.com/corelog/logpp/pkg/level"
	"github.com/corelog/logpp/pkg/sink"
)

// Field is one key/value pair passed to a logging call. Order is
// preserved into the event buffer's structured-fields block, unlike a
// Go map, which is why Logger takes a slice rather than a
// map[string]interface{}.
type Field struct {
	Key   string
	Value interface{}
}

// Logger pairs a name and a level threshold with the sink it writes
// finished records to. A Logger is cheap to hold by value-sized pointer
// and safe for concurrent use: its mutable state (the level and the
// one-time drop-warning flag) is read and written atomically, so SetLevel
// never races a hot log() call.
type Logger struct {
	name       string
	level      atomic.Int32
	sink       sink.Sink
	warnedDrop atomic.Bool
}

// NewLogger constructs a Logger bound to sink s.
func NewLogger(name string, lvl level.Level, s sink.Sink) *Logger {
	l := &Logger{name: name, sink: s}
	l.level.Store(int32(lvl))
	return l
}

// Name returns the logger's registered name.
func (l *Logger) Name() string { return l.name }

// Level returns the logger's current severity threshold.
func (l *Logger) Level() level.Level { return level.Level(l.level.Load()) }

// SetLevel changes the severity threshold below which calls are dropped
// without building an event buffer.
func (l *Logger) SetLevel(lvl level.Level) { l.level.Store(int32(lvl)) }

// Sink returns the sink this logger writes finished records to.
func (l *Logger) Sink() sink.Sink { return l.sink }

func (l *Logger) Trace(text string, fields ...Field)   { l.logAt(level.Trace, 1, text, fields...) }
func (l *Logger) Debug(text string, fields ...Field)   { l.logAt(level.Debug, 1, text, fields...) }
func (l *Logger) Info(text string, fields ...Field)    { l.logAt(level.Info, 1, text, fields...) }
func (l *Logger) Warning(text string, fields ...Field) { l.logAt(level.Warning, 1, text, fields...) }
func (l *Logger) Error(text string, fields ...Field)   { l.logAt(level.Error, 1, text, fields...) }

func (l *Logger) Tracef(format string, args ...interface{})   { l.logfAt(level.Trace, 1, format, args...) }
func (l *Logger) Debugf(format string, args ...interface{})   { l.logfAt(level.Debug, 1, format, args...) }
func (l *Logger) Infof(format string, args ...interface{})    { l.logfAt(level.Info, 1, format, args...) }
func (l *Logger) Warningf(format string, args ...interface{}) { l.logfAt(level.Warning, 1, format, args...) }
func (l *Logger) Errorf(format string, args ...interface{})   { l.logfAt(level.Error, 1, format, args...) }

func (l *Logger) logAt(lvl level.Level, skip int, text string, fields ...Field) {
	l.emit(lvl, skip+1, fields, func(e *buffer.Event) (buffer.Offset, error) {
		return e.WriteString(text)
	})
}

func (l *Logger) logfAt(lvl level.Level, skip int, format string, args ...interface{}) {
	l.emit(lvl, skip+1, nil, func(e *buffer.Event) (buffer.Offset, error) {
		return e.WriteFormatted(format, args...)
	})
}

// emit implements spec step 1-6 of a logging call: the level gate, the
// event buffer construction (timestamp, thread id, source location,
// message, fields), finalize, and the call into the sink. render is
// invoked only once the level gate passes, so a disabled Tracef never
// pays for fmt.Sprintf.
func (l *Logger) emit(lvl level.Level, skip int, fields []Field, render func(e *buffer.Event) (buffer.Offset, error)) {
	if lvl < l.Level() {
		return
	}

	file, line := callerLocation(skip + 1)

	e := buffer.New()
	timeOff := e.WriteInt64(time.Now().UnixNano())
	threadOff := e.WriteUint64(buffer.CurrentThreadID())

	var fileOff, lineOff buffer.Offset
	if file != "" {
		var err error
		fileOff, err = e.WriteString(file)
		if err != nil {
			l.drop("source-location", err)
			return
		}
		lineOff = e.WriteInt32(int32(line))
	}

	msgOff, err := render(e)
	if err != nil {
		l.drop("message", err)
		return
	}

	for _, f := range fields {
		if err := e.WriteField(f.Key, f.Value); err != nil {
			l.drop("field", err)
			return
		}
	}

	e.FinalizeLogRecord(buffer.LogRecordOffsets{
		Time:    timeOff,
		Thread:  threadOff,
		File:    fileOff,
		Line:    lineOff,
		Message: msgOff,
	})
	l.sink.Write(l.name, lvl, e)
}

// drop records a record that could not be finalized (almost always
// RecordTooLarge) as a metric plus, the first time it happens on this
// logger, a structured internal warning. It never returns an error to the
// caller of log(): producer-side failures are never raised to the caller,
// per the error propagation policy. Every drop after the first is still
// counted but stays silent, matching the "one-time internal warning"
// contract.
func (l *Logger) drop(stage string, cause error) {
	metrics.DroppedRecordsTotal.WithLabelValues(stage).Inc()

	if l.warnedDrop.Swap(true) {
		return
	}

	err := errors.New(errors.CodeResourceExhausted, "registry", "emit", "dropped a log record, further drops on this logger will not be logged").
		Wrap(cause).
		WithMetadata("logger", l.name).
		WithMetadata("stage", stage)
	err.Severity = errors.SeverityLow

	logrus.WithFields(logrus.Fields(err.ToMap())).Warn(err.Error())
}

func callerLocation(skip int) (string, int) {
	_, file, line, ok := runtime.Caller(skip + 1)
	if !ok {
		return "", 0
	}
	return file, line
}
