package registry_test

import (
	"strings"
	"testing"

	"github.com/corelog/logpp/internal/buffer"
	"github.com/corelog/logpp/internal/registry"
	"github.com/corelog/logpp/pkg/level"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturingSink struct {
	records []*buffer.Event
}

func (s *capturingSink) Write(name string, lvl level.Level, e *buffer.Event) {
	s.records = append(s.records, e)
}

func TestLoggerDropsBelowThreshold(t *testing.T) {
	sink := &capturingSink{}
	l := registry.NewLogger("app", level.Warning, sink)

	l.Info("below threshold")
	l.Debug("also below")
	assert.Empty(t, sink.records)

	l.Error("at threshold")
	require.Len(t, sink.records, 1)
	assert.Equal(t, "at threshold", sink.records[0].Message())
}

func TestLoggerWritesFieldsInOrder(t *testing.T) {
	sink := &capturingSink{}
	l := registry.NewLogger("app", level.Trace, sink)

	l.Info("request handled",
		registry.Field{Key: "status", Value: int64(200)},
		registry.Field{Key: "path", Value: "/healthz"},
	)

	require.Len(t, sink.records, 1)
	e := sink.records[0]
	require.Equal(t, 2, e.FieldCount())

	var keys []string
	v := &keyCollector{}
	e.VisitFields(v)
	keys = v.keys
	assert.Equal(t, []string{"status", "path"}, keys)
}

func TestLoggerCapturesSourceLocation(t *testing.T) {
	sink := &capturingSink{}
	l := registry.NewLogger("app", level.Trace, sink)

	l.Info("with location")

	require.Len(t, sink.records, 1)
	e := sink.records[0]
	assert.True(t, strings.HasSuffix(e.SourceFile(), "logger_test.go"))
	assert.Greater(t, e.SourceLine(), int32(0))
}

func TestLoggerfGatesBelowThreshold(t *testing.T) {
	sink := &capturingSink{}
	l := registry.NewLogger("app", level.Error, sink)

	l.Infof("value=%d", 7)
	assert.Empty(t, sink.records)

	l.Errorf("value=%d", 42)
	require.Len(t, sink.records, 1)
	assert.Equal(t, "value=42", sink.records[0].Message())
}

type keyCollector struct {
	keys []string
}

func (k *keyCollector) VisitStart(count int)               {}
func (k *keyCollector) VisitEnd()                           {}
func (k *keyCollector) VisitString(key, v string)            { k.keys = append(k.keys, key) }
func (k *keyCollector) VisitUint8(key string, v uint8)        { k.keys = append(k.keys, key) }
func (k *keyCollector) VisitUint16(key string, v uint16)      { k.keys = append(k.keys, key) }
func (k *keyCollector) VisitUint32(key string, v uint32)      { k.keys = append(k.keys, key) }
func (k *keyCollector) VisitUint64(key string, v uint64)      { k.keys = append(k.keys, key) }
func (k *keyCollector) VisitInt8(key string, v int8)          { k.keys = append(k.keys, key) }
func (k *keyCollector) VisitInt16(key string, v int16)        { k.keys = append(k.keys, key) }
func (k *keyCollector) VisitInt32(key string, v int32)        { k.keys = append(k.keys, key) }
func (k *keyCollector) VisitInt64(key string, v int64)        { k.keys = append(k.keys, key) }
func (k *keyCollector) VisitFloat32(key string, v float32)    { k.keys = append(k.keys, key) }
func (k *keyCollector) VisitFloat64(key string, v float64)    { k.keys = append(k.keys, key) }
func (k *keyCollector) VisitBool(key string, v bool)          { k.keys = append(k.keys, key) }
