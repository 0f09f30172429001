package buffer_test

import (
	"testing"

	"github.com/corelog/logpp/internal/buffer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildRecord(t *testing.T, message string, fields map[string]interface{}) *buffer.Event {
	t.Helper()

	e := buffer.New()
	timeOff := e.WriteInt64(1234567890)
	threadOff := e.WriteUint64(42)
	fileOff, err := e.WriteString("main.go")
	require.NoError(t, err)
	lineOff := e.WriteInt32(17)
	msgOff, err := e.WriteString(message)
	require.NoError(t, err)

	for k, v := range fields {
		require.NoError(t, e.WriteField(k, v))
	}

	e.FinalizeLogRecord(buffer.LogRecordOffsets{
		Time: timeOff, Thread: threadOff, File: fileOff, Line: lineOff, Message: msgOff,
	})
	return e
}

func TestWriteReadRoundTrip(t *testing.T) {
	e := buildRecord(t, "hello world", map[string]interface{}{"count": int32(3)})

	assert.True(t, e.Finalized())
	assert.Equal(t, "hello world", e.Message())
	assert.Equal(t, uint64(42), e.ThreadID())
	assert.Equal(t, "main.go", e.SourceFile())
	assert.Equal(t, int32(17), e.SourceLine())
}

type recordingVisitor struct {
	start  int
	keys   []string
	values []interface{}
	ended  bool
}

func (v *recordingVisitor) VisitStart(count int) { v.start = count }
func (v *recordingVisitor) VisitEnd()             { v.ended = true }

func (v *recordingVisitor) VisitString(key, value string) {
	v.keys = append(v.keys, key)
	v.values = append(v.values, value)
}
func (v *recordingVisitor) VisitUint8(key string, value uint8) {
	v.keys = append(v.keys, key)
	v.values = append(v.values, value)
}
func (v *recordingVisitor) VisitUint16(key string, value uint16) {
	v.keys = append(v.keys, key)
	v.values = append(v.values, value)
}
func (v *recordingVisitor) VisitUint32(key string, value uint32) {
	v.keys = append(v.keys, key)
	v.values = append(v.values, value)
}
func (v *recordingVisitor) VisitUint64(key string, value uint64) {
	v.keys = append(v.keys, key)
	v.values = append(v.values, value)
}
func (v *recordingVisitor) VisitInt8(key string, value int8) {
	v.keys = append(v.keys, key)
	v.values = append(v.values, value)
}
func (v *recordingVisitor) VisitInt16(key string, value int16) {
	v.keys = append(v.keys, key)
	v.values = append(v.values, value)
}
func (v *recordingVisitor) VisitInt32(key string, value int32) {
	v.keys = append(v.keys, key)
	v.values = append(v.values, value)
}
func (v *recordingVisitor) VisitInt64(key string, value int64) {
	v.keys = append(v.keys, key)
	v.values = append(v.values, value)
}
func (v *recordingVisitor) VisitFloat32(key string, value float32) {
	v.keys = append(v.keys, key)
	v.values = append(v.values, value)
}
func (v *recordingVisitor) VisitFloat64(key string, value float64) {
	v.keys = append(v.keys, key)
	v.values = append(v.values, value)
}
func (v *recordingVisitor) VisitBool(key string, value bool) {
	v.keys = append(v.keys, key)
	v.values = append(v.values, value)
}

func TestVisitFieldsOrderAndType(t *testing.T) {
	e := buffer.New()
	timeOff := e.WriteInt64(0)
	threadOff := e.WriteUint64(0)
	msgOff, _ := e.WriteString("msg")

	require.NoError(t, e.WriteField("a", int32(1)))
	require.NoError(t, e.WriteField("b", "two"))
	require.NoError(t, e.WriteField("c", true))

	e.FinalizeLogRecord(buffer.LogRecordOffsets{Time: timeOff, Thread: threadOff, Message: msgOff})

	v := &recordingVisitor{}
	e.VisitFields(v)

	assert.Equal(t, 3, v.start)
	assert.True(t, v.ended)
	assert.Equal(t, []string{"a", "b", "c"}, v.keys)
	assert.Equal(t, []interface{}{int32(1), "two", true}, v.values)
}

func TestGrowthBeyondInlinePreservesOffsets(t *testing.T) {
	e := buffer.New()

	var offsets []buffer.Offset
	var values []string
	for i := 0; i < 200; i++ {
		s := "field-value-number"
		off, err := e.WriteString(s)
		require.NoError(t, err)
		offsets = append(offsets, off)
		values = append(values, s)
	}

	assert.Greater(t, e.Size(), 255)

	for i, off := range offsets {
		assert.Equal(t, values[i], e.ReadString(off))
	}
}

func TestCloneIsIndependent(t *testing.T) {
	e := buildRecord(t, "original", nil)
	clone := e.Clone()

	assert.Equal(t, e.Message(), clone.Message())
	assert.Equal(t, e.ThreadID(), clone.ThreadID())
}

func TestWriteStringTooLargeFails(t *testing.T) {
	e := buffer.New()
	huge := make([]byte, 1<<16+1)
	_, err := e.WriteString(string(huge))
	require.Error(t, err)
}
