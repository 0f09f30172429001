package sink_test

import (
	"bytes"
	"testing"

	"github.com/corelog/logpp/internal/buffer"
	"github.com/corelog/logpp/internal/format"
	"github.com/corelog/logpp/pkg/level"
	"github.com/corelog/logpp/pkg/sink"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEvent(t *testing.T, message string) *buffer.Event {
	t.Helper()
	e := buffer.New()
	timeOff := e.WriteInt64(0)
	threadOff := e.WriteUint64(0)
	msgOff, err := e.WriteString(message)
	require.NoError(t, err)
	e.FinalizeLogRecord(buffer.LogRecordOffsets{Time: timeOff, Thread: threadOff, Message: msgOff})
	return e
}

func TestConsoleSinkWritesFormattedLine(t *testing.T) {
	f, err := format.NewPatternFormatter("%v")
	require.NoError(t, err)

	var out bytes.Buffer
	s := sink.NewConsoleSinkTo(&out, f)

	s.Write("app", level.Info, newEvent(t, "hello"))

	assert.Equal(t, "hello\n", out.String())
}

func TestConsoleSinkRejectsUnknownOption(t *testing.T) {
	f, err := format.NewPatternFormatter("%v")
	require.NoError(t, err)

	s := sink.NewConsoleSinkTo(&bytes.Buffer{}, f)
	assert.Error(t, s.SetOption("color", "always"))
}
