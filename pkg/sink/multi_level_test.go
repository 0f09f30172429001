package sink_test

import (
	"testing"

	"github.com/corelog/logpp/internal/buffer"
	"github.com/corelog/logpp/pkg/level"
	"github.com/corelog/logpp/pkg/sink"
	"github.com/stretchr/testify/assert"
)

type recordingSink struct {
	lines []string
}

func (r *recordingSink) Write(name string, lvl level.Level, e *buffer.Event) {
	r.lines = append(r.lines, e.Message())
}

func TestMultiSinkFansOutToEveryInnerSink(t *testing.T) {
	a := &recordingSink{}
	b := &recordingSink{}
	m := sink.NewMultiSink(a, b)

	m.Write("app", level.Info, newEvent(t, "hello"))

	assert.Equal(t, []string{"hello"}, a.lines)
	assert.Equal(t, []string{"hello"}, b.lines)
}

func TestLevelFilterSinkDropsBelowMinimum(t *testing.T) {
	inner := &recordingSink{}
	f := sink.NewLevelFilterSink(inner, level.Warning)

	f.Write("app", level.Debug, newEvent(t, "dropped"))
	f.Write("app", level.Error, newEvent(t, "kept"))

	assert.Equal(t, []string{"kept"}, inner.lines)
}
