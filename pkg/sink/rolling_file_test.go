package sink_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/corelog/logpp/internal/format"
	"github.com/corelog/logpp/pkg/level"
	"github.com/corelog/logpp/pkg/sink"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRollingFileSinkRollsBySize(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "app.log")

	f, err := format.NewPatternFormatter("%v")
	require.NoError(t, err)

	rfs, err := sink.NewRollingFileSink(base, f, sink.SizeRollingStrategy{Threshold: 10}, sink.IncrementalArchiveStrategy{})
	require.NoError(t, err)
	defer rfs.Close()

	rfs.Write("app", level.Info, newEvent(t, "this line is over ten bytes"))
	rfs.Write("app", level.Info, newEvent(t, "second"))

	_, err = os.Stat(base + ".0")
	assert.NoError(t, err, "expected a roll to have archived the first file")

	contents, err := os.ReadFile(base)
	require.NoError(t, err)
	assert.Equal(t, "second\n", string(contents))
}

func TestRollingFileSinkSetOptionReplacesStrategies(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "app.log")

	f, err := format.NewPatternFormatter("%v")
	require.NoError(t, err)

	rfs, err := sink.NewRollingFileSink(base, f, sink.SizeRollingStrategy{Threshold: 1 << 30}, sink.IncrementalArchiveStrategy{})
	require.NoError(t, err)
	defer rfs.Close()

	require.NoError(t, rfs.SetOption("strategy", "size|1B"))
	require.NoError(t, rfs.SetOption("archive", "timestamp|20060102"))

	assert.Error(t, rfs.SetOption("unknown", "x"))
}
