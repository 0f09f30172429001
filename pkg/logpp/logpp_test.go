package logpp_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/corelog/logpp/internal/buffer"
	"github.com/corelog/logpp/pkg/level"
	"github.com/corelog/logpp/pkg/logpp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
}

func TestNewStandaloneLogger(t *testing.T) {
	var captured string
	l := logpp.New("app", logpp.Info, sinkFunc(func(name string, lvl level.Level, msg string) {
		captured = msg
	}))
	l.Info("hello")
	assert.Equal(t, "hello", captured)
}

func TestLoadBuildsHierarchicalRegistry(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "logpp.toml")
	writeConfig(t, path, `
[sinks.out]
type = "file"

[sinks.out.options]
path = "`+filepath.Join(dir, "app.log")+`"

[[loggers]]
name = "app"
level = "info"
sinks = ["out"]
default = true

[[loggers]]
name = "app.db"
level = "trace"
sinks = ["out"]
`)

	inst, err := logpp.Load(path)
	require.NoError(t, err)
	defer inst.Close()

	assert.Equal(t, level.Trace, inst.Get("app.db.query").Level())
	assert.Equal(t, level.Info, inst.Get("app.http").Level())
}

func TestWatchForChangesPicksUpNewLevel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "logpp.toml")
	logPath := filepath.Join(dir, "app.log")

	writeConfig(t, path, `
[sinks.out]
type = "file"

[sinks.out.options]
path = "`+logPath+`"

[[loggers]]
name = "app"
level = "info"
sinks = ["out"]
default = true
`)

	inst, err := logpp.Load(path)
	require.NoError(t, err)
	defer inst.Close()

	require.NoError(t, inst.WatchForChanges(path))

	writeConfig(t, path, `
[sinks.out]
type = "file"

[sinks.out.options]
path = "`+logPath+`"

[[loggers]]
name = "app"
level = "error"
sinks = ["out"]
default = true
`)

	assert.Eventually(t, func() bool {
		return inst.Get("app").Level() == level.Error
	}, 2*time.Second, 10*time.Millisecond)
}

type sinkFunc func(name string, lvl level.Level, msg string)

func (f sinkFunc) Write(name string, lvl level.Level, e *buffer.Event) {
	f(name, lvl, e.Message())
}
