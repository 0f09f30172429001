package config_test

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/corelog/logpp/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherReloadsOnContentChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "logpp.toml")
	require.NoError(t, os.WriteFile(path, []byte(`[sinks.console]
type = "console"
`), 0644))

	var mu sync.Mutex
	var reloads int

	w, err := config.NewWatcher(path, func(doc *config.Document) {
		mu.Lock()
		reloads++
		mu.Unlock()
	})
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(path, []byte(`[sinks.console]
type = "file"

[sinks.console.options]
path = "`+filepath.Join(dir, "app.log")+`"
`), 0644))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return reloads == 1
	}, 2*time.Second, 10*time.Millisecond)

	// Writing the same content again must not trigger a second reload.
	require.NoError(t, os.WriteFile(path, []byte(`[sinks.console]
type = "file"

[sinks.console.options]
path = "`+filepath.Join(dir, "app.log")+`"
`), 0644))

	time.Sleep(100 * time.Millisecond)
	mu.Lock()
	assert.Equal(t, 1, reloads)
	mu.Unlock()
}
