package config_test

import (
	"testing"

	"github.com/corelog/logpp/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validDoc = `
[sinks.console]
type = "console"

[sinks.console.options]
pattern = "%v"

[sinks.app_file]
type = "rolling_file"
async = true
queue_capacity = 256

[sinks.app_file.options]
path = "${LOGPP_TEST_DIR}/app.log"
strategy = "size|10MB"

[[loggers]]
name = "app"
level = "info"
sinks = ["console", "app_file"]
default = true

[[loggers]]
name = "app.net.tls"
level = "debug"
sinks = ["console"]
`

func TestParseValidDocument(t *testing.T) {
	doc, err := config.Parse([]byte(validDoc))
	require.NoError(t, err)

	require.Contains(t, doc.Sinks, "console")
	assert.Equal(t, "console", doc.Sinks["console"].Type)

	require.Contains(t, doc.Sinks, "app_file")
	assert.True(t, doc.Sinks["app_file"].Async)
	assert.Equal(t, 256, doc.Sinks["app_file"].QueueCapacity)

	require.Len(t, doc.Loggers, 2)
	assert.Equal(t, "app", doc.Loggers[0].Name)
	assert.True(t, doc.Loggers[0].Default)
}

func TestExpandEnvRewritesOptionValues(t *testing.T) {
	t.Setenv("LOGPP_TEST_DIR", "/var/log/myapp")

	doc, err := config.Parse([]byte(validDoc))
	require.NoError(t, err)

	config.ExpandEnv(doc)
	assert.Equal(t, "/var/log/myapp/app.log", doc.Sinks["app_file"].Options["path"])
}

func TestParseMalformedDocumentReturnsConfigError(t *testing.T) {
	_, err := config.Parse([]byte("this = is = not = toml"))
	require.Error(t, err)
}
