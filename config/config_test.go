package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "nats://localhost:4222", cfg.NATS.URL)
	assert.Equal(t, DefaultTimeSignal, cfg.Handler.TimeSignal)

	d, err := cfg.DiscoveryTimeout()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, d)
}

func TestLoad_JSON(t *testing.T) {
	path := writeFile(t, "config.json", `{
		"nats": {"url": "nats://bus:4222"},
		"handler": {"discovery_timeout": "500ms", "time_signal": "data://world/test?p=sim_time"}
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "nats://bus:4222", cfg.NATS.URL)
	assert.Equal(t, "data://world/test?p=sim_time", cfg.Handler.TimeSignal)

	d, err := cfg.DiscoveryTimeout()
	require.NoError(t, err)
	assert.Equal(t, 500*time.Millisecond, d)

	// Omitted sections keep defaults
	assert.Equal(t, 9090, cfg.Metrics.Port)
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "config.yaml", `
nats:
  url: nats://bus:4222
handler:
  discovery_timeout: 3s
output:
  enabled: true
  port: 8090
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "nats://bus:4222", cfg.NATS.URL)
	assert.True(t, cfg.Output.Enabled)
	assert.Equal(t, 8090, cfg.Output.Port)

	d, err := cfg.DiscoveryTimeout()
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, d)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"bad json", "config.json", `{not json`},
		{"missing url", "config.json", `{"nats": {"url": ""}}`},
		{"bad duration", "config.json", `{"nats": {"url": "nats://x"}, "handler": {"discovery_timeout": "soon"}}`},
		{"negative duration", "config.json", `{"nats": {"url": "nats://x"}, "handler": {"discovery_timeout": "-1s"}}`},
		{"bad metrics port", "config.json", `{"nats": {"url": "nats://x"}, "metrics": {"enabled": true, "port": 99999}}`},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			path := writeFile(t, test.file, test.content)
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}
