package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	m, err := NewManagerFromPath(t.TempDir())
	require.NoError(t, err)

	c := m.Get()
	assert.Equal(t, 50, c.MaxIterations)
	assert.Equal(t, "info", c.LogLevel)
	assert.Equal(t, "127.0.0.1", c.Server.Host)
	assert.Equal(t, 8420, c.Server.Port)
	assert.True(t, c.Server.EnableCORS)
	assert.False(t, c.Metrics.Enabled)
	assert.Equal(t, 9090, c.Metrics.PrometheusPort)
	assert.False(t, c.Tracing.Enabled)
	assert.Empty(t, m.ConfigFileUsed())
}

func TestFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	content := []byte(`
max_iterations: 10
recipient: cook@example.com
server:
  port: 9000
metrics:
  enabled: true
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), content, 0o644))

	m, err := NewManagerFromPath(dir)
	require.NoError(t, err)

	c := m.Get()
	assert.Equal(t, 10, c.MaxIterations)
	assert.Equal(t, "cook@example.com", c.Recipient)
	assert.Equal(t, 9000, c.Server.Port)
	assert.True(t, c.Metrics.Enabled)
	// Untouched keys keep their defaults
	assert.Equal(t, "127.0.0.1", c.Server.Host)
	assert.NotEmpty(t, m.ConfigFileUsed())
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	content := []byte("max_iterations: 10\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), content, 0o644))

	t.Setenv("SOUSCHEF_MAX_ITERATIONS", "7")
	t.Setenv("SOUSCHEF_RECIPIENT", "env@example.com")

	m, err := NewManagerFromPath(dir)
	require.NoError(t, err)

	c := m.Get()
	assert.Equal(t, 7, c.MaxIterations)
	assert.Equal(t, "env@example.com", c.Recipient)
}

func TestMalformedFileFails(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(":\n  - bad"), 0o644))

	_, err := NewManagerFromPath(dir)
	assert.Error(t, err)
}

func TestValidation(t *testing.T) {
	t.Setenv("SOUSCHEF_MAX_ITERATIONS", "0")
	_, err := NewManagerFromPath(t.TempDir())
	assert.ErrorContains(t, err, "max_iterations")
}

func TestSet(t *testing.T) {
	m, err := NewManagerFromPath(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, m.Set("max_iterations", 5))
	assert.Equal(t, 5, m.Get().MaxIterations)

	assert.Error(t, m.Set("server.port", 0))
	// Failed Set leaves the loaded config untouched
	assert.Equal(t, 8420, m.Get().Server.Port)
}
