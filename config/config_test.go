package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	v, err := New("")
	require.NoError(t, err)
	c, err := FromViper(v)
	require.NoError(t, err)

	assert.Equal(t, "warn", c.LogLevel)
	assert.Equal(t, "text", c.LogFormat)
	assert.Equal(t, int64(0), c.Seed)
	assert.Empty(t, c.JournalPath)
	assert.Contains(t, c.SaveDir, filepath.Join(".kingdomcore", "saves"))
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kingdomcore.yaml")
	require.NoError(t, os.WriteFile(path, []byte("content_dir: games/stolen-lands\nseed: 42\nlog_format: json\n"), 0o644))

	v, err := New(path)
	require.NoError(t, err)
	c, err := FromViper(v)
	require.NoError(t, err)

	assert.Equal(t, "games/stolen-lands", c.ContentDir)
	assert.Equal(t, filepath.Join("games/stolen-lands", "kingdom.yaml"), c.KingdomFile)
	assert.Equal(t, int64(42), c.Seed)
	assert.Equal(t, "json", c.LogFormat)
}

func TestEnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("KINGDOMCORE_SEED", "7")
	t.Setenv("KINGDOMCORE_LOG_LEVEL", "DEBUG")

	v, err := New("")
	require.NoError(t, err)
	c, err := FromViper(v)
	require.NoError(t, err)

	assert.Equal(t, int64(7), c.Seed)
	assert.Equal(t, "debug", c.LogLevel)
}

func TestMissingExplicitFile(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestFromViper_Invalid(t *testing.T) {
	t.Chdir(t.TempDir())

	v, err := New("")
	require.NoError(t, err)
	v.Set(KeyLogLevel, "chatty")
	_, err = FromViper(v)
	assert.ErrorContains(t, err, "unknown log level")

	v.Set(KeyLogLevel, "info")
	v.Set(KeyLogFormat, "xml")
	_, err = FromViper(v)
	assert.ErrorContains(t, err, "unknown log format")
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	c := Config{LogLevel: "info", LogFormat: "json"}
	log := c.Logger(&buf)
	log.Debug("hidden")
	log.Info("shown", "k", 1)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
}
