package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaultsWithNoFile(t *testing.T) {
	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, 22225, cfg.GdbPort)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.True(t, cfg.EnableStandaloneGdbstub)
}

func TestLoadReadsYamlFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gdbstubd.yaml")
	require.NoError(t, os.WriteFile(path, []byte("gdb_port: 9999\nlog_level: debug\ntunnel: true\n"), 0o644))

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.GdbPort)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.Tunnel)
}

func TestLoadEnvironmentOverridesFile(t *testing.T) {
	t.Setenv("GDBSTUBD_GDB_PORT", "1234")

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, 1234, cfg.GdbPort)
}

func TestLogLevelValueDefaultsToInfo(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = "bogus"
	assert.Equal(t, 1, int(cfg.LogLevelValue()))
}

func TestWriteYAMLRoundTripsThroughLoad(t *testing.T) {
	cfg := Default()
	cfg.GdbPort = 4242
	cfg.LogLevel = "debug"

	var buf bytes.Buffer
	require.NoError(t, cfg.WriteYAML(&buf))

	dir := t.TempDir()
	path := filepath.Join(dir, "gdbstubd.yaml")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	got, err := Load(viper.New(), path)
	require.NoError(t, err)
	assert.Equal(t, 4242, got.GdbPort)
	assert.Equal(t, "debug", got.LogLevel)
}
