package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "localhost", cfg.Server)
	assert.Equal(t, "root", cfg.RootIdentity)
	assert.Equal(t, 30*time.Minute, cfg.Interval)
	assert.Equal(t, "ipptool", cfg.Tools.IPPTool)
	assert.Equal(t, "lpadmin", cfg.AdminTools().LPAdmin)
	assert.Equal(t, "root", cfg.ReconcilerOptions().RootIdentity)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "printq.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server: cups.example.com:631
root_identity: lpadmin
interval: 1h
json_logs: true
tools:
  ipptool: /opt/cups/bin/ipptool
`), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "cups.example.com:631", cfg.Server)
	assert.Equal(t, "lpadmin", cfg.RootIdentity)
	assert.Equal(t, time.Hour, cfg.Interval)
	assert.True(t, cfg.JSONLogs)

	opts := cfg.IPPOptions()
	assert.Equal(t, "/opt/cups/bin/ipptool", opts.Tool)
	assert.Equal(t, "cups.example.com:631", opts.Server)
	// untouched keys keep their defaults
	assert.Equal(t, "cupsenable", cfg.Tools.CupsEnable)
	assert.Equal(t, "/var/lib/printq", cfg.DataDir)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"empty server", func(c *Config) { c.Server = "" }, "server must not be empty"},
		{"bad server", func(c *Config) { c.Server = "ipp://cups" }, "not host[:port]"},
		{"relative data dir", func(c *Config) { c.DataDir = "data" }, "absolute path"},
		{"short interval", func(c *Config) { c.Interval = time.Second }, "shorter than one minute"},
		{"log level", func(c *Config) { c.LogLevel = "trace" }, "unknown log_level"},
		{"root identity", func(c *Config) { c.RootIdentity = "" }, "root_identity"},
		{"tool path", func(c *Config) { c.Tools.LPAdmin = "" }, "tools.lpadmin"},
		{"keep reports", func(c *Config) { c.KeepReports = -1 }, "keep_reports"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
