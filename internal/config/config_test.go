package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wasp/internal/types"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Contains(t, cfg.Policy.DangerousTools, "exec")
	assert.Contains(t, cfg.Policy.DangerousTools, "Write")
	assert.Contains(t, cfg.Policy.SafeTools, "web_search")
	assert.False(t, cfg.Policy.DefaultDeny)
	assert.Equal(t, 60_000, cfg.RateLimit.WindowMs)
	assert.Equal(t, 100, cfg.RateLimit.MaxRequests)
	assert.Equal(t, 200, cfg.Canary.PreviewChars)
	assert.Equal(t, 100, cfg.Quarantine.PreviewChars)

	require.NoError(t, cfg.Validate())
}

func TestValidateSignatureGuard(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Signature.Enabled = true
	cfg.Signature.Signature = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrMisconfigured))

	cfg.Signature.Signature = "-- agent"
	require.NoError(t, cfg.Validate())

	cfg.Signature.Action = "rewrite"
	err = cfg.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrMisconfigured))
}

func TestValidateBounds(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"ZeroWindow", func(c *Config) { c.RateLimit.WindowMs = 0 }},
		{"ZeroMaxRequests", func(c *Config) { c.RateLimit.MaxRequests = 0 }},
		{"ThresholdHigh", func(c *Config) { c.Canary.Threshold = 1.5 }},
		{"ThresholdNegative", func(c *Config) { c.Canary.Threshold = -0.1 }},
		{"EmptyDataDir", func(c *Config) { c.DataDir = "" }},
		{"ZeroAuditMax", func(c *Config) { c.Server.AuditQueryMax = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, types.ErrMisconfigured))
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	content := []byte(`
policy:
  dangerous_tools: [exec, rm]
  default_deny: true
rate_limit:
  window_ms: 30000
  max_requests: 10
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), content, 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"exec", "rm"}, cfg.Policy.DangerousTools)
	assert.True(t, cfg.Policy.DefaultDeny)
	assert.Equal(t, 30000, cfg.RateLimit.WindowMs)
	assert.Equal(t, 10, cfg.RateLimit.MaxRequests)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.DataDir)
	assert.Equal(t, 100, cfg.RateLimit.MaxRequests)
}

func TestEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvAPIToken, "sekrit")
	t.Setenv(EnvListenAddr, "127.0.0.1:9999")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "sekrit", cfg.Server.APIToken)
	assert.Equal(t, "127.0.0.1:9999", cfg.Server.Addr)
}

func TestWriteDefaultIsIdempotent(t *testing.T) {
	dir := t.TempDir()

	path, err := WriteDefault(dir)
	require.NoError(t, err)
	first, err := os.ReadFile(path)
	require.NoError(t, err)

	// A second write must not clobber the existing file.
	require.NoError(t, os.WriteFile(path, []byte("data_dir: custom\n"), 0o644))
	_, err = WriteDefault(dir)
	require.NoError(t, err)
	second, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotEqual(t, string(first), string(second))
	assert.Equal(t, "data_dir: custom\n", string(second))
}
