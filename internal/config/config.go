// Package config loads and validates WASP configuration.
// Configuration is read once at startup; the resulting value is passed to
// the store opener, the policy engine, and the gateway, and is immutable
// thereafter. The adapter never mutates process environment to convey
// settings.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"wasp/internal/types"
)

// Env variable names recognized at load time.
const (
	EnvDataDir    = "WASP_DATA_DIR"
	EnvAPIToken   = "WASP_API_TOKEN"
	EnvListenAddr = "WASP_LISTEN_ADDR"
)

// ConfigFileName is the YAML file looked up inside the data directory.
const ConfigFileName = "config.yaml"

// Config holds all gateway configuration.
type Config struct {
	// DataDir is the persistent state directory (default ~/.wasp).
	DataDir string `yaml:"data_dir"`

	Policy     PolicyConfig     `yaml:"policy"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
	Canary     CanaryConfig     `yaml:"canary"`
	Quarantine QuarantineConfig `yaml:"quarantine"`
	Signature  SignatureConfig  `yaml:"signature"`
	Server     ServerConfig     `yaml:"server"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// PolicyConfig configures the tool access engine.
type PolicyConfig struct {
	DangerousTools []string `yaml:"dangerous_tools"`
	SafeTools      []string `yaml:"safe_tools"`

	// DefaultDeny flips the unlisted-tool posture from allow to block.
	DefaultDeny bool `yaml:"default_deny"`
}

// RateLimitConfig configures the sliding-window limiter used by the
// admin façade's /check endpoint.
type RateLimitConfig struct {
	WindowMs    int `yaml:"window_ms"`
	MaxRequests int `yaml:"max_requests"`
}

// Window returns the configured window as a duration.
func (r RateLimitConfig) Window() time.Duration {
	return time.Duration(r.WindowMs) * time.Millisecond
}

// CanaryConfig configures the injection heuristic.
type CanaryConfig struct {
	// Threshold is the minimum score at which a telemetry row persists.
	Threshold float64 `yaml:"threshold"`
	// PreviewChars bounds the stored message preview.
	PreviewChars int `yaml:"preview_chars"`
}

// QuarantineConfig configures hold-and-review for blocked inbound.
type QuarantineConfig struct {
	// Enabled selects quarantine as the default action on blocked inbound.
	Enabled      bool `yaml:"enabled"`
	PreviewChars int  `yaml:"preview_chars"`
}

// SignatureConfig configures the outbound signature guard.
type SignatureConfig struct {
	Enabled         bool     `yaml:"enabled"`
	Signature       string   `yaml:"signature"`
	SignaturePrefix string   `yaml:"signature_prefix"`
	Action          string   `yaml:"action"` // append or block
	Channels        []string `yaml:"channels"`
}

// ServerConfig configures the admin HTTP façade.
type ServerConfig struct {
	Addr string `yaml:"addr"`
	// APIToken is populated from WASP_API_TOKEN, never from the file.
	APIToken string `yaml:"-"`
	// AuditQueryMax clamps the /audit limit parameter.
	AuditQueryMax int `yaml:"audit_query_max"`
}

// LoggingConfig configures the category file logger.
type LoggingConfig struct {
	Debug bool   `yaml:"debug"`
	Level string `yaml:"level"` // debug, info, warn, error
}

// DefaultConfig returns the default configuration. The tool lists mirror
// the documented policy constants.
func DefaultConfig() *Config {
	return &Config{
		DataDir: defaultDataDir(),
		Policy: PolicyConfig{
			DangerousTools: []string{"exec", "write", "message", "gateway", "Edit", "Write"},
			SafeTools:      []string{"web_search", "memory_search", "Read", "session_status"},
		},
		RateLimit: RateLimitConfig{
			WindowMs:    60_000,
			MaxRequests: 100,
		},
		Canary: CanaryConfig{
			Threshold:    0.4,
			PreviewChars: 200,
		},
		Quarantine: QuarantineConfig{
			Enabled:      true,
			PreviewChars: 100,
		},
		Signature: SignatureConfig{
			Action: "append",
		},
		Server: ServerConfig{
			Addr:          "127.0.0.1:8790",
			AuditQueryMax: 1000,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// defaultDataDir resolves ~/.wasp, falling back to a relative directory
// when the home directory cannot be determined.
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".wasp"
	}
	return filepath.Join(home, ".wasp")
}

// Load builds the effective configuration: defaults, then the YAML file
// in the data directory (if present), then environment overrides, then
// validation. A missing config file is not an error.
func Load(dataDirFlag string) (*Config, error) {
	cfg := DefaultConfig()

	if dataDirFlag != "" {
		cfg.DataDir = dataDirFlag
	}
	if env := os.Getenv(EnvDataDir); env != "" && dataDirFlag == "" {
		cfg.DataDir = env
	}

	path := filepath.Join(cfg.DataDir, ConfigFileName)
	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("%w: parse %s: %v", types.ErrInvalidInput, ConfigFileName, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: read config: %v", types.ErrStorageFailure, err)
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if token := os.Getenv(EnvAPIToken); token != "" {
		c.Server.APIToken = token
	}
	if addr := os.Getenv(EnvListenAddr); addr != "" {
		c.Server.Addr = addr
	}
}

// Validate enforces the misconfiguration contract: invalid settings fail
// here, before any request is accepted.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("%w: data directory is empty", types.ErrMisconfigured)
	}
	if c.Signature.Enabled && c.Signature.Signature == "" {
		return fmt.Errorf("%w: signature guard enabled without a signature", types.ErrMisconfigured)
	}
	switch c.Signature.Action {
	case "", "append", "block":
	default:
		return fmt.Errorf("%w: signature action %q (want append or block)", types.ErrMisconfigured, c.Signature.Action)
	}
	if c.RateLimit.WindowMs <= 0 {
		return fmt.Errorf("%w: rate limit window must be positive", types.ErrMisconfigured)
	}
	if c.RateLimit.MaxRequests <= 0 {
		return fmt.Errorf("%w: rate limit max requests must be positive", types.ErrMisconfigured)
	}
	if c.Canary.Threshold < 0 || c.Canary.Threshold > 1 {
		return fmt.Errorf("%w: canary threshold %v outside [0,1]", types.ErrMisconfigured, c.Canary.Threshold)
	}
	if c.Canary.PreviewChars <= 0 {
		return fmt.Errorf("%w: canary preview length must be positive", types.ErrMisconfigured)
	}
	if c.Quarantine.PreviewChars <= 0 {
		return fmt.Errorf("%w: quarantine preview length must be positive", types.ErrMisconfigured)
	}
	if c.Server.AuditQueryMax <= 0 {
		return fmt.Errorf("%w: audit query max must be positive", types.ErrMisconfigured)
	}
	return nil
}

// DatabasePath returns the location of the embedded database file.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "wasp.db")
}

// WriteDefault writes a commented default config file into the data
// directory. Used by `wasp init`; existing files are left alone.
func WriteDefault(dataDir string) (string, error) {
	path := filepath.Join(dataDir, ConfigFileName)
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	cfg := DefaultConfig()
	cfg.DataDir = dataDir
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("%w: marshal defaults: %v", types.ErrStorageFailure, err)
	}

	header := "# WASP configuration. Values here are read once at startup.\n" +
		"# The API token is never read from this file; set " + EnvAPIToken + ".\n"
	if err := os.WriteFile(path, append([]byte(header), out...), 0o644); err != nil {
		return "", fmt.Errorf("%w: write %s: %v", types.ErrStorageFailure, ConfigFileName, err)
	}
	return path, nil
}
