package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultAPIURL     = "http://localhost:5001"
	DefaultAPITimeout = 5 * time.Second
	DefaultLogLevel   = "info"
	DefaultBridgeAddr = "127.0.0.1:5000"
	DefaultHostname   = "amp"

	envPrefix = "AMP_"
	// legacyAPIURL is the variable name older .env files use.
	legacyAPIURL = "API_URL"
)

type Config struct {
	API       APIConfig       `yaml:"api" envPrefix:"API_"`
	StateDir  string          `yaml:"state_dir" env:"STATE_DIR"`
	LogLevel  string          `yaml:"log_level" env:"LOG_LEVEL"`
	Bridge    BridgeConfig    `yaml:"bridge" envPrefix:"BRIDGE_"`
	Tailscale TailscaleConfig `yaml:"tailscale" envPrefix:"TAILSCALE_"`
}

type APIConfig struct {
	URL     string        `yaml:"url" env:"URL"`
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

type BridgeConfig struct {
	Addr string `yaml:"addr" env:"ADDR"`
}

// TailscaleConfig routes API traffic over a tailnet when Enabled.
type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled" env:"ENABLED"`
	Hostname string `yaml:"hostname" env:"HOSTNAME"`
	StateDir string `yaml:"state_dir" env:"STATE_DIR"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		API: APIConfig{
			URL:     DefaultAPIURL,
			Timeout: DefaultAPITimeout,
		},
		StateDir: "~/.amp",
		LogLevel: DefaultLogLevel,
		Bridge:   BridgeConfig{Addr: DefaultBridgeAddr},
		Tailscale: TailscaleConfig{
			Hostname: DefaultHostname,
		},
	}
}

// Load builds the config from defaults, an optional YAML file, an optional
// .env file and the process environment, in increasing precedence.
// Env vars use the prefix AMP_ and underscore-separated paths:
//
//	AMP_API_URL, AMP_API_TIMEOUT, AMP_STATE_DIR, AMP_LOG_LEVEL,
//	AMP_BRIDGE_ADDR, AMP_TAILSCALE_ENABLED, AMP_TAILSCALE_HOSTNAME,
//	AMP_TAILSCALE_STATE_DIR
//
// API_URL is honored when AMP_API_URL is not set. A missing YAML or .env
// file is not an error; an empty path skips the file.
func Load(path, dotenvPath string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("reading config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config file: %w", err)
			}
		}
	}

	environ, err := environment(dotenvPath)
	if err != nil {
		return nil, err
	}
	if err := applyEnvOverrides(cfg, environ); err != nil {
		return nil, err
	}

	if err := cfg.resolvePaths(); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// environment merges the .env file under the process environment. Variables
// already set in the process win.
func environment(dotenvPath string) (map[string]string, error) {
	environ := map[string]string{}
	if dotenvPath != "" {
		vars, err := godotenv.Read(dotenvPath)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("reading env file: %w", err)
		default:
			for k, v := range vars {
				environ[k] = v
			}
		}
	}
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			environ[k] = v
		}
	}
	return environ, nil
}

func applyEnvOverrides(cfg *Config, environ map[string]string) error {
	if _, ok := environ[envPrefix+"API_URL"]; !ok {
		if v := environ[legacyAPIURL]; v != "" {
			cfg.API.URL = v
		}
	}
	opts := env.Options{
		Prefix:      envPrefix,
		Environment: environ,
	}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return fmt.Errorf("parsing environment: %w", err)
	}
	return nil
}

func (c *Config) resolvePaths() error {
	dir, err := expandHome(c.StateDir)
	if err != nil {
		return err
	}
	c.StateDir = dir

	if c.Tailscale.StateDir == "" {
		c.Tailscale.StateDir = filepath.Join(c.StateDir, "tsnet")
	}
	c.Tailscale.StateDir, err = expandHome(c.Tailscale.StateDir)
	return err
}

func expandHome(p string) (string, error) {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~")), nil
}

func (c *Config) validate() error {
	u, err := url.Parse(c.API.URL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("api.url must be an absolute http(s) URL, got %q", c.API.URL)
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive")
	}
	if c.StateDir == "" {
		return fmt.Errorf("state_dir is required")
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	if c.Bridge.Addr == "" {
		return fmt.Errorf("bridge.addr is required")
	}
	if c.Tailscale.Enabled && c.Tailscale.Hostname == "" {
		return fmt.Errorf("tailscale.hostname is required when tailscale is enabled")
	}
	return nil
}

// SlogLevel parses LogLevel.
func (c *Config) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log_level %q: %w", c.LogLevel, err)
	}
	return lvl, nil
}
