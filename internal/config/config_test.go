package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

const validYAML = `
api:
  url: "https://amp.example.com"
  timeout: 10s
state_dir: "/var/lib/amp"
log_level: "debug"
bridge:
  addr: "127.0.0.1:7000"
tailscale:
  enabled: true
  hostname: "amp-laptop"
`

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

// TestLoadValid verifies that a well-formed YAML config loads with all fields populated.
func TestLoadValid(t *testing.T) {
	cfg, err := Load(writeTemp(t, "config.yaml", validYAML), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.API.URL != "https://amp.example.com" {
		t.Errorf("api.url = %q, want %q", cfg.API.URL, "https://amp.example.com")
	}
	if cfg.API.Timeout != 10*time.Second {
		t.Errorf("api.timeout = %v, want 10s", cfg.API.Timeout)
	}
	if cfg.StateDir != "/var/lib/amp" {
		t.Errorf("state_dir = %q, want %q", cfg.StateDir, "/var/lib/amp")
	}
	if cfg.Bridge.Addr != "127.0.0.1:7000" {
		t.Errorf("bridge.addr = %q, want %q", cfg.Bridge.Addr, "127.0.0.1:7000")
	}
	if !cfg.Tailscale.Enabled || cfg.Tailscale.Hostname != "amp-laptop" {
		t.Errorf("tailscale = %+v, want enabled with hostname amp-laptop", cfg.Tailscale)
	}
	if want := filepath.Join("/var/lib/amp", "tsnet"); cfg.Tailscale.StateDir != want {
		t.Errorf("tailscale.state_dir = %q, want %q", cfg.Tailscale.StateDir, want)
	}
	lvl, err := cfg.SlogLevel()
	if err != nil || lvl != slog.LevelDebug {
		t.Errorf("SlogLevel() = %v, %v, want debug", lvl, err)
	}
}

// TestLoadMissingFileUsesDefaults verifies that the client runs without any
// config file, pointing at the local development server.
func TestLoadMissingFileUsesDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load("/nonexistent/config.yaml", "/nonexistent/.env")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.API.URL != DefaultAPIURL {
		t.Errorf("api.url = %q, want %q", cfg.API.URL, DefaultAPIURL)
	}
	if cfg.API.Timeout != DefaultAPITimeout {
		t.Errorf("api.timeout = %v, want %v", cfg.API.Timeout, DefaultAPITimeout)
	}
	if want := filepath.Join(home, ".amp"); cfg.StateDir != want {
		t.Errorf("state_dir = %q, want %q", cfg.StateDir, want)
	}
	if cfg.Bridge.Addr != DefaultBridgeAddr {
		t.Errorf("bridge.addr = %q, want %q", cfg.Bridge.Addr, DefaultBridgeAddr)
	}
	if cfg.Tailscale.Enabled {
		t.Error("tailscale should be disabled by default")
	}
}

// TestEnvOverride verifies that AMP_ env vars take precedence over YAML values.
func TestEnvOverride(t *testing.T) {
	t.Setenv("AMP_API_URL", "http://10.0.0.5:5001")
	t.Setenv("AMP_API_TIMEOUT", "2s")
	t.Setenv("AMP_TAILSCALE_ENABLED", "false")

	cfg, err := Load(writeTemp(t, "config.yaml", validYAML), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.API.URL != "http://10.0.0.5:5001" {
		t.Errorf("api.url = %q, want %q", cfg.API.URL, "http://10.0.0.5:5001")
	}
	if cfg.API.Timeout != 2*time.Second {
		t.Errorf("api.timeout = %v, want 2s", cfg.API.Timeout)
	}
	if cfg.Tailscale.Enabled {
		t.Error("tailscale.enabled should be overridden to false")
	}
	// Unchanged fields should keep YAML values
	if cfg.Bridge.Addr != "127.0.0.1:7000" {
		t.Errorf("bridge.addr = %q, want %q", cfg.Bridge.Addr, "127.0.0.1:7000")
	}
}

// TestDotenvLegacyAPIURL verifies that a .env file with the plain API_URL
// variable still points the client at the right server.
func TestDotenvLegacyAPIURL(t *testing.T) {
	envFile := writeTemp(t, ".env", "API_URL=http://192.168.1.20:5001\n")

	cfg, err := Load("", envFile)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.API.URL != "http://192.168.1.20:5001" {
		t.Errorf("api.url = %q, want %q", cfg.API.URL, "http://192.168.1.20:5001")
	}
}

// TestProcessEnvBeatsDotenv verifies that variables exported in the shell win
// over the same variable in the .env file.
func TestProcessEnvBeatsDotenv(t *testing.T) {
	t.Setenv("AMP_LOG_LEVEL", "warn")
	envFile := writeTemp(t, ".env", "AMP_LOG_LEVEL=error\nAMP_BRIDGE_ADDR=0.0.0.0:9000\n")

	cfg, err := Load("", envFile)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("log_level = %q, want %q", cfg.LogLevel, "warn")
	}
	if cfg.Bridge.Addr != "0.0.0.0:9000" {
		t.Errorf("bridge.addr = %q, want %q", cfg.Bridge.Addr, "0.0.0.0:9000")
	}
}

// TestPrefixedURLBeatsLegacy verifies AMP_API_URL wins when both are set.
func TestPrefixedURLBeatsLegacy(t *testing.T) {
	t.Setenv("API_URL", "http://legacy:5001")
	t.Setenv("AMP_API_URL", "http://current:5001")

	cfg, err := Load("", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.API.URL != "http://current:5001" {
		t.Errorf("api.url = %q, want %q", cfg.API.URL, "http://current:5001")
	}
}

// TestValidation verifies that unusable values are rejected before the
// client tries to talk to anything.
func TestValidation(t *testing.T) {
	cases := map[string]string{
		"relative url":      "api:\n  url: \"localhost:5001\"\n",
		"ftp url":           "api:\n  url: \"ftp://example.com\"\n",
		"zero timeout":      "api:\n  timeout: 0s\n",
		"unknown log level": "log_level: \"chatty\"\n",
		"empty bridge addr": "bridge:\n  addr: \"\"\n",
		"tailscale no host": "tailscale:\n  enabled: true\n  hostname: \"\"\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeTemp(t, "config.yaml", content), ""); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

// TestInvalidEnvDuration verifies that a malformed duration in the
// environment is reported instead of silently ignored.
func TestInvalidEnvDuration(t *testing.T) {
	t.Setenv("AMP_API_TIMEOUT", "soon")

	if _, err := Load("", ""); err == nil {
		t.Fatal("expected error for malformed AMP_API_TIMEOUT")
	}
}

// TestLoadInvalidYAML verifies that a corrupt config file returns a clear error.
func TestLoadInvalidYAML(t *testing.T) {
	if _, err := Load(writeTemp(t, "config.yaml", "api: [unclosed"), ""); err == nil {
		t.Fatal("expected parse error")
	}
}
