package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Telegram.PollTimeout() != 30*time.Second {
		t.Errorf("PollTimeout = %s, want 30s", cfg.Telegram.PollTimeout())
	}
	if cfg.Telegram.PoolSize() != 8 {
		t.Errorf("PoolSize = %d, want 8", cfg.Telegram.PoolSize())
	}
	poll, backoff := cfg.Dispatch.Intervals()
	if poll != time.Second || backoff != 5*time.Second {
		t.Errorf("Intervals = %s, %s; want 1s, 5s", poll, backoff)
	}
	chain, err := cfg.FollowUpChain()
	if err != nil {
		t.Fatalf("FollowUpChain: %v", err)
	}
	if chain.Len() != 5 {
		t.Errorf("default chain has %d steps, want 5", chain.Len())
	}
}

func TestLoad_JSON5WithFollowUps(t *testing.T) {
	path := writeConfig(t, `{
		// comments and trailing commas are fine
		telegram: {token: "file-token", poll_timeout_sec: 10},
		dispatch: {poll_interval: "250ms"},
		followups: [
			{delay: "30s", message: "first"},
			{delay: "2m", message: "second"},
		],
	}`)
	t.Setenv("FOLLOWBOT_TELEGRAM_TOKEN", "")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Telegram.Token != "file-token" {
		t.Errorf("token = %q", cfg.Telegram.Token)
	}
	if cfg.Telegram.ReadTimeout() != 15*time.Second {
		t.Errorf("ReadTimeout = %s, want 15s", cfg.Telegram.ReadTimeout())
	}
	if poll, _ := cfg.Dispatch.Intervals(); poll != 250*time.Millisecond {
		t.Errorf("poll interval = %s", poll)
	}
	chain, err := cfg.FollowUpChain()
	if err != nil {
		t.Fatalf("FollowUpChain: %v", err)
	}
	delays := chain.Delays()
	if len(delays) != 2 || delays[0] != 30*time.Second || delays[1] != 2*time.Minute {
		t.Errorf("delays = %v", delays)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, `{"telegram": {"token": "file-token"}}`)
	t.Setenv("FOLLOWBOT_TELEGRAM_TOKEN", "env-token")
	t.Setenv("FOLLOWBOT_OPERATOR_MODE", "none")
	t.Setenv("FOLLOWBOT_TELEMETRY_ENABLED", "1")
	t.Setenv("FOLLOWBOT_TELEMETRY_HEADERS", "x-api-key=abc, x-team = ops")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Telegram.Token != "env-token" {
		t.Errorf("token = %q, want env-token", cfg.Telegram.Token)
	}
	if cfg.Operator.Mode != OperatorNone {
		t.Errorf("operator mode = %q", cfg.Operator.Mode)
	}
	if !cfg.Telemetry.Enabled {
		t.Error("telemetry not enabled from env")
	}
	if cfg.Telemetry.Headers["x-api-key"] != "abc" || cfg.Telemetry.Headers["x-team"] != "ops" {
		t.Errorf("headers = %v", cfg.Telemetry.Headers)
	}
}

func TestLoad_ParseError(t *testing.T) {
	path := writeConfig(t, `{telegram: `)
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "parse config") {
		t.Fatalf("err = %v, want parse error", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"missing token", func(c *Config) {}, "token is required"},
		{"bad operator", func(c *Config) { c.Telegram.Token = "t"; c.Operator.Mode = "robot" }, "operator mode"},
		{"bad delay", func(c *Config) {
			c.Telegram.Token = "t"
			c.FollowUps = []FollowUpStep{{Delay: "soon", Message: "x"}}
		}, "parse delay"},
		{"decreasing delays", func(c *Config) {
			c.Telegram.Token = "t"
			c.FollowUps = []FollowUpStep{{Delay: "1h", Message: "a"}, {Delay: "1m", Message: "b"}}
		}, "not after"},
		{"ok", func(c *Config) { c.Telegram.Token = "t" }, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("err = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestMaskedCopy(t *testing.T) {
	cfg := Default()
	cfg.Telegram.Token = "secret"
	cfg.Telemetry.Headers = map[string]string{"authorization": "Bearer x"}

	cp := cfg.MaskedCopy()
	if cp.Telegram.Token != secretMask || cp.Telemetry.Headers["authorization"] != secretMask {
		t.Fatalf("secrets not masked: %+v", cp)
	}
	if cfg.Telegram.Token != "secret" {
		t.Fatal("MaskedCopy modified the original")
	}
}
