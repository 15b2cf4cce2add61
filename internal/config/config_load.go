package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/titanous/json5"
)

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Telegram: TelegramConfig{
			PollTimeoutSec:    30,
			ConnectTimeoutSec: 5,
			ReadTimeoutSec:    5,
			MaxIdleConns:      8,
		},
		Dispatch: DispatchConfig{
			PollInterval: "1s",
			ErrorBackoff: "5s",
		},
		Outbound: OutboundConfig{
			RatePerSec:    25,
			Burst:         5,
			PerChatPerSec: 1,
		},
		Operator: OperatorConfig{
			Mode: OperatorTerminal,
		},
		Telemetry: TelemetryConfig{
			Protocol:    "grpc",
			ServiceName: "followbot",
		},
	}
}

// Load reads config from a JSON5 file, then overlays env vars.
// A missing file yields the defaults plus env overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err == nil {
		if err := json5.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// applyEnvOverrides overlays env vars onto the config.
// Env vars take precedence over file values.
func (c *Config) applyEnvOverrides() {
	envStr := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	envInt := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				*dst = n
			}
		}
	}
	envBool := func(key string, dst *bool) {
		if v := os.Getenv(key); v != "" {
			*dst = v == "true" || v == "1"
		}
	}

	envStr("FOLLOWBOT_TELEGRAM_TOKEN", &c.Telegram.Token)
	envStr("FOLLOWBOT_TELEGRAM_PROXY", &c.Telegram.Proxy)
	envStr("FOLLOWBOT_TELEGRAM_API_SERVER", &c.Telegram.APIServer)
	envInt("FOLLOWBOT_POLL_TIMEOUT_SEC", &c.Telegram.PollTimeoutSec)
	envInt("FOLLOWBOT_MAX_IDLE_CONNS", &c.Telegram.MaxIdleConns)

	envStr("FOLLOWBOT_POLL_INTERVAL", &c.Dispatch.PollInterval)
	envStr("FOLLOWBOT_ERROR_BACKOFF", &c.Dispatch.ErrorBackoff)

	envStr("FOLLOWBOT_OPERATOR_MODE", &c.Operator.Mode)

	// Telemetry
	envBool("FOLLOWBOT_TELEMETRY_ENABLED", &c.Telemetry.Enabled)
	envStr("FOLLOWBOT_TELEMETRY_ENDPOINT", &c.Telemetry.Endpoint)
	envStr("FOLLOWBOT_TELEMETRY_PROTOCOL", &c.Telemetry.Protocol)
	envStr("FOLLOWBOT_TELEMETRY_SERVICE_NAME", &c.Telemetry.ServiceName)
	envBool("FOLLOWBOT_TELEMETRY_INSECURE", &c.Telemetry.Insecure)

	// Extra OTLP headers: "k1=v1,k2=v2"
	if v := os.Getenv("FOLLOWBOT_TELEMETRY_HEADERS"); v != "" {
		if c.Telemetry.Headers == nil {
			c.Telemetry.Headers = make(map[string]string)
		}
		for _, pair := range strings.Split(v, ",") {
			k, val, ok := strings.Cut(pair, "=")
			if ok && strings.TrimSpace(k) != "" {
				c.Telemetry.Headers[strings.TrimSpace(k)] = strings.TrimSpace(val)
			}
		}
	}
}

const secretMask = "***"

// MaskedCopy returns a deep copy of the config with secret fields masked.
// Used when printing the effective config.
func (c *Config) MaskedCopy() *Config {
	c.mu.RLock()
	defer c.mu.RUnlock()

	// Deep copy via JSON round-trip
	data, err := json.Marshal(c)
	if err != nil {
		return &Config{}
	}
	cp := Default()
	if err := json.Unmarshal(data, cp); err != nil {
		return &Config{}
	}

	maskNonEmpty(&cp.Telegram.Token)
	for k := range cp.Telemetry.Headers {
		cp.Telemetry.Headers[k] = secretMask
	}
	return cp
}

func maskNonEmpty(s *string) {
	if *s != "" {
		*s = secretMask
	}
}
