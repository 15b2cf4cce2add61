package tracing

import (
	"context"
	"strings"
	"testing"

	"github.com/nextlevelbuilder/followbot/internal/config"
)

func TestSetup_DisabledIsNoop(t *testing.T) {
	shutdown, err := Setup(context.Background(), config.TelemetryConfig{})
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestSetup_RequiresEndpoint(t *testing.T) {
	_, err := Setup(context.Background(), config.TelemetryConfig{Enabled: true})
	if err == nil || !strings.Contains(err.Error(), "endpoint") {
		t.Fatalf("err = %v, want missing endpoint", err)
	}
}

func TestSetup_UnknownProtocol(t *testing.T) {
	_, err := Setup(context.Background(), config.TelemetryConfig{Enabled: true, Endpoint: "localhost:4317", Protocol: "udp"})
	if err == nil || !strings.Contains(err.Error(), "udp") {
		t.Fatalf("err = %v, want unknown protocol", err)
	}
}
