package telemetry

import (
	"context"
	"testing"

	"github.com/radbot/gateway/internal/config"
)

func TestInit_DisabledInstallsNoopProvider(t *testing.T) {
	shutdown, err := Init(context.Background(), config.TelemetryConfig{Enabled: false})
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if shutdown == nil {
		t.Fatal("expected a non-nil Shutdown even when disabled")
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("no-op shutdown returned error: %v", err)
	}

	// Start/End must still work with nothing installed.
	_, span := StartSpan(context.Background(), "test-span")
	span.End()
}

func TestInit_EnabledWithoutEndpointErrors(t *testing.T) {
	_, err := Init(context.Background(), config.TelemetryConfig{Enabled: true})
	if err == nil {
		t.Error("expected error when telemetry is enabled with no endpoint")
	}
}

func TestInit_EnabledWithEndpointInstallsProvider(t *testing.T) {
	shutdown, err := Init(context.Background(), config.TelemetryConfig{
		Enabled:  true,
		Endpoint: "localhost:4317",
		Protocol: "grpc",
		Insecure: true,
	})
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer shutdown(context.Background())

	_, span := StartSpan(context.Background(), "test-span")
	span.End()
}
