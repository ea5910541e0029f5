package host_test

import (
	"testing"

	"github.com/blueprintapi/blueprint/pkg/contracts"
	"github.com/blueprintapi/blueprint/pkg/host"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg := host.LoadConfig()
	if cfg.Port != 8080 {
		t.Fatalf("got port %d, want 8080", cfg.Port)
	}
	if cfg.Optimization != contracts.Release {
		t.Fatalf("got optimization %q, want %q", cfg.Optimization, contracts.Release)
	}
	if cfg.Strategy != contracts.InMemory {
		t.Fatalf("got strategy %q, want %q", cfg.Strategy, contracts.InMemory)
	}
	if cfg.Telemetry.Enabled {
		t.Fatal("expected telemetry disabled by default")
	}
}

func TestLoadConfigReadsEnvOverrides(t *testing.T) {
	t.Setenv("BLUEPRINT_PORT", "9090")
	t.Setenv("BLUEPRINT_ASSEMBLY_NAME", "acme-generated")
	t.Setenv("BLUEPRINT_OPTIMIZATION", string(contracts.Debug))
	t.Setenv("BLUEPRINT_COMPILE_STRATEGY", string(contracts.ToDisk))
	t.Setenv("OTEL_ENABLED", "true")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "collector:4317")
	t.Setenv("OTEL_SERVICE_NAME", "acme")

	cfg := host.LoadConfig()
	if cfg.Port != 9090 {
		t.Fatalf("got port %d, want 9090", cfg.Port)
	}
	if cfg.AssemblyName != "acme-generated" {
		t.Fatalf("got assembly name %q", cfg.AssemblyName)
	}
	if cfg.Optimization != contracts.Debug {
		t.Fatalf("got optimization %q, want %q", cfg.Optimization, contracts.Debug)
	}
	if cfg.Strategy != contracts.ToDisk {
		t.Fatalf("got strategy %q, want %q", cfg.Strategy, contracts.ToDisk)
	}
	if !cfg.Telemetry.Enabled {
		t.Fatal("expected telemetry enabled")
	}
	if cfg.Telemetry.OTLPEndpoint != "collector:4317" {
		t.Fatalf("got endpoint %q", cfg.Telemetry.OTLPEndpoint)
	}
	if cfg.Telemetry.ServiceName != "acme" {
		t.Fatalf("got service name %q", cfg.Telemetry.ServiceName)
	}
}

func TestLoadConfigIgnoresUnparsablePort(t *testing.T) {
	t.Setenv("BLUEPRINT_PORT", "not-a-number")
	cfg := host.LoadConfig()
	if cfg.Port != 8080 {
		t.Fatalf("got port %d, want fallback 8080", cfg.Port)
	}
}
