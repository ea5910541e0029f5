package host

import (
	"os"
	"strconv"

	"github.com/blueprintapi/blueprint/pkg/contracts"
)

// Config holds the host's own ambient configuration — everything outside
// the operation catalog itself. Grounded on the teacher's config.Load():
// env vars read once at startup with sensible defaults, no external config
// file or flag parser.
type Config struct {
	Port int

	// AssemblyName identifies the closed set of generated executors
	// compiled together, per spec.md §6.
	AssemblyName string

	Optimization contracts.OptimizationLevel
	Strategy     contracts.CompileStrategy

	Telemetry TelemetryConfig
}

// TelemetryConfig controls the OTel span wrapping the compile step.
type TelemetryConfig struct {
	Enabled      bool
	OTLPEndpoint string
	ServiceName  string
}

// LoadConfig reads Config from environment variables, falling back to
// development-friendly defaults.
func LoadConfig() *Config {
	return &Config{
		Port:         envInt("BLUEPRINT_PORT", 8080),
		AssemblyName: envStr("BLUEPRINT_ASSEMBLY_NAME", "blueprint-generated"),
		Optimization: contracts.OptimizationLevel(envStr("BLUEPRINT_OPTIMIZATION", string(contracts.Release))),
		Strategy:     contracts.CompileStrategy(envStr("BLUEPRINT_COMPILE_STRATEGY", string(contracts.InMemory))),
		Telemetry: TelemetryConfig{
			Enabled:      envBool("OTEL_ENABLED", false),
			OTLPEndpoint: envStr("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			ServiceName:  envStr("OTEL_SERVICE_NAME", "blueprint"),
		},
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
