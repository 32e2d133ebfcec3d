// Package observability wires OpenTelemetry tracing into Genkit's
// tracer provider. Spans are exported over OTLP HTTP to a local
// collector agent, which handles authentication and forwarding.
package observability

import (
	"context"
	"log/slog"
	"os"

	"github.com/firebase/genkit/go/core/tracing"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// DefaultAgentHost is the default OTLP HTTP endpoint of the local
// collector agent.
const DefaultAgentHost = "localhost:4318"

// Config for trace export.
type Config struct {
	// AgentHost is the collector's OTLP HTTP endpoint.
	AgentHost string
	// Environment tags spans with the deployment environment.
	Environment string
	// ServiceName is the name shown in the APM backend.
	ServiceName string
}

// Setup registers an OTLP exporter with Genkit's tracer provider so
// every completion, tool call and flow span reaches the collector.
// The returned shutdown flushes pending spans. Export setup failures
// disable tracing instead of failing startup; a chat engine must come
// up even when the local agent is down.
func Setup(ctx context.Context, cfg Config, logger *slog.Logger) (shutdown func(context.Context) error, err error) {
	if logger == nil {
		logger = slog.Default()
	}
	agentHost := cfg.AgentHost
	if agentHost == "" {
		agentHost = DefaultAgentHost
	}

	// Genkit's TracerProvider reads the service identity from the
	// standard OTEL environment variables.
	if cfg.ServiceName != "" {
		_ = os.Setenv("OTEL_SERVICE_NAME", cfg.ServiceName)
	}
	if cfg.Environment != "" {
		_ = os.Setenv("OTEL_RESOURCE_ATTRIBUTES", "deployment.environment="+cfg.Environment)
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(agentHost),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		logger.Warn("failed to create trace exporter, tracing disabled", "error", err)
		return func(context.Context) error { return nil }, nil
	}

	processor := sdktrace.NewBatchSpanProcessor(exporter)
	tracing.TracerProvider().RegisterSpanProcessor(processor)

	logger.Debug("tracing enabled",
		"agent", agentHost,
		"service", cfg.ServiceName,
		"environment", cfg.Environment)

	return tracing.TracerProvider().Shutdown, nil
}
