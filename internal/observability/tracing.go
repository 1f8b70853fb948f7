package observability

import (
	"strings"

	"github.com/riskibarqy/finboard/internal/config"
	"github.com/uptrace/uptrace-go/uptrace"
)

// startTracing installs the global OpenTelemetry providers. Shutdown flushes
// pending spans.
func (s *Stack) startTracing(cfg config.Config) error {
	if !cfg.UptraceEnabled || strings.TrimSpace(cfg.UptraceDSN) == "" {
		s.logger.Info("uptrace disabled")
		return nil
	}

	uptrace.ConfigureOpentelemetry(
		uptrace.WithDSN(cfg.UptraceDSN),
		uptrace.WithServiceName(cfg.ServiceName),
		uptrace.WithServiceVersion(cfg.ServiceVersion),
		uptrace.WithDeploymentEnvironment(cfg.AppEnv),
		uptrace.WithLoggingEnabled(cfg.UptraceLogsEnabled),
	)
	s.add("uptrace", uptrace.Shutdown)
	s.logger.Info("uptrace enabled", "logs_enabled", cfg.UptraceLogsEnabled)
	return nil
}
