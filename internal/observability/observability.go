// Package observability starts the optional telemetry sidecars of the API
// process: Uptrace tracing, Pyroscope profiling and a private pprof listener.
package observability

import (
	"context"
	"errors"
	"fmt"

	"github.com/riskibarqy/finboard/internal/config"
	"github.com/riskibarqy/finboard/internal/platform/logging"
)

type component struct {
	name string
	stop func(context.Context) error
}

// Stack owns the components that were enabled at start.
type Stack struct {
	logger     *logging.Logger
	components []component
	pprofAddr  string
}

func Start(cfg config.Config, logger *logging.Logger) (*Stack, error) {
	if logger == nil {
		logger = logging.Default()
	}
	s := &Stack{logger: logger}

	for _, start := range []func(config.Config) error{s.startTracing, s.startProfiling, s.startPprof} {
		if err := start(cfg); err != nil {
			_ = s.Shutdown(context.Background())
			return nil, err
		}
	}
	return s, nil
}

// Enabled lists the running components in start order.
func (s *Stack) Enabled() []string {
	names := make([]string, 0, len(s.components))
	for _, c := range s.components {
		names = append(names, c.name)
	}
	return names
}

// Shutdown stops components in reverse start order and reports every
// failure.
func (s *Stack) Shutdown(ctx context.Context) error {
	var errs []error
	for i := len(s.components) - 1; i >= 0; i-- {
		c := s.components[i]
		if err := c.stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("stop %s: %w", c.name, err))
			continue
		}
		s.logger.Info("telemetry component stopped", "component", c.name)
	}
	s.components = nil
	return errors.Join(errs...)
}

func (s *Stack) add(name string, stop func(context.Context) error) {
	s.components = append(s.components, component{name: name, stop: stop})
}
