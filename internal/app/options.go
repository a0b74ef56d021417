package service

import (
	"go.opentelemetry.io/otel/trace"

	"github.com/cesarion161/clawgic/internal/domain/engine"
	"github.com/cesarion161/clawgic/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service and the components it builds.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithVoter replaces the simulated voter built from the config.
func WithVoter(v engine.Voter) Option {
	return func(s *Service) {
		if v != nil {
			s.voter = v
		}
	}
}

// WithTracer sets the tracer used for round spans.
func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}
