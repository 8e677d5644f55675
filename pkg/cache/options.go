package cache

import (
	"log/slog"

	"github.com/MbazzaTZ/GOnSales/metric"
)

// Option configures Manager behavior using the functional options pattern.
type Option func(*managerOptions)

// managerOptions holds internal configuration for the Manager.
// Stats are always collected; Prometheus export is optional.
type managerOptions struct {
	logger     *slog.Logger
	metricsReg *metric.Registry
}

// WithLogger sets the structured logger used for degraded-path logging.
// If not provided, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(opts *managerOptions) {
		if logger != nil {
			opts.logger = logger
		}
	}
}

// WithMetrics enables Prometheus metrics export for each tier.
// If registry is nil, this option is ignored.
func WithMetrics(registry *metric.Registry) Option {
	return func(opts *managerOptions) {
		if registry != nil {
			opts.metricsReg = registry
		}
	}
}

// applyOptions applies functional options to the default configuration.
func applyOptions(options ...Option) *managerOptions {
	opts := &managerOptions{
		logger: slog.Default(),
	}

	for _, opt := range options {
		if opt != nil {
			opt(opts)
		}
	}

	return opts
}
