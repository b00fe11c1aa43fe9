package authc

import "go.opentelemetry.io/otel/trace"

// Option customizes the Authenticator created by NewAuthenticator
type Option func(*authenticator)

// WithStrategy overrides the default AllSuccessful strategy.
// The strategy is only consulted when two or more realms are configured.
func WithStrategy(strategy Strategy) Option {
	return func(c *authenticator) {
		if strategy != nil {
			c.strategy = strategy
		}
	}
}

// WithInfoFactory overrides how the aggregate info of a multi-realm attempt
// is created. Pair it with WithMerger unless the factory returns a
// *SimpleAuthenticationInfo.
func WithInfoFactory(factory InfoFactory) Option {
	return func(c *authenticator) {
		if factory != nil {
			c.factory = factory
		}
	}
}

// WithMerger overrides how a single realm's info is merged into the aggregate
func WithMerger(merger Merger) Option {
	return func(c *authenticator) {
		if merger != nil {
			c.merger = merger
		}
	}
}

// WithMetrics records attempts into metrics
func WithMetrics(metrics Metrics) Option {
	return func(c *authenticator) {
		c.metrics = metrics
	}
}

// WithTracer replaces the tracer obtained from the global otel provider
func WithTracer(tracer trace.Tracer) Option {
	return func(c *authenticator) {
		if tracer != nil {
			c.tracer = tracer
		}
	}
}
