package unif

import (
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Option configures a Generator.
// Use helpers like WithIteration, WithElimination, WithDebugTag and
// WithLogger to customize the search.
type Option func(*config)

type config struct {
	iteration   bool
	elimination bool
	debugTag    string
	maxDepth    int
	logger      zerolog.Logger
	metrics     *Metrics
	tracer      trace.Tracer
}

func defaultConfig() config {
	return config{
		iteration: true,
		logger:    zerolog.Nop(),
		tracer:    otel.Tracer("github.com/gitrdm/gokanunify/pkg/unif"),
	}
}

// WithIteration enables or disables the Iteration rule on flex-flex
// equations. Disabling it shrinks the search space but loses unifiers that
// need a metavariable to call one of its functional arguments. Enabled by
// default.
func WithIteration(on bool) Option {
	return func(c *config) { c.iteration = on }
}

// WithElimination offers Elimination next to Decompose when a metavariable
// meets itself with different arguments. Off by default, in which case such
// equations are only decomposed.
func WithElimination(on bool) Option {
	return func(c *config) { c.elimination = on }
}

// WithDebugTag prefixes the branch tags of every problem. Tags only appear
// in logs and traces.
func WithDebugTag(tag string) Option {
	return func(c *config) { c.debugTag = tag }
}

// WithMaxDepth drops branches that took more than n rule applications.
// Zero means unlimited.
func WithMaxDepth(n int) Option {
	return func(c *config) { c.maxDepth = n }
}

// WithLogger sets the logger used to trace rule applications.
func WithLogger(l zerolog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithMetrics records search statistics in m.
func WithMetrics(m *Metrics) Option {
	return func(c *config) { c.metrics = m }
}

// WithTracer sets the tracer used for TakeWithRetry spans.
func WithTracer(t trace.Tracer) Option {
	return func(c *config) { c.tracer = t }
}
