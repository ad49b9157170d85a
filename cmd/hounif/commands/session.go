package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/gitrdm/gokanunify/internal/config"
	"github.com/gitrdm/gokanunify/internal/telemetry"
	"github.com/gitrdm/gokanunify/pkg/kernel"
	"github.com/gitrdm/gokanunify/pkg/unif"
)

// session holds what one command invocation shares across problem files.
type session struct {
	opts     *globalOptions
	logger   zerolog.Logger
	tracer   *telemetry.Tracer
	registry *prometheus.Registry
	metrics  *unif.Metrics
}

func newSession(opts *globalOptions, stderr io.Writer) (*session, error) {
	tracer, err := telemetry.NewTracer(stderr, opts.trace, unif.Version)
	if err != nil {
		return nil, err
	}
	reg := prometheus.NewRegistry()
	m, err := unif.NewMetrics(reg, "hounif")
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}
	return &session{
		opts:     opts,
		logger:   telemetry.NewLogger(zerolog.SyncWriter(stderr), opts.logLevel, true),
		tracer:   tracer,
		registry: reg,
		metrics:  m,
	}, nil
}

// close flushes spans and, when asked for, prints the metrics to w.
func (s *session) close(ctx context.Context, w io.Writer) error {
	if err := s.tracer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to flush traces: %w", err)
	}
	if !s.opts.metrics {
		return nil
	}
	families, err := s.registry.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}

// report is the outcome of solving one problem file.
type report struct {
	File      string           `json:"file"`
	RunID     string           `json:"run_id,omitempty"`
	Solutions []solutionReport `json:"solutions"`
	Exhausted bool             `json:"exhausted"`
	Stats     unif.Stats       `json:"stats"`
	Error     string           `json:"error,omitempty"`

	err error
}

type solutionReport struct {
	Branch      string            `json:"branch"`
	Depth       int               `json:"depth"`
	Assignments map[string]string `json:"assignments"`
	text        string
}

// solveFile loads path and collects up to limit solutions, or the number
// the file asks for when limit is zero.
func (s *session) solveFile(ctx context.Context, path string, limit int) report {
	rep := report{File: path, Solutions: []solutionReport{}}
	ctx, span := s.tracer.Start(ctx, "hounif.solve", attribute.String("file", path))
	defer span.End()
	fail := func(err error) report {
		telemetry.RecordError(span, err)
		rep.err = err
		rep.Error = err.Error()
		return rep
	}

	f, err := config.Load(path)
	if err != nil {
		return fail(err)
	}
	prob, err := f.Build()
	if err != nil {
		return fail(fmt.Errorf("%s: %w", path, err))
	}
	if limit <= 0 {
		limit = prob.Options.Solutions
	}
	g, err := prob.Generator(
		unif.WithLogger(s.logger.With().Str("file", path).Logger()),
		unif.WithMetrics(s.metrics),
		unif.WithTracer(s.tracer.Tracer()),
	)
	if err != nil {
		return fail(fmt.Errorf("%s: %w", path, err))
	}
	rep.RunID = g.RunID()

	for len(rep.Solutions) < limit {
		sol, ok, err := g.TakeWithRetry(ctx, prob.Options.Budget)
		if err != nil {
			return fail(err)
		}
		if !ok {
			break
		}
		sr := solutionReport{Branch: sol.Branch(), Depth: sol.Depth(), Assignments: map[string]string{}, text: sol.String()}
		for _, a := range sol.Assignments() {
			sr.Assignments[mvarName(a)] = kernel.Format(a.Value)
		}
		rep.Solutions = append(rep.Solutions, sr)
	}
	rep.Exhausted = g.IsEmpty()
	rep.Stats = g.Stats()
	span.SetAttributes(attribute.Int("solutions", len(rep.Solutions)), attribute.Bool("exhausted", rep.Exhausted))
	return rep
}

func mvarName(a kernel.Assignment) string {
	if a.UserName == "" {
		return fmt.Sprintf("?m%d", a.ID)
	}
	return "?" + a.UserName
}
