package unif

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects Prometheus statistics about unifier searches. A nil
// *Metrics records nothing.
type Metrics struct {
	ruleApplications *prometheus.CounterVec
	solutions        prometheus.Counter
	branchFailures   prometheus.Counter
	takes            prometheus.Counter
	queueLength      prometheus.Gauge
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer, namespace string) (*Metrics, error) {
	m := &Metrics{
		ruleApplications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rule_applications_total",
				Help:      "Total number of unification rule applications",
			},
			[]string{"rule"},
		),
		solutions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "solutions_total",
			Help:      "Total number of unifiers produced",
		}),
		branchFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "branch_failures_total",
			Help:      "Total number of search branches closed without successors",
		}),
		takes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "takes_total",
			Help:      "Total number of search steps taken",
		}),
		queueLength: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_length",
			Help:      "Number of pending problems and streams in the last generator stepped",
		}),
	}
	for _, c := range []prometheus.Collector{m.ruleApplications, m.solutions, m.branchFailures, m.takes, m.queueLength} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) recordRule(rule string) {
	if m == nil {
		return
	}
	m.ruleApplications.WithLabelValues(rule).Inc()
}

func (m *Metrics) recordFailure() {
	if m == nil {
		return
	}
	m.branchFailures.Inc()
}

func (m *Metrics) recordSolution() {
	if m == nil {
		return
	}
	m.solutions.Inc()
}

func (m *Metrics) recordTake(queueLen int) {
	if m == nil {
		return
	}
	m.takes.Inc()
	m.queueLength.Set(float64(queueLen))
}
