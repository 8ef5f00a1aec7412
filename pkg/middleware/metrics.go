package middleware

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mesh-intelligence/arbor/pkg/action"
	"github.com/mesh-intelligence/arbor/pkg/types"
)

// MetricsNamespace prefixes every metric exported by Metrics.
const MetricsNamespace = "arbor"

type metricsKey struct{ m *Metrics }

type metricsState struct {
	started time.Time
	resumes int
}

// Metrics exports Prometheus metrics for observed actions:
//
//	arbor_actions_total{name,result}
//	arbor_action_duration_seconds{name}
//	arbor_actions_in_flight
//	arbor_action_suspensions_total{name}
type Metrics struct {
	total       *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	inFlight    prometheus.Gauge
	suspensions *prometheus.CounterVec
}

var _ action.Middleware = (*Metrics)(nil)

// NewMetrics creates the collectors and registers them on reg. A nil reg
// means prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		total: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "actions_total",
			Help:      "Finished actions by name and result.",
		}, []string{"name", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: MetricsNamespace,
			Name:      "action_duration_seconds",
			Help:      "Time from start to finish of an action.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}, []string{"name"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Name:      "actions_in_flight",
			Help:      "Actions started and not yet finished.",
		}),
		suspensions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "action_suspensions_total",
			Help:      "Yield points passed by flows.",
		}, []string{"name"}),
	}
	for _, c := range []prometheus.Collector{m.total, m.duration, m.inFlight, m.suspensions} {
		if err := reg.Register(c); err != nil {
			return nil, errors.Wrap(err, "registering action metrics")
		}
	}
	return m, nil
}

// Filter accepts every context.
func (m *Metrics) Filter(*action.Context) bool { return true }

// OnStart marks the action in flight.
func (m *Metrics) OnStart(ctx *action.Context) *types.Outcome {
	ctx.Data[metricsKey{m}] = &metricsState{started: time.Now()}
	m.inFlight.Inc()
	return nil
}

// OnResume counts every resume after the first one, which is one per
// completed yield point.
func (m *Metrics) OnResume(ctx *action.Context) {
	st, ok := ctx.Data[metricsKey{m}].(*metricsState)
	if !ok {
		return
	}
	st.resumes++
	if st.resumes > 1 {
		m.suspensions.WithLabelValues(ctx.Name).Inc()
	}
}

// OnSuspend is a no-op; suspensions are counted on resume.
func (m *Metrics) OnSuspend(*action.Context) {}

// OnFinish counts the action by result and observes its duration.
func (m *Metrics) OnFinish(ctx *action.Context, out types.Outcome) *types.Outcome {
	m.total.WithLabelValues(ctx.Name, string(out.Kind)).Inc()
	if st, ok := ctx.Data[metricsKey{m}].(*metricsState); ok {
		m.duration.WithLabelValues(ctx.Name).Observe(time.Since(st.started).Seconds())
		m.inFlight.Dec()
		delete(ctx.Data, metricsKey{m})
	}
	return nil
}
