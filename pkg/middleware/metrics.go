package middleware

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/flux/pkg/domain"
)

// OtherType is the label value recorded for names outside the known set.
const OtherType = "other"

// Metrics holds the Prometheus collectors fed by its middleware.
type Metrics struct {
	Dispatched     *prometheus.CounterVec
	Duration       *prometheus.HistogramVec
	EffectFailures *prometheus.CounterVec

	known map[string]struct{}
}

// MetricsOption configures NewMetrics.
type MetricsOption func(*Metrics)

// WithKnownTypes restricts the type and effect labels to names. Anything else
// is counted as OtherType. Without it every name gets its own series.
func WithKnownTypes(names ...string) MetricsOption {
	return func(m *Metrics) {
		if m.known == nil {
			m.known = make(map[string]struct{}, len(names))
		}
		for _, n := range names {
			m.known[n] = struct{}{}
		}
	}
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer, opts ...MetricsOption) *Metrics {
	m := &Metrics{
		Dispatched: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flux_dispatched_total",
				Help: "Total number of dispatched actions and effects",
			},
			[]string{"kind", "type"},
		),
		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "flux_dispatch_duration_seconds",
				Help:    "Duration of dispatch through the rest of the chain",
				Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
			},
			[]string{"kind"},
		),
		EffectFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flux_effect_failures_total",
				Help: "Total number of effects whose Run returned an error",
			},
			[]string{"effect"},
		),
	}
	for _, opt := range opts {
		opt(m)
	}
	if reg != nil {
		reg.MustRegister(m.Dispatched, m.Duration, m.EffectFailures)
	}
	return m
}

// Middleware records every dispatch passing through it.
func (m *Metrics) Middleware() domain.Middleware {
	return func(api domain.MiddlewareAPI) func(next domain.Dispatch) domain.Dispatch {
		return func(next domain.Dispatch) domain.Dispatch {
			return func(d domain.Dispatchable) (domain.Dispatchable, error) {
				kind, name := describe(d)
				name = m.label(name)
				start := time.Now()

				out, err := next(d)

				m.Duration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
				m.Dispatched.WithLabelValues(kind, name).Inc()
				if err != nil && kind == kindEffect {
					m.EffectFailures.WithLabelValues(name).Inc()
				}
				return out, err
			}
		}
	}
}

func (m *Metrics) label(name string) string {
	if m.known == nil {
		return name
	}
	if _, ok := m.known[name]; ok {
		return name
	}
	return OtherType
}

// MetricsMiddleware is a shorthand for NewMetrics(reg, opts...).Middleware().
func MetricsMiddleware(reg prometheus.Registerer, opts ...MetricsOption) domain.Middleware {
	return NewMetrics(reg, opts...).Middleware()
}
