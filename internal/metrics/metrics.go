package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for AuthorizeRequests.
const (
	OutcomeIssued     = "issued"
	OutcomeRedirected = "redirected"
	OutcomeRejected   = "rejected"
)

// Metrics tracks authorization endpoint outcomes and latency.
type Metrics struct {
	AuthorizeRequests *prometheus.CounterVec
	AuthorizeDuration prometheus.Histogram
	CodesIssued       prometheus.Counter
}

// New registers the authorization metrics with reg. A nil reg uses the
// default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		AuthorizeRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "authz_authorize_requests_total",
			Help: "Authorization requests by outcome and OAuth error code",
		}, []string{"outcome", "error"}),
		AuthorizeDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "authz_authorize_duration_seconds",
			Help:    "Duration of authorization requests",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		CodesIssued: factory.NewCounter(prometheus.CounterOpts{
			Name: "authz_codes_issued_total",
			Help: "Authorization codes issued",
		}),
	}
}

// ObserveAuthorize records one authorization request that started at start.
// errorCode is empty on success.
func (m *Metrics) ObserveAuthorize(start time.Time, outcome, errorCode string) {
	m.AuthorizeRequests.WithLabelValues(outcome, errorCode).Inc()
	m.AuthorizeDuration.Observe(time.Since(start).Seconds())
	if outcome == OutcomeIssued {
		m.CodesIssued.Inc()
	}
}
