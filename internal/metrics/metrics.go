// Package metrics holds the Prometheus collectors shared by the sign-in
// adapters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "entra_login"

// Metrics groups the collectors registered for one process.
type Metrics struct {
	CallbackTotal    *prometheus.CounterVec
	ExchangeDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
// A nil reg leaves them unregistered, which tests rely on.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CallbackTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "callback_total",
			Help:      "Identity provider callbacks handled, by surface, outcome and error code.",
		}, []string{"surface", "outcome", "error"}),
		ExchangeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "exchange_duration_seconds",
			Help:      "Time spent redeeming an authorization code and fetching the profile.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"result"}),
	}
	if reg != nil {
		reg.MustRegister(m.CallbackTotal, m.ExchangeDuration)
	}
	return m
}

// ObserveCallback counts one handled callback.
func (m *Metrics) ObserveCallback(surface, outcome, errorCode string) {
	if m == nil {
		return
	}
	m.CallbackTotal.WithLabelValues(surface, outcome, errorCode).Inc()
}

// ObserveExchange records one code exchange duration in seconds.
func (m *Metrics) ObserveExchange(seconds float64, ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	m.ExchangeDuration.WithLabelValues(result).Observe(seconds)
}
