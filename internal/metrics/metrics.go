// Package metrics exposes Prometheus instrumentation for the login gate.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	LoginAttempts     *prometheus.CounterVec
	GateDecisions     *prometheus.CounterVec
	ChallengeDuration prometheus.Histogram
}

// New registers gate metrics on the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers gate metrics on the given registerer. Tests pass a
// fresh registry so repeated construction never collides.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		LoginAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "traingate_login_attempts_total",
			Help: "Login attempts by outcome (success, invalid, challenge, cooldown)",
		}, []string{"outcome"}),
		GateDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "traingate_gate_decisions_total",
			Help: "Request gate decisions (public, allowed, redirected)",
		}, []string{"decision"}),
		ChallengeDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "traingate_challenge_verify_duration_seconds",
			Help:    "Duration of Turnstile siteverify calls",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
	}
}

func (m *Metrics) ObserveLogin(outcome string) {
	m.LoginAttempts.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveGate(decision string) {
	m.GateDecisions.WithLabelValues(decision).Inc()
}

func (m *Metrics) ObserveChallenge(start time.Time) {
	m.ChallengeDuration.Observe(time.Since(start).Seconds())
}
