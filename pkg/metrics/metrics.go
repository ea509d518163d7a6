package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "community", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "community", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "community", Name: "rate_limit_errors_total", Help: "Rate limit checks that failed on the cache."},
		[]string{"limiter"},
	)
	AuthRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "community", Name: "auth_rejected_total", Help: "Requests rejected by the auth gate, by stage."},
		[]string{"stage"},
	)
	TwoFactorOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "community", Name: "twofactor_outcomes_total", Help: "Two-factor session operations by operation and result."},
		[]string{"operation", "result"},
	)
	SMSDeliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "community", Name: "sms_deliveries_total", Help: "SMS deliveries by provider and result."},
		[]string{"provider", "result"},
	)
	CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Namespace: "community", Name: "circuit_breaker_state", Help: "Circuit breaker state (0 closed, 1 half-open, 2 open)."},
		[]string{"name"},
	)
	EventsPosted = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "community", Name: "events_posted_total", Help: "Number of events stored."},
	)
	NearbyCandidates = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "community", Name: "nearby_candidates_total", Help: "Geohash range candidates by exact-distance outcome."},
		[]string{"outcome"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(RateLimitErrors)
	reg.MustRegister(AuthRejected)
	reg.MustRegister(TwoFactorOutcomes)
	reg.MustRegister(SMSDeliveries)
	reg.MustRegister(CircuitBreakerState)
	reg.MustRegister(EventsPosted)
	reg.MustRegister(NearbyCandidates)
}
