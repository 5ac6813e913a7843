package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for TransitionsTotal.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

var (
	TransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_transitions_total",
			Help: "Balance transitions by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	TransactionRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_transaction_retries_total",
			Help: "Store transactions re-run after a serialization conflict",
		},
		[]string{"store"},
	)

	ReferralBonusesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_referral_bonuses_total",
			Help: "Referral bonuses credited",
		},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2, 5},
		},
		[]string{"method", "route", "status"},
	)

	RateLimitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "http_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		},
	)
)

// ObserveTransition records the result of a ledger transition.
func ObserveTransition(kind string, err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	TransitionsTotal.WithLabelValues(kind, outcome).Inc()
}
