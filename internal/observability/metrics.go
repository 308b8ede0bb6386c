package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce           sync.Once
	httpRequestsTotal      *prometheus.CounterVec
	httpLatencySeconds     *prometheus.HistogramVec
	httpErrorsTotal        *prometheus.CounterVec
	registrationsTotal     *prometheus.CounterVec
	waitlistPromotions     prometheus.Counter
	pointsAwardedTotal     *prometheus.CounterVec
	redemptionsTotal       *prometheus.CounterVec
	consistencyFaultsTotal prometheus.Counter
)

// RegisterMetrics initialises the Prometheus collectors used across the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "engage_http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "engage_http_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "engage_http_errors_total",
			Help: "Total number of error responses returned by API endpoints.",
		}, []string{"method", "route", "status"})

		registrationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "engage_event_registrations_total",
			Help: "Event registration attempts grouped by outcome.",
		}, []string{"outcome"})

		waitlistPromotions = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "engage_waitlist_promotions_total",
			Help: "Waitlisted registrations promoted after a cancellation.",
		})

		pointsAwardedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "engage_points_awarded_total",
			Help: "Points granted through the ledger grouped by source.",
		}, []string{"source"})

		redemptionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "engage_redemptions_total",
			Help: "Reward redemption attempts grouped by result.",
		}, []string{"result"})

		consistencyFaultsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "engage_consistency_faults_total",
			Help: "Broken-invariant observations that aborted an operation.",
		})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			httpErrorsTotal,
			registrationsTotal,
			waitlistPromotions,
			pointsAwardedTotal,
			redemptionsTotal,
			consistencyFaultsTotal,
		)
	})
}

// HTTPRequests exposes the counter for API requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram for API requests.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the counter for API error responses.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// Registrations exposes the counter for registration outcomes.
func Registrations() *prometheus.CounterVec {
	RegisterMetrics()
	return registrationsTotal
}

// WaitlistPromotions exposes the promotion counter.
func WaitlistPromotions() prometheus.Counter {
	RegisterMetrics()
	return waitlistPromotions
}

// PointsAwarded exposes the counter for ledger grants.
func PointsAwarded() *prometheus.CounterVec {
	RegisterMetrics()
	return pointsAwardedTotal
}

// Redemptions exposes the counter for redemption results.
func Redemptions() *prometheus.CounterVec {
	RegisterMetrics()
	return redemptionsTotal
}

// ConsistencyFaults exposes the broken-invariant counter.
func ConsistencyFaults() prometheus.Counter {
	RegisterMetrics()
	return consistencyFaultsTotal
}
