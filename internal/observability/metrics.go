// README: Prometheus metrics for the allocation engine and HTTP layer.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TripsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "dhapp", Name: "trips_created_total", Help: "Trip requests created"},
		[]string{"fleet"},
	)
	OffersCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{Namespace: "dhapp", Name: "offers_created_total", Help: "Offers written to the ledger"},
	)
	EscalationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{Namespace: "dhapp", Name: "escalations_total", Help: "Tier escalations performed"},
	)
	TripsExhaustedTotal = promauto.NewCounter(
		prometheus.CounterOpts{Namespace: "dhapp", Name: "trips_exhausted_total", Help: "Trips terminated with no drivers left"},
	)
	SweepsTotal = promauto.NewCounter(
		prometheus.CounterOpts{Namespace: "dhapp", Name: "sweeps_total", Help: "Escalation sweeps executed"},
	)
	AcceptsTotal = promauto.NewCounter(
		prometheus.CounterOpts{Namespace: "dhapp", Name: "accepts_total", Help: "Offers accepted successfully"},
	)
	AcceptConflictsTotal = promauto.NewCounter(
		prometheus.CounterOpts{Namespace: "dhapp", Name: "accept_conflicts_total", Help: "Accept attempts that lost the race"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "dhapp", Name: "http_requests_total", Help: "HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "dhapp",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
