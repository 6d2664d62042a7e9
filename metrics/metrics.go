package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	SignupResultSuccess       = "success"
	SignupResultNotFound      = "activity_not_found"
	SignupResultAlreadyJoined = "already_signed_up"
	SignupResultInvalid       = "invalid"
	SignupResultError         = "error"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests by route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	SignupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "activity_signups_total",
			Help: "Signup attempts by outcome",
		},
		[]string{"result"},
	)

	RosterSnapshotsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roster_snapshots_total",
			Help: "Roster snapshot uploads by outcome",
		},
		[]string{"result"},
	)

	LiveClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "live_websocket_clients",
			Help: "Number of connected live update clients",
		},
	)
)
