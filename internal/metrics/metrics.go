package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP Metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameHTTPRequestsTotal,
			Help: HelpTextHTTPRequestsTotal,
		},
		[]string{LabelMethod, LabelPath, LabelStatus},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    MetricNameHTTPRequestDuration,
			Help:    HelpTextHTTPRequestDuration,
			Buckets: HTTPLatencyBuckets,
		},
		[]string{LabelMethod, LabelPath},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: MetricNameHTTPRequestsInFlight,
			Help: HelpTextHTTPRequestsInFlight,
		},
	)
)

// Event Metrics
var (
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameEventsPublished,
			Help: HelpTextEventsPublished,
		},
		[]string{LabelType},
	)

	EventHandlerErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameEventHandlerErrors,
			Help: HelpTextEventHandlerErrors,
		},
		[]string{LabelType},
	)
)

// Business Metrics
var (
	TradesProposed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameTradesProposed,
			Help: HelpTextTradesProposed,
		},
	)

	TradesAccepted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameTradesAccepted,
			Help: HelpTextTradesAccepted,
		},
	)

	TradesCompleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameTradesCompleted,
			Help: HelpTextTradesCompleted,
		},
	)

	TradesDisputed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameTradesDisputed,
			Help: HelpTextTradesDisputed,
		},
	)

	RatingsSubmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameRatingsSubmitted,
			Help: HelpTextRatingsSubmitted,
		},
	)

	EscrowHolds = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameEscrowHolds,
			Help: HelpTextEscrowHolds,
		},
	)

	EscrowReleases = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameEscrowReleases,
			Help: HelpTextEscrowReleases,
		},
	)

	EscrowRefunds = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameEscrowRefunds,
			Help: HelpTextEscrowRefunds,
		},
	)

	EscrowCallFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameEscrowCallFailures,
			Help: HelpTextEscrowCallFailures,
		},
	)

	DisputesOpened = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameDisputesOpened,
			Help: HelpTextDisputesOpened,
		},
	)

	DisputesResolved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameDisputesResolved,
			Help: HelpTextDisputesResolved,
		},
	)

	DisputesAutoClosed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameDisputesAutoClosed,
			Help: HelpTextDisputesAutoClosed,
		},
	)
)
