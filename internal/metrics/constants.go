package metrics

// HTTP metric names
const (
	MetricNameHTTPRequestsTotal    = "http_requests_total"
	MetricNameHTTPRequestDuration  = "http_request_duration_seconds"
	MetricNameHTTPRequestsInFlight = "http_requests_in_flight"
)

// Event metric names
const (
	MetricNameEventsPublished    = "events_published_total"
	MetricNameEventHandlerErrors = "event_handler_errors_total"
)

// Business metric names
const (
	MetricNameTradesProposed     = "trades_proposed_total"
	MetricNameTradesAccepted     = "trades_accepted_total"
	MetricNameTradesCompleted    = "trades_completed_total"
	MetricNameTradesDisputed     = "trades_disputed_total"
	MetricNameRatingsSubmitted   = "ratings_submitted_total"
	MetricNameEscrowHolds        = "escrow_holds_total"
	MetricNameEscrowReleases     = "escrow_releases_total"
	MetricNameEscrowRefunds      = "escrow_refunds_total"
	MetricNameEscrowCallFailures = "escrow_call_failures_total"
	MetricNameDisputesOpened     = "disputes_opened_total"
	MetricNameDisputesResolved   = "disputes_resolved_total"
	MetricNameDisputesAutoClosed = "disputes_auto_closed_total"
)

// HTTP metric help text
const (
	HelpTextHTTPRequestsTotal    = "Total number of HTTP requests"
	HelpTextHTTPRequestDuration  = "HTTP request latency in seconds"
	HelpTextHTTPRequestsInFlight = "Current number of HTTP requests being served"
)

// Event metric help text
const (
	HelpTextEventsPublished    = "Total number of events published"
	HelpTextEventHandlerErrors = "Total number of event handler errors"
)

// Business metric help text
const (
	HelpTextTradesProposed     = "Total number of trades proposed"
	HelpTextTradesAccepted     = "Total number of trades accepted"
	HelpTextTradesCompleted    = "Total number of trades completed"
	HelpTextTradesDisputed     = "Total number of trades moved into dispute"
	HelpTextRatingsSubmitted   = "Total number of post-trade ratings submitted"
	HelpTextEscrowHolds        = "Total number of escrow holds placed"
	HelpTextEscrowReleases     = "Total number of escrow releases"
	HelpTextEscrowRefunds      = "Total number of escrow refunds, splits included"
	HelpTextEscrowCallFailures = "Total number of failed escrow gateway calls"
	HelpTextDisputesOpened     = "Total number of dispute tickets opened"
	HelpTextDisputesResolved   = "Total number of dispute tickets resolved"
	HelpTextDisputesAutoClosed = "Total number of dispute tickets closed by deadline"
)

// Common label names used across metrics
const (
	LabelMethod = "method"
	LabelPath   = "path"
	LabelStatus = "status"
	LabelType   = "type"
)

// HTTPLatencyBuckets defines the histogram buckets for HTTP request duration
// in seconds, from 1ms to 10s
var HTTPLatencyBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
