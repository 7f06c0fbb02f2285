package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Label value constants to prevent typos
const (
	// Upstream APIs
	UpstreamStrava   = "strava"
	UpstreamNotion   = "notion"
	UpstreamCalendar = "google_calendar"

	// Pipelines
	PipelineCollect  = "collect_workouts"
	PipelineCalendar = "calendar_events"

	// Item results
	ResultSaved   = "saved"
	ResultSkipped = "skipped"
	ResultFailure = "failure"
	ResultCreated = "created"
	ResultExisted = "existed"

	// Rate limit types
	RateLimitOverall15Min = "overall_15min"
	RateLimitOverallDaily = "overall_daily"
	RateLimitRead15Min    = "read_15min"
	RateLimitReadDaily    = "read_daily"

	// Rate limit buckets
	BucketLimit = "limit"
	BucketUsage = "usage"

	// Record store backends
	StoreNotion    = "notion"
	StoreSQLite    = "sqlite"
	StoreFirestore = "firestore"

	// Record store operations
	DBOpCreateRecord        = "create_record"
	DBOpFindByActivityID    = "find_by_activity_id"
	DBOpFindUnprocessed     = "find_unprocessed"
	DBOpMarkCalendarCreated = "mark_calendar_created"
	DBOpTestConnection      = "test_connection"
)

// Upstream API Metrics
var (
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_api_requests_total",
			Help: "Total number of requests sent to upstream APIs",
		},
		[]string{"upstream", "method", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upstream_api_request_duration_seconds",
			Help:    "Upstream API request latency in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"upstream", "method", "status_code"},
	)

	StravaRateLimitUsage = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "strava_rate_limit_usage",
			Help: "Strava API rate limit usage",
		},
		[]string{"limit_type", "bucket"},
	)
)

// Record Store Metrics
var (
	DBOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "record_store_operation_duration_seconds",
			Help:    "Record store operation latency in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"store", "operation"},
	)

	DBOperationErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "record_store_operation_errors_total",
			Help: "Total number of record store operation errors",
		},
		[]string{"store", "operation"},
	)
)

// Pipeline Metrics
var (
	ActivitiesFetchedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "activities_fetched_total",
			Help: "Total number of activities returned by the fitness source",
		},
	)

	RecordsProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workout_records_processed_total",
			Help: "Total number of activities processed into workout records by result",
		},
		[]string{"result"},
	)

	CalendarEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "calendar_events_processed_total",
			Help: "Total number of workout records processed into calendar events by result",
		},
		[]string{"result"},
	)

	PendingRecords = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "workout_records_pending_calendar",
			Help: "Workout records without a calendar event in the last selected window",
		},
	)

	RunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pipeline_run_duration_seconds",
			Help:    "Wall time of one pipeline run",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"pipeline", "state"},
	)

	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_runs_total",
			Help: "Total number of pipeline runs by terminal state",
		},
		[]string{"pipeline", "state"},
	)

	StateTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_state_transitions_total",
			Help: "Total number of orchestrator state transitions",
		},
		[]string{"pipeline", "from", "to"},
	)
)
