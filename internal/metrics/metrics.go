// Package metrics provides Prometheus metrics for the RetailWorks services.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "retailworks"

var (
	// OrdersSubmitted tracks order submissions by outcome kind
	OrdersSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "orders",
			Name:      "submitted_total",
			Help:      "Total number of order submissions by result",
		},
		[]string{"result"},
	)

	// OrderTransitions tracks order status changes
	OrderTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "orders",
			Name:      "transitions_total",
			Help:      "Total number of order status transitions",
		},
		[]string{"from", "to"},
	)

	// InventoryMovements tracks ledger mutations by kind
	InventoryMovements = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "inventory",
			Name:      "movements_total",
			Help:      "Total number of inventory ledger movements by kind",
		},
		[]string{"kind"},
	)

	ReorderSignals = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "inventory",
			Name:      "reorder_signals_total",
			Help:      "Reorder signals by outcome (queued, suppressed, failed)",
		},
		[]string{"outcome"},
	)

	// ConflictRetries tracks retries of transactions aborted by contention
	ConflictRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "conflict_retries_total",
			Help:      "Total number of retried concurrency conflicts",
		},
		[]string{"operation"},
	)

	DimensionChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "etl",
			Name:      "dimension_changes_total",
			Help:      "SCD2 upserts by dimension and action",
		},
		[]string{"dimension", "action"},
	)

	FactsLoaded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "etl",
			Name:      "facts_loaded_total",
			Help:      "Fact rows written by fact table",
		},
		[]string{"fact"},
	)

	// BatchDuration tracks batch job duration in seconds
	BatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "etl",
			Name:      "batch_duration_seconds",
			Help:      "Duration of batch jobs in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		},
		[]string{"process", "status"},
	)

	OpenQualityIssues = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "data_quality",
			Name:      "open_issues",
			Help:      "Open data quality issues by severity after the last run",
		},
		[]string{"severity"},
	)

	// RelayCircuitState is 0 closed, 1 open, 2 half-open
	RelayCircuitState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "smtp",
			Name:      "circuit_state",
			Help:      "State of the outbound mail relay circuit breaker",
		},
		[]string{"relay"},
	)

	// HTTPRequestsTotal tracks inbound API requests
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of API requests",
		},
		[]string{"method", "route", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of API requests in seconds",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "route"},
	)

	// QueueJobsProcessed tracks jobs processed from the Redis queues
	QueueJobsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "jobs_processed_total",
			Help:      "Total number of jobs processed by queue and status",
		},
		[]string{"queue", "status"},
	)

	DLQJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "dlq_jobs_total",
			Help:      "Total number of jobs sent to a dead letter queue",
		},
		[]string{"queue"},
	)
)
