// Package metrics provides Prometheus collectors for the FTP connector.
//
// Collectors are registered with the default registry on package
// initialization via promauto, so importing the package is enough to expose
// them on any /metrics handler.
//
// # Basic Usage
//
//	timer := metrics.NewTimer("list")
//	entries, err := lister.List(ctx, dir)
//	metrics.ListingLatency.WithLabelValues(metrics.Status(err)).Observe(timer.Stop().Seconds())
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Enumeration outcomes used as the status label.
const (
	StatusSuccess   = "success"
	StatusEmpty     = "empty"
	StatusError     = "error"
	StatusCancelled = "cancelled"
	StatusInvalid   = "invalid"
)

var (
	// Enumerations counts finished enumerations by outcome
	Enumerations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nebula_ftp_enumerations_total",
			Help: "Total number of remote path enumerations by outcome",
		},
		[]string{"status"},
	)

	// FilesDiscovered counts files returned by enumerations
	FilesDiscovered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nebula_ftp_files_discovered_total",
			Help: "Total number of files collected by enumerations",
		},
	)

	// EntriesPruned counts entries skipped because they exceed the depth limit
	EntriesPruned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nebula_ftp_entries_pruned_total",
			Help: "Total number of entries skipped beyond the traversal depth",
		},
	)

	// ListingLatency tracks single directory listing calls
	ListingLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nebula_ftp_listing_duration_seconds",
			Help:    "Duration of remote listing calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"status"},
	)

	// Validations counts descriptor validations by role and outcome
	Validations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nebula_ftp_validations_total",
			Help: "Total number of connector validations",
		},
		[]string{"role", "outcome"},
	)

	// SubTasksEmitted counts sub-task contexts produced by the partitioner
	SubTasksEmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nebula_ftp_subtasks_emitted_total",
			Help: "Total number of sub-task contexts emitted",
		},
		[]string{"kind"},
	)

	// TransportRetries counts retried transport calls
	TransportRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nebula_ftp_transport_retries_total",
			Help: "Total number of retried transport calls",
		},
		[]string{"operation"},
	)
)

// Status maps an error to the status label value.
func Status(err error) string {
	if err != nil {
		return StatusError
	}
	return StatusSuccess
}

// Timer provides a simple timing mechanism for measuring operation durations.
// It captures the start time on creation and calculates elapsed time on stop.
type Timer struct {
	start time.Time
	name  string
}

// NewTimer creates a new timer and starts timing immediately.
func NewTimer(name string) *Timer {
	return &Timer{
		start: time.Now(),
		name:  name,
	}
}

// Name returns the name the timer was created with.
func (t *Timer) Name() string {
	return t.name
}

// Stop returns the elapsed duration since creation. It can be called
// multiple times.
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}
