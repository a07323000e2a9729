package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "snapshotstore"

	metricLabelBackend   = "backend"
	metricLabelOperation = "operation"
	metricLabelStatus    = "status"
	metricLabelHandler   = "handler"
)

var (
	// StorageOperationCounter counts storage contract calls per backend
	StorageOperationCounter = newCounterVec(
		"storage_operation_count",
		"Count of storage operations for each backend",
		metricLabelBackend, metricLabelOperation, metricLabelStatus,
	)
	// StorageOperationDuration observes the duration of storage contract calls
	StorageOperationDuration = newSummaryVec(
		"storage_operation_duration_seconds",
		"Seconds to encode or decode a payload and talk to the backing store",
		metricLabelBackend, metricLabelOperation, metricLabelStatus,
	)
	// LockDeniedCounter counts reads rejected by the throttling lock
	LockDeniedCounter = newCounterVec(
		"lock_denied_count",
		"Number of snapshot reads denied by the throttling lock",
		metricLabelBackend,
	)
	// PayloadBytes observes the encoded size of written and read payloads
	PayloadBytes = newSummaryVec(
		"payload_bytes",
		"Size in bytes of encoded payloads",
		metricLabelBackend, metricLabelOperation,
	)
	// PrunedVersionsCounter counts versions removed by retention
	PrunedVersionsCounter = newCounterVec(
		"pruned_versions_count",
		"Number of snapshot versions removed by retention",
	)
	// ServiceRequestCounter counts http api requests
	ServiceRequestCounter = newCounterVec(
		"service_request_count",
		"Count of requests for each handler",
		metricLabelHandler, metricLabelStatus,
	)
	// ServiceRequestDuration observes the duration of http api requests
	ServiceRequestDuration = newSummaryVec(
		"service_request_duration_seconds",
		"Seconds to load a snapshot from storage and marshal the response",
		metricLabelHandler, metricLabelStatus,
	)
)

func newSummaryVec(name, help string, labels ...string) *prometheus.SummaryVec {
	vec := prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		}, labels)
	prometheus.MustRegister(vec)
	return vec
}

func newCounterVec(name, help string, labels ...string) *prometheus.CounterVec {
	vec := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		}, labels)
	prometheus.MustRegister(vec)
	return vec
}
