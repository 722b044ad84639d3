package domain

import (
	"time"

	"journeytrack/ingest/buildinfo"
)

// ErrorInfo is the machine-readable rejection detail in API responses.
type ErrorInfo struct {
	Code    string `json:"code" example:"FieldNotApplicable"`
	Field   string `json:"field,omitempty" example:"purchase_value"`
	Message string `json:"message" example:"field does not apply to event_type pageview"`
}

// EventResponse is returned after posting a single event.
type EventResponse struct {
	Accepted bool       `json:"accepted" example:"true"`
	Token    string     `json:"token,omitempty" example:"8c7f2e58-0f13-4f3f-9a71-6b1f6f0a9d2e"`
	Message  string     `json:"message" example:"event accepted"`
	Error    *ErrorInfo `json:"error,omitempty"`
}

// EventResult is the per-item outcome inside a bulk response.
type EventResult struct {
	Index    int        `json:"index" example:"0"`
	Accepted bool       `json:"accepted" example:"true"`
	Token    string     `json:"token,omitempty"`
	Error    *ErrorInfo `json:"error,omitempty"`
}

// BulkEventResponse is returned after posting a batch of events.
// Acceptance is per-event: valid events are enqueued even when others
// in the same request are rejected.
type BulkEventResponse struct {
	TotalCount    int           `json:"total_count" example:"100"`
	AcceptedCount int           `json:"accepted_count" example:"98"`
	RejectedCount int           `json:"rejected_count" example:"2"`
	Results       []EventResult `json:"results"`
}

// WriterStats are the batching writer's operational counters, surfaced
// at /metrics. DroppedRecords counts accepted-but-undeliverable data
// and is the alerting signal for the permanent-failure path.
type WriterStats struct {
	QueueDepth     int    `json:"queue_depth" example:"12"`
	PendingBatch   int    `json:"pending_batch" example:"3"`
	Enqueued       uint64 `json:"enqueued_total" example:"1042"`
	Flushed        uint64 `json:"flushed_total" example:"1027"`
	Flushes        uint64 `json:"flushes_total" example:"7"`
	WriteAttempts  uint64 `json:"write_attempts_total" example:"9"`
	Retries        uint64 `json:"retries_total" example:"2"`
	DroppedBatches uint64 `json:"dropped_batches_total" example:"0"`
	DroppedRecords uint64 `json:"dropped_records_total" example:"0"`
	Duplicates     uint64 `json:"duplicates_total" example:"3"`
}

// MetricsResponse wraps the writer counters for the /metrics endpoint.
type MetricsResponse struct {
	Success bool        `json:"success" example:"true"`
	Writer  WriterStats `json:"writer"`
}

// HealthResponse represents the health status of the service.
type HealthResponse struct {
	Status    string              `json:"status" example:"healthy"`
	Timestamp time.Time           `json:"timestamp" example:"2026-08-27T10:00:00Z"`
	BuildInfo buildinfo.Info      `json:"buildInfo"`
	Services  ServiceHealthStatus `json:"services"`
}

// ServiceHealthStatus reports the health of dependent services.
type ServiceHealthStatus struct {
	TimeSeries ServiceStatus `json:"timeseries"`
	Redis      ServiceStatus `json:"redis"`
}

// ServiceStatus is the status of a single dependency.
type ServiceStatus struct {
	Status  string `json:"status" example:"healthy"`
	Message string `json:"message,omitempty" example:""`
}
