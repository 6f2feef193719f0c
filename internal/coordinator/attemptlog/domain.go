// Package attemptlog is the durable trail of every checkout attempt the
// session pipeline runs.
//
// Each transition of an attempt appends one row. The rows answer two
// questions after the fact: where did attempt X stop, and which trace
// belongs to it (trace_id and span_id are copied from the active span).
package attemptlog

import "time"

// Status is the lifecycle state of an attempt at the time a row is written.
type Status string

const (
	StatusStarted      Status = "STARTED"
	StatusStepDone     Status = "STEP_DONE"
	StatusCompleted    Status = "COMPLETED"
	StatusCompensating Status = "COMPENSATING"
	StatusFailed       Status = "FAILED"
)

// Entry is a single row of the attempt log.
type Entry struct {
	// AttemptID is the idempotency key of the checkout attempt, or a
	// generated id when the caller sent none.
	AttemptID string

	Status Status

	// CurrentStep is the step that just ran, failed or was compensated.
	CurrentStep string

	// Payload is the JSON summary of the request, written on STARTED only.
	// It never carries the gateway credential.
	Payload string

	// ErrorMessages is a JSON array of failure details.
	ErrorMessages string

	TraceID string
	SpanID  string

	UpdatedAt time.Time
}
