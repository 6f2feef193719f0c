package attemptlog

import (
	"context"
	"encoding/json"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// TraceInfo holds the OTel identifiers found in a context.
type TraceInfo struct {
	TraceID string
	SpanID  string
}

// ExtractTraceInfo returns the ids of the span active in ctx, or empty
// strings when there is none (unit tests, tracing disabled).
func ExtractTraceInfo(ctx context.Context) TraceInfo {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return TraceInfo{}
	}
	return TraceInfo{
		TraceID: sc.TraceID().String(),
		SpanID:  sc.SpanID().String(),
	}
}

// NewEntry builds an Entry stamped with the trace of ctx and the current
// time.
//
//	entry := attemptlog.NewEntry(ctx, key, attemptlog.StatusStepDone, "Create_Session_Step", "", nil)
func NewEntry(ctx context.Context, attemptID string, status Status, currentStep, payload string, errs []string) *Entry {
	ti := ExtractTraceInfo(ctx)

	errJSON := "[]"
	if len(errs) > 0 {
		if b, err := json.Marshal(errs); err == nil {
			errJSON = string(b)
		}
	}

	return &Entry{
		AttemptID:     attemptID,
		Status:        status,
		CurrentStep:   currentStep,
		Payload:       payload,
		ErrorMessages: errJSON,
		TraceID:       ti.TraceID,
		SpanID:        ti.SpanID,
		UpdatedAt:     time.Now().UTC(),
	}
}
