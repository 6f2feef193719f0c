// Package coordinator runs the steps that turn a validated checkout request
// into a hosted session, compensating completed steps in reverse order when
// a later one fails.
package coordinator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jcmexdev/checkout-sessions/internal/coordinator/attemptlog"
)

// Step is one unit of work in the pipeline. Compensate undoes Execute.
type Step interface {
	Name() string
	Execute(ctx context.Context) error
	Compensate(ctx context.Context) error
}

type Orchestrator struct {
	attemptID string
	payload   string
	steps     []Step
	repo      attemptlog.Repository // nil disables the attempt log
}

func NewOrchestrator(attemptID string, steps []Step, repo attemptlog.Repository) *Orchestrator {
	return &Orchestrator{attemptID: attemptID, steps: steps, repo: repo}
}

// WithPayload sets the JSON summary recorded on the STARTED row.
func (o *Orchestrator) WithPayload(payload string) *Orchestrator {
	o.payload = payload
	return o
}

// Start runs the steps in order. On the first failure it compensates every
// step that already succeeded, last first, and returns the step's error.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.record(ctx, attemptlog.StatusStarted, "", o.payload, nil)

	var done []Step
	for _, step := range o.steps {
		slog.DebugContext(ctx, "executing step", "attempt_id", o.attemptID, "step", step.Name())
		if err := step.Execute(ctx); err != nil {
			slog.WarnContext(ctx, "step failed, compensating",
				"attempt_id", o.attemptID,
				"step", step.Name(),
				"error", err,
			)
			errs := []string{fmt.Sprintf("step %s failed: %v", step.Name(), err)}
			o.record(ctx, attemptlog.StatusCompensating, step.Name(), "", errs)
			errs = append(errs, o.rollback(ctx, done)...)
			o.record(ctx, attemptlog.StatusFailed, step.Name(), "", errs)
			return err
		}
		done = append(done, step)
		o.record(ctx, attemptlog.StatusStepDone, step.Name(), "", nil)
	}

	o.record(ctx, attemptlog.StatusCompleted, "", "", nil)
	slog.DebugContext(ctx, "pipeline completed", "attempt_id", o.attemptID)
	return nil
}

func (o *Orchestrator) rollback(ctx context.Context, steps []Step) []string {
	var errs []string
	for i := len(steps) - 1; i >= 0; i-- {
		step := steps[i]
		if err := step.Compensate(ctx); err != nil {
			slog.ErrorContext(ctx, "CRITICAL: failed to compensate step",
				"attempt_id", o.attemptID,
				"step", step.Name(),
				"error", err,
			)
			errs = append(errs, fmt.Sprintf("compensation of %s failed: %v", step.Name(), err))
		}
	}
	return errs
}

// record appends to the attempt log. A failing log never fails the attempt.
func (o *Orchestrator) record(ctx context.Context, status attemptlog.Status, step, payload string, errs []string) {
	if o.repo == nil {
		return
	}
	entry := attemptlog.NewEntry(ctx, o.attemptID, status, step, payload, errs)
	if err := o.repo.Save(context.WithoutCancel(ctx), entry); err != nil {
		slog.ErrorContext(ctx, "failed to write attempt log", "attempt_id", o.attemptID, "status", status, "error", err)
	}
}
