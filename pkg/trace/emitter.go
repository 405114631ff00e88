package trace

import (
	"log/slog"
	"time"

	"github.com/pikoninc/nucleus/core/pkg/contracts"
)

// Emitter stamps events with the run id and a UTC timestamp and hands them
// to the store. Emission failures are logged and swallowed: the trace is an
// audit channel, not a control channel, and a full disk must not change
// what the kernel decides.
type Emitter struct {
	store *Store
	runID string
}

// NewEmitter binds an emitter to a store and run id.
func NewEmitter(store *Store, runID string) *Emitter {
	return &Emitter{store: store, runID: runID}
}

// Field mutates an event before emission.
type Field func(*contracts.TraceEvent)

// WithIntentID sets the event's intent id.
func WithIntentID(id string) Field {
	return func(ev *contracts.TraceEvent) { ev.IntentID = id }
}

// WithPlanID sets the event's plan id.
func WithPlanID(id string) Field {
	return func(ev *contracts.TraceEvent) { ev.PlanID = id }
}

// WithStepID sets the event's step id.
func WithStepID(id string) Field {
	return func(ev *contracts.TraceEvent) { ev.StepID = id }
}

// WithPolicy attaches the policy decision record.
func WithPolicy(p contracts.PolicyRecord) Field {
	return func(ev *contracts.TraceEvent) { ev.Policy = &p }
}

// WithMessage sets the human-readable message.
func WithMessage(msg string) Field {
	return func(ev *contracts.TraceEvent) { ev.Message = msg }
}

// WithData attaches structured payload data.
func WithData(data map[string]any) Field {
	return func(ev *contracts.TraceEvent) { ev.Data = data }
}

// Emit appends one event of the given type.
func (e *Emitter) Emit(eventType string, fields ...Field) {
	ev := contracts.TraceEvent{
		TS:        time.Now().UTC().Format(time.RFC3339),
		RunID:     e.runID,
		EventType: eventType,
	}
	for _, f := range fields {
		f(&ev)
	}
	if err := e.store.Append(ev); err != nil {
		slog.Error("trace append failed", "event_type", eventType, "run_id", e.runID, "error", err)
	}
}
