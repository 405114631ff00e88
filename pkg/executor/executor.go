// Package executor runs a validated plan step by step through deterministic
// tools. Steps execute strictly in declared order; every lifecycle
// transition is emitted to the trace. The executor never retries and never
// attempts rollback: declared rollback steps belong to an external
// compensation pass.
package executor

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/pikoninc/nucleus/core/pkg/contracts"
	"github.com/pikoninc/nucleus/core/pkg/registry"
	"github.com/pikoninc/nucleus/core/pkg/trace"
)

// Executor invokes tools for a single run and reports to one trace emitter.
type Executor struct {
	tools  *registry.ToolRegistry
	trace  *trace.Emitter
	tracer oteltrace.Tracer
}

// New creates an executor. Spans go to the globally registered otel tracer
// provider, a noop by default.
func New(tools *registry.ToolRegistry, emitter *trace.Emitter) *Executor {
	return &Executor{
		tools:  tools,
		trace:  emitter,
		tracer: otel.Tracer("nucleus/executor"),
	}
}

// Execute runs every step of the plan in order and returns the collected
// step results. Any step failure is terminal.
func (x *Executor) Execute(ctx context.Context, rc contracts.RuntimeContext, plan contracts.Plan) (contracts.RunResult, error) {
	var out contracts.RunResult

	if plan.PlanID == "" {
		return out, contracts.NewValidationError("plan.invalid", "plan_id must be a non-empty string", nil)
	}
	if len(plan.Steps) < 1 {
		return out, contracts.NewValidationError("plan.invalid", "Plan.steps must be a non-empty array", nil)
	}

	intentID := plan.Intent.IntentID
	out.PlanID = plan.PlanID

	for _, step := range plan.Steps {
		result, err := x.executeStep(ctx, rc, intentID, plan.PlanID, step)
		if err != nil {
			return contracts.RunResult{}, err
		}
		out.Results = append(out.Results, result)
	}

	x.trace.Emit(contracts.EventRunFinished,
		trace.WithIntentID(intentID),
		trace.WithPlanID(plan.PlanID),
		trace.WithMessage("Run finished"),
		trace.WithData(map[string]any{"ok": true}),
	)
	return out, nil
}

func (x *Executor) executeStep(ctx context.Context, rc contracts.RuntimeContext, intentID, planID string, step contracts.Step) (contracts.StepResult, error) {
	var zero contracts.StepResult

	if step.StepID == "" {
		return zero, contracts.NewValidationError("plan.step_invalid", "step_id is required", nil)
	}
	toolID := step.Tool.ToolID
	if toolID == "" {
		return zero, contracts.NewValidationError("plan.step_invalid", "tool_id is required", nil)
	}
	if step.Tool.Args == nil {
		return zero, contracts.NewValidationError("plan.step_invalid", "args must be an object", nil)
	}

	if _, ok := x.tools.Get(toolID); !ok {
		x.trace.Emit(contracts.EventStepDenied,
			trace.WithIntentID(intentID),
			trace.WithPlanID(planID),
			trace.WithStepID(step.StepID),
			trace.WithMessage("Unknown tool"),
			trace.WithData(map[string]any{"tool_id": toolID}),
		)
		return zero, contracts.NewToolNotFoundError("tool.unknown", fmt.Sprintf("Unknown tool: %s", toolID), map[string]any{"tool_id": toolID})
	}

	argErrors, err := x.tools.ValidateArgs(toolID, step.Tool.Args)
	if err != nil {
		return zero, err
	}
	if len(argErrors) > 0 {
		x.trace.Emit(contracts.EventStepDenied,
			trace.WithIntentID(intentID),
			trace.WithPlanID(planID),
			trace.WithStepID(step.StepID),
			trace.WithMessage("Tool args validation failed"),
			trace.WithData(map[string]any{"tool_id": toolID, "errors": argErrors}),
		)
		return zero, contracts.NewValidationError("tool.args_invalid", "Tool args validation failed",
			map[string]any{"tool_id": toolID, "errors": argErrors})
	}

	x.trace.Emit(contracts.EventStepStarted,
		trace.WithIntentID(intentID),
		trace.WithPlanID(planID),
		trace.WithStepID(step.StepID),
		trace.WithMessage("Step started"),
		trace.WithData(map[string]any{"tool_id": toolID, "dry_run": rc.DryRun}),
	)

	_, span := x.tracer.Start(ctx, "nucleus.step",
		oteltrace.WithAttributes(
			attribute.String("nucleus.tool_id", toolID),
			attribute.String("nucleus.step_id", step.StepID),
			attribute.Bool("nucleus.dry_run", rc.DryRun),
		),
	)
	defer span.End()

	output, err := x.tools.Call(toolID, step.Tool.Args, rc.DryRun)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "tool execution failed")
		x.trace.Emit(contracts.EventError,
			trace.WithIntentID(intentID),
			trace.WithPlanID(planID),
			trace.WithStepID(step.StepID),
			trace.WithMessage("Tool execution error"),
			trace.WithData(map[string]any{"tool_id": toolID, "error": err.Error()}),
		)
		return zero, contracts.NewToolExecutionError("tool.error", "Tool execution error", map[string]any{"tool_id": toolID})
	}
	span.SetStatus(codes.Ok, "ok")

	x.trace.Emit(contracts.EventStepFinished,
		trace.WithIntentID(intentID),
		trace.WithPlanID(planID),
		trace.WithStepID(step.StepID),
		trace.WithMessage("Step finished"),
		trace.WithData(map[string]any{"tool_id": toolID, "ok": true, "output": output}),
	)

	return contracts.StepResult{StepID: step.StepID, ToolID: toolID, Output: output}, nil
}
