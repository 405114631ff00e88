// Package kernel orchestrates a run: intent, planning, contract validation,
// policy, execution. Hard rules: execution always happens from a plan,
// tools are deterministic, every transition is traced. The contract store
// is an injected handle owned by the host, loaded once at startup.
package kernel

import (
	"context"
	"encoding/json"

	"github.com/pikoninc/nucleus/core/pkg/contracts"
	"github.com/pikoninc/nucleus/core/pkg/contractstore"
	"github.com/pikoninc/nucleus/core/pkg/executor"
	"github.com/pikoninc/nucleus/core/pkg/planner"
	"github.com/pikoninc/nucleus/core/pkg/policy"
	"github.com/pikoninc/nucleus/core/pkg/registry"
	"github.com/pikoninc/nucleus/core/pkg/trace"
)

// Kernel ties the tool registry and contract store into the plan-first
// execution pipeline.
type Kernel struct {
	tools     *registry.ToolRegistry
	contracts *contractstore.Store
}

// New creates a kernel around a tool registry and a loaded contract store.
func New(tools *registry.ToolRegistry, store *contractstore.Store) *Kernel {
	return &Kernel{tools: tools, contracts: store}
}

// RunIntent plans the intent and runs the resulting plan.
func (k *Kernel) RunIntent(ctx context.Context, rc contracts.RuntimeContext, intent contracts.Intent, p planner.Planner) (contracts.RunResult, error) {
	plan, err := p.Plan(intent)
	if err != nil {
		return contracts.RunResult{}, err
	}
	return k.RunPlan(ctx, rc, plan)
}

// RunPlan validates, gates, and executes one plan, owning the trace for the
// duration of the run.
func (k *Kernel) RunPlan(ctx context.Context, rc contracts.RuntimeContext, plan contracts.Plan) (contracts.RunResult, error) {
	store := trace.NewStore(rc.TracePath)
	emitter := trace.NewEmitter(store, rc.RunID)

	intentID := plan.Intent.IntentID
	planID := plan.PlanID

	emitter.Emit(contracts.EventIntentReceived,
		trace.WithIntentID(intentID),
		trace.WithPlanID(planID),
		trace.WithMessage("Intent received"),
		trace.WithData(map[string]any{"intent": asMap(plan.Intent)}),
	)

	schemaErrors, err := k.contracts.Validate("plan.schema.json", plan)
	if err != nil {
		return contracts.RunResult{}, err
	}
	if len(schemaErrors) > 0 {
		emitter.Emit(contracts.EventError,
			trace.WithIntentID(intentID),
			trace.WithPlanID(planID),
			trace.WithMessage("Plan schema validation failed"),
			trace.WithData(map[string]any{"schema": "plan.schema.json", "errors": schemaErrors}),
		)
		return contracts.RunResult{}, contracts.NewValidationError("plan.schema_invalid",
			"Plan does not validate against plan.schema.json",
			map[string]any{"errors": schemaErrors})
	}

	emitter.Emit(contracts.EventPlanGenerated,
		trace.WithIntentID(intentID),
		trace.WithPlanID(planID),
		trace.WithMessage("Plan validated"),
	)

	result := policy.NewEngine(k.tools).Evaluate(rc, plan)
	emitter.Emit(contracts.EventPolicyDecision,
		trace.WithIntentID(intentID),
		trace.WithPlanID(planID),
		trace.WithPolicy(result.Record()),
	)
	if err := result.Require(); err != nil {
		emitter.Emit(contracts.EventStepDenied,
			trace.WithIntentID(intentID),
			trace.WithPlanID(planID),
			trace.WithMessage(result.Summary),
			trace.WithPolicy(result.Record()),
		)
		return contracts.RunResult{}, err
	}

	return executor.New(k.tools, emitter).Execute(ctx, rc, plan)
}

func asMap(v any) map[string]any {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}
