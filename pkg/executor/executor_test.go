package executor

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pikoninc/nucleus/core/pkg/contracts"
	"github.com/pikoninc/nucleus/core/pkg/registry"
	"github.com/pikoninc/nucleus/core/pkg/trace"
)

func testTools(t *testing.T) *registry.ToolRegistry {
	t.Helper()
	reg := registry.NewToolRegistry()

	echoSchema := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           map[string]any{"value": map[string]any{"type": "string"}},
		"required":             []any{"value"},
	}
	require.NoError(t, reg.Register(
		contracts.ToolDef{ToolID: "test.echo", SupportsDryRun: true, ArgsSchema: echoSchema},
		func(args map[string]any, dryRun bool) (map[string]any, error) {
			return map[string]any{"value": args["value"], "dry_run": dryRun}, nil
		},
	))
	require.NoError(t, reg.Register(
		contracts.ToolDef{ToolID: "test.boom", SupportsDryRun: true, ArgsSchema: map[string]any{"type": "object"}},
		func(args map[string]any, dryRun bool) (map[string]any, error) {
			return nil, fmt.Errorf("kaboom")
		},
	))
	return reg
}

func run(t *testing.T, reg *registry.ToolRegistry, plan contracts.Plan) (contracts.RunResult, []contracts.TraceEvent, error) {
	t.Helper()
	tracePath := filepath.Join(t.TempDir(), "trace.jsonl")
	emitter := trace.NewEmitter(trace.NewStore(tracePath), "run_exec")
	rc := contracts.RuntimeContext{RunID: "run_exec", DryRun: true, StrictDryRun: true, TracePath: tracePath}

	result, err := New(reg, emitter).Execute(context.Background(), rc, plan)
	events, readErr := trace.ReadEvents(tracePath)
	require.NoError(t, readErr)
	return result, events, err
}

func execPlan(steps ...contracts.Step) contracts.Plan {
	return contracts.Plan{
		PlanID: "p_exec",
		Intent: contracts.Intent{IntentID: "test.exec", Params: map[string]any{}, Scope: contracts.Scope{FSRoots: []string{"/tmp"}}},
		Risk:   contracts.Risk{Level: "low", Reasons: []string{"test"}},
		Steps:  steps,
	}
}

func eventTypes(events []contracts.TraceEvent) []string {
	out := make([]string, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.EventType)
	}
	return out
}

func TestExecute_HappyPath(t *testing.T) {
	plan := execPlan(
		contracts.Step{StepID: "s1", Title: "one", Phase: "commit",
			Tool: contracts.ToolCall{ToolID: "test.echo", Args: map[string]any{"value": "a"}}},
		contracts.Step{StepID: "s2", Title: "two", Phase: "commit",
			Tool: contracts.ToolCall{ToolID: "test.echo", Args: map[string]any{"value": "b"}}},
	)

	result, events, err := run(t, testTools(t), plan)
	require.NoError(t, err)

	assert.Equal(t, "p_exec", result.PlanID)
	require.Len(t, result.Results, 2)
	assert.Equal(t, "s1", result.Results[0].StepID)
	assert.Equal(t, "test.echo", result.Results[0].ToolID)
	assert.Equal(t, "a", result.Results[0].Output["value"])
	assert.Equal(t, true, result.Results[0].Output["dry_run"])

	assert.Equal(t, []string{
		"step_started", "step_finished",
		"step_started", "step_finished",
		"run_finished",
	}, eventTypes(events))

	// step_finished keeps the output intact for replay.
	assert.Equal(t, "a", events[1].Data["output"].(map[string]any)["value"])
	assert.Equal(t, true, events[4].Data["ok"])
}

func TestExecute_ArgsInvalid(t *testing.T) {
	plan := execPlan(contracts.Step{StepID: "s1", Title: "bad", Phase: "commit",
		Tool: contracts.ToolCall{ToolID: "test.echo", Args: map[string]any{"value": 42}}})

	_, events, err := run(t, testTools(t), plan)
	var verr *contracts.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "tool.args_invalid", verr.Code)
	assert.Equal(t, "test.echo", verr.Data["tool_id"])

	assert.Equal(t, []string{"step_denied"}, eventTypes(events))
	assert.Equal(t, "s1", events[0].StepID)
}

func TestExecute_UnknownTool(t *testing.T) {
	plan := execPlan(contracts.Step{StepID: "s1", Title: "nope", Phase: "commit",
		Tool: contracts.ToolCall{ToolID: "test.ghost", Args: map[string]any{}}})

	_, events, err := run(t, testTools(t), plan)
	var notFound *contracts.ToolNotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "tool.unknown", notFound.Code)
	assert.Equal(t, []string{"step_denied"}, eventTypes(events))
}

func TestExecute_ToolError(t *testing.T) {
	plan := execPlan(
		contracts.Step{StepID: "s1", Title: "ok", Phase: "commit",
			Tool: contracts.ToolCall{ToolID: "test.echo", Args: map[string]any{"value": "a"}}},
		contracts.Step{StepID: "s2", Title: "boom", Phase: "commit",
			Tool: contracts.ToolCall{ToolID: "test.boom", Args: map[string]any{}}},
	)

	_, events, err := run(t, testTools(t), plan)
	var execErr *contracts.ToolExecutionError
	require.True(t, errors.As(err, &execErr))
	assert.Equal(t, "tool.error", execErr.Code)
	assert.Equal(t, "test.boom", execErr.Data["tool_id"])

	assert.Equal(t, []string{
		"step_started", "step_finished",
		"step_started", "error",
	}, eventTypes(events))
	assert.Equal(t, "kaboom", events[3].Data["error"])
}

func TestExecute_RejectsEmptyPlan(t *testing.T) {
	reg := testTools(t)

	_, _, err := run(t, reg, contracts.Plan{})
	var verr *contracts.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "plan.invalid", verr.Code)

	plan := execPlan()
	_, _, err = run(t, reg, plan)
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "plan.invalid", verr.Code)
}

func TestExecute_RejectsStepWithoutArgs(t *testing.T) {
	plan := execPlan(contracts.Step{StepID: "s1", Title: "no args", Phase: "commit",
		Tool: contracts.ToolCall{ToolID: "test.echo"}})

	_, _, err := run(t, testTools(t), plan)
	var verr *contracts.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "plan.step_invalid", verr.Code)
}
