package registry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pikoninc/nucleus/core/pkg/contracts"
)

func echoTool(args map[string]any, dryRun bool) (map[string]any, error) {
	return map[string]any{"args": args, "dry_run": dryRun}, nil
}

func stringArgSchema(key string) map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           map[string]any{key: map[string]any{"type": "string"}},
		"required":             []any{key},
	}
}

func TestRegister_CompilesArgsSchema(t *testing.T) {
	reg := NewToolRegistry()
	err := reg.Register(contracts.ToolDef{
		ToolID:     "t.bad",
		ArgsSchema: map[string]any{"type": "nonsense"},
	}, echoTool)
	assert.Error(t, err)
}

func TestRegister_RequiresImpl(t *testing.T) {
	reg := NewToolRegistry()
	err := reg.Register(contracts.ToolDef{ToolID: "t.noimpl", ArgsSchema: stringArgSchema("x")}, nil)
	assert.Error(t, err)
}

func TestList_SortedByToolID(t *testing.T) {
	reg := NewToolRegistry()
	for _, id := range []string{"z.last", "a.first", "m.middle"} {
		require.NoError(t, reg.Register(contracts.ToolDef{ToolID: id, ArgsSchema: stringArgSchema("x")}, echoTool))
	}

	defs := reg.List()
	require.Len(t, defs, 3)
	assert.Equal(t, "a.first", defs[0].ToolID)
	assert.Equal(t, "m.middle", defs[1].ToolID)
	assert.Equal(t, "z.last", defs[2].ToolID)
}

func TestValidateArgs(t *testing.T) {
	reg := NewToolRegistry()
	require.NoError(t, reg.Register(contracts.ToolDef{ToolID: "t.echo", ArgsSchema: stringArgSchema("path")}, echoTool))

	msgs, err := reg.ValidateArgs("t.echo", map[string]any{"path": "/tmp"})
	require.NoError(t, err)
	assert.Empty(t, msgs)

	msgs, err = reg.ValidateArgs("t.echo", map[string]any{"path": 7})
	require.NoError(t, err)
	assert.NotEmpty(t, msgs)

	msgs, err = reg.ValidateArgs("t.echo", map[string]any{"path": "/tmp", "extra": true})
	require.NoError(t, err)
	assert.NotEmpty(t, msgs, "additionalProperties:false must reject unknown fields")
}

func TestValidateArgs_UnknownTool(t *testing.T) {
	reg := NewToolRegistry()
	_, err := reg.ValidateArgs("t.missing", map[string]any{})
	var notFound *contracts.ToolNotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "tool.unknown", notFound.Code)
}

func TestCall(t *testing.T) {
	reg := NewToolRegistry()
	require.NoError(t, reg.Register(contracts.ToolDef{ToolID: "t.echo", ArgsSchema: stringArgSchema("x")}, echoTool))

	out, err := reg.Call("t.echo", map[string]any{"x": "v"}, true)
	require.NoError(t, err)
	assert.Equal(t, true, out["dry_run"])

	_, err = reg.Call("t.other", nil, false)
	var notFound *contracts.ToolNotFoundError
	assert.True(t, errors.As(err, &notFound))
}

func TestFingerprint_StableAndSensitive(t *testing.T) {
	reg := NewToolRegistry()
	require.NoError(t, reg.Register(contracts.ToolDef{ToolID: "t.echo", Version: "1.0.0", ArgsSchema: stringArgSchema("x")}, echoTool))

	fp1, ok := reg.Fingerprint("t.echo")
	require.True(t, ok)
	fp2, ok := reg.Fingerprint("t.echo")
	require.True(t, ok)
	assert.Equal(t, fp1, fp2)

	require.NoError(t, reg.Register(contracts.ToolDef{ToolID: "t.echo", Version: "1.0.1", ArgsSchema: stringArgSchema("x")}, echoTool))
	fp3, ok := reg.Fingerprint("t.echo")
	require.True(t, ok)
	assert.NotEqual(t, fp1, fp3)

	_, ok = reg.Fingerprint("t.missing")
	assert.False(t, ok)
}
