package contractstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const coreSchemasDir = "../../contracts/core/schemas"

func loadedStore(t *testing.T) *Store {
	t.Helper()
	store := NewStore(coreSchemasDir)
	require.NoError(t, store.Load())
	return store
}

func TestLoad_ShippedSchemas(t *testing.T) {
	store := loadedStore(t)

	assert.Equal(t, []string{
		"defs.schema.json",
		"intent.schema.json",
		"plan.schema.json",
		"plugin_manifest.schema.json",
		"trace_event.schema.json",
	}, store.SchemaNames())
	assert.Empty(t, store.CheckSchemas())
}

func TestLoad_RequiresDefs(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "thing.schema.json"), []byte(`{"type":"object"}`), 0o644))

	store := NewStore(dir)
	err := store.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "defs.schema.json")
}

func TestValidate_CoreExamples(t *testing.T) {
	store := loadedStore(t)

	cases := map[string]string{
		"intent.schema.json":          "../../contracts/core/examples/intent.example.json",
		"plan.schema.json":            "../../contracts/core/examples/plan.example.json",
		"plugin_manifest.schema.json": "../../contracts/core/examples/plugin_manifest.example.json",
		"trace_event.schema.json":     "../../contracts/core/examples/trace_event.example.json",
	}
	for schema, example := range cases {
		msgs, err := store.ValidateJSONFile(schema, example)
		require.NoError(t, err, schema)
		assert.Empty(t, msgs, "%s should accept %s", schema, example)
	}
}

func TestValidate_RejectsBadPlan(t *testing.T) {
	store := loadedStore(t)

	plan := map[string]any{
		"plan_id": "p1",
		"intent": map[string]any{
			"intent_id": "x",
			"params":    map[string]any{},
			"scope":     map[string]any{"fs_roots": []any{"/tmp"}},
		},
		"risk": map[string]any{"level": "low", "reasons": []any{}},
		// steps missing
	}
	msgs, err := store.Validate("plan.schema.json", plan)
	require.NoError(t, err)
	assert.NotEmpty(t, msgs)
}

func TestValidate_RejectsUnknownFields(t *testing.T) {
	store := loadedStore(t)

	intent := map[string]any{
		"intent_id": "x",
		"params":    map[string]any{},
		"scope":     map[string]any{"fs_roots": []any{"/tmp"}},
		"surprise":  true,
	}
	msgs, err := store.Validate("intent.schema.json", intent)
	require.NoError(t, err)
	assert.NotEmpty(t, msgs)
}

func TestValidate_TypedInstanceRoundTrips(t *testing.T) {
	store := loadedStore(t)

	type scope struct {
		FSRoots []string `json:"fs_roots"`
	}
	type intent struct {
		IntentID string         `json:"intent_id"`
		Params   map[string]any `json:"params"`
		Scope    scope          `json:"scope"`
	}
	msgs, err := store.Validate("intent.schema.json", intent{
		IntentID: "test.intent",
		Params:   map[string]any{},
		Scope:    scope{FSRoots: []string{"/tmp"}},
	})
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestValidate_UnknownSchema(t *testing.T) {
	store := loadedStore(t)
	_, err := store.Validate("missing.schema.json", map[string]any{})
	assert.Error(t, err)
}

func TestValidateJSONLFile(t *testing.T) {
	store := loadedStore(t)

	path := filepath.Join(t.TempDir(), "trace.jsonl")
	content := `{"ts":"2025-11-02T00:00:00Z","run_id":"r1","event_type":"intent_received"}
not json

{"ts":"2025-11-02T00:00:01Z","run_id":"r1","event_type":"bogus_event"}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	msgs, err := store.ValidateJSONLFile("trace_event.schema.json", path)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[0], "line 2: invalid json")
	assert.Contains(t, msgs[1], "line 4:")
}
