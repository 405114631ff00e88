package trace

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pikoninc/nucleus/core/pkg/contracts"
)

func TestEmitter_AppendsInOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.jsonl")
	emitter := NewEmitter(NewStore(path), "run_t1")

	emitter.Emit(contracts.EventIntentReceived, WithIntentID("i1"), WithMessage("Intent received"))
	emitter.Emit(contracts.EventPlanGenerated, WithIntentID("i1"), WithPlanID("p1"))
	emitter.Emit(contracts.EventRunFinished, WithPlanID("p1"), WithData(map[string]any{"ok": true}))

	events, err := ReadEvents(path)
	require.NoError(t, err)
	require.Len(t, events, 3)

	assert.Equal(t, contracts.EventIntentReceived, events[0].EventType)
	assert.Equal(t, contracts.EventPlanGenerated, events[1].EventType)
	assert.Equal(t, contracts.EventRunFinished, events[2].EventType)
	for _, ev := range events {
		assert.Equal(t, "run_t1", ev.RunID)
		assert.True(t, strings.HasSuffix(ev.TS, "Z"), "ts must carry a Z suffix: %s", ev.TS)
	}
	assert.True(t, events[0].TS <= events[1].TS && events[1].TS <= events[2].TS)
}

func TestStore_CanonicalLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.jsonl")
	store := NewStore(path)

	ev := contracts.TraceEvent{
		TS:        "2025-11-02T12:30:45Z",
		RunID:     "run_t2",
		EventType: contracts.EventStepFinished,
		StepID:    "s1",
		Data:      map[string]any{"b": 1, "a": 2},
	}
	require.NoError(t, store.Append(ev))
	require.NoError(t, store.Append(ev))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, lines[0], lines[1], "identical events must serialize identically")
	assert.Less(t, strings.Index(lines[0], `"a"`), strings.Index(lines[0], `"b"`), "keys are sorted")
}

func TestStore_CreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "trace.jsonl")
	store := NewStore(path)
	require.NoError(t, store.Append(contracts.TraceEvent{TS: "2025-11-02T00:00:00Z", RunID: "r", EventType: "error"}))
	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestReadEvents_MissingFile(t *testing.T) {
	events, err := ReadEvents(filepath.Join(t.TempDir(), "absent.jsonl"))
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestReadEvents_SkipsBlankLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.jsonl")
	content := `{"ts":"2025-11-02T00:00:00Z","run_id":"r","event_type":"error"}

{"ts":"2025-11-02T00:00:01Z","run_id":"r","event_type":"run_finished"}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	events, err := ReadEvents(path)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "run_finished", events[1].EventType)
}
