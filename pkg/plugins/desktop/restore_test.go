package desktop

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRestore_MovesFilesBack(t *testing.T) {
	f := newFixture(t)
	p := New(rulesSchemaPath)

	plan, err := p.Plan(f.intent(IntentTidyRestore, map[string]any{
		"sorted_entries": []any{
			map[string]any{"path": "Misc/note.bin", "is_file": true},
			map[string]any{"path": "Images/pic.jpg", "is_file": true},
			map[string]any{"path": "Images", "is_file": false, "is_dir": true},
		},
	}))
	require.NoError(t, err)
	assert.Equal(t, "plan_desktop_tidy_restore_001", plan.PlanID)

	assert.Equal(t, "commit_notify_restore", plan.Steps[0].StepID)

	moves := moveSteps(plan)
	require.Len(t, moves, 2)
	// Restore order is sorted by relative path.
	assert.Equal(t, filepath.Join(f.staging, "Images", "pic.jpg"), moves[0].Tool.Args["from"])
	assert.Equal(t, filepath.Join(f.root, "pic.jpg"), moves[0].Tool.Args["to"])
	assert.Equal(t, "commit_restore_0001", moves[0].StepID)
	assert.Equal(t, filepath.Join(f.root, "note.bin"), moves[1].Tool.Args["to"])
}

func TestRestore_SkipsHiddenAndExcluded(t *testing.T) {
	f := newFixture(t)
	p := New(rulesSchemaPath)

	plan, err := p.Plan(f.intent(IntentTidyRestore, map[string]any{
		"sorted_entries": []any{
			map[string]any{"path": "Misc/.DS_Store", "is_file": true},
			map[string]any{"path": "Misc/skipme.txt", "is_file": true},
			map[string]any{"path": "Misc/keep.txt", "is_file": true},
		},
		"exclude": []any{"skipme.txt"},
	}))
	require.NoError(t, err)

	moves := moveSteps(plan)
	require.Len(t, moves, 1)
	assert.Equal(t, filepath.Join(f.root, "keep.txt"), moves[0].Tool.Args["to"])
}

func TestRestore_NoEntries(t *testing.T) {
	f := newFixture(t)
	p := New(rulesSchemaPath)

	plan, err := p.Plan(f.intent(IntentTidyRestore, nil))
	require.NoError(t, err)
	assert.Empty(t, moveSteps(plan))
	require.Len(t, plan.Steps, 1)
}
