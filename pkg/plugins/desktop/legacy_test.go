package desktop

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pikoninc/nucleus/core/pkg/contracts"
)

func TestLegacyTidy_BuiltinRules(t *testing.T) {
	base := t.TempDir()
	root := filepath.Join(base, "Desktop")
	staging := filepath.Join(root, "_Sorted")

	p := New(rulesSchemaPath)
	plan, err := p.Plan(contracts.Intent{
		IntentID: IntentTidyLegacy,
		Params: map[string]any{
			"target_dir": root,
			"entries":    entriesOf("Screen Shot 2025.png", "photo.jpg", "report.pdf", "bundle.zip", "mystery.xyz"),
		},
		Scope: contracts.Scope{FSRoots: []string{root, staging}},
	})
	require.NoError(t, err)
	assert.Equal(t, "plan_desktop_tidy_legacy_001", plan.PlanID)

	moves := moveSteps(plan)
	require.Len(t, moves, 5)
	assert.Equal(t, filepath.Join(staging, "Screenshots", "Screen Shot 2025.png"), moves[0].Tool.Args["to"])
	assert.Equal(t, filepath.Join(staging, "Images", "photo.jpg"), moves[1].Tool.Args["to"])
	assert.Equal(t, filepath.Join(staging, "Documents", "report.pdf"), moves[2].Tool.Args["to"])
	assert.Equal(t, filepath.Join(staging, "Archives", "bundle.zip"), moves[3].Tool.Args["to"])
	assert.Equal(t, filepath.Join(staging, "Misc", "mystery.xyz"), moves[4].Tool.Args["to"])

	for _, m := range moves {
		assert.Equal(t, "suffix_increment", m.Tool.Args["on_conflict"])
	}
}

func TestLegacyTidy_OverwriteStrategyParam(t *testing.T) {
	base := t.TempDir()
	root := filepath.Join(base, "Desktop")
	staging := filepath.Join(root, "_Sorted")

	p := New(rulesSchemaPath)
	plan, err := p.Plan(contracts.Intent{
		IntentID: IntentTidyLegacy,
		Params: map[string]any{
			"target_dir":         root,
			"overwrite_strategy": "skip",
			"entries":            entriesOf("a.txt"),
		},
		Scope: contracts.Scope{FSRoots: []string{root, staging}},
	})
	require.NoError(t, err)

	moves := moveSteps(plan)
	require.Len(t, moves, 1)
	assert.Equal(t, "skip", moves[0].Tool.Args["on_conflict"])
}

func TestLegacyTidy_ScopeMustCoverStaging(t *testing.T) {
	base := t.TempDir()
	root := filepath.Join(base, "Desktop")

	p := New(rulesSchemaPath)
	_, err := p.Plan(contracts.Intent{
		IntentID: IntentTidyLegacy,
		Params:   map[string]any{"target_dir": root, "staging_dir": filepath.Join(base, "Elsewhere")},
		Scope:    contracts.Scope{FSRoots: []string{root}},
	})
	var verr *contracts.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "scope.invalid", verr.Code)
}

func TestConfigure_ScaffoldOnly(t *testing.T) {
	p := New(rulesSchemaPath)
	plan, err := p.Plan(contracts.Intent{
		IntentID: IntentTidyConfigure,
		Params:   map[string]any{},
		Scope:    contracts.Scope{FSRoots: []string{"/tmp"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "plan_desktop_tidy_configure_001", plan.PlanID)

	require.Len(t, plan.Steps, 1)
	step := plan.Steps[0]
	assert.Equal(t, "notify.send", step.Tool.ToolID)
	message := step.Tool.Args["message"].(string)
	assert.Contains(t, message, `plugin: "builtin.desktop"`)
	assert.Contains(t, message, "collision_strategy")
	assert.Empty(t, moveSteps(plan), "configure never touches the filesystem")
}
