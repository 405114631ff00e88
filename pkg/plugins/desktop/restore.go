package desktop

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pikoninc/nucleus/core/pkg/contracts"
	"github.com/pikoninc/nucleus/core/pkg/paths"
)

// planRestoreFromConfig moves previously sorted files from the staging tree
// back to the root. The caller supplies params.sorted_entries, a walk
// snapshot of the staging directory ({path, is_file} relative entries).
func (p *Planner) planRestoreFromConfig(intent contracts.Intent) (contracts.Plan, error) {
	configPath, ok := stringParam(intent.Params, "config_path")
	if !ok {
		return contracts.Plan{}, contracts.NewValidationError("intent.invalid",
			"params.config_path is required for desktop.tidy.restore", nil)
	}

	cfg, err := LoadRulesConfig(paths.Expand(configPath), p.schemaPath)
	if err != nil {
		return contracts.Plan{}, err
	}

	rootPath := paths.Expand(cfg.Root.Path)
	stagingDir := paths.Expand(cfg.Root.StagingDir)
	if _, err := requireScope(intent.Scope, rootPath, stagingDir); err != nil {
		return contracts.Plan{}, err
	}

	strategy := cfg.Safety.CollisionStrategy
	switch strategy {
	case "error", "overwrite", "skip", "suffix_increment":
	default:
		strategy = "suffix_increment"
	}

	exclude, err := stringSliceParam(intent.Params, "exclude")
	if err != nil {
		return contracts.Plan{}, err
	}
	moveSteps, err := buildRestoreMoves(intent.Params, rootPath, stagingDir, strategy, exclude)
	if err != nil {
		return contracts.Plan{}, err
	}

	steps := []contracts.Step{
		notifyStep("commit_notify_restore", "Notify (commit)", fmt.Sprintf("Desktop restore (config): root=%s", rootPath)),
	}
	steps = append(steps, moveSteps...)

	return contracts.Plan{
		PlanID: "plan_desktop_tidy_restore_001",
		Intent: intent,
		Risk: contracts.Risk{
			Level:   "low",
			Reasons: []string{"Config-driven restore (no deletes)."},
		},
		Steps: steps,
	}, nil
}

func buildRestoreMoves(params map[string]any, rootPath, stagingDir, strategy string, exclude []string) ([]contracts.Step, error) {
	raw, present := params["sorted_entries"]
	if !present || raw == nil {
		return nil, nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, contracts.NewValidationError("intent.invalid",
			"params.sorted_entries must be an array when provided", nil)
	}

	type fileEntry struct {
		relPath string
	}
	var files []fileEntry
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		relPath, _ := m["path"].(string)
		isFile, _ := m["is_file"].(bool)
		if relPath == "" || !isFile {
			continue
		}
		files = append(files, fileEntry{relPath: relPath})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].relPath < files[j].relPath })

	var steps []contracts.Step
	seq := 0
	for _, f := range files {
		base := f.relPath
		if i := strings.LastIndex(base, "/"); i >= 0 {
			base = base[i+1:]
		}
		if base == "" || strings.HasPrefix(base, ".") || matchesAny(base, exclude) {
			continue
		}

		src := filepath.Join(stagingDir, filepath.FromSlash(f.relPath))
		dst := filepath.Join(rootPath, base)
		seq++
		steps = append(steps, contracts.Step{
			StepID: fmt.Sprintf("commit_restore_%04d", seq),
			Title:  fmt.Sprintf("Restore: %s", base),
			Phase:  contracts.PhaseCommit,
			Tool: contracts.ToolCall{
				ToolID:   "fs.move",
				Args:     map[string]any{"from": src, "to": dst, "on_conflict": strategy},
				DryRunOK: contracts.Bool(true),
			},
			ExpectedEffects: []contracts.Effect{{
				Kind:      "fs_move",
				Summary:   fmt.Sprintf("Restore %s (on_conflict=%s)", base, strategy),
				Resources: []string{src, dst},
			}},
		})
	}
	return steps, nil
}

func matchesAny(name string, patterns []string) bool {
	for _, pattern := range patterns {
		if ok, err := filepath.Match(pattern, name); err == nil && ok {
			return true
		}
	}
	return false
}
