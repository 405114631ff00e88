package desktop

import (
	"fmt"
	"path/filepath"

	"github.com/pikoninc/nucleus/core/pkg/contracts"
	"github.com/pikoninc/nucleus/core/pkg/paths"
)

// planLegacyTidy handles the pre-config intent `desktop.tidy`. It needs no
// config file: a built-in rule set routes into a _Sorted staging directory
// under the target. Kept for existing adapters; new callers use the
// config-driven preview/run intents.
func (p *Planner) planLegacyTidy(intent contracts.Intent) (contracts.Plan, error) {
	targetDir, ok := stringParam(intent.Params, "target_dir")
	if !ok {
		if _, present := intent.Params["target_dir"]; present {
			return contracts.Plan{}, contracts.NewValidationError("intent.invalid",
				"params.target_dir must be a non-empty string when provided", nil)
		}
		targetDir = "~/Desktop"
	}
	rootPath := paths.Expand(targetDir)

	stagingDir, ok := stringParam(intent.Params, "staging_dir")
	if !ok {
		stagingDir = filepath.Join(rootPath, "_Sorted")
	} else {
		stagingDir = paths.Expand(stagingDir)
	}

	roots, err := requireScope(intent.Scope, rootPath, stagingDir)
	if err != nil {
		return contracts.Plan{}, err
	}

	strategy := "suffix_increment"
	if v, ok := stringParam(intent.Params, "overwrite_strategy"); ok {
		switch v {
		case "error", "overwrite", "skip", "suffix_increment":
			strategy = v
		}
	}

	cfg := legacyConfig(rootPath, stagingDir, strategy)
	buildIn, err := p.buildInput(intent, cfg, rootPath, stagingDir, roots)
	if err != nil {
		return contracts.Plan{}, err
	}
	moveSteps, createdDirs, err := p.buildMoves(buildIn)
	if err != nil {
		return contracts.Plan{}, err
	}

	steps := []contracts.Step{
		listRootStep(rootPath),
		mkdirStep("commit_create_sorted_dir", "Create _Sorted staging dir (commit)", stagingDir),
	}
	for _, dir := range createdDirs {
		steps = append(steps, mkdirStep(mkdirStepID(dir), fmt.Sprintf("Create folder (commit): %s", dir), dir))
	}
	steps = append(steps, moveSteps...)

	summary := "Desktop tidy (legacy): no entries provided"
	if len(moveSteps) > 0 {
		summary = fmt.Sprintf("Desktop tidy (legacy): %d move step(s) planned into %s", len(moveSteps), stagingDir)
	}
	steps = append(steps, notifyStep("commit_notify", "Notify summary (commit)", summary))

	return contracts.Plan{
		PlanID: "plan_desktop_tidy_legacy_001",
		Intent: intent,
		Risk: contracts.Risk{
			Level:   "low",
			Reasons: []string{"Built-in legacy rules; no deletes; deterministic tools only."},
		},
		Steps: steps,
	}, nil
}

// legacyConfig is the built-in rule set the legacy intent runs with. Folder
// values are staging-relative subpaths.
func legacyConfig(rootPath, stagingDir, strategy string) *RulesConfig {
	return &RulesConfig{
		Version: "0.1",
		Plugin:  PluginID,
		Root:    RootConfig{Path: rootPath, StagingDir: stagingDir},
		Folders: map[string]string{
			"screenshots": "Screenshots",
			"documents":   "Documents",
			"images":      "Images",
			"archives":    "Archives",
			"misc":        "Misc",
		},
		Rules: []Rule{
			{
				ID:     "legacy_screenshots",
				Match:  Match{Any: []Atom{{FilenameRegex: strPtr("^Screen Shot ")}}},
				Action: Action{MoveTo: "screenshots"},
			},
			{
				ID:     "legacy_images",
				Match:  Match{Any: []Atom{{ExtIn: []string{"png", "jpg", "jpeg", "gif", "webp", "heic", "svg"}}}},
				Action: Action{MoveTo: "images"},
			},
			{
				ID:     "legacy_documents",
				Match:  Match{Any: []Atom{{ExtIn: []string{"pdf", "doc", "docx", "xls", "xlsx", "ppt", "pptx", "txt", "md", "csv"}}}},
				Action: Action{MoveTo: "documents"},
			},
			{
				ID:     "legacy_archives",
				Match:  Match{Any: []Atom{{ExtIn: []string{"zip", "7z", "rar", "tar", "gz", "bz2", "xz"}}}},
				Action: Action{MoveTo: "archives"},
			},
		},
		Defaults: DefaultsConfig{UnmatchedAction: Action{MoveTo: "misc"}},
		Safety: SafetyConfig{
			NoDelete:          true,
			RequireStaging:    true,
			CollisionStrategy: strategy,
			IgnorePatterns:    []string{".DS_Store"},
		},
	}
}

// planConfigure returns a notify-only plan carrying a scaffold config. The
// plugin has no file-writing tool, so the scaffold is handed back as output
// for the human to save.
func (p *Planner) planConfigure(intent contracts.Intent) (contracts.Plan, error) {
	if raw, present := intent.Params["config_path"]; present {
		if s, ok := raw.(string); !ok || s == "" {
			return contracts.Plan{}, contracts.NewValidationError("intent.invalid",
				"params.config_path must be a non-empty string when provided", nil)
		}
	}

	scaffold := `version: "0.1"
plugin: "builtin.desktop"

root:
  path: "~/Desktop"
  staging_dir: "~/Desktop_Staging"

folders:
  screenshots: "Screenshots"
  images: "Images"
  documents: "Documents"
  archives: "Archives"
  misc: "Misc"

rules:
  - id: "rule_screenshots"
    match:
      any:
        - filename_regex: "^Screen Shot "
    action:
      move_to: "screenshots"

  - id: "rule_images"
    match:
      any:
        - mime_prefix: "image/"
    action:
      move_to: "images"

  - id: "rule_docs"
    match:
      any:
        - ext_in: ["pdf", "docx", "xlsx", "pptx", "txt", "md"]
    action:
      move_to: "documents"

defaults:
  unmatched_action:
    move_to: "misc"

safety:
  no_delete: true
  require_staging: true
  collision_strategy: "suffix_increment"
  ignore_patterns: [".DS_Store"]
`

	return contracts.Plan{
		PlanID: "plan_desktop_tidy_configure_001",
		Intent: intent,
		Risk: contracts.Risk{
			Level:   "low",
			Reasons: []string{"Configuration scaffolding only (no filesystem changes)."},
		},
		Steps: []contracts.Step{
			{
				StepID: "commit_notify_scaffold",
				Title:  "Print scaffold config (commit)",
				Phase:  contracts.PhaseCommit,
				Tool: contracts.ToolCall{
					ToolID:   "notify.send",
					Args:     map[string]any{"message": scaffold},
					DryRunOK: contracts.Bool(true),
				},
			},
		},
	}, nil
}

func strPtr(s string) *string { return &s }
