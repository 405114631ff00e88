package desktop

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pikoninc/nucleus/core/pkg/contracts"
	"github.com/pikoninc/nucleus/core/pkg/paths"
	"github.com/pikoninc/nucleus/core/pkg/planner"
)

// Intents handled by this plugin.
const (
	IntentTidyLegacy    = "desktop.tidy"
	IntentTidyConfigure = "desktop.tidy.configure"
	IntentTidyPreview   = "desktop.tidy.preview"
	IntentTidyRun       = "desktop.tidy.run"
	IntentTidyRestore   = "desktop.tidy.restore"
)

// quarantineDir is where delete-actions route. Nothing is ever removed from
// disk; "delete" means move here.
const quarantineDir = "ToDelete"

// foldersDir is where directory entries route when include_dirs is set.
const foldersDir = "Folders"

// Planner is the config-driven desktop tidy planner. It is deterministic
// given the rules config and the caller-collected entries snapshot; the
// only files it reads are the config named by params.config_path and the
// rules schema.
type Planner struct {
	schemaPath string
	now        func() int64
}

var _ planner.Planner = (*Planner)(nil)

// New creates a planner that validates configs against the rules schema at
// schemaPath (contracts/plugins/builtin.desktop/schemas/desktop_rules.schema.json).
func New(schemaPath string) *Planner {
	return &Planner{
		schemaPath: schemaPath,
		now:        func() int64 { return time.Now().Unix() },
	}
}

// Plan dispatches on intent_id.
func (p *Planner) Plan(intent contracts.Intent) (contracts.Plan, error) {
	switch intent.IntentID {
	case IntentTidyLegacy:
		return p.planLegacyTidy(intent)
	case IntentTidyConfigure:
		return p.planConfigure(intent)
	case IntentTidyPreview:
		return p.planTidyFromConfig(intent, true)
	case IntentTidyRun:
		return p.planTidyFromConfig(intent, false)
	case IntentTidyRestore:
		return p.planRestoreFromConfig(intent)
	case "":
		return contracts.Plan{}, contracts.NewValidationError("intent.invalid", "Missing or invalid intent_id", nil)
	default:
		return contracts.Plan{}, contracts.NewValidationError("intent.unknown",
			fmt.Sprintf("Unsupported intent_id: %s", intent.IntentID),
			map[string]any{"intent_id": intent.IntentID})
	}
}

func (p *Planner) planTidyFromConfig(intent contracts.Intent, preview bool) (contracts.Plan, error) {
	configPath, ok := stringParam(intent.Params, "config_path")
	if !ok {
		return contracts.Plan{}, contracts.NewValidationError("intent.invalid",
			"params.config_path is required for desktop.tidy.preview/run", nil)
	}

	cfg, err := LoadRulesConfig(paths.Expand(configPath), p.schemaPath)
	if err != nil {
		return contracts.Plan{}, err
	}

	rootPath := paths.Expand(cfg.Root.Path)
	stagingDir := paths.Expand(cfg.Root.StagingDir)
	roots, err := requireScope(intent.Scope, rootPath, stagingDir)
	if err != nil {
		return contracts.Plan{}, err
	}

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
		mkdirStep("commit_create_staging_dir", "Create staging_dir (commit)", stagingDir),
	}
	for _, dir := range createdDirs {
		steps = append(steps, mkdirStep(mkdirStepID(dir), fmt.Sprintf("Create folder (commit): %s", dir), dir))
	}
	steps = append(steps, moveSteps...)

	summary := "Desktop tidy (config): no entries provided"
	if len(moveSteps) > 0 {
		summary = fmt.Sprintf("Desktop tidy (config): %d move step(s) planned into %s", len(moveSteps), stagingDir)
	}
	steps = append(steps, notifyStep("commit_notify", "Notify summary (commit)", summary))

	planID := "plan_desktop_tidy_run_001"
	if preview {
		planID = "plan_desktop_tidy_preview_001"
	}
	return contracts.Plan{
		PlanID: planID,
		Intent: intent,
		Risk: contracts.Risk{
			Level:   "low",
			Reasons: []string{"Config-driven staging; no deletes; deterministic tools only."},
		},
		Steps: steps,
	}, nil
}

// buildInput gathers everything buildMoves needs so the legacy and
// config-driven paths share one code path.
type buildInput struct {
	rootPath    string
	stagingDir  string
	cfg         *RulesConfig
	entries     []Entry
	includeDirs bool
	exclude     []string
	roots       []string
}

func (p *Planner) buildInput(intent contracts.Intent, cfg *RulesConfig, rootPath, stagingDir string, roots []string) (buildInput, error) {
	entries, err := entriesParam(intent.Params, "entries")
	if err != nil {
		return buildInput{}, err
	}
	exclude, err := stringSliceParam(intent.Params, "exclude")
	if err != nil {
		return buildInput{}, err
	}
	return buildInput{
		rootPath:    rootPath,
		stagingDir:  stagingDir,
		cfg:         cfg,
		entries:     entries,
		includeDirs: boolParam(intent.Params, "include_dirs"),
		exclude:     exclude,
		roots:       roots,
	}, nil
}

// buildMoves routes every snapshot entry, in snapshot order, to a
// destination directory and emits one move step per routed entry plus the
// set of destination directories needing creation.
func (p *Planner) buildMoves(in buildInput) ([]contracts.Step, []string, error) {
	if len(in.entries) == 0 {
		return nil, nil, nil
	}

	strategy := in.cfg.Safety.CollisionStrategy
	switch strategy {
	case "error", "overwrite", "skip", "suffix_increment":
	default:
		strategy = "suffix_increment"
	}

	now := p.now()
	var moveSteps []contracts.Step
	createdSet := map[string]bool{}
	seq := 0

	for _, entry := range in.entries {
		if shouldSkip(entry.Name, in.exclude, in.cfg.Safety.IgnorePatterns) {
			continue
		}
		if entry.IsDir && !in.includeDirs {
			continue
		}
		if !entry.IsFile && !entry.IsDir {
			continue
		}

		var destDir, destLabel string
		var err error
		if entry.IsDir {
			destDir = filepath.Join(in.stagingDir, foldersDir)
			destLabel = foldersDir
		} else {
			action := in.cfg.Defaults.UnmatchedAction
			ruleID := ""
			if rule, ok := firstMatch(in.cfg.Rules, entry, now); ok {
				action = rule.Action
				ruleID = rule.ID
			}
			destDir, destLabel, err = resolveAction(action, in.cfg, in.stagingDir, in.roots, ruleID)
			if err != nil {
				return nil, nil, err
			}
		}
		createdSet[destDir] = true

		src := filepath.Join(in.rootPath, entry.Name)
		dst := filepath.Join(destDir, entry.Name)
		seq++
		moveSteps = append(moveSteps, contracts.Step{
			StepID: fmt.Sprintf("commit_move_%04d", seq),
			Title:  fmt.Sprintf("Move: %s -> %s", entry.Name, destLabel),
			Phase:  contracts.PhaseCommit,
			Tool: contracts.ToolCall{
				ToolID:   "fs.move",
				Args:     map[string]any{"from": src, "to": dst, "on_conflict": strategy},
				DryRunOK: contracts.Bool(true),
			},
			ExpectedEffects: []contracts.Effect{{
				Kind:      "fs_move",
				Summary:   fmt.Sprintf("Move %s -> %s (on_conflict=%s)", entry.Name, destLabel, strategy),
				Resources: []string{src, dst},
			}},
		})
	}

	createdDirs := make([]string, 0, len(createdSet))
	for dir := range createdSet {
		createdDirs = append(createdDirs, dir)
	}
	sort.Strings(createdDirs)
	return moveSteps, createdDirs, nil
}

// resolveAction maps an action onto an absolute destination directory.
// Delete actions quarantine under ToDelete. move_to must name a folders
// key; the folder value is either an absolute (or ~) path that must fall
// inside the declared roots, or a relative subpath under the staging
// directory with no dot segments.
func resolveAction(action Action, cfg *RulesConfig, stagingDir string, roots []string, ruleID string) (string, string, error) {
	if action.Delete {
		return filepath.Join(stagingDir, quarantineDir), quarantineDir, nil
	}

	key := action.MoveTo
	if key == "" {
		return "", "", configInvalid("action must set move_to or delete", ruleID, key)
	}
	value, ok := cfg.Folders[key]
	if !ok || value == "" {
		return "", "", configInvalid("action.move_to must reference a key in folders", ruleID, key)
	}

	if strings.HasPrefix(value, "~") || filepath.IsAbs(value) {
		dir := paths.Expand(value)
		if !paths.WithinAnyRoot(dir, roots) {
			return "", "", configInvalid("folder destination is outside the declared scope", ruleID, dir)
		}
		return dir, dir, nil
	}

	sub, err := cleanSubpath(value, ruleID)
	if err != nil {
		return "", "", err
	}
	return filepath.Join(stagingDir, sub), sub, nil
}

// cleanSubpath normalizes a staging-relative destination: non-empty, no
// absolute prefix, no "." or ".." segments.
func cleanSubpath(value, ruleID string) (string, error) {
	norm := strings.ReplaceAll(value, "\\", "/")
	if strings.TrimSpace(norm) == "" || strings.HasPrefix(norm, "/") {
		return "", configInvalid("destination must be a non-empty relative subpath", ruleID, value)
	}
	var parts []string
	for _, part := range strings.Split(norm, "/") {
		if part == "" {
			continue
		}
		if part == "." || part == ".." {
			return "", configInvalid("destination must not contain '.' or '..' path segments", ruleID, value)
		}
		parts = append(parts, part)
	}
	if len(parts) == 0 {
		return "", configInvalid("destination must be a non-empty relative subpath", ruleID, value)
	}
	return strings.Join(parts, "/"), nil
}

func configInvalid(message, ruleID, value string) error {
	data := map[string]any{"value": value}
	if ruleID != "" {
		data["rule_id"] = ruleID
	}
	return contracts.NewValidationError("config.invalid", message, data)
}

// requireScope expands the declared roots and insists they cover both the
// tidy root and the staging dir, so the planner never widens scope.
func requireScope(scope contracts.Scope, rootPath, stagingDir string) ([]string, error) {
	roots := paths.NormalizeRoots(scope.FSRoots)
	if len(roots) < 1 {
		return nil, contracts.NewValidationError("scope.missing", "scope.fs_roots must be a non-empty array", nil)
	}
	if !containsOrCovers(roots, rootPath) || !containsOrCovers(roots, stagingDir) {
		return nil, contracts.NewValidationError("scope.invalid",
			"scope.fs_roots must include both the tidy root and the staging dir",
			map[string]any{"required": []string{rootPath, stagingDir}, "fs_roots": roots})
	}
	return roots, nil
}

func containsOrCovers(roots []string, dir string) bool {
	return paths.WithinAnyRoot(dir, roots)
}

func listRootStep(rootPath string) contracts.Step {
	return contracts.Step{
		StepID:        "staging_list_root",
		Title:         "List root directory (staging)",
		Phase:         contracts.PhaseStaging,
		Tool:          contracts.ToolCall{ToolID: "fs.list", Args: map[string]any{"path": rootPath}, DryRunOK: contracts.Bool(true)},
		Preconditions: []string{fmt.Sprintf("Scope includes %s", rootPath)},
	}
}

func mkdirStep(stepID, title, dir string) contracts.Step {
	return contracts.Step{
		StepID: stepID,
		Title:  title,
		Phase:  contracts.PhaseCommit,
		Tool: contracts.ToolCall{
			ToolID:   "fs.mkdir",
			Args:     map[string]any{"path": dir, "parents": true, "exist_ok": true},
			DryRunOK: contracts.Bool(true),
		},
		ExpectedEffects: []contracts.Effect{{
			Kind:      "fs_mkdir",
			Summary:   fmt.Sprintf("Create %s if missing", dir),
			Resources: []string{dir},
		}},
	}
}

func mkdirStepID(dir string) string {
	return "commit_mkdir_" + strings.ReplaceAll(strings.ReplaceAll(dir, string(filepath.Separator), "_"), " ", "_")
}

func notifyStep(stepID, title, message string) contracts.Step {
	return contracts.Step{
		StepID: stepID,
		Title:  title,
		Phase:  contracts.PhaseCommit,
		Tool: contracts.ToolCall{
			ToolID:   "notify.send",
			Args:     map[string]any{"message": message},
			DryRunOK: contracts.Bool(true),
		},
	}
}
