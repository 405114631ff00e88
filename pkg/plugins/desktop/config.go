// Package desktop is the reference "desktop tidy" plugin: a config-driven
// rule engine that turns a directory snapshot into a rollback-friendly plan
// of move steps. Files are never deleted; delete actions quarantine into a
// ToDelete subtree under the staging directory.
package desktop

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/pikoninc/nucleus/core/pkg/contracts"
	"github.com/pikoninc/nucleus/core/pkg/contractstore"
)

// PluginID is the canonical plugin identifier.
const PluginID = "builtin.desktop"

// RulesConfig is the user-owned sorting configuration, YAML or JSON.
type RulesConfig struct {
	Version  string            `json:"version"`
	Plugin   string            `json:"plugin"`
	Root     RootConfig        `json:"root"`
	Folders  map[string]string `json:"folders"`
	Rules    []Rule            `json:"rules"`
	Defaults DefaultsConfig    `json:"defaults"`
	Safety   SafetyConfig      `json:"safety"`
}

// RootConfig names the directory to tidy and the staging directory moves
// land under.
type RootConfig struct {
	Path       string `json:"path"`
	StagingDir string `json:"staging_dir"`
}

// Rule pairs a match expression with an action. Rules are evaluated in
// declared order; the first match wins.
type Rule struct {
	ID     string `json:"id"`
	Match  Match  `json:"match"`
	Action Action `json:"action"`
}

// Match combines atoms: empty lists are vacuously true, otherwise any one
// of Any must match and every one of All must match.
type Match struct {
	Any []Atom `json:"any,omitempty"`
	All []Atom `json:"all,omitempty"`
}

// Atom is one predicate over a snapshot entry. Exactly one field is set.
type Atom struct {
	FilenameRegex     *string  `json:"filename_regex,omitempty"`
	ExtIn             []string `json:"ext_in,omitempty"`
	MimePrefix        *string  `json:"mime_prefix,omitempty"`
	CreatedWithinDays *int     `json:"created_within_days,omitempty"`
}

// Action routes a matched entry: either to a folder key, or into the
// quarantine subtree when Delete is true.
type Action struct {
	MoveTo string `json:"move_to,omitempty"`
	Delete bool   `json:"delete,omitempty"`
}

// DefaultsConfig handles entries no rule matched.
type DefaultsConfig struct {
	UnmatchedAction Action `json:"unmatched_action"`
}

// SafetyConfig carries the collision strategy and skip patterns.
type SafetyConfig struct {
	NoDelete          bool     `json:"no_delete,omitempty"`
	RequireStaging    bool     `json:"require_staging,omitempty"`
	CollisionStrategy string   `json:"collision_strategy,omitempty"`
	IgnorePatterns    []string `json:"ignore_patterns,omitempty"`
}

// LoadRulesConfig reads, schema-validates and decodes a rules config file.
// YAML and JSON are both accepted (YAML is parsed as a superset). The
// schema lives at schemaPath; semantic checks beyond the schema happen in
// the planner.
func LoadRulesConfig(configPath, schemaPath string) (*RulesConfig, error) {
	raw, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, contracts.NewValidationError("config.not_found",
				fmt.Sprintf("Config not found: %s", configPath), nil)
		}
		return nil, fmt.Errorf("desktop: read config: %w", err)
	}

	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, contracts.NewValidationError("config.invalid_yaml",
			"Failed to parse YAML config", map[string]any{"error": err.Error()})
	}
	plain, err := yamlToPlain(doc)
	if err != nil {
		return nil, contracts.NewValidationError("config.invalid_yaml",
			"Config is not JSON-compatible", map[string]any{"error": err.Error()})
	}
	if _, ok := plain.(map[string]any); !ok {
		return nil, contracts.NewValidationError("config.invalid",
			"Config must be a mapping/object at top-level", nil)
	}

	sch, err := compileRulesSchema(schemaPath)
	if err != nil {
		return nil, contracts.NewValidationError("config.schema_missing",
			"Config schema missing or unreadable", map[string]any{"path": schemaPath, "error": err.Error()})
	}
	if err := sch.Validate(plain); err != nil {
		return nil, contracts.NewValidationError("config.schema_invalid",
			"Config does not match schema", map[string]any{"errors": contractstore.ErrorStrings(err)})
	}

	jsonRaw, err := json.Marshal(plain)
	if err != nil {
		return nil, fmt.Errorf("desktop: encode config: %w", err)
	}
	var cfg RulesConfig
	if err := json.Unmarshal(jsonRaw, &cfg); err != nil {
		return nil, contracts.NewValidationError("config.invalid",
			"Config does not decode", map[string]any{"error": err.Error()})
	}
	return &cfg, nil
}

func compileRulesSchema(schemaPath string) (*jsonschema.Schema, error) {
	raw, err := os.ReadFile(schemaPath)
	if err != nil {
		return nil, err
	}
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	url := "https://nucleus.contracts.local/plugins/" + PluginID + "/desktop_rules.schema.json"
	if err := compiler.AddResource(url, strings.NewReader(string(raw))); err != nil {
		return nil, err
	}
	return compiler.Compile(url)
}

func yamlToPlain(doc any) (any, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var plain any
	if err := json.Unmarshal(raw, &plain); err != nil {
		return nil, err
	}
	return plain, nil
}
