// Package registry holds the two lookup surfaces of the kernel: the tool
// registry (deterministic tool definitions plus implementations) and the
// plugin registry (manifest loading and intent routing). Both are read-only
// after registration.
package registry

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/pikoninc/nucleus/core/pkg/canonical"
	"github.com/pikoninc/nucleus/core/pkg/contracts"
	"github.com/pikoninc/nucleus/core/pkg/contractstore"
)

// ToolRegistry maps tool ids to definitions and implementations. Args
// schemas compile at registration time, so a malformed tool never becomes
// callable.
type ToolRegistry struct {
	mu    sync.RWMutex
	defs  map[string]contracts.ToolDef
	impls map[string]contracts.ToolFunc
	args  map[string]*jsonschema.Schema
}

// NewToolRegistry creates an empty tool registry.
func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{
		defs:  make(map[string]contracts.ToolDef),
		impls: make(map[string]contracts.ToolFunc),
		args:  make(map[string]*jsonschema.Schema),
	}
}

// Register adds a tool definition and its implementation. The definition's
// args schema must compile as Draft 2020-12.
func (r *ToolRegistry) Register(def contracts.ToolDef, impl contracts.ToolFunc) error {
	if def.ToolID == "" {
		return fmt.Errorf("registry: tool_id is required")
	}
	if impl == nil {
		return fmt.Errorf("registry: tool %s has no implementation", def.ToolID)
	}

	compiled, err := compileArgsSchema(def.ToolID, def.ArgsSchema)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.defs[def.ToolID] = def
	r.impls[def.ToolID] = impl
	r.args[def.ToolID] = compiled
	return nil
}

// Get returns the definition for a tool id.
func (r *ToolRegistry) Get(toolID string) (contracts.ToolDef, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[toolID]
	return def, ok
}

// List returns all definitions sorted by tool_id for stable output.
func (r *ToolRegistry) List() []contracts.ToolDef {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.defs))
	for id := range r.defs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]contracts.ToolDef, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.defs[id])
	}
	return out
}

// ValidateArgs checks args against the tool's registered schema and returns
// human error strings; empty means valid.
func (r *ToolRegistry) ValidateArgs(toolID string, args map[string]any) ([]string, error) {
	r.mu.RLock()
	sch, ok := r.args[toolID]
	r.mu.RUnlock()
	if !ok {
		return nil, contracts.NewToolNotFoundError("tool.unknown", fmt.Sprintf("Unknown tool: %s", toolID), map[string]any{"tool_id": toolID})
	}

	plain, err := plainArgs(args)
	if err != nil {
		return nil, fmt.Errorf("registry: encode args: %w", err)
	}
	return contractstore.ErrorStrings(sch.Validate(plain)), nil
}

// Call invokes a registered tool implementation.
func (r *ToolRegistry) Call(toolID string, args map[string]any, dryRun bool) (map[string]any, error) {
	r.mu.RLock()
	impl, ok := r.impls[toolID]
	r.mu.RUnlock()
	if !ok {
		return nil, contracts.NewToolNotFoundError("tool.unknown", fmt.Sprintf("Unknown tool: %s", toolID), map[string]any{"tool_id": toolID})
	}
	return impl(args, dryRun)
}

// Fingerprint returns the SHA-256 hash of the canonical JSON encoding of a
// registered tool definition. Hosts use it to detect definition drift
// between runs.
func (r *ToolRegistry) Fingerprint(toolID string) (string, bool) {
	def, ok := r.Get(toolID)
	if !ok {
		return "", false
	}
	sum, err := canonical.Hash(def)
	if err != nil {
		slog.Error("tool fingerprint failed", "tool_id", toolID, "error", err)
		return "", false
	}
	return sum, true
}

func compileArgsSchema(toolID string, schema map[string]any) (*jsonschema.Schema, error) {
	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("registry: tool %s args schema marshal: %w", toolID, err)
	}
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	url := "https://nucleus.contracts.local/tools/" + toolID + ".args.schema.json"
	if err := compiler.AddResource(url, strings.NewReader(string(raw))); err != nil {
		return nil, fmt.Errorf("registry: tool %s args schema: %w", toolID, err)
	}
	compiled, err := compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("registry: tool %s args schema compile: %w", toolID, err)
	}
	return compiled, nil
}

func plainArgs(args map[string]any) (any, error) {
	raw, err := json.Marshal(args)
	if err != nil {
		return nil, err
	}
	var plain any
	if err := json.Unmarshal(raw, &plain); err != nil {
		return nil, err
	}
	return plain, nil
}
