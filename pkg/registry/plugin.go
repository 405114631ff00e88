package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/Masterminds/semver/v3"

	"github.com/pikoninc/nucleus/core/pkg/contracts"
	"github.com/pikoninc/nucleus/core/pkg/contractstore"
)

// IntentRoute maps one declared intent to its owning plugin.
type IntentRoute struct {
	IntentID string `json:"intent_id"`
	PluginID string `json:"plugin_id"`
}

// PluginRegistry loads plugin manifests and resolves intent ids to plugin
// ids. Duplicate plugin ids and duplicate intent ids across plugins are
// load failures, not warnings.
type PluginRegistry struct {
	manifests map[string]contracts.PluginManifest
	byIntent  map[string]string
}

// NewPluginRegistry creates an empty plugin registry.
func NewPluginRegistry() *PluginRegistry {
	return &PluginRegistry{
		manifests: make(map[string]contracts.PluginManifest),
		byIntent:  make(map[string]string),
	}
}

// LoadDir reads every */manifest.json beneath pluginsDir in sorted order,
// validating each against plugin_manifest.schema.json from the store.
// Manifest versions must parse as semver.
func (r *PluginRegistry) LoadDir(pluginsDir string, store *contractstore.Store) error {
	entries, err := os.ReadDir(pluginsDir)
	if err != nil {
		return fmt.Errorf("registry: read plugins dir %s: %w", pluginsDir, err)
	}

	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, e.Name())
		}
	}
	sort.Strings(dirs)

	var manifests []contracts.PluginManifest
	for _, dir := range dirs {
		manifestPath := filepath.Join(pluginsDir, dir, "manifest.json")
		raw, err := os.ReadFile(manifestPath)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return fmt.Errorf("registry: read %s: %w", manifestPath, err)
		}

		var instance any
		if err := json.Unmarshal(raw, &instance); err != nil {
			return contracts.NewValidationError("plugin_manifest.invalid",
				fmt.Sprintf("Plugin manifest is not valid JSON: %s", manifestPath),
				map[string]any{"error": err.Error()})
		}
		msgs, err := store.Validate("plugin_manifest.schema.json", instance)
		if err != nil {
			return fmt.Errorf("registry: validate %s: %w", manifestPath, err)
		}
		if len(msgs) > 0 {
			return contracts.NewValidationError("plugin_manifest.invalid",
				fmt.Sprintf("Plugin manifest validation failed: %s", manifestPath),
				map[string]any{"errors": msgs})
		}

		var manifest contracts.PluginManifest
		if err := json.Unmarshal(raw, &manifest); err != nil {
			return contracts.NewValidationError("plugin_manifest.invalid",
				fmt.Sprintf("Plugin manifest decode failed: %s", manifestPath),
				map[string]any{"error": err.Error()})
		}
		if _, err := semver.NewVersion(manifest.Version); err != nil {
			return contracts.NewValidationError("plugin_manifest.invalid",
				fmt.Sprintf("Plugin manifest version is not semver: %s", manifest.Version),
				map[string]any{"plugin_id": manifest.PluginID, "version": manifest.Version})
		}
		manifests = append(manifests, manifest)
	}

	for _, m := range manifests {
		if m.PluginID == "" {
			return contracts.NewValidationError("plugin_manifest.invalid", "plugin_id must be non-empty", nil)
		}
		if _, exists := r.manifests[m.PluginID]; exists {
			return contracts.NewValidationError("plugin_manifest.duplicate",
				fmt.Sprintf("Duplicate plugin_id: %s", m.PluginID),
				map[string]any{"plugin_id": m.PluginID})
		}
		r.manifests[m.PluginID] = m
	}

	for _, m := range manifests {
		for _, it := range m.Intents {
			if it.IntentID == "" {
				continue
			}
			if _, exists := r.byIntent[it.IntentID]; exists {
				return contracts.NewValidationError("intent.duplicate",
					fmt.Sprintf("Duplicate intent_id across plugins: %s", it.IntentID),
					map[string]any{"intent_id": it.IntentID})
			}
			r.byIntent[it.IntentID] = m.PluginID
		}
	}
	return nil
}

// Manifests returns all loaded manifests sorted by plugin_id.
func (r *PluginRegistry) Manifests() []contracts.PluginManifest {
	ids := make([]string, 0, len(r.manifests))
	for id := range r.manifests {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]contracts.PluginManifest, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.manifests[id])
	}
	return out
}

// Intents returns the intent routing table sorted by intent_id.
func (r *PluginRegistry) Intents() []IntentRoute {
	ids := make([]string, 0, len(r.byIntent))
	for id := range r.byIntent {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]IntentRoute, 0, len(ids))
	for _, id := range ids {
		out = append(out, IntentRoute{IntentID: id, PluginID: r.byIntent[id]})
	}
	return out
}

// Resolve returns the plugin id that declared intentID.
func (r *PluginRegistry) Resolve(intentID string) (string, bool) {
	pid, ok := r.byIntent[intentID]
	return pid, ok
}

// Manifest returns the manifest for a plugin id.
func (r *PluginRegistry) Manifest(pluginID string) (contracts.PluginManifest, bool) {
	m, ok := r.manifests[pluginID]
	return m, ok
}

// RequireResolve resolves an intent id or fails with intent.unknown.
func (r *PluginRegistry) RequireResolve(intentID string) (string, error) {
	pid, ok := r.byIntent[intentID]
	if !ok {
		return "", contracts.NewValidationError("intent.unknown",
			fmt.Sprintf("Unknown intent_id: %s", intentID),
			map[string]any{"intent_id": intentID})
	}
	return pid, nil
}
