// Package planner defines how intents become plans. A planner is a single
// operation; the registry maps intent ids to the planner the host chose to
// expose. Plugins do not register themselves by reflection: the host links
// what it wants.
package planner

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/pikoninc/nucleus/core/pkg/contracts"
)

// Planner turns an intent into an executable plan.
type Planner interface {
	Plan(intent contracts.Intent) (contracts.Plan, error)
}

// StaticPlanner returns a fixed plan template with the live intent
// substituted by value. Useful for hosts that precompute plans and for
// tests.
type StaticPlanner struct {
	template contracts.Plan
}

// NewStaticPlanner creates a planner around a plan template.
func NewStaticPlanner(template contracts.Plan) *StaticPlanner {
	return &StaticPlanner{template: template}
}

// Plan deep-copies the template and carries the given intent.
func (p *StaticPlanner) Plan(intent contracts.Intent) (contracts.Plan, error) {
	raw, err := json.Marshal(p.template)
	if err != nil {
		return contracts.Plan{}, fmt.Errorf("planner: copy template: %w", err)
	}
	var plan contracts.Plan
	if err := json.Unmarshal(raw, &plan); err != nil {
		return contracts.Plan{}, fmt.Errorf("planner: copy template: %w", err)
	}
	plan.Intent = intent
	return plan, nil
}

// Registry maps intent ids to planners.
type Registry struct {
	byIntent map[string]Planner
}

// NewRegistry creates an empty planner registry.
func NewRegistry() *Registry {
	return &Registry{byIntent: make(map[string]Planner)}
}

// Register binds a planner to an intent id, replacing any previous binding.
func (r *Registry) Register(intentID string, p Planner) {
	r.byIntent[intentID] = p
}

// IntentIDs returns the registered intent ids, sorted.
func (r *Registry) IntentIDs() []string {
	out := make([]string, 0, len(r.byIntent))
	for id := range r.byIntent {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Resolve returns the planner for an intent id or an intent.unknown error.
func (r *Registry) Resolve(intentID string) (Planner, error) {
	p, ok := r.byIntent[intentID]
	if !ok {
		return nil, contracts.NewValidationError("intent.unknown",
			fmt.Sprintf("Unknown intent_id: %s", intentID),
			map[string]any{"intent_id": intentID})
	}
	return p, nil
}

// Route names the plugin namespace an intent id belongs to.
type Route struct {
	PluginID string
	IntentID string
}

// RouteIntent extracts the plugin namespace prefix from an intent id: the
// first dot-separated segment ("desktop.tidy.run" -> "desktop"). It resolves
// identifiers only; loading plugin implementations is the host's business.
func RouteIntent(intent contracts.Intent) (Route, error) {
	if intent.IntentID == "" {
		return Route{}, contracts.NewValidationError("intent.invalid", "Missing or invalid intent_id", nil)
	}
	pluginID := intent.IntentID
	if i := strings.Index(pluginID, "."); i >= 0 {
		pluginID = pluginID[:i]
	}
	return Route{PluginID: pluginID, IntentID: intent.IntentID}, nil
}
