// Package policy implements the deny-by-default gate between a validated
// plan and the executor. Evaluation is pure: the engine inspects the plan
// and runtime context, touches nothing, and returns a decision with stable
// reason codes. The caller enforces the result.
package policy

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/pikoninc/nucleus/core/pkg/contracts"
	"github.com/pikoninc/nucleus/core/pkg/paths"
	"github.com/pikoninc/nucleus/core/pkg/registry"
)

// Decisions.
const (
	DecisionAllow = "allow"
	DecisionDeny  = "deny"
)

// Result is the outcome of one evaluation.
type Result struct {
	Decision    string
	ReasonCodes []string
	Summary     string
}

// Record converts the result into its trace representation.
func (r Result) Record() contracts.PolicyRecord {
	return contracts.PolicyRecord{Decision: r.Decision, ReasonCodes: r.ReasonCodes, Summary: r.Summary}
}

// Require returns a PolicyDeniedError unless the decision is allow.
func (r Result) Require() error {
	if r.Decision == DecisionAllow {
		return nil
	}
	msg := r.Summary
	if msg == "" {
		msg = "Denied by policy"
	}
	return contracts.NewPolicyDeniedError("policy.denied", msg, map[string]any{"reasons": r.ReasonCodes})
}

// Engine evaluates plans against the safety invariants: explicit scope,
// in-bounds filesystem paths, deny-by-default network, destructive gate,
// dry-run compatibility.
type Engine struct {
	tools *registry.ToolRegistry
}

// NewEngine creates an engine bound to a tool registry.
func NewEngine(tools *registry.ToolRegistry) *Engine {
	return &Engine{tools: tools}
}

func deny(code, summary string) Result {
	return Result{Decision: DecisionDeny, ReasonCodes: []string{code}, Summary: summary}
}

// Evaluate applies the policy rules in order; the first denial wins.
func (e *Engine) Evaluate(rc contracts.RuntimeContext, plan contracts.Plan) Result {
	intent := plan.Intent
	if intent.IntentID == "" {
		return deny("plan.intent_missing", "Plan is missing intent")
	}

	scope := intent.Scope
	if len(scope.FSRoots) < 1 {
		return deny("scope.missing", "Explicit scope is required")
	}
	roots := paths.NormalizeRoots(scope.FSRoots)
	if len(roots) < 1 {
		return deny("scope.invalid", "Scope fs_roots must be valid paths")
	}
	for _, pattern := range scope.NetworkHostsAllowlist {
		if pattern == "" {
			return deny("scope.invalid", "Scope network_hosts_allowlist must be an array of non-empty strings when provided")
		}
	}

	if len(plan.Steps) < 1 {
		return deny("plan.steps_missing", "Plan must have steps")
	}

	for _, step := range plan.Steps {
		toolID := step.Tool.ToolID
		if toolID == "" {
			return deny("plan.tool_id_invalid", "tool_id is required")
		}

		def, ok := e.tools.Get(toolID)
		if !ok {
			return deny("tool.unknown", fmt.Sprintf("Unknown tool: %s", toolID))
		}

		if def.SideEffects == contracts.SideEffectNetwork {
			if r, denied := e.checkNetwork(scope, step.Tool); denied {
				return r
			}
		}

		if strings.HasPrefix(toolID, "fs.") {
			for _, key := range []string{"path", "from", "to"} {
				v, ok := step.Tool.Args[key].(string)
				if !ok || v == "" {
					continue
				}
				if !paths.WithinAnyRoot(v, roots) {
					return deny("scope.out_of_bounds", fmt.Sprintf("Tool path outside declared scope: %s", v))
				}
			}
		}

		if def.Destructive && !rc.AllowDestructive {
			return deny("tool.destructive_denied", fmt.Sprintf("Destructive tool is denied by default: %s", toolID))
		}

		if rc.DryRun && rc.StrictDryRun && !def.SupportsDryRun {
			return deny("dry_run.not_supported", fmt.Sprintf("Tool does not support dry-run: %s", toolID))
		}
		if rc.DryRun && step.Tool.DryRunOK != nil && !*step.Tool.DryRunOK {
			return deny("dry_run.step_not_marked_ok", fmt.Sprintf("Step not marked dry-run compatible: %s", toolID))
		}
	}

	return Result{
		Decision:    DecisionAllow,
		ReasonCodes: []string{"scope.ok", "tools.ok"},
		Summary:     "Allowed by default policy",
	}
}

func (e *Engine) checkNetwork(scope contracts.Scope, call contracts.ToolCall) (Result, bool) {
	if !scope.AllowNetwork {
		return deny("scope.network_denied",
			fmt.Sprintf("Network tool is denied by scope.allow_network=false: %s", call.ToolID)), true
	}
	if len(scope.NetworkHostsAllowlist) == 0 {
		return deny("scope.network_allowlist_missing",
			"Network is enabled but scope.network_hosts_allowlist is empty"), true
	}

	rawURL, _ := call.Args["url"].(string)
	if rawURL == "" {
		rawURL, _ = call.Args["endpoint"].(string)
	}
	if rawURL == "" {
		return deny("scope.network_missing_url",
			fmt.Sprintf("Network tool requires args.url or args.endpoint to enforce allowlist: %s", call.ToolID)), true
	}

	parsed, err := url.Parse(rawURL)
	host := ""
	if err == nil {
		host = parsed.Hostname()
	}
	if host == "" {
		return deny("scope.network_invalid_url",
			fmt.Sprintf("Invalid URL for network tool allowlist enforcement: %s", call.ToolID)), true
	}

	if !HostAllowed(host, scope.NetworkHostsAllowlist) {
		return deny("scope.network_host_denied",
			fmt.Sprintf("Network host is not in allowlist: %s", host)), true
	}
	return Result{}, false
}

// HostAllowed reports whether host matches any allowlist pattern. Patterns:
// "*" matches anything, "*.domain.tld" matches hosts ending in
// ".domain.tld", anything else is an exact match.
func HostAllowed(host string, allowlist []string) bool {
	for _, pattern := range allowlist {
		if pattern == "*" {
			return true
		}
		if strings.HasPrefix(pattern, "*.") && strings.HasSuffix(host, pattern[1:]) {
			return true
		}
		if host == pattern {
			return true
		}
	}
	return false
}
