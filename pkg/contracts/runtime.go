package contracts

import "github.com/google/uuid"

// RuntimeContext is the immutable per-run configuration that influences
// policy and execution. Lifetime is one run; RunID stamps every trace event.
type RuntimeContext struct {
	RunID            string
	DryRun           bool
	StrictDryRun     bool
	AllowDestructive bool
	TracePath        string
}

// NewRuntimeContext returns a safe-by-default context: dry-run, strict,
// non-destructive. A fresh run id is generated when runID is empty.
func NewRuntimeContext(runID, tracePath string) RuntimeContext {
	if runID == "" {
		runID = "run_" + uuid.NewString()
	}
	return RuntimeContext{
		RunID:        runID,
		DryRun:       true,
		StrictDryRun: true,
		TracePath:    tracePath,
	}
}
