package tools

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/pikoninc/nucleus/core/pkg/paths"
)

const walkDepthDefault = 20

// FSWalk lists entries beneath a directory with a deterministic depth-first
// traversal: all children of a directory are emitted sorted by name before
// any subdirectory is descended into. Returned paths are relative to the
// walk root. Unreadable directories are silently skipped.
func FSWalk(args map[string]any, dryRun bool) (map[string]any, error) {
	pathRaw, err := requireString(args, "fs.walk", "path")
	if err != nil {
		return nil, err
	}
	maxDepth, ok := optionalInt(args, "max_depth", walkDepthDefault)
	if !ok || maxDepth < 0 {
		return nil, fmt.Errorf("fs.walk: 'max_depth' must be a non-negative integer")
	}
	includeDirs := optionalBool(args, "include_dirs", false)

	root := paths.Expand(pathRaw)
	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]any{"path": root, "entries": []any{}, "exists": false, "dry_run": dryRun}, nil
		}
		return nil, fmt.Errorf("fs.walk: stat %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("fs.walk: path is not a directory: %s", root)
	}

	type frame struct {
		dir   string
		depth int
	}
	entries := []any{}
	stack := []frame{{dir: root, depth: 0}}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur.depth > maxDepth {
			continue
		}

		dirEntries, err := os.ReadDir(cur.dir)
		if err != nil {
			continue
		}
		sort.Slice(dirEntries, func(i, j int) bool { return dirEntries[i].Name() < dirEntries[j].Name() })

		var subdirs []string
		for _, e := range dirEntries {
			child := filepath.Join(cur.dir, e.Name())
			rel, relErr := filepath.Rel(root, child)
			if relErr != nil {
				rel = child
			}
			if e.IsDir() {
				if includeDirs {
					entries = append(entries, map[string]any{"path": rel, "is_file": false, "is_dir": true})
				}
				subdirs = append(subdirs, child)
				continue
			}
			if e.Type().IsRegular() {
				entries = append(entries, map[string]any{"path": rel, "is_file": true, "is_dir": false})
			}
		}
		// Reverse push so the stack pops subdirectories in name order.
		for i := len(subdirs) - 1; i >= 0; i-- {
			stack = append(stack, frame{dir: subdirs[i], depth: cur.depth + 1})
		}
	}

	return map[string]any{"path": root, "entries": entries, "exists": true, "dry_run": dryRun}, nil
}
