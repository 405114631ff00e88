package tools

import (
	"fmt"
	"os"
	"sort"

	"github.com/pikoninc/nucleus/core/pkg/paths"
)

// FSList lists directory entries. Read-only, so dry-run output matches commit
// output apart from the dry_run flag. A missing path is tolerated and
// reported, not fatal.
func FSList(args map[string]any, dryRun bool) (map[string]any, error) {
	pathRaw, err := requireString(args, "fs.list", "path")
	if err != nil {
		return nil, err
	}

	path := paths.Expand(pathRaw)
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]any{"path": path, "entries": []any{}, "exists": false}, nil
		}
		return nil, fmt.Errorf("fs.list: stat %s: %w", path, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("fs.list: path is not a directory: %s", path)
	}

	dirEntries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("fs.list: read %s: %w", path, err)
	}
	names := make([]any, 0, len(dirEntries))
	raw := make([]string, 0, len(dirEntries))
	for _, e := range dirEntries {
		raw = append(raw, e.Name())
	}
	sort.Strings(raw)
	for _, n := range raw {
		names = append(names, n)
	}

	return map[string]any{"path": path, "entries": names, "exists": true, "dry_run": dryRun}, nil
}
