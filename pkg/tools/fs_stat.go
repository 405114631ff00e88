package tools

import (
	"fmt"
	"os"

	"github.com/pikoninc/nucleus/core/pkg/paths"
)

// FSStat reports metadata for a path. Read-only; a missing path is fatal
// because the caller asked about something specific.
func FSStat(args map[string]any, dryRun bool) (map[string]any, error) {
	pathRaw, err := requireString(args, "fs.stat", "path")
	if err != nil {
		return nil, err
	}

	path := paths.Expand(pathRaw)
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("fs.stat: %w", err)
	}

	return map[string]any{
		"path":    path,
		"is_dir":  info.IsDir(),
		"is_file": info.Mode().IsRegular(),
		"size":    info.Size(),
		"mtime":   info.ModTime().Unix(),
		"dry_run": dryRun,
	}, nil
}
