package tools

import (
	"fmt"
	"os"

	"github.com/pikoninc/nucleus/core/pkg/paths"
)

// FSMkdir creates a directory. Non-destructive: nothing is ever removed or
// replaced.
func FSMkdir(args map[string]any, dryRun bool) (map[string]any, error) {
	pathRaw, err := requireString(args, "fs.mkdir", "path")
	if err != nil {
		return nil, err
	}
	parents := optionalBool(args, "parents", true)
	existOK := optionalBool(args, "exist_ok", true)

	path := paths.Expand(pathRaw)

	if dryRun {
		_, statErr := os.Stat(path)
		return map[string]any{
			"path":         path,
			"would_create": os.IsNotExist(statErr),
			"dry_run":      true,
			"expected_effects": []any{
				effect("fs_mkdir", fmt.Sprintf("Create directory %s", path), path),
			},
		}, nil
	}

	before := true
	if _, err := os.Stat(path); os.IsNotExist(err) {
		before = false
	} else if err == nil && !existOK {
		return nil, fmt.Errorf("fs.mkdir: path exists (exist_ok=false): %s", path)
	}

	if parents {
		err = os.MkdirAll(path, 0o755)
	} else {
		err = os.Mkdir(path, 0o755)
		if err != nil && os.IsExist(err) && existOK {
			err = nil
		}
	}
	if err != nil {
		return nil, fmt.Errorf("fs.mkdir: %w", err)
	}

	return map[string]any{"path": path, "created": !before, "dry_run": false}, nil
}
