package tools

import (
	"fmt"
	"os"
)

// NotifySend emits a single human-readable line on stderr. Stderr keeps the
// operational stream separate from any structured stdout a host may own.
func NotifySend(args map[string]any, dryRun bool) (map[string]any, error) {
	message, err := requireString(args, "notify.send", "message")
	if err != nil {
		return nil, err
	}

	if dryRun {
		return map[string]any{
			"dry_run": true,
			"expected_effects": []any{
				effect("notify", fmt.Sprintf("Notify: %s", message)),
			},
		}, nil
	}

	fmt.Fprintln(os.Stderr, message)
	return map[string]any{"dry_run": false, "sent": true}, nil
}
