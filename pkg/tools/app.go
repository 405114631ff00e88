package tools

import "fmt"

// AppOpen opens an application or file. Real app control is
// environment-specific, so this tool is shipped as an I/O contract: dry-run
// describes the intended effect, commit is not implemented here.
func AppOpen(args map[string]any, dryRun bool) (map[string]any, error) {
	target, err := requireString(args, "app.open", "target")
	if err != nil {
		return nil, err
	}

	if dryRun {
		return map[string]any{
			"dry_run": true,
			"expected_effects": []any{
				effect("app", fmt.Sprintf("Open: %s", target), target),
			},
		}, nil
	}
	return nil, fmt.Errorf("app.open: not implemented in the framework sandbox")
}

// AppQuit quits an application. Contract-only, like AppOpen.
func AppQuit(args map[string]any, dryRun bool) (map[string]any, error) {
	appID, err := requireString(args, "app.quit", "app_id")
	if err != nil {
		return nil, err
	}

	if dryRun {
		return map[string]any{
			"dry_run": true,
			"expected_effects": []any{
				effect("app", fmt.Sprintf("Quit: %s", appID), appID),
			},
		}, nil
	}
	return nil, fmt.Errorf("app.quit: not implemented in the framework sandbox")
}
