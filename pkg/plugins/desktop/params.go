package desktop

import (
	"fmt"

	"github.com/pikoninc/nucleus/core/pkg/contracts"
)

func stringParam(params map[string]any, key string) (string, bool) {
	v, ok := params[key].(string)
	return v, ok && v != ""
}

func boolParam(params map[string]any, key string) bool {
	v, _ := params[key].(bool)
	return v
}

func stringSliceParam(params map[string]any, key string) ([]string, error) {
	raw, present := params[key]
	if !present || raw == nil {
		return nil, nil
	}
	list, ok := raw.([]any)
	if !ok {
		if typed, ok := raw.([]string); ok {
			return typed, nil
		}
		return nil, contracts.NewValidationError("intent.invalid",
			fmt.Sprintf("params.%s must be an array of strings when provided", key), nil)
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		s, ok := item.(string)
		if !ok {
			return nil, contracts.NewValidationError("intent.invalid",
				fmt.Sprintf("params.%s must be an array of strings when provided", key), nil)
		}
		out = append(out, s)
	}
	return out, nil
}

// entriesParam decodes the caller-collected snapshot. A bare string entry is
// shorthand for a file of that name; malformed items are dropped, matching
// the tolerant snapshot contract.
func entriesParam(params map[string]any, key string) ([]Entry, error) {
	raw, present := params[key]
	if !present || raw == nil {
		return nil, nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, contracts.NewValidationError("intent.invalid",
			fmt.Sprintf("params.%s must be an array when provided", key), nil)
	}

	out := make([]Entry, 0, len(list))
	for _, item := range list {
		switch v := item.(type) {
		case string:
			if v != "" {
				out = append(out, Entry{Name: v, IsFile: true})
			}
		case map[string]any:
			name, _ := v["name"].(string)
			if name == "" {
				continue
			}
			entry := Entry{Name: name}
			entry.IsFile, _ = v["is_file"].(bool)
			entry.IsDir, _ = v["is_dir"].(bool)
			if size, ok := numberParam(v["size"]); ok {
				entry.Size = &size
			}
			if mtime, ok := numberParam(v["mtime"]); ok {
				entry.MTime = &mtime
			}
			out = append(out, entry)
		}
	}
	return out, nil
}

func numberParam(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		return int64(n), true
	default:
		return 0, false
	}
}
