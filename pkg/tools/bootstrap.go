package tools

import (
	"github.com/pikoninc/nucleus/core/pkg/contracts"
	"github.com/pikoninc/nucleus/core/pkg/registry"
)

const toolVersion = "0.1.0"

func objectSchema(required []string, props map[string]any) map[string]any {
	req := make([]any, 0, len(required))
	for _, r := range required {
		req = append(req, r)
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
		"required":             req,
	}
}

// BuiltinRegistry registers the framework's deterministic tools.
func BuiltinRegistry() (*registry.ToolRegistry, error) {
	reg := registry.NewToolRegistry()

	type builtin struct {
		def  contracts.ToolDef
		impl contracts.ToolFunc
	}

	builtins := []builtin{
		{
			def: contracts.ToolDef{
				ToolID:         "fs.list",
				Title:          "List directory entries",
				SideEffects:    contracts.SideEffectFilesystem,
				SupportsDryRun: true,
				ArgsSchema: objectSchema([]string{"path"}, map[string]any{
					"path": map[string]any{"type": "string"},
				}),
			},
			impl: FSList,
		},
		{
			def: contracts.ToolDef{
				ToolID:         "fs.stat",
				Title:          "Stat a path",
				SideEffects:    contracts.SideEffectFilesystem,
				SupportsDryRun: true,
				ArgsSchema: objectSchema([]string{"path"}, map[string]any{
					"path": map[string]any{"type": "string"},
				}),
			},
			impl: FSStat,
		},
		{
			def: contracts.ToolDef{
				ToolID:         "fs.mkdir",
				Title:          "Create a directory",
				SideEffects:    contracts.SideEffectFilesystem,
				SupportsDryRun: true,
				ArgsSchema: objectSchema([]string{"path"}, map[string]any{
					"path":     map[string]any{"type": "string"},
					"parents":  map[string]any{"type": "boolean"},
					"exist_ok": map[string]any{"type": "boolean"},
				}),
			},
			impl: FSMkdir,
		},
		{
			def: contracts.ToolDef{
				ToolID:         "fs.move",
				Title:          "Move/rename a path",
				SideEffects:    contracts.SideEffectFilesystem,
				SupportsDryRun: true,
				ArgsSchema: objectSchema([]string{"from", "to"}, map[string]any{
					"from": map[string]any{"type": "string"},
					"to":   map[string]any{"type": "string"},
					"on_conflict": map[string]any{
						"type": "string",
						"enum": []any{ConflictError, ConflictOverwrite, ConflictSkip, ConflictSuffixIncrement},
					},
					"overwrite": map[string]any{"type": "boolean"},
				}),
			},
			impl: FSMove,
		},
		{
			def: contracts.ToolDef{
				ToolID:         "fs.walk",
				Title:          "Recursively list entries",
				SideEffects:    contracts.SideEffectFilesystem,
				SupportsDryRun: true,
				ArgsSchema: objectSchema([]string{"path"}, map[string]any{
					"path":         map[string]any{"type": "string"},
					"max_depth":    map[string]any{"type": "integer", "minimum": 0},
					"include_dirs": map[string]any{"type": "boolean"},
				}),
			},
			impl: FSWalk,
		},
		{
			def: contracts.ToolDef{
				ToolID:         "notify.send",
				Title:          "Send a notification",
				SideEffects:    contracts.SideEffectNotification,
				SupportsDryRun: true,
				ArgsSchema: objectSchema([]string{"message"}, map[string]any{
					"message": map[string]any{"type": "string"},
				}),
			},
			impl: NotifySend,
		},
		{
			def: contracts.ToolDef{
				ToolID:                "net.http",
				Title:                 "HTTP request",
				SideEffects:           contracts.SideEffectNetwork,
				RequiresExplicitAllow: true,
				SupportsDryRun:        true,
				ArgsSchema: objectSchema([]string{"url"}, map[string]any{
					"method": map[string]any{
						"type": "string",
						"enum": []any{"GET", "POST", "PUT", "PATCH", "DELETE"},
					},
					"url":       map[string]any{"type": "string"},
					"headers":   map[string]any{"type": "object", "additionalProperties": map[string]any{"type": "string"}},
					"json":      map[string]any{},
					"body":      map[string]any{"type": "string"},
					"timeout_s": map[string]any{"type": "number", "exclusiveMinimum": 0},
				}),
			},
			impl: NetHTTP,
		},
		{
			def: contracts.ToolDef{
				ToolID:         "app.open",
				Title:          "Open app/file (contract only)",
				SideEffects:    contracts.SideEffectApp,
				SupportsDryRun: true,
				ArgsSchema: objectSchema([]string{"target"}, map[string]any{
					"target": map[string]any{"type": "string"},
				}),
			},
			impl: AppOpen,
		},
		{
			def: contracts.ToolDef{
				ToolID:         "app.quit",
				Title:          "Quit app (contract only)",
				SideEffects:    contracts.SideEffectApp,
				SupportsDryRun: true,
				ArgsSchema: objectSchema([]string{"app_id"}, map[string]any{
					"app_id": map[string]any{"type": "string"},
				}),
			},
			impl: AppQuit,
		},
	}

	for _, b := range builtins {
		b.def.Version = toolVersion
		if err := reg.Register(b.def, b.impl); err != nil {
			return nil, err
		}
	}
	return reg, nil
}
