package tools

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pikoninc/nucleus/core/pkg/paths"
)

// Conflict strategies for fs.move.
const (
	ConflictError           = "error"
	ConflictOverwrite       = "overwrite"
	ConflictSkip            = "skip"
	ConflictSuffixIncrement = "suffix_increment"
)

// suffixTriesMax bounds the deterministic search for a free suffixed name.
const suffixTriesMax = 10000

// FSMove moves or renames a path. The destination parent is created if
// missing. Conflict handling follows on_conflict; the legacy overwrite flag
// maps to on_conflict=overwrite. suffix_increment picks the lowest n >= 1
// such that "<stem>(n)<ext>" does not exist next to the destination.
func FSMove(args map[string]any, dryRun bool) (map[string]any, error) {
	srcRaw, err := requireString(args, "fs.move", "from")
	if err != nil {
		return nil, err
	}
	dstRaw, err := requireString(args, "fs.move", "to")
	if err != nil {
		return nil, err
	}

	onConflict := ConflictError
	if v, ok := args["on_conflict"].(string); ok && v != "" {
		onConflict = v
	}
	if optionalBool(args, "overwrite", false) {
		onConflict = ConflictOverwrite
	}
	switch onConflict {
	case ConflictError, ConflictOverwrite, ConflictSkip, ConflictSuffixIncrement:
	default:
		return nil, fmt.Errorf("fs.move: 'on_conflict' must be one of: error|overwrite|skip|suffix_increment")
	}

	src := paths.Expand(srcRaw)
	dst := paths.Expand(dstRaw)

	if dryRun {
		srcExists := pathExists(src)
		dstExists := pathExists(dst)
		wouldSkip := dstExists && onConflict == ConflictSkip
		wouldError := dstExists && onConflict == ConflictError
		wouldOverwrite := dstExists && onConflict == ConflictOverwrite
		wouldSuffix := dstExists && onConflict == ConflictSuffixIncrement
		resolvedTo := dst
		if wouldSuffix {
			if resolved, err := nextFreeSuffix(dst); err == nil {
				resolvedTo = resolved
			}
		}
		return map[string]any{
			"from":                   src,
			"to":                     dst,
			"dry_run":                true,
			"src_exists":             srcExists,
			"dst_exists":             dstExists,
			"on_conflict":            onConflict,
			"would_move":             !wouldSkip && !wouldError,
			"would_skip":             wouldSkip,
			"would_error":            wouldError,
			"would_overwrite":        wouldOverwrite,
			"would_suffix_increment": wouldSuffix,
			"resolved_to":            resolvedTo,
			"expected_effects": []any{
				effect("fs_move", fmt.Sprintf("Move %s -> %s (on_conflict=%s)", src, dst, onConflict), src, dst),
			},
		}, nil
	}

	if !pathExists(src) {
		return nil, fmt.Errorf("fs.move: source not found: %s", src)
	}

	resolvedTo := dst
	if pathExists(dst) {
		switch onConflict {
		case ConflictSkip:
			return map[string]any{"from": src, "to": dst, "dry_run": false, "skipped": true, "reason": "dst_exists"}, nil
		case ConflictError:
			return nil, fmt.Errorf("fs.move: destination exists (on_conflict=error): %s", dst)
		case ConflictSuffixIncrement:
			resolvedTo, err = nextFreeSuffix(dst)
			if err != nil {
				return nil, err
			}
		case ConflictOverwrite:
			// os.Rename replaces the destination.
		}
	}

	if err := os.MkdirAll(filepath.Dir(resolvedTo), 0o755); err != nil {
		return nil, fmt.Errorf("fs.move: create destination parent: %w", err)
	}
	if err := os.Rename(src, resolvedTo); err != nil {
		return nil, fmt.Errorf("fs.move: %w", err)
	}

	return map[string]any{"from": src, "to": resolvedTo, "dry_run": false, "skipped": false}, nil
}

// SuffixedName inserts "(n)" before the extension of a file name:
// "b.txt", 1 -> "b(1).txt"; "b", 2 -> "b(2)".
func SuffixedName(name string, n int) string {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	return fmt.Sprintf("%s(%d)%s", stem, n, ext)
}

// nextFreeSuffix finds the lowest n >= 1 whose suffixed sibling of dst does
// not exist at resolution time.
func nextFreeSuffix(dst string) (string, error) {
	dir := filepath.Dir(dst)
	name := filepath.Base(dst)
	for n := 1; n <= suffixTriesMax; n++ {
		candidate := filepath.Join(dir, SuffixedName(name, n))
		if !pathExists(candidate) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("fs.move: no free suffixed name for %s after %d tries", dst, suffixTriesMax)
}

func pathExists(p string) bool {
	_, err := os.Lstat(p)
	return err == nil
}
