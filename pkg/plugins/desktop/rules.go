package desktop

import (
	"path"
	"regexp"
	"strings"
)

// Entry is one row of the directory snapshot the caller collected. The
// planner never scans the filesystem itself; it trusts this snapshot.
type Entry struct {
	Name   string `json:"name"`
	IsFile bool   `json:"is_file"`
	IsDir  bool   `json:"is_dir"`
	Size   *int64 `json:"size,omitempty"`
	MTime  *int64 `json:"mtime,omitempty"`
}

// extOf returns the lowercase extension after the last dot, without the
// dot. A name ending in a dot has no extension.
func extOf(name string) string {
	lower := strings.ToLower(name)
	i := strings.LastIndex(lower, ".")
	if i < 0 || i == len(lower)-1 {
		return ""
	}
	return lower[i+1:]
}

// mime families derived from extensions. The mapping is approximate on
// purpose: rules match on prefixes like "image/", not on exact types.
var mimeFamilies = map[string]string{
	"png": "image/", "jpg": "image/", "jpeg": "image/", "gif": "image/",
	"webp": "image/", "heic": "image/", "svg": "image/",
	"mp4": "video/", "mov": "video/", "mkv": "video/", "webm": "video/",
	"mp3": "audio/", "wav": "audio/", "flac": "audio/", "m4a": "audio/",
	"pdf": "application/", "txt": "application/", "md": "application/",
	"rtf": "application/", "doc": "application/", "docx": "application/",
	"ppt": "application/", "pptx": "application/", "xls": "application/",
	"xlsx": "application/", "csv": "application/",
}

func approxMIMEPrefix(name string) string {
	return mimeFamilies[extOf(name)]
}

// matchAtom evaluates one predicate against an entry. A malformed atom
// (bad regex, negative day count) matches nothing.
func matchAtom(atom Atom, entry Entry, now int64) bool {
	switch {
	case atom.FilenameRegex != nil:
		re, err := regexp.Compile(*atom.FilenameRegex)
		if err != nil {
			return false
		}
		return re.MatchString(entry.Name)
	case len(atom.ExtIn) > 0:
		ext := extOf(entry.Name)
		for _, want := range atom.ExtIn {
			if want == "" {
				continue
			}
			if ext == strings.ToLower(strings.TrimPrefix(want, ".")) {
				return true
			}
		}
		return false
	case atom.MimePrefix != nil:
		if *atom.MimePrefix == "" {
			return false
		}
		derived := approxMIMEPrefix(entry.Name)
		return derived != "" && strings.HasPrefix(derived, *atom.MimePrefix)
	case atom.CreatedWithinDays != nil:
		days := *atom.CreatedWithinDays
		if days < 0 || entry.MTime == nil {
			return false
		}
		return now-*entry.MTime <= int64(days)*86400
	default:
		return false
	}
}

// matchRule reports whether a rule matches: an empty any-list is vacuously
// true, otherwise one atom must match; every all-atom must match.
func matchRule(rule Rule, entry Entry, now int64) bool {
	anyOK := true
	if len(rule.Match.Any) > 0 {
		anyOK = false
		for _, atom := range rule.Match.Any {
			if matchAtom(atom, entry, now) {
				anyOK = true
				break
			}
		}
	}
	for _, atom := range rule.Match.All {
		if !matchAtom(atom, entry, now) {
			return false
		}
	}
	return anyOK
}

// firstMatch returns the first rule matching entry, in declared order.
func firstMatch(rules []Rule, entry Entry, now int64) (Rule, bool) {
	for _, rule := range rules {
		if matchRule(rule, entry, now) {
			return rule, true
		}
	}
	return Rule{}, false
}

// shouldSkip drops hidden names and anything matching the ignore or exclude
// glob patterns.
func shouldSkip(name string, exclude, ignorePatterns []string) bool {
	if name == "" || strings.HasPrefix(name, ".") {
		return true
	}
	for _, pattern := range append(append([]string{}, exclude...), ignorePatterns...) {
		if ok, err := path.Match(pattern, name); err == nil && ok {
			return true
		}
	}
	return false
}
