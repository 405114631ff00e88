// Package contractstore loads the shipped JSON Schemas and validates
// instances against them. Schemas resolve cross-file $ref both by filename
// and by declared $id; nothing is ever fetched from the network.
package contractstore

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// baseURL is a synthetic, non-resolvable namespace the store registers every
// schema file under so relative $ref like "defs.schema.json" resolve to
// siblings.
const baseURL = "https://nucleus.contracts.local/core/"

// SchemaCheckError reports one schema that failed to compile during
// self-check.
type SchemaCheckError struct {
	SchemaName string
	Message    string
}

// Store holds the compiled schema set for one schemas directory. It is
// read-only after Load.
type Store struct {
	dir      string
	schemas  map[string]*jsonschema.Schema
	failures map[string]string
	names    []string
}

// NewStore creates a store for the given schemas directory. Call Load before
// validating.
func NewStore(dir string) *Store {
	return &Store{
		dir:      dir,
		schemas:  make(map[string]*jsonschema.Schema),
		failures: make(map[string]string),
	}
}

// Dir returns the schemas directory.
func (s *Store) Dir() string { return s.dir }

// Load reads every *.json schema in the directory, registers each under its
// filename URL and its $id (when present), and compiles them. The shared
// defs.schema.json must be present. Individual compile failures are recorded
// and surfaced by CheckSchemas / Validate rather than aborting the load.
func (s *Store) Load() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("contractstore: read schemas dir %s: %w", s.dir, err)
	}

	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	// Anything not pre-registered below is refused: the store never follows
	// network-resolvable URIs.
	compiler.LoadURL = func(url string) (io.ReadCloser, error) {
		return nil, fmt.Errorf("contractstore: refusing to load unregistered schema %q", url)
	}

	var names []string
	docs := make(map[string][]byte)
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(s.dir, e.Name()))
		if err != nil {
			return fmt.Errorf("contractstore: read schema %s: %w", e.Name(), err)
		}
		names = append(names, e.Name())
		docs[e.Name()] = raw
	}
	sort.Strings(names)

	if _, ok := docs["defs.schema.json"]; !ok {
		return fmt.Errorf("contractstore: defs.schema.json is required in %s", s.dir)
	}

	for _, name := range names {
		raw := docs[name]
		url := baseURL + name
		if err := compiler.AddResource(url, strings.NewReader(string(raw))); err != nil {
			s.failures[name] = err.Error()
			continue
		}
		var doc map[string]any
		if err := json.Unmarshal(raw, &doc); err != nil {
			s.failures[name] = fmt.Sprintf("invalid json: %v", err)
			continue
		}
		if id, ok := doc["$id"].(string); ok && id != "" && id != url {
			if err := compiler.AddResource(id, strings.NewReader(string(raw))); err != nil {
				s.failures[name] = err.Error()
				continue
			}
		}
	}

	for _, name := range names {
		if _, failed := s.failures[name]; failed {
			continue
		}
		compiled, err := compiler.Compile(baseURL + name)
		if err != nil {
			s.failures[name] = err.Error()
			continue
		}
		s.schemas[name] = compiled
	}

	s.names = names
	return nil
}

// SchemaNames returns the loaded schema filenames, sorted.
func (s *Store) SchemaNames() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// CheckSchemas returns one entry per schema that failed to compile. Empty
// means every shipped schema is itself valid.
func (s *Store) CheckSchemas() []SchemaCheckError {
	var out []SchemaCheckError
	for _, name := range s.names {
		if msg, ok := s.failures[name]; ok {
			out = append(out, SchemaCheckError{SchemaName: name, Message: msg})
		}
	}
	return out
}

// Validate checks instance against the named schema and returns human error
// strings; empty means valid. Typed instances are JSON round-tripped first
// so struct values validate the same way their serialized form would. The
// returned error covers unknown or uncompiled schemas, not instance
// failures.
func (s *Store) Validate(schemaName string, instance any) ([]string, error) {
	sch, ok := s.schemas[schemaName]
	if !ok {
		if msg, failed := s.failures[schemaName]; failed {
			return nil, fmt.Errorf("contractstore: schema %s failed to compile: %s", schemaName, msg)
		}
		return nil, fmt.Errorf("contractstore: unknown schema %s", schemaName)
	}

	plain, err := toPlain(instance)
	if err != nil {
		return nil, fmt.Errorf("contractstore: encode instance: %w", err)
	}

	if err := sch.Validate(plain); err != nil {
		var ve *jsonschema.ValidationError
		if ok := asValidationError(err, &ve); ok {
			msgs := flatten(ve)
			sort.Strings(msgs)
			return msgs, nil
		}
		return []string{err.Error()}, nil
	}
	return nil, nil
}

// ValidateJSONFile parses a JSON file and validates it.
func (s *Store) ValidateJSONFile(schemaName, path string) ([]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("contractstore: read %s: %w", path, err)
	}
	var instance any
	if err := json.Unmarshal(raw, &instance); err != nil {
		return nil, fmt.Errorf("contractstore: parse %s: %w", path, err)
	}
	return s.Validate(schemaName, instance)
}

// ValidateJSONLFile validates a JSON Lines file line by line. Errors carry a
// "line N:" prefix; blank lines are skipped. A line that is not valid JSON
// is reported, not fatal.
func (s *Store) ValidateJSONLFile(schemaName, path string) ([]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("contractstore: read %s: %w", path, err)
	}

	var out []string
	for i, line := range strings.Split(string(raw), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		var instance any
		if err := json.Unmarshal([]byte(trimmed), &instance); err != nil {
			out = append(out, fmt.Sprintf("line %d: invalid json: %v", i+1, err))
			continue
		}
		msgs, err := s.Validate(schemaName, instance)
		if err != nil {
			return nil, err
		}
		for _, msg := range msgs {
			out = append(out, fmt.Sprintf("line %d: %s", i+1, msg))
		}
	}
	return out, nil
}

func toPlain(instance any) (any, error) {
	switch instance.(type) {
	case nil, bool, string, float64, map[string]any, []any:
		return instance, nil
	}
	raw, err := json.Marshal(instance)
	if err != nil {
		return nil, err
	}
	var plain any
	if err := json.Unmarshal(raw, &plain); err != nil {
		return nil, err
	}
	return plain, nil
}

// ErrorStrings converts any jsonschema validation error into sorted human
// error strings, one per leaf cause. Non-validation errors yield their
// message verbatim.
func ErrorStrings(err error) []string {
	if err == nil {
		return nil
	}
	var ve *jsonschema.ValidationError
	if asValidationError(err, &ve) {
		msgs := flatten(ve)
		sort.Strings(msgs)
		return msgs
	}
	return []string{err.Error()}
}

func asValidationError(err error, target **jsonschema.ValidationError) bool {
	ve, ok := err.(*jsonschema.ValidationError)
	if ok {
		*target = ve
	}
	return ok
}

// flatten collects the leaf causes of a validation error as
// "<instance location>: <message>" strings.
func flatten(ve *jsonschema.ValidationError) []string {
	if len(ve.Causes) == 0 {
		loc := ve.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		return []string{fmt.Sprintf("%s: %s", loc, ve.Message)}
	}
	var out []string
	for _, c := range ve.Causes {
		out = append(out, flatten(c)...)
	}
	return out
}
