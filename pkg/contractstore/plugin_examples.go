package contractstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// PluginContractPair is a plugin schema together with its companion example.
type PluginContractPair struct {
	PluginID    string
	SchemaPath  string
	ExamplePath string
}

// PluginExampleFailure reports one example that does not satisfy its schema.
type PluginExampleFailure struct {
	PluginID    string
	SchemaPath  string
	ExamplePath string
	Message     string
}

// DiscoverPluginContractPairs walks contracts/plugins/<plugin_id>/{schemas,examples}
// and pairs each <base>.schema.json with the first existing
// <base>.example.yml, .yaml or .json, in that priority order. Schemas
// without an example are skipped.
func DiscoverPluginContractPairs(pluginsDir string) ([]PluginContractPair, error) {
	entries, err := os.ReadDir(pluginsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("contractstore: read plugins dir %s: %w", pluginsDir, err)
	}

	var pluginIDs []string
	for _, e := range entries {
		if e.IsDir() {
			pluginIDs = append(pluginIDs, e.Name())
		}
	}
	sort.Strings(pluginIDs)

	var pairs []PluginContractPair
	for _, pluginID := range pluginIDs {
		schemasDir := filepath.Join(pluginsDir, pluginID, "schemas")
		examplesDir := filepath.Join(pluginsDir, pluginID, "examples")

		schemaEntries, err := os.ReadDir(schemasDir)
		if err != nil {
			continue
		}
		var schemaNames []string
		for _, se := range schemaEntries {
			if !se.IsDir() && strings.HasSuffix(se.Name(), ".schema.json") {
				schemaNames = append(schemaNames, se.Name())
			}
		}
		sort.Strings(schemaNames)

		for _, name := range schemaNames {
			base := strings.TrimSuffix(name, ".schema.json")
			for _, ext := range []string{".example.yml", ".example.yaml", ".example.json"} {
				candidate := filepath.Join(examplesDir, base+ext)
				if _, err := os.Stat(candidate); err == nil {
					pairs = append(pairs, PluginContractPair{
						PluginID:    pluginID,
						SchemaPath:  filepath.Join(schemasDir, name),
						ExamplePath: candidate,
					})
					break
				}
			}
		}
	}
	return pairs, nil
}

// ValidatePluginContractExamples validates every discovered example against
// its schema. An empty result means all shipped plugin contracts are
// internally consistent.
func ValidatePluginContractExamples(pluginsDir string) ([]PluginExampleFailure, error) {
	pairs, err := DiscoverPluginContractPairs(pluginsDir)
	if err != nil {
		return nil, err
	}

	var failures []PluginExampleFailure
	for _, pair := range pairs {
		if msg := validatePair(pair); msg != "" {
			failures = append(failures, PluginExampleFailure{
				PluginID:    pair.PluginID,
				SchemaPath:  pair.SchemaPath,
				ExamplePath: pair.ExamplePath,
				Message:     msg,
			})
		}
	}
	return failures, nil
}

func validatePair(pair PluginContractPair) string {
	raw, err := os.ReadFile(pair.SchemaPath)
	if err != nil {
		return fmt.Sprintf("read schema: %v", err)
	}

	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	url := baseURL + "plugins/" + pair.PluginID + "/" + filepath.Base(pair.SchemaPath)
	if err := compiler.AddResource(url, strings.NewReader(string(raw))); err != nil {
		return fmt.Sprintf("register schema: %v", err)
	}
	sch, err := compiler.Compile(url)
	if err != nil {
		return fmt.Sprintf("compile schema: %v", err)
	}

	instance, err := ReadInstanceFile(pair.ExamplePath)
	if err != nil {
		return fmt.Sprintf("read example: %v", err)
	}
	if err := sch.Validate(instance); err != nil {
		return err.Error()
	}
	return ""
}

// ReadInstanceFile reads a YAML or JSON instance file into plain JSON
// values. YAML documents are round-tripped through JSON so numeric and map
// types validate identically to their JSON form.
func ReadInstanceFile(path string) (any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		var doc any
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("invalid yaml: %w", err)
		}
		jsonRaw, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("yaml is not json-compatible: %w", err)
		}
		var plain any
		if err := json.Unmarshal(jsonRaw, &plain); err != nil {
			return nil, err
		}
		return plain, nil
	case ".json":
		var plain any
		if err := json.Unmarshal(raw, &plain); err != nil {
			return nil, fmt.Errorf("invalid json: %w", err)
		}
		return plain, nil
	default:
		return nil, fmt.Errorf("unsupported instance extension: %s", filepath.Base(path))
	}
}
