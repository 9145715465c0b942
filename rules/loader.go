// Package rules loads a rule source document from JSON or YAML, per
// spec's "Rule file format: JSON/YAML object".
package rules

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadFile reads path and decodes it by extension: .yaml/.yml as YAML,
// anything else as JSON.
func LoadFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("rules: read %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return decodeYAML(data)
	default:
		return decodeJSON(data)
	}
}

// Decode tries JSON first, then YAML, since rule sources delivered over
// etcd or another byte-oriented channel carry no file extension to key
// off.
func Decode(data []byte) (map[string]any, error) {
	if raw, err := decodeJSON(data); err == nil {
		return raw, nil
	}
	return decodeYAML(data)
}

func decodeJSON(data []byte) (map[string]any, error) {
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func decodeYAML(data []byte) (map[string]any, error) {
	var out map[string]any
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("rules: decode: %w", err)
	}
	return normalizeYAML(out).(map[string]any), nil
}

// normalizeYAML recursively copies the map[string]any and []any values
// yaml.v3 produces, giving the plain shape encoding/json also produces.
// Any other value, including a map[any]any that yaml.v3 builds for a
// mapping with non-string keys, is returned unchanged.
func normalizeYAML(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = normalizeYAML(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalizeYAML(item)
		}
		return out
	default:
		return val
	}
}
