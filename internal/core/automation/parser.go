package automation

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Definitions is a declarative bundle of automation artifacts, loaded
// from a JSON or YAML file at startup or imported over the API.
type Definitions struct {
	Routines     []*Routine     `json:"routines,omitempty"`
	Preferences  []*Preference  `json:"preferences,omitempty"`
	QuickActions []*QuickAction `json:"quick_actions,omitempty"`
}

// ParseDefinitions decodes a definitions bundle. Format is "json",
// "yaml" or "yml"; every parsed artifact is validated before the bundle
// is returned.
func ParseDefinitions(data []byte, format string) (*Definitions, error) {
	var defs Definitions

	switch strings.ToLower(format) {
	case "json":
		if err := json.Unmarshal(data, &defs); err != nil {
			return nil, fmt.Errorf("failed to parse JSON definitions: %w", err)
		}
	case "yaml", "yml":
		decoded, err := yamlToJSON(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse YAML definitions: %w", err)
		}
		if err := json.Unmarshal(decoded, &defs); err != nil {
			return nil, fmt.Errorf("failed to decode YAML definitions: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported definitions format: %s", format)
	}

	for i, r := range defs.Routines {
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("routine %d: %w", i, err)
		}
	}
	for i, p := range defs.Preferences {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("preference %d: %w", i, err)
		}
	}
	for i, q := range defs.QuickActions {
		if err := q.Validate(); err != nil {
			return nil, fmt.Errorf("quick action %d: %w", i, err)
		}
	}

	return &defs, nil
}

// Load registers every artifact of a parsed bundle with the engine.
func (d *Definitions) Load(engine *Engine) error {
	for _, r := range d.Routines {
		if err := engine.AddRoutine(r); err != nil {
			return fmt.Errorf("failed to load routine %q: %w", r.Name, err)
		}
	}
	for _, p := range d.Preferences {
		if err := engine.AddPreference(p); err != nil {
			return fmt.Errorf("failed to load preference %q: %w", p.Name, err)
		}
	}
	for _, q := range d.QuickActions {
		if err := engine.AddQuickAction(q); err != nil {
			return fmt.Errorf("failed to load quick action %q: %w", q.Name, err)
		}
	}
	return nil
}

// yamlToJSON re-encodes arbitrary YAML through JSON so the models'
// json tags drive both formats.
func yamlToJSON(data []byte) ([]byte, error) {
	var raw interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return json.Marshal(normalizeYAML(raw))
}

// normalizeYAML converts map[interface{}]interface{} trees, which the
// YAML decoder can still produce for complex keys, into string-keyed
// maps that encoding/json accepts.
func normalizeYAML(v interface{}) interface{} {
	switch val := v.(type) {
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, item := range val {
			out[fmt.Sprintf("%v", k)] = normalizeYAML(item)
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, item := range val {
			out[k] = normalizeYAML(item)
		}
		return out
	case []interface{}:
		for i := range val {
			val[i] = normalizeYAML(val[i])
		}
		return val
	default:
		return v
	}
}
