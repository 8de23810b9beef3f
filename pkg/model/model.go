// Package model provides the minimal building-model and EnergyPlus-workspace
// artifacts the workflow engine passes between measures. The full model SDK is an
// external collaborator; these types carry only what the engine itself inspects.
package model

import (
	"encoding/json"
	"fmt"
	"os"
)

// Model is a building model held as a JSON document.
type Model struct {
	// Path is the file the model was loaded from, empty for new models.
	Path string
	Data map[string]any
}

// New returns an empty model.
func New() *Model {
	return &Model{Data: map[string]any{"objects": []any{}}}
}

// Load reads a model document from disk.
func Load(path string) (*Model, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("model: read %s: %w", path, err)
	}
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("model: parse %s: %w", path, err)
	}
	if data == nil {
		data = map[string]any{}
	}
	return &Model{Path: path, Data: data}, nil
}

// Save writes the model document to path.
func (m *Model) Save(path string) error {
	raw, err := json.MarshalIndent(m.Data, "", "  ")
	if err != nil {
		return fmt.Errorf("model: encode: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("model: write %s: %w", path, err)
	}
	return nil
}

// WeatherFile returns the weather file reference embedded in the model, if any.
// Both {"weather_file": "x.epw"} and {"weather_file": {"url": "x.epw"}} are accepted.
func (m *Model) WeatherFile() (string, bool) {
	if m == nil || m.Data == nil {
		return "", false
	}
	switch v := m.Data["weather_file"].(type) {
	case string:
		return v, v != ""
	case map[string]any:
		for _, key := range []string{"url", "path"} {
			if s, ok := v[key].(string); ok && s != "" {
				return s, true
			}
		}
	}
	return "", false
}

// SetWeatherFile records a weather file reference in the model.
func (m *Model) SetWeatherFile(path string) {
	if m.Data == nil {
		m.Data = map[string]any{}
	}
	m.Data["weather_file"] = map[string]any{"url": path}
}

// Objects returns the model's object list.
func (m *Model) Objects() []map[string]any {
	raw, _ := m.Data["objects"].([]any)
	out := make([]map[string]any, 0, len(raw))
	for _, o := range raw {
		if obj, ok := o.(map[string]any); ok {
			out = append(out, obj)
		}
	}
	return out
}

// Clone returns a deep copy of the model.
func (m *Model) Clone() (*Model, error) {
	raw, err := json.Marshal(m.Data)
	if err != nil {
		return nil, fmt.Errorf("model: clone: %w", err)
	}
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("model: clone: %w", err)
	}
	return &Model{Path: m.Path, Data: data}, nil
}
