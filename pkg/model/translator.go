package model

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Translator converts a model into its EnergyPlus workspace.
type Translator interface {
	Translate(m *Model) (*Workspace, error)
}

// TranslatorFunc adapts a function to the Translator interface.
type TranslatorFunc func(m *Model) (*Workspace, error)

// Translate calls f(m).
func (f TranslatorFunc) Translate(m *Model) (*Workspace, error) {
	return f(m)
}

// ForwardTranslator maps the model's "objects" list ({type, fields}) one-to-one onto
// workspace objects and prepends a Version object.
type ForwardTranslator struct {
	Version string
}

// Translate implements Translator.
func (t ForwardTranslator) Translate(m *Model) (*Workspace, error) {
	version := t.Version
	if version == "" {
		version = "24.1"
	}
	ws := &Workspace{}
	ws.Add(Object{Type: "Version", Fields: []string{version}})
	for i, raw := range m.Objects() {
		var obj Object
		if err := mapstructure.WeakDecode(raw, &obj); err != nil {
			return nil, fmt.Errorf("model: translate object %d: %w", i, err)
		}
		if obj.Type == "" {
			return nil, fmt.Errorf("model: translate object %d: missing type", i)
		}
		if obj.Type == "Version" {
			continue
		}
		ws.Add(obj)
	}
	return ws, nil
}
