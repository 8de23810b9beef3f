// Package compiler turns workflow and analysis documents into typed values.
package compiler

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/studioflow/pkg/domain"
	"github.com/aretw0/studioflow/pkg/postprocess"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Format is the encoding of a document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatOf picks the format from a file extension. Unknown extensions,
// including .osw, are read as JSON.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Parser decodes workflow documents.
type Parser struct{}

// NewParser creates a new parser instance.
func NewParser() *Parser {
	return &Parser{}
}

// Parse decodes data into a workflow spec. The document is read into a
// generic map first so JSON and YAML share one decoding path.
func (p *Parser) Parse(data []byte, format Format) (*domain.WorkflowSpec, error) {
	raw, err := decodeMap(data, format)
	if err != nil {
		return nil, fmt.Errorf("failed to parse workflow: %w", err)
	}

	var spec domain.WorkflowSpec
	if err := decode(raw, &spec); err != nil {
		return nil, fmt.Errorf("failed to decode workflow: %w", err)
	}
	if _, ok := raw["steps"]; !ok {
		return nil, fmt.Errorf("workflow missing steps")
	}
	if err := Validate(&spec); err != nil {
		return nil, err
	}
	return &spec, nil
}

// Validate checks the structure of a decoded or hand-built spec: every step
// names a measure directory and every argument has a name.
func Validate(spec *domain.WorkflowSpec) error {
	for i, s := range spec.Steps {
		if s.MeasureDirName == "" {
			return fmt.Errorf("workflow step %d: missing measure_dir_name", i)
		}
		for j, a := range s.Arguments {
			if a.Name == "" {
				return fmt.Errorf("workflow step %d (%s): argument %d has no name", i, s.MeasureDirName, j)
			}
		}
	}
	return nil
}

// ParseFile reads and parses the workflow at path.
func (p *Parser) ParseFile(path string) (*domain.WorkflowSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.NewError(domain.IOError, path, err)
	}
	spec, err := p.Parse(data, FormatOf(path))
	if err != nil {
		return nil, domain.NewError(domain.ValidationError, path, err)
	}
	return spec, nil
}

type analysisDoc struct {
	OutputVariables []postprocess.OutputVariable `mapstructure:"output_variables"`
	Analysis        *struct {
		OutputVariables []postprocess.OutputVariable `mapstructure:"output_variables"`
	} `mapstructure:"analysis"`
}

// ParseOutputs reads the output variables of an analysis document. Both a
// top-level "output_variables" list and one nested under "analysis" are
// accepted.
func (p *Parser) ParseOutputs(data []byte, format Format) ([]postprocess.OutputVariable, error) {
	raw, err := decodeMap(data, format)
	if err != nil {
		return nil, fmt.Errorf("failed to parse analysis: %w", err)
	}
	var doc analysisDoc
	if err := decode(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode analysis: %w", err)
	}
	if doc.Analysis != nil && len(doc.Analysis.OutputVariables) > 0 {
		return doc.Analysis.OutputVariables, nil
	}
	return doc.OutputVariables, nil
}

// ParseOutputsFile reads the output variables from the analysis at path.
func (p *Parser) ParseOutputsFile(path string) ([]postprocess.OutputVariable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.NewError(domain.IOError, path, err)
	}
	outputs, err := p.ParseOutputs(data, FormatOf(path))
	if err != nil {
		return nil, domain.NewError(domain.ValidationError, path, err)
	}
	return outputs, nil
}

func decodeMap(data []byte, format Format) (map[string]any, error) {
	var raw map[string]any
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
	default:
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
	}
	if raw == nil {
		return nil, fmt.Errorf("empty document")
	}
	return raw, nil
}

func decode(input any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}
