package dsl

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/studioflow/internal/compiler"
	"github.com/aretw0/studioflow/pkg/domain"
)

// Builder manages the workflow construction.
type Builder struct {
	spec  domain.WorkflowSpec
	steps []*StepBuilder
}

// New creates a new workflow builder.
func New() *Builder {
	return &Builder{}
}

// Seed sets the seed model file name.
func (b *Builder) Seed(file string) *Builder {
	b.spec.SeedFile = file
	return b
}

// Weather sets the weather file name.
func (b *Builder) Weather(file string) *Builder {
	b.spec.WeatherFile = file
	return b
}

// RootDir sets the directory search paths are relative to.
func (b *Builder) RootDir(dir string) *Builder {
	b.spec.RootDir = dir
	return b
}

// RunDirectory sets the directory the "run" folder is created in.
func (b *Builder) RunDirectory(dir string) *Builder {
	b.spec.RunDirectory = dir
	return b
}

// MeasurePaths replaces the default measure search paths.
func (b *Builder) MeasurePaths(paths ...string) *Builder {
	b.spec.MeasurePaths = append([]string(nil), paths...)
	return b
}

// FilePaths replaces the default seed and weather search paths.
func (b *Builder) FilePaths(paths ...string) *Builder {
	b.spec.FilePaths = append([]string(nil), paths...)
	return b
}

// Add appends a step applying the measure in measureDirName.
// Steps run in the order they are added.
func (b *Builder) Add(measureDirName string) *StepBuilder {
	sb := &StepBuilder{
		step:    domain.Step{MeasureDirName: measureDirName},
		builder: b,
	}
	b.steps = append(b.steps, sb)
	return sb
}

// Build compiles the steps into a workflow spec.
func (b *Builder) Build() (*domain.WorkflowSpec, error) {
	spec := b.spec
	spec.Steps = make([]domain.Step, 0, len(b.steps))
	for _, sb := range b.steps {
		spec.Steps = append(spec.Steps, sb.step)
	}
	spec.Steps = spec.CloneSteps()

	if err := compiler.Validate(&spec); err != nil {
		return nil, fmt.Errorf("failed to build workflow: %w", err)
	}
	return &spec, nil
}

// WriteFile builds the workflow and writes it to path, as YAML or JSON
// depending on the extension.
func (b *Builder) WriteFile(path string) error {
	spec, err := b.Build()
	if err != nil {
		return err
	}

	var data []byte
	if compiler.FormatOf(path) == compiler.FormatYAML {
		data, err = yaml.Marshal(spec)
	} else {
		data, err = json.MarshalIndent(spec, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to encode workflow: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return domain.NewError(domain.IOError, path, err)
	}
	return nil
}
