package dsl

import "github.com/aretw0/studioflow/pkg/domain"

// StepBuilder provides a fluent API for configuring a step.
type StepBuilder struct {
	step    domain.Step
	builder *Builder
}

// Name sets the display name of the step.
func (s *StepBuilder) Name(name string) *StepBuilder {
	s.step.Name = name
	return s
}

// Arg appends an argument. Repeating a name is allowed; the last value wins
// when the measure runs.
func (s *StepBuilder) Arg(name string, value any) *StepBuilder {
	s.step.Arguments = append(s.step.Arguments, domain.Argument{Name: name, Value: value})
	return s
}

// Then appends the next step, so a whole workflow reads as one chain.
func (s *StepBuilder) Then(measureDirName string) *StepBuilder {
	return s.builder.Add(measureDirName)
}

// Build compiles the whole workflow this step belongs to.
func (s *StepBuilder) Build() (*domain.WorkflowSpec, error) {
	return s.builder.Build()
}
