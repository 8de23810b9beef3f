package measure

import (
	"fmt"
	"slices"
	"strings"

	"github.com/aretw0/studioflow/pkg/domain"
	"github.com/spf13/cast"
)

// ArgumentType is the declared type of a measure parameter.
type ArgumentType string

const (
	ArgString  ArgumentType = "string"
	ArgDouble  ArgumentType = "double"
	ArgInteger ArgumentType = "integer"
	ArgBoolean ArgumentType = "boolean"
	ArgChoice  ArgumentType = "choice"
	ArgPath    ArgumentType = "path"
)

// ArgumentDefinition declares one measure parameter.
type ArgumentDefinition struct {
	Name        string       `json:"name" yaml:"name" mapstructure:"name"`
	DisplayName string       `json:"display_name,omitempty" yaml:"display_name,omitempty" mapstructure:"display_name"`
	Description string       `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description"`
	Type        ArgumentType `json:"type,omitempty" yaml:"type,omitempty" mapstructure:"type"`
	Required    bool         `json:"required,omitempty" yaml:"required,omitempty" mapstructure:"required"`
	Default     any          `json:"default,omitempty" yaml:"default,omitempty" mapstructure:"default"`
	Choices     []string     `json:"choices,omitempty" yaml:"choices,omitempty" mapstructure:"choices"`
}

// Coerce converts v to the definition's declared type.
func (d ArgumentDefinition) Coerce(v any) (any, error) {
	switch ArgumentType(strings.ToLower(string(d.Type))) {
	case ArgDouble:
		return cast.ToFloat64E(v)
	case ArgInteger:
		return cast.ToIntE(v)
	case ArgBoolean:
		return cast.ToBoolE(v)
	case ArgChoice:
		s, err := cast.ToStringE(v)
		if err != nil {
			return nil, err
		}
		if len(d.Choices) > 0 && !slices.Contains(d.Choices, s) {
			return nil, fmt.Errorf("value %q is not one of %v", s, d.Choices)
		}
		return s, nil
	default:
		return cast.ToStringE(v)
	}
}

// ArgumentMap holds the final argument values passed to a measure.
type ArgumentMap map[string]any

// Has reports whether name has a value.
func (a ArgumentMap) Has(name string) bool {
	_, ok := a[name]
	return ok
}

// String returns the named argument as a string.
func (a ArgumentMap) String(name string) (string, error) {
	v, ok := a[name]
	if !ok {
		return "", fmt.Errorf("argument %q not set", name)
	}
	return cast.ToStringE(v)
}

// Float returns the named argument as a float64.
func (a ArgumentMap) Float(name string) (float64, error) {
	v, ok := a[name]
	if !ok {
		return 0, fmt.Errorf("argument %q not set", name)
	}
	return cast.ToFloat64E(v)
}

// Int returns the named argument as an int.
func (a ArgumentMap) Int(name string) (int, error) {
	v, ok := a[name]
	if !ok {
		return 0, fmt.Errorf("argument %q not set", name)
	}
	return cast.ToIntE(v)
}

// Bool returns the named argument as a bool.
func (a ArgumentMap) Bool(name string) (bool, error) {
	v, ok := a[name]
	if !ok {
		return false, fmt.Errorf("argument %q not set", name)
	}
	return cast.ToBoolE(v)
}

// BuildArguments establishes declared defaults and overlays the step's values in
// order, so a later duplicate name overwrites an earlier one. A step argument the
// measure does not declare is an error, as is a required argument left unset.
func BuildArguments(measureName string, defs []ArgumentDefinition, overrides []domain.Argument) (ArgumentMap, error) {
	byName := make(map[string]ArgumentDefinition, len(defs))
	args := make(ArgumentMap, len(defs))
	for _, def := range defs {
		byName[def.Name] = def
		if def.Default == nil {
			continue
		}
		v, err := def.Coerce(def.Default)
		if err != nil {
			return nil, fmt.Errorf("default for argument '%s' in measure '%s': %w", def.Name, measureName, err)
		}
		args[def.Name] = v
	}

	for _, o := range overrides {
		def, ok := byName[o.Name]
		if !ok {
			return nil, fmt.Errorf("%w: could not find argument '%s' in measure '%s'", domain.ErrUnknownArgument, o.Name, measureName)
		}
		v, err := def.Coerce(o.Value)
		if err != nil {
			return nil, fmt.Errorf("argument '%s' in measure '%s': %w", o.Name, measureName, err)
		}
		args[o.Name] = v
	}

	for _, def := range defs {
		if def.Required && !args.Has(def.Name) {
			return nil, fmt.Errorf("%w: '%s' in measure '%s'", domain.ErrMissingArgument, def.Name, measureName)
		}
	}
	return args, nil
}
