// Package postprocess merges measure attributes and EnergyPlus reports into
// the results document of a run and extracts objective functions from it.
package postprocess

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/studioflow/internal/logging"
	"github.com/aretw0/studioflow/pkg/domain"
)

const (
	LegacyKey = "standard_report_legacy"
	SQLKey    = "eplusout_sql"
)

// attributeFiles are merged in this order; later files overwrite top-level
// keys of earlier ones.
var attributeFiles = []string{
	domain.MeasureAttributesXMLFile,
	domain.MeasureAttributesFile,
	domain.ReportAttributesFile,
}

// OutputVariable is one output of an analysis, optionally an objective function.
type OutputVariable struct {
	Name              string   `json:"name" yaml:"name" mapstructure:"name"`
	ObjectiveFunction bool     `json:"objective_function" yaml:"objective_function" mapstructure:"objective_function"`
	Index             *int     `json:"objective_function_index,omitempty" yaml:"objective_function_index,omitempty" mapstructure:"objective_function_index"`
	Target            *float64 `json:"objective_function_target,omitempty" yaml:"objective_function_target,omitempty" mapstructure:"objective_function_target"`
	ScalingFactor     *float64 `json:"scaling_factor,omitempty" yaml:"scaling_factor,omitempty" mapstructure:"scaling_factor"`
	Group             any      `json:"objective_function_group,omitempty" yaml:"objective_function_group,omitempty" mapstructure:"objective_function_group"`
}

// Results is the outcome of post-processing a run directory.
type Results struct {
	Values             map[string]any
	ObjectiveFunctions map[string]any
}

// Extractor builds the results document of a run directory.
type Extractor struct {
	logger *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Extractor) {
		e.logger = l
	}
}

// NewExtractor creates an Extractor.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExtractResults merges the attribute files of runDir, nests the legacy
// tabular report and the SQL summary when present, writes results.json and
// evaluates the objective functions among outputs.
func (e *Extractor) ExtractResults(ctx context.Context, runDir string, outputs []OutputVariable) (*Results, error) {
	values := make(map[string]any)
	for _, name := range attributeFiles {
		path := filepath.Join(runDir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				e.logger.Debug("attribute file not present", "path", path)
				continue
			}
			return nil, domain.NewError(domain.IOError, path, err)
		}
		var doc map[string]any
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, domain.NewError(domain.IOError, path, fmt.Errorf("failed to parse: %w", err))
		}
		for k, v := range RenameHashKeys(doc).(map[string]any) {
			values[k] = v
		}
	}

	if _, err := os.Stat(filepath.Join(runDir, TabularFile)); err == nil {
		table, err := TabularToJSON(runDir)
		if err != nil {
			return nil, err
		}
		values[LegacyKey] = table
	}

	if sqlPath := filepath.Join(runDir, domain.SQLOutputFile); fileExists(sqlPath) {
		summary, err := ReadSQLSummary(ctx, sqlPath)
		if err != nil {
			e.logger.Warn("could not read SQL summary", "path", sqlPath, "err", err)
		} else {
			values[SQLKey] = summary
		}
	}

	if err := writeJSON(filepath.Join(runDir, domain.ResultsFile), values); err != nil {
		return nil, err
	}

	return &Results{
		Values:             values,
		ObjectiveFunctions: e.ObjectiveFunctions(values, outputs),
	}, nil
}

// ObjectiveFunctions looks up each objective output by its dotted name. A
// missing or nil value yields math.MaxFloat64 and nil target, scaling factor
// and group instead of an error.
func (e *Extractor) ObjectiveFunctions(values map[string]any, outputs []OutputVariable) map[string]any {
	out := make(map[string]any)
	pos := 0
	for _, v := range outputs {
		if !v.ObjectiveFunction {
			continue
		}
		idx := pos
		if v.Index != nil {
			idx = *v.Index
		}
		pos++
		n := idx + 1

		value, ok := Lookup(values, v.Name)
		if !ok || value == nil {
			e.logger.Warn("objective function not found in results", "name", v.Name)
			out[fmt.Sprintf("objective_function_%d", n)] = math.MaxFloat64
			out[fmt.Sprintf("objective_function_target_%d", n)] = nil
			out[fmt.Sprintf("scaling_factor_%d", n)] = nil
			out[fmt.Sprintf("objective_function_group_%d", n)] = nil
			continue
		}

		out[fmt.Sprintf("objective_function_%d", n)] = value
		if v.Target != nil {
			out[fmt.Sprintf("objective_function_target_%d", n)] = *v.Target
		}
		if v.ScalingFactor != nil {
			out[fmt.Sprintf("scaling_factor_%d", n)] = *v.ScalingFactor
		}
		if v.Group != nil {
			out[fmt.Sprintf("objective_function_group_%d", n)] = v.Group
		}
	}
	return out
}

// Lookup resolves a dotted path through nested maps.
func Lookup(values map[string]any, path string) (any, bool) {
	var cur any = values
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
