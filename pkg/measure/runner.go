package measure

import (
	"fmt"
	"maps"

	"github.com/aretw0/studioflow/pkg/domain"
	"github.com/aretw0/studioflow/pkg/model"
)

// RunnerContext is the run state a step is allowed to see.
type RunnerContext struct {
	WorkDir       string
	RunDir        string
	LastModel     *model.Model
	LastWorkspace *model.Workspace
	WeatherFile   string
	SQLFile       string
	PastResults   map[string]map[string]any
}

// Runner is the handle a measure uses to report diagnostics and reach context.
// A Runner belongs to exactly one step.
type Runner struct {
	ctx    RunnerContext
	result domain.MeasureResult

	weatherChanged bool
	model          *model.Model
	workspace      *model.Workspace
}

// NewRunner creates the handle for one step of measureName.
func NewRunner(measureName string, rc RunnerContext) *Runner {
	return &Runner{
		ctx: rc,
		result: domain.MeasureResult{
			MeasureName: measureName,
			Value:       domain.ResultSuccess,
			Attributes:  make(map[string]any),
		},
	}
}

func (r *Runner) RegisterInfo(msg string) {
	r.result.Info = append(r.result.Info, msg)
}

func (r *Runner) RegisterWarning(msg string) {
	r.result.Warnings = append(r.result.Warnings, msg)
}

// RegisterError records an error-level diagnostic and marks the step failed.
func (r *Runner) RegisterError(msg string) {
	r.result.Errors = append(r.result.Errors, msg)
	r.result.Value = domain.ResultFail
}

// RegisterAsNotApplicable marks the measure as not applying to the model.
func (r *Runner) RegisterAsNotApplicable(msg string) {
	if msg != "" {
		r.result.Info = append(r.result.Info, msg)
	}
	if r.result.Value != domain.ResultFail {
		r.result.Value = domain.ResultNA
	}
}

func (r *Runner) RegisterInitialCondition(msg string) { r.result.InitialCondition = msg }
func (r *Runner) RegisterFinalCondition(msg string)   { r.result.FinalCondition = msg }

// RegisterValue records a named scalar attribute. Non-scalar values are
// stored in their printed form.
func (r *Runner) RegisterValue(name string, value any) {
	switch v := value.(type) {
	case nil, string, bool, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, float32, float64:
		r.result.Attributes[name] = v
	default:
		r.result.Attributes[name] = fmt.Sprint(v)
	}
}

// WorkDir is the step's private working directory.
func (r *Runner) WorkDir() string { return r.ctx.WorkDir }

// RunDir is the run directory shared by all steps.
func (r *Runner) RunDir() string { return r.ctx.RunDir }

// SQLFile is the simulation SQL output, empty before simulation.
func (r *Runner) SQLFile() string { return r.ctx.SQLFile }

func (r *Runner) LastModel() *model.Model { return r.ctx.LastModel }

func (r *Runner) LastWorkspace() *model.Workspace { return r.ctx.LastWorkspace }

func (r *Runner) WeatherFile() string { return r.ctx.WeatherFile }

// SetWeatherFile replaces the run's weather file path.
func (r *Runner) SetWeatherFile(path string) {
	r.ctx.WeatherFile = path
	r.weatherChanged = true
}

// WeatherFileChanged reports whether the step replaced the weather file.
func (r *Runner) WeatherFileChanged() bool { return r.weatherChanged }

// ReplaceModel hands the run a new model object in place of the current one.
func (r *Runner) ReplaceModel(m *model.Model) { r.model = m }

// ReplacedModel returns the model set by ReplaceModel, if any.
func (r *Runner) ReplacedModel() *model.Model { return r.model }

// ReplaceWorkspace hands the run a new workspace in place of the current one.
func (r *Runner) ReplaceWorkspace(ws *model.Workspace) { r.workspace = ws }

// ReplacedWorkspace returns the workspace set by ReplaceWorkspace, if any.
func (r *Runner) ReplacedWorkspace() *model.Workspace { return r.workspace }

// PastAttributes returns a copy of the attributes a previous measure produced.
func (r *Runner) PastAttributes(className string) (map[string]any, bool) {
	attrs, ok := r.ctx.PastResults[className]
	if !ok {
		return nil, false
	}
	return maps.Clone(attrs), true
}

// PastResults returns a copy of every previous measure's attributes.
func (r *Runner) PastResults() map[string]map[string]any {
	out := make(map[string]map[string]any, len(r.ctx.PastResults))
	for k, v := range r.ctx.PastResults {
		out[k] = maps.Clone(v)
	}
	return out
}

// Result returns the structured output collected so far.
func (r *Runner) Result() domain.MeasureResult {
	res := r.result
	res.Attributes = maps.Clone(r.result.Attributes)
	return res
}
