package domain

// Argument is a single name/value override applied to a measure.
type Argument struct {
	Name  string `json:"name" yaml:"name" mapstructure:"name"`
	Value any    `json:"value" yaml:"value" mapstructure:"value"`
}

// Step is one entry of a workflow: a measure directory plus its argument overrides.
// Arguments are applied in the order given.
type Step struct {
	MeasureDirName string     `json:"measure_dir_name" yaml:"measure_dir_name" mapstructure:"measure_dir_name"`
	Name           string     `json:"name,omitempty" yaml:"name,omitempty" mapstructure:"name"`
	Arguments      []Argument `json:"arguments,omitempty" yaml:"arguments,omitempty" mapstructure:"arguments"`
}

// Label returns the step name, falling back to the measure directory name.
func (s Step) Label() string {
	if s.Name != "" {
		return s.Name
	}
	return s.MeasureDirName
}

// WorkflowSpec is the document describing a run.
type WorkflowSpec struct {
	RootDir      string   `json:"root_dir,omitempty" yaml:"root_dir,omitempty" mapstructure:"root_dir"`
	RunDirectory string   `json:"run_directory,omitempty" yaml:"run_directory,omitempty" mapstructure:"run_directory"`
	MeasurePaths []string `json:"measure_paths,omitempty" yaml:"measure_paths,omitempty" mapstructure:"measure_paths"`
	FilePaths    []string `json:"file_paths,omitempty" yaml:"file_paths,omitempty" mapstructure:"file_paths"`
	SeedFile     string   `json:"seed_file,omitempty" yaml:"seed_file,omitempty" mapstructure:"seed_file"`
	WeatherFile  string   `json:"weather_file,omitempty" yaml:"weather_file,omitempty" mapstructure:"weather_file"`
	Steps        []Step   `json:"steps" yaml:"steps" mapstructure:"steps"`
}

// Default search paths, relative to the workflow directory.
var (
	DefaultMeasurePaths = []string{"./measures", "../../measures"}
	DefaultFilePaths    = []string{"./files", "./weather", "../../files", "../../weather", "./"}
)

// MeasureSearchPaths returns the declared measure paths or the defaults.
func (w *WorkflowSpec) MeasureSearchPaths() []string {
	if len(w.MeasurePaths) > 0 {
		return w.MeasurePaths
	}
	return DefaultMeasurePaths
}

// FileSearchPaths returns the declared file paths or the defaults.
func (w *WorkflowSpec) FileSearchPaths() []string {
	if len(w.FilePaths) > 0 {
		return w.FilePaths
	}
	return DefaultFilePaths
}

// CloneSteps returns a copy of the step list so a run cannot mutate the loaded spec.
func (w *WorkflowSpec) CloneSteps() []Step {
	steps := make([]Step, len(w.Steps))
	for i, s := range w.Steps {
		args := make([]Argument, len(s.Arguments))
		copy(args, s.Arguments)
		s.Arguments = args
		steps[i] = s
	}
	return steps
}
