package runtime

import (
	"maps"
	"sync"

	"github.com/aretw0/studioflow/pkg/domain"
	"github.com/aretw0/studioflow/pkg/model"
)

// Registry is the run-scoped context passed through the step loop.
//
// Ownership of each key:
//   - directory, root dir, run dir: set once at construction by the workflow.
//   - model: seeded by the workflow, replaced only by ModelMeasure steps.
//   - workspace: set by translation, replaced only by WorkspaceMeasure steps.
//   - weather file: seeded by the resolver, replaced by any step through its runner.
//   - sql file: set by the simulation runner.
//   - attributes: appended by the engine after each successful step.
//
// The engine is single-threaded per run; the lock only guards readers such as
// status endpoints.
type Registry struct {
	mu sync.RWMutex

	directory string
	rootDir   string
	runDir    string

	model       *model.Model
	workspace   *model.Workspace
	weatherFile string
	sqlFile     string

	attributes map[string]map[string]any
	kinds      map[string]domain.MeasureKind
	order      []string

	timeLogger *TimeLogger
}

// NewRegistry creates the context for one run.
func NewRegistry(directory, rootDir, runDir string) *Registry {
	return &Registry{
		directory:  directory,
		rootDir:    rootDir,
		runDir:     runDir,
		attributes: make(map[string]map[string]any),
		kinds:      make(map[string]domain.MeasureKind),
		timeLogger: NewTimeLogger(),
	}
}

// Directory is the directory holding the workflow file.
func (r *Registry) Directory() string { return r.directory }

// RootDir is the base for resolving the workflow's relative paths.
func (r *Registry) RootDir() string { return r.rootDir }

// RunDir is where measure output and simulation files are written.
func (r *Registry) RunDir() string { return r.runDir }

// TimeLogger records phase timings for the run.
func (r *Registry) TimeLogger() *TimeLogger { return r.timeLogger }

// Model returns the current building model.
func (r *Registry) Model() *model.Model {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.model
}

// SetModel replaces the building model.
func (r *Registry) SetModel(m *model.Model) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.model = m
}

// Workspace returns the translated simulation input, nil before translation.
func (r *Registry) Workspace() *model.Workspace {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.workspace
}

// SetWorkspace replaces the simulation input.
func (r *Registry) SetWorkspace(ws *model.Workspace) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.workspace = ws
}

// WeatherFile returns the resolved weather file path.
func (r *Registry) WeatherFile() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.weatherFile
}

// SetWeatherFile records a new weather file path.
func (r *Registry) SetWeatherFile(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.weatherFile = path
}

// SQLFile returns the simulation's SQL output path, empty until it has run.
func (r *Registry) SQLFile() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sqlFile
}

// SetSQLFile records the simulation's SQL output path.
func (r *Registry) SetSQLFile(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sqlFile = path
}

// MergeAttributes stores attrs under className. A class name seen again has
// its attributes overlaid.
func (r *Registry) MergeAttributes(className string, kind domain.MeasureKind, attrs map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.attributes[className]
	if !ok {
		existing = make(map[string]any, len(attrs))
		r.order = append(r.order, className)
	}
	maps.Copy(existing, attrs)
	r.attributes[className] = existing
	r.kinds[className] = kind
}

// Attributes returns a copy of every measure's attributes by class name.
func (r *Registry) Attributes() map[string]map[string]any {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]map[string]any, len(r.attributes))
	for k, v := range r.attributes {
		out[k] = maps.Clone(v)
	}
	return out
}

// AttributesFor returns a copy of the attributes of measures of the given kinds.
func (r *Registry) AttributesFor(kinds ...domain.MeasureKind) map[string]any {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]any)
	for _, name := range r.order {
		for _, k := range kinds {
			if r.kinds[name] == k {
				out[name] = maps.Clone(r.attributes[name])
				break
			}
		}
	}
	return out
}
