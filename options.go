package studioflow

import (
	"log/slog"
	"time"

	"github.com/aretw0/studioflow/pkg/adapters/process"
	"github.com/aretw0/studioflow/pkg/domain"
	"github.com/aretw0/studioflow/pkg/measure"
	"github.com/aretw0/studioflow/pkg/model"
	"github.com/aretw0/studioflow/pkg/observability"
	"github.com/aretw0/studioflow/pkg/ports"
	"github.com/aretw0/studioflow/pkg/postprocess"
	"go.opentelemetry.io/otel/trace"
)

// Option defines a functional option for configuring a Workflow.
type Option func(*Workflow)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Workflow) {
		w.logger = logger
	}
}

// WithEnginePath sets the EnergyPlus installation directory.
func WithEnginePath(path string) Option {
	return func(w *Workflow) {
		w.enginePath = path
	}
}

// WithTimeout bounds the simulation. Zero means no limit.
func WithTimeout(d time.Duration) Option {
	return func(w *Workflow) {
		w.timeout = d
	}
}

// WithMeasuresOnly stops the run after the EnergyPlus measures and the
// in.idf write, skipping simulation and everything after it.
func WithMeasuresOnly(enabled bool) Option {
	return func(w *Workflow) {
		w.measuresOnly = enabled
	}
}

// WithPostProcessOnly runs only the reporting measures and post-processing
// against an existing run directory.
func WithPostProcessOnly(enabled bool) Option {
	return func(w *Workflow) {
		w.postProcessOnly = enabled
	}
}

// WithDebug keeps the staged EnergyPlus files in the run directory.
func WithDebug(enabled bool) Option {
	return func(w *Workflow) {
		w.debug = enabled
	}
}

// WithStore persists the run record at each job boundary.
func WithStore(store ports.RunStore) Option {
	return func(w *Workflow) {
		w.store = store
	}
}

// WithLocker serializes runs sharing a run directory.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(w *Workflow) {
		w.locker = locker
	}
}

// WithMetrics records run, step and simulation metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(w *Workflow) {
		w.metrics = m
	}
}

// WithTracer records a span for the run and for each step and simulation.
func WithTracer(t trace.Tracer) Option {
	return func(w *Workflow) {
		w.tracer = t
	}
}

// WithMeasureRegistry supplies compiled-in measures, looked up by class name
// before any measure.go script.
func WithMeasureRegistry(p measure.Provider) Option {
	return func(w *Workflow) {
		w.provider = p
	}
}

// WithClassifier shares a classification cache between workflows. It takes
// precedence over WithMeasureRegistry.
func WithClassifier(c *measure.Classifier) Option {
	return func(w *Workflow) {
		w.classifier = c
	}
}

// WithTranslator sets the model-to-workspace translator.
func WithTranslator(t model.Translator) Option {
	return func(w *Workflow) {
		w.translator = t
	}
}

// WithObjectives sets the output variables evaluated after post-processing.
func WithObjectives(outputs []postprocess.OutputVariable) Option {
	return func(w *Workflow) {
		w.outputs = outputs
	}
}

// WithHooks registers lifecycle callbacks. Repeated calls chain.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(w *Workflow) {
		w.hooks = w.hooks.Merge(hooks)
	}
}

// WithCommands overrides the EnergyPlus process configuration.
func WithCommands(cmds map[string]process.ProcessConfig) Option {
	return func(w *Workflow) {
		w.commands = cmds
	}
}

// WithRunID fixes the run identifier instead of generating one.
func WithRunID(id string) Option {
	return func(w *Workflow) {
		w.runID = id
	}
}

// WithWorkingDir resolves relative paths against dir instead of the process
// working directory.
func WithWorkingDir(dir string) Option {
	return func(w *Workflow) {
		w.workingDir = dir
	}
}
