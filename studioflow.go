package studioflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/aretw0/studioflow/internal/compiler"
	"github.com/aretw0/studioflow/internal/logging"
	"github.com/aretw0/studioflow/internal/paths"
	"github.com/aretw0/studioflow/internal/resolve"
	"github.com/aretw0/studioflow/internal/runtime"
	"github.com/aretw0/studioflow/internal/validator"
	"github.com/aretw0/studioflow/pkg/adapters/process"
	"github.com/aretw0/studioflow/pkg/domain"
	"github.com/aretw0/studioflow/pkg/measure"
	"github.com/aretw0/studioflow/pkg/model"
	"github.com/aretw0/studioflow/pkg/observability"
	"github.com/aretw0/studioflow/pkg/ports"
	"github.com/aretw0/studioflow/pkg/postprocess"
)

// ModelFile is the translated model snapshot written into the run directory.
const ModelFile = "in.osm"

// lockTTL bounds how long a crashed process can hold a run directory.
const lockTTL = 6 * time.Hour

// Workflow is one loaded workflow document together with the options its
// runs use. A Workflow may be run more than once; each Run gets its own
// Registry and record.
type Workflow struct {
	path      string
	directory string
	spec      *domain.WorkflowSpec
	resolver  *paths.Resolver

	logger          *slog.Logger
	enginePath      string
	timeout         time.Duration
	measuresOnly    bool
	postProcessOnly bool
	debug           bool
	store           ports.RunStore
	locker          ports.DistributedLocker
	metrics         *observability.Metrics
	tracer          trace.Tracer
	provider        measure.Provider
	classifier      *measure.Classifier
	translator      model.Translator
	outputs         []postprocess.OutputVariable
	hooks           domain.LifecycleHooks
	commands        map[string]process.ProcessConfig
	runID           string
	workingDir      string
}

// New loads the workflow document at workflowPath. A relative path is
// resolved against the working directory.
func New(workflowPath string, opts ...Option) (*Workflow, error) {
	if workflowPath == "" {
		return nil, domain.NewError(domain.ValidationError, "", errors.New("workflow path is required"))
	}
	w, err := newWorkflow(opts)
	if err != nil {
		return nil, err
	}

	w.path = w.resolver.ResolveDirectory(workflowPath)
	w.directory = filepath.Dir(w.path)
	w.spec, err = compiler.NewParser().ParseFile(w.path)
	if err != nil {
		return nil, err
	}
	return w, nil
}

// NewFromSpec wraps a workflow built in memory. directory plays the role of
// the folder a workflow file would live in.
func NewFromSpec(spec *domain.WorkflowSpec, directory string, opts ...Option) (*Workflow, error) {
	if spec == nil {
		return nil, domain.NewError(domain.ValidationError, directory, errors.New("workflow spec is required"))
	}
	if err := compiler.Validate(spec); err != nil {
		return nil, domain.NewError(domain.ValidationError, directory, err)
	}
	w, err := newWorkflow(opts)
	if err != nil {
		return nil, err
	}

	copied := *spec
	copied.Steps = spec.CloneSteps()
	w.spec = &copied
	w.directory = w.resolver.ResolveDirectory(directory)
	return w, nil
}

func newWorkflow(opts []Option) (*Workflow, error) {
	w := &Workflow{}
	for _, opt := range opts {
		opt(w)
	}
	if w.measuresOnly && w.postProcessOnly {
		return nil, domain.NewError(domain.ValidationError, "", domain.ErrConflictingModes)
	}

	// Another run may have chdir'd the process, so the working directory is
	// read under the same lock measures and the simulation take.
	cwd, err := runtime.Getwd()
	if err != nil {
		return nil, fmt.Errorf("get working directory: %w", err)
	}
	wd := cwd
	if w.workingDir != "" {
		wd = w.workingDir
		if !filepath.IsAbs(wd) {
			wd = filepath.Join(cwd, wd)
		}
	}
	if w.resolver, err = paths.New(wd); err != nil {
		return nil, err
	}

	if w.logger == nil {
		w.logger = logging.NewNop()
	}
	if w.translator == nil {
		w.translator = model.ForwardTranslator{}
	}
	if w.classifier == nil {
		copts := []measure.ClassifierOption{measure.WithClassifierLogger(w.logger)}
		if w.provider != nil {
			copts = append(copts, measure.WithProvider(w.provider))
		}
		w.classifier = measure.NewClassifier(copts...)
	}
	if w.tracer == nil {
		w.tracer = noop.NewTracerProvider().Tracer("studioflow")
	}
	return w, nil
}

// Path is the absolute path of the workflow document, empty for a workflow
// built with NewFromSpec.
func (w *Workflow) Path() string { return w.path }

// Spec returns the parsed workflow document.
func (w *Workflow) Spec() *domain.WorkflowSpec { return w.spec }

// Plan is what a run would do, resolved without executing anything.
type Plan struct {
	WorkflowPath string
	Directory    string
	RootDir      string
	RunDir       string
	Weather      resolve.WeatherResult
	Steps        []runtime.PlannedStep

	seed *model.Model
}

// Validate resolves directories, the seed model and the weather file and
// classifies every measure. It reports the first problem found.
func (w *Workflow) Validate() (*Plan, error) {
	rootDir := w.resolver.ResolveRootDir(w.spec, w.directory)
	plan := &Plan{
		WorkflowPath: w.path,
		Directory:    w.directory,
		RootDir:      rootDir,
		RunDir:       w.resolver.ResolveRunDir(w.spec, w.directory),
	}

	filePaths := w.spec.FileSearchPaths()
	seed, err := resolve.SeedModel(rootDir, w.spec.SeedFile, filePaths)
	if err != nil {
		return nil, err
	}
	plan.seed = seed

	plan.Weather, err = resolve.WeatherFile(rootDir, w.spec.WeatherFile, filePaths, seed)
	if err != nil {
		return nil, err
	}

	engine := runtime.NewEngine(w.classifier, runtime.WithLogger(w.logger))
	plan.Steps, err = engine.ValidateMeasures(w.spec, rootDir)
	if err != nil {
		return nil, err
	}
	return plan, nil
}

// Check reports every problem in the workflow at once, where Validate stops
// at the first one.
func (w *Workflow) Check() error {
	rootDir := w.resolver.ResolveRootDir(w.spec, w.directory)
	return validator.ValidateWorkflow(w.spec, rootDir, w.classifier).Err()
}

// Run executes the workflow. The returned record is never nil; on failure it
// carries the error and the steps completed so far.
func (w *Workflow) Run(ctx context.Context) (rec *domain.RunRecord, err error) {
	id := w.runID
	if id == "" {
		id = uuid.NewString()
	}
	runDir := w.resolver.ResolveRunDir(w.spec, w.directory)
	rec = domain.NewRunRecord(id, w.path)
	rec.RunDir = runDir
	logger := w.logger.With("run_id", id)

	ctx, span := w.tracer.Start(ctx, "workflow.run", trace.WithAttributes(
		attribute.String("run.id", id),
		attribute.String("workflow.path", w.path),
		attribute.String("run.dir", runDir),
	))
	started := time.Now()

	defer func() {
		rec.Finish(err)
		w.persist(ctx, logger, rec)
		if w.metrics != nil {
			w.metrics.ObserveRun(rec.Status, time.Since(started))
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			logger.Error("workflow failed", "err", err)
		} else {
			logger.Info("workflow completed", "duration", time.Since(started))
		}
		span.End()
	}()

	if w.locker != nil {
		unlock, lockErr := w.locker.Lock(ctx, runDir, lockTTL)
		if lockErr != nil {
			return rec, fmt.Errorf("lock run directory %s: %w", runDir, lockErr)
		}
		defer func() {
			if uerr := unlock(context.WithoutCancel(ctx)); uerr != nil {
				logger.Warn("failed to release run directory lock", "dir", runDir, "err", uerr)
			}
		}()
	}

	rec.Status = domain.RunRunning
	w.persist(ctx, logger, rec)
	logger.Info("starting workflow", "workflow", w.path, "run_dir", runDir)

	j := newJob(w, rec, id, logger)
	return rec, j.execute(ctx)
}

func (w *Workflow) persist(ctx context.Context, logger *slog.Logger, rec *domain.RunRecord) {
	if w.store == nil {
		return
	}
	if err := w.store.Save(context.WithoutCancel(ctx), rec); err != nil {
		logger.Warn("failed to persist run record", "err", err)
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
