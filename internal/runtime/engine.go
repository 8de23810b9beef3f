package runtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/studioflow/internal/logging"
	"github.com/aretw0/studioflow/pkg/domain"
	"github.com/aretw0/studioflow/pkg/measure"
)

// PlannedStep is a step whose measure has been located and classified.
type PlannedStep struct {
	Index   int
	Step    domain.Step
	Measure *measure.Loaded
}

// ClassName is the key under which the step's attributes are stored.
func (p PlannedStep) ClassName() string { return p.Measure.Manifest.ClassName }

// Engine applies measures to the run Registry.
type Engine struct {
	classifier *measure.Classifier
	logger     *slog.Logger
	hooks      domain.LifecycleHooks
	runID      string
	chdir      bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithLifecycleHooks registers step callbacks.
func WithLifecycleHooks(h domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = e.hooks.Merge(h)
	}
}

// WithRunID tags emitted events with the run identifier.
func WithRunID(id string) Option {
	return func(e *Engine) {
		e.runID = id
	}
}

// WithProcessChdir controls whether measures run with the process working
// directory switched into their work dir. It is on by default.
func WithProcessChdir(enabled bool) Option {
	return func(e *Engine) {
		e.chdir = enabled
	}
}

// NewEngine creates an engine classifying measures with classifier.
func NewEngine(classifier *measure.Classifier, opts ...Option) *Engine {
	if classifier == nil {
		classifier = measure.NewClassifier()
	}
	e := &Engine{
		classifier: classifier,
		logger:     logging.NewNop(),
		chdir:      true,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ValidateMeasures locates and classifies every step and checks that phases
// never go backwards. No measure runs before the whole list is validated.
func (e *Engine) ValidateMeasures(spec *domain.WorkflowSpec, directory string) ([]PlannedStep, error) {
	searchPaths := spec.MeasureSearchPaths()
	phase := domain.PhaseOpenStudio
	plan := make([]PlannedStep, 0, len(spec.Steps))

	for i, step := range spec.Steps {
		dir, ok := measure.FindDir(directory, step.MeasureDirName, searchPaths)
		if !ok {
			return nil, e.fail(domain.NewStepError(domain.ValidationError, i, step.MeasureDirName,
				fmt.Errorf("%w: %s in %v", domain.ErrMeasureNotFound, step.MeasureDirName, searchPaths)), "")
		}

		loaded, err := e.classifier.Classify(dir)
		if err != nil {
			return nil, e.fail(domain.NewStepError(domain.ValidationError, i, step.MeasureDirName, err), dir)
		}

		p := loaded.Kind.Phase()
		if p < phase {
			return nil, e.fail(domain.NewStepError(domain.ValidationError, i, step.MeasureDirName,
				fmt.Errorf("%w: %s measure %s found in %s", domain.ErrPhaseOrder, loaded.Kind, loaded.Manifest.ClassName, phase)), dir)
		}
		phase = p

		plan = append(plan, PlannedStep{Index: i, Step: step, Measure: loaded})
	}
	return plan, nil
}

// Apply runs, in order, every planned step of the given kind. The first failure
// aborts; effects of already completed steps stay in the registry.
func (e *Engine) Apply(ctx context.Context, reg *Registry, plan []PlannedStep, kind domain.MeasureKind) ([]domain.StepRecord, error) {
	var records []domain.StepRecord
	for _, ps := range plan {
		if ps.Measure.Kind != kind {
			continue
		}
		if err := ctx.Err(); err != nil {
			return records, err
		}
		rec, err := e.applyStep(ctx, reg, ps)
		records = append(records, rec)
		if err != nil {
			return records, e.fail(err, ps.Measure.Dir)
		}
	}
	return records, nil
}

func (e *Engine) applyStep(ctx context.Context, reg *Registry, ps PlannedStep) (domain.StepRecord, error) {
	className := ps.ClassName()
	rec := domain.StepRecord{
		Index:     ps.Index,
		Measure:   className,
		Kind:      ps.Measure.Kind,
		StartedAt: time.Now(),
	}

	e.emitStepStart(ctx, ps)
	timer := fmt.Sprintf("measure %d %s", ps.Index, className)
	reg.TimeLogger().Start(timer)

	result, err := e.execute(ctx, reg, ps)

	duration := reg.TimeLogger().Stop(timer)
	rec.CompletedAt = time.Now()
	if result != nil {
		rec.Applicable = result.Applicable()
		rec.Warnings = result.Warnings
		rec.Errors = result.Errors
		if err == nil {
			rec.Attributes = result.FlattenedAttributes()
		}
	}
	e.emitStepFinish(ctx, ps, duration, result, err)
	return rec, err
}

// execute runs one measure and folds its result into reg.
func (e *Engine) execute(ctx context.Context, reg *Registry, ps PlannedStep) (*domain.MeasureResult, error) {
	className := ps.ClassName()
	stepErr := func(kind domain.ErrorKind, err error) error {
		return domain.NewStepError(kind, ps.Index, className, err)
	}

	workDir := filepath.Join(ps.Measure.Dir, domain.RunDirName)
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, stepErr(domain.IOError, fmt.Errorf("failed to create working directory: %w", err))
	}

	args, err := measure.BuildArguments(ps.Step.MeasureDirName, ps.Measure.Impl.Arguments(), ps.Step.Arguments)
	if err != nil {
		return nil, stepErr(domain.ExecutionError, err)
	}

	runner := measure.NewRunner(className, measure.RunnerContext{
		WorkDir:       workDir,
		RunDir:        reg.RunDir(),
		LastModel:     reg.Model(),
		LastWorkspace: reg.Workspace(),
		WeatherFile:   reg.WeatherFile(),
		SQLFile:       reg.SQLFile(),
		PastResults:   reg.Attributes(),
	})

	e.logger.Info("applying measure", "step", ps.Index, "measure", className, "kind", ps.Measure.Kind)
	run := func() error { return dispatch(ctx, reg, ps, runner, args) }
	if e.chdir {
		err = WithWorkingDir(workDir, run)
	} else {
		err = run()
	}
	result := runner.Result()
	if err != nil {
		if len(result.Errors) > 0 {
			err = fmt.Errorf("%w (reported: %s)", err, strings.Join(result.Errors, "; "))
		}
		return &result, stepErr(domain.ExecutionError, err)
	}

	for _, w := range result.Warnings {
		e.logger.Warn(w, "step", ps.Index, "measure", className)
	}
	if result.HasErrors() {
		msg := "measure reported failure"
		if len(result.Errors) > 0 {
			msg = result.Errors[0]
		}
		return &result, stepErr(domain.ExecutionError, fmt.Errorf("%w: %s", domain.ErrMeasureReported, msg))
	}

	reg.MergeAttributes(className, ps.Measure.Kind, result.FlattenedAttributes())
	if runner.WeatherFileChanged() {
		reg.SetWeatherFile(runner.WeatherFile())
	}
	if m := runner.ReplacedModel(); m != nil {
		reg.SetModel(m)
	}
	if ws := runner.ReplacedWorkspace(); ws != nil {
		reg.SetWorkspace(ws)
	}

	if err := writeAttributes(reg, ps.Measure.Kind); err != nil {
		return &result, stepErr(domain.IOError, err)
	}
	return &result, nil
}

func dispatch(ctx context.Context, reg *Registry, ps PlannedStep, runner *measure.Runner, args measure.ArgumentMap) error {
	switch impl := ps.Measure.Impl.(type) {
	case measure.ModelMeasure:
		if ps.Measure.Kind != domain.KindModel {
			break
		}
		m := reg.Model()
		if m == nil {
			return errors.New("no model loaded")
		}
		return impl.Run(ctx, m, runner, args)
	case measure.WorkspaceMeasure:
		if ps.Measure.Kind != domain.KindWorkspace {
			break
		}
		ws := reg.Workspace()
		if ws == nil {
			return errors.New("no workspace translated")
		}
		return impl.Run(ctx, ws, runner, args)
	case measure.ReportingMeasure:
		if ps.Measure.Kind != domain.KindReporting {
			break
		}
		return impl.Run(ctx, runner, args)
	}
	return fmt.Errorf("%w: %s is not a %s", domain.ErrMeasureInterface, ps.ClassName(), ps.Measure.Kind)
}

// writeAttributes persists the accumulated attributes of the phase group that
// kind belongs to.
func writeAttributes(reg *Registry, kind domain.MeasureKind) error {
	if reg.RunDir() == "" {
		return nil
	}
	name := domain.MeasureAttributesFile
	attrs := reg.AttributesFor(domain.KindModel, domain.KindWorkspace)
	if kind == domain.KindReporting {
		name = domain.ReportAttributesFile
		attrs = reg.AttributesFor(domain.KindReporting)
	}
	if err := os.MkdirAll(reg.RunDir(), 0o755); err != nil {
		return fmt.Errorf("failed to create run directory: %w", err)
	}
	data, err := json.MarshalIndent(attrs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode attributes: %w", err)
	}
	if err := os.WriteFile(filepath.Join(reg.RunDir(), name), data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

func (e *Engine) fail(err error, dir string) error {
	var de *domain.Error
	if errors.As(err, &de) {
		e.logger.Error("step failed", "kind", de.Kind, "step", de.Step, "measure", de.Measure, "dir", dir, "err", de.Err)
	} else {
		e.logger.Error("step failed", "dir", dir, "err", err)
	}
	return err
}

func (e *Engine) emitStepStart(ctx context.Context, ps PlannedStep) {
	if e.hooks.OnStepStart == nil {
		return
	}
	e.hooks.OnStepStart(ctx, &domain.StepEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventStepStart, RunID: e.runID},
		Index:     ps.Index,
		Measure:   ps.ClassName(),
		Kind:      ps.Measure.Kind,
	})
}

func (e *Engine) emitStepFinish(ctx context.Context, ps PlannedStep, d time.Duration, res *domain.MeasureResult, err error) {
	if e.hooks.OnStepFinish == nil {
		return
	}
	e.hooks.OnStepFinish(ctx, &domain.StepEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventStepFinish, RunID: e.runID},
		Index:     ps.Index,
		Measure:   ps.ClassName(),
		Kind:      ps.Measure.Kind,
		Duration:  d,
		Result:    res,
		Err:       err,
	})
}
