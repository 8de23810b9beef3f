package studioflow

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/aretw0/studioflow/internal/resolve"
	"github.com/aretw0/studioflow/internal/runtime"
	"github.com/aretw0/studioflow/pkg/domain"
	"github.com/aretw0/studioflow/pkg/energyplus"
	"github.com/aretw0/studioflow/pkg/model"
	"github.com/aretw0/studioflow/pkg/observability"
	"github.com/aretw0/studioflow/pkg/postprocess"
)

// Job names, in run order.
const (
	JobInitialization     = "initialization"
	JobOpenStudioMeasures = "os_measures"
	JobTranslator         = "translator"
	JobEnergyPlusMeasures = "energyplus_measures"
	JobPreprocess         = "preprocess"
	JobSimulation         = "energyplus"
	JobReportingMeasures  = "reporting_measures"
	JobPostprocess        = "postprocess"
)

type jobFunc func(ctx context.Context) error

type jobStep struct {
	name string
	fn   jobFunc
}

// job is the state of one Run.
type job struct {
	w      *Workflow
	rec    *domain.RunRecord
	id     string
	logger *slog.Logger
	hooks  domain.LifecycleHooks

	engine *runtime.Engine
	reg    *runtime.Registry
	plan   []runtime.PlannedStep
}

func newJob(w *Workflow, rec *domain.RunRecord, id string, logger *slog.Logger) *job {
	hooks := w.hooks
	if w.metrics != nil {
		hooks = hooks.Merge(w.metrics.Hooks())
	}
	hooks = hooks.Merge(observability.NewSpanHooks(w.tracer).Hooks())

	return &job{
		w:      w,
		rec:    rec,
		id:     id,
		logger: logger,
		hooks:  hooks,
		engine: runtime.NewEngine(w.classifier,
			runtime.WithLogger(logger),
			runtime.WithLifecycleHooks(hooks),
			runtime.WithRunID(id),
		),
	}
}

// Jobs returns the job names a run with the given modes executes.
func Jobs(measuresOnly, postProcessOnly bool) []string {
	switch {
	case postProcessOnly:
		return []string{JobInitialization, JobReportingMeasures, JobPostprocess}
	case measuresOnly:
		return []string{JobInitialization, JobOpenStudioMeasures, JobTranslator, JobEnergyPlusMeasures, JobPreprocess}
	default:
		return []string{
			JobInitialization, JobOpenStudioMeasures, JobTranslator, JobEnergyPlusMeasures,
			JobPreprocess, JobSimulation, JobReportingMeasures, JobPostprocess,
		}
	}
}

func (j *job) steps() []jobStep {
	fns := map[string]jobFunc{
		JobInitialization:     j.initialize,
		JobOpenStudioMeasures: j.applyKind(domain.KindModel),
		JobTranslator:         j.translate,
		JobEnergyPlusMeasures: j.applyKind(domain.KindWorkspace),
		JobPreprocess:         j.preprocess,
		JobSimulation:         j.simulate,
		JobReportingMeasures:  j.applyKind(domain.KindReporting),
		JobPostprocess:        j.postprocess,
	}
	var out []jobStep
	for _, name := range Jobs(j.w.measuresOnly, j.w.postProcessOnly) {
		out = append(out, jobStep{name: name, fn: fns[name]})
	}
	return out
}

func (j *job) execute(ctx context.Context) error {
	for _, s := range j.steps() {
		if err := ctx.Err(); err != nil {
			return err
		}
		j.logger.Debug("starting job", "job", s.name)
		if j.reg != nil {
			j.reg.TimeLogger().Start(s.name)
		}
		err := s.fn(ctx)
		if j.reg != nil {
			d := j.reg.TimeLogger().Stop(s.name)
			j.logger.Debug("finished job", "job", s.name, "duration", d)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (j *job) initialize(ctx context.Context) error {
	w := j.w
	plan, err := w.Validate()
	if err != nil {
		return err
	}
	j.plan = plan.Steps

	if w.postProcessOnly {
		info, err := os.Stat(plan.RunDir)
		if err != nil || !info.IsDir() {
			return domain.NewError(domain.ValidationError, plan.RunDir, domain.ErrRunDirMissing)
		}
	} else if err := os.MkdirAll(plan.RunDir, 0o755); err != nil {
		return domain.NewError(domain.IOError, plan.RunDir, fmt.Errorf("failed to create run directory: %w", err))
	}

	j.reg = runtime.NewRegistry(plan.Directory, plan.RootDir, plan.RunDir)
	j.reg.TimeLogger().Start(JobInitialization)

	seed := plan.seed
	if w.postProcessOnly {
		if p := filepath.Join(plan.RunDir, ModelFile); fileExists(p) {
			if seed, err = model.Load(p); err != nil {
				return domain.NewError(domain.IOError, p, err)
			}
		}
		if p := filepath.Join(plan.RunDir, domain.InputIDF); fileExists(p) {
			ws, err := model.LoadIDF(p)
			if err != nil {
				return domain.NewError(domain.IOError, p, err)
			}
			j.reg.SetWorkspace(ws)
		}
		if p := filepath.Join(plan.RunDir, domain.SQLOutputFile); fileExists(p) {
			j.reg.SetSQLFile(p)
		}
		if err := j.restoreAttributes(); err != nil {
			return err
		}
	}
	j.reg.SetModel(seed)

	switch plan.Weather.Status {
	case resolve.WeatherFound:
		j.reg.SetWeatherFile(plan.Weather.Path)
		seed.SetWeatherFile(plan.Weather.Path)
		j.logger.Info("using weather file", "path", plan.Weather.Path)
	case resolve.WeatherUnresolvable:
		j.logger.Warn("weather file referenced by the model could not be found", "reference", plan.Weather.Reference)
	default:
		j.logger.Info("no weather file declared")
	}
	return nil
}

// restoreAttributes reloads what the model and EnergyPlus measures of an
// earlier run recorded, so reporting measures can read it.
func (j *job) restoreAttributes() error {
	path := filepath.Join(j.reg.RunDir(), domain.MeasureAttributesFile)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return domain.NewError(domain.IOError, path, err)
	}
	var attrs map[string]map[string]any
	if err := json.Unmarshal(data, &attrs); err != nil {
		return domain.NewError(domain.IOError, path, fmt.Errorf("failed to parse: %w", err))
	}
	for className, values := range attrs {
		j.reg.MergeAttributes(className, domain.KindModel, values)
	}
	return nil
}

func (j *job) applyKind(kind domain.MeasureKind) jobFunc {
	return func(ctx context.Context) error {
		steps, err := j.engine.Apply(ctx, j.reg, j.plan, kind)
		j.rec.Steps = append(j.rec.Steps, steps...)
		j.w.persist(ctx, j.logger, j.rec)
		return err
	}
}

func (j *job) translate(_ context.Context) error {
	m := j.reg.Model()
	path := filepath.Join(j.reg.RunDir(), ModelFile)
	if err := m.Save(path); err != nil {
		return domain.NewError(domain.IOError, path, err)
	}
	ws, err := j.w.translator.Translate(m)
	if err != nil {
		return domain.NewError(domain.ExecutionError, path, fmt.Errorf("translate model: %w", err))
	}
	j.reg.SetWorkspace(ws)
	return nil
}

func (j *job) preprocess(_ context.Context) error {
	path := filepath.Join(j.reg.RunDir(), domain.InputIDF)
	if err := j.reg.Workspace().SaveIDF(path); err != nil {
		return domain.NewError(domain.IOError, path, err)
	}
	j.logger.Info("wrote EnergyPlus input", "path", path)
	return nil
}

func (j *job) simulate(ctx context.Context) error {
	runDir := j.reg.RunDir()
	if j.w.enginePath == "" {
		return domain.NewError(domain.EngineError, runDir, domain.ErrNoEngine)
	}

	sim := energyplus.New(runDir, j.w.enginePath,
		energyplus.WithLogger(j.logger),
		energyplus.WithKeepFiles(j.w.debug),
		energyplus.WithTimeout(j.w.timeout),
		energyplus.WithCommands(j.w.commands),
	)
	start := time.Now()
	status, err := sim.Run(ctx)
	if j.hooks.OnSimulation != nil {
		j.hooks.OnSimulation(ctx, &domain.SimulationEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventSimulationDone, RunID: j.id},
			Duration:  time.Since(start),
			Warnings:  status.Warnings,
			Severe:    status.Severe,
			Err:       err,
		})
	}
	if err != nil {
		return err
	}

	if sql := filepath.Join(runDir, domain.SQLOutputFile); fileExists(sql) {
		j.reg.SetSQLFile(sql)
	}
	return nil
}

func (j *job) postprocess(ctx context.Context) error {
	ex := postprocess.NewExtractor(postprocess.WithLogger(j.logger))
	res, err := ex.ExtractResults(ctx, j.reg.RunDir(), j.w.outputs)
	if err != nil {
		return err
	}
	j.rec.Results = res.Values
	j.rec.ObjectiveFunctions = res.ObjectiveFunctions
	return nil
}
