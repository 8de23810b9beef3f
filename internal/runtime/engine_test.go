package runtime_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/studioflow/internal/runtime"
	"github.com/aretw0/studioflow/internal/testutils"
	"github.com/aretw0/studioflow/pkg/domain"
	"github.com/aretw0/studioflow/pkg/measure"
	"github.com/aretw0/studioflow/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const doublingScript = `package main

func Arguments() []map[string]interface{} {
	return []map[string]interface{}{
		{"name": "length", "type": "double", "required": true},
	}
}

func Run(in map[string]interface{}) (map[string]interface{}, error) {
	args := in["arguments"].(map[string]interface{})
	return map[string]interface{}{
		"attributes": map[string]interface{}{"length": args["length"].(float64) * 2},
	}, nil
}
`

// spyModel counts runs and records the arguments it saw.
type spyModel struct {
	runs     int
	lastArgs measure.ArgumentMap
	fail     string
	failErr  error
}

func (s *spyModel) Arguments() []measure.ArgumentDefinition {
	return []measure.ArgumentDefinition{{Name: "length", Type: measure.ArgDouble, Default: 1}}
}

func (s *spyModel) Run(ctx context.Context, m *model.Model, r *measure.Runner, args measure.ArgumentMap) error {
	s.runs++
	s.lastArgs = args
	if s.fail != "" {
		r.RegisterError(s.fail)
	}
	wd, _ := os.Getwd()
	r.RegisterValue("cwd", wd)
	return s.failErr
}

// lengthReport reads the attribute produced by an earlier step.
type lengthReport struct {
	runs int
	seen any
}

func (l *lengthReport) Arguments() []measure.ArgumentDefinition { return nil }

func (l *lengthReport) Run(ctx context.Context, r *measure.Runner, args measure.ArgumentMap) error {
	l.runs++
	attrs, ok := r.PastAttributes("DoubleLength")
	if !ok {
		r.RegisterError("no attributes from DoubleLength")
		return nil
	}
	l.seen = attrs["length"]
	r.RegisterValue("reported_length", attrs["length"])
	return nil
}

type fixture struct {
	dir string
	reg *measure.Registry
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return &fixture{dir: t.TempDir(), reg: measure.NewRegistry()}
}

func (f *fixture) measure(t *testing.T, dirName, class, kind, script string) {
	t.Helper()
	testutils.WriteMeasure(t, f.dir, dirName, class, kind, script)
}

func (f *fixture) engine(opts ...runtime.Option) *runtime.Engine {
	return runtime.NewEngine(measure.NewClassifier(measure.WithProvider(f.reg)), opts...)
}

func (f *fixture) registry() *runtime.Registry {
	reg := runtime.NewRegistry(f.dir, f.dir, filepath.Join(f.dir, "run"))
	reg.SetModel(model.New())
	return reg
}

func TestEngine_EndToEnd_AttributesFlowToReporting(t *testing.T) {
	f := newFixture(t)
	f.measure(t, "double_length", "DoubleLength", "ModelMeasure", doublingScript)
	f.measure(t, "report_length", "ReportLength", "ReportingMeasure", "")
	report := &lengthReport{}
	f.reg.Register("ReportLength", report)

	spec := &domain.WorkflowSpec{Steps: []domain.Step{
		{MeasureDirName: "double_length", Arguments: []domain.Argument{{Name: "length", Value: 10}}},
		{MeasureDirName: "report_length"},
	}}

	eng := f.engine()
	plan, err := eng.ValidateMeasures(spec, f.dir)
	require.NoError(t, err)
	require.Len(t, plan, 2)

	reg := f.registry()
	ctx := context.Background()

	_, err = eng.Apply(ctx, reg, plan, domain.KindModel)
	require.NoError(t, err)
	assert.Equal(t, 20.0, reg.Attributes()["DoubleLength"]["length"])
	assert.Equal(t, true, reg.Attributes()["DoubleLength"]["applicable"])

	records, err := eng.Apply(ctx, reg, plan, domain.KindReporting)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 1, report.runs)
	assert.Equal(t, 20.0, report.seen)

	raw, err := os.ReadFile(filepath.Join(reg.RunDir(), domain.MeasureAttributesFile))
	require.NoError(t, err)
	var attrs map[string]map[string]any
	require.NoError(t, json.Unmarshal(raw, &attrs))
	assert.Equal(t, 20.0, attrs["DoubleLength"]["length"])
	assert.FileExists(t, filepath.Join(reg.RunDir(), domain.ReportAttributesFile))
}

func TestEngine_PhaseViolationRunsNothing(t *testing.T) {
	f := newFixture(t)
	f.measure(t, "first", "First", "ModelMeasure", "")
	f.measure(t, "idf", "Idf", "ReportingMeasure", "")
	f.measure(t, "late", "Late", "ModelMeasure", "")
	first, late := &spyModel{}, &spyModel{}
	f.reg.Register("First", first)
	f.reg.Register("Idf", &lengthReport{})
	f.reg.Register("Late", late)

	spec := &domain.WorkflowSpec{Steps: []domain.Step{
		{MeasureDirName: "first"},
		{MeasureDirName: "idf"},
		{MeasureDirName: "late"},
	}}

	_, err := f.engine().ValidateMeasures(spec, f.dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPhaseOrder)
	kind, ok := domain.KindOf(err)
	assert.True(t, ok)
	assert.Equal(t, domain.ValidationError, kind)
	assert.Zero(t, first.runs)
	assert.Zero(t, late.runs)
}

func TestEngine_MissingMeasureFailsValidation(t *testing.T) {
	f := newFixture(t)
	spec := &domain.WorkflowSpec{Steps: []domain.Step{{MeasureDirName: "ghost"}}}
	_, err := f.engine().ValidateMeasures(spec, f.dir)
	assert.ErrorIs(t, err, domain.ErrMeasureNotFound)
}

func TestEngine_LastArgumentWins(t *testing.T) {
	f := newFixture(t)
	f.measure(t, "spy", "Spy", "ModelMeasure", "")
	spy := &spyModel{}
	f.reg.Register("Spy", spy)

	spec := &domain.WorkflowSpec{Steps: []domain.Step{{
		MeasureDirName: "spy",
		Arguments: []domain.Argument{
			{Name: "length", Value: 3},
			{Name: "length", Value: 7},
		},
	}}}
	eng := f.engine()
	plan, err := eng.ValidateMeasures(spec, f.dir)
	require.NoError(t, err)
	_, err = eng.Apply(context.Background(), f.registry(), plan, domain.KindModel)
	require.NoError(t, err)
	assert.Equal(t, 7.0, spy.lastArgs["length"])
}

func TestEngine_ExecutionErrors(t *testing.T) {
	t.Run("unknown argument", func(t *testing.T) {
		f := newFixture(t)
		f.measure(t, "spy", "Spy", "ModelMeasure", "")
		spy := &spyModel{}
		f.reg.Register("Spy", spy)

		spec := &domain.WorkflowSpec{Steps: []domain.Step{{
			MeasureDirName: "spy",
			Arguments:      []domain.Argument{{Name: "width", Value: 1}},
		}}}
		eng := f.engine()
		plan, err := eng.ValidateMeasures(spec, f.dir)
		require.NoError(t, err)
		_, err = eng.Apply(context.Background(), f.registry(), plan, domain.KindModel)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "could not find argument 'width' in measure 'spy'")
		assert.Zero(t, spy.runs)
	})

	t.Run("error diagnostic", func(t *testing.T) {
		f := newFixture(t)
		f.measure(t, "spy", "Spy", "ModelMeasure", "")
		f.reg.Register("Spy", &spyModel{fail: "zone not found"})

		spec := &domain.WorkflowSpec{Steps: []domain.Step{{MeasureDirName: "spy"}}}
		eng := f.engine()
		plan, err := eng.ValidateMeasures(spec, f.dir)
		require.NoError(t, err)
		reg := f.registry()
		records, err := eng.Apply(context.Background(), reg, plan, domain.KindModel)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrMeasureReported)
		assert.Contains(t, err.Error(), "zone not found")

		kind, _ := domain.KindOf(err)
		assert.Equal(t, domain.ExecutionError, kind)
		require.Len(t, records, 1)
		assert.Equal(t, []string{"zone not found"}, records[0].Errors)
		assert.Empty(t, reg.Attributes())
	})

	t.Run("error diagnostic and returned error", func(t *testing.T) {
		f := newFixture(t)
		f.measure(t, "spy", "Spy", "ModelMeasure", "")
		f.reg.Register("Spy", &spyModel{fail: "zone not found", failErr: errors.New("geometry check failed")})

		spec := &domain.WorkflowSpec{Steps: []domain.Step{{MeasureDirName: "spy"}}}
		eng := f.engine()
		plan, err := eng.ValidateMeasures(spec, f.dir)
		require.NoError(t, err)
		records, err := eng.Apply(context.Background(), f.registry(), plan, domain.KindModel)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "geometry check failed")
		assert.Contains(t, err.Error(), "zone not found")
		kind, _ := domain.KindOf(err)
		assert.Equal(t, domain.ExecutionError, kind)
		require.Len(t, records, 1)
		assert.Equal(t, []string{"zone not found"}, records[0].Errors)
	})
}

func TestEngine_WorkingDirectory(t *testing.T) {
	f := newFixture(t)
	f.measure(t, "spy", "Spy", "ModelMeasure", "")
	f.reg.Register("Spy", &spyModel{})

	before, err := os.Getwd()
	require.NoError(t, err)

	spec := &domain.WorkflowSpec{Steps: []domain.Step{{MeasureDirName: "spy"}}}
	eng := f.engine()
	plan, err := eng.ValidateMeasures(spec, f.dir)
	require.NoError(t, err)
	reg := f.registry()
	_, err = eng.Apply(context.Background(), reg, plan, domain.KindModel)
	require.NoError(t, err)

	after, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, before, after)

	want, err := filepath.EvalSymlinks(filepath.Join(f.dir, "measures", "spy", "run"))
	require.NoError(t, err)
	got, err := filepath.EvalSymlinks(reg.Attributes()["Spy"]["cwd"].(string))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestEngine_LifecycleHooks(t *testing.T) {
	f := newFixture(t)
	f.measure(t, "spy", "Spy", "ModelMeasure", "")
	f.reg.Register("Spy", &spyModel{})

	var started, finished []string
	hooks := domain.LifecycleHooks{
		OnStepStart: func(ctx context.Context, e *domain.StepEvent) {
			started = append(started, e.Measure)
		},
		OnStepFinish: func(ctx context.Context, e *domain.StepEvent) {
			finished = append(finished, e.Measure)
			assert.NoError(t, e.Err)
			assert.Equal(t, "run-1", e.RunID)
		},
	}

	spec := &domain.WorkflowSpec{Steps: []domain.Step{{MeasureDirName: "spy"}}}
	eng := f.engine(runtime.WithLifecycleHooks(hooks), runtime.WithRunID("run-1"))
	plan, err := eng.ValidateMeasures(spec, f.dir)
	require.NoError(t, err)
	reg := f.registry()
	_, err = eng.Apply(context.Background(), reg, plan, domain.KindModel)
	require.NoError(t, err)

	assert.Equal(t, []string{"Spy"}, started)
	assert.Equal(t, []string{"Spy"}, finished)
	assert.Len(t, reg.TimeLogger().Entries(), 1)
}
