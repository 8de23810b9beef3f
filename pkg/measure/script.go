package measure

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"

	"github.com/aretw0/studioflow/pkg/domain"
	"github.com/aretw0/studioflow/pkg/model"
	"github.com/mitchellh/mapstructure"
	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
)

// ScriptFile is the implementation file evaluated for non-native measures.
const ScriptFile = "measure.go"

const (
	scriptArgumentsFunc = "Arguments"
	scriptRunFunc       = "Run"
	scriptTypeFunc      = "MeasureType"
)

// script is a measure implemented by a yaegi-evaluated measure.go. Each script
// owns its interpreter, so identical class names in different directories
// never collide.
type script struct {
	path string
	kind domain.MeasureKind

	mu      sync.Mutex
	argsFn  reflect.Value
	runFn   reflect.Value
	argDefs []ArgumentDefinition
}

type scriptOutput struct {
	Value            string         `mapstructure:"value"`
	Attributes       map[string]any `mapstructure:"attributes"`
	Info             []string       `mapstructure:"info"`
	Warnings         []string       `mapstructure:"warnings"`
	Errors           []string       `mapstructure:"errors"`
	NotApplicable    string         `mapstructure:"not_applicable"`
	InitialCondition string         `mapstructure:"initial_condition"`
	FinalCondition   string         `mapstructure:"final_condition"`
	WeatherFile      string         `mapstructure:"weather_file"`
	Model            map[string]any `mapstructure:"model"`
	Workspace        []model.Object `mapstructure:"workspace"`
}

// LoadScript evaluates dir/measure.go in a fresh interpreter and returns a
// measure satisfying the contract of kind.
func LoadScript(dir string, kind domain.MeasureKind) (Measure, error) {
	path := filepath.Join(dir, ScriptFile)
	code, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("measure: read %s: %w", path, err)
	}
	if len(strings.TrimSpace(string(code))) == 0 {
		return nil, fmt.Errorf("measure: %s is empty", path)
	}

	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("measure: load stdlib symbols: %w", err)
	}
	if _, err := i.EvalPath(path); err != nil {
		return nil, fmt.Errorf("measure: interpret %s: %w", path, err)
	}

	argsFn, err := i.Eval(scriptArgumentsFunc)
	if err != nil {
		return nil, fmt.Errorf("measure: %s must define %s() []map[string]any: %w", path, scriptArgumentsFunc, err)
	}
	runFn, err := i.Eval(scriptRunFunc)
	if err != nil {
		return nil, fmt.Errorf("measure: %s must define %s(map[string]any) (map[string]any, error): %w", path, scriptRunFunc, err)
	}
	if argsFn.Kind() != reflect.Func || runFn.Kind() != reflect.Func {
		return nil, fmt.Errorf("measure: %s: %s and %s must be functions", path, scriptArgumentsFunc, scriptRunFunc)
	}

	// A script may pin its own type; it must then agree with the manifest.
	if typeFn, err := i.Eval(scriptTypeFunc); err == nil && typeFn.Kind() == reflect.Func {
		out := typeFn.Call(nil)
		if len(out) == 1 {
			declared, err := domain.ParseMeasureKind(fmt.Sprint(out[0].Interface()))
			if err != nil {
				return nil, fmt.Errorf("measure: %s: %w", path, err)
			}
			if declared != kind {
				return nil, fmt.Errorf("measure: %s: %w: script is %s, manifest declares %s",
					path, domain.ErrMeasureInterface, declared, kind)
			}
		}
	}

	s := &script{path: path, kind: kind, argsFn: argsFn, runFn: runFn}
	defs, err := s.loadArguments()
	if err != nil {
		return nil, err
	}
	s.argDefs = defs

	switch kind {
	case domain.KindModel:
		return &scriptModel{s}, nil
	case domain.KindWorkspace:
		return &scriptWorkspace{s}, nil
	case domain.KindReporting:
		return &scriptReporting{s}, nil
	}
	return nil, fmt.Errorf("measure: %s: %w: %q", path, domain.ErrUnrecognizedMeasure, kind)
}

func (s *script) Arguments() []ArgumentDefinition {
	return append([]ArgumentDefinition(nil), s.argDefs...)
}

func (s *script) loadArguments() ([]ArgumentDefinition, error) {
	results := s.argsFn.Call(nil)
	if len(results) != 1 {
		return nil, fmt.Errorf("measure: %s: %s must return []map[string]any", s.path, scriptArgumentsFunc)
	}
	raw, err := toMapSlice(results[0])
	if err != nil {
		return nil, fmt.Errorf("measure: %s: %s: %w", s.path, scriptArgumentsFunc, err)
	}
	defs := make([]ArgumentDefinition, 0, len(raw))
	for idx, r := range raw {
		var def ArgumentDefinition
		if err := mapstructure.WeakDecode(r, &def); err != nil {
			return nil, fmt.Errorf("measure: %s argument[%d]: %w", s.path, idx, err)
		}
		if def.Name == "" {
			return nil, fmt.Errorf("measure: %s argument[%d]: missing name", s.path, idx)
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// call runs the script's Run function and folds its output into runner.
func (s *script) call(ctx context.Context, input map[string]any, runner *Runner) (*scriptOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	results := s.runFn.Call([]reflect.Value{reflect.ValueOf(input)})
	s.mu.Unlock()

	if len(results) != 2 {
		return nil, fmt.Errorf("measure: %s: %s must return (map[string]any, error)", s.path, scriptRunFunc)
	}
	if errVal := results[1]; errVal.IsValid() && !errVal.IsNil() {
		if e, ok := errVal.Interface().(error); ok && e != nil {
			return nil, e
		}
		return nil, fmt.Errorf("measure: %s: %s returned non-error second value", s.path, scriptRunFunc)
	}

	var out scriptOutput
	if outVal := results[0]; outVal.IsValid() && !outVal.IsNil() {
		raw, ok := outVal.Interface().(map[string]any)
		if !ok {
			return nil, fmt.Errorf("measure: %s: %s must return map[string]any", s.path, scriptRunFunc)
		}
		if err := mapstructure.WeakDecode(raw, &out); err != nil {
			return nil, fmt.Errorf("measure: %s: decode result: %w", s.path, err)
		}
	}

	for _, m := range out.Info {
		runner.RegisterInfo(m)
	}
	for _, m := range out.Warnings {
		runner.RegisterWarning(m)
	}
	for _, m := range out.Errors {
		runner.RegisterError(m)
	}
	for k, v := range out.Attributes {
		runner.RegisterValue(k, v)
	}
	if out.InitialCondition != "" {
		runner.RegisterInitialCondition(out.InitialCondition)
	}
	if out.FinalCondition != "" {
		runner.RegisterFinalCondition(out.FinalCondition)
	}
	if out.NotApplicable != "" || domain.ResultValue(out.Value) == domain.ResultNA {
		runner.RegisterAsNotApplicable(out.NotApplicable)
	}
	if domain.ResultValue(out.Value) == domain.ResultFail && len(out.Errors) == 0 {
		runner.RegisterError(fmt.Sprintf("measure %s reported failure", filepath.Base(filepath.Dir(s.path))))
	}
	if out.WeatherFile != "" {
		runner.SetWeatherFile(out.WeatherFile)
	}
	return &out, nil
}

func (s *script) baseInput(runner *Runner, args ArgumentMap) map[string]any {
	in := map[string]any{
		"kind":         string(s.kind),
		"arguments":    map[string]any(args),
		"work_dir":     runner.WorkDir(),
		"run_dir":      runner.RunDir(),
		"weather_file": runner.WeatherFile(),
		"sql_file":     runner.SQLFile(),
	}
	past := make(map[string]any)
	for k, v := range runner.PastResults() {
		past[k] = v
	}
	in["past_results"] = past
	if lm := runner.LastModel(); lm != nil {
		in["last_model"] = lm.Data
	}
	return in
}

type scriptModel struct{ *script }

func (s *scriptModel) Run(ctx context.Context, m *model.Model, runner *Runner, args ArgumentMap) error {
	in := s.baseInput(runner, args)
	in["model"] = m.Data
	out, err := s.call(ctx, in, runner)
	if err != nil {
		return err
	}
	if out.Model != nil {
		runner.ReplaceModel(&model.Model{Path: m.Path, Data: out.Model})
	}
	return nil
}

type scriptWorkspace struct{ *script }

func (s *scriptWorkspace) Run(ctx context.Context, ws *model.Workspace, runner *Runner, args ArgumentMap) error {
	in := s.baseInput(runner, args)
	in["workspace"] = encodeObjects(ws.Objects)
	out, err := s.call(ctx, in, runner)
	if err != nil {
		return err
	}
	if out.Workspace != nil {
		runner.ReplaceWorkspace(&model.Workspace{Objects: out.Workspace})
		return nil
	}
	var objects []model.Object
	if err := mapstructure.WeakDecode(in["workspace"], &objects); err != nil {
		return fmt.Errorf("measure: %s: decode workspace: %w", s.path, err)
	}
	ws.Objects = objects
	return nil
}

type scriptReporting struct{ *script }

func (s *scriptReporting) Run(ctx context.Context, runner *Runner, args ArgumentMap) error {
	in := s.baseInput(runner, args)
	if lw := runner.LastWorkspace(); lw != nil {
		in["last_workspace"] = encodeObjects(lw.Objects)
	}
	_, err := s.call(ctx, in, runner)
	return err
}

func encodeObjects(objects []model.Object) []any {
	out := make([]any, 0, len(objects))
	for _, o := range objects {
		fields := make([]any, len(o.Fields))
		for i, f := range o.Fields {
			fields[i] = f
		}
		out = append(out, map[string]any{"type": o.Type, "fields": fields})
	}
	return out
}

func toMapSlice(v reflect.Value) ([]map[string]any, error) {
	if !v.IsValid() {
		return nil, nil
	}
	if direct, ok := v.Interface().([]map[string]any); ok {
		return direct, nil
	}
	if v.Kind() != reflect.Slice {
		return nil, fmt.Errorf("expected []map[string]any, got %s", v.Type())
	}
	out := make([]map[string]any, v.Len())
	for i := 0; i < v.Len(); i++ {
		m, ok := v.Index(i).Interface().(map[string]any)
		if !ok {
			return nil, fmt.Errorf("entry %d is not map[string]any", i)
		}
		out[i] = m
	}
	return out, nil
}
