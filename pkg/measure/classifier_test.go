package measure

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aretw0/studioflow/pkg/domain"
	"github.com/aretw0/studioflow/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const doublingScript = `package main

func Arguments() []map[string]interface{} {
	return []map[string]interface{}{
		{"name": "length", "type": "double", "required": true, "default": 5.0},
	}
}

func Run(in map[string]interface{}) (map[string]interface{}, error) {
	args := in["arguments"].(map[string]interface{})
	length := args["length"].(float64)
	return map[string]interface{}{
		"attributes": map[string]interface{}{"length": length * 2},
		"info":       []interface{}{"doubled"},
	}, nil
}
`

type nativeModel struct{}

func (nativeModel) Arguments() []ArgumentDefinition { return nil }
func (nativeModel) Run(ctx context.Context, m *model.Model, r *Runner, args ArgumentMap) error {
	r.RegisterValue("native", true)
	return nil
}

func writeMeasure(t *testing.T, dir, class, kind, script string) {
	t.Helper()
	writeFile(t, filepath.Join(dir, ManifestYAML), "class_name: "+class+"\nmeasure_type: "+kind+"\n")
	if script != "" {
		writeFile(t, filepath.Join(dir, ScriptFile), script)
	}
}

func TestClassifier_Script(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "double_length")
	writeMeasure(t, dir, "DoubleLength", "ModelMeasure", doublingScript)

	c := NewClassifier()
	l, err := c.Classify(dir)
	require.NoError(t, err)
	assert.Equal(t, domain.KindModel, l.Kind)
	assert.False(t, l.Native)

	mm, ok := l.Impl.(ModelMeasure)
	require.True(t, ok)

	args, err := BuildArguments("double_length", mm.Arguments(), []domain.Argument{{Name: "length", Value: 10}})
	require.NoError(t, err)

	r := NewRunner("DoubleLength", RunnerContext{})
	require.NoError(t, mm.Run(context.Background(), model.New(), r, args))
	res := r.Result()
	assert.Equal(t, 20.0, res.Attributes["length"])
	assert.Equal(t, []string{"doubled"}, res.Info)
}

func TestClassifier_NativeWins(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "native")
	writeMeasure(t, dir, "Native", "ModelMeasure", "")

	reg := NewRegistry()
	reg.Register("Native", nativeModel{})

	l, err := NewClassifier(WithProvider(reg)).Classify(dir)
	require.NoError(t, err)
	assert.True(t, l.Native)
	assert.Equal(t, []string{"Native"}, reg.ClassNames())
}

func TestClassifier_KindMismatch(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "native")
	writeMeasure(t, dir, "Native", "ReportingMeasure", "")

	reg := NewRegistry()
	reg.Register("Native", nativeModel{})

	_, err := NewClassifier(WithProvider(reg)).Classify(dir)
	assert.ErrorIs(t, err, domain.ErrMeasureInterface)
}

func TestClassifier_ScriptTypeMustMatchManifest(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "pinned")
	script := doublingScript + "\nfunc MeasureType() string { return \"ReportingMeasure\" }\n"
	writeMeasure(t, dir, "Pinned", "ModelMeasure", script)

	_, err := NewClassifier().Classify(dir)
	assert.ErrorIs(t, err, domain.ErrMeasureInterface)
}

func TestClassifier_LoadFailures(t *testing.T) {
	t.Run("missing script", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "empty")
		writeMeasure(t, dir, "Empty", "ModelMeasure", "")
		_, err := NewClassifier().Classify(dir)
		assert.Error(t, err)
	})

	t.Run("syntax error", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "broken")
		writeMeasure(t, dir, "Broken", "ModelMeasure", "package main\n\nfunc Run( {\n")
		_, err := NewClassifier().Classify(dir)
		assert.ErrorContains(t, err, "interpret")
	})

	t.Run("unrecognized type", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "odd")
		writeMeasure(t, dir, "Odd", "UtilityMeasure", doublingScript)
		_, err := NewClassifier().Classify(dir)
		assert.ErrorIs(t, err, domain.ErrUnrecognizedMeasure)
	})
}

func TestClassifier_Cache(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "double_length")
	writeMeasure(t, dir, "DoubleLength", "ModelMeasure", doublingScript)

	c := NewClassifier()
	first, err := c.Classify(dir)
	require.NoError(t, err)
	second, err := c.Classify(dir)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, c.Len())

	// A changed manifest invalidates the entry.
	writeFile(t, filepath.Join(dir, ManifestYAML), "class_name: DoubleLength\nmeasure_type: ModelMeasure\ndisplay_name: Double\n")
	third, err := c.Classify(dir)
	require.NoError(t, err)
	assert.NotSame(t, first, third)

	c.Forget(dir)
	assert.Equal(t, 0, c.Len())
}
