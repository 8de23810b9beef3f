package postprocess

import (
	"context"
	"database/sql"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aretw0/studioflow/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestParseTabular_SiteEnergy(t *testing.T) {
	got, err := ParseTabular(strings.NewReader("Total Site Energy (GJ)\n123.4\n"))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"total_site_energy":              123.4,
		"total_site_energy_units":        "GJ",
		"total_site_energy_display_name": "Total Site Energy",
	}, got)
}

func TestParseTabular_BlankAndText(t *testing.T) {
	got, err := ParseTabular(strings.NewReader("Net Site Energy (GJ),Weather File,Area\n,Chicago,\n"))
	require.NoError(t, err)
	assert.Nil(t, got["net_site_energy"])
	assert.Equal(t, "Chicago", got["weather_file"])
	assert.Equal(t, "", got["area_units"])
}

func TestParseTabular_NonFinite(t *testing.T) {
	got, err := ParseTabular(strings.NewReader("Total Site Energy (GJ),Peak (W),Low (W),Note\nNaN,Inf,-infinity,x\n"))
	require.NoError(t, err)
	assert.Contains(t, got, "total_site_energy")
	assert.Nil(t, got["total_site_energy"])
	assert.Nil(t, got["peak"])
	assert.Nil(t, got["low"])
	assert.Equal(t, "x", got["note"])
}

func TestExtractResults_NonFiniteCell(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, TabularFile), "Total Site Energy (GJ),Note\nNaN,x\n")

	res, err := NewExtractor().ExtractResults(context.Background(), dir, nil)
	require.NoError(t, err)
	legacy := res.Values[LegacyKey].(map[string]any)
	assert.Nil(t, legacy["total_site_energy"])
	assert.FileExists(t, filepath.Join(dir, domain.ResultsFile))
}

func TestTabularToJSON_WritesLegacyReport(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, TabularFile), "Total Site Energy (GJ)\n123.4\n")

	table, err := TabularToJSON(dir)
	require.NoError(t, err)
	assert.Equal(t, 123.4, table["total_site_energy"])
	assert.FileExists(t, filepath.Join(dir, domain.LegacyReportFile))
}

func TestExtractResults_MergePrecedence(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, domain.MeasureAttributesXMLFile), `{"shared": {"from": "xml"}, "xml_only": {"a": 1}}`)
	writeFile(t, filepath.Join(dir, domain.MeasureAttributesFile), `{"shared": {"from": "attributes"}, "Add Overhangs!": {"length": 20}}`)
	writeFile(t, filepath.Join(dir, domain.ReportAttributesFile), `{"shared": {"from": "report"}}`)
	writeFile(t, filepath.Join(dir, TabularFile), "Total Site Energy (GJ)\n123.4\n")

	res, err := NewExtractor().ExtractResults(context.Background(), dir, nil)
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"from": "report"}, res.Values["shared"])
	assert.Contains(t, res.Values, "xml_only")
	assert.Contains(t, res.Values, "Add Overhangs")
	legacy := res.Values[LegacyKey].(map[string]any)
	assert.Equal(t, 123.4, legacy["total_site_energy"])

	raw, err := os.ReadFile(filepath.Join(dir, domain.ResultsFile))
	require.NoError(t, err)
	var onDisk map[string]any
	require.NoError(t, json.Unmarshal(raw, &onDisk))
	assert.Equal(t, map[string]any{"from": "report"}, onDisk["shared"])
}

func TestExtractResults_NoFiles(t *testing.T) {
	res, err := NewExtractor().ExtractResults(context.Background(), t.TempDir(), nil)
	require.NoError(t, err)
	assert.Empty(t, res.Values)
	assert.Empty(t, res.ObjectiveFunctions)
}

func TestExtractResults_MalformedAttributes(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, domain.MeasureAttributesFile), `{not json`)
	_, err := NewExtractor().ExtractResults(context.Background(), dir, nil)
	kind, ok := domain.KindOf(err)
	assert.True(t, ok)
	assert.Equal(t, domain.IOError, kind)
}

func TestObjectiveFunctions(t *testing.T) {
	target := 100.0
	scale := 2.0
	second := 1
	values := map[string]any{
		"energy": map[string]any{"eui": nil, "total": 42.0},
	}
	outputs := []OutputVariable{
		{Name: "energy.eui", ObjectiveFunction: true, Target: &target},
		{Name: "energy.total", ObjectiveFunction: true, Index: &second, Target: &target, ScalingFactor: &scale, Group: 1},
		{Name: "energy.ignored"},
		{Name: "missing.path", ObjectiveFunction: true},
	}

	got := NewExtractor().ObjectiveFunctions(values, outputs)

	assert.Equal(t, math.MaxFloat64, got["objective_function_1"])
	assert.Nil(t, got["objective_function_target_1"])
	assert.Contains(t, got, "objective_function_target_1")
	assert.Nil(t, got["scaling_factor_1"])
	assert.Nil(t, got["objective_function_group_1"])

	assert.Equal(t, 42.0, got["objective_function_2"])
	assert.Equal(t, 100.0, got["objective_function_target_2"])
	assert.Equal(t, 2.0, got["scaling_factor_2"])
	assert.Equal(t, 1, got["objective_function_group_2"])

	assert.Equal(t, math.MaxFloat64, got["objective_function_3"])
}

func TestReadSQLSummary(t *testing.T) {
	path := filepath.Join(t.TempDir(), domain.SQLOutputFile)
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE TabularDataWithStrings (
		ReportName TEXT, ReportForString TEXT, TableName TEXT,
		RowName TEXT, ColumnName TEXT, Units TEXT, Value TEXT)`)
	require.NoError(t, err)
	insert := `INSERT INTO TabularDataWithStrings VALUES
		('AnnualBuildingUtilityPerformanceSummary', 'Entire Facility', 'Site and Source Energy', ?, ?, ?, ?)`
	_, err = db.Exec(insert, "Total Site Energy", "Total Energy", "GJ", "  123.40")
	require.NoError(t, err)
	_, err = db.Exec(insert, "Total Site Energy", "Energy Per Total Building Area", "MJ/m2", "512.7")
	require.NoError(t, err)
	_, err = db.Exec(insert, "Total Source Energy", "Total Energy", "GJ", "NaN")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	summary, err := ReadSQLSummary(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 123.4, summary["total_site_energy"])
	assert.Equal(t, "GJ", summary["total_site_energy_units"])
	assert.Equal(t, 512.7, summary["total_site_eui"])
	assert.NotContains(t, summary, "net_site_energy")
	assert.Contains(t, summary, "total_source_energy")
	assert.Nil(t, summary["total_source_energy"])

	// The summary is nested into results when the file sits in the run dir.
	res, err := NewExtractor().ExtractResults(context.Background(), filepath.Dir(path), nil)
	require.NoError(t, err)
	assert.Equal(t, 123.4, res.Values[SQLKey].(map[string]any)["total_site_energy"])
}
