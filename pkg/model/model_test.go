package model

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModel_WeatherFile(t *testing.T) {
	m := New()
	_, ok := m.WeatherFile()
	assert.False(t, ok)

	m.SetWeatherFile("USA_CO_Golden.epw")
	got, ok := m.WeatherFile()
	assert.True(t, ok)
	assert.Equal(t, "USA_CO_Golden.epw", got)

	m.Data["weather_file"] = "plain.epw"
	got, _ = m.WeatherFile()
	assert.Equal(t, "plain.epw", got)
}

func TestModel_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.osm")
	m := New()
	m.Data["name"] = "office"
	require.NoError(t, m.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "office", loaded.Data["name"])
	assert.Equal(t, path, loaded.Path)
}

func TestForwardTranslator(t *testing.T) {
	m := New()
	m.Data["objects"] = []any{
		map[string]any{"type": "Building", "fields": []any{"Office", "0"}},
	}
	ws, err := ForwardTranslator{}.Translate(m)
	require.NoError(t, err)
	require.Len(t, ws.Objects, 2)
	assert.Equal(t, "Version", ws.Objects[0].Type)
	assert.Equal(t, []string{"Office", "0"}, ws.Objects[1].Fields)

	m.Data["objects"] = []any{map[string]any{"fields": []any{"x"}}}
	_, err = ForwardTranslator{}.Translate(m)
	assert.Error(t, err)
}

func TestWorkspace_IDFRoundTrip(t *testing.T) {
	ws := &Workspace{}
	ws.Add(Object{Type: "Version", Fields: []string{"24.1"}})
	ws.Add(Object{Type: "Building", Fields: []string{"Office", "0", "City"}})

	var buf bytes.Buffer
	require.NoError(t, ws.WriteIDF(&buf))
	assert.Contains(t, buf.String(), "Building,\n  Office,\n  0,\n  City;\n")

	parsed, err := ParseIDF(strings.NewReader("! header\n" + buf.String()))
	require.NoError(t, err)
	assert.Equal(t, ws.Objects, parsed.Objects)
	assert.Len(t, parsed.ObjectsOfType("building"), 1)
}
