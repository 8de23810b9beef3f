package resolve

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/studioflow/pkg/domain"
	"github.com/aretw0/studioflow/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestFindFile_SearchOrder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "files", "a.epw"), "first")
	writeFile(t, filepath.Join(dir, "weather", "a.epw"), "second")

	path, ok := FindFile(dir, "a.epw", []string{"./files", "./weather"})
	assert.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "files", "a.epw"), path)

	path, ok = FindFile(dir, "a.epw", []string{"./weather", "./files"})
	assert.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "weather", "a.epw"), path)

	_, ok = FindFile(dir, "missing.epw", []string{"./files"})
	assert.False(t, ok)
}

func TestWeatherFile_Declared(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "weather", "golden.epw"), "epw")

	res, err := WeatherFile(dir, "golden.epw", []string{"./weather"}, model.New())
	require.NoError(t, err)
	assert.Equal(t, WeatherFound, res.Status)
	assert.Equal(t, filepath.Join(dir, "weather", "golden.epw"), res.Path)

	abs := filepath.Join(dir, "weather", "golden.epw")
	res, err = WeatherFile(dir, abs, nil, model.New())
	require.NoError(t, err)
	assert.Equal(t, abs, res.Path)
}

func TestWeatherFile_DeclaredMissingFails(t *testing.T) {
	dir := t.TempDir()
	_, err := WeatherFile(dir, "nowhere.epw", []string{"./weather", "./files"}, model.New())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrWeatherFileMissing)
	assert.Contains(t, err.Error(), "could not locate the weather file")

	kind, _ := domain.KindOf(err)
	assert.Equal(t, domain.ValidationError, kind)
}

func TestWeatherFile_NotDeclared(t *testing.T) {
	dir := t.TempDir()

	res, err := WeatherFile(dir, "", []string{"./weather"}, model.New())
	require.NoError(t, err)
	assert.Equal(t, WeatherAbsent, res.Status)
	assert.Empty(t, res.Path)

	m := model.New()
	m.SetWeatherFile("gone.epw")
	res, err = WeatherFile(dir, "", []string{"./weather"}, m)
	require.NoError(t, err)
	assert.Equal(t, WeatherUnresolvable, res.Status)
	assert.Equal(t, "gone.epw", res.Reference)

	writeFile(t, filepath.Join(dir, "weather", "gone.epw"), "epw")
	res, err = WeatherFile(dir, "", []string{"./weather"}, m)
	require.NoError(t, err)
	assert.Equal(t, WeatherFound, res.Status)
}

func TestSeedModel(t *testing.T) {
	dir := t.TempDir()

	m, err := SeedModel(dir, "", []string{"./files"})
	require.NoError(t, err)
	assert.NotNil(t, m.Data)

	_, err = SeedModel(dir, "seed.osm", []string{"./files"})
	assert.ErrorIs(t, err, domain.ErrSeedModelMissing)

	writeFile(t, filepath.Join(dir, "files", "seed.osm"), `{"name":"office"}`)
	m, err = SeedModel(dir, "seed.osm", []string{"./files"})
	require.NoError(t, err)
	assert.Equal(t, "office", m.Data["name"])
}
