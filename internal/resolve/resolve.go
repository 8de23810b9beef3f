// Package resolve locates the weather file and seed model of a workflow by
// scanning absolute paths, the workflow's file search paths and the loaded model.
package resolve

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/aretw0/studioflow/pkg/domain"
	"github.com/aretw0/studioflow/pkg/model"
)

// FindFile returns the first existing file named name. An absolute name is checked
// directly; otherwise each search path (joined with directory when relative) is
// scanned in order for the base name.
func FindFile(directory, name string, searchPaths []string) (string, bool) {
	if name == "" {
		return "", false
	}
	if filepath.IsAbs(name) {
		if isFile(name) {
			return name, true
		}
		return "", false
	}
	for _, sp := range searchPaths {
		base := sp
		if !filepath.IsAbs(base) {
			base = filepath.Join(directory, sp)
		}
		for _, candidate := range []string{filepath.Join(base, name), filepath.Join(base, filepath.Base(name))} {
			if isFile(candidate) {
				return filepath.Clean(candidate), true
			}
		}
	}
	return "", false
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// WeatherStatus distinguishes "not specified" from "specified but broken".
type WeatherStatus int

const (
	// WeatherAbsent means neither the workflow nor the model names a weather file.
	WeatherAbsent WeatherStatus = iota
	// WeatherFound means Path points at an existing file.
	WeatherFound
	// WeatherUnresolvable means the model references a file that does not exist.
	WeatherUnresolvable
)

func (s WeatherStatus) String() string {
	switch s {
	case WeatherFound:
		return "found"
	case WeatherUnresolvable:
		return "unresolvable"
	default:
		return "absent"
	}
}

// WeatherResult is the outcome of weather file resolution.
type WeatherResult struct {
	Status WeatherStatus
	Path   string
	// Reference is the unresolved name that was looked up.
	Reference string
}

// WeatherFile resolves the weather file. A declared name that cannot be found is a
// validation error; an undeclared one falls back to the model's reference.
func WeatherFile(directory, declared string, searchPaths []string, m *model.Model) (WeatherResult, error) {
	if declared != "" {
		path, ok := FindFile(directory, declared, searchPaths)
		if !ok {
			return WeatherResult{Reference: declared}, domain.NewError(domain.ValidationError, declared,
				fmt.Errorf("%w %q", domain.ErrWeatherFileMissing, declared))
		}
		return WeatherResult{Status: WeatherFound, Path: path, Reference: declared}, nil
	}

	ref, ok := m.WeatherFile()
	if !ok {
		return WeatherResult{Status: WeatherAbsent}, nil
	}
	if path, found := FindFile(directory, ref, searchPaths); found {
		return WeatherResult{Status: WeatherFound, Path: path, Reference: ref}, nil
	}
	return WeatherResult{Status: WeatherUnresolvable, Reference: ref}, nil
}

// SeedModel loads the declared seed model, or returns a new empty model when none
// is declared.
func SeedModel(directory, declared string, searchPaths []string) (*model.Model, error) {
	if declared == "" {
		return model.New(), nil
	}
	path, ok := FindFile(directory, declared, searchPaths)
	if !ok {
		return nil, domain.NewError(domain.ValidationError, declared,
			fmt.Errorf("%w %q", domain.ErrSeedModelMissing, declared))
	}
	m, err := model.Load(path)
	if err != nil {
		return nil, domain.NewError(domain.IOError, path, err)
	}
	return m, nil
}
