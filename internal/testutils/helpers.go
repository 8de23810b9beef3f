// Package testutils holds fixtures shared by package tests.
package testutils

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

// WriteMeasure creates root/measures/dirName with a measure.yaml manifest and,
// when script is not empty, a measure.go implementation. It returns the
// measure directory.
func WriteMeasure(t *testing.T, root, dirName, className, kind, script string) string {
	t.Helper()
	dir := filepath.Join(root, "measures", dirName)
	require.NoError(t, os.MkdirAll(dir, 0o755), "Failed to create measure directory")

	manifest := "class_name: " + className + "\nmeasure_type: " + kind + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "measure.yaml"), []byte(manifest), 0o644))
	if script != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "measure.go"), []byte(script), 0o644))
	}
	return dir
}

// WriteFile writes body to root/name, creating parent directories.
func WriteFile(t *testing.T, root, name, body string) string {
	t.Helper()
	path := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

// FakeEnergyPlus writes an installation whose ExpandObjects and energyplus
// executables are shell scripts with the given bodies. Tests using it are
// skipped on Windows.
func FakeEnergyPlus(t *testing.T, expandBody, solverBody string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake EnergyPlus binaries are shell scripts")
	}
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "energyplus"), []byte("#!/bin/sh\n"+solverBody), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ExpandObjects"), []byte("#!/bin/sh\n"+expandBody), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Energy+.idd"), []byte("! idd"), 0o644))
	return dir
}
