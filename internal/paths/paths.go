// Package paths resolves the directory, root directory and run directory of a
// workflow. Resolution is pure: the working directory is captured once in the
// Resolver instead of being read from the process on every call.
package paths

import (
	"fmt"
	"path/filepath"

	"github.com/aretw0/studioflow/pkg/domain"
)

// Resolver resolves workflow paths against a fixed working directory.
type Resolver struct {
	WorkingDir string
}

// New returns a Resolver bound to workingDir, which must be absolute.
func New(workingDir string) (*Resolver, error) {
	if !filepath.IsAbs(workingDir) {
		return nil, fmt.Errorf("paths: working directory %q is not absolute", workingDir)
	}
	return &Resolver{WorkingDir: filepath.Clean(workingDir)}, nil
}

// ResolveDirectory returns userDir unchanged when absolute, otherwise joined with
// the working directory.
func (r *Resolver) ResolveDirectory(userDir string) string {
	if filepath.IsAbs(userDir) {
		return filepath.Clean(userDir)
	}
	return filepath.Join(r.WorkingDir, userDir)
}

// ResolveRootDir returns the workflow's root directory, or directory when none is declared.
func (r *Resolver) ResolveRootDir(spec *domain.WorkflowSpec, directory string) string {
	if spec != nil && spec.RootDir != "" {
		return r.ResolveDirectory(spec.RootDir)
	}
	return r.ResolveDirectory(directory)
}

// ResolveRunDir applies the run-directory precedence:
//  1. absolute run_directory + "run"
//  2. relative run_directory under a declared root + "run"
//  3. working dir + relative run_directory + "run"
//  4. directory + "run"
func (r *Resolver) ResolveRunDir(spec *domain.WorkflowSpec, directory string) string {
	if spec == nil || spec.RunDirectory == "" {
		return filepath.Join(r.ResolveDirectory(directory), domain.RunDirName)
	}
	if filepath.IsAbs(spec.RunDirectory) {
		return filepath.Join(spec.RunDirectory, domain.RunDirName)
	}
	if spec.RootDir != "" {
		return filepath.Join(r.ResolveRootDir(spec, directory), spec.RunDirectory, domain.RunDirName)
	}
	return filepath.Join(r.WorkingDir, spec.RunDirectory, domain.RunDirName)
}
