// Package validator checks a whole workflow document and reports every
// problem at once, unlike the engine, which stops at the first one.
package validator

import (
	"fmt"
	"strings"

	"github.com/aretw0/studioflow/internal/resolve"
	"github.com/aretw0/studioflow/pkg/domain"
	"github.com/aretw0/studioflow/pkg/measure"
)

// Issue is one problem found in a workflow.
type Issue struct {
	// Step is the step index, or -1 for document-level issues.
	Step    int
	Measure string
	Message string
}

func (i Issue) String() string {
	if i.Step < 0 {
		return i.Message
	}
	return fmt.Sprintf("step %d (%s): %s", i.Step, i.Measure, i.Message)
}

// Report collects the issues of one workflow.
type Report struct {
	Issues []Issue
}

// Err returns nil when the report is clean.
func (r *Report) Err() error {
	if len(r.Issues) == 0 {
		return nil
	}
	lines := make([]string, len(r.Issues))
	for i, issue := range r.Issues {
		lines[i] = issue.String()
	}
	return domain.NewError(domain.ValidationError, "",
		fmt.Errorf("found %d errors:\n- %s", len(r.Issues), strings.Join(lines, "\n- ")))
}

func (r *Report) add(step int, name, format string, args ...any) {
	r.Issues = append(r.Issues, Issue{Step: step, Measure: name, Message: fmt.Sprintf(format, args...)})
}

// ValidateWorkflow checks the seed model, the weather file, every measure
// directory and manifest, the phase order and the argument names. rootDir is
// the directory search paths are relative to.
func ValidateWorkflow(spec *domain.WorkflowSpec, rootDir string, classifier *measure.Classifier) *Report {
	if classifier == nil {
		classifier = measure.NewClassifier()
	}
	report := &Report{}

	filePaths := spec.FileSearchPaths()
	seed, err := resolve.SeedModel(rootDir, spec.SeedFile, filePaths)
	if err != nil {
		report.add(-1, "", "%v", err)
	} else if _, err := resolve.WeatherFile(rootDir, spec.WeatherFile, filePaths, seed); err != nil {
		report.add(-1, "", "%v", err)
	}

	if len(spec.Steps) == 0 {
		report.add(-1, "", "workflow has no steps")
	}

	searchPaths := spec.MeasureSearchPaths()
	phase := domain.PhaseOpenStudio
	for i, step := range spec.Steps {
		dir, ok := measure.FindDir(rootDir, step.MeasureDirName, searchPaths)
		if !ok {
			report.add(i, step.MeasureDirName, "%v in %v", domain.ErrMeasureNotFound, searchPaths)
			continue
		}
		loaded, err := classifier.Classify(dir)
		if err != nil {
			report.add(i, step.MeasureDirName, "%v", err)
			continue
		}

		name := loaded.Manifest.ClassName
		if p := loaded.Kind.Phase(); p < phase {
			report.add(i, name, "%v: %s measure found in %s", domain.ErrPhaseOrder, loaded.Kind, phase)
		} else {
			phase = p
		}

		if _, err := measure.BuildArguments(step.MeasureDirName, loaded.Impl.Arguments(), step.Arguments); err != nil {
			report.add(i, name, "%v", err)
		}
	}
	return report
}
