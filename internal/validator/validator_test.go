package validator

import (
	"context"
	"strings"
	"testing"

	"github.com/aretw0/studioflow/internal/testutils"
	"github.com/aretw0/studioflow/pkg/domain"
	"github.com/aretw0/studioflow/pkg/measure"
	"github.com/aretw0/studioflow/pkg/model"
)

type stubModel struct{}

func (stubModel) Arguments() []measure.ArgumentDefinition {
	return []measure.ArgumentDefinition{{Name: "length", Type: measure.ArgDouble, Default: 1}}
}

func (stubModel) Run(context.Context, *model.Model, *measure.Runner, measure.ArgumentMap) error {
	return nil
}

type stubReport struct{}

func (stubReport) Arguments() []measure.ArgumentDefinition { return nil }

func (stubReport) Run(context.Context, *measure.Runner, measure.ArgumentMap) error { return nil }

func TestValidateWorkflow(t *testing.T) {
	dir := t.TempDir()
	testutils.WriteMeasure(t, dir, "overhangs", "Overhangs", "ModelMeasure", "")
	testutils.WriteMeasure(t, dir, "report", "Report", "ReportingMeasure", "")

	reg := measure.NewRegistry()
	reg.Register("Overhangs", stubModel{})
	reg.Register("Report", stubReport{})
	classifier := measure.NewClassifier(measure.WithProvider(reg))

	// Scenario A: valid workflow
	valid := &domain.WorkflowSpec{Steps: []domain.Step{
		{MeasureDirName: "overhangs", Arguments: []domain.Argument{{Name: "length", Value: 2}}},
		{MeasureDirName: "report"},
	}}
	if err := ValidateWorkflow(valid, dir, classifier).Err(); err != nil {
		t.Errorf("Scenario A (Valid) failed: %v", err)
	}

	// Scenario B: every problem is reported, not only the first
	broken := &domain.WorkflowSpec{Steps: []domain.Step{
		{MeasureDirName: "ghost"},
		{MeasureDirName: "report"},
		{MeasureDirName: "overhangs", Arguments: []domain.Argument{{Name: "width", Value: 1}}},
	}}
	report := ValidateWorkflow(broken, dir, classifier)
	if len(report.Issues) != 3 {
		t.Fatalf("Scenario B (Broken) expected 3 issues, got %d: %v", len(report.Issues), report.Issues)
	}
	if report.Issues[0].Step != 0 || !strings.Contains(report.Issues[0].Message, "could not find measure") {
		t.Errorf("Expected missing measure issue, got: %v", report.Issues[0])
	}
	if !strings.Contains(report.Issues[1].Message, domain.ErrPhaseOrder.Error()) {
		t.Errorf("Expected phase order issue, got: %v", report.Issues[1])
	}
	if !strings.Contains(report.Issues[2].Message, "could not find argument 'width'") {
		t.Errorf("Expected unknown argument issue, got: %v", report.Issues[2])
	}

	err := report.Err()
	if kind, ok := domain.KindOf(err); !ok || kind != domain.ValidationError {
		t.Errorf("Expected a validation error, got: %v", err)
	}
	if !strings.Contains(err.Error(), "found 3 errors") {
		t.Errorf("Expected error count in message, got: %v", err)
	}
}

func TestValidateWorkflow_MissingFiles(t *testing.T) {
	dir := t.TempDir()
	spec := &domain.WorkflowSpec{SeedFile: "seed.osm"}
	report := ValidateWorkflow(spec, dir, nil)
	if len(report.Issues) != 2 {
		t.Fatalf("Expected seed and empty-steps issues, got: %v", report.Issues)
	}
	if report.Issues[0].Step != -1 || !strings.Contains(report.Issues[0].String(), domain.ErrSeedModelMissing.Error()) {
		t.Errorf("Expected seed model issue, got: %v", report.Issues[0])
	}
}
