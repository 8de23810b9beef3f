package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/studioflow/internal/presentation/graph"
	"github.com/aretw0/studioflow/internal/runtime"
	"github.com/aretw0/studioflow/pkg/domain"
	"github.com/aretw0/studioflow/pkg/measure"
)

func planned(index int, dirName, name string, kind domain.MeasureKind) runtime.PlannedStep {
	return runtime.PlannedStep{
		Index:   index,
		Step:    domain.Step{MeasureDirName: dirName, Name: name},
		Measure: &measure.Loaded{Kind: kind, Manifest: &measure.Manifest{ClassName: dirName}},
	}
}

func TestGenerateMermaid(t *testing.T) {
	tests := []struct {
		name     string
		steps    []runtime.PlannedStep
		overlay  *graph.Overlay
		contains []string
		excludes []string
	}{
		{
			name: "Phases In Order",
			steps: []runtime.PlannedStep{
				planned(0, "add_overhangs", "", domain.KindModel),
				planned(1, "set_schedule", "", domain.KindWorkspace),
				planned(2, "report", "", domain.KindReporting),
			},
			contains: []string{
				"seed((\"seed model\"))",
				"subgraph OpenStudioPhase",
				"subgraph EnergyPlusPhase",
				"subgraph ReportingPhase",
				"seed --> step_0",
				"step_0 --> translate",
				"translate --> step_1",
				"step_1 --> simulate",
				"simulate --> step_2",
				"step_2 --> results",
			},
		},
		{
			name:  "Empty Phases Are Skipped",
			steps: []runtime.PlannedStep{planned(0, "report", "", domain.KindReporting)},
			contains: []string{
				"seed --> translate",
				"translate --> simulate",
				"simulate --> step_0",
			},
			excludes: []string{"subgraph OpenStudioPhase"},
		},
		{
			name:     "Label Escaping",
			steps:    []runtime.PlannedStep{planned(0, "m", `the "big" one`, domain.KindModel)},
			contains: []string{`step_0["0: the 'big' one"]`},
		},
		{
			name: "Overlay",
			steps: []runtime.PlannedStep{
				planned(0, "a", "", domain.KindModel),
				planned(1, "b", "", domain.KindModel),
			},
			overlay: &graph.Overlay{Completed: []int{0, 0}, Failed: 1, HasFailed: true},
			contains: []string{
				"class step_0 completed;",
				"class step_1 failed;",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := graph.GenerateMermaid(tt.steps, tt.overlay)
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("GenerateMermaid() = \n%v\nWant substring: %v", got, want)
				}
			}
			for _, unwanted := range tt.excludes {
				if strings.Contains(got, unwanted) {
					t.Errorf("GenerateMermaid() = \n%v\nUnwanted substring: %v", got, unwanted)
				}
			}
			if strings.Count(got, "class step_0 completed;") > 1 {
				t.Errorf("GenerateMermaid() styled a step twice:\n%v", got)
			}
		})
	}
}

func TestOverlayFromRecord(t *testing.T) {
	rec := &domain.RunRecord{
		Status: domain.RunFailed,
		Steps: []domain.StepRecord{
			{Index: 0},
			{Index: 1, Errors: []string{"boom"}},
		},
	}
	o := graph.OverlayFromRecord(rec)
	if len(o.Completed) != 1 || o.Completed[0] != 0 {
		t.Errorf("Completed = %v, want [0]", o.Completed)
	}
	if !o.HasFailed || o.Failed != 1 {
		t.Errorf("Failed = %d (%v), want 1", o.Failed, o.HasFailed)
	}

	// A failure without reported errors is pinned on the last step.
	rec.Steps[1].Errors = nil
	o = graph.OverlayFromRecord(rec)
	if !o.HasFailed || o.Failed != 1 || len(o.Completed) != 1 {
		t.Errorf("unexpected overlay %+v", o)
	}

	if graph.OverlayFromRecord(nil) != nil {
		t.Error("nil record must give nil overlay")
	}
}
