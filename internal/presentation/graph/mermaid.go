package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/studioflow/internal/runtime"
	"github.com/aretw0/studioflow/pkg/domain"
)

// Overlay contains run state to visualize on the plan.
type Overlay struct {
	Completed []int
	Failed    int
	HasFailed bool
}

// OverlayFromRecord marks the steps a run record reports as done or failed.
func OverlayFromRecord(rec *domain.RunRecord) *Overlay {
	if rec == nil {
		return nil
	}
	o := &Overlay{}
	for _, s := range rec.Steps {
		if len(s.Errors) > 0 {
			o.Failed, o.HasFailed = s.Index, true
			continue
		}
		o.Completed = append(o.Completed, s.Index)
	}
	if rec.Status == domain.RunFailed && !o.HasFailed && len(rec.Steps) > 0 {
		last := rec.Steps[len(rec.Steps)-1]
		o.Failed, o.HasFailed = last.Index, true
		o.Completed = o.Completed[:len(o.Completed)-1]
	}
	return o
}

// pipeline nodes between phases.
const (
	seedNode      = "seed"
	translateNode = "translate"
	simulateNode  = "simulate"
	resultsNode   = "results"
)

// GenerateMermaid produces a Mermaid flowchart of a run plan. Steps are
// grouped into one subgraph per phase and chained in execution order:
// - Seed model: ((Circle))
// - Measure: [Rectangle]
// - Translation and simulation: [[Subroutine]]
// - Results: ([Stadium])
func GenerateMermaid(steps []runtime.PlannedStep, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	sb.WriteString(fmt.Sprintf("    %s((\"seed model\"))\n", seedNode))

	byPhase := make(map[domain.Phase][]runtime.PlannedStep)
	for _, s := range steps {
		p := s.Measure.Kind.Phase()
		byPhase[p] = append(byPhase[p], s)
	}

	prev := seedNode
	for _, phase := range []domain.Phase{domain.PhaseOpenStudio, domain.PhaseEnergyPlus, domain.PhaseReporting} {
		switch phase {
		case domain.PhaseEnergyPlus:
			sb.WriteString(fmt.Sprintf("    %s[[\"translate to workspace\"]]\n", translateNode))
			sb.WriteString(fmt.Sprintf("    %s --> %s\n", prev, translateNode))
			prev = translateNode
		case domain.PhaseReporting:
			sb.WriteString(fmt.Sprintf("    %s[[\"EnergyPlus\"]]\n", simulateNode))
			sb.WriteString(fmt.Sprintf("    %s --> %s\n", prev, simulateNode))
			prev = simulateNode
		}

		group := byPhase[phase]
		if len(group) == 0 {
			continue
		}
		sb.WriteString(fmt.Sprintf("    subgraph %s\n", phase))
		for _, s := range group {
			label := strings.ReplaceAll(s.Step.Label(), "\"", "'")
			sb.WriteString(fmt.Sprintf("        %s[\"%d: %s\"]\n", stepID(s.Index), s.Index, label))
		}
		sb.WriteString("    end\n")
		for _, s := range group {
			sb.WriteString(fmt.Sprintf("    %s --> %s\n", prev, stepID(s.Index)))
			prev = stepID(s.Index)
		}
	}

	sb.WriteString(fmt.Sprintf("    %s([\"results.json\"])\n", resultsNode))
	sb.WriteString(fmt.Sprintf("    %s --> %s\n", prev, resultsNode))

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef completed fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef failed fill:#ffcdd2,stroke:#b71c1c,stroke-width:4px,color:#000;\n")

		seen := make(map[int]bool)
		for _, idx := range overlay.Completed {
			if !seen[idx] {
				seen[idx] = true
				sb.WriteString(fmt.Sprintf("    class %s completed;\n", stepID(idx)))
			}
		}
		if overlay.HasFailed {
			sb.WriteString(fmt.Sprintf("    class %s failed;\n", stepID(overlay.Failed)))
		}
	}

	return sb.String()
}

func stepID(index int) string {
	return fmt.Sprintf("step_%d", index)
}
