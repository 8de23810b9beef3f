package domain

import "fmt"

// MeasureKind is the capability contract a measure implements.
type MeasureKind string

const (
	KindModel     MeasureKind = "ModelMeasure"      // transforms the building model
	KindWorkspace MeasureKind = "EnergyPlusMeasure" // transforms the EnergyPlus workspace
	KindReporting MeasureKind = "ReportingMeasure"  // reads results after simulation
)

// kindLookup maps manifest measure types onto kinds.
var kindLookup = map[string]MeasureKind{
	"ModelMeasure":      KindModel,
	"OpenStudio":        KindModel,
	"EnergyPlusMeasure": KindWorkspace,
	"WorkspaceMeasure":  KindWorkspace,
	"EnergyPlus":        KindWorkspace,
	"ReportingMeasure":  KindReporting,
	"Reporting":         KindReporting,
}

// ParseMeasureKind resolves a manifest measure type through the fixed lookup table.
func ParseMeasureKind(s string) (MeasureKind, error) {
	kind, ok := kindLookup[s]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnrecognizedMeasure, s)
	}
	return kind, nil
}

// Phase is one of the ordered execution stages of a run.
type Phase int

const (
	PhaseOpenStudio Phase = iota
	PhaseEnergyPlus
	PhaseReporting
)

func (p Phase) String() string {
	switch p {
	case PhaseOpenStudio:
		return "OpenStudioPhase"
	case PhaseEnergyPlus:
		return "EnergyPlusPhase"
	case PhaseReporting:
		return "ReportingPhase"
	default:
		return "UnknownPhase"
	}
}

// Phase returns the run phase in which measures of this kind execute.
func (k MeasureKind) Phase() Phase {
	switch k {
	case KindWorkspace:
		return PhaseEnergyPlus
	case KindReporting:
		return PhaseReporting
	default:
		return PhaseOpenStudio
	}
}
