/*
Package measure defines the plugin boundary of the workflow engine.

A measure is a directory holding a manifest (measure.xml or measure.yaml) and an
implementation. The manifest declares the class name and the measure type; the
measure type selects one of three capability contracts:

  - ModelMeasure transforms the building model.
  - WorkspaceMeasure transforms the EnergyPlus workspace.
  - ReportingMeasure reads simulation output and prior attributes.

Implementations are either compiled in and registered under their class name, or
a measure.go script evaluated with yaegi in an interpreter owned by the measure
directory. Either way the implementation must satisfy the contract its manifest
declares.
*/
package measure

import (
	"context"

	"github.com/aretw0/studioflow/pkg/domain"
	"github.com/aretw0/studioflow/pkg/model"
)

// Measure is the part of the contract shared by every kind.
type Measure interface {
	// Arguments declares the parameters the measure accepts.
	Arguments() []ArgumentDefinition
}

// ModelMeasure transforms the current building model in place.
type ModelMeasure interface {
	Measure
	Run(ctx context.Context, m *model.Model, runner *Runner, args ArgumentMap) error
}

// WorkspaceMeasure transforms the current EnergyPlus workspace in place.
// The last model is available through runner.LastModel.
type WorkspaceMeasure interface {
	Measure
	Run(ctx context.Context, ws *model.Workspace, runner *Runner, args ArgumentMap) error
}

// ReportingMeasure runs after simulation with access to all prior context.
type ReportingMeasure interface {
	Measure
	Run(ctx context.Context, runner *Runner, args ArgumentMap) error
}

// ImplementsKind reports whether m satisfies the contract of kind.
func ImplementsKind(m Measure, kind domain.MeasureKind) bool {
	switch kind {
	case domain.KindModel:
		_, ok := m.(ModelMeasure)
		return ok
	case domain.KindWorkspace:
		_, ok := m.(WorkspaceMeasure)
		return ok
	case domain.KindReporting:
		_, ok := m.(ReportingMeasure)
		return ok
	}
	return false
}
