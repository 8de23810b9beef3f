package studioflow_test

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/aretw0/studioflow"
	"github.com/aretw0/studioflow/pkg/measure"
	"github.com/aretw0/studioflow/pkg/model"
)

// addZones is a compiled-in model measure.
type addZones struct{}

func (addZones) Arguments() []measure.ArgumentDefinition {
	return []measure.ArgumentDefinition{{Name: "zones", Type: measure.ArgInteger, Default: 2}}
}

func (addZones) Run(ctx context.Context, m *model.Model, r *measure.Runner, args measure.ArgumentMap) error {
	r.RegisterValue("zones", args["zones"])
	r.RegisterFinalCondition(fmt.Sprintf("added %v zones", args["zones"]))
	return nil
}

// ExampleNew_measuresOnly applies a compiled-in measure and stops once in.idf
// is written, so no EnergyPlus installation is needed.
func ExampleNew_measuresOnly() {
	dir, err := os.MkdirTemp("", "studioflow-example")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(dir)

	// 1. Lay out a project: one measure directory and the workflow document
	measureDir := filepath.Join(dir, "measures", "add_zones")
	if err := os.MkdirAll(measureDir, 0o755); err != nil {
		log.Fatal(err)
	}
	manifest := "class_name: AddZones\nmeasure_type: ModelMeasure\n"
	if err := os.WriteFile(filepath.Join(measureDir, "measure.yaml"), []byte(manifest), 0o644); err != nil {
		log.Fatal(err)
	}
	doc := "steps:\n  - measure_dir_name: add_zones\n    arguments:\n      - name: zones\n        value: 3\n"
	if err := os.WriteFile(filepath.Join(dir, "workflow.yaml"), []byte(doc), 0o644); err != nil {
		log.Fatal(err)
	}

	// 2. Register the implementation under the manifest class name
	registry := measure.NewRegistry()
	registry.Register("AddZones", addZones{})

	w, err := studioflow.New(filepath.Join(dir, "workflow.yaml"),
		studioflow.WithMeasureRegistry(registry),
		studioflow.WithMeasuresOnly(true),
	)
	if err != nil {
		log.Fatal(err)
	}

	// 3. Run and inspect the record
	rec, err := w.Run(context.Background())
	if err != nil {
		log.Fatal(err)
	}
	for _, step := range rec.Steps {
		fmt.Printf("%s: zones=%v applicable=%v\n", step.Measure, step.Attributes["zones"], step.Applicable)
	}
	fmt.Println(rec.Status)

	// Output:
	// AddZones: zones=3 applicable=true
	// completed
}
