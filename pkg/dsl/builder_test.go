package dsl

import (
	"path/filepath"
	"testing"

	"github.com/aretw0/studioflow/internal/compiler"
	"github.com/aretw0/studioflow/pkg/domain"
)

func TestBuilder_SimpleWorkflow(t *testing.T) {
	// 1. Build the workflow using the DSL
	spec, err := New().
		Seed("seed.osm").
		Weather("denver.epw").
		MeasurePaths("./my_measures").
		Add("overhangs").Arg("length", 1).Arg("length", 2).
		Then("report").Name("final report").
		Build()
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}

	// 2. Verify the document
	if spec.SeedFile != "seed.osm" || spec.WeatherFile != "denver.epw" {
		t.Errorf("unexpected files: %q %q", spec.SeedFile, spec.WeatherFile)
	}
	if len(spec.Steps) != 2 {
		t.Fatalf("Expected 2 steps, got %d", len(spec.Steps))
	}
	if got := spec.Steps[0].Arguments; len(got) != 2 || got[1].Value != 2 {
		t.Errorf("Expected both arguments in order, got %v", got)
	}
	if spec.Steps[1].Label() != "final report" {
		t.Errorf("Expected step name 'final report', got %q", spec.Steps[1].Label())
	}
	if spec.MeasureSearchPaths()[0] != "./my_measures" {
		t.Errorf("Expected custom measure path, got %v", spec.MeasureSearchPaths())
	}
}

func TestBuilder_Isolation(t *testing.T) {
	b := New()
	step := b.Add("overhangs").Arg("length", 1)
	spec, err := b.Build()
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}
	step.Arg("length", 9)
	if len(spec.Steps[0].Arguments) != 1 {
		t.Errorf("built spec changed after Build(): %v", spec.Steps[0].Arguments)
	}
}

func TestBuilder_Invalid(t *testing.T) {
	if _, err := New().Add("").Build(); err == nil {
		t.Error("Expected error for empty measure directory")
	}
	if _, err := New().Add("m").Arg("", 1).Build(); err == nil {
		t.Error("Expected error for unnamed argument")
	}
}

func TestBuilder_WriteFile(t *testing.T) {
	for _, name := range []string{"workflow.yaml", "workflow.osw"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			err := New().RunDirectory("out").Add("overhangs").Arg("length", 2.5).WriteFile(path)
			if err != nil {
				t.Fatalf("WriteFile() failed: %v", err)
			}

			spec, err := compiler.NewParser().ParseFile(path)
			if err != nil {
				t.Fatalf("ParseFile() failed: %v", err)
			}
			want := []domain.Argument{{Name: "length", Value: 2.5}}
			if len(spec.Steps) != 1 || spec.Steps[0].Arguments[0] != want[0] {
				t.Errorf("Expected %v, got %v", want, spec.Steps)
			}
			if spec.RunDirectory != "out" {
				t.Errorf("Expected run_directory 'out', got %q", spec.RunDirectory)
			}
		})
	}
}
