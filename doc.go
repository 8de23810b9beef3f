/*
Package studioflow applies measures to a building energy model and sequences
EnergyPlus around them.

A workflow document lists measure directories in order, each with its
arguments. A run locates and classifies every measure up front, then applies
the model measures, translates the model into an EnergyPlus workspace,
applies the workspace measures, writes in.idf, runs the simulation, applies
the reporting measures and collects results.json. Each measure runs inside
its own run/ subdirectory, and the staged EnergyPlus files are cleaned up
on every exit path.

# Usage

	w, err := studioflow.New("./project/workflow.osw",
		studioflow.WithEnginePath("/usr/local/EnergyPlus-24-1-0"),
		studioflow.WithLogger(logger),
	)
	if err != nil {
		log.Fatal(err)
	}

	rec, err := w.Run(ctx)
	if err != nil {
		log.Fatalf("run %s failed: %v", rec.ID, err)
	}
	fmt.Println(rec.Results)

WithMeasuresOnly stops after in.idf is written. WithPostProcessOnly reruns
only the reporting measures and post-processing against an existing run
directory.
*/
package studioflow
