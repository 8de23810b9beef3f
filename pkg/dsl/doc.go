/*
Package dsl provides a fluent builder for workflow documents.

It lets a workflow be assembled in Go instead of a JSON or YAML file, which
suits generated parameter sweeps and tests.

Example usage:

	spec, err := dsl.New().
		Seed("office.osm").
		Weather("USA_CO_Denver.epw").
		Add("add_overhangs").Arg("projection_factor", 0.5).
		Then("set_thermostat").Name("night setback").Arg("setback", 3).
		Then("annual_report").
		Build()
	if err != nil {
		log.Fatal(err)
	}

	w, err := studioflow.NewFromSpec(spec, "./project")
*/
package dsl
