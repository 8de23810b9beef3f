package domain

// ResultValue is the overall outcome a measure reports for itself.
type ResultValue string

const (
	ResultSuccess ResultValue = "Success"
	ResultFail    ResultValue = "Fail"
	// ResultNA marks the measure as not applicable to the current model.
	ResultNA ResultValue = "NA"
)

// MeasureResult is the structured output of one step.
type MeasureResult struct {
	MeasureName      string         `json:"measure_name"`
	Value            ResultValue    `json:"value"`
	Attributes       map[string]any `json:"attributes,omitempty"`
	Info             []string       `json:"info,omitempty"`
	Warnings         []string       `json:"warnings,omitempty"`
	Errors           []string       `json:"errors,omitempty"`
	InitialCondition string         `json:"initial_condition,omitempty"`
	FinalCondition   string         `json:"final_condition,omitempty"`
}

// Applicable reports whether the measure applied to the model.
func (r *MeasureResult) Applicable() bool {
	return r.Value != ResultNA
}

// HasErrors reports whether any error-level diagnostic was registered.
func (r *MeasureResult) HasErrors() bool {
	return len(r.Errors) > 0 || r.Value == ResultFail
}

// FlattenedAttributes returns the attributes with the applicable flag folded in.
func (r *MeasureResult) FlattenedAttributes() map[string]any {
	out := make(map[string]any, len(r.Attributes)+1)
	for k, v := range r.Attributes {
		out[k] = v
	}
	out["applicable"] = r.Applicable()
	return out
}
