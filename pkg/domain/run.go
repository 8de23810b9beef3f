package domain

import "time"

// RunStatus is the lifecycle status of a run record.
type RunStatus string

const (
	RunStarted   RunStatus = "started"
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// StepRecord is the persisted outcome of one step.
type StepRecord struct {
	Index       int            `json:"index"`
	Measure     string         `json:"measure"`
	Kind        MeasureKind    `json:"kind"`
	Applicable  bool           `json:"applicable"`
	Attributes  map[string]any `json:"attributes,omitempty"`
	Warnings    []string       `json:"warnings,omitempty"`
	Errors      []string       `json:"errors,omitempty"`
	StartedAt   time.Time      `json:"started_at"`
	CompletedAt time.Time      `json:"completed_at"`
}

// RunRecord is the externally visible state of one run.
type RunRecord struct {
	ID                 string         `json:"id"`
	WorkflowPath       string         `json:"workflow_path"`
	RunDir             string         `json:"run_dir"`
	Status             RunStatus      `json:"status"`
	StartedAt          time.Time      `json:"started_at"`
	CompletedAt        *time.Time     `json:"completed_at,omitempty"`
	Steps              []StepRecord   `json:"steps,omitempty"`
	Results            map[string]any `json:"results,omitempty"`
	ObjectiveFunctions map[string]any `json:"objective_functions,omitempty"`
	Error              string         `json:"error,omitempty"`
}

// NewRunRecord creates a record in the started state.
func NewRunRecord(id, workflowPath string) *RunRecord {
	return &RunRecord{
		ID:           id,
		WorkflowPath: workflowPath,
		Status:       RunStarted,
		StartedAt:    time.Now().UTC(),
	}
}

// Finish marks the record as completed or failed depending on err.
func (r *RunRecord) Finish(err error) {
	now := time.Now().UTC()
	r.CompletedAt = &now
	if err != nil {
		r.Status = RunFailed
		r.Error = err.Error()
		return
	}
	r.Status = RunCompleted
}
