package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventStepStart      EventType = "step_start"
	EventStepFinish     EventType = "step_finish"
	EventSimulationDone EventType = "simulation_done"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	RunID     string    `json:"run_id"`
}

// StepEvent represents entry into or exit from a workflow step.
type StepEvent struct {
	EventBase
	Index    int            `json:"index"`
	Measure  string         `json:"measure"`
	Kind     MeasureKind    `json:"kind"`
	Duration time.Duration  `json:"duration,omitempty"`
	Result   *MeasureResult `json:"result,omitempty"`
	Err      error          `json:"-"`
}

// SimulationEvent reports the outcome of an EnergyPlus run.
type SimulationEvent struct {
	EventBase
	Duration time.Duration `json:"duration"`
	Warnings int           `json:"warnings"`
	Severe   int           `json:"severe"`
	Err      error         `json:"-"`
}

// LifecycleHooks defines callbacks for run observability.
type LifecycleHooks struct {
	OnStepStart  func(context.Context, *StepEvent)
	OnStepFinish func(context.Context, *StepEvent)
	OnSimulation func(context.Context, *SimulationEvent)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnStepStart:  chainStep(h.OnStepStart, other.OnStepStart),
		OnStepFinish: chainStep(h.OnStepFinish, other.OnStepFinish),
		OnSimulation: chainSimulation(h.OnSimulation, other.OnSimulation),
	}
}

func chainStep(a, b func(context.Context, *StepEvent)) func(context.Context, *StepEvent) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e *StepEvent) {
		a(ctx, e)
		b(ctx, e)
	}
}

func chainSimulation(a, b func(context.Context, *SimulationEvent)) func(context.Context, *SimulationEvent) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e *SimulationEvent) {
		a(ctx, e)
		b(ctx, e)
	}
}
