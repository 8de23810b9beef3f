package observability

import (
	"context"
	"time"

	"github.com/aretw0/studioflow/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for runs, steps and simulations.
type Metrics struct {
	Runs               *prometheus.CounterVec
	RunDuration        prometheus.Histogram
	Steps              *prometheus.CounterVec
	StepDuration       *prometheus.HistogramVec
	SimulationDuration prometheus.Histogram
	SimulationMessages *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "studioflow_runs_total",
				Help: "Total number of workflow runs by final status",
			},
			[]string{"status"},
		),
		RunDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "studioflow_run_duration_seconds",
				Help:    "Duration of workflow runs",
				Buckets: prometheus.ExponentialBuckets(1, 2, 12),
			},
		),
		Steps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "studioflow_steps_total",
				Help: "Total number of measure steps by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		StepDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "studioflow_step_duration_seconds",
				Help:    "Duration of measure steps",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"kind", "measure"},
		),
		SimulationDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "studioflow_simulation_duration_seconds",
				Help:    "Duration of EnergyPlus simulations",
				Buckets: prometheus.ExponentialBuckets(1, 2, 14),
			},
		),
		SimulationMessages: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "studioflow_simulation_messages_total",
				Help: "EnergyPlus warnings and severe errors",
			},
			[]string{"severity"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.Runs, m.RunDuration, m.Steps, m.StepDuration, m.SimulationDuration, m.SimulationMessages)
	}
	return m
}

// Hooks returns lifecycle callbacks that feed the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStepFinish: func(_ context.Context, e *domain.StepEvent) {
			m.Steps.WithLabelValues(string(e.Kind), stepOutcome(e)).Inc()
			m.StepDuration.WithLabelValues(string(e.Kind), e.Measure).Observe(e.Duration.Seconds())
		},
		OnSimulation: func(_ context.Context, e *domain.SimulationEvent) {
			m.SimulationDuration.Observe(e.Duration.Seconds())
			m.SimulationMessages.WithLabelValues("warning").Add(float64(e.Warnings))
			m.SimulationMessages.WithLabelValues("severe").Add(float64(e.Severe))
		},
	}
}

// ObserveRun records the end of a run.
func (m *Metrics) ObserveRun(status domain.RunStatus, d time.Duration) {
	m.Runs.WithLabelValues(string(status)).Inc()
	m.RunDuration.Observe(d.Seconds())
}

func stepOutcome(e *domain.StepEvent) string {
	switch {
	case e.Err != nil:
		return "error"
	case e.Result != nil && !e.Result.Applicable():
		return "not_applicable"
	default:
		return "success"
	}
}
