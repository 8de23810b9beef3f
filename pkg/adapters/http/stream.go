package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/aretw0/studioflow/internal/logging"
	"github.com/aretw0/studioflow/pkg/domain"
)

// StreamManager fans run events out to SSE subscribers.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{} // run ID -> channels
	logger      *slog.Logger
}

func NewStreamManager() *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
		logger:      logging.NewNop(),
	}
}

// Subscribe registers a buffered channel for runID. The returned function
// unsubscribes and closes the channel.
func (sm *StreamManager) Subscribe(runID string) (chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 16)
	if _, ok := sm.subscribers[runID]; !ok {
		sm.subscribers[runID] = make(map[chan<- string]struct{})
	}
	sm.subscribers[runID][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[runID]; ok {
			if _, live := subs[ch]; !live {
				return
			}
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, runID)
			}
		}
	}
}

// Broadcast sends msg to every subscriber of runID, dropping it for slow
// clients.
func (sm *StreamManager) Broadcast(runID, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[runID] {
		select {
		case ch <- msg:
		default:
			sm.logger.Warn("SSE: client buffer full, dropping message", "run_id", runID)
		}
	}
}

// Hooks returns lifecycle callbacks that broadcast events as JSON.
func (sm *StreamManager) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStepStart:  func(_ context.Context, e *domain.StepEvent) { sm.publish(e.RunID, e) },
		OnStepFinish: func(_ context.Context, e *domain.StepEvent) { sm.publish(e.RunID, stepPayload(e)) },
		OnSimulation: func(_ context.Context, e *domain.SimulationEvent) { sm.publish(e.RunID, simulationPayload(e)) },
	}
}

func (sm *StreamManager) publish(runID string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		sm.logger.Warn("SSE: failed to encode event", "run_id", runID, "err", err)
		return
	}
	sm.Broadcast(runID, string(data))
}

type stepFinishPayload struct {
	*domain.StepEvent
	Error string `json:"error,omitempty"`
}

func stepPayload(e *domain.StepEvent) stepFinishPayload {
	p := stepFinishPayload{StepEvent: e}
	if e.Err != nil {
		p.Error = e.Err.Error()
	}
	return p
}

type simulationEventPayload struct {
	*domain.SimulationEvent
	Error string `json:"error,omitempty"`
}

func simulationPayload(e *domain.SimulationEvent) simulationEventPayload {
	p := simulationEventPayload{SimulationEvent: e}
	if e.Err != nil {
		p.Error = e.Err.Error()
	}
	return p
}
