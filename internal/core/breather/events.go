package breather

import (
	"time"

	"breathbox/internal/core/model"
)

// EventType defines the type of Breather event.
type EventType string

const (
	EventPhaseChange EventType = "phase_change"
	EventProgress    EventType = "progress"
	EventPaused      EventType = "paused"
	EventResumed     EventType = "resumed"
	EventFinished    EventType = "finished"
)

// Event represents a Breather update for observers.
type Event struct {
	Type      EventType
	Phase     model.Phase
	Remaining time.Duration
	PhaseLeft time.Duration
	Scale     float64
	At        time.Time
}
