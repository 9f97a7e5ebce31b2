package model

import (
	"errors"
	"time"
)

// ErrNoBreathPhases indicates inhale and exhale are both zero, which leaves
// nothing to cycle through.
var ErrNoBreathPhases = errors.New("inhale and exhale cannot both be zero")

// Slider bounds enforced at the input boundary.
const (
	MinPhase = 0 * time.Second
	MaxPhase = 10 * time.Second
	MinTotal = 1 * time.Minute
	MaxTotal = 20 * time.Minute
)

// Phase identifies a segment of the breathing cycle.
type Phase string

const (
	PhaseInhale Phase = "inhale"
	PhaseHold   Phase = "hold"
	PhaseExhale Phase = "exhale"
)

// Settings defines one breathing session. Immutable for the lifetime of a
// session once handed to the engine.
type Settings struct {
	Inhale time.Duration
	Hold   time.Duration
	Exhale time.Duration
	Total  time.Duration
}

// DefaultSettings returns the calm-breathing preset shown on first launch.
func DefaultSettings() Settings {
	return Settings{
		Inhale: 4 * time.Second,
		Hold:   4 * time.Second,
		Exhale: 6 * time.Second,
		Total:  5 * time.Minute,
	}
}

// FromSeconds builds Settings from raw slider values (phase seconds, total
// minutes) and clamps them into range.
func FromSeconds(inhale, hold, exhale, totalMinutes int) Settings {
	settings := Settings{
		Inhale: time.Duration(inhale) * time.Second,
		Hold:   time.Duration(hold) * time.Second,
		Exhale: time.Duration(exhale) * time.Second,
		Total:  time.Duration(totalMinutes) * time.Minute,
	}
	return settings.Clamped()
}

// Clamped returns a copy with every field forced into slider range.
// Out-of-range values never reach the engine.
func (settings Settings) Clamped() Settings {
	settings.Inhale = clampDuration(settings.Inhale, MinPhase, MaxPhase)
	settings.Hold = clampDuration(settings.Hold, MinPhase, MaxPhase)
	settings.Exhale = clampDuration(settings.Exhale, MinPhase, MaxPhase)
	settings.Total = clampDuration(settings.Total, MinTotal, MaxTotal)
	return settings
}

// Validate reports whether the settings describe a runnable session.
func (settings Settings) Validate() error {
	if settings.Inhale+settings.Exhale <= 0 {
		return ErrNoBreathPhases
	}
	return nil
}

// PhaseDuration returns the nominal duration for a phase kind.
func (settings Settings) PhaseDuration(phase Phase) time.Duration {
	switch phase {
	case PhaseInhale:
		return settings.Inhale
	case PhaseHold:
		return settings.Hold
	case PhaseExhale:
		return settings.Exhale
	default:
		return 0
	}
}

func clampDuration(value, min, max time.Duration) time.Duration {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
