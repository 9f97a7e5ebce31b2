package audio

import (
	"time"

	"breathbox/internal/core/breather"
	"breathbox/internal/logger"
)

// Compile-time interface check.
var _ breather.CuePlayer = (*NoOp)(nil)

// NoOp is a cue player that plays nothing. Used when the audio device is
// unavailable or sound is disabled; the session runs silently.
type NoOp struct {
	log *logger.Logger
}

// NewNoOp creates a silent cue player.
func NewNoOp(log *logger.Logger) *NoOp {
	return &NoOp{log: log}
}

func (n *NoOp) Play(cue breather.Cue) {
	n.log.Debug("audio no-op: would play %q", cue)
}

func (n *NoOp) FadeOutAndStop(cue breather.Cue, _ time.Duration) {
	n.log.Debug("audio no-op: would fade out %q", cue)
}

func (n *NoOp) StopAll(_ time.Duration) {}
