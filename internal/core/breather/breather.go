package breather

import (
	"math"
	"sync"
	"time"

	"breathbox/internal/core/model"
)

// Cue names a short audio clip tied to a phase transition.
type Cue string

const (
	CueInhale Cue = "inhale"
	CueExhale Cue = "exhale"
	CueFinish Cue = "finish"
)

// CuePlayer plays named cues with fade-in/fade-out. Implementations must
// never block; playback failure is the player's problem, not the engine's.
type CuePlayer interface {
	Play(cue Cue)
	FadeOutAndStop(cue Cue, fade time.Duration)
	StopAll(fade time.Duration)
}

// The circle breathes between these two radii multipliers.
const (
	scaleRest = 1.0
	scaleFull = 1.3
)

// Config contains runtime options for the Breather.
type Config struct {
	// TickInterval is the engine resolution. It doubles as the animation
	// step size, so it should stay well below a second.
	TickInterval time.Duration
	// GraceDelay is how long the finish cue gets to ring out before the
	// end signal fires.
	GraceDelay time.Duration
	// CueFade is the fade window for cue crossfades.
	CueFade time.Duration
}

// Breather is a state machine that drives one breathing session: the
// session-wide countdown, the per-phase countdown, and the scale animation,
// all advanced from a single tick loop so their view of elapsed time can
// never drift apart.
type Breather struct {
	mu       sync.Mutex
	settings model.Settings
	options  Config
	cues     CuePlayer

	phase        model.Phase
	remaining    time.Duration
	phaseLeft    time.Duration
	phaseElapsed time.Duration
	secondAcc    time.Duration
	scale        float64
	fadeStarted  bool

	finishing bool
	graceLeft time.Duration
	ended     bool

	events  []chan Event
	stopCh  chan struct{}
	running bool
	paused  bool
	onEnd   func()
}

// New creates a Breather for the given settings. The settings are copied and
// treated as immutable for the session.
func New(settings model.Settings, cues CuePlayer, options Config) (*Breather, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if options.TickInterval <= 0 {
		options.TickInterval = time.Second / 30
	}
	if options.GraceDelay <= 0 {
		options.GraceDelay = time.Second
	}
	if options.CueFade <= 0 {
		options.CueFade = 500 * time.Millisecond
	}

	return &Breather{
		settings: settings,
		options:  options,
		cues:     cues,
		scale:    scaleRest,
		stopCh:   make(chan struct{}),
	}, nil
}

// SetOnEnd registers the session-end signal. It fires exactly once, after
// the countdown reaches zero and the grace delay passes.
func (breath *Breather) SetOnEnd(handler func()) {
	breath.mu.Lock()
	defer breath.mu.Unlock()
	breath.onEnd = handler
}

// Subscribe registers a new observer channel.
func (breath *Breather) Subscribe(buffer int) <-chan Event {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Event, buffer)
	breath.mu.Lock()
	breath.events = append(breath.events, ch)
	breath.mu.Unlock()
	return ch
}

// Snapshot returns the current phase, session countdown, phase countdown,
// and scale.
func (breath *Breather) Snapshot() (model.Phase, time.Duration, time.Duration, float64) {
	breath.mu.Lock()
	defer breath.mu.Unlock()
	return breath.phase, breath.remaining, breath.phaseLeft, breath.scale
}

// Start initializes the session countdown, enters the first phase, and
// launches the tick loop.
func (breath *Breather) Start() {
	breath.mu.Lock()
	if breath.running {
		breath.mu.Unlock()
		return
	}
	breath.running = true
	breath.paused = false
	breath.remaining = breath.settings.Total
	breath.secondAcc = 0
	breath.enterPhaseLocked(breath.firstPhaseLocked())
	breath.mu.Unlock()

	go breath.run()
}

// Stop terminates the tick loop, fades out any audible cue, and closes
// observer channels. Safe to call more than once.
func (breath *Breather) Stop() {
	breath.mu.Lock()
	if !breath.running {
		breath.mu.Unlock()
		return
	}
	close(breath.stopCh)
	breath.running = false
	events := breath.events
	breath.events = nil
	breath.mu.Unlock()

	breath.cues.StopAll(breath.options.CueFade)
	for _, ch := range events {
		close(ch)
	}
}

// Pause freezes all countdowns and the animation, and silences the cue.
func (breath *Breather) Pause() {
	breath.mu.Lock()
	if !breath.running || breath.paused {
		breath.mu.Unlock()
		return
	}
	breath.paused = true
	phase := breath.phase
	breath.mu.Unlock()

	breath.cues.StopAll(breath.options.CueFade)
	breath.emit(Event{Type: EventPaused, Phase: phase, At: time.Now()})
}

// Resume unfreezes the session where it left off.
func (breath *Breather) Resume() {
	breath.mu.Lock()
	if !breath.paused {
		breath.mu.Unlock()
		return
	}
	breath.paused = false
	phase := breath.phase
	breath.mu.Unlock()

	breath.emit(Event{Type: EventResumed, Phase: phase, At: time.Now()})
}

// UpdateSettings swaps the configuration and restarts the current phase from
// its beginning. The session countdown keeps its value.
func (breath *Breather) UpdateSettings(settings model.Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	breath.mu.Lock()
	breath.settings = settings
	if breath.running && !breath.finishing {
		phase := breath.phase
		if settings.PhaseDuration(phase) <= 0 {
			phase = breath.nextPhaseLocked(phase)
		}
		breath.enterPhaseLocked(phase)
	}
	breath.mu.Unlock()
	return nil
}

func (breath *Breather) run() {
	ticker := time.NewTicker(breath.options.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-breath.stopCh:
			return
		case <-ticker.C:
			if !breath.advance(breath.options.TickInterval) {
				return
			}
		}
	}
}

// advance moves simulated time forward by delta. It returns false once the
// session has fully ended and the loop should exit. Tests drive this
// directly for deterministic clocks.
func (breath *Breather) advance(delta time.Duration) bool {
	breath.mu.Lock()
	if !breath.running || breath.paused {
		running := breath.running
		breath.mu.Unlock()
		return running
	}

	if breath.finishing {
		done := breath.advanceGraceLocked(delta)
		onEnd := breath.onEnd
		breath.mu.Unlock()
		if done {
			if onEnd != nil {
				onEnd()
			}
			return false
		}
		return true
	}

	breath.advanceCountdownsLocked(delta)
	if breath.remaining <= 0 {
		breath.beginFinishLocked()
		breath.mu.Unlock()
		return true
	}

	breath.advancePhaseLocked(delta)
	breath.emitLocked(Event{
		Type:      EventProgress,
		Phase:     breath.phase,
		Remaining: breath.remaining,
		PhaseLeft: breath.phaseLeft,
		Scale:     breath.scale,
		At:        time.Now(),
	})
	breath.mu.Unlock()
	return true
}

// advanceCountdownsLocked handles the two 1Hz counters. Sub-second ticks
// accumulate until a whole second has passed.
func (breath *Breather) advanceCountdownsLocked(delta time.Duration) {
	breath.secondAcc += delta
	for breath.secondAcc >= time.Second {
		breath.secondAcc -= time.Second
		breath.remaining -= time.Second

		// The phase counter is display-only: it wraps back to the nominal
		// duration instead of dropping below one second. Sequencing is
		// owned by the animation side.
		breath.phaseLeft -= time.Second
		if breath.phaseLeft < time.Second {
			breath.phaseLeft = breath.settings.PhaseDuration(breath.phase)
		}
	}
}

func (breath *Breather) advancePhaseLocked(delta time.Duration) {
	duration := breath.settings.PhaseDuration(breath.phase)
	breath.phaseElapsed += delta

	progress := 1.0
	if duration > 0 {
		progress = float64(breath.phaseElapsed) / float64(duration)
		if progress > 1 {
			progress = 1
		}
	}

	switch breath.phase {
	case model.PhaseInhale:
		breath.scale = scaleRest + (scaleFull-scaleRest)*(1-math.Cos(progress*math.Pi/2))
	case model.PhaseExhale:
		breath.scale = scaleFull - (scaleFull-scaleRest)*math.Sin(progress*math.Pi/2)
	case model.PhaseHold:
		breath.scale = scaleFull
	}

	// Start closing the cue a fade-window before the phase ends so it
	// finishes together with the phase instead of clipping.
	if !breath.fadeStarted && duration-breath.phaseElapsed <= breath.options.CueFade {
		if cue, ok := phaseCue(breath.phase); ok {
			breath.cues.FadeOutAndStop(cue, breath.options.CueFade)
		}
		breath.fadeStarted = true
	}

	if breath.phaseElapsed >= duration {
		breath.enterPhaseLocked(breath.nextPhaseLocked(breath.phase))
	}
}

func (breath *Breather) advanceGraceLocked(delta time.Duration) bool {
	breath.graceLeft -= delta
	if breath.graceLeft > 0 || breath.ended {
		return false
	}
	breath.ended = true
	breath.emitLocked(Event{Type: EventFinished, Phase: breath.phase, At: time.Now()})
	return true
}

func (breath *Breather) beginFinishLocked() {
	breath.finishing = true
	breath.graceLeft = breath.options.GraceDelay
	breath.remaining = 0

	// Best effort: a missing finish cue only means a silent ending.
	breath.cues.StopAll(breath.options.CueFade)
	breath.cues.Play(CueFinish)

	breath.emitLocked(Event{
		Type:      EventProgress,
		Phase:     breath.phase,
		Remaining: 0,
		PhaseLeft: breath.phaseLeft,
		Scale:     breath.scale,
		At:        time.Now(),
	})
}

// enterPhaseLocked resets the per-phase counters, sets the entry scale, and
// starts the phase cue. Re-entering a phase implicitly abandons any
// in-flight animation progress, so no two steppers can overlap.
func (breath *Breather) enterPhaseLocked(phase model.Phase) {
	breath.phase = phase
	breath.phaseElapsed = 0
	breath.fadeStarted = false
	breath.phaseLeft = breath.settings.PhaseDuration(phase)

	switch phase {
	case model.PhaseInhale:
		breath.scale = scaleRest
	default:
		breath.scale = scaleFull
	}

	if cue, ok := phaseCue(phase); ok {
		breath.cues.Play(cue)
	}

	breath.emitLocked(Event{
		Type:      EventPhaseChange,
		Phase:     phase,
		Remaining: breath.remaining,
		PhaseLeft: breath.phaseLeft,
		Scale:     breath.scale,
		At:        time.Now(),
	})
}

// firstPhaseLocked picks the opening phase: inhale, unless its duration is
// zero.
func (breath *Breather) firstPhaseLocked() model.Phase {
	if breath.settings.Inhale > 0 {
		return model.PhaseInhale
	}
	return model.PhaseExhale
}

// nextPhaseLocked returns the next phase in the cycle, skipping any phase
// whose configured duration is zero. Validate guarantees at least one of
// inhale/exhale is non-zero, so this always terminates.
func (breath *Breather) nextPhaseLocked(phase model.Phase) model.Phase {
	order := [...]model.Phase{model.PhaseInhale, model.PhaseHold, model.PhaseExhale}
	index := 0
	for i, candidate := range order {
		if candidate == phase {
			index = i
			break
		}
	}
	for probes := 0; probes < len(order); probes++ {
		index = (index + 1) % len(order)
		if breath.settings.PhaseDuration(order[index]) > 0 {
			return order[index]
		}
	}
	return phase
}

func phaseCue(phase model.Phase) (Cue, bool) {
	switch phase {
	case model.PhaseInhale:
		return CueInhale, true
	case model.PhaseExhale:
		return CueExhale, true
	default:
		return "", false
	}
}

func (breath *Breather) emit(event Event) {
	breath.mu.Lock()
	defer breath.mu.Unlock()
	breath.emitLocked(event)
}

func (breath *Breather) emitLocked(event Event) {
	events := append([]chan Event(nil), breath.events...)
	for _, ch := range events {
		select {
		case ch <- event:
		default:
		}
	}
}
