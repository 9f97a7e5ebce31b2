package breather

import (
	"sync"
	"testing"
	"time"

	"breathbox/internal/core/model"
)

// recordingPlayer captures cue calls for assertions.
type recordingPlayer struct {
	mu     sync.Mutex
	played []Cue
	faded  []Cue
	stops  int
}

func (p *recordingPlayer) Play(cue Cue) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.played = append(p.played, cue)
}

func (p *recordingPlayer) FadeOutAndStop(cue Cue, _ time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.faded = append(p.faded, cue)
}

func (p *recordingPlayer) StopAll(_ time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stops++
}

func (p *recordingPlayer) playedCues() []Cue {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Cue(nil), p.played...)
}

const step = time.Second / 30

// newTestBreather returns a started engine whose ticker never fires, so the
// test owns the clock through advance.
func newTestBreather(t *testing.T, settings model.Settings) (*Breather, *recordingPlayer) {
	t.Helper()
	player := &recordingPlayer{}
	breath, err := New(settings, player, Config{TickInterval: time.Hour})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	breath.options.TickInterval = step
	breath.stopCh = make(chan struct{})
	breath.running = true
	breath.remaining = settings.Total
	breath.enterPhaseLocked(breath.firstPhaseLocked())
	return breath, player
}

// simulate advances the engine by the given wall time in animation steps.
func simulate(breath *Breather, total time.Duration) {
	for elapsed := time.Duration(0); elapsed < total; elapsed += step {
		breath.advance(step)
	}
}

func TestStartInitializesCountdownAndPhase(t *testing.T) {
	settings := model.Settings{
		Inhale: 4 * time.Second,
		Hold:   6 * time.Second,
		Exhale: 7 * time.Second,
		Total:  6 * time.Minute,
	}
	breath, player := newTestBreather(t, settings)

	phase, remaining, phaseLeft, scale := breath.Snapshot()
	if phase != model.PhaseInhale {
		t.Fatalf("initial phase = %s, want inhale", phase)
	}
	if remaining != 6*time.Minute {
		t.Fatalf("remaining = %v, want 6m", remaining)
	}
	if phaseLeft != 4*time.Second {
		t.Fatalf("phaseLeft = %v, want 4s", phaseLeft)
	}
	if scale != 1.0 {
		t.Fatalf("scale = %v, want 1.0", scale)
	}

	cues := player.playedCues()
	if len(cues) != 1 || cues[0] != CueInhale {
		t.Fatalf("expected a single inhale cue on start, got %v", cues)
	}
}

func TestNewRejectsBreathlessSettings(t *testing.T) {
	_, err := New(model.Settings{Hold: 5 * time.Second, Total: time.Minute}, &recordingPlayer{}, Config{})
	if err == nil {
		t.Fatal("expected error for settings with no inhale and no exhale")
	}
}

func TestFullCycleWithHold(t *testing.T) {
	settings := model.Settings{
		Inhale: 4 * time.Second,
		Hold:   6 * time.Second,
		Exhale: 7 * time.Second,
		Total:  6 * time.Minute,
	}
	breath, _ := newTestBreather(t, settings)

	var phases []model.Phase
	phases = append(phases, breath.phase)

	// Inhale: scale must rise monotonically to full over 4s.
	previous := breath.scale
	simulate(breath, 4*time.Second-step)
	if breath.scale < previous {
		t.Fatalf("scale fell during inhale: %v -> %v", previous, breath.scale)
	}
	for i := 0; i < 30; i++ {
		before := breath.scale
		breath.advance(step)
		if breath.phase == model.PhaseInhale && breath.scale < before {
			t.Fatalf("inhale scale not monotonic: %v -> %v", before, breath.scale)
		}
	}
	if breath.phase != model.PhaseHold {
		t.Fatalf("after inhale expected hold, got %s", breath.phase)
	}
	phases = append(phases, breath.phase)
	if breath.scale != 1.3 {
		t.Fatalf("hold scale = %v, want 1.3", breath.scale)
	}

	// Hold: scale pinned at full for its whole 6s.
	simulate(breath, 5*time.Second)
	if breath.phase != model.PhaseHold || breath.scale != 1.3 {
		t.Fatalf("mid-hold: phase=%s scale=%v", breath.phase, breath.scale)
	}
	simulate(breath, time.Second+step)
	if breath.phase != model.PhaseExhale {
		t.Fatalf("after hold expected exhale, got %s", breath.phase)
	}
	phases = append(phases, breath.phase)

	// Exhale: scale must fall monotonically back to rest over 7s.
	previous = breath.scale
	for breath.phase == model.PhaseExhale {
		breath.advance(step)
		if breath.phase == model.PhaseExhale && breath.scale > previous {
			t.Fatalf("exhale scale not monotonic: %v -> %v", previous, breath.scale)
		}
		previous = breath.scale
	}
	if breath.phase != model.PhaseInhale {
		t.Fatalf("cycle should wrap to inhale, got %s", breath.phase)
	}
	phases = append(phases, breath.phase)

	want := []model.Phase{model.PhaseInhale, model.PhaseHold, model.PhaseExhale, model.PhaseInhale}
	for i := range want {
		if phases[i] != want[i] {
			t.Fatalf("phase sequence %v, want %v", phases, want)
		}
	}
}

func TestHoldSkippedWhenZero(t *testing.T) {
	settings := model.Settings{
		Inhale: 5 * time.Second,
		Hold:   0,
		Exhale: 6 * time.Second,
		Total:  7 * time.Minute,
	}
	breath, player := newTestBreather(t, settings)

	// Two full cycles: 2 * (5s + 6s).
	sawHold := false
	for elapsed := time.Duration(0); elapsed < 22*time.Second; elapsed += step {
		breath.advance(step)
		if breath.phase == model.PhaseHold {
			sawHold = true
		}
	}
	if sawHold {
		t.Fatal("hold entered despite zero hold time")
	}

	// Cue order proves the sequence: inhale, exhale, inhale, exhale, ...
	cues := player.playedCues()
	if len(cues) < 4 {
		t.Fatalf("expected at least 4 cues over two cycles, got %d", len(cues))
	}
	for i, cue := range cues[:4] {
		want := CueInhale
		if i%2 == 1 {
			want = CueExhale
		}
		if cue != want {
			t.Fatalf("cue[%d] = %s, want %s (cues=%v)", i, cue, want, cues)
		}
	}
}

func TestCycleLengthWithoutHold(t *testing.T) {
	settings := model.Settings{
		Inhale: 5 * time.Second,
		Hold:   0,
		Exhale: 6 * time.Second,
		Total:  7 * time.Minute,
	}
	breath, _ := newTestBreather(t, settings)

	transitions := 0
	elapsed := time.Duration(0)
	for transitions < 2 {
		before := breath.phase
		breath.advance(step)
		elapsed += step
		if breath.phase != before {
			transitions++
		}
	}
	// One full cycle back to inhale takes 11 simulated seconds, give or
	// take the step quantization.
	if elapsed < 11*time.Second-2*step || elapsed > 11*time.Second+2*step {
		t.Fatalf("cycle length = %v, want ~11s", elapsed)
	}
}

func TestSessionEndsOnceAfterGraceDelay(t *testing.T) {
	settings := model.Settings{
		Inhale: 4 * time.Second,
		Exhale: 4 * time.Second,
		Total:  time.Minute,
	}
	breath, player := newTestBreather(t, settings)

	endSignals := 0
	breath.SetOnEnd(func() { endSignals++ })

	// Run to just before the countdown hits zero.
	simulate(breath, 59*time.Second)
	if breath.finishing {
		t.Fatal("finishing too early")
	}

	// Cross zero: finish cue fires, grace delay starts.
	simulate(breath, time.Second+step)
	if !breath.finishing {
		t.Fatal("expected finishing state at countdown zero")
	}
	cues := player.playedCues()
	if cues[len(cues)-1] != CueFinish {
		t.Fatalf("expected finish cue, last cue was %s", cues[len(cues)-1])
	}
	if endSignals != 0 {
		t.Fatal("end signal fired before grace delay")
	}

	// Grace delay passes: exactly one end signal, loop reports done.
	simulate(breath, 2*time.Second)
	if endSignals != 1 {
		t.Fatalf("end signals = %d, want 1", endSignals)
	}
	if keep := breath.advance(step); keep {
		// Loop already exited; a straggler tick must not re-fire the end.
		simulate(breath, time.Second)
	}
	if endSignals != 1 {
		t.Fatalf("end signals after extra ticks = %d, want 1", endSignals)
	}
}

func TestStopIsIdempotent(t *testing.T) {
	settings := model.DefaultSettings()
	player := &recordingPlayer{}
	breath, err := New(settings, player, Config{TickInterval: 10 * time.Millisecond})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	breath.Start()
	time.Sleep(50 * time.Millisecond)

	breath.Stop()
	breath.Stop()

	if breath.running {
		t.Fatal("engine still running after stop")
	}
	player.mu.Lock()
	stops := player.stops
	player.mu.Unlock()
	if stops == 0 {
		t.Fatal("stop must fade out audible cues")
	}
}

func TestStopCancelsInFlightAnimation(t *testing.T) {
	settings := model.Settings{
		Inhale: 8 * time.Second,
		Exhale: 8 * time.Second,
		Total:  5 * time.Minute,
	}
	breath, _ := newTestBreather(t, settings)

	simulate(breath, 2*time.Second)
	breath.Stop()

	_, _, _, frozen := breath.Snapshot()
	// Ticks after stop must not mutate state.
	breath.advance(step)
	breath.advance(step)
	_, _, _, after := breath.Snapshot()
	if after != frozen {
		t.Fatalf("scale changed after stop: %v -> %v", frozen, after)
	}
}

func TestPauseFreezesCountdowns(t *testing.T) {
	settings := model.DefaultSettings()
	breath, _ := newTestBreather(t, settings)

	simulate(breath, 3*time.Second)
	breath.Pause()
	_, remaining, _, scale := breath.Snapshot()

	simulate(breath, 5*time.Second)
	_, pausedRemaining, _, pausedScale := breath.Snapshot()
	if pausedRemaining != remaining || pausedScale != scale {
		t.Fatal("state advanced while paused")
	}

	breath.Resume()
	simulate(breath, time.Second+step)
	_, resumedRemaining, _, _ := breath.Snapshot()
	if resumedRemaining >= remaining {
		t.Fatal("countdown did not resume")
	}
}

func TestPreemptiveCueFade(t *testing.T) {
	settings := model.Settings{
		Inhale: 4 * time.Second,
		Exhale: 4 * time.Second,
		Total:  5 * time.Minute,
	}
	breath, player := newTestBreather(t, settings)

	// Just before the inhale ends, its cue must already be fading.
	simulate(breath, 3*time.Second+800*time.Millisecond)
	player.mu.Lock()
	faded := append([]Cue(nil), player.faded...)
	player.mu.Unlock()
	if len(faded) == 0 || faded[0] != CueInhale {
		t.Fatalf("expected inhale cue fading before phase end, got %v", faded)
	}
	if breath.phase != model.PhaseInhale {
		t.Fatalf("fade must start before the transition, but phase is %s", breath.phase)
	}
}

func TestUpdateSettingsRestartsCurrentPhase(t *testing.T) {
	settings := model.Settings{
		Inhale: 6 * time.Second,
		Exhale: 6 * time.Second,
		Total:  5 * time.Minute,
	}
	breath, _ := newTestBreather(t, settings)

	simulate(breath, 3*time.Second)
	if breath.phaseElapsed == 0 {
		t.Fatal("expected mid-phase progress")
	}

	updated := settings
	updated.Inhale = 9 * time.Second
	if err := breath.UpdateSettings(updated); err != nil {
		t.Fatalf("update: %v", err)
	}

	phase, _, phaseLeft, scale := breath.Snapshot()
	if phase != model.PhaseInhale || phaseLeft != 9*time.Second || scale != 1.0 {
		t.Fatalf("phase not restarted: phase=%s phaseLeft=%v scale=%v", phase, phaseLeft, scale)
	}
}

func TestSubscribeReceivesProgress(t *testing.T) {
	settings := model.DefaultSettings()
	player := &recordingPlayer{}
	breath, err := New(settings, player, Config{TickInterval: 10 * time.Millisecond})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	events := breath.Subscribe(16)
	breath.Start()
	defer breath.Stop()

	deadline := time.After(time.Second)
	for {
		select {
		case event := <-events:
			if event.Type == EventProgress {
				if event.Scale < 1.0 || event.Scale > 1.3 {
					t.Fatalf("scale out of range: %v", event.Scale)
				}
				return
			}
		case <-deadline:
			t.Fatal("no progress event within a second")
		}
	}
}
