// Package audio implements the cue player: short clips tied to phase
// transitions, started and stopped through gain ramps so consecutive cues
// crossfade instead of cutting each other off.
package audio

import (
	"bytes"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/effects"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/wav"

	"breathbox/internal/core/breather"
	"breathbox/internal/logger"
	"breathbox/resources"
)

var bufferFormat = beep.Format{
	SampleRate:  44100,
	NumChannels: 2,
	Precision:   2,
}

const (
	speakerBuffer = 100 * time.Millisecond
	fadeInWindow  = 200 * time.Millisecond
	overlapDelay  = 120 * time.Millisecond
	defaultFade   = 500 * time.Millisecond

	// Volume is a base-2 exponent in beep; -8 is below hearing.
	silentVolume = -8.0
	fullVolume   = 0.0
)

var cueFiles = map[breather.Cue]string{
	breather.CueInhale: "inhale.wav",
	breather.CueExhale: "exhale.wav",
	breather.CueFinish: "finish.wav",
}

// handle tracks one playing cue: its gain node, the ramp currently driving
// that gain, and a pending overlap timer if an out-fade has been scheduled.
type handle struct {
	cue     breather.Cue
	volume  *effects.Volume
	ramp    *ramp
	overlap *time.Timer
}

// Player plays named cues through the system speaker. At most one cue is
// meant to be audible at a time, with a brief crossfade window when one
// replaces another. Implements breather.CuePlayer.
type Player struct {
	log    *logger.Logger
	mu     sync.Mutex
	cues   map[breather.Cue]*beep.Buffer
	active map[breather.Cue]*handle
}

// Compile-time interface check.
var _ breather.CuePlayer = (*Player)(nil)

// NewPlayer initializes the speaker and loads all cue buffers. Assets that
// fail to load are replaced with synthesized tones; only a dead audio
// device is a hard error.
func NewPlayer(log *logger.Logger) (*Player, error) {
	if err := speaker.Init(bufferFormat.SampleRate, bufferFormat.SampleRate.N(speakerBuffer)); err != nil {
		return nil, fmt.Errorf("init speaker: %w", err)
	}

	player := &Player{
		log:    log,
		cues:   make(map[breather.Cue]*beep.Buffer, len(cueFiles)),
		active: make(map[breather.Cue]*handle),
	}
	for cue, fileName := range cueFiles {
		player.cues[cue] = player.loadCue(cue, fileName)
	}

	log.Debug("audio player initialized (rate=%d)", bufferFormat.SampleRate)
	return player, nil
}

// Play starts the named cue from its beginning at zero gain and ramps it to
// full volume. Any cue already playing keeps sounding for a short overlap,
// then fades itself out.
func (p *Player) Play(cue breather.Cue) {
	p.mu.Lock()
	defer p.mu.Unlock()

	buffer, ok := p.cues[cue]
	if !ok {
		p.log.Warn("audio: unknown cue %q", cue)
		return
	}

	// Restarting a cue that is still audible: silence the old instance
	// right away, the fresh one takes its slot.
	if previous, playing := p.active[cue]; playing {
		p.silenceLocked(previous)
		delete(p.active, cue)
	}

	// Other cues get their out-fade after the overlap window.
	for _, other := range p.active {
		p.scheduleFadeLocked(other, overlapDelay, defaultFade)
	}

	volume := &effects.Volume{
		Streamer: buffer.Streamer(0, buffer.Len()),
		Base:     2,
		Volume:   silentVolume,
	}
	current := &handle{cue: cue, volume: volume}
	p.active[cue] = current

	speaker.Play(volume)
	current.ramp = newRamp(fadeInWindow, silentVolume, fullVolume, p.setVolume(volume), nil)
	p.log.Debug("audio: playing cue %q", cue)
}

// FadeOutAndStop ramps the named cue to silence over the given window and
// detaches it. The next Play starts from a fresh streamer at full gain, so
// rewind and gain reset come for free.
func (p *Player) FadeOutAndStop(cue breather.Cue, fade time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	current, ok := p.active[cue]
	if !ok {
		return
	}
	delete(p.active, cue)
	p.fadeOutLocked(current, fade)
}

// StopAll fades every audible cue to silence and cancels any pending
// overlap timers. Used on teardown; nothing survives it.
func (p *Player) StopAll(fade time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for cue, current := range p.active {
		delete(p.active, cue)
		p.fadeOutLocked(current, fade)
	}
}

// scheduleFadeLocked arms the handle's overlap timer. An already armed
// handle keeps its earlier schedule.
func (p *Player) scheduleFadeLocked(current *handle, delay, fade time.Duration) {
	if current.overlap != nil {
		return
	}
	current.overlap = time.AfterFunc(delay, func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if p.active[current.cue] == current {
			delete(p.active, current.cue)
		}
		p.fadeOutLocked(current, fade)
	})
}

func (p *Player) fadeOutLocked(current *handle, fade time.Duration) {
	if current.overlap != nil {
		current.overlap.Stop()
		current.overlap = nil
	}
	if current.ramp != nil {
		current.ramp.cancel()
	}
	volume := current.volume
	current.ramp = newRamp(fade, p.currentVolume(volume), silentVolume, p.setVolume(volume), func() {
		speaker.Lock()
		volume.Silent = true
		speaker.Unlock()
	})
}

func (p *Player) silenceLocked(current *handle) {
	if current.overlap != nil {
		current.overlap.Stop()
		current.overlap = nil
	}
	if current.ramp != nil {
		current.ramp.cancel()
	}
	speaker.Lock()
	current.volume.Silent = true
	speaker.Unlock()
}

func (p *Player) setVolume(volume *effects.Volume) func(float64) {
	return func(value float64) {
		speaker.Lock()
		volume.Volume = value
		speaker.Unlock()
	}
}

func (p *Player) currentVolume(volume *effects.Volume) float64 {
	speaker.Lock()
	defer speaker.Unlock()
	return volume.Volume
}

// loadCue decodes an embedded cue asset, falling back to a synthesized tone
// when the asset is missing or malformed.
func (p *Player) loadCue(cue breather.Cue, fileName string) *beep.Buffer {
	data, err := resources.Cue(fileName)
	if err == nil {
		buffer, decodeErr := decodeCue(data)
		if decodeErr == nil {
			return buffer
		}
		err = decodeErr
	}
	p.log.Warn("audio: cue %q unavailable (%v), using synthesized tone", cue, err)
	return fallbackTone(cue)
}

func decodeCue(data []byte) (*beep.Buffer, error) {
	streamer, format, err := wav.Decode(io.NopCloser(bytes.NewReader(data)))
	if err != nil {
		return nil, fmt.Errorf("decode wav: %w", err)
	}
	defer streamer.Close()

	var source beep.Streamer = streamer
	if format.SampleRate != bufferFormat.SampleRate {
		source = beep.Resample(4, format.SampleRate, bufferFormat.SampleRate, streamer)
	}

	buffer := beep.NewBuffer(bufferFormat)
	buffer.Append(source)
	return buffer, nil
}

func fallbackTone(cue breather.Cue) *beep.Buffer {
	switch cue {
	case breather.CueInhale:
		return toneCue(300, 520, time.Second)
	case breather.CueExhale:
		return toneCue(520, 300, time.Second)
	default:
		return toneCue(660, 660, 1200*time.Millisecond)
	}
}
