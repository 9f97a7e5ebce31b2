package audio

import (
	"math"
	"time"

	"github.com/faiface/beep"
)

// Fallback cue synthesis. A missing or corrupt asset should cost one cue,
// not the session, so each named cue has a soft sine stand-in: the
// frequency glides from one pitch to another with an attack/release
// envelope to avoid clicks.

const (
	toneAmplitude = 0.4
	toneAttack    = 0.1
	toneRelease   = 0.3
)

func toneCue(startHz, endHz float64, duration time.Duration) *beep.Buffer {
	total := bufferFormat.SampleRate.N(duration)
	generated := 0
	phase := 0.0

	streamer := beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		if generated >= total {
			return 0, false
		}
		n := len(samples)
		if remaining := total - generated; n > remaining {
			n = remaining
		}
		for i := 0; i < n; i++ {
			progress := float64(generated+i) / float64(total)
			hz := startHz + (endHz-startHz)*progress
			phase += hz / float64(bufferFormat.SampleRate)
			value := toneAmplitude * envelope(progress) * math.Sin(2*math.Pi*phase)
			samples[i][0] = value
			samples[i][1] = value
		}
		generated += n
		return n, true
	})

	buffer := beep.NewBuffer(bufferFormat)
	buffer.Append(streamer)
	return buffer
}

// envelope shapes the tone: linear attack, flat sustain, linear release.
func envelope(progress float64) float64 {
	switch {
	case progress < toneAttack:
		return progress / toneAttack
	case progress > 1-toneRelease:
		return (1 - progress) / toneRelease
	default:
		return 1
	}
}
