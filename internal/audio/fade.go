package audio

import (
	"sync"
	"time"
)

const rampInterval = 20 * time.Millisecond

// ramp drives a control value from one level to another in fixed steps over
// a window. It runs on its own goroutine and can be cancelled at any point,
// so a newer fade can take over without two step loops fighting.
type ramp struct {
	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// newRamp starts a ramp. apply is called with each intermediate value; then
// runs once after the final value has been applied, unless the ramp was
// cancelled first.
func newRamp(duration time.Duration, from, to float64, apply func(float64), then func()) *ramp {
	r := &ramp{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go r.run(duration, from, to, apply, then)
	return r
}

func (r *ramp) run(duration time.Duration, from, to float64, apply func(float64), then func()) {
	defer close(r.done)

	steps := int(duration / rampInterval)
	if steps < 1 {
		steps = 1
	}

	ticker := time.NewTicker(rampInterval)
	defer ticker.Stop()

	for i := 1; i <= steps; i++ {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			apply(from + (to-from)*float64(i)/float64(steps))
		}
	}
	if then != nil {
		then()
	}
}

// cancel aborts the ramp. It does not wait for the goroutine to notice.
func (r *ramp) cancel() {
	r.once.Do(func() {
		close(r.stop)
	})
}
