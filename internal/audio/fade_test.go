package audio

import (
	"sync"
	"testing"
	"time"
)

// collectValues returns an apply func plus an accessor for recorded values.
func collectValues() (func(float64), func() []float64) {
	var mu sync.Mutex
	var values []float64
	apply := func(v float64) {
		mu.Lock()
		defer mu.Unlock()
		values = append(values, v)
	}
	snapshot := func() []float64 {
		mu.Lock()
		defer mu.Unlock()
		return append([]float64(nil), values...)
	}
	return apply, snapshot
}

func TestRampReachesTarget(t *testing.T) {
	apply, snapshot := collectValues()
	done := make(chan struct{})

	r := newRamp(100*time.Millisecond, -8, 0, apply, func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("ramp did not complete")
	}
	<-r.done

	values := snapshot()
	if len(values) == 0 {
		t.Fatal("no values applied")
	}
	if last := values[len(values)-1]; last != 0 {
		t.Fatalf("final value = %v, want 0", last)
	}
	for i := 1; i < len(values); i++ {
		if values[i] < values[i-1] {
			t.Fatalf("ramp not monotonic: %v", values)
		}
	}
}

func TestRampCancelStopsUpdatesAndSkipsThen(t *testing.T) {
	apply, snapshot := collectValues()
	thenRan := make(chan struct{}, 1)

	r := newRamp(time.Second, 0, -8, apply, func() { thenRan <- struct{}{} })
	time.Sleep(60 * time.Millisecond)
	r.cancel()
	<-r.done

	count := len(snapshot())
	time.Sleep(80 * time.Millisecond)
	if len(snapshot()) != count {
		t.Fatal("values kept arriving after cancel")
	}
	select {
	case <-thenRan:
		t.Fatal("then ran despite cancellation")
	default:
	}
}

func TestRampCancelIsIdempotent(t *testing.T) {
	apply, _ := collectValues()
	r := newRamp(time.Second, 0, 1, apply, nil)
	r.cancel()
	r.cancel()
	<-r.done
}

func TestRampZeroDurationAppliesOnce(t *testing.T) {
	apply, snapshot := collectValues()
	r := newRamp(0, -8, 0, apply, nil)
	<-r.done

	values := snapshot()
	if len(values) != 1 || values[0] != 0 {
		t.Fatalf("want single final value, got %v", values)
	}
}
