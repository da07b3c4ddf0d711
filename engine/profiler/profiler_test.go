package profiler

import (
	"testing"
	"time"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func TestTickReportsOncePerInterval(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	p := NewProfiler(WithClock(clock.now), WithInterval(time.Second))

	for i := range 59 {
		clock.t = clock.t.Add(10 * time.Millisecond)
		if p.Tick() {
			t.Fatalf("tick %d reported before the interval elapsed", i)
		}
	}
	clock.t = time.Unix(1, 0)
	if !p.Tick() {
		t.Fatal("tick after one second did not report")
	}
	s := p.Last()
	if s.FPS != 60 {
		t.Errorf("FPS = %v, want 60", s.FPS)
	}
	if want := time.Second / 60; s.FrameTime != want {
		t.Errorf("FrameTime = %v, want %v", s.FrameTime, want)
	}
	if s.SysMB <= 0 {
		t.Errorf("SysMB = %v, want > 0", s.SysMB)
	}

	clock.t = clock.t.Add(time.Millisecond)
	if p.Tick() {
		t.Error("counter was not reset after a report")
	}
}

func TestIntervalDefaults(t *testing.T) {
	p := NewProfiler(WithInterval(0), WithClock(nil))
	if p.updateInterval != time.Second {
		t.Errorf("interval = %v, want 1s", p.updateInterval)
	}
	if p.now == nil {
		t.Error("clock was cleared")
	}
}
