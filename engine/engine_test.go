package engine

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-dither/engine/renderer"
	"github.com/Carmen-Shannon/oxy-dither/engine/renderer/renderertest"
	"github.com/Carmen-Shannon/oxy-dither/engine/window"
	"github.com/cogentcore/webgpu/wgpu"
)

// fakeWindow runs the message loop without a display. events[i] runs before update i.
type fakeWindow struct {
	width, height int
	running       bool
	iterations    int
	events        map[int][]func(w *fakeWindow)

	onUpdate func()
	onResize func(width, height int)
}

var _ window.Window = &fakeWindow{}

func newFakeWindow(width, height int) *fakeWindow {
	return &fakeWindow{width: width, height: height, running: true, events: make(map[int][]func(*fakeWindow))}
}

func (w *fakeWindow) at(iteration int, ev func(w *fakeWindow)) {
	w.events[iteration] = append(w.events[iteration], ev)
}

func (w *fakeWindow) resize(width, height int) func(*fakeWindow) {
	return func(w *fakeWindow) {
		w.width, w.height = width, height
		if w.onResize != nil {
			w.onResize(width, height)
		}
	}
}

func (w *fakeWindow) SetUpdateCallback(cb func())                  { w.onUpdate = cb }
func (w *fakeWindow) SetResizeCallback(cb func(width, height int)) { w.onResize = cb }
func (w *fakeWindow) SetScrollCallback(func(float32))              {}
func (w *fakeWindow) SetKeyDownCallback(func(uint32))              {}
func (w *fakeWindow) SetKeyUpCallback(func(uint32))                {}
func (w *fakeWindow) SetDragCallback(func(dx, dy float64))         {}
func (w *fakeWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor   { return nil }
func (w *fakeWindow) SetTitle(string)                              {}
func (w *fakeWindow) IsRunning() bool                              { return w.running }
func (w *fakeWindow) RequestClose()                                { w.running = false }
func (w *fakeWindow) Close() error                                 { w.running = false; return nil }
func (w *fakeWindow) Width() int                                   { return w.width }
func (w *fakeWindow) Height() int                                  { return w.height }

func (w *fakeWindow) ProcessMessages() {
	for w.running && w.iterations < 1000 {
		for _, ev := range w.events[w.iterations] {
			ev(w)
		}
		w.iterations++
		if w.onUpdate != nil {
			w.onUpdate()
		}
	}
}

// recordingApp logs every callback and can fail one of them.
type recordingApp struct {
	calls    []string
	failOn   string
	failAt   uint64
	err      error
	shutdown int
	debug    []int
	sizes    [][2]int
}

func (a *recordingApp) step(name string, s *Systems) error {
	a.calls = append(a.calls, name)
	if name == a.failOn && s.Frame >= a.failAt {
		return a.err
	}
	return nil
}

func (a *recordingApp) OnInit(s *Systems) error { return a.step(PhaseInit, s) }

func (a *recordingApp) OnUpdate(s *Systems) error {
	a.debug = append(a.debug, len(s.Debug.Vertices))
	s.Debug.Append([3]float32{}, [3]float32{1, 0, 0}, [3]float32{1, 0, 0})
	return a.step(PhaseUpdate, s)
}

func (a *recordingApp) OnRender(s *Systems) error { return a.step(PhaseRender, s) }

func (a *recordingApp) OnResize(s *Systems) error {
	a.sizes = append(a.sizes, [2]int{s.Width, s.Height})
	return a.step(PhaseResize, s)
}

func (a *recordingApp) OnShutdown(*Systems) { a.shutdown++ }

func newTestEngine(t *testing.T, w *fakeWindow, options ...EngineBuilderOption) (Engine, *renderertest.Backend) {
	t.Helper()
	b := renderertest.NewBackend()
	r, err := renderer.NewRenderer(b, renderer.WithSurfaceSize(w.width, w.height))
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	return NewEngine(append([]EngineBuilderOption{WithWindow(w), WithRenderer(r)}, options...)...), b
}

func TestRunCallsInitOnceThenUpdateAndRenderPerFrame(t *testing.T) {
	w := newFakeWindow(800, 600)
	e, b := newTestEngine(t, w, WithMaxFrames(3))
	app := &recordingApp{}

	if err := e.Run(app); err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []string{PhaseInit, PhaseUpdate, PhaseRender, PhaseUpdate, PhaseRender, PhaseUpdate, PhaseRender}
	if got := strings.Join(app.calls, ","); got != strings.Join(want, ",") {
		t.Errorf("calls = %s, want %s", got, strings.Join(want, ","))
	}
	if b.Frames != 3 || b.Presented != 3 {
		t.Errorf("frames = %d, presented = %d, want 3 and 3", b.Frames, b.Presented)
	}
	if app.shutdown != 1 {
		t.Errorf("OnShutdown called %d times, want 1", app.shutdown)
	}
	if e.Systems().Frame != 3 {
		t.Errorf("Frame = %d, want 3", e.Systems().Frame)
	}
}

func TestDebugLinesResetBeforeUpdate(t *testing.T) {
	w := newFakeWindow(800, 600)
	e, _ := newTestEngine(t, w, WithMaxFrames(3))
	app := &recordingApp{}
	if err := e.Run(app); err != nil {
		t.Fatalf("Run: %v", err)
	}
	for i, n := range app.debug {
		if n != 0 {
			t.Errorf("frame %d started with %d debug vertices", i, n)
		}
	}
}

func TestResizeIsCoalescedAndRunsBeforeUpdate(t *testing.T) {
	w := newFakeWindow(800, 600)
	w.at(1, w.resize(1024, 768))
	w.at(1, w.resize(1920, 1080))
	e, b := newTestEngine(t, w, WithMaxFrames(2))
	app := &recordingApp{}

	if err := e.Run(app); err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []string{PhaseInit, PhaseUpdate, PhaseRender, PhaseResize, PhaseUpdate, PhaseRender}
	if got := strings.Join(app.calls, ","); got != strings.Join(want, ",") {
		t.Errorf("calls = %s, want %s", got, strings.Join(want, ","))
	}
	if len(app.sizes) != 1 || app.sizes[0] != [2]int{1920, 1080} {
		t.Errorf("resize sizes = %v, want [[1920 1080]]", app.sizes)
	}
	if b.Width != 1920 || b.Height != 1080 {
		t.Errorf("surface = %dx%d, want 1920x1080", b.Width, b.Height)
	}
	if got, want := e.Systems().Camera.Aspect(), float32(1920)/1080; got != want {
		t.Errorf("camera aspect = %v, want %v", got, want)
	}
}

func TestResizeToCurrentSizeIsIgnored(t *testing.T) {
	w := newFakeWindow(800, 600)
	w.at(1, w.resize(800, 600))
	e, _ := newTestEngine(t, w, WithMaxFrames(2))
	app := &recordingApp{}
	if err := e.Run(app); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(app.sizes) != 0 {
		t.Errorf("OnResize called with %v", app.sizes)
	}
}

func TestMinimisedWindowSkipsFrames(t *testing.T) {
	w := newFakeWindow(800, 600)
	w.at(1, w.resize(0, 0))
	w.at(3, w.resize(640, 480))
	e, b := newTestEngine(t, w, WithMaxFrames(2))
	app := &recordingApp{}

	if err := e.Run(app); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if w.iterations != 4 {
		t.Errorf("iterations = %d, want 4", w.iterations)
	}
	if b.Frames != 2 {
		t.Errorf("frames = %d, want 2", b.Frames)
	}
	if len(app.sizes) != 1 || app.sizes[0] != [2]int{640, 480} {
		t.Errorf("resize sizes = %v, want [[640 480]]", app.sizes)
	}
}

func TestCallbackErrorStopsTheLoop(t *testing.T) {
	errBoom := errors.New("boom")
	cases := []struct {
		phase  string
		failAt uint64
		frames int
	}{
		{PhaseUpdate, 1, 1},
		{PhaseRender, 1, 2},
		{PhaseResize, 0, 1},
	}
	for _, tc := range cases {
		t.Run(tc.phase, func(t *testing.T) {
			w := newFakeWindow(800, 600)
			w.at(1, w.resize(1920, 1080))
			e, b := newTestEngine(t, w, WithMaxFrames(10))
			app := &recordingApp{failOn: tc.phase, failAt: tc.failAt, err: errBoom}

			err := e.Run(app)
			if !errors.Is(err, errBoom) {
				t.Fatalf("Run error = %v, want %v", err, errBoom)
			}
			if !strings.HasPrefix(err.Error(), tc.phase+":") {
				t.Errorf("error %q is not wrapped with %q", err, tc.phase)
			}
			if b.Frames != tc.frames {
				t.Errorf("frames begun = %d, want %d", b.Frames, tc.frames)
			}
			if last := app.calls[len(app.calls)-1]; last != tc.phase {
				t.Errorf("last callback = %s, want %s", last, tc.phase)
			}
			if app.shutdown != 1 {
				t.Errorf("OnShutdown called %d times, want 1", app.shutdown)
			}
		})
	}
}

func TestInitErrorSkipsFramesAndShutdown(t *testing.T) {
	w := newFakeWindow(800, 600)
	e, b := newTestEngine(t, w, WithMaxFrames(3))
	app := &recordingApp{failOn: PhaseInit, err: fmt.Errorf("no device")}

	err := e.Run(app)
	if err == nil || !strings.HasPrefix(err.Error(), PhaseInit+":") {
		t.Fatalf("Run error = %v, want an %s error", err, PhaseInit)
	}
	if b.Frames != 0 || w.iterations != 0 {
		t.Errorf("frames = %d, iterations = %d after a failed init", b.Frames, w.iterations)
	}
	if app.shutdown != 0 {
		t.Errorf("OnShutdown called after a failed init")
	}
}

func TestFrameTiming(t *testing.T) {
	now := time.Unix(100, 0)
	clock := func() time.Time {
		now = now.Add(250 * time.Millisecond)
		return now
	}
	w := newFakeWindow(800, 600)
	e, _ := newTestEngine(t, w, WithMaxFrames(3), WithClock(clock, nil))

	var deltas, elapsed []float32
	app := &timingApp{onUpdate: func(s *Systems) {
		deltas = append(deltas, s.DeltaTime)
		elapsed = append(elapsed, s.Elapsed)
	}}
	if err := e.Run(app); err != nil {
		t.Fatalf("Run: %v", err)
	}
	for i := range deltas {
		if deltas[i] != 0.25 {
			t.Errorf("frame %d delta = %v, want 0.25", i, deltas[i])
		}
		if want := 0.25 * float32(i+1); elapsed[i] != want {
			t.Errorf("frame %d elapsed = %v, want %v", i, elapsed[i], want)
		}
	}
}

func TestFrameCapWaitsOnInjectedClock(t *testing.T) {
	now := time.Unix(100, 0)
	clock := func() time.Time {
		now = now.Add(2 * time.Millisecond)
		return now
	}
	var sleeps []time.Duration
	sleep := func(d time.Duration) {
		sleeps = append(sleeps, d)
		now = now.Add(d)
	}
	w := newFakeWindow(800, 600)
	e, _ := newTestEngine(t, w, WithMaxFrames(3), WithRenderFrameLimit(100), WithClock(clock, sleep))

	if err := e.Run(&timingApp{onUpdate: func(*Systems) {}}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(sleeps) != 3 {
		t.Fatalf("slept %d times, want once per frame: %v", len(sleeps), sleeps)
	}
	for i, d := range sleeps {
		if d != 8*time.Millisecond {
			t.Errorf("frame %d slept %v, want 8ms of the 10ms budget", i, d)
		}
	}
}

type timingApp struct {
	onUpdate func(*Systems)
}

func (a *timingApp) OnInit(*Systems) error   { return nil }
func (a *timingApp) OnResize(*Systems) error { return nil }
func (a *timingApp) OnRender(*Systems) error { return nil }
func (a *timingApp) OnUpdate(s *Systems) error {
	a.onUpdate(s)
	return nil
}

func TestRunWithoutApp(t *testing.T) {
	e, _ := newTestEngine(t, newFakeWindow(800, 600))
	if err := e.Run(nil); !errors.Is(err, ErrNoApp) {
		t.Errorf("Run(nil) = %v, want ErrNoApp", err)
	}
}

func TestNewEngineRequiresWindowAndRenderer(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("NewEngine without a window did not panic")
		}
	}()
	NewEngine()
}

func TestQuitStopsAfterCurrentFrame(t *testing.T) {
	w := newFakeWindow(800, 600)
	var e Engine
	e, b := newTestEngine(t, w)
	app := &timingApp{onUpdate: func(s *Systems) {
		if s.Frame == 1 {
			e.Quit()
			e.Quit()
		}
	}}
	if err := e.Run(app); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if b.Frames != 2 {
		t.Errorf("frames = %d, want 2", b.Frames)
	}
}
