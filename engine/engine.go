// Package engine runs the frame loop that drives an App.
//
// The loop is single threaded: window events, resize handling, update and render all happen on the
// goroutine that called Run, in that order, once per frame. Any callback error is fatal. The loop
// stops and Run returns the error wrapped with the name of the failing phase.
package engine

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-dither/common"
	"github.com/Carmen-Shannon/oxy-dither/engine/camera"
	"github.com/Carmen-Shannon/oxy-dither/engine/model"
	"github.com/Carmen-Shannon/oxy-dither/engine/profiler"
	"github.com/Carmen-Shannon/oxy-dither/engine/renderer"
	"github.com/Carmen-Shannon/oxy-dither/engine/window"
)

// Phase names used to wrap callback errors.
const (
	PhaseInit   = "on_init"
	PhaseResize = "on_resize"
	PhaseUpdate = "on_update"
	PhaseRender = "on_render"
)

// ErrNoApp is returned by Run when given a nil App.
var ErrNoApp = errors.New("engine: no app")

// Systems is the handle passed to every App callback.
type Systems struct {
	// Renderer is the GPU device and context.
	Renderer renderer.Renderer
	// Camera is the scene camera. Its aspect ratio follows the window.
	Camera camera.Camera
	// Debug collects debug line segments. It is emptied before every OnUpdate.
	Debug *model.LineData

	// Width and Height are the current output size in pixels.
	Width, Height int
	// DeltaTime is the time since the previous frame in seconds.
	DeltaTime float32
	// Elapsed is the time since the first frame in seconds.
	Elapsed float32
	// Frame counts completed frames.
	Frame uint64

	// Quit ends the loop after the current frame.
	Quit func()
}

// App is implemented by the application driven by the engine.
type App interface {
	// OnInit is called once before the first frame.
	OnInit(s *Systems) error
	// OnUpdate is called once per frame before OnRender.
	OnUpdate(s *Systems) error
	// OnRender records the frame. The renderer frame is open for the duration of the call.
	OnRender(s *Systems) error
	// OnResize is called before OnUpdate when the output size changed since the previous frame.
	OnResize(s *Systems) error
}

// Shutdowner is implemented by apps that release resources when the loop ends.
type Shutdowner interface {
	OnShutdown(s *Systems)
}

// engine implements the Engine interface.
type engine struct {
	window  window.Window
	systems *Systems

	profiler         *profiler.Profiler
	profilingEnabled bool

	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped
	maxFrames        uint64

	now        func() time.Time
	sleep      func(time.Duration)
	start      time.Time
	lastRender time.Time

	// Latest size reported by the window since the previous frame.
	resizePending bool
	resizeWidth   int
	resizeHeight  int

	err      error
	quitOnce sync.Once
}

// Engine is the main entry point for the engine.
// It owns the frame loop and the Systems handed to the App.
type Engine interface {
	// Window returns the underlying window.
	//
	// Returns:
	//   - window.Window: the window instance
	Window() window.Window

	// Systems returns the handle passed to the App callbacks.
	Systems() *Systems

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// SetRenderFrameLimit sets an optional render frame rate cap in frames per second.
	// Pass 0 to uncap the render loop (default).
	//
	// Parameters:
	//   - fps: maximum render frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// Run initialises app and drives it until the window closes, Quit is called or a callback
	// fails. OnShutdown, when implemented, runs before Run returns whenever OnInit succeeded.
	//
	// Parameters:
	//   - app: the application
	//
	// Returns:
	//   - error: the first callback or renderer error, wrapped with its phase
	Run(app App) error

	// Quit makes Run return after the current frame. Safe to call multiple times.
	Quit()
}

// NewEngine creates a new Engine instance with the provided options.
// A window and a renderer are required; NewEngine panics without them. A camera matching the
// window aspect is created when none is given.
//
// Parameters:
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{
		systems:  &Systems{Debug: &model.LineData{}},
		profiler: profiler.NewProfiler(),
		now:      time.Now,
		sleep:    time.Sleep,
	}
	for _, opt := range options {
		opt(e)
	}
	if e.window == nil {
		panic("engine: no window configured")
	}
	if e.systems.Renderer == nil {
		panic("engine: no renderer configured")
	}

	s := e.systems
	s.Quit = e.Quit
	s.Width, s.Height = e.window.Width(), e.window.Height()
	if s.Camera == nil {
		s.Camera = camera.NewCamera()
	}
	if s.Width > 0 && s.Height > 0 {
		s.Camera.SetAspect(float32(s.Width) / float32(s.Height))
	}

	e.window.SetResizeCallback(func(width, height int) {
		e.resizePending = true
		e.resizeWidth, e.resizeHeight = width, height
	})
	return e
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Systems() *Systems {
	return e.systems
}

// EnableProfiler enables performance profiling output to the log.
func (e *engine) EnableProfiler() {
	e.profilingEnabled = true
}

// DisableProfiler disables performance profiling output.
func (e *engine) DisableProfiler() {
	e.profilingEnabled = false
}

// SetRenderFrameLimit sets an optional render frame rate cap.
// Pass 0 to uncap the render loop.
func (e *engine) SetRenderFrameLimit(fps float64) {
	e.renderFrameLimit = frameDuration(fps)
}

func (e *engine) Quit() {
	e.quitOnce.Do(e.window.RequestClose)
}

func (e *engine) Run(app App) error {
	if app == nil {
		return ErrNoApp
	}
	s := e.systems
	log := common.Logger()

	if err := app.OnInit(s); err != nil {
		return fmt.Errorf("%s: %w", PhaseInit, err)
	}
	if sd, ok := app.(Shutdowner); ok {
		defer sd.OnShutdown(s)
	}
	log.Info("engine started", "width", s.Width, "height", s.Height)

	e.start = e.now()
	e.lastRender = e.start
	e.window.SetUpdateCallback(func() {
		if e.err != nil {
			return
		}
		if err := e.frame(app); err != nil {
			e.err = err
			e.Quit()
		}
	})
	e.window.ProcessMessages()
	e.window.SetUpdateCallback(nil)

	if e.err != nil {
		log.Error("engine stopped", "frame", s.Frame, "err", e.err)
		return e.err
	}
	log.Info("engine stopped", "frame", s.Frame)
	return nil
}

// frame runs one iteration of the loop: pending resize, update, render, present.
func (e *engine) frame(app App) error {
	s := e.systems

	now := e.now()
	s.DeltaTime = float32(now.Sub(e.lastRender).Seconds())
	s.Elapsed = float32(now.Sub(e.start).Seconds())
	e.lastRender = now

	if e.resizePending {
		// A minimised window reports 0x0; nothing can be drawn until it comes back.
		if e.resizeWidth <= 0 || e.resizeHeight <= 0 {
			return nil
		}
		e.resizePending = false
		if e.resizeWidth != s.Width || e.resizeHeight != s.Height {
			if err := e.resize(app, e.resizeWidth, e.resizeHeight); err != nil {
				return err
			}
		}
	}

	s.Debug.Reset()
	if err := app.OnUpdate(s); err != nil {
		return fmt.Errorf("%s: %w", PhaseUpdate, err)
	}

	r := s.Renderer
	if err := r.BeginFrame(); err != nil {
		return fmt.Errorf("begin frame: %w", err)
	}
	if err := app.OnRender(s); err != nil {
		return fmt.Errorf("%s: %w", PhaseRender, err)
	}
	if err := r.EndFrame(); err != nil {
		return fmt.Errorf("end frame: %w", err)
	}
	r.Present()
	s.Frame++

	if e.profilingEnabled && e.profiler != nil {
		e.profiler.Tick()
	}
	if e.maxFrames > 0 && s.Frame >= e.maxFrames {
		e.Quit()
	}

	if e.renderFrameLimit > 0 {
		if remaining := e.renderFrameLimit - e.now().Sub(now); remaining > 0 {
			e.sleep(remaining)
		}
	}
	return nil
}

// resize reconfigures the surface, updates the camera aspect and notifies app.
func (e *engine) resize(app App, width, height int) error {
	s := e.systems
	if err := s.Renderer.Resize(width, height); err != nil {
		return fmt.Errorf("%s: %w", PhaseResize, err)
	}
	common.Logger().Debug("resize", "from_width", s.Width, "from_height", s.Height, "width", width, "height", height)
	s.Width, s.Height = width, height
	s.Camera.SetAspect(float32(width) / float32(height))
	if err := app.OnResize(s); err != nil {
		return fmt.Errorf("%s: %w", PhaseResize, err)
	}
	return nil
}

// frameDuration converts a frame rate into a frame period; fps <= 0 means uncapped.
func frameDuration(fps float64) time.Duration {
	if fps <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / fps)
}
