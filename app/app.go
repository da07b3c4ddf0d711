// Package app is the dithering demo: a grid of textured meshes rendered offscreen and
// composited to the window through a selectable dither effect.
package app

import (
	"fmt"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-dither/common"
	"github.com/Carmen-Shannon/oxy-dither/engine"
	"github.com/Carmen-Shannon/oxy-dither/engine/camera"
	"github.com/Carmen-Shannon/oxy-dither/engine/loader"
	"github.com/Carmen-Shannon/oxy-dither/engine/model"
	"github.com/Carmen-Shannon/oxy-dither/engine/postfx"
	"github.com/Carmen-Shannon/oxy-dither/engine/renderer"
)

// Scene layout: one layer of instances per model type.
const (
	defaultPerSide = 5
	defaultSpacing = 1.5
	cubeHalfExtent = 0.5
)

// App is the dithering demo application.
type App interface {
	engine.App
	engine.Shutdowner

	// Send queues a command for the next OnUpdate. Safe to call from any goroutine.
	//
	// Parameters:
	//   - cmd: the command
	//
	// Returns:
	//   - bool: false when the queue is full and the command was dropped
	Send(cmd postfx.Command) bool

	// Snapshot returns the state published by the last update. Safe to call from any goroutine.
	Snapshot() postfx.Snapshot

	// HandleKey maps a window key code to a command or camera move. Window thread only.
	HandleKey(keyCode uint32)

	// HandleDrag orbits the camera. Window thread only.
	HandleDrag(dx, dy float64)

	// HandleScroll zooms the camera. Window thread only.
	HandleScroll(delta float32)

	// Compositor returns the post-processing pipeline, nil before OnInit.
	Compositor() postfx.Compositor

	// Instances returns the instances drawn every frame.
	Instances() []postfx.Instance
}

// ditherApp is the implementation of the App interface.
type ditherApp struct {
	params     *postfx.Params
	compositor postfx.Compositor
	loader     loader.Loader
	controller camera.CameraController

	modelPath    string
	modelScale   float32
	texturePaths [2]string
	perSide      int
	spacing      float32
	culling      bool

	commands chan postfx.Command
	sources  []<-chan postfx.Command
	sinks    []func(postfx.Snapshot)
	quit     <-chan struct{}

	snapshot  atomic.Pointer[postfx.Snapshot]
	published postfx.Snapshot

	overlay   model.LineData
	models    []model.Model
	textures  []renderer.Texture
	views     []renderer.TextureView
	instances []postfx.Instance
}

var _ App = &ditherApp{}

// NewApp creates the demo with the given options. Nothing touches the GPU before OnInit.
//
// Parameters:
//   - options: functional options
//
// Returns:
//   - App: the application
func NewApp(options ...AppBuilderOption) App {
	a := &ditherApp{
		perSide:    defaultPerSide,
		spacing:    defaultSpacing,
		modelScale: 1,
		commands:   make(chan postfx.Command, 64),
	}
	for _, opt := range options {
		opt(a)
	}
	if a.params == nil {
		a.params = postfx.NewParams()
	}
	if a.loader == nil {
		a.loader = loader.NewLoader()
	}
	a.overlay = model.XZSquareGrid(-50, 50, 0, 1, model.ColourDimGray)
	a.overlay.Merge(model.AxisTriad(15))

	s := a.params.Snapshot()
	a.snapshot.Store(&s)
	return a
}

func (a *ditherApp) OnInit(s *engine.Systems) error {
	drawables, err := a.loadScene(s.Renderer)
	if err != nil {
		return err
	}
	a.instances = postfx.GridInstances(drawables, a.perSide, a.spacing)

	c, err := postfx.NewCompositor(s.Renderer, s.Width, s.Height,
		postfx.WithPostAlgorithm(a.params.Algorithm()),
		postfx.WithFrustumCulling(a.culling),
	)
	if err != nil {
		return fmt.Errorf("create compositor: %w", err)
	}
	a.compositor = c

	centre := float32(a.perSide-1) * a.spacing / 2
	height := float32(len(drawables)-1) * a.spacing / 2
	a.controller = camera.NewCameraController(camera.WithTarget(centre, height, centre))
	s.Camera.SetController(a.controller)
	s.Camera.Update()

	a.publish(s)
	common.Logger().Info("scene ready", "instances", len(a.instances), "algorithm", a.params.Algorithm().Name(), "palette", a.params.PaletteLabel())
	return nil
}

func (a *ditherApp) OnUpdate(s *engine.Systems) error {
	if a.quit != nil {
		select {
		case <-a.quit:
			s.Quit()
			a.quit = nil
		default:
		}
	}

	if err := a.drain(s, a.commands); err != nil {
		return err
	}
	for _, src := range a.sources {
		if err := a.drain(s, src); err != nil {
			return err
		}
	}

	s.Camera.Update()
	if a.params.Grid() {
		s.Debug.Merge(a.overlay)
	}
	a.publish(s)
	return nil
}

func (a *ditherApp) OnRender(s *engine.Systems) error {
	return a.compositor.Render(postfx.Frame{
		Camera:    s.Camera,
		Params:    a.params,
		Instances: a.instances,
		Lines:     s.Debug,
		Time:      s.Elapsed,
	})
}

func (a *ditherApp) OnResize(s *engine.Systems) error {
	return a.compositor.Resize(s.Width, s.Height)
}

func (a *ditherApp) OnShutdown(*engine.Systems) {
	if a.compositor != nil {
		a.compositor.Release()
		a.compositor = nil
	}
	a.releaseScene()
}

func (a *ditherApp) Send(cmd postfx.Command) bool {
	select {
	case a.commands <- cmd:
		return true
	default:
		common.Logger().Warn("command dropped", "command", cmd.String())
		return false
	}
}

func (a *ditherApp) Snapshot() postfx.Snapshot {
	return *a.snapshot.Load()
}

func (a *ditherApp) HandleKey(keyCode uint32) {
	if a.controller != nil {
		switch keyCode {
		case common.KeyLeft:
			a.controller.Orbit(-1, 0)
			return
		case common.KeyRight:
			a.controller.Orbit(1, 0)
			return
		case common.KeyUp:
			a.controller.Orbit(0, 1)
			return
		case common.KeyDown:
			a.controller.Orbit(0, -1)
			return
		case common.KeySpace:
			a.controller.Reset()
			return
		}
	}
	// Printable keys arrive as their upper-case ASCII code.
	if keyCode > 0x7f {
		return
	}
	if cmd, ok := postfx.CommandForKey(rune(keyCode), a.Snapshot()); ok {
		a.Send(cmd)
	}
}

func (a *ditherApp) HandleDrag(dx, dy float64) {
	if a.controller != nil {
		a.controller.Drag(dx, dy)
	}
}

func (a *ditherApp) HandleScroll(delta float32) {
	if a.controller != nil {
		a.controller.Zoom(delta)
	}
}

func (a *ditherApp) Compositor() postfx.Compositor {
	return a.compositor
}

func (a *ditherApp) Instances() []postfx.Instance {
	return a.instances
}

// drain applies every command already queued on ch.
func (a *ditherApp) drain(s *engine.Systems, ch <-chan postfx.Command) error {
	for {
		select {
		case cmd, ok := <-ch:
			if !ok {
				return nil
			}
			if err := a.apply(s, cmd); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

// apply runs one transition and whatever it requires before the next frame.
func (a *ditherApp) apply(s *engine.Systems, cmd postfx.Command) error {
	effect := a.params.Apply(cmd)
	if effect.Has(postfx.EffectRebuildProgram) {
		if err := a.compositor.SetAlgorithm(a.params.Algorithm()); err != nil {
			return fmt.Errorf("switch to %s: %w", a.params.Algorithm().Name(), err)
		}
	}
	if effect.Has(postfx.EffectCamera) && cmd.Kind == postfx.CommandToggleProjection {
		ortho := s.Camera.ToggleProjection()
		common.Logger().Debug("projection toggled", "orthographic", ortho)
	}
	return nil
}

// publish hands the current state to the sinks when it changed since the last call.
func (a *ditherApp) publish(s *engine.Systems) {
	snap := a.params.Snapshot()
	snap.Orthographic = s.Camera.Orthographic()
	if snap == a.published {
		return
	}
	a.published = snap
	a.snapshot.Store(&snap)
	for _, sink := range a.sinks {
		sink(snap)
	}
}
