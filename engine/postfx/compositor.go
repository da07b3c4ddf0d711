// Package postfx renders a scene into offscreen colour and depth surfaces and composites it into
// the swap chain through a selectable dithering post effect.
//
// A frame runs three passes in a fixed order:
//
//  1. Scene pass: the surfaces are the render targets. Per-frame uniforms are uploaded once,
//     then every instance is drawn with its own MVP.
//  2. Post pass: the swap chain is the only target and the two surfaces are shader inputs.
//     The full-screen quad is drawn with the program of the active algorithm and the inputs are
//     unbound again.
//  3. Overlay pass: debug lines are drawn into the swap chain, depth tested against the depth
//     surface.
//
// No texture is ever bound as a target and an input at once.
package postfx

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-dither/common"
	"github.com/Carmen-Shannon/oxy-dither/engine/camera"
	"github.com/Carmen-Shannon/oxy-dither/engine/dither"
	"github.com/Carmen-Shannon/oxy-dither/engine/model"
	"github.com/Carmen-Shannon/oxy-dither/engine/renderer"
)

// Frame is everything the compositor reads to render one frame.
type Frame struct {
	Camera    camera.Camera
	Params    *Params
	Instances []Instance
	// Lines are the debug lines collected this frame. Nil or empty skips the overlay pass.
	Lines *model.LineData
	// Time is the elapsed time in seconds.
	Time float32
}

// Stats reports what the last Render drew.
type Stats struct {
	Drawn  int
	Culled int
}

// compositor is the implementation of the Compositor interface.
type compositor struct {
	renderer renderer.Renderer
	surfaces Surfaces

	perFrame renderer.Buffer
	perDraw  renderer.Buffer
	sampler  renderer.Sampler
	quad     model.Model

	scene   scenePass
	post    postPass
	overlay overlayPass

	// pending configuration collected from builder options
	algorithm dither.Algorithm
	culling   bool
	clear     renderer.ClearValues
}

// Compositor owns every GPU resource of the post-processing pipeline and records the scene,
// post and overlay passes of a frame. It must be driven from the frame thread, between the
// backend's BeginFrame and EndFrame.
type Compositor interface {
	// Surfaces returns the offscreen surface manager.
	Surfaces() Surfaces

	// Resize recreates the offscreen surfaces at the new output size.
	//
	// Parameters:
	//   - width: the output width in pixels
	//   - height: the output height in pixels
	//
	// Returns:
	//   - error: an error if the surfaces cannot be allocated
	Resize(width, height int) error

	// Algorithm returns the algorithm of the compiled post program.
	Algorithm() dither.Algorithm

	// SetAlgorithm recompiles the post program for a. Selecting the current algorithm is a no-op.
	//
	// Parameters:
	//   - a: the algorithm to switch to
	//
	// Returns:
	//   - error: an error if compilation fails; the previous program stays in use
	SetAlgorithm(a dither.Algorithm) error

	// Render records the three passes of one frame.
	//
	// Parameters:
	//   - frame: camera, parameters, instances, debug lines and time
	//
	// Returns:
	//   - error: the first failure of any pass
	Render(frame Frame) error

	// Stats returns the instance counts of the last Render.
	Stats() Stats

	// Release destroys every resource the compositor created. Compiled programs stay in the
	// renderer's cache and are released with it.
	Release()
}

var _ Compositor = &compositor{}

// NewCompositor compiles the scene, post and overlay programs, creates the uniform buffers,
// sampler and full-screen quad, and allocates surfaces at width x height.
//
// Parameters:
//   - r: the renderer to draw with
//   - width: the output width in pixels
//   - height: the output height in pixels
//   - options: functional options to configure the compositor
//
// Returns:
//   - Compositor: the ready compositor
//   - error: the first creation failure; everything created before it is released
func NewCompositor(r renderer.Renderer, width, height int, options ...CompositorBuilderOption) (_ Compositor, err error) {
	c := &compositor{
		renderer:  r,
		surfaces:  NewSurfaces(r),
		algorithm: dither.AlgorithmBayer,
		clear:     renderer.ClearValues{Colour: [4]float64{0, 0, 0, 0}, Depth: 1, Stencil: 0},
	}
	for _, option := range options {
		option(c)
	}
	defer func() {
		if err != nil {
			c.Release()
		}
	}()

	scene, err := newScenePipeline()
	if err != nil {
		return nil, err
	}
	overlay, err := newOverlayPipeline()
	if err != nil {
		return nil, err
	}
	if err := r.RegisterPipelines(scene, overlay); err != nil {
		return nil, err
	}

	if c.perFrame, err = r.CreateUniformBuffer("postfx.per_frame", PerFrameSize); err != nil {
		return nil, fmt.Errorf("create per-frame buffer: %w", err)
	}
	if c.perDraw, err = r.CreateUniformBuffer("postfx.per_draw", PerDrawSize); err != nil {
		return nil, fmt.Errorf("create per-draw buffer: %w", err)
	}
	if c.sampler, err = r.CreateSampler("postfx.linear_wrap", common.WrapSampler()); err != nil {
		return nil, fmt.Errorf("create sampler: %w", err)
	}
	c.quad = model.NewModel(model.WithName("postfx.fullscreen_quad"), model.WithMeshData(model.FullScreenQuad()))
	if err := c.quad.Upload(r); err != nil {
		return nil, err
	}

	c.scene = scenePass{perFrame: c.perFrame, perDraw: c.perDraw, sampler: c.sampler, clear: c.clear, culling: c.culling}
	c.post = postPass{perFrame: c.perFrame, quad: c.quad.Mesh()}
	c.overlay = overlayPass{perFrame: c.perFrame}

	if err := c.post.setAlgorithm(r, c.algorithm); err != nil {
		return nil, err
	}
	if err := c.surfaces.Recreate(width, height); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *compositor) Surfaces() Surfaces {
	return c.surfaces
}

func (c *compositor) Resize(width, height int) error {
	if w, h := c.surfaces.Size(); w == width && h == height && c.surfaces.Valid() {
		return nil
	}
	return c.surfaces.Recreate(width, height)
}

func (c *compositor) Algorithm() dither.Algorithm {
	return c.post.algorithm
}

func (c *compositor) SetAlgorithm(a dither.Algorithm) error {
	if a == c.post.algorithm && c.renderer.Pipeline(PostPipelineKey) != nil {
		return nil
	}
	return c.post.setAlgorithm(c.renderer, a)
}

func (c *compositor) Render(frame Frame) error {
	if frame.Camera == nil || frame.Params == nil {
		return errors.New("postfx: frame without camera or parameters")
	}
	if !c.surfaces.Valid() {
		return errors.New("postfx: render before surfaces were allocated")
	}
	if err := c.SetAlgorithm(frame.Params.Algorithm()); err != nil {
		return err
	}

	perFrame := NewPerFrame(frame.Camera, frame.Params, frame.Time)
	if err := c.scene.render(c.renderer, c.surfaces, perFrame, frame.Camera.ViewProjectionMatrix(), frame.Instances); err != nil {
		return err
	}
	if err := c.post.render(c.renderer, c.surfaces); err != nil {
		return err
	}
	return c.overlay.render(c.renderer, c.surfaces, frame.Lines)
}

func (c *compositor) Stats() Stats {
	return Stats{Drawn: c.scene.drawn, Culled: c.scene.culled}
}

func (c *compositor) Release() {
	c.surfaces.Release()
	c.overlay.release()
	if c.quad != nil {
		c.quad.Release()
		c.quad = nil
	}
	if c.sampler != nil {
		c.sampler.Release()
		c.sampler = nil
	}
	for _, buf := range []*renderer.Buffer{&c.perDraw, &c.perFrame} {
		if *buf != nil {
			(*buf).Release()
			*buf = nil
		}
	}
}
