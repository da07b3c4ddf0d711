package postfx

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-dither/common"
	"github.com/Carmen-Shannon/oxy-dither/engine/renderer"
)

// ErrInvalidSize is returned when surfaces are requested with a zero or negative dimension.
var ErrInvalidSize = errors.New("postfx: invalid surface size")

// Labels of the offscreen textures.
const (
	ColourSurfaceLabel = "postfx.colour"
	DepthSurfaceLabel  = "postfx.depth"
)

// surfaces is the implementation of the Surfaces interface.
type surfaces struct {
	backend renderer.RendererBackend

	colourTexture    renderer.Texture
	colourTargetView renderer.TextureView
	colourInputView  renderer.TextureView

	depthTexture    renderer.Texture
	depthTargetView renderer.TextureView
	depthInputView  renderer.TextureView

	width, height int
}

// Surfaces owns the offscreen colour and depth textures the scene renders into and the post
// effect reads from. Each texture has a render-target view and a shader-input view; the depth
// input view exposes the depth aspect only. The six handles are always created and destroyed
// together.
type Surfaces interface {
	// Recreate unbinds every target and input, destroys the current set (views before textures)
	// and allocates a new one at width x height. On failure nothing is left allocated.
	//
	// Parameters:
	//   - width: the surface width in pixels
	//   - height: the surface height in pixels
	//
	// Returns:
	//   - error: ErrInvalidSize for a zero dimension, or the backend's allocation error
	Recreate(width, height int) error

	// Release unbinds and destroys the current set. Safe to call when nothing is allocated.
	Release()

	// Valid reports whether a complete set is allocated.
	Valid() bool

	// Size returns the dimensions of the current set, or zeros when none is allocated.
	Size() (width, height int)

	// ColourTarget returns the colour render-target view.
	ColourTarget() renderer.TextureView

	// DepthTarget returns the depth-stencil render-target view.
	DepthTarget() renderer.TextureView

	// ColourInput returns the colour shader-input view.
	ColourInput() renderer.TextureView

	// DepthInput returns the depth-only shader-input view.
	DepthInput() renderer.TextureView
}

var _ Surfaces = &surfaces{}

// NewSurfaces creates an empty surface manager. Call Recreate before rendering.
//
// Parameters:
//   - backend: the backend that allocates the textures
//
// Returns:
//   - Surfaces: the surface manager
func NewSurfaces(backend renderer.RendererBackend) Surfaces {
	return &surfaces{backend: backend}
}

func (s *surfaces) Recreate(width, height int) (err error) {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	if err := s.unbind(); err != nil {
		return err
	}
	s.destroy()

	defer func() {
		if err != nil {
			s.destroy()
		}
	}()

	s.colourTexture, err = s.backend.CreateTexture(renderer.TextureDescriptor{
		Label:  ColourSurfaceLabel,
		Width:  uint32(width),
		Height: uint32(height),
		Format: renderer.FormatRGBA8Unorm,
		Usage:  renderer.UsageRenderTarget | renderer.UsageShaderInput,
	})
	if err != nil {
		return fmt.Errorf("create colour surface: %w", err)
	}
	s.depthTexture, err = s.backend.CreateTexture(renderer.TextureDescriptor{
		Label:  DepthSurfaceLabel,
		Width:  uint32(width),
		Height: uint32(height),
		Format: renderer.FormatDepth24PlusStencil8,
		Usage:  renderer.UsageRenderTarget | renderer.UsageShaderInput,
	})
	if err != nil {
		return fmt.Errorf("create depth surface: %w", err)
	}

	views := []struct {
		dst  *renderer.TextureView
		tex  renderer.Texture
		kind renderer.ViewKind
	}{
		{&s.colourTargetView, s.colourTexture, renderer.ViewRenderTarget},
		{&s.colourInputView, s.colourTexture, renderer.ViewShaderInput},
		{&s.depthTargetView, s.depthTexture, renderer.ViewDepthStencilTarget},
		{&s.depthInputView, s.depthTexture, renderer.ViewDepthShaderInput},
	}
	for _, v := range views {
		*v.dst, err = s.backend.CreateTextureView(v.tex, renderer.TextureViewDescriptor{
			Label: v.tex.Label() + "." + v.kind.String(),
			Kind:  v.kind,
		})
		if err != nil {
			return fmt.Errorf("create %s view of %s: %w", v.kind, v.tex.Label(), err)
		}
	}

	s.width, s.height = width, height
	common.Logger().Debug("offscreen surfaces created", "width", width, "height", height)
	return nil
}

func (s *surfaces) Release() {
	if s.colourTexture == nil && s.depthTexture == nil {
		return
	}
	if err := s.unbind(); err != nil {
		common.Logger().Warn("unbinding surfaces before release", "error", err)
	}
	s.destroy()
}

func (s *surfaces) Valid() bool {
	return s.colourInputView != nil && s.depthInputView != nil &&
		s.colourTargetView != nil && s.depthTargetView != nil
}

func (s *surfaces) Size() (width, height int) {
	return s.width, s.height
}

func (s *surfaces) ColourTarget() renderer.TextureView {
	return s.colourTargetView
}

func (s *surfaces) DepthTarget() renderer.TextureView {
	return s.depthTargetView
}

func (s *surfaces) ColourInput() renderer.TextureView {
	return s.colourInputView
}

func (s *surfaces) DepthInput() renderer.TextureView {
	return s.depthInputView
}

// unbind clears every target and input slot so no texture is bound while destroyed.
func (s *surfaces) unbind() error {
	if err := s.backend.SetShaderInputs(0, make([]renderer.TextureView, renderer.MaxShaderInputs)...); err != nil {
		return fmt.Errorf("unbind shader inputs: %w", err)
	}
	if err := s.backend.SetRenderTargets(nil, nil); err != nil {
		return fmt.Errorf("unbind render targets: %w", err)
	}
	return nil
}

// destroy releases whatever is allocated, views before textures.
func (s *surfaces) destroy() {
	for _, v := range []*renderer.TextureView{&s.colourTargetView, &s.colourInputView, &s.depthTargetView, &s.depthInputView} {
		if *v != nil {
			(*v).Release()
			*v = nil
		}
	}
	for _, t := range []*renderer.Texture{&s.colourTexture, &s.depthTexture} {
		if *t != nil {
			(*t).Release()
			*t = nil
		}
	}
	s.width, s.height = 0, 0
}
