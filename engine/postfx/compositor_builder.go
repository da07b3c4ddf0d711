package postfx

import (
	"github.com/Carmen-Shannon/oxy-dither/engine/dither"
	"github.com/Carmen-Shannon/oxy-dither/engine/renderer"
)

// CompositorBuilderOption is a functional option for configuring a Compositor via NewCompositor.
type CompositorBuilderOption func(*compositor)

// WithPostAlgorithm sets the algorithm the post program is first compiled for.
//
// Parameters:
//   - a: the starting algorithm
//
// Returns:
//   - CompositorBuilderOption: a function that sets the starting algorithm
func WithPostAlgorithm(a dither.Algorithm) CompositorBuilderOption {
	return func(c *compositor) {
		c.algorithm = a
	}
}

// WithFrustumCulling skips instances whose bounding sphere lies outside the camera frustum.
//
// Parameters:
//   - enabled: true to cull
//
// Returns:
//   - CompositorBuilderOption: a function that sets frustum culling
func WithFrustumCulling(enabled bool) CompositorBuilderOption {
	return func(c *compositor) {
		c.culling = enabled
	}
}

// WithClearValues overrides the values the scene pass clears the surfaces to.
//
// Parameters:
//   - values: colour, depth and stencil clear values
//
// Returns:
//   - CompositorBuilderOption: a function that sets the clear values
func WithClearValues(values renderer.ClearValues) CompositorBuilderOption {
	return func(c *compositor) {
		c.clear = values
	}
}
