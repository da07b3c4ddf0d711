package renderer

import (
	"errors"
	"fmt"
)

// MaxShaderInputs is the number of shader input slots a backend exposes.
const MaxShaderInputs = 8

// ErrHazard is returned when a texture would be bound as a render target and a shader input at the same time.
var ErrHazard = errors.New("renderer: texture bound as both render target and shader input")

// BindingTracker holds the target and input bindings of a backend and enforces that no texture
// is ever bound in both roles. Backends embed it and call it before touching the GPU.
type BindingTracker struct {
	colour, depth TextureView
	inputs        [MaxShaderInputs]TextureView
}

// SetRenderTargets validates and records a target binding.
//
// Parameters:
//   - colour: a ViewRenderTarget view, or nil
//   - depth: a ViewDepthStencilTarget view, or nil
//
// Returns:
//   - error: ErrHazard if either texture currently sits in an input slot, or a kind mismatch
func (b *BindingTracker) SetRenderTargets(colour, depth TextureView) error {
	if colour != nil && colour.Kind() != ViewRenderTarget {
		return fmt.Errorf("renderer: %s view %q bound as colour target", colour.Kind(), colour.Label())
	}
	if depth != nil && depth.Kind() != ViewDepthStencilTarget {
		return fmt.Errorf("renderer: %s view %q bound as depth target", depth.Kind(), depth.Label())
	}
	for slot, in := range b.inputs {
		if in == nil {
			continue
		}
		for _, target := range []TextureView{colour, depth} {
			if sameTexture(in, target) {
				return fmt.Errorf("%w: %q is in input slot %d", ErrHazard, in.Texture().Label(), slot)
			}
		}
	}
	b.colour, b.depth = colour, depth
	return nil
}

// SetShaderInputs validates and records an input binding. Nil views empty their slot.
//
// Parameters:
//   - startSlot: the first slot
//   - views: the views to bind
//
// Returns:
//   - error: ErrHazard if a texture is currently a render target, or a slot/kind error
func (b *BindingTracker) SetShaderInputs(startSlot int, views []TextureView) error {
	if startSlot < 0 || startSlot+len(views) > MaxShaderInputs {
		return fmt.Errorf("renderer: input slots %d..%d out of range", startSlot, startSlot+len(views)-1)
	}
	for _, v := range views {
		if v == nil {
			continue
		}
		if v.Kind().IsTarget() {
			return fmt.Errorf("renderer: %s view %q bound as shader input", v.Kind(), v.Label())
		}
		if sameTexture(v, b.colour) || sameTexture(v, b.depth) {
			return fmt.Errorf("%w: %q is a bound render target", ErrHazard, v.Texture().Label())
		}
	}
	copy(b.inputs[startSlot:], views)
	return nil
}

// Targets returns the bound colour and depth targets.
func (b *BindingTracker) Targets() (colour, depth TextureView) {
	return b.colour, b.depth
}

// Input returns the view in the given input slot, nil when empty or out of range.
func (b *BindingTracker) Input(slot int) TextureView {
	if slot < 0 || slot >= MaxShaderInputs {
		return nil
	}
	return b.inputs[slot]
}

// IsBound reports whether tex is bound in any role.
func (b *BindingTracker) IsBound(tex Texture) bool {
	if tex == nil {
		return false
	}
	for _, v := range append([]TextureView{b.colour, b.depth}, b.inputs[:]...) {
		if v != nil && v.Texture() == tex {
			return true
		}
	}
	return false
}

// ResetBindings empties every target and input slot.
func (b *BindingTracker) ResetBindings() {
	b.colour, b.depth = nil, nil
	clear(b.inputs[:])
}

func sameTexture(a, b TextureView) bool {
	return a != nil && b != nil && a.Texture() == b.Texture()
}
