package postfx

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-dither/common"
	"github.com/Carmen-Shannon/oxy-dither/engine/renderer"
)

// Drawable is a mesh with its diffuse texture, ready to be instanced by the scene pass.
type Drawable struct {
	Mesh    renderer.Mesh
	Texture renderer.TextureView
	// BoundingRadius is the model-space bounding sphere radius used for frustum culling.
	BoundingRadius float32
}

// Instance places a Drawable in the world.
type Instance struct {
	Drawable
	// Transform is the column-major model matrix.
	Transform [16]float32
}

// GridInstances lays drawable t out as a perSide x perSide grid at (i*spacing, t*spacing, j*spacing),
// one layer per drawable.
//
// Parameters:
//   - drawables: one entry per model type
//   - perSide: instances along X and Z
//   - spacing: distance between neighbouring instances
//
// Returns:
//   - []Instance: len(drawables) * perSide * perSide instances, drawable by drawable
func GridInstances(drawables []Drawable, perSide int, spacing float32) []Instance {
	out := make([]Instance, 0, len(drawables)*perSide*perSide)
	for t, d := range drawables {
		for i := range perSide {
			for j := range perSide {
				inst := Instance{Drawable: d}
				common.Translation(inst.Transform[:], float32(i)*spacing, float32(t)*spacing, float32(j)*spacing)
				out = append(out, inst)
			}
		}
	}
	return out
}

// scenePass draws textured instances into the offscreen surfaces.
type scenePass struct {
	perFrame renderer.Buffer
	perDraw  renderer.Buffer
	sampler  renderer.Sampler

	clear   renderer.ClearValues
	culling bool

	// drawn and culled count the instances of the last Render.
	drawn, culled int
}

// render binds both offscreen targets, clears them, uploads the per-frame uniforms once and
// draws every instance with its own MVP.
func (p *scenePass) render(r renderer.Renderer, s Surfaces, frame PerFrame, viewProj [16]float32, instances []Instance) error {
	if err := r.SetRenderTargets(s.ColourTarget(), s.DepthTarget()); err != nil {
		return fmt.Errorf("scene pass: bind targets: %w", err)
	}
	r.Clear(p.clear)

	if err := r.WriteBuffer(p.perFrame, frame.Marshal()); err != nil {
		return fmt.Errorf("scene pass: upload per-frame uniforms: %w", err)
	}
	if err := r.BindPipeline(ScenePipelineKey); err != nil {
		return fmt.Errorf("scene pass: %w", err)
	}
	r.SetUniformBuffers(0, p.perFrame, p.perDraw)
	r.SetSamplers(0, p.sampler)

	var frustum common.Frustum
	if p.culling {
		frustum = common.ExtractFrustumFromMatrix(viewProj[:])
	}

	p.drawn, p.culled = 0, 0
	var draw PerDraw
	for i := range instances {
		inst := &instances[i]
		if p.culling && !frustum.ContainsSphere(inst.Transform[12], inst.Transform[13], inst.Transform[14], inst.BoundingRadius) {
			p.culled++
			continue
		}

		common.Mul4(draw.MVP[:], viewProj[:], inst.Transform[:])
		if err := r.WriteBuffer(p.perDraw, draw.Marshal()); err != nil {
			return fmt.Errorf("scene pass: upload per-draw uniforms: %w", err)
		}
		if err := r.SetShaderInputs(0, inst.Texture); err != nil {
			return fmt.Errorf("scene pass: bind texture: %w", err)
		}
		r.SetMesh(inst.Mesh)
		if err := r.Draw(); err != nil {
			return fmt.Errorf("scene pass: draw instance %d: %w", i, err)
		}
		p.drawn++
	}
	return nil
}
