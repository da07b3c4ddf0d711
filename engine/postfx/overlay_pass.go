package postfx

import (
	"fmt"
	"slices"

	"github.com/Carmen-Shannon/oxy-dither/engine/model"
	"github.com/Carmen-Shannon/oxy-dither/engine/renderer"
)

// overlayPass draws debug lines into the swap chain, depth tested against the scene depth
// surface. The line mesh is re-uploaded only when the collected lines change.
type overlayPass struct {
	perFrame renderer.Buffer

	mesh     renderer.Mesh
	vertices []model.LineVertex
	indices  []uint32
}

func (p *overlayPass) render(r renderer.Renderer, s Surfaces, lines *model.LineData) error {
	if lines == nil || len(lines.Indices) == 0 {
		return nil
	}
	if err := p.upload(r, lines); err != nil {
		return err
	}

	if err := r.SetRenderTargets(r.SwapchainView(), s.DepthTarget()); err != nil {
		return fmt.Errorf("overlay pass: bind targets: %w", err)
	}
	if err := r.BindPipeline(OverlayPipelineKey); err != nil {
		return fmt.Errorf("overlay pass: %w", err)
	}
	r.SetUniformBuffers(0, p.perFrame)
	r.SetMesh(p.mesh)
	if err := r.Draw(); err != nil {
		return fmt.Errorf("overlay pass: draw: %w", err)
	}
	return nil
}

func (p *overlayPass) upload(r renderer.Renderer, lines *model.LineData) error {
	if p.mesh != nil && slices.Equal(p.vertices, lines.Vertices) && slices.Equal(p.indices, lines.Indices) {
		return nil
	}
	mesh, err := r.CreateMesh(renderer.MeshDescriptor{
		Label:    "postfx.debug_lines",
		Vertices: model.MarshalLineVertices(lines.Vertices),
		Stride:   uint64((&model.LineVertex{}).Size()),
		Indices:  lines.Indices,
	})
	if err != nil {
		return fmt.Errorf("overlay pass: upload lines: %w", err)
	}
	p.release()
	p.mesh = mesh
	p.vertices = slices.Clone(lines.Vertices)
	p.indices = slices.Clone(lines.Indices)
	return nil
}

func (p *overlayPass) release() {
	if p.mesh != nil {
		p.mesh.Release()
		p.mesh = nil
	}
	p.vertices, p.indices = nil, nil
}
