package postfx

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-dither/common"
	"github.com/Carmen-Shannon/oxy-dither/engine/dither"
	"github.com/Carmen-Shannon/oxy-dither/engine/renderer"
)

// postPass draws the full-screen quad into the swap chain with the colour and depth surfaces
// as inputs.
type postPass struct {
	perFrame  renderer.Buffer
	quad      renderer.Mesh
	algorithm dither.Algorithm
}

// setAlgorithm compiles the program for a and swaps it in. The previous program stays bound
// when compilation fails.
func (p *postPass) setAlgorithm(r renderer.Renderer, a dither.Algorithm) error {
	pl, err := newPostPipeline(a)
	if err != nil {
		return fmt.Errorf("post pass: %w", err)
	}
	if r.Pipeline(PostPipelineKey) == nil {
		err = r.RegisterPipelines(pl)
	} else {
		err = r.RebuildPipeline(pl)
	}
	if err != nil {
		return fmt.Errorf("post pass: %s: %w", a.EntryPoint(), err)
	}
	p.algorithm = a
	common.Logger().Info("post effect program built", "entry_point", a.EntryPoint())
	return nil
}

func (p *postPass) render(r renderer.Renderer, s Surfaces) error {
	if err := r.SetRenderTargets(r.SwapchainView(), nil); err != nil {
		return fmt.Errorf("post pass: bind swap chain: %w", err)
	}
	if err := r.SetShaderInputs(0, s.ColourInput(), s.DepthInput()); err != nil {
		return fmt.Errorf("post pass: bind surfaces: %w", err)
	}
	if err := r.BindPipeline(PostPipelineKey); err != nil {
		return fmt.Errorf("post pass: %w", err)
	}
	r.SetUniformBuffers(0, p.perFrame)
	r.SetMesh(p.quad)
	if err := r.Draw(); err != nil {
		return fmt.Errorf("post pass: draw: %w", err)
	}
	if err := r.SetShaderInputs(0, nil, nil); err != nil {
		return fmt.Errorf("post pass: unbind surfaces: %w", err)
	}
	return nil
}
