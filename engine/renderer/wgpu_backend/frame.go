package wgpu_backend

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-dither/common"
	"github.com/Carmen-Shannon/oxy-dither/engine/renderer"
	"github.com/Carmen-Shannon/oxy-dither/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-dither/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

var errNoFrame = errors.New("wgpu backend: no frame in progress")

func (b *backend) BeginFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameSurface != nil {
		return errors.New("wgpu backend: previous frame surface not yet presented")
	}

	surfaceTexture, err := b.surface.GetCurrentTexture()
	if err != nil {
		return fmt.Errorf("wgpu backend: acquire surface texture: %w", err)
	}

	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return err
	}

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		view.Release()
		surfaceTexture.Release()
		return err
	}

	b.frameEncoder = encoder
	b.frameSurface = surfaceTexture
	b.frameView = &textureView{
		desc: renderer.TextureViewDescriptor{Label: "swapchain", Kind: renderer.ViewRenderTarget},
		tex: &texture{desc: renderer.TextureDescriptor{
			Label:  "swapchain",
			Width:  uint32(b.width),
			Height: uint32(b.height),
			Format: renderer.FormatSwapchain,
			Usage:  renderer.UsageRenderTarget,
		}},
		view: view,
	}
	return nil
}

func (b *backend) SwapchainView() renderer.TextureView {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameView == nil {
		return nil
	}
	return b.frameView
}

func (b *backend) EndFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameEncoder == nil {
		return errNoFrame
	}
	b.flushClear()
	b.endPass()

	// The swap chain view dies with the frame.
	if colour, depth := b.bindings.Targets(); colour != nil && colour == renderer.TextureView(b.frameView) {
		_ = b.bindings.SetRenderTargets(nil, depth)
	}

	commandBuffer, err := b.frameEncoder.Finish(nil)
	b.frameEncoder.Release()
	b.frameEncoder = nil
	if err != nil {
		b.releaseFrameGarbage()
		return fmt.Errorf("wgpu backend: finish frame: %w", err)
	}

	b.queue.Submit(commandBuffer)
	commandBuffer.Release()

	b.releaseFrameGarbage()
	for u := range b.liveBuffers {
		u.next = 0
	}
	return nil
}

func (b *backend) Present() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameSurface == nil {
		return
	}
	b.surface.Present()

	if b.frameView != nil {
		b.frameView.Release()
		b.frameView = nil
	}
	b.frameSurface.Release()
	b.frameSurface = nil
}

func (b *backend) SetRenderTargets(colour, depthStencil renderer.TextureView) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.flushClear()
	b.endPass()
	return b.bindings.SetRenderTargets(colour, depthStencil)
}

func (b *backend) Clear(values renderer.ClearValues) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.endPass()
	b.pendingClear = &values
}

func (b *backend) SetShaderInputs(startSlot int, views ...renderer.TextureView) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.bindings.SetShaderInputs(startSlot, views); err != nil {
		return err
	}
	b.groupsDirty = true
	return nil
}

func (b *backend) SetUniformBuffers(startSlot int, buffers ...renderer.Buffer) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, buf := range buffers {
		slot := startSlot + i
		if slot < 0 || slot >= maxUniformSlots {
			common.Logger().Warn("uniform slot out of range", "slot", slot)
			continue
		}
		u, _ := buf.(*uniformBuffer)
		b.uniforms[slot] = u
	}
	b.groupsDirty = true
}

func (b *backend) SetSamplers(startSlot int, samplers ...renderer.Sampler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, s := range samplers {
		slot := startSlot + i
		if slot < 0 || slot >= maxSamplerSlots {
			common.Logger().Warn("sampler slot out of range", "slot", slot)
			continue
		}
		smp, _ := s.(*sampler)
		b.samplers[slot] = smp
	}
	b.groupsDirty = true
}

func (b *backend) SetProgram(p renderer.Program) {
	b.mu.Lock()
	defer b.mu.Unlock()

	prog, _ := p.(*program)
	if prog != b.program {
		b.program = prog
		b.groupsDirty = true
	}
}

func (b *backend) SetMesh(m renderer.Mesh) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.mesh, _ = m.(*mesh)
}

func (b *backend) Draw() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameEncoder == nil {
		return errNoFrame
	}
	colourTarget, depthTarget := b.bindings.Targets()
	colour, _ := colourTarget.(*textureView)
	depth, _ := depthTarget.(*textureView)
	switch {
	case b.program == nil || b.program.pipeline == nil:
		return errors.New("wgpu backend: draw without a program")
	case b.mesh == nil || b.mesh.vertexBuffer == nil:
		return errors.New("wgpu backend: draw without a mesh")
	case colour == nil:
		return errors.New("wgpu backend: draw without a colour target")
	}
	if err := checkTarget(b.program.desc.Target(), colour, depth); err != nil {
		return fmt.Errorf("wgpu backend: program %q: %w", b.program.desc.PipelineKey(), err)
	}

	if b.framePass == nil {
		b.beginPass(colour, depth)
		b.passProgram = nil
	}
	if b.passProgram != b.program {
		b.framePass.SetPipeline(b.program.pipeline)
		b.passProgram = b.program
		b.groupsDirty = true
	}
	if b.groupsDirty {
		if err := b.rebuildGroups(); err != nil {
			return fmt.Errorf("wgpu backend: program %q: %w", b.program.desc.PipelineKey(), err)
		}
		b.groupsDirty = false
	}

	if b.uniformGroup != nil {
		offsets := make([]uint32, 0, len(b.program.uniforms))
		for _, bnd := range b.program.uniforms {
			offsets = append(offsets, uint32(b.uniforms[bnd.Binding].current))
		}
		b.framePass.SetBindGroup(0, b.uniformGroup, offsets)
	}
	if b.inputGroup != nil {
		b.framePass.SetBindGroup(1, b.inputGroup, nil)
	}

	b.framePass.SetVertexBuffer(0, b.mesh.vertexBuffer, 0, wgpu.WholeSize)
	b.framePass.SetIndexBuffer(b.mesh.indexBuffer, wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
	b.framePass.DrawIndexed(b.mesh.indexCount, 1, 0, 0, 0)
	return nil
}

// rebuildGroups creates fresh bind groups for the bound program from the bound slots.
// Groups stay alive until the frame is submitted.
func (b *backend) rebuildGroups() error {
	b.uniformGroup, b.inputGroup = nil, nil
	prog := b.program

	if len(prog.uniforms) > 0 {
		entries := make([]wgpu.BindGroupEntry, 0, len(prog.uniforms))
		for _, bnd := range prog.uniforms {
			u := b.uniforms[bnd.Binding]
			if u == nil || u.buffer == nil {
				return fmt.Errorf("uniform slot %d (%s) is empty", bnd.Binding, bnd.Name)
			}
			if u.size < bnd.MinSize {
				return fmt.Errorf("uniform slot %d (%s) holds %d bytes, shader reads %d", bnd.Binding, bnd.Name, u.size, bnd.MinSize)
			}
			entries = append(entries, wgpu.BindGroupEntry{
				Binding: uint32(bnd.Binding),
				Buffer:  u.buffer,
				Offset:  0,
				Size:    u.size,
			})
		}
		group, err := b.createGroup(prog, 0, entries)
		if err != nil {
			return err
		}
		b.uniformGroup = group
	}

	if len(prog.resources) > 0 {
		entries := make([]wgpu.BindGroupEntry, 0, len(prog.resources))
		for _, bnd := range prog.resources {
			entry := wgpu.BindGroupEntry{Binding: uint32(bnd.Binding)}
			if bnd.IsTexture() {
				v, _ := b.bindings.Input(bnd.Binding).(*textureView)
				if v == nil || v.view == nil {
					return fmt.Errorf("input slot %d (%s) is empty", bnd.Binding, bnd.Name)
				}
				if (bnd.Kind == shader.BindingDepthTexture) != (v.desc.Kind == renderer.ViewDepthShaderInput) {
					return fmt.Errorf("input slot %d (%s) holds a %s view", bnd.Binding, bnd.Name, v.desc.Kind)
				}
				entry.TextureView = v.view
			} else {
				s := b.samplers[bnd.Binding-samplerBindingBase]
				if s == nil || s.sampler == nil {
					return fmt.Errorf("sampler slot %d (%s) is empty", bnd.Binding-samplerBindingBase, bnd.Name)
				}
				entry.Sampler = s.sampler
			}
			entries = append(entries, entry)
		}
		group, err := b.createGroup(prog, 1, entries)
		if err != nil {
			return err
		}
		b.inputGroup = group
	}
	return nil
}

func (b *backend) createGroup(prog *program, index int, entries []wgpu.BindGroupEntry) (*wgpu.BindGroup, error) {
	group, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   fmt.Sprintf("%s group %d", prog.desc.PipelineKey(), index),
		Layout:  prog.layouts[index],
		Entries: entries,
	})
	if err != nil {
		return nil, fmt.Errorf("create bind group %d: %w", index, err)
	}
	b.frameGarbage = append(b.frameGarbage, group)
	return group, nil
}

// beginPass opens a render pass over the given targets, consuming any pending clear.
func (b *backend) beginPass(colour, depth *textureView) {
	colourAttachment := wgpu.RenderPassColorAttachment{
		View:    colour.view,
		LoadOp:  wgpu.LoadOpLoad,
		StoreOp: wgpu.StoreOpStore,
	}
	if b.pendingClear != nil {
		c := b.pendingClear.Colour
		colourAttachment.LoadOp = wgpu.LoadOpClear
		colourAttachment.ClearValue = wgpu.Color{R: c[0], G: c[1], B: c[2], A: c[3]}
	}
	desc := &wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{colourAttachment},
	}
	if depth != nil {
		depthAttachment := &wgpu.RenderPassDepthStencilAttachment{
			View:           depth.view,
			DepthLoadOp:    wgpu.LoadOpLoad,
			DepthStoreOp:   wgpu.StoreOpStore,
			StencilLoadOp:  wgpu.LoadOpLoad,
			StencilStoreOp: wgpu.StoreOpStore,
		}
		if b.pendingClear != nil {
			depthAttachment.DepthLoadOp = wgpu.LoadOpClear
			depthAttachment.DepthClearValue = b.pendingClear.Depth
			depthAttachment.StencilLoadOp = wgpu.LoadOpClear
			depthAttachment.StencilClearValue = b.pendingClear.Stencil
		}
		desc.DepthStencilAttachment = depthAttachment
	}
	b.framePass = b.frameEncoder.BeginRenderPass(desc)
	b.pendingClear = nil
}

func (b *backend) endPass() {
	if b.framePass == nil {
		return
	}
	b.framePass.End()
	b.framePass.Release()
	b.framePass = nil
	b.passProgram = nil
}

// flushClear runs a pending clear as an empty pass over the bound targets.
func (b *backend) flushClear() {
	if b.pendingClear == nil {
		return
	}
	colourTarget, depthTarget := b.bindings.Targets()
	colour, _ := colourTarget.(*textureView)
	depth, _ := depthTarget.(*textureView)
	if b.frameEncoder == nil || colour == nil {
		b.pendingClear = nil
		return
	}
	b.beginPass(colour, depth)
	b.endPass()
}

func (b *backend) releaseFrameGarbage() {
	for _, g := range b.frameGarbage {
		g.Release()
	}
	b.frameGarbage = b.frameGarbage[:0]
	b.uniformGroup, b.inputGroup = nil, nil
	b.groupsDirty = true
}

func checkTarget(target pipeline.Target, colour, depth *textureView) error {
	isSwapchain := colour.tex.desc.Format == renderer.FormatSwapchain
	switch target {
	case pipeline.TargetOffscreen:
		if isSwapchain || depth == nil {
			return errors.New("offscreen program needs the offscreen colour and depth targets")
		}
	case pipeline.TargetSwapchain:
		if !isSwapchain || depth != nil {
			return errors.New("swapchain program needs the swap chain as the only target")
		}
	case pipeline.TargetSwapchainDepthTested:
		if !isSwapchain || depth == nil {
			return errors.New("depth-tested swapchain program needs the swap chain and a depth target")
		}
	}
	return nil
}
