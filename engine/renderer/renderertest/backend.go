// Package renderertest provides a recording renderer.RendererBackend for tests. It performs no GPU
// work but keeps every handle, counts creations and releases per kind, snapshots the bound state of
// every draw and enforces the same binding rules a real device does.
package renderertest

import (
	"errors"
	"fmt"
	"slices"

	"github.com/Carmen-Shannon/oxy-dither/common"
	"github.com/Carmen-Shannon/oxy-dither/engine/renderer"
	"github.com/Carmen-Shannon/oxy-dither/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-dither/engine/renderer/shader"
)

const (
	// MaxUniformSlots is the number of uniform slots the backend exposes.
	MaxUniformSlots = 4
	// MaxSamplerSlots is the number of sampler slots the backend exposes.
	MaxSamplerSlots = 4

	samplerBindingBase = 8
)

// Draw is the state captured by one Draw call.
type Draw struct {
	Frame   int
	Program *Program
	Mesh    *Mesh
	Colour  *View
	Depth   *View
	Inputs  [renderer.MaxShaderInputs]*View
	// Uniforms holds a copy of each bound uniform buffer's contents at the time of the draw.
	Uniforms [MaxUniformSlots][]byte
	Samplers [MaxSamplerSlots]*Sampler
}

// EntryPoint returns the fragment entry point of the draw's program.
func (d Draw) EntryPoint() string {
	if d.Program == nil {
		return ""
	}
	if fs := d.Program.pipeline.Shader(shader.ShaderTypeFragment); fs != nil {
		return fs.EntryPoint()
	}
	return ""
}

// Clear is a recorded Clear call.
type Clear struct {
	Frame  int
	Colour *View
	Depth  *View
	Values renderer.ClearValues
}

// Backend is a recording renderer.RendererBackend.
type Backend struct {
	// Fail, when set, is consulted before every resource creation and its error is returned as is.
	Fail func(kind Kind, label string) error

	Width, Height int
	PresentMode   renderer.PresentMode
	Frames        int
	Presented     int

	Created  map[Kind]int
	Released map[Kind]int

	Textures []*Texture
	Views    []*View
	Buffers  []*Buffer
	Samplers []*Sampler
	Meshes   []*Mesh
	Programs []*Program

	Draws  []Draw
	Clears []Clear

	// Violations lists every misuse observed: double releases, textures released with live views
	// or while bound. A correct caller leaves it empty.
	Violations []string

	bindings  renderer.BindingTracker
	inFrame   bool
	swapchain *View
	program   *Program
	mesh      *Mesh
	uniforms  [MaxUniformSlots]*Buffer
	samplers  [MaxSamplerSlots]*Sampler
}

var _ renderer.RendererBackend = &Backend{}

// NewBackend returns an empty recording backend.
func NewBackend() *Backend {
	return &Backend{
		Created:  make(map[Kind]int),
		Released: make(map[Kind]int),
	}
}

// Live returns the number of resources of kind created and not yet released.
func (b *Backend) Live(kind Kind) int {
	return b.Created[kind] - b.Released[kind]
}

// LastDraw returns the most recent draw, or false if nothing was drawn.
func (b *Backend) LastDraw() (Draw, bool) {
	if len(b.Draws) == 0 {
		return Draw{}, false
	}
	return b.Draws[len(b.Draws)-1], true
}

// FrameDraws returns the draws issued during the given frame (1-based).
func (b *Backend) FrameDraws(frame int) []Draw {
	var out []Draw
	for _, d := range b.Draws {
		if d.Frame == frame {
			out = append(out, d)
		}
	}
	return out
}

// TexturesLabelled returns every texture ever created with label, in creation order.
func (b *Backend) TexturesLabelled(label string) []*Texture {
	var out []*Texture
	for _, t := range b.Textures {
		if t.Desc.Label == label {
			out = append(out, t)
		}
	}
	return out
}

// Targets returns the currently bound colour and depth targets.
func (b *Backend) Targets() (colour, depth renderer.TextureView) {
	return b.bindings.Targets()
}

// Input returns the view bound to an input slot.
func (b *Backend) Input(slot int) renderer.TextureView {
	return b.bindings.Input(slot)
}

func (b *Backend) violate(format string, args ...any) {
	b.Violations = append(b.Violations, fmt.Sprintf(format, args...))
}

func (b *Backend) record(kind Kind, created bool) {
	if created {
		b.Created[kind]++
	} else {
		b.Released[kind]++
	}
}

func (b *Backend) fail(kind Kind, label string) error {
	if b.Fail == nil {
		return nil
	}
	return b.Fail(kind, label)
}

func (b *Backend) ConfigureSurface(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("renderertest: invalid surface size %dx%d", width, height)
	}
	b.Width, b.Height = width, height
	return nil
}

func (b *Backend) SetPresentMode(mode renderer.PresentMode) {
	b.PresentMode = mode
}

func (b *Backend) CreateTexture(desc renderer.TextureDescriptor) (renderer.Texture, error) {
	if err := b.fail(KindTexture, desc.Label); err != nil {
		return nil, err
	}
	if desc.Width == 0 || desc.Height == 0 {
		return nil, fmt.Errorf("renderertest: texture %q has zero size", desc.Label)
	}
	t := &Texture{b: b, Desc: desc}
	b.Textures = append(b.Textures, t)
	b.record(KindTexture, true)
	return t, nil
}

func (b *Backend) CreateTextureView(tex renderer.Texture, desc renderer.TextureViewDescriptor) (renderer.TextureView, error) {
	if err := b.fail(KindView, desc.Label); err != nil {
		return nil, err
	}
	t, ok := tex.(*Texture)
	if !ok || t.Released {
		return nil, fmt.Errorf("renderertest: view %q over an unknown or released texture", desc.Label)
	}
	depth := t.Desc.Format.IsDepth()
	switch desc.Kind {
	case renderer.ViewRenderTarget, renderer.ViewDepthStencilTarget:
		if t.Desc.Usage&renderer.UsageRenderTarget == 0 {
			return nil, fmt.Errorf("renderertest: texture %q lacks render target usage", t.Desc.Label)
		}
	case renderer.ViewShaderInput, renderer.ViewDepthShaderInput:
		if t.Desc.Usage&renderer.UsageShaderInput == 0 {
			return nil, fmt.Errorf("renderertest: texture %q lacks shader input usage", t.Desc.Label)
		}
	}
	wantDepth := desc.Kind == renderer.ViewDepthStencilTarget || desc.Kind == renderer.ViewDepthShaderInput
	if depth != wantDepth {
		return nil, fmt.Errorf("renderertest: %s view over %q has the wrong format", desc.Kind, t.Desc.Label)
	}
	v := &View{b: b, Desc: desc, Tex: t}
	t.liveViews++
	b.Views = append(b.Views, v)
	b.record(KindView, true)
	return v, nil
}

func (b *Backend) WriteTexture(tex renderer.Texture, data common.TextureStagingData) error {
	t, ok := tex.(*Texture)
	if !ok || t.Released {
		return errors.New("renderertest: write to an unknown or released texture")
	}
	if data.Width != t.Desc.Width || data.Height != t.Desc.Height || len(data.Pixels) != int(data.Width*data.Height*4) {
		return fmt.Errorf("renderertest: staging data %dx%d does not fit texture %q", data.Width, data.Height, t.Desc.Label)
	}
	t.Pixels = slices.Clone(data.Pixels)
	return nil
}

func (b *Backend) CreateUniformBuffer(label string, size uint64) (renderer.Buffer, error) {
	if err := b.fail(KindBuffer, label); err != nil {
		return nil, err
	}
	if size == 0 {
		return nil, fmt.Errorf("renderertest: buffer %q has zero size", label)
	}
	u := &Buffer{b: b, label: label, size: size, Data: make([]byte, size)}
	b.Buffers = append(b.Buffers, u)
	b.record(KindBuffer, true)
	return u, nil
}

func (b *Backend) WriteBuffer(buf renderer.Buffer, data []byte) error {
	u, ok := buf.(*Buffer)
	if !ok || u.Released {
		return errors.New("renderertest: write to an unknown or released buffer")
	}
	if uint64(len(data)) != u.size {
		return fmt.Errorf("renderertest: %d byte write to %d byte buffer %q", len(data), u.size, u.label)
	}
	u.Data = slices.Clone(data)
	u.Writes++
	return nil
}

func (b *Backend) CreateSampler(label string, _ common.SamplerStagingData) (renderer.Sampler, error) {
	if err := b.fail(KindSampler, label); err != nil {
		return nil, err
	}
	s := &Sampler{b: b, label: label}
	b.Samplers = append(b.Samplers, s)
	b.record(KindSampler, true)
	return s, nil
}

func (b *Backend) CreateMesh(desc renderer.MeshDescriptor) (renderer.Mesh, error) {
	if err := b.fail(KindMesh, desc.Label); err != nil {
		return nil, err
	}
	if len(desc.Vertices) == 0 || len(desc.Indices) == 0 || desc.Stride == 0 {
		return nil, fmt.Errorf("renderertest: mesh %q is empty", desc.Label)
	}
	if uint64(len(desc.Vertices))%desc.Stride != 0 {
		return nil, fmt.Errorf("renderertest: mesh %q vertex data is not a multiple of its stride", desc.Label)
	}
	vertexCount := uint32(uint64(len(desc.Vertices)) / desc.Stride)
	for _, idx := range desc.Indices {
		if idx >= vertexCount {
			return nil, fmt.Errorf("renderertest: mesh %q index %d out of range", desc.Label, idx)
		}
	}
	m := &Mesh{b: b, Desc: desc}
	b.Meshes = append(b.Meshes, m)
	b.record(KindMesh, true)
	return m, nil
}

func (b *Backend) CreateProgram(p pipeline.Pipeline) (renderer.Program, error) {
	if err := b.fail(KindProgram, p.PipelineKey()); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	prog := &Program{b: b, pipeline: p}
	b.Programs = append(b.Programs, prog)
	b.record(KindProgram, true)
	return prog, nil
}

func (b *Backend) BeginFrame() error {
	if b.inFrame {
		return errors.New("renderertest: BeginFrame inside a frame")
	}
	if b.Width == 0 || b.Height == 0 {
		return errors.New("renderertest: surface not configured")
	}
	b.inFrame = true
	b.Frames++
	tex := &Texture{b: b, Desc: renderer.TextureDescriptor{
		Label:  fmt.Sprintf("swapchain-%d", b.Frames),
		Width:  uint32(b.Width),
		Height: uint32(b.Height),
		Format: renderer.FormatSwapchain,
		Usage:  renderer.UsageRenderTarget,
	}}
	b.swapchain = &View{b: b, Desc: renderer.TextureViewDescriptor{Label: tex.Desc.Label, Kind: renderer.ViewRenderTarget}, Tex: tex}
	return nil
}

func (b *Backend) SwapchainView() renderer.TextureView {
	if b.swapchain == nil {
		return nil
	}
	return b.swapchain
}

func (b *Backend) EndFrame() error {
	if !b.inFrame {
		return errors.New("renderertest: EndFrame outside a frame")
	}
	b.inFrame = false
	return nil
}

func (b *Backend) Present() {
	b.Presented++
	b.swapchain = nil
}

func (b *Backend) SetRenderTargets(colour, depthStencil renderer.TextureView) error {
	return b.bindings.SetRenderTargets(colour, depthStencil)
}

func (b *Backend) Clear(values renderer.ClearValues) {
	colour, depth := b.bindings.Targets()
	b.Clears = append(b.Clears, Clear{Frame: b.Frames, Colour: asView(colour), Depth: asView(depth), Values: values})
}

func (b *Backend) SetShaderInputs(startSlot int, views ...renderer.TextureView) error {
	return b.bindings.SetShaderInputs(startSlot, views)
}

func (b *Backend) SetUniformBuffers(startSlot int, buffers ...renderer.Buffer) {
	for i, buf := range buffers {
		if slot := startSlot + i; slot >= 0 && slot < MaxUniformSlots {
			u, _ := buf.(*Buffer)
			b.uniforms[slot] = u
		}
	}
}

func (b *Backend) SetSamplers(startSlot int, samplers ...renderer.Sampler) {
	for i, s := range samplers {
		if slot := startSlot + i; slot >= 0 && slot < MaxSamplerSlots {
			smp, _ := s.(*Sampler)
			b.samplers[slot] = smp
		}
	}
}

func (b *Backend) SetProgram(p renderer.Program) {
	prog, _ := p.(*Program)
	b.program = prog
}

func (b *Backend) SetMesh(m renderer.Mesh) {
	mesh, _ := m.(*Mesh)
	b.mesh = mesh
}

func (b *Backend) Draw() error {
	if !b.inFrame {
		return errors.New("renderertest: draw outside a frame")
	}
	colourTarget, depthTarget := b.bindings.Targets()
	colour, depth := asView(colourTarget), asView(depthTarget)
	switch {
	case b.program == nil || b.program.Released:
		return errors.New("renderertest: draw without a live program")
	case b.mesh == nil || b.mesh.Released:
		return errors.New("renderertest: draw without a live mesh")
	case colour == nil:
		return errors.New("renderertest: draw without a colour target")
	}
	if err := checkTarget(b.program.pipeline.Target(), colour, depth); err != nil {
		return fmt.Errorf("renderertest: program %q: %w", b.program.pipeline.PipelineKey(), err)
	}

	d := Draw{Frame: b.Frames, Program: b.program, Mesh: b.mesh, Colour: colour, Depth: depth, Samplers: b.samplers}
	for slot := range d.Inputs {
		d.Inputs[slot] = asView(b.bindings.Input(slot))
	}
	for slot, u := range b.uniforms {
		if u != nil {
			d.Uniforms[slot] = slices.Clone(u.Data)
		}
	}
	if err := checkBindings(b.program.pipeline, d); err != nil {
		return fmt.Errorf("renderertest: program %q: %w", b.program.pipeline.PipelineKey(), err)
	}
	b.Draws = append(b.Draws, d)
	return nil
}

func (b *Backend) Release() {
	b.bindings.ResetBindings()
	b.program, b.mesh = nil, nil
}

func asView(v renderer.TextureView) *View {
	if v == nil {
		return nil
	}
	view, _ := v.(*View)
	return view
}

func checkTarget(target pipeline.Target, colour, depth *View) error {
	isSwapchain := colour.Tex.Desc.Format == renderer.FormatSwapchain
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
	if depth != nil && (depth.Tex.Desc.Width != colour.Tex.Desc.Width || depth.Tex.Desc.Height != colour.Tex.Desc.Height) {
		return fmt.Errorf("colour target %dx%d and depth target %dx%d differ", colour.Tex.Desc.Width, colour.Tex.Desc.Height, depth.Tex.Desc.Width, depth.Tex.Desc.Height)
	}
	return nil
}

func checkBindings(p pipeline.Pipeline, d Draw) error {
	for _, st := range []shader.ShaderType{shader.ShaderTypeVertex, shader.ShaderTypeFragment} {
		s := p.Shader(st)
		if s == nil {
			continue
		}
		for _, bnd := range s.Bindings() {
			switch {
			case bnd.Group == 0 && bnd.IsBuffer():
				if bnd.Binding >= MaxUniformSlots || d.Uniforms[bnd.Binding] == nil {
					return fmt.Errorf("uniform slot %d (%s) is empty", bnd.Binding, bnd.Name)
				}
				if uint64(len(d.Uniforms[bnd.Binding])) < bnd.MinSize {
					return fmt.Errorf("uniform slot %d (%s) holds %d bytes, shader reads %d", bnd.Binding, bnd.Name, len(d.Uniforms[bnd.Binding]), bnd.MinSize)
				}
			case bnd.Group == 1 && bnd.IsTexture():
				if bnd.Binding >= renderer.MaxShaderInputs || d.Inputs[bnd.Binding] == nil || d.Inputs[bnd.Binding].Released {
					return fmt.Errorf("input slot %d (%s) is empty", bnd.Binding, bnd.Name)
				}
				wantDepth := bnd.Kind == shader.BindingDepthTexture
				if gotDepth := d.Inputs[bnd.Binding].Desc.Kind == renderer.ViewDepthShaderInput; gotDepth != wantDepth {
					return fmt.Errorf("input slot %d (%s) holds a %s view", bnd.Binding, bnd.Name, d.Inputs[bnd.Binding].Desc.Kind)
				}
			case bnd.Group == 1 && bnd.IsSampler():
				slot := bnd.Binding - samplerBindingBase
				if slot < 0 || slot >= MaxSamplerSlots || d.Samplers[slot] == nil {
					return fmt.Errorf("sampler slot %d (%s) is empty", slot, bnd.Name)
				}
			default:
				return fmt.Errorf("binding @group(%d) @binding(%d) %s has no slot", bnd.Group, bnd.Binding, bnd.Name)
			}
		}
	}
	return nil
}
