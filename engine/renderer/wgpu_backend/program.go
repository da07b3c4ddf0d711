package wgpu_backend

import (
	"fmt"
	"slices"

	"github.com/Carmen-Shannon/oxy-dither/engine/renderer"
	"github.com/Carmen-Shannon/oxy-dither/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-dither/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// program is a compiled render pipeline plus the reflected bindings of its two groups:
// group 0 holds uniform buffers bound with dynamic offsets, group 1 holds shader inputs and samplers.
type program struct {
	desc           pipeline.Pipeline
	modules        []*wgpu.ShaderModule
	layouts        []*wgpu.BindGroupLayout
	pipelineLayout *wgpu.PipelineLayout
	pipeline       *wgpu.RenderPipeline
	uniforms       []shader.Binding
	resources      []shader.Binding
}

func (p *program) Pipeline() pipeline.Pipeline {
	return p.desc
}

func (p *program) Release() {
	if p.pipeline != nil {
		p.pipeline.Release()
		p.pipeline = nil
	}
	if p.pipelineLayout != nil {
		p.pipelineLayout.Release()
		p.pipelineLayout = nil
	}
	for _, l := range p.layouts {
		l.Release()
	}
	p.layouts = nil
	for _, m := range p.modules {
		m.Release()
	}
	p.modules = nil
}

func (b *backend) CreateProgram(p pipeline.Pipeline) (_ renderer.Program, err error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	vertexShader := p.Shader(shader.ShaderTypeVertex)
	fragmentShader := p.Shader(shader.ShaderTypeFragment)

	prog := &program{desc: p}
	defer func() {
		if err != nil {
			prog.Release()
		}
	}()

	for _, s := range []shader.Shader{vertexShader, fragmentShader} {
		module, moduleErr := b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
			Label: s.Key() + ":" + s.EntryPoint(),
			WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
				Code: s.Source(),
			},
		})
		if moduleErr != nil {
			return nil, fmt.Errorf("compile %s %q: %w", s.ShaderType(), s.EntryPoint(), moduleErr)
		}
		prog.modules = append(prog.modules, module)
	}

	merged := mergeBindings(vertexShader.Bindings(), fragmentShader.Bindings())
	groups := [2][]wgpu.BindGroupLayoutEntry{}
	for _, bnd := range merged {
		entry, entryErr := layoutEntry(bnd)
		if entryErr != nil {
			return nil, entryErr
		}
		groups[bnd.Group] = append(groups[bnd.Group], entry)
		if bnd.Group == 0 {
			prog.uniforms = append(prog.uniforms, bnd)
		} else {
			prog.resources = append(prog.resources, bnd)
		}
	}

	groupCount := 0
	for g := range groups {
		if len(groups[g]) > 0 {
			groupCount = g + 1
		}
	}
	for g := 0; g < groupCount; g++ {
		layout, layoutErr := b.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
			Label:   fmt.Sprintf("%s group %d", p.PipelineKey(), g),
			Entries: groups[g],
		})
		if layoutErr != nil {
			return nil, fmt.Errorf("failed to create bind group layout for group %d: %w", g, layoutErr)
		}
		prog.layouts = append(prog.layouts, layout)
	}

	prog.pipelineLayout, err = b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            p.PipelineKey(),
		BindGroupLayouts: prog.layouts,
	})
	if err != nil {
		return nil, err
	}

	var vertexBuffers []wgpu.VertexBufferLayout
	if layout, ok := vertexShader.VertexLayout(); ok {
		vertexBuffers = append(vertexBuffers, vertexBufferLayout(layout))
	}

	colourFormat := wgpu.TextureFormatRGBA8Unorm
	if p.Target() != pipeline.TargetOffscreen {
		colourFormat = b.surfaceFormat
	}
	colourTarget := wgpu.ColorTargetState{
		Format:    colourFormat,
		WriteMask: wgpu.ColorWriteMaskAll,
	}
	if p.BlendEnabled() {
		colourTarget.Blend = &wgpu.BlendState{
			Color: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorSrcAlpha,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
			Alpha: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorOne,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
		}
	}

	var depthStencil *wgpu.DepthStencilState
	if p.Target().HasDepth() {
		depthCompare := wgpu.CompareFunctionLess
		if !p.DepthTestEnabled() {
			depthCompare = wgpu.CompareFunctionAlways
		}
		depthStencil = &wgpu.DepthStencilState{
			Format:            wgpu.TextureFormatDepth24PlusStencil8,
			DepthWriteEnabled: p.DepthWriteEnabled(),
			DepthCompare:      depthCompare,
			StencilFront: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
		}
	}

	prog.pipeline, err = b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  p.PipelineKey() + " Render Pipeline",
		Layout: prog.pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     prog.modules[0],
			EntryPoint: vertexShader.EntryPoint(),
			Buffers:    vertexBuffers,
		},
		Fragment: &wgpu.FragmentState{
			Module:     prog.modules[1],
			EntryPoint: fragmentShader.EntryPoint(),
			Targets:    []wgpu.ColorTargetState{colourTarget},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  topology(p.Topology()),
			FrontFace: frontFace(p.FrontFace()),
			CullMode:  cullMode(p.CullMode()),
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: depthStencil,
	})
	if err != nil {
		return nil, fmt.Errorf("create render pipeline %q: %w", p.PipelineKey(), err)
	}
	return prog, nil
}

// mergeBindings unions the bindings of both stages, sorted by group then binding.
func mergeBindings(stages ...[]shader.Binding) []shader.Binding {
	var merged []shader.Binding
	for _, bindings := range stages {
		for _, bnd := range bindings {
			if !slices.ContainsFunc(merged, func(m shader.Binding) bool {
				return m.Group == bnd.Group && m.Binding == bnd.Binding
			}) {
				merged = append(merged, bnd)
			}
		}
	}
	slices.SortFunc(merged, func(a, b shader.Binding) int {
		if a.Group != b.Group {
			return a.Group - b.Group
		}
		return a.Binding - b.Binding
	})
	return merged
}

// layoutEntry converts a reflected binding into a layout entry visible to both stages.
func layoutEntry(bnd shader.Binding) (wgpu.BindGroupLayoutEntry, error) {
	entry := wgpu.BindGroupLayoutEntry{
		Binding:    uint32(bnd.Binding),
		Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
	}
	switch {
	case bnd.Group == 0 && bnd.Kind == shader.BindingUniform:
		if bnd.Binding >= maxUniformSlots {
			return entry, fmt.Errorf("uniform %s at binding %d exceeds %d slots", bnd.Name, bnd.Binding, maxUniformSlots)
		}
		entry.Buffer = wgpu.BufferBindingLayout{
			Type:             wgpu.BufferBindingTypeUniform,
			HasDynamicOffset: true,
			MinBindingSize:   bnd.MinSize,
		}
	case bnd.Group == 1 && bnd.IsTexture():
		if bnd.Binding >= samplerBindingBase {
			return entry, fmt.Errorf("texture %s at binding %d collides with sampler bindings", bnd.Name, bnd.Binding)
		}
		entry.Texture = wgpu.TextureBindingLayout{
			SampleType:    sampleType(bnd.SampleType),
			ViewDimension: viewDimension(bnd.Dimension),
			Multisampled:  bnd.Multisampled,
		}
	case bnd.Group == 1 && bnd.IsSampler():
		if bnd.Binding < samplerBindingBase || bnd.Binding >= samplerBindingBase+maxSamplerSlots {
			return entry, fmt.Errorf("sampler %s at binding %d is outside %d..%d", bnd.Name, bnd.Binding, samplerBindingBase, samplerBindingBase+maxSamplerSlots-1)
		}
		entry.Sampler = wgpu.SamplerBindingLayout{Type: wgpu.SamplerBindingTypeFiltering}
		if bnd.Kind == shader.BindingComparisonSampler {
			entry.Sampler.Type = wgpu.SamplerBindingTypeComparison
		}
	default:
		return entry, fmt.Errorf("binding @group(%d) @binding(%d) %s has no slot", bnd.Group, bnd.Binding, bnd.Name)
	}
	return entry, nil
}

func vertexBufferLayout(layout shader.VertexLayout) wgpu.VertexBufferLayout {
	attributes := make([]wgpu.VertexAttribute, 0, len(layout.Attributes))
	for _, a := range layout.Attributes {
		attributes = append(attributes, wgpu.VertexAttribute{
			Format:         vertexFormat(a.Format),
			Offset:         a.Offset,
			ShaderLocation: uint32(a.Location),
		})
	}
	return wgpu.VertexBufferLayout{
		ArrayStride: layout.Stride,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes:  attributes,
	}
}

var vertexFormats = map[shader.VertexFormat]wgpu.VertexFormat{
	shader.VertexFloat32:   wgpu.VertexFormatFloat32,
	shader.VertexFloat32x2: wgpu.VertexFormatFloat32x2,
	shader.VertexFloat32x3: wgpu.VertexFormatFloat32x3,
	shader.VertexFloat32x4: wgpu.VertexFormatFloat32x4,
	shader.VertexSint32:    wgpu.VertexFormatSint32,
	shader.VertexSint32x2:  wgpu.VertexFormatSint32x2,
	shader.VertexSint32x3:  wgpu.VertexFormatSint32x3,
	shader.VertexSint32x4:  wgpu.VertexFormatSint32x4,
	shader.VertexUint32:    wgpu.VertexFormatUint32,
	shader.VertexUint32x2:  wgpu.VertexFormatUint32x2,
	shader.VertexUint32x3:  wgpu.VertexFormatUint32x3,
	shader.VertexUint32x4:  wgpu.VertexFormatUint32x4,
}

func vertexFormat(f shader.VertexFormat) wgpu.VertexFormat {
	return vertexFormats[f]
}

func sampleType(t shader.SampleType) wgpu.TextureSampleType {
	switch t {
	case shader.SampleSint:
		return wgpu.TextureSampleTypeSint
	case shader.SampleUint:
		return wgpu.TextureSampleTypeUint
	case shader.SampleDepth:
		return wgpu.TextureSampleTypeDepth
	default:
		return wgpu.TextureSampleTypeFloat
	}
}

func viewDimension(d shader.ViewDimension) wgpu.TextureViewDimension {
	switch d {
	case shader.Dimension1D:
		return wgpu.TextureViewDimension1D
	case shader.Dimension2DArray:
		return wgpu.TextureViewDimension2DArray
	case shader.Dimension3D:
		return wgpu.TextureViewDimension3D
	case shader.DimensionCube:
		return wgpu.TextureViewDimensionCube
	case shader.DimensionCubeArray:
		return wgpu.TextureViewDimensionCubeArray
	default:
		return wgpu.TextureViewDimension2D
	}
}

func topology(t pipeline.Topology) wgpu.PrimitiveTopology {
	if t == pipeline.TopologyLineList {
		return wgpu.PrimitiveTopologyLineList
	}
	return wgpu.PrimitiveTopologyTriangleList
}

func frontFace(f pipeline.FrontFace) wgpu.FrontFace {
	if f == pipeline.FrontFaceCW {
		return wgpu.FrontFaceCW
	}
	return wgpu.FrontFaceCCW
}

func cullMode(c pipeline.CullMode) wgpu.CullMode {
	switch c {
	case pipeline.CullBack:
		return wgpu.CullModeBack
	case pipeline.CullFront:
		return wgpu.CullModeFront
	default:
		return wgpu.CullModeNone
	}
}
