package pipeline

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-dither/engine/renderer/shader"
)

// Target identifies the attachments a pipeline renders into. A compiled program is
// only valid for the attachment formats of its target.
type Target int

const (
	// TargetOffscreen renders into the RGBA8 colour surface with the 24-bit depth + 8-bit stencil surface.
	TargetOffscreen Target = iota

	// TargetSwapchain renders into the swap chain back buffer with no depth attachment.
	TargetSwapchain

	// TargetSwapchainDepthTested renders into the swap chain back buffer while testing
	// against the offscreen depth surface.
	TargetSwapchainDepthTested
)

func (t Target) String() string {
	switch t {
	case TargetOffscreen:
		return "offscreen"
	case TargetSwapchain:
		return "swapchain"
	case TargetSwapchainDepthTested:
		return "swapchain+depth"
	default:
		return fmt.Sprintf("Target(%d)", int(t))
	}
}

// HasDepth reports whether the target carries a depth attachment.
func (t Target) HasDepth() bool {
	return t == TargetOffscreen || t == TargetSwapchainDepthTested
}

// CullMode selects which triangle faces are discarded.
type CullMode int

const (
	CullNone CullMode = iota
	CullBack
	CullFront
)

// Topology is the primitive assembly mode.
type Topology int

const (
	TopologyTriangleList Topology = iota
	TopologyLineList
)

// FrontFace is the winding order of front-facing triangles.
type FrontFace int

const (
	FrontFaceCCW FrontFace = iota
	FrontFaceCW
)

// pipeline is the implementation of the Pipeline interface.
// It holds everything a backend needs to compile a render program.
type pipeline struct {
	// pipelineKey is the unique identifier for this pipeline, used for caching and lookups
	pipelineKey string

	vertexShader, fragmentShader shader.Shader

	target            Target
	depthTestEnabled  bool
	depthWriteEnabled bool
	blendEnabled      bool
	cullMode          CullMode
	topology          Topology
	frontFace         FrontFace
}

// Pipeline describes a render program: a vertex stage, a fragment stage and the fixed
// function state they run with. It carries no GPU object; backends compile it into a
// program handle.
type Pipeline interface {
	// PipelineKey returns the unique key associated with this pipeline, used for caching and lookups.
	//
	// Returns:
	//   - string: the unique key for this pipeline
	PipelineKey() string

	// Shader retrieves the shader associated with the specified type if it exists, nil otherwise.
	//
	// Parameters:
	//   - shaderType: the type of shader to retrieve (vertex or fragment)
	//
	// Returns:
	//   - shader.Shader: the shader associated with the specified type, or nil if not set
	Shader(shaderType shader.ShaderType) shader.Shader

	// Target returns the attachment configuration this pipeline renders into.
	//
	// Returns:
	//   - Target: the render target configuration
	Target() Target

	// DepthTestEnabled returns whether depth testing is enabled for this pipeline.
	// It is always false for TargetSwapchain.
	//
	// Returns:
	//   - bool: true if depth testing is enabled, false otherwise
	DepthTestEnabled() bool

	// DepthWriteEnabled returns whether depth writing is enabled for this pipeline.
	//
	// Returns:
	//   - bool: true if depth writing is enabled, false otherwise
	DepthWriteEnabled() bool

	// BlendEnabled returns whether alpha blending is enabled for this pipeline.
	//
	// Returns:
	//   - bool: true if blending is enabled, false otherwise
	BlendEnabled() bool

	// CullMode returns the cull mode configured for this pipeline.
	//
	// Returns:
	//   - CullMode: the cull mode for this pipeline
	CullMode() CullMode

	// Topology returns the primitive topology configured for this pipeline.
	//
	// Returns:
	//   - Topology: the primitive topology for this pipeline
	Topology() Topology

	// FrontFace returns the front face winding order configured for this pipeline.
	//
	// Returns:
	//   - FrontFace: the winding order for this pipeline
	FrontFace() FrontFace

	// Validate checks that both stages are present and match their slots.
	//
	// Returns:
	//   - error: a descriptive error if the pipeline cannot be compiled
	Validate() error
}

var _ Pipeline = &pipeline{}

// NewPipeline is the entry point to create a new Pipeline interface.
// Defaults: TargetOffscreen, depth test and write on, no blending, no culling,
// triangle lists, counter-clockwise front faces.
//
// Parameters:
//   - pipelineKey: the unique key for this pipeline
//   - opts: a variadic list of PipelineBuilderOption functions to configure the pipeline
//
// Returns:
//   - Pipeline: a new Pipeline instance with the specified configuration
func NewPipeline(pipelineKey string, opts ...PipelineBuilderOption) Pipeline {
	p := &pipeline{
		pipelineKey:       pipelineKey,
		target:            TargetOffscreen,
		depthTestEnabled:  true,
		depthWriteEnabled: true,
		cullMode:          CullNone,
		topology:          TopologyTriangleList,
		frontFace:         FrontFaceCCW,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *pipeline) PipelineKey() string {
	return p.pipelineKey
}

func (p *pipeline) Shader(shaderType shader.ShaderType) shader.Shader {
	switch shaderType {
	case shader.ShaderTypeVertex:
		return p.vertexShader
	case shader.ShaderTypeFragment:
		return p.fragmentShader
	default:
		return nil
	}
}

func (p *pipeline) Target() Target {
	return p.target
}

func (p *pipeline) DepthTestEnabled() bool {
	return p.depthTestEnabled && p.target.HasDepth()
}

func (p *pipeline) DepthWriteEnabled() bool {
	return p.depthWriteEnabled && p.DepthTestEnabled()
}

func (p *pipeline) BlendEnabled() bool {
	return p.blendEnabled
}

func (p *pipeline) CullMode() CullMode {
	return p.cullMode
}

func (p *pipeline) Topology() Topology {
	return p.topology
}

func (p *pipeline) FrontFace() FrontFace {
	return p.frontFace
}

func (p *pipeline) Validate() error {
	var errs []error
	if p.vertexShader == nil {
		errs = append(errs, errors.New("missing vertex shader"))
	} else if p.vertexShader.ShaderType() != shader.ShaderTypeVertex {
		errs = append(errs, fmt.Errorf("vertex slot holds a %s shader", p.vertexShader.ShaderType()))
	}
	if p.fragmentShader == nil {
		errs = append(errs, errors.New("missing fragment shader"))
	} else if p.fragmentShader.ShaderType() != shader.ShaderTypeFragment {
		errs = append(errs, fmt.Errorf("fragment slot holds a %s shader", p.fragmentShader.ShaderType()))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("pipeline %s: %w", p.pipelineKey, err)
	}
	return nil
}
