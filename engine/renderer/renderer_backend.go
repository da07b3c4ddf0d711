package renderer

import (
	"github.com/Carmen-Shannon/oxy-dither/common"
	"github.com/Carmen-Shannon/oxy-dither/engine/renderer/pipeline"
)

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency.
	PresentModeUncapped
)

// TextureFormat is the texel format of a texture created through the backend.
type TextureFormat int

const (
	// FormatRGBA8Unorm is four 8-bit unsigned normalized channels.
	FormatRGBA8Unorm TextureFormat = iota
	// FormatRGBA8UnormSrgb is FormatRGBA8Unorm with sRGB decoding on read, used for image textures.
	FormatRGBA8UnormSrgb
	// FormatDepth24PlusStencil8 is 24-bit depth with an 8-bit stencil.
	FormatDepth24PlusStencil8
	// FormatSwapchain is whatever format the presentation surface negotiated.
	FormatSwapchain
)

// IsDepth reports whether the format carries a depth aspect.
func (f TextureFormat) IsDepth() bool {
	return f == FormatDepth24PlusStencil8
}

// TextureUsage is a bit set of the roles a texture may be bound in.
type TextureUsage uint32

const (
	UsageRenderTarget TextureUsage = 1 << iota
	UsageShaderInput
	UsageCopyDst
)

// ViewKind is the role a texture view is created for. A render-target view and a
// shader-input view of the same texture are different objects and are never bound at once.
type ViewKind int

const (
	// ViewRenderTarget is a colour attachment view.
	ViewRenderTarget ViewKind = iota
	// ViewDepthStencilTarget is a depth-stencil attachment view over both aspects.
	ViewDepthStencilTarget
	// ViewShaderInput is a sampled colour view.
	ViewShaderInput
	// ViewDepthShaderInput is a sampled view over the depth aspect only.
	ViewDepthShaderInput
)

func (k ViewKind) String() string {
	switch k {
	case ViewRenderTarget:
		return "render-target"
	case ViewDepthStencilTarget:
		return "depth-stencil-target"
	case ViewShaderInput:
		return "shader-input"
	case ViewDepthShaderInput:
		return "depth-shader-input"
	default:
		return "unknown"
	}
}

// IsTarget reports whether views of this kind are bound as attachments.
func (k ViewKind) IsTarget() bool {
	return k == ViewRenderTarget || k == ViewDepthStencilTarget
}

// TextureDescriptor describes a texture to create.
type TextureDescriptor struct {
	Label  string
	Width  uint32
	Height uint32
	Format TextureFormat
	Usage  TextureUsage
}

// TextureViewDescriptor describes a view to create over an existing texture.
type TextureViewDescriptor struct {
	Label string
	Kind  ViewKind
}

// MeshDescriptor holds the vertex and index data of a mesh pending upload.
type MeshDescriptor struct {
	Label string
	// Vertices is the tightly packed vertex data.
	Vertices []byte
	// Stride is the byte size of one vertex.
	Stride uint64
	// Indices index into Vertices. They are drawn as whatever topology the bound program uses.
	Indices []uint32
}

// ClearValues are the values a Clear writes into the bound targets.
type ClearValues struct {
	Colour  [4]float64
	Depth   float32
	Stencil uint32
}

// Texture is a GPU texture handle.
type Texture interface {
	Label() string
	Width() uint32
	Height() uint32
	Format() TextureFormat
	// Release destroys the texture. Every view created from it must be released first.
	Release()
}

// TextureView is a view over a Texture bound either as a target or as a shader input.
type TextureView interface {
	Label() string
	Texture() Texture
	Kind() ViewKind
	Release()
}

// Buffer is a uniform buffer handle.
type Buffer interface {
	Label() string
	Size() uint64
	Release()
}

// Sampler is a sampler handle.
type Sampler interface {
	Label() string
	Release()
}

// Mesh is an uploaded vertex + index buffer pair.
type Mesh interface {
	Label() string
	IndexCount() uint32
	Release()
}

// Program is a compiled pipeline.
type Program interface {
	Pipeline() pipeline.Pipeline
	Release()
}

// RendererBackend is an immediate-mode GPU API: resources are created through it, state is
// bound slot by slot and Draw consumes whatever is bound. Implementations must reject binding a
// texture as a render target and a shader input at the same time with ErrHazard.
//
// Binding slots map onto shader reflection as follows: uniform slot N is @group(0) @binding(N),
// shader input slot N is @group(1) @binding(N) and sampler slot N is @group(1) @binding(8+N).
type RendererBackend interface {
	// ConfigureSurface (re)configures the presentation surface for a new size.
	//
	// Parameters:
	//   - width: the surface width in pixels
	//   - height: the surface height in pixels
	//
	// Returns:
	//   - error: an error if the surface cannot be configured
	ConfigureSurface(width, height int) error

	// SetPresentMode sets the present mode used by the next ConfigureSurface.
	//
	// Parameters:
	//   - mode: the PresentMode to use
	SetPresentMode(mode PresentMode)

	// CreateTexture allocates a texture.
	//
	// Parameters:
	//   - desc: the texture description
	//
	// Returns:
	//   - Texture: the new texture
	//   - error: an error if allocation fails
	CreateTexture(desc TextureDescriptor) (Texture, error)

	// CreateTextureView creates a view of the given kind over tex. A ViewDepthShaderInput
	// view over a depth-stencil texture exposes the depth aspect only.
	//
	// Parameters:
	//   - tex: the texture to view
	//   - desc: the view description
	//
	// Returns:
	//   - TextureView: the new view
	//   - error: an error if the kind does not fit the texture's format or usage
	CreateTextureView(tex Texture, desc TextureViewDescriptor) (TextureView, error)

	// WriteTexture uploads pixel data into a texture created with UsageCopyDst.
	//
	// Parameters:
	//   - tex: the destination texture
	//   - data: the pixels, matching the texture's size
	//
	// Returns:
	//   - error: an error if the sizes disagree
	WriteTexture(tex Texture, data common.TextureStagingData) error

	// CreateUniformBuffer allocates a uniform buffer of the given byte size.
	//
	// Parameters:
	//   - label: a debug label
	//   - size: the byte size of one upload
	//
	// Returns:
	//   - Buffer: the new buffer
	//   - error: an error if allocation fails
	CreateUniformBuffer(label string, size uint64) (Buffer, error)

	// WriteBuffer replaces the whole contents of buf. Draws issued afterwards observe the new
	// contents and draws issued before keep observing the old ones.
	//
	// Parameters:
	//   - buf: the destination buffer
	//   - data: exactly buf.Size() bytes
	//
	// Returns:
	//   - error: an error if the size is wrong or the backend ran out of per-frame space
	WriteBuffer(buf Buffer, data []byte) error

	// CreateSampler creates a sampler.
	//
	// Parameters:
	//   - label: a debug label
	//   - data: the sampler configuration
	//
	// Returns:
	//   - Sampler: the new sampler
	//   - error: an error if creation fails
	CreateSampler(label string, data common.SamplerStagingData) (Sampler, error)

	// CreateMesh uploads a vertex + index buffer pair.
	//
	// Parameters:
	//   - desc: the mesh data
	//
	// Returns:
	//   - Mesh: the uploaded mesh
	//   - error: an error if the data is empty or the upload fails
	CreateMesh(desc MeshDescriptor) (Mesh, error)

	// CreateProgram compiles a pipeline.
	//
	// Parameters:
	//   - p: the pipeline description
	//
	// Returns:
	//   - Program: the compiled program
	//   - error: an error if the pipeline is invalid or shader compilation fails
	CreateProgram(p pipeline.Pipeline) (Program, error)

	// BeginFrame acquires the next swap chain image and starts recording.
	//
	// Returns:
	//   - error: an error if the swap chain image could not be acquired
	BeginFrame() error

	// SwapchainView returns the render-target view of the current swap chain image.
	// Only valid between BeginFrame and EndFrame.
	SwapchainView() TextureView

	// EndFrame submits everything recorded since BeginFrame.
	//
	// Returns:
	//   - error: an error if submission fails
	EndFrame() error

	// Present shows the frame submitted by EndFrame.
	Present()

	// SetRenderTargets binds a colour and an optional depth-stencil target. Passing nil for
	// both unbinds all targets.
	//
	// Parameters:
	//   - colour: a ViewRenderTarget view, or nil
	//   - depthStencil: a ViewDepthStencilTarget view, or nil
	//
	// Returns:
	//   - error: ErrHazard if either texture is bound as a shader input
	SetRenderTargets(colour, depthStencil TextureView) error

	// Clear clears the currently bound targets.
	//
	// Parameters:
	//   - values: the colour, depth and stencil clear values
	Clear(values ClearValues)

	// SetShaderInputs binds views to consecutive input slots starting at startSlot.
	// A nil view empties its slot.
	//
	// Parameters:
	//   - startSlot: the first slot
	//   - views: the views to bind
	//
	// Returns:
	//   - error: ErrHazard if a texture is bound as a render target
	SetShaderInputs(startSlot int, views ...TextureView) error

	// SetUniformBuffers binds buffers to consecutive uniform slots starting at startSlot.
	SetUniformBuffers(startSlot int, buffers ...Buffer)

	// SetSamplers binds samplers to consecutive sampler slots starting at startSlot.
	SetSamplers(startSlot int, samplers ...Sampler)

	// SetProgram binds the program used by the following draws.
	SetProgram(p Program)

	// SetMesh binds the mesh drawn by the following draws.
	SetMesh(m Mesh)

	// Draw draws the bound mesh once with the bound program and resources.
	//
	// Returns:
	//   - error: an error if no target, program or mesh is bound, or a binding the program reads is empty
	Draw() error

	// Release destroys the device and every resource it still owns.
	Release()
}
