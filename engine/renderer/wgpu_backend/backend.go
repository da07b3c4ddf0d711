// Package wgpu_backend implements renderer.RendererBackend on WebGPU.
//
// The renderer API is immediate mode: targets, inputs, uniforms and programs are bound slot by slot
// and every Draw consumes the current bindings. This package turns that into WebGPU passes. Render
// passes begin lazily on the first draw after a target change and end on the next target change or
// at EndFrame. Uniform buffers are rings addressed with dynamic offsets, so each WriteBuffer lands
// in a fresh slot and draws recorded earlier in the frame keep reading the contents they were
// issued with.
package wgpu_backend

import (
	"errors"
	"fmt"
	"runtime"
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy-dither/common"
	"github.com/Carmen-Shannon/oxy-dither/engine/renderer"
	"github.com/cogentcore/webgpu/wgpu"
)

const (
	maxUniformSlots    = 4
	maxSamplerSlots    = 4
	samplerBindingBase = 8

	// uniformAlignment is the largest minUniformBufferOffsetAlignment WebGPU allows.
	uniformAlignment = 256
)

// backend is the WebGPU implementation of renderer.RendererBackend.
type backend struct {
	mu *sync.Mutex

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	surface  *wgpu.Surface

	surfaceFormat wgpu.TextureFormat
	presentMode   wgpu.PresentMode
	width, height int

	forceFallbackAdapter bool
	ringSlots            uint64

	bindings renderer.BindingTracker
	program  *program
	mesh     *mesh
	uniforms [maxUniformSlots]*uniformBuffer
	samplers [maxSamplerSlots]*sampler

	// Frame state, valid between BeginFrame and EndFrame.
	frameEncoder *wgpu.CommandEncoder
	framePass    *wgpu.RenderPassEncoder
	frameSurface *wgpu.Texture
	frameView    *textureView
	pendingClear *renderer.ClearValues
	passProgram  *program
	inputGroup   *wgpu.BindGroup
	uniformGroup *wgpu.BindGroup
	groupsDirty  bool
	frameGarbage []*wgpu.BindGroup

	liveBuffers map[*uniformBuffer]struct{}
}

var _ renderer.RendererBackend = &backend{}

// New requests an adapter and device compatible with the given surface and returns a backend
// drawing into it. The calling goroutine is locked to its OS thread, as GLFW and most native
// WebGPU implementations require.
//
// Parameters:
//   - surfaceDescriptor: the platform surface, typically from window.SurfaceDescriptor()
//   - options: variadic list of BackendBuilderOption functions
//
// Returns:
//   - renderer.RendererBackend: the backend
//   - error: an error if no adapter or device is available
func New(surfaceDescriptor *wgpu.SurfaceDescriptor, options ...BackendBuilderOption) (renderer.RendererBackend, error) {
	if surfaceDescriptor == nil {
		return nil, errors.New("wgpu backend: nil surface descriptor")
	}
	runtime.LockOSThread()

	b := &backend{
		mu:          &sync.Mutex{},
		presentMode: wgpu.PresentModeImmediate,
		ringSlots:   256,
		liveBuffers: make(map[*uniformBuffer]struct{}),
	}
	for _, opt := range options {
		opt(b)
	}

	b.instance = wgpu.CreateInstance(nil)
	b.surface = b.instance.CreateSurface(surfaceDescriptor)

	a, err := b.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: b.forceFallbackAdapter,
		CompatibleSurface:    b.surface,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu backend: request adapter: %w", err)
	}
	b.adapter = a

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Main Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: wgpu.DefaultLimits(),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu backend: request device: %w", err)
	}
	b.device = d
	b.queue = d.GetQueue()

	common.Logger().Info("wgpu device ready", "fallback", b.forceFallbackAdapter, "uniform_ring_slots", b.ringSlots)
	return b, nil
}

func (b *backend) ConfigureSurface(width, height int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if width <= 0 || height <= 0 {
		return fmt.Errorf("wgpu backend: invalid surface size %dx%d", width, height)
	}

	capabilities := b.surface.GetCapabilities(b.adapter)
	if len(capabilities.Formats) == 0 || len(capabilities.AlphaModes) == 0 {
		return errors.New("wgpu backend: surface reports no formats")
	}
	b.surfaceFormat = pickSurfaceFormat(capabilities.Formats)

	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      b.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: b.presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})
	b.width, b.height = width, height
	common.Logger().Debug("surface configured", "width", width, "height", height)
	return nil
}

// pickSurfaceFormat prefers a non-sRGB 8-bit format so shader output reaches the screen unchanged.
func pickSurfaceFormat(formats []wgpu.TextureFormat) wgpu.TextureFormat {
	for _, want := range []wgpu.TextureFormat{wgpu.TextureFormatBGRA8Unorm, wgpu.TextureFormatRGBA8Unorm} {
		if slices.Contains(formats, want) {
			return want
		}
	}
	return formats[0]
}

func (b *backend) SetPresentMode(mode renderer.PresentMode) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch mode {
	case renderer.PresentModeVSync:
		b.presentMode = wgpu.PresentModeFifo
	case renderer.PresentModeUncapped:
		fallthrough
	default:
		b.presentMode = wgpu.PresentModeImmediate
	}
}

func (b *backend) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.bindings.ResetBindings()
	b.program, b.mesh = nil, nil
	b.releaseFrameGarbage()
	if b.queue != nil {
		b.queue.Release()
	}
	if b.device != nil {
		b.device.Release()
	}
	if b.adapter != nil {
		b.adapter.Release()
	}
	if b.surface != nil {
		b.surface.Release()
	}
	if b.instance != nil {
		b.instance.Release()
	}
}
