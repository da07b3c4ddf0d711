package wgpu_backend

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-dither/common"
	"github.com/Carmen-Shannon/oxy-dither/engine/renderer"
	"github.com/cogentcore/webgpu/wgpu"
)

type texture struct {
	desc    renderer.TextureDescriptor
	texture *wgpu.Texture
}

var _ renderer.Texture = &texture{}

func (t *texture) Label() string                  { return t.desc.Label }
func (t *texture) Width() uint32                  { return t.desc.Width }
func (t *texture) Height() uint32                 { return t.desc.Height }
func (t *texture) Format() renderer.TextureFormat { return t.desc.Format }

func (t *texture) Release() {
	if t.texture != nil {
		t.texture.Release()
		t.texture = nil
	}
}

type textureView struct {
	desc renderer.TextureViewDescriptor
	tex  *texture
	view *wgpu.TextureView
}

var _ renderer.TextureView = &textureView{}

func (v *textureView) Label() string             { return v.desc.Label }
func (v *textureView) Texture() renderer.Texture { return v.tex }
func (v *textureView) Kind() renderer.ViewKind   { return v.desc.Kind }

func (v *textureView) Release() {
	if v.view != nil {
		v.view.Release()
		v.view = nil
	}
}

// uniformBuffer is a ring of 256-byte aligned slots. current is the byte offset of the latest write.
type uniformBuffer struct {
	b       *backend
	label   string
	size    uint64
	stride  uint64
	slots   uint64
	next    uint64
	current uint64
	buffer  *wgpu.Buffer
}

var _ renderer.Buffer = &uniformBuffer{}

func (u *uniformBuffer) Label() string { return u.label }
func (u *uniformBuffer) Size() uint64  { return u.size }

func (u *uniformBuffer) Release() {
	u.b.mu.Lock()
	delete(u.b.liveBuffers, u)
	u.b.mu.Unlock()
	if u.buffer != nil {
		u.buffer.Release()
		u.buffer = nil
	}
}

type sampler struct {
	label   string
	sampler *wgpu.Sampler
}

var _ renderer.Sampler = &sampler{}

func (s *sampler) Label() string { return s.label }

func (s *sampler) Release() {
	if s.sampler != nil {
		s.sampler.Release()
		s.sampler = nil
	}
}

type mesh struct {
	label        string
	indexCount   uint32
	vertexBuffer *wgpu.Buffer
	indexBuffer  *wgpu.Buffer
}

var _ renderer.Mesh = &mesh{}

func (m *mesh) Label() string      { return m.label }
func (m *mesh) IndexCount() uint32 { return m.indexCount }

func (m *mesh) Release() {
	if m.vertexBuffer != nil {
		m.vertexBuffer.Release()
		m.vertexBuffer = nil
	}
	if m.indexBuffer != nil {
		m.indexBuffer.Release()
		m.indexBuffer = nil
	}
}

func (b *backend) CreateTexture(desc renderer.TextureDescriptor) (renderer.Texture, error) {
	if desc.Width == 0 || desc.Height == 0 {
		return nil, fmt.Errorf("wgpu backend: texture %q has zero size", desc.Label)
	}
	format, err := b.textureFormat(desc.Format)
	if err != nil {
		return nil, err
	}

	var usage wgpu.TextureUsage
	if desc.Usage&renderer.UsageRenderTarget != 0 {
		usage |= wgpu.TextureUsageRenderAttachment
	}
	if desc.Usage&renderer.UsageShaderInput != 0 {
		usage |= wgpu.TextureUsageTextureBinding
	}
	if desc.Usage&renderer.UsageCopyDst != 0 {
		usage |= wgpu.TextureUsageCopyDst
	}

	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: desc.Label,
		Size: wgpu.Extent3D{
			Width:              desc.Width,
			Height:             desc.Height,
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        format,
		Usage:         usage,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu backend: create texture %q: %w", desc.Label, err)
	}
	return &texture{desc: desc, texture: tex}, nil
}

func (b *backend) CreateTextureView(tex renderer.Texture, desc renderer.TextureViewDescriptor) (renderer.TextureView, error) {
	t, ok := tex.(*texture)
	if !ok || t.texture == nil {
		return nil, fmt.Errorf("wgpu backend: view %q over an unknown or released texture", desc.Label)
	}
	isDepth := t.desc.Format.IsDepth()
	wantDepth := desc.Kind == renderer.ViewDepthStencilTarget || desc.Kind == renderer.ViewDepthShaderInput
	if isDepth != wantDepth {
		return nil, fmt.Errorf("wgpu backend: %s view over %q has the wrong format", desc.Kind, t.desc.Label)
	}

	var viewDesc *wgpu.TextureViewDescriptor
	if desc.Kind == renderer.ViewDepthShaderInput {
		// Only the depth aspect of a depth-stencil texture may be sampled.
		viewDesc = &wgpu.TextureViewDescriptor{
			Label:           desc.Label,
			Format:          wgpu.TextureFormatDepth24Plus,
			Dimension:       wgpu.TextureViewDimension2D,
			BaseMipLevel:    0,
			MipLevelCount:   1,
			BaseArrayLayer:  0,
			ArrayLayerCount: 1,
			Aspect:          wgpu.TextureAspectDepthOnly,
		}
	}
	view, err := t.texture.CreateView(viewDesc)
	if err != nil {
		return nil, fmt.Errorf("wgpu backend: create view %q: %w", desc.Label, err)
	}
	return &textureView{desc: desc, tex: t, view: view}, nil
}

func (b *backend) WriteTexture(tex renderer.Texture, data common.TextureStagingData) error {
	t, ok := tex.(*texture)
	if !ok || t.texture == nil {
		return errors.New("wgpu backend: write to an unknown or released texture")
	}
	if data.Width != t.desc.Width || data.Height != t.desc.Height || len(data.Pixels) != int(data.Width*data.Height*4) {
		return fmt.Errorf("wgpu backend: staging data %dx%d does not fit texture %q", data.Width, data.Height, t.desc.Label)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  t.texture,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		data.Pixels,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  data.Width * 4,
			RowsPerImage: data.Height,
		},
		&wgpu.Extent3D{
			Width:              data.Width,
			Height:             data.Height,
			DepthOrArrayLayers: 1,
		},
	)
	return nil
}

func (b *backend) CreateUniformBuffer(label string, size uint64) (renderer.Buffer, error) {
	if size == 0 {
		return nil, fmt.Errorf("wgpu backend: buffer %q has zero size", label)
	}
	stride := (size + uniformAlignment - 1) &^ (uniformAlignment - 1)
	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label,
		Size:  stride * b.ringSlots,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu backend: create buffer %q: %w", label, err)
	}

	u := &uniformBuffer{b: b, label: label, size: size, stride: stride, slots: b.ringSlots, buffer: buf}
	b.mu.Lock()
	b.liveBuffers[u] = struct{}{}
	b.mu.Unlock()
	return u, nil
}

func (b *backend) WriteBuffer(buf renderer.Buffer, data []byte) error {
	u, ok := buf.(*uniformBuffer)
	if !ok || u.buffer == nil {
		return errors.New("wgpu backend: write to an unknown or released buffer")
	}
	if uint64(len(data)) != u.size {
		return fmt.Errorf("wgpu backend: %d byte write to %d byte buffer %q", len(data), u.size, u.label)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if u.next >= u.slots {
		return fmt.Errorf("wgpu backend: buffer %q written more than %d times in one frame", u.label, u.slots)
	}
	offset := u.next * u.stride
	b.queue.WriteBuffer(u.buffer, offset, data)
	u.current = offset
	u.next++
	return nil
}

func (b *backend) CreateSampler(label string, data common.SamplerStagingData) (renderer.Sampler, error) {
	s, err := b.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         label,
		AddressModeU:  addressMode(data.AddressModeU),
		AddressModeV:  addressMode(data.AddressModeV),
		AddressModeW:  addressMode(data.AddressModeW),
		MagFilter:     filterMode(data.MagFilter),
		MinFilter:     filterMode(data.MinFilter),
		MipmapFilter:  mipmapFilterMode(data.MipmapFilter),
		LodMinClamp:   data.LodMinClamp,
		LodMaxClamp:   common.Coalesce(data.LodMaxClamp, 32.0),
		MaxAnisotropy: common.Coalesce(data.MaxAnisotropy, 1),
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu backend: create sampler %q: %w", label, err)
	}
	return &sampler{label: label, sampler: s}, nil
}

func (b *backend) CreateMesh(desc renderer.MeshDescriptor) (renderer.Mesh, error) {
	if len(desc.Vertices) == 0 || len(desc.Indices) == 0 {
		return nil, fmt.Errorf("wgpu backend: mesh %q is empty", desc.Label)
	}

	vb, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: desc.Label + " Vertex Buffer",
		Size:  uint64(len(desc.Vertices)),
		Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu backend: create mesh %q: %w", desc.Label, err)
	}

	indexData := make([]byte, len(desc.Indices)*4)
	for i, idx := range desc.Indices {
		binary.LittleEndian.PutUint32(indexData[i*4:], idx)
	}
	ib, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: desc.Label + " Index Buffer",
		Size:  uint64(len(indexData)),
		Usage: wgpu.BufferUsageIndex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		vb.Release()
		return nil, fmt.Errorf("wgpu backend: create mesh %q: %w", desc.Label, err)
	}

	b.mu.Lock()
	b.queue.WriteBuffer(vb, 0, desc.Vertices)
	b.queue.WriteBuffer(ib, 0, indexData)
	b.mu.Unlock()

	return &mesh{
		label:        desc.Label,
		indexCount:   uint32(len(desc.Indices)),
		vertexBuffer: vb,
		indexBuffer:  ib,
	}, nil
}

func (b *backend) textureFormat(f renderer.TextureFormat) (wgpu.TextureFormat, error) {
	switch f {
	case renderer.FormatRGBA8Unorm:
		return wgpu.TextureFormatRGBA8Unorm, nil
	case renderer.FormatRGBA8UnormSrgb:
		return wgpu.TextureFormatRGBA8UnormSrgb, nil
	case renderer.FormatDepth24PlusStencil8:
		return wgpu.TextureFormatDepth24PlusStencil8, nil
	case renderer.FormatSwapchain:
		return b.surfaceFormat, nil
	default:
		return 0, fmt.Errorf("wgpu backend: unsupported texture format %d", f)
	}
}

func addressMode(m common.AddressMode) wgpu.AddressMode {
	switch m {
	case common.AddressClampToEdge:
		return wgpu.AddressModeClampToEdge
	case common.AddressMirrorRepeat:
		return wgpu.AddressModeMirrorRepeat
	default:
		return wgpu.AddressModeRepeat
	}
}

func filterMode(m common.FilterMode) wgpu.FilterMode {
	if m == common.FilterNearest {
		return wgpu.FilterModeNearest
	}
	return wgpu.FilterModeLinear
}

func mipmapFilterMode(m common.FilterMode) wgpu.MipmapFilterMode {
	if m == common.FilterNearest {
		return wgpu.MipmapFilterModeNearest
	}
	return wgpu.MipmapFilterModeLinear
}
