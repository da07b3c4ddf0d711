package renderertest

import (
	"github.com/Carmen-Shannon/oxy-dither/engine/renderer"
	"github.com/Carmen-Shannon/oxy-dither/engine/renderer/pipeline"
)

// Kind names a class of recorded resource.
type Kind string

const (
	KindTexture Kind = "texture"
	KindView    Kind = "view"
	KindBuffer  Kind = "buffer"
	KindSampler Kind = "sampler"
	KindMesh    Kind = "mesh"
	KindProgram Kind = "program"
)

// Texture is a recorded texture.
type Texture struct {
	b        *Backend
	Desc     renderer.TextureDescriptor
	Pixels   []byte
	Released bool

	liveViews int
}

var _ renderer.Texture = &Texture{}

func (t *Texture) Label() string                  { return t.Desc.Label }
func (t *Texture) Width() uint32                  { return t.Desc.Width }
func (t *Texture) Height() uint32                 { return t.Desc.Height }
func (t *Texture) Format() renderer.TextureFormat { return t.Desc.Format }

func (t *Texture) Release() {
	b := t.b
	switch {
	case t.Released:
		b.violate("texture %q released twice", t.Desc.Label)
		return
	case t.liveViews > 0:
		b.violate("texture %q released with %d live views", t.Desc.Label, t.liveViews)
	case b.bindings.IsBound(t):
		b.violate("texture %q released while bound", t.Desc.Label)
	}
	t.Released = true
	b.record(KindTexture, false)
}

// View is a recorded texture view.
type View struct {
	b        *Backend
	Desc     renderer.TextureViewDescriptor
	Tex      *Texture
	Released bool
}

var _ renderer.TextureView = &View{}

func (v *View) Label() string             { return v.Desc.Label }
func (v *View) Texture() renderer.Texture { return v.Tex }
func (v *View) Kind() renderer.ViewKind   { return v.Desc.Kind }

func (v *View) Release() {
	if v.Released {
		v.b.violate("view %q released twice", v.Desc.Label)
		return
	}
	v.Released = true
	v.Tex.liveViews--
	v.b.record(KindView, false)
}

// Buffer is a recorded uniform buffer. Data holds the contents of the latest write.
type Buffer struct {
	b        *Backend
	label    string
	size     uint64
	Data     []byte
	Writes   int
	Released bool
}

var _ renderer.Buffer = &Buffer{}

func (u *Buffer) Label() string { return u.label }
func (u *Buffer) Size() uint64  { return u.size }

func (u *Buffer) Release() {
	if u.Released {
		u.b.violate("buffer %q released twice", u.label)
		return
	}
	u.Released = true
	u.b.record(KindBuffer, false)
}

// Sampler is a recorded sampler.
type Sampler struct {
	b        *Backend
	label    string
	Released bool
}

var _ renderer.Sampler = &Sampler{}

func (s *Sampler) Label() string { return s.label }

func (s *Sampler) Release() {
	if s.Released {
		s.b.violate("sampler %q released twice", s.label)
		return
	}
	s.Released = true
	s.b.record(KindSampler, false)
}

// Mesh is a recorded mesh.
type Mesh struct {
	b        *Backend
	Desc     renderer.MeshDescriptor
	Released bool
}

var _ renderer.Mesh = &Mesh{}

func (m *Mesh) Label() string      { return m.Desc.Label }
func (m *Mesh) IndexCount() uint32 { return uint32(len(m.Desc.Indices)) }

func (m *Mesh) Release() {
	if m.Released {
		m.b.violate("mesh %q released twice", m.Desc.Label)
		return
	}
	m.Released = true
	m.b.record(KindMesh, false)
}

// Program is a recorded compiled pipeline.
type Program struct {
	b        *Backend
	pipeline pipeline.Pipeline
	Released bool
}

var _ renderer.Program = &Program{}

func (p *Program) Pipeline() pipeline.Pipeline { return p.pipeline }

func (p *Program) Release() {
	if p.Released {
		p.b.violate("program %q released twice", p.pipeline.PipelineKey())
		return
	}
	p.Released = true
	p.b.record(KindProgram, false)
}
