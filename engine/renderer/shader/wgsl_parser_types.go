package shader

// BindingKind classifies a reflected resource binding.
type BindingKind int

const (
	BindingUniform BindingKind = iota
	BindingStorage
	BindingReadOnlyStorage
	BindingSampler
	BindingComparisonSampler
	BindingTexture
	BindingDepthTexture
)

// SampleType is the texel type a texture binding is read as.
type SampleType int

const (
	SampleFloat SampleType = iota
	SampleSint
	SampleUint
	SampleDepth
)

// ViewDimension is the dimensionality of a texture binding.
type ViewDimension int

const (
	Dimension2D ViewDimension = iota
	Dimension1D
	Dimension2DArray
	Dimension3D
	DimensionCube
	DimensionCubeArray
)

// Binding is a resource declaration reflected from @group(G) @binding(B).
type Binding struct {
	Group   int
	Binding int
	Name    string
	Kind    BindingKind
	// MinSize is the byte size of the bound struct for buffer bindings, 0 when unknown.
	MinSize      uint64
	Dimension    ViewDimension
	SampleType   SampleType
	Multisampled bool
}

// IsBuffer reports whether the binding reads a buffer.
func (b Binding) IsBuffer() bool {
	return b.Kind == BindingUniform || b.Kind == BindingStorage || b.Kind == BindingReadOnlyStorage
}

// IsTexture reports whether the binding reads a texture view.
func (b Binding) IsTexture() bool {
	return b.Kind == BindingTexture || b.Kind == BindingDepthTexture
}

// IsSampler reports whether the binding is a sampler.
func (b Binding) IsSampler() bool {
	return b.Kind == BindingSampler || b.Kind == BindingComparisonSampler
}

// VertexFormat is the format of a single vertex attribute.
type VertexFormat int

const (
	VertexFloat32 VertexFormat = iota
	VertexFloat32x2
	VertexFloat32x3
	VertexFloat32x4
	VertexSint32
	VertexSint32x2
	VertexSint32x3
	VertexSint32x4
	VertexUint32
	VertexUint32x2
	VertexUint32x3
	VertexUint32x4
)

// VertexAttribute is one @location field of a vertex input struct.
type VertexAttribute struct {
	Location int
	Format   VertexFormat
	Offset   uint64
}

// VertexLayout describes one tightly packed, per-vertex buffer.
type VertexLayout struct {
	// Struct is the WGSL struct the layout was built from.
	Struct     string
	Stride     uint64
	Attributes []VertexAttribute
}

type vertexFormatInfo struct {
	format VertexFormat
	size   uint64
}

type wgslTypeLayout struct {
	size  uint64
	align uint64
}

type parsedField struct {
	name      string
	typeName  string
	location  int
	isBuiltin bool
}

type parsedStruct struct {
	name   string
	fields []parsedField
}
