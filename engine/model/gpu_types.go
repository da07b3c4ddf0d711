package model

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-dither/engine/renderer/shader"
)

// GPUVertexSource is the canonical WGSL definition of the Vertex struct for mesh pipelines.
// Matches GPUVertex layout exactly (32 bytes).
//
//go:embed assets/vertex.wgsl
var GPUVertexSource string

// LineVertexSource is the canonical WGSL definition of the LineVertex struct for debug lines.
// Matches LineVertex layout exactly (24 bytes).
//
//go:embed assets/line_vertex.wgsl
var LineVertexSource string

func init() {
	shader.RegisterStruct("vertex", shader.StructSource{Source: GPUVertexSource, Type: "Vertex"})
	shader.RegisterStruct("line_vertex", shader.StructSource{Source: LineVertexSource, Type: "LineVertex"})
}

// GPUVertex is the GPU-aligned representation of a single mesh vertex.
// Size: 32 bytes, no padding.
type GPUVertex struct {
	Position [3]float32 // offset  0: vertex position in model space (12 bytes)
	Normal   [3]float32 // offset 12: vertex normal (12 bytes)
	TexCoord [2]float32 // offset 24: UV texture coordinate (8 bytes)
}

// Size returns the size of the GPUVertex struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUVertex) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUVertex struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 32-byte buffer ready for GPU upload.
func (g *GPUVertex) Marshal() []byte {
	buf := make([]byte, 32)
	putFloats(buf[0:12], g.Position[:])
	putFloats(buf[12:24], g.Normal[:])
	putFloats(buf[24:32], g.TexCoord[:])
	return buf
}

// LineVertex is a coloured debug line vertex.
// Size: 24 bytes, no padding.
type LineVertex struct {
	Position [3]float32 // offset  0: world-space position (12 bytes)
	Colour   [3]float32 // offset 12: linear RGB colour (12 bytes)
}

// Size returns the size of the LineVertex struct in bytes.
func (l *LineVertex) Size() int {
	return int(unsafe.Sizeof(*l))
}

// Marshal serializes the LineVertex struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 24-byte buffer ready for GPU upload.
func (l *LineVertex) Marshal() []byte {
	buf := make([]byte, 24)
	putFloats(buf[0:12], l.Position[:])
	putFloats(buf[12:24], l.Colour[:])
	return buf
}

// MarshalVertices packs a vertex slice back to back.
//
// Parameters:
//   - vertices: the vertices to pack
//
// Returns:
//   - []byte: the packed vertex data
func MarshalVertices(vertices []GPUVertex) []byte {
	buf := make([]byte, 0, len(vertices)*32)
	for i := range vertices {
		buf = append(buf, vertices[i].Marshal()...)
	}
	return buf
}

// MarshalLineVertices packs a line vertex slice back to back.
func MarshalLineVertices(vertices []LineVertex) []byte {
	buf := make([]byte, 0, len(vertices)*24)
	for i := range vertices {
		buf = append(buf, vertices[i].Marshal()...)
	}
	return buf
}

// ComputeBoundingRadius calculates the bounding sphere radius of a vertex slice around the model origin.
//
// Parameters:
//   - vertices: the vertex data to compute the bounding radius from
//
// Returns:
//   - float32: the maximum distance from the origin
func ComputeBoundingRadius(vertices []GPUVertex) float32 {
	var maxDistSq float32
	for _, v := range vertices {
		p := v.Position
		distSq := p[0]*p[0] + p[1]*p[1] + p[2]*p[2]
		if distSq > maxDistSq {
			maxDistSq = distSq
		}
	}
	return float32(math.Sqrt(float64(maxDistSq)))
}

func putFloats(dst []byte, values []float32) {
	for i, v := range values {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(v))
	}
}
