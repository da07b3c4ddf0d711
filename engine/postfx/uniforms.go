package postfx

import (
	"encoding/binary"
	"math"

	"github.com/Carmen-Shannon/oxy-dither/engine/camera"
)

const (
	// PerFrameSize is the byte size of the PerFrame uniform struct.
	PerFrameSize = 176
	// PerDrawSize is the byte size of the PerDraw uniform struct.
	PerDrawSize = 64
)

// PerFrame is the CPU mirror of the WGSL PerFrame struct, uploaded once per frame and read by
// the scene, post effect and overlay programs.
//
// Layout (176 bytes, std140-like WGSL uniform rules):
//
//	  0  projection         mat4x4<f32>
//	 64  view               mat4x4<f32>
//	128  time               f32
//	132  matrixSize         u32
//	136  matrixSizeSquared  u32
//	144  colourA            vec3<f32>
//	160  colourB            vec3<f32>
type PerFrame struct {
	Projection        [16]float32
	View              [16]float32
	Time              float32
	MatrixSize        uint32
	MatrixSizeSquared uint32
	ColourA           [3]float32
	ColourB           [3]float32
}

// NewPerFrame assembles the per-frame uniforms from camera and parameter state.
//
// Parameters:
//   - cam: the camera supplying projection and view matrices
//   - params: the dither parameters
//   - elapsed: seconds since start
//
// Returns:
//   - PerFrame: the uniform block
func NewPerFrame(cam camera.Camera, params *Params, elapsed float32) PerFrame {
	matrix := params.MatrixSize()
	colourA, colourB := params.Colours()
	return PerFrame{
		Projection:        cam.ProjectionMatrix(),
		View:              cam.ViewMatrix(),
		Time:              elapsed,
		MatrixSize:        uint32(matrix),
		MatrixSizeSquared: matrix.Squared(),
		ColourA:           colourA,
		ColourB:           colourB,
	}
}

// Size returns the size of the PerFrame struct in bytes.
func (p *PerFrame) Size() int {
	return PerFrameSize
}

// Marshal serializes the PerFrame struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 176-byte buffer ready for GPU upload.
func (p *PerFrame) Marshal() []byte {
	buf := make([]byte, PerFrameSize)
	putFloats(buf[0:64], p.Projection[:])
	putFloats(buf[64:128], p.View[:])
	binary.LittleEndian.PutUint32(buf[128:], math.Float32bits(p.Time))
	binary.LittleEndian.PutUint32(buf[132:], p.MatrixSize)
	binary.LittleEndian.PutUint32(buf[136:], p.MatrixSizeSquared)
	putFloats(buf[144:156], p.ColourA[:])
	putFloats(buf[160:172], p.ColourB[:])
	return buf
}

// PerDraw is the CPU mirror of the WGSL PerDraw struct, rewritten before every scene draw.
type PerDraw struct {
	MVP [16]float32
}

// Size returns the size of the PerDraw struct in bytes.
func (p *PerDraw) Size() int {
	return PerDrawSize
}

// Marshal serializes the PerDraw struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 64-byte buffer ready for GPU upload.
func (p *PerDraw) Marshal() []byte {
	buf := make([]byte, PerDrawSize)
	putFloats(buf, p.MVP[:])
	return buf
}

func putFloats(dst []byte, values []float32) {
	for i, v := range values {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(v))
	}
}
