package dither

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

// Options carries the parameters of one post-effect evaluation.
type Options struct {
	Algorithm  Algorithm
	MatrixSize MatrixSize
	// ColourA is the dark palette entry, ColourB the light one. Components are in [0, 1].
	ColourA, ColourB [3]float32
	// Time is the elapsed time in seconds. Only the randomized variant reads it.
	Time float32
	// Depth returns the scene depth in [0, 1] at a pixel. Nil treats every pixel as geometry.
	Depth func(x, y int) float32
}

// Frame converts elapsed time into the frame counter that seeds the randomized variant.
func Frame(time float32) uint32 {
	if time <= 0 {
		return 0
	}
	return uint32(time * 60)
}

// Hash is a PCG-style integer hash. It wraps on overflow exactly like u32 arithmetic in WGSL.
func Hash(v uint32) uint32 {
	state := v*747796405 + 2891336453
	word := ((state >> ((state >> 28) + 4)) ^ state) * 277803737
	return (word >> 22) ^ word
}

// cellOffset returns the per-cell lookup offset used by the randomized variant.
func cellOffset(n MatrixSize, cx, cy, frame uint32) (uint32, uint32) {
	h := Hash(cx ^ Hash(cy^Hash(frame)))
	return h % uint32(n), (h >> 8) % uint32(n)
}

// Luma returns the Rec.601 luma of an RGB triple.
func Luma(rgb [3]float32) float32 {
	return 0.299*rgb[0] + 0.587*rgb[1] + 0.114*rgb[2]
}

// Shade evaluates the selected variant for a single pixel, mirroring the pixel stage.
//
// Parameters:
//   - x, y: integer pixel coordinates
//   - rgb: the scene colour at the pixel, components in [0, 1]
//   - depth: the scene depth at the pixel, 1 for background
//
// Returns:
//   - [3]float32: the output colour
func (o Options) Shade(x, y uint32, rgb [3]float32, depth float32) [3]float32 {
	if o.Algorithm == AlgorithmNone || !o.Algorithm.Valid() {
		return rgb
	}
	if depth >= 1 {
		return o.ColourA
	}

	n := o.MatrixSize
	if !n.Valid() {
		n = Matrix2
	}

	var threshold float32
	switch o.Algorithm {
	case AlgorithmBayer:
		threshold = Threshold(n, x, y)
	case AlgorithmRandomBayer:
		ox, oy := cellOffset(n, x/uint32(n), y/uint32(n), Frame(o.Time))
		threshold = Threshold(n, x+ox, y+oy)
	case AlgorithmDotBayer:
		half := float32(n) * 0.5
		lx := float32(x%uint32(n)) + 0.5 - half
		ly := float32(y%uint32(n)) + 0.5 - half
		d := float32(math.Sqrt(float64(lx*lx+ly*ly))) / (half * math.Sqrt2)
		threshold = (Threshold(n, x, y) + d) * 0.5
	}

	if Luma(rgb) > threshold {
		return o.ColourB
	}
	return o.ColourA
}

// Apply runs the selected variant over a whole image. The output has the
// source's dimensions with its origin moved to (0, 0).
//
// Parameters:
//   - img: the scene colour
//
// Returns:
//   - *image.NRGBA: the processed image
func (o Options) Apply(img image.Image) *image.NRGBA {
	src := imaging.Clone(img)
	if o.Algorithm == AlgorithmNone {
		return src
	}

	b := src.Bounds()
	dst := image.NewNRGBA(b)
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			c := src.NRGBAAt(x, y)
			rgb := [3]float32{float32(c.R) / 255, float32(c.G) / 255, float32(c.B) / 255}
			depth := float32(0)
			if o.Depth != nil {
				depth = o.Depth(x, y)
			}
			dst.SetNRGBA(x, y, toNRGBA(o.Shade(uint32(x), uint32(y), rgb, depth)))
		}
	}
	return dst
}

func toNRGBA(rgb [3]float32) color.NRGBA {
	conv := func(v float32) uint8 {
		if v <= 0 {
			return 0
		}
		if v >= 1 {
			return 255
		}
		return uint8(v*255 + 0.5)
	}
	return color.NRGBA{R: conv(rgb[0]), G: conv(rgb[1]), B: conv(rgb[2]), A: 255}
}
