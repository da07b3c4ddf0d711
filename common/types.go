// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// TextureStagingData holds RGBA pixel data for a texture pending GPU upload.
type TextureStagingData struct {
	// Pixels is the byte slice representing the actual pixel data for the texture. It is in non-premultiplied RGBA format, with 4 bytes per pixel.
	Pixels []byte
	// Width is the width of the texture in pixels.
	Width uint32
	// Height is the height of the texture in pixels.
	Height uint32
}

// NewTextureStagingData converts any decoded image into tightly packed RGBA staging data.
//
// Parameters:
//   - img: the decoded image
//
// Returns:
//   - TextureStagingData: the staged pixels
//   - error: if the image is empty
func NewTextureStagingData(img image.Image) (TextureStagingData, error) {
	if img == nil {
		return TextureStagingData{}, fmt.Errorf("image is nil")
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return TextureStagingData{}, fmt.Errorf("image has empty bounds %v", b)
	}
	nrgba := imaging.Clone(img)
	return TextureStagingData{
		Pixels: nrgba.Pix,
		Width:  uint32(b.Dx()),
		Height: uint32(b.Dy()),
	}, nil
}

// AddressMode selects how texture coordinates outside [0, 1] are resolved.
type AddressMode int

const (
	AddressRepeat AddressMode = iota
	AddressClampToEdge
	AddressMirrorRepeat
)

// FilterMode selects texel filtering.
type FilterMode int

const (
	FilterLinear FilterMode = iota
	FilterNearest
)

// SamplerStagingData holds the configuration for a sampler pending GPU creation.
type SamplerStagingData struct {
	// AddressModeU, AddressModeV, AddressModeW specify the addressing mode for texture coordinates outside the [0, 1] range in each dimension (U, V, W).
	AddressModeU, AddressModeV, AddressModeW AddressMode
	// MagFilter and MinFilter specify the filtering mode for magnification and minification.
	MagFilter, MinFilter FilterMode
	// MipmapFilter specifies the filtering mode for mipmap level selection.
	MipmapFilter FilterMode
	// LodMinClamp and LodMaxClamp specify the minimum and maximum level of detail (LOD) for mipmapping.
	LodMinClamp, LodMaxClamp float32
	// MaxAnisotropy specifies the maximum anisotropy level. Zero is treated as 1.
	MaxAnisotropy uint16
}

// WrapSampler returns the linear, repeating sampler used for mesh textures.
func WrapSampler() SamplerStagingData {
	return SamplerStagingData{
		AddressModeU: AddressRepeat,
		AddressModeV: AddressRepeat,
		AddressModeW: AddressRepeat,
		MagFilter:    FilterLinear,
		MinFilter:    FilterLinear,
		MipmapFilter: FilterLinear,
		LodMaxClamp:  32,
	}
}
