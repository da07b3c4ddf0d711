package loader

import (
	"fmt"
	"image"
	"io"
	"path/filepath"
	"strings"

	"github.com/Carmen-Shannon/oxy-dither/common"
	"github.com/disintegration/imaging"

	// Formats beyond the standard library's PNG/JPEG/GIF.
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// textureExtensions lists the image formats the loader decodes.
var textureExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".bmp": true, ".tif": true, ".tiff": true, ".webp": true,
}

// decodeTextureFile opens and decodes an image file into RGBA staging data.
// EXIF orientation is applied and images larger than maxSize on either side are fitted inside
// maxSize x maxSize. A maxSize of zero disables fitting.
func decodeTextureFile(path string, maxSize int) (common.TextureStagingData, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !textureExtensions[ext] {
		return common.TextureStagingData{}, fmt.Errorf("unsupported texture format: %s", ext)
	}
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return common.TextureStagingData{}, fmt.Errorf("failed to decode texture file %s: %w", path, err)
	}
	return stageImage(img, maxSize)
}

// decodeTextureReader decodes an image stream into RGBA staging data.
func decodeTextureReader(r io.Reader, maxSize int) (common.TextureStagingData, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return common.TextureStagingData{}, fmt.Errorf("failed to decode texture: %w", err)
	}
	return stageImage(img, maxSize)
}

func stageImage(img image.Image, maxSize int) (common.TextureStagingData, error) {
	b := img.Bounds()
	if maxSize > 0 && (b.Dx() > maxSize || b.Dy() > maxSize) {
		img = imaging.Fit(img, maxSize, maxSize, imaging.Lanczos)
	}
	return common.NewTextureStagingData(img)
}

// Checkerboard builds a procedural two-tone texture used when no texture file is given.
//
// Parameters:
//   - size: the width and height in texels
//   - cell: the edge of one square in texels
//   - a: the first colour
//   - b: the second colour
//
// Returns:
//   - common.TextureStagingData: the staged pixels
func Checkerboard(size, cell int, a, b [4]byte) common.TextureStagingData {
	size = max(size, 1)
	cell = max(cell, 1)
	pixels := make([]byte, 0, size*size*4)
	for y := range size {
		for x := range size {
			if (x/cell+y/cell)%2 == 0 {
				pixels = append(pixels, a[:]...)
			} else {
				pixels = append(pixels, b[:]...)
			}
		}
	}
	return common.TextureStagingData{Pixels: pixels, Width: uint32(size), Height: uint32(size)}
}
