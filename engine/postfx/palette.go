package postfx

import (
	"fmt"
	"strconv"
	"strings"
)

// CustomPaletteLabel is reported once either colour has been edited directly.
const CustomPaletteLabel = "custom"

// Palette is a named two-colour palette. ColourA is written where the scene is darker than the
// dither threshold and for background pixels, ColourB elsewhere.
type Palette struct {
	Label   string
	ColourA [3]float32
	ColourB [3]float32
}

var presets = [...]Palette{
	{Label: "Black And White", ColourA: [3]float32{0, 0, 0}, ColourB: [3]float32{1, 1, 1}},
	{Label: "Game Boy", ColourA: [3]float32{0.059, 0.220, 0.059}, ColourB: [3]float32{0.608, 0.737, 0.059}},
	{Label: "Sepia", ColourA: [3]float32{0.180, 0.110, 0.055}, ColourB: [3]float32{0.960, 0.870, 0.700}},
	{Label: "Blueprint", ColourA: [3]float32{0.040, 0.160, 0.420}, ColourB: [3]float32{0.850, 0.920, 1.000}},
}

// PresetCount is the size of the preset catalog.
const PresetCount = len(presets)

// Preset returns a copy of the preset at index i modulo PresetCount.
func Preset(i int) Palette {
	i %= PresetCount
	if i < 0 {
		i += PresetCount
	}
	return presets[i]
}

// Presets returns a copy of the catalog.
func Presets() []Palette {
	out := make([]Palette, PresetCount)
	copy(out, presets[:])
	return out
}

// ParsePreset resolves a preset from its index or its label, ignoring case and spaces.
//
// Parameters:
//   - s: an index such as "2" or a label such as "game boy"
//
// Returns:
//   - int: the preset index
//   - error: if s names no preset
func ParsePreset(s string) (int, error) {
	s = strings.TrimSpace(s)
	if i, err := strconv.Atoi(s); err == nil {
		if i < 0 || i >= PresetCount {
			return 0, fmt.Errorf("palette preset %d out of range [0, %d)", i, PresetCount)
		}
		return i, nil
	}
	key := strings.ReplaceAll(strings.ToLower(s), " ", "")
	for i, p := range presets {
		if strings.ReplaceAll(strings.ToLower(p.Label), " ", "") == key {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown palette preset %q", s)
}
