package postfx

import (
	"github.com/Carmen-Shannon/oxy-dither/common"
	"github.com/Carmen-Shannon/oxy-dither/engine/dither"
)

// customPreset marks the palette as edited rather than taken from the catalog.
const customPreset = -1

// Params is the post effect parameter state: the active algorithm, the dither matrix size and the
// palette, plus the debug grid flag. It is owned by the application and mutated only through
// Apply on the frame thread.
type Params struct {
	algorithm  dither.Algorithm
	matrixSize dither.MatrixSize
	colourA    [3]float32
	colourB    [3]float32

	// preset is the active catalog index or customPreset.
	preset int
	// lastPreset is the most recently selected catalog index. Cycling from custom resumes after it.
	lastPreset int

	grid bool
}

// Snapshot is an immutable copy of the parameter state published to other goroutines.
type Snapshot struct {
	Algorithm    dither.Algorithm
	MatrixSize   dither.MatrixSize
	ColourA      [3]float32
	ColourB      [3]float32
	PaletteLabel string
	// Preset is the active preset index, or -1 for a custom palette.
	Preset       int
	Grid         bool
	Orthographic bool
}

// NewParams creates parameter state starting on preset 0, matrix size 2 and ordered Bayer.
//
// Parameters:
//   - options: functional options overriding the defaults
//
// Returns:
//   - *Params: the parameter state
func NewParams(options ...ParamsBuilderOption) *Params {
	p := &Params{
		algorithm:  dither.AlgorithmBayer,
		matrixSize: dither.Matrix2,
	}
	p.selectPreset(0)
	for _, option := range options {
		option(p)
	}
	return p
}

// Algorithm returns the active algorithm.
func (p *Params) Algorithm() dither.Algorithm {
	return p.algorithm
}

// MatrixSize returns the dither matrix size.
func (p *Params) MatrixSize() dither.MatrixSize {
	return p.matrixSize
}

// Colours returns the dark and light palette colours.
func (p *Params) Colours() (colourA, colourB [3]float32) {
	return p.colourA, p.colourB
}

// Preset returns the active preset index. ok is false while the palette is custom.
func (p *Params) Preset() (index int, ok bool) {
	if p.preset == customPreset {
		return 0, false
	}
	return p.preset, true
}

// PaletteLabel returns the active preset's label or CustomPaletteLabel.
func (p *Params) PaletteLabel() string {
	if p.preset == customPreset {
		return CustomPaletteLabel
	}
	return presets[p.preset].Label
}

// Grid reports whether the debug grid is shown.
func (p *Params) Grid() bool {
	return p.grid
}

// Snapshot copies the state for publication. Orthographic is left for the caller to fill in.
func (p *Params) Snapshot() Snapshot {
	preset, ok := p.Preset()
	if !ok {
		preset = customPreset
	}
	return Snapshot{
		Algorithm:    p.algorithm,
		MatrixSize:   p.matrixSize,
		ColourA:      p.colourA,
		ColourB:      p.colourB,
		PaletteLabel: p.PaletteLabel(),
		Preset:       preset,
		Grid:         p.grid,
	}
}

// DitherOptions returns the CPU reference options matching the current state.
//
// Parameters:
//   - elapsed: seconds since start, read by the randomized variant
//
// Returns:
//   - dither.Options: options for dither.Options.Apply or Shade
func (p *Params) DitherOptions(elapsed float32) dither.Options {
	return dither.Options{
		Algorithm:  p.algorithm,
		MatrixSize: p.matrixSize,
		ColourA:    p.colourA,
		ColourB:    p.colourB,
		Time:       elapsed,
	}
}

// Apply performs one transition. Applying the same selecting command twice leaves the state as
// applying it once, and a command that changes nothing reports no effect.
//
// Parameters:
//   - cmd: the transition
//
// Returns:
//   - Effect: what the caller must do before the next frame renders
func (p *Params) Apply(cmd Command) Effect {
	var effect Effect
	switch cmd.Kind {
	case CommandSelectAlgorithm:
		if cmd.Algorithm.Valid() && cmd.Algorithm != p.algorithm {
			p.algorithm = cmd.Algorithm
			effect = EffectRebuildProgram
		}
	case CommandCycleAlgorithm:
		p.algorithm = p.algorithm.Next()
		effect = EffectRebuildProgram
	case CommandCycleMatrixSize:
		p.matrixSize = p.matrixSize.Next()
		effect = EffectUniforms
	case CommandSelectPreset:
		if cmd.Preset < 0 || cmd.Preset >= PresetCount {
			common.Logger().Warn("palette preset out of range", "preset", cmd.Preset)
			break
		}
		if p.preset != cmd.Preset || p.colourA != presets[cmd.Preset].ColourA || p.colourB != presets[cmd.Preset].ColourB {
			p.selectPreset(cmd.Preset)
			effect = EffectUniforms
		}
	case CommandCyclePreset:
		p.selectPreset((p.lastPreset + 1) % PresetCount)
		effect = EffectUniforms
	case CommandSetColourA:
		c := clampColour(cmd.Colour)
		if p.preset != customPreset || c != p.colourA {
			p.colourA = c
			p.preset = customPreset
			effect = EffectUniforms
		}
	case CommandSetColourB:
		c := clampColour(cmd.Colour)
		if p.preset != customPreset || c != p.colourB {
			p.colourB = c
			p.preset = customPreset
			effect = EffectUniforms
		}
	case CommandStepColour:
		if cmd.Channel < 0 || cmd.Channel > 2 {
			common.Logger().Warn("colour channel out of range", "channel", cmd.Channel)
			break
		}
		target := &p.colourA
		if cmd.ColourB {
			target = &p.colourB
		}
		target[cmd.Channel] = stepChannel(target[cmd.Channel])
		p.preset = customPreset
		effect = EffectUniforms
	case CommandToggleGrid:
		p.grid = !p.grid
	case CommandToggleProjection:
		effect = EffectCamera
	}
	if effect != 0 {
		common.Logger().Debug("parameters changed", "command", cmd.String(), "algorithm", p.algorithm.Name(), "matrix", uint32(p.matrixSize), "palette", p.PaletteLabel())
	}
	return effect
}

func (p *Params) selectPreset(i int) {
	preset := presets[i]
	p.colourA = preset.ColourA
	p.colourB = preset.ColourB
	p.preset = i
	p.lastPreset = i
}

// stepChannel raises v by colourStep, stopping at 1 and wrapping to 0 only from 1.
func stepChannel(v float32) float32 {
	if v >= 1 {
		return 0
	}
	return min(v+colourStep, 1)
}

func clampColour(c [3]float32) [3]float32 {
	return [3]float32{common.Clamp01(c[0]), common.Clamp01(c[1]), common.Clamp01(c[2])}
}
