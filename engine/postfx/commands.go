package postfx

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-dither/engine/dither"
)

// CommandKind identifies a parameter transition.
type CommandKind int

const (
	CommandSelectAlgorithm CommandKind = iota
	CommandCycleAlgorithm
	CommandCycleMatrixSize
	CommandSelectPreset
	CommandCyclePreset
	CommandSetColourA
	CommandSetColourB
	CommandStepColour
	CommandToggleGrid
	CommandToggleProjection
)

func (k CommandKind) String() string {
	switch k {
	case CommandSelectAlgorithm:
		return "select-algorithm"
	case CommandCycleAlgorithm:
		return "cycle-algorithm"
	case CommandCycleMatrixSize:
		return "cycle-matrix-size"
	case CommandSelectPreset:
		return "select-preset"
	case CommandCyclePreset:
		return "cycle-preset"
	case CommandSetColourA:
		return "set-colour-a"
	case CommandSetColourB:
		return "set-colour-b"
	case CommandStepColour:
		return "step-colour"
	case CommandToggleGrid:
		return "toggle-grid"
	case CommandToggleProjection:
		return "toggle-projection"
	default:
		return fmt.Sprintf("CommandKind(%d)", int(k))
	}
}

// Command is a user-triggered parameter transition. Commands are plain values so they can be
// sent across goroutines; only the frame thread applies them.
type Command struct {
	Kind      CommandKind
	Algorithm dither.Algorithm
	Preset    int
	Colour    [3]float32
	// ColourB and Channel select the channel a StepColour command raises.
	ColourB bool
	Channel int
}

func (c Command) String() string {
	switch c.Kind {
	case CommandSelectAlgorithm:
		return fmt.Sprintf("%s(%s)", c.Kind, c.Algorithm.Name())
	case CommandSelectPreset:
		return fmt.Sprintf("%s(%d)", c.Kind, c.Preset)
	case CommandSetColourA, CommandSetColourB:
		return fmt.Sprintf("%s(%.3f, %.3f, %.3f)", c.Kind, c.Colour[0], c.Colour[1], c.Colour[2])
	case CommandStepColour:
		entry := "a"
		if c.ColourB {
			entry = "b"
		}
		return fmt.Sprintf("%s(%s.%d)", c.Kind, entry, c.Channel)
	default:
		return c.Kind.String()
	}
}

// SelectAlgorithm switches to the given algorithm.
func SelectAlgorithm(a dither.Algorithm) Command {
	return Command{Kind: CommandSelectAlgorithm, Algorithm: a}
}

// CycleAlgorithm switches to the next algorithm, wrapping after the last one.
func CycleAlgorithm() Command {
	return Command{Kind: CommandCycleAlgorithm}
}

// CycleMatrixSize cycles the dither matrix size 2 -> 4 -> 8 -> 2.
func CycleMatrixSize() Command {
	return Command{Kind: CommandCycleMatrixSize}
}

// SelectPreset copies the colours of preset i.
func SelectPreset(i int) Command {
	return Command{Kind: CommandSelectPreset, Preset: i}
}

// CyclePreset selects the preset after the active one.
func CyclePreset() Command {
	return Command{Kind: CommandCyclePreset}
}

// SetColourA edits the dark palette colour and enters the custom palette.
func SetColourA(c [3]float32) Command {
	return Command{Kind: CommandSetColourA, Colour: c}
}

// SetColourB edits the light palette colour and enters the custom palette.
func SetColourB(c [3]float32) Command {
	return Command{Kind: CommandSetColourB, Colour: c}
}

// StepColour raises one channel of colour A (or B) by one step against the live state, reaching
// 1 before wrapping to 0, and enters the custom palette. Channels outside 0..2 are ignored.
func StepColour(colourB bool, channel int) Command {
	return Command{Kind: CommandStepColour, ColourB: colourB, Channel: channel}
}

// ToggleGrid shows or hides the debug grid and axis triad.
func ToggleGrid() Command {
	return Command{Kind: CommandToggleGrid}
}

// ToggleProjection flips the camera between perspective and orthographic.
func ToggleProjection() Command {
	return Command{Kind: CommandToggleProjection}
}

// Effect reports what a transition requires from the frame that applies it.
type Effect uint32

const (
	// EffectRebuildProgram means the post effect program must be recompiled before the next post pass.
	EffectRebuildProgram Effect = 1 << iota
	// EffectUniforms means the per-frame uniforms changed.
	EffectUniforms
	// EffectCamera means the camera must apply a change the parameters do not own.
	EffectCamera
)

// Has reports whether every bit of o is set in e.
func (e Effect) Has(o Effect) bool {
	return e&o == o
}
