package postfx

import (
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-dither/engine/dither"
)

// colourStep is how far one key press moves a palette channel.
const colourStep = 0.125

// Binding maps a key to the command it triggers. Command receives the latest published state;
// relative edits are resolved against live state when applied, not against the snapshot.
type Binding struct {
	Key     rune
	Help    string
	Command func(s Snapshot) Command
}

var bindings = []Binding{
	{Key: 'a', Help: "next algorithm", Command: func(Snapshot) Command { return CycleAlgorithm() }},
	{Key: '1', Help: dither.AlgorithmNone.Name(), Command: selectAlgorithm(dither.AlgorithmNone)},
	{Key: '2', Help: dither.AlgorithmBayer.Name(), Command: selectAlgorithm(dither.AlgorithmBayer)},
	{Key: '3', Help: dither.AlgorithmRandomBayer.Name(), Command: selectAlgorithm(dither.AlgorithmRandomBayer)},
	{Key: '4', Help: dither.AlgorithmDotBayer.Name(), Command: selectAlgorithm(dither.AlgorithmDotBayer)},
	{Key: 'm', Help: "next matrix size", Command: func(Snapshot) Command { return CycleMatrixSize() }},
	{Key: 'p', Help: "next palette", Command: func(Snapshot) Command { return CyclePreset() }},
	{Key: 'z', Help: "colour A red", Command: stepColour(false, 0)},
	{Key: 'x', Help: "colour A green", Command: stepColour(false, 1)},
	{Key: 'c', Help: "colour A blue", Command: stepColour(false, 2)},
	{Key: 'v', Help: "colour B red", Command: stepColour(true, 0)},
	{Key: 'b', Help: "colour B green", Command: stepColour(true, 1)},
	{Key: 'n', Help: "colour B blue", Command: stepColour(true, 2)},
	{Key: 'g', Help: "grid", Command: func(Snapshot) Command { return ToggleGrid() }},
	{Key: 'o', Help: "orthographic", Command: func(Snapshot) Command { return ToggleProjection() }},
}

// Bindings returns the keyboard bindings shared by the window and the terminal panel.
func Bindings() []Binding {
	return append([]Binding(nil), bindings...)
}

// CommandForKey resolves a key against Bindings. Letters match in either case.
//
// Parameters:
//   - key: the pressed key
//   - s: the latest published state
//
// Returns:
//   - Command: the command to send
//   - bool: false when the key is unbound
func CommandForKey(key rune, s Snapshot) (Command, bool) {
	if key >= 'A' && key <= 'Z' {
		key += 'a' - 'A'
	}
	for _, b := range bindings {
		if b.Key == key {
			return b.Command(s), true
		}
	}
	return Command{}, false
}

func selectAlgorithm(a dither.Algorithm) func(Snapshot) Command {
	return func(Snapshot) Command { return SelectAlgorithm(a) }
}

func stepColour(colourB bool, channel int) func(Snapshot) Command {
	return func(Snapshot) Command { return StepColour(colourB, channel) }
}

// String renders the snapshot as a one-line status label.
func (s Snapshot) String() string {
	var b strings.Builder
	b.WriteString(s.Algorithm.Name())
	if s.Algorithm.UsesMatrix() {
		fmt.Fprintf(&b, " | %dx%d", int(s.MatrixSize), int(s.MatrixSize))
	}
	fmt.Fprintf(&b, " | %s", s.PaletteLabel)
	if s.Orthographic {
		b.WriteString(" | orthographic")
	} else {
		b.WriteString(" | perspective")
	}
	if s.Grid {
		b.WriteString(" | grid")
	}
	return b.String()
}
