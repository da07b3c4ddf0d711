package postfx

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-dither/engine/dither"
)

func TestCommandForKey(t *testing.T) {
	s := NewParams().Snapshot()
	cases := []struct {
		key  rune
		want Command
	}{
		{'a', CycleAlgorithm()},
		{'A', CycleAlgorithm()},
		{'3', SelectAlgorithm(dither.AlgorithmRandomBayer)},
		{'m', CycleMatrixSize()},
		{'P', CyclePreset()},
		{'z', StepColour(false, 0)},
		{'n', StepColour(true, 2)},
		{'g', ToggleGrid()},
		{'o', ToggleProjection()},
	}
	for _, tc := range cases {
		got, ok := CommandForKey(tc.key, s)
		if !ok {
			t.Errorf("key %q is unbound", tc.key)
			continue
		}
		if got != tc.want {
			t.Errorf("key %q = %v, want %v", tc.key, got, tc.want)
		}
	}
	if _, ok := CommandForKey('?', s); ok {
		t.Error("'?' resolved to a command")
	}
}

func TestBindingKeysAreUnique(t *testing.T) {
	seen := make(map[rune]bool)
	for _, b := range Bindings() {
		if seen[b.Key] {
			t.Errorf("key %q bound twice", b.Key)
		}
		seen[b.Key] = true
		if b.Help == "" {
			t.Errorf("key %q has no help text", b.Key)
		}
	}
}

func TestColourStepReachesOneThenWraps(t *testing.T) {
	p := NewParams()
	for range 8 {
		cmd, _ := CommandForKey('x', p.Snapshot())
		p.Apply(cmd)
	}
	if a, _ := p.Colours(); a[1] != 1 {
		t.Fatalf("green after 8 steps = %v, want 1", a[1])
	}
	cmd, _ := CommandForKey('x', p.Snapshot())
	p.Apply(cmd)
	if a, _ := p.Colours(); a[1] != 0 {
		t.Errorf("green after wrapping = %v, want 0", a[1])
	}
	if p.PaletteLabel() != CustomPaletteLabel {
		t.Errorf("label = %q, want %q", p.PaletteLabel(), CustomPaletteLabel)
	}
}

func TestSnapshotString(t *testing.T) {
	p := NewParams()
	if got, want := p.Snapshot().String(), "Bayer_Dither | 2x2 | Black And White | perspective"; got != want {
		t.Errorf("label = %q, want %q", got, want)
	}
	p.Apply(SelectAlgorithm(dither.AlgorithmNone))
	p.Apply(ToggleGrid())
	s := p.Snapshot()
	s.Orthographic = true
	if got, want := s.String(), "None | Black And White | orthographic | grid"; got != want {
		t.Errorf("label = %q, want %q", got, want)
	}
}

func TestRepeatedKeyFromOneSnapshotAccumulates(t *testing.T) {
	p := NewParams()
	s := p.Snapshot()
	for range 2 {
		cmd, _ := CommandForKey('z', s)
		p.Apply(cmd)
	}
	if a, _ := p.Colours(); a[0] != 0.25 {
		t.Errorf("red after two presses = %v, want 0.25", a[0])
	}
}
