package dither

import (
	"image"
	"image/color"
	"reflect"
	"sort"
	"testing"
)

func TestEntryPoints(t *testing.T) {
	want := map[Algorithm]string{
		AlgorithmNone:        "PS_PostEffect_None",
		AlgorithmBayer:       "PS_PostEffect_Bayer_Dither",
		AlgorithmRandomBayer: "PS_PostEffect_Random_Bayer_Dither",
		AlgorithmDotBayer:    "PS_PostEffect_Dot_Bayer_Dither",
	}
	for a, ep := range want {
		if got := a.EntryPoint(); got != ep {
			t.Errorf("%v.EntryPoint() = %q, want %q", a, got, ep)
		}
	}
}

func TestAlgorithmNextCycles(t *testing.T) {
	a := AlgorithmNone
	seen := map[Algorithm]bool{}
	for range len(Algorithms()) {
		seen[a] = true
		a = a.Next()
	}
	if a != AlgorithmNone {
		t.Fatalf("after a full cycle got %v, want %v", a, AlgorithmNone)
	}
	if len(seen) != len(Algorithms()) {
		t.Fatalf("cycle visited %d variants, want %d", len(seen), len(Algorithms()))
	}
}

func TestParseAlgorithm(t *testing.T) {
	cases := map[string]Algorithm{
		"bayer":               AlgorithmBayer,
		"Bayer_Dither":        AlgorithmBayer,
		"random":              AlgorithmRandomBayer,
		"dot pattern bayer":   AlgorithmDotBayer,
		"passthrough":         AlgorithmNone,
		"Random_Bayer_Dither": AlgorithmRandomBayer,
	}
	for in, want := range cases {
		got, err := ParseAlgorithm(in)
		if err != nil {
			t.Errorf("ParseAlgorithm(%q): %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParseAlgorithm(%q) = %v, want %v", in, got, want)
		}
	}
	if _, err := ParseAlgorithm("floyd"); err == nil {
		t.Error("expected error for unknown algorithm")
	}
}

func TestMatrixSizeCycle(t *testing.T) {
	for _, start := range []MatrixSize{Matrix2, Matrix4, Matrix8} {
		m := start
		for range 3 {
			m = m.Next()
			if m.Squared() != uint32(m)*uint32(m) {
				t.Fatalf("Squared(%d) = %d", m, m.Squared())
			}
		}
		if m != start {
			t.Errorf("three cycles from %d ended at %d", start, m)
		}
	}
	if Matrix2.Next() != Matrix4 || Matrix4.Next() != Matrix8 || Matrix8.Next() != Matrix2 {
		t.Error("cycle order is not 2 -> 4 -> 8 -> 2")
	}
}

func TestParseMatrixSize(t *testing.T) {
	for _, n := range []int{2, 4, 8} {
		if _, err := ParseMatrixSize(n); err != nil {
			t.Errorf("ParseMatrixSize(%d): %v", n, err)
		}
	}
	for _, n := range []int{-2, 0, 3, 16} {
		if _, err := ParseMatrixSize(n); err == nil {
			t.Errorf("ParseMatrixSize(%d) succeeded", n)
		}
	}
}

func TestBayerMatrices(t *testing.T) {
	want2 := [][]uint32{
		{0, 2},
		{3, 1},
	}
	want4 := [][]uint32{
		{0, 8, 2, 10},
		{12, 4, 14, 6},
		{3, 11, 1, 9},
		{15, 7, 13, 5},
	}
	if got := Matrix(Matrix2); !reflect.DeepEqual(got, want2) {
		t.Errorf("Matrix(2) = %v, want %v", got, want2)
	}
	if got := Matrix(Matrix4); !reflect.DeepEqual(got, want4) {
		t.Errorf("Matrix(4) = %v, want %v", got, want4)
	}
}

func TestBayerMatrixIsPermutation(t *testing.T) {
	for _, n := range []MatrixSize{Matrix2, Matrix4, Matrix8} {
		var values []int
		for _, row := range Matrix(n) {
			for _, v := range row {
				values = append(values, int(v))
			}
		}
		sort.Ints(values)
		for i, v := range values {
			if v != i {
				t.Fatalf("Matrix(%d) is not a permutation of 0..%d: %v", n, n.Squared()-1, values)
			}
		}
	}
}

func gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			v := uint8((x * 255) / (w - 1))
			img.SetNRGBA(x, y, color.NRGBA{R: v, G: uint8(y * 20), B: 255 - v, A: 255})
		}
	}
	return img
}

func TestPassthroughIgnoresMatrixSize(t *testing.T) {
	src := gradient(16, 8)
	var first *image.NRGBA
	for _, n := range []MatrixSize{Matrix2, Matrix4, Matrix8} {
		out := Options{Algorithm: AlgorithmNone, MatrixSize: n, ColourB: [3]float32{1, 1, 1}}.Apply(src)
		if first == nil {
			first = out
			continue
		}
		if !reflect.DeepEqual(first.Pix, out.Pix) {
			t.Fatalf("passthrough output differs for matrix size %d", n)
		}
	}
	if !reflect.DeepEqual(first.Pix, src.Pix) {
		t.Fatal("passthrough output differs from the input")
	}
}

func TestDitherUsesOnlyPaletteColours(t *testing.T) {
	a := [3]float32{0.2, 0.1, 0}
	b := [3]float32{1, 0.9, 0.8}
	ca, cb := toNRGBA(a), toNRGBA(b)
	for _, alg := range []Algorithm{AlgorithmBayer, AlgorithmRandomBayer, AlgorithmDotBayer} {
		out := Options{Algorithm: alg, MatrixSize: Matrix4, ColourA: a, ColourB: b, Time: 1.25}.Apply(gradient(32, 8))
		for y := range 8 {
			for x := range 32 {
				c := out.NRGBAAt(x, y)
				if c != ca && c != cb {
					t.Fatalf("%v: pixel (%d,%d) = %v is not a palette colour", alg, x, y, c)
				}
			}
		}
	}
}

func TestBayerDitherExtremes(t *testing.T) {
	o := Options{Algorithm: AlgorithmBayer, MatrixSize: Matrix8, ColourA: [3]float32{0, 0, 0}, ColourB: [3]float32{1, 1, 1}}
	for y := range uint32(8) {
		for x := range uint32(8) {
			if got := o.Shade(x, y, [3]float32{0, 0, 0}, 0.5); got != o.ColourA {
				t.Fatalf("black input at (%d,%d) = %v, want colourA", x, y, got)
			}
			if got := o.Shade(x, y, [3]float32{1, 1, 1}, 0.5); got != o.ColourB {
				t.Fatalf("white input at (%d,%d) = %v, want colourB", x, y, got)
			}
		}
	}
}

func TestBayerDitherCoverageMatchesLuma(t *testing.T) {
	o := Options{Algorithm: AlgorithmBayer, MatrixSize: Matrix4, ColourB: [3]float32{1, 1, 1}}
	grey := [3]float32{0.5, 0.5, 0.5}
	lit := 0
	for y := range uint32(4) {
		for x := range uint32(4) {
			if o.Shade(x, y, grey, 0) == o.ColourB {
				lit++
			}
		}
	}
	if lit != 8 {
		t.Fatalf("50%% grey lit %d of 16 cells, want 8", lit)
	}
}

func TestBackgroundUsesColourA(t *testing.T) {
	o := Options{
		Algorithm:  AlgorithmDotBayer,
		MatrixSize: Matrix2,
		ColourA:    [3]float32{0, 0, 1},
		ColourB:    [3]float32{1, 1, 0},
		Depth:      func(x, y int) float32 { return 1 },
	}
	out := o.Apply(gradient(4, 4))
	want := toNRGBA(o.ColourA)
	for y := range 4 {
		for x := range 4 {
			if c := out.NRGBAAt(x, y); c != want {
				t.Fatalf("background pixel (%d,%d) = %v, want %v", x, y, c, want)
			}
		}
	}
}

func TestRandomBayerDependsOnFrame(t *testing.T) {
	if Frame(0) != 0 || Frame(1) != 60 {
		t.Fatalf("Frame(0)=%d Frame(1)=%d, want 0 and 60", Frame(0), Frame(1))
	}
	src := gradient(64, 16)
	a := Options{Algorithm: AlgorithmRandomBayer, MatrixSize: Matrix8, ColourB: [3]float32{1, 1, 1}, Time: 0.5}.Apply(src)
	again := Options{Algorithm: AlgorithmRandomBayer, MatrixSize: Matrix8, ColourB: [3]float32{1, 1, 1}, Time: 0.5}.Apply(src)
	if !reflect.DeepEqual(a.Pix, again.Pix) {
		t.Fatal("randomized output is not deterministic for a fixed time")
	}
}
