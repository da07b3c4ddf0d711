package common

import (
	"image"
	"image/color"
	"math"
	"testing"
)

func TestNewTextureStagingData(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	img.Set(2, 1, color.RGBA{R: 10, G: 20, B: 30, A: 255})

	data, err := NewTextureStagingData(img)
	if err != nil {
		t.Fatalf("NewTextureStagingData: %v", err)
	}
	if data.Width != 3 || data.Height != 2 {
		t.Fatalf("size = %dx%d, want 3x2", data.Width, data.Height)
	}
	if len(data.Pixels) != 3*2*4 {
		t.Fatalf("len(Pixels) = %d, want 24", len(data.Pixels))
	}
	last := data.Pixels[len(data.Pixels)-4:]
	if last[0] != 10 || last[1] != 20 || last[2] != 30 || last[3] != 255 {
		t.Fatalf("last pixel = %v", last)
	}
}

func TestNewTextureStagingDataRejectsEmpty(t *testing.T) {
	if _, err := NewTextureStagingData(nil); err == nil {
		t.Fatal("expected error for nil image")
	}
	if _, err := NewTextureStagingData(image.NewRGBA(image.Rect(0, 0, 0, 4))); err == nil {
		t.Fatal("expected error for empty image")
	}
}

func TestCoalesce(t *testing.T) {
	if got := Coalesce("", "", "b", "c"); got != "b" {
		t.Fatalf("Coalesce = %q, want b", got)
	}
	if got := Coalesce(0, 0); got != 0 {
		t.Fatalf("Coalesce = %d, want 0", got)
	}
}

func TestClamp01(t *testing.T) {
	cases := []struct {
		in, want float32
	}{
		{-0.5, 0},
		{0, 0},
		{0.25, 0.25},
		{1, 1},
		{3, 1},
		{float32(math.NaN()), 0},
		{float32(math.Inf(1)), 1},
		{float32(math.Inf(-1)), 0},
	}
	for _, tc := range cases {
		if got := Clamp01(tc.in); got != tc.want {
			t.Errorf("Clamp01(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
