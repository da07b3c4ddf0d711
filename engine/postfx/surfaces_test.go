package postfx

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-dither/engine/renderer"
	"github.com/Carmen-Shannon/oxy-dither/engine/renderer/renderertest"
)

var errAllocation = errors.New("allocation failed")

func TestSurfacesMatchOutputSize(t *testing.T) {
	sizes := []struct{ w, h int }{{1, 1}, {800, 600}, {1920, 1080}, {333, 777}}
	b := renderertest.NewBackend()
	s := NewSurfaces(b)
	for _, size := range sizes {
		if err := s.Recreate(size.w, size.h); err != nil {
			t.Fatalf("Recreate(%d, %d): %v", size.w, size.h, err)
		}
		colour := s.ColourTarget().Texture()
		depth := s.DepthTarget().Texture()
		if colour.Width() != uint32(size.w) || colour.Height() != uint32(size.h) {
			t.Fatalf("colour surface %dx%d, want %dx%d", colour.Width(), colour.Height(), size.w, size.h)
		}
		if depth.Width() != colour.Width() || depth.Height() != colour.Height() {
			t.Fatalf("depth surface %dx%d differs from colour %dx%d", depth.Width(), depth.Height(), colour.Width(), colour.Height())
		}
		if s.ColourInput().Texture() != colour || s.DepthInput().Texture() != depth {
			t.Fatal("input views do not share the target views' textures")
		}
		if b.Live(renderertest.KindTexture) != 2 || b.Live(renderertest.KindView) != 4 {
			t.Fatalf("live textures/views = %d/%d, want 2/4", b.Live(renderertest.KindTexture), b.Live(renderertest.KindView))
		}
		if w, h := s.Size(); w != size.w || h != size.h {
			t.Fatalf("Size() = %dx%d", w, h)
		}
	}

	s.Release()
	s.Release()
	if b.Live(renderertest.KindTexture) != 0 || b.Live(renderertest.KindView) != 0 {
		t.Fatal("surfaces leaked after Release")
	}
	if len(b.Violations) != 0 {
		t.Fatalf("violations: %v", b.Violations)
	}
}

func TestSurfacesFormatsAndKinds(t *testing.T) {
	b := renderertest.NewBackend()
	s := NewSurfaces(b)
	if err := s.Recreate(16, 16); err != nil {
		t.Fatalf("Recreate: %v", err)
	}
	tests := []struct {
		name   string
		view   renderer.TextureView
		kind   renderer.ViewKind
		format renderer.TextureFormat
	}{
		{"colour target", s.ColourTarget(), renderer.ViewRenderTarget, renderer.FormatRGBA8Unorm},
		{"colour input", s.ColourInput(), renderer.ViewShaderInput, renderer.FormatRGBA8Unorm},
		{"depth target", s.DepthTarget(), renderer.ViewDepthStencilTarget, renderer.FormatDepth24PlusStencil8},
		{"depth input", s.DepthInput(), renderer.ViewDepthShaderInput, renderer.FormatDepth24PlusStencil8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.view.Kind() != tt.kind {
				t.Errorf("kind = %s, want %s", tt.view.Kind(), tt.kind)
			}
			if tt.view.Texture().Format() != tt.format {
				t.Errorf("format = %v, want %v", tt.view.Texture().Format(), tt.format)
			}
		})
	}
}

func TestSurfacesRejectInvalidSize(t *testing.T) {
	s := NewSurfaces(renderertest.NewBackend())
	for _, size := range [][2]int{{0, 600}, {800, 0}, {-1, 1}} {
		if err := s.Recreate(size[0], size[1]); !errors.Is(err, ErrInvalidSize) {
			t.Errorf("Recreate(%d, %d) = %v, want ErrInvalidSize", size[0], size[1], err)
		}
	}
}

func TestSurfacesFailureLeavesNothing(t *testing.T) {
	labels := []string{
		ColourSurfaceLabel,
		DepthSurfaceLabel,
		ColourSurfaceLabel + "." + renderer.ViewShaderInput.String(),
		DepthSurfaceLabel + "." + renderer.ViewDepthShaderInput.String(),
	}
	for _, failing := range labels {
		t.Run(failing, func(t *testing.T) {
			b := renderertest.NewBackend()
			s := NewSurfaces(b)
			if err := s.Recreate(32, 32); err != nil {
				t.Fatalf("first Recreate: %v", err)
			}
			b.Fail = func(_ renderertest.Kind, label string) error {
				if label == failing {
					return errAllocation
				}
				return nil
			}
			if err := s.Recreate(64, 64); !errors.Is(err, errAllocation) {
				t.Fatalf("Recreate = %v, want the allocation error", err)
			}
			if s.Valid() {
				t.Fatal("surfaces report valid after a failed recreate")
			}
			if b.Live(renderertest.KindTexture) != 0 || b.Live(renderertest.KindView) != 0 {
				t.Fatalf("live textures/views = %d/%d after failure", b.Live(renderertest.KindTexture), b.Live(renderertest.KindView))
			}
			if len(b.Violations) != 0 {
				t.Fatalf("violations: %v", b.Violations)
			}
		})
	}
}

func TestSurfacesUnbindBeforeDestroy(t *testing.T) {
	b := renderertest.NewBackend()
	s := NewSurfaces(b)
	if err := s.Recreate(8, 8); err != nil {
		t.Fatalf("Recreate: %v", err)
	}
	if err := b.SetShaderInputs(0, s.ColourInput(), s.DepthInput()); err != nil {
		t.Fatalf("bind inputs: %v", err)
	}
	if err := s.Recreate(16, 16); err != nil {
		t.Fatalf("Recreate while bound: %v", err)
	}
	if b.Input(0) != nil || b.Input(1) != nil {
		t.Fatal("inputs still bound after Recreate")
	}
	if len(b.Violations) != 0 {
		t.Fatalf("violations: %v", b.Violations)
	}
}
