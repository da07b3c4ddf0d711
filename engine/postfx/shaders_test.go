package postfx

import (
	"encoding/binary"
	"slices"
	"testing"

	"github.com/Carmen-Shannon/oxy-dither/engine/dither"
	"github.com/Carmen-Shannon/oxy-dither/engine/renderer/shader"
)

func TestPostEffectDeclaresEveryAlgorithm(t *testing.T) {
	fs, err := shader.NewShaderFromSource("post", shader.ShaderTypeFragment, PostEffectSource)
	if err != nil {
		t.Fatalf("NewShaderFromSource: %v", err)
	}
	for _, a := range dither.Algorithms() {
		if !slices.Contains(fs.EntryPoints(), a.EntryPoint()) {
			t.Errorf("entry point %s missing from %v", a.EntryPoint(), fs.EntryPoints())
		}
	}
	if len(fs.EntryPoints()) != len(dither.Algorithms()) {
		t.Errorf("fragment entry points = %v", fs.EntryPoints())
	}
}

func TestPostPipelineBindings(t *testing.T) {
	p, err := newPostPipeline(dither.AlgorithmDotBayer)
	if err != nil {
		t.Fatalf("newPostPipeline: %v", err)
	}
	fs := p.Shader(shader.ShaderTypeFragment)
	if fs.EntryPoint() != "PS_PostEffect_Dot_Bayer_Dither" {
		t.Fatalf("entry point = %q", fs.EntryPoint())
	}
	if p.Shader(shader.ShaderTypeVertex).EntryPoint() != dither.VertexEntryPoint {
		t.Fatalf("vertex entry point = %q", p.Shader(shader.ShaderTypeVertex).EntryPoint())
	}

	bindings := fs.Bindings()
	if len(bindings) != 3 {
		t.Fatalf("bindings = %+v", bindings)
	}
	if b := bindings[0]; b.Group != 0 || b.Binding != 0 || b.MinSize != PerFrameSize {
		t.Errorf("per-frame binding = %+v", b)
	}
	if b := bindings[1]; b.Group != 1 || b.Binding != 0 || b.Kind != shader.BindingTexture {
		t.Errorf("colour binding = %+v", b)
	}
	if b := bindings[2]; b.Group != 1 || b.Binding != 1 || b.Kind != shader.BindingDepthTexture {
		t.Errorf("depth binding = %+v", b)
	}
	if p.DepthTestEnabled() {
		t.Error("post pipeline must not depth test")
	}
}

func TestInvalidAlgorithmRejected(t *testing.T) {
	if _, err := newPostPipeline(dither.Algorithm(42)); err == nil {
		t.Fatal("invalid algorithm compiled")
	}
}

func TestSceneAndOverlayPipelines(t *testing.T) {
	scene, err := newScenePipeline()
	if err != nil {
		t.Fatalf("scene: %v", err)
	}
	layout, ok := scene.Shader(shader.ShaderTypeVertex).VertexLayout()
	if !ok || layout.Stride != 32 {
		t.Fatalf("scene vertex layout = %+v, %v", layout, ok)
	}
	overlay, err := newOverlayPipeline()
	if err != nil {
		t.Fatalf("overlay: %v", err)
	}
	if overlay.DepthWriteEnabled() || !overlay.DepthTestEnabled() {
		t.Fatal("overlay must depth test without writing")
	}
	layout, ok = overlay.Shader(shader.ShaderTypeVertex).VertexLayout()
	if !ok || layout.Stride != 24 {
		t.Fatalf("overlay vertex layout = %+v, %v", layout, ok)
	}
}

func TestPerFrameLayout(t *testing.T) {
	pf := PerFrame{Time: 1.5, MatrixSize: 8, MatrixSizeSquared: 64, ColourA: [3]float32{0.25, 0.5, 0.75}, ColourB: [3]float32{1, 0, 1}}
	pf.Projection[0], pf.View[15] = 2, 3
	buf := pf.Marshal()
	if len(buf) != pf.Size() {
		t.Fatalf("marshalled %d bytes, Size() = %d", len(buf), pf.Size())
	}
	if got := readFloats(buf, 0, 1)[0]; got != 2 {
		t.Errorf("projection[0] = %v", got)
	}
	if got := readFloats(buf, 124, 1)[0]; got != 3 {
		t.Errorf("view[15] = %v", got)
	}
	if got := readFloats(buf, 128, 1)[0]; got != 1.5 {
		t.Errorf("time = %v", got)
	}
	if binary.LittleEndian.Uint32(buf[132:]) != 8 || binary.LittleEndian.Uint32(buf[136:]) != 64 {
		t.Error("matrix size fields misplaced")
	}
	if got := readFloats(buf, 144, 3); !slices.Equal(got, pf.ColourA[:]) {
		t.Errorf("colourA = %v", got)
	}
	if got := readFloats(buf, 160, 3); !slices.Equal(got, pf.ColourB[:]) {
		t.Errorf("colourB = %v", got)
	}

	pd := PerDraw{}
	pd.MVP[12] = 7
	if got := readFloats(pd.Marshal(), 48, 1)[0]; got != 7 {
		t.Errorf("mvp[12] = %v", got)
	}
}

func TestGridInstances(t *testing.T) {
	got := GridInstances([]Drawable{{BoundingRadius: 1}, {BoundingRadius: 2}}, 5, 1.5)
	if len(got) != 50 {
		t.Fatalf("instances = %d, want 50", len(got))
	}
	last := got[len(got)-1]
	if last.Transform[12] != 6 || last.Transform[13] != 1.5 || last.Transform[14] != 6 {
		t.Fatalf("last translation = %v", last.Transform[12:15])
	}
	if last.BoundingRadius != 2 {
		t.Fatalf("last instance drawable = %+v", last.Drawable)
	}
}
