package app

import (
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/oxy-dither/common"
	"github.com/Carmen-Shannon/oxy-dither/engine"
	"github.com/Carmen-Shannon/oxy-dither/engine/camera"
	"github.com/Carmen-Shannon/oxy-dither/engine/dither"
	"github.com/Carmen-Shannon/oxy-dither/engine/model"
	"github.com/Carmen-Shannon/oxy-dither/engine/postfx"
	"github.com/Carmen-Shannon/oxy-dither/engine/renderer"
	"github.com/Carmen-Shannon/oxy-dither/engine/renderer/renderertest"
)

type harness struct {
	app     App
	systems *engine.Systems
	backend *renderertest.Backend
	quit    int
}

func newHarness(t *testing.T, options ...AppBuilderOption) *harness {
	t.Helper()
	h := &harness{backend: renderertest.NewBackend()}
	r, err := renderer.NewRenderer(h.backend, renderer.WithSurfaceSize(800, 600))
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	h.systems = &engine.Systems{
		Renderer: r,
		Camera:   camera.NewCamera(camera.WithAspect(800.0 / 600.0)),
		Debug:    &model.LineData{},
		Width:    800,
		Height:   600,
		Quit:     func() { h.quit++ },
	}
	h.app = NewApp(options...)
	if err := h.app.OnInit(h.systems); err != nil {
		t.Fatalf("OnInit: %v", err)
	}
	return h
}

// frame runs one update and render the way the engine does.
func (h *harness) frame(t *testing.T) []renderertest.Draw {
	t.Helper()
	s := h.systems
	s.Debug.Reset()
	if err := h.app.OnUpdate(s); err != nil {
		t.Fatalf("OnUpdate: %v", err)
	}
	if err := s.Renderer.BeginFrame(); err != nil {
		t.Fatalf("BeginFrame: %v", err)
	}
	if err := h.app.OnRender(s); err != nil {
		t.Fatalf("OnRender: %v", err)
	}
	if err := s.Renderer.EndFrame(); err != nil {
		t.Fatalf("EndFrame: %v", err)
	}
	s.Renderer.Present()
	s.Frame++
	return h.backend.FrameDraws(h.backend.Frames)
}

func drawsWithEntry(draws []renderertest.Draw, entry string) []renderertest.Draw {
	var out []renderertest.Draw
	for _, d := range draws {
		if d.EntryPoint() == entry {
			out = append(out, d)
		}
	}
	return out
}

func float32At(b []byte, offset int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b[offset:]))
}

func vec3At(b []byte, offset int) [3]float32 {
	return [3]float32{float32At(b, offset), float32At(b, offset+4), float32At(b, offset+8)}
}

func TestInitBuildsDefaultScene(t *testing.T) {
	h := newHarness(t)

	if n := len(h.app.Instances()); n != 50 {
		t.Errorf("instances = %d, want 50", n)
	}
	if h.app.Compositor() == nil {
		t.Fatal("no compositor after OnInit")
	}
	for _, label := range []string{"cube.diffuse", "sphere.diffuse"} {
		if n := len(h.backend.TexturesLabelled(label)); n != 1 {
			t.Errorf("%d textures labelled %q, want 1", n, label)
		}
	}
	if got := h.app.Snapshot(); got.PaletteLabel != "Black And White" || got.Preset != 0 {
		t.Errorf("initial snapshot = %+v", got)
	}
	if target := h.systems.Camera.Target(); target != [3]float32{3, 0.75, 3} {
		t.Errorf("camera target = %v, want the grid centre", target)
	}
}

func TestFirstFrameUsesPresetZero(t *testing.T) {
	h := newHarness(t)
	draws := h.frame(t)

	if n := len(drawsWithEntry(draws, "PS_Mesh")); n != 50 {
		t.Errorf("scene draws = %d, want 50", n)
	}
	posts := drawsWithEntry(draws, dither.AlgorithmBayer.EntryPoint())
	if len(posts) != 1 {
		t.Fatalf("post draws = %d, want 1", len(posts))
	}
	perFrame := posts[0].Uniforms[0]
	if got := vec3At(perFrame, 144); got != [3]float32{0, 0, 0} {
		t.Errorf("colourA = %v, want (0,0,0)", got)
	}
	if got := vec3At(perFrame, 160); got != [3]float32{1, 1, 1} {
		t.Errorf("colourB = %v, want (1,1,1)", got)
	}
	if got := binary.LittleEndian.Uint32(perFrame[132:]); got != 2 {
		t.Errorf("matrixSize = %d, want 2", got)
	}
	if len(h.backend.Violations) != 0 {
		t.Errorf("violations: %v", h.backend.Violations)
	}
}

func TestCommandsApplyOnNextUpdate(t *testing.T) {
	h := newHarness(t)
	h.frame(t)

	h.app.Send(postfx.CycleAlgorithm())
	h.app.Send(postfx.CycleMatrixSize())
	h.app.Send(postfx.SelectPreset(1))
	if got := h.app.Compositor().Algorithm(); got != dither.AlgorithmBayer {
		t.Fatalf("algorithm switched before the update: %v", got)
	}

	draws := h.frame(t)
	posts := drawsWithEntry(draws, dither.AlgorithmRandomBayer.EntryPoint())
	if len(posts) != 1 {
		t.Fatalf("post draws with the randomized program = %d, want 1", len(posts))
	}
	perFrame := posts[0].Uniforms[0]
	if got := binary.LittleEndian.Uint32(perFrame[132:]); got != 4 {
		t.Errorf("matrixSize = %d, want 4", got)
	}
	if got := binary.LittleEndian.Uint32(perFrame[136:]); got != 16 {
		t.Errorf("matrixSizeSquared = %d, want 16", got)
	}
	if got, want := vec3At(perFrame, 160), postfx.Preset(1).ColourB; got != want {
		t.Errorf("colourB = %v, want %v", got, want)
	}
	if got := h.app.Snapshot().String(); got != "Random_Bayer_Dither | 4x4 | Game Boy | perspective" {
		t.Errorf("snapshot = %q", got)
	}
}

func TestCommandSourcesAndSinks(t *testing.T) {
	source := make(chan postfx.Command, 4)
	var published []postfx.Snapshot
	h := newHarness(t,
		WithCommandSource(source),
		WithSnapshotSink(func(s postfx.Snapshot) { published = append(published, s) }),
	)
	if len(published) != 1 {
		t.Fatalf("published %d snapshots during init, want 1", len(published))
	}

	h.frame(t)
	if len(published) != 1 {
		t.Errorf("an unchanged frame published again")
	}

	source <- postfx.SelectPreset(2)
	h.frame(t)
	if len(published) != 2 || published[1].PaletteLabel != "Sepia" {
		t.Errorf("published = %+v, want a Sepia snapshot", published)
	}
}

func TestHandleKey(t *testing.T) {
	h := newHarness(t)
	eye := h.systems.Camera.Eye()

	h.app.HandleKey('M')
	h.app.HandleKey(common.KeyLeft)
	h.app.HandleKey(common.KeyEsc)
	h.frame(t)

	if got := h.app.Snapshot().MatrixSize; got != dither.Matrix4 {
		t.Errorf("matrix size = %d, want 4", got)
	}
	if h.systems.Camera.Eye() == eye {
		t.Error("orbit key did not move the camera")
	}
}

func TestGridToggleDrawsOverlay(t *testing.T) {
	h := newHarness(t)
	if n := len(drawsWithEntry(h.frame(t), "PS_DebugLines")); n != 0 {
		t.Fatalf("overlay drawn while the grid is off")
	}

	h.app.Send(postfx.ToggleGrid())
	draws := h.frame(t)
	if len(h.systems.Debug.Indices) == 0 {
		t.Fatal("no debug lines collected with the grid on")
	}
	overlay := drawsWithEntry(draws, "PS_DebugLines")
	if len(overlay) != 1 {
		t.Fatalf("overlay draws = %d, want 1", len(overlay))
	}
	if overlay[0].Depth == nil || overlay[0].Depth.Texture() != h.app.Compositor().Surfaces().DepthTarget().Texture() {
		t.Error("overlay is not depth tested against the scene depth surface")
	}
}

func TestToggleProjection(t *testing.T) {
	h := newHarness(t)
	h.app.Send(postfx.ToggleProjection())
	h.frame(t)
	if !h.systems.Camera.Orthographic() {
		t.Error("camera still perspective")
	}
	if !h.app.Snapshot().Orthographic {
		t.Error("snapshot does not report orthographic")
	}
}

func TestResizeRecreatesSurfaces(t *testing.T) {
	h := newHarness(t)
	h.frame(t)

	h.systems.Width, h.systems.Height = 1920, 1080
	if err := h.systems.Renderer.Resize(1920, 1080); err != nil {
		t.Fatalf("Resize: %v", err)
	}
	if err := h.app.OnResize(h.systems); err != nil {
		t.Fatalf("OnResize: %v", err)
	}
	if w, hgt := h.app.Compositor().Surfaces().Size(); w != 1920 || hgt != 1080 {
		t.Errorf("surfaces = %dx%d, want 1920x1080", w, hgt)
	}
	h.frame(t)
	if len(h.backend.Violations) != 0 {
		t.Errorf("violations: %v", h.backend.Violations)
	}
}

func TestShutdownReleasesEverything(t *testing.T) {
	h := newHarness(t)
	h.frame(t)
	h.app.OnShutdown(h.systems)

	for _, kind := range []renderertest.Kind{
		renderertest.KindTexture,
		renderertest.KindView,
		renderertest.KindMesh,
		renderertest.KindBuffer,
		renderertest.KindSampler,
	} {
		if n := h.backend.Live(kind); n != 0 {
			t.Errorf("%d live %s resources after shutdown", n, kind)
		}
	}
	if len(h.backend.Violations) != 0 {
		t.Errorf("violations: %v", h.backend.Violations)
	}
}

func TestQuitSignalStopsEngine(t *testing.T) {
	done := make(chan struct{})
	h := newHarness(t, WithQuitSignal(done))
	h.frame(t)
	if h.quit != 0 {
		t.Fatal("quit before the signal")
	}
	close(done)
	h.frame(t)
	h.frame(t)
	if h.quit != 1 {
		t.Errorf("Quit called %d times, want 1", h.quit)
	}
}

const triangleOBJ = `# one triangle
v 0 0 0
v 1 0 0
v 0 1 0
vt 0 0
vt 1 0
vt 0 1
vn 0 0 1
f 1/1/1 2/2/1 3/3/1
`

func TestSceneFromFiles(t *testing.T) {
	dir := t.TempDir()
	objPath := filepath.Join(dir, "tri.obj")
	if err := os.WriteFile(objPath, []byte(triangleOBJ), 0o644); err != nil {
		t.Fatal(err)
	}
	pngPath := filepath.Join(dir, "brick.png")
	img := image.NewNRGBA(image.Rect(0, 0, 4, 2))
	img.Set(0, 0, color.NRGBA{R: 255, A: 255})
	f, err := os.Create(pngPath)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	f.Close()

	h := newHarness(t, WithModel(objPath, 0.01), WithTexture(0, pngPath))

	tex := h.backend.TexturesLabelled("cube.diffuse")
	if len(tex) != 1 || tex[0].Desc.Width != 4 || tex[0].Desc.Height != 2 {
		t.Errorf("cube texture was not taken from %s", pngPath)
	}
	if n := len(h.backend.TexturesLabelled("tri.diffuse")); n != 1 {
		t.Errorf("%d textures for the OBJ model, want 1", n)
	}
	var found bool
	for _, m := range h.backend.Meshes {
		if m.Desc.Label == "tri" {
			found = true
		}
	}
	if !found {
		t.Error("OBJ mesh was not uploaded")
	}
}

func TestMissingAssetFailsInit(t *testing.T) {
	b := renderertest.NewBackend()
	r, err := renderer.NewRenderer(b, renderer.WithSurfaceSize(800, 600))
	if err != nil {
		t.Fatal(err)
	}
	s := &engine.Systems{Renderer: r, Camera: camera.NewCamera(), Debug: &model.LineData{}, Width: 800, Height: 600}
	a := NewApp(WithModel(filepath.Join(t.TempDir(), "missing.obj"), 1))

	if err := a.OnInit(s); err == nil {
		t.Fatal("OnInit succeeded with a missing model")
	}
	for _, kind := range []renderertest.Kind{renderertest.KindTexture, renderertest.KindMesh, renderertest.KindView} {
		if n := b.Live(kind); n != 0 {
			t.Errorf("%d live %s resources after a failed init", n, kind)
		}
	}
}
