package renderer_test

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-dither/engine/renderer"
	"github.com/Carmen-Shannon/oxy-dither/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-dither/engine/renderer/renderertest"
	"github.com/Carmen-Shannon/oxy-dither/engine/renderer/shader"
)

const testSource = `
struct V { @location(0) p: vec3<f32>, };
struct O { @builtin(position) c: vec4<f32>, };
@vertex fn VS(in: V) -> O { var o: O; o.c = vec4<f32>(in.p, 1.0); return o; }
@fragment fn PS_A(in: O) -> @location(0) vec4<f32> { return vec4<f32>(1.0); }
@fragment fn PS_B(in: O) -> @location(0) vec4<f32> { return vec4<f32>(0.5); }
`

func testPipeline(t *testing.T, key, entry string) pipeline.Pipeline {
	t.Helper()
	vs, err := shader.NewShaderFromSource(key, shader.ShaderTypeVertex, testSource)
	if err != nil {
		t.Fatal(err)
	}
	fs, err := shader.NewShaderFromSource(key, shader.ShaderTypeFragment, testSource, shader.WithEntryPoint(entry))
	if err != nil {
		t.Fatal(err)
	}
	return pipeline.NewPipeline(key,
		pipeline.WithVertexShader(vs),
		pipeline.WithFragmentShader(fs),
		pipeline.WithTarget(pipeline.TargetSwapchain),
	)
}

func surface(t *testing.T, r renderer.Renderer, label string) (renderer.Texture, renderer.TextureView, renderer.TextureView) {
	t.Helper()
	tex, err := r.CreateTexture(renderer.TextureDescriptor{
		Label: label, Width: 4, Height: 4,
		Format: renderer.FormatRGBA8Unorm,
		Usage:  renderer.UsageRenderTarget | renderer.UsageShaderInput,
	})
	if err != nil {
		t.Fatal(err)
	}
	target, err := r.CreateTextureView(tex, renderer.TextureViewDescriptor{Label: label + "-target", Kind: renderer.ViewRenderTarget})
	if err != nil {
		t.Fatal(err)
	}
	input, err := r.CreateTextureView(tex, renderer.TextureViewDescriptor{Label: label + "-input", Kind: renderer.ViewShaderInput})
	if err != nil {
		t.Fatal(err)
	}
	return tex, target, input
}

func TestNewRendererConfiguresAndRegisters(t *testing.T) {
	backend := renderertest.NewBackend()
	r, err := renderer.NewRenderer(backend,
		renderer.WithSurfaceSize(800, 600),
		renderer.WithPresentMode(renderer.PresentModeVSync),
		renderer.WithPipelines(testPipeline(t, "a", "PS_A")),
	)
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	if backend.Width != 800 || backend.Height != 600 {
		t.Errorf("surface = %dx%d", backend.Width, backend.Height)
	}
	if r.Pipeline("a") == nil || backend.Live(renderertest.KindProgram) != 1 {
		t.Fatalf("pipeline not compiled")
	}

	// Registering the same key again is a no-op.
	if err := r.RegisterPipelines(testPipeline(t, "a", "PS_B")); err != nil {
		t.Fatal(err)
	}
	if backend.Created[renderertest.KindProgram] != 1 {
		t.Errorf("duplicate key compiled again")
	}
	if err := r.BindPipeline("missing"); err == nil {
		t.Error("expected error binding an unknown pipeline")
	}
}

func TestRebuildPipelineReleasesOldProgram(t *testing.T) {
	backend := renderertest.NewBackend()
	r, err := renderer.NewRenderer(backend, renderer.WithPipelines(testPipeline(t, "post", "PS_A")))
	if err != nil {
		t.Fatal(err)
	}
	if err := r.RebuildPipeline(testPipeline(t, "post", "PS_B")); err != nil {
		t.Fatalf("RebuildPipeline: %v", err)
	}
	if backend.Created[renderertest.KindProgram] != 2 || backend.Released[renderertest.KindProgram] != 1 {
		t.Fatalf("created %d released %d", backend.Created[renderertest.KindProgram], backend.Released[renderertest.KindProgram])
	}
	if got := r.Pipeline("post").Shader(shader.ShaderTypeFragment).EntryPoint(); got != "PS_B" {
		t.Errorf("cached entry point = %q", got)
	}

	failing := errors.New("compile failed")
	backend.Fail = func(kind renderertest.Kind, _ string) error {
		if kind == renderertest.KindProgram {
			return failing
		}
		return nil
	}
	if err := r.RebuildPipeline(testPipeline(t, "post", "PS_A")); !errors.Is(err, failing) {
		t.Fatalf("err = %v", err)
	}
	if got := r.Pipeline("post").Shader(shader.ShaderTypeFragment).EntryPoint(); got != "PS_B" {
		t.Errorf("failed rebuild replaced the cache entry: %q", got)
	}

	r.Release()
	if backend.Live(renderertest.KindProgram) != 0 {
		t.Errorf("Release left %d programs", backend.Live(renderertest.KindProgram))
	}
}

func TestHazardTargetThenInput(t *testing.T) {
	r, err := renderer.NewRenderer(renderertest.NewBackend())
	if err != nil {
		t.Fatal(err)
	}
	_, target, input := surface(t, r, "colour")

	if err := r.SetRenderTargets(target, nil); err != nil {
		t.Fatal(err)
	}
	if err := r.SetShaderInputs(0, input); !errors.Is(err, renderer.ErrHazard) {
		t.Fatalf("binding a target's texture as input: err = %v, want ErrHazard", err)
	}
	if err := r.SetRenderTargets(nil, nil); err != nil {
		t.Fatal(err)
	}
	if err := r.SetShaderInputs(0, input); err != nil {
		t.Fatalf("after unbinding targets: %v", err)
	}
}

func TestHazardInputThenTarget(t *testing.T) {
	r, err := renderer.NewRenderer(renderertest.NewBackend())
	if err != nil {
		t.Fatal(err)
	}
	_, target, input := surface(t, r, "colour")
	_, otherTarget, _ := surface(t, r, "other")

	if err := r.SetShaderInputs(1, input); err != nil {
		t.Fatal(err)
	}
	if err := r.SetRenderTargets(target, nil); !errors.Is(err, renderer.ErrHazard) {
		t.Fatalf("binding an input's texture as target: err = %v, want ErrHazard", err)
	}
	if err := r.SetRenderTargets(otherTarget, nil); err != nil {
		t.Fatalf("unrelated target rejected: %v", err)
	}
	if err := r.SetShaderInputs(1, nil); err != nil {
		t.Fatal(err)
	}
	if err := r.SetRenderTargets(target, nil); err != nil {
		t.Fatalf("after emptying the slot: %v", err)
	}
}

func TestBindingKindsChecked(t *testing.T) {
	r, err := renderer.NewRenderer(renderertest.NewBackend())
	if err != nil {
		t.Fatal(err)
	}
	_, target, input := surface(t, r, "colour")
	if err := r.SetRenderTargets(input, nil); err == nil {
		t.Error("shader input view accepted as colour target")
	}
	if err := r.SetShaderInputs(0, target); err == nil {
		t.Error("render target view accepted as shader input")
	}
	if err := r.SetShaderInputs(renderer.MaxShaderInputs, input); err == nil {
		t.Error("out of range slot accepted")
	}
}

func TestDrawRecordsProgram(t *testing.T) {
	backend := renderertest.NewBackend()
	r, err := renderer.NewRenderer(backend,
		renderer.WithSurfaceSize(8, 8),
		renderer.WithPipelines(testPipeline(t, "a", "PS_A")),
	)
	if err != nil {
		t.Fatal(err)
	}
	mesh, err := r.CreateMesh(renderer.MeshDescriptor{Label: "tri", Vertices: make([]byte, 36), Stride: 12, Indices: []uint32{0, 1, 2}})
	if err != nil {
		t.Fatal(err)
	}

	if err := r.BeginFrame(); err != nil {
		t.Fatal(err)
	}
	if err := r.SetRenderTargets(r.SwapchainView(), nil); err != nil {
		t.Fatal(err)
	}
	if err := r.BindPipeline("a"); err != nil {
		t.Fatal(err)
	}
	r.SetMesh(mesh)
	if err := r.Draw(); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	if err := r.EndFrame(); err != nil {
		t.Fatal(err)
	}
	r.Present()

	d, ok := backend.LastDraw()
	if !ok || d.EntryPoint() != "PS_A" || d.Mesh.Label() != "tri" {
		t.Fatalf("unexpected draw %+v", d)
	}
	if backend.Presented != 1 {
		t.Errorf("presented %d frames", backend.Presented)
	}
}
