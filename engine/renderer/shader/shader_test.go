package shader

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testFrameStruct = `struct TestFrame {
    projection: mat4x4<f32>,
    view: mat4x4<f32>,
    time: f32,
    matrixSize: u32,
    matrixSizeSquared: u32,
    colourA: vec3<f32>,
    colourB: vec3<f32>,
};`

const testDrawStruct = `struct TestDraw {
    mvp: mat4x4<f32>,
};`

func init() {
	RegisterStruct("test_frame", StructSource{Source: testFrameStruct, Type: "TestFrame"})
	RegisterStruct("test_draw", StructSource{Source: testDrawStruct, Type: "TestDraw"})
}

const testSource = `//@oxy:include test_frame
//@oxy:group 0 0 uniform perFrame test_frame
//@oxy:group 0 1 uniform perDraw test_draw

struct Vertex {
    @location(0) position: vec3<f32>,
    @location(1) normal: vec3<f32>,
    @location(2) uv: vec2<f32>,
};

struct VertexOut {
    @builtin(position) clip: vec4<f32>,
    @location(0) uv: vec2<f32>,
};

@group(1) @binding(0) var colourTex: texture_2d<f32>;
@group(1) @binding(1) var depthTex: texture_depth_2d;
@group(1) @binding(8) var linearSampler: sampler;

@vertex
fn VS_Main(in: Vertex) -> VertexOut {
    var out: VertexOut;
    out.clip = perDraw.mvp * vec4<f32>(in.position, 1.0);
    out.uv = in.uv;
    return out;
}

// @fragment fn PS_Commented() is not an entry point
/* @fragment
fn PS_Blocked(in: VertexOut) -> @location(0) vec4<f32> { return vec4<f32>(0.0); } */

@fragment
fn PS_First(in: VertexOut) -> @location(0) vec4<f32> {
    return textureSample(colourTex, linearSampler, in.uv);
}

@fragment
fn PS_Second(in: VertexOut) -> @location(0) vec4<f32> {
    return vec4<f32>(perFrame.colourA, 1.0);
}
`

func TestPreProcessorExpandsAnnotations(t *testing.T) {
	pp := NewPreProcessor()
	out, err := pp.Process(testSource)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if n := strings.Count(out, "struct TestFrame"); n != 1 {
		t.Errorf("TestFrame declared %d times, want 1", n)
	}
	if n := strings.Count(out, "struct TestDraw"); n != 1 {
		t.Errorf("TestDraw declared %d times, want 1", n)
	}
	for _, want := range []string{
		"@group(0) @binding(0) var<uniform> perFrame: TestFrame;",
		"@group(0) @binding(1) var<uniform> perDraw: TestDraw;",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
	if strings.Contains(out, "@oxy:") {
		t.Errorf("annotation left in output")
	}

	decls := pp.Declarations()
	if len(decls) != 2 {
		t.Fatalf("got %d declarations, want 2", len(decls))
	}
	if *decls[1].Group != 0 || *decls[1].Binding != 1 || decls[1].Args[1] != "perDraw" {
		t.Errorf("unexpected second declaration %+v", decls[1])
	}
}

func TestPreProcessorErrors(t *testing.T) {
	cases := map[string]string{
		"unknown struct":        "//@oxy:include nope",
		"unknown type":          "//@oxy:frobnicate x",
		"bad group":             "//@oxy:group x 0 uniform a test_draw",
		"bad address space":     "//@oxy:group 0 0 private a test_draw",
		"missing group args":    "//@oxy:group 0 0 uniform",
		"empty":                 "//@oxy:",
		"include too many args": "//@oxy:include test_draw test_frame",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := NewPreProcessor().Process(src); err == nil {
				t.Fatalf("expected an error for %q", src)
			}
		})
	}
}

func TestPreProcessorIgnoresNonCommentLines(t *testing.T) {
	src := `let s = "@oxy:include test_draw";`
	out, err := NewPreProcessor().Process(src)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if out != src {
		t.Errorf("got %q, want source unchanged", out)
	}
}

func TestRegisterStructDuplicatePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on duplicate registration")
		}
	}()
	RegisterStruct("test_draw", StructSource{Source: testDrawStruct, Type: "TestDraw"})
}

func TestShaderEntryPoints(t *testing.T) {
	fs, err := NewShaderFromSource("post", ShaderTypeFragment, testSource)
	if err != nil {
		t.Fatalf("NewShaderFromSource: %v", err)
	}
	got := fs.EntryPoints()
	if len(got) != 2 || got[0] != "PS_First" || got[1] != "PS_Second" {
		t.Fatalf("fragment entry points = %v", got)
	}
	if fs.EntryPoint() != "PS_First" {
		t.Errorf("default entry point = %q, want PS_First", fs.EntryPoint())
	}
	if _, ok := fs.VertexLayout(); ok {
		t.Errorf("fragment shader reported a vertex layout")
	}

	second, err := NewShaderFromSource("post", ShaderTypeFragment, testSource, WithEntryPoint("PS_Second"))
	if err != nil {
		t.Fatalf("WithEntryPoint: %v", err)
	}
	if second.EntryPoint() != "PS_Second" {
		t.Errorf("entry point = %q", second.EntryPoint())
	}

	for _, name := range []string{"PS_Commented", "PS_Blocked", "VS_Main"} {
		_, err := NewShaderFromSource("post", ShaderTypeFragment, testSource, WithEntryPoint(name))
		if !errors.Is(err, ErrEntryPointNotFound) {
			t.Errorf("%s: err = %v, want ErrEntryPointNotFound", name, err)
		}
	}
}

func TestShaderNoEntryPoint(t *testing.T) {
	_, err := NewShaderFromSource("empty", ShaderTypeVertex, "fn helper() {}")
	if !errors.Is(err, ErrEntryPointNotFound) {
		t.Fatalf("err = %v, want ErrEntryPointNotFound", err)
	}
}

func TestShaderBindings(t *testing.T) {
	vs, err := NewShaderFromSource("mesh", ShaderTypeVertex, testSource)
	if err != nil {
		t.Fatalf("NewShaderFromSource: %v", err)
	}

	want := []Binding{
		{Group: 0, Binding: 0, Name: "perFrame", Kind: BindingUniform, MinSize: 176},
		{Group: 0, Binding: 1, Name: "perDraw", Kind: BindingUniform, MinSize: 64},
		{Group: 1, Binding: 0, Name: "colourTex", Kind: BindingTexture, Dimension: Dimension2D, SampleType: SampleFloat},
		{Group: 1, Binding: 1, Name: "depthTex", Kind: BindingDepthTexture, Dimension: Dimension2D, SampleType: SampleDepth},
		{Group: 1, Binding: 8, Name: "linearSampler", Kind: BindingSampler},
	}
	got := vs.Bindings()
	if len(got) != len(want) {
		t.Fatalf("got %d bindings, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("binding %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestShaderVertexLayout(t *testing.T) {
	vs, err := NewShaderFromSource("mesh", ShaderTypeVertex, testSource)
	if err != nil {
		t.Fatalf("NewShaderFromSource: %v", err)
	}
	layout, ok := vs.VertexLayout()
	if !ok {
		t.Fatal("no vertex layout")
	}
	if layout.Struct != "Vertex" || layout.Stride != 32 {
		t.Fatalf("layout = %+v, want Vertex with stride 32", layout)
	}
	wantOffsets := []uint64{0, 12, 24}
	wantFormats := []VertexFormat{VertexFloat32x3, VertexFloat32x3, VertexFloat32x2}
	for i, a := range layout.Attributes {
		if a.Location != i || a.Offset != wantOffsets[i] || a.Format != wantFormats[i] {
			t.Errorf("attribute %d = %+v", i, a)
		}
	}
}

func TestStructLayoutArrays(t *testing.T) {
	structs := parseStructBlocks(`struct Lights { colours: array<vec3<f32>, 4>, count: u32, };`)
	sizes := computeStructSizes(structs)
	// 4 * 16 for the padded vec3 array, then a u32, rounded to 16.
	if got := sizes["Lights"].size; got != 80 {
		t.Fatalf("Lights size = %d, want 80", got)
	}
}

func TestNewShaderReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mesh.wgsl")
	if err := os.WriteFile(path, []byte(testSource), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := NewShader("mesh", ShaderTypeVertex, path)
	if err != nil {
		t.Fatalf("NewShader: %v", err)
	}
	if s.Key() != "mesh" || s.EntryPoint() != "VS_Main" || s.ShaderType() != ShaderTypeVertex {
		t.Errorf("unexpected shader %q %q %v", s.Key(), s.EntryPoint(), s.ShaderType())
	}
	if len(s.Declarations()) != 2 {
		t.Errorf("declarations = %d, want 2", len(s.Declarations()))
	}

	if _, err := NewShader("missing", ShaderTypeVertex, filepath.Join(t.TempDir(), "none.wgsl")); err == nil {
		t.Error("expected error for missing file")
	}
}
