package pipeline

import (
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-dither/engine/renderer/shader"
)

const src = `
struct V { @location(0) p: vec3<f32>, };
struct O { @builtin(position) c: vec4<f32>, };
@vertex fn VS(in: V) -> O { var o: O; o.c = vec4<f32>(in.p, 1.0); return o; }
@fragment fn PS(in: O) -> @location(0) vec4<f32> { return vec4<f32>(1.0); }
`

func mustShader(t *testing.T, st shader.ShaderType) shader.Shader {
	t.Helper()
	s, err := shader.NewShaderFromSource("test", st, src)
	if err != nil {
		t.Fatalf("NewShaderFromSource: %v", err)
	}
	return s
}

func TestDefaults(t *testing.T) {
	p := NewPipeline("mesh")
	if p.PipelineKey() != "mesh" || p.Target() != TargetOffscreen {
		t.Fatalf("unexpected key/target %q %v", p.PipelineKey(), p.Target())
	}
	if !p.DepthTestEnabled() || !p.DepthWriteEnabled() || p.BlendEnabled() {
		t.Errorf("unexpected depth/blend defaults")
	}
	if p.CullMode() != CullNone || p.Topology() != TopologyTriangleList || p.FrontFace() != FrontFaceCCW {
		t.Errorf("unexpected rasterizer defaults")
	}
}

func TestSwapchainTargetHasNoDepth(t *testing.T) {
	p := NewPipeline("post", WithTarget(TargetSwapchain), WithDepthTestEnabled(true))
	if p.DepthTestEnabled() || p.DepthWriteEnabled() {
		t.Fatal("swapchain pipeline reports depth state")
	}

	lines := NewPipeline("lines", WithTarget(TargetSwapchainDepthTested), WithDepthWriteEnabled(false), WithTopology(TopologyLineList))
	if !lines.DepthTestEnabled() || lines.DepthWriteEnabled() {
		t.Fatal("depth-tested overlay should test without writing")
	}
}

func TestValidate(t *testing.T) {
	vs := mustShader(t, shader.ShaderTypeVertex)
	fs := mustShader(t, shader.ShaderTypeFragment)

	if err := NewPipeline("ok", WithVertexShader(vs), WithFragmentShader(fs)).Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	err := NewPipeline("empty").Validate()
	if err == nil || !strings.Contains(err.Error(), "missing vertex shader") || !strings.Contains(err.Error(), "missing fragment shader") {
		t.Fatalf("err = %v", err)
	}

	err = NewPipeline("swapped", WithVertexShader(fs), WithFragmentShader(vs)).Validate()
	if err == nil {
		t.Fatal("expected error for swapped stages")
	}

	p := NewPipeline("slots", WithVertexShader(vs), WithFragmentShader(fs))
	if p.Shader(shader.ShaderTypeVertex) != vs || p.Shader(shader.ShaderTypeFragment) != fs {
		t.Error("Shader returned the wrong stage")
	}
}
