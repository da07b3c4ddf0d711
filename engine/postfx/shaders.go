package postfx

import (
	_ "embed"
	"fmt"

	"github.com/Carmen-Shannon/oxy-dither/engine/dither"
	"github.com/Carmen-Shannon/oxy-dither/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-dither/engine/renderer/shader"
)

// Pipeline keys registered with the renderer.
const (
	ScenePipelineKey   = "postfx.scene"
	PostPipelineKey    = "postfx.post_effect"
	OverlayPipelineKey = "postfx.debug_lines"
)

// PerFrameSource is the WGSL definition of the PerFrame uniform struct (176 bytes).
//
//go:embed assets/per_frame.wgsl
var PerFrameSource string

// PerDrawSource is the WGSL definition of the PerDraw uniform struct (64 bytes).
//
//go:embed assets/per_draw.wgsl
var PerDrawSource string

//go:embed assets/scene.wgsl
var sceneSource string

// PostEffectSource holds VS_PostEffect and one PS_PostEffect_* entry point per algorithm.
//
//go:embed assets/post_effect.wgsl
var PostEffectSource string

//go:embed assets/debug_lines.wgsl
var debugLinesSource string

func init() {
	shader.RegisterStruct("per_frame", shader.StructSource{Source: PerFrameSource, Type: "PerFrame"})
	shader.RegisterStruct("per_draw", shader.StructSource{Source: PerDrawSource, Type: "PerDraw"})
}

// newScenePipeline describes the mesh program drawn into the offscreen surfaces.
func newScenePipeline() (pipeline.Pipeline, error) {
	vs, err := shader.NewShaderFromSource("scene.vs", shader.ShaderTypeVertex, sceneSource, shader.WithEntryPoint("VS_Mesh"))
	if err != nil {
		return nil, err
	}
	fs, err := shader.NewShaderFromSource("scene.fs", shader.ShaderTypeFragment, sceneSource, shader.WithEntryPoint("PS_Mesh"))
	if err != nil {
		return nil, err
	}
	return pipeline.NewPipeline(ScenePipelineKey,
		pipeline.WithVertexShader(vs),
		pipeline.WithFragmentShader(fs),
		pipeline.WithTarget(pipeline.TargetOffscreen),
		pipeline.WithCullMode(pipeline.CullBack),
	), nil
}

// newPostPipeline describes the full-screen program for one algorithm. Every algorithm shares
// VS_PostEffect and differs only in the pixel stage entry point.
func newPostPipeline(a dither.Algorithm) (pipeline.Pipeline, error) {
	if !a.Valid() {
		return nil, fmt.Errorf("post effect: invalid algorithm %d", int(a))
	}
	vs, err := shader.NewShaderFromSource("post.vs", shader.ShaderTypeVertex, PostEffectSource, shader.WithEntryPoint(dither.VertexEntryPoint))
	if err != nil {
		return nil, err
	}
	fs, err := shader.NewShaderFromSource("post.fs."+a.Name(), shader.ShaderTypeFragment, PostEffectSource, shader.WithEntryPoint(a.EntryPoint()))
	if err != nil {
		return nil, err
	}
	return pipeline.NewPipeline(PostPipelineKey,
		pipeline.WithVertexShader(vs),
		pipeline.WithFragmentShader(fs),
		pipeline.WithTarget(pipeline.TargetSwapchain),
		pipeline.WithDepthTestEnabled(false),
	), nil
}

// newOverlayPipeline describes the debug line program, depth tested against the scene.
func newOverlayPipeline() (pipeline.Pipeline, error) {
	vs, err := shader.NewShaderFromSource("lines.vs", shader.ShaderTypeVertex, debugLinesSource)
	if err != nil {
		return nil, err
	}
	fs, err := shader.NewShaderFromSource("lines.fs", shader.ShaderTypeFragment, debugLinesSource)
	if err != nil {
		return nil, err
	}
	return pipeline.NewPipeline(OverlayPipelineKey,
		pipeline.WithVertexShader(vs),
		pipeline.WithFragmentShader(fs),
		pipeline.WithTarget(pipeline.TargetSwapchainDepthTested),
		pipeline.WithDepthWriteEnabled(false),
		pipeline.WithTopology(pipeline.TopologyLineList),
	), nil
}
