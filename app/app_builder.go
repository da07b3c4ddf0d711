package app

import (
	"github.com/Carmen-Shannon/oxy-dither/engine/loader"
	"github.com/Carmen-Shannon/oxy-dither/engine/postfx"
)

// AppBuilderOption is a functional option for configuring an App.
type AppBuilderOption func(*ditherApp)

// WithParams sets the initial parameter state. The app takes ownership of p.
//
// Parameters:
//   - p: the parameter state
//
// Returns:
//   - AppBuilderOption: option function to apply
func WithParams(p *postfx.Params) AppBuilderOption {
	return func(a *ditherApp) {
		a.params = p
	}
}

// WithLoader sets the loader used for model and texture files.
func WithLoader(l loader.Loader) AppBuilderOption {
	return func(a *ditherApp) {
		a.loader = l
	}
}

// WithModel replaces the second model type with an OBJ file.
//
// Parameters:
//   - path: the OBJ file
//   - scale: uniform scale applied to its positions, zero means 1
//
// Returns:
//   - AppBuilderOption: option function to apply
func WithModel(path string, scale float32) AppBuilderOption {
	return func(a *ditherApp) {
		a.modelPath = path
		if scale != 0 {
			a.modelScale = scale
		}
	}
}

// WithTexture replaces the diffuse texture of model type i (0 or 1) with an image file.
// Other indices are ignored.
//
// Parameters:
//   - i: the model type
//   - path: the image file
//
// Returns:
//   - AppBuilderOption: option function to apply
func WithTexture(i int, path string) AppBuilderOption {
	return func(a *ditherApp) {
		if i >= 0 && i < len(a.texturePaths) {
			a.texturePaths[i] = path
		}
	}
}

// WithGrid sets the instance grid: perSide x perSide instances per model type, spacing apart.
// Non-positive values keep the 5 x 5, 1.5 default.
func WithGrid(perSide int, spacing float32) AppBuilderOption {
	return func(a *ditherApp) {
		if perSide > 0 {
			a.perSide = perSide
		}
		if spacing > 0 {
			a.spacing = spacing
		}
	}
}

// WithFrustumCulling enables culling instances outside the camera frustum.
func WithFrustumCulling(enabled bool) AppBuilderOption {
	return func(a *ditherApp) {
		a.culling = enabled
	}
}

// WithCommandSource adds a channel drained at the start of every update, such as a terminal
// panel's commands.
func WithCommandSource(ch <-chan postfx.Command) AppBuilderOption {
	return func(a *ditherApp) {
		if ch != nil {
			a.sources = append(a.sources, ch)
		}
	}
}

// WithSnapshotSink adds a function called on the frame thread whenever the published state
// changes. Sinks must not block.
func WithSnapshotSink(sink func(postfx.Snapshot)) AppBuilderOption {
	return func(a *ditherApp) {
		if sink != nil {
			a.sinks = append(a.sinks, sink)
		}
	}
}

// WithQuitSignal ends the engine loop once done is closed.
func WithQuitSignal(done <-chan struct{}) AppBuilderOption {
	return func(a *ditherApp) {
		a.quit = done
	}
}
