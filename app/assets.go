package app

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-dither/common"
	"github.com/Carmen-Shannon/oxy-dither/engine/loader"
	"github.com/Carmen-Shannon/oxy-dither/engine/model"
	"github.com/Carmen-Shannon/oxy-dither/engine/postfx"
	"github.com/Carmen-Shannon/oxy-dither/engine/renderer"
)

// Procedural textures used when no image path is configured.
var fallbackTextures = [2]struct {
	cell int
	a, b [4]byte
}{
	{cell: 16, a: [4]byte{178, 84, 60, 255}, b: [4]byte{92, 40, 30, 255}},
	{cell: 8, a: [4]byte{200, 40, 40, 255}, b: [4]byte{250, 220, 120, 255}},
}

const fallbackTextureSize = 128

// loadScene decodes the configured assets on the loader's worker pool, then uploads meshes and
// textures on the calling thread. Missing paths fall back to a cube, a sphere and checkerboards.
//
// Parameters:
//   - r: the backend to upload to
//
// Returns:
//   - []postfx.Drawable: one drawable per model type
//   - error: the first decode or upload failure; uploaded resources are released
func (a *ditherApp) loadScene(r renderer.RendererBackend) (_ []postfx.Drawable, err error) {
	defer func() {
		if err != nil {
			a.releaseScene()
		}
	}()

	meshes := [2]model.Model{
		model.NewModel(model.WithName("cube"), model.WithMeshData(model.Cube(cubeHalfExtent))),
		model.NewModel(model.WithName("sphere"), model.WithMeshData(model.Sphere(cubeHalfExtent, 16, 24))),
	}
	var staging [2]common.TextureStagingData
	for i, f := range fallbackTextures {
		staging[i] = loader.Checkerboard(fallbackTextureSize, f.cell, f.a, f.b)
	}

	var requests []loader.Request
	if a.modelPath != "" {
		requests = append(requests, loader.Request{Path: a.modelPath, Kind: loader.AssetModel, Scale: a.modelScale})
	}
	for _, path := range a.texturePaths {
		if path != "" {
			requests = append(requests, loader.Request{Path: path, Kind: loader.AssetTexture})
		}
	}
	if len(requests) > 0 {
		assets, err := a.loader.LoadBatch(requests...)
		if err != nil {
			return nil, fmt.Errorf("load assets: %w", err)
		}
		for _, asset := range assets {
			switch {
			case asset.Model != nil:
				meshes[1] = asset.Model
			case asset.Texture != nil:
				for i, path := range a.texturePaths {
					if path == asset.Request.Path {
						staging[i] = *asset.Texture
					}
				}
			}
		}
	}

	drawables := make([]postfx.Drawable, 0, len(meshes))
	for i, m := range meshes {
		if err := m.Upload(r); err != nil {
			return nil, fmt.Errorf("upload %s: %w", m.Name(), err)
		}
		a.models = append(a.models, m)

		view, err := a.uploadTexture(r, fmt.Sprintf("%s.diffuse", m.Name()), staging[i])
		if err != nil {
			return nil, err
		}
		drawables = append(drawables, postfx.Drawable{
			Mesh:           m.Mesh(),
			Texture:        view,
			BoundingRadius: m.BoundingRadius(),
		})
	}
	return drawables, nil
}

// uploadTexture creates a sampled sRGB texture holding data and returns its shader input view.
func (a *ditherApp) uploadTexture(r renderer.RendererBackend, label string, data common.TextureStagingData) (renderer.TextureView, error) {
	tex, err := r.CreateTexture(renderer.TextureDescriptor{
		Label:  label,
		Width:  data.Width,
		Height: data.Height,
		Format: renderer.FormatRGBA8UnormSrgb,
		Usage:  renderer.UsageShaderInput | renderer.UsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create texture %s: %w", label, err)
	}
	a.textures = append(a.textures, tex)
	if err := r.WriteTexture(tex, data); err != nil {
		return nil, fmt.Errorf("write texture %s: %w", label, err)
	}
	view, err := r.CreateTextureView(tex, renderer.TextureViewDescriptor{Label: label, Kind: renderer.ViewShaderInput})
	if err != nil {
		return nil, fmt.Errorf("create view %s: %w", label, err)
	}
	a.views = append(a.views, view)
	return view, nil
}

// releaseScene releases views before textures, then meshes.
func (a *ditherApp) releaseScene() {
	for _, v := range a.views {
		v.Release()
	}
	for _, t := range a.textures {
		t.Release()
	}
	for _, m := range a.models {
		m.Release()
	}
	a.views, a.textures, a.models = nil, nil, nil
	a.instances = nil
}
