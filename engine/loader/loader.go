// Package loader imports mesh geometry and image textures from disk. Decoding is CPU only: the
// loader returns models and staged pixels, and callers upload them on the frame thread.
package loader

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-dither/common"
	"github.com/Carmen-Shannon/oxy-dither/engine/model"
)

// AssetKind selects how a Request is decoded.
type AssetKind int

const (
	// AssetAuto picks the kind from the file extension.
	AssetAuto AssetKind = iota
	// AssetModel decodes mesh geometry.
	AssetModel
	// AssetTexture decodes an image.
	AssetTexture
)

// Request names one asset to load in a batch.
type Request struct {
	Path string
	Kind AssetKind
	// Scale is the uniform scale applied to model positions. Zero means 1.
	Scale float32
}

// Asset is the decoded result of a Request. Exactly one of Model and Texture is set.
type Asset struct {
	Request Request
	Model   model.Model
	Texture *common.TextureStagingData
}

// loader is the implementation of the Loader interface.
type loader struct {
	mu sync.RWMutex

	modelCache   map[string]model.Model
	textureCache map[string]common.TextureStagingData

	backend        loaderBackend
	workers        int
	maxTextureSize int
	pool           worker.DynamicWorkerPool
}

// Loader defines the public-facing interface for loading and caching meshes and textures.
// Models are cached by ModelKey (path or reader name plus scale) and textures by path, so loading
// the same asset twice decodes it once.
type Loader interface {
	// LoadModel imports a model file and caches the result.
	// The backend is selected based on the file extension (.obj).
	//
	// Parameters:
	//   - path: the file path to the model file
	//   - scale: a uniform scale applied to every position, zero means 1
	//
	// Returns:
	//   - model.Model: the loaded and cached model, not yet uploaded
	//   - error: error if loading fails
	LoadModel(path string, scale float32) (model.Model, error)

	// LoadModelReader imports an OBJ model from a reader stream and caches it by the given name.
	//
	// Parameters:
	//   - name: the cache key for the loaded model
	//   - r: the reader providing model data
	//   - scale: a uniform scale applied to every position, zero means 1
	//
	// Returns:
	//   - model.Model: the loaded model
	//   - error: error if loading fails
	LoadModelReader(name string, r io.Reader, scale float32) (model.Model, error)

	// LoadTexture decodes an image file (PNG, JPEG, GIF, BMP, TIFF or WebP) and caches it.
	//
	// Parameters:
	//   - path: the file path to the image
	//
	// Returns:
	//   - common.TextureStagingData: the RGBA pixels
	//   - error: error if decoding fails
	LoadTexture(path string) (common.TextureStagingData, error)

	// LoadTextureReader decodes an image stream and caches it by the given name.
	//
	// Parameters:
	//   - name: the cache key for the texture
	//   - r: the reader providing image data
	//
	// Returns:
	//   - common.TextureStagingData: the RGBA pixels
	//   - error: error if decoding fails
	LoadTextureReader(name string, r io.Reader) (common.TextureStagingData, error)

	// LoadBatch decodes every request concurrently on the loader's worker pool and waits for all
	// of them. Results keep the order of the requests.
	//
	// Parameters:
	//   - requests: the assets to load
	//
	// Returns:
	//   - []Asset: one asset per request, zero-valued where the request failed
	//   - error: every failure joined, nil when all succeeded
	LoadBatch(requests ...Request) ([]Asset, error)

	// Get retrieves a model cached by LoadModel or LoadModelReader. Returns nil if not found.
	//
	// Parameters:
	//   - name: the path or reader name the model was loaded under
	//   - scale: the scale it was loaded at, zero means 1
	//
	// Returns:
	//   - model.Model: the cached model or nil
	Get(name string, scale float32) model.Model

	// Models returns a copy of the model cache.
	//
	// Returns:
	//   - map[string]model.Model: all cached models keyed by ModelKey
	Models() map[string]model.Model
}

var _ Loader = &loader{}

// NewLoader creates a new Loader instance with the options applied.
//
// Parameters:
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: a new instance of Loader
func NewLoader(options ...LoaderBuilderOption) Loader {
	l := &loader{
		mu:           sync.RWMutex{},
		modelCache:   make(map[string]model.Model),
		textureCache: make(map[string]common.TextureStagingData),
		backend:      newOBJLoaderBackend(),
		workers:      4,
	}
	for _, option := range options {
		option(l)
	}
	l.pool = worker.NewDynamicWorkerPool(max(l.workers, 1), 256, 1*time.Second)
	return l
}

// ModelKey is the cache key of a model loaded from name at scale. Scales 0 and 1 share the bare
// name.
func ModelKey(name string, scale float32) string {
	if scale == 0 || scale == 1 {
		return name
	}
	return fmt.Sprintf("%s@%g", name, scale)
}

func (l *loader) LoadModel(path string, scale float32) (model.Model, error) {
	key := ModelKey(path, scale)
	l.mu.RLock()
	if cached, ok := l.modelCache[key]; ok {
		l.mu.RUnlock()
		return cached, nil
	}
	l.mu.RUnlock()

	backend, err := l.resolveBackend(path)
	if err != nil {
		return nil, err
	}

	data, err := backend.Load(path, scale)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return l.cacheModel(key, data), nil
}

func (l *loader) LoadModelReader(name string, r io.Reader, scale float32) (model.Model, error) {
	key := ModelKey(name, scale)
	l.mu.RLock()
	if cached, ok := l.modelCache[key]; ok {
		l.mu.RUnlock()
		return cached, nil
	}
	l.mu.RUnlock()

	data, err := l.backend.LoadReader(name, r, scale)
	if err != nil {
		return nil, fmt.Errorf("failed to load from reader %q: %w", name, err)
	}
	return l.cacheModel(key, data), nil
}

// cacheModel stores a model under key unless a concurrent load stored one first.
func (l *loader) cacheModel(key string, data model.MeshData) model.Model {
	l.mu.Lock()
	defer l.mu.Unlock()
	if cached, ok := l.modelCache[key]; ok {
		return cached
	}
	m := model.NewModel(model.WithName(data.Name), model.WithMeshData(data))
	l.modelCache[key] = m
	common.Logger().Debug("model loaded", "key", key, "vertices", len(data.Vertices), "indices", len(data.Indices))
	return m
}

func (l *loader) LoadTexture(path string) (common.TextureStagingData, error) {
	if tex, ok := l.cachedTexture(path); ok {
		return tex, nil
	}
	tex, err := decodeTextureFile(path, l.maxTextureSize)
	if err != nil {
		return common.TextureStagingData{}, err
	}
	return l.cacheTexture(path, tex), nil
}

func (l *loader) LoadTextureReader(name string, r io.Reader) (common.TextureStagingData, error) {
	if tex, ok := l.cachedTexture(name); ok {
		return tex, nil
	}
	tex, err := decodeTextureReader(r, l.maxTextureSize)
	if err != nil {
		return common.TextureStagingData{}, fmt.Errorf("texture %q: %w", name, err)
	}
	return l.cacheTexture(name, tex), nil
}

func (l *loader) cachedTexture(key string) (common.TextureStagingData, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	tex, ok := l.textureCache[key]
	return tex, ok
}

func (l *loader) cacheTexture(key string, tex common.TextureStagingData) common.TextureStagingData {
	l.mu.Lock()
	defer l.mu.Unlock()
	if cached, ok := l.textureCache[key]; ok {
		return cached
	}
	l.textureCache[key] = tex
	common.Logger().Debug("texture loaded", "key", key, "width", tex.Width, "height", tex.Height)
	return tex
}

func (l *loader) LoadBatch(requests ...Request) ([]Asset, error) {
	assets := make([]Asset, len(requests))
	errs := make([]error, len(requests))

	// A WaitGroup is the barrier: the pool only reports completion once its workers idle out.
	var wg sync.WaitGroup
	for i, req := range requests {
		wg.Add(1)
		id := i
		r := req
		l.pool.SubmitTask(worker.Task{
			ID: id,
			Do: func() (any, error) {
				defer wg.Done()
				asset, err := l.load(r)
				assets[id] = asset
				errs[id] = err
				return nil, err
			},
		})
	}
	wg.Wait()
	return assets, errors.Join(errs...)
}

func (l *loader) load(req Request) (Asset, error) {
	kind := req.Kind
	if kind == AssetAuto {
		ext := strings.ToLower(filepath.Ext(req.Path))
		switch {
		case textureExtensions[ext]:
			kind = AssetTexture
		case ext == ".obj":
			kind = AssetModel
		default:
			return Asset{Request: req}, fmt.Errorf("cannot infer the asset kind of %s", req.Path)
		}
	}

	switch kind {
	case AssetModel:
		m, err := l.LoadModel(req.Path, req.Scale)
		return Asset{Request: req, Model: m}, err
	default:
		tex, err := l.LoadTexture(req.Path)
		if err != nil {
			return Asset{Request: req}, err
		}
		return Asset{Request: req, Texture: &tex}, nil
	}
}

func (l *loader) Get(name string, scale float32) model.Model {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.modelCache[ModelKey(name, scale)]
}

func (l *loader) Models() map[string]model.Model {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return maps.Clone(l.modelCache)
}

// resolveBackend selects an appropriate loader backend based on the file extension.
// Currently only Wavefront OBJ is supported.
func (l *loader) resolveBackend(path string) (loaderBackend, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".obj":
		return l.backend, nil
	default:
		return nil, fmt.Errorf("unsupported model format: %s", ext)
	}
}
