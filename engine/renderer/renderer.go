package renderer

import (
	"fmt"
	"maps"
	"sync"

	"github.com/Carmen-Shannon/oxy-dither/common"
	"github.com/Carmen-Shannon/oxy-dither/engine/renderer/pipeline"
)

// cachedPipeline pairs a pipeline description with its compiled program.
type cachedPipeline struct {
	pipeline pipeline.Pipeline
	program  Program
}

// renderer is the implementation of the Renderer interface.
type renderer struct {
	RendererBackend

	mu *sync.Mutex

	pipelineCache map[string]*cachedPipeline

	// Pre-creation config collected from builder options
	pendingPipelines   []pipeline.Pipeline
	pendingPresentMode *PresentMode
	width, height      int
}

// Renderer defines the interface for the rendering system.
//
// It is the immediate-mode RendererBackend API plus a cache of compiled pipelines keyed by
// PipelineKey, so callers bind programs by name and can recompile one in place.
type Renderer interface {
	RendererBackend

	// Pipeline retrieves the cached Pipeline associated with the given key.
	// If the Pipeline does not exist, this will return nil.
	//
	// Parameters:
	//   - key: the unique identifier for the Pipeline to retrieve
	//
	// Returns:
	//   - pipeline.Pipeline: the Pipeline associated with the key, or nil if not found
	Pipeline(key string) pipeline.Pipeline

	// Pipelines retrieves a copy of the pipeline cache.
	//
	// Returns:
	//   - map[string]pipeline.Pipeline: a map of pipeline keys to their corresponding Pipeline objects
	Pipelines() map[string]pipeline.Pipeline

	// RegisterPipelines compiles one or more pipelines via the backend and caches them by PipelineKey.
	// Pipelines whose keys are already registered are skipped to avoid duplicate GPU resource creation.
	//
	// Parameters:
	//   - pipelines: the Pipelines to register
	//
	// Returns:
	//   - error: an error if pipeline creation fails
	RegisterPipelines(pipelines ...pipeline.Pipeline) error

	// RebuildPipeline compiles p and replaces whatever program is cached under its key, releasing
	// the old one. On failure the cache is left untouched.
	//
	// Parameters:
	//   - p: the new pipeline description
	//
	// Returns:
	//   - error: an error if compilation fails
	RebuildPipeline(p pipeline.Pipeline) error

	// BindPipeline binds the cached program for key.
	//
	// Parameters:
	//   - key: the pipeline key
	//
	// Returns:
	//   - error: an error if no pipeline is registered under key
	BindPipeline(key string) error

	// Resize configures the underlying backend to handle a new surface size.
	// This should be called when re-sizing the window or when the surface size should change.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	//
	// Returns:
	//   - error: an error if the surface cannot be configured
	Resize(width, height int) error
}

var _ Renderer = &renderer{}

// NewRenderer wraps a backend in a Renderer. Pipelines given through WithPipelines are compiled
// before it returns, and the surface is configured when WithSurfaceSize was given.
//
// Parameters:
//   - backend: the GPU backend to drive
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: a new instance of Renderer configured with the specified backend and options
//   - error: an error if surface configuration or pipeline compilation fails
func NewRenderer(backend RendererBackend, options ...RendererBuilderOption) (Renderer, error) {
	r := &renderer{
		RendererBackend: backend,
		mu:              &sync.Mutex{},
		pipelineCache:   make(map[string]*cachedPipeline),
	}
	for _, opt := range options {
		opt(r)
	}

	if r.pendingPresentMode != nil {
		r.SetPresentMode(*r.pendingPresentMode)
	}
	if r.width > 0 && r.height > 0 {
		if err := r.Resize(r.width, r.height); err != nil {
			return nil, err
		}
	}
	if err := r.RegisterPipelines(r.pendingPipelines...); err != nil {
		return nil, err
	}
	r.pendingPipelines = nil
	return r, nil
}

func (r *renderer) Resize(width, height int) error {
	if err := r.ConfigureSurface(width, height); err != nil {
		return fmt.Errorf("configure surface %dx%d: %w", width, height, err)
	}
	return nil
}

func (r *renderer) Pipeline(key string) pipeline.Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.pipelineCache[key]; ok {
		return c.pipeline
	}
	return nil
}

func (r *renderer) Pipelines() map[string]pipeline.Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]pipeline.Pipeline, len(r.pipelineCache))
	for key, c := range r.pipelineCache {
		out[key] = c.pipeline
	}
	return out
}

func (r *renderer) RegisterPipelines(pipelines ...pipeline.Pipeline) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range pipelines {
		key := p.PipelineKey()
		if _, exists := r.pipelineCache[key]; exists {
			continue
		}
		program, err := r.CreateProgram(p)
		if err != nil {
			return fmt.Errorf("register pipeline %q: %w", key, err)
		}
		r.pipelineCache[key] = &cachedPipeline{pipeline: p, program: program}
		common.Logger().Debug("pipeline registered", "key", key)
	}
	return nil
}

func (r *renderer) RebuildPipeline(p pipeline.Pipeline) error {
	key := p.PipelineKey()
	program, err := r.CreateProgram(p)
	if err != nil {
		return fmt.Errorf("rebuild pipeline %q: %w", key, err)
	}

	r.mu.Lock()
	old := r.pipelineCache[key]
	r.pipelineCache[key] = &cachedPipeline{pipeline: p, program: program}
	r.mu.Unlock()

	if old != nil {
		old.program.Release()
	}
	common.Logger().Debug("pipeline rebuilt", "key", key)
	return nil
}

func (r *renderer) BindPipeline(key string) error {
	r.mu.Lock()
	c, exists := r.pipelineCache[key]
	r.mu.Unlock()

	if !exists {
		return fmt.Errorf("render pipeline %q not found in cache", key)
	}
	r.SetProgram(c.program)
	return nil
}

// Release releases every cached program, then the backend.
func (r *renderer) Release() {
	r.mu.Lock()
	cache := maps.Clone(r.pipelineCache)
	clear(r.pipelineCache)
	r.mu.Unlock()

	for _, c := range cache {
		c.program.Release()
	}
	r.RendererBackend.Release()
}
