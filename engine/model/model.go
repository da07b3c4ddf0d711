package model

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-dither/engine/renderer"
)

// model is the implementation of the Model interface.
type model struct {
	name           string
	data           MeshData
	boundingRadius float32
	mesh           renderer.Mesh
}

// Model defines the interface for a drawable triangle mesh.
// A Model holds its CPU geometry until Upload, after which Mesh returns the GPU handle
// the scene pass binds.
type Model interface {
	// Name retrieves the model identifier.
	//
	// Returns:
	//   - string: the model name
	Name() string

	// Data retrieves the CPU geometry of the model.
	//
	// Returns:
	//   - MeshData: the vertices and indices
	Data() MeshData

	// BoundingRadius returns the bounding sphere radius for this model, measured as
	// the maximum vertex distance from the origin. Used by frustum culling.
	//
	// Returns:
	//   - float32: the bounding radius
	BoundingRadius() float32

	// Upload creates the GPU mesh. Uploading twice replaces the previous mesh.
	//
	// Parameters:
	//   - backend: the backend that owns the mesh
	//
	// Returns:
	//   - error: an error if the model is empty or the upload fails
	Upload(backend renderer.RendererBackend) error

	// Mesh returns the uploaded GPU mesh, nil before Upload.
	Mesh() renderer.Mesh

	// Release destroys the GPU mesh. The CPU geometry is kept.
	Release()
}

var _ Model = &model{}

// NewModel creates a new Model instance with the specified options applied.
//
// Parameters:
//   - options: a variadic list of ModelBuilderOption functions to configure the Model
//
// Returns:
//   - Model: a new instance of Model configured with the provided options
func NewModel(options ...ModelBuilderOption) Model {
	m := &model{}
	for _, opt := range options {
		opt(m)
	}
	if m.name == "" {
		m.name = m.data.Name
	}
	if m.boundingRadius == 0 {
		m.boundingRadius = ComputeBoundingRadius(m.data.Vertices)
	}
	return m
}

func (m *model) Name() string {
	return m.name
}

func (m *model) Data() MeshData {
	return m.data
}

func (m *model) BoundingRadius() float32 {
	return m.boundingRadius
}

func (m *model) Upload(backend renderer.RendererBackend) error {
	if len(m.data.Vertices) == 0 || len(m.data.Indices) == 0 {
		return errors.New("model: " + m.name + " has no geometry")
	}
	mesh, err := backend.CreateMesh(renderer.MeshDescriptor{
		Label:    m.name,
		Vertices: MarshalVertices(m.data.Vertices),
		Stride:   uint64((&GPUVertex{}).Size()),
		Indices:  m.data.Indices,
	})
	if err != nil {
		return fmt.Errorf("model %s: %w", m.name, err)
	}
	m.Release()
	m.mesh = mesh
	return nil
}

func (m *model) Mesh() renderer.Mesh {
	return m.mesh
}

func (m *model) Release() {
	if m.mesh != nil {
		m.mesh.Release()
		m.mesh = nil
	}
}
