package model

// ModelBuilderOption is a functional option for configuring a Model via NewModel.
type ModelBuilderOption func(*model)

// WithName is an option builder that sets the name of the Model.
//
// Parameters:
//   - name: the model identifier
//
// Returns:
//   - ModelBuilderOption: a function that applies the name option to a model
func WithName(name string) ModelBuilderOption {
	return func(m *model) {
		m.name = name
	}
}

// WithMeshData is an option builder that sets the CPU geometry of the Model.
//
// Parameters:
//   - data: the vertices and indices
//
// Returns:
//   - ModelBuilderOption: a function that applies the mesh data option to a model
func WithMeshData(data MeshData) ModelBuilderOption {
	return func(m *model) {
		m.data = data
	}
}

// WithBoundingRadius overrides the bounding radius computed from the vertices.
//
// Parameters:
//   - radius: the bounding sphere radius
//
// Returns:
//   - ModelBuilderOption: a function that applies the radius option to a model
func WithBoundingRadius(radius float32) ModelBuilderOption {
	return func(m *model) {
		m.boundingRadius = radius
	}
}
