package loader

import (
	"io"

	"github.com/Carmen-Shannon/oxy-dither/engine/model"
)

// loaderBackend defines the generic interface for importing mesh geometry from files or streams.
// Concrete implementations (e.g., objLoaderBackend) handle format-specific details.
type loaderBackend interface {
	// Load imports the mesh stored at the given file path.
	//
	// Parameters:
	//   - path: the file path to load
	//   - scale: a uniform scale applied to every position
	//
	// Returns:
	//   - model.MeshData: the imported geometry
	//   - error: error if loading fails
	Load(path string, scale float32) (model.MeshData, error)

	// LoadReader imports a mesh from a reader stream.
	//
	// Parameters:
	//   - name: the name given to the mesh
	//   - r: the reader providing model data
	//   - scale: a uniform scale applied to every position
	//
	// Returns:
	//   - model.MeshData: the imported geometry
	//   - error: error if loading fails
	LoadReader(name string, r io.Reader, scale float32) (model.MeshData, error)
}
