package model

// MeshData is the CPU-side geometry of a triangle mesh, as produced by the primitive
// generators and the OBJ importer.
type MeshData struct {
	// Name is the mesh identifier.
	Name string

	// Vertices are the mesh vertices.
	Vertices []GPUVertex

	// Indices are the triangle indices, three per triangle.
	Indices []uint32
}

// LineData is the CPU-side geometry of a line list, two indices per segment.
type LineData struct {
	Vertices []LineVertex
	Indices  []uint32
}

// Append adds a single segment from a to b in the given colour.
//
// Parameters:
//   - a: the start point
//   - b: the end point
//   - colour: the segment colour
func (l *LineData) Append(a, b, colour [3]float32) {
	base := uint32(len(l.Vertices))
	l.Vertices = append(l.Vertices, LineVertex{Position: a, Colour: colour}, LineVertex{Position: b, Colour: colour})
	l.Indices = append(l.Indices, base, base+1)
}

// Merge appends every segment of other.
func (l *LineData) Merge(other LineData) {
	base := uint32(len(l.Vertices))
	l.Vertices = append(l.Vertices, other.Vertices...)
	for _, idx := range other.Indices {
		l.Indices = append(l.Indices, base+idx)
	}
}

// Reset empties the line list and keeps its storage.
func (l *LineData) Reset() {
	l.Vertices = l.Vertices[:0]
	l.Indices = l.Indices[:0]
}
