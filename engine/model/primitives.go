package model

import "math"

// cubeFaces lists each face as its outward normal and two in-plane axes whose cross product is the normal,
// so corners walked as -u-v, +u-v, +u+v, -u+v wind counter-clockwise seen from outside.
var cubeFaces = [6]struct{ n, u, v [3]float32 }{
	{n: [3]float32{1, 0, 0}, u: [3]float32{0, 0, -1}, v: [3]float32{0, 1, 0}},
	{n: [3]float32{-1, 0, 0}, u: [3]float32{0, 0, 1}, v: [3]float32{0, 1, 0}},
	{n: [3]float32{0, 1, 0}, u: [3]float32{1, 0, 0}, v: [3]float32{0, 0, -1}},
	{n: [3]float32{0, -1, 0}, u: [3]float32{1, 0, 0}, v: [3]float32{0, 0, 1}},
	{n: [3]float32{0, 0, 1}, u: [3]float32{1, 0, 0}, v: [3]float32{0, 1, 0}},
	{n: [3]float32{0, 0, -1}, u: [3]float32{-1, 0, 0}, v: [3]float32{0, 1, 0}},
}

// Cube builds an axis-aligned cube centred on the origin with four vertices per face so
// every face carries its own normal and a full 0..1 UV square.
//
// Parameters:
//   - halfExtent: half the edge length
//
// Returns:
//   - MeshData: 24 vertices and 36 indices
func Cube(halfExtent float32) MeshData {
	data := MeshData{
		Name:     "cube",
		Vertices: make([]GPUVertex, 0, 24),
		Indices:  make([]uint32, 0, 36),
	}
	corners := [4][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}
	uvs := [4][2]float32{{0, 1}, {1, 1}, {1, 0}, {0, 0}}
	for _, f := range cubeFaces {
		base := uint32(len(data.Vertices))
		for c, corner := range corners {
			var p [3]float32
			for axis := range 3 {
				p[axis] = (f.n[axis] + corner[0]*f.u[axis] + corner[1]*f.v[axis]) * halfExtent
			}
			data.Vertices = append(data.Vertices, GPUVertex{Position: p, Normal: f.n, TexCoord: uvs[c]})
		}
		data.Indices = append(data.Indices, base, base+1, base+2, base, base+2, base+3)
	}
	return data
}

// Sphere builds a UV sphere centred on the origin.
//
// Parameters:
//   - radius: the sphere radius
//   - stacks: latitude bands, at least 2
//   - slices: longitude bands, at least 3
//
// Returns:
//   - MeshData: (stacks+1)*(slices+1) vertices
func Sphere(radius float32, stacks, slices int) MeshData {
	stacks = max(stacks, 2)
	slices = max(slices, 3)
	data := MeshData{
		Name:     "sphere",
		Vertices: make([]GPUVertex, 0, (stacks+1)*(slices+1)),
		Indices:  make([]uint32, 0, stacks*slices*6),
	}
	for i := 0; i <= stacks; i++ {
		phi := math.Pi * float64(i) / float64(stacks)
		for j := 0; j <= slices; j++ {
			theta := 2 * math.Pi * float64(j) / float64(slices)
			n := [3]float32{
				float32(math.Sin(phi) * math.Cos(theta)),
				float32(math.Cos(phi)),
				float32(-math.Sin(phi) * math.Sin(theta)),
			}
			data.Vertices = append(data.Vertices, GPUVertex{
				Position: [3]float32{n[0] * radius, n[1] * radius, n[2] * radius},
				Normal:   n,
				TexCoord: [2]float32{float32(j) / float32(slices), float32(i) / float32(stacks)},
			})
		}
	}
	row := uint32(slices + 1)
	for i := 0; i < stacks; i++ {
		for j := 0; j < slices; j++ {
			a := uint32(i)*row + uint32(j)
			b := a + row
			data.Indices = append(data.Indices, a, b, b+1, a, b+1, a+1)
		}
	}
	return data
}

// FullScreenQuad builds the two-triangle quad spanning (-1,-1)..(1,1) in normalized device coordinates.
// UV (0,0) is the top-left corner of the screen.
func FullScreenQuad() MeshData {
	return MeshData{
		Name: "fullscreen_quad",
		Vertices: []GPUVertex{
			{Position: [3]float32{-1, -1, 0}, Normal: [3]float32{0, 0, 1}, TexCoord: [2]float32{0, 1}},
			{Position: [3]float32{1, -1, 0}, Normal: [3]float32{0, 0, 1}, TexCoord: [2]float32{1, 1}},
			{Position: [3]float32{1, 1, 0}, Normal: [3]float32{0, 0, 1}, TexCoord: [2]float32{1, 0}},
			{Position: [3]float32{-1, 1, 0}, Normal: [3]float32{0, 0, 1}, TexCoord: [2]float32{0, 0}},
		},
		Indices: []uint32{0, 1, 2, 0, 2, 3},
	}
}

// Debug overlay colours.
var (
	ColourDimGray = [3]float32{0.412, 0.412, 0.412}
	ColourRed     = [3]float32{1, 0, 0}
	ColourGreen   = [3]float32{0, 1, 0}
	ColourBlue    = [3]float32{0, 0, 1}
)

// XZSquareGrid builds a square grid of lines on the plane y, from mins to maxs on both X and Z.
//
// Parameters:
//   - mins: the lower bound on X and Z
//   - maxs: the upper bound on X and Z
//   - y: the height of the grid plane
//   - step: the line spacing, must be positive
//   - colour: the line colour
//
// Returns:
//   - LineData: two lines per step
func XZSquareGrid(mins, maxs, y, step float32, colour [3]float32) LineData {
	var lines LineData
	if step <= 0 || maxs < mins {
		return lines
	}
	count := int(math.Floor(float64((maxs-mins)/step))) + 1
	for k := range count {
		i := mins + float32(k)*step
		lines.Append([3]float32{mins, y, i}, [3]float32{maxs, y, i}, colour)
		lines.Append([3]float32{i, y, mins}, [3]float32{i, y, maxs}, colour)
	}
	return lines
}

// AxisTriad builds three lines from the origin along +X (red), +Y (green) and +Z (blue).
//
// Parameters:
//   - length: the length of each axis
//
// Returns:
//   - LineData: three segments
func AxisTriad(length float32) LineData {
	var lines LineData
	origin := [3]float32{}
	lines.Append(origin, [3]float32{length, 0, 0}, ColourRed)
	lines.Append(origin, [3]float32{0, length, 0}, ColourGreen)
	lines.Append(origin, [3]float32{0, 0, length}, ColourBlue)
	return lines
}
