package loader

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Carmen-Shannon/oxy-dither/engine/model"
)

// objLoaderBackend imports Wavefront OBJ geometry. Polygons are fan-triangulated, materials and
// groups are ignored and every face corner becomes its own vertex unless an identical
// position/uv/normal triple was already emitted.
type objLoaderBackend struct{}

var _ loaderBackend = &objLoaderBackend{}

func newOBJLoaderBackend() loaderBackend {
	return &objLoaderBackend{}
}

func (b *objLoaderBackend) Load(path string, scale float32) (model.MeshData, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.MeshData{}, err
	}
	defer f.Close()
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return b.LoadReader(name, f, scale)
}

// objCorner is one v/vt/vn reference of a face, zero-based, -1 when absent.
type objCorner struct {
	v, vt, vn int
}

func (b *objLoaderBackend) LoadReader(name string, r io.Reader, scale float32) (model.MeshData, error) {
	if scale == 0 {
		scale = 1
	}
	var (
		positions [][3]float32
		texCoords [][2]float32
		normals   [][3]float32
		faces     [][]objCorner
	)

	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		fields := strings.Fields(line)
		switch fields[0] {
		case "v":
			p, err := parseFloats(fields[1:], 3)
			if err != nil {
				return model.MeshData{}, fmt.Errorf("obj line %d: %w", lineNum, err)
			}
			positions = append(positions, [3]float32{p[0] * scale, p[1] * scale, p[2] * scale})
		case "vt":
			t, err := parseFloats(fields[1:], 2)
			if err != nil {
				return model.MeshData{}, fmt.Errorf("obj line %d: %w", lineNum, err)
			}
			// OBJ puts v=0 at the bottom of the image.
			texCoords = append(texCoords, [2]float32{t[0], 1 - t[1]})
		case "vn":
			n, err := parseFloats(fields[1:], 3)
			if err != nil {
				return model.MeshData{}, fmt.Errorf("obj line %d: %w", lineNum, err)
			}
			normals = append(normals, [3]float32{n[0], n[1], n[2]})
		case "f":
			if len(fields) < 4 {
				return model.MeshData{}, fmt.Errorf("obj line %d: face needs at least 3 corners", lineNum)
			}
			face := make([]objCorner, 0, len(fields)-1)
			for _, ref := range fields[1:] {
				c, err := parseCorner(ref, len(positions), len(texCoords), len(normals))
				if err != nil {
					return model.MeshData{}, fmt.Errorf("obj line %d: %w", lineNum, err)
				}
				face = append(face, c)
			}
			faces = append(faces, face)
		}
	}
	if err := scanner.Err(); err != nil {
		return model.MeshData{}, err
	}
	if len(faces) == 0 {
		return model.MeshData{}, fmt.Errorf("obj %s: no faces", name)
	}

	data := model.MeshData{Name: name}
	emitted := make(map[objCorner]uint32)
	for f, face := range faces {
		faceNormal := triangleNormal(positions[face[0].v], positions[face[1].v], positions[face[2].v])
		for i := 1; i+1 < len(face); i++ {
			for _, c := range []objCorner{face[0], face[i], face[i+1]} {
				key := c
				if c.vn < 0 {
					// Corners without a normal take the face normal and are only shared within their face.
					key.vn = -2 - f
				}
				if idx, ok := emitted[key]; ok {
					data.Indices = append(data.Indices, idx)
					continue
				}
				v := model.GPUVertex{Position: positions[c.v], Normal: faceNormal}
				if c.vt >= 0 {
					v.TexCoord = texCoords[c.vt]
				}
				if c.vn >= 0 {
					v.Normal = normals[c.vn]
				}
				idx := uint32(len(data.Vertices))
				data.Vertices = append(data.Vertices, v)
				emitted[key] = idx
				data.Indices = append(data.Indices, idx)
			}
		}
	}
	return data, nil
}

func parseFloats(fields []string, n int) ([]float32, error) {
	if len(fields) < n {
		return nil, fmt.Errorf("expected %d values, got %d", n, len(fields))
	}
	out := make([]float32, n)
	for i := range n {
		f, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return nil, err
		}
		out[i] = float32(f)
	}
	return out, nil
}

// parseCorner parses "v", "v/vt", "v//vn" or "v/vt/vn". Negative indices count back from the
// most recent element.
func parseCorner(ref string, nv, nvt, nvn int) (objCorner, error) {
	parts := strings.Split(ref, "/")
	c := objCorner{v: -1, vt: -1, vn: -1}
	targets := []*int{&c.v, &c.vt, &c.vn}
	counts := []int{nv, nvt, nvn}
	for i, part := range parts {
		if i >= len(targets) {
			return c, fmt.Errorf("malformed face corner %q", ref)
		}
		if part == "" {
			if i == 0 {
				return c, fmt.Errorf("face corner %q has no position", ref)
			}
			continue
		}
		idx, err := strconv.Atoi(part)
		if err != nil {
			return c, fmt.Errorf("face corner %q: %w", ref, err)
		}
		switch {
		case idx > 0:
			idx--
		case idx < 0:
			idx += counts[i]
		default:
			return c, fmt.Errorf("face corner %q uses index 0", ref)
		}
		if idx < 0 || idx >= counts[i] {
			return c, fmt.Errorf("face corner %q out of range", ref)
		}
		*targets[i] = idx
	}
	return c, nil
}

func triangleNormal(a, b, c [3]float32) [3]float32 {
	e1 := [3]float32{b[0] - a[0], b[1] - a[1], b[2] - a[2]}
	e2 := [3]float32{c[0] - a[0], c[1] - a[1], c[2] - a[2]}
	n := [3]float32{e1[1]*e2[2] - e1[2]*e2[1], e1[2]*e2[0] - e1[0]*e2[2], e1[0]*e2[1] - e1[1]*e2[0]}
	l := float32(math.Sqrt(float64(n[0]*n[0] + n[1]*n[1] + n[2]*n[2])))
	if l == 0 {
		return [3]float32{0, 1, 0}
	}
	return [3]float32{n[0] / l, n[1] / l, n[2] / l}
}
