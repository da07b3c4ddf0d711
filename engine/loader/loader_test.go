package loader

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

const quadOBJ = `# unit quad in the XY plane
v -1 -1 0
v 1 -1 0
v 1 1 0
v -1 1 0
vt 0 0
vt 1 0
vt 1 1
vt 0 1
vn 0 0 1
f 1/1/1 2/2/1 3/3/1 4/4/1
`

func TestOBJQuadTriangulation(t *testing.T) {
	l := NewLoader()
	m, err := l.LoadModelReader("quad", strings.NewReader(quadOBJ), 2)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	data := m.Data()
	if len(data.Vertices) != 4 {
		t.Fatalf("got %d vertices, want 4 shared corners", len(data.Vertices))
	}
	if want := []uint32{0, 1, 2, 0, 2, 3}; !slices.Equal(data.Indices, want) {
		t.Fatalf("indices = %v, want %v", data.Indices, want)
	}
	if got := data.Vertices[2].Position; got != [3]float32{2, 2, 0} {
		t.Errorf("scaled position = %v, want (2,2,0)", got)
	}
	if got := data.Vertices[0].TexCoord; got != [2]float32{0, 1} {
		t.Errorf("uv = %v, want v flipped to (0,1)", got)
	}
	if got := data.Vertices[1].Normal; got != [3]float32{0, 0, 1} {
		t.Errorf("normal = %v, want (0,0,1)", got)
	}
}

func TestOBJFlatNormalsAndNegativeIndices(t *testing.T) {
	src := "v 0 0 0\nv 1 0 0\nv 0 1 0\nf -3 -2 -1\n"
	m, err := NewLoader().LoadModelReader("tri", strings.NewReader(src), 0)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	data := m.Data()
	if len(data.Indices) != 3 {
		t.Fatalf("got %d indices, want 3", len(data.Indices))
	}
	for _, v := range data.Vertices {
		if v.Normal != [3]float32{0, 0, 1} {
			t.Fatalf("normal = %v, want the face normal (0,0,1)", v.Normal)
		}
	}
}

func TestOBJErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"no faces", "v 0 0 0\n"},
		{"index zero", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 0 1 2\n"},
		{"out of range", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 4\n"},
		{"two corners", "v 0 0 0\nv 1 0 0\nf 1 2\n"},
		{"bad float", "v 0 x 0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewLoader().LoadModelReader(tt.name, strings.NewReader(tt.src), 1); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestLoadModelCachesByPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quad.obj")
	if err := os.WriteFile(path, []byte(quadOBJ), 0o644); err != nil {
		t.Fatal(err)
	}
	l := NewLoader()
	a, err := l.LoadModel(path, 1)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	b, err := l.LoadModel(path, 1)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if a != b {
		t.Error("second load did not return the cached model")
	}
	if a.Name() != "quad" {
		t.Errorf("name = %q, want quad", a.Name())
	}
	if l.Get(path, 1) != a || l.Get(path, 0) != a || len(l.Models()) != 1 {
		t.Error("cache does not hold the model")
	}
	if _, err := l.LoadModel(filepath.Join(t.TempDir(), "x.fbx"), 1); err == nil {
		t.Error("expected an unsupported format error")
	}
}

func TestLoadModelCachesPerScale(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quad.obj")
	if err := os.WriteFile(path, []byte(quadOBJ), 0o644); err != nil {
		t.Fatal(err)
	}
	l := NewLoader()
	unit, err := l.LoadModel(path, 1)
	if err != nil {
		t.Fatalf("load at scale 1: %v", err)
	}
	tripled, err := l.LoadModel(path, 3)
	if err != nil {
		t.Fatalf("load at scale 3: %v", err)
	}
	if unit == tripled {
		t.Fatal("scale 3 returned the scale 1 model")
	}
	if got := unit.Data().Vertices[2].Position; got != [3]float32{1, 1, 0} {
		t.Errorf("scale 1 corner = %v, want (1,1,0)", got)
	}
	if got := tripled.Data().Vertices[2].Position; got != [3]float32{3, 3, 0} {
		t.Errorf("scale 3 corner = %v, want (3,3,0)", got)
	}
	if l.Get(path, 3) != tripled || l.Get(path, 1) != unit || len(l.Models()) != 2 {
		t.Error("cache does not hold one model per scale")
	}

	assets, err := l.LoadBatch(
		Request{Path: path, Kind: AssetModel, Scale: 3},
		Request{Path: path, Kind: AssetModel, Scale: 0.5},
	)
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if assets[0].Model != tripled {
		t.Error("batch at scale 3 did not reuse the cached model")
	}
	if got := assets[1].Model.Data().Vertices[2].Position; got != [3]float32{0.5, 0.5, 0} {
		t.Errorf("batch scale 0.5 corner = %v, want (0.5,0.5,0)", got)
	}
}

func TestModelKey(t *testing.T) {
	cases := []struct {
		scale float32
		want  string
	}{
		{0, "a.obj"},
		{1, "a.obj"},
		{2.5, "a.obj@2.5"},
	}
	for _, tc := range cases {
		if got := ModelKey("a.obj", tc.scale); got != tc.want {
			t.Errorf("ModelKey(a.obj, %v) = %q, want %q", tc.scale, got, tc.want)
		}
	}
}

func testImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.NRGBA{R: uint8(x * 40), G: uint8(y * 40), B: 200, A: 255})
		}
	}
	return img
}

func writeImage(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img := testImage(4, 3)
	switch filepath.Ext(name) {
	case ".png":
		err = png.Encode(f, img)
	case ".bmp":
		err = bmp.Encode(f, img)
	case ".tiff":
		err = tiff.Encode(f, img, nil)
	}
	if err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadTextureFormats(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.png", "b.bmp", "c.tiff"} {
		t.Run(name, func(t *testing.T) {
			tex, err := NewLoader().LoadTexture(writeImage(t, dir, name))
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if tex.Width != 4 || tex.Height != 3 || len(tex.Pixels) != 4*3*4 {
				t.Fatalf("got %dx%d with %d bytes", tex.Width, tex.Height, len(tex.Pixels))
			}
			// Pixel (1, 2) is R=40, G=80, B=200.
			off := (2*4 + 1) * 4
			if got := tex.Pixels[off : off+4]; got[0] != 40 || got[1] != 80 || got[2] != 200 || got[3] != 255 {
				t.Errorf("pixel (1,2) = %v", got)
			}
		})
	}
}

func TestLoadTextureFitsMaxSize(t *testing.T) {
	dir := t.TempDir()
	tex, err := NewLoader(WithMaxTextureSize(2)).LoadTexture(writeImage(t, dir, "big.png"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if tex.Width > 2 || tex.Height > 2 {
		t.Fatalf("texture %dx%d exceeds 2x2", tex.Width, tex.Height)
	}
}

func TestLoadBatch(t *testing.T) {
	dir := t.TempDir()
	objPath := filepath.Join(dir, "quad.obj")
	if err := os.WriteFile(objPath, []byte(quadOBJ), 0o644); err != nil {
		t.Fatal(err)
	}
	texPath := writeImage(t, dir, "tex.png")

	l := NewLoader(WithWorkers(2))
	assets, err := l.LoadBatch(
		Request{Path: objPath},
		Request{Path: texPath},
		Request{Path: filepath.Join(dir, "missing.png")},
	)
	if err == nil {
		t.Fatal("expected the missing texture to fail the batch")
	}
	if len(assets) != 3 {
		t.Fatalf("got %d assets, want 3", len(assets))
	}
	if assets[0].Model == nil || assets[0].Texture != nil {
		t.Errorf("asset 0 = %+v, want a model", assets[0])
	}
	if assets[1].Texture == nil || assets[1].Texture.Width != 4 {
		t.Errorf("asset 1 = %+v, want a 4x3 texture", assets[1])
	}
	if assets[2].Model != nil || assets[2].Texture != nil {
		t.Errorf("failed asset 2 carries data: %+v", assets[2])
	}
}

func TestCheckerboard(t *testing.T) {
	tex := Checkerboard(4, 2, [4]byte{255, 255, 255, 255}, [4]byte{0, 0, 0, 255})
	if tex.Width != 4 || len(tex.Pixels) != 64 {
		t.Fatalf("got %dx%d with %d bytes", tex.Width, tex.Height, len(tex.Pixels))
	}
	if tex.Pixels[0] != 255 || tex.Pixels[2*4] != 0 {
		t.Errorf("unexpected cell pattern %v", tex.Pixels[:16])
	}
}
