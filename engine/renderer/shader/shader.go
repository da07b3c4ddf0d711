package shader

import (
	"errors"
	"fmt"
	"os"
	"slices"
)

// ShaderType identifies the pipeline stage a shader is used for.
type ShaderType int

const (
	// ShaderTypeVertex is the vertex shader type, used for vertex processing in render pipelines.
	ShaderTypeVertex ShaderType = iota

	// ShaderTypeFragment is the fragment shader type, used for fragment processing in pair with a vertex shader.
	ShaderTypeFragment
)

func (t ShaderType) String() string {
	switch t {
	case ShaderTypeVertex:
		return "vertex"
	case ShaderTypeFragment:
		return "fragment"
	default:
		return fmt.Sprintf("ShaderType(%d)", int(t))
	}
}

// ErrEntryPointNotFound is returned when a requested entry point is not declared for the shader's stage.
var ErrEntryPointNotFound = errors.New("shader: entry point not found")

// shader is the implementation of the Shader interface.
type shader struct {
	key          string
	source       string
	shaderType   ShaderType
	entryPoint   string
	entryPoints  []string
	bindings     []Binding
	vertexLayout *VertexLayout
	declarations []Annotation
}

// Shader is a pre-processed, reflected WGSL module bound to one stage and one entry point.
// Several Shaders may share the same source and differ only in their entry point.
type Shader interface {
	// Key retrieves the unique identifier for this shader, used for caching and lookups.
	//
	// Returns:
	//   - string: the shader's unique key
	Key() string

	// Source retrieves the pre-processed WGSL source code.
	//
	// Returns:
	//   - string: the WGSL source code of the shader
	Source() string

	// ShaderType returns the stage this shader is used for.
	//
	// Returns:
	//   - ShaderType: ShaderTypeVertex or ShaderTypeFragment
	ShaderType() ShaderType

	// EntryPoint returns the entry point this shader was built for.
	//
	// Returns:
	//   - string: the entry point name (e.g. "VS_Mesh")
	EntryPoint() string

	// EntryPoints returns every entry point of this shader's stage declared in the source.
	//
	// Returns:
	//   - []string: the entry point names in source order
	EntryPoints() []string

	// Bindings returns all resource bindings declared in the source, sorted by group then binding.
	//
	// Returns:
	//   - []Binding: the reflected bindings
	Bindings() []Binding

	// VertexLayout returns the vertex buffer layout read by a vertex entry point.
	//
	// Returns:
	//   - VertexLayout: the layout
	//   - bool: false for fragment shaders or vertex shaders without vertex inputs
	VertexLayout() (VertexLayout, bool)

	// Declarations returns the @oxy:group annotations the pre-processor expanded.
	//
	// Returns:
	//   - []Annotation: the declarations in source order
	Declarations() []Annotation
}

var _ Shader = &shader{}

// NewShader reads WGSL from sourcePath and builds a Shader from it.
//
// Parameters:
//   - key: a unique identifier for the shader
//   - shaderType: the stage the shader is used for
//   - sourcePath: the file path to read WGSL source from
//   - options: functional options such as WithEntryPoint
//
// Returns:
//   - Shader: the parsed shader
//   - error: if the file cannot be read or the source is invalid
func NewShader(key string, shaderType ShaderType, sourcePath string, options ...ShaderBuilderOption) (Shader, error) {
	if sourcePath == "" {
		return nil, fmt.Errorf("shader %s: empty source path", key)
	}
	data, err := os.ReadFile(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("shader %s: %w", key, err)
	}
	return NewShaderFromSource(key, shaderType, string(data), options...)
}

// NewShaderFromSource pre-processes and reflects WGSL source. Without WithEntryPoint
// the first entry point of the stage is used.
//
// Parameters:
//   - key: a unique identifier for the shader
//   - shaderType: the stage the shader is used for
//   - source: raw WGSL source, possibly containing @oxy: annotations
//   - options: functional options such as WithEntryPoint
//
// Returns:
//   - Shader: the parsed shader
//   - error: if pre-processing fails or the entry point does not exist (ErrEntryPointNotFound)
func NewShaderFromSource(key string, shaderType ShaderType, source string, options ...ShaderBuilderOption) (Shader, error) {
	s := &shader{
		key:        key,
		shaderType: shaderType,
	}
	for _, option := range options {
		option(s)
	}

	pp := NewPreProcessor()
	processed, err := pp.Process(source)
	if err != nil {
		return nil, fmt.Errorf("shader %s: %w", key, err)
	}
	s.source = processed
	s.declarations = slices.Clone(pp.Declarations())
	s.entryPoints = parseEntryPoints(processed, shaderType)

	switch {
	case len(s.entryPoints) == 0:
		return nil, fmt.Errorf("shader %s: no %s entry point: %w", key, shaderType, ErrEntryPointNotFound)
	case s.entryPoint == "":
		s.entryPoint = s.entryPoints[0]
	case !slices.Contains(s.entryPoints, s.entryPoint):
		return nil, fmt.Errorf("shader %s: %s entry point %q: %w", key, shaderType, s.entryPoint, ErrEntryPointNotFound)
	}

	s.bindings = parseBindings(processed)
	if shaderType == ShaderTypeVertex {
		if layout, ok := parseVertexLayout(processed, s.entryPoint); ok {
			s.vertexLayout = &layout
		}
	}
	return s, nil
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) ShaderType() ShaderType {
	return s.shaderType
}

func (s *shader) EntryPoint() string {
	return s.entryPoint
}

func (s *shader) EntryPoints() []string {
	return slices.Clone(s.entryPoints)
}

func (s *shader) Bindings() []Binding {
	return slices.Clone(s.bindings)
}

func (s *shader) VertexLayout() (VertexLayout, bool) {
	if s.vertexLayout == nil {
		return VertexLayout{}, false
	}
	return *s.vertexLayout, true
}

func (s *shader) Declarations() []Annotation {
	return s.declarations
}
