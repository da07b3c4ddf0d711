package shader

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// wgslVertexFormatMap maps WGSL vertex attribute types to vertex formats and byte sizes.
var wgslVertexFormatMap = map[string]vertexFormatInfo{
	"f32":       {VertexFloat32, 4},
	"vec2f":     {VertexFloat32x2, 8},
	"vec2<f32>": {VertexFloat32x2, 8},
	"vec3f":     {VertexFloat32x3, 12},
	"vec3<f32>": {VertexFloat32x3, 12},
	"vec4f":     {VertexFloat32x4, 16},
	"vec4<f32>": {VertexFloat32x4, 16},
	"i32":       {VertexSint32, 4},
	"vec2i":     {VertexSint32x2, 8},
	"vec2<i32>": {VertexSint32x2, 8},
	"vec3i":     {VertexSint32x3, 12},
	"vec3<i32>": {VertexSint32x3, 12},
	"vec4i":     {VertexSint32x4, 16},
	"vec4<i32>": {VertexSint32x4, 16},
	"u32":       {VertexUint32, 4},
	"vec2u":     {VertexUint32x2, 8},
	"vec2<u32>": {VertexUint32x2, 8},
	"vec3u":     {VertexUint32x3, 12},
	"vec3<u32>": {VertexUint32x3, 12},
	"vec4u":     {VertexUint32x4, 16},
	"vec4<u32>": {VertexUint32x4, 16},
}

// wgslTextureDimensionMap maps WGSL texture type names to their view dimension and multisampling.
var wgslTextureDimensionMap = map[string]struct {
	dimension    ViewDimension
	multisampled bool
}{
	"texture_1d":                    {Dimension1D, false},
	"texture_2d":                    {Dimension2D, false},
	"texture_2d_array":              {Dimension2DArray, false},
	"texture_3d":                    {Dimension3D, false},
	"texture_cube":                  {DimensionCube, false},
	"texture_cube_array":            {DimensionCubeArray, false},
	"texture_multisampled_2d":       {Dimension2D, true},
	"texture_depth_2d":              {Dimension2D, false},
	"texture_depth_2d_array":        {Dimension2DArray, false},
	"texture_depth_cube":            {DimensionCube, false},
	"texture_depth_cube_array":      {DimensionCubeArray, false},
	"texture_depth_multisampled_2d": {Dimension2D, true},
}

var wgslSampleTypeMap = map[string]SampleType{
	"f32": SampleFloat,
	"i32": SampleSint,
	"u32": SampleUint,
}

var (
	// structBlockRegex matches WGSL struct declarations and captures the name and body.
	structBlockRegex = regexp.MustCompile(`struct\s+(\w+)\s*\{([^}]*)\}`)

	// locationRegex extracts the location index from @location(N).
	locationRegex = regexp.MustCompile(`@location\((\d+)\)`)

	// builtinRegex detects @builtin(...) attributes on struct fields.
	builtinRegex = regexp.MustCompile(`@builtin\(\w+\)`)

	// fieldRegex captures the name and type of a struct field after its attributes.
	fieldRegex = regexp.MustCompile(`(?:(?:@\w+\([^)]*\)\s*)*)*\s*(\w+)\s*:\s*(.+)`)

	// vertexEntryRegex captures the name of every @vertex function.
	vertexEntryRegex = regexp.MustCompile(`@vertex\s+fn\s+(\w+)`)

	// fragmentEntryRegex captures the name of every @fragment function.
	fragmentEntryRegex = regexp.MustCompile(`@fragment\s+fn\s+(\w+)`)

	// bindGroupDeclRegex captures group, binding, address space, name and type of a resource variable.
	bindGroupDeclRegex = regexp.MustCompile(`@group\((\d+)\)\s*@binding\((\d+)\)\s*var(?:<([^>]*)>)?\s+(\w+)\s*:\s*([^;]+?)\s*;`)
)

// parseEntryPoints returns every entry point of the given stage in source order.
//
// Parameters:
//   - source: the pre-processed WGSL source
//   - shaderType: the stage to look for
//
// Returns:
//   - []string: the entry point names
func parseEntryPoints(source string, shaderType ShaderType) []string {
	var re *regexp.Regexp
	switch shaderType {
	case ShaderTypeVertex:
		re = vertexEntryRegex
	case ShaderTypeFragment:
		re = fragmentEntryRegex
	default:
		return nil
	}

	var names []string
	for _, m := range re.FindAllStringSubmatch(stripComments(source), -1) {
		names = append(names, m[1])
	}
	return names
}

// parseVertexLayout builds the vertex buffer layout consumed by a vertex entry point.
// The struct is the type of the entry point's first parameter. When that cannot be
// resolved the first pure vertex input struct in the source is used.
//
// Parameters:
//   - source: the pre-processed WGSL source
//   - entryPoint: the vertex entry point
//
// Returns:
//   - VertexLayout: the layout
//   - bool: false if the shader declares no usable vertex input struct
func parseVertexLayout(source, entryPoint string) (VertexLayout, bool) {
	cleaned := stripComments(source)
	structs := parseStructBlocks(cleaned)

	wanted := ""
	if entryPoint != "" {
		paramRegex := regexp.MustCompile(`fn\s+` + regexp.QuoteMeta(entryPoint) + `\s*\(\s*\w+\s*:\s*(\w+)`)
		if m := paramRegex.FindStringSubmatch(cleaned); m != nil {
			wanted = m[1]
		}
	}

	for _, ps := range structs {
		if wanted != "" && ps.name != wanted {
			continue
		}
		if !isVertexInputStruct(ps) {
			continue
		}
		if layout, ok := buildVertexLayout(ps); ok {
			return layout, true
		}
	}
	return VertexLayout{}, false
}

// parseBindings reflects every @group/@binding resource variable in source,
// sorted by group then binding. Buffer bindings carry the byte size of their struct.
//
// Parameters:
//   - source: the pre-processed WGSL source
//
// Returns:
//   - []Binding: the reflected bindings
func parseBindings(source string) []Binding {
	cleaned := stripComments(source)
	structSizes := computeStructSizes(parseStructBlocks(cleaned))

	var bindings []Binding
	for _, match := range bindGroupDeclRegex.FindAllStringSubmatch(cleaned, -1) {
		group, _ := strconv.Atoi(match[1])
		binding, _ := strconv.Atoi(match[2])
		addressSpace := strings.TrimSpace(match[3])
		typeName := strings.TrimSpace(match[5])

		b := classifyResource(addressSpace, typeName)
		b.Group = group
		b.Binding = binding
		b.Name = strings.TrimSpace(match[4])
		if b.IsBuffer() {
			if layout, ok := resolveTypeLayout(typeName, structSizes); ok {
				b.MinSize = layout.size
			}
		}
		bindings = append(bindings, b)
	}

	sort.Slice(bindings, func(i, j int) bool {
		if bindings[i].Group != bindings[j].Group {
			return bindings[i].Group < bindings[j].Group
		}
		return bindings[i].Binding < bindings[j].Binding
	})
	return bindings
}

// parseStructBlocks extracts all struct definitions from WGSL source.
func parseStructBlocks(source string) []parsedStruct {
	matches := structBlockRegex.FindAllStringSubmatch(source, -1)
	structs := make([]parsedStruct, 0, len(matches))
	for _, match := range matches {
		structs = append(structs, parsedStruct{
			name:   match[1],
			fields: parseStructFields(match[2]),
		})
	}
	return structs
}

// parseStructFields parses the body of a WGSL struct into fields, recording
// @location indices and @builtin markers.
func parseStructFields(body string) []parsedField {
	lines := splitAtTopLevelCommas(body)
	fields := make([]parsedField, 0, len(lines))

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		field := parsedField{location: -1}
		field.isBuiltin = builtinRegex.MatchString(line)
		if locMatch := locationRegex.FindStringSubmatch(line); locMatch != nil {
			if loc, err := strconv.Atoi(locMatch[1]); err == nil {
				field.location = loc
			}
		}

		fm := fieldRegex.FindStringSubmatch(line)
		if fm == nil {
			continue
		}
		field.name = fm[1]
		field.typeName = strings.TrimSpace(fm[2])
		fields = append(fields, field)
	}
	return fields
}
