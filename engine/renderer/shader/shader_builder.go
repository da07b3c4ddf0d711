package shader

// ShaderBuilderOption is a functional option used to configure a Shader during construction.
type ShaderBuilderOption func(*shader)

// WithEntryPoint selects the entry point the shader is built for. Construction fails
// with ErrEntryPointNotFound when the source does not declare it for the shader's stage.
//
// Parameters:
//   - name: the entry point name, e.g. "PS_PostEffect_Bayer_Dither"
//
// Returns:
//   - ShaderBuilderOption: a function that sets the entry point
func WithEntryPoint(name string) ShaderBuilderOption {
	return func(s *shader) {
		s.entryPoint = name
	}
}
