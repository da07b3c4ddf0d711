package wgpu_backend

// BackendBuilderOption is a functional option applied to the backend during construction via New.
type BackendBuilderOption func(*backend)

// WithForceFallbackAdapter requests the software fallback adapter.
//
// Parameters:
//   - force: true to force the fallback adapter
//
// Returns:
//   - BackendBuilderOption: a function that applies the option
func WithForceFallbackAdapter(force bool) BackendBuilderOption {
	return func(b *backend) {
		b.forceFallbackAdapter = force
	}
}

// WithUniformRingSlots sets how many writes each uniform buffer accepts per frame. Every write
// occupies one 256-byte aligned slot; the default is 256.
//
// Parameters:
//   - slots: the number of slots per uniform buffer
//
// Returns:
//   - BackendBuilderOption: a function that applies the option
func WithUniformRingSlots(slots int) BackendBuilderOption {
	return func(b *backend) {
		if slots > 0 {
			b.ringSlots = uint64(slots)
		}
	}
}
