// Package dither defines the post-effect dithering algorithms: their names,
// the pixel-stage entry points they compile to, the Bayer threshold tables,
// and a CPU reference that produces the same output as the shaders.
package dither

import (
	"fmt"
	"strings"
)

const (
	// EntryPointPrefix is prepended to an algorithm's name to form its pixel-stage entry point.
	EntryPointPrefix = "PS_PostEffect_"
	// VertexEntryPoint is the vertex stage shared by every algorithm.
	VertexEntryPoint = "VS_PostEffect"
)

// Algorithm selects one post-effect variant. Exactly one is active at a time.
type Algorithm int

const (
	// AlgorithmNone passes the scene colour through unchanged.
	AlgorithmNone Algorithm = iota
	// AlgorithmBayer is ordered dithering against a Bayer threshold matrix.
	AlgorithmBayer
	// AlgorithmRandomBayer offsets the Bayer lookup per matrix cell with a per-frame hash.
	AlgorithmRandomBayer
	// AlgorithmDotBayer blends the Bayer threshold with a clustered dot pattern.
	AlgorithmDotBayer

	algorithmCount
)

var algorithmNames = [algorithmCount]string{
	AlgorithmNone:        "None",
	AlgorithmBayer:       "Bayer_Dither",
	AlgorithmRandomBayer: "Random_Bayer_Dither",
	AlgorithmDotBayer:    "Dot_Bayer_Dither",
}

var algorithmLabels = [algorithmCount]string{
	AlgorithmNone:        "Passthrough",
	AlgorithmBayer:       "Ordered Bayer",
	AlgorithmRandomBayer: "Randomized Bayer",
	AlgorithmDotBayer:    "Dot Pattern Bayer",
}

// Algorithms returns every variant in cycling order.
func Algorithms() []Algorithm {
	return []Algorithm{AlgorithmNone, AlgorithmBayer, AlgorithmRandomBayer, AlgorithmDotBayer}
}

// Valid reports whether a names a known variant.
func (a Algorithm) Valid() bool {
	return a >= 0 && a < algorithmCount
}

// Name returns the variant name used to build the entry point, e.g. "Bayer_Dither".
func (a Algorithm) Name() string {
	if !a.Valid() {
		return fmt.Sprintf("Algorithm(%d)", int(a))
	}
	return algorithmNames[a]
}

// EntryPoint returns the pixel-stage entry point implementing the variant.
//
// Returns:
//   - string: EntryPointPrefix followed by the variant name
func (a Algorithm) EntryPoint() string {
	return EntryPointPrefix + a.Name()
}

// String returns a human readable label.
func (a Algorithm) String() string {
	if !a.Valid() {
		return a.Name()
	}
	return algorithmLabels[a]
}

// Next returns the following variant, wrapping after the last one.
func (a Algorithm) Next() Algorithm {
	return (a + 1) % algorithmCount
}

// UsesMatrix reports whether the variant reads the dither matrix size.
func (a Algorithm) UsesMatrix() bool {
	return a != AlgorithmNone
}

// ParseAlgorithm resolves a variant from its name, its label or a short alias
// ("none", "bayer", "random", "dot"). Matching is case-insensitive.
//
// Parameters:
//   - s: the text to parse
//
// Returns:
//   - Algorithm: the matched variant
//   - error: if nothing matches
func ParseAlgorithm(s string) (Algorithm, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	aliases := map[string]Algorithm{
		"none":        AlgorithmNone,
		"passthrough": AlgorithmNone,
		"bayer":       AlgorithmBayer,
		"ordered":     AlgorithmBayer,
		"random":      AlgorithmRandomBayer,
		"dot":         AlgorithmDotBayer,
	}
	if a, ok := aliases[key]; ok {
		return a, nil
	}
	for _, a := range Algorithms() {
		if key == strings.ToLower(a.Name()) || key == strings.ToLower(a.String()) {
			return a, nil
		}
	}
	return AlgorithmNone, fmt.Errorf("unknown dither algorithm %q", s)
}
