package postfx

import "github.com/Carmen-Shannon/oxy-dither/engine/dither"

// ParamsBuilderOption is a functional option for configuring Params via NewParams.
type ParamsBuilderOption func(*Params)

// WithAlgorithm sets the starting algorithm. Invalid values are ignored.
//
// Parameters:
//   - a: the algorithm
//
// Returns:
//   - ParamsBuilderOption: a function that sets the algorithm
func WithAlgorithm(a dither.Algorithm) ParamsBuilderOption {
	return func(p *Params) {
		if a.Valid() {
			p.algorithm = a
		}
	}
}

// WithMatrixSize sets the starting dither matrix size. Invalid values are ignored.
//
// Parameters:
//   - m: one of 2, 4, 8
//
// Returns:
//   - ParamsBuilderOption: a function that sets the matrix size
func WithMatrixSize(m dither.MatrixSize) ParamsBuilderOption {
	return func(p *Params) {
		if m.Valid() {
			p.matrixSize = m
		}
	}
}

// WithPreset starts on the given palette preset, modulo the catalog size.
//
// Parameters:
//   - i: the preset index
//
// Returns:
//   - ParamsBuilderOption: a function that selects the preset
func WithPreset(i int) ParamsBuilderOption {
	return func(p *Params) {
		i %= PresetCount
		if i < 0 {
			i += PresetCount
		}
		p.selectPreset(i)
	}
}

// WithGrid shows the debug grid from the first frame.
func WithGrid(enabled bool) ParamsBuilderOption {
	return func(p *Params) {
		p.grid = enabled
	}
}
