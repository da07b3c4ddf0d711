package dither

import (
	"fmt"
	"math/bits"
)

// MatrixSize is the edge length of the Bayer threshold matrix.
type MatrixSize uint32

const (
	Matrix2 MatrixSize = 2
	Matrix4 MatrixSize = 4
	Matrix8 MatrixSize = 8
)

// Valid reports whether m is one of 2, 4 or 8.
func (m MatrixSize) Valid() bool {
	return m == Matrix2 || m == Matrix4 || m == Matrix8
}

// Next cycles 2 -> 4 -> 8 -> 2. Invalid sizes restart at 2.
func (m MatrixSize) Next() MatrixSize {
	switch m {
	case Matrix2:
		return Matrix4
	case Matrix4:
		return Matrix8
	default:
		return Matrix2
	}
}

// Squared returns the number of cells in the matrix.
func (m MatrixSize) Squared() uint32 {
	return uint32(m) * uint32(m)
}

// ParseMatrixSize validates an integer matrix size.
func ParseMatrixSize(n int) (MatrixSize, error) {
	m := MatrixSize(n)
	if n < 0 || !m.Valid() {
		return Matrix2, fmt.Errorf("matrix size %d is not one of 2, 4, 8", n)
	}
	return m, nil
}

// BayerIndex returns the Bayer matrix entry at (x, y) for an n×n matrix, in
// the range [0, n²). Coordinates wrap modulo n. The value interleaves the
// bit-reversed bits of x^y and y, which yields the recursive Bayer pattern
// without a lookup table; the post-effect shader uses the same formula.
//
// Parameters:
//   - n: the matrix size
//   - x, y: pixel coordinates
//
// Returns:
//   - uint32: the matrix entry
func BayerIndex(n MatrixSize, x, y uint32) uint32 {
	k := uint32(bits.TrailingZeros32(uint32(n)))
	x %= uint32(n)
	y %= uint32(n)
	xy := x ^ y
	var v uint32
	for i := uint32(0); i < k; i++ {
		shift := 2 * (k - 1 - i)
		v |= ((xy >> i) & 1) << (shift + 1)
		v |= ((y >> i) & 1) << shift
	}
	return v
}

// Threshold returns the normalised threshold (index + 0.5) / n² at (x, y).
func Threshold(n MatrixSize, x, y uint32) float32 {
	return (float32(BayerIndex(n, x, y)) + 0.5) / float32(n.Squared())
}

// Matrix returns the full n×n table, indexed [y][x].
func Matrix(n MatrixSize) [][]uint32 {
	rows := make([][]uint32, n)
	for y := range rows {
		rows[y] = make([]uint32, n)
		for x := range rows[y] {
			rows[y][x] = BayerIndex(n, uint32(x), uint32(y))
		}
	}
	return rows
}
