package grid

import (
	"errors"
	"fmt"
	"iter"
	"math"
	"math/bits"
	"strings"
)

// MaxCells is the largest number of cells a BitMatrix can hold.
const MaxCells = 64

var (
	// ErrInvalidDimensions is returned when a matrix would be empty or hold
	// more than MaxCells cells.
	ErrInvalidDimensions = errors.New("invalid matrix dimensions")
	// ErrOutOfRange is returned when a cell lies outside the matrix.
	ErrOutOfRange = errors.New("cell out of range")
)

// BitMatrix is an immutable width x height grid of booleans packed into a
// uint64. Cell (x, y) lives at bit y*width+x. Bits past width*height are
// always zero, so two matrices are equal under == exactly when they have the
// same dimensions and cells.
type BitMatrix struct {
	width  uint8
	height uint8
	bits   uint64
}

// NewBitMatrix builds a matrix from packed bits. Bits beyond width*height are
// dropped.
func NewBitMatrix(width, height uint8, packed uint64) (BitMatrix, error) {
	area := int(width) * int(height)
	if width == 0 || height == 0 || area > MaxCells {
		return BitMatrix{}, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	return BitMatrix{width: width, height: height, bits: packed & areaMask(area)}, nil
}

// MustBitMatrix is NewBitMatrix for static shapes; it panics on bad dimensions.
func MustBitMatrix(width, height uint8, packed uint64) BitMatrix {
	m, err := NewBitMatrix(width, height, packed)
	if err != nil {
		panic(err)
	}
	return m
}

// FromRows builds a matrix from row-major cells. All rows must share one
// non-zero length.
func FromRows(rows [][]bool) (BitMatrix, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return BitMatrix{}, fmt.Errorf("%w: empty rows", ErrInvalidDimensions)
	}
	width := len(rows[0])
	if width*len(rows) > MaxCells {
		return BitMatrix{}, fmt.Errorf("%w: %dx%d exceeds %d cells", ErrInvalidDimensions, width, len(rows), MaxCells)
	}
	var packed uint64
	for y, row := range rows {
		if len(row) != width {
			return BitMatrix{}, fmt.Errorf("%w: row %d has %d cells, want %d", ErrInvalidDimensions, y, len(row), width)
		}
		for x, filled := range row {
			if filled {
				packed |= 1 << (y*width + x)
			}
		}
	}
	return NewBitMatrix(uint8(width), uint8(len(rows)), packed)
}

// Width returns the number of columns.
func (m BitMatrix) Width() uint8 { return m.width }

// Height returns the number of rows.
func (m BitMatrix) Height() uint8 { return m.height }

// Bits returns the packed representation.
func (m BitMatrix) Bits() uint64 { return m.bits }

// Area returns width*height.
func (m BitMatrix) Area() int { return int(m.width) * int(m.height) }

// Count returns the number of filled cells.
func (m BitMatrix) Count() int { return bits.OnesCount64(m.bits) }

// IsZero reports whether m is the zero value, which has no cells.
func (m BitMatrix) IsZero() bool { return m.width == 0 || m.height == 0 }

// At reports whether cell (x, y) is filled.
func (m BitMatrix) At(x, y uint8) (bool, error) {
	if x >= m.width || y >= m.height {
		return false, fmt.Errorf("%w: (%d,%d) in %dx%d", ErrOutOfRange, x, y, m.width, m.height)
	}
	return m.bits&(1<<(int(y)*int(m.width)+int(x))) != 0, nil
}

// Filled is At without the error; cells outside the matrix are empty.
func (m BitMatrix) Filled(x, y uint8) bool {
	ok, err := m.At(x, y)
	return err == nil && ok
}

// FilledCells yields the filled cells in ascending bit order. Each call
// starts a fresh walk over the packed bits.
func (m BitMatrix) FilledCells() iter.Seq[Coords] {
	return func(yield func(Coords) bool) {
		w := int(m.width)
		for b := m.bits; b != 0; b &= b - 1 {
			i := bits.TrailingZeros64(b)
			if !yield(Coords{X: uint8(i % w), Y: uint8(i / w)}) {
				return
			}
		}
	}
}

// Rotate returns m turned clockwise by the given orientation.
func (m BitMatrix) Rotate(o Orientation) BitMatrix {
	switch o {
	case OrientationRight:
		return m.Rotate90()
	case OrientationBottom:
		return m.Rotate180()
	case OrientationLeft:
		return m.Rotate270()
	default:
		return m
	}
}

// Rotate90 turns m a quarter clockwise: (x, y) moves to (h-1-y, x) and the
// dimensions swap.
func (m BitMatrix) Rotate90() BitMatrix {
	w, h := int(m.width), int(m.height)
	var out uint64
	for b := m.bits; b != 0; b &= b - 1 {
		i := bits.TrailingZeros64(b)
		x, y := i%w, i/w
		out |= 1 << (x*h + (h - 1 - y))
	}
	return BitMatrix{width: m.height, height: m.width, bits: out}
}

// Rotate180 turns m half a turn, which reverses the order of the cells.
func (m BitMatrix) Rotate180() BitMatrix {
	area := m.Area()
	if area == 0 {
		return m
	}
	return BitMatrix{width: m.width, height: m.height, bits: bits.Reverse64(m.bits) >> (64 - area)}
}

// Rotate270 turns m a quarter counter-clockwise: (x, y) moves to (y, w-1-x).
func (m BitMatrix) Rotate270() BitMatrix {
	w, h := int(m.width), int(m.height)
	var out uint64
	for b := m.bits; b != 0; b &= b - 1 {
		i := bits.TrailingZeros64(b)
		x, y := i%w, i/w
		out |= 1 << ((w-1-x)*h + y)
	}
	return BitMatrix{width: m.height, height: m.width, bits: out}
}

// String renders the matrix one row per line with '#' for filled cells.
func (m BitMatrix) String() string {
	var sb strings.Builder
	for y := range m.height {
		if y > 0 {
			sb.WriteByte('\n')
		}
		for x := range m.width {
			if m.Filled(x, y) {
				sb.WriteByte('#')
			} else {
				sb.WriteByte('.')
			}
		}
	}
	return sb.String()
}

// RowMask returns a mask with the low width bits set.
func RowMask(width int) uint64 {
	if width >= 64 {
		return math.MaxUint64
	}
	return 1<<width - 1
}

func areaMask(area int) uint64 {
	return RowMask(area)
}

func (m BitMatrix) row(y int) uint64 {
	return m.bits >> (y * int(m.width)) & RowMask(int(m.width))
}
