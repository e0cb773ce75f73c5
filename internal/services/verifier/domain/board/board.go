// Package board tracks which cells of the play area are filled and which
// pieces have been placed on it.
package board

import (
	"errors"
	"fmt"
	"math/bits"

	"github.com/louisbranch/renovation-rumble/internal/services/verifier/domain/catalog"
	"github.com/louisbranch/renovation-rumble/internal/services/verifier/domain/grid"
)

// NoIgnore disables the self-exclusion in CollidesWithFilled.
const NoIgnore = -1

var (
	// ErrInvalidSize is returned for a board with a zero dimension.
	ErrInvalidSize = errors.New("board dimensions must be positive")
	// ErrPieceIndexOutOfRange is returned for an unknown board index.
	ErrPieceIndexOutOfRange = errors.New("piece index out of range")
)

// PlacedPiece is a piece at a board position. Contents are the catalog shape
// rotated to Orientation and then resized by any grow or shrink commands.
type PlacedPiece struct {
	Piece       catalog.Piece
	Origin      grid.Coords
	Orientation grid.Orientation
	Contents    grid.BitMatrix
}

// Covers reports whether the absolute board cell c is part of p's footprint.
func (p PlacedPiece) Covers(c grid.Coords) bool {
	if c.X < p.Origin.X || c.Y < p.Origin.Y {
		return false
	}
	return p.Contents.Filled(c.X-p.Origin.X, c.Y-p.Origin.Y)
}

// Board is the mutable play area. The fill map always equals the union of
// the placed pieces' footprints once a command has finished applying.
type Board struct {
	width  uint8
	height uint8
	fill   []uint64
	filled int
	pieces []PlacedPiece
}

// New returns an empty board.
func New(width, height uint8) (*Board, error) {
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	cells := int(width) * int(height)
	return &Board{
		width:  width,
		height: height,
		fill:   make([]uint64, (cells+63)/64),
	}, nil
}

// Size returns the board dimensions as (width, height).
func (b *Board) Size() grid.Coords {
	return grid.Pos(b.width, b.height)
}

// CellCount returns width*height.
func (b *Board) CellCount() int {
	return int(b.width) * int(b.height)
}

// FilledCount returns the number of filled cells.
func (b *Board) FilledCount() int {
	return b.filled
}

// PieceCount returns the number of placed pieces.
func (b *Board) PieceCount() int {
	return len(b.pieces)
}

// IsWithinBounds reports whether c lies on the board.
func (b *Board) IsWithinBounds(c grid.Coords) bool {
	return c.X < b.width && c.Y < b.height
}

// IsFilled reports whether c is filled. Cells off the board are not filled.
func (b *Board) IsFilled(c grid.Coords) bool {
	if !b.IsWithinBounds(c) {
		return false
	}
	i := b.index(c)
	return b.fill[i/64]&(1<<(i%64)) != 0
}

// CollidesWithFilled reports whether placing m at origin would leave the
// board or overlap a filled cell. Filled cells that belong to the piece at
// index ignore are skipped; pass NoIgnore to consider every piece.
func (b *Board) CollidesWithFilled(m grid.BitMatrix, origin grid.Coords, ignore int) bool {
	self, hasSelf := b.LookupPlacedPiece(ignore)
	for cell := range m.FilledCells() {
		c, ok := origin.Offset(int(cell.X), int(cell.Y))
		if !ok || !b.IsWithinBounds(c) {
			return true
		}
		if !b.IsFilled(c) {
			continue
		}
		if hasSelf && self.Covers(c) {
			continue
		}
		return true
	}
	return false
}

// LookupPlacedPiece returns the piece at index i.
func (b *Board) LookupPlacedPiece(i int) (PlacedPiece, bool) {
	if i < 0 || i >= len(b.pieces) {
		return PlacedPiece{}, false
	}
	return b.pieces[i], true
}

// PlacedPiece returns the piece at index i or ErrPieceIndexOutOfRange.
func (b *Board) PlacedPiece(i int) (PlacedPiece, error) {
	p, ok := b.LookupPlacedPiece(i)
	if !ok {
		return PlacedPiece{}, fmt.Errorf("%w: %d of %d", ErrPieceIndexOutOfRange, i, len(b.pieces))
	}
	return p, nil
}

// Fill sets every cell of m's footprint at origin to value. Cells off the
// board are ignored. No collision checks are made.
func (b *Board) Fill(m grid.BitMatrix, origin grid.Coords, value bool) {
	for cell := range m.FilledCells() {
		c, ok := origin.Offset(int(cell.X), int(cell.Y))
		if !ok || !b.IsWithinBounds(c) {
			continue
		}
		b.set(c, value)
	}
}

// AddPiece appends p and returns its board index.
func (b *Board) AddPiece(p PlacedPiece) int {
	b.pieces = append(b.pieces, p)
	return len(b.pieces) - 1
}

// ReplacePiece overwrites the piece at index i. The fill map is untouched.
func (b *Board) ReplacePiece(i int, p PlacedPiece) error {
	if i < 0 || i >= len(b.pieces) {
		return fmt.Errorf("%w: %d of %d", ErrPieceIndexOutOfRange, i, len(b.pieces))
	}
	b.pieces[i] = p
	return nil
}

// Rows renders the fill map, '#' for filled and '.' for empty.
func (b *Board) Rows() []string {
	rows := make([]string, b.height)
	buf := make([]byte, b.width)
	for y := range b.height {
		for x := range b.width {
			buf[x] = '.'
			if b.IsFilled(grid.Pos(x, y)) {
				buf[x] = '#'
			}
		}
		rows[y] = string(buf)
	}
	return rows
}

func (b *Board) index(c grid.Coords) int {
	return int(c.Y)*int(b.width) + int(c.X)
}

func (b *Board) set(c grid.Coords, value bool) {
	i := b.index(c)
	word, mask := i/64, uint64(1)<<(i%64)
	before := bits.OnesCount64(b.fill[word])
	if value {
		b.fill[word] |= mask
	} else {
		b.fill[word] &^= mask
	}
	b.filled += bits.OnesCount64(b.fill[word]) - before
}
