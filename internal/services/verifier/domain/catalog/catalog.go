// Package catalog holds the immutable piece definitions a match draws from.
package catalog

import (
	"errors"
	"fmt"
	"slices"

	"github.com/louisbranch/renovation-rumble/internal/services/verifier/domain/grid"
)

var (
	// ErrPieceNotFound is returned when a piece id is not in the catalog.
	ErrPieceNotFound = errors.New("piece not found")
	// ErrDuplicatePiece is returned when two pieces share an id.
	ErrDuplicatePiece = errors.New("duplicate piece id")
	// ErrEmptyContents is returned when a piece has no shape.
	ErrEmptyContents = errors.New("piece contents are empty")
)

// Piece is a shape definition in its canonical orientation.
type Piece struct {
	ID       uint16
	StyleID  uint16
	Contents grid.BitMatrix
}

// Catalog is a read-only set of pieces indexed by id. It is safe for
// concurrent use once built.
type Catalog struct {
	version   int
	pieces    map[uint16]Piece
	order     []uint16
	rotations *RotationCache
}

// New validates pieces and builds a catalog.
func New(version int, pieces []Piece) (*Catalog, error) {
	c := &Catalog{
		version:   version,
		pieces:    make(map[uint16]Piece, len(pieces)),
		order:     make([]uint16, 0, len(pieces)),
		rotations: NewRotationCache(),
	}
	for _, p := range pieces {
		if p.Contents.IsZero() {
			return nil, fmt.Errorf("piece %d: %w", p.ID, ErrEmptyContents)
		}
		if _, exists := c.pieces[p.ID]; exists {
			return nil, fmt.Errorf("piece %d: %w", p.ID, ErrDuplicatePiece)
		}
		c.pieces[p.ID] = p
		c.order = append(c.order, p.ID)
	}
	slices.Sort(c.order)
	return c, nil
}

// Version returns the catalog version number.
func (c *Catalog) Version() int {
	return c.version
}

// Len returns the number of pieces.
func (c *Catalog) Len() int {
	return len(c.order)
}

// Piece returns the piece with the given id.
func (c *Catalog) Piece(id uint16) (Piece, error) {
	p, ok := c.pieces[id]
	if !ok {
		return Piece{}, fmt.Errorf("piece %d: %w", id, ErrPieceNotFound)
	}
	return p, nil
}

// Has reports whether id is in the catalog.
func (c *Catalog) Has(id uint16) bool {
	_, ok := c.pieces[id]
	return ok
}

// Pieces returns every piece ordered by id.
func (c *Catalog) Pieces() []Piece {
	out := make([]Piece, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.pieces[id])
	}
	return out
}

// Rotated returns the contents of piece id turned to orientation, using the
// catalog's shared rotation cache.
func (c *Catalog) Rotated(id uint16, orientation grid.Orientation) (grid.BitMatrix, error) {
	p, err := c.Piece(id)
	if err != nil {
		return grid.BitMatrix{}, err
	}
	return c.rotations.Get(p, orientation), nil
}
