package board

import "github.com/louisbranch/renovation-rumble/internal/services/verifier/domain/grid"

// View is the read-only surface of a board handed to validators and rules.
type View interface {
	Size() grid.Coords
	CellCount() int
	FilledCount() int
	PieceCount() int
	IsWithinBounds(c grid.Coords) bool
	IsFilled(c grid.Coords) bool
	CollidesWithFilled(m grid.BitMatrix, origin grid.Coords, ignore int) bool
	LookupPlacedPiece(i int) (PlacedPiece, bool)
	PlacedPiece(i int) (PlacedPiece, error)
}

// ReadOnly wraps b so holders of the View cannot reach the mutators.
func ReadOnly(b *Board) View {
	return readOnly{b: b}
}

type readOnly struct {
	b *Board
}

func (r readOnly) Size() grid.Coords { return r.b.Size() }
func (r readOnly) CellCount() int { return r.b.CellCount() }
func (r readOnly) FilledCount() int { return r.b.FilledCount() }
func (r readOnly) PieceCount() int { return r.b.PieceCount() }
func (r readOnly) IsWithinBounds(c grid.Coords) bool { return r.b.IsWithinBounds(c) }
func (r readOnly) IsFilled(c grid.Coords) bool { return r.b.IsFilled(c) }
func (r readOnly) LookupPlacedPiece(i int) (PlacedPiece, bool) {
	return r.b.LookupPlacedPiece(i)
}
func (r readOnly) PlacedPiece(i int) (PlacedPiece, error) { return r.b.PlacedPiece(i) }
func (r readOnly) CollidesWithFilled(m grid.BitMatrix, origin grid.Coords, ignore int) bool {
	return r.b.CollidesWithFilled(m, origin, ignore)
}
