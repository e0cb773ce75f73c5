// Package command defines the player commands, the discriminator registry
// that builds them and the JSON codec used on the wire.
package command

import (
	"fmt"

	"github.com/louisbranch/renovation-rumble/internal/services/verifier/domain/grid"
)

// Command is one player action. Implementations are pointer types so a
// registry factory can return a value for the codec to populate.
type Command interface {
	Kind() Kind
}

// Place puts a piece from the wheel window onto the board.
type Place struct {
	PieceID     uint16           `json:"pieceId"`
	Position    grid.Coords      `json:"position"`
	Orientation grid.Orientation `json:"orientation"`
}

// Kind implements Command.
func (*Place) Kind() Kind { return KindPlace }

func (p *Place) String() string {
	return fmt.Sprintf("Place(piece=%d at %v %v)", p.PieceID, p.Position, p.Orientation)
}

// Grow extends a placed piece by one row or column on Edge.
type Grow struct {
	PieceBoardIndex int       `json:"pieceBoardIndex"`
	Edge            grid.Edge `json:"edge"`
}

// Kind implements Command.
func (*Grow) Kind() Kind { return KindGrow }

func (g *Grow) String() string {
	return fmt.Sprintf("Grow(index=%d %v)", g.PieceBoardIndex, g.Edge)
}

// Shrink removes one row or column of a placed piece on Edge.
type Shrink struct {
	PieceBoardIndex int       `json:"pieceBoardIndex"`
	Edge            grid.Edge `json:"edge"`
}

// Kind implements Command.
func (*Shrink) Kind() Kind { return KindShrink }

func (s *Shrink) String() string {
	return fmt.Sprintf("Shrink(index=%d %v)", s.PieceBoardIndex, s.Edge)
}

// Resize is implemented by commands that change the size of a placed piece.
type Resize interface {
	Command
	TargetIndex() int
	TargetEdge() grid.Edge
}

// TargetIndex implements Resize.
func (g *Grow) TargetIndex() int { return g.PieceBoardIndex }

// TargetEdge implements Resize.
func (g *Grow) TargetEdge() grid.Edge { return g.Edge }

// TargetIndex implements Resize.
func (s *Shrink) TargetIndex() int { return s.PieceBoardIndex }

// TargetEdge implements Resize.
func (s *Shrink) TargetEdge() grid.Edge { return s.Edge }
