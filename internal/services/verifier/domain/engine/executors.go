package engine

import (
	"fmt"

	"github.com/go-logr/logr"

	"github.com/louisbranch/renovation-rumble/internal/services/verifier/domain/board"
	"github.com/louisbranch/renovation-rumble/internal/services/verifier/domain/command"
	"github.com/louisbranch/renovation-rumble/internal/services/verifier/domain/grid"
)

// PlaceExecutor places a piece from the wheel window onto the board.
type PlaceExecutor struct{}

// CanApply requires the piece to be visible in the wheel window and its
// rotated footprint to lie on empty board cells. An id missing from the
// catalog is an error, not a rejection.
func (PlaceExecutor) CanApply(log logr.Logger, v View, cmd *command.Place) (bool, error) {
	if !cmd.Orientation.Valid() {
		log.V(1).Info("rejected: unknown orientation", "orientation", int(cmd.Orientation))
		return false, nil
	}
	shape, err := v.Catalog().Rotated(cmd.PieceID, cmd.Orientation)
	if err != nil {
		return false, err
	}
	if _, ok := v.Wheel().IndexOf(cmd.PieceID); !ok {
		log.V(1).Info("rejected: piece not in wheel window", "pieceId", cmd.PieceID, "window", v.Wheel().Window())
		return false, nil
	}
	b := v.Board()
	for cell := range shape.FilledCells() {
		c, ok := cmd.Position.Offset(int(cell.X), int(cell.Y))
		if !ok || !b.IsWithinBounds(c) {
			log.V(1).Info("rejected: cell out of bounds", "cell", cell.String(), "position", cmd.Position.String())
			return false, nil
		}
		if b.IsFilled(c) {
			log.V(1).Info("rejected: cell already occupied", "cell", c.String())
			return false, nil
		}
	}
	return true, nil
}

// Apply takes the piece from the wheel, fills its footprint and records it.
func (PlaceExecutor) Apply(log logr.Logger, s *State, cmd *command.Place) error {
	piece, err := s.Catalog().Piece(cmd.PieceID)
	if err != nil {
		return err
	}
	shape, err := s.Catalog().Rotated(cmd.PieceID, cmd.Orientation)
	if err != nil {
		return err
	}
	slot, ok := s.Wheel().IndexOf(cmd.PieceID)
	if !ok {
		return fmt.Errorf("piece %d left the wheel window", cmd.PieceID)
	}
	if _, err := s.Wheel().Take(slot); err != nil {
		return err
	}
	s.Board().Fill(shape, cmd.Position, true)
	idx := s.Board().AddPiece(board.PlacedPiece{
		Piece:       piece,
		Origin:      cmd.Position,
		Orientation: cmd.Orientation,
		Contents:    shape,
	})
	log.V(2).Info("placed piece", "pieceId", cmd.PieceID, "index", idx, "slot", slot)
	return nil
}

// GrowExecutor extends a placed piece by one row or column.
type GrowExecutor struct{}

// CanApply requires board room on the edge's side, capacity for one more
// row or column, and no overlap with other pieces once grown.
func (GrowExecutor) CanApply(log logr.Logger, v View, cmd *command.Grow) (bool, error) {
	b := v.Board()
	p, err := b.PlacedPiece(cmd.PieceBoardIndex)
	if err != nil {
		return false, err
	}
	if !cmd.Edge.Valid() {
		log.V(1).Info("rejected: unknown edge", "edge", int(cmd.Edge))
		return false, nil
	}
	if !hasRoom(b.Size(), p, cmd.Edge) {
		log.V(1).Info("rejected: no room on edge", "edge", cmd.Edge.String(), "index", cmd.PieceBoardIndex)
		return false, nil
	}
	if !p.Contents.CanGrow(cmd.Edge) {
		log.V(1).Info("rejected: piece at cell capacity", "edge", cmd.Edge.String(), "cells", p.Contents.Area())
		return false, nil
	}
	grown, origin := grownShape(p, cmd.Edge)
	if b.CollidesWithFilled(grown, origin, cmd.PieceBoardIndex) {
		log.V(1).Info("rejected: growth collides", "edge", cmd.Edge.String(), "index", cmd.PieceBoardIndex)
		return false, nil
	}
	return true, nil
}

// Apply clears the old footprint, grows the piece and refills.
func (GrowExecutor) Apply(log logr.Logger, s *State, cmd *command.Grow) error {
	p, err := s.Board().PlacedPiece(cmd.PieceBoardIndex)
	if err != nil {
		return err
	}
	grown, origin := grownShape(p, cmd.Edge)
	if err := replaceFootprint(s.Board(), cmd.PieceBoardIndex, p, grown, origin); err != nil {
		return err
	}
	log.V(2).Info("grew piece", "index", cmd.PieceBoardIndex, "edge", cmd.Edge.String())
	return nil
}

// ShrinkExecutor removes one row or column from a placed piece.
type ShrinkExecutor struct{}

// CanApply requires the axis crossed by the edge to be wider than one cell.
func (ShrinkExecutor) CanApply(log logr.Logger, v View, cmd *command.Shrink) (bool, error) {
	p, err := v.Board().PlacedPiece(cmd.PieceBoardIndex)
	if err != nil {
		return false, err
	}
	if !cmd.Edge.Valid() {
		log.V(1).Info("rejected: unknown edge", "edge", int(cmd.Edge))
		return false, nil
	}
	if !p.Contents.CanShrink(cmd.Edge) {
		log.V(1).Info("rejected: piece at minimum size", "edge", cmd.Edge.String(), "index", cmd.PieceBoardIndex)
		return false, nil
	}
	return true, nil
}

// Apply clears the old footprint, shrinks the piece and refills.
func (ShrinkExecutor) Apply(log logr.Logger, s *State, cmd *command.Shrink) error {
	p, err := s.Board().PlacedPiece(cmd.PieceBoardIndex)
	if err != nil {
		return err
	}
	shrunk := p.Contents.Shrink(cmd.Edge)
	origin := p.Origin
	switch cmd.Edge {
	case grid.EdgeLeft:
		origin.X++
	case grid.EdgeTop:
		origin.Y++
	}
	if err := replaceFootprint(s.Board(), cmd.PieceBoardIndex, p, shrunk, origin); err != nil {
		return err
	}
	log.V(2).Info("shrank piece", "index", cmd.PieceBoardIndex, "edge", cmd.Edge.String())
	return nil
}

func hasRoom(size grid.Coords, p board.PlacedPiece, edge grid.Edge) bool {
	w, h := int(p.Contents.Width()), int(p.Contents.Height())
	switch edge {
	case grid.EdgeLeft:
		return p.Origin.X > 0
	case grid.EdgeRight:
		return int(p.Origin.X)+w < int(size.X)
	case grid.EdgeTop:
		return p.Origin.Y > 0
	case grid.EdgeBottom:
		return int(p.Origin.Y)+h < int(size.Y)
	default:
		return false
	}
}

func grownShape(p board.PlacedPiece, edge grid.Edge) (grid.BitMatrix, grid.Coords) {
	origin := p.Origin
	switch edge {
	case grid.EdgeLeft:
		origin.X--
	case grid.EdgeTop:
		origin.Y--
	}
	return p.Contents.Grow(edge), origin
}

func replaceFootprint(b *board.Board, idx int, old board.PlacedPiece, contents grid.BitMatrix, origin grid.Coords) error {
	b.Fill(old.Contents, old.Origin, false)
	next := old
	next.Contents = contents
	next.Origin = origin
	if err := b.ReplacePiece(idx, next); err != nil {
		b.Fill(old.Contents, old.Origin, true)
		return err
	}
	b.Fill(contents, origin, true)
	return nil
}
