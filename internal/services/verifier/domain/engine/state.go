package engine

import (
	"errors"
	"fmt"

	"github.com/louisbranch/renovation-rumble/internal/services/verifier/domain/board"
	"github.com/louisbranch/renovation-rumble/internal/services/verifier/domain/catalog"
	"github.com/louisbranch/renovation-rumble/internal/services/verifier/domain/wheel"
)

// ErrInvalidMatchConfig indicates a match cannot start from the given config.
var ErrInvalidMatchConfig = errors.New("invalid match config")

// MatchConfig describes how a match starts.
type MatchConfig struct {
	BoardWidth     uint8    `json:"boardWidth"`
	BoardHeight    uint8    `json:"boardHeight"`
	StartingPieces []uint16 `json:"startingPieces"`
	// MoveLimit ends the match after that many successful commands. Zero
	// disables it.
	MoveLimit int `json:"moveLimit,omitempty"`
}

// Validate checks the config against the catalog.
func (c MatchConfig) Validate(cat *catalog.Catalog) error {
	if c.BoardWidth == 0 || c.BoardHeight == 0 {
		return fmt.Errorf("%w: board %dx%d", ErrInvalidMatchConfig, c.BoardWidth, c.BoardHeight)
	}
	if c.MoveLimit < 0 {
		return fmt.Errorf("%w: negative move limit %d", ErrInvalidMatchConfig, c.MoveLimit)
	}
	for i, id := range c.StartingPieces {
		if !cat.Has(id) {
			return fmt.Errorf("%w: starting piece %d (id %d): %w", ErrInvalidMatchConfig, i, id, catalog.ErrPieceNotFound)
		}
	}
	return nil
}

// State is the mutable state of one match. It is owned by a single
// MatchRunner and must not be shared.
type State struct {
	catalog *catalog.Catalog
	board   *board.Board
	wheel   *wheel.Wheel
	moves   int
}

// NewState builds fresh match state from cfg.
func NewState(cat *catalog.Catalog, cfg MatchConfig) (*State, error) {
	if cat == nil {
		return nil, ErrCatalogRequired
	}
	if err := cfg.Validate(cat); err != nil {
		return nil, err
	}
	b, err := board.New(cfg.BoardWidth, cfg.BoardHeight)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidMatchConfig, err)
	}
	return &State{
		catalog: cat,
		board:   b,
		wheel:   wheel.New(cfg.StartingPieces...),
	}, nil
}

// Catalog returns the shared piece catalog.
func (s *State) Catalog() *catalog.Catalog { return s.catalog }

// Board returns the mutable board.
func (s *State) Board() *board.Board { return s.board }

// Wheel returns the mutable wheel.
func (s *State) Wheel() *wheel.Wheel { return s.wheel }

// MovesApplied returns the number of successful commands.
func (s *State) MovesApplied() int { return s.moves }

// View returns a read-only handle over s.
func (s *State) View() View {
	return View{s: s}
}

// View is a read-only handle over match state. It satisfies rules.State.
type View struct {
	s *State
}

// Catalog returns the shared piece catalog.
func (v View) Catalog() *catalog.Catalog { return v.s.catalog }

// Board returns the read-only board.
func (v View) Board() board.View { return board.ReadOnly(v.s.board) }

// Wheel returns the read-only wheel.
func (v View) Wheel() wheel.View { return wheel.ReadOnly(v.s.wheel) }

// MovesApplied returns the number of successful commands.
func (v View) MovesApplied() int { return v.s.moves }
