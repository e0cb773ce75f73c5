// Package rules defines how a match ends and how it is scored. Conditions
// and scorers only read match state.
package rules

import (
	"fmt"
	"strings"

	"github.com/louisbranch/renovation-rumble/internal/services/verifier/domain/board"
	"github.com/louisbranch/renovation-rumble/internal/services/verifier/domain/wheel"
)

// State is the read-only match state rules are evaluated against.
type State interface {
	Board() board.View
	Wheel() wheel.View
	MovesApplied() int
}

// EndReason explains why a match ended.
type EndReason uint8

const (
	EndReasonNone EndReason = iota
	EndReasonBoardFull
	EndReasonWheelEmpty
	EndReasonMoveLimitReached
)

var endReasonNames = []string{"None", "BoardFull", "WheelEmpty", "MoveLimitReached"}

func (r EndReason) String() string {
	if int(r) < len(endReasonNames) {
		return endReasonNames[r]
	}
	return fmt.Sprintf("EndReason(%d)", uint8(r))
}

// MarshalText writes the reason name.
func (r EndReason) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText reads a reason name case-insensitively.
func (r *EndReason) UnmarshalText(text []byte) error {
	for i, name := range endReasonNames {
		if strings.EqualFold(name, string(text)) {
			*r = EndReason(i)
			return nil
		}
	}
	return fmt.Errorf("unknown end reason %q", text)
}

// EndResult is the outcome of an ended match.
type EndResult struct {
	Score  uint32
	Reason EndReason
}

// EndCondition decides whether the match is over.
type EndCondition interface {
	IsOver(s State) (bool, EndReason)
}

// EndConditionFunc adapts a function to EndCondition.
type EndConditionFunc func(s State) (bool, EndReason)

// IsOver implements EndCondition.
func (f EndConditionFunc) IsOver(s State) (bool, EndReason) { return f(s) }

// Composite evaluates its conditions in order; the first one that holds
// decides the reason.
type Composite []EndCondition

// IsOver implements EndCondition.
func (c Composite) IsOver(s State) (bool, EndReason) {
	for _, cond := range c {
		if cond == nil {
			continue
		}
		if over, reason := cond.IsOver(s); over {
			return true, reason
		}
	}
	return false, EndReasonNone
}

// BoardFull ends the match once every cell is filled.
type BoardFull struct{}

// IsOver implements EndCondition.
func (BoardFull) IsOver(s State) (bool, EndReason) {
	b := s.Board()
	if b.FilledCount() >= b.CellCount() {
		return true, EndReasonBoardFull
	}
	return false, EndReasonNone
}

// WheelEmpty ends the match once no pieces remain.
type WheelEmpty struct{}

// IsOver implements EndCondition.
func (WheelEmpty) IsOver(s State) (bool, EndReason) {
	if s.Wheel().IsEmpty() {
		return true, EndReasonWheelEmpty
	}
	return false, EndReasonNone
}

// MoveLimit ends the match after Limit successful commands. A non-positive
// limit never triggers.
type MoveLimit struct {
	Limit int
}

// IsOver implements EndCondition.
func (m MoveLimit) IsOver(s State) (bool, EndReason) {
	if m.Limit > 0 && s.MovesApplied() >= m.Limit {
		return true, EndReasonMoveLimitReached
	}
	return false, EndReasonNone
}

// Scorer computes a score from match state.
type Scorer interface {
	Score(s State) uint32
}

// ScorerFunc adapts a function to Scorer.
type ScorerFunc func(s State) uint32

// Score implements Scorer.
func (f ScorerFunc) Score(s State) uint32 { return f(s) }

// CompositeScorer sums every child score.
type CompositeScorer []Scorer

// Score implements Scorer.
func (c CompositeScorer) Score(s State) uint32 {
	var total uint32
	for _, scorer := range c {
		if scorer != nil {
			total += scorer.Score(s)
		}
	}
	return total
}

// FilledCells scores one point per filled board cell.
type FilledCells struct{}

// Score implements Scorer.
func (FilledCells) Score(s State) uint32 {
	return uint32(s.Board().FilledCount())
}

// DefaultEndCondition returns the standard ordering: board full, wheel
// empty, then the move limit when one is set.
func DefaultEndCondition(moveLimit int) EndCondition {
	c := Composite{BoardFull{}, WheelEmpty{}}
	if moveLimit > 0 {
		c = append(c, MoveLimit{Limit: moveLimit})
	}
	return c
}

// DefaultScorer returns the standard scorer.
func DefaultScorer() Scorer {
	return CompositeScorer{FilledCells{}}
}
