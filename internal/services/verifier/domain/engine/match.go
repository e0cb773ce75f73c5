package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-logr/logr"

	"github.com/louisbranch/renovation-rumble/internal/services/verifier/domain/catalog"
	"github.com/louisbranch/renovation-rumble/internal/services/verifier/domain/command"
	"github.com/louisbranch/renovation-rumble/internal/services/verifier/domain/rules"
)

// ErrMatchAlreadyStarted indicates Start was called twice.
var ErrMatchAlreadyStarted = errors.New("match already started")

// Phase is the lifecycle stage of a match.
type Phase uint8

const (
	PhaseNotStarted Phase = iota
	PhaseInProgress
	PhaseEnded
	PhaseError
)

var phaseNames = []string{"NotStarted", "InProgress", "Ended", "Error"}

func (p Phase) String() string {
	if int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return fmt.Sprintf("Phase(%d)", uint8(p))
}

// MarshalText writes the phase name.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText reads a phase name case-insensitively.
func (p *Phase) UnmarshalText(text []byte) error {
	for i, name := range phaseNames {
		if strings.EqualFold(name, string(text)) {
			*p = Phase(i)
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", text)
}

// Terminal reports whether no further commands are accepted.
func (p Phase) Terminal() bool {
	return p == PhaseEnded || p == PhaseError
}

// Status is a snapshot of the match. End is only meaningful once Phase is
// PhaseEnded.
type Status struct {
	Phase      Phase           `json:"phase"`
	LastResult CommandResult   `json:"lastResult"`
	End        rules.EndResult `json:"end"`
}

// MatchRunner drives one match through NotStarted, InProgress and then
// Ended or Error. It is not safe for concurrent use.
type MatchRunner struct {
	catalog      *catalog.Catalog
	commands     *CommandRunner
	log          logr.Logger
	endCondition rules.EndCondition
	scorer       rules.Scorer

	state        *State
	activeEnd    rules.EndCondition
	status       Status
	pendingFault bool
}

// Option customizes a MatchRunner.
type Option func(*MatchRunner)

// WithLogger sets the logger used for rejections and faults.
func WithLogger(log logr.Logger) Option {
	return func(m *MatchRunner) {
		m.log = log
	}
}

// WithCommandRunner replaces the default executors.
func WithCommandRunner(r *CommandRunner) Option {
	return func(m *MatchRunner) {
		if r != nil {
			m.commands = r
		}
	}
}

// WithEndCondition replaces the default end condition.
func WithEndCondition(c rules.EndCondition) Option {
	return func(m *MatchRunner) {
		m.endCondition = c
	}
}

// WithScorer replaces the default scorer.
func WithScorer(s rules.Scorer) Option {
	return func(m *MatchRunner) {
		m.scorer = s
	}
}

// NewMatchRunner returns a runner waiting for Start.
func NewMatchRunner(cat *catalog.Catalog, opts ...Option) (*MatchRunner, error) {
	if cat == nil {
		return nil, ErrCatalogRequired
	}
	m := &MatchRunner{
		catalog: cat,
		log:     logr.Discard(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.commands == nil {
		m.commands = NewDefaultCommandRunner()
	}
	if m.scorer == nil {
		m.scorer = rules.DefaultScorer()
	}
	return m, nil
}

// Start builds the board and wheel from cfg and moves the match to
// InProgress.
func (m *MatchRunner) Start(cfg MatchConfig) error {
	if m.status.Phase != PhaseNotStarted {
		return fmt.Errorf("%w: phase %v", ErrMatchAlreadyStarted, m.status.Phase)
	}
	state, err := NewState(m.catalog, cfg)
	if err != nil {
		return err
	}
	m.state = state
	m.activeEnd = m.endCondition
	if m.activeEnd == nil {
		m.activeEnd = rules.DefaultEndCondition(cfg.MoveLimit)
	}
	m.status = Status{Phase: PhaseInProgress}
	m.pendingFault = false
	m.log.V(1).Info("match started", "width", cfg.BoardWidth, "height", cfg.BoardHeight, "pieces", len(cfg.StartingPieces))
	return nil
}

// Process runs one command. Outside InProgress the command is refused with
// ErrorInvalidCommand and nothing changes. Faults are held until the next
// Tick; a plain rejection leaves the match in progress.
func (m *MatchRunner) Process(cmd command.Command) CommandResult {
	if m.status.Phase != PhaseInProgress {
		return failed(ErrorInvalidCommand, "match is %v", m.status.Phase)
	}
	result := m.commands.Run(m.log, m.state, cmd)
	m.status.LastResult = result
	if result.Error.Fault() {
		m.pendingFault = true
		m.log.Info("command fault", "error", result.Error.String(), "message", result.Message)
	}
	return result
}

// Tick resolves a pending fault or evaluates the end condition.
func (m *MatchRunner) Tick() Status {
	if m.status.Phase != PhaseInProgress {
		return m.status
	}
	if m.pendingFault {
		m.pendingFault = false
		m.status.Phase = PhaseError
		return m.status
	}
	view := m.state.View()
	if over, reason := m.activeEnd.IsOver(view); over {
		m.status.End = rules.EndResult{Score: m.scorer.Score(view), Reason: reason}
		m.status.Phase = PhaseEnded
		m.log.V(1).Info("match ended", "reason", reason.String(), "score", m.status.End.Score, "moves", view.MovesApplied())
	}
	return m.status
}

// Status returns the current status.
func (m *MatchRunner) Status() Status {
	return m.status
}

// View returns a read-only handle over the match state. The second result
// is false before Start.
func (m *MatchRunner) View() (View, bool) {
	if m.state == nil {
		return View{}, false
	}
	return m.state.View(), true
}
