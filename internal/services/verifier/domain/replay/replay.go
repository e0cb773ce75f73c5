// Package replay re-simulates a recorded match and judges its claimed score.
//
// Verification is a pure function of the catalog and the request: the same
// inputs always produce the same Response.
package replay

import (
	"fmt"
	"strings"

	"github.com/go-logr/logr"

	"github.com/louisbranch/renovation-rumble/internal/services/verifier/domain/catalog"
	"github.com/louisbranch/renovation-rumble/internal/services/verifier/domain/command"
	"github.com/louisbranch/renovation-rumble/internal/services/verifier/domain/engine"
	"github.com/louisbranch/renovation-rumble/internal/services/verifier/domain/rules"
)

// NoCommand marks a Response that is not tied to a specific command.
const NoCommand = -1

// Status is the verdict of a verification.
type Status uint8

const (
	StatusOk Status = iota
	StatusInvalidInput
	StatusSimulationError
	StatusDidNotEnd
	StatusScoreMismatch
)

var statusNames = []string{"Ok", "InvalidInput", "SimulationError", "DidNotEnd", "ScoreMismatch"}

func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("Status(%d)", uint8(s))
}

// MarshalText writes the status name.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText reads a status name case-insensitively.
func (s *Status) UnmarshalText(text []byte) error {
	for i, name := range statusNames {
		if strings.EqualFold(name, string(text)) {
			*s = Status(i)
			return nil
		}
	}
	return fmt.Errorf("unknown verify status %q", text)
}

// Verdict messages.
const (
	MessageMissingInput    = "Missing match or commands."
	MessageVerified        = "Verified."
	MessageScoreMismatch   = "Claimed score does not match computed score."
	MessageDidNotEnd       = "Game did not reach an end state after all commands were processed."
	messageCommandFailed   = "Command failed: %v %s"
	messageTooManyCommands = "Too many commands: %d exceeds the limit of %d."
	messageInvalidMatch    = "Invalid match: %v"
)

// Request is a recorded match to verify.
type Request struct {
	Match        *engine.MatchConfig
	ClaimedScore uint32
	Commands     []command.Command
	// Grant is an optional signed token binding the match config to an
	// issuer. Verify ignores it.
	Grant string
}

// Response is the verdict with whatever the simulation computed.
type Response struct {
	Status        Status          `json:"status"`
	Message       string          `json:"message"`
	ComputedScore uint32          `json:"computedScore"`
	EndReason     rules.EndReason `json:"endReason"`
	// CommandIndex is the zero-based command that ended or broke the
	// simulation, or NoCommand.
	CommandIndex int `json:"commandIndex"`
}

// Options bound and instrument a verification.
type Options struct {
	// MaxCommands rejects longer command lists when positive.
	MaxCommands int
	// Runner is shared across verifications; nil uses the default executors.
	Runner *engine.CommandRunner
	// EndCondition and Scorer override the default rules when set.
	EndCondition rules.EndCondition
	Scorer       rules.Scorer
	Logger       logr.Logger
}

func invalidInput(message string) Response {
	return Response{Status: StatusInvalidInput, Message: message, CommandIndex: NoCommand}
}

// Verify replays req against cat. Each command is processed and followed by
// a tick; the first terminal phase decides the verdict and any remaining
// commands are ignored.
func Verify(cat *catalog.Catalog, req Request, opts Options) Response {
	if req.Match == nil || len(req.Commands) == 0 {
		return invalidInput(MessageMissingInput)
	}
	if opts.MaxCommands > 0 && len(req.Commands) > opts.MaxCommands {
		return invalidInput(fmt.Sprintf(messageTooManyCommands, len(req.Commands), opts.MaxCommands))
	}

	runnerOpts := []engine.Option{
		engine.WithLogger(opts.Logger),
		engine.WithCommandRunner(opts.Runner),
	}
	if opts.EndCondition != nil {
		runnerOpts = append(runnerOpts, engine.WithEndCondition(opts.EndCondition))
	}
	if opts.Scorer != nil {
		runnerOpts = append(runnerOpts, engine.WithScorer(opts.Scorer))
	}
	match, err := engine.NewMatchRunner(cat, runnerOpts...)
	if err != nil {
		return invalidInput(fmt.Sprintf(messageInvalidMatch, err))
	}
	if err := match.Start(*req.Match); err != nil {
		return invalidInput(fmt.Sprintf(messageInvalidMatch, err))
	}

	for i, cmd := range req.Commands {
		match.Process(cmd)
		if resp, done := judge(req.ClaimedScore, match.Tick(), i); done {
			return resp
		}
	}
	return Response{Status: StatusDidNotEnd, Message: MessageDidNotEnd, CommandIndex: NoCommand}
}

func judge(claimed uint32, status engine.Status, index int) (Response, bool) {
	switch status.Phase {
	case engine.PhaseError:
		last := status.LastResult
		return Response{
			Status:       StatusSimulationError,
			Message:      fmt.Sprintf(messageCommandFailed, last.Error, last.Message),
			CommandIndex: index,
		}, true
	case engine.PhaseEnded:
		resp := Response{
			Status:        StatusOk,
			Message:       MessageVerified,
			ComputedScore: status.End.Score,
			EndReason:     status.End.Reason,
			CommandIndex:  index,
		}
		if status.End.Score != claimed {
			resp.Status = StatusScoreMismatch
			resp.Message = MessageScoreMismatch
		}
		return resp, true
	case engine.PhaseNotStarted:
		return invalidInput("Game not started."), true
	default:
		return Response{}, false
	}
}
