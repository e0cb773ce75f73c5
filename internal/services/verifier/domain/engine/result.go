package engine

import (
	"fmt"
	"strings"
)

// ErrorKind classifies a failed command.
type ErrorKind uint8

const (
	ErrorNone ErrorKind = iota
	// ErrorInvalidCommand: nil command or no executor for its kind.
	ErrorInvalidCommand
	// ErrorValidationFailed: the executor rejected the command. Not fatal.
	ErrorValidationFailed
	// ErrorValidationException: validation returned an error or panicked.
	ErrorValidationException
	// ErrorApplyException: apply returned an error or panicked.
	ErrorApplyException
)

var errorKindNames = []string{"None", "InvalidCommand", "ValidationFailed", "ValidationException", "ApplyException"}

func (k ErrorKind) String() string {
	if int(k) < len(errorKindNames) {
		return errorKindNames[k]
	}
	return fmt.Sprintf("ErrorKind(%d)", uint8(k))
}

// MarshalText writes the kind name.
func (k ErrorKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText reads a kind name case-insensitively.
func (k *ErrorKind) UnmarshalText(text []byte) error {
	for i, name := range errorKindNames {
		if strings.EqualFold(name, string(text)) {
			*k = ErrorKind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown error kind %q", text)
}

// Fault reports whether the kind puts the match into the error phase.
func (k ErrorKind) Fault() bool {
	switch k {
	case ErrorInvalidCommand, ErrorValidationException, ErrorApplyException:
		return true
	default:
		return false
	}
}

// CommandResult is the outcome of running one command.
type CommandResult struct {
	Success bool      `json:"success"`
	Error   ErrorKind `json:"error"`
	Message string    `json:"message,omitempty"`
}

func succeeded() CommandResult {
	return CommandResult{Success: true}
}

func failed(kind ErrorKind, format string, args ...any) CommandResult {
	return CommandResult{Error: kind, Message: fmt.Sprintf(format, args...)}
}
