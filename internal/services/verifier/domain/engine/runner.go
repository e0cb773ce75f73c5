package engine

import (
	"errors"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/go-logr/logr"

	"github.com/louisbranch/renovation-rumble/internal/services/verifier/domain/command"
)

var (
	// ErrCatalogRequired indicates a missing piece catalog.
	ErrCatalogRequired = errors.New("catalog is required")
	// ErrExecutorRequired indicates a nil executor was registered.
	ErrExecutorRequired = errors.New("executor is required")
	// ErrExecutorAlreadyRegistered indicates a kind already has an executor.
	ErrExecutorAlreadyRegistered = errors.New("executor already registered")
	// ErrCommandTypeMismatch indicates an executor received a command type it
	// cannot handle.
	ErrCommandTypeMismatch = errors.New("command type does not match executor")
	// ErrExecutorPanicked wraps a recovered executor panic.
	ErrExecutorPanicked = errors.New("executor panicked")
)

// Executor validates and applies one command type.
//
// CanApply returns false for an expected rejection and logs why. A non-nil
// error means validation itself broke. Apply runs only after CanApply
// returned true.
type Executor[C command.Command] interface {
	CanApply(log logr.Logger, v View, cmd C) (bool, error)
	Apply(log logr.Logger, s *State, cmd C) error
}

type handler interface {
	canApply(log logr.Logger, v View, cmd command.Command) (bool, error)
	apply(log logr.Logger, s *State, cmd command.Command) error
}

type typedHandler[C command.Command] struct {
	exec Executor[C]
}

func (h typedHandler[C]) canApply(log logr.Logger, v View, cmd command.Command) (bool, error) {
	typed, ok := cmd.(C)
	if !ok {
		return false, fmt.Errorf("%w: %T", ErrCommandTypeMismatch, cmd)
	}
	return h.exec.CanApply(log, v, typed)
}

func (h typedHandler[C]) apply(log logr.Logger, s *State, cmd command.Command) error {
	typed, ok := cmd.(C)
	if !ok {
		return fmt.Errorf("%w: %T", ErrCommandTypeMismatch, cmd)
	}
	return h.exec.Apply(log, s, typed)
}

// CommandRunner dispatches commands to executors by kind. When a kind has no
// executor the nearest registered ancestor handles it; the lookup is cached
// per kind. A runner may be shared by concurrent matches once registration
// is done.
type CommandRunner struct {
	mu       sync.RWMutex
	handlers map[command.Kind]handler
	resolved sync.Map // command.Kind -> handler
}

// NewCommandRunner returns a runner with no executors.
func NewCommandRunner() *CommandRunner {
	return &CommandRunner{handlers: make(map[command.Kind]handler)}
}

// NewDefaultCommandRunner returns a runner with the Place, Grow and Shrink
// executors registered.
func NewDefaultCommandRunner() *CommandRunner {
	r := NewCommandRunner()
	mustRegister(Register[*command.Place](r, command.KindPlace, PlaceExecutor{}))
	mustRegister(Register[*command.Grow](r, command.KindGrow, GrowExecutor{}))
	mustRegister(Register[*command.Shrink](r, command.KindShrink, ShrinkExecutor{}))
	return r
}

func mustRegister(err error) {
	if err != nil {
		panic(err)
	}
}

// Register binds exec to kind. Abstract kinds may be registered to handle
// every descendant without its own executor.
func Register[C command.Command](r *CommandRunner, kind command.Kind, exec Executor[C]) error {
	if exec == nil {
		return fmt.Errorf("%v: %w", kind, ErrExecutorRequired)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.handlers[kind]; exists {
		return fmt.Errorf("%v: %w", kind, ErrExecutorAlreadyRegistered)
	}
	r.handlers[kind] = typedHandler[C]{exec: exec}
	r.resolved.Clear()
	return nil
}

// Handles reports whether kind resolves to an executor.
func (r *CommandRunner) Handles(kind command.Kind) bool {
	_, ok := r.resolve(kind)
	return ok
}

func (r *CommandRunner) resolve(kind command.Kind) (handler, bool) {
	if cached, ok := r.resolved.Load(kind); ok {
		h, found := cached.(handler)
		return h, found
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, candidate := range kind.Ancestors() {
		if h, ok := r.handlers[candidate]; ok {
			r.resolved.Store(kind, h)
			return h, true
		}
	}
	r.resolved.Store(kind, nil)
	return nil, false
}

// Run validates and applies cmd against s and counts the move on success.
// Executor panics are recovered and reported as exceptions.
func (r *CommandRunner) Run(log logr.Logger, s *State, cmd command.Command) CommandResult {
	if cmd == nil {
		return failed(ErrorInvalidCommand, "command is nil")
	}
	kind := cmd.Kind()
	h, found := r.resolve(kind)
	if !found {
		return failed(ErrorInvalidCommand, "no executor registered for %v", kind)
	}
	log = log.WithValues("command", kind.String(), "move", s.MovesApplied())

	valid, err := safeCanApply(log, h, s.View(), cmd)
	if err != nil {
		return failed(ErrorValidationException, "validate %v: %v", kind, err)
	}
	if !valid {
		return failed(ErrorValidationFailed, "%v rejected", kind)
	}
	if err := safeApply(log, h, s, cmd); err != nil {
		return failed(ErrorApplyException, "apply %v: %v", kind, err)
	}
	s.moves++
	return succeeded()
}

func safeCanApply(log logr.Logger, h handler, v View, cmd command.Command) (valid bool, err error) {
	defer func() {
		if p := recover(); p != nil {
			log.Error(nil, "validator panicked", "panic", p, "stack", string(debug.Stack()))
			valid, err = false, fmt.Errorf("%w: %v", ErrExecutorPanicked, p)
		}
	}()
	return h.canApply(log, v, cmd)
}

func safeApply(log logr.Logger, h handler, s *State, cmd command.Command) (err error) {
	defer func() {
		if p := recover(); p != nil {
			log.Error(nil, "executor panicked", "panic", p, "stack", string(debug.Stack()))
			err = fmt.Errorf("%w: %v", ErrExecutorPanicked, p)
		}
	}()
	return h.apply(log, s, cmd)
}
