package command

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

var (
	// ErrFactoryRequired indicates a nil factory was registered.
	ErrFactoryRequired = errors.New("command factory is required")
	// ErrKindAlreadyRegistered indicates a kind was registered twice.
	ErrKindAlreadyRegistered = errors.New("command kind already registered")
	// ErrAbstractKind indicates an abstract kind was given a factory.
	ErrAbstractKind = errors.New("abstract command kinds cannot be constructed")
	// ErrFactoryKindMismatch indicates a factory builds a different kind.
	ErrFactoryKindMismatch = errors.New("factory builds a different command kind")
	// ErrKindUnknown indicates no factory is registered for a kind.
	ErrKindUnknown = errors.New("command kind is not registered")
)

// Factory returns a new zero-valued command ready to be populated.
type Factory func() Command

// Registry maps wire discriminators to command factories.
type Registry struct {
	factories map[Kind]Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[Kind]Factory)}
}

// Register adds the factory for kind. Each kind may be registered once.
func (r *Registry) Register(kind Kind, factory Factory) error {
	if factory == nil {
		return fmt.Errorf("%v: %w", kind, ErrFactoryRequired)
	}
	if kind.Abstract() {
		return fmt.Errorf("%v: %w", kind, ErrAbstractKind)
	}
	if _, exists := r.factories[kind]; exists {
		return fmt.Errorf("%v: %w", kind, ErrKindAlreadyRegistered)
	}
	if built := factory(); built == nil || built.Kind() != kind {
		return fmt.Errorf("%v: %w", kind, ErrFactoryKindMismatch)
	}
	r.factories[kind] = factory
	return nil
}

// New builds an empty command of the given kind.
func (r *Registry) New(kind Kind) (Command, error) {
	factory, ok := r.factories[kind]
	if !ok {
		return nil, fmt.Errorf("%v: %w", kind, ErrKindUnknown)
	}
	return factory(), nil
}

// Kinds returns the registered kinds in ascending order.
func (r *Registry) Kinds() []Kind {
	out := make([]Kind, 0, len(r.factories))
	for k := range r.factories {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

var defaultRegistry = sync.OnceValues(func() (*Registry, error) {
	r := NewRegistry()
	for kind, factory := range map[Kind]Factory{
		KindPlace:  func() Command { return &Place{} },
		KindGrow:   func() Command { return &Grow{} },
		KindShrink: func() Command { return &Shrink{} },
	} {
		if err := r.Register(kind, factory); err != nil {
			return nil, err
		}
	}
	return r, nil
})

// DefaultRegistry returns the process-wide registry of built-in commands.
func DefaultRegistry() (*Registry, error) {
	return defaultRegistry()
}
