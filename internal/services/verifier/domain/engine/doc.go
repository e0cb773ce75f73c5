// Package engine runs matches: it owns match state, dispatches commands to
// their executors through a validate-then-apply pipeline and drives the
// match phase machine.
//
// Validators receive a View, which exposes the board and wheel only through
// their read-only wrappers. Only Apply receives the mutable *State.
package engine
