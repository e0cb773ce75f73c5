// Package wheel implements the choice wheel: a circular queue of piece ids of
// which only the first WindowSize entries after the head can be taken.
package wheel

import (
	"errors"
	"fmt"
	"slices"
)

// WindowSize is the number of pieces visible to the player.
const WindowSize = 3

var (
	// ErrWindowIndexOutOfRange is returned for an index outside [0, WindowSize).
	ErrWindowIndexOutOfRange = errors.New("window index out of range")
	// ErrNoPieceAtIndex is returned when the queue is shorter than the index.
	ErrNoPieceAtIndex = errors.New("no piece at window index")
)

// Wheel is a rotating window over the remaining pieces. Taking an item keeps
// the head at the removal slot, so the window re-centres around it.
type Wheel struct {
	queue []uint16
	head  int
}

// New seeds a wheel with ids in queue order.
func New(ids ...uint16) *Wheel {
	return &Wheel{queue: slices.Clone(ids)}
}

// TotalRemaining returns the number of queued pieces, visible or not.
func (w *Wheel) TotalRemaining() int {
	return len(w.queue)
}

// IsEmpty reports whether no pieces remain.
func (w *Wheel) IsEmpty() bool {
	return len(w.queue) == 0
}

// CanTake reports whether window slot i holds a piece.
func (w *Wheel) CanTake(i int) bool {
	return i >= 0 && i < WindowSize && i < len(w.queue)
}

// Peek returns the piece in window slot i.
func (w *Wheel) Peek(i int) (uint16, bool) {
	if !w.CanTake(i) {
		return 0, false
	}
	return w.queue[w.slot(i)], true
}

// Window returns the visible pieces in order. It is shorter than WindowSize
// when fewer pieces remain.
func (w *Wheel) Window() []uint16 {
	n := min(WindowSize, len(w.queue))
	out := make([]uint16, n)
	for i := range n {
		out[i] = w.queue[w.slot(i)]
	}
	return out
}

// IndexOf returns the window slot holding id.
func (w *Wheel) IndexOf(id uint16) (int, bool) {
	for i := range min(WindowSize, len(w.queue)) {
		if w.queue[w.slot(i)] == id {
			return i, true
		}
	}
	return -1, false
}

// Take removes and returns the piece in window slot i.
func (w *Wheel) Take(i int) (uint16, error) {
	if i < 0 || i >= WindowSize {
		return 0, fmt.Errorf("%w: %d", ErrWindowIndexOutOfRange, i)
	}
	if len(w.queue) <= i {
		return 0, fmt.Errorf("%w: %d with %d remaining", ErrNoPieceAtIndex, i, len(w.queue))
	}
	idx := w.slot(i)
	id := w.queue[idx]
	w.queue = slices.Delete(w.queue, idx, idx+1)
	if len(w.queue) == 0 {
		w.head = 0
	} else {
		w.head = idx % len(w.queue)
	}
	return id, nil
}

// Enqueue adds ids at the logical tail, just behind the head.
func (w *Wheel) Enqueue(ids ...uint16) {
	if w.head == 0 {
		w.queue = append(w.queue, ids...)
		return
	}
	w.queue = slices.Insert(w.queue, w.head, ids...)
	w.head += len(ids)
}

func (w *Wheel) slot(i int) int {
	return (w.head + i) % len(w.queue)
}

// View is the read-only surface of a wheel.
type View interface {
	TotalRemaining() int
	IsEmpty() bool
	CanTake(i int) bool
	Peek(i int) (uint16, bool)
	Window() []uint16
	IndexOf(id uint16) (int, bool)
}

// ReadOnly wraps w so holders of the View cannot take or enqueue.
func ReadOnly(w *Wheel) View {
	return readOnly{w: w}
}

type readOnly struct {
	w *Wheel
}

func (r readOnly) TotalRemaining() int { return r.w.TotalRemaining() }
func (r readOnly) IsEmpty() bool { return r.w.IsEmpty() }
func (r readOnly) CanTake(i int) bool { return r.w.CanTake(i) }
func (r readOnly) Peek(i int) (uint16, bool) { return r.w.Peek(i) }
func (r readOnly) Window() []uint16 { return r.w.Window() }
func (r readOnly) IndexOf(id uint16) (int, bool) { return r.w.IndexOf(id) }
