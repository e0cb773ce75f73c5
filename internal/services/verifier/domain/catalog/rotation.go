package catalog

import (
	"sync"

	"github.com/louisbranch/renovation-rumble/internal/services/verifier/domain/grid"
)

// RotationCache memoizes the four rotations of each piece on first access.
// Entries are keyed by piece id and never change, so one cache can back any
// number of concurrent matches.
type RotationCache struct {
	entries sync.Map // uint16 -> *[4]grid.BitMatrix
}

// NewRotationCache returns an empty cache.
func NewRotationCache() *RotationCache {
	return &RotationCache{}
}

// Get returns piece contents rotated to orientation.
func (r *RotationCache) Get(p Piece, orientation grid.Orientation) grid.BitMatrix {
	if !orientation.Valid() {
		orientation = grid.OrientationUp
	}
	if cached, ok := r.entries.Load(p.ID); ok {
		return cached.(*[4]grid.BitMatrix)[orientation]
	}
	m := p.Contents
	rotations := &[4]grid.BitMatrix{m, m.Rotate90(), m.Rotate180(), m.Rotate270()}
	actual, _ := r.entries.LoadOrStore(p.ID, rotations)
	return actual.(*[4]grid.BitMatrix)[orientation]
}

// Len returns the number of pieces with cached rotations.
func (r *RotationCache) Len() int {
	n := 0
	r.entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
