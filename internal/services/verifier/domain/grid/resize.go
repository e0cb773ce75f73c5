package grid

// CanGrow reports whether growing along edge stays within MaxCells.
func (m BitMatrix) CanGrow(edge Edge) bool {
	if m.IsZero() || !edge.Valid() {
		return false
	}
	w, h := int(m.width), int(m.height)
	if edge.IsHorizontal() {
		return (w+1)*h <= MaxCells
	}
	return w*(h+1) <= MaxCells
}

// CanShrink reports whether the axis crossed by edge has more than one cell.
func (m BitMatrix) CanShrink(edge Edge) bool {
	if m.IsZero() || !edge.Valid() {
		return false
	}
	if edge.IsHorizontal() {
		return m.width > 1
	}
	return m.height > 1
}

// Grow adds one row or column on edge, copying the cells currently on that
// edge. When the result would exceed MaxCells, m is returned unchanged.
func (m BitMatrix) Grow(edge Edge) BitMatrix {
	if !m.CanGrow(edge) {
		return m
	}
	w, h := int(m.width), int(m.height)
	switch edge {
	case EdgeLeft:
		return m.mapRows(w+1, func(row uint64) uint64 { return row<<1 | row&1 })
	case EdgeRight:
		return m.mapRows(w+1, func(row uint64) uint64 { return row | (row>>(w-1)&1)<<w })
	case EdgeTop:
		return BitMatrix{width: m.width, height: m.height + 1, bits: m.bits<<w | m.row(0)}
	default:
		return BitMatrix{width: m.width, height: m.height + 1, bits: m.bits | m.row(h-1)<<(h*w)}
	}
}

// Shrink removes the row or column on edge. A unit-sized axis is returned
// unchanged.
func (m BitMatrix) Shrink(edge Edge) BitMatrix {
	if !m.CanShrink(edge) {
		return m
	}
	w, h := int(m.width), int(m.height)
	switch edge {
	case EdgeLeft:
		return m.mapRows(w-1, func(row uint64) uint64 { return row >> 1 })
	case EdgeRight:
		return m.mapRows(w-1, func(row uint64) uint64 { return row & RowMask(w-1) })
	case EdgeTop:
		return BitMatrix{width: m.width, height: m.height - 1, bits: m.bits >> w}
	default:
		return BitMatrix{width: m.width, height: m.height - 1, bits: m.bits & areaMask(w*(h-1))}
	}
}

func (m BitMatrix) mapRows(newWidth int, f func(row uint64) uint64) BitMatrix {
	mask := RowMask(newWidth)
	var out uint64
	for y := range int(m.height) {
		out |= (f(m.row(y)) & mask) << (y * newWidth)
	}
	return BitMatrix{width: uint8(newWidth), height: m.height, bits: out}
}
