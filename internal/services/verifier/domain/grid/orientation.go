package grid

import (
	"encoding/json"
	"strconv"
)

// Orientation selects a clockwise quarter-turn rotation of a shape.
type Orientation uint8

const (
	OrientationUp Orientation = iota
	OrientationRight
	OrientationBottom
	OrientationLeft
)

var orientationNames = []string{"Up", "Right", "Bottom", "Left"}

// Valid reports whether o is one of the four orientations.
func (o Orientation) Valid() bool {
	return int(o) < len(orientationNames)
}

func (o Orientation) String() string {
	if !o.Valid() {
		return "Orientation(" + strconv.Itoa(int(o)) + ")"
	}
	return orientationNames[o]
}

// MarshalJSON writes the numeric orientation.
func (o Orientation) MarshalJSON() ([]byte, error) {
	return json.Marshal(uint8(o))
}

// UnmarshalJSON accepts an integer or a case-insensitive name.
func (o *Orientation) UnmarshalJSON(data []byte) error {
	v, err := parseEnum(data, "orientation", orientationNames)
	if err != nil {
		return err
	}
	*o = Orientation(v)
	return nil
}

// Edge names one side of a shape or of the board.
type Edge uint8

const (
	EdgeLeft Edge = iota
	EdgeRight
	EdgeTop
	EdgeBottom
)

var edgeNames = []string{"Left", "Right", "Top", "Bottom"}

// Valid reports whether e is one of the four edges.
func (e Edge) Valid() bool {
	return int(e) < len(edgeNames)
}

// IsHorizontal reports whether resizing along e changes the width.
func (e Edge) IsHorizontal() bool {
	return e == EdgeLeft || e == EdgeRight
}

// IsVertical reports whether resizing along e changes the height.
func (e Edge) IsVertical() bool {
	return e == EdgeTop || e == EdgeBottom
}

func (e Edge) String() string {
	if !e.Valid() {
		return "Edge(" + strconv.Itoa(int(e)) + ")"
	}
	return edgeNames[e]
}

// MarshalJSON writes the numeric edge.
func (e Edge) MarshalJSON() ([]byte, error) {
	return json.Marshal(uint8(e))
}

// UnmarshalJSON accepts an integer or a case-insensitive name.
func (e *Edge) UnmarshalJSON(data []byte) error {
	v, err := parseEnum(data, "edge", edgeNames)
	if err != nil {
		return err
	}
	*e = Edge(v)
	return nil
}
