// Package grid holds the geometric primitives of the board: cell coordinates,
// orientations, edges and the bit-packed shape matrix.
package grid

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Coords addresses a single cell. X grows right and Y grows down.
type Coords struct {
	X uint8
	Y uint8
}

// Pos builds a Coords value.
func Pos(x, y uint8) Coords {
	return Coords{X: x, Y: y}
}

// Offset returns c moved by (dx, dy). The second result is false when the
// result leaves the uint8 range.
func (c Coords) Offset(dx, dy int) (Coords, bool) {
	x := int(c.X) + dx
	y := int(c.Y) + dy
	if x < 0 || y < 0 || x > 255 || y > 255 {
		return Coords{}, false
	}
	return Coords{X: uint8(x), Y: uint8(y)}, true
}

func (c Coords) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}

// MarshalJSON writes coordinates as {"x":..,"y":..}.
func (c Coords) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		X uint8 `json:"x"`
		Y uint8 `json:"y"`
	}{X: c.X, Y: c.Y})
}

// UnmarshalJSON requires both axes and clamps each into [0,255].
func (c *Coords) UnmarshalJSON(data []byte) error {
	var wire struct {
		X *json.Number `json:"x"`
		Y *json.Number `json:"y"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("decode coords: %w", err)
	}
	if wire.X == nil || wire.Y == nil {
		return ErrMissingAxis
	}
	x, err := clampAxis(*wire.X)
	if err != nil {
		return fmt.Errorf("decode coords x: %w", err)
	}
	y, err := clampAxis(*wire.Y)
	if err != nil {
		return fmt.Errorf("decode coords y: %w", err)
	}
	c.X, c.Y = x, y
	return nil
}

// ErrMissingAxis is returned when a coordinate object lacks x or y.
var ErrMissingAxis = errors.New("coords require both x and y")

func clampAxis(n json.Number) (uint8, error) {
	v, err := strconv.ParseFloat(string(n), 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, fmt.Errorf("axis %q is not a number", n)
	}
	underflow := err != nil && !math.IsInf(v, 0)
	if underflow || math.IsNaN(v) || (!math.IsInf(v, 0) && v != math.Trunc(v)) {
		return 0, fmt.Errorf("axis %q is not an integer", n)
	}
	return uint8(min(max(v, 0), 255)), nil
}

// parseEnum accepts either an integer in [0, len(names)) or one of names,
// compared case-insensitively.
func parseEnum(data []byte, kind string, names []string) (int, error) {
	raw := strings.TrimSpace(string(data))
	if strings.HasPrefix(raw, "\"") {
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return 0, fmt.Errorf("decode %s: %w", kind, err)
		}
		for i, candidate := range names {
			if strings.EqualFold(candidate, strings.TrimSpace(name)) {
				return i, nil
			}
		}
		return 0, fmt.Errorf("unknown %s %q", kind, name)
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("decode %s: expected integer or name, got %s", kind, raw)
	}
	if v < 0 || v >= len(names) {
		return 0, fmt.Errorf("%s %d out of range", kind, v)
	}
	return v, nil
}
