package grid

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// MarshalJSON writes the matrix as an array of rows of 0/1 integers.
func (m BitMatrix) MarshalJSON() ([]byte, error) {
	rows := make([][]int, m.height)
	for y := range m.height {
		row := make([]int, m.width)
		for x := range m.width {
			if m.Filled(x, y) {
				row[x] = 1
			}
		}
		rows[y] = row
	}
	return json.Marshal(rows)
}

// UnmarshalJSON reads an array of equal-length rows whose cells are 0/1 or
// booleans.
func (m *BitMatrix) UnmarshalJSON(data []byte) error {
	var raw [][]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode matrix: %w", err)
	}
	rows := make([][]bool, len(raw))
	for y, cells := range raw {
		rows[y] = make([]bool, len(cells))
		for x, cell := range cells {
			filled, err := parseCell(cell)
			if err != nil {
				return fmt.Errorf("decode matrix cell (%d,%d): %w", x, y, err)
			}
			rows[y][x] = filled
		}
	}
	parsed, err := FromRows(rows)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

func parseCell(cell json.RawMessage) (bool, error) {
	switch string(bytes.TrimSpace(cell)) {
	case "0", "false":
		return false, nil
	case "1", "true":
		return true, nil
	default:
		return false, fmt.Errorf("expected 0, 1, true or false, got %s", cell)
	}
}
