package filter

import (
	"errors"
	"testing"
)

func TestParseEmpty(t *testing.T) {
	cond, err := Parse("  ")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !cond.IsEmpty() || len(cond.Params) != 0 {
		t.Fatalf("expected empty condition, got %+v", cond)
	}
}

func TestParseComparison(t *testing.T) {
	cond, err := Parse("width >= 2")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cond.Clause != "width >= ?" {
		t.Fatalf("expected width clause, got %q", cond.Clause)
	}
	if len(cond.Params) != 1 || cond.Params[0] != int64(2) {
		t.Fatalf("expected param 2, got %v", cond.Params)
	}
}

func TestParseCellsMapsToColumn(t *testing.T) {
	cond, err := Parse("cells = 4")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cond.Clause != "cell_count = ?" {
		t.Fatalf("expected cell_count clause, got %q", cond.Clause)
	}
}

func TestParseConjunction(t *testing.T) {
	cond, err := Parse("style_id = 7 AND height < 3")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cond.Clause != "(style_id = ? AND height < ?)" {
		t.Fatalf("unexpected clause %q", cond.Clause)
	}
	if len(cond.Params) != 2 || cond.Params[0] != int64(7) || cond.Params[1] != int64(3) {
		t.Fatalf("unexpected params %v", cond.Params)
	}
}

func TestParseDisjunction(t *testing.T) {
	cond, err := Parse("piece_id = 1 OR piece_id = 42")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cond.Clause != "(piece_id = ? OR piece_id = ?)" {
		t.Fatalf("unexpected clause %q", cond.Clause)
	}
}

func TestParseRejects(t *testing.T) {
	for _, input := range []string{
		"color = 3",
		"width = \"wide\"",
		"width >",
	} {
		if _, err := Parse(input); !errors.Is(err, ErrInvalidFilter) {
			t.Fatalf("expected ErrInvalidFilter for %q, got %v", input, err)
		}
	}
}
