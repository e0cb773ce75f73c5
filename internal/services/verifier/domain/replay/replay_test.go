package replay

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/go-logr/logr/testr"

	"github.com/louisbranch/renovation-rumble/internal/services/verifier/domain/catalog"
	"github.com/louisbranch/renovation-rumble/internal/services/verifier/domain/command"
	"github.com/louisbranch/renovation-rumble/internal/services/verifier/domain/engine"
	"github.com/louisbranch/renovation-rumble/internal/services/verifier/domain/grid"
	"github.com/louisbranch/renovation-rumble/internal/services/verifier/domain/rules"
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.New(3, []catalog.Piece{
		{ID: 1, Contents: grid.MustBitMatrix(1, 1, 1)},
		{ID: 42, StyleID: 7, Contents: grid.MustBitMatrix(5, 1, 0b11111)},
	})
	if err != nil {
		t.Fatalf("new catalog: %v", err)
	}
	return cat
}

func barRequest(claimed uint32) Request {
	return Request{
		Match:        &engine.MatchConfig{BoardWidth: 5, BoardHeight: 5, StartingPieces: []uint16{42}},
		ClaimedScore: claimed,
		Commands:     []command.Command{&command.Place{PieceID: 42, Position: grid.Pos(0, 0)}},
	}
}

func TestVerifyOk(t *testing.T) {
	resp := Verify(testCatalog(t), barRequest(5), Options{Logger: testr.New(t)})
	if resp.Status != StatusOk {
		t.Fatalf("expected Ok, got %v: %s", resp.Status, resp.Message)
	}
	if resp.ComputedScore != 5 || resp.EndReason != rules.EndReasonWheelEmpty {
		t.Fatalf("expected score 5 and WheelEmpty, got %d %v", resp.ComputedScore, resp.EndReason)
	}
	if resp.Message != MessageVerified || resp.CommandIndex != 0 {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestVerifyScoreMismatch(t *testing.T) {
	resp := Verify(testCatalog(t), barRequest(9), Options{})
	if resp.Status != StatusScoreMismatch {
		t.Fatalf("expected ScoreMismatch, got %v", resp.Status)
	}
	if resp.ComputedScore != 5 || resp.EndReason != rules.EndReasonWheelEmpty {
		t.Fatalf("expected computed score and reason, got %+v", resp)
	}
}

func TestVerifyInvalidInput(t *testing.T) {
	tooMany := barRequest(5)
	tooMany.Commands = append(tooMany.Commands, &command.Place{PieceID: 1})

	tests := []struct {
		name string
		req  Request
		opts Options
		msg  string
	}{
		{name: "missing match", req: Request{Commands: barRequest(5).Commands}, msg: MessageMissingInput},
		{name: "empty commands", req: Request{Match: barRequest(5).Match}, msg: MessageMissingInput},
		{name: "too many commands", req: tooMany, opts: Options{MaxCommands: 1}, msg: "Too many commands"},
		{
			name: "unknown starting piece",
			req: Request{
				Match:    &engine.MatchConfig{BoardWidth: 3, BoardHeight: 3, StartingPieces: []uint16{77}},
				Commands: barRequest(5).Commands,
			},
			msg: "Invalid match",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := Verify(testCatalog(t), tc.req, tc.opts)
			if resp.Status != StatusInvalidInput {
				t.Fatalf("expected InvalidInput, got %v", resp.Status)
			}
			if !strings.HasPrefix(resp.Message, tc.msg) {
				t.Fatalf("expected message starting %q, got %q", tc.msg, resp.Message)
			}
			if resp.CommandIndex != NoCommand {
				t.Fatalf("expected no command index, got %d", resp.CommandIndex)
			}
		})
	}
}

func TestVerifySimulationError(t *testing.T) {
	req := barRequest(5)
	req.Commands = []command.Command{&command.Grow{PieceBoardIndex: 4, Edge: grid.EdgeLeft}}
	resp := Verify(testCatalog(t), req, Options{})
	if resp.Status != StatusSimulationError {
		t.Fatalf("expected SimulationError, got %v", resp.Status)
	}
	if !strings.HasPrefix(resp.Message, "Command failed: ValidationException") {
		t.Fatalf("unexpected message %q", resp.Message)
	}
	if resp.CommandIndex != 0 {
		t.Fatalf("expected failing index 0, got %d", resp.CommandIndex)
	}
}

func TestVerifyDidNotEnd(t *testing.T) {
	req := Request{
		Match:    &engine.MatchConfig{BoardWidth: 5, BoardHeight: 5, StartingPieces: []uint16{1, 1}},
		Commands: []command.Command{&command.Place{PieceID: 1}},
	}
	resp := Verify(testCatalog(t), req, Options{})
	if resp.Status != StatusDidNotEnd || resp.Message != MessageDidNotEnd {
		t.Fatalf("expected DidNotEnd, got %+v", resp)
	}
}

func TestVerifyRejectedCommandIsSkipped(t *testing.T) {
	req := barRequest(5)
	req.Commands = []command.Command{
		&command.Place{PieceID: 42, Position: grid.Pos(1, 0)},
		&command.Place{PieceID: 42, Position: grid.Pos(0, 4)},
		&command.Place{PieceID: 42, Position: grid.Pos(0, 0)},
	}
	resp := Verify(testCatalog(t), req, Options{})
	if resp.Status != StatusOk {
		t.Fatalf("expected Ok after a rejected command, got %v: %s", resp.Status, resp.Message)
	}
	if resp.CommandIndex != 1 {
		t.Fatalf("expected the match to end at command 1, got %d", resp.CommandIndex)
	}
}

func TestVerifyIsDeterministic(t *testing.T) {
	cat := testCatalog(t)
	first := Verify(cat, barRequest(5), Options{})
	for range 10 {
		if got := Verify(cat, barRequest(5), Options{}); got != first {
			t.Fatalf("expected identical verdicts, got %+v and %+v", first, got)
		}
	}
}

func TestDecodeRequest(t *testing.T) {
	registry, err := command.DefaultRegistry()
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	codec := command.NewCodec(registry)
	body := `{
		"match": {"boardWidth": 5, "boardHeight": 5, "startingPieces": [42]},
		"claimedScore": 5,
		"commands": [{"Type": "place", "pieceId": 42, "position": {"x": 0, "y": 2}, "orientation": "Up"}],
		"grant": "token"
	}`
	req, err := DecodeRequest([]byte(body), codec)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if req.Match == nil || req.Match.BoardWidth != 5 || req.ClaimedScore != 5 || req.Grant != "token" {
		t.Fatalf("unexpected request %+v", req)
	}
	if resp := Verify(testCatalog(t), req, Options{}); resp.Status != StatusOk {
		t.Fatalf("expected decoded request to verify, got %v", resp.Status)
	}

	encoded, err := EncodeRequest(req, codec)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	again, err := DecodeRequest(encoded, codec)
	if err != nil {
		t.Fatalf("decode encoded: %v", err)
	}
	place, ok := again.Commands[0].(*command.Place)
	if !ok || place.Position != grid.Pos(0, 2) || again.Grant != "token" {
		t.Fatalf("unexpected re-decoded request %+v", again)
	}

	empty, err := DecodeRequest([]byte(`{"claimedScore": 1}`), codec)
	if err != nil {
		t.Fatalf("decode empty: %v", err)
	}
	if empty.Match != nil || empty.Commands != nil {
		t.Fatalf("expected missing fields to stay nil, got %+v", empty)
	}

	maxScore, err := DecodeRequest([]byte(`{"claimedScore": 4294967295}`), codec)
	if err != nil {
		t.Fatalf("decode max score: %v", err)
	}
	if maxScore.ClaimedScore != math.MaxUint32 {
		t.Fatalf("expected max uint32 score, got %d", maxScore.ClaimedScore)
	}

	bad := []string{`[]`, `{"claimedScore": -1}`, `{"claimedScore": 1.5}`, `{"claimedScore": 4294967296}`, `{"claimedScore": 1e20}`, `{"commands": [{"pieceId": 1}]}`, `{"grant": 3}`, `{`}
	for _, body := range bad {
		if _, err := DecodeRequest([]byte(body), codec); err == nil {
			t.Fatalf("expected error for %s", body)
		}
	}
	if _, err := DecodeRequest([]byte(`{"commands": [{}]}`), codec); !errors.Is(err, command.ErrDiscriminatorMissing) {
		t.Fatalf("expected ErrDiscriminatorMissing, got %v", err)
	}
}

func TestVerifyBatch(t *testing.T) {
	reqs := []Request{barRequest(5), barRequest(1), {}, barRequest(5)}
	got, err := VerifyBatch(context.Background(), testCatalog(t), reqs, Options{}, 2)
	if err != nil {
		t.Fatalf("verify batch: %v", err)
	}
	want := []Status{StatusOk, StatusScoreMismatch, StatusInvalidInput, StatusOk}
	for i, status := range want {
		if got[i].Status != status {
			t.Fatalf("expected %v at %d, got %v", status, i, got[i].Status)
		}
	}
}

func TestVerifyBatchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := VerifyBatch(ctx, testCatalog(t), []Request{barRequest(5)}, Options{}, 1)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
