package service_test

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"errors"
	"strings"
	"testing"
	"time"

	apperrors "github.com/louisbranch/renovation-rumble/internal/platform/errors"
	"github.com/louisbranch/renovation-rumble/internal/platform/i18n"
	"github.com/louisbranch/renovation-rumble/internal/services/verifier/domain/engine"
	"github.com/louisbranch/renovation-rumble/internal/services/verifier/domain/replay"
	"github.com/louisbranch/renovation-rumble/internal/services/verifier/matchgrant"
	"github.com/louisbranch/renovation-rumble/internal/services/verifier/service"
	"github.com/louisbranch/renovation-rumble/internal/services/verifier/storage"
	"github.com/louisbranch/renovation-rumble/internal/testkit/verifierkit"
)

func TestNewRequiresStore(t *testing.T) {
	if _, err := service.New(nil, nil, service.Options{}); err == nil {
		t.Fatal("expected error without a store")
	}
}

func TestVerifyOk(t *testing.T) {
	v := verifierkit.NewVerifier(t, service.Options{})
	verdict, err := v.Verify(context.Background(), verifierkit.VerifyBody("5"))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if verdict.Status != replay.StatusOk || verdict.ComputedScore != 5 {
		t.Fatalf("expected Ok with score 5, got %+v", verdict.Response)
	}
	if verdict.MessageKey != "verdict.Ok" {
		t.Fatalf("expected verdict.Ok key, got %q", verdict.MessageKey)
	}
	if got := verdict.Localize(i18n.Default(), "en-US"); got != "The claimed score was verified" {
		t.Fatalf("unexpected localized message %q", got)
	}
}

func TestVerifyScoreMismatch(t *testing.T) {
	v := verifierkit.NewVerifier(t, service.Options{})
	verdict, err := v.Verify(context.Background(), verifierkit.VerifyBody("7"))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if verdict.Status != replay.StatusScoreMismatch || verdict.MessageKey != "verdict.ScoreMismatch" {
		t.Fatalf("expected ScoreMismatch, got %+v", verdict)
	}
}

func TestVerifyMalformedBody(t *testing.T) {
	v := verifierkit.NewVerifier(t, service.Options{})
	_, err := v.Verify(context.Background(), []byte(`{"claimedScore": "five"}`))
	if apperrors.CodeOf(err) != apperrors.CodeInvalidInput {
		t.Fatalf("expected INVALID_INPUT, got %v", err)
	}
	if !errors.Is(err, replay.ErrInvalidField) {
		t.Fatalf("expected ErrInvalidField in chain, got %v", err)
	}
}

func TestVerifyWithoutCatalog(t *testing.T) {
	v := verifierkit.NewEmptyVerifier(t, service.Options{})
	_, err := v.Verify(context.Background(), verifierkit.VerifyBody("5"))
	if apperrors.CodeOf(err) != apperrors.CodeCatalogEmpty {
		t.Fatalf("expected CATALOG_EMPTY, got %v", err)
	}
}

func TestVerifyCommandLimit(t *testing.T) {
	v := verifierkit.NewVerifier(t, service.Options{MaxCommands: 1})
	body := []byte(`{"match": ` + verifierkit.BarMatchJSON + `, "claimedScore": 5, "commands": [
		{"type": "Place", "pieceId": 42, "position": {"x": 0, "y": 0}},
		{"type": "Place", "pieceId": 42, "position": {"x": 0, "y": 1}}
	]}`)
	verdict, err := v.Verify(context.Background(), body)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if verdict.Status != replay.StatusInvalidInput {
		t.Fatalf("expected InvalidInput, got %v", verdict.Status)
	}
	if got := verdict.Localize(i18n.Default(), "pt-BR"); got != "Uma partida pode ter no máximo 1 comandos" {
		t.Fatalf("unexpected localized message %q", got)
	}
}

func TestVerifyGrants(t *testing.T) {
	public, private, err := ed25519.GenerateKey(bytes.NewReader(bytes.Repeat([]byte{3}, 64)))
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	now := func() time.Time { return time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC) }
	grants := matchgrant.Config{
		Issuer:   matchgrant.DefaultIssuer,
		Audience: matchgrant.DefaultAudience,
		Key:      public,
		Now:      now,
	}
	v := verifierkit.NewVerifier(t, service.Options{Grants: grants})

	_, err = v.Verify(context.Background(), verifierkit.VerifyBody("5"))
	if apperrors.CodeOf(err) != apperrors.CodeMatchGrantRequired {
		t.Fatalf("expected MATCH_GRANT_REQUIRED, got %v", err)
	}

	match := engine.MatchConfig{BoardWidth: 5, BoardHeight: 5, StartingPieces: []uint16{42}}
	token, err := matchgrant.Issue(match, matchgrant.Signer{Key: private, Now: now})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	body := []byte(`{"match": ` + verifierkit.BarMatchJSON + `, "claimedScore": 5, "commands": ` + verifierkit.BarCommandsJSON + `, "grant": "` + token + `"}`)
	verdict, err := v.Verify(context.Background(), body)
	if err != nil {
		t.Fatalf("verify with grant: %v", err)
	}
	if verdict.Status != replay.StatusOk {
		t.Fatalf("expected Ok with a valid grant, got %v", verdict.Status)
	}

	other := strings.Replace(string(body), `"boardWidth": 5`, `"boardWidth": 6`, 1)
	if _, err := v.Verify(context.Background(), []byte(other)); apperrors.CodeOf(err) != apperrors.CodeMatchGrantMismatch {
		t.Fatalf("expected MATCH_GRANT_MISMATCH, got %v", err)
	}
}

func TestVerifyBatch(t *testing.T) {
	v := verifierkit.NewVerifier(t, service.Options{})
	body := verifierkit.BatchBody(
		verifierkit.VerifyBody("5"),
		[]byte(`{"claimedScore": -1}`),
		verifierkit.VerifyBody("4"),
	)
	verdicts, err := v.VerifyBatch(context.Background(), body)
	if err != nil {
		t.Fatalf("verify batch: %v", err)
	}
	if len(verdicts) != 3 {
		t.Fatalf("expected 3 verdicts, got %d", len(verdicts))
	}
	want := []replay.Status{replay.StatusOk, replay.StatusInvalidInput, replay.StatusScoreMismatch}
	for i, status := range want {
		if verdicts[i].Status != status {
			t.Fatalf("expected %v at %d, got %v", status, i, verdicts[i].Status)
		}
	}
	if verdicts[1].MessageKey != string(apperrors.CodeInvalidInput) || verdicts[1].CommandIndex != replay.NoCommand {
		t.Fatalf("unexpected rejected verdict %+v", verdicts[1])
	}
}

func TestVerifyBatchLimits(t *testing.T) {
	v := verifierkit.NewVerifier(t, service.Options{MaxBatch: 1})
	body := verifierkit.BatchBody(verifierkit.VerifyBody("5"), verifierkit.VerifyBody("5"))
	_, err := v.VerifyBatch(context.Background(), body)
	e, ok := apperrors.As(err)
	if !ok || e.Code != apperrors.CodeBatchLimitExceeded || e.Metadata["Limit"] != "1" {
		t.Fatalf("expected BATCH_LIMIT_EXCEEDED with limit 1, got %v", err)
	}

	for _, bad := range []string{`[]`, `{"requests": 3}`, `{"requests": [3]}`, `{`} {
		if _, err := v.VerifyBatch(context.Background(), []byte(bad)); apperrors.CodeOf(err) != apperrors.CodeInvalidInput {
			t.Fatalf("expected INVALID_INPUT for %s, got %v", bad, err)
		}
	}
}

func TestGetPiece(t *testing.T) {
	v := verifierkit.NewVerifier(t, service.Options{})
	p, err := v.GetPiece(context.Background(), 42)
	if err != nil {
		t.Fatalf("get piece: %v", err)
	}
	if p.StyleID != 7 || p.Contents.Width() != 5 {
		t.Fatalf("unexpected piece %+v", p)
	}

	_, err = v.GetPiece(context.Background(), 99)
	e, ok := apperrors.As(err)
	if !ok || e.Code != apperrors.CodePieceNotFound {
		t.Fatalf("expected PIECE_NOT_FOUND, got %v", err)
	}
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected storage.ErrNotFound in chain, got %v", err)
	}
	if got := e.Localize("pt-BR"); got != "A peça 99 não existe" {
		t.Fatalf("unexpected localized message %q", got)
	}
}

func TestListPieces(t *testing.T) {
	v := verifierkit.NewVerifier(t, service.Options{})
	page, err := v.ListPieces(context.Background(), storage.PieceQuery{Filter: "width >= 2"})
	if err != nil {
		t.Fatalf("list pieces: %v", err)
	}
	if len(page.Pieces) != 2 || page.Pieces[0].ID != 2 || page.Pieces[1].ID != 42 {
		t.Fatalf("unexpected page %+v", page)
	}

	if _, err := v.ListPieces(context.Background(), storage.PieceQuery{Filter: "shape = 1"}); apperrors.CodeOf(err) != apperrors.CodeFilterInvalid {
		t.Fatalf("expected FILTER_INVALID, got %v", err)
	}
	if _, err := v.ListPieces(context.Background(), storage.PieceQuery{PageToken: "!"}); apperrors.CodeOf(err) != apperrors.CodePageTokenInvalid {
		t.Fatalf("expected PAGE_TOKEN_INVALID, got %v", err)
	}
}

func TestImportAndReloadCatalog(t *testing.T) {
	v := verifierkit.NewEmptyVerifier(t, service.Options{})
	if _, err := v.ReloadCatalog(context.Background()); !errors.Is(err, storage.ErrCatalogEmpty) {
		t.Fatalf("expected ErrCatalogEmpty, got %v", err)
	}
	if _, err := v.ImportCatalog(context.Background(), strings.NewReader(`{"pieces": [{"pieceId": 1}]}`)); apperrors.CodeOf(err) != apperrors.CodeInvalidInput {
		t.Fatalf("expected INVALID_INPUT for a shapeless piece, got %v", err)
	}
	cat, err := v.ImportCatalog(context.Background(), strings.NewReader(verifierkit.CatalogJSON))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if v.Catalog() != cat || cat.Version() != 3 {
		t.Fatalf("expected imported catalog to be active")
	}
	reloaded, err := v.ReloadCatalog(context.Background())
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Len() != 3 || v.Catalog() != reloaded {
		t.Fatalf("expected reloaded catalog with 3 pieces, got %d", reloaded.Len())
	}
}

func TestDocuments(t *testing.T) {
	v := verifierkit.NewVerifier(t, service.Options{})
	verdict, err := v.Verify(context.Background(), verifierkit.VerifyBody("5"))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	doc := verdict.Document(i18n.Default(), "pt-BR")
	if doc.LocalizedMessage != "A pontuação informada foi verificada" || doc.Message != replay.MessageVerified {
		t.Fatalf("unexpected verdict document %+v", doc)
	}
	batch := service.NewBatchDocument([]service.Verdict{verdict, verdict}, i18n.Default(), "en-US")
	if len(batch.Verdicts) != 2 || batch.Verdicts[1].ComputedScore != 5 {
		t.Fatalf("unexpected batch document %+v", batch)
	}

	p, err := v.GetPiece(context.Background(), 2)
	if err != nil {
		t.Fatalf("get piece: %v", err)
	}
	piece := service.NewPieceDocument(p)
	if piece.Width != 2 || piece.Height != 2 || piece.Cells != 4 || piece.StyleID != 1 {
		t.Fatalf("unexpected piece document %+v", piece)
	}
}
