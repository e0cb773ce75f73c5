package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-logr/logr/testr"

	"github.com/louisbranch/renovation-rumble/internal/platform/httpx"
	"github.com/louisbranch/renovation-rumble/internal/services/verifier/service"
	"github.com/louisbranch/renovation-rumble/internal/testkit/verifierkit"
)

func newTestHandler(t *testing.T, opts Options) http.Handler {
	t.Helper()
	opts.Logger = testr.New(t)
	return NewHandler(verifierkit.NewVerifier(t, service.Options{}), opts)
}

func serve(t *testing.T, h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %s: %v", rec.Body.String(), err)
	}
	return out
}

func TestVerifyEndpoint(t *testing.T) {
	h := newTestHandler(t, Options{})
	req := httptest.NewRequest(http.MethodPost, "/verify", bytes.NewReader(verifierkit.VerifyBody("5")))
	rec := serve(t, h, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	got := decode[map[string]any](t, rec)
	if got["status"] != "Ok" || got["computedScore"] != float64(5) || got["endReason"] != "WheelEmpty" {
		t.Fatalf("unexpected verdict %v", got)
	}
	if got["localizedMessage"] != "The claimed score was verified" {
		t.Fatalf("unexpected localized message %v", got["localizedMessage"])
	}
	if rec.Header().Get(httpx.RequestIDHeader) == "" {
		t.Fatal("expected a request id header")
	}
}

func TestVerifyEndpointNegotiatesLocale(t *testing.T) {
	h := newTestHandler(t, Options{})
	req := httptest.NewRequest(http.MethodPost, "/verify?lang=pt-BR", bytes.NewReader(verifierkit.VerifyBody("2")))
	rec := serve(t, h, req)
	got := decode[map[string]any](t, rec)
	if got["status"] != "ScoreMismatch" {
		t.Fatalf("expected ScoreMismatch, got %v", got["status"])
	}
	if got["localizedMessage"] != "A pontuação informada não confere com a reprodução" {
		t.Fatalf("unexpected localized message %v", got["localizedMessage"])
	}
	if rec.Header().Get("Content-Language") != "pt-BR" {
		t.Fatalf("expected Content-Language pt-BR, got %q", rec.Header().Get("Content-Language"))
	}
}

func TestVerifyEndpointErrors(t *testing.T) {
	h := newTestHandler(t, Options{BodyLimit: 64})

	rec := serve(t, h, httptest.NewRequest(http.MethodGet, "/verify", nil))
	if rec.Code != http.StatusMethodNotAllowed || rec.Header().Get("Allow") != http.MethodPost {
		t.Fatalf("expected 405 with Allow POST, got %d", rec.Code)
	}

	rec = serve(t, h, httptest.NewRequest(http.MethodPost, "/verify", strings.NewReader(`{"grant": 1}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	doc := decode[ErrorDocument](t, rec)
	if doc.Error.Code != "INVALID_INPUT" || !strings.HasPrefix(doc.Error.Message, "The request is invalid: ") {
		t.Fatalf("unexpected error %+v", doc.Error)
	}
	if doc.Error.RequestID == "" {
		t.Fatal("expected request id in error body")
	}

	rec = serve(t, h, httptest.NewRequest(http.MethodPost, "/verify", bytes.NewReader(verifierkit.VerifyBody("5"))))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rec.Code)
	}
}

func TestVerifyBatchEndpoint(t *testing.T) {
	h := newTestHandler(t, Options{})
	body := verifierkit.BatchBody(verifierkit.VerifyBody("5"), []byte(`{}`))
	rec := serve(t, h, httptest.NewRequest(http.MethodPost, "/verify/batch", bytes.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	doc := decode[service.BatchDocument](t, rec)
	if len(doc.Verdicts) != 2 {
		t.Fatalf("expected 2 verdicts, got %d", len(doc.Verdicts))
	}
	if doc.Verdicts[1].Status.String() != "InvalidInput" || doc.Verdicts[1].CommandIndex != -1 {
		t.Fatalf("unexpected second verdict %+v", doc.Verdicts[1])
	}
}

func TestPieceEndpoints(t *testing.T) {
	h := newTestHandler(t, Options{})

	rec := serve(t, h, httptest.NewRequest(http.MethodGet, "/pieces/2", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	piece := decode[service.PieceDocument](t, rec)
	if piece.PieceID != 2 || piece.Cells != 4 {
		t.Fatalf("unexpected piece %+v", piece)
	}

	rec = serve(t, h, httptest.NewRequest(http.MethodGet, "/pieces/99", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if doc := decode[ErrorDocument](t, rec); doc.Error.Message != "Piece 99 does not exist" {
		t.Fatalf("unexpected message %q", doc.Error.Message)
	}

	rec = serve(t, h, httptest.NewRequest(http.MethodGet, "/pieces/abc", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a bad id, got %d", rec.Code)
	}

	rec = serve(t, h, httptest.NewRequest(http.MethodGet, "/pieces?pageSize=2&filter=height%20%3D%201", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	page := decode[service.PiecePageDocument](t, rec)
	if len(page.Pieces) != 2 || page.Pieces[0].PieceID != 1 || page.Pieces[1].PieceID != 42 || page.NextPageToken != "" {
		t.Fatalf("unexpected page %+v", page)
	}

	rec = serve(t, h, httptest.NewRequest(http.MethodGet, "/pieces?filter=oops%20%3D", nil))
	if rec.Code != http.StatusBadRequest || decode[ErrorDocument](t, rec).Error.Code != "FILTER_INVALID" {
		t.Fatalf("expected FILTER_INVALID 400, got %d %s", rec.Code, rec.Body.String())
	}

	rec = serve(t, h, httptest.NewRequest(http.MethodGet, "/pieces?pageSize=many", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a bad page size, got %d", rec.Code)
	}
}

func TestHealthEndpoint(t *testing.T) {
	h := newTestHandler(t, Options{})
	rec := serve(t, h, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := decode[healthDocument](t, rec); got.Status != "ok" || got.CatalogVersion != 3 || got.Pieces != 3 {
		t.Fatalf("unexpected health %+v", got)
	}

	empty := NewHandler(verifierkit.NewEmptyVerifier(t, service.Options{}), Options{})
	rec = serve(t, empty, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without a catalog, got %d", rec.Code)
	}
}
