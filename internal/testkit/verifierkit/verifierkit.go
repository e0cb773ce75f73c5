// Package verifierkit builds seeded verifiers for service and transport
// tests.
package verifierkit

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-logr/logr/testr"

	"github.com/louisbranch/renovation-rumble/internal/services/verifier/service"
	"github.com/louisbranch/renovation-rumble/internal/services/verifier/storage/sqlite"
)

// CatalogJSON holds a 1x1 piece (1), a 2x2 square (2) and a 5x1 bar (42).
const CatalogJSON = `{
  "catalogVersion": 3,
  "pieces": [
    {"pieceId": 1, "styleId": 0, "defaultContents": [[1]]},
    {"pieceId": 2, "styleId": 1, "defaultContents": [[1, 1], [1, 1]]},
    {"pieceId": 42, "styleId": 7, "defaultContents": [[1, 1, 1, 1, 1]]}
  ]
}`

// BarMatchJSON is a 5x5 board whose wheel holds only the bar.
const BarMatchJSON = `{"boardWidth": 5, "boardHeight": 5, "startingPieces": [42]}`

// BarCommandsJSON places the bar on the top row, ending the match with a
// score of 5.
const BarCommandsJSON = `[{"type": "Place", "pieceId": 42, "position": {"x": 0, "y": 0}, "orientation": "Up"}]`

// VerifyBody returns a verify request for the bar match claiming score.
func VerifyBody(score string) []byte {
	return []byte(`{"match": ` + BarMatchJSON + `, "claimedScore": ` + score + `, "commands": ` + BarCommandsJSON + `}`)
}

// BatchBody wraps verify bodies in a batch request.
func BatchBody(bodies ...[]byte) []byte {
	parts := make([]string, 0, len(bodies))
	for _, b := range bodies {
		parts = append(parts, string(b))
	}
	return []byte(`{"requests": [` + strings.Join(parts, ", ") + `]}`)
}

// OpenStore opens a fresh SQLite store under t.TempDir.
func OpenStore(t testing.TB) *sqlite.Store {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// NewVerifier returns a verifier whose store holds CatalogJSON.
func NewVerifier(t *testing.T, opts service.Options) *service.Verifier {
	t.Helper()
	v := NewEmptyVerifier(t, opts)
	if _, err := v.ImportCatalog(context.Background(), strings.NewReader(CatalogJSON)); err != nil {
		t.Fatalf("import catalog: %v", err)
	}
	return v
}

// NewEmptyVerifier returns a verifier with no catalog imported.
func NewEmptyVerifier(t *testing.T, opts service.Options) *service.Verifier {
	t.Helper()
	if opts.Logger.GetSink() == nil {
		opts.Logger = testr.New(t)
	}
	v, err := service.New(OpenStore(t), nil, opts)
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}
	return v
}
