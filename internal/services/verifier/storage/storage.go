// Package storage defines the persistence contracts for the piece catalog.
//
// The verifier reads pieces through PieceStore and swaps whole catalogs
// through CatalogStore; concrete backends live in subpackages.
package storage

import (
	"context"

	apperrors "github.com/louisbranch/renovation-rumble/internal/platform/errors"
	"github.com/louisbranch/renovation-rumble/internal/services/verifier/domain/catalog"
)

// ErrNotFound indicates a requested piece is not stored.
var ErrNotFound = apperrors.New(apperrors.CodePieceNotFound, "piece not found")

// ErrCatalogEmpty indicates no catalog has been imported yet.
var ErrCatalogEmpty = apperrors.New(apperrors.CodeCatalogEmpty, "catalog is empty")

// PieceQuery selects a page of pieces ordered by piece id.
type PieceQuery struct {
	PageSize  int
	PageToken string
	// Filter is an AIP-160 expression over piece_id, style_id, width,
	// height and cells.
	Filter string
}

// PiecePage is one page of a ListPieces result.
type PiecePage struct {
	Pieces        []catalog.Piece
	NextPageToken string
}

// PieceStore reads individual pieces.
type PieceStore interface {
	GetPiece(ctx context.Context, id uint16) (catalog.Piece, error)
	ListPieces(ctx context.Context, query PieceQuery) (PiecePage, error)
}

// CatalogStore persists whole catalogs.
type CatalogStore interface {
	// ReplaceCatalog atomically swaps the stored catalog for cat.
	ReplaceCatalog(ctx context.Context, cat *catalog.Catalog) error
	// LoadCatalog returns the stored catalog or ErrCatalogEmpty.
	LoadCatalog(ctx context.Context) (*catalog.Catalog, error)
}
