package catalog

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/louisbranch/renovation-rumble/internal/services/verifier/domain/grid"
)

type pieceDocument struct {
	PieceID         uint16         `json:"pieceId"`
	StyleID         uint16         `json:"styleId"`
	DefaultContents grid.BitMatrix `json:"defaultContents"`
}

type catalogDocument struct {
	CatalogVersion int             `json:"catalogVersion"`
	Pieces         []pieceDocument `json:"pieces"`
}

// Decode reads a catalog document:
//
//	{"catalogVersion": 1, "pieces": [{"pieceId": 1, "styleId": 0, "defaultContents": [[1,1]]}]}
func Decode(r io.Reader) (*Catalog, error) {
	var doc catalogDocument
	dec := json.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	pieces := make([]Piece, 0, len(doc.Pieces))
	for _, p := range doc.Pieces {
		pieces = append(pieces, Piece{ID: p.PieceID, StyleID: p.StyleID, Contents: p.DefaultContents})
	}
	return New(doc.CatalogVersion, pieces)
}

// Encode writes c in the document shape accepted by Decode.
func Encode(w io.Writer, c *Catalog) error {
	doc := catalogDocument{CatalogVersion: c.Version(), Pieces: make([]pieceDocument, 0, c.Len())}
	for _, p := range c.Pieces() {
		doc.Pieces = append(doc.Pieces, pieceDocument{PieceID: p.ID, StyleID: p.StyleID, DefaultContents: p.Contents})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}
	return nil
}
