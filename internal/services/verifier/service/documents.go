package service

import (
	"github.com/louisbranch/renovation-rumble/internal/platform/i18n"
	"github.com/louisbranch/renovation-rumble/internal/services/verifier/domain/catalog"
	"github.com/louisbranch/renovation-rumble/internal/services/verifier/domain/grid"
	"github.com/louisbranch/renovation-rumble/internal/services/verifier/domain/replay"
	"github.com/louisbranch/renovation-rumble/internal/services/verifier/domain/rules"
	"github.com/louisbranch/renovation-rumble/internal/services/verifier/storage"
)

// VerdictDocument is the wire form of a Verdict shared by every transport.
type VerdictDocument struct {
	Status           replay.Status   `json:"status"`
	Message          string          `json:"message"`
	LocalizedMessage string          `json:"localizedMessage"`
	ComputedScore    uint32          `json:"computedScore"`
	EndReason        rules.EndReason `json:"endReason"`
	CommandIndex     int             `json:"commandIndex"`
}

// Document renders v for locale.
func (v Verdict) Document(l *i18n.Localizer, locale string) VerdictDocument {
	return VerdictDocument{
		Status:           v.Status,
		Message:          v.Message,
		LocalizedMessage: v.Localize(l, locale),
		ComputedScore:    v.ComputedScore,
		EndReason:        v.EndReason,
		CommandIndex:     v.CommandIndex,
	}
}

// BatchDocument is the wire form of a batch result.
type BatchDocument struct {
	Verdicts []VerdictDocument `json:"verdicts"`
}

// NewBatchDocument renders verdicts for locale.
func NewBatchDocument(verdicts []Verdict, l *i18n.Localizer, locale string) BatchDocument {
	out := BatchDocument{Verdicts: make([]VerdictDocument, 0, len(verdicts))}
	for _, v := range verdicts {
		out.Verdicts = append(out.Verdicts, v.Document(l, locale))
	}
	return out
}

// PieceDocument is the wire form of a catalog piece.
type PieceDocument struct {
	PieceID         uint16         `json:"pieceId"`
	StyleID         uint16         `json:"styleId"`
	Width           uint8          `json:"width"`
	Height          uint8          `json:"height"`
	Cells           int            `json:"cells"`
	DefaultContents grid.BitMatrix `json:"defaultContents"`
}

// NewPieceDocument converts p.
func NewPieceDocument(p catalog.Piece) PieceDocument {
	return PieceDocument{
		PieceID:         p.ID,
		StyleID:         p.StyleID,
		Width:           p.Contents.Width(),
		Height:          p.Contents.Height(),
		Cells:           p.Contents.Count(),
		DefaultContents: p.Contents,
	}
}

// PiecePageDocument is the wire form of a ListPieces page.
type PiecePageDocument struct {
	Pieces        []PieceDocument `json:"pieces"`
	NextPageToken string          `json:"nextPageToken,omitempty"`
}

// NewPiecePageDocument converts page.
func NewPiecePageDocument(page storage.PiecePage) PiecePageDocument {
	out := PiecePageDocument{Pieces: make([]PieceDocument, 0, len(page.Pieces)), NextPageToken: page.NextPageToken}
	for _, p := range page.Pieces {
		out.Pieces = append(out.Pieces, NewPieceDocument(p))
	}
	return out
}
