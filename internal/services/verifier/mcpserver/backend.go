package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	apperrors "github.com/louisbranch/renovation-rumble/internal/platform/errors"
	"github.com/louisbranch/renovation-rumble/internal/platform/i18n"
	verifiergrpc "github.com/louisbranch/renovation-rumble/internal/services/verifier/api/grpc/verifier"
	"github.com/louisbranch/renovation-rumble/internal/services/verifier/domain/catalog"
	"github.com/louisbranch/renovation-rumble/internal/services/verifier/service"
	"github.com/louisbranch/renovation-rumble/internal/services/verifier/storage"
)

const toolCallTimeout = 5 * time.Second

// Backend answers tool calls, either in-process or through the gRPC API.
type Backend interface {
	Verify(ctx context.Context, body []byte, locale string) (VerifyMatchResult, error)
	GetPiece(ctx context.Context, id uint16) (PieceResult, error)
	ListPieces(ctx context.Context, query storage.PieceQuery) (ListPiecesResult, error)
}

// LocalBackend runs tools against an in-process verifier.
type LocalBackend struct {
	svc       *service.Verifier
	localizer *i18n.Localizer
}

// NewLocalBackend wraps svc. A nil localizer uses the embedded catalogs.
func NewLocalBackend(svc *service.Verifier, localizer *i18n.Localizer) *LocalBackend {
	if localizer == nil {
		localizer = i18n.Default()
	}
	return &LocalBackend{svc: svc, localizer: localizer}
}

func (b *LocalBackend) Verify(ctx context.Context, body []byte, locale string) (VerifyMatchResult, error) {
	verdict, err := b.svc.Verify(ctx, body)
	if err != nil {
		return VerifyMatchResult{}, localError(err, locale)
	}
	doc := verdict.Document(b.localizer, locale)
	return VerifyMatchResult{
		Status:           doc.Status.String(),
		Message:          doc.Message,
		LocalizedMessage: doc.LocalizedMessage,
		ComputedScore:    doc.ComputedScore,
		EndReason:        doc.EndReason.String(),
		CommandIndex:     doc.CommandIndex,
	}, nil
}

func (b *LocalBackend) GetPiece(ctx context.Context, id uint16) (PieceResult, error) {
	piece, err := b.svc.GetPiece(ctx, id)
	if err != nil {
		return PieceResult{}, localError(err, "")
	}
	return pieceResult(piece), nil
}

func (b *LocalBackend) ListPieces(ctx context.Context, query storage.PieceQuery) (ListPiecesResult, error) {
	page, err := b.svc.ListPieces(ctx, query)
	if err != nil {
		return ListPiecesResult{}, localError(err, "")
	}
	out := ListPiecesResult{Pieces: make([]PieceResult, 0, len(page.Pieces)), NextPageToken: page.NextPageToken}
	for _, p := range page.Pieces {
		out.Pieces = append(out.Pieces, pieceResult(p))
	}
	return out, nil
}

func pieceResult(p catalog.Piece) PieceResult {
	doc := service.NewPieceDocument(p)
	rows := make([][]int, doc.Height)
	for y := range doc.Height {
		row := make([]int, doc.Width)
		for x := range doc.Width {
			if p.Contents.Filled(x, y) {
				row[x] = 1
			}
		}
		rows[y] = row
	}
	return PieceResult{
		PieceID:         doc.PieceID,
		StyleID:         doc.StyleID,
		Width:           doc.Width,
		Height:          doc.Height,
		Cells:           doc.Cells,
		DefaultContents: rows,
	}
}

// localError replaces an application error with its user-facing text.
func localError(err error, locale string) error {
	if appErr, ok := apperrors.As(err); ok {
		return fmt.Errorf("%s: %s", appErr.Code, appErr.Localize(locale))
	}
	return err
}

// RemoteBackend runs tools through the verifier gRPC API.
type RemoteBackend struct {
	client *verifiergrpc.Client
}

// NewRemoteBackend wraps client.
func NewRemoteBackend(client *verifiergrpc.Client) *RemoteBackend {
	return &RemoteBackend{client: client}
}

func (b *RemoteBackend) Verify(ctx context.Context, body []byte, locale string) (VerifyMatchResult, error) {
	in := &structpb.Struct{}
	if err := protojson.Unmarshal(body, in); err != nil {
		return VerifyMatchResult{}, fmt.Errorf("encode request: %w", err)
	}
	if locale != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, verifiergrpc.AcceptLanguageHeader, locale)
	}
	out, err := b.client.Verify(ctx, in)
	if err != nil {
		return VerifyMatchResult{}, remoteError(err)
	}
	var result VerifyMatchResult
	if err := fromStruct(out, &result); err != nil {
		return VerifyMatchResult{}, err
	}
	return result, nil
}

func (b *RemoteBackend) GetPiece(ctx context.Context, id uint16) (PieceResult, error) {
	out, err := b.client.GetPiece(ctx, &structpb.Struct{Fields: map[string]*structpb.Value{
		"pieceId": structpb.NewNumberValue(float64(id)),
	}})
	if err != nil {
		return PieceResult{}, remoteError(err)
	}
	var result PieceResult
	if err := fromStruct(out, &result); err != nil {
		return PieceResult{}, err
	}
	return result, nil
}

func (b *RemoteBackend) ListPieces(ctx context.Context, query storage.PieceQuery) (ListPiecesResult, error) {
	fields := map[string]*structpb.Value{}
	if query.PageSize > 0 {
		fields["pageSize"] = structpb.NewNumberValue(float64(query.PageSize))
	}
	if query.PageToken != "" {
		fields["pageToken"] = structpb.NewStringValue(query.PageToken)
	}
	if query.Filter != "" {
		fields["filter"] = structpb.NewStringValue(query.Filter)
	}
	out, err := b.client.ListPieces(ctx, &structpb.Struct{Fields: fields})
	if err != nil {
		return ListPiecesResult{}, remoteError(err)
	}
	var result ListPiecesResult
	if err := fromStruct(out, &result); err != nil {
		return ListPiecesResult{}, err
	}
	return result, nil
}

func fromStruct(in *structpb.Struct, out any) error {
	data, err := protojson.Marshal(in)
	if err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// remoteError prefers the localized message and reason a status carries.
func remoteError(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	var reason, message string
	for _, detail := range st.Details() {
		switch d := detail.(type) {
		case *errdetails.ErrorInfo:
			reason = d.GetReason()
		case *errdetails.LocalizedMessage:
			message = d.GetMessage()
		}
	}
	if reason == "" || message == "" {
		return errors.New(st.Message())
	}
	return fmt.Errorf("%s: %s", reason, message)
}
