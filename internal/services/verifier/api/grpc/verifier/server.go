package verifier

import (
	"context"
	"encoding/json"
	"math"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	apperrors "github.com/louisbranch/renovation-rumble/internal/platform/errors"
	"github.com/louisbranch/renovation-rumble/internal/platform/i18n"
	"github.com/louisbranch/renovation-rumble/internal/platform/requestctx"
	"github.com/louisbranch/renovation-rumble/internal/services/verifier/service"
	"github.com/louisbranch/renovation-rumble/internal/services/verifier/storage"
)

// Server adapts a service.Verifier to VerifierServer.
type Server struct {
	svc       *service.Verifier
	localizer *i18n.Localizer
}

var _ VerifierServer = (*Server)(nil)

// NewServer returns a gRPC server over svc. A nil localizer uses the
// embedded catalogs.
func NewServer(svc *service.Verifier, localizer *i18n.Localizer) *Server {
	if localizer == nil {
		localizer = i18n.Default()
	}
	return &Server{svc: svc, localizer: localizer}
}

// Verify judges one recorded match.
func (s *Server) Verify(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	body, err := protojson.Marshal(in)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "encode request: %v", err)
	}
	verdict, err := s.svc.Verify(ctx, body)
	if err != nil {
		return nil, s.status(ctx, err)
	}
	return toStruct(verdict.Document(s.localizer, s.locale(ctx)))
}

// VerifyBatch judges {"requests": [...]}.
func (s *Server) VerifyBatch(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	body, err := protojson.Marshal(in)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "encode request: %v", err)
	}
	verdicts, err := s.svc.VerifyBatch(ctx, body)
	if err != nil {
		return nil, s.status(ctx, err)
	}
	return toStruct(service.NewBatchDocument(verdicts, s.localizer, s.locale(ctx)))
}

// GetPiece returns {"pieceId": n}.
func (s *Server) GetPiece(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	pieceID, err := pieceIDField(in)
	if err != nil {
		return nil, s.status(ctx, err)
	}
	p, err := s.svc.GetPiece(ctx, pieceID)
	if err != nil {
		return nil, s.status(ctx, err)
	}
	return toStruct(service.NewPieceDocument(p))
}

// ListPieces pages through the catalog.
func (s *Server) ListPieces(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	fields := in.GetFields()
	query := storage.PieceQuery{
		PageSize:  int(fields["pageSize"].GetNumberValue()),
		PageToken: fields["pageToken"].GetStringValue(),
		Filter:    fields["filter"].GetStringValue(),
	}
	page, err := s.svc.ListPieces(ctx, query)
	if err != nil {
		return nil, s.status(ctx, err)
	}
	return toStruct(service.NewPiecePageDocument(page))
}

func (s *Server) locale(ctx context.Context) string {
	if locale := requestctx.Locale(ctx); locale != "" {
		return locale
	}
	return i18n.BaseLocale
}

func (s *Server) status(ctx context.Context, err error) error {
	return apperrors.GRPCStatus(err, s.locale(ctx))
}

func pieceIDField(in *structpb.Struct) (uint16, error) {
	value, ok := in.GetFields()["pieceId"]
	if !ok {
		return 0, apperrors.WithMetadata(apperrors.CodeInvalidInput, "pieceId is required", map[string]string{"Reason": "pieceId is required"})
	}
	n := value.GetNumberValue()
	if _, isNumber := value.GetKind().(*structpb.Value_NumberValue); !isNumber || n < 0 || n > math.MaxUint16 || n != math.Trunc(n) {
		return 0, apperrors.WithMetadata(apperrors.CodeInvalidInput, "pieceId must be a 16-bit integer", map[string]string{"Reason": "pieceId must be a 16-bit integer"})
	}
	return uint16(n), nil
}

// toStruct converts a JSON document into a Struct.
func toStruct(doc any) (*structpb.Struct, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(data, out); err != nil {
		return nil, status.Errorf(codes.Internal, "decode response: %v", err)
	}
	return out, nil
}
