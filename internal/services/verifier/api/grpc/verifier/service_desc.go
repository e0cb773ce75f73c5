// Package verifier serves the verifier over gRPC.
//
// The service is declared by hand rather than generated: every message is a
// google.protobuf.Struct carrying the same JSON documents the HTTP API uses.
package verifier

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "verifier.v1.VerifierService"

const (
	VerifyFullMethodName      = "/" + ServiceName + "/Verify"
	VerifyBatchFullMethodName = "/" + ServiceName + "/VerifyBatch"
	GetPieceFullMethodName    = "/" + ServiceName + "/GetPiece"
	ListPiecesFullMethodName  = "/" + ServiceName + "/ListPieces"
)

// VerifierServer is the server API for the verifier service.
type VerifierServer interface {
	Verify(context.Context, *structpb.Struct) (*structpb.Struct, error)
	VerifyBatch(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetPiece(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListPieces(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// ServiceDesc describes the verifier service for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*VerifierServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Verify", Handler: unaryHandler(VerifyFullMethodName, VerifierServer.Verify)},
		{MethodName: "VerifyBatch", Handler: unaryHandler(VerifyBatchFullMethodName, VerifierServer.VerifyBatch)},
		{MethodName: "GetPiece", Handler: unaryHandler(GetPieceFullMethodName, VerifierServer.GetPiece)},
		{MethodName: "ListPieces", Handler: unaryHandler(ListPiecesFullMethodName, VerifierServer.ListPieces)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "verifier/v1/verifier.proto",
}

// RegisterVerifierServer registers srv on s.
func RegisterVerifierServer(s grpc.ServiceRegistrar, srv VerifierServer) {
	s.RegisterService(&ServiceDesc, srv)
}

type unaryMethod func(VerifierServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, method unaryMethod) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return method(srv.(VerifierServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return method(srv.(VerifierServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// Client calls the verifier service.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient returns a client over cc.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// Verify judges one recorded match.
func (c *Client) Verify(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, VerifyFullMethodName, in, opts...)
}

// VerifyBatch judges {"requests": [...]}.
func (c *Client) VerifyBatch(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, VerifyBatchFullMethodName, in, opts...)
}

// GetPiece fetches {"pieceId": n}.
func (c *Client) GetPiece(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, GetPieceFullMethodName, in, opts...)
}

// ListPieces pages through {"pageSize", "pageToken", "filter"}.
func (c *Client) ListPieces(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, ListPiecesFullMethodName, in, opts...)
}
