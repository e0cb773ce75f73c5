// Package mcpserver exposes the verifier as Model Context Protocol tools.
package mcpserver

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"google.golang.org/grpc"

	platformgrpc "github.com/louisbranch/renovation-rumble/internal/platform/grpc"
	verifiergrpc "github.com/louisbranch/renovation-rumble/internal/services/verifier/api/grpc/verifier"
)

const (
	serverName    = "renovation-rumble verifier"
	serverVersion = "0.1.0"
)

// Server hosts the verifier tools on an MCP transport.
type Server struct {
	mcpServer *mcp.Server
	conn      *grpc.ClientConn
}

// New registers the verifier tools over backend.
func New(backend Backend) (*Server, error) {
	if backend == nil {
		return nil, errors.New("MCP backend is required")
	}
	mcpServer := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, nil)
	mcp.AddTool(mcpServer, VerifyMatchTool(), VerifyMatchHandler(backend))
	mcp.AddTool(mcpServer, GetPieceTool(), GetPieceHandler(backend))
	mcp.AddTool(mcpServer, ListPiecesTool(), ListPiecesHandler(backend))
	return &Server{mcpServer: mcpServer}, nil
}

// Dial connects to the verifier gRPC API at addr and serves the tools
// through it. The connection is released by Close or when Serve returns.
func Dial(ctx context.Context, addr string, logf func(string, ...any)) (*Server, error) {
	conn, err := platformgrpc.Dial(ctx, addr, logf)
	if err != nil {
		return nil, fmt.Errorf("connect to verifier at %s: %w", addr, err)
	}
	s, err := New(NewRemoteBackend(verifiergrpc.NewClient(conn)))
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	s.conn = conn
	return s, nil
}

// Serve runs the server over stdio until ctx ends or the client hangs up.
func (s *Server) Serve(ctx context.Context) error {
	return s.serveWithTransport(ctx, &mcp.StdioTransport{})
}

// Close releases the gRPC connection held by the server.
func (s *Server) Close() error {
	if s == nil || s.conn == nil {
		return nil
	}
	if err := s.conn.Close(); err != nil {
		return err
	}
	s.conn = nil
	return nil
}

func (s *Server) serveWithTransport(ctx context.Context, transport mcp.Transport) error {
	if s == nil || s.mcpServer == nil {
		return fmt.Errorf("MCP server is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	err := s.mcpServer.Run(ctx, transport)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		err = nil
	}
	closeErr := s.Close()
	if closeErr != nil {
		if err == nil {
			return fmt.Errorf("close gRPC connection: %w", closeErr)
		}
		return fmt.Errorf("serve MCP: %v; close gRPC connection: %w", err, closeErr)
	}
	if err != nil {
		return fmt.Errorf("serve MCP: %w", err)
	}
	return nil
}
