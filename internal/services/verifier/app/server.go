// Package server wires the verifier runtime: catalog storage, the shared
// verification service and its gRPC and HTTP listeners.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-logr/logr"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"golang.org/x/net/netutil"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/louisbranch/renovation-rumble/internal/platform/config"
	"github.com/louisbranch/renovation-rumble/internal/platform/i18n"
	"github.com/louisbranch/renovation-rumble/internal/platform/timeouts"
	verifiergrpc "github.com/louisbranch/renovation-rumble/internal/services/verifier/api/grpc/verifier"
	httpapi "github.com/louisbranch/renovation-rumble/internal/services/verifier/api/http"
	"github.com/louisbranch/renovation-rumble/internal/services/verifier/matchgrant"
	"github.com/louisbranch/renovation-rumble/internal/services/verifier/service"
	"github.com/louisbranch/renovation-rumble/internal/services/verifier/storage"
	verifiersqlite "github.com/louisbranch/renovation-rumble/internal/services/verifier/storage/sqlite"
)

// DefaultMaxConnections caps concurrent HTTP connections.
const DefaultMaxConnections = 256

// Config configures a verifier server.
type Config struct {
	GRPCAddr string
	HTTPAddr string
	// DBPath defaults to catalog.db under the XDG data directory.
	DBPath string
	// CatalogPath, when set, is imported into the store at startup.
	CatalogPath      string
	MaxCommands      int
	MaxBatch         int
	BatchConcurrency int
	MaxConnections   int
	BodyLimit        int64
	Grants           matchgrant.Config
	Logger           logr.Logger
}

// Server hosts the verifier gRPC and HTTP APIs and the storage lifecycle.
type Server struct {
	grpcListener net.Listener
	httpListener net.Listener
	grpcServer   *grpc.Server
	httpServer   *http.Server
	health       *health.Server
	store        *verifiersqlite.Store
	verifier     *service.Verifier
	log          logr.Logger
}

// New opens storage, loads the catalog and binds both listeners.
func New(ctx context.Context, cfg Config) (*Server, error) {
	if cfg.Logger.GetSink() == nil {
		cfg.Logger = logr.Discard()
	}
	if cfg.MaxConnections <= 0 {
		cfg.MaxConnections = DefaultMaxConnections
	}
	store, err := OpenStore(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	s := &Server{store: store, log: cfg.Logger}

	s.verifier, err = service.New(store, nil, service.Options{
		MaxCommands:      cfg.MaxCommands,
		MaxBatch:         cfg.MaxBatch,
		BatchConcurrency: cfg.BatchConcurrency,
		Grants:           cfg.Grants,
		Logger:           cfg.Logger.WithName("verifier"),
	})
	if err != nil {
		s.Close()
		return nil, err
	}
	if err := s.loadCatalog(ctx, cfg.CatalogPath); err != nil {
		s.Close()
		return nil, err
	}

	s.grpcListener, err = net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("listen on %s: %w", cfg.GRPCAddr, err)
	}
	httpListener, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("listen on %s: %w", cfg.HTTPAddr, err)
	}
	s.httpListener = netutil.LimitListener(httpListener, cfg.MaxConnections)

	localizer := i18n.Default()
	s.grpcServer = grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(verifiergrpc.UnaryServerInterceptor(localizer, nil)),
	)
	verifiergrpc.RegisterVerifierServer(s.grpcServer, verifiergrpc.NewServer(s.verifier, localizer))
	s.health = health.NewServer()
	grpc_health_v1.RegisterHealthServer(s.grpcServer, s.health)
	s.health.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	serviceStatus := grpc_health_v1.HealthCheckResponse_SERVING
	if s.verifier.Catalog() == nil {
		serviceStatus = grpc_health_v1.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus(verifiergrpc.ServiceName, serviceStatus)

	s.httpServer = &http.Server{
		Handler: httpapi.NewHandler(s.verifier, httpapi.Options{
			BodyLimit: cfg.BodyLimit,
			Localizer: localizer,
			Logger:    cfg.Logger.WithName("http"),
		}),
		ReadHeaderTimeout: timeouts.ReadHeader,
		ReadTimeout:       timeouts.Request,
		WriteTimeout:      timeouts.Request,
	}
	return s, nil
}

// GRPCAddr returns the gRPC listener address.
func (s *Server) GRPCAddr() string {
	if s == nil || s.grpcListener == nil {
		return ""
	}
	return s.grpcListener.Addr().String()
}

// HTTPAddr returns the HTTP listener address.
func (s *Server) HTTPAddr() string {
	if s == nil || s.httpListener == nil {
		return ""
	}
	return s.httpListener.Addr().String()
}

// Verifier returns the shared verification service.
func (s *Server) Verifier() *service.Verifier {
	return s.verifier
}

// Run creates and serves a verifier server until context cancellation.
func Run(ctx context.Context, cfg Config) error {
	server, err := New(ctx, cfg)
	if err != nil {
		return err
	}
	return server.Serve(ctx)
}

// Serve runs both listeners until ctx ends or either fails, then shuts
// both down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	if s == nil {
		return errors.New("server is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	defer s.Close()

	s.log.Info("verifier listening", "grpc", s.GRPCAddr(), "http", s.HTTPAddr())
	grpcErr := make(chan error, 1)
	go func() {
		grpcErr <- s.grpcServer.Serve(s.grpcListener)
	}()
	httpErr := make(chan error, 1)
	go func() {
		httpErr <- s.httpServer.Serve(s.httpListener)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case err := <-grpcErr:
		grpcErr <- err
		serveErr = normalizeServeErr("gRPC", err)
	case err := <-httpErr:
		httpErr <- err
		serveErr = normalizeServeErr("HTTP", err)
	}

	s.health.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.log.Error(err, "shutdown HTTP server")
	}
	s.grpcServer.GracefulStop()

	if err := normalizeServeErr("gRPC", <-grpcErr); err != nil && serveErr == nil {
		serveErr = err
	}
	if err := normalizeServeErr("HTTP", <-httpErr); err != nil && serveErr == nil {
		serveErr = err
	}
	return serveErr
}

// Close releases server resources. It is safe to call more than once.
func (s *Server) Close() {
	if s == nil {
		return
	}
	if s.health != nil {
		s.health.Shutdown()
	}
	if s.grpcServer != nil {
		s.grpcServer.Stop()
	}
	if s.httpServer != nil {
		_ = s.httpServer.Close()
	}
	if s.grpcListener != nil {
		_ = s.grpcListener.Close()
	}
	if s.httpListener != nil {
		_ = s.httpListener.Close()
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.log.Error(err, "close catalog store")
		}
		s.store = nil
	}
}

func (s *Server) loadCatalog(ctx context.Context, path string) error {
	if strings.TrimSpace(path) != "" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open seed catalog: %w", err)
		}
		defer f.Close()
		if _, err := s.verifier.ImportCatalog(ctx, f); err != nil {
			return fmt.Errorf("import seed catalog %s: %w", path, err)
		}
		return nil
	}
	cat, err := s.verifier.ReloadCatalog(ctx)
	if errors.Is(err, storage.ErrCatalogEmpty) {
		s.log.Info("no catalog stored; verification is unavailable until one is imported")
		return nil
	}
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	s.log.Info("catalog loaded", "version", cat.Version(), "pieces", cat.Len())
	return nil
}

func normalizeServeErr(name string, err error) error {
	if err == nil || errors.Is(err, grpc.ErrServerStopped) || errors.Is(err, http.ErrServerClosed) || errors.Is(err, net.ErrClosed) {
		return nil
	}
	return fmt.Errorf("serve %s: %w", name, err)
}

func resolveDBPath(path string) (string, error) {
	if strings.TrimSpace(path) != "" {
		return path, nil
	}
	path, err := config.DataFile("catalog.db")
	if err != nil {
		return "", fmt.Errorf("resolve catalog db path: %w", err)
	}
	return path, nil
}

// OpenStore opens the catalog store at path, or at the default data file
// when path is blank, creating its directory as needed.
func OpenStore(path string) (*verifiersqlite.Store, error) {
	path, err := resolveDBPath(path)
	if err != nil {
		return nil, err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}
	store, err := verifiersqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog sqlite store: %w", err)
	}
	return store, nil
}
