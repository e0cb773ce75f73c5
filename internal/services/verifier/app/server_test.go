package server

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/adrg/xdg"
	"github.com/go-logr/logr/testr"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	platformgrpc "github.com/louisbranch/renovation-rumble/internal/platform/grpc"
	verifiergrpc "github.com/louisbranch/renovation-rumble/internal/services/verifier/api/grpc/verifier"
	"github.com/louisbranch/renovation-rumble/internal/testkit/verifierkit"
)

func startServer(t *testing.T, cfg Config) *Server {
	t.Helper()
	cfg.GRPCAddr = "127.0.0.1:0"
	cfg.HTTPAddr = "127.0.0.1:0"
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(t.TempDir(), "data", "catalog.db")
	}
	cfg.Logger = testr.New(t)

	srv, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	runCtx, runCancel := context.WithCancel(context.Background())
	serveDone := make(chan error, 1)
	go func() {
		serveDone <- srv.Serve(runCtx)
	}()
	t.Cleanup(func() {
		runCancel()
		select {
		case err := <-serveDone:
			if err != nil {
				t.Fatalf("serve: %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("timeout waiting for server shutdown")
		}
	})
	return srv
}

func writeSeedCatalog(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.json")
	if err := os.WriteFile(path, []byte(verifierkit.CatalogJSON), 0o600); err != nil {
		t.Fatalf("write seed catalog: %v", err)
	}
	return path
}

func TestServerServesGRPCAndHTTP(t *testing.T) {
	srv := startServer(t, Config{CatalogPath: writeSeedCatalog(t)})

	conn, err := platformgrpc.Dial(context.Background(), srv.GRPCAddr(), t.Logf)
	if err != nil {
		t.Fatalf("dial verifier: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	if err := platformgrpc.WaitForHealth(context.Background(), conn, verifiergrpc.ServiceName, t.Logf); err != nil {
		t.Fatalf("wait for verifier health: %v", err)
	}

	in := &structpb.Struct{}
	if err := protojson.Unmarshal(verifierkit.VerifyBody("5"), in); err != nil {
		t.Fatalf("request struct: %v", err)
	}
	resp, err := verifiergrpc.NewClient(conn).Verify(context.Background(), in)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got := resp.GetFields()["status"].GetStringValue(); got != "Ok" {
		t.Fatalf("status = %q, want Ok", got)
	}

	httpResp, err := http.Get("http://" + srv.HTTPAddr() + "/healthz")
	if err != nil {
		t.Fatalf("get healthz: %v", err)
	}
	defer httpResp.Body.Close()
	if httpResp.StatusCode != http.StatusOK {
		t.Fatalf("healthz status = %d, want 200", httpResp.StatusCode)
	}
}

func TestServerReportsMissingCatalog(t *testing.T) {
	srv := startServer(t, Config{})
	if srv.Verifier().Catalog() != nil {
		t.Fatal("expected no catalog")
	}

	conn, err := platformgrpc.Dial(context.Background(), srv.GRPCAddr(), t.Logf)
	if err != nil {
		t.Fatalf("dial verifier: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	resp, err := grpc_health_v1.NewHealthClient(conn).Check(context.Background(), &grpc_health_v1.HealthCheckRequest{
		Service: verifiergrpc.ServiceName,
	})
	if err != nil {
		t.Fatalf("health check: %v", err)
	}
	if resp.GetStatus() != grpc_health_v1.HealthCheckResponse_NOT_SERVING {
		t.Fatalf("status = %v, want NOT_SERVING", resp.GetStatus())
	}
}

func TestServerKeepsImportedCatalog(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "catalog.db")
	first, err := New(context.Background(), Config{
		GRPCAddr:    "127.0.0.1:0",
		HTTPAddr:    "127.0.0.1:0",
		DBPath:      dbPath,
		CatalogPath: writeSeedCatalog(t),
	})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	first.Close()

	second := startServer(t, Config{DBPath: dbPath})
	if cat := second.Verifier().Catalog(); cat == nil || cat.Version() != 3 {
		t.Fatal("expected the stored catalog to load on restart")
	}
}

func TestNewRejectsBadSeedCatalog(t *testing.T) {
	_, err := New(context.Background(), Config{
		GRPCAddr:    "127.0.0.1:0",
		HTTPAddr:    "127.0.0.1:0",
		DBPath:      filepath.Join(t.TempDir(), "catalog.db"),
		CatalogPath: filepath.Join(t.TempDir(), "missing.json"),
	})
	if err == nil {
		t.Fatal("expected error for a missing seed catalog")
	}
}

func TestResolveDBPathDefaultsToDataDir(t *testing.T) {
	dataHome := t.TempDir()
	t.Cleanup(xdg.Reload)
	t.Setenv("XDG_DATA_HOME", dataHome)
	xdg.Reload()

	path, err := resolveDBPath(" ")
	if err != nil {
		t.Fatalf("resolve db path: %v", err)
	}
	if !strings.HasPrefix(path, dataHome) || filepath.Base(path) != "catalog.db" {
		t.Fatalf("expected catalog.db under %s, got %s", dataHome, path)
	}

	if got, _ := resolveDBPath("custom.db"); got != "custom.db" {
		t.Fatalf("expected explicit path, got %s", got)
	}
}

func TestServeNilServer(t *testing.T) {
	var s *Server
	if err := s.Serve(context.Background()); err == nil {
		t.Fatal("expected error for nil server")
	}
	if s.GRPCAddr() != "" || s.HTTPAddr() != "" {
		t.Fatal("expected empty addresses for nil server")
	}
}
