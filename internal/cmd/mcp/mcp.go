// Package mcp parses MCP command flags and serves the verifier tools over
// stdio, in-process or through a running verifier.
package mcp

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/go-logr/logr"

	entrypoint "github.com/louisbranch/renovation-rumble/internal/platform/cmd"
	server "github.com/louisbranch/renovation-rumble/internal/services/verifier/app"
	"github.com/louisbranch/renovation-rumble/internal/services/verifier/mcpserver"
	"github.com/louisbranch/renovation-rumble/internal/services/verifier/service"
	"github.com/louisbranch/renovation-rumble/internal/services/verifier/storage"
)

// Config holds MCP command configuration.
type Config struct {
	// VerifierAddr selects remote mode when set.
	VerifierAddr string `env:"RENOVATION_RUMBLE_MCP_VERIFIER_ADDR"`
	DBPath       string `env:"RENOVATION_RUMBLE_VERIFIER_DB_PATH"`
	CatalogPath  string `env:"RENOVATION_RUMBLE_VERIFIER_CATALOG_PATH"`
	MaxCommands  int    `env:"RENOVATION_RUMBLE_VERIFIER_MAX_COMMANDS" envDefault:"10000"`
	LogVerbosity int    `env:"RENOVATION_RUMBLE_LOG_VERBOSITY"         envDefault:"0"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.VerifierAddr, "verifier-addr", cfg.VerifierAddr, "verifier gRPC address (blank runs in-process)")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "catalog SQLite path for in-process mode")
	fs.StringVar(&cfg.CatalogPath, "catalog", cfg.CatalogPath, "catalog JSON imported at startup in in-process mode")
	fs.IntVar(&cfg.MaxCommands, "max-commands", cfg.MaxCommands, "maximum commands per match")
	fs.IntVar(&cfg.LogVerbosity, "v", cfg.LogVerbosity, "log verbosity (0-2)")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run serves the MCP tools over stdio until ctx ends or the client leaves.
func Run(ctx context.Context, cfg Config) error {
	logger := entrypoint.NewLogger(entrypoint.ServiceMCP, cfg.LogVerbosity)
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceMCP, func(ctx context.Context) error {
		srv, cleanup, err := newServer(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer cleanup()
		return srv.Serve(ctx)
	})
}

func newServer(ctx context.Context, cfg Config, logger logr.Logger) (*mcpserver.Server, func(), error) {
	if addr := strings.TrimSpace(cfg.VerifierAddr); addr != "" {
		srv, err := mcpserver.Dial(ctx, addr, log.Printf)
		if err != nil {
			return nil, nil, err
		}
		return srv, func() { _ = srv.Close() }, nil
	}

	store, err := server.OpenStore(cfg.DBPath)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := store.Close(); err != nil {
			logger.Error(err, "close catalog store")
		}
	}
	svc, err := service.New(store, nil, service.Options{
		MaxCommands: cfg.MaxCommands,
		Logger:      logger.WithName("verifier"),
	})
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	if err := loadCatalog(ctx, svc, cfg.CatalogPath, logger); err != nil {
		cleanup()
		return nil, nil, err
	}
	srv, err := mcpserver.New(mcpserver.NewLocalBackend(svc, nil))
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return srv, cleanup, nil
}

func loadCatalog(ctx context.Context, svc *service.Verifier, path string, logger logr.Logger) error {
	if strings.TrimSpace(path) != "" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open seed catalog: %w", err)
		}
		defer f.Close()
		_, err = svc.ImportCatalog(ctx, f)
		return err
	}
	if _, err := svc.ReloadCatalog(ctx); err != nil {
		if errors.Is(err, storage.ErrCatalogEmpty) {
			logger.Info("no catalog stored; verify_match reports CATALOG_EMPTY until one is imported")
			return nil
		}
		return err
	}
	return nil
}
