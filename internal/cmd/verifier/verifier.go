// Package verifier parses verifier command flags and starts the gRPC and
// HTTP servers.
package verifier

import (
	"context"
	"flag"
	"time"

	entrypoint "github.com/louisbranch/renovation-rumble/internal/platform/cmd"
	server "github.com/louisbranch/renovation-rumble/internal/services/verifier/app"
	"github.com/louisbranch/renovation-rumble/internal/services/verifier/matchgrant"
	"github.com/louisbranch/renovation-rumble/internal/services/verifier/service"
)

// Config holds verifier command configuration.
type Config struct {
	GRPCAddr         string `env:"RENOVATION_RUMBLE_VERIFIER_GRPC_ADDR"         envDefault:"localhost:8090"`
	HTTPAddr         string `env:"RENOVATION_RUMBLE_VERIFIER_HTTP_ADDR"         envDefault:"localhost:8091"`
	DBPath           string `env:"RENOVATION_RUMBLE_VERIFIER_DB_PATH"`
	CatalogPath      string `env:"RENOVATION_RUMBLE_VERIFIER_CATALOG_PATH"`
	MaxCommands      int    `env:"RENOVATION_RUMBLE_VERIFIER_MAX_COMMANDS"      envDefault:"10000"`
	MaxBatch         int    `env:"RENOVATION_RUMBLE_VERIFIER_MAX_BATCH"         envDefault:"64"`
	BatchConcurrency int    `env:"RENOVATION_RUMBLE_VERIFIER_BATCH_CONCURRENCY" envDefault:"4"`
	MaxConnections   int    `env:"RENOVATION_RUMBLE_VERIFIER_MAX_CONNECTIONS"   envDefault:"256"`
	BodyLimit        int64  `env:"RENOVATION_RUMBLE_VERIFIER_BODY_LIMIT"        envDefault:"4194304"`
	LogVerbosity     int    `env:"RENOVATION_RUMBLE_LOG_VERBOSITY"              envDefault:"0"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.GRPCAddr, "grpc-addr", cfg.GRPCAddr, "gRPC listen address")
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP listen address")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "catalog SQLite path (defaults to the XDG data dir)")
	fs.StringVar(&cfg.CatalogPath, "catalog", cfg.CatalogPath, "catalog JSON imported at startup")
	fs.IntVar(&cfg.MaxCommands, "max-commands", cfg.MaxCommands, "maximum commands per match")
	fs.IntVar(&cfg.MaxBatch, "max-batch", cfg.MaxBatch, "maximum requests per batch")
	fs.IntVar(&cfg.BatchConcurrency, "batch-concurrency", cfg.BatchConcurrency, "concurrent replays per batch")
	fs.IntVar(&cfg.MaxConnections, "max-connections", cfg.MaxConnections, "maximum open HTTP connections")
	fs.Int64Var(&cfg.BodyLimit, "body-limit", cfg.BodyLimit, "maximum HTTP request body in bytes")
	fs.IntVar(&cfg.LogVerbosity, "v", cfg.LogVerbosity, "log verbosity (0-2)")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	if cfg.MaxCommands <= 0 {
		cfg.MaxCommands = service.DefaultMaxCommands
	}
	return cfg, nil
}

// Run starts the verifier service.
func Run(ctx context.Context, cfg Config) error {
	grants, err := matchgrant.LoadConfigFromEnv(time.Now)
	if err != nil {
		return err
	}
	logger := entrypoint.NewLogger(entrypoint.ServiceVerifier, cfg.LogVerbosity)
	if grants.Enabled() {
		logger.Info("match grants enforced", "issuer", grants.Issuer, "audience", grants.Audience)
	}
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceVerifier, func(ctx context.Context) error {
		return server.Run(ctx, server.Config{
			GRPCAddr:         cfg.GRPCAddr,
			HTTPAddr:         cfg.HTTPAddr,
			DBPath:           cfg.DBPath,
			CatalogPath:      cfg.CatalogPath,
			MaxCommands:      cfg.MaxCommands,
			MaxBatch:         cfg.MaxBatch,
			BatchConcurrency: cfg.BatchConcurrency,
			MaxConnections:   cfg.MaxConnections,
			BodyLimit:        cfg.BodyLimit,
			Grants:           grants,
			Logger:           logger,
		})
	})
}
