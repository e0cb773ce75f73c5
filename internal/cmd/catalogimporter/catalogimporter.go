// Package catalogimporter loads a piece catalog JSON document into the
// verifier's SQLite store, or exports the stored catalog.
package catalogimporter

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	entrypoint "github.com/louisbranch/renovation-rumble/internal/platform/cmd"
	server "github.com/louisbranch/renovation-rumble/internal/services/verifier/app"
	"github.com/louisbranch/renovation-rumble/internal/services/verifier/domain/catalog"
)

// Config holds catalog importer configuration.
type Config struct {
	File   string
	Export string
	DBPath string `env:"RENOVATION_RUMBLE_VERIFIER_DB_PATH"`
	DryRun bool
}

// ParseConfig parses environment and flags into a Config. Exactly one of
// -file and -export is required.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.File, "file", "", "catalog JSON to import")
	fs.StringVar(&cfg.Export, "export", "", "write the stored catalog to this path ('-' for stdout)")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "catalog SQLite path (defaults to the XDG data dir)")
	fs.BoolVar(&cfg.DryRun, "dry-run", false, "validate without writing to the database")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}

	file := strings.TrimSpace(cfg.File)
	export := strings.TrimSpace(cfg.Export)
	switch {
	case file == "" && export == "":
		return Config{}, errors.New("file or export is required")
	case file != "" && export != "":
		return Config{}, errors.New("file and export are mutually exclusive")
	case export != "" && cfg.DryRun:
		return Config{}, errors.New("dry-run only applies to imports")
	}
	return cfg, nil
}

// Run executes the import or export described by cfg and reports to out.
func Run(ctx context.Context, cfg Config, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if out == nil {
		out = io.Discard
	}
	if strings.TrimSpace(cfg.Export) != "" {
		return runExport(ctx, cfg, out)
	}
	return runImport(ctx, cfg, out)
}

func runImport(ctx context.Context, cfg Config, out io.Writer) error {
	path := strings.TrimSpace(cfg.File)
	if path == "" {
		return errors.New("file is required")
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	cat, err := catalog.Decode(f)
	if err != nil {
		return fmt.Errorf("decode catalog %s: %w", path, err)
	}
	if cfg.DryRun {
		_, err := fmt.Fprintf(out, "catalog version %d with %d pieces is valid\n", cat.Version(), cat.Len())
		return err
	}

	store, err := server.OpenStore(cfg.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.ReplaceCatalog(ctx, cat); err != nil {
		return fmt.Errorf("store catalog: %w", err)
	}
	_, err = fmt.Fprintf(out, "imported catalog version %d with %d pieces\n", cat.Version(), cat.Len())
	return err
}

func runExport(ctx context.Context, cfg Config, out io.Writer) error {
	store, err := server.OpenStore(cfg.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()
	cat, err := store.LoadCatalog(ctx)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	target := strings.TrimSpace(cfg.Export)
	if target == "-" {
		return catalog.Encode(out, cat)
	}
	f, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("create export: %w", err)
	}
	if err := catalog.Encode(f, cat); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode catalog: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close export: %w", err)
	}
	_, err = fmt.Fprintf(out, "exported catalog version %d with %d pieces to %s\n", cat.Version(), cat.Len(), target)
	return err
}
