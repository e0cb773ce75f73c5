// Package cmd holds the startup plumbing shared by the verifier binaries.
package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"

	"github.com/louisbranch/renovation-rumble/internal/platform/config"
	"github.com/louisbranch/renovation-rumble/internal/platform/otel"
	"github.com/louisbranch/renovation-rumble/internal/platform/timeouts"
)

// Service identifiers used for telemetry and log prefixes.
const (
	ServiceVerifier = "verifier"
	ServiceMCP      = "mcp"
)

// ParseConfig loads environment defaults into cfg.
func ParseConfig[T any](cfg *T) error {
	if cfg == nil {
		return errors.New("config target is required")
	}
	return config.ParseEnv(cfg)
}

// ParseArgs parses command-line flags.
func ParseArgs(fs *flag.FlagSet, args []string) error {
	if fs == nil {
		return errors.New("flag parser is required")
	}
	if args == nil {
		args = []string{}
	}
	return fs.Parse(args)
}

// LogPrefix returns the stdlib log prefix for service, e.g. "[VERIFIER] ".
func LogPrefix(service string) string {
	return "[" + strings.ToUpper(strings.ReplaceAll(service, "-", "_")) + "] "
}

// NewLogger returns a logr.Logger writing through the stdlib log package
// with the service prefix. Verbosity gates V-levels: 0 keeps only Info and
// Error, 1 adds rejection reasons, 2 adds every applied command.
func NewLogger(service string, verbosity int) logr.Logger {
	stdr.SetVerbosity(verbosity)
	return stdr.New(log.New(os.Stderr, LogPrefix(service), log.LstdFlags)).WithName(service)
}

// RunWithTelemetry configures tracing and executes a service run loop. The
// tracer provider is flushed when run returns.
func RunWithTelemetry(ctx context.Context, service string, run func(context.Context) error) error {
	service = strings.TrimSpace(service)
	if service == "" {
		return fmt.Errorf("service name is required")
	}
	if run == nil {
		return fmt.Errorf("run function is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	shutdown, err := otel.Setup(ctx, service)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			log.Printf("%s otel shutdown: %v", service, err)
		}
	}()
	return run(ctx)
}
