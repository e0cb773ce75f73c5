package main

import (
	"context"
	"flag"
	"os"

	"github.com/louisbranch/renovation-rumble/internal/cmd/catalogimporter"
	"github.com/louisbranch/renovation-rumble/internal/platform/config"
)

func main() {
	cfg, err := catalogimporter.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("Error: %v", err)
	}

	if err := catalogimporter.Run(context.Background(), cfg, os.Stdout); err != nil {
		config.Exitf("Error: %v", err)
	}
}
