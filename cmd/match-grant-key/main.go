// Package main generates the match grant key pair, or signs a grant for a
// match configuration with -sign.
package main

import (
	"flag"
	"os"

	"github.com/louisbranch/renovation-rumble/internal/cmd/matchgrantkey"
	"github.com/louisbranch/renovation-rumble/internal/platform/config"
)

func main() {
	cfg, err := matchgrantkey.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("Error: %v", err)
	}
	if err := matchgrantkey.Run(cfg, os.Stdin, os.Stdout); err != nil {
		config.Exitf("generate match grant key: %v", err)
	}
}
