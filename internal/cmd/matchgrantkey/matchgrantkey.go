// Package matchgrantkey parses match-grant-key flags and either generates a
// key pair or signs a grant for a match configuration.
package matchgrantkey

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	entrypoint "github.com/louisbranch/renovation-rumble/internal/platform/cmd"
	"github.com/louisbranch/renovation-rumble/internal/services/verifier/matchgrant"
	keytool "github.com/louisbranch/renovation-rumble/internal/tools/matchgrantkey"
)

// Config holds match-grant-key configuration.
type Config struct {
	// Sign names a match config JSON file; blank generates a key pair.
	Sign       string
	PrivateKey string        `env:"RENOVATION_RUMBLE_MATCH_GRANT_PRIVATE_KEY"`
	Issuer     string        `env:"RENOVATION_RUMBLE_MATCH_GRANT_ISSUER"`
	Audience   string        `env:"RENOVATION_RUMBLE_MATCH_GRANT_AUDIENCE"`
	TTL        time.Duration `env:"RENOVATION_RUMBLE_MATCH_GRANT_TTL" envDefault:"24h"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.Sign, "sign", "", "match config JSON to sign ('-' for stdin)")
	fs.DurationVar(&cfg.TTL, "ttl", cfg.TTL, "lifetime of a signed grant")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	if strings.TrimSpace(cfg.Sign) != "" && strings.TrimSpace(cfg.PrivateKey) == "" {
		return Config{}, errors.New("RENOVATION_RUMBLE_MATCH_GRANT_PRIVATE_KEY is required to sign")
	}
	return cfg, nil
}

// Run writes a key pair, or a signed grant when cfg.Sign is set, to out.
func Run(cfg Config, stdin io.Reader, out io.Writer) error {
	path := strings.TrimSpace(cfg.Sign)
	if path == "" {
		return keytool.Run(out, nil)
	}
	key, err := matchgrant.DecodePrivateKey(strings.TrimSpace(cfg.PrivateKey))
	if err != nil {
		return err
	}
	signer := matchgrant.Signer{
		Issuer:   strings.TrimSpace(cfg.Issuer),
		Audience: strings.TrimSpace(cfg.Audience),
		Key:      key,
		TTL:      cfg.TTL,
	}
	if path == "-" {
		return keytool.Sign(out, stdin, signer)
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open match config: %w", err)
	}
	defer f.Close()
	return keytool.Sign(out, f, signer)
}
