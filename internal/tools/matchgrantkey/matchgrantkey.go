// Package matchgrantkey generates match grant keys and signs grants for
// match configurations.
package matchgrantkey

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/louisbranch/renovation-rumble/internal/services/verifier/domain/engine"
	"github.com/louisbranch/renovation-rumble/internal/services/verifier/matchgrant"
)

// Run generates a match grant key pair and writes exports.
func Run(out io.Writer, reader io.Reader) error {
	if out == nil {
		return errors.New("output is required")
	}
	if reader == nil {
		reader = rand.Reader
	}
	publicKey, privateKey, err := ed25519.GenerateKey(reader)
	if err != nil {
		return fmt.Errorf("generate match grant key: %w", err)
	}
	if _, err := fmt.Fprintf(out, "export RENOVATION_RUMBLE_MATCH_GRANT_PRIVATE_KEY=%s\n", base64.RawStdEncoding.EncodeToString(privateKey)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(out, "export RENOVATION_RUMBLE_MATCH_GRANT_PUBLIC_KEY=%s\n", base64.RawStdEncoding.EncodeToString(publicKey)); err != nil {
		return err
	}
	return nil
}

// Sign reads a match configuration from match and writes a grant for it
// signed by signer.
func Sign(out io.Writer, match io.Reader, signer matchgrant.Signer) error {
	if out == nil {
		return errors.New("output is required")
	}
	if match == nil {
		return errors.New("match input is required")
	}
	var cfg engine.MatchConfig
	if err := json.NewDecoder(match).Decode(&cfg); err != nil {
		return fmt.Errorf("decode match config: %w", err)
	}
	grant, err := matchgrant.Issue(cfg, signer)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, grant)
	return err
}
