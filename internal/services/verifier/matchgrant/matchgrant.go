// Package matchgrant signs and verifies match grants.
//
// A grant is an EdDSA-signed JWT issued by the game server when a match
// starts. Its match_digest claim pins the exact match config, so a client
// cannot submit a replay for a board or wheel it was never dealt.
package matchgrant

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/louisbranch/renovation-rumble/internal/platform/config"
	apperrors "github.com/louisbranch/renovation-rumble/internal/platform/errors"
	"github.com/louisbranch/renovation-rumble/internal/platform/id"
	"github.com/louisbranch/renovation-rumble/internal/services/verifier/domain/engine"
)

const (
	// DefaultIssuer is the iss claim expected when none is configured.
	DefaultIssuer = "renovation-rumble"
	// DefaultAudience is the aud claim expected when none is configured.
	DefaultAudience = "verifier"
	// DefaultTTL bounds how long an issued grant stays valid.
	DefaultTTL = 24 * time.Hour
)

// grantEnv holds raw env values before post-parse validation.
type grantEnv struct {
	Issuer    string `env:"RENOVATION_RUMBLE_MATCH_GRANT_ISSUER"`
	Audience  string `env:"RENOVATION_RUMBLE_MATCH_GRANT_AUDIENCE"`
	PublicKey string `env:"RENOVATION_RUMBLE_MATCH_GRANT_PUBLIC_KEY"`
}

// Config defines how grants are verified. The zero Config disables
// verification.
type Config struct {
	Issuer   string
	Audience string
	Key      ed25519.PublicKey
	Now      func() time.Time
}

// Enabled reports whether a verification key is configured.
func (c Config) Enabled() bool {
	return len(c.Key) == ed25519.PublicKeySize
}

// Signer issues grants.
type Signer struct {
	Issuer   string
	Audience string
	Key      ed25519.PrivateKey
	TTL      time.Duration
	Now      func() time.Time
}

// Claims captures validated grant claims.
type Claims struct {
	Issuer      string
	Audience    []string
	ExpiresAt   time.Time
	IssuedAt    time.Time
	JWTID       string
	MatchDigest string
}

type grantClaims struct {
	jwt.RegisteredClaims
	MatchDigest string `json:"match_digest"`
}

// LoadConfigFromEnv reads grant verification settings. An unset public key
// yields a disabled Config.
func LoadConfigFromEnv(now func() time.Time) (Config, error) {
	var raw grantEnv
	if err := config.ParseEnv(&raw); err != nil {
		return Config{}, fmt.Errorf("parse match grant env: %w", err)
	}
	publicKey := strings.TrimSpace(raw.PublicKey)
	if publicKey == "" {
		return Config{}, nil
	}
	key, err := DecodePublicKey(publicKey)
	if err != nil {
		return Config{}, err
	}
	if now == nil {
		now = time.Now
	}
	cfg := Config{
		Issuer:   strings.TrimSpace(raw.Issuer),
		Audience: strings.TrimSpace(raw.Audience),
		Key:      key,
		Now:      now,
	}
	if cfg.Issuer == "" {
		cfg.Issuer = DefaultIssuer
	}
	if cfg.Audience == "" {
		cfg.Audience = DefaultAudience
	}
	return cfg, nil
}

// DecodePublicKey parses a base64 ed25519 public key.
func DecodePublicKey(value string) (ed25519.PublicKey, error) {
	keyBytes, err := decodeBase64(value)
	if err != nil {
		return nil, fmt.Errorf("decode match grant public key: %w", err)
	}
	if len(keyBytes) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("match grant public key must be %d bytes", ed25519.PublicKeySize)
	}
	return ed25519.PublicKey(keyBytes), nil
}

// DecodePrivateKey parses a base64 ed25519 private key.
func DecodePrivateKey(value string) (ed25519.PrivateKey, error) {
	keyBytes, err := decodeBase64(value)
	if err != nil {
		return nil, fmt.Errorf("decode match grant private key: %w", err)
	}
	if len(keyBytes) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("match grant private key must be %d bytes", ed25519.PrivateKeySize)
	}
	return ed25519.PrivateKey(keyBytes), nil
}

// Digest returns the hex SHA-256 of the canonical JSON form of match. A nil
// starting wheel hashes like an empty one.
func Digest(match engine.MatchConfig) (string, error) {
	if match.StartingPieces == nil {
		match.StartingPieces = []uint16{}
	}
	data, err := json.Marshal(match)
	if err != nil {
		return "", fmt.Errorf("marshal match config: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// Issue signs a grant for match.
func Issue(match engine.MatchConfig, signer Signer) (string, error) {
	if len(signer.Key) != ed25519.PrivateKeySize {
		return "", errors.New("match grant signer is not configured")
	}
	if signer.Now == nil {
		signer.Now = time.Now
	}
	if signer.TTL <= 0 {
		signer.TTL = DefaultTTL
	}
	if signer.Issuer == "" {
		signer.Issuer = DefaultIssuer
	}
	if signer.Audience == "" {
		signer.Audience = DefaultAudience
	}
	digest, err := Digest(match)
	if err != nil {
		return "", err
	}
	jti, err := id.NewID()
	if err != nil {
		return "", fmt.Errorf("generate grant id: %w", err)
	}
	now := signer.Now().UTC()
	claims := grantClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    signer.Issuer,
			Audience:  jwt.ClaimStrings{signer.Audience},
			ExpiresAt: jwt.NewNumericDate(now.Add(signer.TTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        jti,
		},
		MatchDigest: digest,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims).SignedString(signer.Key)
	if err != nil {
		return "", fmt.Errorf("sign match grant: %w", err)
	}
	return token, nil
}

// Validate verifies grant against cfg and checks that it was issued for
// match.
func Validate(grant string, match engine.MatchConfig, cfg Config) (Claims, error) {
	grant = strings.TrimSpace(grant)
	if grant == "" {
		return Claims{}, apperrors.New(apperrors.CodeMatchGrantRequired, "match grant is required")
	}
	if !cfg.Enabled() || cfg.Issuer == "" || cfg.Audience == "" {
		return Claims{}, errors.New("match grant verifier is not configured")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	var parsed grantClaims
	_, err := jwt.ParseWithClaims(grant, &parsed, func(token *jwt.Token) (any, error) {
		return cfg.Key, nil
	},
		jwt.WithValidMethods([]string{"EdDSA"}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return Claims{}, mapJWTError(err)
	}

	if parsed.Issuer != cfg.Issuer {
		return Claims{}, apperrors.WithMetadata(
			apperrors.CodeMatchGrantInvalid,
			"match grant issuer mismatch",
			map[string]string{"Field": "issuer"},
		)
	}
	if !slices.Contains(parsed.Audience, cfg.Audience) {
		return Claims{}, apperrors.WithMetadata(
			apperrors.CodeMatchGrantInvalid,
			"match grant audience mismatch",
			map[string]string{"Field": "audience"},
		)
	}
	if parsed.ExpiresAt == nil {
		return Claims{}, apperrors.New(apperrors.CodeMatchGrantInvalid, "match grant exp is required")
	}
	now := cfg.Now().UTC()
	exp := parsed.ExpiresAt.Time.UTC()
	if !exp.After(now) {
		return Claims{}, apperrors.New(apperrors.CodeMatchGrantExpired, "match grant is expired")
	}

	digest, err := Digest(match)
	if err != nil {
		return Claims{}, err
	}
	if parsed.MatchDigest == "" || parsed.MatchDigest != digest {
		return Claims{}, apperrors.New(apperrors.CodeMatchGrantMismatch, "match grant digest mismatch")
	}

	claims := Claims{
		Issuer:      parsed.Issuer,
		Audience:    []string(parsed.Audience),
		ExpiresAt:   exp,
		JWTID:       parsed.ID,
		MatchDigest: parsed.MatchDigest,
	}
	if parsed.IssuedAt != nil {
		claims.IssuedAt = parsed.IssuedAt.Time.UTC()
	}
	return claims, nil
}

func mapJWTError(err error) error {
	if errors.Is(err, jwt.ErrTokenSignatureInvalid) || errors.Is(err, jwt.ErrEd25519Verification) {
		return apperrors.Wrap(apperrors.CodeMatchGrantInvalid, "match grant signature is invalid", err)
	}
	return apperrors.Wrap(apperrors.CodeMatchGrantInvalid, "match grant is invalid", err)
}

func decodeBase64(value string) ([]byte, error) {
	if value == "" {
		return nil, errors.New("empty base64 value")
	}
	decoded, err := base64.RawStdEncoding.DecodeString(value)
	if err == nil {
		return decoded, nil
	}
	return base64.StdEncoding.DecodeString(value)
}
