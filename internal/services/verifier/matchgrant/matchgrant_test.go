package matchgrant

import (
	"bytes"
	"crypto/ed25519"
	"encoding/base64"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/louisbranch/renovation-rumble/internal/platform/errors"
	"github.com/louisbranch/renovation-rumble/internal/services/verifier/domain/engine"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testKeys(t *testing.T) (ed25519.PublicKey, ed25519.PrivateKey) {
	t.Helper()
	public, private, err := ed25519.GenerateKey(bytes.NewReader(bytes.Repeat([]byte{7}, 64)))
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return public, private
}

func testMatch() engine.MatchConfig {
	return engine.MatchConfig{BoardWidth: 5, BoardHeight: 5, StartingPieces: []uint16{42, 1}}
}

func testSetup(t *testing.T) (Signer, Config) {
	t.Helper()
	public, private := testKeys(t)
	now := func() time.Time { return fixedNow }
	return Signer{Key: private, Now: now}, Config{Issuer: DefaultIssuer, Audience: DefaultAudience, Key: public, Now: now}
}

func TestDigestIsStable(t *testing.T) {
	a, err := Digest(testMatch())
	if err != nil {
		t.Fatalf("digest: %v", err)
	}
	b, _ := Digest(testMatch())
	if a != b || len(a) != 64 {
		t.Fatalf("expected stable 64-char digest, got %q and %q", a, b)
	}

	other := testMatch()
	other.StartingPieces = []uint16{1, 42}
	c, _ := Digest(other)
	if c == a {
		t.Fatal("expected wheel order to change the digest")
	}

	nilWheel, _ := Digest(engine.MatchConfig{BoardWidth: 1, BoardHeight: 1})
	emptyWheel, _ := Digest(engine.MatchConfig{BoardWidth: 1, BoardHeight: 1, StartingPieces: []uint16{}})
	if nilWheel != emptyWheel {
		t.Fatal("expected nil and empty wheels to share a digest")
	}
}

func TestIssueAndValidate(t *testing.T) {
	signer, cfg := testSetup(t)
	token, err := Issue(testMatch(), signer)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := Validate(token, testMatch(), cfg)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	digest, _ := Digest(testMatch())
	if claims.MatchDigest != digest || claims.JWTID == "" {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if !claims.ExpiresAt.Equal(fixedNow.Add(DefaultTTL)) {
		t.Fatalf("expected expiry %v, got %v", fixedNow.Add(DefaultTTL), claims.ExpiresAt)
	}
}

func TestValidateErrors(t *testing.T) {
	signer, cfg := testSetup(t)
	token, err := Issue(testMatch(), signer)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	otherPublic, _, err := ed25519.GenerateKey(bytes.NewReader(bytes.Repeat([]byte{9}, 64)))
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	different := testMatch()
	different.BoardWidth = 6

	later := cfg
	later.Now = func() time.Time { return fixedNow.Add(DefaultTTL + time.Second) }
	wrongKey := cfg
	wrongKey.Key = otherPublic
	wrongAudience := cfg
	wrongAudience.Audience = "someone-else"

	tests := []struct {
		name  string
		grant string
		match engine.MatchConfig
		cfg   Config
		code  apperrors.Code
	}{
		{name: "missing", grant: " ", match: testMatch(), cfg: cfg, code: apperrors.CodeMatchGrantRequired},
		{name: "garbage", grant: "not-a-jwt", match: testMatch(), cfg: cfg, code: apperrors.CodeMatchGrantInvalid},
		{name: "wrong key", grant: token, match: testMatch(), cfg: wrongKey, code: apperrors.CodeMatchGrantInvalid},
		{name: "wrong audience", grant: token, match: testMatch(), cfg: wrongAudience, code: apperrors.CodeMatchGrantInvalid},
		{name: "expired", grant: token, match: testMatch(), cfg: later, code: apperrors.CodeMatchGrantExpired},
		{name: "other match", grant: token, match: different, cfg: cfg, code: apperrors.CodeMatchGrantMismatch},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Validate(tc.grant, tc.match, tc.cfg)
			if got := apperrors.CodeOf(err); got != tc.code {
				t.Fatalf("expected %s, got %s (%v)", tc.code, got, err)
			}
		})
	}
}

func TestValidateRejectsOtherAlgorithms(t *testing.T) {
	_, cfg := testSetup(t)
	digest, _ := Digest(testMatch())
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, grantClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    DefaultIssuer,
			Audience:  jwt.ClaimStrings{DefaultAudience},
			ExpiresAt: jwt.NewNumericDate(fixedNow.Add(time.Hour)),
		},
		MatchDigest: digest,
	}).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := Validate(token, testMatch(), cfg); apperrors.CodeOf(err) != apperrors.CodeMatchGrantInvalid {
		t.Fatalf("expected invalid grant for HS256 token, got %v", err)
	}
}

func TestValidateRequiresConfig(t *testing.T) {
	signer, _ := testSetup(t)
	token, err := Issue(testMatch(), signer)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := Validate(token, testMatch(), Config{}); err == nil {
		t.Fatal("expected error for disabled config")
	}
}

func TestIssueRequiresKey(t *testing.T) {
	if _, err := Issue(testMatch(), Signer{}); err == nil {
		t.Fatal("expected error without a private key")
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	public, _ := testKeys(t)

	t.Setenv("RENOVATION_RUMBLE_MATCH_GRANT_PUBLIC_KEY", "")
	cfg, err := LoadConfigFromEnv(nil)
	if err != nil {
		t.Fatalf("load disabled config: %v", err)
	}
	if cfg.Enabled() {
		t.Fatal("expected disabled config without a key")
	}

	t.Setenv("RENOVATION_RUMBLE_MATCH_GRANT_PUBLIC_KEY", base64.RawStdEncoding.EncodeToString(public))
	cfg, err = LoadConfigFromEnv(nil)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if !cfg.Enabled() || cfg.Issuer != DefaultIssuer || cfg.Audience != DefaultAudience || cfg.Now == nil {
		t.Fatalf("unexpected config %+v", cfg)
	}

	t.Setenv("RENOVATION_RUMBLE_MATCH_GRANT_PUBLIC_KEY", base64.StdEncoding.EncodeToString([]byte("short")))
	if _, err := LoadConfigFromEnv(nil); err == nil {
		t.Fatal("expected error for a short key")
	}
}

func TestDecodePrivateKey(t *testing.T) {
	_, private := testKeys(t)
	got, err := DecodePrivateKey(base64.StdEncoding.EncodeToString(private))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !got.Equal(private) {
		t.Fatal("expected decoded key to match")
	}
	if _, err := DecodePrivateKey(""); err == nil {
		t.Fatal("expected error for empty key")
	}
	if _, err := DecodePrivateKey("%%%"); err == nil {
		t.Fatal("expected error for corrupt key")
	}
}
