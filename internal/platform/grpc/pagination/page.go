// Package pagination normalizes list paging inputs shared by the gRPC, HTTP
// and MCP surfaces.
package pagination

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidPageToken indicates a page token that was not produced by
// EncodeToken.
var ErrInvalidPageToken = errors.New("invalid page token")

const tokenPrefix = "after:"

// PageSizeConfig configures page size normalization.
type PageSizeConfig struct {
	Default int
	Max     int
}

// ClampPageSize applies the default to non-positive sizes and caps at Max.
func ClampPageSize(value int, cfg PageSizeConfig) int {
	pageSize := value
	if pageSize <= 0 {
		pageSize = cfg.Default
	}
	if cfg.Max > 0 && pageSize > cfg.Max {
		pageSize = cfg.Max
	}
	return max(pageSize, 1)
}

// EncodeToken returns an opaque token resuming after key.
func EncodeToken(key uint64) string {
	return base64.RawURLEncoding.EncodeToString([]byte(tokenPrefix + strconv.FormatUint(key, 10)))
}

// DecodeToken returns the key a token resumes after. The empty token
// decodes to ok=false.
func DecodeToken(token string) (key uint64, ok bool, err error) {
	if token == "" {
		return 0, false, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return 0, false, fmt.Errorf("%w: %w", ErrInvalidPageToken, err)
	}
	rest, found := strings.CutPrefix(string(raw), tokenPrefix)
	if !found {
		return 0, false, ErrInvalidPageToken
	}
	key, err = strconv.ParseUint(rest, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("%w: %w", ErrInvalidPageToken, err)
	}
	return key, true, nil
}
