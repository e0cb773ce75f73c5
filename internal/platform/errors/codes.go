// Package errors provides structured service errors with gRPC, HTTP and
// localized renderings.
package errors

import (
	"net/http"

	"google.golang.org/grpc/codes"
)

// Code is a machine-readable error code.
type Code string

const (
	CodeUnknown Code = "UNKNOWN"

	// Request errors
	CodeInvalidInput         Code = "INVALID_INPUT"
	CodeCommandLimitExceeded Code = "COMMAND_LIMIT_EXCEEDED"
	CodeBatchLimitExceeded   Code = "BATCH_LIMIT_EXCEEDED"
	CodeFilterInvalid        Code = "FILTER_INVALID"
	CodePageTokenInvalid     Code = "PAGE_TOKEN_INVALID"

	// Catalog errors
	CodePieceNotFound Code = "PIECE_NOT_FOUND"
	CodeCatalogEmpty  Code = "CATALOG_EMPTY"

	// Match grant errors
	CodeMatchGrantRequired Code = "MATCH_GRANT_REQUIRED"
	CodeMatchGrantInvalid  Code = "MATCH_GRANT_INVALID"
	CodeMatchGrantExpired  Code = "MATCH_GRANT_EXPIRED"
	CodeMatchGrantMismatch Code = "MATCH_GRANT_MISMATCH"
)

// GRPCCode maps the code to a gRPC status code.
func (c Code) GRPCCode() codes.Code {
	switch c {
	case CodeInvalidInput,
		CodeCommandLimitExceeded,
		CodeBatchLimitExceeded,
		CodeFilterInvalid,
		CodePageTokenInvalid,
		CodeMatchGrantInvalid,
		CodeMatchGrantMismatch:
		return codes.InvalidArgument
	case CodeMatchGrantRequired:
		return codes.Unauthenticated
	case CodeMatchGrantExpired:
		return codes.FailedPrecondition
	case CodePieceNotFound:
		return codes.NotFound
	case CodeCatalogEmpty:
		return codes.Unavailable
	default:
		return codes.Internal
	}
}

// HTTPStatus maps the code to an HTTP status.
func (c Code) HTTPStatus() int {
	switch c.GRPCCode() {
	case codes.InvalidArgument:
		return http.StatusBadRequest
	case codes.Unauthenticated:
		return http.StatusUnauthorized
	case codes.FailedPrecondition:
		return http.StatusPreconditionFailed
	case codes.NotFound:
		return http.StatusNotFound
	case codes.Unavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
