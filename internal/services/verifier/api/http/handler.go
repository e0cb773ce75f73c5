// Package httpapi serves the verifier over JSON/HTTP.
package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-logr/logr"

	apperrors "github.com/louisbranch/renovation-rumble/internal/platform/errors"
	"github.com/louisbranch/renovation-rumble/internal/platform/httpx"
	"github.com/louisbranch/renovation-rumble/internal/platform/i18n"
	"github.com/louisbranch/renovation-rumble/internal/platform/requestctx"
	"github.com/louisbranch/renovation-rumble/internal/services/verifier/service"
	"github.com/louisbranch/renovation-rumble/internal/services/verifier/storage"
)

// DefaultBodyLimit caps request bodies.
const DefaultBodyLimit = 4 << 20

// Options configure the handler.
type Options struct {
	BodyLimit int64
	Localizer *i18n.Localizer
	Logger    logr.Logger
}

type handler struct {
	svc       *service.Verifier
	localizer *i18n.Localizer
	log       logr.Logger
	bodyLimit int64
}

// ErrorDocument is the body of every error response.
type ErrorDocument struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes a failed request.
type ErrorDetail struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	RequestID string            `json:"requestId,omitempty"`
}

// NewHandler returns the HTTP API over svc:
//
//	POST /verify
//	POST /verify/batch
//	GET  /pieces
//	GET  /pieces/{id}
//	GET  /healthz
func NewHandler(svc *service.Verifier, opts Options) http.Handler {
	if opts.BodyLimit <= 0 {
		opts.BodyLimit = DefaultBodyLimit
	}
	if opts.Localizer == nil {
		opts.Localizer = i18n.Default()
	}
	if opts.Logger.GetSink() == nil {
		opts.Logger = logr.Discard()
	}
	h := &handler{svc: svc, localizer: opts.Localizer, log: opts.Logger, bodyLimit: opts.BodyLimit}

	mux := http.NewServeMux()
	mux.Handle("/verify", httpx.Chain(http.HandlerFunc(h.verify), httpx.RequireMethod(http.MethodPost)))
	mux.Handle("/verify/batch", httpx.Chain(http.HandlerFunc(h.verifyBatch), httpx.RequireMethod(http.MethodPost)))
	mux.Handle("/pieces", httpx.Chain(http.HandlerFunc(h.listPieces), httpx.RequireMethod(http.MethodGet)))
	mux.Handle("/pieces/{id}", httpx.Chain(http.HandlerFunc(h.getPiece), httpx.RequireMethod(http.MethodGet)))
	mux.Handle("/healthz", httpx.Chain(http.HandlerFunc(h.health), httpx.RequireMethod(http.MethodGet)))

	return httpx.Chain(mux,
		httpx.RecoverPanic(opts.Logger),
		httpx.RequestID(),
		httpx.Locale(opts.Localizer),
	)
}

func (h *handler) verify(w http.ResponseWriter, r *http.Request) {
	body, err := httpx.ReadBody(w, r, h.bodyLimit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	verdict, err := h.svc.Verify(r.Context(), body)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, verdict.Document(h.localizer, requestctx.Locale(r.Context())))
}

func (h *handler) verifyBatch(w http.ResponseWriter, r *http.Request) {
	body, err := httpx.ReadBody(w, r, h.bodyLimit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	verdicts, err := h.svc.VerifyBatch(r.Context(), body)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, service.NewBatchDocument(verdicts, h.localizer, requestctx.Locale(r.Context())))
}

func (h *handler) getPiece(w http.ResponseWriter, r *http.Request) {
	raw := r.PathValue("id")
	pieceID, err := strconv.ParseUint(raw, 10, 16)
	if err != nil {
		h.writeError(w, r, apperrors.WrapWithMetadata(
			apperrors.CodeInvalidInput,
			"invalid piece id",
			map[string]string{"Reason": "piece id must be a 16-bit integer"},
			err,
		))
		return
	}
	p, err := h.svc.GetPiece(r.Context(), uint16(pieceID))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, service.NewPieceDocument(p))
}

func (h *handler) listPieces(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := storage.PieceQuery{
		PageToken: q.Get("pageToken"),
		Filter:    q.Get("filter"),
	}
	if raw := q.Get("pageSize"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil {
			h.writeError(w, r, apperrors.WrapWithMetadata(
				apperrors.CodeInvalidInput,
				"invalid page size",
				map[string]string{"Reason": "pageSize must be an integer"},
				err,
			))
			return
		}
		query.PageSize = size
	}
	page, err := h.svc.ListPieces(r.Context(), query)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, service.NewPiecePageDocument(page))
}

type healthDocument struct {
	Status         string `json:"status"`
	CatalogVersion int    `json:"catalogVersion,omitempty"`
	Pieces         int    `json:"pieces"`
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	cat := h.svc.Catalog()
	if cat == nil {
		h.writeJSON(w, http.StatusServiceUnavailable, healthDocument{Status: "catalog_empty"})
		return
	}
	h.writeJSON(w, http.StatusOK, healthDocument{Status: "ok", CatalogVersion: cat.Version(), Pieces: cat.Len()})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	if err := httpx.WriteJSON(w, status, payload); err != nil {
		h.log.Error(err, "write response")
	}
}

func (h *handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	locale := requestctx.Locale(r.Context())
	requestID := requestctx.RequestID(r.Context())

	status := http.StatusInternalServerError
	e, ok := apperrors.As(err)
	switch {
	case errors.Is(err, httpx.ErrBodyTooLarge):
		e = apperrors.WrapWithMetadata(apperrors.CodeInvalidInput, "request body too large", map[string]string{"Reason": err.Error()}, err)
		status = http.StatusRequestEntityTooLarge
	case ok:
		status = e.Code.HTTPStatus()
	default:
		h.log.Error(err, "request failed", "path", r.URL.Path, "requestId", requestID)
		e = apperrors.Wrap(apperrors.CodeUnknown, "internal error", err)
	}
	h.writeJSON(w, status, ErrorDocument{Error: ErrorDetail{
		Code:      string(e.Code),
		Message:   e.Localize(locale),
		Metadata:  e.Metadata,
		RequestID: requestID,
	}})
}
