// Package service is the transport-neutral verifier application service.
//
// It decodes verification requests, enforces match grants and limits, runs
// the replay and serves catalog lookups. The gRPC, HTTP and MCP surfaces are
// thin adapters over a shared *Verifier.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync/atomic"

	"github.com/go-logr/logr"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/louisbranch/renovation-rumble/internal/platform/errors"
	"github.com/louisbranch/renovation-rumble/internal/platform/grpc/pagination"
	"github.com/louisbranch/renovation-rumble/internal/services/verifier/domain/catalog"
	"github.com/louisbranch/renovation-rumble/internal/services/verifier/domain/command"
	"github.com/louisbranch/renovation-rumble/internal/services/verifier/domain/engine"
	"github.com/louisbranch/renovation-rumble/internal/services/verifier/domain/replay"
	"github.com/louisbranch/renovation-rumble/internal/services/verifier/matchgrant"
	"github.com/louisbranch/renovation-rumble/internal/services/verifier/storage"
	"github.com/louisbranch/renovation-rumble/internal/services/verifier/storage/filter"
)

const tracerName = "github.com/louisbranch/renovation-rumble/verifier"

// Default limits.
const (
	DefaultMaxCommands      = 10000
	DefaultMaxBatch         = 64
	DefaultBatchConcurrency = 4
)

// Store is the persistence the verifier needs.
type Store interface {
	storage.PieceStore
	storage.CatalogStore
}

// Options configure a Verifier. Zero limits take the defaults.
type Options struct {
	MaxCommands      int
	MaxBatch         int
	BatchConcurrency int
	Grants           matchgrant.Config
	Logger           logr.Logger
	Tracer           trace.Tracer
}

// Verifier verifies recorded matches against the current catalog.
type Verifier struct {
	store   Store
	catalog atomic.Pointer[catalog.Catalog]
	codec   *command.Codec
	runner  *engine.CommandRunner
	opts    Options
	log     logr.Logger
	tracer  trace.Tracer
}

// New builds a Verifier over store. cat may be nil until a catalog is
// imported; verification then fails with CATALOG_EMPTY.
func New(store Store, cat *catalog.Catalog, opts Options) (*Verifier, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	registry, err := command.DefaultRegistry()
	if err != nil {
		return nil, fmt.Errorf("command registry: %w", err)
	}
	if opts.MaxCommands <= 0 {
		opts.MaxCommands = DefaultMaxCommands
	}
	if opts.MaxBatch <= 0 {
		opts.MaxBatch = DefaultMaxBatch
	}
	if opts.BatchConcurrency <= 0 {
		opts.BatchConcurrency = DefaultBatchConcurrency
	}
	if opts.Logger.GetSink() == nil {
		opts.Logger = logr.Discard()
	}
	if opts.Tracer == nil {
		opts.Tracer = otel.Tracer(tracerName)
	}
	v := &Verifier{
		store:  store,
		codec:  command.NewCodec(registry),
		runner: engine.NewDefaultCommandRunner(),
		opts:   opts,
		log:    opts.Logger,
		tracer: opts.Tracer,
	}
	v.catalog.Store(cat)
	return v, nil
}

// Codec returns the command codec requests are decoded with.
func (v *Verifier) Codec() *command.Codec {
	return v.codec
}

// Limits returns the effective command and batch limits.
func (v *Verifier) Limits() (maxCommands, maxBatch int) {
	return v.opts.MaxCommands, v.opts.MaxBatch
}

// Catalog returns the catalog in use, or nil before the first import.
func (v *Verifier) Catalog() *catalog.Catalog {
	return v.catalog.Load()
}

// ImportCatalog decodes a catalog document, persists it and swaps it in.
func (v *Verifier) ImportCatalog(ctx context.Context, r io.Reader) (*catalog.Catalog, error) {
	cat, err := catalog.Decode(r)
	if err != nil {
		return nil, apperrors.WrapWithMetadata(apperrors.CodeInvalidInput, "decode catalog", map[string]string{"Reason": err.Error()}, err)
	}
	if err := v.store.ReplaceCatalog(ctx, cat); err != nil {
		return nil, fmt.Errorf("store catalog: %w", err)
	}
	v.catalog.Store(cat)
	v.log.Info("catalog imported", "version", cat.Version(), "pieces", cat.Len())
	return cat, nil
}

// ReloadCatalog swaps in the stored catalog.
func (v *Verifier) ReloadCatalog(ctx context.Context) (*catalog.Catalog, error) {
	cat, err := v.store.LoadCatalog(ctx)
	if err != nil {
		return nil, err
	}
	v.catalog.Store(cat)
	return cat, nil
}

// Verify decodes a JSON verify request and judges it.
func (v *Verifier) Verify(ctx context.Context, body []byte) (Verdict, error) {
	req, err := replay.DecodeRequest(body, v.codec)
	if err != nil {
		return Verdict{}, invalidInput(err)
	}
	return v.VerifyRequest(ctx, req)
}

// VerifyRequest judges an already decoded request. Grant failures and a
// missing catalog are errors; every other outcome is a Verdict.
func (v *Verifier) VerifyRequest(ctx context.Context, req replay.Request) (Verdict, error) {
	ctx, span := v.tracer.Start(ctx, "verifier.Verify", trace.WithAttributes(
		attribute.Int("verify.commands", len(req.Commands)),
	))
	defer span.End()

	cat := v.catalog.Load()
	if cat == nil {
		err := apperrors.New(apperrors.CodeCatalogEmpty, "catalog is empty")
		span.SetStatus(otelcodes.Error, err.Error())
		return Verdict{}, err
	}
	if err := v.checkGrant(req); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return Verdict{}, err
	}

	resp := replay.Verify(cat, req, v.replayOptions())
	verdict := v.newVerdict(req, resp)
	span.SetAttributes(
		attribute.String("verify.status", resp.Status.String()),
		attribute.Int64("verify.computed_score", int64(resp.ComputedScore)),
		attribute.Int("verify.command_index", resp.CommandIndex),
	)
	v.logVerdict(ctx, req, resp)
	return verdict, nil
}

// VerifyBatch decodes {"requests": [...]} and judges every entry
// concurrently. Per-entry decode and grant failures become InvalidInput
// verdicts so one bad entry does not sink the batch.
func (v *Verifier) VerifyBatch(ctx context.Context, body []byte) ([]Verdict, error) {
	raws, err := splitBatch(body)
	if err != nil {
		return nil, invalidInput(err)
	}
	if len(raws) > v.opts.MaxBatch {
		return nil, apperrors.WithMetadata(
			apperrors.CodeBatchLimitExceeded,
			"batch too large",
			map[string]string{"Limit": strconv.Itoa(v.opts.MaxBatch)},
		)
	}

	ctx, span := v.tracer.Start(ctx, "verifier.VerifyBatch", trace.WithAttributes(
		attribute.Int("verify.batch_size", len(raws)),
	))
	defer span.End()

	cat := v.catalog.Load()
	if cat == nil {
		return nil, apperrors.New(apperrors.CodeCatalogEmpty, "catalog is empty")
	}

	out := make([]Verdict, len(raws))
	var (
		pending []replay.Request
		slots   []int
	)
	for i, raw := range raws {
		req, err := replay.DecodeRequest(raw, v.codec)
		if err == nil {
			err = v.checkGrant(req)
		}
		if err != nil {
			out[i] = rejectedVerdict(invalidInputOr(err))
			continue
		}
		pending = append(pending, req)
		slots = append(slots, i)
	}

	responses, err := replay.VerifyBatch(ctx, cat, pending, v.replayOptions(), v.opts.BatchConcurrency)
	if err != nil {
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}
	for j, resp := range responses {
		out[slots[j]] = v.newVerdict(pending[j], resp)
		v.logVerdict(ctx, pending[j], resp)
	}
	return out, nil
}

// GetPiece returns a stored piece or PIECE_NOT_FOUND.
func (v *Verifier) GetPiece(ctx context.Context, id uint16) (catalog.Piece, error) {
	p, err := v.store.GetPiece(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return catalog.Piece{}, apperrors.WrapWithMetadata(
			apperrors.CodePieceNotFound,
			"piece not found",
			map[string]string{"PieceID": strconv.Itoa(int(id))},
			err,
		)
	}
	return p, err
}

// ListPieces pages through stored pieces.
func (v *Verifier) ListPieces(ctx context.Context, query storage.PieceQuery) (storage.PiecePage, error) {
	page, err := v.store.ListPieces(ctx, query)
	switch {
	case errors.Is(err, filter.ErrInvalidFilter):
		return storage.PiecePage{}, apperrors.WrapWithMetadata(
			apperrors.CodeFilterInvalid,
			"invalid filter",
			map[string]string{"Reason": err.Error()},
			err,
		)
	case errors.Is(err, pagination.ErrInvalidPageToken):
		return storage.PiecePage{}, apperrors.Wrap(apperrors.CodePageTokenInvalid, "invalid page token", err)
	}
	return page, err
}

func (v *Verifier) replayOptions() replay.Options {
	return replay.Options{
		MaxCommands: v.opts.MaxCommands,
		Runner:      v.runner,
		Logger:      v.log,
	}
}

func (v *Verifier) checkGrant(req replay.Request) error {
	if !v.opts.Grants.Enabled() || req.Match == nil {
		return nil
	}
	_, err := matchgrant.Validate(req.Grant, *req.Match, v.opts.Grants)
	return err
}

func (v *Verifier) logVerdict(ctx context.Context, req replay.Request, resp replay.Response) {
	log := v.log
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		log = log.WithValues("trace_id", sc.TraceID().String())
	}
	log.Info("match verified",
		"status", resp.Status.String(),
		"claimed", req.ClaimedScore,
		"computed", resp.ComputedScore,
		"commands", len(req.Commands),
		"command_index", resp.CommandIndex,
	)
}

func invalidInput(err error) error {
	return apperrors.WrapWithMetadata(apperrors.CodeInvalidInput, "invalid verify request", map[string]string{"Reason": err.Error()}, err)
}

// invalidInputOr keeps service errors and wraps everything else.
func invalidInputOr(err error) *apperrors.Error {
	if e, ok := apperrors.As(err); ok {
		return e
	}
	e, _ := apperrors.As(invalidInput(err))
	return e
}
