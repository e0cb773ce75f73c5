package replay

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/louisbranch/renovation-rumble/internal/services/verifier/domain/catalog"
	"github.com/louisbranch/renovation-rumble/internal/services/verifier/domain/engine"
)

// VerifyBatch verifies reqs concurrently with at most limit in flight
// (unbounded when limit <= 0). Responses keep the request order. Once ctx is
// done no further requests are scheduled and its error is returned.
func VerifyBatch(ctx context.Context, cat *catalog.Catalog, reqs []Request, opts Options, limit int) ([]Response, error) {
	if opts.Runner == nil {
		opts.Runner = engine.NewDefaultCommandRunner()
	}
	out := make([]Response, len(reqs))
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, req := range reqs {
		if err := gctx.Err(); err != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = Verify(cat, req, opts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
