// Package embedjob refreshes stale expert embeddings in bounded-concurrency
// batches.
package embedjob

import (
	"context"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/deeptech-ai/talent-cli/internal/embedding"
	"github.com/deeptech-ai/talent-cli/internal/store"
)

// DefaultConcurrency bounds parallel encode calls so a large backlog does not
// saturate the embedding provider's rate limit.
const DefaultConcurrency = 4

// Summary tallies one batch run.
type Summary struct {
	Processed int `json:"processed"`
	Updated   int `json:"updated"`
	Skipped   int `json:"skipped"`
	Errored   int `json:"errored"`
}

// Runner regenerates embeddings for experts whose profiles changed since
// their embedding was last computed.
type Runner struct {
	store       store.Store
	encoder     embedding.Encoder
	concurrency int
}

// NewRunner creates a batch runner. concurrency <= 0 selects
// DefaultConcurrency.
func NewRunner(st store.Store, enc embedding.Encoder, concurrency int) *Runner {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Runner{store: st, encoder: enc, concurrency: concurrency}
}

// Run refreshes up to batchSize stale experts. A failure on one expert is
// counted and logged but never aborts the rest of the batch; only listing the
// stale set or a canceled context fails the run.
func (r *Runner) Run(ctx context.Context, batchSize int) (Summary, error) {
	experts, err := r.store.FindStaleExperts(ctx, batchSize)
	if err != nil {
		return Summary{}, eris.Wrap(err, "embedjob: find stale experts")
	}

	var updated, skipped, errored atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for _, expert := range experts {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			text := embedding.BuildExpertText(expert)
			vec, err := r.encoder.Encode(ctx, text)
			if err != nil {
				errored.Add(1)
				zap.L().Warn("embedding refresh failed",
					zap.String("expert_id", expert.ID), zap.Error(err))
				return nil
			}
			if embedding.IsZero(vec) {
				skipped.Add(1)
				zap.L().Debug("expert profile too sparse to embed",
					zap.String("expert_id", expert.ID))
				return nil
			}

			if err := r.store.UpsertEmbedding(ctx, expert.ID, vec, text); err != nil {
				errored.Add(1)
				zap.L().Warn("embedding store failed",
					zap.String("expert_id", expert.ID), zap.Error(err))
				return nil
			}

			updated.Add(1)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Summary{}, eris.Wrap(err, "embedjob: batch canceled")
	}

	summary := Summary{
		Processed: len(experts),
		Updated:   int(updated.Load()),
		Skipped:   int(skipped.Load()),
		Errored:   int(errored.Load()),
	}
	zap.L().Info("embedding batch complete",
		zap.Int("processed", summary.Processed),
		zap.Int("updated", summary.Updated),
		zap.Int("skipped", summary.Skipped),
		zap.Int("errored", summary.Errored),
	)
	return summary, nil
}
