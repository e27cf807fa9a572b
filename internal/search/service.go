// Package search turns natural-language queries into ranked expert results
// and keeps expert embeddings in step with profile edits.
package search

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/deeptech-ai/talent-cli/internal/embedding"
	"github.com/deeptech-ai/talent-cli/internal/model"
	"github.com/deeptech-ai/talent-cli/internal/store"
)

const (
	// DefaultThreshold is the minimum cosine similarity for a search hit.
	// Calibrated so generic queries still return useful matches while
	// unrelated profiles stay out.
	DefaultThreshold = 0.37

	// DefaultLimit caps result sets when the request does not specify one.
	DefaultLimit = 10
)

// ErrNoContent reports an expert whose profile text is too sparse to embed.
// The stored embedding, if any, is left untouched.
var ErrNoContent = eris.New("search: expert has no embeddable content")

// Service executes semantic expert search against a Store.
type Service struct {
	store   store.Store
	encoder embedding.Encoder
}

// NewService creates a search service.
func NewService(st store.Store, enc embedding.Encoder) *Service {
	return &Service{store: st, encoder: enc}
}

// Search encodes the query and returns experts ranked by cosine similarity,
// best match first. A query too short to carry meaning returns an empty
// result set rather than an error.
func (s *Service) Search(ctx context.Context, req model.SearchRequest) (*model.SearchResponse, error) {
	if req.Query == "" {
		return nil, eris.New("search: empty query")
	}

	limit := req.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	threshold := req.Threshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	start := time.Now()

	vec, err := s.encoder.Encode(ctx, req.Query)
	if err != nil {
		return nil, eris.Wrap(err, "search: encode query")
	}

	resp := &model.SearchResponse{Query: req.Query, Results: []model.ExpertResult{}}
	if embedding.IsZero(vec) {
		zap.L().Debug("search query carried no signal", zap.String("query", req.Query))
		resp.ExecutionTimeMS = float64(time.Since(start).Microseconds()) / 1000
		return resp, nil
	}

	results, err := s.store.SearchExperts(ctx, store.SearchQuery{
		Vector:    vec,
		Threshold: threshold,
		Limit:     limit,
		Filters:   req.Filters,
	})
	if err != nil {
		return nil, eris.Wrap(err, "search: query store")
	}
	if results != nil {
		resp.Results = results
	}
	resp.TotalResults = len(resp.Results)
	resp.ExecutionTimeMS = float64(time.Since(start).Microseconds()) / 1000

	zap.L().Debug("search complete",
		zap.String("query", req.Query),
		zap.Int("results", resp.TotalResults),
		zap.Float64("threshold", threshold),
	)
	return resp, nil
}

// RefreshExpert regenerates and stores the embedding for one expert from its
// current profile fields. Returns the expert text that was embedded. A profile
// too sparse to encode returns ErrNoContent without touching the store: a zero
// vector must never reach the index, where its undefined cosine distance would
// rank the expert ahead of every real match.
func (s *Service) RefreshExpert(ctx context.Context, expertID string) (string, error) {
	expert, err := s.store.GetExpert(ctx, expertID)
	if err != nil {
		return "", eris.Wrapf(err, "search: load expert %s", expertID)
	}
	if expert == nil {
		return "", eris.Errorf("search: expert not found: %s", expertID)
	}

	text := embedding.BuildExpertText(*expert)
	vec, err := s.encoder.Encode(ctx, text)
	if err != nil {
		return "", eris.Wrapf(err, "search: encode expert %s", expertID)
	}
	if embedding.IsZero(vec) {
		zap.L().Warn("expert profile too sparse to embed", zap.String("expert_id", expertID))
		return text, ErrNoContent
	}

	if err := s.store.UpsertEmbedding(ctx, expertID, vec, text); err != nil {
		return "", eris.Wrapf(err, "search: store embedding %s", expertID)
	}

	zap.L().Info("expert embedding refreshed",
		zap.String("expert_id", expertID),
		zap.Int("text_chars", len(text)),
	)
	return text, nil
}
