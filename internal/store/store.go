package store

import (
	"context"

	"github.com/deeptech-ai/talent-cli/internal/model"
)

// ExpertFilter specifies criteria for listing experts.
type ExpertFilter struct {
	VettingStatus model.VettingStatus `json:"vetting_status,omitempty"`
	Domain        string              `json:"domain,omitempty"`
	Available     *bool               `json:"available,omitempty"`
	Limit         int                 `json:"limit,omitempty"`
	Offset        int                 `json:"offset,omitempty"`
}

// SearchQuery is an embedding-space search with optional attribute filters.
// Threshold is a minimum cosine similarity; rows below it are never returned.
type SearchQuery struct {
	Vector    []float32
	Threshold float64
	Limit     int
	Filters   *model.SearchFilters
}

// Store defines the persistence interface for experts and their embeddings.
type Store interface {
	// Experts
	CreateExpert(ctx context.Context, e model.Expert) (*model.Expert, error)
	GetExpert(ctx context.Context, id string) (*model.Expert, error)
	ListExperts(ctx context.Context, filter ExpertFilter) ([]model.Expert, error)

	// Embeddings
	UpsertEmbedding(ctx context.Context, expertID string, vector []float32, text string) error
	FindStaleExperts(ctx context.Context, limit int) ([]model.Expert, error)

	// Search
	SearchExperts(ctx context.Context, q SearchQuery) ([]model.ExpertResult, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// matchesFilters applies conjunctive attribute predicates to an expert.
// Zero-valued filter fields match everything. Rate filters apply to the
// advisory rate, the baseline engagement type.
func matchesFilters(e model.Expert, f *model.SearchFilters) bool {
	if f == nil {
		return true
	}
	if f.VettingStatus != "" && e.VettingStatus != f.VettingStatus {
		return false
	}
	if f.MinRating > 0 && e.Rating < f.MinRating {
		return false
	}
	if f.Available != nil && e.Available != *f.Available {
		return false
	}
	if f.MinHourlyRate > 0 && e.HourlyRates.Advisory < f.MinHourlyRate {
		return false
	}
	if f.MaxHourlyRate > 0 && e.HourlyRates.Advisory > f.MaxHourlyRate {
		return false
	}
	if f.Domain != "" {
		found := false
		for _, d := range e.Domains {
			if d == f.Domain {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func resultFromExpert(e model.Expert, similarity float64) model.ExpertResult {
	return model.ExpertResult{
		ID:              e.ID,
		Name:            e.Name,
		Bio:             e.Bio,
		Domains:         e.Domains,
		Skills:          e.Skills,
		HourlyRates:     e.HourlyRates,
		VettingStatus:   e.VettingStatus,
		Rating:          e.Rating,
		ReviewCount:     e.ReviewCount,
		TotalHours:      e.TotalHours,
		Available:       e.Available,
		SimilarityScore: similarity,
	}
}
