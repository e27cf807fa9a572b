package model

import "time"

// VettingStatus represents an expert's review state.
type VettingStatus string

const (
	VettingPending  VettingStatus = "pending"
	VettingApproved VettingStatus = "approved"
	VettingRejected VettingStatus = "rejected"
)

// HourlyRates holds per-engagement-type rates for an expert.
type HourlyRates struct {
	Advisory           float64 `json:"advisory,omitempty"`
	ArchitectureReview float64 `json:"architecture_review,omitempty"`
	HandsOnExecution   float64 `json:"hands_on_execution,omitempty"`
}

// Expert is the persisted entity that owns an embedding. The embedding is
// derived data: EmbeddingUpdatedAt is non-zero exactly when an embedding is
// stored, and the expert is stale whenever EmbeddingUpdatedAt predates
// UpdatedAt (or either is missing).
type Expert struct {
	ID                 string        `json:"id"`
	Name               string        `json:"name"`
	Bio                string        `json:"bio"`
	Skills             []string      `json:"skills"`
	Domains            []string      `json:"domains"`
	ExpertiseAreas     []string      `json:"expertise_areas"`
	Patents            string        `json:"patents,omitempty"`
	Papers             string        `json:"papers,omitempty"`
	Products           string        `json:"products,omitempty"`
	HourlyRates        HourlyRates   `json:"hourly_rates"`
	VettingStatus      VettingStatus `json:"vetting_status"`
	Rating             float64       `json:"rating"`
	ReviewCount        int           `json:"review_count"`
	TotalHours         int           `json:"total_hours"`
	Available          bool          `json:"available"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`
	EmbeddingText      string        `json:"embedding_text,omitempty"`
	EmbeddingUpdatedAt time.Time     `json:"embedding_updated_at,omitempty"`
}

// Stale reports whether the expert's embedding is missing or predates the
// last profile update and therefore needs regeneration.
func (e Expert) Stale() bool {
	return e.EmbeddingUpdatedAt.IsZero() || e.EmbeddingUpdatedAt.Before(e.UpdatedAt)
}

// SearchFilters narrows search results with conjunctive attribute predicates.
// Zero-valued fields are not applied.
type SearchFilters struct {
	Domain        string        `json:"domain,omitempty"`
	MinHourlyRate float64       `json:"min_hourly_rate,omitempty"`
	MaxHourlyRate float64       `json:"max_hourly_rate,omitempty"`
	VettingStatus VettingStatus `json:"vetting_status,omitempty"`
	MinRating     float64       `json:"min_rating,omitempty"`
	Available     *bool         `json:"availability,omitempty"`
}

// SearchRequest is a natural-language expert search. Limit and Threshold at
// or below zero take the service defaults; a zero or negative similarity
// threshold cannot be requested explicitly.
type SearchRequest struct {
	Query     string         `json:"query"`
	Limit     int            `json:"limit,omitempty"`
	Threshold float64        `json:"threshold,omitempty"`
	Filters   *SearchFilters `json:"filters,omitempty"`
}

// ExpertResult is one ranked search hit.
type ExpertResult struct {
	ID              string        `json:"id"`
	Name            string        `json:"name"`
	Bio             string        `json:"bio"`
	Domains         []string      `json:"domains"`
	Skills          []string      `json:"skills"`
	HourlyRates     HourlyRates   `json:"hourly_rates"`
	VettingStatus   VettingStatus `json:"vetting_status"`
	Rating          float64       `json:"rating"`
	ReviewCount     int           `json:"review_count"`
	TotalHours      int           `json:"total_hours"`
	Available       bool          `json:"availability"`
	SimilarityScore float64       `json:"similarity_score"`
}

// SearchResponse is the ranked result set for a search request.
type SearchResponse struct {
	Query           string         `json:"query"`
	Results         []ExpertResult `json:"results"`
	TotalResults    int            `json:"total_results"`
	ExecutionTimeMS float64        `json:"execution_time_ms,omitempty"`
}
