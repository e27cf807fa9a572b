package search

import (
	"context"
	"errors"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deeptech-ai/talent-cli/internal/model"
	"github.com/deeptech-ai/talent-cli/internal/store"
)

type fakeEncoder struct {
	vec  []float32
	err  error
	dims int
}

func (f *fakeEncoder) Encode(_ context.Context, _ string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.vec, nil
}

func (f *fakeEncoder) Dimensions() int { return f.dims }

type fakeStore struct {
	store.Store

	experts   map[string]*model.Expert
	results   []model.ExpertResult
	searchErr error
	lastQuery store.SearchQuery
	upserts   map[string]string
	upsertErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		experts: map[string]*model.Expert{},
		upserts: map[string]string{},
	}
}

func (f *fakeStore) GetExpert(_ context.Context, id string) (*model.Expert, error) {
	return f.experts[id], nil
}

func (f *fakeStore) SearchExperts(_ context.Context, q store.SearchQuery) ([]model.ExpertResult, error) {
	f.lastQuery = q
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.results, nil
}

func (f *fakeStore) UpsertEmbedding(_ context.Context, expertID string, _ []float32, text string) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upserts[expertID] = text
	return nil
}

func TestSearch_AppliesDefaults(t *testing.T) {
	st := newFakeStore()
	st.results = []model.ExpertResult{{ID: "exp-1", Name: "Ada", SimilarityScore: 0.8}}
	svc := NewService(st, &fakeEncoder{vec: []float32{0.1, 0.2}, dims: 2})

	resp, err := svc.Search(context.Background(), model.SearchRequest{Query: "robotics expert"})
	require.NoError(t, err)

	assert.Equal(t, DefaultLimit, st.lastQuery.Limit)
	assert.Equal(t, DefaultThreshold, st.lastQuery.Threshold)
	assert.Equal(t, "robotics expert", resp.Query)
	assert.Equal(t, 1, resp.TotalResults)
	assert.GreaterOrEqual(t, resp.ExecutionTimeMS, 0.0)
}

func TestSearch_PassesOverridesAndFilters(t *testing.T) {
	st := newFakeStore()
	svc := NewService(st, &fakeEncoder{vec: []float32{0.1, 0.2}, dims: 2})

	filters := &model.SearchFilters{Domain: "biotech", MinRating: 4.0}
	_, err := svc.Search(context.Background(), model.SearchRequest{
		Query:     "gene therapy",
		Limit:     25,
		Threshold: 0.5,
		Filters:   filters,
	})
	require.NoError(t, err)

	assert.Equal(t, 25, st.lastQuery.Limit)
	assert.Equal(t, 0.5, st.lastQuery.Threshold)
	assert.Equal(t, filters, st.lastQuery.Filters)
}

func TestSearch_EmptyQuery(t *testing.T) {
	svc := NewService(newFakeStore(), &fakeEncoder{dims: 2})

	_, err := svc.Search(context.Background(), model.SearchRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty query")
}

func TestSearch_DegenerateQueryReturnsEmpty(t *testing.T) {
	st := newFakeStore()
	st.results = []model.ExpertResult{{ID: "should-not-appear"}}
	svc := NewService(st, &fakeEncoder{vec: []float32{0, 0}, dims: 2})

	resp, err := svc.Search(context.Background(), model.SearchRequest{Query: "?!"})
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
	assert.Zero(t, resp.TotalResults)
	assert.Empty(t, st.lastQuery.Vector, "store must not be queried for a zero vector")
}

func TestSearch_EncoderError(t *testing.T) {
	svc := NewService(newFakeStore(), &fakeEncoder{err: eris.New("provider down"), dims: 2})

	_, err := svc.Search(context.Background(), model.SearchRequest{Query: "anything"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "encode query")
}

func TestSearch_StoreError(t *testing.T) {
	st := newFakeStore()
	st.searchErr = eris.New("connection refused")
	svc := NewService(st, &fakeEncoder{vec: []float32{0.1}, dims: 1})

	_, err := svc.Search(context.Background(), model.SearchRequest{Query: "anything"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query store")
}

func TestRefreshExpert(t *testing.T) {
	st := newFakeStore()
	st.experts["exp-1"] = &model.Expert{
		ID:     "exp-1",
		Name:   "Ada Lovelace",
		Skills: []string{"Python"},
	}
	svc := NewService(st, &fakeEncoder{vec: []float32{0.1, 0.2}, dims: 2})

	text, err := svc.RefreshExpert(context.Background(), "exp-1")
	require.NoError(t, err)
	assert.Equal(t, "Name: Ada Lovelace | Skills: Python", text)
	assert.Equal(t, text, st.upserts["exp-1"])
}

func TestRefreshExpert_SparseProfile(t *testing.T) {
	st := newFakeStore()
	st.experts["exp-1"] = &model.Expert{ID: "exp-1", Name: "Ada"}
	svc := NewService(st, &fakeEncoder{vec: []float32{0, 0}, dims: 2})

	_, err := svc.RefreshExpert(context.Background(), "exp-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoContent))
	assert.Empty(t, st.upserts, "a zero vector must never be stored")
}

func TestRefreshExpert_NotFound(t *testing.T) {
	svc := NewService(newFakeStore(), &fakeEncoder{dims: 2})

	_, err := svc.RefreshExpert(context.Background(), "ghost")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expert not found")
}
