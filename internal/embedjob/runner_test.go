package embedjob

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deeptech-ai/talent-cli/internal/model"
	"github.com/deeptech-ai/talent-cli/internal/store"
)

type fakeEncoder struct {
	failFor map[string]bool
}

func (f *fakeEncoder) Encode(_ context.Context, text string) ([]float32, error) {
	for name := range f.failFor {
		if strings.Contains(text, name) {
			return nil, eris.New("provider error")
		}
	}
	if text == "" {
		return []float32{0, 0, 0}, nil
	}
	return []float32{1, 0, 0}, nil
}

func (f *fakeEncoder) Dimensions() int { return 3 }

type fakeStore struct {
	store.Store

	mu        sync.Mutex
	stale     []model.Expert
	staleErr  error
	upserts   map[string]string
	upsertErr map[string]error
}

func newFakeStore(stale ...model.Expert) *fakeStore {
	return &fakeStore{
		stale:     stale,
		upserts:   map[string]string{},
		upsertErr: map[string]error{},
	}
}

func (f *fakeStore) FindStaleExperts(_ context.Context, limit int) ([]model.Expert, error) {
	if f.staleErr != nil {
		return nil, f.staleErr
	}
	if len(f.stale) > limit {
		return f.stale[:limit], nil
	}
	return f.stale, nil
}

func (f *fakeStore) UpsertEmbedding(_ context.Context, expertID string, _ []float32, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.upsertErr[expertID]; err != nil {
		return err
	}
	f.upserts[expertID] = text
	return nil
}

func TestRun_UpdatesAllStale(t *testing.T) {
	st := newFakeStore(
		model.Expert{ID: "a", Name: "Ada"},
		model.Expert{ID: "b", Name: "Grace"},
		model.Expert{ID: "c", Name: "Katherine"},
	)
	r := NewRunner(st, &fakeEncoder{}, 2)

	summary, err := r.Run(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, Summary{Processed: 3, Updated: 3}, summary)
	assert.Len(t, st.upserts, 3)
}

func TestRun_IsolatesPerExpertFailures(t *testing.T) {
	st := newFakeStore(
		model.Expert{ID: "ok", Name: "Ada"},
		model.Expert{ID: "bad", Name: "Failing"},
	)
	enc := &fakeEncoder{failFor: map[string]bool{"Failing": true}}
	r := NewRunner(st, enc, 1)

	summary, err := r.Run(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, Summary{Processed: 2, Updated: 1, Errored: 1}, summary)
	assert.Contains(t, st.upserts, "ok")
	assert.NotContains(t, st.upserts, "bad")
}

func TestRun_SkipsSparseProfiles(t *testing.T) {
	// An expert with no populated fields builds empty text, which encodes to
	// the zero vector.
	st := newFakeStore(model.Expert{ID: "sparse"})
	r := NewRunner(st, &fakeEncoder{}, 1)

	summary, err := r.Run(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, Summary{Processed: 1, Skipped: 1}, summary)
}

func TestRun_CountsStoreFailures(t *testing.T) {
	st := newFakeStore(model.Expert{ID: "a", Name: "Ada"})
	st.upsertErr["a"] = eris.New("connection reset")
	r := NewRunner(st, &fakeEncoder{}, 1)

	summary, err := r.Run(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, Summary{Processed: 1, Errored: 1}, summary)
}

func TestRun_RespectsBatchSize(t *testing.T) {
	st := newFakeStore(
		model.Expert{ID: "a", Name: "Ada"},
		model.Expert{ID: "b", Name: "Grace"},
	)
	r := NewRunner(st, &fakeEncoder{}, 1)

	summary, err := r.Run(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Processed)
}

func TestRun_ListFailureAborts(t *testing.T) {
	st := newFakeStore()
	st.staleErr = eris.New("db down")
	r := NewRunner(st, &fakeEncoder{}, 1)

	_, err := r.Run(context.Background(), 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "find stale experts")
}
