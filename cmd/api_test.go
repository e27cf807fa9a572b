package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deeptech-ai/talent-cli/internal/config"
	"github.com/deeptech-ai/talent-cli/internal/embedjob"
	"github.com/deeptech-ai/talent-cli/internal/model"
	"github.com/deeptech-ai/talent-cli/internal/search"
	"github.com/deeptech-ai/talent-cli/internal/store"
)

// stubEncoder maps text onto one of two fixed directions so similarity is
// deterministic without a provider.
type stubEncoder struct{}

func (stubEncoder) Encode(_ context.Context, text string) ([]float32, error) {
	if len(strings.TrimSpace(text)) < 10 {
		return []float32{0, 0, 0}, nil
	}
	if strings.Contains(strings.ToLower(text), "robotics") {
		return []float32{1, 0, 0}, nil
	}
	return []float32{0, 1, 0}, nil
}

func (stubEncoder) Dimensions() int { return 3 }

func newTestEnv(t *testing.T) *appEnv {
	t.Helper()

	st, err := store.NewSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate(context.Background()))

	enc := stubEncoder{}
	cfg = &config.Config{Embed: config.EmbedConfig{BatchSize: 100}}

	return &appEnv{
		Store:   st,
		Encoder: enc,
		Search:  search.NewService(st, enc),
		Runner:  embedjob.NewRunner(st, enc, 2),
	}
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestAPI_Health(t *testing.T) {
	router := newRouter(newTestEnv(t))

	rec := doJSON(t, router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}

func TestAPI_ExpertLifecycle(t *testing.T) {
	router := newRouter(newTestEnv(t))

	// Create.
	rec := doJSON(t, router, http.MethodPost, "/experts", model.Expert{
		Name:    "Rosie",
		Bio:     "robotics systems engineer",
		Domains: []string{"robotics"},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created model.Expert
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEmpty(t, created.ID)

	// Fetch.
	rec = doJSON(t, router, http.MethodGet, "/experts/"+created.ID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Refresh embedding.
	rec = doJSON(t, router, http.MethodPost, "/experts/"+created.ID+"/embedding", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), created.ID)

	// Search finds it.
	rec = doJSON(t, router, http.MethodPost, "/search", model.SearchRequest{Query: "robotics expert"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp model.SearchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.TotalResults)
	assert.Equal(t, "Rosie", resp.Results[0].Name)
}

func TestAPI_GetExpert_NotFound(t *testing.T) {
	router := newRouter(newTestEnv(t))

	rec := doJSON(t, router, http.MethodGet, "/experts/ghost", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPI_RefreshEmbedding_NotFound(t *testing.T) {
	router := newRouter(newTestEnv(t))

	rec := doJSON(t, router, http.MethodPost, "/experts/ghost/embedding", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPI_RefreshEmbedding_SparseProfile(t *testing.T) {
	env := newTestEnv(t)
	router := newRouter(env)

	// "Name: Zed" is under the encoder's meaningful-content floor.
	rec := doJSON(t, router, http.MethodPost, "/experts", model.Expert{Name: "Zed"})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created model.Expert
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = doJSON(t, router, http.MethodPost, "/experts/"+created.ID+"/embedding", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	// The zero vector stayed out of the index, so searches stay clean.
	rec = doJSON(t, router, http.MethodPost, "/search", model.SearchRequest{Query: "robotics expert"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp model.SearchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Zero(t, resp.TotalResults)
}

func TestAPI_Search_RequiresQuery(t *testing.T) {
	router := newRouter(newTestEnv(t))

	rec := doJSON(t, router, http.MethodPost, "/search", model.SearchRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/search", strings.NewReader("{not json"))
	rec2 := httptest.NewRecorder()
	router.ServeHTTP(rec2, req)
	assert.Equal(t, http.StatusBadRequest, rec2.Code)
}

func TestAPI_BatchEmbeddings(t *testing.T) {
	env := newTestEnv(t)
	router := newRouter(env)

	for _, name := range []string{"Rosie", "Bender"} {
		rec := doJSON(t, router, http.MethodPost, "/experts", model.Expert{Name: name, Bio: "robotics"})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := doJSON(t, router, http.MethodPost, "/batch/embeddings", map[string]int{"batch_size": 10})
	require.Equal(t, http.StatusOK, rec.Code)

	var summary embedjob.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, 2, summary.Processed)
	assert.Equal(t, 2, summary.Updated)

	// Everything is fresh now.
	rec = doJSON(t, router, http.MethodPost, "/batch/embeddings", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Zero(t, summary.Processed)
}

func TestAPI_ListExperts(t *testing.T) {
	router := newRouter(newTestEnv(t))

	rec := doJSON(t, router, http.MethodPost, "/experts", model.Expert{Name: "Rosie", VettingStatus: model.VettingApproved})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/experts?vetting_status=approved", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Rosie")

	rec = doJSON(t, router, http.MethodGet, "/experts?vetting_status=rejected", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total":0`)
}
