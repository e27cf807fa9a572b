package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/deeptech-ai/talent-cli/internal/model"
	"github.com/deeptech-ai/talent-cli/internal/search"
	"github.com/deeptech-ai/talent-cli/internal/store"
)

// newRouter builds the HTTP API over the app environment.
func newRouter(env *appEnv) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		if err := env.Store.Ping(req.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/search", func(w http.ResponseWriter, req *http.Request) {
		var sr model.SearchRequest
		if err := json.NewDecoder(req.Body).Decode(&sr); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if sr.Query == "" {
			writeError(w, http.StatusBadRequest, "query is required")
			return
		}

		resp, err := env.Search.Search(req.Context(), sr)
		if err != nil {
			zap.L().Error("search failed", zap.String("query", sr.Query), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "search failed")
			return
		}
		writeJSON(w, http.StatusOK, resp)
	})

	r.Post("/experts", func(w http.ResponseWriter, req *http.Request) {
		var e model.Expert
		if err := json.NewDecoder(req.Body).Decode(&e); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if e.Name == "" {
			writeError(w, http.StatusBadRequest, "name is required")
			return
		}

		created, err := env.Store.CreateExpert(req.Context(), e)
		if err != nil {
			zap.L().Error("create expert failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "create failed")
			return
		}
		writeJSON(w, http.StatusCreated, created)
	})

	r.Get("/experts", func(w http.ResponseWriter, req *http.Request) {
		filter := store.ExpertFilter{
			VettingStatus: model.VettingStatus(req.URL.Query().Get("vetting_status")),
			Domain:        req.URL.Query().Get("domain"),
		}
		if v := req.URL.Query().Get("available"); v != "" {
			avail := v == "true"
			filter.Available = &avail
		}
		if v := req.URL.Query().Get("limit"); v != "" {
			filter.Limit, _ = strconv.Atoi(v)
		}
		if v := req.URL.Query().Get("offset"); v != "" {
			filter.Offset, _ = strconv.Atoi(v)
		}

		experts, err := env.Store.ListExperts(req.Context(), filter)
		if err != nil {
			zap.L().Error("list experts failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "list failed")
			return
		}
		if experts == nil {
			experts = []model.Expert{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"experts": experts, "total": len(experts)})
	})

	r.Get("/experts/{id}", func(w http.ResponseWriter, req *http.Request) {
		id := chi.URLParam(req, "id")
		e, err := env.Store.GetExpert(req.Context(), id)
		if err != nil {
			zap.L().Error("get expert failed", zap.String("expert_id", id), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "get failed")
			return
		}
		if e == nil {
			writeError(w, http.StatusNotFound, "expert not found")
			return
		}
		writeJSON(w, http.StatusOK, e)
	})

	r.Post("/experts/{id}/embedding", func(w http.ResponseWriter, req *http.Request) {
		id := chi.URLParam(req, "id")
		text, err := env.Search.RefreshExpert(req.Context(), id)
		if err != nil {
			if strings.Contains(err.Error(), "not found") {
				writeError(w, http.StatusNotFound, "expert not found")
				return
			}
			if errors.Is(err, search.ErrNoContent) {
				writeError(w, http.StatusUnprocessableEntity, "expert has no embeddable content")
				return
			}
			zap.L().Error("embedding refresh failed", zap.String("expert_id", id), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "embedding refresh failed")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"expert_id":      id,
			"embedded_chars": len(text),
		})
	})

	r.Post("/batch/embeddings", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			BatchSize int `json:"batch_size"`
		}
		// An empty body means "use the configured batch size".
		_ = json.NewDecoder(req.Body).Decode(&body)
		if body.BatchSize <= 0 {
			body.BatchSize = cfg.Embed.BatchSize
		}

		summary, err := env.Runner.Run(req.Context(), body.BatchSize)
		if err != nil {
			zap.L().Error("batch embedding failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "batch embedding failed")
			return
		}
		writeJSON(w, http.StatusOK, summary)
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
