package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	authmw "github.com/mind-engage/studyhub/internal/auth/middleware"
	"github.com/mind-engage/studyhub/internal/exam"
	"github.com/mind-engage/studyhub/internal/results"
)

type ResultStore interface {
	List(ctx context.Context, userID string, limit, offset int) ([]exam.Result, error)
	Get(ctx context.Context, userID, id string) (exam.Result, error)
	Delete(ctx context.Context, userID, id string) error
	Summary(ctx context.Context, userID string, topicOf func(string) string) (results.Summary, error)
}

// GET /api/results?limit=&offset= lists the caller's results, newest first.
func ListResultsHandler(store ResultStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rs, err := store.List(r.Context(), authmw.SubjectFromContext(r.Context()), queryInt(r, "limit", 20), queryInt(r, "offset", 0))
		if err != nil {
			fail(w, err)
			return
		}
		if rs == nil {
			rs = []exam.Result{}
		}
		writeJSON(w, http.StatusOK, rs)
	}
}

func GetResultHandler(store ResultStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := store.Get(r.Context(), authmw.SubjectFromContext(r.Context()), chi.URLParam(r, "id"))
		if err != nil {
			fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func DeleteResultHandler(store ResultStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.Delete(r.Context(), authmw.SubjectFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
			fail(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// GET /api/results/summary/analytics
func ResultsSummaryHandler(store ResultStore, topicOf func(string) string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sum, err := store.Summary(r.Context(), authmw.SubjectFromContext(r.Context()), topicOf)
		if err != nil {
			fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sum)
	}
}
