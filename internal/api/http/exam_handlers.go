package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	authmw "github.com/mind-engage/studyhub/internal/auth/middleware"
	"github.com/mind-engage/studyhub/internal/exam"
)

type Exams interface {
	CreateExam(ctx context.Context, cfg exam.Config) (exam.Exam, error)
	GetExam(ctx context.Context, id string) (exam.Exam, error)
	SubmitExam(ctx context.Context, userID, examID string, sub exam.Submission) (exam.Result, error)
	Topics() []string
}

// POST /api/exam/create {"difficulty","topic","question_count","time_limit"}
func CreateExamHandler(svc Exams) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var cfg exam.Config
		if !decode(w, r, &cfg) {
			return
		}
		if cfg.Difficulty != "" {
			d, err := exam.ParseDifficulty(string(cfg.Difficulty))
			if err != nil {
				fail(w, err)
				return
			}
			cfg.Difficulty = d
		}
		e, err := svc.CreateExam(r.Context(), cfg)
		if err != nil {
			fail(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, e)
	}
}

func GetExamHandler(svc Exams) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, err := svc.GetExam(r.Context(), chi.URLParam(r, "examID"))
		if err != nil {
			fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, e)
	}
}

// POST /api/exam/{examID}/submit grades the answers for the caller.
func SubmitExamHandler(svc Exams) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var sub exam.Submission
		if !decode(w, r, &sub) {
			return
		}
		res, err := svc.SubmitExam(r.Context(), authmw.SubjectFromContext(r.Context()), chi.URLParam(r, "examID"), sub)
		if err != nil {
			fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func TopicsHandler(svc Exams) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string][]string{"topics": svc.Topics()})
	}
}
