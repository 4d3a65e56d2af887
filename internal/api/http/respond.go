package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/mind-engage/studyhub/internal/auth"
	"github.com/mind-engage/studyhub/internal/chat"
	"github.com/mind-engage/studyhub/internal/exam"
	"github.com/mind-engage/studyhub/internal/llm"
	"github.com/mind-engage/studyhub/internal/results"
	"github.com/mind-engage/studyhub/internal/study"
	"github.com/mind-engage/studyhub/internal/textbook"
)

const maxBody = 4 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decode reads a JSON body into v and answers 400 on failure.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(v); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return false
	}
	return true
}

// fail maps domain errors onto status codes.
func fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, exam.ErrInvalidConfig),
		errors.Is(err, exam.ErrInvalidQuestion),
		errors.Is(err, study.ErrInvalid),
		errors.Is(err, textbook.ErrInvalidName),
		errors.Is(err, auth.ErrInvalidUser):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, exam.ErrExamNotFound),
		errors.Is(err, results.ErrNotFound),
		errors.Is(err, study.ErrNotFound),
		errors.Is(err, chat.ErrNotFound),
		errors.Is(err, textbook.ErrNotFound),
		errors.Is(err, auth.ErrUserNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, auth.ErrInvalidCredentials):
		http.Error(w, err.Error(), http.StatusUnauthorized)
	case errors.Is(err, auth.ErrEmailTaken):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, llm.ErrUnavailable):
		http.Error(w, "AI service unavailable", http.StatusServiceUnavailable)
	case errors.Is(err, textbook.ErrNoText):
		http.Error(w, "failed to extract text: "+err.Error(), http.StatusInternalServerError)
	default:
		log.Printf("api: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func queryInt(r *http.Request, key string, def int) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return def
	}
	return n
}
