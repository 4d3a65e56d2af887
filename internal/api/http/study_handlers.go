package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/studyhub/internal/exam"
	"github.com/mind-engage/studyhub/internal/study"
)

type StudyStore interface {
	ListMaterials(ctx context.Context, category, q string) ([]study.Material, error)
	GetMaterial(ctx context.Context, id string) (study.Material, error)
	CreateMaterial(ctx context.Context, in study.MaterialInput) (study.Material, error)
	UpdateMaterial(ctx context.Context, id string, p study.MaterialPatch) (study.Material, error)
	DeleteMaterial(ctx context.Context, id string) error

	ListFlashcards(ctx context.Context, category string, difficulty exam.Difficulty) ([]study.Flashcard, error)
	GetFlashcard(ctx context.Context, id string) (study.Flashcard, error)
	CreateFlashcard(ctx context.Context, in study.FlashcardInput) (study.Flashcard, error)
	CreateFlashcards(ctx context.Context, ins []study.FlashcardInput) ([]study.Flashcard, error)
	DeleteFlashcard(ctx context.Context, id string) error
}

// GET /api/study/materials?category=&search=
func ListMaterialsHandler(store StudyStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		ms, err := store.ListMaterials(r.Context(), q.Get("category"), q.Get("search"))
		if err != nil {
			fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ms)
	}
}

func GetMaterialHandler(store StudyStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m, err := store.GetMaterial(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, m)
	}
}

func CreateMaterialHandler(store StudyStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in study.MaterialInput
		if !decode(w, r, &in) {
			return
		}
		m, err := store.CreateMaterial(r.Context(), in)
		if err != nil {
			fail(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, m)
	}
}

// PUT /api/study/materials/{id} updates only the fields present in the body.
func UpdateMaterialHandler(store StudyStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p study.MaterialPatch
		if !decode(w, r, &p) {
			return
		}
		m, err := store.UpdateMaterial(r.Context(), chi.URLParam(r, "id"), p)
		if err != nil {
			fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, m)
	}
}

func DeleteMaterialHandler(store StudyStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.DeleteMaterial(r.Context(), chi.URLParam(r, "id")); err != nil {
			fail(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// GET /api/study/flashcards?category=&difficulty=
func ListFlashcardsHandler(store StudyStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var d exam.Difficulty
		if v := r.URL.Query().Get("difficulty"); v != "" {
			parsed, err := exam.ParseDifficulty(v)
			if err != nil {
				fail(w, err)
				return
			}
			d = parsed
		}
		cards, err := store.ListFlashcards(r.Context(), r.URL.Query().Get("category"), d)
		if err != nil {
			fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, cards)
	}
}

func GetFlashcardHandler(store StudyStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := store.GetFlashcard(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

// POST /api/study/flashcards accepts one flashcard object or an array of
// them; an array is stored all-or-nothing.
func CreateFlashcardHandler(store StudyStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBody))
		if err != nil {
			http.Error(w, "bad body", http.StatusBadRequest)
			return
		}
		body = bytes.TrimSpace(body)
		if len(body) > 0 && body[0] == '[' {
			var ins []study.FlashcardInput
			if err := json.Unmarshal(body, &ins); err != nil {
				http.Error(w, "bad json", http.StatusBadRequest)
				return
			}
			cards, err := store.CreateFlashcards(r.Context(), ins)
			if err != nil {
				fail(w, err)
				return
			}
			writeJSON(w, http.StatusCreated, cards)
			return
		}
		var in study.FlashcardInput
		if err := json.Unmarshal(body, &in); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		card, err := store.CreateFlashcard(r.Context(), in)
		if err != nil {
			fail(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, card)
	}
}

func DeleteFlashcardHandler(store StudyStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.DeleteFlashcard(r.Context(), chi.URLParam(r, "id")); err != nil {
			fail(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
