package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/studyhub/internal/study"
	"github.com/mind-engage/studyhub/internal/textbook"
)

type Textbooks interface {
	List(ctx context.Context) ([]textbook.Textbook, error)
	Open(ctx context.Context, name string) (io.ReadCloser, textbook.Textbook, error)
	Import(ctx context.Context, name string) (study.Material, bool, error)
	Generate(ctx context.Context, name string, opts textbook.GenerateOptions) (textbook.GenerateResult, error)
}

func ListTextbooksHandler(tb Textbooks) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := tb.List(r.Context())
		if err != nil {
			fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// GET /api/study/textbooks/{filename} streams the PDF.
func GetTextbookHandler(tb Textbooks) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rc, info, err := tb.Open(r.Context(), chi.URLParam(r, "filename"))
		if err != nil {
			fail(w, err)
			return
		}
		defer rc.Close()
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", mime.FormatMediaType("inline", map[string]string{"filename": info.Filename}))
		if info.SizeBytes > 0 {
			w.Header().Set("Content-Length", strconv.FormatInt(info.SizeBytes, 10))
		}
		if !info.LastModified.IsZero() {
			w.Header().Set("Last-Modified", info.LastModified.UTC().Format(http.TimeFormat))
		}
		_, _ = io.Copy(w, rc)
	}
}

// POST /api/study/textbooks/import/{filename} answers 201 for a new material
// and 200 when one with the same title already existed.
func ImportTextbookHandler(tb Textbooks) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m, created, err := tb.Import(r.Context(), chi.URLParam(r, "filename"))
		if err != nil {
			fail(w, err)
			return
		}
		status := http.StatusOK
		if created {
			status = http.StatusCreated
		}
		writeJSON(w, status, m)
	}
}

// POST /api/study/textbooks/{filename}/generate with an optional
// GenerateOptions body. Omitted fields keep their defaults.
func GenerateFromTextbookHandler(tb Textbooks) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opts := textbook.DefaultGenerateOptions()
		err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(&opts)
		if err != nil && !errors.Is(err, io.EOF) {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		res, err := tb.Generate(r.Context(), chi.URLParam(r, "filename"), opts)
		if err != nil {
			fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}
