package textbook

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mind-engage/studyhub/internal/exam"
	"github.com/mind-engage/studyhub/internal/llm"
	"github.com/mind-engage/studyhub/internal/storage"
	"github.com/mind-engage/studyhub/internal/study"
	"github.com/mind-engage/studyhub/internal/textbook/pdftext"
)

var (
	ErrInvalidName = errors.New("invalid textbook name")
	ErrNotFound    = errors.New("textbook not found")
	ErrNoText      = errors.New("no extractable text")
)

// maxPDFBytes bounds how much of one PDF is read into memory.
const maxPDFBytes = 256 << 20

type Textbook struct {
	Filename     string    `json:"filename"`
	Title        string    `json:"title"`
	SizeBytes    int64     `json:"size_bytes"`
	LastModified time.Time `json:"last_modified"`
	URL          string    `json:"url"`
}

type MaterialStore interface {
	FindMaterialByTitle(ctx context.Context, title string) (study.Material, error)
	CreateMaterial(ctx context.Context, in study.MaterialInput) (study.Material, error)
}

type ContentLog interface {
	SaveGenerated(ctx context.Context, in study.GeneratedInput) (string, error)
}

type Tutor interface {
	Summarize(ctx context.Context, content string, maxWords int) (string, error)
	GenerateFlashcards(ctx context.Context, content string, n int) ([]llm.FlashcardDraft, error)
	GenerateQuiz(ctx context.Context, content string, n int) ([]llm.QuizQuestion, error)
}

// QuestionBank receives generated quiz questions when asked to keep them.
type QuestionBank interface {
	Upsert(ctx context.Context, qs []exam.Question) error
}

// Service serves PDF textbooks stored under a blob prefix and turns them into
// study material.
type Service struct {
	blobs     storage.BlobStore
	prefix    string
	materials MaterialStore
	content   ContentLog
	tutor     Tutor
	bank      QuestionBank
	model     string
}

type Options struct {
	Prefix    string
	Materials MaterialStore
	Content   ContentLog
	Tutor     Tutor
	Bank      QuestionBank
	Model     string
}

func NewService(blobs storage.BlobStore, opts Options) *Service {
	return &Service{
		blobs:     blobs,
		prefix:    strings.Trim(opts.Prefix, "/"),
		materials: opts.Materials,
		content:   opts.Content,
		tutor:     opts.Tutor,
		bank:      opts.Bank,
		model:     opts.Model,
	}
}

// ValidateName accepts bare .pdf file names only.
func ValidateName(name string) error {
	if name == "" || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if !strings.HasSuffix(strings.ToLower(name), ".pdf") {
		return fmt.Errorf("%w: only PDF files are supported", ErrInvalidName)
	}
	return nil
}

// TitleOf is the file name without its extension.
func TitleOf(name string) string {
	return strings.TrimSuffix(name, path.Ext(name))
}

func (s *Service) key(name string) string {
	if s.prefix == "" {
		return name
	}
	return s.prefix + "/" + name
}

// List returns the PDFs directly under the prefix.
func (s *Service) List(ctx context.Context) ([]Textbook, error) {
	objs, err := s.blobs.List(ctx, s.prefix)
	if err != nil {
		return nil, err
	}
	out := []Textbook{}
	for _, o := range objs {
		rel := strings.TrimPrefix(strings.TrimPrefix(o.Key, s.prefix), "/")
		if strings.Contains(rel, "/") || !strings.HasSuffix(strings.ToLower(rel), ".pdf") {
			continue
		}
		out = append(out, Textbook{
			Filename:     rel,
			Title:        TitleOf(rel),
			SizeBytes:    o.Size,
			LastModified: o.ModTime,
			URL:          "/api/study/textbooks/" + rel,
		})
	}
	return out, nil
}

// Open returns the PDF body; the caller closes it.
func (s *Service) Open(ctx context.Context, name string) (io.ReadCloser, Textbook, error) {
	if err := ValidateName(name); err != nil {
		return nil, Textbook{}, err
	}
	obj, err := s.blobs.Stat(ctx, s.key(name))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, Textbook{}, ErrNotFound
	}
	if err != nil {
		return nil, Textbook{}, err
	}
	rc, err := s.blobs.Get(ctx, s.key(name))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, Textbook{}, ErrNotFound
	}
	if err != nil {
		return nil, Textbook{}, err
	}
	return rc, Textbook{Filename: name, Title: TitleOf(name), SizeBytes: obj.Size, LastModified: obj.ModTime,
		URL: "/api/study/textbooks/" + name}, nil
}

func (s *Service) extract(ctx context.Context, name string) (string, error) {
	rc, _, err := s.Open(ctx, name)
	if err != nil {
		return "", err
	}
	defer rc.Close()
	data, err := io.ReadAll(io.LimitReader(rc, maxPDFBytes))
	if err != nil {
		return "", err
	}
	return pdftext.Extract(bytes.NewReader(data), int64(len(data)), pdftext.DefaultMaxPages, pdftext.DefaultMaxChars)
}

// Import makes the textbook a study material. An existing material with the
// same title is returned unchanged and created is false.
func (s *Service) Import(ctx context.Context, name string) (m study.Material, created bool, err error) {
	if err := ValidateName(name); err != nil {
		return study.Material{}, false, err
	}
	title := TitleOf(name)
	if existing, err := s.materials.FindMaterialByTitle(ctx, title); err == nil {
		return existing, false, nil
	} else if !errors.Is(err, study.ErrNotFound) {
		return study.Material{}, false, err
	}

	text, err := s.extract(ctx, name)
	if errors.Is(err, ErrNotFound) {
		return study.Material{}, false, err
	}
	if err != nil {
		log.Printf("textbook: extract %s: %v", name, err)
	}
	if text == "" {
		text = fmt.Sprintf("[Imported PDF: %s] no extractable text found.", name)
	}
	m, err = s.materials.CreateMaterial(ctx, study.MaterialInput{
		Title:       title,
		Content:     text,
		Category:    "Textbook",
		Description: "Imported from " + name,
	})
	if err != nil {
		return study.Material{}, false, err
	}
	return m, true, nil
}

type GenerateOptions struct {
	Summary       bool            `json:"generate_summary"`
	Flashcards    bool            `json:"generate_flashcards"`
	Quiz          bool            `json:"generate_quiz"`
	NumFlashcards int             `json:"num_flashcards"`
	NumQuestions  int             `json:"num_questions"`
	SaveToBank    bool            `json:"save_to_bank"`
	Difficulty    exam.Difficulty `json:"difficulty,omitempty"`
}

// DefaultGenerateOptions asks for everything with the usual counts.
func DefaultGenerateOptions() GenerateOptions {
	return GenerateOptions{Summary: true, Flashcards: true, Quiz: true, NumFlashcards: 10, NumQuestions: 5}
}

type Generated[T any] struct {
	ID      string `json:"id,omitempty"`
	Content T      `json:"content"`
	Count   int    `json:"count"`
}

type Outputs struct {
	Summary    *Generated[string]               `json:"summary,omitempty"`
	Flashcards *Generated[[]llm.FlashcardDraft] `json:"flashcards,omitempty"`
	Quiz       *Generated[[]llm.QuizQuestion]   `json:"quiz,omitempty"`
}

type GenerateResult struct {
	MaterialID     string  `json:"material_id"`
	Title          string  `json:"title"`
	Generated      Outputs `json:"generated"`
	SavedQuestions int     `json:"saved_questions,omitempty"`
}

// Generate imports the textbook when needed and runs the requested
// generations over its text. Logging a generation is best effort.
func (s *Service) Generate(ctx context.Context, name string, opts GenerateOptions) (GenerateResult, error) {
	if err := ValidateName(name); err != nil {
		return GenerateResult{}, err
	}
	if _, err := s.blobs.Stat(ctx, s.key(name)); errors.Is(err, storage.ErrNotFound) {
		return GenerateResult{}, ErrNotFound
	} else if err != nil {
		return GenerateResult{}, err
	}

	m, err := s.materials.FindMaterialByTitle(ctx, TitleOf(name))
	if errors.Is(err, study.ErrNotFound) {
		text, xerr := s.extract(ctx, name)
		if xerr != nil || text == "" {
			return GenerateResult{}, fmt.Errorf("%w: %s", ErrNoText, name)
		}
		m, err = s.materials.CreateMaterial(ctx, study.MaterialInput{
			Title: TitleOf(name), Content: text, Category: "Textbook", Description: "Imported from " + name,
		})
	}
	if err != nil {
		return GenerateResult{}, err
	}

	res := GenerateResult{MaterialID: m.ID, Title: m.Title}
	if opts.Summary {
		sum, err := s.tutor.Summarize(ctx, m.Content, 300)
		if err != nil {
			return GenerateResult{}, err
		}
		res.Generated.Summary = &Generated[string]{ID: s.log(ctx, "summary", name, m.Content, sum, nil), Content: sum, Count: 1}
	}
	if opts.Flashcards {
		n := opts.NumFlashcards
		if n <= 0 {
			n = 10
		}
		cards, err := s.tutor.GenerateFlashcards(ctx, m.Content, n)
		if err != nil {
			return GenerateResult{}, err
		}
		res.Generated.Flashcards = &Generated[[]llm.FlashcardDraft]{ID: s.log(ctx, "flashcards", name, m.Content, cards, nil), Content: cards, Count: len(cards)}
	}
	if opts.Quiz {
		n := opts.NumQuestions
		if n <= 0 {
			n = 5
		}
		qs, err := s.tutor.GenerateQuiz(ctx, m.Content, n)
		if err != nil {
			return GenerateResult{}, err
		}
		res.Generated.Quiz = &Generated[[]llm.QuizQuestion]{ID: s.log(ctx, "quiz", name, m.Content, qs, quizMeta(opts)), Content: qs, Count: len(qs)}
		if opts.SaveToBank && s.bank != nil {
			res.SavedQuestions = s.saveQuestions(ctx, m.Title, opts.Difficulty, qs)
		}
	}
	return res, nil
}

func (s *Service) log(ctx context.Context, kind, source, input string, output any, meta map[string]string) string {
	if s.content == nil {
		return ""
	}
	id, err := s.content.SaveGenerated(ctx, study.GeneratedInput{
		ContentType: kind, Source: source, Input: input, Output: output, Metadata: meta, Model: s.model,
	})
	if err != nil {
		log.Printf("textbook: save %s for %s: %v", kind, source, err)
		return ""
	}
	return id
}

func quizMeta(opts GenerateOptions) map[string]string {
	if !opts.Difficulty.Valid() {
		return nil
	}
	return map[string]string{"difficulty": string(opts.Difficulty)}
}

// saveQuestions adds the valid generated questions to the bank under topic.
func (s *Service) saveQuestions(ctx context.Context, topic string, d exam.Difficulty, qs []llm.QuizQuestion) int {
	if !d.Valid() {
		d = exam.DifficultyMedium
	}
	var keep []exam.Question
	for _, q := range qs {
		eq, err := q.ToQuestion("gen-"+uuid.NewString()[:8], d, topic)
		if err != nil {
			log.Printf("textbook: skip generated question: %v", err)
			continue
		}
		keep = append(keep, eq)
	}
	if len(keep) == 0 {
		return 0
	}
	if err := s.bank.Upsert(ctx, keep); err != nil {
		log.Printf("textbook: save %d questions: %v", len(keep), err)
		return 0
	}
	return len(keep)
}
