package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"

	authmw "github.com/mind-engage/studyhub/internal/auth/middleware"
	"github.com/mind-engage/studyhub/internal/chat"
	"github.com/mind-engage/studyhub/internal/exam"
	"github.com/mind-engage/studyhub/internal/llm"
	"github.com/mind-engage/studyhub/internal/study"
)

type Tutor interface {
	Summarize(ctx context.Context, content string, maxWords int) (string, error)
	GenerateQuiz(ctx context.Context, content string, n int) ([]llm.QuizQuestion, error)
	GenerateFlashcards(ctx context.Context, content string, n int) ([]llm.FlashcardDraft, error)
	ExplainConcept(ctx context.Context, concept, background, level string) (string, error)
	Chat(ctx context.Context, message string, history []llm.Turn, background string) (string, error)
	ChatStream(ctx context.Context, message string, history []llm.Turn, background string, emit func(string) error) error
}

type LLMStatus interface {
	Health(ctx context.Context) bool
	ListModels(ctx context.Context) ([]llm.Model, error)
}

type ChatStore interface {
	Create(ctx context.Context, userID, firstMessage string) (chat.Session, error)
	Get(ctx context.Context, userID, id string) (chat.Session, error)
	List(ctx context.Context, userID string) ([]chat.Session, error)
	Delete(ctx context.Context, userID, id string) error
	Append(ctx context.Context, sessionID, role, content string) (chat.Message, error)
	Messages(ctx context.Context, sessionID string) ([]chat.Message, error)
}

type ContentLog interface {
	SaveGenerated(ctx context.Context, in study.GeneratedInput) (string, error)
	RecentGenerated(ctx context.Context, contentType string, limit int) ([]study.Generated, error)
}

type MaterialLookup interface {
	GetMaterial(ctx context.Context, id string) (study.Material, error)
}

// AI groups what the tutoring endpoints need.
type AI struct {
	Tutor     Tutor
	Status    LLMStatus
	Chats     ChatStore
	Content   ContentLog
	Materials MaterialLookup
	Model     string
}

// contextRunes caps how much of a material is sent along with a chat turn.
const contextRunes = 4000

func (ai AI) saveGenerated(ctx context.Context, kind, input string, output any, meta map[string]string) string {
	if ai.Content == nil {
		return ""
	}
	id, err := ai.Content.SaveGenerated(ctx, study.GeneratedInput{
		ContentType: kind, Source: "api", Input: input, Output: output, Metadata: meta, Model: ai.Model,
	})
	if err != nil {
		log.Printf("api: save generated %s: %v", kind, err)
		return ""
	}
	return id
}

// GET /api/ai/health
func AIHealthHandler(ai AI) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !ai.Status.Health(r.Context()) {
			http.Error(w, "AI service is currently unavailable", http.StatusServiceUnavailable)
			return
		}
		models, err := ai.Status.ListModels(r.Context())
		if err != nil {
			log.Printf("api: list models: %v", err)
		}
		names := make([]string, 0, len(models))
		for _, m := range models {
			names = append(names, m.Name)
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"status":           "healthy",
			"available_models": names,
			"current_model":    ai.Model,
		})
	}
}

type chatRequest struct {
	Message     string `json:"message"`
	SessionID   string `json:"session_id,omitempty"`
	ContextType string `json:"context_type,omitempty"`
	ContextID   string `json:"context_id,omitempty"`
}

// background resolves the optional study material a chat turn refers to.
func (ai AI) background(ctx context.Context, req chatRequest) (string, error) {
	if req.ContextType != "material" || req.ContextID == "" || ai.Materials == nil {
		return "", nil
	}
	m, err := ai.Materials.GetMaterial(ctx, req.ContextID)
	if err != nil {
		return "", err
	}
	text := m.Title + "\n" + m.Content
	if utf8.RuneCountInString(text) > contextRunes {
		text = string([]rune(text)[:contextRunes])
	}
	return text, nil
}

func history(msgs []chat.Message) []llm.Turn {
	out := make([]llm.Turn, len(msgs))
	for i, m := range msgs {
		out[i] = llm.Turn{Role: m.Role, Content: m.Content}
	}
	return out
}

// POST /api/ai/chat continues the given session or opens a new one, storing
// both sides of the exchange.
func ChatHandler(ai AI) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		if !decode(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.Message) == "" {
			http.Error(w, "message required", http.StatusBadRequest)
			return
		}
		ctx := r.Context()
		user := authmw.SubjectFromContext(ctx)

		bg, err := ai.background(ctx, req)
		if err != nil {
			fail(w, err)
			return
		}

		var (
			sess  chat.Session
			prior []chat.Message
		)
		if req.SessionID == "" {
			sess, err = ai.Chats.Create(ctx, user, req.Message)
		} else if sess, err = ai.Chats.Get(ctx, user, req.SessionID); err == nil {
			prior, err = ai.Chats.Messages(ctx, sess.ID)
		}
		if err != nil {
			fail(w, err)
			return
		}
		if _, err := ai.Chats.Append(ctx, sess.ID, chat.RoleUser, req.Message); err != nil {
			fail(w, err)
			return
		}

		reply, err := ai.Tutor.Chat(ctx, req.Message, history(prior), bg)
		if err != nil {
			fail(w, err)
			return
		}
		if _, err := ai.Chats.Append(ctx, sess.ID, chat.RoleAssistant, reply); err != nil {
			fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"session_id": sess.ID,
			"response":   reply,
			"model_used": ai.Model,
		})
	}
}

func sse(w http.ResponseWriter, f http.Flusher, v any) {
	b, _ := json.Marshal(v)
	fmt.Fprintf(w, "data: %s\n\n", b)
	f.Flush()
}

// POST /api/ai/chat/stream answers as server-sent events: one
// data: {"content":...} frame per chunk, data: {"error":...} on failure and a
// final data: [DONE]. With a session_id the exchange is stored like /chat.
func ChatStreamHandler(ai AI) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		if !decode(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.Message) == "" {
			http.Error(w, "message required", http.StatusBadRequest)
			return
		}
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming unsupported", http.StatusInternalServerError)
			return
		}
		ctx := r.Context()

		bg, err := ai.background(ctx, req)
		if err != nil {
			fail(w, err)
			return
		}
		var prior []chat.Message
		if req.SessionID != "" {
			sess, err := ai.Chats.Get(ctx, authmw.SubjectFromContext(ctx), req.SessionID)
			if err == nil {
				prior, err = ai.Chats.Messages(ctx, sess.ID)
			}
			if err == nil {
				_, err = ai.Chats.Append(ctx, sess.ID, chat.RoleUser, req.Message)
			}
			if err != nil {
				fail(w, err)
				return
			}
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")
		w.WriteHeader(http.StatusOK)

		var full strings.Builder
		err = ai.Tutor.ChatStream(ctx, req.Message, history(prior), bg, func(chunk string) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			full.WriteString(chunk)
			sse(w, flusher, map[string]string{"content": chunk})
			return nil
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("api: chat stream: %v", err)
			sse(w, flusher, map[string]string{"error": err.Error()})
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
		flusher.Flush()

		if req.SessionID != "" && full.Len() > 0 {
			if _, err := ai.Chats.Append(context.WithoutCancel(ctx), req.SessionID, chat.RoleAssistant, full.String()); err != nil {
				log.Printf("api: store streamed reply: %v", err)
			}
		}
	}
}

// POST /api/ai/generate-quiz {"content","num_questions","difficulty"}
func GenerateQuizHandler(ai AI) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := struct {
			Content      string `json:"content"`
			NumQuestions int    `json:"num_questions"`
			Difficulty   string `json:"difficulty"`
		}{NumQuestions: 5, Difficulty: "medium"}
		if !decode(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.Content) == "" {
			http.Error(w, "content required", http.StatusBadRequest)
			return
		}
		d, err := exam.ParseDifficulty(req.Difficulty)
		if err != nil {
			fail(w, err)
			return
		}
		qs, err := ai.Tutor.GenerateQuiz(r.Context(), req.Content, req.NumQuestions)
		if err != nil {
			fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"questions":       qs,
			"generated_id":    ai.saveGenerated(r.Context(), "quiz", req.Content, qs, map[string]string{"difficulty": string(d)}),
			"total_questions": len(qs),
		})
	}
}

// POST /api/ai/generate-flashcards {"content","num_cards","category"}
func GenerateFlashcardsHandler(ai AI) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := struct {
			Content  string `json:"content"`
			NumCards int    `json:"num_cards"`
			Category string `json:"category"`
		}{NumCards: 10}
		if !decode(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.Content) == "" {
			http.Error(w, "content required", http.StatusBadRequest)
			return
		}
		cards, err := ai.Tutor.GenerateFlashcards(r.Context(), req.Content, req.NumCards)
		if err != nil {
			fail(w, err)
			return
		}
		if req.Category != "" {
			for i := range cards {
				if cards[i].Category == "" {
					cards[i].Category = req.Category
				}
			}
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"flashcards":   cards,
			"generated_id": ai.saveGenerated(r.Context(), "flashcard", req.Content, cards, categoryMeta(req.Category)),
			"total_cards":  len(cards),
		})
	}
}

func categoryMeta(category string) map[string]string {
	if category == "" {
		return nil
	}
	return map[string]string{"category": category}
}

// GET /api/ai/generated?type=&limit=
func ListGeneratedHandler(content ContentLog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gs, err := content.RecentGenerated(r.Context(), r.URL.Query().Get("type"), queryInt(r, "limit", 20))
		if err != nil {
			fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, gs)
	}
}

// POST /api/ai/summarize {"content","max_length"}
func SummarizeHandler(ai AI) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := struct {
			Content   string `json:"content"`
			MaxLength int    `json:"max_length"`
		}{MaxLength: 300}
		if !decode(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.Content) == "" {
			http.Error(w, "content required", http.StatusBadRequest)
			return
		}
		sum, err := ai.Tutor.Summarize(r.Context(), req.Content, req.MaxLength)
		if err != nil {
			fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"summary":         sum,
			"generated_id":    ai.saveGenerated(r.Context(), "summary", req.Content, sum, nil),
			"original_length": utf8.RuneCountInString(req.Content),
			"summary_length":  utf8.RuneCountInString(sum),
		})
	}
}

// POST /api/ai/explain-concept {"concept","context","difficulty_level"}
func ExplainConceptHandler(ai AI) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := struct {
			Concept         string `json:"concept"`
			Context         string `json:"context"`
			DifficultyLevel string `json:"difficulty_level"`
		}{DifficultyLevel: "intermediate"}
		if !decode(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.Concept) == "" {
			http.Error(w, "concept required", http.StatusBadRequest)
			return
		}
		text, err := ai.Tutor.ExplainConcept(r.Context(), req.Concept, req.Context, req.DifficultyLevel)
		if err != nil {
			fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"concept":          req.Concept,
			"explanation":      text,
			"difficulty_level": req.DifficultyLevel,
			"generated_id":     ai.saveGenerated(r.Context(), "explanation", req.Concept, text,
				map[string]string{"difficulty_level": req.DifficultyLevel}),
		})
	}
}

func ListChatSessionsHandler(chats ChatStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ss, err := chats.List(r.Context(), authmw.SubjectFromContext(r.Context()))
		if err != nil {
			fail(w, err)
			return
		}
		if ss == nil {
			ss = []chat.Session{}
		}
		writeJSON(w, http.StatusOK, ss)
	}
}

func ChatMessagesHandler(chats ChatStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := chats.Get(r.Context(), authmw.SubjectFromContext(r.Context()), chi.URLParam(r, "id"))
		if err != nil {
			fail(w, err)
			return
		}
		msgs, err := chats.Messages(r.Context(), sess.ID)
		if err != nil {
			fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, msgs)
	}
}

func DeleteChatSessionHandler(chats ChatStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := chats.Delete(r.Context(), authmw.SubjectFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
			fail(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
