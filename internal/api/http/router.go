package http

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	authmw "github.com/mind-engage/studyhub/internal/auth/middleware"
	"github.com/mind-engage/studyhub/internal/rbac"
)

// Deps is everything the router mounts.
type Deps struct {
	Auth        *authmw.AuthService
	DB          *sql.DB // role lookup and readiness; optional
	Users       UserStore
	Study       StudyStore
	Textbooks   Textbooks
	Exams       Exams
	TopicOf     func(questionID string) string
	Results     ResultStore
	AI          AI
	CORSOrigins []string
	Timeout     time.Duration // non-streaming routes
}

func NewRouter(d Deps) http.Handler {
	if d.Timeout <= 0 {
		d.Timeout = 30 * time.Second
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "StudyHub study & mock exam API"})
	})
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if d.DB != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := d.DB.PingContext(ctx); err != nil {
				http.Error(w, "db unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(200)
	})

	authed := func(pr chi.Router) {
		pr.Use(authmw.JWTMiddleware(d.Auth))
		if d.DB != nil {
			pr.Use(authmw.AttachRoleFromDB(d.DB))
		}
	}

	// Request/response routes with a deadline.
	r.Group(func(tr chi.Router) {
		tr.Use(middleware.Timeout(d.Timeout))

		tr.Post("/api/auth/register", RegisterHandler(d.Users, d.Auth))
		tr.Post("/api/auth/login", LoginHandler(d.Users, d.Auth))
		tr.Get("/api/ai/health", AIHealthHandler(d.AI))

		// Textbooks are readable anonymously; a token, when sent, must be valid.
		tr.Group(func(pr chi.Router) {
			pr.Use(authmw.OptionalJWT(d.Auth))
			pr.Get("/api/study/textbooks", ListTextbooksHandler(d.Textbooks))
			pr.Get("/api/study/textbooks/{filename}", GetTextbookHandler(d.Textbooks))
		})

		tr.Group(func(pr chi.Router) {
			authed(pr)

			pr.Get("/api/auth/me", MeHandler(d.Users))
			pr.Post("/api/auth/change-password", ChangePasswordHandler(d.Users))

			pr.With(rbac.Require("study:read")).Get("/api/study/materials", ListMaterialsHandler(d.Study))
			pr.With(rbac.Require("study:read")).Get("/api/study/materials/{id}", GetMaterialHandler(d.Study))
			pr.With(rbac.Require("study:write")).Post("/api/study/materials", CreateMaterialHandler(d.Study))
			pr.With(rbac.Require("study:write")).Put("/api/study/materials/{id}", UpdateMaterialHandler(d.Study))
			pr.With(rbac.Require("study:write")).Delete("/api/study/materials/{id}", DeleteMaterialHandler(d.Study))

			pr.With(rbac.Require("study:read")).Get("/api/study/flashcards", ListFlashcardsHandler(d.Study))
			pr.With(rbac.Require("study:read")).Get("/api/study/flashcards/{id}", GetFlashcardHandler(d.Study))
			pr.With(rbac.RequireAny("flashcard:create", "study:write")).Post("/api/study/flashcards", CreateFlashcardHandler(d.Study))
			pr.With(rbac.Require("study:write")).Delete("/api/study/flashcards/{id}", DeleteFlashcardHandler(d.Study))

			pr.With(rbac.Require("textbook:import")).Post("/api/study/textbooks/import/{filename}", ImportTextbookHandler(d.Textbooks))

			pr.With(rbac.Require("exam:take")).Post("/api/exam/create", CreateExamHandler(d.Exams))
			pr.With(rbac.Require("exam:take")).Get("/api/exam/questions/topics", TopicsHandler(d.Exams))
			pr.With(rbac.Require("exam:take")).Get("/api/exam/{examID}", GetExamHandler(d.Exams))
			pr.With(rbac.Require("exam:take")).Post("/api/exam/{examID}/submit", SubmitExamHandler(d.Exams))

			pr.With(rbac.Require("result:view-own")).Get("/api/results", ListResultsHandler(d.Results))
			pr.With(rbac.Require("result:view-own")).Get("/api/results/summary/analytics", ResultsSummaryHandler(d.Results, d.TopicOf))
			pr.With(rbac.Require("result:view-own")).Get("/api/results/{id}", GetResultHandler(d.Results))
			pr.With(rbac.Require("result:delete-own")).Delete("/api/results/{id}", DeleteResultHandler(d.Results))

			pr.With(rbac.Require("ai:history")).Get("/api/ai/generated", ListGeneratedHandler(d.AI.Content))
			pr.With(rbac.Require("chat:own")).Get("/api/ai/chat-sessions", ListChatSessionsHandler(d.AI.Chats))
			pr.With(rbac.Require("chat:own")).Get("/api/ai/chat-sessions/{id}/messages", ChatMessagesHandler(d.AI.Chats))
			pr.With(rbac.Require("chat:own")).Delete("/api/ai/chat-sessions/{id}", DeleteChatSessionHandler(d.AI.Chats))
		})
	})

	// LLM-backed routes run as long as the model client allows.
	r.Group(func(pr chi.Router) {
		authed(pr)

		pr.With(rbac.Require("textbook:generate")).Post("/api/study/textbooks/{filename}/generate", GenerateFromTextbookHandler(d.Textbooks))

		pr.With(rbac.Require("ai:chat")).Post("/api/ai/chat", ChatHandler(d.AI))
		pr.With(rbac.Require("ai:chat")).Post("/api/ai/chat/stream", ChatStreamHandler(d.AI))
		pr.With(rbac.Require("ai:generate")).Post("/api/ai/generate-quiz", GenerateQuizHandler(d.AI))
		pr.With(rbac.Require("ai:generate")).Post("/api/ai/generate-flashcards", GenerateFlashcardsHandler(d.AI))
		pr.With(rbac.Require("ai:generate")).Post("/api/ai/summarize", SummarizeHandler(d.AI))
		pr.With(rbac.Require("ai:generate")).Post("/api/ai/explain-concept", ExplainConceptHandler(d.AI))
	})

	return r
}
