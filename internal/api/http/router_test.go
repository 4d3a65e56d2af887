package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mind-engage/studyhub/internal/auth"
	authmw "github.com/mind-engage/studyhub/internal/auth/middleware"
	"github.com/mind-engage/studyhub/internal/chat"
	"github.com/mind-engage/studyhub/internal/db"
	"github.com/mind-engage/studyhub/internal/events"
	"github.com/mind-engage/studyhub/internal/exam"
	"github.com/mind-engage/studyhub/internal/llm"
	"github.com/mind-engage/studyhub/internal/questionbank"
	"github.com/mind-engage/studyhub/internal/results"
	"github.com/mind-engage/studyhub/internal/storage"
	"github.com/mind-engage/studyhub/internal/study"
	"github.com/mind-engage/studyhub/internal/textbook"
)

type stubTutor struct {
	err      error
	lastBG   string
	lastHist []llm.Turn
}

func (s *stubTutor) Summarize(context.Context, string, int) (string, error) {
	return "a short summary", s.err
}

func (s *stubTutor) GenerateQuiz(_ context.Context, _ string, n int) ([]llm.QuizQuestion, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []llm.QuizQuestion{{Question: "Q?", Options: []string{"a", "b"}, CorrectAnswer: 0}}, nil
}

func (s *stubTutor) GenerateFlashcards(_ context.Context, _ string, n int) ([]llm.FlashcardDraft, error) {
	return []llm.FlashcardDraft{{Front: "VPC", Back: "Virtual Private Cloud"}}, s.err
}

func (s *stubTutor) ExplainConcept(_ context.Context, concept, _, level string) (string, error) {
	return concept + " at " + level, s.err
}

func (s *stubTutor) Chat(_ context.Context, msg string, h []llm.Turn, bg string) (string, error) {
	s.lastBG, s.lastHist = bg, h
	if s.err != nil {
		return "", s.err
	}
	return "echo: " + msg, nil
}

func (s *stubTutor) ChatStream(_ context.Context, msg string, h []llm.Turn, bg string, emit func(string) error) error {
	s.lastBG, s.lastHist = bg, h
	for _, c := range []string{"Hello", " world"} {
		if err := emit(c); err != nil {
			return err
		}
	}
	return s.err
}

type stubStatus struct{ up bool }

func (s stubStatus) Health(context.Context) bool { return s.up }
func (s stubStatus) ListModels(context.Context) ([]llm.Model, error) {
	return []llm.Model{{Name: "llama3.2:latest"}}, nil
}

type env struct {
	h     http.Handler
	users *auth.Users
	repo  *study.Repository
	tutor *stubTutor
}

func newEnv(t *testing.T, llmUp bool) *env {
	t.Helper()
	ctx := context.Background()
	conn, err := db.Open(ctx, db.DriverSQLite, "file:"+filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })
	x := db.X(conn, db.DriverSQLite)

	blobs, err := storage.NewFSStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := blobs.Put(ctx, "textbooks/Cloud Basics.pdf", strings.NewReader("%PDF-1.4 stub")); err != nil {
		t.Fatal(err)
	}

	pool := questionbank.Resolve(ctx)
	store := results.NewStore(conn)
	svc := exam.NewService(pool, exam.NewComposer(pool), exam.NewGrader(pool), exam.NewRegistry(time.Hour),
		store, events.NewEventLog(conn, "test"))

	e := &env{users: auth.NewUsers(x), repo: study.NewRepository(x), tutor: &stubTutor{}}
	e.h = NewRouter(Deps{
		Auth:  authmw.NewAuthService("test-secret", time.Hour),
		DB:    conn,
		Users: e.users,
		Study: e.repo,
		Textbooks: textbook.NewService(blobs, textbook.Options{
			Prefix: "textbooks", Materials: e.repo, Content: e.repo, Tutor: e.tutor, Model: "test-model",
		}),
		Exams:   svc,
		TopicOf: svc.TopicOf,
		Results: store,
		AI: AI{
			Tutor:     e.tutor,
			Status:    stubStatus{up: llmUp},
			Chats:     chat.NewRepository(x),
			Content:   e.repo,
			Materials: e.repo,
			Model:     "test-model",
		},
		CORSOrigins: []string{"http://localhost:3000"},
	})
	return e
}

func (e *env) call(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.h.ServeHTTP(rec, req)
	return rec
}

func decodeInto(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func (e *env) register(t *testing.T, email string) string {
	t.Helper()
	rec := e.call(t, "POST", "/api/auth/register", "", map[string]string{"email": email, "name": "Student", "password": "study-hard-1"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register %s: %d %s", email, rec.Code, rec.Body.String())
	}
	var tok tokenResponse
	decodeInto(t, rec, &tok)
	return tok.AccessToken
}

func (e *env) admin(t *testing.T) string {
	t.Helper()
	if err := e.users.EnsureAdmin(context.Background(), "admin@example.com", "admin-secret"); err != nil {
		t.Fatal(err)
	}
	rec := e.call(t, "POST", "/api/auth/login", "", map[string]string{"email": "admin@example.com", "password": "admin-secret"})
	if rec.Code != http.StatusOK {
		t.Fatalf("admin login: %d", rec.Code)
	}
	var tok tokenResponse
	decodeInto(t, rec, &tok)
	return tok.AccessToken
}

func TestBannerAndProbes(t *testing.T) {
	e := newEnv(t, true)
	if rec := e.call(t, "GET", "/", "", nil); rec.Code != 200 || !strings.Contains(rec.Body.String(), "StudyHub") {
		t.Fatalf("banner %d %s", rec.Code, rec.Body.String())
	}
	for _, p := range []string{"/healthz", "/readyz"} {
		if rec := e.call(t, "GET", p, "", nil); rec.Code != 200 {
			t.Fatalf("%s: %d", p, rec.Code)
		}
	}
}

func TestAuthFlow(t *testing.T) {
	e := newEnv(t, true)
	tok := e.register(t, "ana@example.com")

	dup := e.call(t, "POST", "/api/auth/register", "", map[string]string{"email": "ana@example.com", "password": "another-one"})
	if dup.Code != http.StatusConflict {
		t.Fatalf("duplicate: %d", dup.Code)
	}
	if rec := e.call(t, "POST", "/api/auth/login", "", map[string]string{"email": "ana@example.com", "password": "wrong-pass"}); rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad login: %d", rec.Code)
	}
	if rec := e.call(t, "POST", "/api/auth/login", "", "{not json"); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad json: %d", rec.Code)
	}

	me := e.call(t, "GET", "/api/auth/me", tok, nil)
	if me.Code != 200 {
		t.Fatalf("me: %d %s", me.Code, me.Body.String())
	}
	var body struct {
		Email       string   `json:"email"`
		Role        string   `json:"role"`
		Permissions []string `json:"permissions"`
	}
	decodeInto(t, me, &body)
	if body.Email != "ana@example.com" || body.Role != "student" || len(body.Permissions) == 0 {
		t.Fatalf("%+v", body)
	}
	if rec := e.call(t, "GET", "/api/auth/me", "", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous me: %d", rec.Code)
	}

	chg := e.call(t, "POST", "/api/auth/change-password", tok, map[string]string{"old_password": "study-hard-1", "new_password": "study-harder-2"})
	if chg.Code != http.StatusNoContent {
		t.Fatalf("change password: %d %s", chg.Code, chg.Body.String())
	}
}

func TestExamAndResultsFlow(t *testing.T) {
	e := newEnv(t, true)
	tok := e.register(t, "ana@example.com")

	if rec := e.call(t, "POST", "/api/exam/create", "", map[string]any{"difficulty": "medium"}); rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous create: %d", rec.Code)
	}
	if rec := e.call(t, "POST", "/api/exam/create", tok, map[string]any{"difficulty": "impossible"}); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad difficulty: %d", rec.Code)
	}

	rec := e.call(t, "POST", "/api/exam/create", tok, map[string]any{"difficulty": "Medium", "question_count": 2, "time_limit": 10})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", rec.Code, rec.Body.String())
	}
	var ex exam.Exam
	decodeInto(t, rec, &ex)
	if len(ex.Questions) != 2 || ex.Difficulty != exam.DifficultyMedium {
		t.Fatalf("%+v", ex)
	}
	if strings.Contains(rec.Body.String(), "correct_answer") {
		t.Fatalf("exam leaks answers: %s", rec.Body.String())
	}
	if got := e.call(t, "GET", "/api/exam/"+ex.ID, tok, nil); got.Code != 200 {
		t.Fatalf("get exam: %d", got.Code)
	}
	if got := e.call(t, "GET", "/api/exam/nope", tok, nil); got.Code != http.StatusNotFound {
		t.Fatalf("missing exam: %d", got.Code)
	}

	key := map[string]string{}
	for _, q := range questionbank.Seed() {
		key[q.ID] = q.CorrectAnswer
	}
	sub := exam.Submission{TimeTaken: 120}
	for i, q := range ex.Questions {
		ans := key[q.ID]
		if i == 1 {
			ans = "wrong"
		}
		sub.Answers = append(sub.Answers, exam.AnswerSubmission{QuestionID: q.ID, SelectedAnswer: ans})
	}
	rec = e.call(t, "POST", "/api/exam/"+ex.ID+"/submit", tok, sub)
	if rec.Code != 200 {
		t.Fatalf("submit: %d %s", rec.Code, rec.Body.String())
	}
	var res exam.Result
	decodeInto(t, rec, &res)
	if res.CorrectAnswers != 1 || res.TotalQuestions != 2 || res.Score != 50 {
		t.Fatalf("%+v", res)
	}

	if rec := e.call(t, "POST", "/api/exam/"+ex.ID+"/submit", tok, map[string]any{"exam_id": "other"}); rec.Code != http.StatusBadRequest {
		t.Fatalf("mismatched exam id: %d", rec.Code)
	}

	var list []exam.Result
	decodeInto(t, e.call(t, "GET", "/api/results", tok, nil), &list)
	if len(list) != 1 || list[0].ID != res.ID {
		t.Fatalf("results %+v", list)
	}
	var sum results.Summary
	decodeInto(t, e.call(t, "GET", "/api/results/summary/analytics", tok, nil), &sum)
	if sum.TotalExams != 1 || sum.AverageScore != 50 || len(sum.TopicsPerformance) == 0 {
		t.Fatalf("summary %+v", sum)
	}

	other := e.register(t, "ben@example.com")
	if rec := e.call(t, "GET", "/api/results/"+res.ID, other, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("foreign result: %d", rec.Code)
	}
	if rec := e.call(t, "DELETE", "/api/results/"+res.ID, tok, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("delete: %d", rec.Code)
	}
	if rec := e.call(t, "GET", "/api/results/"+res.ID, tok, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("deleted result: %d", rec.Code)
	}

	var topics map[string][]string
	decodeInto(t, e.call(t, "GET", "/api/exam/questions/topics", tok, nil), &topics)
	if len(topics["topics"]) == 0 {
		t.Fatalf("topics %+v", topics)
	}
}

func TestStudyRoutesEnforceRoles(t *testing.T) {
	e := newEnv(t, true)
	student := e.register(t, "ana@example.com")
	admin := e.admin(t)

	material := map[string]string{"title": "VPC Basics", "content": "Subnets and routes", "category": "Networking"}
	if rec := e.call(t, "POST", "/api/study/materials", student, material); rec.Code != http.StatusForbidden {
		t.Fatalf("student create: %d", rec.Code)
	}
	rec := e.call(t, "POST", "/api/study/materials", admin, material)
	if rec.Code != http.StatusCreated {
		t.Fatalf("admin create: %d %s", rec.Code, rec.Body.String())
	}
	var m study.Material
	decodeInto(t, rec, &m)

	var ms []study.Material
	decodeInto(t, e.call(t, "GET", "/api/study/materials?category=Networking", student, nil), &ms)
	if len(ms) != 1 || ms[0].ID != m.ID {
		t.Fatalf("%+v", ms)
	}
	if rec := e.call(t, "PUT", "/api/study/materials/"+m.ID, admin, map[string]string{"title": "VPC Deep Dive"}); rec.Code != 200 {
		t.Fatalf("update: %d", rec.Code)
	}
	if rec := e.call(t, "POST", "/api/study/materials", admin, map[string]string{"title": "no content"}); rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid: %d", rec.Code)
	}

	batch := `[{"front":"ECS","back":"Elastic Cloud Server"},{"front":"OBS","back":"Object Storage","difficulty":"easy"}]`
	if rec := e.call(t, "POST", "/api/study/flashcards", student, batch); rec.Code != http.StatusCreated {
		t.Fatalf("batch: %d %s", rec.Code, rec.Body.String())
	}
	if rec := e.call(t, "POST", "/api/study/flashcards", student, map[string]string{"front": "VPC", "back": "network"}); rec.Code != http.StatusCreated {
		t.Fatalf("single: %d", rec.Code)
	}
	var cards []study.Flashcard
	decodeInto(t, e.call(t, "GET", "/api/study/flashcards?difficulty=easy", student, nil), &cards)
	if len(cards) != 1 || cards[0].Front != "OBS" {
		t.Fatalf("%+v", cards)
	}
	var one study.Flashcard
	decodeInto(t, e.call(t, "GET", "/api/study/flashcards/"+cards[0].ID, student, nil), &one)
	if one.ID != cards[0].ID || one.Back != "Object Storage" {
		t.Fatalf("get flashcard: %+v", one)
	}
	if rec := e.call(t, "GET", "/api/study/flashcards/missing", student, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("missing flashcard: %d", rec.Code)
	}
	if rec := e.call(t, "DELETE", "/api/study/flashcards/"+cards[0].ID, student, nil); rec.Code != http.StatusForbidden {
		t.Fatalf("student delete: %d", rec.Code)
	}
	if rec := e.call(t, "DELETE", "/api/study/materials/"+m.ID, admin, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("delete: %d", rec.Code)
	}
	if rec := e.call(t, "GET", "/api/study/materials/"+m.ID, student, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("deleted: %d", rec.Code)
	}
}

func TestTextbookRoutes(t *testing.T) {
	e := newEnv(t, true)

	var list []textbook.Textbook
	decodeInto(t, e.call(t, "GET", "/api/study/textbooks", "", nil), &list)
	if len(list) != 1 || list[0].Filename != "Cloud Basics.pdf" {
		t.Fatalf("%+v", list)
	}

	rec := e.call(t, "GET", "/api/study/textbooks/Cloud%20Basics.pdf", "", nil)
	if rec.Code != 200 || rec.Header().Get("Content-Type") != "application/pdf" || rec.Body.String() != "%PDF-1.4 stub" {
		t.Fatalf("pdf: %d %q %q", rec.Code, rec.Header().Get("Content-Type"), rec.Body.String())
	}
	if rec := e.call(t, "GET", "/api/study/textbooks/notes.txt", "", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("non-pdf: %d", rec.Code)
	}
	if rec := e.call(t, "GET", "/api/study/textbooks/Missing.pdf", "", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("missing: %d", rec.Code)
	}
	if rec := e.call(t, "GET", "/api/study/textbooks", "garbage", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: %d", rec.Code)
	}

	tok := e.register(t, "ana@example.com")
	first := e.call(t, "POST", "/api/study/textbooks/import/Cloud%20Basics.pdf", tok, nil)
	if first.Code != http.StatusCreated {
		t.Fatalf("import: %d %s", first.Code, first.Body.String())
	}
	if again := e.call(t, "POST", "/api/study/textbooks/import/Cloud%20Basics.pdf", tok, nil); again.Code != http.StatusOK {
		t.Fatalf("re-import: %d", again.Code)
	}

	gen := e.call(t, "POST", "/api/study/textbooks/Cloud%20Basics.pdf/generate", tok, map[string]any{"generate_quiz": false})
	if gen.Code != 200 {
		t.Fatalf("generate: %d %s", gen.Code, gen.Body.String())
	}
	var res textbook.GenerateResult
	decodeInto(t, gen, &res)
	if res.Generated.Summary == nil || res.Generated.Flashcards == nil || res.Generated.Quiz != nil {
		t.Fatalf("%+v", res)
	}
}

func TestAIRoutes(t *testing.T) {
	e := newEnv(t, true)
	tok := e.register(t, "ana@example.com")

	var health map[string]any
	decodeInto(t, e.call(t, "GET", "/api/ai/health", "", nil), &health)
	if health["status"] != "healthy" || health["current_model"] != "test-model" {
		t.Fatalf("%+v", health)
	}

	rec := e.call(t, "POST", "/api/ai/chat", tok, map[string]string{"message": "What is ECS?"})
	if rec.Code != 200 {
		t.Fatalf("chat: %d %s", rec.Code, rec.Body.String())
	}
	var out map[string]string
	decodeInto(t, rec, &out)
	if out["response"] != "echo: What is ECS?" || out["session_id"] == "" || out["model_used"] != "test-model" {
		t.Fatalf("%+v", out)
	}
	sid := out["session_id"]

	m, err := e.repo.CreateMaterial(context.Background(), study.MaterialInput{Title: "Compute", Content: "ECS runs VMs"})
	if err != nil {
		t.Fatal(err)
	}
	rec = e.call(t, "POST", "/api/ai/chat", tok, map[string]string{
		"message": "And flavors?", "session_id": sid, "context_type": "material", "context_id": m.ID,
	})
	if rec.Code != 200 || len(e.tutor.lastHist) != 2 || !strings.Contains(e.tutor.lastBG, "ECS runs VMs") {
		t.Fatalf("follow-up: %d hist=%d bg=%q", rec.Code, len(e.tutor.lastHist), e.tutor.lastBG)
	}

	other := e.register(t, "ben@example.com")
	if rec := e.call(t, "POST", "/api/ai/chat", other, map[string]string{"message": "hi", "session_id": sid}); rec.Code != http.StatusNotFound {
		t.Fatalf("foreign session: %d", rec.Code)
	}

	rec = e.call(t, "POST", "/api/ai/chat/stream", tok, map[string]string{"message": "stream please", "session_id": sid})
	if rec.Code != 200 || rec.Header().Get("Content-Type") != "text/event-stream" {
		t.Fatalf("stream: %d %q", rec.Code, rec.Header().Get("Content-Type"))
	}
	want := "data: {\"content\":\"Hello\"}\n\ndata: {\"content\":\" world\"}\n\ndata: [DONE]\n\n"
	if rec.Body.String() != want {
		t.Fatalf("frames %q", rec.Body.String())
	}

	var msgs []chat.Message
	decodeInto(t, e.call(t, "GET", "/api/ai/chat-sessions/"+sid+"/messages", tok, nil), &msgs)
	if len(msgs) != 6 || msgs[5].Content != "Hello world" || msgs[5].Role != chat.RoleAssistant {
		t.Fatalf("%d messages: %+v", len(msgs), msgs)
	}
	var sessions []chat.Session
	decodeInto(t, e.call(t, "GET", "/api/ai/chat-sessions", tok, nil), &sessions)
	if len(sessions) != 1 || sessions[0].Title != "What is ECS?" {
		t.Fatalf("%+v", sessions)
	}
	if rec := e.call(t, "DELETE", "/api/ai/chat-sessions/"+sid, tok, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("delete: %d", rec.Code)
	}

	var quiz struct {
		Questions      []llm.QuizQuestion `json:"questions"`
		GeneratedID    string             `json:"generated_id"`
		TotalQuestions int                `json:"total_questions"`
	}
	decodeInto(t, e.call(t, "POST", "/api/ai/generate-quiz", tok, map[string]any{"content": "ECS notes", "difficulty": "hard"}), &quiz)
	if quiz.TotalQuestions != 1 || quiz.GeneratedID == "" {
		t.Fatalf("%+v", quiz)
	}
	if rec := e.call(t, "POST", "/api/ai/generate-quiz", tok, map[string]any{"content": "x", "difficulty": "extreme"}); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad difficulty: %d", rec.Code)
	}
	var logged []study.Generated
	decodeInto(t, e.call(t, "GET", "/api/ai/generated?type=quiz", tok, nil), &logged)
	if len(logged) != 1 || logged[0].ID != quiz.GeneratedID || logged[0].Metadata["difficulty"] != "hard" || logged[0].Model != "test-model" {
		t.Fatalf("generated log %+v", logged)
	}
	var sum map[string]any
	decodeInto(t, e.call(t, "POST", "/api/ai/summarize", tok, map[string]any{"content": "abcdef"}), &sum)
	if sum["original_length"] != float64(6) || sum["summary"] != "a short summary" {
		t.Fatalf("%+v", sum)
	}
	var ex map[string]any
	decodeInto(t, e.call(t, "POST", "/api/ai/explain-concept", tok, map[string]any{"concept": "VPC"}), &ex)
	if ex["explanation"] != "VPC at intermediate" {
		t.Fatalf("%+v", ex)
	}
	var fc map[string]any
	decodeInto(t, e.call(t, "POST", "/api/ai/generate-flashcards", tok, map[string]any{"content": "x", "category": "Networking"}), &fc)
	if fc["total_cards"] != float64(1) {
		t.Fatalf("%+v", fc)
	}
	if rec := e.call(t, "POST", "/api/ai/summarize", tok, map[string]any{"content": " "}); rec.Code != http.StatusBadRequest {
		t.Fatalf("empty content: %d", rec.Code)
	}
}

func TestAIUnavailable(t *testing.T) {
	e := newEnv(t, false)
	tok := e.register(t, "ana@example.com")
	e.tutor.err = llm.ErrUnavailable

	if rec := e.call(t, "GET", "/api/ai/health", "", nil); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("health: %d", rec.Code)
	}
	if rec := e.call(t, "POST", "/api/ai/chat", tok, map[string]string{"message": "hi"}); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("chat: %d", rec.Code)
	}
	rec := e.call(t, "POST", "/api/ai/chat/stream", tok, map[string]string{"message": "hi"})
	if !strings.Contains(rec.Body.String(), `data: {"error":`) || !strings.HasSuffix(rec.Body.String(), "data: [DONE]\n\n") {
		t.Fatalf("stream %q", rec.Body.String())
	}
}
