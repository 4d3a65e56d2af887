package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/mind-engage/studyhub/internal/exam"
)

// Generator is the prompt-in, text-out surface the tutor needs. *Client
// implements it.
type Generator interface {
	Generate(ctx context.Context, r Request) (string, error)
	Stream(ctx context.Context, r Request, emit func(chunk string) error) error
}

// Tutor turns study content into summaries, quizzes, flashcards and answers.
type Tutor struct {
	gen     Generator
	subject string
}

const DefaultSubject = "Huawei Cloud Computing and ICT topics"

func NewTutor(gen Generator, subject string) *Tutor {
	if subject == "" {
		subject = DefaultSubject
	}
	return &Tutor{gen: gen, subject: subject}
}

func (t *Tutor) Summarize(ctx context.Context, content string, maxWords int) (string, error) {
	if maxWords <= 0 {
		maxWords = 300
	}
	return t.gen.Generate(ctx, Request{
		System: fmt.Sprintf("You are a helpful assistant that summarizes educational content about %s. "+
			"Create a clear, concise summary in approximately %d words that captures the key concepts and learning objectives.", t.subject, maxWords),
		Prompt:      "Please summarize the following content:\n\n" + content,
		Temperature: 0.3,
		MaxTokens:   maxWords * 2,
	})
}

// QuizQuestion is a generated multiple choice item. CorrectAnswer indexes
// Options.
type QuizQuestion struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correct_answer"`
	Explanation   string   `json:"explanation"`
}

// ToQuestion converts q into a catalogue question, resolving the answer
// index to its option text.
func (q QuizQuestion) ToQuestion(id string, d exam.Difficulty, topic string) (exam.Question, error) {
	if q.CorrectAnswer < 0 || q.CorrectAnswer >= len(q.Options) {
		return exam.Question{}, fmt.Errorf("%w: %s: answer index %d out of range", exam.ErrInvalidQuestion, id, q.CorrectAnswer)
	}
	return exam.NewQuestion(exam.Question{
		ID:            id,
		Text:          q.Question,
		Options:       q.Options,
		CorrectAnswer: q.Options[q.CorrectAnswer],
		Explanation:   q.Explanation,
		Difficulty:    d,
		Topic:         topic,
		Type:          exam.TypeMultipleChoice,
	})
}

// GenerateQuiz asks for n four-option questions. A reply that holds no
// parsable JSON array yields an empty list.
func (t *Tutor) GenerateQuiz(ctx context.Context, content string, n int) ([]QuizQuestion, error) {
	if n <= 0 {
		n = 5
	}
	reply, err := t.gen.Generate(ctx, Request{
		System: fmt.Sprintf("You are an expert in creating educational quiz questions for %s. "+
			"Create multiple choice questions with 4 options each. Respond in JSON format with an array of questions. "+
			"Each question should have: question, options (array of 4 strings), correct_answer (index 0-3), explanation.", t.subject),
		Prompt: fmt.Sprintf(`Based on the following content, create %d multiple choice questions:

%s

Respond with a JSON array of questions in this format:
[
  {
    "question": "Question text here?",
    "options": ["Option A", "Option B", "Option C", "Option D"],
    "correct_answer": 0,
    "explanation": "Explanation of why this is correct"
  }
]`, n, content),
		Temperature: 0.4,
		MaxTokens:   1500,
	})
	if err != nil {
		return nil, err
	}
	var qs []QuizQuestion
	if !extractArray(reply, &qs) {
		log.Printf("llm: quiz reply is not a JSON array (%d bytes)", len(reply))
		return []QuizQuestion{}, nil
	}
	return truncate(qs, n), nil
}

type FlashcardDraft struct {
	Front      string `json:"front"`
	Back       string `json:"back"`
	Category   string `json:"category"`
	Difficulty string `json:"difficulty"`
}

func (t *Tutor) GenerateFlashcards(ctx context.Context, content string, n int) ([]FlashcardDraft, error) {
	if n <= 0 {
		n = 10
	}
	reply, err := t.gen.Generate(ctx, Request{
		System: fmt.Sprintf("You are creating educational flashcards for %s. "+
			"Create clear, concise flashcards with a question/term on the front and answer/definition on the back. "+
			"Respond in JSON format with an array of flashcards.", t.subject),
		Prompt: fmt.Sprintf(`Based on the following content, create %d flashcards:

%s

Respond with a JSON array in this format:
[
  {
    "front": "Question or term",
    "back": "Answer or definition",
    "category": "Topic category",
    "difficulty": "easy|medium|hard"
  }
]`, n, content),
		Temperature: 0.4,
		MaxTokens:   1500,
	})
	if err != nil {
		return nil, err
	}
	var cards []FlashcardDraft
	if !extractArray(reply, &cards) {
		log.Printf("llm: flashcard reply is not a JSON array (%d bytes)", len(reply))
		return []FlashcardDraft{}, nil
	}
	return truncate(cards, n), nil
}

func (t *Tutor) ExplainConcept(ctx context.Context, concept, background, level string) (string, error) {
	if level == "" {
		level = "intermediate"
	}
	return t.gen.Generate(ctx, Request{
		System: fmt.Sprintf("You are an expert teacher explaining %s. Explain the concept clearly for a %s level student. "+
			"Use examples and analogies when helpful. Structure your explanation logically.", t.subject, level),
		Context:     background,
		Prompt:      "Please explain the concept: " + concept,
		Temperature: 0.4,
	})
}

func (t *Tutor) Answer(ctx context.Context, question, background string) (string, error) {
	return t.gen.Generate(ctx, Request{
		System: fmt.Sprintf("You are a knowledgeable tutor specializing in %s. "+
			"Provide clear, accurate, and helpful answers to student questions. If you're not certain about something, say so.", t.subject),
		Context:     background,
		Prompt:      question,
		Temperature: 0.3,
	})
}

// Turn is one prior message of a conversation.
type Turn struct {
	Role    string
	Content string
}

const historyTurns = 10

func (t *Tutor) chatRequest(message string, history []Turn, background string) Request {
	if len(history) > historyTurns {
		history = history[len(history)-historyTurns:]
	}
	var b strings.Builder
	if background != "" {
		b.WriteString(background)
		b.WriteString("\n\n")
	}
	for _, h := range history {
		fmt.Fprintf(&b, "%s: %s\n", h.Role, h.Content)
	}
	return Request{
		System: fmt.Sprintf("You are a helpful AI tutor specializing in %s. Provide clear, accurate, and educational responses. "+
			"Help students understand concepts, answer questions, and guide their learning journey.", t.subject),
		Context: strings.TrimSpace(b.String()),
		Prompt:  message,
	}
}

// Chat answers message in light of the recent history and optional
// background material.
func (t *Tutor) Chat(ctx context.Context, message string, history []Turn, background string) (string, error) {
	return t.gen.Generate(ctx, t.chatRequest(message, history, background))
}

func (t *Tutor) ChatStream(ctx context.Context, message string, history []Turn, background string, emit func(string) error) error {
	return t.gen.Stream(ctx, t.chatRequest(message, history, background), emit)
}

var jsonArray = regexp.MustCompile(`(?s)\[.*\]`)

// extractArray decodes the outermost bracketed span of reply into v.
func extractArray(reply string, v any) bool {
	m := jsonArray.FindString(reply)
	if m == "" {
		return false
	}
	return json.Unmarshal([]byte(m), v) == nil
}

func truncate[T any](xs []T, n int) []T {
	if xs == nil {
		return []T{}
	}
	if len(xs) > n {
		return xs[:n]
	}
	return xs
}
