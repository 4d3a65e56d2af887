package exam

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidQuestion = errors.New("invalid question")
	ErrInvalidConfig   = errors.New("invalid exam configuration")
	ErrExamNotFound    = errors.New("exam not found")
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Difficulties lists the levels in ascending order.
var Difficulties = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}

// Rank orders difficulties; unknown values rank -1.
func (d Difficulty) Rank() int {
	for i, x := range Difficulties {
		if x == d {
			return i
		}
	}
	return -1
}

func (d Difficulty) Valid() bool { return d.Rank() >= 0 }

func ParseDifficulty(s string) (Difficulty, error) {
	d := Difficulty(strings.ToLower(strings.TrimSpace(s)))
	if !d.Valid() {
		return "", fmt.Errorf("%w: unknown difficulty %q", ErrInvalidConfig, s)
	}
	return d, nil
}

type QuestionType string

const (
	TypeMultipleChoice QuestionType = "multiple_choice"
	TypeTrueFalse      QuestionType = "true_false"
	TypeFillBlank      QuestionType = "fill_blank"
)

func (t QuestionType) Valid() bool {
	switch t {
	case TypeMultipleChoice, TypeTrueFalse, TypeFillBlank:
		return true
	}
	return false
}

// Question is the ground-truth record. Never serve it to learners directly.
type Question struct {
	ID            string       `json:"id" yaml:"id"`
	Text          string       `json:"question" yaml:"question"`
	Options       []string     `json:"options" yaml:"options"`
	CorrectAnswer string       `json:"correct_answer" yaml:"correct_answer"`
	Explanation   string       `json:"explanation,omitempty" yaml:"explanation,omitempty"`
	Difficulty    Difficulty   `json:"difficulty" yaml:"difficulty"`
	Topic         string       `json:"topic" yaml:"topic"`
	Type          QuestionType `json:"question_type" yaml:"question_type"`
}

// NewQuestion normalises and validates q. An empty type means multiple choice.
func NewQuestion(q Question) (Question, error) {
	q.ID = strings.TrimSpace(q.ID)
	q.Topic = strings.TrimSpace(q.Topic)
	q.Difficulty = Difficulty(strings.ToLower(string(q.Difficulty)))
	if q.Type == "" {
		q.Type = TypeMultipleChoice
	}
	if q.Type == TypeTrueFalse && len(q.Options) == 0 {
		q.Options = []string{"True", "False"}
	}
	q.Options = append([]string(nil), q.Options...)
	if err := q.Validate(); err != nil {
		return Question{}, err
	}
	return q, nil
}

func (q Question) Validate() error {
	switch {
	case q.ID == "":
		return fmt.Errorf("%w: id required", ErrInvalidQuestion)
	case strings.TrimSpace(q.Text) == "":
		return fmt.Errorf("%w: %s: question text required", ErrInvalidQuestion, q.ID)
	case q.Topic == "":
		return fmt.Errorf("%w: %s: topic required", ErrInvalidQuestion, q.ID)
	case !q.Difficulty.Valid():
		return fmt.Errorf("%w: %s: unknown difficulty %q", ErrInvalidQuestion, q.ID, q.Difficulty)
	case !q.Type.Valid():
		return fmt.Errorf("%w: %s: unknown question type %q", ErrInvalidQuestion, q.ID, q.Type)
	case q.CorrectAnswer == "":
		return fmt.Errorf("%w: %s: correct answer required", ErrInvalidQuestion, q.ID)
	}
	switch q.Type {
	case TypeMultipleChoice:
		if len(q.Options) < 2 {
			return fmt.Errorf("%w: %s: multiple choice needs at least two options", ErrInvalidQuestion, q.ID)
		}
		if !contains(q.Options, q.CorrectAnswer) {
			return fmt.Errorf("%w: %s: correct answer is not one of the options", ErrInvalidQuestion, q.ID)
		}
	case TypeTrueFalse:
		if q.CorrectAnswer != "True" && q.CorrectAnswer != "False" {
			return fmt.Errorf("%w: %s: true/false answer must be True or False", ErrInvalidQuestion, q.ID)
		}
		if len(q.Options) > 0 && !contains(q.Options, q.CorrectAnswer) {
			return fmt.Errorf("%w: %s: correct answer is not one of the options", ErrInvalidQuestion, q.ID)
		}
	}
	return nil
}

// View strips the answer key and explanation.
func (q Question) View() QuestionView {
	return QuestionView{
		ID:         q.ID,
		Text:       q.Text,
		Options:    append([]string(nil), q.Options...),
		Difficulty: q.Difficulty,
		Topic:      q.Topic,
		Type:       q.Type,
	}
}

func (q Question) clone() Question {
	q.Options = append([]string(nil), q.Options...)
	return q
}

// QuestionView is the learner-facing, redacted form of a Question.
type QuestionView struct {
	ID         string       `json:"id"`
	Text       string       `json:"question"`
	Options    []string     `json:"options"`
	Difficulty Difficulty   `json:"difficulty"`
	Topic      string       `json:"topic"`
	Type       QuestionType `json:"question_type"`
}

const (
	DefaultQuestionCount = 20
	DefaultTimeLimit     = 30 // minutes
)

// Config is the caller's exam request.
type Config struct {
	Difficulty    Difficulty `json:"difficulty"`
	Topic         string     `json:"topic,omitempty"`
	QuestionCount int        `json:"question_count"`
	TimeLimit     int        `json:"time_limit"` // minutes
}

// WithDefaults fills zero count and time limit.
func (c Config) WithDefaults() Config {
	if c.QuestionCount == 0 {
		c.QuestionCount = DefaultQuestionCount
	}
	if c.TimeLimit == 0 {
		c.TimeLimit = DefaultTimeLimit
	}
	c.Topic = strings.TrimSpace(c.Topic)
	return c
}

func (c Config) Validate() error {
	if c.Difficulty == "" {
		return fmt.Errorf("%w: difficulty required", ErrInvalidConfig)
	}
	if !c.Difficulty.Valid() {
		return fmt.Errorf("%w: unknown difficulty %q", ErrInvalidConfig, c.Difficulty)
	}
	if c.QuestionCount <= 0 {
		return fmt.Errorf("%w: question_count must be positive", ErrInvalidConfig)
	}
	if c.TimeLimit <= 0 {
		return fmt.Errorf("%w: time_limit must be positive", ErrInvalidConfig)
	}
	return nil
}

// NewConfig applies defaults and validates.
func NewConfig(c Config) (Config, error) {
	c = c.WithDefaults()
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

type Exam struct {
	ID         string         `json:"id"`
	Questions  []QuestionView `json:"questions"`
	TimeLimit  int            `json:"time_limit"`
	Difficulty Difficulty     `json:"difficulty"`
	Topic      string         `json:"topic,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// ExpiresAt is the moment the exam's time limit runs out.
func (e Exam) ExpiresAt() time.Time {
	return e.CreatedAt.Add(time.Duration(e.TimeLimit) * time.Minute)
}

type AnswerSubmission struct {
	QuestionID     string `json:"question_id"`
	SelectedAnswer string `json:"selected_answer"`
}

type Submission struct {
	ExamID    string             `json:"exam_id"`
	Answers   []AnswerSubmission `json:"answers"`
	TimeTaken int                `json:"time_taken"` // seconds
}

type AnswerDetail struct {
	QuestionID     string `json:"question_id"`
	Question       string `json:"question"`
	SelectedAnswer string `json:"selected_answer"`
	CorrectAnswer  string `json:"correct_answer"`
	IsCorrect      bool   `json:"is_correct"`
	Explanation    string `json:"explanation,omitempty"`
	Topic          string `json:"topic,omitempty"`
	Feedback       string `json:"feedback,omitempty"`
}

type Result struct {
	ID             string         `json:"id"`
	UserID         string         `json:"user_id,omitempty"`
	ExamID         string         `json:"exam_id"`
	Score          float64        `json:"score"`
	TotalQuestions int            `json:"total_questions"`
	CorrectAnswers int            `json:"correct_answers"`
	Percentage     float64        `json:"percentage"`
	Difficulty     Difficulty     `json:"difficulty,omitempty"`
	Answers        []AnswerDetail `json:"answers"`
	TimeTaken      int            `json:"time_taken"`
	CreatedAt      time.Time      `json:"created_at"`
}

func contains(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}
