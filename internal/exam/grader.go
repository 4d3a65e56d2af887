package exam

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mind-engage/studyhub/internal/grading"
)

// Grader scores submissions against the ground truth held in a Pool.
type Grader struct {
	pool   *Pool
	engine grading.Grader
	now    func() time.Time
	newID  func() string
}

type GraderOption func(*Grader)

func WithGradingEngine(g grading.Grader) GraderOption {
	return func(gr *Grader) { gr.engine = g }
}

func WithGraderClock(now func() time.Time) GraderOption {
	return func(gr *Grader) { gr.now = now }
}

func WithResultIDGenerator(f func() string) GraderOption {
	return func(gr *Grader) { gr.newID = f }
}

func NewGrader(pool *Pool, opts ...GraderOption) *Grader {
	g := &Grader{
		pool:   pool,
		engine: grading.NewDefaultGrader(),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Grade scores sub. Answers whose question id is unknown to the pool are
// skipped and count toward neither total nor correct.
func (g *Grader) Grade(sub Submission) Result {
	res := Result{
		ID:        g.newID(),
		ExamID:    sub.ExamID,
		Answers:   make([]AnswerDetail, 0, len(sub.Answers)),
		TimeTaken: sub.TimeTaken,
		CreatedAt: g.now().UTC(),
	}
	levels := map[Difficulty]int{}
	for _, a := range sub.Answers {
		q, ok := g.pool.FindByID(a.QuestionID)
		if !ok {
			continue
		}
		res.TotalQuestions++
		levels[q.Difficulty]++

		out := g.engine.Grade(grading.Q{Type: string(q.Type), AnswerKey: q.CorrectAnswer}, a.SelectedAnswer)
		if out.Correct {
			res.CorrectAnswers++
		}
		res.Answers = append(res.Answers, AnswerDetail{
			QuestionID:     q.ID,
			Question:       q.Text,
			SelectedAnswer: a.SelectedAnswer,
			CorrectAnswer:  q.CorrectAnswer,
			IsCorrect:      out.Correct,
			Explanation:    q.Explanation,
			Topic:          q.Topic,
			Feedback:       strings.Join(out.Feedback, "; "),
		})
	}
	if res.TotalQuestions > 0 {
		res.Score = float64(res.CorrectAnswers) / float64(res.TotalQuestions) * 100
	}
	res.Percentage = Round2(res.Score)
	res.Difficulty = dominantDifficulty(levels)
	return res
}

// Round2 rounds to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// dominantDifficulty picks the most frequent level; ties go to the harder one.
func dominantDifficulty(levels map[Difficulty]int) Difficulty {
	var best Difficulty
	bestN := 0
	for _, d := range Difficulties {
		if n := levels[d]; n > 0 && n >= bestN {
			best, bestN = d, n
		}
	}
	return best
}
