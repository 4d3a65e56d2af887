package exam_test

import (
	"testing"

	"github.com/mind-engage/studyhub/internal/exam"
)

func twoQuestionPool(t *testing.T) *exam.Pool {
	t.Helper()
	q1 := mc("q1", exam.DifficultyEasy, "Compute")
	q2 := mc("q2", exam.DifficultyEasy, "Storage")
	q2.CorrectAnswer = "B"
	p, err := exam.NewPool([]exam.Question{q1, q2})
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestGradeHalfCorrect(t *testing.T) {
	g := exam.NewGrader(twoQuestionPool(t))
	res := g.Grade(exam.Submission{
		ExamID: "e1",
		Answers: []exam.AnswerSubmission{
			{QuestionID: "q1", SelectedAnswer: "A"},
			{QuestionID: "q2", SelectedAnswer: "C"},
		},
		TimeTaken: 90,
	})
	if res.TotalQuestions != 2 || res.CorrectAnswers != 1 {
		t.Fatalf("total=%d correct=%d", res.TotalQuestions, res.CorrectAnswers)
	}
	if res.Score != 50 || res.Percentage != 50 {
		t.Fatalf("score=%v pct=%v", res.Score, res.Percentage)
	}
	if res.ExamID != "e1" || res.TimeTaken != 90 || res.ID == "" {
		t.Fatalf("metadata %+v", res)
	}
	if !res.Answers[0].IsCorrect || res.Answers[1].IsCorrect {
		t.Fatalf("answers %+v", res.Answers)
	}
	if res.Answers[1].CorrectAnswer != "B" || res.Answers[1].Explanation == "" {
		t.Fatalf("detail must reveal key and explanation: %+v", res.Answers[1])
	}
}

func TestGradeSkipsUnknownQuestions(t *testing.T) {
	g := exam.NewGrader(twoQuestionPool(t))
	res := g.Grade(exam.Submission{Answers: []exam.AnswerSubmission{
		{QuestionID: "q1", SelectedAnswer: "A"},
		{QuestionID: "nope", SelectedAnswer: "A"},
	}})
	if res.TotalQuestions != 1 || res.CorrectAnswers != 1 || res.Score != 100 {
		t.Fatalf("%+v", res)
	}
	if len(res.Answers) != 1 {
		t.Fatalf("unknown id must not appear in details: %+v", res.Answers)
	}
}

func TestGradeNothingResolvable(t *testing.T) {
	g := exam.NewGrader(twoQuestionPool(t))
	for _, sub := range []exam.Submission{
		{},
		{Answers: []exam.AnswerSubmission{{QuestionID: "ghost", SelectedAnswer: "A"}}},
	} {
		res := g.Grade(sub)
		if res.TotalQuestions != 0 || res.Score != 0 || res.Percentage != 0 {
			t.Fatalf("%+v", res)
		}
		if res.Answers == nil {
			t.Fatalf("answers must be an empty list, not nil")
		}
	}
}

func TestGradeIsCaseSensitive(t *testing.T) {
	g := exam.NewGrader(twoQuestionPool(t))
	res := g.Grade(exam.Submission{Answers: []exam.AnswerSubmission{{QuestionID: "q1", SelectedAnswer: "a"}}})
	if res.CorrectAnswers != 0 {
		t.Fatalf("lowercase answer accepted")
	}
}

func TestGradeRoundsPercentage(t *testing.T) {
	q := []exam.Question{
		mc("a", exam.DifficultyHard, "T"),
		mc("b", exam.DifficultyHard, "T"),
		mc("c", exam.DifficultyMedium, "T"),
	}
	p, err := exam.NewPool(q)
	if err != nil {
		t.Fatal(err)
	}
	res := exam.NewGrader(p).Grade(exam.Submission{Answers: []exam.AnswerSubmission{
		{QuestionID: "a", SelectedAnswer: "A"},
		{QuestionID: "b", SelectedAnswer: "B"},
		{QuestionID: "c", SelectedAnswer: "B"},
	}})
	if res.Percentage != 33.33 {
		t.Fatalf("percentage = %v", res.Percentage)
	}
	if res.Difficulty != exam.DifficultyHard {
		t.Fatalf("difficulty = %q", res.Difficulty)
	}
}

func TestRound2(t *testing.T) {
	cases := map[float64]float64{66.666666: 66.67, 12.344: 12.34, 0: 0, 100: 100}
	for in, want := range cases {
		if got := exam.Round2(in); got != want {
			t.Fatalf("Round2(%v)=%v, want %v", in, got, want)
		}
	}
}
