package exam_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mind-engage/studyhub/internal/events"
	"github.com/mind-engage/studyhub/internal/exam"
)

type fakeSink struct {
	mu    sync.Mutex
	saved []exam.Result
	err   error
}

func (s *fakeSink) SaveResult(_ context.Context, r exam.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = append(s.saved, r)
	return s.err
}

type recorder struct {
	mu  sync.Mutex
	evs []events.Event
}

func (r *recorder) Publish(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evs = append(r.evs, e)
	return nil
}

func newService(t *testing.T, sink exam.ResultSink, pub events.Publisher) *exam.Service {
	t.Helper()
	p := fixturePool(t)
	return exam.NewService(p, exam.NewComposer(p), exam.NewGrader(p), exam.NewRegistry(time.Hour), sink, pub)
}

func TestServiceCreateAndSubmit(t *testing.T) {
	sink := &fakeSink{}
	rec := &recorder{}
	svc := newService(t, sink, rec)
	ctx := context.Background()

	e, err := svc.CreateExam(ctx, exam.Config{Difficulty: exam.DifficultyMedium, QuestionCount: 2})
	if err != nil {
		t.Fatalf("CreateExam: %v", err)
	}
	got, err := svc.GetExam(ctx, e.ID)
	if err != nil || got.ID != e.ID {
		t.Fatalf("GetExam: %v", err)
	}

	var answers []exam.AnswerSubmission
	for _, q := range e.Questions {
		answers = append(answers, exam.AnswerSubmission{QuestionID: q.ID, SelectedAnswer: "A"})
	}
	res, err := svc.SubmitExam(ctx, "u1", e.ID, exam.Submission{Answers: answers, TimeTaken: 30})
	if err != nil {
		t.Fatalf("SubmitExam: %v", err)
	}
	if res.UserID != "u1" || res.ExamID != e.ID || res.Score != 100 || res.Difficulty != exam.DifficultyMedium {
		t.Fatalf("result %+v", res)
	}
	if len(sink.saved) != 1 || sink.saved[0].ID != res.ID {
		t.Fatalf("sink got %+v", sink.saved)
	}
	if len(rec.evs) != 2 || rec.evs[0].Type != events.TypeExamCreated || rec.evs[1].Type != events.TypeExamGraded {
		t.Fatalf("events %+v", rec.evs)
	}
}

func TestServiceSubmitMismatchedExamID(t *testing.T) {
	svc := newService(t, nil, nil)
	_, err := svc.SubmitExam(context.Background(), "u1", "e1", exam.Submission{ExamID: "e2"})
	if !errors.Is(err, exam.ErrInvalidConfig) {
		t.Fatalf("err=%v", err)
	}
}

func TestServiceSinkFailureStillReturnsResult(t *testing.T) {
	sink := &fakeSink{err: errors.New("disk full")}
	svc := newService(t, sink, nil)
	res, err := svc.SubmitExam(context.Background(), "u1", "unknown-exam", exam.Submission{
		Answers: []exam.AnswerSubmission{{QuestionID: "hard-Security-0", SelectedAnswer: "A"}},
	})
	if err != nil {
		t.Fatalf("SubmitExam: %v", err)
	}
	if res.CorrectAnswers != 1 || res.ExamID != "unknown-exam" {
		t.Fatalf("%+v", res)
	}
}

func TestServiceGetExamNotFound(t *testing.T) {
	svc := newService(t, nil, nil)
	if _, err := svc.GetExam(context.Background(), "missing"); !errors.Is(err, exam.ErrExamNotFound) {
		t.Fatalf("err=%v", err)
	}
	if svc.QuestionCount() != 10 || len(svc.Topics()) != 4 {
		t.Fatalf("count=%d topics=%v", svc.QuestionCount(), svc.Topics())
	}
	if svc.TopicOf("hard-Security-0") != "Security" || svc.TopicOf("nope") != "" {
		t.Fatalf("TopicOf")
	}
}

func TestRegistryPurgeExpired(t *testing.T) {
	r := exam.NewRegistry(time.Minute)
	base := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	r.Put(exam.Exam{ID: "old", TimeLimit: 10, CreatedAt: base})
	r.Put(exam.Exam{ID: "new", TimeLimit: 10, CreatedAt: base.Add(30 * time.Minute)})

	if n := r.PurgeExpired(base.Add(20 * time.Minute)); n != 1 {
		t.Fatalf("purged %d, want 1", n)
	}
	if _, err := r.Get("old"); !errors.Is(err, exam.ErrExamNotFound) {
		t.Fatalf("old still present")
	}
	if r.Len() != 1 {
		t.Fatalf("len=%d", r.Len())
	}
}
