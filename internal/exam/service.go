package exam

import (
	"context"
	"fmt"
	"log"

	"github.com/mind-engage/studyhub/internal/events"
)

// ResultSink persists graded results. Implemented by the results store.
type ResultSink interface {
	SaveResult(ctx context.Context, r Result) error
}

// Service wires the composer, grader and registry to persistence and events.
type Service struct {
	pool     *Pool
	composer *Composer
	grader   *Grader
	registry *Registry
	sink     ResultSink
	pub      events.Publisher
}

func NewService(pool *Pool, composer *Composer, grader *Grader, registry *Registry, sink ResultSink, pub events.Publisher) *Service {
	if pub == nil {
		pub = events.Nop{}
	}
	return &Service{pool: pool, composer: composer, grader: grader, registry: registry, sink: sink, pub: pub}
}

func (s *Service) Topics() []string { return s.pool.Topics() }

func (s *Service) QuestionCount() int { return s.pool.Len() }

// TopicOf reports the topic of a catalogue question, or "" if unknown.
func (s *Service) TopicOf(questionID string) string {
	if q, ok := s.pool.FindByID(questionID); ok {
		return q.Topic
	}
	return ""
}

// CreateExam composes an exam and keeps it for later grading.
func (s *Service) CreateExam(ctx context.Context, cfg Config) (Exam, error) {
	e, err := s.composer.Compose(cfg)
	if err != nil {
		return Exam{}, err
	}
	s.registry.Put(e)
	s.publish(ctx, events.Event{
		Type: events.TypeExamCreated,
		Key:  e.ID,
		Payload: map[string]any{
			"difficulty": e.Difficulty,
			"topic":      e.Topic,
			"questions":  len(e.Questions),
			"time_limit": e.TimeLimit,
		},
		CreatedAt: e.CreatedAt,
	})
	return e, nil
}

func (s *Service) GetExam(_ context.Context, id string) (Exam, error) {
	return s.registry.Get(id)
}

// SubmitExam grades sub for userID. An exam that already expired from the
// registry is still graded against the pool. A failing sink is logged; the
// result is returned regardless.
func (s *Service) SubmitExam(ctx context.Context, userID, examID string, sub Submission) (Result, error) {
	if sub.ExamID == "" {
		sub.ExamID = examID
	}
	if sub.ExamID != examID {
		return Result{}, fmt.Errorf("%w: submission exam_id %q does not match %q", ErrInvalidConfig, sub.ExamID, examID)
	}
	if sub.TimeTaken < 0 {
		return Result{}, fmt.Errorf("%w: time_taken must not be negative", ErrInvalidConfig)
	}

	res := s.grader.Grade(sub)
	res.UserID = userID
	if e, err := s.registry.Get(examID); err == nil {
		res.Difficulty = e.Difficulty
	}

	if s.sink != nil {
		if err := s.sink.SaveResult(ctx, res); err != nil {
			log.Printf("exam: save result %s: %v", res.ID, err)
		}
	}
	s.publish(ctx, events.Event{
		Type: events.TypeExamGraded,
		Key:  res.ID,
		Payload: map[string]any{
			"exam_id":         res.ExamID,
			"user_id":         res.UserID,
			"score":           res.Score,
			"correct_answers": res.CorrectAnswers,
			"total_questions": res.TotalQuestions,
		},
		CreatedAt: res.CreatedAt,
	})
	return res, nil
}

func (s *Service) publish(ctx context.Context, e events.Event) {
	if err := s.pub.Publish(ctx, e); err != nil {
		log.Printf("exam: publish %s %s: %v", e.Type, e.Key, err)
	}
}
