package events

import (
	"context"
	"errors"
	"time"
)

const (
	TypeExamCreated       = "exam.created"
	TypeExamGraded        = "exam.graded"
	TypeQuestionsImported = "questions.imported"
)

type Event struct {
	Type      string    `json:"type"`
	Key       string    `json:"key"` // natural key, e.g. exam or result id
	Payload   any       `json:"payload"`
	CreatedAt time.Time `json:"created_at"`
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Nop discards events.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// Multi fans an event out to every publisher and joins their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, e Event) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
