package study

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mind-engage/studyhub/internal/exam"
)

var (
	ErrNotFound = errors.New("not found")
	ErrInvalid  = errors.New("invalid input")
)

type Material struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	Category    string    `json:"category"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type MaterialInput struct {
	Title       string `json:"title"`
	Content     string `json:"content"`
	Category    string `json:"category"`
	Description string `json:"description,omitempty"`
}

func (in MaterialInput) Validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("%w: title required", ErrInvalid)
	}
	if strings.TrimSpace(in.Content) == "" {
		return fmt.Errorf("%w: content required", ErrInvalid)
	}
	return nil
}

// MaterialPatch updates only the non-nil fields.
type MaterialPatch struct {
	Title       *string `json:"title,omitempty"`
	Content     *string `json:"content,omitempty"`
	Category    *string `json:"category,omitempty"`
	Description *string `json:"description,omitempty"`
}

func (p MaterialPatch) apply(m *Material) error {
	if p.Title != nil {
		if strings.TrimSpace(*p.Title) == "" {
			return fmt.Errorf("%w: title must not be empty", ErrInvalid)
		}
		m.Title = strings.TrimSpace(*p.Title)
	}
	if p.Content != nil {
		if strings.TrimSpace(*p.Content) == "" {
			return fmt.Errorf("%w: content must not be empty", ErrInvalid)
		}
		m.Content = *p.Content
	}
	if p.Category != nil {
		m.Category = strings.TrimSpace(*p.Category)
	}
	if p.Description != nil {
		m.Description = *p.Description
	}
	return nil
}

type Flashcard struct {
	ID         string          `json:"id"`
	Front      string          `json:"front"`
	Back       string          `json:"back"`
	Category   string          `json:"category"`
	Difficulty exam.Difficulty `json:"difficulty"`
	MaterialID string          `json:"material_id,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

type FlashcardInput struct {
	Front      string          `json:"front"`
	Back       string          `json:"back"`
	Category   string          `json:"category"`
	Difficulty exam.Difficulty `json:"difficulty"`
	MaterialID string          `json:"material_id,omitempty"`
}

// Normalize defaults difficulty to medium and validates.
func (in FlashcardInput) Normalize() (FlashcardInput, error) {
	in.Front = strings.TrimSpace(in.Front)
	in.Back = strings.TrimSpace(in.Back)
	in.Category = strings.TrimSpace(in.Category)
	if in.Front == "" || in.Back == "" {
		return in, fmt.Errorf("%w: front and back required", ErrInvalid)
	}
	if in.Difficulty == "" {
		in.Difficulty = exam.DifficultyMedium
	}
	d, err := exam.ParseDifficulty(string(in.Difficulty))
	if err != nil {
		return in, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	in.Difficulty = d
	return in, nil
}
