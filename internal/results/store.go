package results

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mind-engage/studyhub/internal/exam"
)

var ErrNotFound = errors.New("result not found")

// Store keeps graded results in the results table. Timestamps are stored as
// unix milliseconds so that listings order stably within a second.
type Store struct{ DB *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{DB: db} }

// SaveResult implements exam.ResultSink.
func (s *Store) SaveResult(ctx context.Context, r exam.Result) error { return s.Save(ctx, r) }

func (s *Store) Save(ctx context.Context, r exam.Result) error {
	if r.ID == "" || r.UserID == "" {
		return fmt.Errorf("save result: id and user_id required")
	}
	answers, err := json.Marshal(r.Answers)
	if err != nil {
		return err
	}
	created := r.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err = s.DB.ExecContext(ctx, `
		INSERT INTO results (id, user_id, exam_id, score, total_questions, correct_answers, difficulty, time_taken, answers_json, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		r.ID, r.UserID, r.ExamID, r.Score, r.TotalQuestions, r.CorrectAnswers, string(r.Difficulty), r.TimeTaken, string(answers), created.UnixMilli())
	return err
}

const selectCols = `id, user_id, exam_id, score, total_questions, correct_answers, difficulty, time_taken, answers_json, created_at`

type scanner interface{ Scan(dest ...any) error }

func scanResult(row scanner) (exam.Result, error) {
	var (
		r       exam.Result
		answers string
		created int64
	)
	if err := row.Scan(&r.ID, &r.UserID, &r.ExamID, &r.Score, &r.TotalQuestions, &r.CorrectAnswers,
		&r.Difficulty, &r.TimeTaken, &answers, &created); err != nil {
		return exam.Result{}, err
	}
	if err := json.Unmarshal([]byte(answers), &r.Answers); err != nil {
		return exam.Result{}, fmt.Errorf("result %s: answers: %w", r.ID, err)
	}
	if r.Answers == nil {
		r.Answers = []exam.AnswerDetail{}
	}
	r.Percentage = exam.Round2(r.Score)
	r.CreatedAt = time.UnixMilli(created).UTC()
	return r, nil
}

// Get returns a result only to the user who owns it.
func (s *Store) Get(ctx context.Context, userID, id string) (exam.Result, error) {
	r, err := scanResult(s.DB.QueryRowContext(ctx,
		`SELECT `+selectCols+` FROM results WHERE id=$1 AND user_id=$2`, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return exam.Result{}, ErrNotFound
	}
	return r, err
}

// List returns userID's results, newest first.
func (s *Store) List(ctx context.Context, userID string, limit, offset int) ([]exam.Result, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+selectCols+` FROM results WHERE user_id=$1
		 ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []exam.Result{}
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) Delete(ctx context.Context, userID, id string) error {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM results WHERE id=$1 AND user_id=$2`, id, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) all(ctx context.Context, userID string) ([]exam.Result, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT `+selectCols+` FROM results WHERE user_id=$1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []exam.Result
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
