package questionbank

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/mind-engage/studyhub/internal/exam"
)

// SQLSource keeps the catalogue in the questions table.
type SQLSource struct {
	DB *sql.DB
}

func NewSQLSource(db *sql.DB) *SQLSource { return &SQLSource{DB: db} }

func (s *SQLSource) Name() string { return "database" }

func (s *SQLSource) Load(ctx context.Context) ([]exam.Question, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, question, options_json, correct_answer, explanation, difficulty, topic, question_type
		FROM questions ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []exam.Question
	for rows.Next() {
		var (
			q       exam.Question
			optsRaw string
		)
		if err := rows.Scan(&q.ID, &q.Text, &optsRaw, &q.CorrectAnswer, &q.Explanation, &q.Difficulty, &q.Topic, &q.Type); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(optsRaw), &q.Options); err != nil {
			return nil, fmt.Errorf("question %s: options: %w", q.ID, err)
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

// Upsert validates and writes questions in one transaction, replacing rows
// with the same id.
func (s *SQLSource) Upsert(ctx context.Context, qs []exam.Question) error {
	_, err := s.write(ctx, qs, `ON CONFLICT (id) DO UPDATE SET
	  question=excluded.question, options_json=excluded.options_json,
	  correct_answer=excluded.correct_answer, explanation=excluded.explanation,
	  difficulty=excluded.difficulty, topic=excluded.topic, question_type=excluded.question_type`)
	return err
}

// EnsureSeed inserts the built-in questions whose ids are missing from the
// table, so questions saved later add to the catalogue instead of replacing
// it. Existing rows are left untouched. It returns the number inserted.
func (s *SQLSource) EnsureSeed(ctx context.Context) (int, error) {
	return s.write(ctx, Seed(), `ON CONFLICT (id) DO NOTHING`)
}

func (s *SQLSource) write(ctx context.Context, qs []exam.Question, onConflict string) (int, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	n := 0
	for _, q := range qs {
		nq, err := exam.NewQuestion(q)
		if err != nil {
			return 0, err
		}
		opts, _ := json.Marshal(nq.Options)
		res, err := tx.ExecContext(ctx, `
			INSERT INTO questions (id, question, options_json, correct_answer, explanation, difficulty, topic, question_type)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
			`+onConflict,
			nq.ID, nq.Text, string(opts), nq.CorrectAnswer, nq.Explanation, string(nq.Difficulty), nq.Topic, string(nq.Type),
		)
		if err != nil {
			return 0, fmt.Errorf("write %s: %w", nq.ID, err)
		}
		if k, _ := res.RowsAffected(); k > 0 {
			n++
		}
	}
	return n, tx.Commit()
}
