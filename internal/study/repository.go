package study

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mind-engage/studyhub/internal/exam"
)

// Repository persists study materials, flashcards and generated AI content.
type Repository struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

type materialRow struct {
	ID          string `db:"id"`
	Title       string `db:"title"`
	Content     string `db:"content"`
	Category    string `db:"category"`
	Description string `db:"description"`
	CreatedAt   int64  `db:"created_at"`
	UpdatedAt   int64  `db:"updated_at"`
}

func (r materialRow) material() Material {
	return Material{
		ID: r.ID, Title: r.Title, Content: r.Content, Category: r.Category, Description: r.Description,
		CreatedAt: time.Unix(r.CreatedAt, 0).UTC(), UpdatedAt: time.Unix(r.UpdatedAt, 0).UTC(),
	}
}

const materialCols = `id, title, content, category, description, created_at, updated_at`

// ListMaterials filters by exact category and a case-insensitive substring of
// title or content. Empty filters match everything.
func (r *Repository) ListMaterials(ctx context.Context, category, q string) ([]Material, error) {
	var (
		where []string
		args  []any
	)
	if category = strings.TrimSpace(category); category != "" {
		args = append(args, category)
		where = append(where, fmt.Sprintf("category=$%d", len(args)))
	}
	if q = strings.TrimSpace(q); q != "" {
		args = append(args, "%"+strings.ToLower(q)+"%")
		where = append(where, fmt.Sprintf("(LOWER(title) LIKE $%d OR LOWER(content) LIKE $%d)", len(args), len(args)))
	}
	query := `SELECT ` + materialCols + ` FROM study_materials`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC, id`

	var rows []materialRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list materials: %w", err)
	}
	out := make([]Material, len(rows))
	for i, row := range rows {
		out[i] = row.material()
	}
	return out, nil
}

func (r *Repository) GetMaterial(ctx context.Context, id string) (Material, error) {
	var row materialRow
	err := r.db.GetContext(ctx, &row, `SELECT `+materialCols+` FROM study_materials WHERE id=$1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Material{}, ErrNotFound
	}
	if err != nil {
		return Material{}, err
	}
	return row.material(), nil
}

// FindMaterialByTitle returns the first material with exactly this title.
func (r *Repository) FindMaterialByTitle(ctx context.Context, title string) (Material, error) {
	var row materialRow
	err := r.db.GetContext(ctx, &row,
		`SELECT `+materialCols+` FROM study_materials WHERE title=$1 ORDER BY created_at LIMIT 1`, title)
	if errors.Is(err, sql.ErrNoRows) {
		return Material{}, ErrNotFound
	}
	if err != nil {
		return Material{}, err
	}
	return row.material(), nil
}

func (r *Repository) CreateMaterial(ctx context.Context, in MaterialInput) (Material, error) {
	if err := in.Validate(); err != nil {
		return Material{}, err
	}
	now := r.now().Unix()
	row := materialRow{
		ID: uuid.NewString(), Title: strings.TrimSpace(in.Title), Content: in.Content,
		Category: strings.TrimSpace(in.Category), Description: in.Description,
		CreatedAt: now, UpdatedAt: now,
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO study_materials (`+materialCols+`) VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		row.ID, row.Title, row.Content, row.Category, row.Description, row.CreatedAt, row.UpdatedAt)
	if err != nil {
		return Material{}, fmt.Errorf("create material: %w", err)
	}
	return row.material(), nil
}

func (r *Repository) UpdateMaterial(ctx context.Context, id string, p MaterialPatch) (Material, error) {
	m, err := r.GetMaterial(ctx, id)
	if err != nil {
		return Material{}, err
	}
	if err := p.apply(&m); err != nil {
		return Material{}, err
	}
	m.UpdatedAt = time.Unix(r.now().Unix(), 0).UTC()
	_, err = r.db.ExecContext(ctx,
		`UPDATE study_materials SET title=$1, content=$2, category=$3, description=$4, updated_at=$5 WHERE id=$6`,
		m.Title, m.Content, m.Category, m.Description, m.UpdatedAt.Unix(), id)
	if err != nil {
		return Material{}, fmt.Errorf("update material: %w", err)
	}
	return m, nil
}

func (r *Repository) DeleteMaterial(ctx context.Context, id string) error {
	return r.deleteByID(ctx, "study_materials", id)
}

type flashcardRow struct {
	ID         string         `db:"id"`
	Front      string         `db:"front"`
	Back       string         `db:"back"`
	Category   string         `db:"category"`
	Difficulty string         `db:"difficulty"`
	MaterialID sql.NullString `db:"material_id"`
	CreatedAt  int64          `db:"created_at"`
}

func (r flashcardRow) flashcard() Flashcard {
	return Flashcard{
		ID: r.ID, Front: r.Front, Back: r.Back, Category: r.Category,
		Difficulty: exam.Difficulty(r.Difficulty), MaterialID: r.MaterialID.String,
		CreatedAt: time.Unix(r.CreatedAt, 0).UTC(),
	}
}

const flashcardCols = `id, front, back, category, difficulty, material_id, created_at`

func (r *Repository) ListFlashcards(ctx context.Context, category string, difficulty exam.Difficulty) ([]Flashcard, error) {
	var (
		where []string
		args  []any
	)
	if category = strings.TrimSpace(category); category != "" {
		args = append(args, category)
		where = append(where, fmt.Sprintf("category=$%d", len(args)))
	}
	if difficulty != "" {
		args = append(args, string(difficulty))
		where = append(where, fmt.Sprintf("difficulty=$%d", len(args)))
	}
	query := `SELECT ` + flashcardCols + ` FROM flashcards`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC, id`

	var rows []flashcardRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list flashcards: %w", err)
	}
	out := make([]Flashcard, len(rows))
	for i, row := range rows {
		out[i] = row.flashcard()
	}
	return out, nil
}

func (r *Repository) GetFlashcard(ctx context.Context, id string) (Flashcard, error) {
	var row flashcardRow
	err := r.db.GetContext(ctx, &row, `SELECT `+flashcardCols+` FROM flashcards WHERE id=$1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Flashcard{}, ErrNotFound
	}
	if err != nil {
		return Flashcard{}, err
	}
	return row.flashcard(), nil
}

func (r *Repository) CreateFlashcard(ctx context.Context, in FlashcardInput) (Flashcard, error) {
	cards, err := r.CreateFlashcards(ctx, []FlashcardInput{in})
	if err != nil {
		return Flashcard{}, err
	}
	return cards[0], nil
}

// CreateFlashcards inserts every card or none.
func (r *Repository) CreateFlashcards(ctx context.Context, ins []FlashcardInput) ([]Flashcard, error) {
	rows := make([]flashcardRow, 0, len(ins))
	now := r.now().Unix()
	for i, in := range ins {
		n, err := in.Normalize()
		if err != nil {
			return nil, fmt.Errorf("card %d: %w", i, err)
		}
		rows = append(rows, flashcardRow{
			ID: uuid.NewString(), Front: n.Front, Back: n.Back, Category: n.Category,
			Difficulty: string(n.Difficulty), MaterialID: sql.NullString{String: n.MaterialID, Valid: n.MaterialID != ""},
			CreatedAt: now,
		})
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()
	out := make([]Flashcard, 0, len(rows))
	for _, row := range rows {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO flashcards (`+flashcardCols+`) VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			row.ID, row.Front, row.Back, row.Category, row.Difficulty, row.MaterialID, row.CreatedAt); err != nil {
			return nil, fmt.Errorf("create flashcard: %w", err)
		}
		out = append(out, row.flashcard())
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repository) DeleteFlashcard(ctx context.Context, id string) error {
	return r.deleteByID(ctx, "flashcards", id)
}

func (r *Repository) deleteByID(ctx context.Context, table, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Generated is one AI generation kept for audit and reuse.
type Generated struct {
	ID          string            `json:"id"`
	ContentType string            `json:"content_type"` // summary|quiz|flashcards|explanation
	Source      string            `json:"source"`
	InputText   string            `json:"input_text"`
	Output      json.RawMessage   `json:"output"`
	Metadata    map[string]string `json:"metadata"`
	Model       string            `json:"model"`
	CreatedAt   time.Time         `json:"created_at"`
}

// GeneratedInput describes a generation to store. Output is marshalled as
// JSON; Metadata holds request parameters such as difficulty.
type GeneratedInput struct {
	ContentType string
	Source      string
	Input       string
	Output      any
	Metadata    map[string]string
	Model       string
}

type generatedRow struct {
	ID          string `db:"id"`
	ContentType string `db:"content_type"`
	Source      string `db:"source"`
	InputText   string `db:"input_text"`
	OutputJSON  string `db:"output_json"`
	MetaJSON    string `db:"metadata_json"`
	Model       string `db:"model"`
	CreatedAt   int64  `db:"created_at"`
}

func (r generatedRow) generated() Generated {
	g := Generated{
		ID: r.ID, ContentType: r.ContentType, Source: r.Source, InputText: r.InputText,
		Output: json.RawMessage(r.OutputJSON), Metadata: map[string]string{}, Model: r.Model,
		CreatedAt: time.Unix(r.CreatedAt, 0).UTC(),
	}
	if err := json.Unmarshal([]byte(r.MetaJSON), &g.Metadata); err != nil {
		g.Metadata = map[string]string{}
	}
	return g
}

// SaveGenerated stores one generation in the ai_content table.
func (r *Repository) SaveGenerated(ctx context.Context, in GeneratedInput) (string, error) {
	out, err := json.Marshal(in.Output)
	if err != nil {
		return "", fmt.Errorf("marshal %s output: %w", in.ContentType, err)
	}
	meta := in.Metadata
	if meta == nil {
		meta = map[string]string{}
	}
	metaJSON, _ := json.Marshal(meta)
	id := uuid.NewString()
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO ai_content (id, content_type, source, input_text, output_json, metadata_json, model, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		id, in.ContentType, in.Source, in.Input, string(out), string(metaJSON), in.Model, r.now().Unix())
	if err != nil {
		return "", fmt.Errorf("save %s: %w", in.ContentType, err)
	}
	return id, nil
}

// RecentGenerated lists the newest generations, optionally of one
// contentType.
func (r *Repository) RecentGenerated(ctx context.Context, contentType string, limit int) ([]Generated, error) {
	if limit <= 0 {
		limit = 20
	}
	var rows []generatedRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT id, content_type, source, input_text, output_json, metadata_json, model, created_at
		 FROM ai_content WHERE ($1 = '' OR content_type=$1) ORDER BY created_at DESC, id LIMIT $2`, contentType, limit)
	if err != nil {
		return nil, err
	}
	out := make([]Generated, len(rows))
	for i, row := range rows {
		out[i] = row.generated()
	}
	return out, nil
}
