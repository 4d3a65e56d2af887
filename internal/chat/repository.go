package chat

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var ErrNotFound = errors.New("chat session not found")

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Message struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"timestamp"`
}

const titleRunes = 50

// Title derives a session title from the opening message.
func Title(first string) string {
	if utf8.RuneCountInString(first) <= titleRunes {
		return first
	}
	return string([]rune(first)[:titleRunes]) + "..."
}

// Repository stores sessions and their messages. Timestamps are unix
// milliseconds.
type Repository struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewRepository(db *sqlx.DB) *Repository { return &Repository{db: db, now: time.Now} }

type sessionRow struct {
	ID        string `db:"id"`
	UserID    string `db:"user_id"`
	Title     string `db:"title"`
	CreatedAt int64  `db:"created_at"`
	UpdatedAt int64  `db:"updated_at"`
}

func (r sessionRow) session() Session {
	return Session{ID: r.ID, UserID: r.UserID, Title: r.Title,
		CreatedAt: time.UnixMilli(r.CreatedAt).UTC(), UpdatedAt: time.UnixMilli(r.UpdatedAt).UTC()}
}

type messageRow struct {
	ID        string `db:"id"`
	SessionID string `db:"session_id"`
	Role      string `db:"role"`
	Content   string `db:"content"`
	CreatedAt int64  `db:"created_at"`
}

func (r messageRow) message() Message {
	return Message{ID: r.ID, SessionID: r.SessionID, Role: r.Role, Content: r.Content,
		CreatedAt: time.UnixMilli(r.CreatedAt).UTC()}
}

// Create opens a session titled after the first message.
func (r *Repository) Create(ctx context.Context, userID, firstMessage string) (Session, error) {
	now := r.now().UnixMilli()
	row := sessionRow{ID: uuid.NewString(), UserID: userID, Title: Title(firstMessage), CreatedAt: now, UpdatedAt: now}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO chat_sessions (id, user_id, title, created_at, updated_at) VALUES ($1,$2,$3,$4,$5)`,
		row.ID, row.UserID, row.Title, row.CreatedAt, row.UpdatedAt)
	if err != nil {
		return Session{}, fmt.Errorf("create session: %w", err)
	}
	return row.session(), nil
}

// Get returns the session only if userID owns it.
func (r *Repository) Get(ctx context.Context, userID, id string) (Session, error) {
	var row sessionRow
	err := r.db.GetContext(ctx, &row,
		`SELECT id, user_id, title, created_at, updated_at FROM chat_sessions WHERE id=$1 AND user_id=$2`, id, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, err
	}
	return row.session(), nil
}

// List returns userID's sessions, most recently active first.
func (r *Repository) List(ctx context.Context, userID string) ([]Session, error) {
	var rows []sessionRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT id, user_id, title, created_at, updated_at FROM chat_sessions
		 WHERE user_id=$1 ORDER BY updated_at DESC, id`, userID)
	if err != nil {
		return nil, err
	}
	out := make([]Session, len(rows))
	for i, row := range rows {
		out[i] = row.session()
	}
	return out, nil
}

// Delete removes the session and its messages.
func (r *Repository) Delete(ctx context.Context, userID, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	res, err := tx.ExecContext(ctx, `DELETE FROM chat_sessions WHERE id=$1 AND user_id=$2`, id, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM chat_messages WHERE session_id=$1`, id); err != nil {
		return err
	}
	return tx.Commit()
}

// Append stores a message and bumps the session's updated_at.
func (r *Repository) Append(ctx context.Context, sessionID, role, content string) (Message, error) {
	now := r.now().UnixMilli()
	row := messageRow{ID: uuid.NewString(), SessionID: sessionID, Role: role, Content: content, CreatedAt: now}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return Message{}, err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO chat_messages (id, session_id, role, content, created_at) VALUES ($1,$2,$3,$4,$5)`,
		row.ID, row.SessionID, row.Role, row.Content, row.CreatedAt); err != nil {
		return Message{}, fmt.Errorf("append message: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE chat_sessions SET updated_at=$1 WHERE id=$2`, now, sessionID); err != nil {
		return Message{}, err
	}
	if err := tx.Commit(); err != nil {
		return Message{}, err
	}
	return row.message(), nil
}

// Messages lists a session's messages oldest first.
func (r *Repository) Messages(ctx context.Context, sessionID string) ([]Message, error) {
	var rows []messageRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT id, session_id, role, content, created_at FROM chat_messages
		 WHERE session_id=$1 ORDER BY created_at, id`, sessionID)
	if err != nil {
		return nil, err
	}
	out := make([]Message, len(rows))
	for i, row := range rows {
		out[i] = row.message()
	}
	return out, nil
}
