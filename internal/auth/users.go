package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidUser        = errors.New("invalid user")
	ErrUserNotFound       = errors.New("user not found")
)

const (
	RoleStudent = "student"
	RoleAdmin   = "admin"

	bcryptCost        = 12
	minPasswordLength = 8
)

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`

	passwordHash string
}

type userRow struct {
	ID           string `db:"id"`
	Email        string `db:"email"`
	Name         string `db:"name"`
	PasswordHash string `db:"password_hash"`
	Role         string `db:"role"`
	CreatedAt    int64  `db:"created_at"`
}

func (r userRow) user() User {
	return User{ID: r.ID, Email: r.Email, Name: r.Name, Role: r.Role,
		CreatedAt: time.UnixMilli(r.CreatedAt).UTC(), passwordHash: r.PasswordHash}
}

// Users stores accounts with bcrypt password hashes.
type Users struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewUsers(db *sqlx.DB) *Users { return &Users{db: db, now: time.Now} }

func normalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// Register creates a student account.
func (u *Users) Register(ctx context.Context, email, name, password string) (User, error) {
	return u.create(ctx, email, name, password, RoleStudent)
}

// EnsureAdmin creates the admin account when the email is not yet taken.
func (u *Users) EnsureAdmin(ctx context.Context, email, password string) error {
	_, err := u.create(ctx, email, "Administrator", password, RoleAdmin)
	if errors.Is(err, ErrEmailTaken) {
		return nil
	}
	return err
}

func (u *Users) create(ctx context.Context, email, name, password, role string) (User, error) {
	email = normalizeEmail(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return User{}, fmt.Errorf("%w: bad email", ErrInvalidUser)
	}
	if len(password) < minPasswordLength {
		return User{}, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidUser, minPasswordLength)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return User{}, err
	}
	row := userRow{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         strings.TrimSpace(name),
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    u.now().UnixMilli(),
	}
	_, err = u.db.NamedExecContext(ctx, `
		INSERT INTO users (id, email, name, password_hash, role, created_at)
		VALUES (:id, :email, :name, :password_hash, :role, :created_at)`, row)
	if err != nil {
		if _, gerr := u.byEmail(ctx, email); gerr == nil {
			return User{}, ErrEmailTaken
		}
		return User{}, err
	}
	return row.user(), nil
}

func (u *Users) byEmail(ctx context.Context, email string) (User, error) {
	var row userRow
	err := u.db.GetContext(ctx, &row, `SELECT id, email, name, password_hash, role, created_at FROM users WHERE email=$1`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, err
	}
	return row.user(), nil
}

func (u *Users) Get(ctx context.Context, id string) (User, error) {
	var row userRow
	err := u.db.GetContext(ctx, &row, `SELECT id, email, name, password_hash, role, created_at FROM users WHERE id=$1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, err
	}
	return row.user(), nil
}

// Authenticate checks the password. Unknown emails and wrong passwords are
// indistinguishable to the caller.
func (u *Users) Authenticate(ctx context.Context, email, password string) (User, error) {
	user, err := u.byEmail(ctx, normalizeEmail(email))
	if errors.Is(err, ErrUserNotFound) {
		return User{}, ErrInvalidCredentials
	}
	if err != nil {
		return User{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.passwordHash), []byte(password)) != nil {
		return User{}, ErrInvalidCredentials
	}
	return user, nil
}

func (u *Users) ChangePassword(ctx context.Context, id, oldPassword, newPassword string) error {
	user, err := u.Get(ctx, id)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.passwordHash), []byte(oldPassword)) != nil {
		return ErrInvalidCredentials
	}
	if len(newPassword) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrInvalidUser, minPasswordLength)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return err
	}
	_, err = u.db.ExecContext(ctx, `UPDATE users SET password_hash=$1 WHERE id=$2`, string(hash), id)
	return err
}
