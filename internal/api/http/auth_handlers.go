package http

import (
	"context"
	"net/http"

	"github.com/mind-engage/studyhub/internal/auth"
	authmw "github.com/mind-engage/studyhub/internal/auth/middleware"
	"github.com/mind-engage/studyhub/internal/rbac"
)

type UserStore interface {
	Register(ctx context.Context, email, name, password string) (auth.User, error)
	Authenticate(ctx context.Context, email, password string) (auth.User, error)
	Get(ctx context.Context, id string) (auth.User, error)
	ChangePassword(ctx context.Context, id, oldPassword, newPassword string) error
}

type tokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresIn   int       `json:"expires_in"`
	User        auth.User `json:"user"`
}

func issue(w http.ResponseWriter, a *authmw.AuthService, u auth.User, status int) {
	tok, err := a.IssueJWT(u.ID, u.Role)
	if err != nil {
		http.Error(w, "issue token", http.StatusInternalServerError)
		return
	}
	writeJSON(w, status, tokenResponse{
		AccessToken: tok,
		TokenType:   "bearer",
		ExpiresIn:   int(a.TTL().Seconds()),
		User:        u,
	})
}

// POST /api/auth/register {"email","name","password"}
func RegisterHandler(users UserStore, a *authmw.AuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email    string `json:"email"`
			Name     string `json:"name"`
			Password string `json:"password"`
		}
		if !decode(w, r, &req) {
			return
		}
		u, err := users.Register(r.Context(), req.Email, req.Name, req.Password)
		if err != nil {
			fail(w, err)
			return
		}
		issue(w, a, u, http.StatusCreated)
	}
}

// POST /api/auth/login {"email","password"}
func LoginHandler(users UserStore, a *authmw.AuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if !decode(w, r, &req) {
			return
		}
		u, err := users.Authenticate(r.Context(), req.Email, req.Password)
		if err != nil {
			fail(w, err)
			return
		}
		issue(w, a, u, http.StatusOK)
	}
}

func MeHandler(users UserStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := users.Get(r.Context(), authmw.SubjectFromContext(r.Context()))
		if err != nil {
			fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, struct {
			auth.User
			Permissions []string `json:"permissions"`
		}{u, rbac.Default().Permissions(u.Role)})
	}
}

func ChangePasswordHandler(users UserStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			OldPassword string `json:"old_password"`
			NewPassword string `json:"new_password"`
		}
		if !decode(w, r, &req) {
			return
		}
		if req.NewPassword == "" {
			http.Error(w, "new password required", http.StatusBadRequest)
			return
		}
		err := users.ChangePassword(r.Context(), authmw.SubjectFromContext(r.Context()), req.OldPassword, req.NewPassword)
		if err != nil {
			fail(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
