package handler

import (
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"net/http"
	"strings"

	"larder/internal/apperror"
	"larder/internal/auth"
	"larder/internal/store"
)

// DemoEmail is the well-known account reused by every demo login. Its data
// is wiped and reseeded on each login, so concurrent demo sessions observe
// each other's writes.
const DemoEmail = "demo@larder.app"

type AuthHandler struct {
	users    *store.UserStore
	sessions *store.SessionStore
	demo     *store.DemoStore
	logger   *slog.Logger
}

func NewAuthHandler(us *store.UserStore, ss *store.SessionStore, ds *store.DemoStore, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{users: us, sessions: ss, demo: ds, logger: logger}
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Name = strings.TrimSpace(req.Name)
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		writeError(w, h.logger, apperror.Validation("a valid email is required"))
		return
	}
	if req.Name == "" {
		writeError(w, h.logger, apperror.Validation("name is required"))
		return
	}
	if len(req.Password) < 8 {
		writeError(w, h.logger, apperror.Validation("password must be at least 8 characters"))
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	user, err := h.users.Create(req.Email, req.Name, hash)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	session, err := h.sessions.Create(user.ID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"token": session.Token,
		"user":  user.Public(),
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	// Unknown email and wrong password produce the same response so login
	// errors do not reveal whether an account exists.
	user, err := h.users.GetByEmail(req.Email)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if user == nil || !auth.CheckPassword(user.PasswordHash, req.Password) {
		writeError(w, h.logger, apperror.Unauthorized("Invalid credentials"))
		return
	}

	session, err := h.sessions.Create(user.ID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"token": session.Token,
		"user":  user.Public(),
	})
}

// randomDemoPassword makes the demo account unguessable through the normal
// login path; demo access only ever goes through DemoLogin.
func randomDemoPassword() string {
	b := make([]byte, 16)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// Logout deletes the presented session. Idempotent: an absent or already
// deleted token still succeeds.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if token != "" {
		if err := h.sessions.DeleteByToken(token); err != nil {
			writeError(w, h.logger, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

// Me resolves the caller from their token.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	ac, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, h.logger, apperror.Unauthorized("authentication required"))
		return
	}

	user, err := h.users.GetByID(ac.UserID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if user == nil {
		writeError(w, h.logger, apperror.Unauthorized("authentication required"))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"user": user.Public()})
}

// DemoLogin signs the caller into the shared demo account. The account's
// lists, master items, tags, and shares are reset to seed data first.
func (h *AuthHandler) DemoLogin(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetByEmail(DemoEmail)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if user == nil {
		hash, err := auth.HashPassword(randomDemoPassword())
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		user, err = h.users.CreateDemo(DemoEmail, "Demo User", hash)
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
	}

	if err := h.demo.Reset(user.ID); err != nil {
		writeError(w, h.logger, err)
		return
	}

	session, err := h.sessions.Create(user.ID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"token": session.Token,
		"user":  user.Public(),
	})
}
