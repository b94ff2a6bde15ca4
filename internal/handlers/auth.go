package handlers

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rebellion-web/app/internal/lobby"
)

const sessionCookieName = "session_token"

// Sessions maps session tokens to user ids. In-memory, like every other
// registry: a restart logs everyone out.
type Sessions struct {
	mu     sync.Mutex
	tokens map[string]int64
}

// NewSessions creates an empty session store.
func NewSessions() *Sessions {
	return &Sessions{tokens: make(map[string]int64)}
}

// Create mints a token bound to userID.
func (s *Sessions) Create(userID int64) string {
	token := uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token] = userID
	return token
}

// UserID resolves a token.
func (s *Sessions) UserID(token string) (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.tokens[token]
	return id, ok
}

// Delete forgets a token.
func (s *Sessions) Delete(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, token)
}

// register handles the registration form: username, password,
// confirm_password.
func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respondError(w, http.StatusBadRequest, "error parsing form")
		return
	}

	username := r.FormValue("username")
	password := r.FormValue("password")
	if password == "" {
		respondError(w, http.StatusBadRequest, "password is required")
		return
	}
	if password != r.FormValue("confirm_password") {
		respondError(w, http.StatusBadRequest, "password and confirmation did not match")
		return
	}

	user, err := h.lobby.Register(username, password)
	if err != nil {
		switch {
		case errors.Is(err, lobby.ErrInvalidUsername), errors.Is(err, lobby.ErrUsernameTaken):
			respondError(w, http.StatusBadRequest, err.Error())
		default:
			h.log.Error("register failed", "err", err)
			respondError(w, http.StatusInternalServerError, "could not create user")
		}
		return
	}

	h.startSession(w, r, user)
	respondJSON(w, http.StatusOK, map[string]string{"username": user.Username})
}

// login handles the login form: username, password.
func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respondError(w, http.StatusBadRequest, "error parsing form")
		return
	}

	user, err := h.lobby.Authenticate(r.FormValue("username"), r.FormValue("password"))
	if err != nil {
		switch {
		case errors.Is(err, lobby.ErrNoSuchUser), errors.Is(err, lobby.ErrBadCredential):
			respondError(w, http.StatusUnauthorized, err.Error())
		default:
			h.log.Error("login failed", "err", err)
			respondError(w, http.StatusInternalServerError, "could not log in")
		}
		return
	}

	h.startSession(w, r, user)
	respondJSON(w, http.StatusOK, map[string]string{"username": user.Username})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		h.sessions.Delete(cookie.Value)
		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookieName,
			Value:    "",
			Path:     "/",
			Expires:  time.Unix(0, 0),
			HttpOnly: true,
			Secure:   r.TLS != nil,
			SameSite: http.SameSiteLaxMode,
		})
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) startSession(w http.ResponseWriter, r *http.Request, user *lobby.User) {
	token := h.sessions.Create(user.ID)
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(24 * time.Hour),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}
