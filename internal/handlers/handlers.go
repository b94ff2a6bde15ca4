// Package handlers is the HTTP boundary: session-cookie authentication,
// the JSON lobby/game endpoints, and the SSE push stream. All lobby logic
// lives in the lobby package; handlers translate requests and error
// classes, nothing more.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/rebellion-web/app/internal/lobby"
)

// Handler bundles the dependencies of every endpoint.
type Handler struct {
	lobby     *lobby.Coordinator
	sessions  *Sessions
	log       *slog.Logger
	heartbeat time.Duration
}

// New creates a Handler.
func New(coord *lobby.Coordinator, sessions *Sessions, log *slog.Logger, heartbeat time.Duration) *Handler {
	if log == nil {
		log = slog.Default()
	}
	if heartbeat <= 0 {
		heartbeat = 25 * time.Second
	}
	return &Handler{lobby: coord, sessions: sessions, log: log, heartbeat: heartbeat}
}

// Routes assembles the router.
func (h *Handler) Routes(allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
	}))

	r.Post("/register", h.register)
	r.Post("/login", h.login)
	r.Post("/logout", h.logout)

	r.Group(func(r chi.Router) {
		r.Use(h.requireUser)

		r.Get("/games.json", h.lobbySnapshot)
		r.Post("/proposals", h.createProposal)
		r.Post("/proposals/accept", h.acceptProposal)
		r.Post("/proposals/decline", h.declineProposal)

		r.Get("/game.json", h.gameSnapshot)
		r.Post("/game/choice", h.gameChoice)
		r.Post("/game/watch", h.watchGame)
		r.Post("/game/leave", h.leaveGame)

		r.Post("/chat", h.chat)
		r.Get("/stream", h.stream)
	})

	return r
}

type ctxKey int

const userKey ctxKey = 0

// requireUser binds the session cookie to a lobby user and puts it on the
// request context.
func (h *Handler) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := h.currentUser(r)
		if user == nil {
			respondError(w, http.StatusUnauthorized, "not logged in")
			return
		}
		h.lobby.Touch(user)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, user)))
	})
}

func (h *Handler) currentUser(r *http.Request) *lobby.User {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return nil
	}
	userID, ok := h.sessions.UserID(cookie.Value)
	if !ok {
		return nil
	}
	return h.lobby.UserByID(userID)
}

func userFrom(r *http.Request) *lobby.User {
	user, _ := r.Context().Value(userKey).(*lobby.User)
	return user
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

func respondError(w http.ResponseWriter, status int, reason string) {
	respondJSON(w, status, map[string]string{"error": reason})
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// lobbyError maps lobby error classes onto HTTP statuses: unknown targets
// to 404, contract violations to 500, everything else (state conflicts and
// engine refusals) to 400 with the reason verbatim.
func (h *Handler) lobbyError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, lobby.ErrNoSuchSession):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, lobby.ErrNotInProposal):
		h.log.Error("contract violation reached the request flow", "err", err)
		respondError(w, http.StatusInternalServerError, "internal error")
	default:
		respondError(w, http.StatusBadRequest, err.Error())
	}
}
