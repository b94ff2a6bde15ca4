package handlers

import (
	"errors"
	"net/http"

	"github.com/rebellion-web/app/internal/lobby"
	"github.com/rebellion-web/app/internal/models"
)

// gameSnapshot answers GET /game.json. Participants get the private view
// merged in; watchers get public state only; users without a game get an
// empty object.
func (h *Handler) gameSnapshot(w http.ResponseWriter, r *http.Request) {
	pub, priv, err := h.lobby.GameSnapshot(userFrom(r))
	if errors.Is(err, lobby.ErrNoSession) {
		respondJSON(w, http.StatusOK, map[string]any{})
		return
	}
	if err != nil {
		h.lobbyError(w, err)
		return
	}
	if priv == nil {
		respondJSON(w, http.StatusOK, pub)
		return
	}
	respondJSON(w, http.StatusOK, models.GameFullInfo{GamePublicInfo: pub, GamePrivateInfo: *priv})
}

type choiceRequest struct {
	Choice string             `json:"choice"`
	Args   []models.ChoiceArg `json:"args"`
}

// gameChoice handles POST /game/choice: one engine action. Refusals come
// back as 400 with the engine's reason.
func (h *Handler) gameChoice(w http.ResponseWriter, r *http.Request) {
	var req choiceRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.lobby.TakeAction(userFrom(r), req.Choice, req.Args); err != nil {
		h.lobbyError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type watchRequest struct {
	GameID string `json:"game_id"`
}

func (h *Handler) watchGame(w http.ResponseWriter, r *http.Request) {
	var req watchRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.lobby.Watch(userFrom(r), req.GameID); err != nil {
		h.lobbyError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) leaveGame(w http.ResponseWriter, r *http.Request) {
	if err := h.lobby.Leave(userFrom(r)); err != nil {
		h.lobbyError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
