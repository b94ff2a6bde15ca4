package handlers

import (
	"net/http"
)

// lobbySnapshot answers GET /games.json with the caller's lobby view.
func (h *Handler) lobbySnapshot(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.lobby.LobbySnapshot(userFrom(r)))
}

type proposalRequest struct {
	Users []string `json:"users"`
	Roles []string `json:"roles"`
}

// createProposal handles POST /proposals. Ineligible compositions are
// dropped without a distinct error, so success and no-op look the same.
func (h *Handler) createProposal(w http.ResponseWriter, r *http.Request) {
	var req proposalRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.lobby.Propose(userFrom(r), req.Users, req.Roles); err != nil {
		h.lobbyError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) acceptProposal(w http.ResponseWriter, r *http.Request) {
	if err := h.lobby.Accept(userFrom(r)); err != nil {
		h.lobbyError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) declineProposal(w http.ResponseWriter, r *http.Request) {
	if err := h.lobby.Decline(userFrom(r)); err != nil {
		h.lobbyError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type chatRequest struct {
	Message string `json:"message"`
}

// chat routes a message to the sender's game audience or, when unbound, to
// the whole lobby.
func (h *Handler) chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.lobby.Chat(userFrom(r), req.Message); err != nil {
		h.lobbyError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
