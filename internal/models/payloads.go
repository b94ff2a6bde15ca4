package models

// Payload structs exchanged over the JSON/SSE boundary. Field names follow
// the event consumers, so the JSON tags are the contract here.

// UserInfo is one row of a users.update broadcast.
type UserInfo struct {
	Username   string `json:"username"`
	InProposal bool   `json:"in_proposal"`
	InGame     bool   `json:"in_game"`
}

// GameSummary is the lobby-facing view of a running game.
type GameSummary struct {
	ID        string   `json:"id"`
	Usernames []string `json:"usernames"`
	StartTime int64    `json:"start_time"`
}

// ProposalInfo is the snapshot pushed on proposal.new / proposal.update.
type ProposalInfo struct {
	Initiator string           `json:"initiator"`
	Players   []string         `json:"players"`
	Accepted  map[string]bool  `json:"accepted"`
	Roles     []string         `json:"roles"`
	Declines  map[string]int64 `json:"declines,omitempty"`
}

// ChatMessage is the payload for chat.lobby, chat.game and game.message.
type ChatMessage struct {
	User    string `json:"user,omitempty"`
	Message string `json:"message"`
	Time    int64  `json:"time"`
}

// CardInfo describes one card. Role is nil while the card is hidden from
// the viewer.
type CardInfo struct {
	Role        *string `json:"role"`
	ClaimedRole string  `json:"claimed_role,omitempty"`
}

// PlayerInfo is one entry of the ordered player list in a game update.
type PlayerInfo struct {
	Username string     `json:"username"`
	Coins    int        `json:"coins"`
	Tokens   []string   `json:"tokens"`
	Cards    []CardInfo `json:"cards"`
	Alive    bool       `json:"alive"`
}

// RoleInfo carries the per-role token metadata.
type RoleInfo struct {
	Tokens []string `json:"tokens"`
}

// GamePublicInfo is the full game state visible to everyone bound to the
// game. Ordering of Players is significant: live players first, in turn
// order, then eliminated players.
type GamePublicInfo struct {
	StartTime       int64               `json:"start_time"`
	ID              string              `json:"id"`
	Turn            int                 `json:"turn"`
	Roles           map[string]RoleInfo `json:"roles"`
	Players         []PlayerInfo        `json:"players"`
	Winner          *string             `json:"winner"`
	Decision        string              `json:"decision"`
	DecisionMakers  []string            `json:"decision_makers"`
	DecisionChoices []string            `json:"decision_choices"`
	Time            int64               `json:"time,omitempty"`
}

// GamePrivateInfo is the slice of state only its owner may see.
type GamePrivateInfo struct {
	MyUsername string     `json:"my_username"`
	MyCards    []CardInfo `json:"my_cards"`
	MyChoices  []string   `json:"my_choices"`
}

// GameFullInfo merges public and private views for a participant push.
type GameFullInfo struct {
	GamePublicInfo
	GamePrivateInfo
}

// LobbySnapshot answers GET /games.json.
type LobbySnapshot struct {
	Username string        `json:"username"`
	Games    []GameSummary `json:"games"`
	Users    []UserInfo    `json:"users"`
	Proposal *ProposalInfo `json:"proposal"`
}

// ChoiceArg is one argument of a game action request. Type is either
// "player" or "role".
type ChoiceArg struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}
