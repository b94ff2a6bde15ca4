// Package engine defines the contract between the lobby coordinator and the
// external rules engine. The coordinator never looks inside an engine: it
// adds participants, starts it, forwards actions, and reads the query
// surface back out for state pushes.
package engine

// ArgKind discriminates action argument types.
type ArgKind int

const (
	// ArgParticipant references another participant by name. The
	// coordinator resolves it against the user registry before handing it
	// to the engine.
	ArgParticipant ArgKind = iota
	// ArgRole is a role token.
	ArgRole
)

// Arg is one argument of a game action.
type Arg struct {
	Kind  ArgKind
	Value string
}

// CardState describes how visible a card is.
type CardState int

const (
	// CardLive is an in-play card, hidden from everyone but its owner.
	CardLive CardState = iota
	// CardSide is out of the current hand but not revealed; carries a
	// claimed role.
	CardSide
	// CardRevealed is face up for everyone.
	CardRevealed
)

// Card is one card held by a participant.
type Card struct {
	Role        string
	State       CardState
	ClaimedRole string
}

// Decision describes what the game is waiting on: a human-readable
// description and, per decision maker, the labels of their legal choices.
type Decision struct {
	Description string
	Choices     map[string][]string
}

// Engine is one running game. Implementations need not be safe for
// concurrent use: the coordinator serializes all calls.
type Engine interface {
	// AddParticipant registers a participant. Must be called before Start.
	AddParticipant(name string)
	// SetRoles fixes the role set for the game. Must be called before Start.
	SetRoles(roles []string)
	// Start begins the game. A non-nil error carries the refusal reason
	// and leaves the engine unstarted.
	Start() error

	// TakeAction applies one action by actor. A non-nil error carries the
	// rejection reason and leaves the game state unchanged.
	TakeAction(actor, action string, args []Arg) error

	// Participants returns live participants in turn order.
	Participants() []string
	// Eliminated returns eliminated participants in elimination order.
	Eliminated() []string
	// Cards returns name's cards. The caller decides what to hide.
	Cards(name string) []Card
	// Coins returns name's coin count.
	Coins(name string) int
	// TurnNumber returns the current turn, starting at 1.
	TurnNumber() int
	// Decision describes the pending decision and the legal choices per
	// decision maker.
	Decision() Decision
	// ChoiceExplanations returns human-readable explanations of actor's
	// current legal choices, or nil if actor has none.
	ChoiceExplanations(actor string) []string
	// Winner returns the winner's name once the game is over.
	Winner() (string, bool)
	// RoleTokens returns visible token metadata per role.
	RoleTokens() map[string][]string
	// ParticipantTokens returns visible token metadata per participant.
	ParticipantTokens() map[string][]string
	// Messages drains narration produced since the last call.
	Messages() []string
}

// Limits are the engine-mandated group constraints.
type Limits struct {
	MinPlayers   int
	MaxPlayers   int
	RolesPerGame int
}

// Factory creates engines and answers the static questions the lobby asks
// before one exists.
type Factory interface {
	// New creates an unstarted engine attributed to the initiator.
	New(initiator string) Engine
	// Limits returns the group-size and role-count constraints.
	Limits() Limits
	// ValidRole reports whether role is part of the catalog.
	ValidRole(role string) bool
}
