package lobby

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/rebellion-web/app/internal/database"
	"github.com/rebellion-web/app/internal/engine"
)

// fakeFactory builds scriptable engines for coordinator tests.
type fakeFactory struct {
	limits   engine.Limits
	startErr error
	created  []*fakeEngine
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{limits: engine.Limits{MinPlayers: 2, MaxPlayers: 6, RolesPerGame: 2}}
}

func (f *fakeFactory) New(initiator string) engine.Engine {
	e := &fakeEngine{initiator: initiator, startErr: f.startErr, turn: 1}
	f.created = append(f.created, e)
	return e
}

func (f *fakeFactory) Limits() engine.Limits { return f.limits }

func (f *fakeFactory) ValidRole(role string) bool {
	return role != "" && role != "bogus"
}

// fakeEngine records calls; tests mutate eliminated/winner/takeErr between
// actions to script outcomes.
type fakeEngine struct {
	initiator    string
	roles        []string
	participants []string
	started      bool
	startErr     error

	takeErr    error
	actions    []string
	eliminated []string
	winner     string
	turn       int
	messages   []string
}

func (e *fakeEngine) AddParticipant(name string) { e.participants = append(e.participants, name) }
func (e *fakeEngine) SetRoles(roles []string)    { e.roles = roles }

func (e *fakeEngine) Start() error {
	if e.startErr != nil {
		return e.startErr
	}
	e.started = true
	return nil
}

func (e *fakeEngine) TakeAction(actor, action string, args []engine.Arg) error {
	if e.takeErr != nil {
		return e.takeErr
	}
	e.actions = append(e.actions, actor+":"+action)
	e.turn++
	return nil
}

func (e *fakeEngine) Participants() []string {
	var live []string
	for _, p := range e.participants {
		if !contains(e.eliminated, p) {
			live = append(live, p)
		}
	}
	return live
}

func (e *fakeEngine) Eliminated() []string { return e.eliminated }

func (e *fakeEngine) Cards(name string) []engine.Card {
	return []engine.Card{{Role: "spy", State: engine.CardLive}}
}

func (e *fakeEngine) Coins(name string) int { return 2 }
func (e *fakeEngine) TurnNumber() int       { return e.turn }

func (e *fakeEngine) Decision() engine.Decision {
	if len(e.participants) == 0 {
		return engine.Decision{}
	}
	first := e.participants[0]
	return engine.Decision{Description: first + " to act", Choices: map[string][]string{first: {"act"}}}
}

func (e *fakeEngine) ChoiceExplanations(actor string) []string { return nil }

func (e *fakeEngine) Winner() (string, bool) { return e.winner, e.winner != "" }

func (e *fakeEngine) RoleTokens() map[string][]string        { return nil }
func (e *fakeEngine) ParticipantTokens() map[string][]string { return nil }

func (e *fakeEngine) Messages() []string {
	msgs := e.messages
	e.messages = nil
	return msgs
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// newTestLobby builds a coordinator over an in-memory account store and a
// fake engine factory.
func newTestLobby(t *testing.T) (*Coordinator, *fakeFactory) {
	t.Helper()

	store, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("Failed to open in-memory store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	factory := newFakeFactory()
	coord := New(Options{
		Store:   store,
		Engines: factory,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		Clock:   func() time.Time { return time.Unix(1700000000, 0) },
	})
	return coord, factory
}

func mustRegister(t *testing.T, c *Coordinator, username string) *User {
	t.Helper()
	u, err := c.Register(username, "password123")
	if err != nil {
		t.Fatalf("Register(%q) error = %v", username, err)
	}
	return u
}

// drain empties a channel's pending events without blocking.
func drain(ch *EventChannel) []Event {
	var evs []Event
	for {
		select {
		case ev, ok := <-ch.Events():
			if !ok {
				return evs
			}
			evs = append(evs, ev)
		default:
			return evs
		}
	}
}

func typesOf(evs []Event) []EventType {
	out := make([]EventType, 0, len(evs))
	for _, ev := range evs {
		out = append(out, ev.Type)
	}
	return out
}

func hasEvent(evs []Event, t EventType) bool {
	for _, ev := range evs {
		if ev.Type == t {
			return true
		}
	}
	return false
}
