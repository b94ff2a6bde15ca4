// Package demo is a minimal engine implementation: players take turns, may
// collect coins or strike an opponent's card, and the last player with a
// live card wins. It stands in for the real rules engine so the server is
// runnable end to end; it makes no attempt at interesting gameplay.
package demo

import (
	"fmt"

	"github.com/rebellion-web/app/internal/engine"
)

const cardsPerPlayer = 2

// Factory creates demo games over a fixed role catalog.
type Factory struct {
	limits engine.Limits
	roles  map[string]bool
}

// NewFactory builds a Factory from the catalog role names and limits.
func NewFactory(roles []string, limits engine.Limits) *Factory {
	valid := make(map[string]bool, len(roles))
	for _, r := range roles {
		valid[r] = true
	}
	return &Factory{limits: limits, roles: valid}
}

// New creates an unstarted game.
func (f *Factory) New(initiator string) engine.Engine {
	return &game{initiator: initiator}
}

// Limits returns the configured group constraints.
func (f *Factory) Limits() engine.Limits {
	return f.limits
}

// ValidRole reports whether role is in the catalog.
func (f *Factory) ValidRole(role string) bool {
	return f.roles[role]
}

type player struct {
	name  string
	cards []engine.Card
	coins int
}

func (p *player) alive() bool {
	for _, c := range p.cards {
		if c.State == engine.CardLive {
			return true
		}
	}
	return false
}

type game struct {
	initiator  string
	roles      []string
	players    []*player
	eliminated []string
	started    bool
	turn       int
	current    int
	winner     string
	messages   []string
}

func (g *game) AddParticipant(name string) {
	g.players = append(g.players, &player{name: name})
}

func (g *game) SetRoles(roles []string) {
	g.roles = append([]string(nil), roles...)
}

func (g *game) Start() error {
	if g.started {
		return fmt.Errorf("game already started")
	}
	if len(g.roles) == 0 {
		return fmt.Errorf("no roles assigned")
	}
	if len(g.players) < 2 {
		return fmt.Errorf("need at least 2 players, have %d", len(g.players))
	}

	// Deal round-robin from the role set.
	deal := 0
	for _, p := range g.players {
		p.coins = 2
		for i := 0; i < cardsPerPlayer; i++ {
			p.cards = append(p.cards, engine.Card{Role: g.roles[deal%len(g.roles)], State: engine.CardLive})
			deal++
		}
	}

	g.started = true
	g.turn = 1
	g.messages = append(g.messages, fmt.Sprintf("game started by %s", g.initiator))
	return nil
}

func (g *game) TakeAction(actor, action string, args []engine.Arg) error {
	if !g.started {
		return fmt.Errorf("game has not started")
	}
	if g.winner != "" {
		return fmt.Errorf("game is over")
	}
	current := g.players[g.current]
	if current.name != actor {
		return fmt.Errorf("it is not %s's turn", actor)
	}

	switch action {
	case "income":
		current.coins++
		g.messages = append(g.messages, fmt.Sprintf("%s takes income", actor))
	case "strike":
		target, err := g.targetOf(args)
		if err != nil {
			return err
		}
		if target == current {
			return fmt.Errorf("cannot strike yourself")
		}
		g.reveal(target)
		g.messages = append(g.messages, fmt.Sprintf("%s strikes %s", actor, target.name))
		if !target.alive() {
			g.eliminated = append(g.eliminated, target.name)
			g.messages = append(g.messages, fmt.Sprintf("%s is eliminated", target.name))
		}
	default:
		return fmt.Errorf("unknown action %q", action)
	}

	g.turn++
	g.advance()
	g.checkWinner()
	return nil
}

func (g *game) targetOf(args []engine.Arg) (*player, error) {
	if len(args) != 1 || args[0].Kind != engine.ArgParticipant {
		return nil, fmt.Errorf("strike requires a target player")
	}
	for _, p := range g.players {
		if p.name == args[0].Value {
			if !p.alive() {
				return nil, fmt.Errorf("%s is already out", p.name)
			}
			return p, nil
		}
	}
	return nil, fmt.Errorf("%s is not in this game", args[0].Value)
}

func (g *game) reveal(p *player) {
	for i := range p.cards {
		if p.cards[i].State == engine.CardLive {
			p.cards[i].State = engine.CardRevealed
			return
		}
	}
}

func (g *game) advance() {
	for i := 0; i < len(g.players); i++ {
		g.current = (g.current + 1) % len(g.players)
		if g.players[g.current].alive() {
			return
		}
	}
}

func (g *game) checkWinner() {
	var last *player
	for _, p := range g.players {
		if p.alive() {
			if last != nil {
				return
			}
			last = p
		}
	}
	if last != nil {
		g.winner = last.name
		g.messages = append(g.messages, fmt.Sprintf("%s wins", last.name))
	}
}

func (g *game) Participants() []string {
	var names []string
	for _, p := range g.players {
		if p.alive() {
			names = append(names, p.name)
		}
	}
	return names
}

func (g *game) Eliminated() []string {
	return append([]string(nil), g.eliminated...)
}

func (g *game) Cards(name string) []engine.Card {
	for _, p := range g.players {
		if p.name == name {
			return append([]engine.Card(nil), p.cards...)
		}
	}
	return nil
}

func (g *game) Coins(name string) int {
	for _, p := range g.players {
		if p.name == name {
			return p.coins
		}
	}
	return 0
}

func (g *game) TurnNumber() int {
	return g.turn
}

func (g *game) Decision() engine.Decision {
	if !g.started || g.winner != "" {
		return engine.Decision{}
	}
	current := g.players[g.current]
	return engine.Decision{
		Description: fmt.Sprintf("%s to act", current.name),
		Choices:     map[string][]string{current.name: {"income", "strike"}},
	}
}

func (g *game) ChoiceExplanations(actor string) []string {
	if !g.started || g.winner != "" || g.players[g.current].name != actor {
		return nil
	}
	return []string{
		"income: gain one coin",
		"strike: reveal one of a target player's cards",
	}
}

func (g *game) Winner() (string, bool) {
	return g.winner, g.winner != ""
}

func (g *game) RoleTokens() map[string][]string {
	return nil
}

func (g *game) ParticipantTokens() map[string][]string {
	return nil
}

func (g *game) Messages() []string {
	msgs := g.messages
	g.messages = nil
	return msgs
}
