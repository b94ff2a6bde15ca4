package lobby

import (
	"sort"
	"time"

	"github.com/rebellion-web/app/internal/engine"
	"github.com/rebellion-web/app/internal/models"
)

// Session is one running game: the engine instance, the fixed ordered
// participant set, and the mutable watcher set. All access goes through the
// coordinator lock.
type Session struct {
	id        string
	createdAt time.Time
	roles     []string
	eng       engine.Engine

	participants []*User
	watchers     map[int64]*User
}

func newSession(id string, now time.Time, eng engine.Engine, roles []string, participants []*User) *Session {
	return &Session{
		id:           id,
		createdAt:    now,
		roles:        append([]string(nil), roles...),
		eng:          eng,
		participants: append([]*User(nil), participants...),
		watchers:     make(map[int64]*User),
	}
}

func (s *Session) isParticipant(u *User) bool {
	for _, p := range s.participants {
		if p == u {
			return true
		}
	}
	return false
}

func (s *Session) finished() bool {
	_, over := s.eng.Winner()
	return over
}

func (s *Session) addWatcher(u *User) {
	s.watchers[u.ID] = u
}

func (s *Session) removeWatcher(u *User) {
	delete(s.watchers, u.ID)
}

// audience is everyone bound to the session: participants plus watchers,
// without duplicates.
func (s *Session) audience() []*User {
	out := append([]*User(nil), s.participants...)
	for _, w := range s.watchers {
		if !s.isParticipant(w) {
			out = append(out, w)
		}
	}
	return out
}

// pureWatchers is the watcher set minus participants; participants get the
// richer private push instead.
func (s *Session) pureWatchers() []*User {
	var out []*User
	for _, w := range s.watchers {
		if !s.isParticipant(w) {
			out = append(out, w)
		}
	}
	return out
}

func (s *Session) summary() models.GameSummary {
	names := make([]string, 0, len(s.participants))
	for _, p := range s.participants {
		names = append(names, p.Username)
	}
	return models.GameSummary{ID: s.id, Usernames: names, StartTime: s.createdAt.Unix()}
}

// publicInfo assembles the state every session member may see. Player
// ordering is live players in turn order followed by eliminated players.
func (s *Session) publicInfo(revealSecrets bool) models.GamePublicInfo {
	roleTokens := s.eng.RoleTokens()
	roles := make(map[string]models.RoleInfo, len(s.roles))
	for _, r := range s.roles {
		roles[r] = models.RoleInfo{Tokens: emptyIfNil(roleTokens[r])}
	}

	playerTokens := s.eng.ParticipantTokens()
	var players []models.PlayerInfo
	for _, name := range s.eng.Participants() {
		players = append(players, s.playerInfo(name, playerTokens, revealSecrets, true))
	}
	for _, name := range s.eng.Eliminated() {
		players = append(players, s.playerInfo(name, playerTokens, revealSecrets, false))
	}

	decision := s.eng.Decision()
	makers := make([]string, 0, len(decision.Choices))
	choiceSet := make(map[string]bool)
	var choices []string
	for maker, labels := range decision.Choices {
		makers = append(makers, maker)
		for _, label := range labels {
			if !choiceSet[label] {
				choiceSet[label] = true
				choices = append(choices, label)
			}
		}
	}
	sort.Strings(makers)
	sort.Strings(choices)

	var winner *string
	if name, over := s.eng.Winner(); over {
		winner = &name
	}

	return models.GamePublicInfo{
		StartTime:       s.createdAt.Unix(),
		ID:              s.id,
		Turn:            s.eng.TurnNumber(),
		Roles:           roles,
		Players:         players,
		Winner:          winner,
		Decision:        decision.Description,
		DecisionMakers:  makers,
		DecisionChoices: choices,
	}
}

func (s *Session) playerInfo(name string, tokens map[string][]string, revealSecrets, alive bool) models.PlayerInfo {
	return models.PlayerInfo{
		Username: name,
		Coins:    s.eng.Coins(name),
		Tokens:   emptyIfNil(tokens[name]),
		Cards:    cardInfo(s.eng.Cards(name), revealSecrets),
		Alive:    alive,
	}
}

func (s *Session) privateInfo(u *User) models.GamePrivateInfo {
	return models.GamePrivateInfo{
		MyUsername: u.Username,
		MyCards:    cardInfo(s.eng.Cards(u.Username), true),
		MyChoices:  emptyIfNil(s.eng.ChoiceExplanations(u.Username)),
	}
}

// cardInfo converts engine cards to their wire form: live cards first, then
// side cards, then revealed cards. Hidden roles are nil unless
// revealSecrets.
func cardInfo(cards []engine.Card, revealSecrets bool) []models.CardInfo {
	out := make([]models.CardInfo, 0, len(cards))
	for _, state := range []engine.CardState{engine.CardLive, engine.CardSide, engine.CardRevealed} {
		for _, c := range cards {
			if c.State != state {
				continue
			}
			info := models.CardInfo{}
			if revealSecrets || c.State == engine.CardRevealed {
				role := c.Role
				info.Role = &role
			}
			if c.State == engine.CardSide {
				info.ClaimedRole = c.ClaimedRole
			}
			out = append(out, info)
		}
	}
	return out
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
