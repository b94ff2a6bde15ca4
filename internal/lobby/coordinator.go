// Package lobby implements the multiplayer lobby core: the user registry,
// the proposal protocol, the session registry with watchers, and event
// fan-out over per-user push channels. A single mutex on the Coordinator
// serializes every mutation; event delivery is non-blocking, so a slow
// client can never stall a request.
package lobby

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rebellion-web/app/internal/database"
	"github.com/rebellion-web/app/internal/engine"
	"github.com/rebellion-web/app/internal/models"
)

var (
	// ErrInvalidUsername rejects blank or over-long usernames.
	ErrInvalidUsername = errors.New("username must be non-blank and at most 32 characters")
	// ErrUsernameTaken rejects a duplicate (case-insensitive) username.
	ErrUsernameTaken = errors.New("username is taken")
	// ErrNoSuchUser means no account matches the username.
	ErrNoSuchUser = errors.New("no such user")
	// ErrBadCredential means the password did not match.
	ErrBadCredential = errors.New("incorrect password")
	// ErrAlreadyBusy rejects proposing or watching while bound to a game
	// or proposal.
	ErrAlreadyBusy = errors.New("finish your game or proposal first")
	// ErrNoProposal means the user has no active proposal.
	ErrNoProposal = errors.New("no proposal")
	// ErrNoSession means the user has no active game.
	ErrNoSession = errors.New("no game")
	// ErrNoSuchSession means the requested game id is unknown or over.
	ErrNoSuchSession = errors.New("no such game")
	// ErrLeaveInProgress rejects a participant leaving an unfinished game.
	ErrLeaveInProgress = errors.New("cannot leave game in progress")
	// ErrSpectatorChat rejects session chat from a non-participant while
	// the game is still running.
	ErrSpectatorChat = errors.New("game in progress, do not disturb")
)

const maxUsernameLen = 32

// Options configures a Coordinator.
type Options struct {
	Store   *database.Store
	Engines engine.Factory
	Logger  *slog.Logger
	// ChannelBuffer bounds each push channel. A full buffer marks the
	// client dead. Defaults to 32.
	ChannelBuffer int
	// Clock overrides time.Now, for tests.
	Clock func() time.Time
}

// Coordinator owns all lobby state and is the single serialization point
// for mutating it.
type Coordinator struct {
	store   *database.Store
	engines engine.Factory
	log     *slog.Logger
	buffer  int
	now     func() time.Time

	mu          sync.Mutex
	usersByID   map[int64]*User
	usersByName map[string]*User // lowercased username -> user
	sessions    map[string]*Session
}

// New creates a Coordinator.
func New(opts Options) *Coordinator {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.ChannelBuffer <= 0 {
		opts.ChannelBuffer = 32
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Coordinator{
		store:       opts.Store,
		engines:     opts.Engines,
		log:         opts.Logger,
		buffer:      opts.ChannelBuffer,
		now:         opts.Clock,
		usersByID:   make(map[int64]*User),
		usersByName: make(map[string]*User),
		sessions:    make(map[string]*Session),
	}
}

// Register creates an account and its lobby user, and broadcasts the new
// user list.
func (c *Coordinator) Register(username, password string) (*User, error) {
	if strings.TrimSpace(username) == "" || len([]rune(username)) > maxUsernameLen {
		return nil, ErrInvalidUsername
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, taken := c.usersByName[strings.ToLower(username)]; taken {
		return nil, ErrUsernameTaken
	}
	account, err := c.store.CreateAccount(username, password)
	if errors.Is(err, database.ErrDuplicateUsername) {
		return nil, ErrUsernameTaken
	}
	if err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}

	u := c.addUserLocked(account)
	c.broadcastUsersLocked()
	c.log.Info("user registered", "username", u.Username)
	return u, nil
}

// Authenticate verifies credentials and returns the lobby user, creating
// the registry entry if the account predates this process.
func (c *Coordinator) Authenticate(username, password string) (*User, error) {
	account, err := c.store.Authenticate(username, password)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrNoSuchUser
	}
	if errors.Is(err, database.ErrBadPassword) {
		return nil, ErrBadCredential
	}
	if err != nil {
		return nil, fmt.Errorf("authenticate: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	u := c.usersByID[account.ID]
	if u == nil {
		u = c.addUserLocked(account)
	}
	u.lastSeen = c.now()
	c.broadcastUsersLocked()
	return u, nil
}

func (c *Coordinator) addUserLocked(account *models.Account) *User {
	u := &User{
		ID:        account.ID,
		Username:  account.Username,
		CreatedAt: account.CreatedAt,
		lastSeen:  c.now(),
	}
	c.usersByID[u.ID] = u
	c.usersByName[strings.ToLower(u.Username)] = u
	return u
}

// UserByID returns the lobby user with the given id, or nil.
func (c *Coordinator) UserByID(id int64) *User {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.usersByID[id]
}

// Lookup finds a user by username, case-insensitively.
func (c *Coordinator) Lookup(username string) *User {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.usersByName[strings.ToLower(username)]
}

// Touch records activity on u.
func (c *Coordinator) Touch(u *User) {
	c.mu.Lock()
	defer c.mu.Unlock()
	u.lastSeen = c.now()
}

// Connect gives u a fresh push channel, superseding any previous one. The
// old channel is told who displaced it, then closed; it is never written
// again afterwards.
func (c *Coordinator) Connect(u *User, origin string) *EventChannel {
	c.mu.Lock()
	defer c.mu.Unlock()

	if old := u.channel; old != nil {
		old.trySend(Event{Type: EventDisconnect, Data: origin})
		close(old.events)
	}
	ch := newEventChannel(origin, c.buffer)
	u.channel = ch
	return ch
}

// Release clears u's channel slot, but only if ch is still the registered
// channel. A stale close racing a reconnect is a no-op.
func (c *Coordinator) Release(u *User, ch *EventChannel) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if u.channel == ch {
		u.channel = nil
	}
}

// Propose starts a new proposal by initiator for the named candidates with
// the given role set. Candidates that do not exist or are already busy are
// dropped; the initiator is always included. An ineligible composition is
// silently ignored.
func (c *Coordinator) Propose(initiator *User, candidates []string, roles []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if initiator.session != nil || initiator.proposal != nil {
		return ErrAlreadyBusy
	}

	seen := make(map[*User]bool)
	var members []*User
	for _, name := range candidates {
		u := c.usersByName[strings.ToLower(name)]
		if u == nil || seen[u] || u.proposal != nil || u.session != nil {
			continue
		}
		seen[u] = true
		members = append(members, u)
	}
	if !seen[initiator] {
		members = append(members, initiator)
	}

	var validRoles []string
	for _, r := range roles {
		if c.engines.ValidRole(r) {
			validRoles = append(validRoles, r)
		}
	}

	limits := c.engines.Limits()
	if len(members) < limits.MinPlayers || len(members) > limits.MaxPlayers || len(validRoles) != limits.RolesPerGame {
		c.log.Debug("ignoring ineligible proposal",
			"initiator", initiator.Username, "members", len(members), "roles", len(validRoles))
		return nil
	}

	p := newProposal(initiator, members, validRoles, c.now())
	for _, m := range members {
		m.proposal = p
	}
	c.sendLocked(members, EventProposalNew, p.snapshot())
	c.broadcastUsersLocked()
	return nil
}

// Accept records u's vote on their current proposal. Accepting twice is a
// no-op. A unanimous proposal transitions to session start.
func (c *Coordinator) Accept(u *User) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	p := u.proposal
	if p == nil {
		return ErrNoProposal
	}
	changed, err := p.accept(u)
	if err != nil {
		c.log.Error("proposal contract violation", "username", u.Username, "err", err)
		return err
	}
	if !changed {
		return nil
	}

	if p.everyoneAccepted() {
		c.startSessionLocked(p)
		return nil
	}
	c.sendLocked(p.members, EventProposalUpdate, p.snapshot())
	return nil
}

// Decline removes u from their current proposal, resets the remaining
// votes, and dissolves the proposal if it shrank below the viable size.
func (c *Coordinator) Decline(u *User) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	p := u.proposal
	if p == nil {
		return ErrNoProposal
	}
	if err := p.decline(u, c.now()); err != nil {
		c.log.Error("proposal contract violation", "username", u.Username, "err", err)
		return err
	}
	u.proposal = nil

	// Everyone still on the proposal, and the decliner, see the new
	// membership; the decliner additionally gets the detachment signal.
	c.sendLocked(append(append([]*User(nil), p.members...), u), EventProposalUpdate, p.snapshot())
	c.sendLocked([]*User{u}, EventProposalNew, nil)

	if len(p.members) < c.engines.Limits().MinPlayers {
		c.sendLocked(p.members, EventProposalNew, nil)
		for _, m := range p.members {
			m.proposal = nil
		}
	}
	c.broadcastUsersLocked()
	return nil
}

// startSessionLocked transitions a fully-accepted proposal into a running
// session. A refused engine start rolls every member back to unassigned.
func (c *Coordinator) startSessionLocked(p *Proposal) {
	eng := c.engines.New(p.initiator.Username)
	eng.SetRoles(p.roles)
	sess := newSession(uuid.NewString(), c.now(), eng, p.roles, p.members)

	for _, m := range p.members {
		m.proposal = nil
		m.session = sess
		eng.AddParticipant(m.Username)
	}

	if err := eng.Start(); err != nil {
		c.log.Warn("engine refused start", "initiator", p.initiator.Username, "reason", err)
		c.sendLocked(p.members, EventProposalError, err.Error())
		for _, m := range p.members {
			m.session = nil
		}
		c.broadcastUsersLocked()
		return
	}

	c.sessions[sess.id] = sess
	c.sendLocked(p.members, EventGameStart, p.snapshot())
	c.broadcastUsersLocked()
	c.broadcastGamesLocked()
	c.log.Info("game started", "id", sess.id, "players", len(sess.participants))
}

// Watch binds u to a running session as a spectator.
func (c *Coordinator) Watch(u *User, sessionID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if u.session != nil {
		return ErrAlreadyBusy
	}
	sess := c.sessions[sessionID]
	if sess == nil {
		return ErrNoSuchSession
	}

	u.session = sess
	sess.addWatcher(u)
	c.broadcastUsersLocked()
	return nil
}

// Leave unbinds u from their session. Participants may only leave once the
// game is over; watchers may leave at any time.
func (c *Coordinator) Leave(u *User) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	sess := u.session
	if sess == nil {
		return ErrNoSession
	}
	if sess.isParticipant(u) && !sess.finished() {
		return ErrLeaveInProgress
	}

	u.session = nil
	sess.removeWatcher(u)
	c.broadcastUsersLocked()
	return nil
}

// TakeAction forwards one game action to u's session engine and, on
// success, fans the updated state out to everyone bound to the session. A
// finished game is removed from the registry after the final reveal push.
func (c *Coordinator) TakeAction(u *User, choice string, rawArgs []models.ChoiceArg) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	sess := u.session
	if sess == nil {
		return ErrNoSession
	}

	args := make([]engine.Arg, 0, len(rawArgs))
	for _, a := range rawArgs {
		switch a.Type {
		case "player":
			target := c.usersByName[strings.ToLower(a.Value)]
			if target == nil {
				return fmt.Errorf("no such user %q", a.Value)
			}
			args = append(args, engine.Arg{Kind: engine.ArgParticipant, Value: target.Username})
		case "role":
			args = append(args, engine.Arg{Kind: engine.ArgRole, Value: a.Value})
		default:
			return fmt.Errorf("no argument type %q", a.Type)
		}
	}

	if err := sess.eng.TakeAction(u.Username, choice, args); err != nil {
		// Engine refusals are surfaced verbatim to the requester only.
		return err
	}

	c.convertEliminatedLocked(sess)
	c.pushGameStateLocked(sess)
	for _, msg := range sess.eng.Messages() {
		c.sendLocked(sess.audience(), EventGameMessage, models.ChatMessage{Message: msg, Time: c.now().Unix()})
	}

	if sess.finished() {
		delete(c.sessions, sess.id)
		c.broadcastGamesLocked()
		c.log.Info("game finished", "id", sess.id)
	}
	return nil
}

// convertEliminatedLocked turns engine-reported eliminated participants
// into watchers of their own session, so they keep receiving updates
// without being able to act.
func (c *Coordinator) convertEliminatedLocked(sess *Session) {
	for _, name := range sess.eng.Eliminated() {
		u := c.usersByName[strings.ToLower(name)]
		if u != nil && u.session == sess && sess.isParticipant(u) {
			sess.addWatcher(u)
		}
	}
}

// pushGameStateLocked sends every participant a public+private state merge
// and every pure watcher the public state. Secrets are revealed once the
// game is over.
func (c *Coordinator) pushGameStateLocked(sess *Session) {
	pub := sess.publicInfo(sess.finished())
	pub.Time = c.now().Unix()
	for _, m := range sess.participants {
		if m.channel == nil {
			continue
		}
		full := models.GameFullInfo{GamePublicInfo: pub, GamePrivateInfo: sess.privateInfo(m)}
		c.sendLocked([]*User{m}, EventGameUpdate, full)
	}
	c.sendLocked(sess.pureWatchers(), EventGameUpdate, pub)
}

// Chat routes a chat message: to the session's audience when u is bound to
// one, otherwise to every lobby user. Spectators may not chat into a game
// still in progress.
func (c *Coordinator) Chat(u *User, message string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	msg := models.ChatMessage{User: u.Username, Message: message, Time: c.now().Unix()}
	sess := u.session
	if sess == nil {
		c.sendLocked(c.lobbyUsersLocked(), EventChatLobby, msg)
		return nil
	}
	if !sess.isParticipant(u) && !sess.finished() {
		return ErrSpectatorChat
	}
	c.sendLocked(sess.audience(), EventChatGame, msg)
	return nil
}

// LobbySnapshot answers the lobby poll for u: games, users, own proposal.
func (c *Coordinator) LobbySnapshot(u *User) models.LobbySnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := models.LobbySnapshot{
		Username: u.Username,
		Games:    c.gameSummariesLocked(),
		Users:    c.userInfosLocked(),
	}
	if u.proposal != nil {
		snap.Proposal = u.proposal.snapshot()
	}
	return snap
}

// GameSnapshot returns the state of u's session: the public view, plus the
// private view when u is a participant.
func (c *Coordinator) GameSnapshot(u *User) (models.GamePublicInfo, *models.GamePrivateInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sess := u.session
	if sess == nil {
		return models.GamePublicInfo{}, nil, ErrNoSession
	}
	pub := sess.publicInfo(sess.finished())
	if !sess.isParticipant(u) {
		return pub, nil, nil
	}
	priv := sess.privateInfo(u)
	return pub, &priv, nil
}

// lobbyUsersLocked is the broadcast target set for lobby-wide events:
// every user not bound to a session.
func (c *Coordinator) lobbyUsersLocked() []*User {
	var out []*User
	for _, u := range c.usersByID {
		if u.session == nil {
			out = append(out, u)
		}
	}
	return out
}

func (c *Coordinator) userInfosLocked() []models.UserInfo {
	infos := make([]models.UserInfo, 0, len(c.usersByID))
	for _, u := range c.usersByID {
		infos = append(infos, u.info())
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Username < infos[j].Username })
	return infos
}

func (c *Coordinator) gameSummariesLocked() []models.GameSummary {
	sums := make([]models.GameSummary, 0, len(c.sessions))
	for _, s := range c.sessions {
		sums = append(sums, s.summary())
	}
	sort.Slice(sums, func(i, j int) bool {
		if sums[i].StartTime != sums[j].StartTime {
			return sums[i].StartTime < sums[j].StartTime
		}
		return sums[i].ID < sums[j].ID
	})
	return sums
}

func (c *Coordinator) broadcastUsersLocked() {
	c.sendLocked(c.lobbyUsersLocked(), EventUsersUpdate, c.userInfosLocked())
}

func (c *Coordinator) broadcastGamesLocked() {
	c.sendLocked(c.lobbyUsersLocked(), EventGamesUpdate, c.gameSummariesLocked())
}

// sendLocked delivers one event to each user's live channel. Users without
// a channel are skipped; a full buffer marks the channel dead and clears
// the slot. At-most-once, no queueing across disconnects.
func (c *Coordinator) sendLocked(users []*User, t EventType, data any) {
	ev := Event{Type: t, Data: data}
	for _, u := range users {
		ch := u.channel
		if ch == nil {
			continue
		}
		if !ch.trySend(ev) {
			u.channel = nil
			close(ch.events)
			c.log.Warn("dropped stalled event channel", "username", u.Username)
		}
	}
}
