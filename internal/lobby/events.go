package lobby

// EventType names a push notification. The values are the SSE event names
// the client listens for.
type EventType string

const (
	EventUsersUpdate    EventType = "users.update"
	EventGamesUpdate    EventType = "games.update"
	EventProposalNew    EventType = "proposal.new"
	EventProposalUpdate EventType = "proposal.update"
	EventProposalError  EventType = "proposal.error"
	EventGameStart      EventType = "game.start"
	EventGameUpdate     EventType = "game.update"
	EventGameMessage    EventType = "game.message"
	EventChatLobby      EventType = "chat.lobby"
	EventChatGame       EventType = "chat.game"
	EventDisconnect     EventType = "disconnect"
)

// Event is one typed notification. Data is marshalled to JSON by the
// transport; a nil Data serializes as "null", which proposal.new uses as the
// detachment signal.
type Event struct {
	Type EventType
	Data any
}

// EventChannel is a user's single live push connection. The coordinator
// writes events into it; the connection-owning goroutine drains Events and
// forwards frames. Only the coordinator ever closes the channel, always
// under its lock, so sends and close cannot race.
type EventChannel struct {
	origin string
	events chan Event
}

func newEventChannel(origin string, buffer int) *EventChannel {
	return &EventChannel{origin: origin, events: make(chan Event, buffer)}
}

// Origin identifies the remote end that opened the channel.
func (c *EventChannel) Origin() string {
	return c.origin
}

// Events is the stream of pending notifications. It is closed when the
// channel is superseded by a reconnect or dropped as stalled.
func (c *EventChannel) Events() <-chan Event {
	return c.events
}

// trySend enqueues ev without blocking. Reports false when the buffer is
// full, which the coordinator treats as a dead client.
func (c *EventChannel) trySend(ev Event) bool {
	select {
	case c.events <- ev:
		return true
	default:
		return false
	}
}
