package lobby

import (
	"time"

	"github.com/rebellion-web/app/internal/models"
)

// User is one registered user's in-memory state: identity plus the
// connection, proposal and session slots. The unexported pointers are
// mutated only while the coordinator lock is held.
type User struct {
	ID        int64
	Username  string
	CreatedAt time.Time

	lastSeen time.Time
	proposal *Proposal
	session  *Session
	channel  *EventChannel
}

func (u *User) info() models.UserInfo {
	return models.UserInfo{
		Username:   u.Username,
		InProposal: u.proposal != nil,
		InGame:     u.session != nil,
	}
}
