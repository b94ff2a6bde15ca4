package lobby

import (
	"errors"
	"time"

	"github.com/rebellion-web/app/internal/models"
)

// ErrNotInProposal means accept/decline was called for a user the proposal
// does not contain. The pointer invariant makes this unreachable through the
// request flow; hitting it indicates a bug.
var ErrNotInProposal = errors.New("user is not part of this proposal")

// Proposal is a pending unanimous-consent negotiation to start a game with
// a fixed role set. Member order is insertion order and doubles as display
// order.
type Proposal struct {
	initiator *User
	createdAt time.Time
	roles     []string

	members  []*User
	accepted map[*User]bool
	declines map[string]time.Time
}

func newProposal(initiator *User, members []*User, roles []string, now time.Time) *Proposal {
	p := &Proposal{
		initiator: initiator,
		createdAt: now,
		roles:     roles,
		members:   members,
		accepted:  make(map[*User]bool, len(members)),
		declines:  make(map[string]time.Time),
	}
	for _, m := range members {
		p.accepted[m] = false
	}
	return p
}

func (p *Proposal) contains(u *User) bool {
	_, ok := p.accepted[u]
	return ok
}

// accept marks u's vote. Reports false when u had already accepted, in
// which case nothing changed.
func (p *Proposal) accept(u *User) (bool, error) {
	if !p.contains(u) {
		return false, ErrNotInProposal
	}
	if p.accepted[u] {
		return false, nil
	}
	p.accepted[u] = true
	return true, nil
}

// decline removes u and resets every remaining vote: a changed membership
// requires a fresh unanimous round.
func (p *Proposal) decline(u *User, now time.Time) error {
	if !p.contains(u) {
		return ErrNotInProposal
	}
	delete(p.accepted, u)
	for i, m := range p.members {
		if m == u {
			p.members = append(p.members[:i], p.members[i+1:]...)
			break
		}
	}
	p.declines[u.Username] = now
	for m := range p.accepted {
		p.accepted[m] = false
	}
	return nil
}

func (p *Proposal) everyoneAccepted() bool {
	for _, ok := range p.accepted {
		if !ok {
			return false
		}
	}
	return true
}

func (p *Proposal) snapshot() *models.ProposalInfo {
	info := &models.ProposalInfo{
		Initiator: p.initiator.Username,
		Players:   make([]string, 0, len(p.members)),
		Accepted:  make(map[string]bool, len(p.members)),
		Roles:     append([]string(nil), p.roles...),
	}
	for _, m := range p.members {
		info.Players = append(info.Players, m.Username)
		info.Accepted[m.Username] = p.accepted[m]
	}
	if len(p.declines) > 0 {
		info.Declines = make(map[string]int64, len(p.declines))
		for name, t := range p.declines {
			info.Declines[name] = t.Unix()
		}
	}
	return info
}
