package core

import "github.com/dkeye/PlanningPoker/internal/domain"

// Frame is a serialized message pushed to a client.
type Frame []byte

// ConnID identifies one live push connection. A token may hold several.
type ConnID string

// SignalConnection abstracts the push transport.
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}

// PublishResult reports delivery stats/backpressure to the caller.
type PublishResult struct {
	SendTo  int
	Dropped []ConnID
}

// Roster is the ordered set of joined participants.
// It enforces token, pseudonym and privileged-role uniqueness.
type Roster interface {
	Len() int
	Add(p domain.Participant) error
	Remove(token domain.Token) (domain.Participant, bool)
	Clear() []domain.Participant

	ByToken(token domain.Token) (domain.Participant, bool)
	ByPseudonym(pseudonym string) (domain.Participant, bool)
	Holder(role domain.Role) (domain.Participant, bool)
	Snapshot() []domain.Participant

	SetVote(pseudonym string, card domain.Card) error
	ClearVotes()
}

// Hub fans frames out to live connections.
type Hub interface {
	Attach(id ConnID, token domain.Token, conn SignalConnection)
	Detach(id ConnID)
	Broadcast(data Frame) PublishResult
	SendTo(token domain.Token, data Frame) PublishResult
	CloseToken(token domain.Token) int
	CloseAll() int
	Kick(id ConnID)
	Count() int
}
