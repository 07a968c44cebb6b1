// Package domain contains entities without transport or storage logic.
package domain

import "strings"

const MaxPseudonymLen = 36

type Role string

const (
	RoleProductOwner Role = "product_owner"
	RoleScrumMaster  Role = "scrum_master"
	RoleVoter        Role = "voter"
)

// Privileged roles may only play the coffee card.
func (r Role) Privileged() bool {
	return r == RoleProductOwner || r == RoleScrumMaster
}

// Token correlates a roster entry with a client connection.
type Token string

type Participant struct {
	Pseudonym string `json:"pseudonym"`
	Role      Role   `json:"role"`
	Avatar    string `json:"avatar"`
	Token     Token  `json:"-"`
	Vote      Card   `json:"-"`
}

// NewParticipant validates the pseudonym and derives the avatar.
func NewParticipant(pseudonym string, token Token, role Role) (*Participant, error) {
	pseudonym = strings.TrimSpace(pseudonym)
	if pseudonym == "" {
		return nil, InvalidInput("pseudonym must not be empty")
	}
	if len(pseudonym) > MaxPseudonymLen {
		return nil, InvalidInput("pseudonym too long")
	}
	if token == "" {
		return nil, InvalidInput("session token must not be empty")
	}
	return &Participant{
		Pseudonym: pseudonym,
		Role:      role,
		Avatar:    Avatar(pseudonym),
		Token:     token,
	}, nil
}

func (p *Participant) HasVoted() bool { return p.Vote != NoVote }

func (p *Participant) ClearVote() { p.Vote = NoVote }

// SamePseudonym compares pseudonyms the way the allow-list does: case-insensitively.
func SamePseudonym(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
