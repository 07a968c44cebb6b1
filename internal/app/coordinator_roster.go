package app

import (
	"context"
	"strings"

	"github.com/dkeye/PlanningPoker/internal/domain"
	"github.com/rs/zerolog/log"
)

// ParticipantView is a roster entry without token or vote value.
type ParticipantView struct {
	Pseudonym string      `json:"pseudonym"`
	Role      domain.Role `json:"role"`
	Avatar    string      `json:"avatar"`
	HasVoted  bool        `json:"has_voted"`
}

func viewOf(p domain.Participant) ParticipantView {
	return ParticipantView{Pseudonym: p.Pseudonym, Role: p.Role, Avatar: p.Avatar, HasVoted: p.HasVoted()}
}

// allowedLocked reports whether pseudonym may join: reserved role names,
// the configured allow-list and the current feature's expected participants.
func (c *Coordinator) allowedLocked(pseudonym string) bool {
	if c.roles.RoleFor(pseudonym) != domain.RoleVoter {
		return true
	}
	if _, ok := c.allow[fold(pseudonym)]; ok {
		return true
	}
	if f, ok := c.currentFeatureLocked(); ok && f.Expects(pseudonym) {
		return true
	}
	return false
}

// Join adds the caller to the roster under pseudonym.
func (c *Coordinator) Join(ctx context.Context, pseudonym string, token domain.Token) (ParticipantView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	pseudonym = strings.TrimSpace(pseudonym)
	role := c.roles.RoleFor(pseudonym)
	p, err := domain.NewParticipant(pseudonym, token, role)
	if err != nil {
		return ParticipantView{}, err
	}
	if !c.allowedLocked(pseudonym) {
		log.Info().Str("module", "app.coordinator").Str("pseudonym", pseudonym).Msg("join rejected: not allowed")
		return ParticipantView{}, domain.Unauthorized("pseudonym " + pseudonym + " is not allowed in this session")
	}
	if err := c.roster.Add(*p); err != nil {
		log.Info().Str("module", "app.coordinator").Str("pseudonym", pseudonym).Err(err).Msg("join rejected")
		return ParticipantView{}, err
	}
	c.registry.Bind(p.Pseudonym, token)

	v := viewOf(*p)
	c.emit(EventParticipantJoined, v)
	log.Info().Str("module", "app.coordinator").Str("pseudonym", p.Pseudonym).Str("role", string(role)).Msg("participant joined")
	return v, nil
}

// Leave removes the caller's roster entry. Unknown tokens are ignored.
func (c *Coordinator) Leave(ctx context.Context, token domain.Token) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.roster.Remove(token)
	if !ok {
		return
	}
	c.registry.Forget(token, p.Pseudonym)
	c.emit(EventParticipantLeft, viewOf(p))
	if c.ind.VoteStarted && !c.ind.AllVoted && c.votersDoneLocked() {
		c.ind.AllVoted = true
		c.emit(EventAllVoted, c.stateLocked())
	}
	log.Info().Str("module", "app.coordinator").Str("pseudonym", p.Pseudonym).Msg("participant left")
}

// SetActiveIdentity selects which joined pseudonym the caller acts as.
func (c *Coordinator) SetActiveIdentity(ctx context.Context, token domain.Token, pseudonym string) (ParticipantView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	self, joined := c.roster.ByToken(token)
	if !joined {
		return ParticipantView{}, domain.Unauthorized("join the session first")
	}
	target, ok := c.roster.ByPseudonym(pseudonym)
	if !ok {
		return ParticipantView{}, domain.NotFound("participant " + strings.TrimSpace(pseudonym) + " not in session")
	}
	if !c.identitySwitch && target.Token != self.Token {
		return ParticipantView{}, domain.Unauthorized("a session may only act as its own pseudonym")
	}
	c.registry.SetActive(token, target.Pseudonym)
	return viewOf(target), nil
}

// Identity is what a session token currently resolves to.
type Identity struct {
	Self   ParticipantView  `json:"self"`
	Active *ParticipantView `json:"active,omitempty"`
}

func (c *Coordinator) WhoAmI(token domain.Token) (Identity, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	self, ok := c.roster.ByToken(token)
	if !ok {
		return Identity{}, domain.NotFound("session has not joined")
	}
	id := Identity{Self: viewOf(self)}
	if active, ok := c.registry.Active(token); ok {
		if p, ok := c.roster.ByPseudonym(active); ok {
			v := viewOf(p)
			id.Active = &v
		}
	}
	return id, nil
}

func (c *Coordinator) Participants() []ParticipantView {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap := c.roster.Snapshot()
	out := make([]ParticipantView, len(snap))
	for i, p := range snap {
		out[i] = viewOf(p)
	}
	return out
}

// IsTeamComplete reports whether every expected participant of f has joined.
func (c *Coordinator) IsTeamComplete(f domain.Feature) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.missingLocked(f)) == 0
}

func (c *Coordinator) missingLocked(f domain.Feature) []string {
	var missing []string
	for _, name := range f.ExpectedParticipants {
		if _, ok := c.roster.ByPseudonym(name); !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

// DisconnectAll empties the roster, resets the round and persists the backlog.
func (c *Coordinator) DisconnectAll(ctx context.Context, token domain.Token) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.actorLocked(token, domain.RoleScrumMaster); err != nil {
		return 0, err
	}
	removed := c.roster.Clear()
	c.registry.Clear()
	c.resetRoundLocked()
	c.store.Save(ctx)

	c.emit(EventRosterCleared, map[string]int{"removed": len(removed)})
	log.Info().Str("module", "app.coordinator").Int("removed", len(removed)).Msg("all participants disconnected")
	return len(removed), nil
}
