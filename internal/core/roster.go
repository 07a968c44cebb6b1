package core

import (
	"slices"
	"sync"

	"github.com/dkeye/PlanningPoker/internal/domain"
	"github.com/rs/zerolog/log"
)

// rosterImpl is a threadsafe in-memory roster preserving join order.
type rosterImpl struct {
	mu      sync.RWMutex
	order   []domain.Token
	byToken map[domain.Token]*domain.Participant
}

func NewRoster() Roster {
	return &rosterImpl{byToken: make(map[domain.Token]*domain.Participant)}
}

func (r *rosterImpl) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

func (r *rosterImpl) Add(p domain.Participant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byToken[p.Token]; ok {
		return domain.Conflict("session already joined")
	}
	if r.findLocked(p.Pseudonym) != nil {
		return domain.Conflict("pseudonym " + p.Pseudonym + " already in session")
	}
	if p.Role.Privileged() && r.holderLocked(p.Role) != nil {
		return domain.Conflict("role " + string(p.Role) + " already taken")
	}
	p.ClearVote()
	r.byToken[p.Token] = &p
	r.order = append(r.order, p.Token)
	log.Info().Str("module", "core.roster").Str("pseudonym", p.Pseudonym).Str("role", string(p.Role)).Msg("participant added")
	return nil
}

func (r *rosterImpl) Remove(token domain.Token) (domain.Participant, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byToken[token]
	if !ok {
		return domain.Participant{}, false
	}
	delete(r.byToken, token)
	r.order = slices.DeleteFunc(r.order, func(t domain.Token) bool { return t == token })
	log.Info().Str("module", "core.roster").Str("pseudonym", p.Pseudonym).Msg("participant removed")
	return *p, true
}

func (r *rosterImpl) Clear() []domain.Participant {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.snapshotLocked()
	r.order = nil
	r.byToken = make(map[domain.Token]*domain.Participant)
	log.Info().Str("module", "core.roster").Int("removed", len(out)).Msg("roster cleared")
	return out
}

func (r *rosterImpl) ByToken(token domain.Token) (domain.Participant, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.byToken[token]; ok {
		return *p, true
	}
	return domain.Participant{}, false
}

func (r *rosterImpl) ByPseudonym(pseudonym string) (domain.Participant, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p := r.findLocked(pseudonym); p != nil {
		return *p, true
	}
	return domain.Participant{}, false
}

func (r *rosterImpl) Holder(role domain.Role) (domain.Participant, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p := r.holderLocked(role); p != nil {
		return *p, true
	}
	return domain.Participant{}, false
}

func (r *rosterImpl) Snapshot() []domain.Participant {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshotLocked()
}

func (r *rosterImpl) SetVote(pseudonym string, card domain.Card) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.findLocked(pseudonym)
	if p == nil {
		return domain.NotFound("participant " + pseudonym + " not in session")
	}
	p.Vote = card
	return nil
}

func (r *rosterImpl) ClearVotes() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.byToken {
		p.ClearVote()
	}
}

func (r *rosterImpl) findLocked(pseudonym string) *domain.Participant {
	for _, t := range r.order {
		if p := r.byToken[t]; domain.SamePseudonym(p.Pseudonym, pseudonym) {
			return p
		}
	}
	return nil
}

func (r *rosterImpl) holderLocked(role domain.Role) *domain.Participant {
	for _, t := range r.order {
		if p := r.byToken[t]; p.Role == role {
			return p
		}
	}
	return nil
}

func (r *rosterImpl) snapshotLocked() []domain.Participant {
	out := make([]domain.Participant, 0, len(r.order))
	for _, t := range r.order {
		out = append(out, *r.byToken[t])
	}
	return out
}
