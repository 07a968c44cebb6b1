// Package app holds the session coordinator: the single owner of the roster,
// the round indicators and the pointer to the feature under estimation.
package app

import (
	"context"
	"sync"

	"github.com/dkeye/PlanningPoker/internal/backlog"
	"github.com/dkeye/PlanningPoker/internal/core"
	"github.com/dkeye/PlanningPoker/internal/domain"
	"github.com/rs/zerolog/log"
)

// RoleNames are the reserved pseudonyms that grant a privileged role on join.
type RoleNames struct {
	ProductOwner string `mapstructure:"product_owner"`
	ScrumMaster  string `mapstructure:"scrum_master"`
}

func DefaultRoleNames() RoleNames {
	return RoleNames{ProductOwner: "po", ScrumMaster: "sm"}
}

// RoleFor maps a pseudonym to the role it joins with.
func (n RoleNames) RoleFor(pseudonym string) domain.Role {
	switch {
	case n.ProductOwner != "" && domain.SamePseudonym(pseudonym, n.ProductOwner):
		return domain.RoleProductOwner
	case n.ScrumMaster != "" && domain.SamePseudonym(pseudonym, n.ScrumMaster):
		return domain.RoleScrumMaster
	default:
		return domain.RoleVoter
	}
}

type Options struct {
	AllowList []string
	Roles     RoleNames
	// IdentitySwitch lets a session act as any joined pseudonym, not only its own.
	IdentitySwitch bool
	Sink           EventSink
}

// Coordinator serializes every session operation behind one mutex.
type Coordinator struct {
	mu       sync.Mutex
	store    *backlog.Store
	pause    backlog.Persister
	roster   core.Roster
	registry *Registry
	sink     EventSink

	allow          map[string]struct{}
	roles          RoleNames
	identitySwitch bool

	ind domain.Indicators
}

func NewCoordinator(store *backlog.Store, pause backlog.Persister, opts Options) *Coordinator {
	sink := opts.Sink
	if sink == nil {
		sink = nopSink{}
	}
	c := &Coordinator{
		store:          store,
		pause:          pause,
		roster:         core.NewRoster(),
		registry:       NewRegistry(),
		sink:           sink,
		roles:          opts.Roles,
		identitySwitch: opts.IdentitySwitch,
	}
	c.allow = foldSet(opts.AllowList)
	return c
}

func foldSet(names []string) map[string]struct{} {
	out := make(map[string]struct{}, len(names))
	for _, n := range names {
		if f := fold(n); f != "" {
			out[f] = struct{}{}
		}
	}
	return out
}

// SetAllowList replaces the allow-list. Participants already joined stay.
func (c *Coordinator) SetAllowList(names []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.allow = foldSet(names)
	log.Info().Str("module", "app.coordinator").Int("names", len(c.allow)).Msg("allow-list updated")
}

// SetRoles replaces the reserved role names for future joins.
func (c *Coordinator) SetRoles(roles RoleNames) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.roles = roles
	log.Info().Str("module", "app.coordinator").Str("po", roles.ProductOwner).Str("sm", roles.ScrumMaster).Msg("role names updated")
}

func (c *Coordinator) SetIdentitySwitch(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.identitySwitch = enabled
}

func (c *Coordinator) emit(t EventType, data any) {
	c.sink.Publish(Event{Type: t, Data: data})
}

// actorLocked resolves the identity token is acting as and checks its role.
func (c *Coordinator) actorLocked(token domain.Token, role domain.Role) (domain.Participant, error) {
	active, ok := c.registry.Active(token)
	if !ok {
		return domain.Participant{}, domain.Unauthorized("no active identity selected")
	}
	p, ok := c.roster.ByPseudonym(active)
	if !ok {
		return domain.Participant{}, domain.Unauthorized("active identity is no longer in the session")
	}
	if p.Role != role {
		log.Debug().Str("module", "app.coordinator").Str("pseudonym", p.Pseudonym).Str("required", string(role)).Msg("role gate rejected")
		return domain.Participant{}, domain.Unauthorized("reserved to the " + roleLabel(role))
	}
	return p, nil
}

func roleLabel(r domain.Role) string {
	switch r {
	case domain.RoleProductOwner:
		return "product owner"
	case domain.RoleScrumMaster:
		return "scrum master"
	default:
		return "voters"
	}
}

// currentFeatureLocked returns the head of the backlog while it is unfinished.
func (c *Coordinator) currentFeatureLocked() (domain.Feature, bool) {
	if f, ok := c.store.HighestPriority(); ok && !f.Done() {
		return f, true
	}
	return domain.Feature{}, false
}

func (c *Coordinator) resetRoundLocked() {
	c.roster.ClearVotes()
	c.ind = domain.Indicators{}
}

// StateView is the public round snapshot.
type StateView struct {
	domain.Indicators
	State          domain.RoundState `json:"state"`
	CurrentFeature *domain.Feature   `json:"current_feature,omitempty"`
	Participants   int               `json:"participants"`
	Voted          int               `json:"voted"`
}

func (c *Coordinator) State() StateView {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

func (c *Coordinator) stateLocked() StateView {
	v := StateView{
		Indicators:   c.ind,
		State:        c.ind.State(),
		Participants: c.roster.Len(),
	}
	if f, ok := c.currentFeatureLocked(); ok {
		v.CurrentFeature = &f
	}
	for _, p := range c.roster.Snapshot() {
		if p.HasVoted() {
			v.Voted++
		}
	}
	return v
}

// Close persists the backlog one last time.
func (c *Coordinator) Close(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store.Save(ctx)
	log.Info().Str("module", "app.coordinator").Msg("coordinator closed")
}
