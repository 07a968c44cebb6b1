package app

import (
	"context"
	"strconv"

	"github.com/dkeye/PlanningPoker/internal/domain"
	"github.com/rs/zerolog/log"
)

// votersDoneLocked is true when at least one Voter is present and all Voters have voted.
func (c *Coordinator) votersDoneLocked() bool {
	voters := 0
	for _, p := range c.roster.Snapshot() {
		if p.Role != domain.RoleVoter {
			continue
		}
		if !p.HasVoted() {
			return false
		}
		voters++
	}
	return voters > 0
}

func (c *Coordinator) everyoneOnCoffeeLocked() bool {
	snap := c.roster.Snapshot()
	if len(snap) == 0 {
		return false
	}
	for _, p := range snap {
		if p.Vote != domain.CardCoffee {
			return false
		}
	}
	return true
}

// InitiateVote opens a round on featureID once its expected team has joined.
func (c *Coordinator) InitiateVote(ctx context.Context, token domain.Token, featureID int) (StateView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.actorLocked(token, domain.RoleScrumMaster); err != nil {
		return StateView{}, err
	}
	f, ok := c.store.Get(featureID)
	if !ok {
		return StateView{}, domain.NotFound("feature " + strconv.Itoa(featureID) + " not found")
	}
	if f.Done() {
		return StateView{}, domain.InvalidState("feature " + strconv.Itoa(featureID) + " is already estimated")
	}
	if missing := c.missingLocked(f); len(missing) > 0 {
		log.Info().Str("module", "app.coordinator").Int("feature_id", featureID).Strs("missing", missing).Msg("initiate rejected: team incomplete")
		return StateView{}, domain.InvalidState("team incomplete, waiting for participants")
	}

	c.roster.ClearVotes()
	c.ind = domain.Indicators{VoteStarted: true, CurrentFeatureID: featureID}

	state := c.stateLocked()
	c.emit(EventVoteStarted, state)
	log.Info().Str("module", "app.coordinator").Int("feature_id", featureID).Msg("vote started")
	return state, nil
}

// CastVote records pseudonym's card for the open round.
func (c *Coordinator) CastVote(ctx context.Context, pseudonym string, raw string) (StateView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.castVoteLocked(ctx, pseudonym, raw)
}

// CastVoteAs casts raw for the identity token is acting as.
func (c *Coordinator) CastVoteAs(ctx context.Context, token domain.Token, raw string) (StateView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	active, ok := c.registry.Active(token)
	if !ok {
		return StateView{}, domain.Unauthorized("no active identity selected")
	}
	return c.castVoteLocked(ctx, active, raw)
}

// roundOpenLocked fails with InvalidState unless a round is accepting votes.
func (c *Coordinator) roundOpenLocked() error {
	if c.ind.AcceptsVotes() {
		return nil
	}
	if !c.ind.VoteStarted {
		return domain.InvalidState("voting has not been initiated")
	}
	return domain.InvalidState("round already validated")
}

func (c *Coordinator) castVoteLocked(ctx context.Context, pseudonym string, raw string) (StateView, error) {
	card, err := domain.ParseCard(raw)
	if err != nil {
		return StateView{}, err
	}
	if err := c.roundOpenLocked(); err != nil {
		return StateView{}, err
	}
	p, ok := c.roster.ByPseudonym(pseudonym)
	if !ok {
		return StateView{}, domain.NotFound("participant " + pseudonym + " not in session")
	}
	if p.HasVoted() {
		log.Debug().Str("module", "app.coordinator").Str("pseudonym", p.Pseudonym).Msg("vote rejected: already voted")
		return StateView{}, domain.Conflict(p.Pseudonym + " has already voted")
	}
	if p.Role.Privileged() && card != domain.CardCoffee {
		return StateView{}, domain.Unauthorized(p.Pseudonym + " may only play the coffee card")
	}
	if err := c.roster.SetVote(p.Pseudonym, card); err != nil {
		return StateView{}, err
	}
	log.Info().Str("module", "app.coordinator").Str("pseudonym", p.Pseudonym).Msg("vote cast")
	c.emit(EventVoteCast, map[string]string{"pseudonym": p.Pseudonym})

	switch {
	case card == domain.CardDiscuss:
		c.ind.DiscussionActive = true
		c.emit(EventDiscussionRequested, map[string]string{"pseudonym": p.Pseudonym})
	case c.everyoneOnCoffeeLocked():
		c.ind.BreakActive = true
		c.store.SaveTo(ctx, c.pause)
		c.emit(EventCoffeeBreak, c.stateLocked())
		log.Info().Str("module", "app.coordinator").Msg("everyone chose coffee, session paused")
	case c.votersDoneLocked():
		c.ind.AllVoted = true
		c.emit(EventAllVoted, c.stateLocked())
	}
	return c.stateLocked(), nil
}

// RevealVotes returns every cast vote keyed by pseudonym.
func (c *Coordinator) RevealVotes(ctx context.Context, token domain.Token) (map[string]domain.Card, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.actorLocked(token, domain.RoleScrumMaster); err != nil {
		return nil, err
	}
	if _, ok := c.currentFeatureLocked(); !ok {
		return nil, domain.NotFound("no current feature to reveal votes for")
	}
	votes := c.votesLocked()
	c.ind.VotesRevealed = true
	c.emit(EventVotesRevealed, votes)
	log.Info().Str("module", "app.coordinator").Int("votes", len(votes)).Msg("votes revealed")
	return votes, nil
}

func (c *Coordinator) votesLocked() map[string]domain.Card {
	votes := make(map[string]domain.Card)
	for _, p := range c.roster.Snapshot() {
		if p.HasVoted() {
			votes[p.Pseudonym] = p.Vote
		}
	}
	return votes
}

// FacilitateDiscussion flags the round for discussion without touching votes.
func (c *Coordinator) FacilitateDiscussion(ctx context.Context, token domain.Token) (StateView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.actorLocked(token, domain.RoleScrumMaster); err != nil {
		return StateView{}, err
	}
	if _, ok := c.currentFeatureLocked(); !ok {
		return StateView{}, domain.NotFound("no current feature to discuss")
	}
	c.ind.DiscussionActive = true
	state := c.stateLocked()
	c.emit(EventDiscussionRequested, state)
	return state, nil
}

// Validation is the outcome of ValidateVote.
type Validation struct {
	Verdict
	FeatureID int               `json:"feature_id"`
	Mode      domain.VotingMode `json:"voting_mode"`
	Next      *domain.Feature   `json:"next,omitempty"`
}

// ValidateVote applies the feature's voting policy to the Voters' cards.
// On approval the feature is marked done with its estimate and the session advances.
func (c *Coordinator) ValidateVote(ctx context.Context, token domain.Token) (Validation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.actorLocked(token, domain.RoleScrumMaster); err != nil {
		return Validation{}, err
	}
	if err := c.roundOpenLocked(); err != nil {
		return Validation{}, err
	}
	if !c.votersDoneLocked() {
		return Validation{}, domain.InvalidState("not every voter has voted")
	}
	f, ok := c.store.Get(c.ind.CurrentFeatureID)
	if !ok {
		return Validation{}, domain.NotFound("feature under vote no longer exists")
	}

	var votes []domain.Card
	for _, p := range c.roster.Snapshot() {
		if p.Role == domain.RoleVoter {
			votes = append(votes, p.Vote)
		}
	}
	policy := PolicyFor(f.VotingMode)
	verdict, err := policy.Decide(votes)
	if err != nil {
		return Validation{}, err
	}
	res := Validation{Verdict: verdict, FeatureID: f.ID, Mode: policy.Mode()}

	if !verdict.Approved {
		c.ind.FeatureApproved = false
		c.emit(EventVoteValidated, res)
		log.Info().Str("module", "app.coordinator").Int("feature_id", f.ID).Str("reason", verdict.Reason).Msg("vote not approved")
		return res, nil
	}

	done := domain.StatusDone
	estimate := verdict.Card
	if _, err := c.store.Update(ctx, f.ID, domain.FeaturePatch{Status: &done, Estimate: &estimate}); err != nil {
		return Validation{}, err
	}
	c.ind.FeatureApproved = true
	log.Info().Str("module", "app.coordinator").Int("feature_id", f.ID).Str("card", string(verdict.Card)).Msg("vote approved")

	if next, err := c.advanceLocked(ctx); err == nil {
		res.Next = &next
	} else {
		log.Info().Str("module", "app.coordinator").Msg("backlog fully estimated")
	}
	c.emit(EventVoteValidated, res)
	return res, nil
}

// ResetRound clears every vote and every round indicator.
func (c *Coordinator) ResetRound(ctx context.Context, token domain.Token) (StateView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.actorLocked(token, domain.RoleScrumMaster); err != nil {
		return StateView{}, err
	}
	c.resetRoundLocked()
	state := c.stateLocked()
	c.emit(EventRoundReset, state)
	log.Info().Str("module", "app.coordinator").Msg("round reset")
	return state, nil
}

// ResumeFromBreak restores the backlog saved when everyone chose coffee.
func (c *Coordinator) ResumeFromBreak(ctx context.Context, token domain.Token) ([]domain.Feature, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.actorLocked(token, domain.RoleScrumMaster); err != nil {
		return nil, err
	}
	if c.pause == nil {
		return nil, domain.NotFound("no pause snapshot configured")
	}
	features, err := c.pause.Load(ctx)
	if err != nil {
		log.Warn().Str("module", "app.coordinator").Err(err).Msg("pause snapshot unavailable")
		return nil, domain.NotFound("no pause snapshot to resume from")
	}
	if len(features) == 0 {
		return nil, domain.NotFound("pause snapshot is empty")
	}
	c.store.Replace(ctx, features)
	c.resetRoundLocked()

	list := c.store.List()
	c.emit(EventRoundReset, c.stateLocked())
	c.emit(EventBacklogChanged, list)
	log.Info().Str("module", "app.coordinator").Int("features", len(list)).Msg("resumed from coffee break")
	return list, nil
}

// Panel is the scrum master overview of the current round.
type Panel struct {
	CurrentFeature  *domain.Feature        `json:"current_feature,omitempty"`
	Expected        []string               `json:"expected_participants"`
	Connected       []ParticipantView      `json:"connected_voters"`
	Missing         []string               `json:"missing_participants"`
	CanInitiate     bool                   `json:"can_initiate"`
	AllVoted        bool                   `json:"all_voted"`
	VotesRevealed   bool                   `json:"votes_revealed"`
	FeatureApproved bool                   `json:"feature_approved"`
	Votes           map[string]domain.Card `json:"votes,omitempty"`
}

func (c *Coordinator) Panel(token domain.Token) (Panel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.actorLocked(token, domain.RoleScrumMaster); err != nil {
		return Panel{}, err
	}
	p := Panel{
		Expected:        []string{},
		Connected:       []ParticipantView{},
		Missing:         []string{},
		AllVoted:        c.ind.AllVoted,
		VotesRevealed:   c.ind.VotesRevealed,
		FeatureApproved: c.ind.FeatureApproved,
	}
	for _, m := range c.roster.Snapshot() {
		if m.Role == domain.RoleVoter {
			p.Connected = append(p.Connected, viewOf(m))
		}
	}
	if f, ok := c.currentFeatureLocked(); ok {
		p.CurrentFeature = &f
		p.Expected = append(p.Expected, f.ExpectedParticipants...)
		if missing := c.missingLocked(f); missing != nil {
			p.Missing = missing
		}
		p.CanInitiate = len(p.Missing) == 0
	}
	if c.ind.VotesRevealed {
		p.Votes = c.votesLocked()
	}
	return p, nil
}
