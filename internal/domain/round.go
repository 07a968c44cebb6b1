package domain

type RoundState string

const (
	RoundIdle        RoundState = "idle"
	RoundVotingOpen  RoundState = "voting_open"
	RoundDiscussion  RoundState = "discussion"
	RoundAllVoted    RoundState = "all_voted"
	RoundCoffeeBreak RoundState = "coffee_break"
	RoundRevealed    RoundState = "revealed"
	RoundValidated   RoundState = "validated"
)

// Indicators are the process-wide round flags. All reset together.
type Indicators struct {
	VoteStarted      bool `json:"vote_started"`
	VotesRevealed    bool `json:"votes_revealed"`
	AllVoted         bool `json:"all_voted"`
	DiscussionActive bool `json:"discussion_active"`
	FeatureApproved  bool `json:"feature_approved"`
	BreakActive      bool `json:"break_active"`
	CurrentFeatureID int  `json:"current_feature_id,omitempty"`
}

// State derives the round state machine position from the flags.
func (i Indicators) State() RoundState {
	switch {
	case !i.VoteStarted:
		return RoundIdle
	case i.FeatureApproved:
		return RoundValidated
	case i.BreakActive:
		return RoundCoffeeBreak
	case i.VotesRevealed:
		return RoundRevealed
	case i.DiscussionActive:
		return RoundDiscussion
	case i.AllVoted:
		return RoundAllVoted
	default:
		return RoundVotingOpen
	}
}

func (i Indicators) AcceptsVotes() bool {
	return i.VoteStarted && !i.FeatureApproved
}
