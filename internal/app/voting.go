package app

import (
	"github.com/dkeye/PlanningPoker/internal/domain"
)

// Verdict is the outcome of applying a voting policy to a closed round.
type Verdict struct {
	Approved bool        `json:"approved"`
	Card     domain.Card `json:"card,omitempty"`
	Mean     float64     `json:"mean,omitempty"`
	Reason   string      `json:"reason,omitempty"`
}

// VotingPolicy turns the voters' cards into a verdict.
type VotingPolicy interface {
	Mode() domain.VotingMode
	Decide(votes []domain.Card) (Verdict, error)
}

func PolicyFor(mode domain.VotingMode) VotingPolicy {
	if mode == domain.VotingAverage {
		return AveragePolicy{}
	}
	return UnanimousPolicy{}
}

// UnanimousPolicy approves only when every voter played the same numeric card.
type UnanimousPolicy struct{}

func (UnanimousPolicy) Mode() domain.VotingMode { return domain.VotingUnanimous }

func (UnanimousPolicy) Decide(votes []domain.Card) (Verdict, error) {
	if len(votes) == 0 {
		return Verdict{}, domain.InvalidState("no votes to validate")
	}
	first := votes[0]
	for _, v := range votes[1:] {
		if v != first {
			return Verdict{Reason: "votes differ"}, nil
		}
	}
	if !first.IsNumeric() {
		return Verdict{Reason: "agreed card " + string(first) + " is not an estimate"}, nil
	}
	return Verdict{Approved: true, Card: first}, nil
}

// AveragePolicy always approves with the numeric card nearest the mean of numeric votes.
type AveragePolicy struct{}

func (AveragePolicy) Mode() domain.VotingMode { return domain.VotingAverage }

func (AveragePolicy) Decide(votes []domain.Card) (Verdict, error) {
	sum, n := 0, 0
	for _, v := range votes {
		if points, ok := v.Value(); ok {
			sum += points
			n++
		}
	}
	if n == 0 {
		return Verdict{}, domain.InvalidState("no numeric votes to average")
	}
	mean := float64(sum) / float64(n)
	return Verdict{Approved: true, Card: domain.NearestCard(mean), Mean: mean}, nil
}
