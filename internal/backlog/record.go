package backlog

import (
	"fmt"

	"github.com/dkeye/PlanningPoker/internal/domain"
)

// record is the persisted shape of a feature.
type record struct {
	ID                   FlexInt  `json:"id" yaml:"id"`
	Name                 string   `json:"name" yaml:"name"`
	Description          string   `json:"description" yaml:"description"`
	Priority             FlexInt  `json:"priority" yaml:"priority"`
	Difficulty           FlexInt  `json:"difficulty" yaml:"difficulty"`
	Status               string   `json:"status" yaml:"status"`
	VotingMode           string   `json:"voting_mode" yaml:"voting_mode"`
	ExpectedParticipants []string `json:"expected_participants" yaml:"expected_participants"`
	Estimate             string   `json:"estimate,omitempty" yaml:"estimate,omitempty"`
}

func toRecords(features []domain.Feature) []record {
	out := make([]record, 0, len(features))
	for _, f := range features {
		participants := f.ExpectedParticipants
		if participants == nil {
			participants = []string{}
		}
		out = append(out, record{
			ID:                   FlexInt(f.ID),
			Name:                 f.Name,
			Description:          f.Description,
			Priority:             FlexInt(f.Priority),
			Difficulty:           FlexInt(f.Difficulty),
			Status:               string(f.Status),
			VotingMode:           string(f.VotingMode),
			ExpectedParticipants: participants,
			Estimate:             string(f.Estimate),
		})
	}
	return out
}

func fromRecords(records []record) ([]domain.Feature, error) {
	out := make([]domain.Feature, 0, len(records))
	seen := make(map[int]bool, len(records))
	for i, r := range records {
		if r.ID <= 0 {
			return nil, fmt.Errorf("record %d: id must be positive", i)
		}
		if seen[int(r.ID)] {
			return nil, fmt.Errorf("record %d: duplicate id %d", i, r.ID)
		}
		seen[int(r.ID)] = true

		status, err := domain.ParseStatus(r.Status)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		mode, err := domain.ParseVotingMode(r.VotingMode)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		out = append(out, domain.Feature{
			ID:                   int(r.ID),
			Name:                 r.Name,
			Description:          r.Description,
			Priority:             int(r.Priority),
			Difficulty:           int(r.Difficulty),
			Status:               status,
			VotingMode:           mode,
			ExpectedParticipants: append([]string(nil), r.ExpectedParticipants...),
			Estimate:             domain.Card(r.Estimate),
		})
	}
	return out, nil
}
