package domain

import "strings"

type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
)

var statusAliases = map[string]Status{
	"":            StatusTodo,
	"todo":        StatusTodo,
	"to_do":       StatusTodo,
	"a_faire":     StatusTodo,
	"à_faire":     StatusTodo,
	"in_progress": StatusInProgress,
	"inprogress":  StatusInProgress,
	"en_cours":    StatusInProgress,
	"done":        StatusDone,
	"terminé":     StatusDone,
	"termine":     StatusDone,
}

// ParseStatus accepts the canonical names plus CamelCase, spaced, dashed
// and legacy French spellings.
func ParseStatus(s string) (Status, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
	if st, ok := statusAliases[key]; ok {
		return st, nil
	}
	return "", InvalidInput("unknown status " + s)
}

type VotingMode string

const (
	VotingUnanimous VotingMode = "unanimous"
	VotingAverage   VotingMode = "average"
)

func ParseVotingMode(s string) (VotingMode, error) {
	switch VotingMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", VotingUnanimous:
		return VotingUnanimous, nil
	case VotingAverage:
		return VotingAverage, nil
	}
	return "", InvalidInput("unknown voting mode " + s)
}

// Feature is a backlog item subject to estimation.
type Feature struct {
	ID                   int        `json:"id"`
	Name                 string     `json:"name"`
	Description          string     `json:"description"`
	Priority             int        `json:"priority"`
	Difficulty           int        `json:"difficulty"`
	Status               Status     `json:"status"`
	VotingMode           VotingMode `json:"voting_mode"`
	ExpectedParticipants []string   `json:"expected_participants"`
	Estimate             Card       `json:"estimate,omitempty"`
}

func (f Feature) Done() bool { return f.Status == StatusDone }

// Clone returns a copy that shares no slices with f.
func (f Feature) Clone() Feature {
	out := f
	out.ExpectedParticipants = append([]string(nil), f.ExpectedParticipants...)
	return out
}

func (f Feature) Expects(pseudonym string) bool {
	for _, p := range f.ExpectedParticipants {
		if SamePseudonym(p, pseudonym) {
			return true
		}
	}
	return false
}

// FeaturePatch carries a partial update; nil fields are left untouched.
type FeaturePatch struct {
	Name                 *string
	Description          *string
	Priority             *int
	Difficulty           *int
	Status               *Status
	VotingMode           *VotingMode
	ExpectedParticipants *[]string
	Estimate             *Card
}

// Apply copies the present fields of p onto f.
func (p FeaturePatch) Apply(f *Feature) {
	if p.Name != nil {
		f.Name = *p.Name
	}
	if p.Description != nil {
		f.Description = *p.Description
	}
	if p.Priority != nil {
		f.Priority = *p.Priority
	}
	if p.Difficulty != nil {
		f.Difficulty = *p.Difficulty
	}
	if p.Status != nil {
		f.Status = *p.Status
	}
	if p.VotingMode != nil {
		f.VotingMode = *p.VotingMode
	}
	if p.ExpectedParticipants != nil {
		f.ExpectedParticipants = append([]string(nil), (*p.ExpectedParticipants)...)
	}
	if p.Estimate != nil {
		f.Estimate = *p.Estimate
	}
}
