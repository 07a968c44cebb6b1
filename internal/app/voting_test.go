package app

import (
	"errors"
	"testing"

	"github.com/dkeye/PlanningPoker/internal/domain"
)

func cards(values ...string) []domain.Card {
	out := make([]domain.Card, len(values))
	for i, v := range values {
		out[i] = domain.Card(v)
	}
	return out
}

func TestUnanimousPolicy(t *testing.T) {
	tests := []struct {
		name     string
		votes    []domain.Card
		approved bool
		card     domain.Card
	}{
		{"agree", cards("5", "5"), true, "5"},
		{"single voter", cards("13"), true, "13"},
		{"disagree", cards("5", "8"), false, ""},
		{"agree on discuss", cards("?", "?"), false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := UnanimousPolicy{}.Decide(tt.votes)
			if err != nil {
				t.Fatal(err)
			}
			if v.Approved != tt.approved || v.Card != tt.card {
				t.Fatalf("verdict = %+v", v)
			}
		})
	}
	if _, err := (UnanimousPolicy{}).Decide(nil); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("empty votes: %v", err)
	}
}

func TestAveragePolicy(t *testing.T) {
	tests := []struct {
		name  string
		votes []domain.Card
		card  domain.Card
	}{
		{"spread", cards("3", "5", "8"), "5"},
		{"ignores non numeric", cards("1", "?", "coffee", "3"), "2"},
		{"tie picks smaller card", cards("3", "5"), "3"},
		{"large", cards("100", "80"), "80"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := AveragePolicy{}.Decide(tt.votes)
			if err != nil {
				t.Fatal(err)
			}
			if !v.Approved || v.Card != tt.card {
				t.Fatalf("verdict = %+v, want %s", v, tt.card)
			}
		})
	}
	if _, err := (AveragePolicy{}).Decide(cards("?", "coffee")); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("no numeric votes: %v", err)
	}
}

func TestPolicyFor(t *testing.T) {
	if PolicyFor(domain.VotingAverage).Mode() != domain.VotingAverage {
		t.Fatal("average mode")
	}
	if PolicyFor("").Mode() != domain.VotingUnanimous {
		t.Fatal("default mode")
	}
}

func TestRoleFor(t *testing.T) {
	names := DefaultRoleNames()
	tests := map[string]domain.Role{
		"po":   domain.RoleProductOwner,
		" PO ": domain.RoleProductOwner,
		"Sm":   domain.RoleScrumMaster,
		"lina": domain.RoleVoter,
		"pope": domain.RoleVoter,
	}
	for in, want := range tests {
		if got := names.RoleFor(in); got != want {
			t.Errorf("RoleFor(%q) = %s, want %s", in, got, want)
		}
	}
}
