package domain

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorIsMatchesKind(t *testing.T) {
	err := fmt.Errorf("join: %w", Conflict("pseudonym already taken"))
	if !errors.Is(err, ErrConflict) {
		t.Fatal("wrapped conflict must match ErrConflict")
	}
	if errors.Is(err, ErrNotFound) {
		t.Fatal("conflict must not match ErrNotFound")
	}
	if KindOf(err) != KindConflict {
		t.Fatalf("unexpected kind: %q", KindOf(err))
	}
	if KindOf(errors.New("plain")) != "" {
		t.Fatal("plain errors have no kind")
	}
}

func TestNewParticipant(t *testing.T) {
	p, err := NewParticipant("  lina ", "tok-1", RoleVoter)
	if err != nil {
		t.Fatal(err)
	}
	if p.Pseudonym != "lina" {
		t.Fatalf("pseudonym not trimmed: %q", p.Pseudonym)
	}
	if !strings.HasSuffix(p.Avatar, "?text=LI") {
		t.Fatalf("unexpected avatar: %s", p.Avatar)
	}
	if p.Avatar != Avatar("lina") {
		t.Fatal("avatar must be deterministic")
	}
	if p.HasVoted() {
		t.Fatal("new participant must not have voted")
	}

	if _, err := NewParticipant(" ", "tok-2", RoleVoter); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if _, err := NewParticipant(strings.Repeat("x", MaxPseudonymLen+1), "tok-3", RoleVoter); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestIndicatorsState(t *testing.T) {
	tests := []struct {
		in      Indicators
		want    RoundState
		accepts bool
	}{
		{in: Indicators{}, want: RoundIdle},
		{in: Indicators{VoteStarted: true}, want: RoundVotingOpen, accepts: true},
		{in: Indicators{VoteStarted: true, AllVoted: true}, want: RoundAllVoted, accepts: true},
		{in: Indicators{VoteStarted: true, DiscussionActive: true}, want: RoundDiscussion, accepts: true},
		{in: Indicators{VoteStarted: true, AllVoted: true, VotesRevealed: true}, want: RoundRevealed, accepts: true},
		{in: Indicators{VoteStarted: true, BreakActive: true}, want: RoundCoffeeBreak, accepts: true},
		{in: Indicators{VoteStarted: true, VotesRevealed: true, FeatureApproved: true}, want: RoundValidated},
	}
	for _, tt := range tests {
		if got := tt.in.State(); got != tt.want {
			t.Fatalf("State(%+v): got=%q want=%q", tt.in, got, tt.want)
		}
		if got := tt.in.AcceptsVotes(); got != tt.accepts {
			t.Fatalf("AcceptsVotes(%+v) = %v", tt.in, got)
		}
	}
}

func TestFeaturePatchApply(t *testing.T) {
	f := Feature{ID: 1, Name: "login", Priority: 3, ExpectedParticipants: []string{"lina"}}
	name := "sign in"
	prio := 1
	list := []string{"hugo"}
	FeaturePatch{Name: &name, Priority: &prio, ExpectedParticipants: &list}.Apply(&f)
	if f.Name != "sign in" || f.Priority != 1 || f.ExpectedParticipants[0] != "hugo" {
		t.Fatalf("patch not applied: %+v", f)
	}
	list[0] = "mutated"
	if f.ExpectedParticipants[0] != "hugo" {
		t.Fatal("patch must copy participant slice")
	}
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in      string
		want    Status
		wantErr bool
	}{
		{"", StatusTodo, false},
		{"Todo", StatusTodo, false},
		{"in_progress", StatusInProgress, false},
		{"InProgress", StatusInProgress, false},
		{"in progress", StatusInProgress, false},
		{"in-progress", StatusInProgress, false},
		{"En cours", StatusInProgress, false},
		{"A faire", StatusTodo, false},
		{"Terminé", StatusDone, false},
		{" DONE ", StatusDone, false},
		{"later", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseStatus(tt.in)
			if (err != nil) != tt.wantErr || got != tt.want {
				t.Fatalf("ParseStatus(%q) = %q, %v", tt.in, got, err)
			}
			if err != nil && !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("err kind = %v", KindOf(err))
			}
		})
	}
}
