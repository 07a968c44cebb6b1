package app

import "sync"

type EventType string

const (
	EventParticipantJoined   EventType = "participant_joined"
	EventParticipantLeft     EventType = "participant_left"
	EventRosterCleared       EventType = "roster_cleared"
	EventVoteStarted         EventType = "vote_started"
	EventVoteCast            EventType = "vote_cast"
	EventDiscussionRequested EventType = "discussion_requested"
	EventCoffeeBreak         EventType = "coffee_break"
	EventAllVoted            EventType = "all_voted"
	EventVotesRevealed       EventType = "votes_revealed"
	EventVoteValidated       EventType = "vote_validated"
	EventRoundReset          EventType = "round_reset"
	EventFeatureChanged      EventType = "feature_changed"
	EventBacklogChanged      EventType = "backlog_changed"
)

// Event is emitted after every successful coordinator mutation.
type Event struct {
	Type EventType `json:"type"`
	Data any       `json:"data,omitempty"`
}

// EventSink receives events in emission order. Publish must not block.
type EventSink interface {
	Publish(Event)
}

type nopSink struct{}

func (nopSink) Publish(Event) {}

// Recorder collects events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func (r *Recorder) Types() []EventType {
	events := r.Events()
	out := make([]EventType, len(events))
	for i, e := range events {
		out[i] = e.Type
	}
	return out
}
