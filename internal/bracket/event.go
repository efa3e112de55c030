package bracket

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventTournamentCreated     EventType = "tournament.created"
	EventParticipantRegistered EventType = "participant.registered"
	EventParticipantWithdrawn  EventType = "participant.withdrawn"
	// EventTournamentFull is the ready-for-bracket signal.
	EventTournamentFull      EventType = "tournament.full"
	EventBracketGenerated    EventType = "bracket.generated"
	EventMatchReady          EventType = "match.ready"
	EventTimeProposed        EventType = "match.time_proposed"
	EventTimeAccepted        EventType = "match.time_accepted"
	EventTimeRejected        EventType = "match.time_rejected"
	EventMatchAwaitingResult EventType = "match.awaiting_result"
	EventResultSubmitted     EventType = "match.result_submitted"
	EventMatchDisputed       EventType = "match.disputed"
	EventMatchCompleted      EventType = "match.completed"
	EventTournamentCompleted EventType = "tournament.completed"
	EventTournamentDeleted   EventType = "tournament.deleted"
)

// Event is emitted after a committed state transition for display and notification collaborators.
type Event struct {
	Type         EventType         `json:"type"`
	TournamentID uuid.UUID         `json:"tournament_id"`
	MatchID      *uuid.UUID        `json:"match_id,omitempty"`
	At           time.Time         `json:"at"`
	Payload      map[string]string `json:"payload,omitempty"`
}
