package bracket

import (
	"time"

	"github.com/google/uuid"
)

type TournamentStatus string

const (
	TournamentOpen      TournamentStatus = "open"
	TournamentFull      TournamentStatus = "full"
	TournamentActive    TournamentStatus = "active"
	TournamentCompleted TournamentStatus = "completed"
)

// IsLive reports whether the tournament still blocks a new one for the same game.
func (s TournamentStatus) IsLive() bool {
	return s == TournamentOpen || s == TournamentFull || s == TournamentActive
}

type Tournament struct {
	ID               uuid.UUID          `json:"id"`
	Game             string             `json:"game"`
	Capacity         int                `json:"capacity"`
	ParticipantCount int                `json:"participant_count"`
	Status           TournamentStatus   `json:"status"`
	Policy           VerificationPolicy `json:"policy"`

	BracketID  *uuid.UUID `json:"bracket_id,omitempty"`
	WinnerID   *uuid.UUID `json:"winner_id,omitempty"`
	RunnerUpID *uuid.UUID `json:"runner_up_id,omitempty"`

	// Incremented on every committed mutation so stale snapshots can be discarded
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
}

// Participant is one team entry. Roster is a snapshot taken at registration time.
type Participant struct {
	ID           uuid.UUID `json:"id"`
	TournamentID uuid.UUID `json:"tournament_id"`
	Name         string    `json:"name"`
	OrganizerID  string    `json:"organizer_id"`
	Roster       []string  `json:"roster"`
	Region       string    `json:"region,omitempty"`
	Seed         int       `json:"seed"`
	RegisteredAt time.Time `json:"registered_at"`
}

func (p Participant) clone() Participant {
	p.Roster = cloneEach(p.Roster, func(r string) string { return r })
	return p
}
