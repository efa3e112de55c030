package bracket

import (
	"time"

	"github.com/google/uuid"
	"github.com/isbjornDAO/tundra-sub002/internal/utils"
)

type ProposalStatus string

const (
	ProposalPending  ProposalStatus = "pending"
	ProposalAccepted ProposalStatus = "accepted"
	ProposalRejected ProposalStatus = "rejected"
)

// TimeSlotProposal is one organizer's suggested start time for a match.
type TimeSlotProposal struct {
	ID          uuid.UUID      `db:"id" json:"id"`
	MatchID     uuid.UUID      `db:"match_id" json:"match_id"`
	ProposerID  string         `db:"proposer_id" json:"proposer_id"`
	ProposedAt  time.Time      `db:"proposed_at" json:"proposed_at"`
	Status      ProposalStatus `db:"status" json:"status"`
	ResponderID string         `db:"responder_id" json:"responder_id,omitempty"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	RespondedAt *time.Time     `db:"responded_at" json:"responded_at,omitempty"`
}

// ResultSubmission is one host's claim about who won a dual-host match.
type ResultSubmission struct {
	ID          uuid.UUID `db:"id" json:"id"`
	MatchID     uuid.UUID `db:"match_id" json:"match_id"`
	ReporterID  string    `db:"reporter_id" json:"reporter_id"`
	Scope       string    `db:"scope" json:"scope"`
	WinnerID    uuid.UUID `db:"winner_id" json:"winner_id"`
	Note        string    `db:"note" json:"note,omitempty"`
	SubmittedAt time.Time `db:"submitted_at" json:"submitted_at"`
}

func (p TimeSlotProposal) clone() TimeSlotProposal {
	p.RespondedAt = utils.ClonePtr(p.RespondedAt)
	return p
}
