package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/isbjornDAO/tundra-sub002/internal/apperr"
	"github.com/isbjornDAO/tundra-sub002/internal/bracket"
)

type Decision string

const (
	DecisionAccept Decision = "accept"
	DecisionReject Decision = "reject"
)

func (d Decision) Valid() bool {
	return d == DecisionAccept || d == DecisionReject
}

// ProposeTime offers a start time for a ready match on behalf of one of its organizers.
// Proposing again for a scheduled match cancels the accepted time and reopens negotiation.
func (e *Engine) ProposeTime(ctx context.Context, matchID uuid.UUID, proposerID string, at time.Time) (uuid.UUID, error) {
	proposerID = strings.TrimSpace(proposerID)
	if proposerID == "" {
		return uuid.Nil, apperr.New(apperr.CodeInvalidInput, "proposer is required")
	}
	if at.IsZero() {
		return uuid.Nil, apperr.New(apperr.CodeInvalidInput, "proposed time is required")
	}
	if !at.After(e.cfg.Now()) {
		return uuid.Nil, apperr.WithMetadata(apperr.CodeInvalidTime, "proposed time must be in the future",
			map[string]string{"proposed_at": at.UTC().Format(time.RFC3339)})
	}
	tournamentID, err := e.tournamentOfMatch(matchID)
	if err != nil {
		return uuid.Nil, err
	}

	var proposalID uuid.UUID
	err = e.mutate(ctx, tournamentID, func(c *change) error {
		m, err := findMatch(c, matchID)
		if err != nil {
			return err
		}
		if !m.Ready() || m.Status == bracket.MatchPending {
			return apperr.ErrMatchNotSchedulable
		}
		if !isOrganizerOf(c, m, proposerID) {
			return apperr.ErrUnauthorized
		}
		promoteIfDue(c, m)
		if m.Status != bracket.MatchScheduling && m.Status != bracket.MatchScheduled {
			return apperr.ErrMatchNotSchedulable
		}
		for _, p := range c.snap.Proposals {
			if p.MatchID == matchID && p.Status == bracket.ProposalPending {
				return apperr.WithMetadata(apperr.CodeProposalAlreadyPending, "a time proposal is already pending",
					map[string]string{"proposal_id": p.ID.String()})
			}
		}

		if m.Status == bracket.MatchScheduled {
			cancelAccepted(c, m, proposerID, "superseded")
		}

		p := bracket.TimeSlotProposal{
			ID:         uuid.New(),
			MatchID:    matchID,
			ProposerID: proposerID,
			ProposedAt: at.UTC(),
			Status:     bracket.ProposalPending,
			CreatedAt:  c.now,
		}
		c.snap.Proposals = append(c.snap.Proposals, p)
		c.newProposals = append(c.newProposals, p.ID)
		proposalID = p.ID

		c.emit(bracket.EventTimeProposed, &m.ID, map[string]string{
			"proposal_id": p.ID.String(),
			"proposer_id": proposerID,
			"proposed_at": p.ProposedAt.Format(time.RFC3339),
		})
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	return proposalID, nil
}

// cancelAccepted rejects the accepted proposal of a scheduled match and reverts it to scheduling.
func cancelAccepted(c *change, m *bracket.Match, responderID, reason string) {
	if m.AcceptedProposalID != nil {
		for i := range c.snap.Proposals {
			p := &c.snap.Proposals[i]
			if p.ID == *m.AcceptedProposalID {
				p.Status = bracket.ProposalRejected
				p.ResponderID = responderID
				at := c.now
				p.RespondedAt = &at
				c.emit(bracket.EventTimeRejected, &m.ID, map[string]string{
					"proposal_id": p.ID.String(),
					"reason":      reason,
				})
			}
		}
	}
	m.Status = bracket.MatchScheduling
	m.ScheduledAt = nil
	m.AcceptedProposalID = nil
}

// RespondToTime accepts or rejects a proposal. Only the organizer on the other side of the
// match may respond. An accepted time may still be rejected while the match has not started,
// which reopens negotiation.
func (e *Engine) RespondToTime(ctx context.Context, proposalID uuid.UUID, responderID string, decision Decision) error {
	responderID = strings.TrimSpace(responderID)
	if responderID == "" {
		return apperr.New(apperr.CodeInvalidInput, "responder is required")
	}
	if !decision.Valid() {
		return apperr.New(apperr.CodeInvalidInput, fmt.Sprintf("unknown decision %q", decision))
	}
	tournamentID, err := e.tournamentOfProposal(proposalID)
	if err != nil {
		return err
	}

	return e.mutate(ctx, tournamentID, func(c *change) error {
		var p *bracket.TimeSlotProposal
		for i := range c.snap.Proposals {
			if c.snap.Proposals[i].ID == proposalID {
				p = &c.snap.Proposals[i]
				break
			}
		}
		if p == nil {
			return notFound("proposal", proposalID)
		}
		m, err := findMatch(c, p.MatchID)
		if err != nil {
			return err
		}
		if !isOrganizerOf(c, m, responderID) {
			return apperr.ErrUnauthorized
		}
		if responderID == p.ProposerID {
			return apperr.ErrCannotApproveOwnProposal
		}
		promoteIfDue(c, m)

		switch {
		case decision == DecisionAccept && p.Status == bracket.ProposalPending:
			if m.Status != bracket.MatchScheduling {
				return apperr.ErrMatchNotSchedulable
			}
			if !p.ProposedAt.After(c.now) {
				return apperr.WithMetadata(apperr.CodeInvalidTime, "proposed time has already passed",
					map[string]string{"proposal_id": p.ID.String()})
			}
			accept(c, m, p, responderID)

		case decision == DecisionReject && p.Status == bracket.ProposalPending:
			p.Status = bracket.ProposalRejected
			p.ResponderID = responderID
			at := c.now
			p.RespondedAt = &at
			c.emit(bracket.EventTimeRejected, &m.ID, map[string]string{"proposal_id": p.ID.String()})

		case decision == DecisionReject && p.Status == bracket.ProposalAccepted:
			if m.Status != bracket.MatchScheduled || m.AcceptedProposalID == nil || *m.AcceptedProposalID != p.ID {
				return apperr.ErrMatchNotSchedulable
			}
			cancelAccepted(c, m, responderID, "withdrawn")

		default:
			return apperr.WithMetadata(apperr.CodeProposalNotPending, "proposal is not pending",
				map[string]string{"proposal_id": p.ID.String(), "status": string(p.Status)})
		}
		return nil
	})
}

func accept(c *change, m *bracket.Match, p *bracket.TimeSlotProposal, responderID string) {
	at := c.now
	p.Status = bracket.ProposalAccepted
	p.ResponderID = responderID
	p.RespondedAt = &at

	// At most one accepted proposal per match
	for i := range c.snap.Proposals {
		other := &c.snap.Proposals[i]
		if other.MatchID == m.ID && other.ID != p.ID && other.Status != bracket.ProposalRejected {
			other.Status = bracket.ProposalRejected
			other.RespondedAt = &at
		}
	}

	scheduled := p.ProposedAt
	id := p.ID
	m.ScheduledAt = &scheduled
	m.AcceptedProposalID = &id
	m.Status = bracket.MatchScheduled

	c.emit(bracket.EventTimeAccepted, &m.ID, map[string]string{
		"proposal_id":  p.ID.String(),
		"scheduled_at": scheduled.Format(time.RFC3339),
	})
}
