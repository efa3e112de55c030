package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/isbjornDAO/tundra-sub002/internal/apperr"
	"github.com/isbjornDAO/tundra-sub002/internal/bracket"
)

type MatchData struct {
	Match        bracket.Match              `json:"match"`
	TournamentID uuid.UUID                  `json:"tournament_id"`
	ParticipantA *bracket.Participant       `json:"participant_a,omitempty"`
	ParticipantB *bracket.Participant       `json:"participant_b,omitempty"`
	Proposals    []bracket.TimeSlotProposal `json:"proposals"`
	Submissions  []bracket.ResultSubmission `json:"submissions"`
}

func (e *Engine) GetMatchData(ctx context.Context, matchID uuid.UUID) (*MatchData, error) {
	tournamentID, err := e.tournamentOfMatch(matchID)
	if err != nil {
		return nil, err
	}

	var data *MatchData
	err = e.read(ctx, tournamentID, func(s *bracket.Snapshot) error {
		m := s.Bracket.Match(matchID)
		if m == nil {
			return notFound("match", matchID)
		}
		data = &MatchData{
			Match:        m.Clone(),
			TournamentID: tournamentID,
			ParticipantA: slotParticipant(s.Bracket, m.SlotA),
			ParticipantB: slotParticipant(s.Bracket, m.SlotB),
			Proposals:    s.ProposalsFor(matchID),
			Submissions:  s.SubmissionsFor(matchID),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

func slotParticipant(b *bracket.Bracket, slot bracket.Slot) *bracket.Participant {
	if !slot.IsConcrete() {
		return nil
	}
	p := b.Participant(*slot.ParticipantID)
	if p == nil {
		return nil
	}
	out := *p
	out.Roster = append([]string(nil), p.Roster...)
	return &out
}

// findMatch resolves a match inside a mutation's scratch snapshot.
func findMatch(c *change, matchID uuid.UUID) (*bracket.Match, error) {
	if c.snap.Bracket == nil {
		return nil, notFound("match", matchID)
	}
	m := c.snap.Bracket.Match(matchID)
	if m == nil {
		return nil, notFound("match", matchID)
	}
	return m, nil
}

// organizers returns the organizer principals of both sides of a ready match.
func organizers(c *change, m *bracket.Match) (string, string) {
	var a, b string
	if p := slotParticipant(c.snap.Bracket, m.SlotA); p != nil {
		a = p.OrganizerID
	}
	if p := slotParticipant(c.snap.Bracket, m.SlotB); p != nil {
		b = p.OrganizerID
	}
	return a, b
}

func isOrganizerOf(c *change, m *bracket.Match, principalID string) bool {
	if principalID == "" {
		return false
	}
	a, b := organizers(c, m)
	return principalID == a || principalID == b
}

// promoteIfDue moves a scheduled match whose start time has passed to awaiting-result.
func promoteIfDue(c *change, m *bracket.Match) bool {
	if m.Status != bracket.MatchScheduled || m.ScheduledAt == nil || c.now.Before(*m.ScheduledAt) {
		return false
	}
	m.Status = bracket.MatchAwaitingResult
	c.emit(bracket.EventMatchAwaitingResult, &m.ID, nil)
	return true
}

// completeMatch records the winner, closes outstanding proposals and runs round advancement.
func (e *Engine) completeMatch(c *change, m *bracket.Match, winnerID uuid.UUID, forced bool) error {
	if err := bracket.Complete(m, winnerID, c.now, forced); err != nil {
		return err
	}

	for i := range c.snap.Proposals {
		p := &c.snap.Proposals[i]
		if p.MatchID == m.ID && p.Status == bracket.ProposalPending {
			p.Status = bracket.ProposalRejected
			at := c.now
			p.RespondedAt = &at
		}
	}

	payload := map[string]string{"winner_id": winnerID.String()}
	if forced {
		payload["forced"] = "true"
	}
	c.emit(bracket.EventMatchCompleted, &m.ID, payload)
	e.applyAdvancement(c, m.ID)
	return nil
}

func (e *Engine) applyAdvancement(c *change, matchID uuid.UUID) bool {
	adv, changed := bracket.Advance(c.snap, matchID)
	for _, id := range adv.Readied {
		c.emit(bracket.EventMatchReady, &id, nil)
	}
	if adv.TournamentCompleted {
		c.releaseGame = true
		payload := map[string]string{"winner_id": adv.WinnerID.String()}
		if adv.RunnerUpID != nil {
			payload["runner_up_id"] = adv.RunnerUpID.String()
		}
		c.emit(bracket.EventTournamentCompleted, nil, payload)
		e.log.Info("tournament completed", "tournament_id", c.snap.Tournament.ID, "winner_id", adv.WinnerID)
	}
	return changed
}

// AdvanceMatch re-applies the result of a completed match to the bracket. It reports whether
// anything changed; once a result is reflected it is a no-op.
func (e *Engine) AdvanceMatch(ctx context.Context, matchID uuid.UUID) (bool, error) {
	tournamentID, err := e.tournamentOfMatch(matchID)
	if err != nil {
		return false, err
	}
	changed := false
	err = e.mutate(ctx, tournamentID, func(c *change) error {
		if _, err := findMatch(c, matchID); err != nil {
			return err
		}
		if !e.applyAdvancement(c, matchID) {
			return errUnchanged
		}
		changed = true
		return nil
	})
	return changed, err
}

// ReportResult completes a single-report match on the word of one of its organizers or an
// administrator.
func (e *Engine) ReportResult(ctx context.Context, matchID uuid.UUID, reporterID string, winnerID uuid.UUID) error {
	reporterID = strings.TrimSpace(reporterID)
	if reporterID == "" {
		return apperr.New(apperr.CodeInvalidInput, "reporter is required")
	}
	tournamentID, err := e.tournamentOfMatch(matchID)
	if err != nil {
		return err
	}
	admin, err := e.isAdmin(ctx, reporterID)
	if err != nil {
		return err
	}

	return e.mutate(ctx, tournamentID, func(c *change) error {
		m, err := findMatch(c, matchID)
		if err != nil {
			return err
		}
		if m.Kind != bracket.SingleReport {
			return apperr.New(apperr.CodeUnauthorizedReporter, "dual-host matches are decided by host submissions")
		}
		if m.Status == bracket.MatchCompleted {
			return apperr.ErrMatchAlreadyCompleted
		}
		if !admin && !isOrganizerOf(c, m, reporterID) {
			return apperr.ErrUnauthorized
		}
		promoteIfDue(c, m)
		if m.Status != bracket.MatchAwaitingResult {
			return apperr.ErrMatchNotAwaitingResult
		}
		return e.completeMatch(c, m, winnerID, false)
	})
}

// PromoteDueMatches moves every scheduled match whose start time has passed to awaiting-result.
// It returns the number of matches promoted.
func (e *Engine) PromoteDueMatches(ctx context.Context) (int, error) {
	total := 0
	for _, id := range e.tournamentIDs() {
		promoted := 0
		err := e.mutate(ctx, id, func(c *change) error {
			if c.snap.Bracket == nil || c.snap.Tournament.Status != bracket.TournamentActive {
				return errUnchanged
			}
			for i := range c.snap.Bracket.Matches {
				if promoteIfDue(c, &c.snap.Bracket.Matches[i]) {
					promoted++
				}
			}
			if promoted == 0 {
				return errUnchanged
			}
			return nil
		})
		if err != nil {
			if apperr.KindOf(err) == apperr.KindNotFound {
				continue
			}
			return total, err
		}
		total += promoted
	}
	if total > 0 {
		e.log.Debug("matches awaiting result", "count", total)
	}
	return total, nil
}
