package service

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/isbjornDAO/tundra-sub002/internal/apperr"
	"github.com/isbjornDAO/tundra-sub002/internal/bracket"
)

type SubmissionInput struct {
	ReporterID string
	Scope      string
	WinnerID   uuid.UUID
	Note       string
}

// SubmitResult records one host's claim for a dual-host match. Once every bound scope has
// submitted, agreeing claims complete the match and disagreeing ones flag it disputed until
// an administrator forces a result.
func (e *Engine) SubmitResult(ctx context.Context, matchID uuid.UUID, in SubmissionInput) error {
	reporter := strings.TrimSpace(in.ReporterID)
	scope := strings.TrimSpace(in.Scope)
	if reporter == "" || scope == "" {
		return apperr.New(apperr.CodeInvalidInput, "reporter and scope are required")
	}
	if in.WinnerID == uuid.Nil {
		return apperr.New(apperr.CodeInvalidInput, "winner is required")
	}
	tournamentID, err := e.tournamentOfMatch(matchID)
	if err != nil {
		return err
	}

	return e.mutate(ctx, tournamentID, func(c *change) error {
		m, err := findMatch(c, matchID)
		if err != nil {
			return err
		}
		bound, ok := m.HostFor(scope)
		if m.Kind != bracket.DualHost || !ok || bound != reporter {
			return apperr.WithMetadata(apperr.CodeUnauthorizedReporter, "reporter is not bound to this scope",
				map[string]string{"scope": scope, "reporter_id": reporter})
		}
		promoteIfDue(c, m)
		if m.Status != bracket.MatchAwaitingResult {
			return apperr.ErrMatchNotAwaitingResult
		}
		if m.Disputed {
			return apperr.ErrMatchDisputed
		}
		if !m.HasParticipant(in.WinnerID) {
			return apperr.ErrInvalidWinner
		}

		sub := bracket.ResultSubmission{
			ID:          uuid.New(),
			MatchID:     matchID,
			ReporterID:  reporter,
			Scope:       scope,
			WinnerID:    in.WinnerID,
			Note:        strings.TrimSpace(in.Note),
			SubmittedAt: c.now,
		}
		replaced := false
		for i := range c.snap.Submissions {
			existing := &c.snap.Submissions[i]
			if existing.MatchID == matchID && existing.Scope == scope {
				sub.ID = existing.ID
				*existing = sub
				replaced = true
				break
			}
		}
		if !replaced {
			c.snap.Submissions = append(c.snap.Submissions, sub)
		}
		c.emit(bracket.EventResultSubmitted, &m.ID, map[string]string{
			"scope":     scope,
			"winner_id": in.WinnerID.String(),
		})

		return e.resolve(c, m)
	})
}

// resolve applies the consensus rule once every bound scope has a submission.
func (e *Engine) resolve(c *change, m *bracket.Match) error {
	byScope := make(map[string]uuid.UUID, len(m.Hosts))
	for _, s := range c.snap.Submissions {
		if s.MatchID == m.ID {
			byScope[s.Scope] = s.WinnerID
		}
	}

	for _, h := range m.Hosts {
		if _, ok := byScope[h.Scope]; !ok {
			return nil
		}
	}

	winner := byScope[m.Hosts[0].Scope]
	for _, h := range m.Hosts[1:] {
		if byScope[h.Scope] != winner {
			m.Disputed = true
			c.emit(bracket.EventMatchDisputed, &m.ID, nil)
			e.log.Warn("match result disputed", "tournament_id", c.snap.Tournament.ID, "match_id", m.ID)
			return nil
		}
	}
	return e.completeMatch(c, m, winner, false)
}

// ForceResult lets an administrator decide any ready, unfinished match regardless of its
// verification kind or negotiation state. Host submissions are kept for audit.
func (e *Engine) ForceResult(ctx context.Context, matchID uuid.UUID, adminID string, winnerID uuid.UUID) error {
	if err := e.requireAdmin(ctx, adminID); err != nil {
		return err
	}
	tournamentID, err := e.tournamentOfMatch(matchID)
	if err != nil {
		return err
	}

	return e.mutate(ctx, tournamentID, func(c *change) error {
		m, err := findMatch(c, matchID)
		if err != nil {
			return err
		}
		if m.Status == bracket.MatchCompleted {
			return apperr.ErrMatchAlreadyCompleted
		}
		if !m.Ready() {
			return apperr.ErrMatchPending
		}
		if err := e.completeMatch(c, m, winnerID, true); err != nil {
			return err
		}
		e.log.Info("match result forced", "tournament_id", c.snap.Tournament.ID, "match_id", m.ID, "admin_id", adminID)
		return nil
	})
}

// ListDisputes returns the disputed matches of a tournament in play order.
func (e *Engine) ListDisputes(ctx context.Context, tournamentID uuid.UUID) ([]MatchData, error) {
	var out []MatchData
	err := e.read(ctx, tournamentID, func(s *bracket.Snapshot) error {
		if s.Bracket == nil {
			return nil
		}
		for _, m := range s.Bracket.Matches {
			if !m.Disputed || m.Status == bracket.MatchCompleted {
				continue
			}
			out = append(out, MatchData{
				Match:        m.Clone(),
				TournamentID: tournamentID,
				ParticipantA: slotParticipant(s.Bracket, m.SlotA),
				ParticipantB: slotParticipant(s.Bracket, m.SlotB),
				Proposals:    s.ProposalsFor(m.ID),
				Submissions:  s.SubmissionsFor(m.ID),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Match.Round != out[j].Match.Round {
			return out[i].Match.Round < out[j].Match.Round
		}
		return out[i].Match.Order < out[j].Match.Order
	})
	return out, nil
}
