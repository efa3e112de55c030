package service

import (
	"context"
	"strconv"

	"github.com/google/uuid"
	"github.com/isbjornDAO/tundra-sub002/internal/apperr"
	"github.com/isbjornDAO/tundra-sub002/internal/bracket"
)

// BracketData is the read view of a generated bracket.
type BracketData struct {
	Tournament  bracket.Tournament         `json:"tournament"`
	Bracket     *bracket.Bracket           `json:"bracket"`
	Rounds      [][]bracket.Match          `json:"rounds"`
	Proposals   []bracket.TimeSlotProposal `json:"proposals"`
	Submissions []bracket.ResultSubmission `json:"submissions"`
	// First unfinished match in play order
	NextMatchID *uuid.UUID `json:"next_match_id,omitempty"`
}

// GenerateBracket builds the match tree of a full tournament. The check that no bracket exists
// and the installation of the new one happen in the same exclusive section.
func (e *Engine) GenerateBracket(ctx context.Context, tournamentID uuid.UUID) (uuid.UUID, error) {
	var bracketID uuid.UUID
	err := e.mutate(ctx, tournamentID, func(c *change) error {
		t := &c.snap.Tournament
		if t.BracketID != nil || c.snap.Bracket != nil {
			return apperr.ErrBracketAlreadyExists
		}
		if t.Status != bracket.TournamentFull {
			return apperr.ErrTournamentNotFull
		}

		b, err := bracket.Build(bracket.BuildParams{
			TournamentID: t.ID,
			Participants: c.snap.Participants,
			Policy:       t.Policy,
		})
		if err != nil {
			return err
		}

		c.snap.Bracket = b
		id := b.ID
		t.BracketID = &id
		t.Status = bracket.TournamentActive
		bracketID = b.ID

		c.emit(bracket.EventBracketGenerated, nil, map[string]string{
			"bracket_id": b.ID.String(),
			"matches":    strconv.Itoa(len(b.Matches)),
		})
		for _, m := range b.Matches {
			c.newMatches = append(c.newMatches, m.ID)
			if m.Status == bracket.MatchScheduling {
				c.emit(bracket.EventMatchReady, &m.ID, nil)
			}
		}
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}

	e.log.Info("bracket generated", "tournament_id", tournamentID, "bracket_id", bracketID)
	return bracketID, nil
}

func (e *Engine) GetBracketData(ctx context.Context, tournamentID uuid.UUID) (*BracketData, error) {
	var data *BracketData
	err := e.read(ctx, tournamentID, func(s *bracket.Snapshot) error {
		if s.Bracket == nil {
			return apperr.WithMetadata(apperr.CodeNotFound, "bracket has not been generated",
				map[string]string{"tournament_id": tournamentID.String()})
		}
		c := s.Clone()
		data = &BracketData{
			Tournament:  c.Tournament,
			Bracket:     c.Bracket,
			Rounds:      c.Bracket.Rounds(),
			Proposals:   c.Proposals,
			Submissions: c.Submissions,
		}
		for _, round := range data.Rounds {
			for _, m := range round {
				if m.Status != bracket.MatchCompleted {
					id := m.ID
					data.NextMatchID = &id
					return nil
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}
