package bracket

import (
	"time"

	"github.com/google/uuid"
	"github.com/isbjornDAO/tundra-sub002/internal/apperr"
)

// Complete marks a ready match as won by winnerID.
func Complete(m *Match, winnerID uuid.UUID, at time.Time, forced bool) error {
	if m.Status == MatchCompleted {
		return apperr.ErrMatchAlreadyCompleted
	}
	loserID, ok := m.Opponent(winnerID)
	if !ok {
		return apperr.ErrInvalidWinner
	}
	m.WinnerID = &winnerID
	m.LoserID = &loserID
	m.Status = MatchCompleted
	m.Disputed = false
	m.Forced = forced
	m.CompletedAt = &at
	return nil
}

// Advancement describes what a completed match changed downstream.
type Advancement struct {
	// Matches that became fully resolved and moved to scheduling
	Readied []uuid.UUID
	// Set when the completed match was the final
	TournamentCompleted bool
	WinnerID            *uuid.UUID
	RunnerUpID          *uuid.UUID
}

// Advance folds the result of a completed match into the bracket: every placeholder waiting
// on it receives the winner, and completing the final completes bracket and tournament.
// It is idempotent; the second return value is false when nothing changed.
func Advance(s *Snapshot, matchID uuid.UUID) (Advancement, bool) {
	var adv Advancement
	b := s.Bracket
	if b == nil {
		return adv, false
	}
	done := b.Match(matchID)
	if done == nil || done.Status != MatchCompleted || done.WinnerID == nil {
		return adv, false
	}
	winner := *done.WinnerID
	changed := false

	for i := range b.Matches {
		m := &b.Matches[i]
		if m.ID == matchID {
			continue
		}
		for _, slot := range []*Slot{&m.SlotA, &m.SlotB} {
			if slot.WaitsOn(matchID) {
				*slot = ConcreteSlot(winner)
				changed = true
			}
		}
		if m.Status == MatchPending && m.Ready() {
			m.Status = MatchScheduling
			adv.Readied = append(adv.Readied, m.ID)
			changed = true
		}
	}

	if done.IsFinal() && b.Status != BracketCompleted {
		b.Status = BracketCompleted
		b.WinnerID = &winner

		t := &s.Tournament
		t.Status = TournamentCompleted
		t.WinnerID = &winner
		if done.LoserID != nil {
			runnerUp := *done.LoserID
			t.RunnerUpID = &runnerUp
		}

		adv.TournamentCompleted = true
		adv.WinnerID = t.WinnerID
		adv.RunnerUpID = t.RunnerUpID
		changed = true
	}

	return adv, changed
}
