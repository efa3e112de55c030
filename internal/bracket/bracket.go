package bracket

import (
	"sort"

	"github.com/google/uuid"
	"github.com/isbjornDAO/tundra-sub002/internal/utils"
)

type BracketStatus string

const (
	BracketActive    BracketStatus = "active"
	BracketCompleted BracketStatus = "completed"
)

// Bracket is the match tree of one tournament. Participants is a by-value snapshot taken
// when the bracket was generated; match slots refer into it.
type Bracket struct {
	ID           uuid.UUID     `json:"id"`
	TournamentID uuid.UUID     `json:"tournament_id"`
	Status       BracketStatus `json:"status"`
	WinnerID     *uuid.UUID    `json:"winner_id,omitempty"`
	Participants []Participant `json:"participants"`
	Matches      []Match       `json:"matches"`
}

func (b *Bracket) Match(id uuid.UUID) *Match {
	for i := range b.Matches {
		if b.Matches[i].ID == id {
			return &b.Matches[i]
		}
	}
	return nil
}

func (b *Bracket) Participant(id uuid.UUID) *Participant {
	for i := range b.Participants {
		if b.Participants[i].ID == id {
			return &b.Participants[i]
		}
	}
	return nil
}

// Final returns the single final-round match.
func (b *Bracket) Final() *Match {
	for i := range b.Matches {
		if b.Matches[i].IsFinal() {
			return &b.Matches[i]
		}
	}
	return nil
}

// Rounds groups matches by round number in ascending order.
func (b *Bracket) Rounds() [][]Match {
	byRound := make(map[int][]Match)
	var nums []int
	for _, m := range b.Matches {
		if _, ok := byRound[m.Round]; !ok {
			nums = append(nums, m.Round)
		}
		byRound[m.Round] = append(byRound[m.Round], m)
	}
	sort.Ints(nums)

	rounds := make([][]Match, 0, len(nums))
	for _, n := range nums {
		ms := byRound[n]
		sort.Slice(ms, func(i, j int) bool { return ms[i].Order < ms[j].Order })
		rounds = append(rounds, ms)
	}
	return rounds
}

func (b *Bracket) Clone() *Bracket {
	if b == nil {
		return nil
	}
	out := *b
	out.WinnerID = utils.ClonePtr(b.WinnerID)
	out.Participants = cloneEach(b.Participants, Participant.clone)
	out.Matches = cloneEach(b.Matches, Match.clone)
	return &out
}

// Snapshot is the complete state of one tournament: the unit of serialization and persistence.
type Snapshot struct {
	Tournament   Tournament
	Participants []Participant
	Bracket      *Bracket
	Proposals    []TimeSlotProposal
	Submissions  []ResultSubmission
}

func (s *Snapshot) Clone() *Snapshot {
	out := &Snapshot{
		Tournament: s.Tournament,
		Bracket:    s.Bracket.Clone(),
	}
	out.Tournament.Policy = s.Tournament.Policy.Clone()
	out.Tournament.BracketID = utils.ClonePtr(s.Tournament.BracketID)
	out.Tournament.WinnerID = utils.ClonePtr(s.Tournament.WinnerID)
	out.Tournament.RunnerUpID = utils.ClonePtr(s.Tournament.RunnerUpID)

	out.Participants = cloneEach(s.Participants, Participant.clone)
	out.Proposals = cloneEach(s.Proposals, TimeSlotProposal.clone)
	out.Submissions = cloneEach(s.Submissions, func(r ResultSubmission) ResultSubmission { return r })
	return out
}

// nil stays nil so clones compare equal to their source
func cloneEach[T any](in []T, clone func(T) T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	for i, v := range in {
		out[i] = clone(v)
	}
	return out
}

// ProposalsFor returns the proposals of a match, oldest first.
func (s *Snapshot) ProposalsFor(matchID uuid.UUID) []TimeSlotProposal {
	var out []TimeSlotProposal
	for _, p := range s.Proposals {
		if p.MatchID == matchID {
			out = append(out, p.clone())
		}
	}
	return out
}

// SubmissionsFor returns the current submissions of a match.
func (s *Snapshot) SubmissionsFor(matchID uuid.UUID) []ResultSubmission {
	var out []ResultSubmission
	for _, r := range s.Submissions {
		if r.MatchID == matchID {
			out = append(out, r)
		}
	}
	return out
}
